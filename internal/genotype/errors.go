package genotype

import "fmt"

// MissingColumnError reports a required column absent from a genotyping export.
type MissingColumnError struct {
	Column string
}

func (e *MissingColumnError) Error() string {
	return fmt.Sprintf("required column %q not found in genotyping data", e.Column)
}

// MissingHeaderError reports that no header row starting with the marker was found.
type MissingHeaderError struct {
	Marker string
	Rows   int // rows scanned
}

func (e *MissingHeaderError) Error() string {
	return fmt.Sprintf("could not find header row starting with %q (%d rows scanned)", e.Marker, e.Rows)
}
