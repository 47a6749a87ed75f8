package refdata

import (
	"errors"
	"fmt"
)

// ErrTableNotFound is returned by a Source that has no table of the requested
// kind for a gene. Callers degrade to "Unknown" results instead of failing.
var ErrTableNotFound = errors.New("reference table not found")

// TableFormatError reports a structurally invalid reference table.
type TableFormatError struct {
	Path   string
	Gene   string
	Kind   Kind
	Reason string
}

func (e *TableFormatError) Error() string {
	where := e.Path
	if where == "" {
		where = e.Gene
	}
	return fmt.Sprintf("invalid %s table %s: %s", e.Kind, where, e.Reason)
}
