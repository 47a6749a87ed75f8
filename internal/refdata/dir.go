package refdata

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// File name suffixes of the per-gene JSON exports.
const (
	alleleDefinitionSuffix = "_allele_definition_table.json"
	functionSuffix         = ".json"
	phenotypeSuffix        = "_diplotype_phenotype.json"
)

// Dirs locates the three reference table folders.
type Dirs struct {
	AlleleDefinition string `mapstructure:"allele_definition_dir" yaml:"allele_definition_dir"`
	Function         string `mapstructure:"allele_function_dir" yaml:"allele_function_dir"`
	Phenotype        string `mapstructure:"diplotype_phenotype_dir" yaml:"diplotype_phenotype_dir"`
}

// DefaultDirs returns the folder layout used by the reference data exports.
func DefaultDirs(root string) Dirs {
	return Dirs{
		AlleleDefinition: filepath.Join(root, "allele_definition", "json_file"),
		Function:         filepath.Join(root, "allele_functionality", "json_file"),
		Phenotype:        filepath.Join(root, "diplotype-phenotype", "json_file"),
	}
}

// DirSource loads reference tables from per-gene JSON files.
// Every call reads the file again; wrap it in a CachedSource to reuse tables.
type DirSource struct {
	dirs Dirs
}

// NewDirSource creates a source reading from the given folders.
func NewDirSource(dirs Dirs) *DirSource {
	return &DirSource{dirs: dirs}
}

// Path returns the file that holds the table of kind for gene.
func (s *DirSource) Path(kind Kind, gene string) string {
	switch kind {
	case KindAlleleDefinition:
		return filepath.Join(s.dirs.AlleleDefinition, gene+alleleDefinitionSuffix)
	case KindFunction:
		return filepath.Join(s.dirs.Function, gene+functionSuffix)
	default:
		return filepath.Join(s.dirs.Phenotype, gene+phenotypeSuffix)
	}
}

func (s *DirSource) AlleleDefinition(ctx context.Context, gene string) (*AlleleDefinitionTable, error) {
	var t *AlleleDefinitionTable
	err := s.read(ctx, KindAlleleDefinition, gene, func(r io.Reader) (err error) {
		t, err = DecodeAlleleDefinition(r, gene)
		return err
	})
	if err != nil {
		return nil, err
	}
	t.Source = filepath.Base(s.Path(KindAlleleDefinition, gene))
	return t, nil
}

func (s *DirSource) Functions(ctx context.Context, gene string) (*FunctionTable, error) {
	var t *FunctionTable
	err := s.read(ctx, KindFunction, gene, func(r io.Reader) (err error) {
		t, err = DecodeFunctions(r, gene)
		return err
	})
	if err != nil {
		return nil, err
	}
	t.Source = filepath.Base(s.Path(KindFunction, gene))
	return t, nil
}

func (s *DirSource) Phenotypes(ctx context.Context, gene string) (*PhenotypeTable, error) {
	var t *PhenotypeTable
	err := s.read(ctx, KindPhenotype, gene, func(r io.Reader) (err error) {
		t, err = DecodePhenotypes(r, gene)
		return err
	})
	if err != nil {
		return nil, err
	}
	t.Source = filepath.Base(s.Path(KindPhenotype, gene))
	return t, nil
}

// read opens the table file and hands it to decode. A missing file maps to ErrTableNotFound.
func (s *DirSource) read(ctx context.Context, kind Kind, gene string, decode func(io.Reader) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	path := s.Path(kind, gene)
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%s: %w", path, notFound(kind, gene))
		}
		return fmt.Errorf("open %s table: %w", kind, err)
	}
	defer f.Close()

	if err := decode(f); err != nil {
		var tfe *TableFormatError
		if errors.As(err, &tfe) {
			tfe.Path = path
		}
		return err
	}
	return nil
}

// Genes lists the genes that have a table of kind, sorted.
func (s *DirSource) Genes(kind Kind) ([]string, error) {
	dir := filepath.Dir(s.Path(kind, "x"))
	suffix := strings.TrimPrefix(filepath.Base(s.Path(kind, "x")), "x")

	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read %s directory: %w", kind, err)
	}

	var genes []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, suffix) {
			continue
		}
		gene := strings.TrimSuffix(name, suffix)
		if gene == "" {
			continue
		}
		genes = append(genes, gene)
	}
	sort.Strings(genes)
	return genes, nil
}
