package refdata

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const cyp2c19Definition = `{
  "Common Name": ["c.-806C>T", "c.681G>A", null],
  "rsID": ["rs12248560", "rs4244285", "rs4986893"],
  "*38": ["C", "G", "G"],
  "*2": ["C", "A", null],
  "*17": ["T", "G", "G"],
  "*1": ["C", "G", "G"],
  "*3": ["C", "G", "A"]
}`

const cyp3a5Functions = `{
  "CYP3A5": {
    "*1": {"Allele Clinical Functional Status (Required)": "Normal function", "Activity Value (Optional)": "1"},
    "*3": {"Allele Clinical Functional Status (Required)": "No function"},
    "*6": {"Activity Value (Optional)": "0"},
    "*7": "not an object"
  }
}`

const cyp3a5Phenotypes = `{
  "CYP3A5": {
    "*1/*1": {"Activity Score": "", "Phenotype": "CYP3A5 Normal Metabolizer", "EHR Priority Notation": "Abnormal/Priority/High Risk"},
    "*1/*3": {"Activity Score": "n/a", "Phenotype": "CYP3A5 Intermediate Metabolizer", "EHR Priority Notation": "Abnormal/Priority/High Risk"},
    "*3/*3": {"Activity Score": 0}
  }
}`

func TestDecodeAlleleDefinition_PreservesOrder(t *testing.T) {
	tbl, err := DecodeAlleleDefinition(strings.NewReader(cyp2c19Definition), "CYP2C19")
	require.NoError(t, err)

	assert.Equal(t, []string{"*38", "*2", "*17", "*1", "*3"}, tbl.Stars())
	assert.Equal(t, []string{"rs12248560", "rs4244285", "rs4986893"}, tbl.RSIDs())

	pos, ok := tbl.Position("rs4244285")
	require.True(t, ok)
	assert.Equal(t, 1, pos)
	assert.Equal(t, BaseCell("A"), tbl.Cell(1, pos))

	assert.False(t, tbl.Cell(1, 2).Valid, "null is an unmapped cell")
	assert.False(t, tbl.Cell(1, 2).Matches(""))
	assert.Equal(t, "-", tbl.Cell(1, 2).String())

	_, ok = tbl.Position("rs0000")
	assert.False(t, ok)
	_, ok = tbl.Position("")
	assert.False(t, ok)
}

func TestDecodeAlleleDefinition_DuplicateKeyKeepsFirstPosition(t *testing.T) {
	doc := `{"rsID": ["rs1"], "*1": ["A"], "*2": ["C"], "*1": ["G"]}`
	tbl, err := DecodeAlleleDefinition(strings.NewReader(doc), "G")
	require.NoError(t, err)
	assert.Equal(t, []string{"*1", "*2"}, tbl.Stars())
	assert.Equal(t, BaseCell("G"), tbl.Cell(0, 0))
}

func TestDecodeAlleleDefinition_Errors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"no rsID row", `{"*1": ["A"]}`},
		{"ragged star", `{"rsID": ["rs1", "rs2"], "*1": ["A"]}`},
		{"not an object", `["rsID"]`},
		{"star not a list", `{"rsID": ["rs1"], "*1": "A"}`},
		{"truncated", `{"rsID": ["rs1"], "*1": [`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeAlleleDefinition(strings.NewReader(tt.doc), "GENE")
			var tfe *TableFormatError
			require.True(t, errors.As(err, &tfe), "got %v", err)
			assert.Equal(t, KindAlleleDefinition, tfe.Kind)
		})
	}
}

func TestNewAlleleDefinitionTable_RejectsBadStarName(t *testing.T) {
	_, err := NewAlleleDefinitionTable("G", []string{"rs1"}, []string{"1"}, [][]Cell{{BaseCell("A")}})
	assert.Error(t, err)

	_, err = NewAlleleDefinitionTable("G", []string{"rs1"}, []string{"*1", "*1"}, [][]Cell{{BaseCell("A")}, {BaseCell("A")}})
	assert.Error(t, err)
}

func TestDecodeFunctions(t *testing.T) {
	tbl, err := DecodeFunctions(strings.NewReader(cyp3a5Functions), "CYP3A5")
	require.NoError(t, err)

	assert.Equal(t, "Normal function", tbl.Status("*1"))
	assert.Equal(t, "No function", tbl.Status("*3"))
	assert.Equal(t, UnknownFunction, tbl.Status("*6"), "entry without status column")
	assert.Equal(t, UnknownFunction, tbl.Status("*7"), "non-object entry")
	assert.Equal(t, UnknownFunction, tbl.Status("*99"))
	assert.Equal(t, "1", tbl.Columns("*1")["Activity Value (Optional)"])
	assert.Equal(t, 3, tbl.Len())
}

func TestDecodeFunctions_OtherGeneBlock(t *testing.T) {
	tbl, err := DecodeFunctions(strings.NewReader(cyp3a5Functions), "CYP2D6")
	require.NoError(t, err)
	assert.Equal(t, 0, tbl.Len())
	assert.Equal(t, UnknownFunction, tbl.Status("*1"))
}

func TestDecodePhenotypes(t *testing.T) {
	tbl, err := DecodePhenotypes(strings.NewReader(cyp3a5Phenotypes), "CYP3A5")
	require.NoError(t, err)
	assert.Equal(t, 3, tbl.Len())

	e, ok := tbl.Lookup("*1/*3")
	require.True(t, ok)
	assert.Equal(t, PhenotypeEntry{
		Phenotype:     "CYP3A5 Intermediate Metabolizer",
		ActivityScore: "n/a",
		EHRPriority:   "Abnormal/Priority/High Risk",
	}, e)

	e, ok = tbl.Lookup("*3/*3")
	require.True(t, ok)
	assert.Equal(t, UnknownPhenotype, e.Phenotype)
	assert.Equal(t, "0", e.ActivityScore)

	_, ok = tbl.Lookup("*3/*1")
	assert.False(t, ok, "lookup is exact; orientation is the resolver's job")
}

func TestDecodePhenotypes_BadJSON(t *testing.T) {
	_, err := DecodePhenotypes(strings.NewReader(`{"CYP3A5": [1, 2]}`), "CYP3A5")
	var tfe *TableFormatError
	require.True(t, errors.As(err, &tfe))
	assert.Equal(t, KindPhenotype, tfe.Kind)
}

func writeTables(t *testing.T) Dirs {
	t.Helper()
	dirs := DefaultDirs(t.TempDir())
	for _, d := range []string{dirs.AlleleDefinition, dirs.Function, dirs.Phenotype} {
		require.NoError(t, os.MkdirAll(d, 0755))
	}
	write := func(dir, name, content string) {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0644))
	}
	write(dirs.AlleleDefinition, "CYP3A5_allele_definition_table.json", `{"rsID": ["rs776746"], "*1": ["A"], "*3": ["G"]}`)
	write(dirs.AlleleDefinition, "CYP2C19_allele_definition_table.json", cyp2c19Definition)
	write(dirs.AlleleDefinition, "README.txt", "ignored")
	write(dirs.Function, "CYP3A5.json", cyp3a5Functions)
	write(dirs.Phenotype, "CYP3A5_diplotype_phenotype.json", cyp3a5Phenotypes)
	return dirs
}

func TestDirSource(t *testing.T) {
	ctx := context.Background()
	src := NewDirSource(writeTables(t))

	def, err := src.AlleleDefinition(ctx, "CYP3A5")
	require.NoError(t, err)
	assert.Equal(t, "CYP3A5_allele_definition_table.json", def.Source)
	assert.Equal(t, []string{"*1", "*3"}, def.Stars())

	fn, err := src.Functions(ctx, "CYP3A5")
	require.NoError(t, err)
	assert.Equal(t, "CYP3A5.json", fn.Source)

	ph, err := src.Phenotypes(ctx, "CYP3A5")
	require.NoError(t, err)
	assert.Equal(t, "CYP3A5_diplotype_phenotype.json", ph.Source)

	_, err = src.Functions(ctx, "CYP2C19")
	assert.ErrorIs(t, err, ErrTableNotFound)
	_, err = src.Phenotypes(ctx, "CYP2C19")
	assert.ErrorIs(t, err, ErrTableNotFound)
	_, err = src.AlleleDefinition(ctx, "VKORC1")
	assert.ErrorIs(t, err, ErrTableNotFound)

	genes, err := src.Genes(KindAlleleDefinition)
	require.NoError(t, err)
	assert.Equal(t, []string{"CYP2C19", "CYP3A5"}, genes)
}

func TestDirSource_FormatErrorCarriesPath(t *testing.T) {
	dirs := writeTables(t)
	path := filepath.Join(dirs.AlleleDefinition, "BAD_allele_definition_table.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"*1": ["A"]}`), 0644))

	_, err := NewDirSource(dirs).AlleleDefinition(context.Background(), "BAD")
	var tfe *TableFormatError
	require.True(t, errors.As(err, &tfe))
	assert.Equal(t, path, tfe.Path)
	assert.NotErrorIs(t, err, ErrTableNotFound)
}

func TestDirSource_MissingDirectory(t *testing.T) {
	src := NewDirSource(DefaultDirs(filepath.Join(t.TempDir(), "absent")))
	genes, err := src.Genes(KindPhenotype)
	require.NoError(t, err)
	assert.Empty(t, genes)
}

func TestMemorySource(t *testing.T) {
	ctx := context.Background()
	m := NewMemorySource()
	def, err := NewAlleleDefinitionTable("CYP3A5", []string{"rs776746"}, []string{"*1"}, [][]Cell{{BaseCell("A")}})
	require.NoError(t, err)
	m.AddAlleleDefinition(def)
	m.AddFunctions(NewFunctionTable("CYP3A5", nil))
	m.AddPhenotypes(NewPhenotypeTable("CYP3A5", nil))

	got, err := m.AlleleDefinition(ctx, "CYP3A5")
	require.NoError(t, err)
	assert.Same(t, def, got)

	_, err = m.Functions(ctx, "CYP3A5")
	assert.NoError(t, err)
	_, err = m.Phenotypes(ctx, "CYP2D6")
	assert.ErrorIs(t, err, ErrTableNotFound)
}

func TestCachedSource(t *testing.T) {
	ctx := context.Background()
	c, err := NewCachedSource(NewDirSource(writeTables(t)), 0)
	require.NoError(t, err)

	first, err := c.AlleleDefinition(ctx, "CYP3A5")
	require.NoError(t, err)
	second, err := c.AlleleDefinition(ctx, "CYP3A5")
	require.NoError(t, err)
	assert.Same(t, first, second)

	_, err = c.Functions(ctx, "CYP2C19")
	assert.ErrorIs(t, err, ErrTableNotFound)

	stats := c.Stats()
	assert.Equal(t, int64(1), stats.Hits)
	assert.Equal(t, int64(2), stats.Misses)
	assert.Equal(t, 1, stats.Len, "missing tables are not cached")

	c.Purge()
	assert.Equal(t, CacheStats{}, c.Stats())
}

func TestPreload(t *testing.T) {
	ctx := context.Background()
	c, err := NewCachedSource(NewDirSource(writeTables(t)), 16)
	require.NoError(t, err)

	require.NoError(t, Preload(ctx, c, []string{"CYP3A5", "CYP2C19", "VKORC1"}, 2))
	assert.Equal(t, 4, c.Stats().Len)

	_, err = c.Phenotypes(ctx, "CYP3A5")
	require.NoError(t, err)
	assert.Equal(t, int64(1), c.Stats().Hits)
}

func TestPreload_FormatErrorStops(t *testing.T) {
	dirs := writeTables(t)
	require.NoError(t, os.WriteFile(filepath.Join(dirs.Phenotype, "BAD_diplotype_phenotype.json"), []byte(`{`), 0644))

	err := Preload(context.Background(), NewDirSource(dirs), []string{"BAD"}, 0)
	var tfe *TableFormatError
	assert.True(t, errors.As(err, &tfe))
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "allele definition", KindAlleleDefinition.String())
	assert.Equal(t, "allele function", KindFunction.String())
	assert.Equal(t, "diplotype phenotype", KindPhenotype.String())
	assert.Equal(t, "Kind(7)", Kind(7).String())
}
