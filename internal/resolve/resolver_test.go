package resolve

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/MehwishAlam/pgx/internal/genotype"
	"github.com/MehwishAlam/pgx/internal/refdata"
)

// singleSNPTable builds a one-position table; an empty base is an unmapped cell.
func singleSNPTable(t *testing.T, rsid string, stars []string, bases []string) *refdata.AlleleDefinitionTable {
	t.Helper()
	cells := make([][]refdata.Cell, len(bases))
	for i, b := range bases {
		if b == "" {
			cells[i] = []refdata.Cell{{}}
			continue
		}
		cells[i] = []refdata.Cell{refdata.BaseCell(b)}
	}
	tbl, err := refdata.NewAlleleDefinitionTable("GENE", []string{rsid}, stars, cells)
	require.NoError(t, err)
	return tbl
}

func cyp3a5Table(t *testing.T) *refdata.AlleleDefinitionTable {
	return singleSNPTable(t, "rs776746", []string{"*1", "*3"}, []string{"A", "G"})
}

func call(snp, c string) genotype.GenotypeCall {
	return genotype.GenotypeCall{Gene: "GENE", SNPID: snp, SampleID: "S1", Call: c}
}

func TestResolveCall_StarSelection(t *testing.T) {
	tests := []struct {
		name       string
		stars      []string
		bases      []string
		call       string
		wantFirst  string
		wantSecond string
	}{
		{
			name:  "nearest preceding match wins over earlier match",
			stars: []string{"*1", "*2", "*3", "*4"}, bases: []string{"A", "A", "G", "A"},
			call: "A/G", wantFirst: "*2", wantSecond: "*3",
		},
		{
			name:  "second base takes first occurrence in table order",
			stars: []string{"*1", "*2", "*3"}, bases: []string{"A", "G", "G"},
			call: "A/G", wantFirst: "*1", wantSecond: "*2",
		},
		{
			name:  "fallback scans forward from the top when nothing precedes",
			stars: []string{"*1", "*2", "*3"}, bases: []string{"G", "C", "A"},
			call: "A/G", wantFirst: "*3", wantSecond: "*1",
		},
		{
			name:  "match above the anchor is preferred over one below",
			stars: []string{"*1", "*2", "*3", "*4"}, bases: []string{"C", "A", "G", "A"},
			call: "A/G", wantFirst: "*2", wantSecond: "*3",
		},
		{
			name:  "homozygous resolves to the same star",
			stars: []string{"*1", "*2"}, bases: []string{"A", "A"},
			call: "A/A", wantFirst: "*1", wantSecond: "*1",
		},
		{
			name:  "reversed call orientation anchors on the second base",
			stars: []string{"*1", "*2", "*3"}, bases: []string{"A", "G", "A"},
			call: "G/A", wantFirst: "*2", wantSecond: "*1",
		},
		{
			name:  "whitespace inside the call is ignored",
			stars: []string{"*1", "*3"}, bases: []string{"A", "G"},
			call: " A / G ", wantFirst: "*1", wantSecond: "*3",
		},
		{
			name:  "unmapped cells are skipped during both scans",
			stars: []string{"*1", "*2", "*3"}, bases: []string{"A", "", "G"},
			call: "A/G", wantFirst: "*1", wantSecond: "*3",
		},
	}

	r := NewResolver()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tbl := singleSNPTable(t, "rs1", tt.stars, tt.bases)
			d, ok, err := r.ResolveCall(tbl, call("rs1", tt.call))
			require.NoError(t, err)
			require.True(t, ok)
			assert.Equal(t, tt.wantFirst, d.FirstStar)
			assert.Equal(t, tt.wantSecond, d.SecondStar)
			assert.Equal(t, tt.wantFirst+"/"+tt.wantSecond, d.Diplotype)
			assert.Equal(t, 0, d.PositionIndex)
			assert.Equal(t, tt.call, d.Call)
		})
	}
}

func TestResolveCall_PositionIndex(t *testing.T) {
	tbl, err := refdata.NewAlleleDefinitionTable("CYP2C19",
		[]string{"rs12248560", "rs4244285"},
		[]string{"*2", "*17", "*1"},
		[][]refdata.Cell{
			{refdata.BaseCell("C"), refdata.BaseCell("A")},
			{refdata.BaseCell("T"), refdata.BaseCell("G")},
			{refdata.BaseCell("C"), refdata.BaseCell("G")},
		})
	require.NoError(t, err)

	d, ok, err := NewResolver().ResolveCall(tbl, call("rs4244285", "G/A"))
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 1, d.PositionIndex)
	assert.Equal(t, "*17/*2", d.Diplotype)

	d, ok, err = NewResolver().ResolveCall(tbl, call("rs12248560", "C/T"))
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "*2/*17", d.Diplotype)
}

func TestResolveCall_Skipped(t *testing.T) {
	tbl := cyp3a5Table(t)
	r := NewResolver()

	tests := []struct {
		name string
		c    genotype.GenotypeCall
	}{
		{"NOAMP", call("rs776746", "NOAMP")},
		{"lowercase nocall", call("rs776746", "nocall")},
		{"mixed case UND", call("rs776746", "Und")},
		{"INVALID", call("rs776746", "INVALID")},
		{"unmapped SNP", call("rs9999999", "A/G")},
		{"second base unknown", call("rs776746", "A/T")},
		{"first base unknown", call("rs776746", "C/G")},
		{"empty first base never matches", call("rs776746", "/G")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, ok, err := r.ResolveCall(tbl, tt.c)
			require.NoError(t, err)
			assert.False(t, ok)
		})
	}
}

func TestResolveCall_Malformed(t *testing.T) {
	r := NewResolver()
	for _, c := range []string{"A", "A/G/T", "", "AG"} {
		t.Run(c, func(t *testing.T) {
			_, ok, err := r.ResolveCall(cyp3a5Table(t), call("rs776746", c))
			assert.False(t, ok)
			var mce *MalformedCallError
			require.True(t, errors.As(err, &mce))
			assert.Equal(t, "rs776746", mce.SNPID)
			assert.Equal(t, c, mce.Call)
		})
	}
}

func TestResolveCall_Deterministic(t *testing.T) {
	tbl := singleSNPTable(t, "rs1", []string{"*1", "*2", "*3", "*4"}, []string{"A", "G", "A", "G"})
	r := NewResolver()
	want, ok, err := r.ResolveCall(tbl, call("rs1", "A/G"))
	require.NoError(t, err)
	require.True(t, ok)
	for range 100 {
		got, _, _ := r.ResolveCall(tbl, call("rs1", "A/G"))
		assert.Equal(t, want, got)
	}
}

func TestResolveGene(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	r := NewResolver()
	r.SetLogger(zap.New(core))

	calls := []genotype.GenotypeCall{
		call("rs776746", "A/G"),
		call("rs776746", "NOAMP"),
		call("rs000", "A/G"),
		call("rs776746", "A-G"),
		call("rs776746", "T/T"),
		call("rs776746", "G/G"),
	}
	got, warnings := r.ResolveGene("CYP3A5", cyp3a5Table(t), calls)

	require.Len(t, got, 2)
	assert.Equal(t, "*1/*3", got[0].Diplotype)
	assert.Equal(t, "*3/*3", got[1].Diplotype)

	require.Len(t, warnings, 2)
	assert.Equal(t, WarnMalformedCall, warnings[0].Kind)
	assert.Equal(t, WarnUnresolved, warnings[1].Kind)
	assert.Equal(t, "CYP3A5 rs776746: no star allele pair matches call T/T", warnings[1].String())
	assert.Equal(t, 2, logs.Len())
}

func TestResolveGene_MissingTable(t *testing.T) {
	got, warnings := NewResolver().ResolveGene("VKORC1", nil, []genotype.GenotypeCall{call("rs9923231", "C/T")})
	assert.NotNil(t, got)
	assert.Empty(t, got)
	require.Len(t, warnings, 1)
	assert.Equal(t, WarnMissingAlleleTable, warnings[0].Kind)
	assert.Equal(t, "VKORC1: no allele definition table", warnings[0].String())
}

func TestAnnotateFunctions(t *testing.T) {
	ft := refdata.NewFunctionTable("CYP3A5", map[string]map[string]string{
		"*1": {refdata.ColFunctionalStatus: "Normal function"},
		"*3": {refdata.ColFunctionalStatus: "No function"},
	})
	diplotypes := []ResolvedDiplotype{
		{FirstStar: "*1", SecondStar: "*3", Diplotype: "*1/*3"},
		{FirstStar: "*6", SecondStar: "*3", Diplotype: "*6/*3"},
	}

	funcs, warnings := NewResolver().AnnotateFunctions("CYP3A5", ft, diplotypes)
	assert.Empty(t, warnings)
	assert.Equal(t, map[string]string{
		"*1": "Normal function",
		"*3": "No function",
		"*6": refdata.UnknownFunction,
	}, funcs)
}

func TestAnnotateFunctions_MissingTable(t *testing.T) {
	diplotypes := []ResolvedDiplotype{{FirstStar: "*1", SecondStar: "*2", Diplotype: "*1/*2"}}
	funcs, warnings := NewResolver().AnnotateFunctions("CYP2C9", nil, diplotypes)
	assert.Equal(t, map[string]string{"*1": refdata.UnknownFunction, "*2": refdata.UnknownFunction}, funcs)
	require.Len(t, warnings, 1)
	assert.Equal(t, WarnMissingFunctionTable, warnings[0].Kind)
}

func phenotypeTable() *refdata.PhenotypeTable {
	pt := refdata.NewPhenotypeTable("CYP3A5", map[string]refdata.PhenotypeEntry{
		"*1/*1": {Phenotype: "Normal Metabolizer", EHRPriority: "Normal/Routine/Low Risk"},
		"*1/*3": {Phenotype: "Intermediate Metabolizer", ActivityScore: "1.0", EHRPriority: "Abnormal/Priority/High Risk"},
	})
	pt.Source = "CYP3A5_diplotype_phenotype.json"
	return pt
}

func TestResolvePhenotypes_BothOrientations(t *testing.T) {
	diplotypes := []ResolvedDiplotype{
		{FirstStar: "*3", SecondStar: "*1", Diplotype: "*3/*1"},
	}
	funcs := map[string]string{"*1": "Normal function", "*3": "No function"}

	report, warnings := NewResolver().ResolvePhenotypes("CYP3A5", phenotypeTable(), diplotypes, funcs)
	assert.Empty(t, warnings)
	require.Contains(t, report, "*3/*1")

	got := report["*3/*1"]
	assert.Equal(t, [2]string{"*3", "*1"}, got.Alleles, "alleles keep resolved order")
	assert.Equal(t, "Intermediate Metabolizer", got.Phenotype)
	assert.Equal(t, "1.0", got.ActivityScore)
	assert.Equal(t, "Abnormal/Priority/High Risk", got.EHRPriority)
	assert.Equal(t, "CYP3A5_diplotype_phenotype.json", got.SourceReference)
	assert.Equal(t, funcs, got.AlleleFunctions)
}

func TestResolvePhenotypes_Unknown(t *testing.T) {
	diplotypes := []ResolvedDiplotype{
		{FirstStar: "*3", SecondStar: "*3", Diplotype: "*3/*3"},
		{FirstStar: "*3", SecondStar: "*3", Diplotype: "*3/*3"},
		{FirstStar: "*1", SecondStar: "*1", Diplotype: "*1/*1"},
	}
	report, _ := NewResolver().ResolvePhenotypes("CYP3A5", phenotypeTable(), diplotypes, map[string]string{"*1": "Normal function"})
	require.Len(t, report, 2)

	assert.Equal(t, DiplotypePhenotype{
		Alleles:         [2]string{"*3", "*3"},
		AlleleFunctions: map[string]string{"*3": refdata.UnknownFunction},
		Phenotype:       refdata.UnknownPhenotype,
		SourceReference: "CYP3A5_diplotype_phenotype.json",
	}, report["*3/*3"])
	assert.Equal(t, "Normal Metabolizer", report["*1/*1"].Phenotype)
	assert.Len(t, report["*1/*1"].AlleleFunctions, 1)
}

func TestResolvePhenotypes_MissingTable(t *testing.T) {
	diplotypes := []ResolvedDiplotype{{FirstStar: "*1", SecondStar: "*3", Diplotype: "*1/*3"}}
	report, warnings := NewResolver().ResolvePhenotypes("CYP3A5", nil, diplotypes, nil)

	require.Len(t, warnings, 1)
	assert.Equal(t, WarnMissingPhenotypeTable, warnings[0].Kind)
	got := report["*1/*3"]
	assert.Equal(t, refdata.UnknownPhenotype, got.Phenotype)
	assert.Empty(t, got.ActivityScore)
	assert.Empty(t, got.EHRPriority)
	assert.Empty(t, got.SourceReference)
	assert.Equal(t, refdata.UnknownFunction, got.AlleleFunctions["*1"])
}

func TestResolvePhenotypes_NoDiplotypes(t *testing.T) {
	report, warnings := NewResolver().ResolvePhenotypes("CYP3A5", nil, nil, nil)
	assert.NotNil(t, report)
	assert.Empty(t, report)
	assert.Empty(t, warnings)
}

func TestEndToEnd_CYP3A5(t *testing.T) {
	r := NewResolver()
	def := cyp3a5Table(t)
	ft := refdata.NewFunctionTable("CYP3A5", map[string]map[string]string{
		"*1": {refdata.ColFunctionalStatus: "Normal function"},
		"*3": {refdata.ColFunctionalStatus: "No function"},
	})

	diplotypes, _ := r.ResolveGene("CYP3A5", def, []genotype.GenotypeCall{call("rs776746", "A/G")})
	require.Len(t, diplotypes, 1)
	assert.Equal(t, "*1/*3", diplotypes[0].Diplotype)

	funcs, _ := r.AnnotateFunctions("CYP3A5", ft, diplotypes)
	report, _ := r.ResolvePhenotypes("CYP3A5", phenotypeTable(), diplotypes, funcs)

	got := report["*1/*3"]
	assert.Equal(t, [2]string{"*1", "*3"}, got.Alleles)
	assert.Equal(t, "Intermediate Metabolizer", got.Phenotype)
	assert.Equal(t, map[string]string{"*1": "Normal function", "*3": "No function"}, got.AlleleFunctions)
}

func TestIsFailureCall(t *testing.T) {
	assert.True(t, IsFailureCall(" noamp "))
	assert.False(t, IsFailureCall("A/G"))
	assert.False(t, IsFailureCall("NOAMP/G"))
}
