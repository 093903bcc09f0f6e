package flows

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/mark3labs/dealflow/internal/derive"
	"github.com/mark3labs/dealflow/internal/form"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNames(t *testing.T) {
	require.Equal(t, []string{FundingRequest, InvestorProfile}, Names())
}

func TestLoad_BuiltinFlowsValidate(t *testing.T) {
	for _, name := range Names() {
		t.Run(name, func(t *testing.T) {
			f, err := Load(name)
			require.NoError(t, err)
			assert.Equal(t, name, f.Name)
			assert.NotEmpty(t, f.Steps)
			assert.Len(t, f.Derivers(), len(f.Derived))
		})
	}
}

func TestLoad_Unknown(t *testing.T) {
	_, err := Load("nope")
	require.ErrorIs(t, err, ErrUnknownFlow)
}

func TestFundingRequest_Shape(t *testing.T) {
	f, err := Load(FundingRequest)
	require.NoError(t, err)
	require.Len(t, f.Steps, 5)

	var ids []string
	for _, s := range f.Steps {
		ids = append(ids, s.ID)
	}
	assert.Equal(t, []string{"property", "funding", "financials", "market", "documents"}, ids)

	fld, idx, ok := f.Field("estimatedProfit")
	require.True(t, ok)
	assert.Equal(t, 2, idx)
	assert.Equal(t, form.KindDerived, fld.Kind)

	fld, _, ok = f.Field("marketAnalysis")
	require.True(t, ok)
	assert.Equal(t, 50, fld.MinLength)
}

func TestFundingRequest_ScalesMatchDerivers(t *testing.T) {
	f, err := Load(FundingRequest)
	require.NoError(t, err)

	trend, _, ok := f.Field("marketTrend")
	require.True(t, ok)
	assert.Equal(t, derive.TrendScale, trend.Options)

	demand, _, ok := f.Field("rentalDemand")
	require.True(t, ok)
	assert.Equal(t, derive.DemandScale, demand.Options)
}

func TestFlow_ValidateFieldAndStep(t *testing.T) {
	f, err := Load(FundingRequest)
	require.NoError(t, err)

	r := f.ValidateField("amount", "0", nil)
	assert.False(t, r.Valid)
	assert.Equal(t, "Funding amount must be greater than 0", r.Message)

	r = f.ValidateField("missing", "x", nil)
	assert.False(t, r.Valid)

	res, err := f.ValidateStep(2, form.Data{"purchasePrice": "150000", "rehabCost": "0", "arv": "325000"})
	require.NoError(t, err)
	assert.True(t, res.Valid)

	_, err = f.ValidateStep(9, form.Data{})
	require.Error(t, err)

	all := f.ValidateAll(form.Data{})
	assert.False(t, all.Valid)
	assert.Contains(t, all.Errors, "title")
	assert.Contains(t, all.Errors, "documents")
	assert.NotContains(t, all.Errors, "estimatedProfit")
}

func TestParse_RejectsBadDefinitions(t *testing.T) {
	cases := map[string]string{
		"no name":            "steps: [{id: a, fields: [{name: x, kind: text}]}]",
		"no steps":           "name: x",
		"dup field":          "name: x\nsteps:\n  - id: a\n    fields: [{name: f, kind: text}]\n  - id: b\n    fields: [{name: f, kind: text}]",
		"dup step":           "name: x\nsteps:\n  - id: a\n  - id: a",
		"bad kind":           "name: x\nsteps: [{id: a, fields: [{name: f, kind: colour}]}]",
		"bare enum":          "name: x\nsteps: [{id: a, fields: [{name: f, kind: enum}]}]",
		"deriver":            "name: x\nderived: [magic]\nsteps: [{id: a, fields: [{name: f, kind: text}]}]",
		"not derived output": "name: x\nderived: [profit]\nsteps: [{id: a, fields: [{name: estimatedProfit, kind: number}]}]",
		"yaml":               "name: [",
	}
	for name, src := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(src))
			require.Error(t, err)
		})
	}
}

func TestResolve_PrefersDirectory(t *testing.T) {
	dir := t.TempDir()
	custom := "name: funding-request\ntitle: Custom\nsteps: [{id: only, fields: [{name: title, kind: text, required: true}]}]\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "funding-request.yml"), []byte(custom), 0o644))

	f, err := Resolve(FundingRequest, dir)
	require.NoError(t, err)
	assert.Equal(t, "Custom", f.Title)
	assert.Len(t, f.Steps, 1)

	f, err = Resolve(InvestorProfile, dir)
	require.NoError(t, err)
	assert.Equal(t, InvestorProfile, f.Name)
	assert.Len(t, f.Steps, 3)
}

func TestNamesIn(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "joint-venture.yml"), []byte("name: joint-venture\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "funding-request.yaml"), []byte("name: funding-request\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0o644))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "drafts.yaml"), 0o755))

	names, err := NamesIn(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{FundingRequest, InvestorProfile, "joint-venture"}, names)

	names, err = NamesIn("")
	require.NoError(t, err)
	assert.Equal(t, Names(), names)

	_, err = NamesIn(filepath.Join(dir, "missing"))
	require.Error(t, err)
}

func TestLoadFile_Missing(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}
