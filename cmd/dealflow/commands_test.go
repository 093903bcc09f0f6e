package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"charm.land/lipgloss/v2"
	"github.com/charmbracelet/colorprofile"
	"github.com/mark3labs/dealflow/internal/config"
	"github.com/mark3labs/dealflow/internal/form"
	"github.com/mark3labs/dealflow/internal/requests"
	"github.com/mark3labs/dealflow/internal/wizard"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	lipgloss.Writer.Profile = colorprofile.Ascii
}

func TestPickFlow(t *testing.T) {
	assert.Equal(t, "investor-profile", pickFlow("", "investor-profile", "funding-request"))
	assert.Equal(t, "custom", pickFlow("custom", "investor-profile"))
	assert.Equal(t, "funding-request", pickFlow("", ""))
}

func TestRequestTable(t *testing.T) {
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	out := requestTable([]*requests.Request{
		{ID: "REQ-2", Status: requests.StatusFunded, Title: "Oak Duplex", Flow: "funding-request", Revision: 2, UpdatedAt: at},
		{ID: "INV-1", Status: requests.StatusPending, Title: "Dana Reyes", Flow: "investor-profile", Revision: 1, UpdatedAt: at},
	})
	for _, want := range []string{"ID", "STATUS", "REQ-2", "funded", "Oak Duplex", "INV-1", "investor-profile"} {
		assert.Contains(t, out, want)
	}
}

func TestRunValidate(t *testing.T) {
	cfg = config.Defaults()
	validateFlags.flow = "investor-profile"
	t.Cleanup(func() { validateFlags.flow = "" })

	dir := t.TempDir()
	good := filepath.Join(dir, "good.yaml")
	require.NoError(t, os.WriteFile(good, []byte(`
fullName: Dana Reyes
email: dana@example.com
investorType: Individual
minInvestment: 25000
maxInvestment: 250000
targetReturn: 12
preferredPropertyType: Multi Family
fundingType: Equity
riskLevel: Medium
accreditationStatus: Accredited
documents: [accreditation-letter.pdf]
`), 0o644))
	require.NoError(t, runValidate(validateCmd, []string{good}))

	bad := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte(`{"fullName": "Dana Reyes"}`), 0o644))
	require.Error(t, runValidate(validateCmd, []string{bad}))
}

func TestOpenAppSimulated(t *testing.T) {
	c := config.Defaults()
	c.Backend = config.BackendSimulated
	c.SimulatedDelay = 0

	a, err := openApp(t.Context(), c, false)
	require.NoError(t, err)
	assert.Nil(t, a.store)
	assert.Nil(t, a.loader)
	require.NotNil(t, a.submitter)
	require.NoError(t, a.Close())

	_, err = openApp(t.Context(), c, true)
	require.ErrorIs(t, err, errNoStore)
}

func TestOpenAppNATS(t *testing.T) {
	c := config.Defaults()
	c.DataDir = t.TempDir()

	a, err := openApp(t.Context(), c, true)
	require.NoError(t, err)
	defer func() { _ = a.Close() }()

	require.NotNil(t, a.store)
	receipt, err := a.submitter.Submit(t.Context(), submission("investor-profile", form.Data{"fullName": "Dana Reyes"}))
	require.NoError(t, err)

	req, err := a.store.Get(t.Context(), receipt.RequestID)
	require.NoError(t, err)
	assert.Equal(t, "Dana Reyes", req.Title)
}

func submission(flow string, data form.Data) wizard.Submission {
	return wizard.Submission{Flow: flow, Data: data}
}
