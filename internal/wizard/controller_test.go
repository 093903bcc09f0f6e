package wizard

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/mark3labs/dealflow/internal/flows"
	"github.com/mark3labs/dealflow/internal/form"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var validFunding = form.Data{
	"title":             "Maple Street Flip",
	"address":           "12 Maple St, Austin TX",
	"propertyType":      "Single Family",
	"propertyCondition": "Needs Work",
	"ownershipStatus":   "Under Contract",
	"photos":            []string{"front.jpg"},
	"fundingType":       "Debt",
	"amount":            "120,000",
	"projectedReturn":   "12.5%",
	"lengthOfFunding":   "9",
	"riskLevel":         "Medium",
	"exitStrategy":      "Fix and Flip",
	"purchasePrice":     "150000",
	"rehabCost":         "0",
	"arv":               "325000",
	"marketTrend":       "Strong Growth",
	"rentalDemand":      "Very High",
	"jobGrowth":         "4",
	"marketAnalysis":    "Austin suburbs keep absorbing tech relocations and inventory stays tight.",
	"description":       "Three bed ranch bought under market from an estate, light cosmetic rehab planned.",
	"documents":         "purchase-agreement.pdf, inspection.pdf",
}

func fundingFlow(t *testing.T) *flows.Flow {
	t.Helper()
	f, err := flows.Load(flows.FundingRequest)
	require.NoError(t, err)
	return f
}

// fillStep sets every non-derived field of the current step from validFunding.
func fillStep(t *testing.T, c *Controller) {
	t.Helper()
	snap := c.Snapshot()
	for _, fld := range c.Flow().Steps[snap.Step].Fields {
		if fld.Kind == form.KindDerived {
			continue
		}
		require.NoError(t, c.SetField(fld.Name, validFunding[fld.Name]))
	}
}

// walkToFinal fills every step and stops on the last one.
func walkToFinal(t *testing.T, c *Controller) {
	t.Helper()
	require.NoError(t, c.Start())
	for {
		fillStep(t, c)
		err := c.Next()
		if errors.Is(err, ErrFinalStep) {
			return
		}
		require.NoError(t, err)
	}
}

type recordingNavigator struct {
	mu    sync.Mutex
	paths []string
}

func (n *recordingNavigator) NavigateTo(path string, _ map[string]any) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.paths = append(n.paths, path)
}

func (n *recordingNavigator) Paths() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.paths...)
}

func okSubmitter(id string) Submitter {
	return SubmitterFunc(func(ctx context.Context, sub Submission) (Receipt, error) {
		return Receipt{RequestID: id}, nil
	})
}

func TestController_StartsOnWelcome(t *testing.T) {
	c := New(fundingFlow(t))
	snap := c.Snapshot()
	assert.Equal(t, StageWelcome, snap.Stage)
	assert.Equal(t, 5, snap.StepCount)
	assert.Empty(t, snap.Errors)

	require.ErrorIs(t, c.Next(), ErrInvalidTransition)
	require.ErrorIs(t, c.Prev(), ErrInvalidTransition)
	require.ErrorIs(t, c.SetField("title", "x"), ErrInvalidTransition)
}

func TestController_NextBlockedSurfacesErrors(t *testing.T) {
	c := New(fundingFlow(t))
	require.NoError(t, c.Start())
	assert.Empty(t, c.Errors(), "untouched fields show no errors")

	err := c.Next()
	var blocked *StepBlockedError
	require.ErrorAs(t, err, &blocked)
	require.ErrorIs(t, err, ErrStepBlocked)
	assert.Equal(t, 0, blocked.Step)
	assert.Equal(t, "title", blocked.Field)
	assert.Equal(t, "Listing title is required", blocked.Message)

	snap := c.Snapshot()
	assert.Equal(t, StageStep, snap.Stage)
	assert.Equal(t, 0, snap.Step)
	assert.Contains(t, snap.Errors, "title")
	assert.Contains(t, snap.Errors, "photos")
	assert.NotContains(t, snap.Errors, "amount", "fields of later steps stay untouched")

	name, ok := c.FocusField()
	require.True(t, ok)
	assert.Equal(t, "title", name)
}

func TestController_NavigationKeepsData(t *testing.T) {
	c := New(fundingFlow(t))
	require.NoError(t, c.Start())
	fillStep(t, c)
	require.NoError(t, c.Next())
	fillStep(t, c)
	require.NoError(t, c.SetField("amount", "0"))

	require.NoError(t, c.Prev())
	snap := c.Snapshot()
	assert.Equal(t, 0, snap.Step)
	assert.Equal(t, "Maple Street Flip", snap.Data["title"])
	assert.Equal(t, "0", snap.Data["amount"])

	require.NoError(t, c.Prev())
	assert.Equal(t, StageWelcome, c.Snapshot().Stage)
	require.NoError(t, c.Start())
	assert.Equal(t, "Maple Street Flip", c.Snapshot().Data["title"])

	require.NoError(t, c.Next())
	err := c.Next()
	var blocked *StepBlockedError
	require.ErrorAs(t, err, &blocked)
	assert.Equal(t, "amount", blocked.Field)
	assert.Equal(t, "Funding amount must be greater than 0", blocked.Message)
}

func TestController_SetFieldRejectsUnknownAndDerived(t *testing.T) {
	c := New(fundingFlow(t))
	require.NoError(t, c.Start())
	require.ErrorIs(t, c.SetField("nope", 1), ErrUnknownField)
	require.ErrorIs(t, c.SetField("estimatedProfit", 1), ErrDerivedField)
	require.ErrorIs(t, c.SetField("marketScore", 99), ErrDerivedField)
}

func TestController_DerivedFieldsFollowInputs(t *testing.T) {
	c := New(fundingFlow(t))
	require.NoError(t, c.Start())

	require.NoError(t, c.SetField("purchasePrice", "150000"))
	require.NoError(t, c.SetField("rehabCost", "0"))
	require.NoError(t, c.SetField("arv", "325000"))
	assert.Equal(t, 167500.0, c.Snapshot().Data["estimatedProfit"])

	require.NoError(t, c.SetField("arv", "100000"))
	assert.Equal(t, 0.0, c.Snapshot().Data["estimatedProfit"])

	require.NoError(t, c.SetField("marketTrend", "Strong Growth"))
	require.NoError(t, c.SetField("rentalDemand", "Very High"))
	require.NoError(t, c.SetField("jobGrowth", "4"))
	assert.Equal(t, 100, c.Snapshot().Data["marketScore"])
}

func TestController_StepValidityTracksEdits(t *testing.T) {
	c := New(fundingFlow(t))
	require.NoError(t, c.Start())
	assert.False(t, c.StepValid(2))

	require.NoError(t, c.SetField("purchasePrice", "150000"))
	require.NoError(t, c.SetField("rehabCost", "0"))
	require.NoError(t, c.SetField("arv", "325000"))
	assert.True(t, c.StepValid(2), "validity is recomputed for every step")

	require.NoError(t, c.SetField("rehabCost", "-1"))
	assert.False(t, c.StepValid(2))
	assert.False(t, c.StepValid(-1))
	assert.False(t, c.StepValid(99))
}

func TestController_SubmitOnlyFromFinalStep(t *testing.T) {
	c := New(fundingFlow(t), WithSubmitter(okSubmitter("REQ-1")))
	_, err := c.Submit(context.Background())
	require.ErrorIs(t, err, ErrInvalidTransition)

	require.NoError(t, c.Start())
	_, err = c.Submit(context.Background())
	require.ErrorIs(t, err, ErrInvalidTransition)
}

func TestController_SubmitGuardedByWholeForm(t *testing.T) {
	c := New(fundingFlow(t), WithSubmitter(okSubmitter("REQ-1")))
	walkToFinal(t, c)

	require.NoError(t, c.SetField("documents", ""))
	_, err := c.Submit(context.Background())
	var blocked *StepBlockedError
	require.ErrorAs(t, err, &blocked)
	assert.Equal(t, 4, blocked.Step)
	assert.Equal(t, "documents", blocked.Field)
	assert.Equal(t, StageStep, c.Snapshot().Stage)
}

func TestController_SubmitSuccess(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	var got Submission
	sub := SubmitterFunc(func(ctx context.Context, s Submission) (Receipt, error) {
		got = s
		return Receipt{RequestID: "REQ-42"}, nil
	})
	nav := &recordingNavigator{}
	c := New(fundingFlow(t), WithSubmitter(sub), WithNavigator(nav), WithClock(func() time.Time { return now }))
	walkToFinal(t, c)

	receipt, err := c.Submit(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "REQ-42", receipt.RequestID)
	assert.Equal(t, now, receipt.SubmittedAt)

	assert.Equal(t, flows.FundingRequest, got.Flow)
	assert.Empty(t, got.ID)
	assert.Equal(t, 167500.0, got.Data["estimatedProfit"])

	snap := c.Snapshot()
	assert.Equal(t, StageSuccess, snap.Stage)
	assert.Equal(t, "REQ-42", snap.RequestID)
	assert.Empty(t, snap.Data, "form data is discarded after success")
	assert.False(t, snap.Submitting)
	assert.Empty(t, nav.Paths(), "create mode stays on the success screen")
}

func TestController_SubmitFailureKeepsData(t *testing.T) {
	calls := 0
	sub := SubmitterFunc(func(ctx context.Context, s Submission) (Receipt, error) {
		calls++
		if calls == 1 {
			return Receipt{}, errors.New("connection refused")
		}
		return Receipt{RequestID: "REQ-2"}, nil
	})
	c := New(fundingFlow(t), WithSubmitter(sub))
	walkToFinal(t, c)
	before := c.Snapshot().Data

	_, err := c.Submit(context.Background())
	var subErr *SubmissionError
	require.ErrorAs(t, err, &subErr)
	assert.True(t, subErr.Retryable)
	assert.Contains(t, err.Error(), "connection refused")

	snap := c.Snapshot()
	assert.Equal(t, StageStep, snap.Stage)
	assert.Equal(t, before, snap.Data)
	assert.False(t, snap.Submitting)
	require.Error(t, snap.Err)

	receipt, err := c.Submit(context.Background())
	require.NoError(t, err, "retry without re-entering data")
	assert.Equal(t, "REQ-2", receipt.RequestID)
	assert.NoError(t, c.Snapshot().Err)
}

func TestController_EmptyRequestIDIsFailure(t *testing.T) {
	c := New(fundingFlow(t), WithSubmitter(okSubmitter("")))
	walkToFinal(t, c)
	_, err := c.Submit(context.Background())
	var subErr *SubmissionError
	require.ErrorAs(t, err, &subErr)
	assert.Equal(t, StageStep, c.Snapshot().Stage)
}

func TestController_SingleInFlightSubmission(t *testing.T) {
	release := make(chan struct{})
	entered := make(chan struct{})
	var calls int
	var mu sync.Mutex
	sub := SubmitterFunc(func(ctx context.Context, s Submission) (Receipt, error) {
		mu.Lock()
		calls++
		mu.Unlock()
		close(entered)
		<-release
		return Receipt{RequestID: "REQ-1"}, nil
	})
	c := New(fundingFlow(t), WithSubmitter(sub))
	walkToFinal(t, c)

	done := make(chan error, 1)
	go func() {
		_, err := c.Submit(context.Background())
		done <- err
	}()
	<-entered

	require.True(t, c.Snapshot().Submitting)
	_, err := c.Submit(context.Background())
	require.ErrorIs(t, err, ErrSubmitInProgress)
	require.ErrorIs(t, c.SetField("title", "changed"), ErrSubmitInProgress)

	close(release)
	require.NoError(t, <-done)

	mu.Lock()
	assert.Equal(t, 1, calls)
	mu.Unlock()
	assert.Equal(t, StageSuccess, c.Snapshot().Stage)
}

func TestController_NavigationBlockedWhileSubmitting(t *testing.T) {
	release := make(chan struct{})
	entered := make(chan struct{})
	sub := SubmitterFunc(func(ctx context.Context, s Submission) (Receipt, error) {
		close(entered)
		<-release
		return Receipt{RequestID: "REQ-1"}, nil
	})
	c := New(fundingFlow(t), WithSubmitter(sub))
	walkToFinal(t, c)
	final := c.Snapshot().Step

	done := make(chan error, 1)
	go func() {
		_, err := c.Submit(context.Background())
		done <- err
	}()
	<-entered

	require.ErrorIs(t, c.Prev(), ErrSubmitInProgress)
	require.ErrorIs(t, c.Next(), ErrSubmitInProgress)
	require.ErrorIs(t, c.Start(), ErrSubmitInProgress)
	snap := c.Snapshot()
	assert.Equal(t, StageStep, snap.Stage)
	assert.Equal(t, final, snap.Step)

	close(release)
	require.NoError(t, <-done)
	snap = c.Snapshot()
	assert.Equal(t, StageSuccess, snap.Stage)
	assert.Equal(t, "REQ-1", snap.RequestID)
}

func TestController_SubmitTimeout(t *testing.T) {
	sub := SubmitterFunc(func(ctx context.Context, s Submission) (Receipt, error) {
		<-ctx.Done()
		return Receipt{}, ctx.Err()
	})
	c := New(fundingFlow(t), WithSubmitter(sub), WithSubmitTimeout(20*time.Millisecond))
	walkToFinal(t, c)

	_, err := c.Submit(context.Background())
	require.ErrorIs(t, err, ErrSubmitTimeout)
	var subErr *SubmissionError
	require.ErrorAs(t, err, &subErr)
	assert.True(t, subErr.Retryable)

	snap := c.Snapshot()
	assert.False(t, snap.Submitting)
	assert.Equal(t, "Maple Street Flip", snap.Data["title"])
}

func TestController_CancelDropsInFlightResult(t *testing.T) {
	release := make(chan struct{})
	entered := make(chan struct{})
	sub := SubmitterFunc(func(ctx context.Context, s Submission) (Receipt, error) {
		close(entered)
		<-release
		return Receipt{RequestID: "REQ-LATE"}, nil
	})
	nav := &recordingNavigator{}
	c := New(fundingFlow(t), WithSubmitter(sub), WithNavigator(nav))
	walkToFinal(t, c)

	done := make(chan error, 1)
	go func() {
		_, err := c.Submit(context.Background())
		done <- err
	}()
	<-entered
	c.Cancel()
	close(release)

	require.ErrorIs(t, <-done, ErrAbandoned)
	snap := c.Snapshot()
	assert.Equal(t, StageWelcome, snap.Stage)
	assert.Empty(t, snap.RequestID)
	assert.Equal(t, []string{RouteRequests}, nav.Paths())
}

func TestController_CreateNewResets(t *testing.T) {
	nav := &recordingNavigator{}
	c := New(fundingFlow(t), WithSubmitter(okSubmitter("REQ-1")), WithNavigator(nav))
	require.ErrorIs(t, c.CreateNew(), ErrInvalidTransition)

	walkToFinal(t, c)
	_, err := c.Submit(context.Background())
	require.NoError(t, err)

	require.NoError(t, c.CreateNew())
	snap := c.Snapshot()
	assert.Equal(t, StageWelcome, snap.Stage)
	assert.Empty(t, snap.RequestID)
	for i := range snap.Validity {
		assert.False(t, snap.Validity[i])
	}
	_, hasTitle := snap.Data["title"]
	assert.False(t, hasTitle)
	assert.Equal(t, []string{RouteNewRequest}, nav.Paths())
}

type mapLoader map[string]form.Data

func (m mapLoader) Load(ctx context.Context, flow, id string) (form.Data, error) {
	d, ok := m[id]
	if !ok {
		return nil, errors.New("not found")
	}
	return d.Clone(), nil
}

func TestController_LoadForEditHydratesWithoutSpuriousErrors(t *testing.T) {
	partial := validFunding.Clone()
	delete(partial, "documents")
	partial["amount"] = "-5"
	partial["estimatedProfit"] = 1.0 // stale stored value, recomputed
	loader := mapLoader{"REQ-1": validFunding, "REQ-2": partial}

	c := New(fundingFlow(t), WithLoader(loader))
	require.NoError(t, c.LoadForEdit(context.Background(), "REQ-1"))
	snap := c.Snapshot()
	assert.Equal(t, StageEdit, snap.Stage)
	assert.Equal(t, "REQ-1", snap.EditID)
	assert.Empty(t, snap.Errors)
	for i, v := range snap.Validity {
		assert.True(t, v, "step %d", i)
	}

	require.NoError(t, c.LoadForEdit(context.Background(), "REQ-2"))
	snap = c.Snapshot()
	assert.Equal(t, map[string]string{"amount": "Funding amount must be greater than 0"}, map[string]string(snap.Errors),
		"missing documents stays quiet until touched, the invalid amount shows")
	assert.Equal(t, 167500.0, snap.Data["estimatedProfit"])

	name, ok := c.FocusField()
	require.True(t, ok)
	assert.Equal(t, "amount", name)

	err := c.LoadForEdit(context.Background(), "missing")
	require.Error(t, err)
}

func TestController_EditSubmitNavigates(t *testing.T) {
	var got Submission
	sub := SubmitterFunc(func(ctx context.Context, s Submission) (Receipt, error) {
		got = s
		return Receipt{RequestID: s.ID}, nil
	})
	nav := &recordingNavigator{}
	c := New(fundingFlow(t), WithSubmitter(sub), WithLoader(mapLoader{"REQ-7": validFunding}), WithNavigator(nav))

	require.NoError(t, c.LoadForEdit(context.Background(), "REQ-7"))
	require.NoError(t, c.SetField("amount", "130000"))
	receipt, err := c.Submit(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "REQ-7", receipt.RequestID)
	assert.Equal(t, "REQ-7", got.ID)
	assert.Equal(t, "130000", got.Data["amount"])
	assert.Equal(t, []string{RequestRoute("REQ-7")}, nav.Paths())
}

func TestController_MissingPorts(t *testing.T) {
	c := New(fundingFlow(t))
	require.ErrorIs(t, c.LoadForEdit(context.Background(), "x"), ErrNoLoader)
	walkToFinal(t, c)
	_, err := c.Submit(context.Background())
	require.ErrorIs(t, err, ErrNoSubmitter)
}

func TestStageString(t *testing.T) {
	assert.Equal(t, "welcome", StageWelcome.String())
	assert.Equal(t, "step", StageStep.String())
	assert.Equal(t, "success", StageSuccess.String())
	assert.Equal(t, "edit", StageEdit.String())
	assert.Equal(t, "unknown", Stage(9).String())
}
