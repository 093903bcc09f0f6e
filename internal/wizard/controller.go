// Package wizard implements the multi-step form state machine. It owns the
// form data, per-step validity and the single in-flight submission, and talks
// to storage and routing only through the Submitter, Loader and Navigator
// ports.
package wizard

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"sync"
	"time"

	"github.com/mark3labs/dealflow/internal/derive"
	"github.com/mark3labs/dealflow/internal/flows"
	"github.com/mark3labs/dealflow/internal/form"
	"github.com/mark3labs/dealflow/internal/logger"
)

// DefaultSubmitTimeout bounds a submission when no timeout option is given.
const DefaultSubmitTimeout = 30 * time.Second

// Stage is the coarse position of the wizard.
type Stage int

const (
	StageWelcome Stage = iota
	StageStep
	StageSuccess
	StageEdit
)

func (s Stage) String() string {
	switch s {
	case StageWelcome:
		return "welcome"
	case StageStep:
		return "step"
	case StageSuccess:
		return "success"
	case StageEdit:
		return "edit"
	default:
		return "unknown"
	}
}

// Option configures a Controller.
type Option func(*Controller)

// WithSubmitter sets the submission port.
func WithSubmitter(s Submitter) Option {
	return func(c *Controller) { c.submitter = s }
}

// WithLoader sets the edit-mode fetch port.
func WithLoader(l Loader) Option {
	return func(c *Controller) { c.loader = l }
}

// WithNavigator sets the routing port.
func WithNavigator(n Navigator) Option {
	return func(c *Controller) {
		if n != nil {
			c.navigator = n
		}
	}
}

// WithSubmitTimeout bounds each submission. Zero disables the bound.
func WithSubmitTimeout(d time.Duration) Option {
	return func(c *Controller) { c.timeout = d }
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(c *Controller) { c.now = now }
}

// Controller drives one wizard instance. It is safe for concurrent use: the
// UI thread mutates it while a submission resolves on another goroutine.
type Controller struct {
	mu sync.Mutex

	flow      *flows.Flow
	derivers  []derive.Deriver
	submitter Submitter
	loader    Loader
	navigator Navigator
	timeout   time.Duration
	now       func() time.Time
	log       *logger.Logger

	stage    Stage
	step     int
	data     form.Data
	validity []bool
	errors   form.Errors
	touched  map[string]bool

	editID      string
	requestID   string
	submittedAt time.Time
	submitting  bool
	lastErr     error

	// gen changes whenever the wizard is reset so a late submission result
	// for an abandoned form is dropped.
	gen uint64
}

// New creates a controller for flow, positioned on the welcome screen.
func New(flow *flows.Flow, opts ...Option) *Controller {
	c := &Controller{
		flow:      flow,
		derivers:  flow.Derivers(),
		navigator: noopNavigator{},
		timeout:   DefaultSubmitTimeout,
		now:       time.Now,
		log:       logger.Default.Named("wizard"),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.resetLocked()
	return c
}

// Flow returns the flow being edited.
func (c *Controller) Flow() *flows.Flow {
	return c.flow
}

func (c *Controller) resetLocked() {
	c.gen++
	c.stage = StageWelcome
	c.step = 0
	c.data = form.Data{}
	c.touched = make(map[string]bool)
	c.validity = make([]bool, len(c.flow.Steps))
	c.errors = form.Errors{}
	c.editID = ""
	c.requestID = ""
	c.submittedAt = time.Time{}
	c.submitting = false
	c.lastErr = nil
	c.deriveLocked()
	c.revalidateLocked()
}

// Start leaves the welcome screen for the first step.
func (c *Controller) Start() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.submitting {
		return ErrSubmitInProgress
	}
	if c.stage != StageWelcome {
		return transitionError("start", c.stage)
	}
	c.stage = StageStep
	c.step = 0
	c.log.Debug("%s: started", c.flow.Name)
	return nil
}

// Next advances one step when the current step is valid. When it is not, the
// step's fields are marked touched so their errors show and a
// *StepBlockedError is returned.
func (c *Controller) Next() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.submitting {
		return ErrSubmitInProgress
	}
	if c.stage != StageStep {
		return transitionError("advance", c.stage)
	}
	if c.step == len(c.flow.Steps)-1 {
		return ErrFinalStep
	}
	if !c.validity[c.step] {
		return c.blockStepLocked(c.step)
	}
	c.step++
	c.log.Debug("%s: step %d", c.flow.Name, c.step+1)
	return nil
}

// Prev goes back one step, or to the welcome screen from the first step. It
// never validates and never touches data.
func (c *Controller) Prev() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.submitting {
		return ErrSubmitInProgress
	}
	if c.stage != StageStep {
		return transitionError("go back", c.stage)
	}
	if c.step == 0 {
		c.stage = StageWelcome
		return nil
	}
	c.step--
	return nil
}

// SetField stores a user-entered value, refreshes derived fields and
// recomputes every step's validity.
func (c *Controller) SetField(name string, value any) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.stage != StageStep && c.stage != StageEdit {
		return transitionError("edit fields", c.stage)
	}
	if c.submitting {
		return ErrSubmitInProgress
	}
	fld, _, ok := c.flow.Field(name)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownField, name)
	}
	if fld.Kind == form.KindDerived {
		return fmt.Errorf("%w: %s", ErrDerivedField, name)
	}

	c.data[name] = value
	c.touched[name] = true
	c.deriveLocked()
	c.revalidateLocked()
	return nil
}

// Touch marks a field as visited so its error, if any, becomes visible.
func (c *Controller) Touch(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, _, ok := c.flow.Field(name); ok {
		c.touched[name] = true
	}
}

// Submit sends the form through the Submitter. Only one submission may be in
// flight; a second call returns ErrSubmitInProgress without changing state.
// On failure the data is kept and a retryable *SubmissionError is returned.
// On success the wizard moves to StageSuccess and the form data is dropped.
func (c *Controller) Submit(ctx context.Context) (Receipt, error) {
	c.mu.Lock()
	if c.submitting {
		c.mu.Unlock()
		return Receipt{}, ErrSubmitInProgress
	}
	onFinal := c.stage == StageStep && c.step == len(c.flow.Steps)-1
	if !onFinal && c.stage != StageEdit {
		err := transitionError("submit", c.stage)
		c.mu.Unlock()
		return Receipt{}, err
	}
	if c.submitter == nil {
		c.mu.Unlock()
		return Receipt{}, ErrNoSubmitter
	}
	if err := c.blockFormLocked(); err != nil {
		c.mu.Unlock()
		return Receipt{}, err
	}

	c.submitting = true
	c.lastErr = nil
	gen := c.gen
	editing := c.stage == StageEdit
	sub := Submission{Flow: c.flow.Name, ID: c.editID, Data: c.data.Clone()}
	submitter, timeout := c.submitter, c.timeout
	c.mu.Unlock()

	c.log.Info("%s: submitting (update=%t)", c.flow.Name, editing)
	receipt, err := runSubmit(ctx, submitter, sub, timeout)
	if err == nil && receipt.RequestID == "" {
		err = errors.New("submitter returned an empty request id")
	}

	c.mu.Lock()
	if gen != c.gen {
		c.mu.Unlock()
		c.log.Debug("%s: dropping result of abandoned submission", c.flow.Name)
		return Receipt{}, ErrAbandoned
	}
	c.submitting = false
	if err != nil {
		subErr := &SubmissionError{Err: err, Retryable: true}
		c.lastErr = subErr
		c.mu.Unlock()
		c.log.Warn("%s: %v", c.flow.Name, subErr)
		return Receipt{}, subErr
	}

	if receipt.SubmittedAt.IsZero() {
		receipt.SubmittedAt = c.now()
	}
	c.stage = StageSuccess
	c.requestID = receipt.RequestID
	c.submittedAt = receipt.SubmittedAt
	c.editID = ""
	c.data = form.Data{}
	c.touched = make(map[string]bool)
	c.validity = make([]bool, len(c.flow.Steps))
	c.errors = form.Errors{}
	nav := c.navigator
	c.mu.Unlock()

	c.log.Info("%s: submitted %s", c.flow.Name, receipt.RequestID)
	if editing {
		nav.NavigateTo(RequestRoute(receipt.RequestID), map[string]any{"updated": true})
	}
	return receipt, nil
}

func runSubmit(ctx context.Context, s Submitter, sub Submission, timeout time.Duration) (Receipt, error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	type result struct {
		receipt Receipt
		err     error
	}
	ch := make(chan result, 1)
	go func() {
		r, err := s.Submit(ctx, sub)
		ch <- result{r, err}
	}()

	select {
	case res := <-ch:
		if res.err != nil && errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return Receipt{}, fmt.Errorf("%w after %s: %v", ErrSubmitTimeout, timeout, res.err)
		}
		return res.receipt, res.err
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return Receipt{}, fmt.Errorf("%w after %s", ErrSubmitTimeout, timeout)
		}
		return Receipt{}, ctx.Err()
	}
}

// CreateNew resets a finished wizard to the welcome screen.
func (c *Controller) CreateNew() error {
	c.mu.Lock()
	if c.stage != StageSuccess {
		err := transitionError("create new", c.stage)
		c.mu.Unlock()
		return err
	}
	c.resetLocked()
	nav := c.navigator
	c.mu.Unlock()

	nav.NavigateTo(RouteNewRequest, nil)
	return nil
}

// Cancel abandons the wizard without persisting anything. A submission still
// in flight is dropped when it resolves.
func (c *Controller) Cancel() {
	c.mu.Lock()
	pending := c.submitting
	c.resetLocked()
	nav := c.navigator
	c.mu.Unlock()

	if pending {
		c.log.Debug("%s: cancelled with a submission in flight", c.flow.Name)
	}
	nav.NavigateTo(RouteRequests, nil)
}

// LoadForEdit fetches request id through the Loader and enters edit mode.
// Populated fields are marked touched so only genuinely invalid values show
// errors.
func (c *Controller) LoadForEdit(ctx context.Context, id string) error {
	c.mu.Lock()
	if c.submitting {
		c.mu.Unlock()
		return ErrSubmitInProgress
	}
	loader := c.loader
	c.mu.Unlock()
	if loader == nil {
		return ErrNoLoader
	}

	data, err := loader.Load(ctx, c.flow.Name, id)
	if err != nil {
		return fmt.Errorf("loading request %s: %w", id, err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.resetLocked()
	c.stage = StageEdit
	c.editID = id
	for _, fld := range c.flow.Fields() {
		if fld.Kind == form.KindDerived {
			continue
		}
		v, ok := data[fld.Name]
		if !ok {
			continue
		}
		c.data[fld.Name] = v
		if !form.IsEmpty(v) {
			c.touched[fld.Name] = true
		}
	}
	c.deriveLocked()
	c.revalidateLocked()
	c.log.Debug("%s: editing %s", c.flow.Name, id)
	return nil
}

func (c *Controller) deriveLocked() {
	if changed := derive.Recompute(c.derivers, c.data); len(changed) > 0 {
		c.data.Merge(changed)
	}
}

func (c *Controller) revalidateLocked() {
	c.errors = form.Errors{}
	for i, step := range c.flow.Steps {
		res := form.ValidateStep(step, c.data)
		c.validity[i] = res.Valid
		maps.Copy(c.errors, res.Errors)
	}
}

func (c *Controller) blockStepLocked(i int) error {
	step := c.flow.Steps[i]
	for _, fld := range step.Fields {
		c.touched[fld.Name] = true
	}
	name, msg, ok := c.errors.First(step)
	if !ok {
		return nil
	}
	c.log.Debug("%s: step %d blocked on %s", c.flow.Name, i+1, name)
	return &StepBlockedError{Step: i, Field: name, Message: msg}
}

func (c *Controller) blockFormLocked() error {
	var first error
	for i, valid := range c.validity {
		if valid {
			continue
		}
		if err := c.blockStepLocked(i); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// Snapshot is a copy of the controller state for rendering.
type Snapshot struct {
	Flow        string      `json:"flow"`
	Stage       Stage       `json:"stage"`
	Step        int         `json:"step"`
	StepCount   int         `json:"step_count"`
	Data        form.Data   `json:"data"`
	Validity    []bool      `json:"validity"`
	Errors      form.Errors `json:"errors,omitempty"`
	Submitting  bool        `json:"submitting"`
	EditID      string      `json:"edit_id,omitempty"`
	RequestID   string      `json:"request_id,omitempty"`
	SubmittedAt time.Time   `json:"submitted_at,omitzero"`
	Err         error       `json:"-"`
}

// Snapshot returns a copy of the current state.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	return Snapshot{
		Flow:        c.flow.Name,
		Stage:       c.stage,
		Step:        c.step,
		StepCount:   len(c.flow.Steps),
		Data:        c.data.Clone(),
		Validity:    append([]bool(nil), c.validity...),
		Errors:      c.visibleErrorsLocked(),
		Submitting:  c.submitting,
		EditID:      c.editID,
		RequestID:   c.requestID,
		SubmittedAt: c.submittedAt,
		Err:         c.lastErr,
	}
}

// Errors returns the failing fields the user has touched.
func (c *Controller) Errors() form.Errors {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.visibleErrorsLocked()
}

func (c *Controller) visibleErrorsLocked() form.Errors {
	out := form.Errors{}
	for name, msg := range c.errors {
		if c.touched[name] {
			out[name] = msg
		}
	}
	return out
}

// StepValid reports the validity of step i.
func (c *Controller) StepValid(i int) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if i < 0 || i >= len(c.validity) {
		return false
	}
	return c.validity[i]
}

// FocusField returns the first field with a visible error on the current step
// (or the whole form in edit mode).
func (c *Controller) FocusField() (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	visible := c.visibleErrorsLocked()
	var steps []form.Step
	switch c.stage {
	case StageStep:
		steps = c.flow.Steps[c.step : c.step+1]
	case StageEdit:
		steps = c.flow.Steps
	}
	for _, step := range steps {
		if name, _, ok := visible.First(step); ok {
			return name, true
		}
	}
	return "", false
}
