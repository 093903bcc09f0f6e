// Package wizard is the terminal front end of a flow. It renders the
// controller's state and turns key presses into controller operations; all
// rules live in the controller.
package wizard

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"charm.land/bubbles/v2/spinner"
	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"
	uv "github.com/charmbracelet/ultraviolet"
	"github.com/mark3labs/dealflow/internal/flows"
	"github.com/mark3labs/dealflow/internal/form"
	"github.com/mark3labs/dealflow/internal/logger"
	"github.com/mark3labs/dealflow/internal/summary"
	"github.com/mark3labs/dealflow/internal/tui/theme"
	core "github.com/mark3labs/dealflow/internal/wizard"
)

// Config wires the model to its collaborators.
type Config struct {
	Submitter       core.Submitter
	Loader          core.Loader
	SubmitTimeout   time.Duration
	SummaryTemplate string
	AutoPreview     bool // open the review when the final step is reached
}

// Result is what the wizard leaves behind when the program exits.
type Result struct {
	Route     string         // Last route the controller asked for
	State     map[string]any // Navigation state that came with Route
	RequestID string         // Last successfully submitted request
	Cancelled bool
}

type submitDoneMsg struct {
	receipt core.Receipt
	err     error
}

// routeSink records navigation requests. Submit calls it from a command
// goroutine.
type routeSink struct {
	mu    sync.Mutex
	route string
	state map[string]any
}

func (r *routeSink) NavigateTo(path string, state map[string]any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.route, r.state = path, state
}

func (r *routeSink) take() (string, map[string]any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	route, state := r.route, r.state
	r.route, r.state = "", nil
	return route, state
}

// Model is the bubbletea model of one flow wizard.
type Model struct {
	ctx         context.Context
	flow        *flows.Flow
	ctl         *core.Controller
	routes      *routeSink
	template    string
	autoPreview bool
	original    form.Data // stored record in edit mode
	log         *logger.Logger

	inputs     []*fieldInput
	focus      int // index into inputs, then into the buttons
	page       int // step shown in edit mode
	notice     string
	submitting bool
	spinner    spinner.Model
	preview    preview
	width      int
	height     int

	result Result
}

// New creates the model and its controller, positioned on the welcome
// screen.
func New(ctx context.Context, flow *flows.Flow, cfg Config) *Model {
	m := &Model{
		ctx:         ctx,
		flow:        flow,
		routes:      &routeSink{},
		template:    cfg.SummaryTemplate,
		autoPreview: cfg.AutoPreview,
		log:         logger.Default.Named("tui"),
		preview:     newPreview(),
	}
	if m.template == "" {
		m.template = summary.DefaultTemplate
	}

	opts := []core.Option{core.WithNavigator(m.routes)}
	if cfg.Submitter != nil {
		opts = append(opts, core.WithSubmitter(cfg.Submitter))
	}
	if cfg.Loader != nil {
		opts = append(opts, core.WithLoader(cfg.Loader))
	}
	if cfg.SubmitTimeout > 0 {
		opts = append(opts, core.WithSubmitTimeout(cfg.SubmitTimeout))
	}
	m.ctl = core.New(flow, opts...)

	s := spinner.New()
	s.Spinner = spinner.Dot
	m.spinner = s

	m.rebuild()
	return m
}

// Controller exposes the underlying controller.
func (m *Model) Controller() *core.Controller {
	return m.ctl
}

// LoadForEdit switches the wizard to edit mode for request id. Call it
// before the program starts.
func (m *Model) LoadForEdit(ctx context.Context, id string) error {
	if err := m.ctl.LoadForEdit(ctx, id); err != nil {
		return err
	}
	m.original = m.ctl.Snapshot().Data
	m.page = 0
	m.rebuild()
	return nil
}

// Run starts a bubbletea program for m and returns its result.
func Run(m *Model) (Result, error) {
	final, err := tea.NewProgram(m, tea.WithContext(m.ctx)).Run()
	if err != nil {
		return Result{}, fmt.Errorf("wizard failed: %w", err)
	}
	wm, ok := final.(*Model)
	if !ok {
		return Result{}, fmt.Errorf("unexpected model type")
	}
	return wm.result, nil
}

// Init focuses the first input.
func (m *Model) Init() tea.Cmd {
	return m.applyFocus()
}

// Update handles messages for the wizard.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		for _, in := range m.inputs {
			in.setWidth(m.inputWidth())
		}
		m.preview.setSize(m.inputWidth(), m.height-12)
		return m, nil

	case spinner.TickMsg:
		if !m.submitting {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case submitDoneMsg:
		return m, m.handleSubmitDone(msg)

	case EditorDoneMsg:
		m.handleEditorDone(msg)
		return m, nil

	case tea.KeyPressMsg:
		return m, m.handleKey(msg)

	case tea.PasteMsg:
		return m, m.handlePaste(msg)
	}

	if m.preview.open {
		var cmd tea.Cmd
		m.preview.viewport, cmd = m.preview.viewport.Update(msg)
		return m, cmd
	}
	if in := m.focusedInput(); in != nil {
		cmd, _ := in.update(msg)
		return m, cmd
	}
	return m, nil
}

func (m *Model) handleKey(msg tea.KeyPressMsg) tea.Cmd {
	snap := m.ctl.Snapshot()

	if msg.String() == "ctrl+c" {
		if snap.Stage == core.StageSuccess {
			return m.finish()
		}
		return m.cancel()
	}
	if m.submitting {
		return nil
	}
	if m.preview.open {
		return m.handlePreviewKey(msg)
	}

	switch snap.Stage {
	case core.StageWelcome, core.StageSuccess:
		switch msg.String() {
		case "tab", "right":
			return m.moveFocus(1)
		case "shift+tab", "left":
			return m.moveFocus(-1)
		case "enter", "space":
			return m.activate(snap, m.focus-len(m.inputs))
		case "esc", "q":
			if snap.Stage == core.StageSuccess {
				return m.finish()
			}
			return m.cancel()
		case "n":
			if snap.Stage == core.StageSuccess {
				return m.createNew()
			}
		}
		return nil
	}
	return m.handleFormKey(msg, snap)
}

func (m *Model) handleFormKey(msg tea.KeyPressMsg, snap core.Snapshot) tea.Cmd {
	finalStep := snap.Stage == core.StageStep && snap.Step == snap.StepCount-1
	in := m.focusedInput()

	switch msg.String() {
	case "tab":
		return m.moveFocus(1)
	case "shift+tab":
		return m.moveFocus(-1)
	case "esc":
		if snap.Stage == core.StageEdit {
			return m.cancel()
		}
		return m.back()
	case "ctrl+n":
		if snap.Stage == core.StageStep {
			return m.next()
		}
		return nil
	case "ctrl+s":
		if finalStep || snap.Stage == core.StageEdit {
			return m.submit()
		}
		return nil
	case "ctrl+p":
		if finalStep || snap.Stage == core.StageEdit {
			m.preview.show(m.previewMarkdown(snap.Data, snap.EditID), m.inputWidth())
		}
		return nil
	case "ctrl+e":
		if in != nil && in.multiline() {
			return openEditor(in.name(), form.AsString(in.value()))
		}
		return nil
	case "pgdown", "pgup":
		if snap.Stage == core.StageEdit {
			delta := 1
			if msg.String() == "pgup" {
				delta = -1
			}
			n := len(m.flow.Steps)
			m.page = ((m.page+delta)%n + n) % n
			return m.rebuild()
		}
		return nil
	case "enter":
		if in == nil {
			return m.activate(snap, m.focus-len(m.inputs))
		}
		if !in.multiline() {
			return m.moveFocus(1)
		}
	}

	if in == nil {
		return nil
	}
	cmd, changed := in.update(msg)
	if changed {
		if err := m.ctl.SetField(in.name(), in.value()); err != nil {
			m.notice = err.Error()
		}
	}
	return cmd
}

func (m *Model) handlePreviewKey(msg tea.KeyPressMsg) tea.Cmd {
	switch msg.String() {
	case "esc", "q", "ctrl+p":
		m.preview.open = false
		return nil
	case "ctrl+s":
		m.preview.open = false
		return m.submit()
	}
	var cmd tea.Cmd
	m.preview.viewport, cmd = m.preview.viewport.Update(msg)
	return cmd
}

// activate presses button idx of the current stage.
func (m *Model) activate(snap core.Snapshot, idx int) tea.Cmd {
	switch snap.Stage {
	case core.StageWelcome:
		if idx == 0 {
			return m.cancel()
		}
		if err := m.ctl.Start(); err != nil {
			m.notice = err.Error()
			return nil
		}
		return m.rebuild()
	case core.StageStep:
		if idx == 0 {
			return m.back()
		}
		return m.next()
	case core.StageEdit:
		if idx == 0 {
			return m.cancel()
		}
		return m.submit()
	case core.StageSuccess:
		if idx == 0 {
			return m.createNew()
		}
		return m.finish()
	}
	return nil
}

func (m *Model) back() tea.Cmd {
	if err := m.ctl.Prev(); err != nil {
		m.notice = err.Error()
		return nil
	}
	m.notice = ""
	return m.rebuild()
}

func (m *Model) next() tea.Cmd {
	err := m.ctl.Next()
	switch {
	case err == nil:
		m.notice = ""
		cmd := m.rebuild()
		if snap := m.ctl.Snapshot(); m.autoPreview && snap.Step == snap.StepCount-1 {
			m.preview.show(m.previewMarkdown(snap.Data, ""), m.inputWidth())
		}
		return cmd
	case errors.Is(err, core.ErrFinalStep):
		return m.submit()
	}
	return m.showError(err)
}

func (m *Model) submit() tea.Cmd {
	if m.submitting {
		return nil
	}
	m.submitting = true
	m.notice = ""
	ctl, ctx := m.ctl, m.ctx
	return tea.Batch(m.spinner.Tick, func() tea.Msg {
		receipt, err := ctl.Submit(ctx)
		return submitDoneMsg{receipt: receipt, err: err}
	})
}

func (m *Model) handleSubmitDone(msg submitDoneMsg) tea.Cmd {
	m.submitting = false
	if msg.err != nil {
		if errors.Is(msg.err, core.ErrAbandoned) {
			return nil
		}
		var subErr *core.SubmissionError
		if errors.As(msg.err, &subErr) {
			// Rendered from the snapshot with a retry hint.
			return nil
		}
		return m.showError(msg.err)
	}

	m.result.RequestID = msg.receipt.RequestID
	m.log.Info("submitted %s", msg.receipt.RequestID)
	if cmd := m.follow(); cmd != nil {
		return cmd
	}
	return m.rebuild()
}

func (m *Model) handleEditorDone(msg EditorDoneMsg) {
	if msg.Err != nil {
		m.notice = "editor: " + msg.Err.Error()
		return
	}
	for _, in := range m.inputs {
		if in.name() != msg.Field {
			continue
		}
		in.setValue(strings.TrimRight(msg.Content, "\n"))
		if err := m.ctl.SetField(in.name(), in.value()); err != nil {
			m.notice = err.Error()
		}
		return
	}
}

// showError moves focus to a blocking field, or shows err as a notice.
func (m *Model) showError(err error) tea.Cmd {
	var blocked *core.StepBlockedError
	if !errors.As(err, &blocked) {
		m.notice = err.Error()
		return nil
	}

	snap := m.ctl.Snapshot()
	switch {
	case snap.Stage == core.StageEdit && blocked.Step != m.page:
		m.page = blocked.Step
		m.rebuild()
	case snap.Stage == core.StageStep && blocked.Step != snap.Step:
		m.notice = fmt.Sprintf("%s: %s", m.flow.Steps[blocked.Step].Title, blocked.Message)
		return nil
	}
	m.notice = ""

	name, ok := m.ctl.FocusField()
	if !ok {
		name = blocked.Field
	}
	for i, in := range m.inputs {
		if in.name() == name {
			m.focus = i
			break
		}
	}
	return m.applyFocus()
}

func (m *Model) cancel() tea.Cmd {
	m.ctl.Cancel()
	m.result.Cancelled = true
	if cmd := m.follow(); cmd != nil {
		return cmd
	}
	return tea.Quit
}

func (m *Model) createNew() tea.Cmd {
	if err := m.ctl.CreateNew(); err != nil {
		m.notice = err.Error()
		return nil
	}
	return m.follow()
}

func (m *Model) finish() tea.Cmd {
	return tea.Quit
}

// follow acts on a pending navigation request. A new-request route keeps the
// wizard running; any other route ends the program.
func (m *Model) follow() tea.Cmd {
	route, state := m.routes.take()
	switch route {
	case "":
		return nil
	case core.RouteNewRequest:
		m.result.Cancelled = false
		return m.rebuild()
	}
	m.result.Route, m.result.State = route, state
	return tea.Quit
}

// rebuild recreates the inputs for the visible step from controller data.
func (m *Model) rebuild() tea.Cmd {
	snap := m.ctl.Snapshot()
	m.inputs = nil
	m.focus = 0

	if step, ok := m.visibleStep(snap); ok {
		for _, fld := range m.flow.Steps[step].Fields {
			if fld.Kind == form.KindDerived {
				continue
			}
			m.inputs = append(m.inputs, newFieldInput(fld, snap.Data[fld.Name], m.inputWidth()))
		}
	}
	if len(m.inputs) == 0 {
		m.focus = len(m.buttonLabels(snap)) - 1
	}
	return m.applyFocus()
}

func (m *Model) visibleStep(snap core.Snapshot) (int, bool) {
	switch snap.Stage {
	case core.StageStep:
		return snap.Step, true
	case core.StageEdit:
		return m.page, true
	}
	return 0, false
}

func (m *Model) focusedInput() *fieldInput {
	if m.focus >= 0 && m.focus < len(m.inputs) {
		return m.inputs[m.focus]
	}
	return nil
}

func (m *Model) applyFocus() tea.Cmd {
	var cmd tea.Cmd
	for i, in := range m.inputs {
		if i == m.focus {
			cmd = in.focus()
		} else {
			in.blur()
		}
	}
	return cmd
}

func (m *Model) moveFocus(delta int) tea.Cmd {
	if in := m.focusedInput(); in != nil {
		m.ctl.Touch(in.name())
	}
	n := len(m.inputs) + len(m.buttonLabels(m.ctl.Snapshot()))
	m.focus = ((m.focus+delta)%n + n) % n
	return m.applyFocus()
}

func (m *Model) buttonLabels(snap core.Snapshot) []string {
	switch snap.Stage {
	case core.StageWelcome:
		return []string{"Cancel", "Start →"}
	case core.StageStep:
		if snap.Step == snap.StepCount-1 {
			return []string{"← Back", "Submit"}
		}
		return []string{"← Back", "Next →"}
	case core.StageEdit:
		return []string{"Cancel", "Save changes"}
	case core.StageSuccess:
		return []string{"New request", "Done"}
	}
	return nil
}

func (m *Model) modalWidth() int {
	if m.width == 0 {
		return 80
	}
	return max(60, min(100, m.width-10))
}

func (m *Model) inputWidth() int {
	return m.modalWidth() - 6
}

// View renders the wizard UI.
func (m *Model) View() tea.View {
	var view tea.View
	view.AltScreen = true

	content := m.render()
	if m.width > 0 && m.height > 0 {
		placed := lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, content)
		canvas := uv.NewScreenBuffer(m.width, m.height)
		uv.NewStyledString(placed).Draw(canvas, uv.Rectangle{
			Min: uv.Position{X: 0, Y: 0},
			Max: uv.Position{X: m.width, Y: m.height},
		})
		content = canvas.Render()
	}
	view.Content = lipgloss.NewLayer(content)
	return view
}

func (m *Model) render() string {
	snap := m.ctl.Snapshot()
	s := theme.Current().S()

	var title string
	var sections []string
	switch {
	case m.preview.open:
		title = "Review · " + m.flow.Title
		sections = append(sections,
			m.preview.viewport.View(),
			renderHintBar("↑↓", "scroll", "ctrl+s", "submit", "esc", "close"),
		)
		return m.frame(title, sections)
	case snap.Stage == core.StageWelcome:
		title = m.flow.Title
		sections = m.welcomeView()
	case snap.Stage == core.StageSuccess:
		title = m.flow.Title
		sections = m.successView(snap)
	default:
		step, _ := m.visibleStep(snap)
		if snap.Stage == core.StageEdit {
			title = fmt.Sprintf("Edit %s · %s", snap.EditID, m.flow.Steps[step].Title)
		} else {
			title = fmt.Sprintf("%s · Step %d of %d: %s", m.flow.Title, step+1, snap.StepCount, m.flow.Steps[step].Title)
		}
		sections = m.stepView(snap, step)
	}

	if m.notice != "" {
		sections = append(sections, s.Warning.Render(m.notice))
	}
	sections = append(sections, m.buttonBar(snap), m.hints(snap))
	return m.frame(title, sections)
}

func (m *Model) frame(title string, sections []string) string {
	s := theme.Current().S()
	body := strings.Join(append([]string{s.Title.Render(title), ""}, sections...), "\n")
	return s.ModalContainer.Width(m.modalWidth()).Render(body)
}

func (m *Model) welcomeView() []string {
	s := theme.Current().S()
	out := []string{}
	if m.flow.Description != "" {
		out = append(out, s.Subtitle.Render(m.flow.Description), "")
	}
	for i, step := range m.flow.Steps {
		out = append(out, fmt.Sprintf("  %d. %s", i+1, step.Title))
	}
	return append(out, "")
}

func (m *Model) successView(snap core.Snapshot) []string {
	s := theme.Current().S()
	return []string{
		s.Success.Render("✓ Request submitted"),
		"",
		s.Label.Render("Request ID  ") + snap.RequestID,
		s.Label.Render("Submitted   ") + snap.SubmittedAt.Local().Format("2006-01-02 15:04:05"),
		"",
	}
}

func (m *Model) stepView(snap core.Snapshot, step int) []string {
	s := theme.Current().S()
	out := []string{m.progress(snap, step)}
	if desc := m.flow.Steps[step].Description; desc != "" {
		out = append(out, s.Subtitle.Render(desc))
	}
	out = append(out, "")

	i := 0
	for _, fld := range m.flow.Steps[step].Fields {
		if fld.Kind == form.KindDerived {
			out = append(out, derivedView(fld, snap.Data[fld.Name]))
			continue
		}
		if i < len(m.inputs) {
			out = append(out, m.inputs[i].view(snap.Errors[fld.Name]))
		}
		i++
	}
	out = append(out, "")

	switch {
	case m.submitting:
		out = append(out, m.spinner.View()+" Submitting…")
	case snap.Err != nil:
		out = append(out, s.Error.Render("Submission failed: "+snap.Err.Error())+"  "+s.Help.Render("ctrl+s to retry"))
	}
	return out
}

// progress renders one marker per step: the visible step, completed steps
// and steps still to do.
func (m *Model) progress(snap core.Snapshot, current int) string {
	th := theme.Current()
	colors := theme.Gradient(th.Primary, th.Secondary, len(m.flow.Steps))
	muted := lipgloss.NewStyle().Foreground(lipgloss.Color(th.FgMuted))

	marks := make([]string, len(m.flow.Steps))
	for i := range m.flow.Steps {
		style := lipgloss.NewStyle().Foreground(lipgloss.Color(colors[i]))
		switch {
		case i == current:
			marks[i] = style.Bold(true).Render("●")
		case i < len(snap.Validity) && snap.Validity[i]:
			marks[i] = style.Render("✓")
		default:
			marks[i] = muted.Render("○")
		}
	}
	return strings.Join(marks, muted.Render("─"))
}

func (m *Model) buttonBar(snap core.Snapshot) string {
	labels := m.buttonLabels(snap)
	bar := NewButtonBar(buttons(m.focus-len(m.inputs), labels...))
	bar.SetWidth(m.inputWidth())
	return bar.Render()
}

func (m *Model) hints(snap core.Snapshot) string {
	switch snap.Stage {
	case core.StageWelcome:
		return renderHintBar("enter", "select", "tab", "switch", "esc", "cancel")
	case core.StageSuccess:
		return renderHintBar("n", "new request", "enter", "select", "q", "done")
	case core.StageEdit:
		return renderHintBar("tab", "next field", "pgup/pgdn", "section", "ctrl+p", "review", "ctrl+s", "save", "esc", "cancel")
	}
	pairs := []string{"tab", "next field"}
	if in := m.focusedInput(); in != nil && in.multiline() {
		pairs = append(pairs, "ctrl+e", "editor")
	}
	if snap.Step == snap.StepCount-1 {
		pairs = append(pairs, "ctrl+p", "review", "ctrl+s", "submit")
	} else {
		pairs = append(pairs, "ctrl+n", "next step")
	}
	return renderHintBar(append(pairs, "esc", "back")...)
}
