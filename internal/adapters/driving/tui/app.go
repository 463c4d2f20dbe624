package tui

import (
	"context"
	"errors"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/sred-drafter/internal/adapters/driving/tui/components/status"
	"github.com/custodia-labs/sred-drafter/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/sred-drafter/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/sred-drafter/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/sred-drafter/internal/adapters/driving/tui/views/form"
	"github.com/custodia-labs/sred-drafter/internal/adapters/driving/tui/views/report"
	"github.com/custodia-labs/sred-drafter/internal/core/domain"
)

// errCanceled is shown when the user abandons a generation in progress.
var errCanceled = errors.New("generation canceled")

// App is the main TUI application model.
// It implements tea.Model for the Bubbletea framework.
type App struct {
	ports  *Ports
	styles *styles.Styles
	keymap *keymap.KeyMap
	ctx    context.Context

	formView   *form.View
	reportView *report.View
	spinner    spinner.Model
	statusBar  *status.Bar

	currentView messages.ViewType
	cancel      context.CancelFunc
	project     domain.ProjectContext
	err         error

	width  int
	height int
	ready  bool
}

// NewApp creates a new TUI application with the given ports.
func NewApp(ports *Ports) (*App, error) {
	if err := ports.Validate(); err != nil {
		return nil, err
	}

	s := styles.DefaultStyles()
	km := keymap.DefaultKeyMap()

	var catalog *domain.SectionCatalog
	if ports.Catalog != nil {
		catalog = ports.Catalog.Catalog()
	}

	return &App{
		ports:       ports,
		styles:      s,
		keymap:      km,
		ctx:         context.Background(),
		formView:    form.NewView(s, km),
		reportView:  report.NewView(s, catalog),
		spinner:     spinner.New(spinner.WithSpinner(spinner.Dot), spinner.WithStyle(s.Spinner)),
		statusBar:   status.NewBar(s, km),
		currentView: messages.ViewForm,
	}, nil
}

// WithContext sets the context generation runs under.
func (a *App) WithContext(ctx context.Context) *App {
	a.ctx = ctx
	return a
}

// Init implements tea.Model.
func (a *App) Init() tea.Cmd {
	return tea.Batch(
		tea.EnterAltScreen,
		tea.SetWindowTitle("sred - Report Drafter"),
		a.formView.Init(),
	)
}

// Update implements tea.Model.
//
//nolint:gocyclo // central message handler
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.SetDimensions(msg.Width, msg.Height)
		return a, nil

	case tea.KeyMsg:
		if keymap.Matches(msg.String(), a.keymap.Quit) {
			a.stopGeneration()
			return a, tea.Quit
		}
		return a, a.handleKey(msg)

	case messages.ReportRequested:
		return a, a.startGeneration(msg.Project)

	case messages.ReportCompleted:
		a.finishGeneration(msg)
		return a, nil

	case spinner.TickMsg:
		if a.currentView != messages.ViewGenerating {
			return a, nil
		}
		a.spinner, cmd = a.spinner.Update(msg)
		return a, cmd

	case messages.ViewChanged:
		a.currentView = msg.View
		return a, nil

	case messages.ErrorOccurred:
		a.err = msg.Err
		a.formView.SetError(msg.Err)
		a.statusBar.SetState(status.StateError)
		a.statusBar.SetMessage(msg.Err.Error())
		return a, nil

	case messages.Quit:
		a.stopGeneration()
		return a, tea.Quit
	}

	// Forward other messages (cursor blink, etc.) to the active view
	switch a.currentView {
	case messages.ViewForm:
		a.formView, cmd = a.formView.Update(msg)
	case messages.ViewReport:
		a.reportView, cmd = a.reportView.Update(msg)
	case messages.ViewGenerating, messages.ViewHelp:
	}
	return a, cmd
}

func (a *App) handleKey(msg tea.KeyMsg) tea.Cmd {
	var cmd tea.Cmd
	k := msg.String()

	switch a.currentView {
	case messages.ViewForm:
		if keymap.Matches(k, a.keymap.Help) {
			a.currentView = messages.ViewHelp
			a.statusBar.SetState(status.StateHelp)
			return nil
		}
		a.formView, cmd = a.formView.Update(msg)
		return cmd

	case messages.ViewGenerating:
		if keymap.Matches(k, a.keymap.Back) {
			a.stopGeneration()
		}
		return nil

	case messages.ViewReport:
		switch {
		case keymap.Matches(k, a.keymap.Back):
			a.toForm()
			return nil
		case keymap.Matches(k, a.keymap.NewReport):
			a.toForm()
			return a.formView.Reset()
		}
		a.reportView, cmd = a.reportView.Update(msg)
		return cmd

	case messages.ViewHelp:
		if keymap.Matches(k, a.keymap.Back) || keymap.Matches(k, a.keymap.Help) {
			a.toForm()
		}
	}
	return nil
}

// startGeneration runs the report service off the UI loop.
func (a *App) startGeneration(project domain.ProjectContext) tea.Cmd {
	ctx, cancel := context.WithCancel(a.ctx)
	a.cancel = cancel
	a.project = project
	a.err = nil
	a.currentView = messages.ViewGenerating
	a.statusBar.SetState(status.StateGenerating)
	a.statusBar.SetMessage("")

	svc := a.ports.Report
	generate := func() tea.Msg {
		r, err := svc.GenerateReport(ctx, project)
		if ctx.Err() != nil && err != nil {
			err = errCanceled
		}
		return messages.ReportCompleted{Report: r, Err: err}
	}
	return tea.Batch(a.spinner.Tick, generate)
}

func (a *App) finishGeneration(msg messages.ReportCompleted) {
	a.stopGeneration()
	if msg.Err == nil && msg.Report == nil {
		msg.Err = domain.ErrEmptyGeneration
	}
	if msg.Err != nil {
		a.err = msg.Err
		a.formView.SetError(msg.Err)
		a.currentView = messages.ViewForm
		a.statusBar.SetState(status.StateError)
		a.statusBar.SetMessage(msg.Err.Error())
		return
	}

	a.reportView.SetReport(msg.Report)
	a.currentView = messages.ViewReport
	a.statusBar.SetState(status.StateReport)
	a.statusBar.SetMessage("")
	a.statusBar.SetWordCount(a.reportView.WordCount())
}

func (a *App) stopGeneration() {
	if a.cancel != nil {
		a.cancel()
		a.cancel = nil
	}
}

func (a *App) toForm() {
	a.currentView = messages.ViewForm
	a.statusBar.Clear()
}

// View implements tea.Model.
func (a *App) View() string {
	if !a.ready {
		return "Initialising..."
	}

	var body string
	switch a.currentView {
	case messages.ViewGenerating:
		body = a.viewGenerating()
	case messages.ViewReport:
		body = a.reportView.View()
	case messages.ViewHelp:
		body = a.viewHelp()
	default:
		body = a.formView.View()
	}

	return lipgloss.JoinVertical(lipgloss.Left, body, a.statusBar.View())
}

func (a *App) viewGenerating() string {
	industry := a.project.Industry
	return a.styles.Title.Render("SR&ED Report Drafter") + "\n" +
		a.spinner.View() + " Drafting, reviewing and refining sections for " +
		a.styles.Normal.Render(industry) + "\n\n" +
		a.styles.Help.Render("[esc] cancel")
}

func (a *App) viewHelp() string {
	return `Help

Form:
  tab, ↓          Next field
  shift+tab, ↑    Previous field
  enter, ctrl+s   Generate report
  f1              This help

Generating:
  esc             Cancel

Report:
  j/k, ↑/↓        Scroll
  n               New report
  esc             Back to form (keeps values)

ctrl+c quits from anywhere.

[esc] back to form`
}

// Run starts the TUI application.
func (a *App) Run() error {
	p := tea.NewProgram(a, tea.WithAltScreen(), tea.WithContext(a.ctx))
	_, err := p.Run()
	a.stopGeneration()
	return err
}

// CurrentView returns the current view type.
func (a *App) CurrentView() messages.ViewType {
	return a.currentView
}

// Err returns the last error that occurred.
func (a *App) Err() error {
	return a.err
}

// Ready returns whether the app has received its dimensions.
func (a *App) Ready() bool {
	return a.ready
}

// Report returns the report on display, if any.
func (a *App) Report() *domain.Report {
	return a.reportView.Report()
}

// Form returns the form view.
func (a *App) Form() *form.View {
	return a.formView
}

// SetDimensions sets the terminal dimensions on every view.
func (a *App) SetDimensions(width, height int) {
	a.width = width
	a.height = height
	a.ready = true
	a.formView.SetDimensions(width, height)
	a.reportView.SetDimensions(width, height-1)
	a.statusBar.SetWidth(width)
}
