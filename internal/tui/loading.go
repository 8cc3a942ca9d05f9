// Package tui renders the loading screen and the failure dialog in the
// terminal with bubbletea.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/oukeidos/skinscan/internal/analysis"
	sim "github.com/oukeidos/skinscan/internal/progress"
	"github.com/oukeidos/skinscan/internal/reconcile"
	"github.com/oukeidos/skinscan/internal/screen"
	"github.com/oukeidos/skinscan/internal/submission"
)

// NavKind is how the loading screen left. The zero value means the user
// quit before the screen decided.
type NavKind string

const (
	NavReplace NavKind = "replace"
	NavBack    NavKind = "back"
	NavReset   NavKind = "reset"
)

// Navigation is where the loading screen sent the user.
type Navigation struct {
	Kind    NavKind
	Route   reconcile.Route
	Payload *analysis.Payload
}

type tickMsg time.Time

type navMsg Navigation

type dialogMsg struct {
	title   string
	message string
	choices []reconcile.Choice
	pick    func(reconcile.Choice)
}

// Observer is the part of screen.Session the model reads.
type Observer interface {
	Observe() (sim.Fraction, sim.Phase)
	Unmount()
}

// Model is the loading screen.
type Model struct {
	session  Observer
	mount    func()
	interval time.Duration
	bar      progress.Model
	styles   styleSet
	width    int

	fraction sim.Fraction
	phase    sim.Phase

	dialog *dialogMsg
	cursor int

	nav       Navigation
	cancelled bool
	quitting  bool
}

// NewModel builds the screen around a session. mount is run once from Init.
func NewModel(session Observer, mount func(), interval time.Duration) Model {
	bar := progress.New(progress.WithDefaultGradient(), progress.WithoutPercentage())
	bar.Width = 50
	return Model{
		session:  session,
		mount:    mount,
		interval: interval,
		bar:      bar,
		styles:   newStyleSet(),
		width:    80,
	}
}

func (m Model) tick() tea.Cmd {
	return tea.Tick(m.interval, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m Model) Init() tea.Cmd {
	mount := m.mount
	return tea.Batch(func() tea.Msg {
		if mount != nil {
			mount()
		}
		return nil
	}, m.tick())
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.bar.Width = min(max(msg.Width-10, 20), 80)
		return m, nil

	case tickMsg:
		if m.quitting {
			return m, nil
		}
		m.fraction, m.phase = m.session.Observe()
		return m, m.tick()

	case dialogMsg:
		m.fraction, m.phase = m.session.Observe()
		m.dialog = &msg
		m.cursor = 0
		return m, nil

	case navMsg:
		m.nav = Navigation(msg)
		m.quitting = true
		return m, tea.Quit

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "q", "esc":
		m.cancelled = true
		m.quitting = true
		m.session.Unmount()
		return m, tea.Quit
	}
	if m.dialog == nil {
		return m, nil
	}
	switch msg.String() {
	case "left", "h", "shift+tab":
		if m.cursor > 0 {
			m.cursor--
		}
	case "right", "l", "tab":
		if m.cursor < len(m.dialog.choices)-1 {
			m.cursor++
		}
	case "enter", " ":
		d := m.dialog
		m.dialog = nil
		// pick navigates, which sends a navMsg back to the program.
		choice := d.choices[m.cursor]
		return m, func() tea.Msg {
			d.pick(choice)
			return nil
		}
	}
	return m, nil
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}
	var b strings.Builder
	b.WriteString(m.styles.Title.Render("Analyzing your skin"))
	b.WriteString("\n\n")
	b.WriteString(m.bar.ViewAs(float64(m.fraction)))
	b.WriteString(" ")
	b.WriteString(m.styles.Percent.Render(fmt.Sprintf("%3d%%", m.fraction.Percent())))
	b.WriteString("\n")
	b.WriteString(m.styles.Caption.Render(caption(m.phase)))
	b.WriteString("\n")

	if m.dialog != nil {
		b.WriteString("\n")
		b.WriteString(m.dialogView())
		b.WriteString("\n")
		b.WriteString(m.styles.Hint.Render("←/→ choose • enter confirm"))
	} else {
		b.WriteString("\n")
		b.WriteString(m.styles.Hint.Render("q quit"))
	}
	return b.String() + "\n"
}

func (m Model) dialogView() string {
	buttons := make([]string, len(m.dialog.choices))
	for i, c := range m.dialog.choices {
		style := m.styles.Button
		if i == m.cursor {
			style = m.styles.ButtonOn
		}
		buttons[i] = style.Render(c.Label)
	}
	body := lipgloss.JoinVertical(lipgloss.Left,
		m.styles.DialogTtl.Render(m.dialog.title),
		"",
		lipgloss.NewStyle().Width(min(m.width-8, 60)).Render(m.dialog.message),
		"",
		lipgloss.JoinHorizontal(lipgloss.Top, buttons...),
	)
	return m.styles.Dialog.Render(body)
}

func caption(p sim.Phase) string {
	switch p {
	case sim.PhaseRampingRandom:
		return "Uploading your photos…"
	case sim.PhaseFinalCreep:
		return "Almost there…"
	case sim.PhaseCompleting, sim.PhaseDone:
		return "Finishing up…"
	default:
		return "Preparing…"
	}
}

// Navigation returns where the screen sent the user.
func (m Model) Navigation() Navigation { return m.nav }

// Cancelled reports whether the user quit before a decision.
func (m Model) Cancelled() bool { return m.cancelled }

// bridge turns session callbacks into program messages.
type bridge struct {
	send func(tea.Msg)
}

func (b bridge) Replace(route reconcile.Route, payload *analysis.Payload) {
	b.send(navMsg{Kind: NavReplace, Route: route, Payload: payload})
}

func (b bridge) BackTo(route reconcile.Route) {
	b.send(navMsg{Kind: NavBack, Route: route})
}

func (b bridge) ResetTo(route reconcile.Route) {
	b.send(navMsg{Kind: NavReset, Route: route})
}

func (b bridge) Choose(title, message string, choices []reconcile.Choice, pick func(reconcile.Choice)) {
	b.send(dialogMsg{title: title, message: message, choices: choices, pick: pick})
}

// Run shows the loading screen for one submission and blocks until the
// user is navigated away or quits.
func Run(ctx context.Context, starter screen.Starter, req submission.Request, opts screen.Options, teaOpts ...tea.ProgramOption) (Navigation, *screen.Session, error) {
	var p *tea.Program
	br := bridge{send: func(msg tea.Msg) { p.Send(msg) }}
	session := screen.NewSession(starter, req, br, br, opts)

	interval := opts.Timing.FrameInterval
	if interval <= 0 {
		interval = sim.DefaultTiming().FrameInterval
	}
	model := NewModel(session, func() { session.Mount(ctx) }, interval)
	p = tea.NewProgram(model, append([]tea.ProgramOption{tea.WithContext(ctx)}, teaOpts...)...)

	final, err := p.Run()
	session.Unmount()
	if err != nil {
		return Navigation{}, session, fmt.Errorf("loading screen failed: %w", err)
	}
	m := final.(Model)
	if m.Cancelled() {
		return Navigation{}, session, context.Canceled
	}
	return m.Navigation(), session, nil
}
