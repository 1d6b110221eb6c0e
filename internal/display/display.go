// Package display provides the terminal UI using Bubble Tea.
//
// The [UI] type manages a persistent pizza status bar and an input
// prompt at the bottom of the terminal. All application output is
// printed above the rendered area via Program.Println / Printf,
// ensuring concurrent writes never garble the display.
package display

import (
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/hammamikhairi/pizzatimer/internal/alert"
	"github.com/hammamikhairi/pizzatimer/internal/countdown"
	"github.com/hammamikhairi/pizzatimer/internal/domain"
	"github.com/hammamikhairi/pizzatimer/internal/timer"
)

// Compile-time interface check.
var _ alert.BannerSink = (*UI)(nil)

// ── Styles ───────────────────────────────────────────────────────

var (
	barBg = lipgloss.NewStyle().
		Background(lipgloss.Color("#27272a")).
		Foreground(lipgloss.Color("#a1a1aa"))

	timerRunStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#fde68a"))

	timerOverdueStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#fca5a5")).
				Bold(true)

	timerPendingStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#71717a")).
				Italic(true)

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#a1a1aa"))

	sepStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#52525b"))

	promptStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#94a3b8"))

	bannerAlertStyle = lipgloss.NewStyle().
				Background(lipgloss.Color("#7c2d12")).
				Foreground(lipgloss.Color("#fff7ed")).
				Bold(true)

	// ── Output styles (soft palette) ──

	// BannerStyle: muted slate for the startup banner.
	BannerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#94a3b8"))

	// Toast: soft sky blue for normal toasts.
	toastStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#bae6fd"))

	// Step: soft mint for step headers.
	stepStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#bbf7d0"))

	// Primary text: light zinc for instructions.
	primaryStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#d4d4d8"))

	// Secondary text: dimmed zinc for hints, tips, metadata.
	secondaryStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#71717a"))

	// Urgent: soft coral for errors/alerts.
	urgentOutputStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#fca5a5")).
				Bold(true)

	userInputEchoStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#a1a1aa"))
)

const promptText = "pizza> "

// StatusSource feeds the status bar. The controller satisfies it. Every
// method is read on the event loop and must return without waiting on the
// network or on anything that prints.
type StatusSource interface {
	Current() (*domain.ActiveSession, bool)
	Stale() bool
	Timer() (timer.Snapshot, bool)
}

// ── UI ───────────────────────────────────────────────────────────

// UI manages the terminal through Bubble Tea.
//
// Call [NewUI] then [UI.Run] (blocking).  Other goroutines may
// safely call [UI.Println], [UI.Printf], and read from
// [UI.InputChan] at any time after [UI.WaitReady] returns.
type UI struct {
	program    *tea.Program
	source     StatusSource
	permission func() domain.Permission
	inputCh    chan string
	readyCh    chan struct{}
	quitCh     chan struct{}
	done       atomic.Bool

	bannerMu sync.Mutex
	banner   *domain.Alert
}

// NewUI creates the display. Call Attach, then Run() to start.
func NewUI() *UI {
	return &UI{
		permission: func() domain.Permission { return domain.PermissionUnsupported },
		inputCh:    make(chan string, 16),
		readyCh:    make(chan struct{}),
		quitCh:     make(chan struct{}),
	}
}

// Attach sets what the status bar shows. permission may be nil. Must be
// called before Run.
func (u *UI) Attach(source StatusSource, permission func() domain.Permission) {
	u.source = source
	if permission != nil {
		u.permission = permission
	}
}

// Println prints a line above the prompt. Thread-safe.
// If the program hasn't started yet, falls back to fmt.Println.
func (u *UI) Println(a ...interface{}) {
	if u.program != nil && !u.done.Load() {
		u.program.Println(a...)
	} else {
		fmt.Println(a...)
	}
}

// Printf prints formatted text above the prompt. Thread-safe.
func (u *UI) Printf(format string, a ...interface{}) {
	if u.program != nil && !u.done.Load() {
		u.program.Printf(format, a...)
	} else {
		fmt.Printf(format+"\n", a...)
	}
}

// InputChan returns completed user-input lines.
func (u *UI) InputChan() <-chan string { return u.inputCh }

// ShowAlert puts the alert in the status area and echoes it into the
// scrollback so it survives dismissal.
func (u *UI) ShowAlert(a domain.Alert) error {
	if u.done.Load() {
		return fmt.Errorf("display closed")
	}
	u.bannerMu.Lock()
	u.banner = &a
	u.bannerMu.Unlock()

	u.PrintUrgent(alertLine(a))
	return nil
}

// ClearAlert removes the banner.
func (u *UI) ClearAlert() {
	u.bannerMu.Lock()
	u.banner = nil
	u.bannerMu.Unlock()
}

func (u *UI) currentBanner() *domain.Alert {
	u.bannerMu.Lock()
	defer u.bannerMu.Unlock()
	return u.banner
}

// ── Styled print helpers ─────────────────────────────────────────

// PrintToast prints a normal toast line.
func (u *UI) PrintToast(text string) {
	u.Println(toastStyle.Render("  " + text))
}

// PrintStep prints a step line.
func (u *UI) PrintStep(text string) {
	u.Println(stepStyle.Render("  " + text))
}

// PrintInstruction prints primary text.
func (u *UI) PrintInstruction(text string) {
	u.Println(primaryStyle.Render("  " + text))
}

// PrintHint prints a secondary/dimmed line.
func (u *UI) PrintHint(text string) {
	u.Println(secondaryStyle.Render("  " + text))
}

// PrintUrgent prints an urgent/error line (red, bold).
func (u *UI) PrintUrgent(text string) {
	u.Println(urgentOutputStyle.Render("  " + text))
}

// PrintUserInput echoes the user's typed command into the scrollback.
func (u *UI) PrintUserInput(text string) {
	u.Println(promptStyle.Render("pizza") + secondaryStyle.Render("> ") + userInputEchoStyle.Render(text))
}

// WaitReady blocks until the Bubble Tea event loop is running. It returns
// false if the UI quit before becoming ready.
func (u *UI) WaitReady() bool {
	select {
	case <-u.readyCh:
		return true
	case <-u.quitCh:
		return false
	}
}

// Quit tells Bubble Tea to exit.
func (u *UI) Quit() {
	if u.program != nil {
		u.program.Quit()
	}
}

// QuitChan is closed when Run returns.
func (u *UI) QuitChan() <-chan struct{} { return u.quitCh }

// Run starts the Bubble Tea event loop.  Blocks until quit.
func (u *UI) Run() error {
	ti := textinput.New()
	// Plain-text prompt: styled prompts break textinput's width math.
	ti.Prompt = promptText
	ti.PromptStyle = promptStyle
	ti.TextStyle = userInputEchoStyle
	ti.Cursor.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("#94a3b8"))
	ti.Focus()
	ti.CharLimit = 200
	ti.Width = 60 // updated on first WindowSizeMsg

	m := model{
		ui:      u,
		input:   ti,
		inputCh: u.inputCh,
		readyCh: u.readyCh,
		echoFn: func(v string) {
			u.PrintUserInput(v)
		},
	}

	u.program = tea.NewProgram(m)
	_, err := u.program.Run()
	u.done.Store(true)
	close(u.quitCh)
	return err
}

// ── Bubble Tea model ─────────────────────────────────────────────

type model struct {
	ui      *UI
	input   textinput.Model
	inputCh chan<- string
	readyCh chan struct{}
	echoFn  func(string)
	status  statusView
	width   int
}

// statusView is everything the bar shows, captured once per tick.
type statusView struct {
	session    *domain.ActiveSession
	stale      bool
	snap       timer.Snapshot
	hasTimer   bool
	permission domain.Permission
	banner     *domain.Alert
}

type tickMsg time.Time

func (m model) Init() tea.Cmd {
	return tea.Batch(
		textinput.Blink,
		tickCmd(),
		signalReady(m.readyCh),
	)
}

func signalReady(ch chan struct{}) tea.Cmd {
	return func() tea.Msg {
		close(ch)
		return nil
	}
}

func tickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC:
			return m, tea.Quit
		case tea.KeyEnter:
			v := m.input.Value()
			m.input.Reset()
			if strings.TrimSpace(v) != "" {
				m.inputCh <- v
				// Echo from a Cmd so Update never blocks on Println.
				echoFn := m.echoFn
				return m, func() tea.Msg {
					echoFn(v)
					return nil
				}
			}
			return m, nil
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		if msg.Width > len(promptText) {
			m.input.Width = msg.Width - len(promptText)
		}
		return m, nil

	case tickMsg:
		m.status = m.capture()
		return m, tea.Batch(tickCmd(), tea.SetWindowTitle(windowTitle(m.status)))
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m model) capture() statusView {
	var v statusView
	if m.ui.source != nil {
		v.session, _ = m.ui.source.Current()
		v.stale = m.ui.source.Stale()
		v.snap, v.hasTimer = m.ui.source.Timer()
	}
	v.permission = m.ui.permission()
	v.banner = m.ui.currentBanner()
	return v
}

func (m model) View() string {
	var b strings.Builder

	w := m.width
	if w <= 0 {
		w = 80
	}
	if m.status.banner != nil {
		b.WriteString(bannerAlertStyle.Width(w).Render(" " + alertLine(*m.status.banner) + "  (type 'ok' to dismiss)"))
		b.WriteByte('\n')
	}
	b.WriteString(barBg.Width(w).Render(renderBar(m.status)))
	b.WriteByte('\n')

	b.WriteByte('\n')
	b.WriteString(m.input.View())
	return b.String()
}

// renderBar builds the one-line pizza status.
func renderBar(v statusView) string {
	sep := sepStyle.Render("  │  ")
	if v.session == nil {
		return " " + timerPendingStyle.Render("no active pizza") + " "
	}

	s := v.session
	parts := []string{
		primaryStyle.Render(s.Name),
		labelStyle.Render(statusLabel(s.Status)),
		labelStyle.Render(fmt.Sprintf("%.0f%% done", s.CompletionPercentage)),
	}

	next := s.NextStep()
	if v.hasTimer && v.snap.NextStep != nil {
		next = v.snap.NextStep
	}
	if next != nil {
		parts = append(parts, labelStyle.Render("next: ")+primaryStyle.Render(next.Title))
	}
	parts = append(parts, renderCountdown(v))
	parts = append(parts, labelStyle.Render("alerts: "+v.permission.String()))
	if v.stale {
		parts = append(parts, timerPendingStyle.Render("out of date"))
	}

	return " " + strings.Join(parts, sep) + " "
}

func renderCountdown(v statusView) string {
	if !v.hasTimer || !v.snap.HasCountdown {
		if v.session != nil && v.session.Status == domain.SessionPaused {
			return timerPendingStyle.Render("paused")
		}
		return timerPendingStyle.Render(countdown.Placeholder)
	}
	if v.snap.Overdue {
		return timerOverdueStyle.Render(v.snap.Formatted + " overdue")
	}
	return timerRunStyle.Render(v.snap.Formatted)
}

func windowTitle(v statusView) string {
	if v.session == nil {
		return "Pizza Timer"
	}
	if v.hasTimer && v.snap.HasCountdown && v.snap.NextStep != nil {
		return fmt.Sprintf("%s %s | %s", v.snap.Formatted, v.snap.NextStep.Title, v.session.Name)
	}
	return "Pizza Timer | " + v.session.Name
}

func alertLine(a domain.Alert) string {
	line := a.Title
	if a.Icon != "" {
		line = a.Icon + " " + line
	}
	if a.Body != "" {
		line += " · " + a.Body
	}
	return line
}

func statusLabel(s domain.SessionStatus) string {
	switch s {
	case domain.SessionPlanning:
		return "planning"
	case domain.SessionInProgress:
		return "in progress"
	case domain.SessionPaused:
		return "paused"
	case domain.SessionCompleted:
		return "completed"
	case domain.SessionCancelled:
		return "cancelled"
	case domain.SessionUnknown:
		return "unknown"
	default:
		return "unknown"
	}
}
