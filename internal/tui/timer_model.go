package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/balkashynov/trakr/internal/ledger"
	"github.com/balkashynov/trakr/internal/models"
	"github.com/balkashynov/trakr/internal/timeutil"
)

// LineSource is what the timer polls for the line it displays.
type LineSource interface {
	GetLine(ctx context.Context, id uint) (*models.Line, error)
	Now() time.Time
}

type timerKeyMap struct {
	Stop key.Binding
	Exit key.Binding
	Quit key.Binding
}

func (k timerKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Stop, k.Exit, k.Quit}
}

func (k timerKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{k.ShortHelp()}
}

var timerKeys = timerKeyMap{
	Stop: key.NewBinding(
		key.WithKeys("s", "S"),
		key.WithHelp("s", "stop & save"),
	),
	Exit: key.NewBinding(
		key.WithKeys("esc", "q"),
		key.WithHelp("esc/q", "exit (keep running)"),
	),
	Quit: key.NewBinding(
		key.WithKeys("ctrl+c"),
		key.WithHelp("ctrl+c", "force quit"),
	),
}

// TimerModel represents the TUI model for a running line
type TimerModel struct {
	width  int
	height int

	source  LineSource
	tracker string
	line    models.Line

	// Derived on every refresh
	elapsed time.Duration // open session
	total   time.Duration // all sessions of the line, live included
	err     error

	// Animation state
	timerAnimation int

	keys timerKeyMap
	help help.Model

	// UI state
	stopping      bool // user pressed S, stop the session on exit
	exiting       bool // user pressed ESC/Q, keep the session open
	closedOutside bool // the session was stopped by another caller
}

// lineRefreshedMsg carries a fresh read of the line
type lineRefreshedMsg struct {
	line *models.Line
	now  time.Time
	err  error
}

// animationTickMsg is sent for faster animations
type animationTickMsg struct{}

// NewTimerModel creates a timer for line, owned by the tracker labelled
// tracker
func NewTimerModel(source LineSource, tracker string, line models.Line) TimerModel {
	h := help.New()
	h.Styles.ShortKey = lipgloss.NewStyle().Foreground(lipgloss.Color(ColorAccentBright))
	h.Styles.ShortDesc = lipgloss.NewStyle().Foreground(lipgloss.Color(ColorHelpText))

	m := TimerModel{
		source:  source,
		tracker: tracker,
		line:    line,
		keys:    timerKeys,
		help:    h,
	}
	m.recompute(source.Now())
	return m
}

// Init starts the refresh and animation tickers
func (m TimerModel) Init() tea.Cmd {
	return tea.Batch(m.refresh(), animate())
}

// refresh re-reads the line one second from now
func (m TimerModel) refresh() tea.Cmd {
	source, id := m.source, m.line.ID
	return tea.Tick(time.Second, func(time.Time) tea.Msg {
		line, err := source.GetLine(context.Background(), id)
		return lineRefreshedMsg{line: line, now: source.Now(), err: err}
	})
}

func animate() tea.Cmd {
	return tea.Tick(250*time.Millisecond, func(time.Time) tea.Msg {
		return animationTickMsg{}
	})
}

func (m *TimerModel) recompute(now time.Time) {
	m.elapsed = 0
	if open := m.line.OpenSession(); open != nil {
		m.elapsed = ledger.Elapsed(*open, now)
	}
	m.total = ledger.LiveTotal(m.line, now)
}

// Update handles messages
func (m TimerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case lineRefreshedMsg:
		if m.stopping || m.exiting {
			return m, nil
		}
		if msg.err != nil {
			// keep the last good snapshot on screen and try again
			m.err = msg.err
			return m, m.refresh()
		}
		m.err = nil
		m.line = *msg.line
		m.recompute(msg.now)

		if !m.line.IsActive() {
			m.closedOutside = true
			return m, tea.Quit
		}
		return m, m.refresh()

	case animationTickMsg:
		m.timerAnimation = (m.timerAnimation + 1) % 4
		if !m.stopping && !m.exiting {
			return m, animate()
		}
		return m, nil

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Stop):
			m.stopping = true
			return m, tea.Quit
		case key.Matches(msg, m.keys.Exit), key.Matches(msg, m.keys.Quit):
			m.exiting = true
			return m, tea.Quit
		}
	}

	return m, nil
}

// View renders the timer TUI
func (m TimerModel) View() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	helpBar := m.renderHelpBar()
	contentHeight := m.height - lipgloss.Height(helpBar) - 1

	// Narrow view: just the timer panel
	if m.width < 90 {
		return lipgloss.JoinVertical(
			lipgloss.Left,
			m.renderTimerPanel(m.width, contentHeight),
			helpBar,
		)
	}

	leftWidth := m.width / 2
	rightWidth := m.width - leftWidth - 2

	content := lipgloss.JoinHorizontal(
		lipgloss.Top,
		m.renderTimerPanel(leftWidth, contentHeight),
		"  ",
		m.renderLinePanel(rightWidth, contentHeight),
	)

	return lipgloss.JoinVertical(lipgloss.Left, content, helpBar)
}

func centered(width int) lipgloss.Style {
	return lipgloss.NewStyle().Align(lipgloss.Center).Width(width)
}

// renderTimerPanel renders the left panel with the big clock
func (m TimerModel) renderTimerPanel(width, height int) string {
	var components []string

	animChars := []string{"⏱", "⏲", "⏱", "⏲"}
	animChar := animChars[m.timerAnimation]
	components = append(components, centered(width).
		Foreground(lipgloss.Color(ColorAccentBright)).
		Bold(true).
		Render(fmt.Sprintf("%s  TRACKING TIME  %s", animChar, animChar)))

	components = append(components, centered(width).
		Foreground(lipgloss.Color(ColorAccentMain)).
		Bold(true).
		Render(fmt.Sprintf("#%d · %s", m.line.ID, m.tracker)))

	desc := m.line.Desc
	if width > 7 && len(desc) > width-4 {
		desc = desc[:width-7] + "..."
	}
	components = append(components, centered(width).
		Foreground(lipgloss.Color(ColorPrimaryText)).
		Bold(true).
		Render(desc))

	var clock []string
	for _, line := range strings.Split(renderBigClock(m.elapsed), "\n") {
		clock = append(clock, centered(width).Render(line))
	}
	components = append(components, strings.Join(clock, "\n"))

	info := "Total " + timeutil.Compact(m.total)
	if open := m.line.OpenSession(); open != nil {
		info = fmt.Sprintf("Started at %s · %s", open.StartedAt.Local().Format("15:04:05"), info)
	}
	components = append(components, centered(width).
		Foreground(lipgloss.Color(ColorSecondaryText)).
		Italic(true).
		Render(info))

	if m.err != nil {
		components = append(components, centered(width).
			Foreground(lipgloss.Color(ColorError)).
			Render("⚠ "+m.err.Error()))
	}

	return lipgloss.NewStyle().
		Width(width).
		Height(height).
		Align(lipgloss.Center, lipgloss.Center).
		Render(strings.Join(components, "\n\n"))
}

// bigDigits is 5-row ASCII art for the clock, one string per row
var bigDigits = map[rune][5]string{
	'0': {" ███ ", "█   █", "█   █", "█   █", " ███ "},
	'1': {"  █  ", " ██  ", "  █  ", "  █  ", "█████"},
	'2': {" ███ ", "█   █", "   █ ", "  █  ", "█████"},
	'3': {" ███ ", "█   █", "  ██ ", "█   █", " ███ "},
	'4': {"█   █", "█   █", "█████", "    █", "    █"},
	'5': {"█████", "█    ", "████ ", "    █", "████ "},
	'6': {" ███ ", "█    ", "████ ", "█   █", " ███ "},
	'7': {"█████", "    █", "   █ ", "  █  ", " █   "},
	'8': {" ███ ", "█   █", " ███ ", "█   █", " ███ "},
	'9': {" ███ ", "█   █", " ████", "    █", " ███ "},
	':': {"     ", "  █  ", "     ", "  █  ", "     "},
}

// renderBigClock renders d as MM:SS, or HH:MM:SS from the first hour on
func renderBigClock(d time.Duration) string {
	timeStr := timeutil.Clock(d)
	if d < time.Hour {
		timeStr = timeStr[3:]
	}

	var rows [5]strings.Builder
	for _, char := range timeStr {
		art, ok := bigDigits[char]
		if !ok {
			continue
		}
		for i := range rows {
			rows[i].WriteString(art[i])
			rows[i].WriteString(" ")
		}
	}

	clockStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color(ColorAccentBright)).
		Bold(true)

	lines := make([]string, len(rows))
	for i := range rows {
		lines[i] = clockStyle.Render(rows[i].String())
	}
	return strings.Join(lines, "\n")
}

// renderLinePanel renders the right panel with the line's session history
func (m TimerModel) renderLinePanel(width, _ int) string {
	inner := width - 8
	var b strings.Builder

	b.WriteString("\n")
	b.WriteString(centered(inner).
		Foreground(lipgloss.Color(ColorAccentMain)).
		Bold(true).
		Render(strings.Join(logoLines, "\n")))
	b.WriteString("\n\n")

	b.WriteString(centered(inner).
		Foreground(lipgloss.Color(ColorBorder)).
		Render(strings.Repeat("─", min(width-12, 40))))
	b.WriteString("\n\n")

	b.WriteString(lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color(ColorPrimaryText)).
		Align(lipgloss.Center).
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(ColorAccentMain)).
		Width(width-12).
		Padding(0, 1).
		Render(m.line.Desc))
	b.WriteString("\n\n")

	value := func(s string) string {
		return lipgloss.NewStyle().Foreground(lipgloss.Color(ColorAccentBright)).Render(s)
	}
	details := []string{
		"📁 Tracker: " + value(m.tracker),
		fmt.Sprintf("🔁 Sessions: %s", value(fmt.Sprint(len(m.line.Sessions)))),
		"✅ Recorded: " + value(timeutil.Compact(ledger.ClosedTotal(m.line))),
		"⏱  With current: " + value(timeutil.Compact(m.total)),
		"📝 Created: " + lipgloss.NewStyle().
			Foreground(lipgloss.Color(ColorSecondaryText)).
			Render(m.line.CreatedAt.Local().Format("Jan 02, 2006")),
	}
	for _, d := range details {
		b.WriteString(centered(inner).Render(d))
		b.WriteString("\n")
	}

	// Most recent closed sessions
	var closed []models.Session
	for _, s := range m.line.Sessions {
		if !s.IsOpen() {
			closed = append(closed, s)
		}
	}
	if len(closed) > 5 {
		closed = closed[len(closed)-5:]
	}
	if len(closed) > 0 {
		b.WriteString("\n")
		muted := lipgloss.NewStyle().Foreground(lipgloss.Color(ColorDisabledText))
		for _, s := range closed {
			row := fmt.Sprintf("%s → %s  %s",
				s.StartedAt.Local().Format("Jan 02 15:04"),
				s.EndedAt.Local().Format("15:04"),
				timeutil.Compact(s.Elapsed(*s.EndedAt)))
			b.WriteString(centered(inner).Inherit(muted).Render(row))
			b.WriteString("\n")
		}
	}

	return b.String()
}

// renderHelpBar renders the help bar at the bottom
func (m TimerModel) renderHelpBar() string {
	return centered(m.width).Render(m.help.View(m.keys))
}
