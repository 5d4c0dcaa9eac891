package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

type promptKeyMap struct {
	Submit key.Binding
	Cancel key.Binding
}

func (k promptKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Submit, k.Cancel}
}

func (k promptKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{k.ShortHelp()}
}

var promptKeys = promptKeyMap{
	Submit: key.NewBinding(
		key.WithKeys("enter"),
		key.WithHelp("enter", "start tracking"),
	),
	Cancel: key.NewBinding(
		key.WithKeys("esc", "ctrl+c"),
		key.WithHelp("esc", "cancel"),
	),
}

// PromptModel asks for the description of a new line
type PromptModel struct {
	width  int
	height int

	tracker string
	input   textinput.Model
	keys    promptKeyMap
	help    help.Model

	// State
	value         string
	submitted     bool
	cancelled     bool
	validationErr string
}

// NewPromptModel creates a prompt for a new line in the tracker labelled
// tracker
func NewPromptModel(tracker string) PromptModel {
	input := textinput.New()
	input.Placeholder = "What are you working on? (required)"
	input.CharLimit = 200
	input.Width = 60
	input.TextStyle = lipgloss.NewStyle().Foreground(lipgloss.Color(ColorPrimaryText))
	input.PlaceholderStyle = lipgloss.NewStyle().Foreground(lipgloss.Color(ColorPlaceholder))
	input.Cursor.Style = lipgloss.NewStyle().Foreground(lipgloss.Color(ColorAccentBright))
	input.Focus()

	h := help.New()
	h.Styles.ShortKey = lipgloss.NewStyle().Foreground(lipgloss.Color(ColorAccentBright))
	h.Styles.ShortDesc = lipgloss.NewStyle().Foreground(lipgloss.Color(ColorHelpText))

	return PromptModel{
		tracker: tracker,
		input:   input,
		keys:    promptKeys,
		help:    h,
	}
}

// Init initializes the model
func (m PromptModel) Init() tea.Cmd {
	return textinput.Blink
}

// Update handles messages
func (m PromptModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

		// Keep the input inside the card
		m.input.Width = max(20, min(80, m.width*2/3-10))
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Cancel):
			m.cancelled = true
			return m, tea.Quit

		case key.Matches(msg, m.keys.Submit):
			value := strings.Join(strings.Fields(m.input.Value()), " ")
			if value == "" {
				m.validationErr = "Description is required"
				return m, nil
			}
			m.value = value
			m.submitted = true
			return m, tea.Quit
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	if m.validationErr != "" && strings.TrimSpace(m.input.Value()) != "" {
		m.validationErr = ""
	}
	return m, cmd
}

// Value returns the submitted description, if any
func (m PromptModel) Value() (string, bool) {
	return m.value, m.submitted
}

// View renders the prompt
func (m PromptModel) View() string {
	var b strings.Builder

	b.WriteString(lipgloss.NewStyle().
		Foreground(lipgloss.Color(ColorAccentMain)).
		Bold(true).
		Render(strings.Join(logoLines, "\n")))
	b.WriteString("\n\n")

	b.WriteString(lipgloss.NewStyle().
		Foreground(lipgloss.Color(ColorPrimaryText)).
		Bold(true).
		Render("New line for "))
	b.WriteString(lipgloss.NewStyle().
		Foreground(lipgloss.Color(ColorAccentBright)).
		Bold(true).
		Render(m.tracker))
	b.WriteString("\n\n")

	b.WriteString(m.input.View())
	b.WriteString("\n")

	if m.validationErr != "" {
		b.WriteString(lipgloss.NewStyle().
			Foreground(lipgloss.Color(ColorError)).
			Render("⚠ " + m.validationErr))
	}
	b.WriteString("\n\n")
	b.WriteString(m.help.View(m.keys))

	card := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(ColorBorder)).
		Padding(1, 3).
		Render(b.String())

	if m.width == 0 || m.height == 0 {
		return card
	}
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, card)
}
