// Package ui is the built-in terminal picker and confirmation prompt,
// used when no external picker is available.
package ui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"memo/selector"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/sahilm/fuzzy"
)

var (
	highlight = lipgloss.AdaptiveColor{Light: "#1F6FEB", Dark: "#58A6FF"}
	subtle    = lipgloss.AdaptiveColor{Light: "#6E7781", Dark: "#8B949E"}

	frameStyle   = lipgloss.NewStyle().Padding(1, 2)
	headerStyle  = lipgloss.NewStyle().Bold(true).Foreground(highlight)
	emptyStyle   = lipgloss.NewStyle().Foreground(subtle).Italic(true)
	cursorStyle  = lipgloss.NewStyle().Bold(true).Foreground(highlight)
	rowStyle     = lipgloss.NewStyle()
	ordinalStyle = lipgloss.NewStyle().Foreground(subtle)
	keyStyle     = lipgloss.NewStyle().Foreground(highlight)
	hintStyle    = lipgloss.NewStyle().Foreground(subtle)
)

// Picker implements selector.Selector with a bubbletea list and fuzzy
// search. It draws on Output so stdout stays free for the chosen command.
type Picker struct {
	Input  io.Reader
	Output io.Writer
}

func (p Picker) Select(ctx context.Context, lines []string) (string, error) {
	if len(lines) == 0 {
		return "", selector.ErrNoSelection
	}

	opts := []tea.ProgramOption{tea.WithContext(ctx), tea.WithAltScreen()}
	if p.Input != nil {
		opts = append(opts, tea.WithInput(p.Input))
	}
	if p.Output != nil {
		opts = append(opts, tea.WithOutput(p.Output))
	}

	final, err := tea.NewProgram(newPickerModel(lines), opts...).Run()
	if err != nil {
		if errors.Is(err, tea.ErrProgramKilled) {
			return "", selector.ErrNoSelection
		}
		return "", fmt.Errorf("ui: picker: %w", err)
	}

	m := final.(*pickerModel)
	if m.chosen == "" {
		return "", selector.ErrNoSelection
	}
	return m.chosen, nil
}

type pickerModel struct {
	lines    []string // selector lines, returned verbatim
	commands []string // command column, searched and shown
	filtered []int    // indices into lines

	cursor int
	width  int
	height int
	chosen string

	searchInput textinput.Model
}

func newPickerModel(lines []string) *pickerModel {
	search := textinput.New()
	search.Placeholder = "Search commands..."
	search.Focus()

	m := &pickerModel{
		lines:       lines,
		commands:    make([]string, len(lines)),
		searchInput: search,
	}
	for i, line := range lines {
		_, cmd, _ := strings.Cut(line, "\t")
		m.commands[i] = cmd
	}
	m.filterCommands()
	return m
}

func (m *pickerModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m *pickerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width - 4   // account for app padding
		m.height = msg.Height - 2 // account for app padding
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			return m, tea.Quit

		case "esc":
			if m.searchInput.Value() == "" {
				return m, tea.Quit
			}
			m.searchInput.SetValue("")
			m.filterCommands()
			return m, nil

		case "up", "ctrl+p", "ctrl+k":
			if m.cursor > 0 {
				m.cursor--
			}
			return m, nil

		case "down", "ctrl+n", "ctrl+j":
			if m.cursor < len(m.filtered)-1 {
				m.cursor++
			}
			return m, nil

		case "enter":
			if len(m.filtered) > 0 {
				m.chosen = m.lines[m.filtered[m.cursor]]
			}
			return m, tea.Quit
		}
	}

	var cmd tea.Cmd
	m.searchInput, cmd = m.searchInput.Update(msg)
	m.filterCommands()
	return m, cmd
}

func (m *pickerModel) filterCommands() {
	query := m.searchInput.Value()
	if query == "" {
		m.filtered = make([]int, len(m.lines))
		for i := range m.lines {
			m.filtered[i] = i
		}
	} else {
		matches := fuzzy.Find(query, m.commands)
		m.filtered = make([]int, len(matches))
		for i, match := range matches {
			m.filtered[i] = match.Index
		}
	}

	if m.cursor >= len(m.filtered) {
		m.cursor = max(0, len(m.filtered)-1)
	}
}

func (m *pickerModel) View() string {
	if m.width == 0 {
		return "Loading..."
	}

	var b strings.Builder

	b.WriteString(headerStyle.Render("memo"))
	b.WriteString("\n\n")
	b.WriteString(m.searchInput.View())
	b.WriteString("\n\n")

	listHeight := max(m.height-8, 3)
	b.WriteString(m.renderList(listHeight))
	b.WriteString("\n")
	b.WriteString(m.renderHelp())

	return frameStyle.Render(b.String())
}

func (m *pickerModel) renderList(height int) string {
	if len(m.filtered) == 0 {
		return emptyStyle.Render("No matching commands.") + "\n"
	}

	start := 0
	if m.cursor >= height {
		start = m.cursor - height + 1
	}
	end := min(start+height, len(m.filtered))

	var rows []string
	for i := start; i < end; i++ {
		idx := m.filtered[i]
		ordinal, _, _ := strings.Cut(m.lines[idx], "\t")

		prefix := "  "
		style := rowStyle
		if i == m.cursor {
			prefix = "▸ "
			style = cursorStyle
		}
		rows = append(rows, style.Render(prefix)+ordinalStyle.Render(fmt.Sprintf("[%s]", ordinal))+" "+
			style.Render(truncate(m.commands[idx], m.width-12)))
	}
	return strings.Join(rows, "\n") + "\n"
}

func (m *pickerModel) renderHelp() string {
	keys := []struct{ key, desc string }{
		{"enter", "select"},
		{"↑/↓", "move"},
		{"esc", "clear/quit"},
	}

	var parts []string
	for _, k := range keys {
		parts = append(parts, keyStyle.Render(k.key)+" "+hintStyle.Render(k.desc))
	}
	return strings.Join(parts, "  ")
}

func truncate(s string, n int) string {
	if n < 4 || len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}
