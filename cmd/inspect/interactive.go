package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/wippyai/jsbind/host/memhost"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	nameStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#98FB98"))

	kindStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#87CEEB"))

	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4"))

	previewStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#90EE90"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))
)

type modelState int

const (
	stateBrowse modelState = iota
	stateFilter
)

type interactiveModel struct {
	err      error
	b        *browser
	filename string
	path     []string
	entries  []entry
	input    textinput.Model
	selected int
	state    modelState

	filter string
	opts   memhost.Options
}

type loadedMsg struct {
	err error
	b   *browser
}

func newInteractiveModel(filename string, path []string, filter string, opts memhost.Options) *interactiveModel {
	ti := textinput.New()
	ti.Prompt = "/"
	ti.Placeholder = "regexp"
	ti.Width = 40
	ti.SetValue(filter)
	return &interactiveModel{
		filename: filename,
		path:     path,
		input:    ti,
		state:    stateBrowse,
		filter:   filter,
		opts:     opts,
	}
}

func (m *interactiveModel) load() tea.Msg {
	b, err := open(m.filename, m.filter, m.opts)
	return loadedMsg{b: b, err: err}
}

// refresh relists the current path, falling back to the root when the
// path no longer resolves.
func (m *interactiveModel) refresh() {
	v, err := m.b.resolve(m.path)
	if err != nil {
		m.err = err
		m.path = nil
		if v, err = m.b.resolve(nil); err != nil {
			m.err = err
			return
		}
	}
	es, err := m.b.entries(v)
	if err != nil {
		m.err = err
		return
	}
	m.entries = es
	if m.selected >= len(es) {
		m.selected = max(0, len(es)-1)
	}
}

func (m *interactiveModel) Init() tea.Cmd { return m.load }

func (m *interactiveModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case loadedMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.b = msg.b
		m.refresh()
		return m, nil

	case tea.KeyMsg:
		if m.state == stateFilter {
			return m.updateFilter(msg)
		}
		switch msg.String() {
		case "ctrl+c", "q":
			if m.b != nil {
				m.b.Close()
			}
			return m, tea.Quit

		case "up", "k":
			if m.selected > 0 {
				m.selected--
			}

		case "down", "j":
			if m.selected < len(m.entries)-1 {
				m.selected++
			}

		case "enter", "right", "l":
			if m.selected < len(m.entries) {
				e := m.entries[m.selected]
				if e.name != "" && e.container() {
					m.path = append(m.path, e.name)
					m.selected = 0
					m.err = nil
					m.refresh()
				}
			}

		case "esc", "backspace", "left", "h":
			if len(m.path) > 0 {
				m.path = m.path[:len(m.path)-1]
				m.selected = 0
				m.err = nil
				m.refresh()
			}

		case "/":
			m.state = stateFilter
			m.input.Focus()
			return m, textinput.Blink
		}
	}
	return m, nil
}

func (m *interactiveModel) updateFilter(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		m.state = stateBrowse
		m.input.Blur()
		if err := m.b.setFilter(m.input.Value()); err != nil {
			m.err = err
			return m, nil
		}
		m.err = nil
		m.selected = 0
		m.refresh()
		return m, nil
	case "esc":
		m.state = stateBrowse
		m.input.Blur()
		return m, nil
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *interactiveModel) View() string {
	if m.b == nil {
		if m.err != nil {
			return errorStyle.Render(fmt.Sprintf("Error: %v\n\nPress q to quit.", m.err))
		}
		return "Loading document..."
	}

	var b strings.Builder

	b.WriteString(titleStyle.Render("jsbind inspect"))
	b.WriteString(" ")
	b.WriteString(m.filename)
	b.WriteString("\n")
	b.WriteString(kindStyle.Render("$" + pathSuffix(m.path)))
	b.WriteString("\n\n")

	if len(m.entries) == 0 {
		b.WriteString(helpStyle.Render("(no properties)"))
		b.WriteString("\n")
	}
	for i, e := range m.entries {
		line := m.formatEntry(e)
		if i == m.selected {
			b.WriteString(selectedStyle.Render("> " + line))
		} else {
			b.WriteString("  " + line)
		}
		b.WriteString("\n")
	}

	if m.err != nil {
		b.WriteString("\n")
		b.WriteString(errorStyle.Render(fmt.Sprintf("Error: %v", m.err)))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	if m.state == stateFilter {
		b.WriteString(m.input.View())
		b.WriteString("\n")
		b.WriteString(helpStyle.Render("enter apply • esc cancel"))
	} else {
		b.WriteString(helpStyle.Render("↑/↓ select • enter open • esc up • / filter • q quit"))
	}
	return b.String()
}

func (m *interactiveModel) formatEntry(e entry) string {
	name := e.name
	if name == "" {
		name = "(value)"
	}
	return nameStyle.Render(name) + " " + kindStyle.Render(e.kind.String()) + " " + previewStyle.Render(e.preview)
}

func pathSuffix(path []string) string {
	if len(path) == 0 {
		return ""
	}
	return "." + strings.Join(path, ".")
}

func runInteractive(filename, path, filter string, opts memhost.Options) error {
	p := tea.NewProgram(newInteractiveModel(filename, splitPath(path), filter, opts), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
