package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/wippyai/jbridge/config"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	nameStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#98FB98"))

	descStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#87CEEB"))

	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4"))

	resultStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#90EE90"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	statsStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#AAAAAA"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))
)

type interactiveModel struct {
	err      error
	cfg      config.Config
	log      *zap.Logger
	bridge   *bridge
	result   string
	stats    string
	input    textinput.Model
	selected int
	state    modelState
}

type modelState int

const (
	stateSelect modelState = iota
	stateInput
	stateShowResult
)

func newInteractiveModel(cfg config.Config, log *zap.Logger) *interactiveModel {
	return &interactiveModel{cfg: cfg, log: log, state: stateSelect}
}

type openedMsg struct {
	err    error
	bridge *bridge
}

type resultMsg struct {
	err    error
	result string
	stats  string
}

func (m *interactiveModel) Init() tea.Cmd {
	return m.open
}

func (m *interactiveModel) open() tea.Msg {
	b, err := openBridge(m.cfg, m.log)
	return openedMsg{bridge: b, err: err}
}

func (m *interactiveModel) shutdown() {
	if m.bridge == nil {
		return
	}
	if leaks := m.bridge.Close(); leaks != 0 {
		m.log.Warn("bridge closed with leaked handles", zap.Int("handles", leaks))
	}
	m.bridge = nil
}

func (m *interactiveModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			m.shutdown()
			return m, tea.Quit

		case "q":
			if m.state != stateInput {
				m.shutdown()
				return m, tea.Quit
			}

		case "up", "k":
			if m.state == stateSelect && m.selected > 0 {
				m.selected--
			}

		case "down", "j":
			if m.state == stateSelect && m.selected < len(scenarios)-1 {
				m.selected++
			}

		case "enter":
			switch m.state {
			case stateSelect:
				if m.bridge == nil {
					return m, nil
				}
				s := scenarios[m.selected]
				if s.input == "" {
					return m, m.runScenario
				}
				m.input = textinput.New()
				m.input.Placeholder = s.input
				m.input.Prompt = "arg: "
				m.input.Width = 40
				m.input.Focus()
				m.state = stateInput
				return m, textinput.Blink

			case stateInput:
				return m, m.runScenario

			case stateShowResult:
				m.state = stateSelect
				m.result = ""
				m.err = nil
			}

		case "esc":
			switch m.state {
			case stateInput, stateShowResult:
				m.state = stateSelect
				m.result = ""
				m.err = nil
			}
		}

	case openedMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.bridge = msg.bridge
		m.stats = m.bridge.stats()

	case resultMsg:
		m.result = msg.result
		m.err = msg.err
		m.stats = msg.stats
		m.state = stateShowResult
	}

	if m.state == stateInput {
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m *interactiveModel) runScenario() tea.Msg {
	s := scenarios[m.selected]
	var arg string
	if s.input != "" {
		arg = strings.TrimSpace(m.input.Value())
	}
	out, err := s.run(m.bridge, arg)
	return resultMsg{result: out, err: err, stats: m.bridge.stats()}
}

func (m *interactiveModel) View() string {
	if m.err != nil && m.state != stateShowResult {
		return errorStyle.Render(fmt.Sprintf("Error: %v\n\nPress q to quit.", m.err))
	}

	if m.bridge == nil {
		return "Starting runtime..."
	}

	var b strings.Builder

	b.WriteString(titleStyle.Render("Bridge Scenarios"))
	b.WriteString(" ")
	b.WriteString(m.cfg.Runtime.PackageName)
	b.WriteString("\n\n")

	switch m.state {
	case stateSelect:
		b.WriteString("Select a scenario to run:\n\n")
		for i, s := range scenarios {
			line := fmt.Sprintf("%-10s ", s.name)
			if i == m.selected {
				b.WriteString(selectedStyle.Render("> " + line + s.desc))
			} else {
				b.WriteString("  " + nameStyle.Render(line) + descStyle.Render(s.desc))
			}
			b.WriteString("\n")
		}
		b.WriteString("\n")
		b.WriteString(helpStyle.Render("↑/↓ select • enter run • q quit"))

	case stateInput:
		s := scenarios[m.selected]
		b.WriteString(fmt.Sprintf("Running %s\n\n", nameStyle.Render(s.name)))
		b.WriteString(m.input.View())
		b.WriteString("\n\n")
		b.WriteString(helpStyle.Render("enter run • esc back"))

	case stateShowResult:
		s := scenarios[m.selected]
		b.WriteString(fmt.Sprintf("Result of %s:\n\n", nameStyle.Render(s.name)))
		if m.result != "" {
			b.WriteString(resultStyle.Render(m.result))
			b.WriteString("\n")
		}
		if m.err != nil {
			b.WriteString(errorStyle.Render(fmt.Sprintf("Error: %v", m.err)))
			b.WriteString("\n")
		}
		b.WriteString("\n")
		b.WriteString(helpStyle.Render("enter continue • q quit"))
	}

	b.WriteString("\n\n")
	b.WriteString(statsStyle.Render(m.stats))
	return b.String()
}

func runInteractive(cfg config.Config, log *zap.Logger) error {
	m := newInteractiveModel(cfg, log)
	p := tea.NewProgram(m, tea.WithAltScreen())
	_, err := p.Run()
	m.shutdown()
	return err
}
