package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/lox/equityprobe/internal/equity"
)

type resultsMsg equity.Results
type doneMsg equity.Results
type errMsg error

// equityModel is a minimal bubbletea.Model that renders the calculator's
// Results as they arrive from its periodic callback, following this
// codebase's existing bridge-between-engine-and-terminal pattern.
type equityModel struct {
	calc     *equity.Calculator
	latest   equity.Results
	progress progress.Model
	done     bool
	err      error
}

func newEquityModel(calc *equity.Calculator) equityModel {
	return equityModel{
		calc:     calc,
		progress: progress.New(progress.WithDefaultGradient()),
	}
}

func (m equityModel) Init() tea.Cmd { return nil }

func (m equityModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			m.calc.Stop()
			return m, tea.Quit
		}
	case resultsMsg:
		m.latest = equity.Results(msg)
		return m, m.progress.SetPercent(m.latest.Progress)
	case doneMsg:
		m.latest = equity.Results(msg)
		m.done = true
		return m, tea.Quit
	case errMsg:
		m.err = msg
		return m, tea.Quit
	case progress.FrameMsg:
		newModel, cmd := m.progress.Update(msg)
		if pm, ok := newModel.(progress.Model); ok {
			m.progress = pm
		}
		return m, cmd
	}
	return m, nil
}

var (
	tuiHeaderStyle = lipgloss.NewStyle().Bold(true).Underline(true)
	tuiWinStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Bold(true)
	tuiTieStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	tuiFooterStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

func (m equityModel) View() string {
	if m.err != nil {
		return fmt.Sprintf("error: %v\n", m.err)
	}

	var b strings.Builder
	b.WriteString(tuiHeaderStyle.Render("equity"))
	b.WriteString("\n\n")
	for p := 0; p < m.latest.Players; p++ {
		b.WriteString(fmt.Sprintf("player %d  win %s  tie %s\n", p,
			tuiWinStyle.Render(fmt.Sprintf("%6.2f%%", m.latest.Win[p]*100)),
			tuiTieStyle.Render(fmt.Sprintf("%6.2f%%", m.latest.Tie[p]*100))))
	}
	mode := "monte carlo"
	if m.latest.Exact {
		mode = "exact"
		b.WriteString(m.progress.View())
		b.WriteString("\n")
	}
	status := "running"
	if m.done {
		status = "done"
	}
	b.WriteString("\n")
	b.WriteString(tuiFooterStyle.Render(fmt.Sprintf("%s, %s, %d hands evaluated — press q to quit", status, mode, m.latest.HandsEvaluated)))
	b.WriteString("\n")
	return b.String()
}
