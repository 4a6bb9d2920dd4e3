package main

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#87CEEB"))

	valueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#98FB98"))

	okStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#90EE90"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))
)

type stressModel struct {
	err     error
	cfg     config
	st      *stats
	spin    spinner.Model
	started time.Time
	done    bool
}

type tickMsg time.Time

type doneMsg struct {
	err error
}

func newStressModel(cfg config, st *stats) *stressModel {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	return &stressModel{
		cfg:     cfg,
		st:      st,
		spin:    sp,
		started: time.Now(),
	}
}

func tick() tea.Cmd {
	return tea.Tick(100*time.Millisecond, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m *stressModel) Init() tea.Cmd {
	return tea.Batch(m.spin.Tick, tick())
}

func (m *stressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		}
		return m, nil

	case tickMsg:
		if m.done {
			return m, nil
		}
		return m, tick()

	case doneMsg:
		m.done = true
		m.err = msg.err
		return m, tea.Quit

	default:
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd
	}
}

func (m *stressModel) View() string {
	s := titleStyle.Render("guardstress") + "\n\n"

	inFlight := m.st.acquired.Load() - m.st.released.Load()
	rows := []struct {
		label string
		value int64
	}{
		{"acquired", m.st.acquired.Load()},
		{"released", m.st.released.Load()},
		{"in flight", inFlight},
		{"ops done", m.st.opsDone.Load()},
		{"handles", m.st.handles.Load()},
	}
	for _, row := range rows {
		s += fmt.Sprintf("  %s %s\n",
			labelStyle.Render(fmt.Sprintf("%-10s", row.label)),
			valueStyle.Render(fmt.Sprintf("%d", row.value)))
	}

	s += "\n"
	switch {
	case !m.done:
		s += fmt.Sprintf("  %s churning with %d workers (%v)\n",
			m.spin.View(), m.cfg.Workers,
			time.Since(m.started).Round(time.Second))
	case m.err != nil:
		s += errorStyle.Render("  "+m.err.Error()) + "\n"
	default:
		s += okStyle.Render("  all invariants held") + "\n"
	}

	s += helpStyle.Render("\n  q: quit\n")
	return s
}

func runInteractive(cfg config) error {
	st := &stats{}
	m := newStressModel(cfg, st)
	p := tea.NewProgram(m)

	go func() {
		err := run(cfg, st)
		p.Send(doneMsg{err: err})
	}()

	final, err := p.Run()
	if err != nil {
		return err
	}
	if fm, ok := final.(*stressModel); ok && fm.err != nil {
		return fm.err
	}
	return nil
}
