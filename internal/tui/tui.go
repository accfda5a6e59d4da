// Package tui renders live scan progress with Bubble Tea.
package tui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"dupescan/internal/scan"
)

// programRef is an indirect pointer to the tea.Program so the scan
// goroutine can send progress messages. It must be set after
// tea.NewProgram returns but before Run.
type programRef struct {
	p *tea.Program
}

// doneMsg is sent when the scan completes or fails.
type doneMsg struct {
	stats *scan.Stats
	err   error
}

// progressMsg is sent periodically while walking.
type progressMsg struct {
	root     string
	visited  int
	recorded int
}

// Model is the scanning progress screen.
type Model struct {
	spinner  spinner.Model
	config   scan.Config
	ref      *programRef
	root     string
	visited  int
	recorded int
	done     bool
	stats    *scan.Stats
	err      error
}

func newModel(cfg scan.Config, ref *programRef) Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = spinnerStyle
	return Model{spinner: sp, config: cfg, ref: ref}
}

func runScan(cfg scan.Config, ref *programRef) tea.Cmd {
	return func() tea.Msg {
		cfg.OnProgress = func(root string, visited, recorded int) {
			if ref.p != nil {
				ref.p.Send(progressMsg{root: root, visited: visited, recorded: recorded})
			}
		}

		s, err := scan.New(cfg)
		if err != nil {
			return doneMsg{err: err}
		}
		defer s.Close()

		stats, err := s.Run()
		return doneMsg{stats: stats, err: err}
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, runScan(m.config, m.ref))
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			// The run keeps its all-or-nothing guarantee: quitting the
			// display does not commit a partial transaction.
			return m, tea.Quit
		}
		return m, nil
	case progressMsg:
		m.root = msg.root
		m.visited = msg.visited
		m.recorded = msg.recorded
		return m, nil
	case doneMsg:
		m.done = true
		m.stats = msg.stats
		m.err = msg.err
		return m, tea.Quit
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m Model) View() string {
	s := "\n" + titleStyle.Render("  Scanning") + "\n\n"

	if m.done {
		if m.err != nil {
			s += errorStyle.Render(fmt.Sprintf("  Error: %v", m.err)) + "\n"
			s += dimStyle.Render("  Nothing was committed.") + "\n"
			return s
		}
		s += successStyle.Render("  ✓ Scan committed") + "\n\n"
		if m.stats != nil {
			s += fmt.Sprintf("  Roots:   %d\n", m.stats.Roots)
			s += fmt.Sprintf("  Visited: %d entries\n", m.stats.Visited)
			s += fmt.Sprintf("  Files:   %d recorded\n", m.stats.Recorded)
			if m.stats.DirsUnreadable > 0 {
				s += warnStyle.Render(fmt.Sprintf("  Skipped: %d unreadable directories", m.stats.DirsUnreadable)) + "\n"
			}
		}
		return s
	}

	s += fmt.Sprintf("  %s %s\n", m.spinner.View(), m.root)
	s += fmt.Sprintf("  %d entries visited, %d files recorded\n", m.visited, m.recorded)
	s += "\n" + dimStyle.Render("  This may take a while for large trees...") + "\n"
	return s
}

// Run executes the scan behind a live progress display and returns its
// outcome once the display exits.
func Run(cfg scan.Config) (*scan.Stats, error) {
	ref := &programRef{}
	p := tea.NewProgram(newModel(cfg, ref))
	ref.p = p

	final, err := p.Run()
	if err != nil {
		return nil, err
	}
	m := final.(Model)
	return m.stats, m.err
}
