// Package ui provides optional terminal interfaces.
package ui

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/ovn-lab/fanout/internal/dispatch"
)

// RunTUI renders dispatch progress until the update channel closes.
// The cancel func is invoked when the user quits mid-run.
func RunTUI(updates <-chan dispatch.Update, total int, cancel func()) error {
	if !IsTTY(os.Stdout) {
		return fmt.Errorf("tui requires a TTY")
	}

	model := newTUIModel(updates, total, cancel)
	program := tea.NewProgram(model, tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return err
	}
	return nil
}

type tuiModel struct {
	updates <-chan dispatch.Update
	cancel  func()

	total   int
	counts  map[dispatch.State]int
	running map[int]dispatch.Task
	recent  []dispatch.Result
	done    bool
	started time.Time
	elapsed time.Duration
}

type tickMsg time.Time

type updateMsg struct {
	update dispatch.Update
}

type doneMsg struct{}

func newTUIModel(updates <-chan dispatch.Update, total int, cancel func()) *tuiModel {
	return &tuiModel{
		updates: updates,
		cancel:  cancel,
		total:   total,
		counts:  make(map[dispatch.State]int),
		running: make(map[int]dispatch.Task),
		started: time.Now(),
	}
}

func (m *tuiModel) Init() tea.Cmd {
	return tea.Batch(tickCmd(), waitForUpdate(m.updates))
}

func (m *tuiModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			if !m.done && m.cancel != nil {
				m.cancel()
			}
			return m, tea.Quit
		}
	case tickMsg:
		if !m.done {
			m.elapsed = time.Since(m.started)
		}
		return m, tickCmd()
	case updateMsg:
		m.apply(msg.update)
		return m, waitForUpdate(m.updates)
	case doneMsg:
		m.done = true
		m.elapsed = time.Since(m.started)
		return m, tea.Quit
	}

	return m, nil
}

func (m *tuiModel) apply(u dispatch.Update) {
	if u.State == dispatch.StateRunning {
		m.running[u.Index] = u.Task
		return
	}

	delete(m.running, u.Index)
	m.counts[u.State]++
	if u.Result != nil {
		m.recent = append([]dispatch.Result{*u.Result}, m.recent...)
		if len(m.recent) > 5 {
			m.recent = m.recent[:5]
		}
	}
}

func (m *tuiModel) finished() int {
	return m.counts[dispatch.StateCompleted] +
		m.counts[dispatch.StateKilled] +
		m.counts[dispatch.StateLaunchFailed]
}

func (m *tuiModel) View() string {
	var b strings.Builder
	writeTitle(&b)

	b.WriteString("Progress\n\n")
	b.WriteString(fmt.Sprintf("  %d/%d finished  Running: %d  Failed: %d  Elapsed: %s\n\n",
		m.finished(), m.total,
		len(m.running),
		m.counts[dispatch.StateLaunchFailed],
		m.elapsed.Round(time.Second),
	))

	writeRunning(&b, m.running)
	writeRecent(&b, m.recent)

	if m.done {
		b.WriteString("All tasks finished.\n")
	}
	b.WriteString("\nPress q to cancel and quit\n")
	return b.String()
}

func tickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func waitForUpdate(ch <-chan dispatch.Update) tea.Cmd {
	return func() tea.Msg {
		update, ok := <-ch
		if !ok {
			return doneMsg{}
		}
		return updateMsg{update: update}
	}
}

func writeTitle(b *strings.Builder) {
	title := "Fanout"
	b.WriteString(title + "\n")
	b.WriteString(strings.Repeat("=", len(title)) + "\n\n")
}

func writeRunning(b *strings.Builder, running map[int]dispatch.Task) {
	b.WriteString("Running\n\n")
	if len(running) == 0 {
		b.WriteString("  Nothing running.\n\n")
		return
	}
	indexes := make([]int, 0, len(running))
	for i := range running {
		indexes = append(indexes, i)
	}
	sort.Ints(indexes)
	for shown, i := range indexes {
		if shown >= 8 {
			b.WriteString(fmt.Sprintf("  ... and %d more\n", len(indexes)-shown))
			break
		}
		task := running[i]
		b.WriteString(fmt.Sprintf("  > [%s] %s\n", task.ID, commandLine(task)))
	}
	b.WriteString("\n")
}

func writeRecent(b *strings.Builder, recent []dispatch.Result) {
	b.WriteString("Recently Finished\n\n")
	if len(recent) == 0 {
		b.WriteString("  No finished tasks yet.\n\n")
		return
	}
	for _, res := range recent {
		icon := "x"
		if res.Kind == dispatch.KindOK {
			icon = "+"
		}
		b.WriteString(fmt.Sprintf("  %s [%s] %s (%s)\n",
			icon, res.Task.ID, res.Kind, res.Duration.Round(time.Millisecond)))
	}
	b.WriteString("\n")
}

func commandLine(t dispatch.Task) string {
	line := t.Command
	if len(t.Args) > 0 {
		line += " " + strings.Join(t.Args, " ")
	}
	if len(line) > 60 {
		line = line[:57] + "..."
	}
	return line
}

// IsTTY returns true if w is a terminal.
func IsTTY(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	info, _ := f.Stat()
	return (info.Mode() & os.ModeCharDevice) != 0
}
