package tui

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"github.com/Paintersrp/kill-code/internal/cliutil"
	"github.com/Paintersrp/kill-code/internal/forks"
)

const (
	menuTitle       = "Select a vscode-server fork to terminate:"
	confirmPageName = "confirm"

	selfWarning    = "Uh, it looks like that is this fork. Are you sure you want to kill me?"
	killWarning    = "This will kill all these processes:"
	proceedPrompt  = "Are you sure you want to proceed?"
	commandIndent  = "    "
	emptyForkLabel = "(no commands)"
)

// Option configures menu behaviour.
type Option func(*Menu)

// WithSelfSignature sets the command line of the running program. Forks whose
// command summary contains it get the self-termination warning.
func WithSelfSignature(signature string) Option {
	return func(m *Menu) {
		m.selfSignature = strings.TrimSpace(signature)
	}
}

// WithRedaction masks secrets in displayed command lines.
func WithRedaction(enabled bool) Option {
	return func(m *Menu) {
		m.redact = enabled
	}
}

// WithScreen runs the menu on the supplied screen instead of the terminal.
func WithScreen(screen tcell.Screen) Option {
	return func(m *Menu) {
		if screen != nil {
			m.app.SetScreen(screen)
		}
	}
}

// Choice is the outcome of a menu session.
type Choice struct {
	Fork      forks.Fork
	Selected  bool
	Confirmed bool
}

// Menu lists forks and asks for confirmation before one is terminated.
type Menu struct {
	app   *tview.Application
	pages *tview.Pages
	table *tview.Table

	forks         []forks.Fork
	selfSignature string
	redact        bool

	mu       sync.Mutex
	pending  int
	choice   Choice
	stopOnce sync.Once
}

// New constructs a menu over forks, which are shown in the given order.
func New(items []forks.Fork, opts ...Option) *Menu {
	app := tview.NewApplication()
	table := tview.NewTable().SetFixed(1, 0).SetSelectable(true, false)
	table.SetBorder(true).SetTitle(menuTitle).SetTitleColor(tcell.ColorTeal)

	pages := tview.NewPages().AddPage("main", table, true, true)

	m := &Menu{
		app:     app,
		pages:   pages,
		table:   table,
		forks:   append([]forks.Fork(nil), items...),
		pending: -1,
	}
	for _, opt := range opts {
		opt(m)
	}

	table.SetSelectedFunc(func(row, column int) {
		m.selectRow(row)
	})

	app.SetRoot(pages, true)
	app.SetInputCapture(m.handleKey)

	m.renderTable()
	return m
}

// Run shows the menu until a fork is confirmed or declined, or the user
// leaves. Cancelling ctx closes the menu without a selection.
func (m *Menu) Run(ctx context.Context) (Choice, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	go func() {
		<-ctx.Done()
		m.stop()
	}()

	if err := m.app.Run(); err != nil {
		return Choice{}, fmt.Errorf("run menu: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	return m.choice, nil
}

func (m *Menu) stop() {
	m.stopOnce.Do(func() {
		m.app.Stop()
	})
}

func (m *Menu) handleKey(event *tcell.EventKey) *tcell.EventKey {
	if m.confirming() {
		switch event.Key() {
		case tcell.KeyEscape:
			m.answer(false)
			return nil
		case tcell.KeyRune:
			switch event.Rune() {
			case 'y', 'Y':
				m.answer(true)
				return nil
			case 'n', 'N':
				m.answer(false)
				return nil
			}
		}
		return event
	}

	switch event.Key() {
	case tcell.KeyEscape:
		m.stop()
		return nil
	case tcell.KeyRune:
		switch event.Rune() {
		case 'q', 'Q':
			m.stop()
			return nil
		}
	}
	return event
}

func (m *Menu) confirming() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.pending >= 0
}

func (m *Menu) renderTable() {
	m.table.Clear()

	headers := []string{"PID", "USER", "COMMANDS"}
	for col, header := range headers {
		cell := tview.NewTableCell(header).
			SetSelectable(false).
			SetAttributes(tcell.AttrBold)
		m.table.SetCell(0, col, cell)
	}

	for row, f := range m.forks {
		commands := strings.Join(cliutil.DisplayCommands(f, m.redact), "; ")
		if commands == "" {
			commands = emptyForkLabel
		}
		pid := strconv.Itoa(f.ID)
		if m.isSelf(f) {
			pid += "*"
		}
		values := []string{pid, f.User, commands}
		for col, value := range values {
			cell := tview.NewTableCell(tview.Escape(value))
			if col == 2 {
				cell = cell.SetExpansion(1)
			}
			if col == 0 {
				cell = cell.SetReference(f.ID)
			}
			m.table.SetCell(row+1, col, cell)
		}
	}

	if len(m.forks) > 0 {
		m.table.Select(1, 0)
	}
}

func (m *Menu) selectRow(row int) {
	idx := row - 1
	if idx < 0 || idx >= len(m.forks) {
		return
	}

	m.mu.Lock()
	m.pending = idx
	m.mu.Unlock()

	f := m.forks[idx]
	text, color := m.confirmationText(f)
	modal := tview.NewModal().
		SetText(text).
		SetTextColor(color).
		AddButtons([]string{"Yes", "No"}).
		SetDoneFunc(func(buttonIndex int, buttonLabel string) {
			m.answer(buttonLabel == "Yes")
		})

	m.pages.AddPage(confirmPageName, modal, true, true)
	m.app.SetFocus(modal)
}

func (m *Menu) answer(confirmed bool) {
	m.mu.Lock()
	idx := m.pending
	m.pending = -1
	if idx >= 0 {
		m.choice = Choice{Fork: m.forks[idx], Selected: true, Confirmed: confirmed}
	}
	m.mu.Unlock()

	m.pages.RemovePage(confirmPageName)
	m.stop()
}

func (m *Menu) confirmationText(f forks.Fork) (string, tcell.Color) {
	if m.isSelf(f) {
		return selfWarning, tcell.ColorRed
	}
	var b strings.Builder
	b.WriteString(killWarning)
	b.WriteString("\n")
	for _, cmd := range cliutil.DisplayCommands(f, m.redact) {
		b.WriteString(commandIndent)
		b.WriteString(cmd)
		b.WriteString("\n")
	}
	b.WriteString(proceedPrompt)
	return b.String(), tcell.ColorYellow
}

// isSelf reports whether terminating f would terminate this program.
func (m *Menu) isSelf(f forks.Fork) bool {
	if f.Self {
		return true
	}
	return m.selfSignature != "" && strings.Contains(f.CommandSummary, m.selfSignature)
}
