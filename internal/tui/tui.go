package tui

import (
	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"github.com/cosmez/respfmt/internal/cluster"
)

// App is the frame inspector: a template and its arguments on top, the
// argument table on the left and the encoded frame on the right.
type App struct {
	part     cluster.Partitioner
	keyIndex int

	app           *tview.Application
	layout        *tview.Flex
	templateInput *tview.InputField
	argsInput     *tview.InputField
	argTable      *tview.Table
	frameView     *tview.TextView
	statusLabel   *tview.TextView
	topPane       *tview.Flex

	focusOrder []tview.Primitive
	focusIndex int

	frame []byte
	args  []argRow
}

// newApp builds the widgets without starting the event loop, so tests can
// construct it without a terminal.
func newApp(p cluster.Partitioner, keyIndex int) *App {
	a := &App{
		part:     p,
		keyIndex: keyIndex,
		app:      tview.NewApplication(),
	}

	a.templateInput = tview.NewInputField().
		SetLabel("Template: ").
		SetFieldBackgroundColor(tcell.ColorBlack)
	a.argsInput = tview.NewInputField().
		SetLabel("Args:     ").
		SetFieldBackgroundColor(tcell.ColorBlack)

	a.topPane = tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(a.templateInput, 1, 0, true).
		AddItem(a.argsInput, 1, 0, false)
	a.topPane.SetBorder(true).SetTitle(title("Command"))

	a.argTable = tview.NewTable().
		SetBorders(false).
		SetSelectable(true, false).
		SetFixed(1, 0)
	a.argTable.SetBorder(true).SetTitle(title("Arguments"))

	a.frameView = tview.NewTextView().
		SetDynamicColors(true).
		SetRegions(true).
		SetScrollable(true).
		SetWordWrap(false)
	a.frameView.SetBorder(true).SetTitle(title("Frame"))

	a.statusLabel = tview.NewTextView().SetDynamicColors(true)
	a.statusLabel.SetBackgroundColor(tcell.ColorDarkSlateGray)

	body := tview.NewFlex().
		AddItem(a.argTable, 0, 1, false).
		AddItem(a.frameView, 0, 1, false)

	a.layout = tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(a.topPane, 4, 0, true).
		AddItem(body, 0, 1, false).
		AddItem(a.statusLabel, 1, 0, false)

	encodeOnEnter := func(key tcell.Key) {
		if key == tcell.KeyEnter {
			a.refresh()
		}
	}
	a.templateInput.SetDoneFunc(encodeOnEnter)
	a.argsInput.SetDoneFunc(encodeOnEnter)

	a.argTable.SetSelectionChangedFunc(func(row, _ int) {
		a.highlightArg(row - 1)
	})

	a.focusOrder = []tview.Primitive{a.templateInput, a.argsInput, a.argTable, a.frameView}
	a.app.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		switch event.Key() {
		case tcell.KeyTab:
			a.focusIndex = (a.focusIndex + 1) % len(a.focusOrder)
		case tcell.KeyBacktab:
			a.focusIndex = (a.focusIndex - 1 + len(a.focusOrder)) % len(a.focusOrder)
		case tcell.KeyEscape:
			a.app.Stop()
			return nil
		default:
			return event
		}
		a.app.SetFocus(a.focusOrder[a.focusIndex])
		a.highlightFocusedPane()
		return nil
	})

	a.highlightFocusedPane()
	return a
}

// highlightFocusedPane colors the border of the pane holding focus.
func (a *App) highlightFocusedPane() {
	const (
		defaultColor   = tcell.ColorWhite
		highlightColor = tcell.ColorAqua
	)

	a.topPane.SetBorderColor(defaultColor)
	a.argTable.SetBorderColor(defaultColor)
	a.frameView.SetBorderColor(defaultColor)

	switch a.focusIndex {
	case 0, 1:
		a.topPane.SetBorderColor(highlightColor)
	case 2:
		a.argTable.SetBorderColor(highlightColor)
	case 3:
		a.frameView.SetBorderColor(highlightColor)
	}
}

// Run opens the inspector on template and args and blocks until Escape.
func Run(p cluster.Partitioner, keyIndex int, template string, args []string) error {
	a := newApp(p, keyIndex)
	a.templateInput.SetText(template)
	a.argsInput.SetText(joinArgs(args))
	a.refresh()

	return a.app.EnableMouse(true).SetRoot(a.layout, true).SetFocus(a.templateInput).Run()
}
