package tui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"github.com/cosmez/respfmt/internal/cluster"
	"github.com/cosmez/respfmt/internal/command"
	"github.com/cosmez/respfmt/internal/output"
)

const appName = "respfmt"

// title formats a pane title, e.g. " respfmt | Frame ".
func title(subtitle string) string {
	return " " + appName + " | " + subtitle + " "
}

type argRow struct {
	output.FrameArg
	Keyed bool
	Slot  int
}

// joinArgs renders args back into a line that command.Split accepts.
func joinArgs(args []string) string {
	parts := make([]string, len(args))
	for i, s := range args {
		if s == "" || strings.ContainsAny(s, " \t\"\\") {
			s = `"` + strings.NewReplacer(`\`, `\\`, `"`, `\"`).Replace(s) + `"`
		}
		parts[i] = s
	}
	return strings.Join(parts, " ")
}

// encode formats the current inputs and records every argument.
func (a *App) encode() error {
	key := cluster.NewKeyObserver(a.part, a.keyIndex)
	rec := &output.FrameRecorder{Next: key}

	frame, err := command.FormatText(rec, a.templateInput.GetText(), command.Split(a.argsInput.GetText())...)
	if err != nil {
		return err
	}

	a.frame = frame
	a.args = make([]argRow, len(rec.Args))
	for i, fa := range rec.Args {
		a.args[i] = argRow{FrameArg: fa}
		if key.Found && key.Offset == fa.Offset {
			a.args[i].Keyed = true
			a.args[i].Slot = key.Slot
		}
	}
	return nil
}

// refresh re-encodes and redraws the table and frame, or shows the error and
// keeps the previous frame.
func (a *App) refresh() {
	if err := a.encode(); err != nil {
		a.setStatus("[red]" + tview.Escape(err.Error()))
		return
	}
	a.renderTable()
	a.renderFrame()
	a.setStatus(fmt.Sprintf("%d bytes, %d arguments", len(a.frame), len(a.args)))
	if len(a.args) > 0 {
		a.argTable.Select(1, 0)
	}
}

func (a *App) setStatus(text string) {
	a.statusLabel.SetText(" " + text)
}

func (a *App) renderTable() {
	a.argTable.Clear()
	for col, h := range []string{"#", "Offset", "Len", "Slot", "Payload"} {
		a.argTable.SetCell(0, col, tview.NewTableCell(h).
			SetTextColor(tcell.ColorYellow).
			SetSelectable(false))
	}
	for i, r := range a.args {
		slot := ""
		if r.Keyed {
			slot = strconv.Itoa(r.Slot)
		}
		cells := []string{
			strconv.Itoa(r.Index),
			strconv.Itoa(r.Offset),
			strconv.Itoa(len(r.Payload)),
			slot,
			output.Preview(r.Payload),
		}
		for col, text := range cells {
			cell := tview.NewTableCell(tview.Escape(text))
			if col == 4 {
				cell.SetExpansion(1)
			}
			a.argTable.SetCell(i+1, col, cell)
		}
	}
}

// renderFrame shows the escaped frame with each payload in its own region so
// the selected argument can be highlighted.
func (a *App) renderFrame() {
	var b strings.Builder
	pos := 0
	for _, r := range a.args {
		b.WriteString(tview.Escape(quote(a.frame[pos:r.Offset])))
		fmt.Fprintf(&b, `["arg%d"]`, r.Index)
		b.WriteString(tview.Escape(quote(r.Payload)))
		b.WriteString(`[""]`)
		pos = r.Offset + len(r.Payload)
	}
	b.WriteString(tview.Escape(quote(a.frame[pos:])))

	// Break after each CRLF so every header and payload gets its own line.
	a.frameView.SetText(strings.ReplaceAll(b.String(), `\r\n`, `\r\n`+"\n"))
}

// quote escapes b like strconv.Quote without the surrounding quotes.
func quote(b []byte) string {
	q := strconv.Quote(string(b))
	return q[1 : len(q)-1]
}

func (a *App) highlightArg(i int) {
	if i < 0 || i >= len(a.args) {
		a.frameView.Highlight()
		return
	}
	region := fmt.Sprintf("arg%d", a.args[i].Index)
	a.frameView.Highlight(region).ScrollToHighlight()
}
