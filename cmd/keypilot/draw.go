package main

import (
	"fmt"
	"strings"

	"github.com/gdamore/tcell/v2"
	"github.com/lucasb-eyer/go-colorful"

	"github.com/dshills/keypilot/internal/app"
	"github.com/dshills/keypilot/internal/host"
	"github.com/dshills/keypilot/internal/search"
)

func cellColor(c colorful.Color) tcell.Color {
	r, g, b := c.RGB255()
	return tcell.NewRGBColor(int32(r), int32(g), int32(b))
}

var (
	styleText    = tcell.StyleDefault
	styleStatus  = tcell.StyleDefault.Reverse(true)
	styleHint    = tcell.StyleDefault.Foreground(tcell.ColorBlack).Background(cellColor(colorful.Hsv(51, 0.9, 1.0)))
	styleMatch   = tcell.StyleDefault.Background(cellColor(colorful.Hsv(200, 0.55, 0.45))).Foreground(tcell.ColorWhite)
	styleHeading = tcell.StyleDefault.Bold(true).Foreground(cellColor(colorful.Hsv(160, 0.6, 0.9)))
	stylePicker  = tcell.StyleDefault.Background(cellColor(colorful.Hsv(240, 0.25, 0.25))).Foreground(tcell.ColorWhite)
	styleSelect  = tcell.StyleDefault.Background(cellColor(colorful.Hsv(240, 0.55, 0.55))).Foreground(tcell.ColorWhite).Bold(true)
)

type ui struct {
	screen tcell.Screen
	ws     *workspace
	layer  *app.Layer
}

func (u *ui) draw() {
	u.screen.Clear()
	w, h := u.screen.Size()
	u.ws.setSize(w, h)

	doc := u.ws.activeDoc()
	if doc != nil {
		u.drawDocument(doc, w, h-2)
		u.drawHints()
	}
	u.drawPicker(w, h)
	if u.ws.helpOpen() {
		u.drawHelp(w, h)
	}
	u.drawStatus(doc, w, h)
	u.screen.Show()
}

func (u *ui) drawDocument(doc *document, w, rows int) {
	doc.mu.Lock()
	lines := doc.lines
	top := int(doc.offsetY)
	left := int(doc.offsetX)
	matchLine := doc.matchLine
	hasMatch := doc.hasMatch
	mode := doc.mode
	cursor := doc.cursor
	doc.mu.Unlock()

	for row := 0; row < rows; row++ {
		i := top + row
		if i < 0 || i >= len(lines) {
			continue
		}
		style := styleText
		if strings.HasPrefix(lines[i], "#") {
			style = styleHeading
		}
		if hasMatch && i == matchLine {
			style = styleMatch
		}
		u.puts(clipLeft(lines[i], left), 0, row, w, style)
	}

	if mode == host.ViewEditable {
		if row := cursor[0] - top; row >= 0 && row < rows {
			u.screen.ShowCursor(cursor[1]-left, row)
			return
		}
	}
	u.screen.HideCursor()
}

func (u *ui) drawHints() {
	hints := u.layer.Hints().Matching()
	for _, hn := range hints {
		x := int(hn.Frame.X)
		y := int(hn.Frame.Y)
		u.puts(hn.Code, x, y, x+len(hn.Code), styleHint)
	}
}

func (u *ui) drawPicker(w, h int) {
	view, ok := u.layer.Picker().Snapshot()
	if !ok {
		return
	}
	boxW := w * 2 / 3
	boxH := h / 2
	x0 := (w - boxW) / 2
	y0 := (h - boxH) / 2

	u.fill(x0, y0, boxW, boxH, stylePicker)
	u.puts(fmt.Sprintf(" %s> %s", view.Title, view.Query), x0, y0, x0+boxW, stylePicker.Bold(true))
	for i, e := range view.Entries {
		if i >= boxH-1 {
			break
		}
		style := stylePicker
		if e.Selected {
			style = styleSelect
		}
		label := " " + e.Item.Label
		if e.Item.Detail != "" {
			label += "  " + e.Item.Detail
		}
		u.puts(label, x0, y0+1+i, x0+boxW, style)
	}
}

var helpLines = []string{
	" j/k/h/l scroll   d/u half page   gg/ge/G top/end/bottom ",
	" f hints   F hints in new tab   gn/gp headings           ",
	" m mark   ' jump   ml mark list   md clear view marks    ",
	" / find   n/N next/prev   i toggle raw edit              ",
	" t/x/X tabs   gt/gT cycle   g0/g$ ends   << >> move      ",
	" o switcher   zi/zo/zz zoom   yy/yt yank   ? close help  ",
}

func (u *ui) drawHelp(w, h int) {
	boxW := len(helpLines[0])
	boxH := len(helpLines)
	x0 := (w - boxW) / 2
	y0 := (h - boxH) / 2
	for i, l := range helpLines {
		u.puts(l, x0, y0+i, x0+boxW, stylePicker)
	}
}

func (u *ui) drawStatus(doc *document, w, h int) {
	left := "keypilot"
	if doc != nil {
		pct := 0
		if extent := doc.Extent(host.Vertical); extent > 0 {
			pct = int(doc.Offset(host.Vertical) / extent * 100)
		}
		mode := "read"
		if doc.Mode() == host.ViewEditable {
			mode = "edit"
		}
		left = fmt.Sprintf(" %s  [%s]  %d%%", doc.Title(), mode, pct)
	}
	u.fill(0, h-2, w, 1, styleStatus)
	u.puts(left, 0, h-2, w, styleStatus)

	// Bottom row: search HUD, pending sequence, or the latest notice.
	bottom := u.ws.currentNotice()
	if view, ok := u.searchView(); ok {
		cursor := " "
		if view.InputFocused {
			cursor = "_"
		}
		bottom = fmt.Sprintf("/%s%s   %d/%d", view.Query, cursor, view.Current, view.Total)
	} else if pending := u.layer.Router().Pending(); pending != 0 {
		bottom = string(pending)
	} else if typed := u.layer.Hints().Typed(); u.layer.Hints().Active() {
		bottom = "hint: " + typed
	}
	u.puts(bottom, 0, h-1, w, styleText)
}

func (u *ui) searchView() (search.View, bool) {
	s := u.layer.Search()
	if s == nil {
		return search.View{}, false
	}
	return s.Snapshot()
}

func (u *ui) puts(s string, x, y, maxX int, style tcell.Style) {
	for _, r := range s {
		if x >= maxX {
			return
		}
		u.screen.SetContent(x, y, r, nil, style)
		x++
	}
}

func (u *ui) fill(x0, y0, w, h int, style tcell.Style) {
	for y := y0; y < y0+h; y++ {
		for x := x0; x < x0+w; x++ {
			u.screen.SetContent(x, y, ' ', nil, style)
		}
	}
}

func clipLeft(s string, left int) string {
	r := []rune(s)
	if left >= len(r) {
		return ""
	}
	return string(r[left:])
}
