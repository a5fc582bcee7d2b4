package main

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dshills/keypilot/internal/app"
	"github.com/dshills/keypilot/internal/host"
	"github.com/dshills/keypilot/internal/picker"
)

var linkPattern = regexp.MustCompile(`\[\[([^\]]+)\]\]|\[([^\]]+)\]\(([^)\s]+)\)`)

// document is one open tab: a scrollable surface plus the document
// view contracts the layer navigates.
type document struct {
	mu        sync.Mutex
	ws        *workspace
	id        string
	path      string
	lines     []string
	mode      host.ViewMode
	offsetX   float64
	offsetY   float64
	cursor    [2]int
	matchLine int
	hasMatch  bool
	closed    bool
}

func (ws *workspace) loadDocument(path string) *document {
	d := &document{ws: ws, id: uuid.NewString(), path: path, matchLine: -1}
	data, err := os.ReadFile(path)
	if err != nil {
		d.lines = []string{"(" + err.Error() + ")"}
		return d
	}
	d.lines = strings.Split(strings.ReplaceAll(string(data), "\r\n", "\n"), "\n")
	return d
}

func (d *document) ID() string   { return d.id }
func (d *document) Path() string { return d.path }

func (d *document) Live() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return !d.closed
}

func (d *document) Offset(axis host.Axis) float64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	if axis == host.Horizontal {
		return d.offsetX
	}
	return d.offsetY
}

func (d *document) Extent(axis host.Axis) float64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	if axis == host.Horizontal {
		w := 0
		for _, l := range d.lines {
			if len(l) > w {
				w = len(l)
			}
		}
		return float64(w)
	}
	return float64(len(d.lines))
}

func (d *document) Viewport(axis host.Axis) float64 {
	w, h := d.ws.size()
	if axis == host.Horizontal {
		return float64(w)
	}
	// The bottom two rows belong to the status bar and HUD.
	return float64(h - 2)
}

func (d *document) SetOffset(axis host.Axis, px float64) {
	max := d.Extent(axis) - d.Viewport(axis)
	if max < 0 {
		max = 0
	}
	if px < 0 {
		px = 0
	}
	if px > max {
		px = max
	}
	d.mu.Lock()
	if axis == host.Horizontal {
		d.offsetX = px
	} else {
		d.offsetY = px
	}
	d.mu.Unlock()
	d.ws.redraw()
}

func (d *document) Surface() host.Surface { return d }

func (d *document) Mode() host.ViewMode {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.mode
}

func (d *document) SetMode(mode host.ViewMode) error {
	d.mu.Lock()
	d.mode = mode
	d.mu.Unlock()
	d.ws.redraw()
	return nil
}

func (d *document) Title() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, l := range d.lines {
		if strings.HasPrefix(l, "# ") {
			return strings.TrimPrefix(l, "# ")
		}
	}
	return filepath.Base(d.path)
}

func (d *document) RawContent() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return strings.Join(d.lines, "\n")
}

// Targets scans for markdown and wiki links. Frames are in viewport
// cells; one text row is one unit.
func (d *document) Targets() []host.Target {
	d.mu.Lock()
	lines := d.lines
	top := d.offsetY
	left := d.offsetX
	d.mu.Unlock()

	var out []host.Target
	for i, l := range lines {
		for _, m := range linkPattern.FindAllStringSubmatchIndex(l, -1) {
			dest := ""
			if m[2] >= 0 { // [[wiki]]
				dest = l[m[2]:m[3]] + ".md"
			} else { // [label](path)
				dest = l[m[6]:m[7]]
			}
			out = append(out, &linkTarget{
				ws:   d.ws,
				doc:  d,
				dest: dest,
				frame: host.Rect{
					X: float64(m[0]) - left,
					Y: float64(i) - top,
					W: float64(m[1] - m[0]),
					H: 1,
				},
			})
		}
	}
	return out
}

func (d *document) Headings() []host.Heading {
	d.mu.Lock()
	defer d.mu.Unlock()
	var out []host.Heading
	for i, l := range d.lines {
		level := 0
		for level < len(l) && l[level] == '#' {
			level++
		}
		if level == 0 || level >= len(l) || l[level] != ' ' {
			continue
		}
		out = append(out, host.Heading{
			Level:  level,
			Line:   i,
			Text:   strings.TrimSpace(l[level:]),
			Offset: float64(i),
		})
	}
	return out
}

func (d *document) PlaceCursor(line, col int) {
	d.mu.Lock()
	if line >= len(d.lines) {
		line = len(d.lines) - 1
	}
	if line < 0 {
		line = 0
	}
	d.cursor = [2]int{line, col}
	d.mu.Unlock()
	d.SetOffset(host.Vertical, float64(line)-d.Viewport(host.Vertical)/2)
}

func (d *document) ActiveMatchLine() (int, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.matchLine, d.hasMatch
}

func (d *document) setMatchLine(line int, ok bool) {
	d.mu.Lock()
	d.matchLine = line
	d.hasMatch = ok
	d.mu.Unlock()
}

func (d *document) insertRune(r rune) {
	d.mu.Lock()
	line := d.cursor[0]
	if line >= 0 && line < len(d.lines) {
		l := []rune(d.lines[line])
		col := d.cursor[1]
		if col > len(l) {
			col = len(l)
		}
		d.lines[line] = string(l[:col]) + string(r) + string(l[col:])
		d.cursor[1] = col + 1
	}
	d.mu.Unlock()
	d.ws.redraw()
}

type linkTarget struct {
	ws    *workspace
	doc   *document
	dest  string
	frame host.Rect
}

func (t *linkTarget) Frame() host.Rect { return t.frame }
func (t *linkTarget) Editable() bool   { return false }
func (t *linkTarget) Focus()           {}

func (t *linkTarget) Click(newContext bool) {
	dest := t.dest
	if !filepath.IsAbs(dest) {
		dest = filepath.Join(filepath.Dir(t.doc.Path()), dest)
	}
	if newContext {
		t.ws.openTab(dest, true)
		return
	}
	t.ws.replaceActive(dest)
}

// workspace is the demo host: a tab strip of documents plus the
// host-side contracts the layer drives.
type workspace struct {
	mu         sync.Mutex
	docs       []*document
	active     int
	previous   int
	lastClosed string
	clip       string
	notice     string
	noticeAt   time.Time
	help       bool

	layer  *app.Layer
	width  int
	height int
	wake   func()
}

func newWorkspace(paths []string) *workspace {
	ws := &workspace{}
	for _, p := range paths {
		ws.docs = append(ws.docs, ws.loadDocument(p))
	}
	if len(ws.docs) == 0 {
		ws.docs = append(ws.docs, ws.loadDocument(os.DevNull))
	}
	return ws
}

func (ws *workspace) size() (int, int) {
	ws.mu.Lock()
	defer ws.mu.Unlock()
	if ws.width == 0 {
		return 80, 24
	}
	return ws.width, ws.height
}

func (ws *workspace) setSize(w, h int) {
	ws.mu.Lock()
	ws.width, ws.height = w, h
	ws.mu.Unlock()
}

func (ws *workspace) redraw() {
	ws.mu.Lock()
	wake := ws.wake
	ws.mu.Unlock()
	if wake != nil {
		wake()
	}
}

func (ws *workspace) activeDoc() *document {
	ws.mu.Lock()
	defer ws.mu.Unlock()
	if ws.active < 0 || ws.active >= len(ws.docs) {
		return nil
	}
	return ws.docs[ws.active]
}

// ActiveSurface implements host.Resolver.
func (ws *workspace) ActiveSurface() host.Surface {
	d := ws.activeDoc()
	if d == nil {
		return nil
	}
	return d
}

func (ws *workspace) ActiveDocument() host.DocumentView {
	d := ws.activeDoc()
	if d == nil {
		return nil
	}
	return d
}

// EditableFocused reports raw-mode focus; the layer then passes keys
// through and the event loop feeds them into the document.
func (ws *workspace) EditableFocused() bool {
	d := ws.activeDoc()
	return d != nil && d.Mode() == host.ViewEditable
}

// PathExists implements host.Navigator.
func (ws *workspace) PathExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func (ws *workspace) OpenInNewTab(path string) (host.Surface, error) {
	return ws.openTab(path, false), nil
}

func (ws *workspace) ActivateSurface(surfaceID string) bool {
	ws.mu.Lock()
	defer ws.mu.Unlock()
	for i, d := range ws.docs {
		if d.id == surfaceID {
			ws.previous = ws.active
			ws.active = i
			return true
		}
	}
	return false
}

func (ws *workspace) openTab(path string, activate bool) *document {
	d := ws.loadDocument(path)
	ws.mu.Lock()
	ws.docs = append(ws.docs, d)
	if activate {
		ws.previous = ws.active
		ws.active = len(ws.docs) - 1
	}
	ws.mu.Unlock()
	ws.redraw()
	return d
}

func (ws *workspace) replaceActive(path string) {
	d := ws.loadDocument(path)
	ws.mu.Lock()
	if ws.active >= 0 && ws.active < len(ws.docs) {
		ws.docs[ws.active].mu.Lock()
		ws.docs[ws.active].closed = true
		ws.docs[ws.active].mu.Unlock()
		ws.docs[ws.active] = d
	}
	ws.mu.Unlock()
	ws.redraw()
}

// Execute implements host.Executor for the action names the
// dispatcher issues.
func (ws *workspace) Execute(action string) {
	switch action {
	case host.ActionHelpToggle:
		ws.mu.Lock()
		ws.help = !ws.help
		ws.mu.Unlock()
	case host.ActionTabNew:
		ws.openTab(os.DevNull, true)
	case host.ActionTabClose:
		ws.closeActive()
	case host.ActionTabRestore:
		ws.restoreClosed()
	case host.ActionTabNext:
		ws.cycle(1)
	case host.ActionTabPrev:
		ws.cycle(-1)
	case host.ActionTabFirst:
		ws.jumpTo(0)
	case host.ActionTabLast:
		ws.mu.Lock()
		n := len(ws.docs)
		ws.mu.Unlock()
		ws.jumpTo(n - 1)
	case host.ActionTabRecall:
		ws.mu.Lock()
		ws.active, ws.previous = ws.previous, ws.active
		ws.mu.Unlock()
	case host.ActionTabMoveLeft:
		ws.moveActive(-1)
	case host.ActionTabMoveRight:
		ws.moveActive(1)
	case host.ActionReload:
		if d := ws.activeDoc(); d != nil {
			ws.replaceActive(d.Path())
		}
	case host.ActionBookmarks, host.ActionSwitcher:
		ws.openSwitcher()
	case host.ActionOpenDefault:
		ws.Notice("no external opener in the demo host")
	default:
		ws.Notice(action)
	}
	ws.redraw()
}

func (ws *workspace) closeActive() {
	ws.mu.Lock()
	if len(ws.docs) <= 1 {
		ws.mu.Unlock()
		ws.Notice("last tab stays open")
		return
	}
	d := ws.docs[ws.active]
	d.mu.Lock()
	d.closed = true
	d.mu.Unlock()
	ws.lastClosed = d.path
	ws.docs = append(ws.docs[:ws.active], ws.docs[ws.active+1:]...)
	if ws.active >= len(ws.docs) {
		ws.active = len(ws.docs) - 1
	}
	ws.mu.Unlock()
}

func (ws *workspace) restoreClosed() {
	ws.mu.Lock()
	path := ws.lastClosed
	ws.lastClosed = ""
	ws.mu.Unlock()
	if path == "" {
		ws.Notice("nothing to restore")
		return
	}
	ws.openTab(path, true)
}

func (ws *workspace) cycle(step int) {
	ws.mu.Lock()
	if n := len(ws.docs); n > 0 {
		ws.previous = ws.active
		ws.active = ((ws.active+step)%n + n) % n
	}
	ws.mu.Unlock()
}

func (ws *workspace) jumpTo(i int) {
	ws.mu.Lock()
	if i >= 0 && i < len(ws.docs) {
		ws.previous = ws.active
		ws.active = i
	}
	ws.mu.Unlock()
}

func (ws *workspace) moveActive(step int) {
	ws.mu.Lock()
	j := ws.active + step
	if j >= 0 && j < len(ws.docs) {
		ws.docs[ws.active], ws.docs[j] = ws.docs[j], ws.docs[ws.active]
		ws.active = j
	}
	ws.mu.Unlock()
}

func (ws *workspace) openSwitcher() {
	ws.mu.Lock()
	items := make([]picker.Item, len(ws.docs))
	for i, d := range ws.docs {
		items[i] = picker.Item{Label: d.Title(), Detail: d.path, Data: d.id}
	}
	layer := ws.layer
	ws.mu.Unlock()
	if layer == nil {
		return
	}
	layer.Picker().Open("tabs", items, func(chosen *picker.Item) {
		if chosen == nil {
			return
		}
		if id, ok := chosen.Data.(string); ok {
			ws.ActivateSurface(id)
		}
		ws.redraw()
	})
}

// WriteString implements host.Clipboard. The demo keeps the text
// in-process instead of talking to a system clipboard.
func (ws *workspace) WriteString(text string) error {
	ws.mu.Lock()
	ws.clip = text
	ws.mu.Unlock()
	return nil
}

// Notice implements host.Notifier.
func (ws *workspace) Notice(msg string) {
	ws.mu.Lock()
	ws.notice = msg
	ws.noticeAt = time.Now()
	ws.mu.Unlock()
	ws.redraw()
}

func (ws *workspace) helpOpen() bool {
	ws.mu.Lock()
	defer ws.mu.Unlock()
	return ws.help
}

func (ws *workspace) currentNotice() string {
	ws.mu.Lock()
	defer ws.mu.Unlock()
	if time.Since(ws.noticeAt) > 3*time.Second {
		return ""
	}
	return ws.notice
}
