package main

import (
	"strings"
	"sync"

	"github.com/dshills/keypilot/internal/host"
)

// termFind implements host.NativeFind over the workspace's active
// document. A real host adapter would drive native UI controls; here
// the "native panel" is in-process and attaches immediately.
type termFind struct {
	mu        sync.Mutex
	ws        *workspace
	open      bool
	query     string
	doc       *document
	matches   []int
	current   int
	nextObsID int
	observers map[int]func(current, total int)
}

func newTermFind(ws *workspace) *termFind {
	return &termFind{ws: ws, observers: make(map[int]func(int, int))}
}

func (f *termFind) Open() error {
	f.mu.Lock()
	f.open = true
	f.doc = f.ws.activeDoc()
	f.mu.Unlock()
	return nil
}

func (f *termFind) Attach() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.open
}

func (f *termFind) Close() {
	f.mu.Lock()
	doc := f.doc
	f.open = false
	f.query = ""
	f.matches = nil
	f.current = 0
	f.doc = nil
	f.mu.Unlock()
	if doc != nil {
		doc.setMatchLine(-1, false)
	}
	f.ws.redraw()
}

func (f *termFind) SetQuery(q string) {
	f.mu.Lock()
	f.query = q
	f.matches = f.matches[:0]
	if f.doc != nil && q != "" {
		needle := strings.ToLower(q)
		for i, l := range strings.Split(f.doc.RawContent(), "\n") {
			if strings.Contains(strings.ToLower(l), needle) {
				f.matches = append(f.matches, i)
			}
		}
	}
	if len(f.matches) > 0 {
		f.current = 1
	} else {
		f.current = 0
	}
	f.mu.Unlock()
	f.applyCurrent()
	f.notifyObservers()
}

func (f *termFind) Counts() (current, total int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.current, len(f.matches)
}

func (f *termFind) Next() { f.step(1) }
func (f *termFind) Prev() { f.step(-1) }

func (f *termFind) step(dir int) {
	f.mu.Lock()
	n := len(f.matches)
	if n > 0 {
		f.current = ((f.current-1+dir)%n+n)%n + 1
	}
	f.mu.Unlock()
	f.applyCurrent()
	f.notifyObservers()
}

// applyCurrent highlights the active match line and scrolls it into
// view.
func (f *termFind) applyCurrent() {
	f.mu.Lock()
	doc := f.doc
	var line int
	ok := f.current > 0 && f.current <= len(f.matches)
	if ok {
		line = f.matches[f.current-1]
	}
	f.mu.Unlock()
	if doc == nil {
		return
	}
	if !ok {
		doc.setMatchLine(-1, false)
		return
	}
	doc.setMatchLine(line, true)
	doc.SetOffset(host.Vertical, float64(line)-doc.Viewport(host.Vertical)/2)
}

func (f *termFind) OnCounts(fn func(current, total int)) (disconnect func()) {
	f.mu.Lock()
	id := f.nextObsID
	f.nextObsID++
	f.observers[id] = fn
	current, total := f.current, len(f.matches)
	f.mu.Unlock()
	fn(current, total)
	return func() {
		f.mu.Lock()
		delete(f.observers, id)
		f.mu.Unlock()
	}
}

func (f *termFind) notifyObservers() {
	f.mu.Lock()
	obs := make([]func(int, int), 0, len(f.observers))
	for _, fn := range f.observers {
		obs = append(obs, fn)
	}
	current, total := f.current, len(f.matches)
	f.mu.Unlock()
	for _, fn := range obs {
		fn(current, total)
	}
	f.ws.redraw()
}
