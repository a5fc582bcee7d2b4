// Package main is a terminal demo host for the keypilot navigation
// layer: a minimal document viewer whose keyboard is driven entirely
// through the layer.
package main

import (
	"flag"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/gdamore/tcell/v2"

	"github.com/dshills/keypilot/internal/app"
	"github.com/dshills/keypilot/internal/host"
	"github.com/dshills/keypilot/internal/input/key"
)

// version is set via ldflags during build.
var version = "dev"

func main() {
	os.Exit(run())
}

func run() int {
	var configDir string
	var logLevel string
	var logFile string
	var showVersion bool

	flag.StringVar(&configDir, "config", "", "Config directory (settings.toml, keybinds.json, init.lua)")
	flag.StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	flag.StringVar(&logFile, "log-file", "", "Write logs to a file instead of discarding them")
	flag.BoolVar(&showVersion, "version", false, "Show version information")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: keypilot [options] [files...]\n\nOptions:\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	if showVersion {
		fmt.Printf("keypilot %s\n", version)
		return 0
	}

	// The terminal owns stderr, so logs are file-or-nothing.
	log := app.NullLogger
	if logFile != "" {
		f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: open log file: %v\n", err)
			return 1
		}
		defer f.Close()
		log = app.NewLogger(app.LoggerConfig{
			Level:  app.ParseLogLevel(logLevel),
			Output: f,
			Prefix: "keypilot",
		})
	}

	ws := newWorkspace(flag.Args())
	find := newTermFind(ws)

	screen, err := tcell.NewScreen()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: create screen: %v\n", err)
		return 1
	}
	if err := screen.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: init screen: %v\n", err)
		return 1
	}
	defer screen.Fini()
	screen.EnableMouse()

	wake := func() { _ = screen.PostEvent(tcell.NewEventInterrupt(nil)) }
	ws.wake = wake

	layer, err := app.NewLayer(app.Options{
		ConfigDir: configDir,
		Resolver:  ws,
		Navigator: ws,
		Executor:  ws,
		Clipboard: ws,
		Find:      find,
		Notifier:  ws,
		OnChange:  wake,
		Log:       log,
	})
	if err != nil {
		screen.Fini()
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	defer layer.Teardown()

	ws.layer = layer
	layer.EnsureWindow("terminal")

	u := &ui{screen: screen, ws: ws, layer: layer}
	rel := newReleaser(layer)
	defer rel.stop()

	for {
		u.draw()
		ev := screen.PollEvent()
		switch ev := ev.(type) {
		case *tcell.EventResize:
			screen.Sync()
		case *tcell.EventInterrupt:
		case *tcell.EventKey:
			if ev.Key() == tcell.KeyCtrlC {
				return 0
			}
			kev, ok := translateKey(ev)
			if !ok {
				continue
			}
			rel.keyDown(kev)
			if layer.HandleKeyDown(kev) {
				continue
			}
			handleHostKey(ws, kev)
		case *tcell.EventMouse:
			if ev.Buttons()&tcell.Button1 != 0 {
				layer.PointerDown()
			}
		}
	}
}

// handleHostKey consumes keys the layer passed through, which in this
// host means raw-mode editing.
func handleHostKey(ws *workspace, ev key.Event) {
	doc := ws.activeDoc()
	if doc == nil || doc.Mode() != host.ViewEditable {
		return
	}
	switch {
	case ev.IsEscape():
		_ = doc.SetMode(host.ViewRendered)
	case ev.IsRune() && !ev.IsModified():
		doc.insertRune(ev.Rune)
	}
}

func translateKey(ev *tcell.EventKey) (key.Event, bool) {
	mods := key.ModNone
	if ev.Modifiers()&tcell.ModShift != 0 {
		mods = mods.With(key.ModShift)
	}
	if ev.Modifiers()&tcell.ModCtrl != 0 {
		mods = mods.With(key.ModCtrl)
	}
	if ev.Modifiers()&tcell.ModAlt != 0 {
		mods = mods.With(key.ModAlt)
	}
	if ev.Modifiers()&tcell.ModMeta != 0 {
		mods = mods.With(key.ModMeta)
	}

	switch ev.Key() {
	case tcell.KeyRune:
		return key.NewRuneEvent(ev.Rune(), mods), true
	case tcell.KeyEscape:
		return key.NewSpecialEvent(key.KeyEscape, mods), true
	case tcell.KeyEnter:
		return key.NewSpecialEvent(key.KeyEnter, mods), true
	case tcell.KeyTab:
		return key.NewSpecialEvent(key.KeyTab, mods), true
	case tcell.KeyBackspace, tcell.KeyBackspace2:
		return key.NewSpecialEvent(key.KeyBackspace, mods), true
	case tcell.KeyDelete:
		return key.NewSpecialEvent(key.KeyDelete, mods), true
	case tcell.KeyUp:
		return key.NewSpecialEvent(key.KeyUp, mods), true
	case tcell.KeyDown:
		return key.NewSpecialEvent(key.KeyDown, mods), true
	case tcell.KeyLeft:
		return key.NewSpecialEvent(key.KeyLeft, mods), true
	case tcell.KeyRight:
		return key.NewSpecialEvent(key.KeyRight, mods), true
	case tcell.KeyHome:
		return key.NewSpecialEvent(key.KeyHome, mods), true
	case tcell.KeyEnd:
		return key.NewSpecialEvent(key.KeyEnd, mods), true
	case tcell.KeyPgUp:
		return key.NewSpecialEvent(key.KeyPageUp, mods), true
	case tcell.KeyPgDn:
		return key.NewSpecialEvent(key.KeyPageDown, mods), true
	}
	return key.Event{}, false
}

// releaser synthesizes keyups. Terminals only deliver keydowns;
// autorepeat shows up as repeated downs, so a key with no repeat for
// a short window counts as released.
type releaser struct {
	mu      sync.Mutex
	layer   *app.Layer
	last    key.Event
	lastAt  time.Time
	held    bool
	closeCh chan struct{}
}

const releaseWindow = 300 * time.Millisecond

func newReleaser(layer *app.Layer) *releaser {
	r := &releaser{layer: layer, closeCh: make(chan struct{})}
	go r.loop()
	return r
}

func (r *releaser) keyDown(ev key.Event) {
	r.mu.Lock()
	if r.held && r.last.Rune != ev.Rune {
		prev := r.last
		r.mu.Unlock()
		r.layer.HandleKeyUp(prev)
		r.mu.Lock()
	}
	r.last = ev
	r.lastAt = time.Now()
	r.held = ev.IsRune()
	r.mu.Unlock()
}

func (r *releaser) loop() {
	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-r.closeCh:
			return
		case <-ticker.C:
			r.mu.Lock()
			expired := r.held && time.Since(r.lastAt) > releaseWindow
			ev := r.last
			if expired {
				r.held = false
			}
			r.mu.Unlock()
			if expired {
				r.layer.HandleKeyUp(ev)
			}
		}
	}
}

func (r *releaser) stop() {
	close(r.closeCh)
}
