package input

import (
	"math"
	"sync"
	"testing"
	"time"

	"github.com/dshills/keypilot/internal/host"
	"github.com/dshills/keypilot/internal/input/key"
	"github.com/dshills/keypilot/internal/notify"
	"github.com/dshills/keypilot/internal/scroll"
)

type fakeSurface struct {
	mu       sync.Mutex
	path     string
	offset   float64
	extent   float64
	viewport float64
}

func (f *fakeSurface) ID() string   { return "s1" }
func (f *fakeSurface) Path() string { return f.path }
func (f *fakeSurface) Offset(host.Axis) float64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.offset
}
func (f *fakeSurface) Extent(host.Axis) float64   { return f.extent }
func (f *fakeSurface) Viewport(host.Axis) float64 { return f.viewport }
func (f *fakeSurface) SetOffset(_ host.Axis, px float64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.offset = px
}
func (f *fakeSurface) Live() bool { return true }

type fakeResolver struct {
	surface  host.Surface
	doc      host.DocumentView
	editable bool
}

func (f *fakeResolver) ActiveSurface() host.Surface       { return f.surface }
func (f *fakeResolver) ActiveDocument() host.DocumentView { return f.doc }
func (f *fakeResolver) EditableFocused() bool             { return f.editable }

type fakeExec struct {
	mu      sync.Mutex
	actions []string
}

func (f *fakeExec) Execute(action string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.actions = append(f.actions, action)
}

func (f *fakeExec) all() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.actions...)
}

type fakeClip struct{ text string }

func (f *fakeClip) WriteString(text string) error {
	f.text = text
	return nil
}

type fakeSub struct {
	active bool
	keys   []key.Event
	stops  int
}

func (f *fakeSub) Active() bool { return f.active }
func (f *fakeSub) HandleKey(ev key.Event) bool {
	f.keys = append(f.keys, ev)
	return true
}
func (f *fakeSub) Stop() { f.stops++; f.active = false }

type fakeHinter struct {
	fakeSub
	starts      int
	newContexts []bool
}

func (f *fakeHinter) Start(newContext bool, _ host.DocumentView) bool {
	f.starts++
	f.newContexts = append(f.newContexts, newContext)
	return true
}

type fakeMarker struct {
	fakeSub
	creates, jumps int
}

func (f *fakeMarker) StartCreate() { f.creates++ }
func (f *fakeMarker) StartJump()   { f.jumps++ }

type fakeSearcher struct {
	fakeSub
	open         bool
	opens        []string
	nexts, prevs int
	handoffs     int
}

func (f *fakeSearcher) Open(path string) { f.open = true; f.opens = append(f.opens, path) }
func (f *fakeSearcher) IsOpen() bool     { return f.open }
func (f *fakeSearcher) Next()            { f.nexts++ }
func (f *fakeSearcher) Prev()            { f.prevs++ }
func (f *fakeSearcher) Stop()            { f.fakeSub.Stop(); f.open = false }
func (f *fakeSearcher) HandoffToEditable(host.DocumentView) {
	f.handoffs++
}

type routerFixture struct {
	rt      *Router
	surface *fakeSurface
	res     *fakeResolver
	exec    *fakeExec
	clip    *fakeClip
	hints   *fakeHinter
	marks   *fakeMarker
	search  *fakeSearcher
	driver  *scroll.Driver
}

func newFixture(t *testing.T) *routerFixture {
	t.Helper()
	f := &routerFixture{
		surface: &fakeSurface{path: "notes/today.md", extent: 1100, viewport: 100},
		exec:    &fakeExec{},
		clip:    &fakeClip{},
		hints:   &fakeHinter{},
		marks:   &fakeMarker{},
		search:  &fakeSearcher{},
	}
	f.res = &fakeResolver{surface: f.surface}
	f.driver = scroll.NewDriver(scroll.DefaultConfig(), nil)
	t.Cleanup(f.driver.Stop)
	f.rt = NewRouter(DefaultRouterConfig(), Deps{
		Resolver:  f.res,
		Executor:  f.exec,
		Clipboard: f.clip,
		Driver:    f.driver,
		Notices:   notify.New(nil),
		Hints:     f.hints,
		Marks:     f.marks,
		Search:    f.search,
	})
	return f
}

func down(rt *Router, r rune) bool {
	return rt.HandleKeyDown(key.NewRuneEvent(r, key.ModNone))
}

func TestEditablePassthrough(t *testing.T) {
	f := newFixture(t)
	f.res.editable = true

	for _, r := range "jf/" {
		if down(f.rt, r) {
			t.Errorf("%q must pass through while editing", r)
		}
	}
	if len(f.exec.all()) != 0 || f.hints.starts != 0 || f.search.open {
		t.Error("no action may fire while editing")
	}
}

func TestNoSurfacePassthrough(t *testing.T) {
	f := newFixture(t)
	f.res.surface = nil
	if down(f.rt, 't') {
		t.Error("keys pass through without an eligible surface")
	}
}

func TestSingleKeyDispatch(t *testing.T) {
	f := newFixture(t)
	tests := []struct {
		r    rune
		want string
	}{
		{'t', host.ActionTabNew},
		{'x', host.ActionTabClose},
		{'X', host.ActionTabRestore},
		{'^', host.ActionTabRecall},
		{'p', host.ActionTogglePin},
		{'r', host.ActionReload},
		{'H', host.ActionHistoryBack},
		{'L', host.ActionHistoryFwd},
		{'b', host.ActionBookmarks},
		{'o', host.ActionSwitcher},
		{'?', host.ActionHelpToggle},
	}
	for _, tt := range tests {
		if !down(f.rt, tt.r) {
			t.Errorf("%q should be consumed", tt.r)
		}
	}
	got := f.exec.all()
	if len(got) != len(tests) {
		t.Fatalf("executed %d actions, want %d", len(got), len(tests))
	}
	for i, tt := range tests {
		if got[i] != tt.want {
			t.Errorf("key %q executed %s, want %s", tt.r, got[i], tt.want)
		}
	}
}

func TestCaseSensitiveIdentities(t *testing.T) {
	f := newFixture(t)
	down(f.rt, 'H')
	if got := f.exec.all(); len(got) != 1 || got[0] != host.ActionHistoryBack {
		t.Errorf("'H' executed %v, want history back", got)
	}
	down(f.rt, 'h')
	if f.driver.HeldKey() != 'h' {
		t.Error("'h' should start held momentum, not a host action")
	}
	f.rt.HandleKeyUp(key.NewRuneEvent('h', key.ModNone))
}

func TestMomentumHoldAndRelease(t *testing.T) {
	f := newFixture(t)
	down(f.rt, 'j')
	if f.driver.HeldKey() != 'j' {
		t.Fatal("'j' should hold momentum")
	}
	down(f.rt, 'j') // auto-repeat is a no-op
	if f.driver.HeldKey() != 'j' {
		t.Fatal("repeat keydown must keep the same hold")
	}
	f.rt.HandleKeyUp(key.NewRuneEvent('j', key.ModNone))
	if f.driver.HeldKey() != 0 {
		t.Error("keyup should release momentum")
	}
}

func TestScrollToBottom(t *testing.T) {
	f := newFixture(t)
	down(f.rt, 'G')
	if got := f.surface.Offset(host.Vertical); math.Abs(got-1000) > 5 {
		t.Errorf("offset = %v after G, want 1000", got)
	}
}

func TestHalfPageScroll(t *testing.T) {
	f := newFixture(t)
	down(f.rt, 'd')
	if got := f.surface.Offset(host.Vertical); got != 50 {
		t.Errorf("offset = %v after d, want 50", got)
	}
	down(f.rt, 'u')
	if got := f.surface.Offset(host.Vertical); got != 0 {
		t.Errorf("offset = %v after u, want 0", got)
	}
}

func TestTwoKeySequence(t *testing.T) {
	f := newFixture(t)
	if !down(f.rt, 'g') {
		t.Fatal("starter should be consumed")
	}
	if f.rt.Pending() != 'g' {
		t.Fatal("starter should be buffered")
	}
	down(f.rt, 't')
	if f.rt.Pending() != 0 {
		t.Error("buffer must clear after the second key")
	}
	if got := f.exec.all(); len(got) != 1 || got[0] != host.ActionTabNext {
		t.Errorf("gt executed %v, want tab next", got)
	}
}

func TestUnknownPairSwallowed(t *testing.T) {
	f := newFixture(t)
	down(f.rt, 'g')
	if !down(f.rt, 'q') {
		t.Error("unknown second key is still consumed")
	}
	if len(f.exec.all()) != 0 {
		t.Error("no action may fire for an unknown pair")
	}
	if f.rt.Pending() != 0 {
		t.Error("buffer must clear either way")
	}
}

func TestSequenceTimeoutSplitsPair(t *testing.T) {
	f := newFixture(t)
	f.rt.SetSequenceTimeout(20 * time.Millisecond)

	down(f.rt, 'g')
	time.Sleep(60 * time.Millisecond)
	if f.rt.Pending() != 0 {
		t.Fatal("timeout should clear the buffer")
	}

	// The second 'g' arrives too late: a fresh starter, not "gg".
	down(f.rt, 'g')
	if f.rt.Pending() != 'g' {
		t.Error("late key re-arms as a new starter")
	}
	if got := f.surface.Offset(host.Vertical); got != 0 {
		t.Errorf("no scroll may fire across the timeout, offset = %v", got)
	}
}

func TestShiftedCommaNormalizes(t *testing.T) {
	f := newFixture(t)
	ev := key.NewRuneEvent(',', key.ModShift)
	f.rt.HandleKeyDown(ev)
	if f.rt.Pending() != '<' {
		t.Fatalf("pending = %q, want '<'", f.rt.Pending())
	}
	f.rt.HandleKeyDown(ev)
	if got := f.exec.all(); len(got) != 1 || got[0] != host.ActionTabMoveLeft {
		t.Errorf("<< executed %v, want move left", got)
	}
}

func TestSubModePriority(t *testing.T) {
	f := newFixture(t)
	f.hints.active = true
	f.marks.active = true

	down(f.rt, 'j')
	if len(f.hints.keys) != 1 {
		t.Error("hints take the key first")
	}
	if len(f.marks.keys) != 0 {
		t.Error("lower-priority sub-modes never see the key")
	}
	if f.driver.HeldKey() != 0 {
		t.Error("no normal dispatch while a sub-mode is active")
	}
}

func TestMarkPendingDelegation(t *testing.T) {
	f := newFixture(t)
	down(f.rt, 'm')
	if f.marks.creates != 1 {
		t.Fatal("'m' should begin mark creation")
	}
	down(f.rt, '\'')
	if f.marks.jumps != 1 {
		t.Fatal("' should begin mark jump")
	}

	f.marks.active = true
	down(f.rt, 'a')
	if len(f.marks.keys) != 1 {
		t.Error("pending mark store takes the next key")
	}
}

func TestHintStart(t *testing.T) {
	f := newFixture(t)
	f.res.doc = &fakeDoc{}
	down(f.rt, 'f')
	down(f.rt, 'F')
	if f.hints.starts != 2 {
		t.Fatalf("starts = %d, want 2", f.hints.starts)
	}
	if f.hints.newContexts[0] || !f.hints.newContexts[1] {
		t.Error("f opens in place, F in a new context")
	}
}

func TestSearchOpenAndBlurredNav(t *testing.T) {
	f := newFixture(t)
	down(f.rt, '/')
	if len(f.search.opens) != 1 || f.search.opens[0] != "notes/today.md" {
		t.Fatalf("opens = %v", f.search.opens)
	}

	// Input blurred, overlay still open: n/N navigate, Escape closes.
	down(f.rt, 'n')
	f.rt.HandleKeyDown(key.NewRuneEvent('N', key.ModShift))
	if f.search.nexts != 1 || f.search.prevs != 1 {
		t.Errorf("nexts/prevs = %d/%d, want 1/1", f.search.nexts, f.search.prevs)
	}
	f.rt.HandleKeyDown(key.NewSpecialEvent(key.KeyEscape, key.ModNone))
	if f.search.open {
		t.Error("Escape closes the committed overlay")
	}
}

func TestPendingPairWinsOverCommittedSearch(t *testing.T) {
	f := newFixture(t)
	f.res.doc = &fakeDoc{surface: f.surface, headings: []host.Heading{{Line: 30, Offset: 300}}}
	down(f.rt, '/')
	if !f.search.open {
		t.Fatal("overlay should be open")
	}

	// With the overlay open and blurred, g then n completes the pair
	// instead of advancing the match.
	down(f.rt, 'g')
	down(f.rt, 'n')
	if f.search.nexts != 0 {
		t.Errorf("overlay stole the pair, nexts = %d", f.search.nexts)
	}
	if got := f.surface.Offset(host.Vertical); math.Abs(got-300) > 1 {
		t.Errorf("offset = %v, want 300", got)
	}
	if f.rt.Pending() != 0 {
		t.Errorf("pending = %q, want none", f.rt.Pending())
	}

	// Escape with a starter pending still closes the overlay.
	down(f.rt, 'g')
	f.rt.HandleKeyDown(key.NewSpecialEvent(key.KeyEscape, key.ModNone))
	if f.search.open {
		t.Error("Escape should close the overlay")
	}
	if f.rt.Pending() != 0 {
		t.Errorf("pending = %q after Escape", f.rt.Pending())
	}
}

func TestYankPath(t *testing.T) {
	f := newFixture(t)
	down(f.rt, 'y')
	down(f.rt, 'y')
	if f.clip.text != "notes/today.md" {
		t.Errorf("clipboard = %q, want the path", f.clip.text)
	}
}

func TestYankTitle(t *testing.T) {
	f := newFixture(t)
	f.res.doc = &fakeDoc{title: "Today"}
	down(f.rt, 'y')
	down(f.rt, 't')
	if f.clip.text != "Today" {
		t.Errorf("clipboard = %q, want %q", f.clip.text, "Today")
	}
}

func TestZoomClamped(t *testing.T) {
	f := newFixture(t)
	for i := 0; i < 40; i++ {
		down(f.rt, 'z')
		down(f.rt, 'i')
	}
	if got := f.driver.Zoom(); got > scroll.ZoomMax {
		t.Errorf("zoom = %v, want clamped to %v", got, scroll.ZoomMax)
	}
	down(f.rt, 'z')
	down(f.rt, 'z')
	if got := f.driver.Zoom(); got != 1.0 {
		t.Errorf("zoom = %v after zz, want 1.0", got)
	}
}

func TestHeadingNavigation(t *testing.T) {
	f := newFixture(t)
	doc := &fakeDoc{
		surface: f.surface,
		headings: []host.Heading{
			{Level: 1, Line: 0, Text: "One", Offset: 0},
			{Level: 2, Line: 10, Text: "Two", Offset: 300},
			{Level: 2, Line: 20, Text: "Three", Offset: 700},
		},
	}
	f.res.doc = doc

	down(f.rt, 'g')
	down(f.rt, 'n')
	if got := f.surface.Offset(host.Vertical); math.Abs(got-300) > 5 {
		t.Fatalf("offset = %v after gn, want 300", got)
	}
	down(f.rt, 'g')
	down(f.rt, 'n')
	if got := f.surface.Offset(host.Vertical); math.Abs(got-700) > 5 {
		t.Fatalf("offset = %v after second gn, want 700", got)
	}
	down(f.rt, 'g')
	down(f.rt, 'p')
	if got := f.surface.Offset(host.Vertical); math.Abs(got-300) > 5 {
		t.Errorf("offset = %v after gp, want 300", got)
	}
}

func TestToggleEditUsesHandoff(t *testing.T) {
	f := newFixture(t)
	doc := &fakeDoc{mode: host.ViewRendered}
	f.res.doc = doc
	down(f.rt, 'i')
	if f.search.handoffs != 1 {
		t.Error("rendered to editable goes through the search handoff")
	}

	doc.mode = host.ViewEditable
	down(f.rt, 'i')
	if doc.mode != host.ViewRendered {
		t.Error("editable to rendered is a plain toggle")
	}
	if f.search.handoffs != 1 {
		t.Error("no handoff in the editable to rendered direction")
	}
}

func TestRebind(t *testing.T) {
	f := newFixture(t)
	if err := f.rt.Rebind("q", "tab.new"); err != nil {
		t.Fatalf("rebind: %v", err)
	}
	down(f.rt, 'q')
	if got := f.exec.all(); len(got) != 1 || got[0] != host.ActionTabNew {
		t.Errorf("rebound key executed %v", got)
	}

	if err := f.rt.Rebind("q", "no.such.action"); err == nil {
		t.Error("unknown action must be rejected")
	}
	if err := f.rt.Rebind("g", "tab.new"); err == nil {
		t.Error("binding a sequence starter as a single key must be rejected")
	}
	if err := f.rt.Rebind("tq", "tab.new"); err == nil {
		t.Error("pair starting with a bound single key must be rejected")
	}
}

// TestTwoKeyTableComplete dispatches every pair in the default table
// and fails when a pair has no case here, so the table and this test
// move together.
func TestTwoKeyTableComplete(t *testing.T) {
	type pairCase struct {
		setup  func(f *routerFixture)
		verify func(t *testing.T, f *routerFixture)
	}
	actionOnly := func(want string) pairCase {
		return pairCase{verify: func(t *testing.T, f *routerFixture) {
			if got := f.exec.all(); len(got) != 1 || got[0] != want {
				t.Errorf("executed %v, want [%s]", got, want)
			}
		}}
	}
	offsetIs := func(want float64) func(t *testing.T, f *routerFixture) {
		return func(t *testing.T, f *routerFixture) {
			if got := f.surface.Offset(host.Vertical); math.Abs(got-want) > 1 {
				t.Errorf("offset = %v, want %v", got, want)
			}
		}
	}
	withHeadings := func(f *routerFixture) {
		f.res.doc = &fakeDoc{surface: f.surface, headings: []host.Heading{{Line: 30, Offset: 300}}}
	}

	cases := map[string]pairCase{
		"gg": {
			setup:  func(f *routerFixture) { f.surface.SetOffset(host.Vertical, 500) },
			verify: offsetIs(0),
		},
		"ge": {verify: offsetIs(1000)},
		"gt": actionOnly(host.ActionTabNext),
		"gT": actionOnly(host.ActionTabPrev),
		"g0": actionOnly(host.ActionTabFirst),
		"g$": actionOnly(host.ActionTabLast),
		"gn": {setup: withHeadings, verify: offsetIs(300)},
		"gp": {
			setup: func(f *routerFixture) {
				withHeadings(f)
				f.surface.SetOffset(host.Vertical, 500)
			},
			verify: offsetIs(300),
		},
		"go": actionOnly(host.ActionOpenDefault),
		"zi": {verify: func(t *testing.T, f *routerFixture) {
			if f.driver.Zoom() <= 1 {
				t.Errorf("zoom = %v after zi", f.driver.Zoom())
			}
		}},
		"zo": {verify: func(t *testing.T, f *routerFixture) {
			if f.driver.Zoom() >= 1 {
				t.Errorf("zoom = %v after zo", f.driver.Zoom())
			}
		}},
		"zz": {
			setup: func(f *routerFixture) { f.driver.ZoomIn() },
			verify: func(t *testing.T, f *routerFixture) {
				if f.driver.Zoom() != 1 {
					t.Errorf("zoom = %v after zz", f.driver.Zoom())
				}
			},
		},
		"yy": {verify: func(t *testing.T, f *routerFixture) {
			if f.clip.text != f.surface.path {
				t.Errorf("clipboard = %q, want the path", f.clip.text)
			}
		}},
		"yt": {
			setup: func(f *routerFixture) {
				f.res.doc = &fakeDoc{surface: f.surface, title: "Today"}
			},
			verify: func(t *testing.T, f *routerFixture) {
				if f.clip.text != "Today" {
					t.Errorf("clipboard = %q, want the title", f.clip.text)
				}
			},
		},
		"<<": actionOnly(host.ActionTabMoveLeft),
		">>": actionOnly(host.ActionTabMoveRight),
	}

	table := DefaultBindings()
	for keys := range table.pair {
		if _, ok := cases[keys]; !ok {
			t.Fatalf("pair %q has no case", keys)
		}
	}
	if len(cases) != len(table.pair) {
		t.Fatalf("%d cases for %d pairs", len(cases), len(table.pair))
	}

	for keys, tc := range cases {
		t.Run(keys, func(t *testing.T) {
			f := newFixture(t)
			if tc.setup != nil {
				tc.setup(f)
			}
			rs := []rune(keys)
			if !down(f.rt, rs[0]) || !down(f.rt, rs[1]) {
				t.Fatal("pair was not consumed")
			}
			tc.verify(t, f)
		})
	}
}

func TestRebindSpacedSpec(t *testing.T) {
	f := newFixture(t)
	if err := f.rt.Rebind("g g", "tab.close"); err != nil {
		t.Fatalf("rebind: %v", err)
	}
	down(f.rt, 'g')
	down(f.rt, 'g')
	if got := f.exec.all(); len(got) != 1 || got[0] != host.ActionTabClose {
		t.Errorf("spaced spec dispatched %v, want [%s]", got, host.ActionTabClose)
	}
}

func TestRebindAngleSpec(t *testing.T) {
	f := newFixture(t)
	// Shifted commas normalize to '<', so the spec lands on the same
	// identity the dispatcher computes for the keystrokes.
	if err := f.rt.Rebind("<S-,> <S-,>", "tab.close"); err != nil {
		t.Fatalf("rebind: %v", err)
	}
	f.rt.HandleKeyDown(key.NewRuneEvent(',', key.ModShift))
	f.rt.HandleKeyDown(key.NewRuneEvent(',', key.ModShift))
	if got := f.exec.all(); len(got) != 1 || got[0] != host.ActionTabClose {
		t.Errorf("angle spec dispatched %v, want [%s]", got, host.ActionTabClose)
	}
}

func TestRebindRejectsModifiedChord(t *testing.T) {
	f := newFixture(t)
	if err := f.rt.Rebind("<C-s>", "tab.close"); err == nil {
		t.Error("ctrl chords have no rune identity and must be rejected")
	}
	if err := f.rt.Rebind("<Enter>", "tab.close"); err == nil {
		t.Error("special keys have no rune identity and must be rejected")
	}
	if err := f.rt.Rebind("jjj", "tab.close"); err == nil {
		t.Error("three-key sequences must be rejected")
	}
}

func TestBindCustomSpacedSpec(t *testing.T) {
	f := newFixture(t)
	calls := 0
	if err := f.rt.BindCustom("q q", func() { calls++ }); err != nil {
		t.Fatalf("bind: %v", err)
	}
	down(f.rt, 'q')
	down(f.rt, 'q')
	if calls != 1 {
		t.Errorf("custom binding fired %d times, want 1", calls)
	}
}

func TestStopCancelsEverything(t *testing.T) {
	f := newFixture(t)
	down(f.rt, 'g')
	f.rt.Stop()
	if f.rt.Pending() != 0 {
		t.Error("Stop clears the sequence buffer")
	}
	if f.hints.stops != 1 || f.marks.stops != 1 {
		t.Error("Stop propagates to every sub-mode")
	}
}

// fakeDoc is the minimal document view the router touches.
type fakeDoc struct {
	surface  host.Surface
	mode     host.ViewMode
	title    string
	headings []host.Heading
}

func (d *fakeDoc) Surface() host.Surface     { return d.surface }
func (d *fakeDoc) Mode() host.ViewMode       { return d.mode }
func (d *fakeDoc) SetMode(m host.ViewMode) error {
	d.mode = m
	return nil
}
func (d *fakeDoc) Title() string                { return d.title }
func (d *fakeDoc) RawContent() string           { return "" }
func (d *fakeDoc) Targets() []host.Target       { return nil }
func (d *fakeDoc) Headings() []host.Heading     { return d.headings }
func (d *fakeDoc) PlaceCursor(line, col int)    {}
func (d *fakeDoc) ActiveMatchLine() (int, bool) { return 0, false }
