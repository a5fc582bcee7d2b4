package host

// Axis selects a scroll direction.
type Axis int

const (
	// Vertical is the primary scroll axis.
	Vertical Axis = iota
	// Horizontal is the secondary scroll axis.
	Horizontal
)

// Surface is the scrollable content area of one open view.
type Surface interface {
	// ID returns an opaque handle unique to this surface instance.
	ID() string

	// Path returns the location path of the backing content.
	Path() string

	// Offset returns the current scroll offset in pixels.
	Offset(axis Axis) float64

	// Extent returns the total scrollable size in pixels.
	Extent(axis Axis) float64

	// Viewport returns the visible size in pixels.
	Viewport(axis Axis) float64

	// SetOffset scrolls to an absolute pixel offset.
	SetOffset(axis Axis, px float64)

	// Live reports whether the surface handle still resolves.
	Live() bool
}

// Resolver locates the active target surface for the focused view.
type Resolver interface {
	// ActiveSurface returns the focused view's scrollable surface, the
	// fallback modal surface when a help overlay is open, or nil.
	ActiveSurface() Surface

	// ActiveDocument returns the focused document view, or nil when
	// focus is not on a document.
	ActiveDocument() DocumentView

	// EditableFocused reports whether a text-editing control has
	// focus. Keys are never intercepted while it does.
	EditableFocused() bool
}

// Navigator reopens and re-activates surfaces for mark jumps.
type Navigator interface {
	// PathExists reports whether the backing content still exists.
	PathExists(path string) bool

	// OpenInNewTab opens path in a new tab and returns its surface.
	// The surface may still be loading; callers poll until it settles.
	OpenInNewTab(path string) (Surface, error)

	// ActivateSurface re-focuses a live surface by handle.
	ActivateSurface(id string) bool
}

// Executor fires a named host action. No return value is consumed.
type Executor interface {
	Execute(action string)
}

// Host action names issued by the dispatcher.
const (
	ActionHelpToggle   = "help.toggle"
	ActionTabNew       = "tab.new"
	ActionTabClose     = "tab.close"
	ActionTabRestore   = "tab.restore"
	ActionTabNext      = "tab.next"
	ActionTabPrev      = "tab.prev"
	ActionTabFirst     = "tab.first"
	ActionTabLast      = "tab.last"
	ActionTabRecall    = "tab.recall"
	ActionTabMoveLeft  = "tab.moveLeft"
	ActionTabMoveRight = "tab.moveRight"
	ActionTogglePin    = "view.togglePin"
	ActionReload       = "view.reload"
	ActionHistoryBack  = "history.back"
	ActionHistoryFwd   = "history.forward"
	ActionBookmarks    = "picker.bookmarks"
	ActionSwitcher     = "picker.switcher"
	ActionOpenDefault  = "open.defaultApp"
)

// Clipboard receives yanked text.
type Clipboard interface {
	WriteString(text string) error
}

// Rect is a rectangle in viewport coordinates.
type Rect struct {
	X, Y, W, H float64
}

// Target is one interactive element eligible for link hints.
type Target interface {
	// Frame returns the rendered rectangle in viewport coordinates.
	Frame() Rect

	// Editable reports whether activating should focus, not click.
	Editable() bool

	// Click activates the target. newContext carries the host's
	// open-in-new-tab modifier combination.
	Click(newContext bool)

	// Focus gives the target input focus.
	Focus()
}

// Heading is one navigable section heading of a document.
type Heading struct {
	Level  int
	Line   int
	Text   string
	Offset float64
}

// ViewMode distinguishes the two document presentations.
type ViewMode int

const (
	// ViewRendered is the read-only rendered presentation.
	ViewRendered ViewMode = iota
	// ViewEditable is the raw, editable presentation.
	ViewEditable
)

// DocumentView is the focused document with both presentations.
type DocumentView interface {
	// Surface returns the view's scrollable surface.
	Surface() Surface

	// Mode returns the current presentation.
	Mode() ViewMode

	// SetMode switches presentation. The switch may complete
	// asynchronously; callers poll for readiness.
	SetMode(mode ViewMode) error

	// Title returns the document title.
	Title() string

	// RawContent returns the raw document text.
	RawContent() string

	// Targets returns the interactive elements currently rendered.
	Targets() []Target

	// Headings returns the document's section headings.
	Headings() []Heading

	// PlaceCursor puts the editable cursor at line, col (0-based).
	PlaceCursor(line, col int)

	// ActiveMatchLine returns the rendered line of the currently
	// highlighted search match, when one is active.
	ActiveMatchLine() (int, bool)
}

// NativeFind adapts the host's native find facility. The structural
// element lookup behind it is brittle; the adapter isolates
// it so dispatch logic never sees selectors.
type NativeFind interface {
	// Open triggers the native find UI. The panel may not exist yet;
	// Attach is polled until it does.
	Open() error

	// Attach binds to the native input, count display, and prev/next
	// controls. Returns false while the panel has not appeared.
	Attach() bool

	// Close invokes the native close control so host state resets.
	Close()

	// SetQuery mirrors a query into the native input and synthesizes
	// the native change events.
	SetQuery(q string)

	// Counts returns the current match ordinal and total.
	Counts() (current, total int)

	// Next and Prev delegate to the native controls.
	Next()
	Prev()

	// OnCounts observes the native match-count display. The returned
	// function disconnects the observer.
	OnCounts(fn func(current, total int)) (disconnect func())
}

// Notifier shows transient, non-blocking user notices.
type Notifier interface {
	Notice(msg string)
}
