package input

import (
	"github.com/dshills/keypilot/internal/host"
	"github.com/dshills/keypilot/internal/input/key"
)

// headingMargin keeps gn/gp from re-selecting the heading the view is
// already sitting on.
const headingMargin = 2.0

func (rt *Router) registerActions() {
	rt.actions = map[string]func(ev key.Event){
		"help.toggle": func(key.Event) { rt.execute(host.ActionHelpToggle) },

		"scroll.down":     func(ev key.Event) { rt.hold(ev, host.Vertical, 1) },
		"scroll.up":       func(ev key.Event) { rt.hold(ev, host.Vertical, -1) },
		"scroll.left":     func(ev key.Event) { rt.hold(ev, host.Horizontal, -1) },
		"scroll.right":    func(ev key.Event) { rt.hold(ev, host.Horizontal, 1) },
		"scroll.halfDown": func(key.Event) { rt.halfPage(1) },
		"scroll.halfUp":   func(key.Event) { rt.halfPage(-1) },
		"scroll.top":      func(key.Event) { rt.toFraction(0) },
		"scroll.bottom":   func(key.Event) { rt.toFraction(1) },
		"scroll.end":      func(key.Event) { rt.toFraction(1) },

		"hints.open":           func(key.Event) { rt.startHints(false) },
		"hints.openNewContext": func(key.Event) { rt.startHints(true) },

		"mark.create": func(key.Event) { rt.startMarkCreate() },
		"mark.jump":   func(key.Event) { rt.startMarkJump() },

		"search.open":     func(key.Event) { rt.openSearch() },
		"view.toggleEdit": func(key.Event) { rt.toggleEdit() },

		"heading.next": func(key.Event) { rt.heading(1) },
		"heading.prev": func(key.Event) { rt.heading(-1) },

		"zoom.in":    func(key.Event) { rt.zoomed(rt.deps.Driver.ZoomIn()) },
		"zoom.out":   func(key.Event) { rt.zoomed(rt.deps.Driver.ZoomOut()) },
		"zoom.reset": func(key.Event) { rt.zoomed(rt.deps.Driver.ZoomReset()) },

		"yank.path":  func(key.Event) { rt.yankPath() },
		"yank.title": func(key.Event) { rt.yankTitle() },

		"tab.new":          func(key.Event) { rt.execute(host.ActionTabNew) },
		"tab.close":        func(key.Event) { rt.execute(host.ActionTabClose) },
		"tab.restore":      func(key.Event) { rt.execute(host.ActionTabRestore) },
		"tab.next":         func(key.Event) { rt.execute(host.ActionTabNext) },
		"tab.prev":         func(key.Event) { rt.execute(host.ActionTabPrev) },
		"tab.first":        func(key.Event) { rt.execute(host.ActionTabFirst) },
		"tab.last":         func(key.Event) { rt.execute(host.ActionTabLast) },
		"tab.recall":       func(key.Event) { rt.execute(host.ActionTabRecall) },
		"tab.moveLeft":     func(key.Event) { rt.execute(host.ActionTabMoveLeft) },
		"tab.moveRight":    func(key.Event) { rt.execute(host.ActionTabMoveRight) },
		"view.togglePin":   func(key.Event) { rt.execute(host.ActionTogglePin) },
		"view.reload":      func(key.Event) { rt.execute(host.ActionReload) },
		"history.back":     func(key.Event) { rt.execute(host.ActionHistoryBack) },
		"history.forward":  func(key.Event) { rt.execute(host.ActionHistoryFwd) },
		"picker.bookmarks": func(key.Event) { rt.execute(host.ActionBookmarks) },
		"picker.switcher":  func(key.Event) { rt.execute(host.ActionSwitcher) },
		"open.defaultApp":  func(key.Event) { rt.execute(host.ActionOpenDefault) },
	}
}

// execute fires a named host action, fire-and-forget.
func (rt *Router) execute(action string) {
	rt.deps.Executor.Execute(action)
}

func (rt *Router) hold(ev key.Event, axis host.Axis, dir float64) {
	if s := rt.deps.Resolver.ActiveSurface(); s != nil {
		rt.deps.Driver.HoldKey(ev.Rune, s, axis, dir)
	}
}

func (rt *Router) halfPage(dir float64) {
	s := rt.deps.Resolver.ActiveSurface()
	if s == nil {
		return
	}
	rt.deps.Driver.By(s, host.Vertical, dir*s.Viewport(host.Vertical)/2)
}

func (rt *Router) toFraction(fraction float64) {
	if s := rt.deps.Resolver.ActiveSurface(); s != nil {
		rt.deps.Driver.SmoothToFraction(s, host.Vertical, fraction)
	}
}

func (rt *Router) startHints(newContext bool) {
	if rt.deps.Hints == nil {
		return
	}
	if doc := rt.deps.Resolver.ActiveDocument(); doc != nil {
		rt.deps.Hints.Start(newContext, doc)
	}
}

func (rt *Router) startMarkCreate() {
	if rt.deps.Marks != nil {
		rt.deps.Marks.StartCreate()
	}
}

func (rt *Router) startMarkJump() {
	if rt.deps.Marks != nil {
		rt.deps.Marks.StartJump()
	}
}

func (rt *Router) openSearch() {
	if rt.deps.Search == nil {
		return
	}
	if s := rt.deps.Resolver.ActiveSurface(); s != nil {
		rt.deps.Search.Open(s.Path())
	}
}

// toggleEdit switches the presentation. Rendered to editable goes
// through the search handoff so an active match keeps the cursor.
func (rt *Router) toggleEdit() {
	doc := rt.deps.Resolver.ActiveDocument()
	if doc == nil {
		return
	}
	if doc.Mode() == host.ViewEditable {
		if err := doc.SetMode(host.ViewRendered); err != nil {
			rt.notice("could not switch view")
		}
		return
	}
	if rt.deps.Search != nil {
		rt.deps.Search.HandoffToEditable(doc)
		return
	}
	if err := doc.SetMode(host.ViewEditable); err != nil {
		rt.notice("could not switch view")
	}
}

// heading scrolls to the next or previous section heading relative to
// the current offset. Headings come from the host in document order.
func (rt *Router) heading(dir int) {
	doc := rt.deps.Resolver.ActiveDocument()
	if doc == nil {
		return
	}
	s := doc.Surface()
	if s == nil {
		return
	}
	cur := s.Offset(host.Vertical)
	headings := doc.Headings()
	if dir > 0 {
		for _, h := range headings {
			if h.Offset > cur+headingMargin {
				rt.deps.Driver.SmoothTo(s, host.Vertical, h.Offset)
				return
			}
		}
		return
	}
	for i := len(headings) - 1; i >= 0; i-- {
		if headings[i].Offset < cur-headingMargin {
			rt.deps.Driver.SmoothTo(s, host.Vertical, headings[i].Offset)
			return
		}
	}
}

func (rt *Router) zoomed(factor float64) {
	rt.noticef("zoom %d%%", int(factor*100+0.5))
}

func (rt *Router) yankPath() {
	if s := rt.deps.Resolver.ActiveSurface(); s != nil {
		rt.yank(s.Path(), "path")
	}
}

func (rt *Router) yankTitle() {
	if doc := rt.deps.Resolver.ActiveDocument(); doc != nil {
		rt.yank(doc.Title(), "title")
	}
}

func (rt *Router) yank(text, what string) {
	if rt.deps.Clipboard == nil {
		return
	}
	if err := rt.deps.Clipboard.WriteString(text); err != nil {
		rt.noticef("could not copy %s", what)
		return
	}
	rt.noticef("%s copied", what)
}

func (rt *Router) notice(msg string) {
	if rt.deps.Notices != nil {
		rt.deps.Notices.Notice(msg)
	}
}

func (rt *Router) noticef(format string, args ...any) {
	if rt.deps.Notices != nil {
		rt.deps.Notices.Noticef(format, args...)
	}
}
