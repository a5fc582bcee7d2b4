package search

import (
	"regexp"
	"strings"
	"time"

	"github.com/dshills/keypilot/internal/host"
	"github.com/dshills/keypilot/internal/retry"
)

// Editor mount poll budget after a presentation switch.
const (
	mountAttempts = 10
	mountInterval = 50 * time.Millisecond
)

// capture is the active-match state taken before the presentation
// switch tears the rendered view down.
type capture struct {
	query   string
	ordinal int
	line    int
}

// markupTokens matches embed and link punctuation in raw content.
// Replacing each token with same-length blanks keeps byte offsets
// aligned between raw and rendered text.
var markupTokens = regexp.MustCompile(`!\[\[|\[\[|\]\]|\]\([^)\n]*\)|\[|\]`)

// Sanitize blanks embed and link markup in raw document text so that
// match offsets computed against it line up with the rendered
// presentation.
func Sanitize(raw string) string {
	return markupTokens.ReplaceAllStringFunc(raw, func(m string) string {
		return strings.Repeat(" ", len(m))
	})
}

// Locate returns the 0-based line and column of the ordinal-th
// (1-based) case-insensitive occurrence of query in content. ok is
// false when content holds fewer occurrences than the native search
// reported, which means the two disagree and the caller should fall
// back to the captured line.
func Locate(content, query string, ordinal int) (line, col int, ok bool) {
	if query == "" || ordinal < 1 {
		return 0, 0, false
	}
	re, err := regexp.Compile(`(?i)` + regexp.QuoteMeta(query))
	if err != nil {
		return 0, 0, false
	}
	locs := re.FindAllStringIndex(content, ordinal)
	if len(locs) < ordinal {
		return 0, 0, false
	}
	off := locs[ordinal-1][0]
	line = strings.Count(content[:off], "\n")
	col = off - (strings.LastIndex(content[:off], "\n") + 1)
	return line, col, true
}

// HandoffToEditable closes the overlay, switches the document to the
// editable presentation, and places the cursor on the match that was
// active. When no match is active, or the mapping fails, the switch
// still happens and the cursor stays where the host puts it.
func (o *Overlay) HandoffToEditable(doc host.DocumentView) {
	o.mu.Lock()
	ready := o.open && o.attached
	query := string(o.query)
	current := o.current
	o.mu.Unlock()

	var snap capture
	have := false
	if ready && current > 0 && query != "" {
		if line, ok := doc.ActiveMatchLine(); ok {
			snap = capture{query: query, ordinal: current, line: line}
			have = true
		}
	}

	o.Stop()

	if err := doc.SetMode(host.ViewEditable); err != nil {
		o.notices.Notice("could not switch to editing")
		return
	}
	if !have {
		return
	}

	// The editor mounts asynchronously; place the cursor once it is
	// up.
	retry.Go(mountAttempts, mountInterval, func() bool {
		if doc.Mode() != host.ViewEditable {
			return false
		}
		o.placeCursor(doc, snap)
		return true
	})
}

// placeCursor maps the captured match into raw-content coordinates.
// Any panic in the mapping is contained; the handoff then degrades to
// the bare presentation toggle.
func (o *Overlay) placeCursor(doc host.DocumentView, snap capture) {
	defer func() {
		if r := recover(); r != nil {
			if o.log != nil {
				o.log.Warn("search handoff: cursor mapping panic: %v", r)
			}
		}
	}()

	content := Sanitize(doc.RawContent())
	if line, col, ok := Locate(content, snap.query, snap.ordinal); ok {
		doc.PlaceCursor(line, col)
		return
	}
	doc.PlaceCursor(snap.line, 0)
}
