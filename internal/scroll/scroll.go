// Package scroll applies eased, interruption-resistant scrolling and
// zoom to a target surface.
//
// Smooth transitions run a bounded correction loop because the host
// may interrupt its own smooth scroll on minor layout events. Held-key
// momentum accelerates along a configurable velocity curve and stops
// within one tick of key-up.
package scroll

import (
	"math"
	"sync"
	"time"

	"github.com/dshills/keypilot/internal/host"
	"github.com/dshills/keypilot/internal/retry"
)

// Zoom factor bounds.
const (
	ZoomMin  = 0.3
	ZoomMax  = 5.0
	zoomStep = 1.1
)

// Config tunes the driver. Values map one-to-one onto the persisted
// settings record.
type Config struct {
	// Speed is the base scroll speed in px/s.
	Speed float64

	// RepeatInterval is the momentum tick interval.
	RepeatInterval time.Duration

	// StartMultiplier and EndMultiplier bound the velocity curve.
	StartMultiplier float64
	EndMultiplier   float64

	// Duration is the ramp time from start to end velocity.
	Duration time.Duration

	// CurveExponent shapes the ramp.
	CurveExponent float64

	// CorrectionAttempts bounds the smooth-scroll correction loop.
	CorrectionAttempts int

	// CorrectionInterval is the correction poll interval.
	CorrectionInterval time.Duration
}

// DefaultConfig returns the documented defaults.
func DefaultConfig() Config {
	return Config{
		Speed:              300,
		RepeatInterval:     15 * time.Millisecond,
		StartMultiplier:    0.5,
		EndMultiplier:      3.0,
		Duration:           time.Second,
		CurveExponent:      2.0,
		CorrectionAttempts: 8,
		CorrectionInterval: 50 * time.Millisecond,
	}
}

// correction loop thresholds, in pixels.
const (
	stallThreshold = 4.0
	tolerance      = 5.0
)

// momentum is the held-key state. It exists only while a scroll key is
// physically down.
type momentum struct {
	key      rune
	surface  host.Surface
	axis     host.Axis
	dir      float64
	start    time.Time
	interval time.Duration
	ticker   *time.Ticker
	stop     chan struct{}
}

// Driver performs smooth scrolls and held-key momentum against host
// surfaces.
type Driver struct {
	mu  sync.Mutex
	cfg Config

	held *momentum

	correction *retry.Task

	zoom      float64
	applyZoom func(factor float64)
}

// NewDriver creates a driver. applyZoom, when non-nil, receives the
// clamped zoom factor on every zoom command.
func NewDriver(cfg Config, applyZoom func(factor float64)) *Driver {
	return &Driver{cfg: cfg, zoom: 1.0, applyZoom: applyZoom}
}

// SetConfig replaces the tuning values.
func (d *Driver) SetConfig(cfg Config) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.cfg = cfg
}

// Velocity evaluates the momentum curve at elapsed time t, in px/s:
// speed * (start + (end-start) * min(1, t/duration)^curve).
func (d *Driver) Velocity(t time.Duration) float64 {
	d.mu.Lock()
	cfg := d.cfg
	d.mu.Unlock()

	frac := 1.0
	if cfg.Duration > 0 && t < cfg.Duration {
		frac = math.Pow(float64(t)/float64(cfg.Duration), cfg.CurveExponent)
	}
	return cfg.Speed * (cfg.StartMultiplier + (cfg.EndMultiplier-cfg.StartMultiplier)*frac)
}

// SmoothTo scrolls the surface to an absolute pixel target and runs
// the correction loop until the position settles within tolerance or
// the attempt budget runs out.
func (d *Driver) SmoothTo(s host.Surface, axis host.Axis, target float64) {
	target = clampOffset(s, axis, target)
	s.SetOffset(axis, target)

	d.mu.Lock()
	if d.correction != nil {
		d.correction.Cancel()
	}
	cfg := d.cfg
	last := s.Offset(axis)
	d.correction = retry.Go(cfg.CorrectionAttempts, cfg.CorrectionInterval, func() bool {
		if !s.Live() {
			return true
		}
		pos := s.Offset(axis)
		if math.Abs(pos-target) <= tolerance {
			return true
		}
		// Stalled short of the target: re-issue.
		if math.Abs(pos-last) < stallThreshold {
			s.SetOffset(axis, target)
		}
		last = pos
		return false
	})
	d.mu.Unlock()
}

// SmoothToFraction scrolls to a fractional position along the axis.
func (d *Driver) SmoothToFraction(s host.Surface, axis host.Axis, fraction float64) {
	d.SmoothTo(s, axis, fraction*scrollRange(s, axis))
}

// By scrolls relative to the current offset without a correction loop.
func (d *Driver) By(s host.Surface, axis host.Axis, delta float64) {
	s.SetOffset(axis, clampOffset(s, axis, s.Offset(axis)+delta))
}

// HoldKey starts (or continues) momentum scrolling for a held key.
// dir is +1 toward the end of the axis, -1 toward the start. Calling
// again with the same key while held is a no-op; a different key
// replaces the active momentum.
func (d *Driver) HoldKey(r rune, s host.Surface, axis host.Axis, dir float64) {
	d.mu.Lock()
	if d.held != nil {
		if d.held.key == r {
			d.mu.Unlock()
			return
		}
		d.stopHeldLocked()
	}

	m := &momentum{
		key:      r,
		surface:  s,
		axis:     axis,
		dir:      dir,
		start:    time.Now(),
		interval: d.cfg.RepeatInterval,
		ticker:   time.NewTicker(d.cfg.RepeatInterval),
		stop:     make(chan struct{}),
	}
	d.held = m
	d.mu.Unlock()

	go d.runMomentum(m)
}

// ReleaseKey stops momentum for the given key. Other keys are
// unaffected.
func (d *Driver) ReleaseKey(r rune) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.held != nil && d.held.key == r {
		d.stopHeldLocked()
	}
}

// StopMomentum stops any held-key scrolling.
func (d *Driver) StopMomentum() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stopHeldLocked()
}

// HeldKey returns the active momentum key, or 0.
func (d *Driver) HeldKey() rune {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.held == nil {
		return 0
	}
	return d.held.key
}

// Stop cancels momentum and any pending correction loop. Idempotent.
func (d *Driver) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stopHeldLocked()
	if d.correction != nil {
		d.correction.Cancel()
		d.correction = nil
	}
}

func (d *Driver) stopHeldLocked() {
	if d.held == nil {
		return
	}
	d.held.ticker.Stop()
	close(d.held.stop)
	d.held = nil
}

// runMomentum applies the velocity curve every tick until release or
// loss of a valid target.
func (d *Driver) runMomentum(m *momentum) {
	// The interval was captured under the lock in HoldKey; the config
	// may be swapped by a settings reload while this goroutine runs.
	interval := m.interval
	for {
		select {
		case <-m.stop:
			return
		case <-m.ticker.C:
			if !m.surface.Live() {
				d.mu.Lock()
				if d.held == m {
					d.stopHeldLocked()
				}
				d.mu.Unlock()
				return
			}
			v := d.Velocity(time.Since(m.start))
			delta := v * interval.Seconds() * m.dir
			m.surface.SetOffset(m.axis, clampOffset(m.surface, m.axis, m.surface.Offset(m.axis)+delta))
		}
	}
}

// ZoomIn, ZoomOut, and ZoomReset adjust the zoom factor within
// [ZoomMin, ZoomMax] and apply it through the host callback.
func (d *Driver) ZoomIn() float64  { return d.setZoom(d.Zoom() * zoomStep) }
func (d *Driver) ZoomOut() float64 { return d.setZoom(d.Zoom() / zoomStep) }
func (d *Driver) ZoomReset() float64 { return d.setZoom(1.0) }

// Zoom returns the current zoom factor.
func (d *Driver) Zoom() float64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.zoom
}

func (d *Driver) setZoom(f float64) float64 {
	f = math.Min(ZoomMax, math.Max(ZoomMin, f))
	d.mu.Lock()
	d.zoom = f
	apply := d.applyZoom
	d.mu.Unlock()
	if apply != nil {
		apply(f)
	}
	return f
}

// Fraction computes the surface's scroll fraction along an axis,
// clamped to 0 when the content does not scroll.
func Fraction(s host.Surface, axis host.Axis) float64 {
	r := scrollRange(s, axis)
	if r <= 0 {
		return 0
	}
	f := s.Offset(axis) / r
	return math.Min(1, math.Max(0, f))
}

func scrollRange(s host.Surface, axis host.Axis) float64 {
	return s.Extent(axis) - s.Viewport(axis)
}

func clampOffset(s host.Surface, axis host.Axis, px float64) float64 {
	r := scrollRange(s, axis)
	if r < 0 {
		r = 0
	}
	return math.Min(r, math.Max(0, px))
}
