package scroll

import (
	"math"
	"sync"
	"testing"
	"time"

	"github.com/dshills/keypilot/internal/host"
)

// fakeSurface is a minimal in-memory scrollable surface.
type fakeSurface struct {
	mu       sync.Mutex
	id       string
	path     string
	offset   map[host.Axis]float64
	extent   float64
	viewport float64
	live     bool
}

func newFakeSurface(extent, viewport float64) *fakeSurface {
	return &fakeSurface{
		id:       "s1",
		path:     "notes/today.md",
		offset:   make(map[host.Axis]float64),
		extent:   extent,
		viewport: viewport,
		live:     true,
	}
}

func (f *fakeSurface) ID() string   { return f.id }
func (f *fakeSurface) Path() string { return f.path }
func (f *fakeSurface) Offset(a host.Axis) float64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.offset[a]
}
func (f *fakeSurface) Extent(host.Axis) float64   { return f.extent }
func (f *fakeSurface) Viewport(host.Axis) float64 { return f.viewport }
func (f *fakeSurface) SetOffset(a host.Axis, px float64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.offset[a] = px
}
func (f *fakeSurface) Live() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.live
}
func (f *fakeSurface) setLive(v bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.live = v
}

func TestVelocityEndpoints(t *testing.T) {
	cfg := DefaultConfig()
	d := NewDriver(cfg, nil)

	start := cfg.Speed * cfg.StartMultiplier
	if got := d.Velocity(0); math.Abs(got-start) > 1e-9 {
		t.Errorf("Velocity(0) = %v, want %v", got, start)
	}

	end := cfg.Speed * cfg.EndMultiplier
	if got := d.Velocity(cfg.Duration); math.Abs(got-end) > 1e-9 {
		t.Errorf("Velocity(duration) = %v, want %v", got, end)
	}
	if got := d.Velocity(cfg.Duration * 3); math.Abs(got-end) > 1e-9 {
		t.Errorf("Velocity(3*duration) = %v, want %v", got, end)
	}
}

func TestVelocityMonotonic(t *testing.T) {
	d := NewDriver(DefaultConfig(), nil)
	prev := d.Velocity(0)
	for ms := 100; ms <= 1000; ms += 100 {
		v := d.Velocity(time.Duration(ms) * time.Millisecond)
		if v < prev {
			t.Fatalf("velocity decreased at %dms: %v < %v", ms, v, prev)
		}
		prev = v
	}
}

func TestSmoothToClampsTarget(t *testing.T) {
	s := newFakeSurface(1000, 100)
	d := NewDriver(DefaultConfig(), nil)
	d.SmoothTo(s, host.Vertical, 5000)
	if got := s.Offset(host.Vertical); got != 900 {
		t.Errorf("offset = %v, want clamped 900", got)
	}
	d.SmoothTo(s, host.Vertical, -50)
	if got := s.Offset(host.Vertical); got != 0 {
		t.Errorf("offset = %v, want 0", got)
	}
	d.Stop()
}

func TestSmoothToFraction(t *testing.T) {
	s := newFakeSurface(1100, 100)
	d := NewDriver(DefaultConfig(), nil)
	d.SmoothToFraction(s, host.Vertical, 0.42)
	if got := s.Offset(host.Vertical); math.Abs(got-420) > tolerance {
		t.Errorf("offset = %v, want within %vpx of 420", got, tolerance)
	}
	d.Stop()
}

func TestCorrectionReissuesAfterInterruption(t *testing.T) {
	s := newFakeSurface(1000, 100)
	cfg := DefaultConfig()
	cfg.CorrectionAttempts = 6
	cfg.CorrectionInterval = 5 * time.Millisecond
	d := NewDriver(cfg, nil)

	d.SmoothTo(s, host.Vertical, 500)
	// Host interrupts the smooth scroll partway.
	s.SetOffset(host.Vertical, 120)

	deadline := time.After(500 * time.Millisecond)
	for {
		if math.Abs(s.Offset(host.Vertical)-500) <= tolerance {
			break
		}
		select {
		case <-deadline:
			t.Fatalf("correction loop never restored target, offset = %v", s.Offset(host.Vertical))
		case <-time.After(5 * time.Millisecond):
		}
	}
	d.Stop()
}

func TestMomentumScrollsAndStopsOnRelease(t *testing.T) {
	s := newFakeSurface(100000, 100)
	cfg := DefaultConfig()
	cfg.RepeatInterval = 5 * time.Millisecond
	d := NewDriver(cfg, nil)

	d.HoldKey('j', s, host.Vertical, 1)
	time.Sleep(60 * time.Millisecond)
	d.ReleaseKey('j')

	// Allow the tick in flight to land.
	time.Sleep(2 * cfg.RepeatInterval)
	after := s.Offset(host.Vertical)
	if after == 0 {
		t.Fatal("momentum never moved the surface")
	}

	time.Sleep(5 * cfg.RepeatInterval)
	if got := s.Offset(host.Vertical); got != after {
		t.Errorf("surface moved after release: %v -> %v", after, got)
	}
}

func TestMomentumSurvivesConfigSwap(t *testing.T) {
	s := newFakeSurface(100000, 100)
	cfg := DefaultConfig()
	cfg.RepeatInterval = 5 * time.Millisecond
	d := NewDriver(cfg, nil)
	defer d.Stop()

	// A live settings reload swaps the config while momentum runs.
	d.HoldKey('j', s, host.Vertical, 1)
	for i := 0; i < 20; i++ {
		d.SetConfig(DefaultConfig())
		time.Sleep(2 * time.Millisecond)
	}
	d.ReleaseKey('j')

	if s.Offset(host.Vertical) == 0 {
		t.Fatal("momentum never moved the surface")
	}
}

func TestMomentumSameKeyIsNoop(t *testing.T) {
	s := newFakeSurface(100000, 100)
	cfg := DefaultConfig()
	cfg.RepeatInterval = 5 * time.Millisecond
	d := NewDriver(cfg, nil)
	defer d.Stop()

	d.HoldKey('j', s, host.Vertical, 1)
	first := d.HeldKey()
	d.HoldKey('j', s, host.Vertical, 1)
	if d.HeldKey() != first || first != 'j' {
		t.Errorf("held key = %q, want 'j'", d.HeldKey())
	}
}

func TestMomentumStopsOnDeadSurface(t *testing.T) {
	s := newFakeSurface(100000, 100)
	cfg := DefaultConfig()
	cfg.RepeatInterval = 5 * time.Millisecond
	d := NewDriver(cfg, nil)

	d.HoldKey('j', s, host.Vertical, 1)
	time.Sleep(20 * time.Millisecond)
	s.setLive(false)
	time.Sleep(20 * time.Millisecond)

	if d.HeldKey() != 0 {
		t.Error("momentum should stop when the surface dies")
	}
}

func TestZoomClamping(t *testing.T) {
	var applied []float64
	d := NewDriver(DefaultConfig(), func(f float64) { applied = append(applied, f) })

	for i := 0; i < 40; i++ {
		d.ZoomIn()
	}
	if got := d.Zoom(); got != ZoomMax {
		t.Errorf("zoom = %v, want clamped %v", got, ZoomMax)
	}

	for i := 0; i < 80; i++ {
		d.ZoomOut()
	}
	if got := d.Zoom(); got != ZoomMin {
		t.Errorf("zoom = %v, want clamped %v", got, ZoomMin)
	}

	if got := d.ZoomReset(); got != 1.0 {
		t.Errorf("reset zoom = %v, want 1.0", got)
	}
	if len(applied) == 0 {
		t.Error("applyZoom callback never invoked")
	}
}

func TestFraction(t *testing.T) {
	s := newFakeSurface(1100, 100)
	s.SetOffset(host.Vertical, 420)
	if got := Fraction(s, host.Vertical); math.Abs(got-0.42) > 1e-9 {
		t.Errorf("Fraction = %v, want 0.42", got)
	}

	flat := newFakeSurface(80, 100) // shorter than viewport
	if got := Fraction(flat, host.Vertical); got != 0 {
		t.Errorf("non-scrollable fraction = %v, want 0", got)
	}
}
