package render

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/skobkin/trafficview/internal/domain"
)

// DefaultFrameRate matches the refresh rate the blink timing was tuned for;
// at 60 fps one blink cycle lasts half a second.
const DefaultFrameRate = 60

// Frame is one rendered tick.
type Frame struct {
	Number   uint64
	State    domain.DeviceState
	HasState bool
	Visual   VisualState
}

// Animator holds the latest published state and the frame counter. The
// session writes through Publish, renderers read through Tick or Peek; the
// two sides never block each other.
type Animator struct {
	latest atomic.Pointer[domain.DeviceState]
	frame  atomic.Uint64
}

func NewAnimator() *Animator {
	return &Animator{}
}

// Publish replaces the latest state. Intermediate states that arrive between
// two ticks are never rendered.
func (a *Animator) Publish(state domain.DeviceState) {
	a.latest.Store(&state)
}

func (a *Animator) Latest() (domain.DeviceState, bool) {
	state := a.latest.Load()
	if state == nil {
		return domain.DeviceState{}, false
	}

	return *state, true
}

// Tick renders the current frame and advances the counter.
func (a *Animator) Tick() Frame {
	return a.frameAt(a.frame.Add(1) - 1)
}

// Peek renders the current frame without advancing.
func (a *Animator) Peek() Frame {
	return a.frameAt(a.frame.Load())
}

func (a *Animator) frameAt(n uint64) Frame {
	state, ok := a.Latest()

	return Frame{
		Number:   n,
		State:    state,
		HasState: ok,
		Visual:   Render(state, n),
	}
}

// Run calls draw with a fresh frame at the given rate until ctx is done.
func (a *Animator) Run(ctx context.Context, rate int, draw func(Frame)) {
	if rate <= 0 {
		rate = DefaultFrameRate
	}
	ticker := time.NewTicker(time.Second / time.Duration(rate))
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			draw(a.Tick())
		}
	}
}
