package ui

import (
	"context"
	"sync"

	"github.com/skobkin/trafficview/internal/render"
)

// startFrameLoop ticks the animator at rate frames per second and hands
// every frame to draw. The returned stop waits for the loop to exit.
func startFrameLoop(animator *render.Animator, rate int, draw func(render.Frame)) func() {
	if animator == nil || draw == nil {
		appLogger.Debug("skipping frame loop: animator is not configured")

		return func() {}
	}

	ctx, cancel := context.WithCancel(context.Background())
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		animator.Run(ctx, rate, draw)
	}()
	appLogger.Debug("frame loop started", "frame_rate", rate)

	return func() {
		cancel()
		wg.Wait()
	}
}
