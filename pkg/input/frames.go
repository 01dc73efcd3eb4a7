package input

import (
	"context"
	"time"
)

// DefaultFrameInterval approximates a 60 Hz display refresh.
const DefaultFrameInterval = time.Second / 60

// TickerFrames is a ports.FrameSource backed by a time.Ticker.
type TickerFrames struct {
	Interval time.Duration
}

// Frames ticks every Interval until ctx is done.
func (f TickerFrames) Frames(ctx context.Context) <-chan time.Time {
	interval := f.Interval
	if interval <= 0 {
		interval = DefaultFrameInterval
	}
	out := make(chan time.Time)
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				return
			case ts := <-ticker.C:
				select {
				case out <- ts:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out
}
