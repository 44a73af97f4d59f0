package daemon

import (
	"context"
	"time"
)

// Clock waits between cycles. Wait returns early with ctx.Err() when ctx is
// cancelled.
type Clock interface {
	Wait(ctx context.Context, d time.Duration) error
}

type timerClock struct{}

func (timerClock) Wait(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
