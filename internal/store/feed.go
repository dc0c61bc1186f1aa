package store

import (
	"context"
	"log/slog"

	"github.com/roach88/fieldmap/internal/point"
)

// Changes signals that the stored list may have changed.
// *relay.Subscription[struct{}] satisfies it.
type Changes interface {
	C() <-chan struct{}
	Close()
}

// Feed runs the Updates loop shared by the backends: it sends load's result
// once, then again for every change signal. It stops when ctx is cancelled,
// when changes completes, or after forwarding a load error as the terminal
// Update. changes is closed when the loop exits.
func Feed(ctx context.Context, load func(context.Context) ([]point.MapPoint, error), changes Changes, logger *slog.Logger) <-chan Update {
	if logger == nil {
		logger = slog.Default()
	}
	out := make(chan Update)

	go func() {
		defer close(out)
		defer changes.Close()

		send := func() bool {
			points, err := load(ctx)
			if ctx.Err() != nil {
				return false
			}
			u := Update{Points: points}
			if err != nil {
				logger.Error("point update failed", "error", err)
				u = Update{Err: err}
			}
			select {
			case out <- u:
			case <-ctx.Done():
				return false
			}
			return err == nil
		}

		if !send() {
			return
		}
		for {
			select {
			case <-ctx.Done():
				return
			case _, ok := <-changes.C():
				if !ok {
					return
				}
				if !send() {
					return
				}
			}
		}
	}()

	return out
}
