// Package refresh keeps the sidebar in step with the notebook server by
// polling its listing.
package refresh

import (
	"context"
	"log/slog"
	"time"

	"github.com/starford/nbshell/internal/sidebar"
)

// Refresher is the part of the workspace the poller drives.
type Refresher interface {
	Authenticated() bool
	RefreshSidebar(ctx context.Context) (sidebar.Change, error)
}

// Run polls r every interval until ctx is cancelled. A poll is skipped while
// the session is not authenticated. The first poll happens immediately.
func Run(ctx context.Context, r Refresher, interval time.Duration, logger *slog.Logger) error {
	if interval <= 0 {
		interval = 10 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	logger.Info("refresh: started", slog.Duration("interval", interval))

	poll := func() {
		if !r.Authenticated() {
			logger.Debug("refresh: skipped, not authenticated")
			return
		}
		ch, err := r.RefreshSidebar(ctx)
		if err != nil {
			if ctx.Err() == nil {
				logger.Warn("refresh: failed", slog.String("error", err.Error()))
			}
			return
		}
		if ch.TreeChanged {
			logger.Debug("refresh: sidebar changed", slog.Bool("landing_set", ch.LandingSet))
		}
	}

	poll()
	for {
		select {
		case <-ctx.Done():
			logger.Info("refresh: stopped")
			return nil
		case <-ticker.C:
			poll()
		}
	}
}
