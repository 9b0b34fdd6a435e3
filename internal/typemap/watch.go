package typemap

import (
	"context"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

const reloadDebounce = 100 * time.Millisecond

// Watch reloads m whenever the file at path changes, until ctx is
// cancelled. The parent directory is watched so that editors replacing the
// file by rename are picked up. onReload, if non-nil, runs after each
// successful reload.
func Watch(ctx context.Context, m *Map, path string, logger *slog.Logger, onReload func()) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	if err := w.Add(filepath.Dir(abs)); err != nil {
		return err
	}
	logger.Info("typemap watcher: started", slog.String("path", abs))

	var timer *time.Timer
	var timerCh <-chan time.Time
	schedule := func() {
		if timer == nil {
			timer = time.NewTimer(reloadDebounce)
			timerCh = timer.C
		} else {
			timer.Reset(reloadDebounce)
		}
	}

	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			logger.Info("typemap watcher: stopped")
			return nil

		case <-timerCh:
			if err := m.Reload(abs); err != nil {
				logger.Warn("typemap watcher: reload failed", slog.String("error", err.Error()))
				continue
			}
			logger.Debug("typemap watcher: reloaded", slog.String("path", abs))
			if onReload != nil {
				onReload()
			}

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != abs {
				continue
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) != 0 {
				schedule()
			}

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Error("typemap watcher: error", slog.String("error", watchErr.Error()))
		}
	}
}
