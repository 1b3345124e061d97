package ui

import (
	"chessreview/src"
	"chessreview/src/logx"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

const watchDebounce = 200 * time.Millisecond

// watchGame reloads path into r after it is written, so a game that is still
// being played can be followed. Bursts of writes within debounce trigger one
// reload; a half-written file fails to parse and leaves the review as it is.
// The returned func stops watching.
func watchGame(ctx context.Context, path string, r *src.Review, logger logx.Logger, debounce time.Duration) (func(), error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("error create watcher: %w", err)
	}
	// editors often replace the file, so watch its directory
	if err := w.Add(filepath.Dir(path)); err != nil {
		w.Close()
		return nil, fmt.Errorf("error watch %s: %w", path, err)
	}
	name := filepath.Clean(path)

	wctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		defer close(done)
		timer := time.NewTimer(debounce)
		timer.Stop()
		defer timer.Stop()

		for {
			select {
			case <-wctx.Done():
				return
			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				if filepath.Clean(ev.Name) != name || ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
					continue
				}
				timer.Reset(debounce)
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				logger.Warnf("watch %s: %v", path, err)
			case <-timer.C:
				if err := reloadGame(ctx, path, r); err != nil {
					logger.Warnf("reload %s: %v", path, err)
					continue
				}
				logger.Infof("reloaded %s", path)
			}
		}
	}()

	return func() {
		cancel()
		w.Close()
		<-done
	}, nil
}

func reloadGame(ctx context.Context, path string, r *src.Review) error {
	file, err := os.Open(path)
	if err != nil {
		return err
	}
	defer file.Close()
	return r.LoadPGN(ctx, file)
}
