package ingest

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/joseph-ayodele/deal-analyzer/internal/async"
)

type WatchConfig struct {
	Roots       []string // directories to watch (recursive)
	AllowedExts map[string]struct{}
	InitialScan bool          // if true, walk roots and emit existing files
	Debounce    time.Duration // coalesce rapid update/rename bursts
	Logger      *slog.Logger
}

// StartWatcher watches cfg.Roots and emits the paths of new or changed documents.
// Both channels are closed when ctx is done.
func StartWatcher(ctx context.Context, cfg WatchConfig) (<-chan string, <-chan error, error) {
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}
	if len(cfg.Roots) == 0 {
		log.Error("watcher start failed: no roots provided")
		return nil, nil, errors.New("no roots provided")
	}
	evCh := make(chan string, 256)
	errCh := make(chan error, 1)

	w, err := fsnotify.NewWatcher()
	if err != nil {
		log.Error("failed to create fsnotify watcher", "error", err)
		return nil, nil, err
	}

	var initial []string
	addDir := func(root string) error {
		return filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
			if walkErr != nil {
				return walkErr
			}
			if d.IsDir() {
				if path != root && IsHidden(path) {
					return filepath.SkipDir
				}
				return w.Add(path)
			}
			if cfg.InitialScan && wanted(path, cfg.AllowedExts) {
				initial = append(initial, path)
			}
			return nil
		})
	}
	for _, r := range cfg.Roots {
		if err := addDir(r); err != nil {
			log.Error("failed to add root directory", "root", r, "error", err)
			_ = w.Close()
			return nil, nil, err
		}
	}
	log.Info("watcher started", "roots", cfg.Roots, "initial", len(initial), "debounce", cfg.Debounce.String())

	go func() {
		defer close(evCh)
		defer close(errCh)
		defer func() {
			if err := w.Close(); err != nil {
				log.Warn("watcher close failed", "error", err)
			}
		}()

		emit := func(p string) bool {
			select {
			case evCh <- p:
				return true
			case <-ctx.Done():
				return false
			}
		}
		for _, p := range initial {
			if !emit(p) {
				return
			}
		}

		pending := map[string]struct{}{}
		var (
			timer  *time.Timer
			timerC <-chan time.Time
		)
		flush := func() bool {
			for p := range pending {
				delete(pending, p)
				if !emit(p) {
					return false
				}
			}
			return true
		}

		for {
			select {
			case <-ctx.Done():
				if timer != nil {
					timer.Stop()
				}
				return
			case e, ok := <-w.Events:
				if !ok {
					return
				}
				if e.Op&fsnotify.Create == fsnotify.Create {
					if st, err := os.Stat(e.Name); err == nil && st.IsDir() && !IsHidden(e.Name) {
						if err := w.Add(e.Name); err != nil {
							log.Warn("failed to add new directory to watcher", "path", e.Name, "error", err)
						}
					}
				}
				if !wanted(e.Name, cfg.AllowedExts) || e.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) == 0 {
					continue
				}
				pending[e.Name] = struct{}{}
				if cfg.Debounce <= 0 {
					if !flush() {
						return
					}
					continue
				}
				if timer == nil {
					timer = time.NewTimer(cfg.Debounce)
				} else {
					if !timer.Stop() {
						select {
						case <-timer.C:
						default:
						}
					}
					timer.Reset(cfg.Debounce)
				}
				timerC = timer.C
			case <-timerC:
				timerC = nil
				if !flush() {
					return
				}
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				log.Error("watcher error", "error", err)
				select {
				case errCh <- err:
				default:
				}
			}
		}
	}()

	return evCh, errCh, nil
}

func wanted(path string, exts map[string]struct{}) bool {
	return !IsHidden(path) && !isTransient(path) && allowedIn(filepath.Ext(path), exts)
}

// Watch feeds every document event from the watcher into q until ctx is done.
func Watch(ctx context.Context, cfg WatchConfig, q async.Queue, goal string) error {
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}
	events, errs, err := StartWatcher(ctx, cfg)
	if err != nil {
		return err
	}
	for {
		select {
		case <-ctx.Done():
			return nil
		case p, ok := <-events:
			if !ok {
				return nil
			}
			if _, err := os.Stat(p); err != nil {
				// renamed away or deleted before the debounce fired
				log.Debug("ingest.watch.vanished", "path", p)
				continue
			}
			if err := q.Enqueue(ctx, async.Job{Path: p, Goal: goal}); err != nil {
				if errors.Is(err, async.ErrQueueClosed) || errors.Is(err, context.Canceled) {
					return nil
				}
				log.Error("ingest.watch.enqueue_failed", "path", p, "error", err)
			}
		case err, ok := <-errs:
			if ok && err != nil {
				log.Warn("ingest.watch.error", "error", err)
			}
		}
	}
}
