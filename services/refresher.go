package services

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/robfig/cron"

	"airfare-insights/utils"
)

// Refresher keeps the latest successful run and re-runs the pipeline on a
// schedule or when the fare input file changes. Refreshes never overlap.
type Refresher struct {
	pipeline *Pipeline
	logger   *utils.Logger

	mu     sync.RWMutex
	latest *Run

	runMu   sync.Mutex
	cron    *cron.Cron
	watcher *fsnotify.Watcher
	lastMod time.Time
}

func NewRefresher(pipeline *Pipeline, logger *utils.Logger) *Refresher {
	return &Refresher{pipeline: pipeline, logger: logger}
}

func (r *Refresher) Pipeline() *Pipeline {
	return r.pipeline
}

// Latest returns the most recent successful run, or nil.
func (r *Refresher) Latest() *Run {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.latest
}

// Set replaces the latest run.
func (r *Refresher) Set(run *Run) {
	if run == nil {
		return
	}
	r.mu.Lock()
	r.latest = run
	r.mu.Unlock()
}

// Refresh runs the pipeline with configured defaults.
func (r *Refresher) Refresh(ctx context.Context) (*Run, error) {
	return r.RefreshWith(ctx, RunRequest{})
}

// RefreshWith runs the pipeline and publishes the run when it succeeds.
// A failed run keeps the previous report.
func (r *Refresher) RefreshWith(ctx context.Context, req RunRequest) (*Run, error) {
	r.runMu.Lock()
	defer r.runMu.Unlock()

	run, err := r.pipeline.Run(ctx, req)
	if err != nil {
		return nil, err
	}
	r.Set(run)
	return run, nil
}

// Start schedules refreshes using a cron spec such as "@every 1h".
func (r *Refresher) Start(schedule string) error {
	c := cron.New()
	err := c.AddFunc(schedule, func() {
		r.logger.Info("Scheduled refresh (%s)", schedule)
		if _, err := r.Refresh(context.Background()); err != nil {
			r.logger.Error("Scheduled refresh failed: %v", err)
		}
	})
	if err != nil {
		return fmt.Errorf("invalid refresh schedule %q: %w", schedule, err)
	}
	c.Start()
	r.cron = c
	return nil
}

// Watch refreshes whenever path is written. The watcher is registered before
// Watch returns; events are handled until ctx is done or Stop is called.
func (r *Refresher) Watch(ctx context.Context, path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		watcher.Close()
		return err
	}
	if info, err := os.Stat(abs); err == nil {
		r.lastMod = info.ModTime()
	}
	r.watcher = watcher

	go r.watchLoop(ctx, watcher, abs)
	return nil
}

func (r *Refresher) watchLoop(ctx context.Context, watcher *fsnotify.Watcher, path string) {
	for {
		select {
		case <-ctx.Done():
			watcher.Close()
			return
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != path {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			info, err := os.Stat(path)
			if err != nil {
				continue
			}
			if !info.ModTime().After(r.lastMod) {
				continue
			}
			r.lastMod = info.ModTime()
			r.logger.Info("Input %s changed, refreshing", filepath.Base(path))
			if _, err := r.Refresh(ctx); err != nil {
				r.logger.Error("Refresh after file change failed: %v", err)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			r.logger.Error("File watcher error: %v", err)
		}
	}
}

// Stop halts the schedule and the file watcher.
func (r *Refresher) Stop() {
	if r.cron != nil {
		r.cron.Stop()
	}
	if r.watcher != nil {
		r.watcher.Close()
	}
}
