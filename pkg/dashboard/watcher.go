package dashboard

import (
	"context"
	"time"

	"secdash/pkg/log"
)

// DefaultInterval matches the web dashboard's refresh period.
const DefaultInterval = 30 * time.Second

// Watcher refreshes and renders the view on a fixed interval.
type Watcher struct {
	source   Source
	renderer *Renderer
	interval time.Duration
	now      func() time.Time
}

// NewWatcher creates a Watcher. A non-positive interval selects DefaultInterval.
func NewWatcher(source Source, renderer *Renderer, interval time.Duration) *Watcher {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Watcher{
		source:   source,
		renderer: renderer,
		interval: interval,
		now:      time.Now,
	}
}

// Run renders immediately and then on every tick until ctx is done.
func (w *Watcher) Run(ctx context.Context) error {
	log.Debug().Dur("interval", w.interval).Msg("Dashboard watcher started")

	w.refresh(ctx)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Debug().Msg("Dashboard watcher stopped")
			return nil
		case <-ticker.C:
			w.refresh(ctx)
		}
	}
}

func (w *Watcher) refresh(ctx context.Context) {
	view := Fetch(ctx, w.source, w.now())
	if ctx.Err() != nil {
		return
	}

	if view.SecurityErr != nil {
		log.Debug().Err(view.SecurityErr).Msg("Security metrics fetch failed")
	}
	if view.SystemErr != nil {
		log.Debug().Err(view.SystemErr).Msg("System metrics fetch failed")
	}

	w.renderer.Render(view, view.FetchedAt.Add(w.interval))
}
