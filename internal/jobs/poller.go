package jobs

import (
	"context"
	"log/slog"
	"time"

	"diamondhost/admin-console/internal/listing"
	"diamondhost/admin-console/internal/metrics"
	"diamondhost/admin-console/internal/model"
	"diamondhost/admin-console/internal/notify"
)

// Broadcaster fans events out to connected admin clients.
type Broadcaster interface {
	Broadcast(event notify.Event, roles ...model.Role)
}

// Poller reloads one collection on an interval and announces items that
// were not there on the previous load. The first load only primes the
// tracker.
type Poller[T any] struct {
	Resource string
	Event    string
	Interval time.Duration
	Timeout  time.Duration
	Load     listing.Fetcher[T]
	Tracker  *listing.Tracker[T]
	Events   Broadcaster
	Metrics  *metrics.Metrics
	Log      *slog.Logger
}

// Tick runs a single load and returns the items announced.
func (p *Poller[T]) Tick(ctx context.Context) ([]T, error) {
	timeout := p.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	tickCtx, cancel := context.WithTimeout(ctx, timeout)
	items, err := p.Load(tickCtx)
	cancel()
	if err != nil {
		return nil, err
	}

	fresh := p.Tracker.Observe(items)
	if len(fresh) == 0 {
		return nil, nil
	}
	p.Metrics.NewItems(p.Resource, len(fresh))
	if p.Events != nil {
		p.Events.Broadcast(notify.Event{
			Type:      p.Event,
			Items:     fresh,
			Timestamp: time.Now().UTC(),
		}, model.RoleAdmin, model.RoleSuperAdmin)
	}
	return fresh, nil
}

// Start primes the tracker immediately, then polls until ctx is cancelled.
func (p *Poller[T]) Start(ctx context.Context) {
	log := p.Log
	if log == nil {
		log = slog.Default()
	}
	interval := p.Interval
	if interval <= 0 {
		interval = 10 * time.Second
	}

	go func() {
		if _, err := p.Tick(ctx); err != nil {
			log.Warn("poller error", "resource", p.Resource, "err", err)
		}
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				fresh, err := p.Tick(ctx)
				if err != nil {
					log.Warn("poller error", "resource", p.Resource, "err", err)
					continue
				}
				if len(fresh) > 0 {
					log.Info("new items detected", "resource", p.Resource, "count", len(fresh))
				}
			}
		}
	}()
}

// NewEstatePoller watches the pending-estates collection.
func NewEstatePoller(load listing.Fetcher[model.Estate], interval time.Duration, events Broadcaster, m *metrics.Metrics, log *slog.Logger) *Poller[model.Estate] {
	return &Poller[model.Estate]{
		Resource: "estates",
		Event:    notify.EventNewEstates,
		Interval: interval,
		Load:     load,
		Tracker:  listing.NewTracker(func(e model.Estate) string { return e.ID }),
		Events:   events,
		Metrics:  m,
		Log:      log,
	}
}

// NewPostPoller watches the posts collection.
func NewPostPoller(load listing.Fetcher[model.Post], interval time.Duration, events Broadcaster, m *metrics.Metrics, log *slog.Logger) *Poller[model.Post] {
	return &Poller[model.Post]{
		Resource: "posts",
		Event:    notify.EventNewPosts,
		Interval: interval,
		Load:     load,
		Tracker:  listing.NewTracker(func(p model.Post) string { return p.ID }),
		Events:   events,
		Metrics:  m,
		Log:      log,
	}
}
