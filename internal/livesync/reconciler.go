// Package livesync keeps client-side copies of room data fresh. Push notifications
// trigger re-fetches of the affected sources; a poll timer covers the gaps while the
// push channel is down.
package livesync

import (
	"context"
	"slices"
	"sync"
	"time"

	"odai-party/internal/api"

	"github.com/rs/zerolog/log"
)

const DefaultInterval = 5 * time.Second

type Health string

const (
	HealthDegraded  Health = "degraded"
	HealthConnected Health = "connected"
)

// Subscription is an open push channel for one room.
type Subscription interface {
	// Changes is closed when the channel drops.
	Changes() <-chan api.Notification
	Close() error
}

// SubscribeFunc opens a subscription. It returns only once the server has
// acknowledged it.
type SubscribeFunc func(ctx context.Context) (Subscription, error)

// FetchFunc reloads one source. It receives the reconciler's context and must not
// apply results once that context is done.
type FetchFunc func(ctx context.Context) error

type Options struct {
	Interval  time.Duration
	Subscribe SubscribeFunc
	OnHealth  func(Health)
	OnError   func(source string, err error)
}

type source struct {
	name   string
	tables []string
	fetch  FetchFunc
}

// Reconciler runs a single event loop over the bound sources. It starts degraded.
type Reconciler struct {
	opts    Options
	mu      sync.Mutex
	sources []source
	health  Health
}

func New(opts Options) *Reconciler {
	if opts.Interval <= 0 {
		opts.Interval = DefaultInterval
	}
	return &Reconciler{opts: opts, health: HealthDegraded}
}

// Bind registers fetch under name, re-run on notifications for any of tables.
// Bind before Run.
func (r *Reconciler) Bind(name string, fetch FetchFunc, tables ...string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sources = append(r.sources, source{name: name, tables: tables, fetch: fetch})
}

func (r *Reconciler) Health() Health {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.health
}

// Run fetches every source, then reconciles until ctx is done. Cancelling ctx is
// the disposal signal: the subscription is closed and the timer stopped.
func (r *Reconciler) Run(ctx context.Context) error {
	r.refresh(ctx, nil)

	ticker := time.NewTicker(r.opts.Interval)
	defer ticker.Stop()

	sub := r.subscribe(ctx, ticker)
	defer func() {
		if sub != nil {
			_ = sub.Close()
		}
	}()

	for {
		var changes <-chan api.Notification
		if sub != nil {
			changes = sub.Changes()
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if sub != nil {
				continue
			}
			r.refresh(ctx, nil)
			sub = r.subscribe(ctx, ticker)
		case msg, ok := <-changes:
			if !ok {
				log.Info().Msg("live updates dropped; polling")
				_ = sub.Close()
				sub = nil
				r.setHealth(HealthDegraded)
				ticker.Reset(r.opts.Interval)
				continue
			}
			if msg.Type != api.MessageChange {
				continue
			}
			r.refresh(ctx, &msg.Table)
		}
	}
}

// subscribe tries to open the push channel, stopping the poll timer on success.
func (r *Reconciler) subscribe(ctx context.Context, ticker *time.Ticker) Subscription {
	if r.opts.Subscribe == nil || ctx.Err() != nil {
		return nil
	}
	sub, err := r.opts.Subscribe(ctx)
	if err != nil {
		log.Debug().Err(err).Msg("subscribe failed")
		r.setHealth(HealthDegraded)
		return nil
	}
	ticker.Stop()
	r.setHealth(HealthConnected)
	// catch up on anything missed while degraded
	r.refresh(ctx, nil)
	return sub
}

// refresh re-runs the sources bound to table, or all of them when table is nil.
func (r *Reconciler) refresh(ctx context.Context, table *string) {
	r.mu.Lock()
	sources := slices.Clone(r.sources)
	r.mu.Unlock()
	for _, src := range sources {
		if ctx.Err() != nil {
			return
		}
		if table != nil && !slices.Contains(src.tables, *table) {
			continue
		}
		if err := src.fetch(ctx); err != nil && ctx.Err() == nil {
			log.Warn().Err(err).Str("source", src.name).Msg("refresh failed")
			if r.opts.OnError != nil {
				r.opts.OnError(src.name, err)
			}
		}
	}
}

func (r *Reconciler) setHealth(health Health) {
	r.mu.Lock()
	changed := r.health != health
	r.health = health
	r.mu.Unlock()
	if changed && r.opts.OnHealth != nil {
		r.opts.OnHealth(health)
	}
}
