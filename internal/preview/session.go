package preview

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron/v2"
	"golang.org/x/sync/errgroup"

	"git.home.luguber.info/inful/docarchive/internal/logfields"
	"git.home.luguber.info/inful/docarchive/internal/monitor"
	"git.home.luguber.info/inful/docarchive/internal/observability"
)

// SessionOptions configures one preview session.
type SessionOptions struct {
	// FullRebuildEvery forces a periodic rebuild regardless of filesystem
	// events; zero disables the schedule.
	FullRebuildEvery time.Duration

	// Events is optional; nil publishes nothing.
	Events *EventPublisher

	// Metrics instruments the monitor's rebuild counters when non-nil.
	Metrics *observability.BuildMetrics
}

// Session ties the pieces of a running preview together: the HTTP server,
// the catalog monitor, and the optional rebuild schedule.
type Session struct {
	server  *Server
	catalog string
	rebuild monitor.RebuildFunc
	opts    SessionOptions
}

// NewSession creates a preview session over an already-bound server.
func NewSession(server *Server, catalog string, rebuild monitor.RebuildFunc, opts SessionOptions) *Session {
	return &Session{server: server, catalog: catalog, rebuild: rebuild, opts: opts}
}

// Run blocks until ctx is cancelled. It serves the archive, watches the
// catalog, and applies the periodic rebuild schedule when configured.
func (s *Session) Run(ctx context.Context) error {
	instrumented := func(buildCtx context.Context) error {
		err := s.rebuild(buildCtx)
		event := RebuildEvent{Catalog: s.catalog, Succeeded: err == nil}
		if err != nil {
			event.Cancelled = errors.Is(err, context.Canceled)
			event.Error = err.Error()
		}
		s.opts.Events.Publish(event)
		return err
	}

	var monOpts []monitor.Option
	if s.opts.Metrics != nil {
		monOpts = append(monOpts, monitor.WithMetrics(s.opts.Metrics))
	}
	mon := monitor.New(s.catalog, instrumented, monOpts...)

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error { return s.server.Serve(groupCtx) })
	group.Go(func() error { return mon.Start(groupCtx) })

	if s.opts.FullRebuildEvery > 0 {
		scheduler, err := gocron.NewScheduler()
		if err != nil {
			return err
		}
		_, err = scheduler.NewJob(
			gocron.DurationJob(s.opts.FullRebuildEvery),
			gocron.NewTask(func() {
				slog.Info("Scheduled full rebuild", logfields.Catalog(s.catalog))
				if err := instrumented(groupCtx); err != nil && !errors.Is(err, context.Canceled) {
					slog.Warn("Scheduled rebuild failed", logfields.Error(err))
				}
			}),
		)
		if err != nil {
			return err
		}
		scheduler.Start()
		defer func() { _ = scheduler.Shutdown() }()
	}

	err := group.Wait()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
