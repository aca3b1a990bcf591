// Package runtime supervises the core's long-running loops — socket I/O,
// the fixed-timestep simulation tick, snapshot emission, and periodic
// metrics logging — as a single group that shuts down together the moment
// any one of them returns an error. Grounded on networking/server/server.go's
// Start/Stop pair (which launches networkLoop/gameLoop/maintenanceLoop/
// metricsLoop as four bare goroutines coordinated only by an atomic running
// flag and a context), generalized onto golang.org/x/sync/errgroup so a
// failure in one loop propagately cancels the rest instead of leaving
// orphaned goroutines running past a partial shutdown.
package runtime

import (
	"context"
	"log"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/57ave/rtype-server/internal/dispatch"
	"github.com/57ave/rtype-server/internal/metrics"
	"github.com/57ave/rtype-server/internal/session"
)

// MetricsLogInterval matches the teacher's metricsLoop cadence.
const MetricsLogInterval = 60 * time.Second

// Supervisor owns one running instance's transport, dispatcher, and
// metrics, and drives every loop to completion or first error.
type Supervisor struct {
	Transport *session.Transport
	Server    *dispatch.Server
	Metrics   *metrics.Counters
	Logger    *log.Logger

	TickInterval     time.Duration
	SnapshotInterval time.Duration

	startedAt time.Time
}

// NewSupervisor wires transport, server and the caller's counters together.
// Callers that want dispatch.Server to report through Metrics should set
// server.Metrics = counters themselves before calling Run — Supervisor
// doesn't reach into Server's private fields.
func NewSupervisor(transport *session.Transport, server *dispatch.Server, counters *metrics.Counters, logger *log.Logger, tickRate, snapshotRate int) *Supervisor {
	return &Supervisor{
		Transport:        transport,
		Server:           server,
		Metrics:          counters,
		Logger:           logger,
		TickInterval:     time.Second / time.Duration(tickRate),
		SnapshotInterval: time.Second / time.Duration(snapshotRate),
	}
}

// Run starts every loop and blocks until ctx is cancelled or one loop
// returns a non-nil error, at which point every other loop is cancelled via
// the errgroup's shared context and Run waits for them to unwind before
// returning (spec §5 "graceful shutdown: stop accepting new ticks, let the
// in-flight tick finish, join every goroutine").
func (s *Supervisor) Run(ctx context.Context) error {
	s.startedAt = time.Now()
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		s.Transport.RecvLoop()
		return nil
	})
	g.Go(func() error {
		s.Transport.SendLoop()
		return nil
	})
	g.Go(func() error {
		return s.tickLoop(ctx)
	})
	g.Go(func() error {
		return s.snapshotLoop(ctx)
	})
	g.Go(func() error {
		return s.metricsLoop(ctx)
	})

	<-ctx.Done()
	s.Transport.Close()

	return g.Wait()
}

// tickLoop advances the simulation at TickInterval, the same fixed-timestep
// cadence as the teacher's gameLoop ticker.
func (s *Supervisor) tickLoop(ctx context.Context) error {
	ticker := time.NewTicker(s.TickInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case now := <-ticker.C:
			s.Server.Step(now)
		}
	}
}

// snapshotLoop emits delta snapshots at SnapshotInterval, independent of the
// tick rate (spec §4.G).
func (s *Supervisor) snapshotLoop(ctx context.Context) error {
	ticker := time.NewTicker(s.SnapshotInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case now := <-ticker.C:
			s.Server.EmitSnapshots(now)
		}
	}
}

// metricsLoop logs one metrics line every MetricsLogInterval, mirroring the
// teacher's metricsLoop/logMetrics pair.
func (s *Supervisor) metricsLoop(ctx context.Context) error {
	if s.Metrics == nil {
		<-ctx.Done()
		return nil
	}
	ticker := time.NewTicker(MetricsLogInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			snap := s.Metrics.Snapshot(s.startedAt)
			snap.Log(s.Logger, s.Server.SessionCount(), s.Server.RoomCount())
		}
	}
}
