package runtime

import (
	"context"
	"testing"
	"time"

	"github.com/57ave/rtype-server/internal/config"
	"github.com/57ave/rtype-server/internal/dispatch"
	"github.com/57ave/rtype-server/internal/metrics"
	"github.com/57ave/rtype-server/internal/session"
)

func TestSupervisorRunStopsOnContextCancel(t *testing.T) {
	transport, err := session.NewTransport(0, 1e6, 1e6, nil)
	if err != nil {
		t.Fatalf("NewTransport: %v", err)
	}
	cfg := config.Default()
	server := dispatch.NewServer(cfg, transport, nil)
	counters := metrics.NewCounters()
	server.Metrics = counters

	sup := NewSupervisor(transport, server, counters, nil, cfg.TickRate, cfg.SnapshotRate)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- sup.Run(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run returned error: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after context cancellation")
	}
}
