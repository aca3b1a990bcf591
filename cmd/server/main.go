// Command server runs the authoritative game core: it binds a UDP socket,
// loads a YAML config (or the built-in defaults), and drives the tick,
// snapshot, and metrics loops until it receives an interrupt. Grounded on
// cmd/wtd's cobra root command (ehrlich-b-wingthing), generalized from an
// HTTP server's ListenAndServe/Close pair onto this core's UDP transport and
// runtime.Supervisor.
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/57ave/rtype-server/internal/config"
	"github.com/57ave/rtype-server/internal/dispatch"
	"github.com/57ave/rtype-server/internal/metrics"
	"github.com/57ave/rtype-server/internal/runtime"
	"github.com/57ave/rtype-server/internal/session"
)

// Exit codes per the core's external-interface contract: 0 normal shutdown,
// 1 a fatal bind/socket error, 2 malformed configuration.
const (
	exitOK          = 0
	exitSocketError = 1
	exitBadConfig   = 2
)

func main() {
	var configPath string
	var port int
	var listen string

	root := &cobra.Command{
		Use:   "server",
		Short: "Authoritative multiplayer shoot-'em-up game core",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(configPath, port, listen)
		},
	}
	root.Flags().StringVar(&configPath, "config", "", "path to a YAML config file (defaults are used if unset)")
	root.Flags().IntVar(&port, "port", 0, "UDP port to bind, overriding the config's udpPort if nonzero")
	root.Flags().StringVar(&listen, "listen", "", "deprecated alias for --port, kept for operator muscle memory")

	if err := root.Execute(); err != nil {
		os.Exit(exitFromError(err))
	}
}

func run(configPath string, port int, listen string) error {
	logger := log.New(os.Stdout, "", log.LstdFlags)

	cfg := config.Default()
	if configPath != "" {
		loaded, err := config.LoadFile(configPath)
		if err != nil {
			return badConfigError{err}
		}
		cfg = loaded
	}
	if port != 0 {
		cfg.UDPPort = port
	} else if listen != "" {
		fmt.Sscanf(listen, "%d", &cfg.UDPPort)
	}
	if err := cfg.Validate(); err != nil {
		return badConfigError{err}
	}

	transport, err := session.NewTransport(cfg.UDPPort, 50, 20, logger)
	if err != nil {
		return socketError{err}
	}

	counters := metrics.NewCounters()
	server := dispatch.NewServer(cfg, transport, logger)
	server.Metrics = counters

	sup := runtime.NewSupervisor(transport, server, counters, logger, cfg.TickRate, cfg.SnapshotRate)

	logger.Printf("listening on udp :%d (instance %s, tick=%dHz snapshot=%dHz)", cfg.UDPPort, cfg.InstanceID, cfg.TickRate, cfg.SnapshotRate)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := sup.Run(ctx); err != nil {
		return socketError{err}
	}

	logger.Printf("shut down cleanly")
	return nil
}

// badConfigError and socketError carry the exit code their corresponding
// failure mode maps to, without main() needing to inspect error strings.
type badConfigError struct{ err error }

func (e badConfigError) Error() string { return e.err.Error() }
func (e badConfigError) Unwrap() error { return e.err }

type socketError struct{ err error }

func (e socketError) Error() string { return e.err.Error() }
func (e socketError) Unwrap() error { return e.err }

func exitFromError(err error) int {
	var bc badConfigError
	if errors.As(err, &bc) {
		return exitBadConfig
	}
	var se socketError
	if errors.As(err, &se) {
		return exitSocketError
	}
	return exitSocketError
}
