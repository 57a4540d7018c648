package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/cuemby/tether/pkg/channel"
	"github.com/cuemby/tether/pkg/client"
	"github.com/cuemby/tether/pkg/config"
	"github.com/cuemby/tether/pkg/engine"
	"github.com/cuemby/tether/pkg/events"
	"github.com/cuemby/tether/pkg/log"
	"github.com/cuemby/tether/pkg/metrics"
	"github.com/cuemby/tether/pkg/session"
	"github.com/cuemby/tether/pkg/types"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Register with the controller and run until unregistered",
	Long: `Run starts a worker: it registers with the controller at the configured
registrar address, provisions whichever channels the controller grants,
starts the heartbeat monitor, and hands off to the workload engine.

The process exits 0 after a graceful unregistration (SIGINT/SIGTERM) and
non-zero if registration fails.`,
	RunE: runWorker,
}

func init() {
	runCmd.Flags().StringP("connection-file", "f", "", "YAML connection file")
	runCmd.Flags().String("registrar-addr", "", "controller registration address (overrides file)")
	runCmd.Flags().String("ident", "", "worker identity (default: generated)")
	runCmd.Flags().Bool("require-queue", false, "fail registration if no queue channel is granted")
	runCmd.Flags().String("log-level", "", "log level: debug, info, warn, error")
}

func runWorker(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	log.Init(log.Config{
		Level:      log.Level(cfg.Log.Level),
		JSONOutput: cfg.Log.JSON,
	})
	logger := log.WithComponent("main")

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if cfg.MetricsAddr != "" {
		startMetricsServer(cfg.MetricsAddr)
	}

	broker := events.NewBroker()
	broker.Start()
	defer broker.Stop()
	go logEvents(broker.Subscribe())

	transport := channel.NewZMQTransport(ctx)
	sess := session.New()
	ctrl := client.New(cfg.RegistrarAddr, transport, sess)

	eng, err := engine.New(engine.Config{
		Ident:               types.Identity(cfg.Ident),
		RegistrarAddr:       cfg.RegistrarAddr,
		Transport:           transport,
		Session:             sess,
		Client:              ctrl,
		Broker:              broker,
		RequireQueue:        cfg.RequireQueue,
		HeartbeatInterval:   cfg.HeartbeatInterval.Std(),
		RegistrationTimeout: cfg.RegistrationTimeout.Std(),
		UnregisterGrace:     cfg.UnregisterGrace.Std(),
	})
	if err != nil {
		return err
	}

	if err := ctrl.Connect(eng.Ident()); err != nil {
		logger.Warn().Err(err).Msg("controller client unavailable")
	}
	defer ctrl.Close()

	logger.Info().
		Str("identity", eng.Ident().String()).
		Str("registrar", cfg.RegistrarAddr).
		Msg("starting tether worker")

	if err := eng.Start(); err != nil {
		return err
	}

	select {
	case <-eng.Done():
		// Terminal without a signal: either registration failed or the
		// engine was torn down from elsewhere.
		if err := eng.Err(); err != nil {
			logger.Error().Err(err).Msg("worker never came up")
			os.Exit(1)
		}
		return nil

	case <-ctx.Done():
		logger.Info().Msg("signal received, unregistering")
		if err := eng.Unregister(); err != nil {
			// Not RUNNING yet: abandon the handshake and report abnormal exit.
			eng.Shutdown()
			logger.Error().Err(err).Msg("shutdown before registration completed")
			os.Exit(1)
		}
		logger.Info().Msg("worker unregistered")
		return nil
	}
}

func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	var cfg *config.Config
	if path, _ := cmd.Flags().GetString("connection-file"); path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	} else {
		def := config.Default()
		cfg = &def
	}

	if addr, _ := cmd.Flags().GetString("registrar-addr"); addr != "" {
		cfg.RegistrarAddr = addr
	}
	if ident, _ := cmd.Flags().GetString("ident"); ident != "" {
		cfg.Ident = ident
	}
	if ok, _ := cmd.Flags().GetBool("require-queue"); ok {
		cfg.RequireQueue = true
	}
	if level, _ := cmd.Flags().GetString("log-level"); level != "" {
		cfg.Log.Level = level
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func startMetricsServer(addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	go func() {
		if err := http.ListenAndServe(addr, mux); err != nil {
			logger := log.WithComponent("metrics")
			logger.Error().Err(err).Msg("metrics server stopped")
		}
	}()
}

func logEvents(sub events.Subscriber) {
	logger := log.WithComponent("events")
	for ev := range sub {
		logger.Info().
			Str("event", string(ev.Type)).
			Str("detail", ev.Message).
			Msg("lifecycle event")
	}
}
