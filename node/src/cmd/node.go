package cmd

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sajjad-MoBe/TupleSpace/node/src/internal/api"
	"github.com/sajjad-MoBe/TupleSpace/node/src/internal/grpcPack"
	"github.com/sajjad-MoBe/TupleSpace/node/src/internal/server"
	"github.com/sajjad-MoBe/TupleSpace/node/src/internal/shared"
	"github.com/sajjad-MoBe/TupleSpace/node/src/internal/stats"
	"github.com/sajjad-MoBe/TupleSpace/node/src/internal/storage"

	"github.com/spf13/cobra"
)

const shutdownTimeout = 5 * time.Second

var startFlags struct {
	host            string
	port            int
	statsInterval   time.Duration
	readTimeout     time.Duration
	writeTimeout    time.Duration
	maxConnections  int
	adminAddr       string
	grpcAddr        string
	tracingEndpoint string
}

var startNodeCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the tuple space server",
	Args:  cobra.NoArgs,
	RunE:  runNode,
}

func init() {
	defaults := shared.DefaultConfig()
	f := startNodeCmd.Flags()
	f.StringVar(&startFlags.host, "host", defaults.Host, "Host to listen on")
	f.IntVarP(&startFlags.port, "port", "p", defaults.Port, "Port to listen on")
	f.DurationVar(&startFlags.statsInterval, "stats-interval", defaults.StatsInterval, "Period of the stats report")
	f.DurationVar(&startFlags.readTimeout, "read-timeout", 0, "Close connections idle for longer than this (0 disables)")
	f.DurationVar(&startFlags.writeTimeout, "write-timeout", 0, "Deadline for writing one response (0 disables)")
	f.IntVar(&startFlags.maxConnections, "max-connections", 0, "Maximum concurrent connections (0 is unbounded)")
	f.StringVar(&startFlags.adminAddr, "admin-addr", "", "Address of the admin HTTP server (empty disables)")
	f.StringVar(&startFlags.grpcAddr, "grpc-addr", "", "Address of the gRPC health server (empty disables)")
	f.StringVar(&startFlags.tracingEndpoint, "tracing-endpoint", "", "Jaeger collector endpoint (empty disables export)")
}

// applyStartFlags overrides cfg with every flag set on the command line.
func applyStartFlags(cmd *cobra.Command, cfg *shared.Config) error {
	f := cmd.Flags()
	if f.Changed("host") {
		cfg.Host = startFlags.host
	}
	if f.Changed("port") {
		cfg.Port = startFlags.port
	}
	if f.Changed("stats-interval") {
		cfg.StatsInterval = startFlags.statsInterval
	}
	if f.Changed("read-timeout") {
		cfg.ReadTimeout = startFlags.readTimeout
	}
	if f.Changed("write-timeout") {
		cfg.WriteTimeout = startFlags.writeTimeout
	}
	if f.Changed("max-connections") {
		cfg.MaxConnections = startFlags.maxConnections
	}
	if f.Changed("admin-addr") {
		cfg.AdminAddr = startFlags.adminAddr
	}
	if f.Changed("grpc-addr") {
		cfg.GRPCAddr = startFlags.grpcAddr
	}
	if f.Changed("tracing-endpoint") {
		cfg.TracingEndpoint = startFlags.tracingEndpoint
	}
	return cfg.Validate()
}

func runNode(cmd *cobra.Command, args []string) error {
	cfg, logger, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := applyStartFlags(cmd, cfg); err != nil {
		return err
	}

	store := storage.NewStore()
	metrics := api.NewMetrics()

	tracer, err := api.NewTracer("tuplespace", cfg.TracingEndpoint)
	if err != nil {
		return fmt.Errorf("init tracing: %w", err)
	}

	srv := server.NewServer(store, server.Config{
		ReadTimeout:    cfg.ReadTimeout,
		WriteTimeout:   cfg.WriteTimeout,
		MaxConnections: cfg.MaxConnections,
	},
		server.WithLogger(logger),
		server.WithRecorder(metrics),
		server.WithTracer(tracer.Tracer()),
	)

	listener, err := net.Listen("tcp", cfg.ListenAddr())
	if err != nil {
		return fmt.Errorf("listen on %s: %w", cfg.ListenAddr(), err)
	}

	// Setup graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	errCh := make(chan error, 3)

	go func() {
		if err := srv.Serve(listener); err != nil && !errors.Is(err, server.ErrServerClosed) {
			errCh <- fmt.Errorf("tuple space server: %w", err)
		}
	}()

	reporter := stats.NewReporter(store, cfg.StatsInterval, stats.NewLogSink(logger), metrics)
	go reporter.Run(ctx)

	var admin *api.Server
	if cfg.AdminAddr != "" {
		admin = api.NewServer(cfg.AdminAddr, api.Router(api.NewHandler(store, logger), metrics, logger), logger)
		go func() {
			if err := admin.Start(); err != nil {
				errCh <- err
			}
		}()
	}

	var health *grpcPack.HealthServer
	if cfg.GRPCAddr != "" {
		l, err := net.Listen("tcp", cfg.GRPCAddr)
		if err != nil {
			listener.Close()
			return fmt.Errorf("grpc listen on %s: %w", cfg.GRPCAddr, err)
		}
		health = grpcPack.NewHealthServer(logger)
		health.SetServing(true)
		go func() {
			if err := health.Serve(l); err != nil {
				errCh <- fmt.Errorf("grpc health server: %w", err)
			}
		}()
	}

	var runErr error
	select {
	case <-ctx.Done():
		logger.Info("Received shutdown signal, initiating shutdown")
	case runErr = <-errCh:
		logger.WithError(runErr).Error("Shutting down due to error")
	}

	// Perform graceful shutdown
	shutdownCtx, stop := context.WithTimeout(context.Background(), shutdownTimeout)
	defer stop()

	if health != nil {
		health.Stop()
	}
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Warn("Error during tuple space shutdown")
	}
	if admin != nil {
		if err := admin.Shutdown(shutdownCtx); err != nil {
			logger.WithError(err).Warn("Error during admin shutdown")
		}
	}
	if err := tracer.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Warn("Error flushing traces")
	}

	// Final snapshot so the last interval is not lost
	reporter.Report()
	logger.Info("Stopped with %d tuples in memory", store.Len())
	return runErr
}
