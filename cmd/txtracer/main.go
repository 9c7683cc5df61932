package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"txtracer/internal/assemble"
	"txtracer/internal/chain"
	"txtracer/internal/config"
	"txtracer/internal/history"
	"txtracer/internal/server"
)

func main() {
	root := &cobra.Command{
		Use:          "txtracer",
		Short:        "Transaction decorator and failure analysis API",
		SilenceUsage: true,
	}

	root.PersistentFlags().String("config", "", "config file path")

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE:  runServe,
	}

	serveCmd.Flags().String("listen", ":8080", "listen address")
	serveCmd.Flags().Duration("cache-ttl", 5*time.Minute, "token metadata cache TTL")
	serveCmd.Flags().String("history-out", "", "lookup history JSONL path")
	serveCmd.Flags().String("pg-dsn", "", "Postgres DSN for lookup history")
	serveCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(serveCmd)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	chains := chain.DefaultChains()
	for chainID, override := range cfg.RPCOverrides {
		chainCfg, ok := chains[chainID]
		if !ok {
			logger.Warn("rpc override for unknown chain", zap.String("chain", chainID))
			continue
		}
		if override.Primary != "" {
			chainCfg.RPCPrimary = override.Primary
		}
		if override.Fallback != "" {
			chainCfg.RPCFallback = override.Fallback
		}
	}

	resolvers := make(map[string]server.Resolver)
	for _, chainID := range chain.ChainIDs(chains) {
		chainCfg := chains[chainID]
		client, dialErr := chain.Dial(ctx, chainCfg.RPCPrimary, chainCfg.RPCFallback, logger)
		if dialErr != nil {
			logger.Warn("chain unavailable, skipping",
				zap.String("chain", chainID), zap.Error(dialErr))
			continue
		}
		defer client.Close()
		resolvers[chainID] = assemble.New(chainCfg, client, cfg.CacheTTL, logger)
		logger.Info("chain ready", zap.String("chain", chainID))
	}
	if len(resolvers) == 0 {
		return fmt.Errorf("no chain endpoints reachable")
	}

	sink, err := newHistorySink(ctx, cfg)
	if err != nil {
		return err
	}
	defer sink.Close()

	srv := server.New(resolvers, sink, logger)
	httpServer := &http.Server{
		Addr:              cfg.Listen,
		Handler:           srv.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("listening", zap.String("addr", cfg.Listen))
		serveErr <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}

func newHistorySink(ctx context.Context, cfg config.Config) (history.Sink, error) {
	switch {
	case cfg.PgDSN != "":
		sink, err := history.NewPostgresSink(ctx, cfg.PgDSN)
		if err != nil {
			return nil, fmt.Errorf("connect history db: %w", err)
		}
		return sink, nil
	case cfg.HistoryOut != "":
		return history.NewJsonlSink(cfg.HistoryOut), nil
	default:
		return history.Discard{}, nil
	}
}

func newLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevel()
	if err := cfg.Level.UnmarshalText([]byte(level)); err != nil {
		return nil, err
	}

	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	return cfg.Build()
}
