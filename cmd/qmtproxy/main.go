package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/psychoney/quant-qmt-proxy/pkg/api"
	"github.com/psychoney/quant-qmt-proxy/pkg/auth"
	"github.com/psychoney/quant-qmt-proxy/pkg/callback"
	"github.com/psychoney/quant-qmt-proxy/pkg/config"
	"github.com/psychoney/quant-qmt-proxy/pkg/executor"
	"github.com/psychoney/quant-qmt-proxy/pkg/log"
	"github.com/psychoney/quant-qmt-proxy/pkg/marketdata"
	"github.com/psychoney/quant-qmt-proxy/pkg/metrics"
	"github.com/psychoney/quant-qmt-proxy/pkg/mode"
	"github.com/psychoney/quant-qmt-proxy/pkg/rpcapi"
	"github.com/psychoney/quant-qmt-proxy/pkg/session"
	"github.com/psychoney/quant-qmt-proxy/pkg/stream"
	"github.com/psychoney/quant-qmt-proxy/pkg/subscription"
	"github.com/psychoney/quant-qmt-proxy/pkg/trading"
	"github.com/psychoney/quant-qmt-proxy/pkg/vendorcore"
)

// Version information (set via ldflags during build)
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "qmtproxy",
	Short: "HTTP/gRPC gateway fronting the QMT trading and market-data core",
	Long: `qmtproxy exposes the QMT vendor SDK's synchronous, single-threaded
trading and market-data calls as a long-lived, concurrent service:
JSON over HTTP, binary gRPC, and two WebSocket push streams for quote
ticks and trading callbacks.`,
	Version: Version,
}

func init() {
	rootCmd.SetVersionTemplate(fmt.Sprintf("qmtproxy version %s\nCommit: %s\nBuilt: %s\n", Version, Commit, BuildTime))
	rootCmd.PersistentFlags().String("log-level", "info", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().Bool("log-json", false, "Output logs in JSON format")
	cobra.OnInitialize(initLogging)
	rootCmd.AddCommand(serveCmd)
}

func initLogging() {
	logLevel, _ := rootCmd.PersistentFlags().GetString("log-level")
	logJSON, _ := rootCmd.PersistentFlags().GetBool("log-json")
	log.Init(log.Config{Level: log.Level(logLevel), JSONOutput: logJSON})
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the gateway (HTTP, gRPC and WebSocket servers)",
	RunE: func(cmd *cobra.Command, args []string) error {
		configPath, _ := cmd.Flags().GetString("config")
		return serve(configPath)
	},
}

func init() {
	serveCmd.Flags().String("config", "", "Path to the YAML configuration file")
}

func serve(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log.Logger.Info().Str("mode", string(cfg.Mode)).Msg("qmtproxy: starting")

	var core vendorcore.Core
	if cfg.Mode == mode.Sim {
		core = vendorcore.NewSim()
	} else {
		core = vendorcore.NewLive()
	}
	metrics.RegisterComponent("vendorcore", true, "")

	pool := executor.New(cfg.Executor.Workers)
	defer pool.Close()

	dispatcher := callback.New(cfg.Callbacks.History)
	registry := session.New(core, pool, cfg.VendorCore.QMTUserDataPath, dispatcher)
	guard := mode.NewGuard(cfg.Mode)
	tradingSvc := trading.New(registry, guard, pool)
	marketSvc := marketdata.New(core, pool, cfg.Timeouts)
	subMgr := subscription.New(subscription.Config{
		MaxQueue:           cfg.Subscriptions.MaxQueue,
		MaxStreamsPerSub:   cfg.Subscriptions.MaxStreamsPerSub,
		HeartbeatInterval:  cfg.Subscriptions.HeartbeatInterval,
		HeartbeatTimeout:   cfg.Subscriptions.HeartbeatTimeout,
		WholeMarketEnabled: cfg.Subscriptions.WholeMarketEnabled,
	}, core)
	allow := auth.New(cfg.Auth.AllowedKeys)

	httpServer := api.NewServer(api.Deps{
		Trading:      tradingSvc,
		MarketData:   marketSvc,
		Subscription: subMgr,
		Callbacks:    dispatcher,
		Allow:        allow,
		StreamCfg: stream.TradingConfig{
			HeartbeatInterval: cfg.Subscriptions.HeartbeatInterval,
			HeartbeatTimeout:  cfg.Subscriptions.HeartbeatTimeout,
			QueueCap:          cfg.Subscriptions.MaxQueue,
		},
	})
	grpcServer := rpcapi.NewServer(rpcapi.Deps{
		Trading:    tradingSvc,
		MarketData: marketSvc,
		Callbacks:  dispatcher,
		Allow:      allow,
	})

	errCh := make(chan error, 2)
	go func() {
		if err := httpServer.Start(cfg.Server.HTTPAddr); err != nil {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()
	go func() {
		if err := grpcServer.Start(cfg.Server.GRPCAddr); err != nil {
			errCh <- fmt.Errorf("grpc server: %w", err)
		}
	}()

	log.Logger.Info().Str("http_addr", cfg.Server.HTTPAddr).Str("grpc_addr", cfg.Server.GRPCAddr).Msg("qmtproxy: listening")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case <-sigCh:
		log.Logger.Info().Msg("qmtproxy: shutdown signal received")
	case err := <-errCh:
		log.Logger.Error().Err(err).Msg("qmtproxy: server failed")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	grpcServer.Stop()
	if err := httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	log.Logger.Info().Msg("qmtproxy: shutdown complete")
	return nil
}
