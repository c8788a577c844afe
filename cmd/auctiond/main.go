package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"

	"github.com/jensholdgaard/auctiond/internal/api"
	"github.com/jensholdgaard/auctiond/internal/auction"
	"github.com/jensholdgaard/auctiond/internal/bot"
	"github.com/jensholdgaard/auctiond/internal/chain"
	"github.com/jensholdgaard/auctiond/internal/clock"
	"github.com/jensholdgaard/auctiond/internal/config"
	"github.com/jensholdgaard/auctiond/internal/feed"
	"github.com/jensholdgaard/auctiond/internal/health"
	"github.com/jensholdgaard/auctiond/internal/leader"
	"github.com/jensholdgaard/auctiond/internal/store"
	"github.com/jensholdgaard/auctiond/internal/telemetry"
	"github.com/jensholdgaard/auctiond/internal/wallet"

	// Register store drivers so they are available via store.Open.
	_ "github.com/jensholdgaard/auctiond/internal/store/entstore"
	_ "github.com/jensholdgaard/auctiond/internal/store/memstore"
	_ "github.com/jensholdgaard/auctiond/internal/store/postgres"
)

var version = "dev"

func main() {
	configPath := flag.String("config", "config.yaml", "path to configuration file")
	showVersion := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println(version)
		os.Exit(0)
	}

	if err := run(*configPath); err != nil {
		slog.Error("fatal error", slog.Any("error", err))
		os.Exit(1)
	}
}

func run(configPath string) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Load configuration.
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	// Setup telemetry.
	tp, err := telemetry.Setup(ctx, cfg.Telemetry)
	if err != nil {
		slog.Warn("telemetry setup failed, continuing without OTEL export", slog.Any("error", err))
		tp = telemetry.NewNopProvider()
	}
	defer func() {
		if shutdownErr := tp.Shutdown(context.Background()); shutdownErr != nil {
			slog.Error("telemetry shutdown error", slog.Any("error", shutdownErr))
		}
	}()

	logger := tp.Logger
	clk := clock.Real{}

	// Open store using the configured driver (memory, sqlx or ent).
	repos, err := store.Open(ctx, cfg.Database, clk)
	if err != nil {
		return fmt.Errorf("opening store (driver=%s): %w", cfg.Database.Driver, err)
	}
	defer repos.Closer.Close()

	logger.InfoContext(ctx, "connected to database", slog.String("driver", cfg.Database.Driver))

	if err := store.ApplyGenesis(ctx, repos, cfg.Genesis); err != nil {
		return fmt.Errorf("applying genesis: %w", err)
	}

	// Initialize the ledger and the auction engine.
	ledger := wallet.NewManager(repos.Accounts, repos.Events, cfg.Chain.ExistentialDeposit, logger, tp.TracerProvider)
	engine, err := auction.NewEngine(cfg.Auction,
		auction.Collaborators{NFTs: repos.NFTs, Marketplaces: repos.Marketplaces, Ledger: ledger},
		repos.Events, repos.Snapshots, logger, tp.TracerProvider, tp.MeterProvider,
	)
	if err != nil {
		return fmt.Errorf("creating auction engine: %w", err)
	}
	if err := engine.Recover(ctx); err != nil {
		return fmt.Errorf("recovering auction state: %w", err)
	}

	hub, err := feed.NewHub(logger, tp.MeterProvider)
	if err != nil {
		return fmt.Errorf("creating feed: %w", err)
	}
	engine.Subscribe(hub.Publish)
	ledger.Subscribe(hub.Publish)

	producer := chain.NewProducer(engine, repos.Snapshots, cfg.Chain, clk, logger, tp.TracerProvider)

	// Setup health checks.
	healthHandler := health.NewHandler(clk,
		health.Checker{Name: "database", Check: repos.Ping},
		health.Checker{Name: "chain", Check: producer.Check},
	)
	healthHandler.SetHeight(engine.CurrentBlock)

	// Start HTTP server for health, views and the feed (runs on all replicas).
	router := mux.NewRouter()
	router.HandleFunc("/healthz", healthHandler.LivenessHandler()).Methods(http.MethodGet)
	router.HandleFunc("/readyz", healthHandler.ReadinessHandler()).Methods(http.MethodGet)
	router.Handle("/feed", hub).Methods(http.MethodGet)
	api.NewHandler(engine, ledger, logger).Register(router)

	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.InfoContext(ctx, "starting http server", slog.Int("port", cfg.Server.Port))
		if listenErr := httpServer.ListenAndServe(); listenErr != nil && !errors.Is(listenErr, http.ErrServerClosed) {
			logger.ErrorContext(ctx, "http server error", slog.Any("error", listenErr))
		}
	}()

	// lead is the core work that only the leader should run: producing
	// blocks and serving Discord commands.
	lead := func(ctx context.Context) {
		// Another replica may have written events while this one followed.
		if recoverErr := engine.Recover(ctx); recoverErr != nil {
			logger.ErrorContext(ctx, "auction recovery failed", slog.Any("error", recoverErr))
			return
		}

		var discordBot *bot.Bot
		if cfg.Discord.Token != "" {
			b, botErr := bot.New(cfg.Discord, engine, ledger, logger, tp.TracerProvider)
			if botErr != nil {
				logger.ErrorContext(ctx, "creating bot failed", slog.Any("error", botErr))
				return
			}
			if botErr = b.Start(ctx); botErr != nil {
				logger.ErrorContext(ctx, "starting bot failed", slog.Any("error", botErr))
				return
			}
			discordBot = b
		}

		healthHandler.SetReady(true)
		logger.InfoContext(ctx, "auctiond is running",
			slog.String("version", version),
			slog.Uint64("block", uint64(engine.CurrentBlock())),
			slog.String("custody", engine.CustodyAccount()),
		)

		// Blocks until leadership is lost or the process is shutting down.
		if runErr := producer.Run(ctx); runErr != nil {
			logger.ErrorContext(ctx, "block producer stopped", slog.Any("error", runErr))
		}

		healthHandler.SetReady(false)
		if discordBot != nil {
			if stopErr := discordBot.Stop(); stopErr != nil {
				logger.Error("bot shutdown error", slog.Any("error", stopErr))
			}
		}
	}

	if leaderErr := leader.Lead(ctx, cfg.LeaderElection, logger, lead, func() {
		logger.Info("lost leadership, shutting down...")
		cancel()
	}); leaderErr != nil {
		return fmt.Errorf("leader election: %w", leaderErr)
	}

	logger.Info("shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", slog.Any("error", err))
	}

	logger.Info("shutdown complete")
	return nil
}
