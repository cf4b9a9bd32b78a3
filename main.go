package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/danielhkuo/envision/cliparse"
	"github.com/danielhkuo/envision/db"
	"github.com/danielhkuo/envision/handlers"
	"github.com/danielhkuo/envision/llm"
	"github.com/danielhkuo/envision/middleware"
	"github.com/danielhkuo/envision/realtime"
	"github.com/danielhkuo/envision/results"
	"github.com/danielhkuo/envision/router"
	"github.com/danielhkuo/envision/scorecache"
	"github.com/danielhkuo/envision/scoring"
	"github.com/danielhkuo/envision/store"
)

func main() {
	var err error

	// .env is optional
	if err := cliparse.LoadDotEnv(); err != nil {
		slog.Error("Error loading .env", "error", err)
		os.Exit(1)
	}

	// Parse configuration
	cfg, err := cliparse.ParseFlags(os.Args[1:])
	if err != nil {
		slog.Error("Error parsing flags", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Connect to the database
	dbConn, err := db.Open(ctx, cfg.DatabaseType, cfg.DatabaseURL)
	if err != nil {
		slog.Error("database connection failed", "error", err)
		os.Exit(1)
	}
	defer dbConn.Close()

	// Create schema (tables)
	if err := db.CreateSchema(dbConn); err != nil {
		slog.Error("schema creation failed", "error", err)
		os.Exit(1)
	}
	slog.Info("Database schema ready", "type", cfg.DatabaseType)

	st := store.New(dbConn)
	hub := realtime.NewHub(slog.Default())

	// Redis is optional: it backs the score cache and cross-instance events
	var (
		cache scoring.Cache
		bus   realtime.Bus
	)
	if cfg.RedisURL != "" {
		rc, err := scorecache.NewRedisCache(cfg.RedisURL)
		if err != nil {
			slog.Error("redis connection failed", "error", err)
			os.Exit(1)
		}
		defer rc.Close()
		cache = rc

		rb, err := realtime.NewRedisBus(rc.Client(), realtime.DefaultChannel, slog.Default())
		if err != nil {
			slog.Error("realtime bus setup failed", "error", err)
			os.Exit(1)
		}
		defer rb.Close()
		bus = rb
		slog.Info("Redis enabled")
	}

	broadcaster := realtime.NewBroadcaster(hub, bus, slog.Default())
	if err := broadcaster.Start(ctx); err != nil {
		slog.Error("realtime forwarder failed", "error", err)
		os.Exit(1)
	}

	// The LLM is optional; results endpoints answer 503 without it
	var completer llm.Completer
	if cfg.OpenAIAPIKey != "" {
		completer, err = llm.New(llm.Config{
			APIKey:     cfg.OpenAIAPIKey,
			Model:      cfg.OpenAIModel,
			BaseURL:    cfg.OpenAIBaseURL,
			Timeout:    cfg.LLMTimeout,
			RatePerSec: cfg.LLMRatePerSec,
		}, llm.NewMetrics(prometheus.DefaultRegisterer))
		if err != nil {
			slog.Error("llm client setup failed", "error", err)
			os.Exit(1)
		}
		slog.Info("LLM enabled", "model", completer.Model())
	} else {
		slog.Warn("OPENAI_API_KEY not set; results generation disabled")
	}

	scores := scoring.NewService(st, cache, slog.Default())
	resultsService := results.NewService(st, scores, completer, slog.Default(), cfg.ResultsBatchConcurrency)

	// Create router
	mux := router.NewRouter(router.Services{
		Deps: handlers.Deps{
			Store:   st,
			Config:  cfg,
			Scoring: scores,
			Events:  broadcaster,
		},
		Results: resultsService,
		Hub:     hub,
	})
	metrics := middleware.NewMetrics(prometheus.DefaultRegisterer)

	// Create server
	server := http.Server{
		Handler:           middleware.CORS(metrics.Handler(mux)),
		Addr:              ":" + strconv.Itoa(cfg.Port),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		// Wait for Ctrl-C signal
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			server.Close()
		}
	}()

	// Start server
	slog.Info("Listening", "port", cfg.Port)
	err = server.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		slog.Error("Server closed", "error", err)
	} else {
		slog.Info("Server closed", "error", err)
	}
}
