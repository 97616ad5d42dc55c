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

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"

	alttext "github.com/menta2k/alt-text-service"
	"github.com/menta2k/alt-text-service/internal/config"
	"github.com/menta2k/alt-text-service/internal/metrics"
	"github.com/menta2k/alt-text-service/internal/server"
	"github.com/menta2k/alt-text-service/internal/store"
	"github.com/menta2k/alt-text-service/pkg/captioner"
	"github.com/menta2k/alt-text-service/pkg/captioner/infer"
	ollamacap "github.com/menta2k/alt-text-service/pkg/captioner/ollama"
	"github.com/menta2k/alt-text-service/pkg/captioner/openaicap"
	"github.com/menta2k/alt-text-service/pkg/fetcher"
)

func main() {
	var cfgPath string
	flag.StringVar(&cfgPath, "config", "", "path to JSON config file")
	flag.Parse()

	// .env is optional; real environments set variables directly.
	_ = godotenv.Load()

	cfg := config.Default()
	if cfgPath != "" {
		loaded, err := config.LoadFromFile(cfgPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "alt-text-service: %v\n", err)
			os.Exit(1)
		}
		cfg = loaded
	}
	if err := cfg.ApplyEnv(); err != nil {
		fmt.Fprintf(os.Stderr, "alt-text-service: invalid environment: %v\n", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "alt-text-service: invalid configuration: %v\n", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel(cfg.Log.Level),
	}))
	slog.SetDefault(logger)

	capt, err := buildCaptioner(cfg)
	if err != nil {
		logger.Error("failed to create captioner", "backend", cfg.Captioner.Backend, "error", err)
		os.Exit(1)
	}
	if capt != nil {
		logger.Info("model-backed captioner configured", "backend", capt.Name(), "model", cfg.Captioner.Model)
	} else {
		logger.Info("no model-backed captioner configured, heuristic captions only")
	}

	st, err := store.Open(cfg.Store.SQLitePath)
	if err != nil {
		logger.Error("failed to open record store", "path", cfg.Store.SQLitePath, "error", err)
		os.Exit(1)
	}

	registry := prometheus.NewRegistry()
	m := metrics.New(registry)

	svc := alttext.NewWithOptions(alttext.Options{
		Fetcher: fetcher.NewWithOptions(fetcher.Options{
			Timeout:      cfg.FetchTimeout(),
			MaxBodyBytes: cfg.Fetcher.MaxBodyBytes,
		}),
		Captioner: capt,
		Recorder:  metrics.NewRecorder(m),
		Logger:    logger,
	})

	srv := server.New(cfg.Server.ListenAddr, svc, st, registry, logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("listening", "addr", cfg.Server.ListenAddr)
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("server failed", "error", err)
		os.Exit(1)
	}
	logger.Info("shut down cleanly")
}

// buildCaptioner maps the configured backend to a concrete adapter. An empty
// or "none" backend yields nil, which runs the pipeline heuristic-only.
func buildCaptioner(cfg *config.Config) (captioner.Captioner, error) {
	switch cfg.Captioner.Backend {
	case "", "none":
		return nil, nil
	case "infer":
		// The inference server owns its own generation budget.
		return infer.NewClient(cfg.Captioner.URL)
	case "ollama":
		url := cfg.Captioner.URL
		if url == "" {
			url = "http://localhost:11434"
		}
		return ollamacap.NewClient(url, cfg.Captioner.Model, cfg.Captioner.MaxTokens)
	case "openai":
		return openaicap.NewClient(cfg.Captioner.URL, cfg.Captioner.APIKey, cfg.Captioner.Model, cfg.Captioner.MaxTokens)
	default:
		return nil, fmt.Errorf("unknown captioner backend %q", cfg.Captioner.Backend)
	}
}

func logLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
