package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"savor/internal/agent"
	"savor/internal/config"
	"savor/internal/knowledge"
	"savor/internal/llmtool"
	"savor/internal/metrics"
	"savor/internal/places"
	"savor/internal/server"
)

var (
	port       = flag.Int("port", 0, "API server port (overrides config)")
	configFile = flag.String("config", "configs/config.yaml", "Path to configuration file")
)

func main() {
	flag.Parse()

	cfg, err := config.Load(*configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	if *port != 0 {
		cfg.Server.Port = *port
	}

	log, err := newLogger(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	model, err := initializeLLM(cfg)
	if err != nil {
		log.Fatal("failed to initialize LLM", zap.Error(err))
	}

	store := knowledge.NewStore()
	collector := metrics.NewCollector()

	a := agent.New(
		llmtool.NewLocationNormalizer(model, log),
		places.NewClient(cfg.Places.APIKey, log),
		llmtool.NewMenuGenerator(model, log),
		llmtool.NewIntentExtractor(model, log),
		store,
		collector,
		log,
	)

	srv := server.New(a, store, collector, log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	log.Info("starting server", zap.String("addr", addr))
	if err := srv.Serve(ctx, addr); err != nil {
		log.Fatal("server error", zap.Error(err))
	}
	log.Info("server stopped")
}

// initializeLLM builds the completion client. Groq's OpenAI-compatible
// endpoint is the default; any OpenAI-style provider works through the same
// options.
func initializeLLM(cfg *config.Config) (llms.LLM, error) {
	opts := []openai.Option{
		openai.WithModel(cfg.LLM.Model),
		openai.WithToken(cfg.LLM.APIKey),
	}
	if cfg.LLM.BaseURL != "" {
		opts = append(opts, openai.WithBaseURL(cfg.LLM.BaseURL))
	}

	llm, err := openai.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize completion client: %w", err)
	}
	return llm, nil
}

func newLogger(level string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("parse log level %q: %w", level, err)
	}

	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	return cfg.Build()
}
