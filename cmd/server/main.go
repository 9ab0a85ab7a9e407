package main

import (
	"context"
	"flag"
	"log/slog"
	"os"

	"github.com/franckalain/nutriscan/internal/assistant"
	"github.com/franckalain/nutriscan/internal/config"
	"github.com/franckalain/nutriscan/internal/database"
	"github.com/franckalain/nutriscan/internal/ml"
	"github.com/franckalain/nutriscan/internal/scans"
	"github.com/franckalain/nutriscan/internal/server"
)

func main() {
	configPath := flag.String("config", config.GetConfigPath(), "path to configuration file")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		fatal("failed to load configuration", err)
	}

	level := slog.LevelInfo
	if cfg.Server.Debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	db, err := database.NewSQLiteDB(cfg.Database.Path)
	if err != nil {
		fatal("failed to connect to database", err)
	}
	defer db.Close()

	ctx := context.Background()

	model, err := ml.NewModel(cfg.ML.Type, cfg.ML.ConfigPath)
	if err != nil {
		fatal("failed to create ML model", err)
	}
	if err := model.Load(ctx); err != nil {
		fatal("failed to load ML model", err)
	}

	opts := server.Options{
		Logger:    logger,
		StaticDir: cfg.Server.StaticDir,
		Debug:     cfg.Server.Debug,
	}
	if cfg.Assistant.Enabled {
		a, err := newAssistant(ctx, cfg, logger)
		if err != nil {
			fatal("failed to set up assistant", err)
		}
		opts.Assistant = a
	}

	svc := scans.NewService(db, logger)
	srv := server.New(svc, model, opts)
	if err := srv.Start(cfg.Server.Port); err != nil {
		fatal("server stopped", err)
	}
}

func newAssistant(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*assistant.Assistant, error) {
	google := ml.GoogleConfig{BaseConfig: ml.BaseConfig{ConfigPath: cfg.ML.ConfigPath}}
	if err := google.Load(); err != nil {
		return nil, err
	}
	client, err := ml.NewVertexClient(ctx, google)
	if err != nil {
		return nil, err
	}

	knowledge, err := assistant.LoadKnowledge(cfg.Assistant.KnowledgeDir)
	if err != nil {
		return nil, err
	}
	logger.Info("assistant knowledge loaded", "dir", cfg.Assistant.KnowledgeDir, "bytes", len(knowledge))

	gen := assistant.NewVertexGenerator(client, cfg.Assistant.Model)
	return assistant.New(gen, knowledge, logger), nil
}

func fatal(msg string, err error) {
	slog.Error(msg, "error", err)
	os.Exit(1)
}
