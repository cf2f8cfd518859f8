package main

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"docqa/internal/config"
	"docqa/internal/db"
	"docqa/internal/embedding"
	"docqa/internal/helper"
	"docqa/internal/llmservice"
	"docqa/internal/models"
	"docqa/internal/parser"
	"docqa/internal/rag"
)

type app struct {
	cfg     *config.Config
	rag     *rag.RAG
	closers []func() error
}

func loadConfig(path string) (*config.Config, error) {
	cfg, err := config.LoadConfig(path)
	if err != nil {
		return nil, fmt.Errorf("error loading config: %w", err)
	}
	helper.SetupLogger(cfg.Log.Level, cfg.Log.Console)
	log.Debug().Str("path", path).Str("llm", cfg.LLM.Provider).Str("embedding", cfg.Embedding.Provider).
		Str("index", cfg.Index.Backend).Msg("Loaded config")
	return cfg, nil
}

// newApp wires the configured embedder, generator and vector store into a
// pipeline.
func newApp(ctx context.Context, configPath string) (*app, error) {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return nil, err
	}
	a := &app{cfg: cfg}

	embedder, err := embedding.New(ctx, &cfg.Embedding)
	if err != nil {
		return nil, fmt.Errorf("error initializing embedder: %w", err)
	}
	generator, err := llmservice.New(ctx, &cfg.LLM)
	if err != nil {
		return nil, fmt.Errorf("error initializing generator: %w", err)
	}
	stores, err := a.stores(ctx)
	if err != nil {
		a.Close()
		return nil, err
	}

	a.rag, err = rag.NewRAG(rag.Options{
		Embedder:   embedder,
		EmbedderID: embedding.Identity(&cfg.Embedding),
		Generator:  generator,
		Stores:     stores,
		Chunking:   parser.ChunkOptionsFromConfig(&cfg.RAG),
		TopK:       cfg.RAG.TopK,
		Params: llmservice.Params{
			Model:       cfg.LLM.Model,
			Temperature: cfg.LLM.Temperature,
			Streaming:   cfg.LLM.Streaming,
		},
	})
	if err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

func (a *app) stores(ctx context.Context) (rag.StoreFactory, error) {
	switch a.cfg.Index.Backend {
	case "memory":
		return rag.MemoryStores(), nil
	case "pgvector":
		dbClient, err := db.ConnectDB(&a.cfg.Database)
		if err != nil {
			return nil, fmt.Errorf("error connecting to database: %w", err)
		}
		dbInstance := db.NewDB(dbClient, a.cfg.Database.Debug)
		a.closers = append(a.closers, dbInstance.Close)
		if err := db.InitDB(ctx, dbInstance); err != nil {
			return nil, fmt.Errorf("error initializing database: %w", err)
		}
		return rag.PGVectorStores(dbInstance), nil
	}
	return nil, fmt.Errorf("%w: index backend %q", models.ErrInvalidInput, a.cfg.Index.Backend)
}

func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			log.Warn().Err(err).Msg("Error during shutdown")
		}
	}
	a.closers = nil
}

// loadDocument parses path and indexes it into sess.
func (a *app) loadDocument(ctx context.Context, sess *rag.Session, path string) (*rag.UploadResult, error) {
	doc, err := parser.ParseFile(path)
	if err != nil {
		return nil, fmt.Errorf("error parsing document: %w", err)
	}
	result, err := a.rag.Upload(ctx, sess, doc)
	if err != nil {
		return nil, fmt.Errorf("error indexing document: %w", err)
	}
	log.Info().Str("file", path).Int("pages", result.Pages).Int("chunks", result.Chunks).Msg("Document ready")
	return result, nil
}
