package main

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"docqa/internal/config"
	"docqa/internal/llmservice"
	"docqa/internal/server"
)

func createWorkerCommand(configPath *string) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "worker",
		Short: "Serve text generation for remote dispatch",
		Long:  "Run the configured LLM provider behind an HTTP endpoint so other docqa processes can dispatch generation to it.",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := loadConfig(*configPath)
			if err != nil {
				return err
			}
			worker, err := newWorkerController(ctx, cfg)
			if err != nil {
				return err
			}
			if addr == "" {
				addr = cfg.Server.Addr
			}
			log.Info().Str("addr", addr).Str("provider", cfg.LLM.Provider).Msg("Starting generation worker")
			return server.Run(ctx, addr, server.NewRouter(nil, worker))
		},
	}

	cmd.Flags().StringVarP(&addr, "addr", "a", "", "Listen address (default from config)")

	return cmd
}

// newWorkerController always generates locally; a worker that dispatched
// remotely could loop back to itself.
func newWorkerController(ctx context.Context, cfg *config.Config) (*server.WorkerController, error) {
	llmCfg := cfg.LLM
	llmCfg.Dispatch = "local"
	generator, err := llmservice.New(ctx, &llmCfg)
	if err != nil {
		return nil, fmt.Errorf("error initializing generator: %w", err)
	}
	return server.NewWorkerController(generator), nil
}
