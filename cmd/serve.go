package main

import (
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"docqa/internal/rag"
	"docqa/internal/server"
)

func createServeCommand(configPath *string) *cobra.Command {
	var addr string
	var withWorker bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the multi-session HTTP API",
		Long:  "Serve the document QA API. Every session uploads its own document and queries it independently.",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := newApp(ctx, *configPath)
			if err != nil {
				return err
			}
			defer a.Close()

			if addr == "" {
				addr = a.cfg.Server.Addr
			}
			sessions := rag.NewSessionStore()
			defer sessions.Close()

			controller := server.NewRAGController(a.rag, sessions, a.cfg.Server.MaxUploadMB<<20)
			var worker *server.WorkerController
			if withWorker {
				worker, err = newWorkerController(ctx, a.cfg)
				if err != nil {
					return err
				}
			}

			log.Info().Str("addr", addr).Bool("worker", withWorker).Msg("Starting docqa API")
			return server.Run(ctx, addr, server.NewRouter(controller, worker))
		},
	}

	cmd.Flags().StringVarP(&addr, "addr", "a", "", "Listen address (default from config)")
	cmd.Flags().BoolVar(&withWorker, "with-worker", false, "Also serve the generation worker endpoint")

	return cmd
}
