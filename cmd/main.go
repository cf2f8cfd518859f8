package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"docqa/internal/config"
)

func main() {
	var configPath string

	rootCmd := &cobra.Command{
		Use:           "docqa",
		Short:         "Ask questions about a document",
		Long:          "docqa indexes one PDF, DOCX, PPTX, XLSX or text document and answers questions about it with cited sources.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", config.DefaultPath, "Path to config YAML")

	rootCmd.AddCommand(createAskCommand(&configPath))
	rootCmd.AddCommand(createServeCommand(&configPath))
	rootCmd.AddCommand(createChatCommand(&configPath))
	rootCmd.AddCommand(createWorkerCommand(&configPath))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		log.Fatal().Err(err).Msg("docqa failed")
	}
}
