package main

import (
	"context"
	"io"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"docqa/internal/rag"
	"docqa/internal/tui"
)

func createChatCommand(configPath *string) *cobra.Command {
	var file string
	var watch bool
	var topK int

	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Chat with a document in the terminal",
		Long:  "Index a document and open an interactive terminal chat over it. With --watch the document is re-indexed whenever it changes on disk.",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()

			a, err := newApp(ctx, *configPath)
			if err != nil {
				return err
			}
			defer a.Close()

			sess := rag.NewSession("chat")
			defer sess.Close()
			if _, err := a.loadDocument(ctx, sess, file); err != nil {
				return err
			}

			// the alternate screen owns the terminal from here on
			log.Logger = log.Logger.Output(io.Discard)

			p := tea.NewProgram(tui.New(ctx, a.rag, sess, file, topK), tea.WithAltScreen())
			if watch {
				go func() {
					if err := tui.Watch(ctx, file, func() { p.Send(tui.FileChangedMsg{Path: file}) }); err != nil {
						p.Send(tui.WatchFailedMsg{Err: err})
					}
				}()
			}
			_, err = p.Run()
			return err
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "Document to chat with")
	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "Re-index the document when it changes")
	cmd.Flags().IntVarP(&topK, "top-k", "k", 0, "Number of excerpts to retrieve (0 = config default)")
	cmd.MarkFlagRequired("file")

	return cmd
}
