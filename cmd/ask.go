package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"docqa/internal/helper"
	"docqa/internal/llmservice"
	"docqa/internal/models"
	"docqa/internal/rag"
	"docqa/internal/render"
)

type askOptions struct {
	file        string
	query       string
	topK        int
	temperature float64
	stream      bool
	sourcesOnly bool
	html        bool
	json        bool
}

func createAskCommand(configPath *string) *cobra.Command {
	var opts askOptions

	cmd := &cobra.Command{
		Use:   "ask",
		Short: "Answer one question about a document",
		Long:  "Index a document, answer a single question against it and print the answer with its cited sources.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("temperature") {
				return runAsk(cmd, *configPath, opts, &opts.temperature)
			}
			return runAsk(cmd, *configPath, opts, nil)
		},
	}

	cmd.Flags().StringVarP(&opts.file, "file", "f", "", "Document to query (.pdf, .docx, .pptx, .xlsx, .txt)")
	cmd.Flags().StringVarP(&opts.query, "query", "q", "", "Question to answer")
	cmd.Flags().IntVarP(&opts.topK, "top-k", "k", 0, "Number of excerpts to retrieve (0 = config default)")
	cmd.Flags().Float64VarP(&opts.temperature, "temperature", "t", 0, "Sampling temperature override")
	cmd.Flags().BoolVarP(&opts.stream, "stream", "s", false, "Print the answer as it is generated (default from config)")
	cmd.Flags().BoolVar(&opts.sourcesOnly, "sources-only", false, "Print only the cited sources")
	cmd.Flags().BoolVar(&opts.html, "html", false, "Print the answer as HTML")
	cmd.Flags().BoolVar(&opts.json, "json", false, "Print the full response as JSON")
	cmd.MarkFlagRequired("file")
	cmd.MarkFlagRequired("query")

	return cmd
}

func runAsk(cmd *cobra.Command, configPath string, opts askOptions, temperature *float64) error {
	ctx := cmd.Context()
	a, err := newApp(ctx, configPath)
	if err != nil {
		return err
	}
	defer a.Close()

	sess := rag.NewSession("cli")
	defer sess.Close()
	if _, err := a.loadDocument(ctx, sess, opts.file); err != nil {
		return err
	}

	if !cmd.Flags().Changed("stream") {
		opts.stream = a.cfg.LLM.Streaming
	}
	streaming := opts.stream && !opts.json && !opts.html && !opts.sourcesOnly
	var sink llmservice.TokenSink
	if streaming {
		sink = llmservice.WriterSink{W: os.Stdout}
	}
	resp, err := a.rag.Ask(ctx, sess, models.Query{
		Text:        opts.query,
		TopK:        opts.topK,
		Temperature: temperature,
		Streaming:   streaming,
		SourcesOnly: opts.sourcesOnly,
	}, sink)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	switch {
	case opts.json:
		helper.PrettyPrint(out, resp)
		return nil
	case opts.html:
		html, err := render.AnswerHTML(resp.Answer)
		if err != nil {
			return err
		}
		fmt.Fprint(out, html)
	case !streaming && !opts.sourcesOnly:
		fmt.Fprintln(out, strings.TrimSpace(resp.Answer.AnswerText))
	}

	fmt.Fprintln(out)
	fmt.Fprintln(out, "Sources:")
	if len(resp.Answer.CitedChunks) == 0 {
		fmt.Fprintln(out, "  (none)")
	}
	for _, c := range resp.Answer.CitedChunks {
		fmt.Fprintf(out, "  [%s] page %d\n", c.SourceID, c.PageNumber)
	}
	return nil
}
