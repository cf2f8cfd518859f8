package parser

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/tmc/langchaingo/textsplitter"

	"docqa/internal/config"
	"docqa/internal/models"
)

const (
	defaultChunkSize    = 1000
	defaultChunkOverlap = 0
)

// ChunkOptions controls recursive splitting.
type ChunkOptions struct {
	ChunkSize  int
	Overlap    int
	Separators []string
}

// DefaultChunkOptions returns size 1000, no overlap, coarse-to-fine separators.
func DefaultChunkOptions() ChunkOptions {
	return ChunkOptions{
		ChunkSize:  defaultChunkSize,
		Overlap:    defaultChunkOverlap,
		Separators: append([]string(nil), config.DefaultSeparators...),
	}
}

// ChunkOptionsFromConfig reads chunking parameters from the rag config section.
func ChunkOptionsFromConfig(cfg *config.RAGConfig) ChunkOptions {
	opts := DefaultChunkOptions()
	if cfg == nil {
		return opts
	}
	if cfg.ChunkSize > 0 {
		opts.ChunkSize = cfg.ChunkSize
	}
	opts.Overlap = cfg.ChunkOverlap
	if len(cfg.Separators) > 0 {
		opts.Separators = append([]string(nil), cfg.Separators...)
	}
	return opts
}

func (o ChunkOptions) Validate() error {
	if o.ChunkSize <= 0 {
		return fmt.Errorf("%w: chunk size must be positive, got %d", models.ErrInvalidInput, o.ChunkSize)
	}
	if o.Overlap < 0 || o.Overlap >= o.ChunkSize {
		return fmt.Errorf("%w: overlap %d must be in [0, %d)", models.ErrInvalidInput, o.Overlap, o.ChunkSize)
	}
	if len(o.Separators) == 0 {
		return fmt.Errorf("%w: at least one separator is required", models.ErrInvalidInput)
	}
	return nil
}

// Chunk splits every page of doc and stamps each piece with its page (1-based)
// and its position within the page (0-based). Output is page-ascending then
// chunk-ascending; pages with no text contribute no chunks.
func Chunk(doc models.DocumentText, opts ChunkOptions) ([]models.Chunk, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	splitter := textsplitter.NewRecursiveCharacter(
		textsplitter.WithChunkSize(opts.ChunkSize),
		textsplitter.WithChunkOverlap(opts.Overlap),
		textsplitter.WithSeparators(opts.Separators),
	)

	var chunks []models.Chunk
	for i, page := range doc.Pages {
		pageNum := i + 1
		if strings.TrimSpace(page) == "" {
			continue
		}
		pieces, err := splitter.SplitText(page)
		if err != nil {
			return nil, fmt.Errorf("failed to split page %d: %w", pageNum, err)
		}
		chunks = append(chunks, getChunks(pieces, pageNum, opts.ChunkSize)...)
	}

	log.Debug().Int("pages", len(doc.Pages)).Int("chunks", len(chunks)).Msg("Chunked document")
	return chunks, nil
}

// get chunks from split pieces and page number
func getChunks(pieces []string, pageNumber, chunkSize int) []models.Chunk {
	var chunks []models.Chunk
	for _, piece := range pieces {
		if strings.TrimSpace(piece) == "" {
			continue
		}
		for _, part := range hardCut(piece, chunkSize) {
			chunks = append(chunks, models.NewChunk(part, pageNumber, len(chunks)))
		}
	}
	return chunks
}

// hardCut enforces the size bound on pieces the splitter could not break,
// which only happens when the separator list lacks "".
func hardCut(piece string, chunkSize int) []string {
	runes := []rune(piece)
	if len(runes) <= chunkSize {
		return []string{piece}
	}
	var parts []string
	for start := 0; start < len(runes); start += chunkSize {
		end := min(start+chunkSize, len(runes))
		parts = append(parts, string(runes[start:end]))
	}
	return parts
}
