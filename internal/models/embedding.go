package models

import "fmt"

// Chunk is a contiguous span of document text with its page-scoped identity.
type Chunk struct {
	Content    string `json:"content"`
	PageNumber int    `json:"page"`
	ChunkID    int    `json:"chunk_index"`
	SourceID   string `json:"source_id"`
}

// NewChunk builds a chunk and stamps its source id.
func NewChunk(content string, page, chunkID int) Chunk {
	return Chunk{
		Content:    content,
		PageNumber: page,
		ChunkID:    chunkID,
		SourceID:   SourceID(page, chunkID),
	}
}

// SourceID formats the citation key shared by the prompt, the model and the parser.
func SourceID(page, chunkID int) string {
	return fmt.Sprintf("%d-%d", page, chunkID)
}

// DocumentText is the extracted text of one upload, either a single flat
// string (one page) or an ordered list of pages.
type DocumentText struct {
	Pages []string `json:"pages"`
	// PageStructured marks PDF-like sources whose line wraps need repair.
	PageStructured bool `json:"page_structured"`
}

// FlatText wraps a single string as a one page document.
func FlatText(text string) DocumentText {
	return DocumentText{Pages: []string{text}}
}

// ScoredChunk is a retrieval hit.
type ScoredChunk struct {
	Chunk Chunk   `json:"chunk"`
	Score float32 `json:"score"`
}

// Query is one user question against the current document.
type Query struct {
	Text        string   `json:"query"`
	TopK        int      `json:"top_k"`
	Temperature *float64 `json:"temperature,omitempty"`
	Streaming   bool     `json:"stream"`
	// SourcesOnly drops the answer text from the parsed result.
	SourcesOnly bool `json:"sources_only"`
}

// ParsedAnswer is the model answer split from its citations.
type ParsedAnswer struct {
	AnswerText       string   `json:"answer,omitempty"`
	CitedSourceIDs   []string `json:"cited_source_ids"`
	CitedChunks      []Chunk  `json:"cited_chunks"`
	MarkerFound      bool     `json:"sources_marker_found"`
	DroppedSourceIDs []string `json:"dropped_source_ids,omitempty"`
}

type PromptResponse struct {
	Query   string       `json:"query"`
	Answer  ParsedAnswer `json:"answer"`
	Context []Chunk      `json:"context"`
	Raw     string       `json:"raw,omitempty"`
}
