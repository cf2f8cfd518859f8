package rag

import (
	"fmt"
	"strings"

	"docqa/internal/models"
)

// Prompt is the fully rendered model input plus what went into it.
type Prompt struct {
	Text      string
	Question  string
	SourceIDs []string
}

// BuildPrompt fills the fixed answer template with the question and one
// Content/Source pair per chunk, in the given order. Zero chunks is allowed.
func BuildPrompt(question string, chunks []models.Chunk) Prompt {
	ids := make([]string, len(chunks))
	for i, c := range chunks {
		ids[i] = c.SourceID
	}
	return Prompt{
		Text:      fmt.Sprintf(models.AnswerPromptTemplate, question, renderExcerpts(chunks)),
		Question:  question,
		SourceIDs: ids,
	}
}

func renderExcerpts(chunks []models.Chunk) string {
	parts := make([]string, len(chunks))
	for i, c := range chunks {
		parts[i] = models.ContentPrefix + c.Content + "\n" + models.SourcePrefix + c.SourceID
	}
	return strings.Join(parts, models.ExcerptSeparator)
}
