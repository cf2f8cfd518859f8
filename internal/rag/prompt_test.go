package rag

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"docqa/internal/models"
)

func TestBuildPromptRendersExcerpts(t *testing.T) {
	chunks := []models.Chunk{
		models.NewChunk("Lava flows downhill.", 1, 0),
		models.NewChunk("Violins carry the melody.", 2, 1),
	}
	p := BuildPrompt("What flows?", chunks)

	want := "QUESTION: What flows?\n=========\n" +
		"Content: Lava flows downhill.\nSource: 1-0\n\n" +
		"Content: Violins carry the melody.\nSource: 2-1\n" +
		"=========\nFINAL ANSWER:"
	assert.True(t, strings.HasSuffix(p.Text, want), p.Text)
	assert.Equal(t, []string{"1-0", "2-1"}, p.SourceIDs)
	assert.Equal(t, "What flows?", p.Question)
}

func TestBuildPromptWithoutChunks(t *testing.T) {
	p := BuildPrompt("Anything?", nil)
	assert.True(t, strings.HasSuffix(p.Text, "QUESTION: Anything?\n=========\n\n=========\nFINAL ANSWER:"))
	assert.Empty(t, p.SourceIDs)
}

func TestBuildPromptKeepsPreamble(t *testing.T) {
	p := BuildPrompt("q", nil)
	assert.True(t, strings.HasPrefix(p.Text, "Create a final answer"))
	assert.Contains(t, p.Text, "SOURCES")
}
