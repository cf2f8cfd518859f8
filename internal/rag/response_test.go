package rag

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"docqa/internal/models"
)

var candidates = []models.Chunk{
	models.NewChunk("first", 1, 0),
	models.NewChunk("second", 2, 1),
	models.NewChunk("third", 3, 2),
}

func TestParseResponseCitations(t *testing.T) {
	got := ParseResponse("Answer text. SOURCES: 1-0, 2-1", candidates, true)

	assert.True(t, got.MarkerFound)
	assert.Equal(t, "Answer text. ", got.AnswerText)
	assert.Equal(t, []string{"1-0", "2-1"}, got.CitedSourceIDs)
	assert.Equal(t, []models.Chunk{candidates[0], candidates[1]}, got.CitedChunks)
	assert.Empty(t, got.DroppedSourceIDs)
}

func TestParseResponseCitedChunksFollowCandidateOrder(t *testing.T) {
	got := ParseResponse("x SOURCES: 3-2,1-0,3-2", candidates, true)
	assert.Equal(t, []string{"3-2", "1-0"}, got.CitedSourceIDs)
	assert.Equal(t, []models.Chunk{candidates[0], candidates[2]}, got.CitedChunks)
}

func TestParseResponseDropsUnknownIDs(t *testing.T) {
	got := ParseResponse("x SOURCES: 9-9, 2-1, ", candidates, true)
	assert.Equal(t, []string{"9-9", "2-1"}, got.CitedSourceIDs)
	assert.Equal(t, []models.Chunk{candidates[1]}, got.CitedChunks)
	assert.Equal(t, []string{"9-9"}, got.DroppedSourceIDs)
}

func TestParseResponseWithoutMarker(t *testing.T) {
	got := ParseResponse("I do not know.", candidates, true)
	assert.False(t, got.MarkerFound)
	assert.Equal(t, "I do not know.", got.AnswerText)
	assert.Empty(t, got.CitedSourceIDs)
	assert.NotNil(t, got.CitedChunks)
}

func TestParseResponseRepeatedMarker(t *testing.T) {
	got := ParseResponse("a SOURCES: 1-0SOURCES: , 2-1", candidates, true)
	assert.Equal(t, "a ", got.AnswerText)
	assert.Equal(t, []string{"1-0", "2-1"}, got.CitedSourceIDs)
}

func TestParseResponseSourcesOnly(t *testing.T) {
	got := ParseResponse("Answer text. SOURCES: 1-0", candidates, false)
	assert.Empty(t, got.AnswerText)
	assert.Equal(t, []string{"1-0"}, got.CitedSourceIDs)
}

func TestParseResponseEmptySources(t *testing.T) {
	got := ParseResponse("Not in the document. SOURCES: ", candidates, true)
	assert.True(t, got.MarkerFound)
	assert.Empty(t, got.CitedSourceIDs)
	assert.Empty(t, got.CitedChunks)
}
