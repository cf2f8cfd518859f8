package rag

import (
	"strings"

	"github.com/rs/zerolog/log"

	"docqa/internal/models"
)

// ParseResponse splits a raw completion at the SOURCES marker. Text before
// the first marker is the answer; everything after it, concatenated, is a
// comma separated citation list. Cited chunks come back in candidate order;
// ids that match no candidate are dropped. A response without the marker is
// all answer and no citations.
func ParseResponse(raw string, candidates []models.Chunk, includeAnswer bool) models.ParsedAnswer {
	parts := strings.Split(raw, models.SourcesMarker)
	answer := parts[0]
	citations := strings.Join(parts[1:], "")

	parsed := models.ParsedAnswer{
		MarkerFound:    len(parts) > 1,
		CitedSourceIDs: []string{},
		CitedChunks:    []models.Chunk{},
	}
	if includeAnswer {
		parsed.AnswerText = answer
	}
	if !parsed.MarkerFound {
		log.Warn().Msg("Model response has no SOURCES section")
		return parsed
	}

	seen := map[string]bool{}
	for _, piece := range strings.Split(citations, ",") {
		id := strings.TrimSpace(piece)
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		parsed.CitedSourceIDs = append(parsed.CitedSourceIDs, id)
	}

	known := map[string]bool{}
	for _, c := range candidates {
		known[c.SourceID] = true
		if seen[c.SourceID] {
			parsed.CitedChunks = append(parsed.CitedChunks, c)
		}
	}
	for _, id := range parsed.CitedSourceIDs {
		if !known[id] {
			parsed.DroppedSourceIDs = append(parsed.DroppedSourceIDs, id)
		}
	}
	if len(parsed.DroppedSourceIDs) > 0 {
		log.Warn().Strs("source_ids", parsed.DroppedSourceIDs).Msg("Model cited sources outside the retrieved set")
	}
	return parsed
}
