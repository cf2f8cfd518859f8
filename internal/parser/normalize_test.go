package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"docqa/internal/models"
)

func TestNormalizeHyphenMerge(t *testing.T) {
	assert.Equal(t, "example", Normalize("exam-\nple", true))
	assert.Equal(t, "an example here", Normalize("an exam-\nple here", true))
}

func TestNormalizeHyphenOnlyForPagedSources(t *testing.T) {
	assert.Equal(t, "exam-\nple", Normalize("exam-\nple", false))
}

func TestNormalizeFoldsLineWraps(t *testing.T) {
	in := "The quick brown\nfox jumps.\n\nA new\nparagraph."
	assert.Equal(t, "The quick brown fox jumps.\n\nA new paragraph.", Normalize(in, true))
}

func TestNormalizeCollapsesBlankRuns(t *testing.T) {
	tests := []struct {
		name  string
		in    string
		paged bool
		want  string
	}{
		{"flat triple", "a\n\n\n\nb", false, "a\n\nb"},
		{"flat whitespace lines", "a\n  \n\t\n b", false, "a\n\n b"},
		{"paged triple", "a\n\n\n\nb", true, "a\n\nb"},
		{"crlf", "a\r\n\r\n\r\nb", false, "a\n\nb"},
		{"single newline flat kept", "a\nb", false, "a\nb"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.in, tt.paged))
		})
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	inputs := []string{
		"",
		"plain",
		"exam-\nple and more-\nwords\n\n\n\nnext page-\n\nbreak",
		"line one\nline two\n \n\nline three\r\nline four",
		"a-\nb-\nc",
		"  leading\n\n\ntrailing  \n\n",
		"tabs\t\n\t\nand\n\n\n\n\nspaces",
		"ünï-\ncødé wörds\nwrapped",
	}
	for _, in := range inputs {
		for _, paged := range []bool{true, false} {
			once := Normalize(in, paged)
			assert.Equal(t, once, Normalize(once, paged), "input %q paged=%v", in, paged)
		}
	}
}

func TestNormalizeDocument(t *testing.T) {
	doc := models.DocumentText{
		Pages:          []string{"exam-\nple", "one\ntwo"},
		PageStructured: true,
	}
	got := NormalizeDocument(doc)

	assert.Equal(t, []string{"example", "one two"}, got.Pages)
	assert.True(t, got.PageStructured)
	assert.Equal(t, "exam-\nple", doc.Pages[0], "input must not be mutated")
}
