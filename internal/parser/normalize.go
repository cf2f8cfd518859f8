package parser

import (
	"regexp"
	"strings"

	"github.com/dlclark/regexp2"
	"github.com/rs/zerolog/log"

	"docqa/internal/models"
)

var (
	hyphenBreakRe = regexp.MustCompile(models.HyphenBreakRegex)
	blankRunRe    = regexp.MustCompile(models.BlankRunRegex)
	// RE2 has no lookarounds.
	loneNewlineRe = regexp2.MustCompile(models.LoneNewlineRegex, regexp2.None)

	lineEndings = strings.NewReplacer("\r\n", "\n", "\r", "\n")
)

// Normalize cleans extracted text. Blank-line runs collapse to a single blank
// line. For page-structured sources, words hyphenated across a line break are
// rejoined and the remaining single line breaks fold into spaces, leaving
// paragraph breaks intact. Normalize(Normalize(s)) == Normalize(s).
func Normalize(raw string, pageStructured bool) string {
	text := lineEndings.Replace(raw)

	if pageStructured {
		text = hyphenBreakRe.ReplaceAllString(text, "${1}${2}")
	}
	text = blankRunRe.ReplaceAllString(text, "\n\n")
	if !pageStructured {
		return text
	}

	folded, err := loneNewlineRe.Replace(text, " ", -1, -1)
	if err != nil {
		log.Warn().Err(err).Msg("Line folding failed, keeping line breaks")
		return strings.TrimSpace(text)
	}
	return strings.TrimSpace(folded)
}

// NormalizeDocument normalizes every page of doc.
func NormalizeDocument(doc models.DocumentText) models.DocumentText {
	pages := make([]string, len(doc.Pages))
	for i, page := range doc.Pages {
		pages[i] = Normalize(page, doc.PageStructured)
	}
	return models.DocumentText{Pages: pages, PageStructured: doc.PageStructured}
}
