package render

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
	"github.com/yuin/goldmark/util"

	"docqa/internal/models"
)

const pageBreak = "<hr/>\n"

// escaped <sup><b>1-0, 2-3</b></sup>; the closing tag is sometimes </sub>
var escapedCitationRe = regexp.MustCompile(`&lt;sup&gt;&lt;b&gt;(\d+-\d+(?:,\s*\d+-\d+)*)&lt;/b&gt;&lt;/su[bp]&gt;`)

var (
	documentMarkdown = goldmark.New(
		goldmark.WithExtensions(extension.GFM),
		goldmark.WithRendererOptions(
			html.WithHardWraps(),
			html.WithXHTML(),
		),
	)
	answerMarkdown = goldmark.New(
		goldmark.WithExtensions(extension.GFM),
		goldmark.WithRendererOptions(
			html.WithHardWraps(),
		),
	)
)

// DocumentHTML renders the normalized document, one block per page with a
// horizontal rule between pages.
func DocumentHTML(doc models.DocumentText) (string, error) {
	var out strings.Builder
	for i, page := range doc.Pages {
		if i > 0 {
			out.WriteString(pageBreak)
		}
		s, err := convert(documentMarkdown, page)
		if err != nil {
			return "", fmt.Errorf("failed to render page %d: %w", i+1, err)
		}
		out.WriteString(s)
	}
	return out.String(), nil
}

// AnswerHTML renders the answer text. Any HTML the model wrote is shown as
// text, except inline <sup><b>#-#</b></sup> citations.
func AnswerHTML(answer models.ParsedAnswer) (string, error) {
	out, err := convert(answerMarkdown, string(util.EscapeHTML([]byte(answer.AnswerText))))
	if err != nil {
		return "", err
	}
	return escapedCitationRe.ReplaceAllString(out, "<sup><b>$1</b></sup>"), nil
}

func convert(md goldmark.Markdown, text string) (string, error) {
	var buf bytes.Buffer
	if err := md.Convert([]byte(text), &buf); err != nil {
		return "", err
	}
	return strings.Trim(buf.String(), " \t\n\r") + "\n", nil
}
