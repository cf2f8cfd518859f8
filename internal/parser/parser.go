package parser

import (
	"archive/zip"
	"bytes"
	"fmt"
	"html"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/nguyenthenguyen/docx"
	"github.com/rs/zerolog/log"
	"github.com/xuri/excelize/v2"

	"docqa/internal/models"
)

const (
	TypePDF  = "pdf"
	TypeDOCX = "docx"
	TypeTXT  = "txt"
	TypePPTX = "pptx"
	TypeXLSX = "xlsx"
)

var (
	xmlTagRe   = regexp.MustCompile(models.XMLTagRegex)
	slideNumRe = regexp.MustCompile(`^ppt/slides/slide(\d+)\.xml$`)

	mimeTypes = map[string]string{
		"application/pdf": TypePDF,
		"application/vnd.openxmlformats-officedocument.wordprocessingml.document":   TypeDOCX,
		"application/vnd.openxmlformats-officedocument.presentationml.presentation": TypePPTX,
		"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet":         TypeXLSX,
		"text/plain": TypeTXT,
	}
)

// TypeFromFilename maps a file name to the declared type Extract expects.
func TypeFromFilename(name string) string {
	return strings.TrimPrefix(strings.ToLower(filepath.Ext(name)), ".")
}

// ParseFile reads a document from disk and extracts its text.
func ParseFile(filePath string) (models.DocumentText, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return models.DocumentText{}, err
	}
	return Extract(data, TypeFromFilename(filePath))
}

// Extract turns raw document bytes into text. The declared type may be a bare
// extension ("pdf"), a dotted one (".pdf") or a MIME type.
func Extract(data []byte, declaredType string) (models.DocumentText, error) {
	kind := canonicalType(declaredType)
	log.Debug().Str("type", kind).Int("bytes", len(data)).Msg("Extracting document")

	var (
		doc models.DocumentText
		err error
	)
	switch kind {
	case TypePDF:
		doc, err = parsePDF(data)
	case TypeDOCX:
		doc, err = parseDOCX(data)
	case TypeTXT:
		doc = models.FlatText(strings.ToValidUTF8(string(data), ""))
	case TypePPTX:
		doc, err = parsePPTX(data)
	case TypeXLSX:
		doc, err = parseXLSX(data)
	default:
		return models.DocumentText{}, fmt.Errorf("%w: file type %q not supported", models.ErrUnsupportedInput, declaredType)
	}
	if err != nil {
		return models.DocumentText{}, fmt.Errorf("%w: failed to read %s: %w", models.ErrInvalidInput, kind, err)
	}
	return doc, nil
}

func canonicalType(declared string) string {
	t := strings.ToLower(strings.TrimSpace(declared))
	if mapped, ok := mimeTypes[t]; ok {
		return mapped
	}
	return strings.TrimPrefix(t, ".")
}

func parsePDF(data []byte) (models.DocumentText, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return models.DocumentText{}, err
	}

	numPages := reader.NumPage()
	pages := make([]string, 0, numPages)
	for i := 1; i <= numPages; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			// keep numbering stable
			pages = append(pages, "")
			continue
		}
		pageText, err := page.GetPlainText(nil)
		if err != nil {
			return models.DocumentText{}, fmt.Errorf("page %d: %w", i, err)
		}
		pages = append(pages, pageText)
	}
	return models.DocumentText{Pages: pages, PageStructured: true}, nil
}

func parseDOCX(data []byte) (models.DocumentText, error) {
	r, err := docx.ReadDocxFromMemory(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return models.DocumentText{}, err
	}
	defer r.Close()

	return models.FlatText(xmlToText(r.Editable().GetContent(), "</w:p>")), nil
}

func parsePPTX(data []byte) (models.DocumentText, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return models.DocumentText{}, err
	}

	type slide struct {
		num  int
		text string
	}
	var slides []slide
	for _, file := range zr.File {
		m := slideNumRe.FindStringSubmatch(file.Name)
		if m == nil {
			continue
		}
		rc, err := file.Open()
		if err != nil {
			return models.DocumentText{}, err
		}
		content, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return models.DocumentText{}, err
		}
		num, _ := strconv.Atoi(m[1])
		slides = append(slides, slide{num: num, text: xmlToText(string(content), "</a:p>")})
	}
	sort.Slice(slides, func(i, j int) bool { return slides[i].num < slides[j].num })

	pages := make([]string, len(slides))
	for i, s := range slides {
		pages[i] = s.text
	}
	return models.DocumentText{Pages: pages}, nil
}

func parseXLSX(data []byte) (models.DocumentText, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return models.DocumentText{}, err
	}
	defer f.Close()

	var pages []string
	for _, sheetName := range f.GetSheetList() {
		rows, err := f.GetRows(sheetName)
		if err != nil {
			return models.DocumentText{}, fmt.Errorf("sheet %s: %w", sheetName, err)
		}
		var text strings.Builder
		text.WriteString(fmt.Sprintf("Sheet: %s\n", sheetName))
		for _, row := range rows {
			text.WriteString(strings.Join(row, "\t"))
			text.WriteString("\n")
		}
		pages = append(pages, text.String())
	}
	return models.DocumentText{Pages: pages}, nil
}

// xmlToText ends a line at every paragraph close tag, then drops markup.
func xmlToText(xmlContent, paragraphEnd string) string {
	withBreaks := strings.ReplaceAll(xmlContent, paragraphEnd, paragraphEnd+"\n")
	return html.UnescapeString(xmlTagRe.ReplaceAllString(withBreaks, ""))
}
