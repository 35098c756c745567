package resume

import (
	"bytes"
	"fmt"
	"html"
	"path/filepath"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"
	"github.com/nguyenthenguyen/docx"

	apperrors "github.com/spigell/jobmatch/internal/errors"
)

type Format string

const (
	FormatPDF  Format = "pdf"
	FormatDOCX Format = "docx"
	FormatText Format = "text"
)

const (
	mimePDF  = "application/pdf"
	mimeDOCX = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	mimeText = "text/plain"
)

var (
	pdfMagic = []byte("%PDF-")
	zipMagic = []byte("PK\x03\x04")

	paragraphEnd = regexp.MustCompile(`</w:p>|<w:br[^>]*/>|<w:tab[^>]*/>`)
	xmlTag       = regexp.MustCompile(`<[^>]+>`)
	blankRuns    = regexp.MustCompile(`[ \t]+`)
)

// DetectFormat picks the document format from the MIME type, the file
// extension and finally the leading bytes.
func DetectFormat(doc Document) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(strings.Split(doc.MIME, ";")[0])) {
	case mimePDF:
		return FormatPDF, nil
	case mimeDOCX:
		return FormatDOCX, nil
	case mimeText, "text/markdown":
		return FormatText, nil
	}

	switch strings.ToLower(filepath.Ext(doc.Name)) {
	case ".pdf":
		return FormatPDF, nil
	case ".docx":
		return FormatDOCX, nil
	case ".txt", ".md", ".text":
		return FormatText, nil
	}

	switch {
	case bytes.HasPrefix(doc.Data, pdfMagic):
		return FormatPDF, nil
	case bytes.HasPrefix(doc.Data, zipMagic):
		return FormatDOCX, nil
	case len(doc.Data) > 0 && utf8.Valid(doc.Data):
		return FormatText, nil
	}

	return "", apperrors.Extraction(fmt.Sprintf("unsupported document %q", doc.Name), nil)
}

// ReadText returns the plain text of doc. Documents without any text
// (image-only PDFs, empty files) are EXTRACTION errors.
func ReadText(doc Document) (string, error) {
	format, err := DetectFormat(doc)
	if err != nil {
		return "", err
	}

	var text string
	switch format {
	case FormatPDF:
		text, err = readPDF(doc.Data)
	case FormatDOCX:
		text, err = readDOCX(doc.Data)
	default:
		if !utf8.Valid(doc.Data) {
			return "", apperrors.Extraction(fmt.Sprintf("reading %s", doc.Name), fmt.Errorf("text is not valid UTF-8"))
		}
		text = string(doc.Data)
	}
	if err != nil {
		return "", apperrors.Extraction(fmt.Sprintf("reading %s", doc.Name), err)
	}

	text = normalize(text)
	if text == "" {
		return "", apperrors.Extraction(fmt.Sprintf("reading %s", doc.Name), fmt.Errorf("no extractable text"))
	}

	return text, nil
}

func readPDF(data []byte) (text string, err error) {
	// The pdf package panics on some malformed inputs.
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("malformed pdf: %v", r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("failed to read pdf: %w", err)
	}

	var builder strings.Builder
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}

		content, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		builder.WriteString(content)
		builder.WriteString("\n")
	}

	return builder.String(), nil
}

func readDOCX(data []byte) (string, error) {
	doc, err := docx.ReadDocxFromMemory(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("failed to parse docx: %w", err)
	}
	defer doc.Close()

	return stripXML(doc.Editable().GetContent()), nil
}

func stripXML(content string) string {
	content = paragraphEnd.ReplaceAllString(content, "\n")
	content = xmlTag.ReplaceAllString(content, "")
	return html.UnescapeString(content)
}

func normalize(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")

	lines := strings.Split(text, "\n")
	cleaned := lines[:0]
	for _, line := range lines {
		line = strings.TrimSpace(blankRuns.ReplaceAllString(line, " "))
		if line != "" {
			cleaned = append(cleaned, line)
		}
	}

	return strings.Join(cleaned, "\n")
}
