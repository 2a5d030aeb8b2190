// Package fileparse extracts text from uploaded PDF and DOCX files and
// suggests a song title from it. Extraction is best-effort: unreadable
// files yield empty text and no suggestion.
package fileparse

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"io"
	"strings"

	"github.com/ledongthuc/pdf"
)

// File types recognized by Type.
const (
	TypePDF  = "pdf"
	TypeDOCX = "docx"
	TypeDoc  = "doc" // legacy format, recognized but unsupported
)

// Type classifies a filename; empty string means unsupported.
func Type(filename string) string {
	lower := strings.ToLower(filename)
	switch {
	case strings.HasSuffix(lower, ".pdf"):
		return TypePDF
	case strings.HasSuffix(lower, ".docx"):
		return TypeDOCX
	case strings.HasSuffix(lower, ".doc"):
		return TypeDoc
	}
	return ""
}

// Parse extracts the text of a supported file and suggests a title.
func Parse(data []byte, filename string) (text, suggestedTitle string) {
	switch Type(filename) {
	case TypePDF:
		text = extractPDF(data)
	case TypeDOCX:
		text = extractDOCX(data)
	default:
		return "", ""
	}
	return text, ExtractTitle(text)
}

func extractPDF(data []byte) (text string) {
	// The pdf package panics on some malformed files.
	defer func() {
		if r := recover(); r != nil {
			text = ""
		}
	}()
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return ""
	}
	plain, err := reader.GetPlainText()
	if err != nil {
		return ""
	}
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, plain); err != nil {
		return ""
	}
	return buf.String()
}

// extractDOCX pulls paragraph text out of word/document.xml. DOCX is a zip
// archive; w:t elements carry the runs, w:p ends a paragraph.
func extractDOCX(data []byte) string {
	archive, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return ""
	}
	var doc *zip.File
	for _, f := range archive.File {
		if f.Name == "word/document.xml" {
			doc = f
			break
		}
	}
	if doc == nil {
		return ""
	}
	rc, err := doc.Open()
	if err != nil {
		return ""
	}
	defer rc.Close()

	var out strings.Builder
	var inText bool
	decoder := xml.NewDecoder(rc)
	for {
		tok, err := decoder.Token()
		if err != nil {
			break
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Local == "t" {
				inText = true
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				out.WriteByte('\n')
			}
		case xml.CharData:
			if inText {
				out.Write(t)
			}
		}
	}
	return out.String()
}

// Lines matching these fragments are metadata, not titles.
var skipPatterns = []string{
	"page", "сторінка", "стр.", "copyright", "©",
	"author", "автор", "music", "музика", "text", "текст",
	"arrangement", "аранжування", "arr.", "ар.",
}

// ExtractTitle returns the first meaningful line of the text: at least 3
// characters, not purely numeric, not a known metadata line.
func ExtractTitle(text string) string {
	for _, line := range strings.Split(strings.TrimSpace(text), "\n") {
		clean := strings.TrimSpace(line)
		if len([]rune(clean)) < 3 {
			continue
		}
		if isDigits(clean) {
			continue
		}
		lower := strings.ToLower(clean)
		if containsAny(lower, skipPatterns) {
			continue
		}
		return clean
	}
	return ""
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return len(s) > 0
}

func containsAny(s string, patterns []string) bool {
	for _, p := range patterns {
		if strings.Contains(s, p) {
			return true
		}
	}
	return false
}
