package fileparse

import (
	"archive/zip"
	"bytes"
	"testing"
)

func TestType(t *testing.T) {
	cases := map[string]string{
		"song.pdf":   TypePDF,
		"SONG.PDF":   TypePDF,
		"ноти.docx":  TypeDOCX,
		"old.doc":    TypeDoc,
		"image.png":  "",
		"":           "",
		"noext":      "",
		"song.pdf.x": "",
	}
	for name, want := range cases {
		if got := Type(name); got != want {
			t.Errorf("Type(%q) = %q, want %q", name, got, want)
		}
	}
}

func TestExtractTitle(t *testing.T) {
	cases := []struct {
		name, text, want string
	}{
		{"first line", "Пісня Миру\nкуплет перший", "Пісня Миру"},
		{"skips page numbers", "1\nПісня Миру", "Пісня Миру"},
		{"skips short lines", "ля\nПісня Миру", "Пісня Миру"},
		{"skips metadata", "Музика: Хтось\nПісня Миру", "Пісня Миру"},
		{"skips blank lines", "\n\n  \nАлілуя всім", "Алілуя всім"},
		{"empty text", "", ""},
		{"only metadata", "сторінка 1\nautor", ""},
	}
	for _, c := range cases {
		if got := ExtractTitle(c.text); got != c.want {
			t.Errorf("%s: ExtractTitle = %q, want %q", c.name, got, c.want)
		}
	}
}

// buildDocx assembles a minimal DOCX archive with the given paragraphs.
func buildDocx(t *testing.T, paragraphs []string) []byte {
	t.Helper()
	var body bytes.Buffer
	body.WriteString(`<?xml version="1.0"?><w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>`)
	for _, p := range paragraphs {
		body.WriteString(`<w:p><w:r><w:t>`)
		_ = bytesEscape(&body, p)
		body.WriteString(`</w:t></w:r></w:p>`)
	}
	body.WriteString(`</w:body></w:document>`)

	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	f, err := w.Create("word/document.xml")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := f.Write(body.Bytes()); err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func bytesEscape(buf *bytes.Buffer, s string) error {
	for _, r := range s {
		switch r {
		case '<':
			buf.WriteString("&lt;")
		case '>':
			buf.WriteString("&gt;")
		case '&':
			buf.WriteString("&amp;")
		default:
			buf.WriteRune(r)
		}
	}
	return nil
}

func TestParseDocx(t *testing.T) {
	data := buildDocx(t, []string{"Пісня Миру", "куплет перший", "куплет другий"})

	text, title := Parse(data, "song.docx")
	if title != "Пісня Миру" {
		t.Errorf("expected suggested title, got %q", title)
	}
	if text == "" {
		t.Error("expected extracted text")
	}
}

func TestParseUnsupported(t *testing.T) {
	text, title := Parse([]byte("anything"), "song.txt")
	if text != "" || title != "" {
		t.Errorf("unsupported file must yield nothing, got %q / %q", text, title)
	}
}

func TestParseCorruptPDF(t *testing.T) {
	text, title := Parse([]byte("not a pdf at all"), "song.pdf")
	if text != "" || title != "" {
		t.Errorf("corrupt file must yield nothing, got %q / %q", text, title)
	}
}
