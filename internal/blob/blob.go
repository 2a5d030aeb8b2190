// Package blob archives uploaded song files outside the chat platform and
// returns shareable links. Archival is best-effort: callers treat a failed
// upload as "no link", never as a failed submission.
package blob

import (
	"context"
	"strings"
	"unicode"
)

// Archive stores a copy of an uploaded file and returns a link to it.
type Archive interface {
	Upload(ctx context.Context, data []byte, filename, title string) (string, error)
}

func contentType(filename string) (mime, ext string) {
	lower := strings.ToLower(filename)
	switch {
	case strings.HasSuffix(lower, ".pdf"):
		return "application/pdf", ".pdf"
	case strings.HasSuffix(lower, ".docx"):
		return "application/vnd.openxmlformats-officedocument.wordprocessingml.document", ".docx"
	}
	return "application/octet-stream", ""
}

// safeName derives an archive filename from the song title.
func safeName(title, ext string) string {
	var b strings.Builder
	for _, r := range title {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == ' ' || r == '-' || r == '_' {
			b.WriteRune(r)
		}
	}
	name := strings.TrimSpace(b.String())
	if runes := []rune(name); len(runes) > 100 {
		name = string(runes[:100])
	}
	if name == "" {
		name = "song"
	}
	return name + ext
}
