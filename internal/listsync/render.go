// Package listsync keeps the pinned repertoire list in the group chat in
// step with the catalog. The full catalog is rendered to markdown, split
// into a fixed number of shards, and reconciled against the stored shard
// message ids after every catalog mutation.
package listsync

import (
	"fmt"
	"strings"
	"time"

	"choirbot/internal/catalog"
)

// ShardCount is the fixed number of display messages. Content beyond what
// fits into ShardCount shards is truncated; growing the count would break
// the pinning contract, so this stays a constant.
const ShardCount = 3

// maxShardChars leaves headroom under the 4096-char transport limit for
// headers and markup.
const maxShardChars = 3800

var categoryEmoji = map[string]string{
	"Новий рік":  "🎄",
	"Різдво":     "✨",
	"В'їзд":      "🌿",
	"Вечеря":     "🍷",
	"Пасха":      "🔆",
	"Вознесіння": "☁️",
	"Трійця":     "🕊️",
	"Свято Жнив": "🌾",
	"Інші":       "📁",
}

// Render produces the full repertoire document: entries grouped by category
// in the canonical category order, insertion order within a category, one
// global running number, and a trailing count/timestamp summary.
func Render(entries []catalog.Entry, now time.Time) string {
	if len(entries) == 0 {
		return "📋 *Репертуар хору*\n\n_Поки що порожній_"
	}

	grouped := make(map[string][]catalog.Entry, len(catalog.Categories))
	for _, e := range entries {
		cat := e.Category
		if !catalog.IsCategory(cat) {
			cat = catalog.DefaultCategory
		}
		grouped[cat] = append(grouped[cat], e)
	}

	lines := []string{"📋 *Репертуар хору*\n"}
	count := 1
	for _, cat := range catalog.Categories {
		songs := grouped[cat]
		if len(songs) == 0 {
			continue
		}
		emoji := categoryEmoji[cat]
		if emoji == "" {
			emoji = "📂"
		}
		lines = append(lines, fmt.Sprintf("\n%s *%s*", emoji, cat))

		for _, song := range songs {
			title := strings.TrimSpace(song.Title)
			if title == "" {
				continue
			}
			if song.Link != "" {
				lines = append(lines, fmt.Sprintf("%d. [%s](%s)", count, title, song.Link))
			} else {
				lines = append(lines, fmt.Sprintf("%d. %s", count, title))
			}
			count++
		}
	}
	if count == 1 {
		lines = append(lines, "_Немає пісень_")
	}

	lines = append(lines, fmt.Sprintf("\n_Всього: %d пісень_", count-1))
	lines = append(lines, fmt.Sprintf("_Оновлено: %s_", now.Format("02.01.2006 15:04")))
	return strings.Join(lines, "\n")
}

// SplitChunks splits the rendered document by line into at most count
// chunks, each under maxShardChars including separators, padding with empty
// chunks when the document is short and truncating when it is too long.
func SplitChunks(text string, count int) []string {
	var chunks []string
	var current []string
	length := 0

	for _, line := range strings.Split(text, "\n") {
		lineLen := len(line) + 1
		if length+lineLen > maxShardChars && len(current) > 0 {
			chunks = append(chunks, strings.Join(current, "\n"))
			current = []string{line}
			length = lineLen
		} else {
			current = append(current, line)
			length += lineLen
		}
	}
	if len(current) > 0 {
		chunks = append(chunks, strings.Join(current, "\n"))
	}

	for len(chunks) < count {
		chunks = append(chunks, "")
	}
	return chunks[:count]
}
