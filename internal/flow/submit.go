package flow

import (
	"context"
	"fmt"
	"log"
	"strings"
	"unicode/utf8"

	"choirbot/internal/dedup"
	"choirbot/internal/fileparse"
	"choirbot/internal/ledger"
	"choirbot/internal/listsync"
	"choirbot/internal/transport"
)

const (
	minTitleLen = 3
	maxTitleLen = 200
)

func (f *Flow) promptForFile(ctx context.Context, ev transport.Event) {
	f.reply(ctx, ev, "Надішліть файл з піснею (PDF або Word).")
}

// handleDocument starts a submission: the file is parsed for a title
// suggestion and the user is asked to confirm or type the title.
func (f *Flow) handleDocument(ctx context.Context, ev transport.Event, s *session) {
	if s.Step != stepIdle {
		f.mismatch(ctx, ev, s)
		return
	}
	ok, err := f.authorized(ctx, ev, s)
	if err != nil {
		f.fail(ctx, ev, s, err)
		return
	}
	if !ok {
		f.reply(ctx, ev, "⛔ У вас немає доступу. Потрібен код запрошення від регента.")
		return
	}
	switch fileparse.Type(ev.Document.FileName) {
	case fileparse.TypePDF, fileparse.TypeDOCX:
	case fileparse.TypeDoc:
		f.reply(ctx, ev, "Файли .doc (старий формат Word) не підтримуються. Збережіть файл як .docx або PDF і надішліть ще раз.")
		return
	default:
		f.reply(ctx, ev, "Підтримуються лише файли PDF та Word (.pdf, .docx).")
		return
	}

	s.reset()
	s.FileID = ev.Document.FileID
	s.FileName = ev.Document.FileName
	s.Step = stepTitle

	// Title extraction is best-effort; a parse failure only costs the
	// suggestion.
	if data, err := f.client.DownloadFile(ctx, ev.Document.FileID); err == nil {
		_, s.AutoTitle = fileparse.Parse(data, ev.Document.FileName)
	} else {
		log.Printf("flow: download %s: %v", ev.Document.FileID, err)
	}

	prompt := "📄 Файл отримано. Надішліть назву пісні:"
	if s.AutoTitle != "" {
		prompt = fmt.Sprintf("📄 Файл отримано.\nЗнайдена назва: *%s*\n\nНадішліть назву пісні (можна скопіювати запропоновану):", s.AutoTitle)
	}
	f.send(ctx, transport.Message{
		ChatID:      ev.ChatID,
		Text:        prompt,
		Markdown:    true,
		ForceReply:  true,
		Placeholder: "Назва пісні",
	})
}

func (f *Flow) handleTitle(ctx context.Context, ev transport.Event, s *session) {
	title := strings.TrimSpace(ev.Text)
	if n := utf8.RuneCountInString(title); n < minTitleLen || n > maxTitleLen {
		f.reply(ctx, ev, fmt.Sprintf("Назва має містити від %d до %d символів. Спробуйте ще раз:", minTitleLen, maxTitleLen))
		return
	}
	s.Title = title

	match, err := f.findDuplicate(ctx, title)
	if err != nil {
		f.fail(ctx, ev, s, err)
		return
	}
	switch match.Verdict {
	case dedup.ExactMatch:
		s.reset()
		f.reply(ctx, ev, "⚠️ Така пісня вже є в репертуарі:\n"+describeMatch(match.Title, match.Regent, match.Link))
	case dedup.FuzzyMatch:
		s.Step = stepDuplicateChoice
		f.send(ctx, transport.Message{
			ChatID:   ev.ChatID,
			Text:     "🤔 Схожа пісня вже є в репертуарі:\n" + describeMatch(match.Title, match.Regent, match.Link) + "\n\nЦе та сама пісня?",
			Markdown: true,
			Inline: [][]transport.Button{{
				{Label: "Так, та сама", Data: "duplicate_same"},
				{Label: "Ні, інша", Data: "duplicate_different"},
			}},
		})
	default:
		f.askCategory(ctx, ev, s)
	}
}

// findDuplicate scans published catalog entries first, then approved ledger
// requests, and stops at the first sufficiently similar row.
func (f *Flow) findDuplicate(ctx context.Context, title string) (dedup.Match, error) {
	normalized := dedup.Normalize(title)

	var candidates []dedup.Candidate
	entries, err := f.catalog.List(ctx)
	if err != nil {
		return dedup.Match{}, fmt.Errorf("duplicate check: %w", err)
	}
	for _, e := range entries {
		candidates = append(candidates, dedup.Candidate{
			Key:    e.Title,
			Title:  e.Title,
			Regent: e.Regent,
			Link:   e.Link,
		})
	}
	approved, err := f.ledger.Approved(ctx)
	if err != nil {
		return dedup.Match{}, fmt.Errorf("duplicate check: %w", err)
	}
	for _, r := range approved {
		candidates = append(candidates, dedup.Candidate{
			Key:   r.NormalizedTitle,
			Title: r.Title,
			Link:  r.Link,
		})
	}
	return dedup.Resolve(normalized, candidates), nil
}

func (f *Flow) handleDuplicateChoice(ctx context.Context, ev transport.Event, s *session) {
	if ev.Data == "duplicate_same" {
		s.reset()
		f.reply(ctx, ev, "Додавання скасовано — пісня вже є в репертуарі.")
		return
	}
	f.askCategory(ctx, ev, s)
}

func (f *Flow) askCategory(ctx context.Context, ev transport.Event, s *session) {
	s.Step = stepCategory
	f.send(ctx, transport.Message{
		ChatID: ev.ChatID,
		Text:   "Оберіть категорію:",
		Inline: categoryKeyboard(),
	})
}

func (f *Flow) handleCategoryChoice(ctx context.Context, ev transport.Event, s *session) {
	s.Category = strings.TrimPrefix(ev.Data, "category_")

	if f.cfg.IsAdmin(ev.UserID) {
		f.askRegent(ctx, ev, s)
		return
	}
	s.Step = stepAction
	f.send(ctx, transport.Message{
		ChatID: ev.ChatID,
		Text:   "Що зробити з піснею?",
		Inline: [][]transport.Button{{
			{Label: "➕ Додати одразу", Data: "action_add_direct"},
			{Label: "📤 На розгляд", Data: "action_send_review"},
		}},
	})
}

func (f *Flow) handleActionChoice(ctx context.Context, ev transport.Event, s *session) {
	if ev.Data == "action_add_direct" {
		f.addDirect(ctx, ev, s, displayName(ev, s))
		return
	}
	f.sendForReview(ctx, ev, s)
}

// askRegent asks an administrator whom to credit the song to.
func (f *Flow) askRegent(ctx context.Context, ev transport.Event, s *session) {
	s.Step = stepRegentSelect

	rows := [][]transport.Button{{{Label: "Я", Data: "regent_self"}}}
	active, err := f.regents.Active(ctx)
	if err != nil {
		f.fail(ctx, ev, s, err)
		return
	}
	for _, r := range active {
		rows = append(rows, []transport.Button{{Label: r.Name, Data: "regent_sel_" + r.ID}})
	}
	rows = append(rows, []transport.Button{{Label: "✏️ Ввести вручну", Data: "regent_manual"}})

	f.send(ctx, transport.Message{ChatID: ev.ChatID, Text: "Хто регент цієї пісні?", Inline: rows})
}

func (f *Flow) handleRegentChoice(ctx context.Context, ev transport.Event, s *session) {
	switch {
	case ev.Data == "regent_self":
		f.addDirect(ctx, ev, s, displayName(ev, s))
	case ev.Data == "regent_manual":
		s.Step = stepRegentName
		f.send(ctx, transport.Message{
			ChatID:      ev.ChatID,
			Text:        "Введіть ім'я регента:",
			ForceReply:  true,
			Placeholder: "Ім'я регента",
		})
	default:
		id := strings.TrimPrefix(ev.Data, "regent_sel_")
		active, err := f.regents.Active(ctx)
		if err != nil {
			f.fail(ctx, ev, s, err)
			return
		}
		name := ""
		for _, r := range active {
			if r.ID == id {
				name = r.Name
				break
			}
		}
		if name == "" {
			f.reply(ctx, ev, "Регента не знайдено. Оберіть ще раз.")
			return
		}
		f.addDirect(ctx, ev, s, name)
	}
}

func (f *Flow) handleRegentName(ctx context.Context, ev transport.Event, s *session) {
	name := strings.TrimSpace(ev.Text)
	if utf8.RuneCountInString(name) < 2 {
		f.reply(ctx, ev, "Ім'я має містити щонайменше 2 символи. Спробуйте ще раз:")
		return
	}
	f.addDirect(ctx, ev, s, name)
}

// publishFile posts the file to the storage channel and returns a permanent
// link: the archive link when an archive is configured and accepts the file,
// otherwise the channel permalink. Uploads are best-effort; a failure yields
// an entry without a link, never a failed transition.
func (f *Flow) publishFile(ctx context.Context, fileID, fileName, title, regent, category string) string {
	link := ""
	if f.cfg.StorageChannel != 0 {
		caption := fmt.Sprintf("🎵 %s\nРегент: %s\nКатегорія: %s", title, regent, category)
		msgID, err := f.client.SendDocument(ctx, transport.DocumentMessage{
			ChatID:  f.cfg.StorageChannel,
			FileID:  fileID,
			Caption: caption,
		})
		if err != nil {
			log.Printf("flow: publish %q to storage channel: %v", title, err)
		} else {
			link = listsync.ChatMessageLink(f.cfg.StorageChannel, msgID)
		}
	}

	if f.archive == nil {
		return link
	}
	data, err := f.client.DownloadFile(ctx, fileID)
	if err != nil {
		log.Printf("flow: download for archive: %v", err)
		return link
	}
	archived, err := f.archive.Upload(ctx, data, fileName, title)
	if err != nil {
		log.Printf("flow: archive %q: %v", title, err)
		return link
	}
	return archived
}

// addDirect publishes the draft immediately, recording it in the ledger as
// already approved. The session is cleared as soon as the outcome is known.
func (f *Flow) addDirect(ctx context.Context, ev transport.Event, s *session, regentName string) {
	title, category := s.Title, s.Category
	fileID, fileName, autoTitle := s.FileID, s.FileName, s.AutoTitle

	link := f.publishFile(ctx, fileID, fileName, title, regentName, category)
	id, err := f.ledger.Create(ctx, ledger.CreateInput{
		Title:           title,
		NormalizedTitle: dedup.Normalize(title),
		SubmitterID:     ev.UserID,
		SubmitterName:   regentName,
		FileID:          fileID,
		FileName:        fileName,
		AutoTitle:       autoTitle,
		Link:            link,
		Category:        category,
	})
	if err != nil {
		f.fail(ctx, ev, s, err)
		return
	}
	if err := f.ledger.UpdateStatus(ctx, id, ledger.StatusApproved); err != nil {
		f.fail(ctx, ev, s, err)
		return
	}
	if err := f.catalog.Add(ctx, title, regentName, link, category); err != nil {
		f.fail(ctx, ev, s, err)
		return
	}
	s.reset()

	if err := f.list.Update(ctx); err != nil {
		log.Printf("flow: update repertoire list: %v", err)
	}
	f.reply(ctx, ev, fmt.Sprintf("✅ Пісню *%s* додано до репертуару!", title))
}

// sendForReview records a pending request and forwards the file to the
// chief regent with review controls.
func (f *Flow) sendForReview(ctx context.Context, ev transport.Event, s *session) {
	title, category := s.Title, s.Category
	fileID, fileName, autoTitle := s.FileID, s.FileName, s.AutoTitle
	submitter := displayName(ev, s)

	id, err := f.ledger.Create(ctx, ledger.CreateInput{
		Title:           title,
		NormalizedTitle: dedup.Normalize(title),
		SubmitterID:     ev.UserID,
		SubmitterName:   submitter,
		FileID:          fileID,
		FileName:        fileName,
		AutoTitle:       autoTitle,
		Category:        category,
	})
	if err != nil {
		f.fail(ctx, ev, s, err)
		return
	}

	from := submitter
	if ev.Username != "" {
		from = fmt.Sprintf("%s (@%s)", submitter, ev.Username)
	}
	caption := fmt.Sprintf("🎵 Нова пісня на розгляд\n\nНазва: %s\nКатегорія: %s\nВід: %s\nID: %s", title, category, from, id)
	msgID, err := f.client.SendDocument(ctx, transport.DocumentMessage{
		ChatID:  f.cfg.ChiefRegentID,
		FileID:  fileID,
		Caption: caption,
		Inline: [][]transport.Button{{
			{Label: "✅ Затвердити", Data: "approve_" + id},
			{Label: "❌ Відхилити", Data: "reject_" + id},
			{Label: "❓ Уточнити", Data: "clarify_" + id},
		}},
	})
	if err != nil {
		f.fail(ctx, ev, s, err)
		return
	}
	if err := f.ledger.SetReviewMessageID(ctx, id, msgID); err != nil {
		log.Printf("flow: record review message for %s: %v", id, err)
	}
	s.reset()

	f.reply(ctx, ev, "📤 Пісню надіслано на розгляд. Ви отримаєте сповіщення про рішення.")
}
