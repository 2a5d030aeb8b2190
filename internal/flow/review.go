package flow

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"choirbot/internal/ledger"
	"choirbot/internal/state"
	"choirbot/internal/transport"
)

func (f *Flow) handleReviewSelect(ctx context.Context, ev transport.Event, s *session) {
	action, id, ok := strings.Cut(ev.Data, "_")
	if !ok {
		return
	}
	req, err := f.ledger.Get(ctx, id)
	if errors.Is(err, ledger.ErrNotFound) {
		f.reply(ctx, ev, "Заявку не знайдено. Можливо, її вже опрацьовано.")
		return
	}
	if err != nil {
		f.fail(ctx, ev, s, err)
		return
	}
	// Approved and rejected are terminal. The forwarded clarification
	// answer keeps live buttons, so a verdict can arrive more than once.
	if req.Status == ledger.StatusApproved || req.Status == ledger.StatusRejected {
		f.reply(ctx, ev, "Цю заявку вже опрацьовано.")
		return
	}

	switch action {
	case "approve":
		f.approve(ctx, ev, s, req)
	case "reject":
		s.Step = stepRejectReason
		s.TargetRequestID = req.ID
		s.ReviewMessageID = ev.MessageID
		f.send(ctx, transport.Message{
			ChatID:      ev.ChatID,
			Text:        fmt.Sprintf("Вкажіть причину відмови для *%s* (або надішліть «-», якщо без причини):", req.Title),
			Markdown:    true,
			ForceReply:  true,
			Placeholder: "Причина відмови",
		})
	case "clarify":
		s.Step = stepClarifyQuestion
		s.TargetRequestID = req.ID
		s.ReviewMessageID = ev.MessageID
		f.send(ctx, transport.Message{
			ChatID:      ev.ChatID,
			Text:        fmt.Sprintf("Введіть питання щодо *%s*:", req.Title),
			Markdown:    true,
			ForceReply:  true,
			Placeholder: "Питання",
		})
	}
}

// approve publishes the request's file, flips the ledger status, adds the
// catalog entry and notifies the submitter. The review message caption is
// edited in place so the verdict is visible in the reviewer's history.
func (f *Flow) approve(ctx context.Context, ev transport.Event, s *session, req ledger.Request) {
	fileName := req.FileName
	if fileName == "" {
		// Rows created before the filename column existed.
		fileName = req.Title + ".pdf"
	}
	link := f.publishFile(ctx, req.FileID, fileName, req.Title, req.SubmitterName, req.Category)
	if err := f.ledger.UpdateStatus(ctx, req.ID, ledger.StatusApproved); err != nil {
		f.fail(ctx, ev, s, err)
		return
	}
	if err := f.catalog.Add(ctx, req.Title, req.SubmitterName, link, req.Category); err != nil {
		f.fail(ctx, ev, s, err)
		return
	}
	s.reset()

	f.markReviewed(ctx, ev, req, "✅ Затверджено")
	f.notify(ctx, req.SubmitterID, fmt.Sprintf("✅ Вашу пісню *%s* затверджено та додано до репертуару!", req.Title))
	if err := f.list.Update(ctx); err != nil {
		log.Printf("flow: update repertoire list: %v", err)
	}
}

func (f *Flow) handleRejectReason(ctx context.Context, ev transport.Event, s *session) {
	reason := strings.TrimSpace(ev.Text)
	req, err := f.ledger.Get(ctx, s.TargetRequestID)
	if err != nil {
		f.fail(ctx, ev, s, err)
		return
	}
	if err := f.ledger.UpdateStatus(ctx, req.ID, ledger.StatusRejected); err != nil {
		f.fail(ctx, ev, s, err)
		return
	}
	s.reset()

	f.markReviewed(ctx, ev, req, "❌ Відхилено")
	note := fmt.Sprintf("❌ Вашу пісню *%s* відхилено.", req.Title)
	if reason != "-" && reason != "" {
		note += "\nПричина: " + reason
	}
	f.notify(ctx, req.SubmitterID, note)
	f.reply(ctx, ev, "Заявку відхилено.")
}

// handleClarifyQuestion stores the pending question in the submitter's
// clarification slot (replacing any earlier one) and forwards it.
func (f *Flow) handleClarifyQuestion(ctx context.Context, ev transport.Event, s *session) {
	question := strings.TrimSpace(ev.Text)
	req, err := f.ledger.Get(ctx, s.TargetRequestID)
	if err != nil {
		f.fail(ctx, ev, s, err)
		return
	}
	if err := f.ledger.UpdateStatus(ctx, req.ID, ledger.StatusClarifying); err != nil {
		f.fail(ctx, ev, s, err)
		return
	}
	err = f.state.SetClarification(ctx, req.SubmitterID, state.Clarification{
		RequestID:  req.ID,
		Title:      req.Title,
		ReviewerID: ev.UserID,
	})
	if err != nil {
		f.fail(ctx, ev, s, err)
		return
	}
	s.reset()

	f.notify(ctx, req.SubmitterID, fmt.Sprintf("❓ Питання щодо пісні *%s*:\n%s\n\nПросто надішліть відповідь повідомленням.", req.Title, question))
	f.reply(ctx, ev, "Питання надіслано.")
}

// forwardClarificationAnswer delivers a free-text message from a submitter
// with a pending question to the reviewer who asked it. Returns false when
// no question is pending.
func (f *Flow) forwardClarificationAnswer(ctx context.Context, ev transport.Event) bool {
	c, ok, err := f.state.Clarification(ctx, ev.UserID)
	if err != nil {
		log.Printf("flow: read clarification for %d: %v", ev.UserID, err)
		return false
	}
	if !ok {
		return false
	}
	if err := f.state.ClearClarification(ctx, ev.UserID); err != nil {
		log.Printf("flow: clear clarification for %d: %v", ev.UserID, err)
	}

	from := ev.FirstName
	if ev.Username != "" {
		from = fmt.Sprintf("%s (@%s)", from, ev.Username)
	}
	f.send(ctx, transport.Message{
		ChatID:   c.ReviewerID,
		Text:     fmt.Sprintf("💬 Відповідь від %s щодо *%s* (ID: %s):\n\n%s", from, c.Title, c.RequestID, ev.Text),
		Markdown: true,
		Inline: [][]transport.Button{{
			{Label: "✅ Затвердити", Data: "approve_" + c.RequestID},
			{Label: "❌ Відхилити", Data: "reject_" + c.RequestID},
		}},
	})
	f.reply(ctx, ev, "✅ Відповідь надіслано.")
	return true
}

// markReviewed appends the verdict to the review message caption.
func (f *Flow) markReviewed(ctx context.Context, ev transport.Event, req ledger.Request, verdict string) {
	msgID := req.ReviewMessageID
	if msgID == 0 {
		msgID = ev.MessageID
	}
	if msgID == 0 {
		return
	}
	caption := fmt.Sprintf("🎵 %s\nВід: %s\n\n%s", req.Title, req.SubmitterName, verdict)
	if err := f.client.EditCaption(ctx, f.cfg.ChiefRegentID, msgID, caption); err != nil {
		log.Printf("flow: edit review caption for %s: %v", req.ID, err)
	}
}

// notify is a best-effort message to a user who may have blocked the bot.
func (f *Flow) notify(ctx context.Context, userID int64, text string) {
	_, err := f.client.Send(ctx, transport.Message{ChatID: userID, Text: text, Markdown: true})
	if err != nil {
		log.Printf("flow: notify %d: %v", userID, err)
	}
}
