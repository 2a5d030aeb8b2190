// Package flow is the conversation engine: it tracks one session per
// (user, chat) pair through the submission and review dialogs and turns
// inbound transport events into store mutations and replies.
package flow

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"

	"choirbot/internal/blob"
	"choirbot/internal/catalog"
	"choirbot/internal/config"
	"choirbot/internal/ledger"
	"choirbot/internal/regents"
	"choirbot/internal/state"
	"choirbot/internal/transport"
)

type step int

const (
	stepIdle step = iota
	stepTitle
	stepDuplicateChoice
	stepCategory
	stepAction
	stepRegentSelect
	stepRegentName
	stepRegisterName
	stepClarifyQuestion
	stepRejectReason
)

// session is the per-(user, chat) conversation state. RegentName is a
// cached display name and survives cancellation; everything else is a
// draft that resets with the conversation.
type session struct {
	Step       step
	RegentName string

	// submission draft
	FileID    string
	FileName  string
	AutoTitle string
	Title     string
	Category  string

	// review context
	TargetRequestID string
	ReviewMessageID int

	// pending registration
	InviteCode string
}

func (s *session) reset() {
	*s = session{RegentName: s.RegentName}
}

type sessionKey struct {
	userID int64
	chatID int64
}

type listUpdater interface {
	Update(ctx context.Context) error
	FirstShardLink(ctx context.Context) (string, error)
}

// Flow wires the conversation to its collaborators. The caller is expected
// to serialize events per (user, chat) pair; Flow only guards its own
// session map.
type Flow struct {
	cfg     config.Config
	client  transport.Client
	catalog *catalog.Store
	ledger  *ledger.Ledger
	regents *regents.Registry
	state   state.Store
	list    listUpdater
	archive blob.Archive // optional

	mu       sync.Mutex
	sessions map[sessionKey]*session
}

func New(cfg config.Config, client transport.Client, cat *catalog.Store, led *ledger.Ledger, reg *regents.Registry, st state.Store, list listUpdater, archive blob.Archive) *Flow {
	return &Flow{
		cfg:      cfg,
		client:   client,
		catalog:  cat,
		ledger:   led,
		regents:  reg,
		state:    st,
		list:     list,
		archive:  archive,
		sessions: make(map[sessionKey]*session),
	}
}

func (f *Flow) session(ev transport.Event) *session {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := sessionKey{userID: ev.UserID, chatID: ev.ChatID}
	s, ok := f.sessions[key]
	if !ok {
		s = &session{}
		f.sessions[key] = s
	}
	return s
}

// Handle processes one inbound event to completion.
func (f *Flow) Handle(ctx context.Context, ev transport.Event) {
	s := f.session(ev)

	switch ev.Kind {
	case transport.KindSelect:
		if err := f.client.AnswerSelect(ctx, ev.CallbackID); err != nil {
			log.Printf("flow: answer callback: %v", err)
		}
		f.handleSelect(ctx, ev, s)
	case transport.KindCommand:
		f.handleCommand(ctx, ev, s)
	case transport.KindDocument:
		f.handleDocument(ctx, ev, s)
	case transport.KindText:
		f.handleText(ctx, ev, s)
	}
}

func (f *Flow) handleSelect(ctx context.Context, ev transport.Event, s *session) {
	data := ev.Data
	switch {
	case strings.HasPrefix(data, "approve_"), strings.HasPrefix(data, "reject_"), strings.HasPrefix(data, "clarify_"):
		if !f.cfg.IsAdmin(ev.UserID) {
			return
		}
		f.handleReviewSelect(ctx, ev, s)
	case data == "duplicate_same" || data == "duplicate_different":
		if s.Step != stepDuplicateChoice {
			f.mismatch(ctx, ev, s)
			return
		}
		f.handleDuplicateChoice(ctx, ev, s)
	case strings.HasPrefix(data, "category_"):
		if s.Step != stepCategory {
			f.mismatch(ctx, ev, s)
			return
		}
		f.handleCategoryChoice(ctx, ev, s)
	case data == "action_add_direct" || data == "action_send_review":
		if s.Step != stepAction {
			f.mismatch(ctx, ev, s)
			return
		}
		f.handleActionChoice(ctx, ev, s)
	case data == "regent_self" || data == "regent_manual" || strings.HasPrefix(data, "regent_sel_"):
		if s.Step != stepRegentSelect {
			f.mismatch(ctx, ev, s)
			return
		}
		f.handleRegentChoice(ctx, ev, s)
	}
}

func (f *Flow) handleText(ctx context.Context, ev transport.Event, s *session) {
	switch s.Step {
	case stepTitle:
		f.handleTitle(ctx, ev, s)
	case stepRegentName:
		f.handleRegentName(ctx, ev, s)
	case stepRegisterName:
		f.handleRegisterName(ctx, ev, s)
	case stepClarifyQuestion:
		f.handleClarifyQuestion(ctx, ev, s)
	case stepRejectReason:
		f.handleRejectReason(ctx, ev, s)
	case stepIdle:
		switch ev.Text {
		case "➕ Додати пісню":
			f.promptForFile(ctx, ev)
		case "📂 Репертуар":
			f.sendRepertoireLink(ctx, ev)
		default:
			if !f.cfg.IsAdmin(ev.UserID) {
				f.forwardClarificationAnswer(ctx, ev)
			}
		}
	default:
		f.mismatch(ctx, ev, s)
	}
}

// mismatch re-prompts the current state when an event of the wrong class
// arrives. The session is kept; stale button taps at idle are ignored.
func (f *Flow) mismatch(ctx context.Context, ev transport.Event, s *session) {
	switch s.Step {
	case stepTitle:
		f.reply(ctx, ev, "Надішліть назву пісні текстовим повідомленням:")
	case stepDuplicateChoice, stepCategory, stepAction, stepRegentSelect:
		f.reply(ctx, ev, "Будь ласка, скористайтесь кнопками вище.")
	case stepRegentName:
		f.reply(ctx, ev, "Введіть ім'я регента текстовим повідомленням:")
	case stepRegisterName:
		f.reply(ctx, ev, "Введіть ваше ім'я та прізвище текстовим повідомленням:")
	case stepClarifyQuestion:
		f.reply(ctx, ev, "Введіть питання текстовим повідомленням:")
	case stepRejectReason:
		f.reply(ctx, ev, "Вкажіть причину відмови текстом (або «-»):")
	}
}

// fail reports a collaborator error to the user and abandons the
// conversation so the next message starts clean.
func (f *Flow) fail(ctx context.Context, ev transport.Event, s *session, err error) {
	log.Printf("flow: user %d: %v", ev.UserID, err)
	s.reset()
	f.reply(ctx, ev, "❌ Технічна помилка. Спробуйте пізніше.")
}

func (f *Flow) reply(ctx context.Context, ev transport.Event, text string) {
	f.send(ctx, transport.Message{ChatID: ev.ChatID, Text: text, Markdown: true})
}

func (f *Flow) send(ctx context.Context, msg transport.Message) int {
	id, err := f.client.Send(ctx, msg)
	if err != nil {
		log.Printf("flow: send to %d: %v", msg.ChatID, err)
	}
	return id
}

// displayName prefers the cached registry name, then the profile name.
func displayName(ev transport.Event, s *session) string {
	if s.RegentName != "" {
		return s.RegentName
	}
	if ev.FirstName != "" {
		return ev.FirstName
	}
	return ev.Username
}

func mainMenu() [][]string {
	return [][]string{{"➕ Додати пісню", "📂 Репертуар"}}
}

// authorized reports whether the user may submit songs.
func (f *Flow) authorized(ctx context.Context, ev transport.Event, s *session) (bool, error) {
	if f.cfg.IsAdmin(ev.UserID) {
		return true, nil
	}
	ok, err := f.regents.IsRegent(ctx, ev.UserID)
	if err != nil {
		return false, err
	}
	if ok && s.RegentName == "" {
		// Cache the registry name for attribution.
		active, err := f.regents.Active(ctx)
		if err == nil {
			for _, r := range active {
				if r.TelegramID == ev.UserID {
					s.RegentName = r.Name
					break
				}
			}
		}
	}
	return ok, nil
}

func categoryKeyboard() [][]transport.Button {
	var rows [][]transport.Button
	var row []transport.Button
	for _, c := range catalog.Categories {
		row = append(row, transport.Button{Label: c, Data: "category_" + c})
		if len(row) == 2 {
			rows = append(rows, row)
			row = nil
		}
	}
	if len(row) > 0 {
		rows = append(rows, row)
	}
	return rows
}

func describeMatch(title, regent, link string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "*%s*", title)
	if regent != "" {
		fmt.Fprintf(&b, "\nРегент: %s", regent)
	}
	if link != "" {
		fmt.Fprintf(&b, "\n%s", link)
	}
	return b.String()
}
