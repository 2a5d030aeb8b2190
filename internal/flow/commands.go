package flow

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"choirbot/internal/regents"
	"choirbot/internal/transport"
)

func (f *Flow) handleCommand(ctx context.Context, ev transport.Event, s *session) {
	switch ev.Command {
	case "start":
		f.handleStart(ctx, ev, s)
	case "help":
		f.handleHelp(ctx, ev)
	case "cancel":
		s.reset()
		f.reply(ctx, ev, "Скасовано.")
	case "repertoire":
		f.sendRepertoireLink(ctx, ev)
	case "invite":
		f.handleInvite(ctx, ev)
	}
}

// handleStart greets known users and starts registration when the command
// carries an invite code (deep-link payload).
func (f *Flow) handleStart(ctx context.Context, ev transport.Event, s *session) {
	code := strings.TrimSpace(ev.Args)
	if code != "" {
		if _, err := f.regents.FindByCode(ctx, code); err != nil {
			if errors.Is(err, regents.ErrInvalidCode) {
				f.reply(ctx, ev, "❌ Недійсний або використаний код запрошення.")
			} else {
				f.fail(ctx, ev, s, err)
			}
			return
		}
		s.reset()
		s.InviteCode = code
		s.Step = stepRegisterName
		f.send(ctx, transport.Message{
			ChatID:      ev.ChatID,
			Text:        "Введіть ваше ім'я та прізвище:",
			ForceReply:  true,
			Placeholder: "Ім'я та прізвище",
		})
		return
	}

	ok, err := f.authorized(ctx, ev, s)
	if err != nil {
		f.fail(ctx, ev, s, err)
		return
	}
	if !ok {
		f.reply(ctx, ev, "Для використання бота потрібен код запрошення від регента.")
		return
	}
	f.send(ctx, transport.Message{
		ChatID:   ev.ChatID,
		Text:     fmt.Sprintf("Вітаю, %s! Надішліть файл з піснею (PDF або Word), щоб додати її до репертуару.", displayName(ev, s)),
		Markdown: true,
		Menu:     mainMenu(),
	})
}

func (f *Flow) handleRegisterName(ctx context.Context, ev transport.Event, s *session) {
	name := strings.TrimSpace(ev.Text)
	if utf8.RuneCountInString(name) < 2 {
		f.reply(ctx, ev, "Ім'я має містити щонайменше 2 символи. Спробуйте ще раз:")
		return
	}
	if err := f.regents.Register(ctx, s.InviteCode, ev.UserID, ev.Username, name); err != nil {
		if errors.Is(err, regents.ErrInvalidCode) {
			s.reset()
			f.reply(ctx, ev, "❌ Недійсний або використаний код запрошення.")
			return
		}
		f.fail(ctx, ev, s, err)
		return
	}
	s.reset()
	s.RegentName = name
	f.send(ctx, transport.Message{
		ChatID:   ev.ChatID,
		Text:     fmt.Sprintf("✅ Вітаємо, %s! Тепер ви можете надсилати пісні на розгляд.", name),
		Markdown: true,
		Menu:     mainMenu(),
	})
}

func (f *Flow) handleInvite(ctx context.Context, ev transport.Event) {
	if !f.cfg.IsAdmin(ev.UserID) {
		return
	}
	code, err := f.regents.CreateInvite(ctx)
	if err != nil {
		f.fail(ctx, ev, f.session(ev), err)
		return
	}
	text := fmt.Sprintf("Код запрошення: `%s`", code)
	if name := f.client.Username(); name != "" {
		text += fmt.Sprintf("\nПосилання: https://t.me/%s?start=%s", name, code)
	}
	f.reply(ctx, ev, text)
}

func (f *Flow) handleHelp(ctx context.Context, ev transport.Event) {
	f.reply(ctx, ev, strings.Join([]string{
		"Надішліть файл з піснею (PDF або Word), і бот проведе вас через додавання.",
		"",
		"/repertoire — посилання на список пісень",
		"/cancel — скасувати поточну дію",
	}, "\n"))
}

func (f *Flow) sendRepertoireLink(ctx context.Context, ev transport.Event) {
	link, err := f.list.FirstShardLink(ctx)
	if err != nil {
		f.fail(ctx, ev, f.session(ev), err)
		return
	}
	if link == "" {
		f.reply(ctx, ev, "Репертуар ще порожній.")
		return
	}
	f.reply(ctx, ev, "📂 Репертуар хору: "+link)
}
