package transport

import (
	"context"
	"fmt"
	"io"
	"net/http"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Telegram implements Client over the Telegram Bot API with long polling.
type Telegram struct {
	bot  *tgbotapi.BotAPI
	http *http.Client
}

func NewTelegram(token string) (*Telegram, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("telegram connect: %w", err)
	}
	return &Telegram{bot: bot, http: http.DefaultClient}, nil
}

func (t *Telegram) Username() string {
	return t.bot.Self.UserName
}

// Events converts the long-polling update stream into transport events.
// The channel closes when ctx is cancelled.
func (t *Telegram) Events(ctx context.Context) <-chan Event {
	cfg := tgbotapi.NewUpdate(0)
	cfg.Timeout = 30
	updates := t.bot.GetUpdatesChan(cfg)

	out := make(chan Event)
	go func() {
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				t.bot.StopReceivingUpdates()
				return
			case update, ok := <-updates:
				if !ok {
					return
				}
				if ev, ok := fromUpdate(update); ok {
					select {
					case out <- ev:
					case <-ctx.Done():
						t.bot.StopReceivingUpdates()
						return
					}
				}
			}
		}
	}()
	return out
}

func fromUpdate(update tgbotapi.Update) (Event, bool) {
	if q := update.CallbackQuery; q != nil && q.Message != nil {
		return Event{
			Kind:       KindSelect,
			UserID:     q.From.ID,
			ChatID:     q.Message.Chat.ID,
			MessageID:  q.Message.MessageID,
			Username:   q.From.UserName,
			FirstName:  q.From.FirstName,
			Data:       q.Data,
			CallbackID: q.ID,
		}, true
	}

	msg := update.Message
	if msg == nil || msg.From == nil {
		return Event{}, false
	}
	ev := Event{
		UserID:    msg.From.ID,
		ChatID:    msg.Chat.ID,
		MessageID: msg.MessageID,
		Username:  msg.From.UserName,
		FirstName: msg.From.FirstName,
	}
	switch {
	case msg.IsCommand():
		ev.Kind = KindCommand
		ev.Command = msg.Command()
		ev.Args = msg.CommandArguments()
	case msg.Document != nil:
		ev.Kind = KindDocument
		ev.Document = &Document{FileID: msg.Document.FileID, FileName: msg.Document.FileName}
	case msg.Text != "":
		ev.Kind = KindText
		ev.Text = msg.Text
	default:
		return Event{}, false
	}
	return ev, true
}

func (t *Telegram) Send(_ context.Context, msg Message) (int, error) {
	cfg := tgbotapi.NewMessage(msg.ChatID, msg.Text)
	if msg.Markdown {
		cfg.ParseMode = tgbotapi.ModeMarkdown
	}
	cfg.DisableWebPagePreview = msg.NoWebPreview
	cfg.DisableNotification = msg.Silent
	switch {
	case len(msg.Inline) > 0:
		cfg.ReplyMarkup = inlineMarkup(msg.Inline)
	case len(msg.Menu) > 0:
		cfg.ReplyMarkup = menuMarkup(msg.Menu)
	case msg.ForceReply:
		cfg.ReplyMarkup = tgbotapi.ForceReply{
			ForceReply:            true,
			Selective:             true,
			InputFieldPlaceholder: msg.Placeholder,
		}
	}
	sent, err := t.bot.Send(cfg)
	if err != nil {
		return 0, fmt.Errorf("send message: %w", err)
	}
	return sent.MessageID, nil
}

func (t *Telegram) SendDocument(_ context.Context, msg DocumentMessage) (int, error) {
	cfg := tgbotapi.NewDocument(msg.ChatID, tgbotapi.FileID(msg.FileID))
	cfg.Caption = msg.Caption
	if len(msg.Inline) > 0 {
		cfg.ReplyMarkup = inlineMarkup(msg.Inline)
	}
	sent, err := t.bot.Send(cfg)
	if err != nil {
		return 0, fmt.Errorf("send document: %w", err)
	}
	return sent.MessageID, nil
}

func (t *Telegram) EditText(_ context.Context, chatID int64, messageID int, text string, opts EditOptions) error {
	cfg := tgbotapi.NewEditMessageText(chatID, messageID, text)
	if opts.Markdown {
		cfg.ParseMode = tgbotapi.ModeMarkdown
	}
	cfg.DisableWebPagePreview = opts.NoWebPreview
	if len(opts.Inline) > 0 {
		markup := inlineMarkup(opts.Inline)
		cfg.ReplyMarkup = &markup
	}
	if _, err := t.bot.Send(cfg); err != nil {
		return fmt.Errorf("edit message %d: %w", messageID, err)
	}
	return nil
}

func (t *Telegram) EditCaption(_ context.Context, chatID int64, messageID int, caption string) error {
	cfg := tgbotapi.NewEditMessageCaption(chatID, messageID, caption)
	if _, err := t.bot.Send(cfg); err != nil {
		return fmt.Errorf("edit caption %d: %w", messageID, err)
	}
	return nil
}

func (t *Telegram) Delete(_ context.Context, chatID int64, messageID int) error {
	if _, err := t.bot.Request(tgbotapi.NewDeleteMessage(chatID, messageID)); err != nil {
		return fmt.Errorf("delete message %d: %w", messageID, err)
	}
	return nil
}

func (t *Telegram) Pin(_ context.Context, chatID int64, messageID int) error {
	cfg := tgbotapi.PinChatMessageConfig{
		ChatID:              chatID,
		MessageID:           messageID,
		DisableNotification: true,
	}
	if _, err := t.bot.Request(cfg); err != nil {
		return fmt.Errorf("pin message %d: %w", messageID, err)
	}
	return nil
}

func (t *Telegram) AnswerSelect(_ context.Context, callbackID string) error {
	if _, err := t.bot.Request(tgbotapi.NewCallback(callbackID, "")); err != nil {
		return fmt.Errorf("answer callback: %w", err)
	}
	return nil
}

func (t *Telegram) SetCommands(_ context.Context, commands []Command) error {
	cfg := tgbotapi.NewSetMyCommands(botCommands(commands)...)
	if _, err := t.bot.Request(cfg); err != nil {
		return fmt.Errorf("set commands: %w", err)
	}
	return nil
}

func (t *Telegram) SetChatCommands(_ context.Context, chatID int64, commands []Command) error {
	scope := tgbotapi.NewBotCommandScopeChat(chatID)
	cfg := tgbotapi.NewSetMyCommandsWithScope(scope, botCommands(commands)...)
	if _, err := t.bot.Request(cfg); err != nil {
		return fmt.Errorf("set commands for chat %d: %w", chatID, err)
	}
	return nil
}

func (t *Telegram) DownloadFile(ctx context.Context, fileID string) ([]byte, error) {
	file, err := t.bot.GetFile(tgbotapi.FileConfig{FileID: fileID})
	if err != nil {
		return nil, fmt.Errorf("get file: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, file.Link(t.bot.Token), nil)
	if err != nil {
		return nil, fmt.Errorf("build download request: %w", err)
	}
	resp, err := t.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download file: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("download file: unexpected status %s", resp.Status)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read file body: %w", err)
	}
	return data, nil
}

func inlineMarkup(rows [][]Button) tgbotapi.InlineKeyboardMarkup {
	var kb [][]tgbotapi.InlineKeyboardButton
	for _, row := range rows {
		var r []tgbotapi.InlineKeyboardButton
		for _, b := range row {
			if b.URL != "" {
				r = append(r, tgbotapi.NewInlineKeyboardButtonURL(b.Label, b.URL))
			} else {
				r = append(r, tgbotapi.NewInlineKeyboardButtonData(b.Label, b.Data))
			}
		}
		kb = append(kb, r)
	}
	return tgbotapi.NewInlineKeyboardMarkup(kb...)
}

func menuMarkup(rows [][]string) tgbotapi.ReplyKeyboardMarkup {
	var kb [][]tgbotapi.KeyboardButton
	for _, row := range rows {
		var r []tgbotapi.KeyboardButton
		for _, label := range row {
			r = append(r, tgbotapi.NewKeyboardButton(label))
		}
		kb = append(kb, r)
	}
	markup := tgbotapi.NewReplyKeyboard(kb...)
	markup.ResizeKeyboard = true
	return markup
}

func botCommands(commands []Command) []tgbotapi.BotCommand {
	out := make([]tgbotapi.BotCommand, len(commands))
	for i, c := range commands {
		out[i] = tgbotapi.BotCommand{Command: c.Name, Description: c.Description}
	}
	return out
}
