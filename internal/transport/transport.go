// Package transport abstracts the chat platform. The conversation flow only
// sees Events and the Client interface; the Telegram adapter lives behind
// it so tests drive the flow with fakes.
package transport

import "context"

// Kind is the event class. Every conversation state accepts exactly one
// class; the flow re-prompts on a mismatch.
type Kind int

const (
	KindText Kind = iota
	KindDocument
	KindSelect
	KindCommand
)

// Document references an uploaded file. Payload bytes are fetched on demand
// through Client.DownloadFile.
type Document struct {
	FileID   string
	FileName string
}

// Event is one inbound update, already narrowed to the fields the flow
// consumes.
type Event struct {
	Kind      Kind
	UserID    int64
	ChatID    int64
	MessageID int
	Username  string
	FirstName string

	Text       string    // KindText
	Command    string    // KindCommand, without the slash
	Args       string    // KindCommand payload
	Data       string    // KindSelect callback data
	CallbackID string    // KindSelect, for the ack
	Document   *Document // KindDocument
}

// Button is one inline keyboard button. Exactly one of Data or URL is set.
type Button struct {
	Label string
	Data  string
	URL   string
}

// Message is an outbound text message.
type Message struct {
	ChatID       int64
	Text         string
	Markdown     bool
	NoWebPreview bool
	Silent       bool
	Inline       [][]Button
	Menu         [][]string // persistent reply keyboard
	ForceReply   bool
	Placeholder  string
}

// DocumentMessage re-sends a platform-hosted file by reference.
type DocumentMessage struct {
	ChatID  int64
	FileID  string
	Caption string
	Inline  [][]Button
}

// EditOptions narrows an in-place text edit.
type EditOptions struct {
	Markdown     bool
	NoWebPreview bool
	Inline       [][]Button
}

// Command is one slash command in a recipient's menu.
type Command struct {
	Name        string
	Description string
}

// Client is the outbound half of the transport.
type Client interface {
	Send(ctx context.Context, msg Message) (messageID int, err error)
	SendDocument(ctx context.Context, msg DocumentMessage) (messageID int, err error)
	EditText(ctx context.Context, chatID int64, messageID int, text string, opts EditOptions) error
	EditCaption(ctx context.Context, chatID int64, messageID int, caption string) error
	Delete(ctx context.Context, chatID int64, messageID int) error
	Pin(ctx context.Context, chatID int64, messageID int) error
	AnswerSelect(ctx context.Context, callbackID string) error
	SetCommands(ctx context.Context, commands []Command) error
	SetChatCommands(ctx context.Context, chatID int64, commands []Command) error
	DownloadFile(ctx context.Context, fileID string) ([]byte, error)
	Username() string
}
