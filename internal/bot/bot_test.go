package bot

import (
	"context"
	"sync"
	"testing"
	"time"

	"choirbot/internal/config"
	"choirbot/internal/transport"
)

type fakeSource struct {
	events chan transport.Event

	mu       sync.Mutex
	commands []transport.Command
	chatCmds map[int64][]transport.Command
}

func newFakeSource() *fakeSource {
	return &fakeSource{
		events:   make(chan transport.Event),
		chatCmds: make(map[int64][]transport.Command),
	}
}

func (f *fakeSource) Events(context.Context) <-chan transport.Event { return f.events }

func (f *fakeSource) Send(context.Context, transport.Message) (int, error) { return 0, nil }
func (f *fakeSource) SendDocument(context.Context, transport.DocumentMessage) (int, error) {
	return 0, nil
}
func (f *fakeSource) EditText(context.Context, int64, int, string, transport.EditOptions) error {
	return nil
}
func (f *fakeSource) EditCaption(context.Context, int64, int, string) error { return nil }
func (f *fakeSource) Delete(context.Context, int64, int) error              { return nil }
func (f *fakeSource) Pin(context.Context, int64, int) error                 { return nil }
func (f *fakeSource) AnswerSelect(context.Context, string) error            { return nil }
func (f *fakeSource) DownloadFile(context.Context, string) ([]byte, error)  { return nil, nil }
func (f *fakeSource) Username() string                                      { return "bot" }

func (f *fakeSource) SetCommands(_ context.Context, cmds []transport.Command) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.commands = cmds
	return nil
}

func (f *fakeSource) SetChatCommands(_ context.Context, chatID int64, cmds []transport.Command) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.chatCmds[chatID] = cmds
	return nil
}

// recordingHandler notes the order events arrive per user and detects
// concurrent entry for the same session.
type recordingHandler struct {
	mu      sync.Mutex
	order   map[int64][]string
	active  map[int64]bool
	overlap bool
}

func newRecordingHandler() *recordingHandler {
	return &recordingHandler{order: map[int64][]string{}, active: map[int64]bool{}}
}

func (h *recordingHandler) Handle(_ context.Context, ev transport.Event) {
	h.mu.Lock()
	if h.active[ev.UserID] {
		h.overlap = true
	}
	h.active[ev.UserID] = true
	h.mu.Unlock()

	time.Sleep(time.Millisecond)

	h.mu.Lock()
	h.active[ev.UserID] = false
	h.order[ev.UserID] = append(h.order[ev.UserID], ev.Text)
	h.mu.Unlock()
}

func TestRunSerializesPerSession(t *testing.T) {
	src := newFakeSource()
	h := newRecordingHandler()
	b := New(config.Config{AdminIDs: []int64{1}}, src, h)

	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = b.Run(context.Background())
	}()

	for i := 0; i < 5; i++ {
		for _, user := range []int64{10, 20} {
			src.events <- transport.Event{Kind: transport.KindText, UserID: user, ChatID: user, Text: string(rune('a' + i))}
		}
	}
	close(src.events)
	<-done

	if h.overlap {
		t.Fatal("two events for the same session ran concurrently")
	}
	// A per-key mutex guarantees exclusion, not arrival order, so only
	// completeness is asserted here.
	for _, user := range []int64{10, 20} {
		got := h.order[user]
		if len(got) != 5 {
			t.Fatalf("user %d handled %d events, want 5", user, len(got))
		}
		seen := map[string]bool{}
		for _, text := range got {
			seen[text] = true
		}
		for i := 0; i < 5; i++ {
			if !seen[string(rune('a'+i))] {
				t.Fatalf("user %d missed event %q: %v", user, string(rune('a'+i)), got)
			}
		}
	}
}

func TestSetupCommands(t *testing.T) {
	src := newFakeSource()
	b := New(config.Config{AdminIDs: []int64{7}}, src, newRecordingHandler())

	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = b.Run(context.Background())
	}()
	close(src.events)
	<-done

	src.mu.Lock()
	defer src.mu.Unlock()
	if len(src.commands) != 4 {
		t.Fatalf("global commands = %v", src.commands)
	}
	admin := src.chatCmds[7]
	if len(admin) != 5 || admin[4].Name != "invite" {
		t.Fatalf("admin commands = %v", admin)
	}
}
