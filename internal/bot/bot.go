// Package bot runs the event loop: it drains transport events and hands
// each one to the conversation flow, serializing per (user, chat) pair so a
// fast sequence of taps cannot interleave one session's transitions.
package bot

import (
	"context"
	"log"
	"sync"

	"choirbot/internal/config"
	"choirbot/internal/transport"
)

// Handler consumes one inbound event to completion.
type Handler interface {
	Handle(ctx context.Context, ev transport.Event)
}

type source interface {
	transport.Client
	Events(ctx context.Context) <-chan transport.Event
}

type Bot struct {
	cfg     config.Config
	client  source
	handler Handler

	mu    sync.Mutex
	locks map[sessionKey]*sync.Mutex
	wg    sync.WaitGroup
}

type sessionKey struct {
	userID int64
	chatID int64
}

func New(cfg config.Config, client source, handler Handler) *Bot {
	return &Bot{
		cfg:     cfg,
		client:  client,
		handler: handler,
		locks:   make(map[sessionKey]*sync.Mutex),
	}
}

// Run registers the command menus and processes events until ctx is
// cancelled. In-flight handlers are drained before it returns.
func (b *Bot) Run(ctx context.Context) error {
	b.setupCommands(ctx)

	for ev := range b.client.Events(ctx) {
		ev := ev
		b.wg.Add(1)
		go func() {
			defer b.wg.Done()
			lock := b.sessionLock(sessionKey{userID: ev.UserID, chatID: ev.ChatID})
			lock.Lock()
			defer lock.Unlock()
			b.handler.Handle(ctx, ev)
		}()
	}
	b.wg.Wait()
	return ctx.Err()
}

func (b *Bot) sessionLock(key sessionKey) *sync.Mutex {
	b.mu.Lock()
	defer b.mu.Unlock()
	lock, ok := b.locks[key]
	if !ok {
		lock = &sync.Mutex{}
		b.locks[key] = lock
	}
	return lock
}

// setupCommands publishes the global command menu and the extended menu for
// administrators. Failures only cost menu discoverability.
func (b *Bot) setupCommands(ctx context.Context) {
	common := []transport.Command{
		{Name: "start", Description: "Почати роботу"},
		{Name: "repertoire", Description: "Посилання на репертуар"},
		{Name: "cancel", Description: "Скасувати поточну дію"},
		{Name: "help", Description: "Довідка"},
	}
	if err := b.client.SetCommands(ctx, common); err != nil {
		log.Printf("bot: set commands: %v", err)
	}

	admin := append(append([]transport.Command{}, common...), transport.Command{
		Name: "invite", Description: "Створити код запрошення",
	})
	for _, id := range b.cfg.AdminIDs {
		if err := b.client.SetChatCommands(ctx, id, admin); err != nil {
			log.Printf("bot: set admin commands for %d: %v", id, err)
		}
	}
}
