package listsync

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"choirbot/internal/catalog"
	"choirbot/internal/state"
	"choirbot/internal/transport"
)

type display interface {
	Send(ctx context.Context, msg transport.Message) (int, error)
	EditText(ctx context.Context, chatID int64, messageID int, text string, opts transport.EditOptions) error
	Delete(ctx context.Context, chatID int64, messageID int) error
	Pin(ctx context.Context, chatID int64, messageID int) error
}

// Synchronizer reconciles the pinned shard messages in the repertoire group
// with the current catalog contents.
type Synchronizer struct {
	client  display
	state   state.Store
	catalog *catalog.Store
	chatID  int64
	now     func() time.Time
}

func NewSynchronizer(client display, st state.Store, cat *catalog.Store, chatID int64) *Synchronizer {
	return &Synchronizer{
		client:  client,
		state:   st,
		catalog: cat,
		chatID:  chatID,
		now:     time.Now,
	}
}

// Update re-renders the catalog and pushes the result into the shard
// messages. A missing or wrong-sized shard set triggers a full reset first.
// If an edit fails because its target message is gone, exactly one reset is
// performed and the update cycle is reported as failed; the next Update
// starts from the fresh shard set.
func (s *Synchronizer) Update(ctx context.Context) error {
	entries, err := s.catalog.List(ctx)
	if err != nil {
		return fmt.Errorf("list catalog: %w", err)
	}
	chunks := SplitChunks(Render(entries, s.now()), ShardCount)

	ids, err := s.state.ShardMessageIDs(ctx)
	if err != nil {
		return fmt.Errorf("load shard ids: %w", err)
	}
	if len(ids) != ShardCount {
		if ids, err = s.reset(ctx, ids); err != nil {
			return err
		}
	}

	for i, id := range ids {
		text := chunks[i]
		if text == "" {
			text = fmt.Sprintf("📋 *Репертуар хору (частина %d/%d)*\n\n_Продовження..._", i+1, ShardCount)
		}
		err := s.client.EditText(ctx, s.chatID, id, text, transport.EditOptions{Markdown: true, NoWebPreview: true})
		if err == nil {
			continue
		}
		if messageGone(err) {
			if _, rerr := s.reset(ctx, ids); rerr != nil {
				return fmt.Errorf("edit shard %d: %v; reset: %w", id, err, rerr)
			}
			return fmt.Errorf("edit shard %d: %w", id, err)
		}
		// Unchanged content is reported as an edit error by the
		// platform; it is not a failure of the cycle.
		log.Printf("listsync: edit shard %d: %v", id, err)
	}
	return nil
}

// reset deletes whatever shard messages are recorded, posts a fresh set of
// placeholders, pins the first one, and persists the new ids.
func (s *Synchronizer) reset(ctx context.Context, old []int) ([]int, error) {
	for _, id := range old {
		if err := s.client.Delete(ctx, s.chatID, id); err != nil {
			log.Printf("listsync: delete shard %d: %v", id, err)
		}
	}

	ids := make([]int, 0, ShardCount)
	for i := 0; i < ShardCount; i++ {
		id, err := s.client.Send(ctx, transport.Message{
			ChatID:       s.chatID,
			Text:         fmt.Sprintf("📋 *Репертуар хору (частина %d/%d)*\n_Завантаження..._", i+1, ShardCount),
			Markdown:     true,
			NoWebPreview: true,
			Silent:       true,
		})
		if err != nil {
			return nil, fmt.Errorf("create shard %d: %w", i+1, err)
		}
		ids = append(ids, id)
	}

	if err := s.client.Pin(ctx, s.chatID, ids[0]); err != nil {
		log.Printf("listsync: pin shard %d: %v", ids[0], err)
	}
	if err := s.state.SaveShardMessageIDs(ctx, ids); err != nil {
		return nil, fmt.Errorf("save shard ids: %w", err)
	}
	return ids, nil
}

// FirstShardLink returns a deep link to the first shard message, or "" when
// no shard set exists yet.
func (s *Synchronizer) FirstShardLink(ctx context.Context) (string, error) {
	ids, err := s.state.ShardMessageIDs(ctx)
	if err != nil {
		return "", err
	}
	if len(ids) == 0 {
		return "", nil
	}
	return ChatMessageLink(s.chatID, ids[0]), nil
}

// ChatMessageLink builds a t.me permalink to a message in a supergroup or
// channel chat.
func ChatMessageLink(chatID int64, messageID int) string {
	id := strings.TrimPrefix(fmt.Sprintf("%d", chatID), "-100")
	return fmt.Sprintf("https://t.me/c/%s/%d", id, messageID)
}

func messageGone(err error) bool {
	return strings.Contains(strings.ToLower(err.Error()), "message to edit not found")
}
