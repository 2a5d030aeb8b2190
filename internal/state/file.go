package state

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"sync"
)

// FileStore keeps state in a single JSON file next to the process. It is
// the default backend when Redis is not configured.
type FileStore struct {
	mu   sync.Mutex
	path string
}

type fileState struct {
	ShardMessageIDs []int                    `json:"shard_message_ids"`
	Clarifications  map[string]Clarification `json:"clarifications"`
}

func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

func (s *FileStore) ShardMessageIDs(_ context.Context) ([]int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, err := s.load()
	if err != nil {
		return nil, err
	}
	return st.ShardMessageIDs, nil
}

func (s *FileStore) SaveShardMessageIDs(_ context.Context, ids []int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, err := s.load()
	if err != nil {
		return err
	}
	st.ShardMessageIDs = append([]int(nil), ids...)
	return s.save(st)
}

func (s *FileStore) Clarification(_ context.Context, userID int64) (Clarification, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, err := s.load()
	if err != nil {
		return Clarification{}, false, err
	}
	c, ok := st.Clarifications[strconv.FormatInt(userID, 10)]
	return c, ok, nil
}

func (s *FileStore) SetClarification(_ context.Context, userID int64, c Clarification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, err := s.load()
	if err != nil {
		return err
	}
	st.Clarifications[strconv.FormatInt(userID, 10)] = c
	return s.save(st)
}

func (s *FileStore) ClearClarification(_ context.Context, userID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, err := s.load()
	if err != nil {
		return err
	}
	delete(st.Clarifications, strconv.FormatInt(userID, 10))
	return s.save(st)
}

func (s *FileStore) load() (fileState, error) {
	st := fileState{Clarifications: map[string]Clarification{}}
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return st, nil
	}
	if err != nil {
		return st, fmt.Errorf("read state file: %w", err)
	}
	if err := json.Unmarshal(data, &st); err != nil {
		// A corrupt state file degrades to empty state; the list
		// synchronizer will rebuild on the next reconciliation.
		return fileState{Clarifications: map[string]Clarification{}}, nil
	}
	if st.Clarifications == nil {
		st.Clarifications = map[string]Clarification{}
	}
	return st, nil
}

func (s *FileStore) save(st fileState) error {
	data, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("marshal state: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0o600); err != nil {
		return fmt.Errorf("write state file: %w", err)
	}
	return nil
}
