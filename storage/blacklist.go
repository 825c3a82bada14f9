package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"
)

var (
	ErrAlreadyBlacklisted = errors.New("user is already blacklisted")
	ErrNotBlacklisted     = errors.New("user is not blacklisted")
)

type blacklistFile struct {
	BlacklistedUsers []string `json:"blacklistedUsers"`
}

// BlacklistStore keeps the ordered set of blacklisted user IDs in one
// JSON document. A missing file is an empty blacklist, not an error.
type BlacklistStore struct {
	mu   sync.Mutex
	path string
}

func NewBlacklistStore(path string) *BlacklistStore {
	return &BlacklistStore{path: path}
}

func (s *BlacklistStore) load() (*blacklistFile, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return &blacklistFile{}, nil
		}
		return nil, fmt.Errorf("read blacklist: %w", err)
	}
	var bf blacklistFile
	if err := json.Unmarshal(data, &bf); err != nil {
		return nil, fmt.Errorf("parse blacklist: %w", err)
	}
	return &bf, nil
}

// All returns the blacklisted user IDs in stored order.
func (s *BlacklistStore) All() ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	bf, err := s.load()
	if err != nil {
		return nil, err
	}
	return bf.BlacklistedUsers, nil
}

func (s *BlacklistStore) Add(userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	bf, err := s.load()
	if err != nil {
		return err
	}
	for _, id := range bf.BlacklistedUsers {
		if id == userID {
			return ErrAlreadyBlacklisted
		}
	}
	bf.BlacklistedUsers = append(bf.BlacklistedUsers, userID)
	return writeJSON(s.path, bf)
}

func (s *BlacklistStore) Remove(userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	bf, err := s.load()
	if err != nil {
		return err
	}
	kept := bf.BlacklistedUsers[:0]
	found := false
	for _, id := range bf.BlacklistedUsers {
		if id == userID {
			found = true
			continue
		}
		kept = append(kept, id)
	}
	if !found {
		return ErrNotBlacklisted
	}
	bf.BlacklistedUsers = kept
	return writeJSON(s.path, bf)
}

// Contains reports whether a user is blacklisted.
func (s *BlacklistStore) Contains(userID string) (bool, error) {
	ids, err := s.All()
	if err != nil {
		return false, err
	}
	for _, id := range ids {
		if id == userID {
			return true, nil
		}
	}
	return false, nil
}
