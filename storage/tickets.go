package storage

import (
	"errors"
	"fmt"
	"os"
	"sync"

	"encoding/json"
)

var ErrTicketNotFound = errors.New("ticket not found")

type TranscriptAttachment struct {
	URL  string `json:"url"`
	Name string `json:"name"`
}

type TranscriptEmbedField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline"`
}

type TranscriptEmbed struct {
	Title       string                 `json:"title,omitempty"`
	Description string                 `json:"description,omitempty"`
	Fields      []TranscriptEmbedField `json:"fields,omitempty"`
}

// TranscriptMessage is an immutable snapshot of one channel message,
// captured when the ticket is closed.
type TranscriptMessage struct {
	Content     string                 `json:"content"`
	Username    string                 `json:"username"`
	UserID      string                 `json:"userId"`
	AvatarURL   string                 `json:"avatarUrl"`
	Timestamp   string                 `json:"timestamp"`
	Attachments []TranscriptAttachment `json:"attachments,omitempty"`
	Embeds      []TranscriptEmbed      `json:"embeds,omitempty"`
}

type Ticket struct {
	ID        string              `json:"id"`
	User      string              `json:"user"`
	ClaimedBy string              `json:"claimedBy,omitempty"`
	Open      bool                `json:"open"`
	Messages  []TranscriptMessage `json:"messages"`
}

type ticketFile struct {
	Tickets []Ticket `json:"tickets"`
}

// TicketStore owns the single ticket JSON document. Every mutation is a
// full read-modify-write of the file, serialised by the store mutex so
// two concurrent closes cannot race each other.
type TicketStore struct {
	mu   sync.Mutex
	path string
}

func NewTicketStore(path string) *TicketStore {
	return &TicketStore{path: path}
}

func (s *TicketStore) load() (*ticketFile, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("read ticket store: %w", err)
	}
	var tf ticketFile
	if err := json.Unmarshal(data, &tf); err != nil {
		return nil, fmt.Errorf("parse ticket store: %w", err)
	}
	return &tf, nil
}

// Find returns the ticket whose channel ID matches, or ErrTicketNotFound.
func (s *TicketStore) Find(channelID string) (*Ticket, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tf, err := s.load()
	if err != nil {
		return nil, err
	}
	for i := range tf.Tickets {
		if tf.Tickets[i].ID == channelID {
			t := tf.Tickets[i]
			return &t, nil
		}
	}
	return nil, ErrTicketNotFound
}

// Close marks exactly the matching ticket closed and stores its message
// snapshot, leaving every other record untouched. Tickets are never
// deleted from the store.
func (s *TicketStore) Close(channelID string, messages []TranscriptMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tf, err := s.load()
	if err != nil {
		return err
	}
	for i := range tf.Tickets {
		if tf.Tickets[i].ID == channelID {
			tf.Tickets[i].Open = false
			tf.Tickets[i].Messages = messages
			return writeJSON(s.path, tf)
		}
	}
	return ErrTicketNotFound
}
