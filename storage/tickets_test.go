package storage

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func seedTicketStore(t *testing.T, tickets []Ticket) *TicketStore {
	t.Helper()
	path := filepath.Join(t.TempDir(), "TicketData.json")
	data, err := json.Marshal(ticketFile{Tickets: tickets})
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatal(err)
	}
	return NewTicketStore(path)
}

func TestTicketStoreFind(t *testing.T) {
	store := seedTicketStore(t, []Ticket{
		{ID: "100", User: "u1", Open: true},
		{ID: "200", User: "u2", ClaimedBy: "staff1", Open: true},
	})

	ticket, err := store.Find("200")
	if err != nil {
		t.Fatalf("Find(200): %v", err)
	}
	if ticket.User != "u2" || ticket.ClaimedBy != "staff1" || !ticket.Open {
		t.Errorf("unexpected ticket: %+v", ticket)
	}

	if _, err := store.Find("999"); !errors.Is(err, ErrTicketNotFound) {
		t.Errorf("Find(999) = %v, want ErrTicketNotFound", err)
	}
}

func TestTicketStoreClose(t *testing.T) {
	store := seedTicketStore(t, []Ticket{
		{ID: "100", User: "u1", Open: true},
		{ID: "200", User: "u2", Open: true},
	})

	snapshot := []TranscriptMessage{
		{Content: "hello", Username: "u1", UserID: "u1"},
	}
	if err := store.Close("100", snapshot); err != nil {
		t.Fatalf("Close(100): %v", err)
	}

	closed, err := store.Find("100")
	if err != nil {
		t.Fatal(err)
	}
	if closed.Open {
		t.Error("ticket 100 still open after Close")
	}
	if len(closed.Messages) != 1 || closed.Messages[0].Content != "hello" {
		t.Errorf("snapshot not stored: %+v", closed.Messages)
	}

	// The other record must be untouched.
	other, err := store.Find("200")
	if err != nil {
		t.Fatal(err)
	}
	if !other.Open || len(other.Messages) != 0 {
		t.Errorf("ticket 200 was modified: %+v", other)
	}
}

func TestTicketStoreCloseMissing(t *testing.T) {
	store := seedTicketStore(t, []Ticket{{ID: "100", Open: true}})

	if err := store.Close("999", nil); !errors.Is(err, ErrTicketNotFound) {
		t.Errorf("Close(999) = %v, want ErrTicketNotFound", err)
	}
}
