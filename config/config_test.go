package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestColour(t *testing.T) {
	tests := []struct {
		in   string
		want int
	}{
		{"FF00AA", 0xFF00AA},
		{"#ff00aa", 0xFF00AA},
		{" 57F287 ", 0x57F287},
		{"zzzzzz", DefaultColour},
		{"FFF", DefaultColour},
		{"FF00AABB", DefaultColour},
		{"", DefaultColour},
	}

	for _, tt := range tests {
		if got := Colour(tt.in); got != tt.want {
			t.Errorf("Colour(%q) = %#x, want %#x", tt.in, got, tt.want)
		}
	}
}

func TestLoadValid(t *testing.T) {
	yml := `
discord:
  token: "abc123"
roles:
  staff: "Support Staff"
  admin: "Admin"
ticket:
  transcript_log: "transcripts"
`
	path := filepath.Join(t.TempDir(), "cfg.yml")
	if err := os.WriteFile(path, []byte(yml), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	// Defaults fill the gaps.
	if cfg.Ticket.Type != TicketTypeChannels {
		t.Errorf("ticket.type default = %q", cfg.Ticket.Type)
	}
	if cfg.Ticket.Review.TimeoutSeconds != 120 {
		t.Errorf("review timeout default = %d", cfg.Ticket.Review.TimeoutSeconds)
	}
	if cfg.Storage.Database.Driver != "sqlite" {
		t.Errorf("database driver default = %q", cfg.Storage.Database.Driver)
	}
}

func TestValidateAggregatesProblems(t *testing.T) {
	cfg := &Config{}
	cfg.Ticket.Type = "voicemail"
	cfg.Storage.Database.Driver = "sqlite"

	err := cfg.Validate()
	if err == nil {
		t.Fatal("Validate passed on empty config")
	}

	for _, want := range []string{
		"discord.token",
		"roles.staff",
		"roles.admin",
		"ticket.type",
		"ticket.transcript_log",
	} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error missing %q: %v", want, err)
		}
	}
}

func TestValidateReviewChannelRequired(t *testing.T) {
	cfg := &Config{}
	cfg.Discord.Token = "abc"
	cfg.Roles.Staff = "Staff"
	cfg.Roles.Admin = "Admin"
	cfg.Ticket.Type = TicketTypeThreads
	cfg.Ticket.TranscriptLog = "transcripts"
	cfg.Ticket.Review.Enabled = true
	cfg.Storage.Database.Driver = "sqlite"

	err := cfg.Validate()
	if err == nil || !strings.Contains(err.Error(), "ticket.review.channel") {
		t.Errorf("expected review channel error, got %v", err)
	}

	cfg.Ticket.Review.Channel = "reviews"
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate after fixing channel: %v", err)
	}
}

func TestValidateMongoNeedsURI(t *testing.T) {
	cfg := &Config{}
	cfg.Discord.Token = "abc"
	cfg.Roles.Staff = "Staff"
	cfg.Roles.Admin = "Admin"
	cfg.Ticket.Type = TicketTypeChannels
	cfg.Ticket.TranscriptLog = "transcripts"
	cfg.Storage.Database.Driver = "mongodb"

	err := cfg.Validate()
	if err == nil || !strings.Contains(err.Error(), "mongodb") {
		t.Errorf("expected mongodb config error, got %v", err)
	}
}
