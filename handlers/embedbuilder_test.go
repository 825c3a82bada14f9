package handlers

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"support-bot/config"

	"github.com/bwmarrin/discordgo"
)

func TestParseColor(t *testing.T) {
	tests := []struct {
		in   string
		want int
	}{
		{"FF00AA", 0xFF00AA},
		{"#ff00aa", 0xFF00AA},
		{"000000", 0x000000},
		{"zzzzzz", config.DefaultColour},
		{"#12345", config.DefaultColour},
		{"1234567", config.DefaultColour},
		{"", config.DefaultColour},
	}

	for _, tt := range tests {
		if got := parseColor(tt.in); got != tt.want {
			t.Errorf("parseColor(%q) = %#x, want %#x", tt.in, got, tt.want)
		}
	}
}

func TestBuildDraftEmbed(t *testing.T) {
	d := &embedDraft{
		Title:       "Welcome",
		Description: "Read the rules",
		Color:       0x57F287,
		Footer:      "Support Bot",
		Image:       "https://cdn.example/banner.png",
	}

	embed := buildDraftEmbed(d)
	if embed.Title != "Welcome" || embed.Description != "Read the rules" || embed.Color != 0x57F287 {
		t.Errorf("unexpected embed: %+v", embed)
	}
	if embed.Footer == nil || embed.Footer.Text != "Support Bot" {
		t.Errorf("footer = %+v", embed.Footer)
	}
	if embed.Image == nil || embed.Image.URL != "https://cdn.example/banner.png" {
		t.Errorf("image = %+v", embed.Image)
	}
	if embed.Thumbnail != nil {
		t.Error("thumbnail set without a URL")
	}
	if embed.Timestamp != "" {
		t.Error("timestamp set without toggle")
	}
}

func TestEmbedSessionExpiry(t *testing.T) {
	sess := &embedSession{}
	if !sess.expired() {
		t.Error("zero expiresAt should read as expired")
	}
}

func TestEmbedSessionConcurrentEdits(t *testing.T) {
	sess := &embedSession{expiresAt: time.Now().Add(time.Minute)}

	const n = 64
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			sess.edit(func(d *embedDraft) {
				d.Fields = append(d.Fields, &discordgo.MessageEmbedField{Name: fmt.Sprint(i)})
			})
		}(i)
	}
	wg.Wait()

	if got := len(sess.snapshot().Fields); got != n {
		t.Errorf("lost updates: %d fields, want %d", got, n)
	}
}

func TestEmbedSessionSingleSend(t *testing.T) {
	sess := &embedSession{expiresAt: time.Now().Add(time.Minute)}

	wins := make(chan bool, 16)
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			wins <- sess.beginSend()
		}()
	}
	wg.Wait()
	close(wins)

	won := 0
	for w := range wins {
		if w {
			won++
		}
	}
	if won != 1 {
		t.Errorf("%d senders claimed delivery, want exactly 1", won)
	}

	// A failed delivery releases the claim for a retry.
	sess.failSend()
	if !sess.beginSend() {
		t.Error("send not claimable again after failSend")
	}
}
