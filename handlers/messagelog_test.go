package handlers

import (
	"strings"
	"testing"

	"support-bot/config"
	"support-bot/storage"

	"github.com/bwmarrin/discordgo"
)

func TestMessageLink(t *testing.T) {
	got := messageLink("g1", "c1", "m1")
	if got != "https://discord.com/channels/g1/c1/m1" {
		t.Errorf("messageLink = %q", got)
	}
}

func TestContentOrPlaceholder(t *testing.T) {
	tests := []struct {
		name string
		msg  *discordgo.Message
		want string
	}{
		{"nil message", nil, noContentPlaceholder},
		{"empty message", &discordgo.Message{}, noContentPlaceholder},
		{"text", &discordgo.Message{Content: "hi"}, "hi"},
		{
			"attachment only",
			&discordgo.Message{Attachments: []*discordgo.MessageAttachment{{URL: "u"}}},
			"*Contains attachment(s)*",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := contentOrPlaceholder(tt.msg); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestUpdateLogEmbedHasLinkAndCreated(t *testing.T) {
	storage.Cfg = &config.Config{}

	m := &discordgo.MessageUpdate{Message: &discordgo.Message{
		ID:        "1081234567890123456",
		GuildID:   "g1",
		ChannelID: "c1",
		Content:   "after",
		Author:    &discordgo.User{ID: "u1", Username: "alice"},
	}}
	m.BeforeUpdate = &discordgo.Message{Content: "before"}

	embed := updateLogEmbed(m)
	if !strings.Contains(embed.Description, messageLink("g1", "c1", "1081234567890123456")) {
		t.Errorf("description missing jump link: %q", embed.Description)
	}
	if !strings.Contains(embed.Description, "<t:") {
		t.Errorf("description missing created timestamp: %q", embed.Description)
	}
	if embed.Fields[0].Value != "before" || embed.Fields[1].Value != "after" {
		t.Errorf("before/after fields wrong: %+v", embed.Fields)
	}
}

func TestDeleteLogEmbedHasLinkAndCreated(t *testing.T) {
	storage.Cfg = &config.Config{}

	m := &discordgo.MessageDelete{Message: &discordgo.Message{
		ID:        "1081234567890123456",
		GuildID:   "g1",
		ChannelID: "c1",
	}}
	m.BeforeDelete = &discordgo.Message{
		Content: "gone",
		Author:  &discordgo.User{ID: "u1", Username: "alice"},
		Attachments: []*discordgo.MessageAttachment{
			{URL: "https://cdn.example/file.png"},
		},
	}

	embed := deleteLogEmbed(m)
	if !strings.Contains(embed.Description, messageLink("g1", "c1", "1081234567890123456")) {
		t.Errorf("description missing message location: %q", embed.Description)
	}
	if !strings.Contains(embed.Description, "<t:") {
		t.Errorf("description missing created timestamp: %q", embed.Description)
	}
	if embed.Fields[0].Value != "gone" {
		t.Errorf("content field = %q", embed.Fields[0].Value)
	}
	if len(embed.Fields) != 2 || embed.Fields[1].Value != "https://cdn.example/file.png" {
		t.Errorf("attachment field missing: %+v", embed.Fields)
	}

	// An uncached delete still renders.
	m.BeforeDelete = nil
	embed = deleteLogEmbed(m)
	if !strings.Contains(embed.Description, "Unknown (message not cached)") {
		t.Errorf("uncached delete description = %q", embed.Description)
	}
	if embed.Fields[0].Value != noContentPlaceholder {
		t.Errorf("uncached content field = %q", embed.Fields[0].Value)
	}
}
