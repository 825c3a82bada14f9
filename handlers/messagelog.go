package handlers

import (
	"fmt"
	"log"
	"strings"
	"time"

	"support-bot/config"
	"support-bot/storage"

	"github.com/bwmarrin/discordgo"
)

// resolveChannel looks up a configured channel by ID first, then by
// name among the guild's channels. Returns nil when nothing matches.
func resolveChannel(s *discordgo.Session, guildID, idOrName string) *discordgo.Channel {
	if idOrName == "" {
		return nil
	}
	if ch, err := s.State.Channel(idOrName); err == nil {
		return ch
	}
	if ch, err := s.Channel(idOrName); err == nil {
		return ch
	}
	channels, err := s.GuildChannels(guildID)
	if err != nil {
		return nil
	}
	for _, ch := range channels {
		if strings.EqualFold(ch.Name, idOrName) {
			return ch
		}
	}
	return nil
}

// RegisterMessageLog wires the edit and delete audit handlers. Old
// content comes from the session state cache, so messages older than
// the cache window log without their previous content.
func RegisterMessageLog(s *discordgo.Session) {
	s.AddHandler(onMessageUpdate)
	s.AddHandler(onMessageDelete)
}

const noContentPlaceholder = "*No content*"

func messageLink(guildID, channelID, messageID string) string {
	return fmt.Sprintf("https://discord.com/channels/%s/%s/%s", guildID, channelID, messageID)
}

// createdTimestamp renders the message's creation time, taken from the
// snowflake, as a Discord full-format timestamp.
func createdTimestamp(messageID string) string {
	t, err := discordgo.SnowflakeTimestamp(messageID)
	if err != nil {
		return "*Unknown*"
	}
	return fmt.Sprintf("<t:%d:F>", t.Unix())
}

func contentOrPlaceholder(m *discordgo.Message) string {
	if m == nil {
		return noContentPlaceholder
	}
	if m.Content != "" {
		return m.Content
	}
	if len(m.Attachments) > 0 {
		return "*Contains attachment(s)*"
	}
	return noContentPlaceholder
}

func onMessageUpdate(s *discordgo.Session, m *discordgo.MessageUpdate) {
	cfg := storage.Cfg
	if m.GuildID == "" || m.Author == nil || m.Author.Bot {
		return
	}
	// Embed-resolution updates fire this event with identical content.
	if m.BeforeUpdate != nil && m.BeforeUpdate.Content == m.Content {
		return
	}

	logCh := resolveChannel(s, m.GuildID, cfg.MessageLog.UpdateChannel)
	if logCh == nil {
		return
	}

	if _, err := s.ChannelMessageSendEmbed(logCh.ID, updateLogEmbed(m)); err != nil {
		log.Printf("[MsgLog] Failed to log edit: %v", err)
	}
}

func updateLogEmbed(m *discordgo.MessageUpdate) *discordgo.MessageEmbed {
	cfg := storage.Cfg
	return &discordgo.MessageEmbed{
		Title: "Message Edited",
		Description: fmt.Sprintf("**Author:** %s (`%s`)\n**Channel:** <#%s>\n**Created:** %s\n[Jump to Message](%s)",
			m.Author.String(), m.Author.ID, m.ChannelID,
			createdTimestamp(m.ID), messageLink(m.GuildID, m.ChannelID, m.ID)),
		Color: config.Colour(cfg.MessageLog.UpdateColour),
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Before", Value: contentOrPlaceholder(m.BeforeUpdate)},
			{Name: "After", Value: contentOrPlaceholder(m.Message)},
		},
		Thumbnail: &discordgo.MessageEmbedThumbnail{URL: m.Author.AvatarURL("128")},
		Footer:    &discordgo.MessageEmbedFooter{Text: cfg.Embed.Footer},
		Timestamp: time.Now().Format(time.RFC3339),
	}
}

func onMessageDelete(s *discordgo.Session, m *discordgo.MessageDelete) {
	cfg := storage.Cfg
	if m.GuildID == "" {
		return
	}

	before := m.BeforeDelete
	if before != nil && before.Author != nil && before.Author.Bot {
		return
	}

	logCh := resolveChannel(s, m.GuildID, cfg.MessageLog.DeleteChannel)
	if logCh == nil {
		return
	}

	if _, err := s.ChannelMessageSendEmbed(logCh.ID, deleteLogEmbed(m)); err != nil {
		log.Printf("[MsgLog] Failed to log delete: %v", err)
	}
}

func deleteLogEmbed(m *discordgo.MessageDelete) *discordgo.MessageEmbed {
	cfg := storage.Cfg
	before := m.BeforeDelete

	author := "Unknown (message not cached)"
	var thumb *discordgo.MessageEmbedThumbnail
	if before != nil && before.Author != nil {
		author = fmt.Sprintf("%s (`%s`)", before.Author.String(), before.Author.ID)
		thumb = &discordgo.MessageEmbedThumbnail{URL: before.Author.AvatarURL("128")}
	}

	embed := &discordgo.MessageEmbed{
		Title: "Message Deleted",
		Description: fmt.Sprintf("**Author:** %s\n**Channel:** <#%s>\n**Created:** %s\n[Message Location](%s)",
			author, m.ChannelID,
			createdTimestamp(m.ID), messageLink(m.GuildID, m.ChannelID, m.ID)),
		Color: config.Colour(cfg.MessageLog.DeleteColour),
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Content", Value: contentOrPlaceholder(before)},
		},
		Thumbnail: thumb,
		Footer:    &discordgo.MessageEmbedFooter{Text: cfg.Embed.Footer},
		Timestamp: time.Now().Format(time.RFC3339),
	}
	if before != nil && len(before.Attachments) > 0 {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name: "Attachment", Value: before.Attachments[0].URL,
		})
	}
	return embed
}
