package handlers

import (
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"support-bot/config"
	"support-bot/lang"
	"support-bot/storage"

	"github.com/bwmarrin/discordgo"
)

func handleClose(s *discordgo.Session, i *discordgo.InteractionCreate) {
	cfg := storage.Cfg

	if cfg.Ticket.StaffOnlyClose {
		staffRole := getRole(s, i.GuildID, cfg.Roles.Staff)
		adminRole := getRole(s, i.GuildID, cfg.Roles.Admin)
		if staffRole == nil || adminRole == nil {
			respond(s, i, lang.T("error.missing_roles"), false)
			return
		}
		if !memberHasRole(i.Member, staffRole.ID) && !memberHasRole(i.Member, adminRole.ID) {
			respondEmbed(s, i, noPermsEmbed(), false)
			return
		}
	}

	ch, err := s.State.Channel(i.ChannelID)
	if err != nil {
		ch, err = s.Channel(i.ChannelID)
	}
	if err != nil || !validTicketChannel(ch, cfg.Ticket.Type) {
		respondEmbed(s, i, warnEmbed("Invalid Channel!", invalidChannelMessage(cfg.Ticket.Type)), true)
		return
	}

	if err := deferReply(s, i, false); err != nil {
		log.Printf("[Close] Failed to defer: %v", err)
		return
	}

	ticket, err := storage.Tickets.Find(i.ChannelID)
	if err != nil {
		if errors.Is(err, storage.ErrTicketNotFound) {
			followupEmbed(s, i, warnEmbed("No Ticket Found!", lang.T("error.no_valid_ticket")))
		} else {
			log.Printf("[Close] Error reading ticket data: %v", err)
			followup(s, i, "There was an error loading ticket data.")
		}
		return
	}

	reason := optStr(optionMap(i), "reason", "No Reason Provided.")

	// The workflow blocks on review prompts and history pagination, so
	// it runs off the gateway goroutine.
	go runClose(s, i, ch, ticket, reason)
}

func validTicketChannel(ch *discordgo.Channel, ticketType string) bool {
	switch ticketType {
	case config.TicketTypeThreads:
		return ch.Type == discordgo.ChannelTypeGuildPrivateThread ||
			ch.Type == discordgo.ChannelTypeGuildPublicThread
	case config.TicketTypeChannels:
		return ch.Type == discordgo.ChannelTypeGuildText
	}
	return false
}

func invalidChannelMessage(ticketType string) string {
	if ticketType == config.TicketTypeThreads {
		return "This command can only be used in a ticket thread."
	}
	return "This command can only be used in a ticket channel."
}

// runClose drives the close workflow: optional review, full history
// pagination, archive render and delivery, store write, channel
// teardown. The store is only written after the archive has been
// delivered, so a delivery failure never leaves a closed ticket with no
// transcript.
func runClose(s *discordgo.Session, i *discordgo.InteractionCreate, ch *discordgo.Channel, ticket *storage.Ticket, reason string) {
	cfg := storage.Cfg
	actor := i.Member.User

	var (
		rating   int
		comment  string
		reviewed bool
	)
	if cfg.Ticket.Review.Enabled {
		rating, comment, reviewed = collectReview(s, i, ticket)
		if reviewed {
			reviewEmbed := buildReviewEmbed(ticket, rating, comment)
			if reviewCh := resolveChannel(s, i.GuildID, cfg.Ticket.Review.Channel); reviewCh != nil {
				if _, err := s.ChannelMessageSendEmbed(reviewCh.ID, reviewEmbed); err != nil {
					log.Printf("[Close] Failed to send review embed: %v", err)
				}
			}
		}
	}

	// The archive destination must exist before any history is fetched.
	transcriptCh := resolveChannel(s, i.GuildID, cfg.Ticket.TranscriptLog)
	if transcriptCh == nil {
		log.Printf("[Close] Transcript channel %q missing or inaccessible", cfg.Ticket.TranscriptLog)
		followup(s, i, "Error: Transcript log channel is missing or bot lacks permission.")
		return
	}

	msgs, err := fetchAllMessages(sessionFetcher(s), ch.ID)
	if err != nil {
		log.Printf("[Close] Error fetching history for %s: %v", ch.ID, err)
		followup(s, i, "An error occurred while closing the ticket.")
		return
	}
	snapshot := snapshotMessages(msgs)

	html, err := renderTranscript(ch.ID, ch.Name, snapshot)
	if err != nil {
		log.Printf("[Close] Error rendering transcript for %s: %v", ch.ID, err)
		followup(s, i, "An error occurred while closing the ticket.")
		return
	}

	fileName := ch.ID + "-transcript.html"
	filePath := filepath.Join(storage.TranscriptDir(), fileName)
	if err := os.WriteFile(filePath, []byte(html), 0644); err != nil {
		log.Printf("[Close] Error writing transcript file: %v", err)
		followup(s, i, "An error occurred while closing the ticket.")
		return
	}

	logEmbed := &discordgo.MessageEmbed{
		Title: lang.T("ticket_log.title"),
		Color: config.Colour(cfg.Embed.Colours.General),
		Description: fmt.Sprintf("> **Ticket:** %s (`%s`)\n> **User:** <@%s> (`%s`)\n> **Closed by:** <@%s>",
			ch.Name, ch.ID, ticket.User, ticket.User, actor.ID),
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Reason", Value: "```" + reason + "```", Inline: true},
		},
		Footer:    &discordgo.MessageEmbedFooter{Text: cfg.Embed.Footer, IconURL: actor.AvatarURL("64")},
		Timestamp: time.Now().Format(time.RFC3339),
	}

	_, err = s.ChannelMessageSendComplex(transcriptCh.ID, &discordgo.MessageSend{
		Embeds: []*discordgo.MessageEmbed{logEmbed},
		Files: []*discordgo.File{
			{Name: fileName, ContentType: "text/html", Reader: strings.NewReader(html)},
		},
	})
	if err != nil {
		log.Printf("[Close] Error delivering transcript: %v", err)
		followup(s, i, "An error occurred while closing the ticket.")
		return
	}

	if err := storage.Tickets.Close(ch.ID, snapshot); err != nil {
		log.Printf("[Close] Error updating ticket store: %v", err)
		followup(s, i, "An error occurred while closing the ticket.")
		return
	}

	if reviewed && storage.DB != nil {
		review := storage.Review{
			TicketID:  ch.ID,
			UserID:    ticket.User,
			StaffID:   ticket.ClaimedBy,
			Rating:    rating,
			Comment:   comment,
			Timestamp: time.Now().Format(time.RFC3339),
		}
		if err := storage.DB.AddReview(i.GuildID, review); err != nil {
			log.Printf("[Close] Failed to record review: %v", err)
		}
	}

	if Auditor != nil {
		Auditor.TicketClosed(i.GuildID, ch.ID, ticket.User, actor.ID, reason)
	}

	if _, err := s.ChannelDelete(ch.ID); err != nil {
		log.Printf("[Close] Error deleting channel %s: %v", ch.ID, err)
		followup(s, i, "Ticket archived, but the channel could not be deleted.")
	}
}
