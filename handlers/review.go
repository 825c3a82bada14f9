package handlers

import (
	"strconv"
	"strings"
	"time"

	"support-bot/config"
	"support-bot/lang"
	"support-bot/storage"

	"github.com/bwmarrin/discordgo"
)

// noCommentPlaceholder replaces an absent or declined review comment.
const noCommentPlaceholder = "No Comment Provided"

// collectReview runs the two blocking review prompts against the ticket
// owner: a 1-5 rating select and a free-text comment. Both waits are
// bounded by ticket.review.timeout_seconds; on timeout the review is
// skipped and the close continues without one.
func collectReview(s *discordgo.Session, i *discordgo.InteractionCreate, ticket *storage.Ticket) (int, string, bool) {
	cfg := storage.Cfg
	timeout := time.Duration(cfg.Ticket.Review.TimeoutSeconds) * time.Second
	ownerID := ticket.User
	channelID := i.ChannelID

	ratingPrompt := &discordgo.MessageEmbed{
		Title:       lang.T("review.rate.title"),
		Description: lang.T("review.rate.description"),
		Color:       config.Colour(cfg.Embed.Colours.General),
	}

	_, err := s.FollowupMessageCreate(i.Interaction, true, &discordgo.WebhookParams{
		Content: "<@" + ownerID + ">",
		Embeds:  []*discordgo.MessageEmbed{ratingPrompt},
		Components: []discordgo.MessageComponent{
			discordgo.ActionsRow{
				Components: []discordgo.MessageComponent{
					discordgo.SelectMenu{
						MenuType:    discordgo.StringSelectMenu,
						CustomID:    "review_rating",
						Placeholder: "Select a rating",
						Options: []discordgo.SelectMenuOption{
							{Label: lang.T("review.stars.one"), Value: "1"},
							{Label: lang.T("review.stars.two"), Value: "2"},
							{Label: lang.T("review.stars.three"), Value: "3"},
							{Label: lang.T("review.stars.four"), Value: "4"},
							{Label: lang.T("review.stars.five"), Value: "5"},
						},
					},
				},
			},
		},
	})
	if err != nil {
		return 0, "", false
	}

	sel, err := awaitComponent(func(c *discordgo.InteractionCreate) bool {
		return c.ChannelID == channelID &&
			c.MessageComponentData().CustomID == "review_rating" &&
			c.Member != nil && c.Member.User.ID == ownerID
	}, timeout)
	if err != nil {
		return 0, "", false
	}

	_ = s.InteractionRespond(sel.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredMessageUpdate,
	})

	rating, ok := parseRating(sel.MessageComponentData().Values)
	if !ok {
		return 0, "", false
	}

	commentPrompt := &discordgo.MessageEmbed{
		Title:       lang.T("review.comment.title"),
		Description: lang.T("review.comment.description"),
		Color:       config.Colour(cfg.Embed.Colours.General),
	}
	_, _ = s.FollowupMessageCreate(i.Interaction, true, &discordgo.WebhookParams{
		Content: "<@" + ownerID + ">",
		Embeds:  []*discordgo.MessageEmbed{commentPrompt},
	})

	comment := ""
	if msg, err := awaitMessage(func(m *discordgo.Message) bool {
		return m.ChannelID == channelID && m.Author != nil && m.Author.ID == ownerID
	}, timeout); err == nil {
		comment = msg.Content
	}

	return rating, normalizeComment(comment), true
}

// parseRating accepts exactly one of the five enumerated values.
func parseRating(values []string) (int, bool) {
	if len(values) != 1 {
		return 0, false
	}
	n, err := strconv.Atoi(values[0])
	if err != nil || n < 1 || n > 5 {
		return 0, false
	}
	return n, true
}

// normalizeComment maps an empty reply or a literal "no" (any case) to
// the fixed placeholder; everything else is stored verbatim.
func normalizeComment(comment string) string {
	trimmed := strings.TrimSpace(comment)
	if trimmed == "" || strings.EqualFold(trimmed, "no") {
		return noCommentPlaceholder
	}
	return comment
}

// buildReviewEmbed renders the completed review for the review channel.
func buildReviewEmbed(ticket *storage.Ticket, rating int, comment string) *discordgo.MessageEmbed {
	cfg := storage.Cfg

	desc := "**" + lang.T("review.embed.reviewed_by") + "** <@" + ticket.User + ">"
	if cfg.Ticket.Claim.Enabled && ticket.ClaimedBy != "" {
		desc = "**" + lang.T("review.embed.reviewed_staff") + "** <@" + ticket.ClaimedBy + ">\n" + desc
	}

	return &discordgo.MessageEmbed{
		Title:       lang.T("review.embed.title"),
		Description: desc,
		Color:       config.Colour(cfg.Embed.Colours.General),
		Fields: []*discordgo.MessageEmbedField{
			{Name: lang.T("review.embed.rating"), Value: strings.Repeat("⭐", rating)},
			{Name: lang.T("review.embed.comment"), Value: "```" + comment + "```"},
		},
	}
}
