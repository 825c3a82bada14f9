// Package audit delivers audit records for moderating actions to the
// configured Discord log channel and, when an AMQP URL is set, fans the
// same record out to a topic exchange for external consumers. Delivery
// is best-effort: failures are logged and never retried.
package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"support-bot/config"
	"support-bot/lang"

	"github.com/bwmarrin/discordgo"
	amqp "github.com/rabbitmq/amqp091-go"
)

type Event struct {
	Action    string `json:"action"`
	GuildID   string `json:"guild_id"`
	UserID    string `json:"user_id"`
	ActorID   string `json:"actor_id"`
	Reason    string `json:"reason"`
	Timestamp string `json:"timestamp"`
}

type Logger struct {
	session  *discordgo.Session
	cfg      *config.Config
	conn     *amqp.Connection
	ch       *amqp.Channel
	exchange string
}

// New creates the audit logger. An unreachable AMQP broker is a warning,
// not an error: Discord-channel delivery still works without it.
func New(s *discordgo.Session, cfg *config.Config) *Logger {
	l := &Logger{session: s, cfg: cfg, exchange: cfg.Audit.Exchange}

	if cfg.Audit.AMQPURL == "" {
		return l
	}

	conn, err := amqp.Dial(cfg.Audit.AMQPURL)
	if err != nil {
		log.Printf("[Audit] AMQP dial failed: %v — events will only go to the log channel", err)
		return l
	}
	ch, err := conn.Channel()
	if err != nil {
		log.Printf("[Audit] AMQP channel failed: %v — events will only go to the log channel", err)
		conn.Close()
		return l
	}
	if err := ch.ExchangeDeclare(l.exchange, "topic", true, false, false, false, nil); err != nil {
		log.Printf("[Audit] AMQP exchange declare failed: %v", err)
		ch.Close()
		conn.Close()
		return l
	}

	l.conn = conn
	l.ch = ch
	log.Printf("[Audit] AMQP fanout enabled on exchange %q", l.exchange)
	return l
}

func (l *Logger) Shutdown() {
	if l.ch != nil {
		_ = l.ch.Close()
	}
	if l.conn != nil {
		_ = l.conn.Close()
	}
}

// BlacklistChange records an add/remove on the ticket blacklist.
func (l *Logger) BlacklistChange(guildID, userID, userTag, actorID, actorAvatar, action, reason string) {
	ev := Event{
		Action:    "blacklist." + action,
		GuildID:   guildID,
		UserID:    userID,
		ActorID:   actorID,
		Reason:    reason,
		Timestamp: time.Now().Format(time.RFC3339),
	}

	embed := &discordgo.MessageEmbed{
		Title: lang.T("blacklist_log.title"),
		Color: config.Colour(l.cfg.Embed.Colours.Success),
		Description: fmt.Sprintf("> **User:** %s (`%s`)\n> **Actioned by:** <@%s>",
			userTag, userID, actorID),
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Action", Value: "```" + action + "```"},
			{Name: "Reason", Value: "```" + reason + "```"},
		},
		Footer:    &discordgo.MessageEmbedFooter{Text: l.cfg.Embed.Footer, IconURL: actorAvatar},
		Timestamp: ev.Timestamp,
	}

	l.deliver(l.cfg.Ticket.BlacklistLog, embed, ev)
}

// TicketClosed records a ticket closure.
func (l *Logger) TicketClosed(guildID, channelID, ownerID, actorID, reason string) {
	ev := Event{
		Action:    "ticket.closed",
		GuildID:   guildID,
		UserID:    ownerID,
		ActorID:   actorID,
		Reason:    reason,
		Timestamp: time.Now().Format(time.RFC3339),
	}
	// The close workflow already sends the transcript embed; only the
	// AMQP fanout happens here.
	l.publish(ev)
	_ = channelID
}

func (l *Logger) deliver(channelID string, embed *discordgo.MessageEmbed, ev Event) {
	if channelID != "" {
		if _, err := l.session.ChannelMessageSendEmbed(channelID, embed); err != nil {
			log.Printf("[Audit] Failed to send %s embed: %v", ev.Action, err)
		}
	}
	l.publish(ev)
}

func (l *Logger) publish(ev Event) {
	if l.ch == nil {
		return
	}
	body, err := json.Marshal(ev)
	if err != nil {
		log.Printf("[Audit] Marshal %s: %v", ev.Action, err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err = l.ch.PublishWithContext(ctx, l.exchange, ev.Action, false, false, amqp.Publishing{
		ContentType: "application/json",
		Timestamp:   time.Now(),
		Body:        body,
	})
	if err != nil {
		log.Printf("[Audit] AMQP publish %s: %v", ev.Action, err)
	}
}
