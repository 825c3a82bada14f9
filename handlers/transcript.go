package handlers

import (
	"bytes"
	"html/template"
	"sort"
	"time"

	"support-bot/storage"

	"github.com/bwmarrin/discordgo"
)

// historyPageSize is the platform maximum per history fetch.
const historyPageSize = 100

// historyFetcher matches discordgo's ChannelMessages pagination shape.
// The indirection keeps the pagination walk testable without a session.
type historyFetcher func(channelID string, limit int, beforeID string) ([]*discordgo.Message, error)

func sessionFetcher(s *discordgo.Session) historyFetcher {
	return func(channelID string, limit int, beforeID string) ([]*discordgo.Message, error) {
		return s.ChannelMessages(channelID, limit, beforeID, "", "")
	}
}

// fetchAllMessages retrieves the entire channel history, walking
// backward by last-seen message ID until a short page signals
// exhaustion, then returns the messages sorted by creation time
// ascending.
func fetchAllMessages(fetch historyFetcher, channelID string) ([]*discordgo.Message, error) {
	var all []*discordgo.Message
	before := ""

	for {
		page, err := fetch(channelID, historyPageSize, before)
		if err != nil {
			return nil, err
		}
		if len(page) == 0 {
			break
		}
		all = append(all, page...)
		// Pages arrive newest-first; the oldest message of the page is
		// the cursor for the next one.
		before = page[len(page)-1].ID
		if len(page) < historyPageSize {
			break
		}
	}

	sort.SliceStable(all, func(a, b int) bool {
		return all[a].Timestamp.Before(all[b].Timestamp)
	})
	return all, nil
}

// snapshotMessages converts fetched history into the immutable
// transcript records stored on the ticket.
func snapshotMessages(msgs []*discordgo.Message) []storage.TranscriptMessage {
	out := make([]storage.TranscriptMessage, 0, len(msgs))
	for _, m := range msgs {
		if m.Author == nil {
			continue
		}
		tm := storage.TranscriptMessage{
			Content:   m.Content,
			Username:  m.Author.Username,
			UserID:    m.Author.ID,
			AvatarURL: m.Author.AvatarURL("64"),
			Timestamp: m.Timestamp.UTC().Format(time.RFC3339),
		}
		for _, a := range m.Attachments {
			tm.Attachments = append(tm.Attachments, storage.TranscriptAttachment{
				URL:  a.URL,
				Name: a.Filename,
			})
		}
		for _, e := range m.Embeds {
			te := storage.TranscriptEmbed{Title: e.Title, Description: e.Description}
			for _, f := range e.Fields {
				te.Fields = append(te.Fields, storage.TranscriptEmbedField{
					Name:   f.Name,
					Value:  f.Value,
					Inline: f.Inline,
				})
			}
			tm.Embeds = append(tm.Embeds, te)
		}
		out = append(out, tm)
	}
	return out
}

var transcriptTmpl = template.Must(template.New("transcript").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>Ticket Transcript {{.TicketID}}</title>
<style>
  body { background-color: #1a1a1a; font-family: 'Segoe UI', Tahoma, sans-serif; color: white; margin: 0; }
  .container { max-width: 1000px; margin: 20px auto; padding: 20px; background-color: rgba(0, 128, 0, 0.3); border-radius: 15px; }
  .message { display: flex; align-items: flex-start; margin-bottom: 10px; padding: 10px; background-color: rgba(255, 255, 255, 0.1); border-radius: 10px; }
  .avatar { width: 40px; height: 40px; border-radius: 50%; margin-right: 10px; }
  .username { font-weight: bold; }
  .timestamp { font-size: 0.8em; color: #bbb; }
  .embed { border-left: 4px solid #5865F2; padding: 6px 10px; margin-top: 6px; background-color: rgba(0, 0, 0, 0.25); }
  a { color: #4caf50; }
</style>
</head>
<body>
<div class="container">
  <h1>Ticket Transcript</h1>
  <p><strong>Ticket:</strong> {{.ChannelName}} ({{.TicketID}})</p>
  <p><strong>Messages:</strong> {{len .Messages}}</p>
  {{range .Messages}}
  <div class="message">
    <img src="{{.AvatarURL}}" alt="" class="avatar">
    <div>
      <p class="username">{{.Username}}</p>
      <p>{{.Content}}</p>
      {{range .Embeds}}
      <div class="embed">
        {{if .Title}}<p class="username">{{.Title}}</p>{{end}}
        {{if .Description}}<p>{{.Description}}</p>{{end}}
        {{range .Fields}}<p><strong>{{.Name}}:</strong> {{.Value}}</p>{{end}}
      </div>
      {{end}}
      {{range .Attachments}}
      <p><a href="{{.URL}}">{{.Name}}</a></p>
      {{end}}
      <p class="timestamp">{{.Timestamp}}</p>
    </div>
  </div>
  {{end}}
</div>
</body>
</html>
`))

type transcriptData struct {
	TicketID    string
	ChannelName string
	Messages    []storage.TranscriptMessage
}

// renderTranscript produces the self-contained HTML archive document.
func renderTranscript(ticketID, channelName string, msgs []storage.TranscriptMessage) (string, error) {
	var buf bytes.Buffer
	err := transcriptTmpl.Execute(&buf, transcriptData{
		TicketID:    ticketID,
		ChannelName: channelName,
		Messages:    msgs,
	})
	if err != nil {
		return "", err
	}
	return buf.String(), nil
}
