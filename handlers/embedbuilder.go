package handlers

import (
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"support-bot/config"
	"support-bot/lang"
	"support-bot/storage"

	"github.com/bwmarrin/discordgo"
)

// embedSessionTTL is the fixed wizard lifetime; expiry is checked on
// every event rather than by a timer.
const embedSessionTTL = 15 * time.Minute

const (
	draftTypeEmbed = "embed"
	draftTypeText  = "text"
)

type embedDraft struct {
	Type        string
	Title       string
	Description string
	Color       int
	Fields      []*discordgo.MessageEmbedField
	Footer      string
	Thumbnail   string
	Image       string
	Timestamp   bool
}

// embedSession is the transient wizard state for one staff member. One
// session per owner; starting a new one replaces the old. Component and
// modal events arrive on separate goroutines, so all draft access goes
// through the session lock. ownerID, destID and expiresAt are set once
// at creation and never change.
type embedSession struct {
	mu    sync.Mutex
	draft embedDraft
	sent  bool

	ownerID   string
	destID    string
	expiresAt time.Time
}

var (
	embedMu       sync.Mutex
	embedSessions = make(map[string]*embedSession)
)

func (es *embedSession) expired() bool {
	return time.Now().After(es.expiresAt)
}

func (es *embedSession) edit(fn func(*embedDraft)) {
	es.mu.Lock()
	defer es.mu.Unlock()
	fn(&es.draft)
}

// snapshot copies the draft for rendering and modal prefills.
func (es *embedSession) snapshot() embedDraft {
	es.mu.Lock()
	defer es.mu.Unlock()
	d := es.draft
	d.Fields = append([]*discordgo.MessageEmbedField(nil), es.draft.Fields...)
	return d
}

func (es *embedSession) sentAlready() bool {
	es.mu.Lock()
	defer es.mu.Unlock()
	return es.sent
}

// beginSend claims the single delivery; exactly one caller wins.
func (es *embedSession) beginSend() bool {
	es.mu.Lock()
	defer es.mu.Unlock()
	if es.sent {
		return false
	}
	es.sent = true
	return true
}

func (es *embedSession) failSend() {
	es.mu.Lock()
	defer es.mu.Unlock()
	es.sent = false
}

// parseColor validates a strict 6-hex-digit colour (optional leading #)
// and falls back to the default on any other input.
func parseColor(s string) int {
	return config.Colour(s)
}

func handleEmbedBuilder(s *discordgo.Session, i *discordgo.InteractionCreate) {
	cfg := storage.Cfg

	staffRole := getRole(s, i.GuildID, cfg.Roles.Staff)
	adminRole := getRole(s, i.GuildID, cfg.Roles.Admin)
	if staffRole == nil || adminRole == nil {
		respond(s, i, lang.T("error.missing_roles"), true)
		return
	}
	if !memberHasRole(i.Member, staffRole.ID) && !memberHasRole(i.Member, adminRole.ID) {
		respondEmbed(s, i, noPermsEmbed(), true)
		return
	}

	dest := optionMap(i)["channel"].ChannelValue(s)

	sess := &embedSession{
		ownerID: i.Member.User.ID,
		destID:  dest.ID,
		draft: embedDraft{
			Type:        draftTypeEmbed,
			Title:       "New Embed",
			Description: "Click the buttons below to edit this embed",
			Color:       config.DefaultColour,
		},
		expiresAt: time.Now().Add(embedSessionTTL),
	}

	// Render before publishing the session so no other goroutine can
	// reach the draft yet.
	data := previewData(&sess.draft)
	data.Flags = discordgo.MessageFlagsEphemeral

	embedMu.Lock()
	embedSessions[sess.ownerID] = sess
	embedMu.Unlock()
	_ = s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: data,
	})
}

func lookupEmbedSession(userID string) *embedSession {
	embedMu.Lock()
	defer embedMu.Unlock()
	return embedSessions[userID]
}

func dropEmbedSession(userID string) {
	embedMu.Lock()
	defer embedMu.Unlock()
	delete(embedSessions, userID)
}

func buildDraftEmbed(d *embedDraft) *discordgo.MessageEmbed {
	embed := &discordgo.MessageEmbed{
		Title:       d.Title,
		Description: d.Description,
		Color:       d.Color,
		Fields:      d.Fields,
	}
	if d.Footer != "" {
		embed.Footer = &discordgo.MessageEmbedFooter{Text: d.Footer}
	}
	if d.Thumbnail != "" {
		embed.Thumbnail = &discordgo.MessageEmbedThumbnail{URL: d.Thumbnail}
	}
	if d.Image != "" {
		embed.Image = &discordgo.MessageEmbedImage{URL: d.Image}
	}
	if d.Timestamp {
		embed.Timestamp = time.Now().Format(time.RFC3339)
	}
	return embed
}

func wizardComponents(draftType string) []discordgo.MessageComponent {
	typeRow := discordgo.ActionsRow{
		Components: []discordgo.MessageComponent{
			discordgo.SelectMenu{
				MenuType:    discordgo.StringSelectMenu,
				CustomID:    "embed_type",
				Placeholder: "Select message type",
				Options: []discordgo.SelectMenuOption{
					{Label: "Embed Message", Value: draftTypeEmbed, Description: "Send as an embedded message"},
					{Label: "Text Message", Value: draftTypeText, Description: "Send as a plain text message"},
				},
			},
		},
	}

	rows := []discordgo.MessageComponent{typeRow}

	if draftType == draftTypeEmbed {
		rows = append(rows,
			discordgo.ActionsRow{Components: []discordgo.MessageComponent{
				discordgo.Button{Label: "Edit Title", Style: discordgo.SecondaryButton, CustomID: "embed_edit_title"},
				discordgo.Button{Label: "Edit Description", Style: discordgo.SecondaryButton, CustomID: "embed_edit_description"},
				discordgo.Button{Label: "Edit Color", Style: discordgo.SecondaryButton, CustomID: "embed_edit_color"},
				discordgo.Button{Label: "Add Field", Style: discordgo.SecondaryButton, CustomID: "embed_add_field"},
			}},
			discordgo.ActionsRow{Components: []discordgo.MessageComponent{
				discordgo.Button{Label: "Edit Footer", Style: discordgo.SecondaryButton, CustomID: "embed_edit_footer"},
				discordgo.Button{Label: "Add Image", Style: discordgo.SecondaryButton, CustomID: "embed_edit_image"},
				discordgo.Button{Label: "Add Thumbnail", Style: discordgo.SecondaryButton, CustomID: "embed_edit_thumbnail"},
				discordgo.Button{Label: "Toggle Timestamp", Style: discordgo.SecondaryButton, CustomID: "embed_toggle_timestamp"},
			}},
		)
	} else {
		rows = append(rows, discordgo.ActionsRow{Components: []discordgo.MessageComponent{
			discordgo.Button{Label: "Edit Text", Style: discordgo.SecondaryButton, CustomID: "embed_edit_description"},
		}})
	}

	rows = append(rows, discordgo.ActionsRow{Components: []discordgo.MessageComponent{
		discordgo.Button{Label: "Send", Style: discordgo.SuccessButton, CustomID: "embed_send"},
	}})
	return rows
}

func previewData(d *embedDraft) *discordgo.InteractionResponseData {
	if d.Type == draftTypeText {
		return &discordgo.InteractionResponseData{
			Content:    d.Description,
			Embeds:     []*discordgo.MessageEmbed{},
			Components: wizardComponents(draftTypeText),
		}
	}
	return &discordgo.InteractionResponseData{
		Content:    "Customize your message:",
		Embeds:     []*discordgo.MessageEmbed{buildDraftEmbed(d)},
		Components: wizardComponents(draftTypeEmbed),
	}
}

func updatePreview(s *discordgo.Session, i *discordgo.InteractionCreate, sess *embedSession) {
	snap := sess.snapshot()
	_ = s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseUpdateMessage,
		Data: previewData(&snap),
	})
}

func expireEmbedSession(s *discordgo.Session, i *discordgo.InteractionCreate, sess *embedSession) {
	dropEmbedSession(sess.ownerID)
	_ = s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseUpdateMessage,
		Data: &discordgo.InteractionResponseData{
			Content:    "Message editor timed out.",
			Embeds:     []*discordgo.MessageEmbed{},
			Components: []discordgo.MessageComponent{},
		},
	})
}

func handleEmbedComponent(s *discordgo.Session, i *discordgo.InteractionCreate) {
	sess := lookupEmbedSession(i.Member.User.ID)
	if sess == nil || sess.sentAlready() {
		respond(s, i, "You cannot edit this message.", true)
		return
	}
	if sess.expired() {
		expireEmbedSession(s, i, sess)
		return
	}

	snap := sess.snapshot()

	switch i.MessageComponentData().CustomID {
	case "embed_type":
		if vals := i.MessageComponentData().Values; len(vals) == 1 {
			sess.edit(func(d *embedDraft) { d.Type = vals[0] })
		}
		updatePreview(s, i, sess)

	case "embed_edit_title":
		showTextModal(s, i, "embed_modal_title", "Edit Title",
			textInput("title", "Title", discordgo.TextInputShort, snap.Title, 256))

	case "embed_edit_description":
		label, title := "Description", "Edit Description"
		if snap.Type == draftTypeText {
			label, title = "Message Text", "Edit Text"
		}
		showTextModal(s, i, "embed_modal_description", title,
			textInput("description", label, discordgo.TextInputParagraph, snap.Description, 4000))

	case "embed_edit_color":
		showTextModal(s, i, "embed_modal_color", "Edit Color",
			textInput("color", "Color (HEX)", discordgo.TextInputShort, fmt.Sprintf("%06x", snap.Color), 7))

	case "embed_add_field":
		showTextModal(s, i, "embed_modal_field", "Add Field",
			textInput("name", "Field Name", discordgo.TextInputShort, "", 256),
			textInput("value", "Field Value", discordgo.TextInputParagraph, "", 1024),
			textInput("inline", "Inline? (true/false)", discordgo.TextInputShort, "false", 5))

	case "embed_edit_footer":
		showTextModal(s, i, "embed_modal_footer", "Edit Footer",
			textInput("footer", "Footer Text", discordgo.TextInputShort, snap.Footer, 2048))

	case "embed_edit_image":
		showTextModal(s, i, "embed_modal_image", "Add Image",
			textInput("image", "Image URL", discordgo.TextInputShort, snap.Image, 0))

	case "embed_edit_thumbnail":
		showTextModal(s, i, "embed_modal_thumbnail", "Add Thumbnail",
			textInput("thumbnail", "Thumbnail URL", discordgo.TextInputShort, snap.Thumbnail, 0))

	case "embed_toggle_timestamp":
		sess.edit(func(d *embedDraft) { d.Timestamp = !d.Timestamp })
		updatePreview(s, i, sess)

	case "embed_send":
		sendDraft(s, i, sess)
	}
}

// sendDraft performs the wizard's single outbound delivery, then
// freezes the session. beginSend claims the delivery so a double press
// cannot send twice; a failed send releases the claim.
func sendDraft(s *discordgo.Session, i *discordgo.InteractionCreate, sess *embedSession) {
	if !sess.beginSend() {
		respond(s, i, "You cannot edit this message.", true)
		return
	}

	snap := sess.snapshot()
	var err error
	if snap.Type == draftTypeText {
		_, err = s.ChannelMessageSend(sess.destID, snap.Description)
	} else {
		_, err = s.ChannelMessageSendEmbed(sess.destID, buildDraftEmbed(&snap))
	}
	if err != nil {
		log.Printf("[Embed] Failed to send to %s: %v", sess.destID, err)
		sess.failSend()
		respond(s, i, "Failed to send message. Please check channel permissions.", true)
		return
	}

	dropEmbedSession(sess.ownerID)
	_ = s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseUpdateMessage,
		Data: &discordgo.InteractionResponseData{
			Content:    "Message sent successfully!",
			Embeds:     []*discordgo.MessageEmbed{},
			Components: []discordgo.MessageComponent{},
		},
	})
}

func handleEmbedModal(s *discordgo.Session, i *discordgo.InteractionCreate) {
	sess := lookupEmbedSession(i.Member.User.ID)
	if sess == nil || sess.sentAlready() {
		respond(s, i, "You cannot edit this message.", true)
		return
	}
	if sess.expired() {
		expireEmbedSession(s, i, sess)
		return
	}

	data := i.ModalSubmitData()
	values := modalValues(data)

	switch data.CustomID {
	case "embed_modal_title":
		sess.edit(func(d *embedDraft) { d.Title = values["title"] })
	case "embed_modal_description":
		sess.edit(func(d *embedDraft) { d.Description = values["description"] })
	case "embed_modal_color":
		sess.edit(func(d *embedDraft) { d.Color = parseColor(values["color"]) })
	case "embed_modal_field":
		sess.edit(func(d *embedDraft) {
			d.Fields = append(d.Fields, &discordgo.MessageEmbedField{
				Name:   values["name"],
				Value:  values["value"],
				Inline: strings.EqualFold(strings.TrimSpace(values["inline"]), "true"),
			})
		})
	case "embed_modal_footer":
		sess.edit(func(d *embedDraft) { d.Footer = values["footer"] })
	case "embed_modal_image":
		sess.edit(func(d *embedDraft) { d.Image = values["image"] })
	case "embed_modal_thumbnail":
		sess.edit(func(d *embedDraft) { d.Thumbnail = values["thumbnail"] })
	default:
		return
	}

	updatePreview(s, i, sess)
}

func textInput(customID, label string, style discordgo.TextInputStyle, value string, maxLength int) discordgo.TextInput {
	return discordgo.TextInput{
		CustomID:  customID,
		Label:     label,
		Style:     style,
		Value:     value,
		MaxLength: maxLength,
	}
}

func showTextModal(s *discordgo.Session, i *discordgo.InteractionCreate, customID, title string, inputs ...discordgo.TextInput) {
	rows := make([]discordgo.MessageComponent, 0, len(inputs))
	for _, in := range inputs {
		rows = append(rows, discordgo.ActionsRow{Components: []discordgo.MessageComponent{in}})
	}
	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseModal,
		Data: &discordgo.InteractionResponseData{
			CustomID:   customID,
			Title:      title,
			Components: rows,
		},
	})
	if err != nil {
		log.Printf("Failed to show modal %s: %v", customID, err)
	}
}

// modalValues flattens submitted modal rows into customID -> value.
func modalValues(data discordgo.ModalSubmitInteractionData) map[string]string {
	out := make(map[string]string)
	for _, row := range data.Components {
		ar, ok := row.(*discordgo.ActionsRow)
		if !ok {
			continue
		}
		for _, c := range ar.Components {
			if ti, ok := c.(*discordgo.TextInput); ok {
				out[ti.CustomID] = ti.Value
			}
		}
	}
	return out
}
