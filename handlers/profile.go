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

// profileSessionTTL bounds the button window on a profile view. Expiry
// is checked when a button is pressed, at which point the buttons are
// disabled in place.
const profileSessionTTL = 60 * time.Second

type profileView struct {
	ownerID   string
	staff     bool
	expiresAt time.Time
}

var (
	profileMu    sync.Mutex
	profileViews = make(map[string]*profileView)
)

func handleProfile(s *discordgo.Session, i *discordgo.InteractionCreate) {
	cfg := storage.Cfg

	staffRole := getRole(s, i.GuildID, cfg.Roles.Staff)
	adminRole := getRole(s, i.GuildID, cfg.Roles.Admin)
	if staffRole == nil || adminRole == nil {
		respond(s, i, lang.T("error.missing_roles"), true)
		return
	}

	target := i.Member.User
	targetMember := i.Member
	if opt, ok := optionMap(i)["user"]; ok && opt.UserValue(s).ID != i.Member.User.ID {
		target = opt.UserValue(s)
		m, err := s.GuildMember(i.GuildID, target.ID)
		if err != nil {
			respondEmbed(s, i, warnEmbed("Unknown Member!", "That user is not a member of this server."), true)
			return
		}
		targetMember = m
	}
	own := target.ID == i.Member.User.ID

	// Staff profiles carry shift fields and controls that make no sense
	// for regular members.
	staff := memberHasRole(targetMember, staffRole.ID) || memberHasRole(targetMember, adminRole.ID)

	if err := deferReply(s, i, true); err != nil {
		log.Printf("[Profile] Failed to defer: %v", err)
		return
	}

	profile, err := storage.Profiles.Get(target.ID)
	if err != nil {
		log.Printf("[Profile] Load %s: %v", target.ID, err)
		followup(s, i, "There was an error loading that profile.")
		return
	}

	var components []discordgo.MessageComponent
	if own {
		profileMu.Lock()
		profileViews[target.ID] = &profileView{
			ownerID:   target.ID,
			staff:     staff,
			expiresAt: time.Now().Add(profileSessionTTL),
		}
		profileMu.Unlock()
		components = profileButtons(staff, false)
	}

	_, err = s.FollowupMessageCreate(i.Interaction, true, &discordgo.WebhookParams{
		Embeds:     []*discordgo.MessageEmbed{profileEmbed(target, profile, staff)},
		Components: components,
		Flags:      discordgo.MessageFlagsEphemeral,
	})
	if err != nil {
		log.Printf("[Profile] Failed to send profile: %v", err)
	}
}

func profileEmbed(user *discordgo.User, p *storage.Profile, staff bool) *discordgo.MessageEmbed {
	bio := p.Bio
	if bio == "" {
		bio = "*No bio set*"
	}
	tz := p.Timezone
	if tz == "" {
		tz = "*Not set*"
	}

	fields := []*discordgo.MessageEmbedField{
		{Name: "Bio", Value: bio},
		{Name: "Timezone", Value: tz, Inline: true},
	}
	if staff {
		status := "🔴 Clocked Out"
		if p.ClockedIn {
			status = "🟢 Clocked In"
		}
		fields = append(fields,
			&discordgo.MessageEmbedField{Name: "Status", Value: status, Inline: true},
			&discordgo.MessageEmbedField{Name: "Weekly Hours", Value: fmt.Sprintf("%.1f", storage.WeeklyHours(p.Schedule)), Inline: true},
			&discordgo.MessageEmbedField{Name: "Schedule", Value: formatSchedule(p.Schedule)},
		)
	}

	return &discordgo.MessageEmbed{
		Title:     user.Username + "'s Profile",
		Color:     config.Colour(storage.Cfg.Embed.Colours.General),
		Fields:    fields,
		Thumbnail: &discordgo.MessageEmbedThumbnail{URL: user.AvatarURL("128")},
		Footer:    &discordgo.MessageEmbedFooter{Text: storage.Cfg.Embed.Footer},
	}
}

// formatSchedule renders the weekday table in fixed display order.
func formatSchedule(schedule map[string]storage.DaySchedule) string {
	var b strings.Builder
	for _, day := range storage.Weekdays {
		ds, ok := schedule[day]
		if !ok || ds.Start == "" || ds.End == "" {
			continue
		}
		fmt.Fprintf(&b, "**%s:** %s - %s\n", titleCase(day), ds.Start, ds.End)
	}
	if b.Len() == 0 {
		return "*No schedule set*"
	}
	return b.String()
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// profileButtons returns the owner's control row. Shift controls are
// staff-only, and ticket stats additionally need claiming enabled.
func profileButtons(staff, disabled bool) []discordgo.MessageComponent {
	buttons := []discordgo.MessageComponent{
		discordgo.Button{Label: "Edit Profile", Style: discordgo.SecondaryButton, CustomID: "profile_edit", Disabled: disabled},
	}
	if staff {
		buttons = append(buttons,
			discordgo.Button{Label: "Clock In/Out", Style: discordgo.PrimaryButton, CustomID: "profile_clock", Disabled: disabled},
			discordgo.Button{Label: "Edit Schedule", Style: discordgo.SecondaryButton, CustomID: "profile_schedule", Disabled: disabled},
		)
		if storage.Cfg != nil && storage.Cfg.Ticket.Claim.Enabled {
			buttons = append(buttons, discordgo.Button{
				Label: "My Stats", Style: discordgo.SecondaryButton, CustomID: "profile_stats", Disabled: disabled,
			})
		}
	}
	return []discordgo.MessageComponent{discordgo.ActionsRow{Components: buttons}}
}

func scheduleDayRow(staff bool) []discordgo.MessageComponent {
	options := make([]discordgo.SelectMenuOption, 0, len(storage.Weekdays))
	for _, day := range storage.Weekdays {
		options = append(options, discordgo.SelectMenuOption{Label: titleCase(day), Value: day})
	}
	rows := profileButtons(staff, false)
	return append(rows, discordgo.ActionsRow{Components: []discordgo.MessageComponent{
		discordgo.SelectMenu{
			MenuType:    discordgo.StringSelectMenu,
			CustomID:    "profile_day",
			Placeholder: "Select a day to edit",
			Options:     options,
		},
	}})
}

func lookupProfileView(s *discordgo.Session, i *discordgo.InteractionCreate) (*profileView, bool) {
	profileMu.Lock()
	view := profileViews[i.Member.User.ID]
	profileMu.Unlock()

	if view == nil {
		respond(s, i, "This profile view is no longer active.", true)
		return nil, false
	}
	if time.Now().After(view.expiresAt) {
		profileMu.Lock()
		delete(profileViews, i.Member.User.ID)
		profileMu.Unlock()

		profile, err := storage.Profiles.Get(view.ownerID)
		data := &discordgo.InteractionResponseData{Components: profileButtons(view.staff, true)}
		if err == nil {
			data.Embeds = []*discordgo.MessageEmbed{profileEmbed(i.Member.User, profile, view.staff)}
		}
		_ = s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
			Type: discordgo.InteractionResponseUpdateMessage,
			Data: data,
		})
		return nil, false
	}
	return view, true
}

func handleProfileComponent(s *discordgo.Session, i *discordgo.InteractionCreate) {
	view, ok := lookupProfileView(s, i)
	if !ok {
		return
	}

	customID := i.MessageComponentData().CustomID
	if customID != "profile_edit" && !view.staff {
		respondEmbed(s, i, noPermsEmbed(), true)
		return
	}

	switch customID {
	case "profile_edit":
		profile, err := storage.Profiles.Get(view.ownerID)
		if err != nil {
			respond(s, i, "There was an error loading your profile.", true)
			return
		}
		showTextModal(s, i, "profile_modal_edit", "Edit Profile",
			textInput("bio", "Bio", discordgo.TextInputParagraph, profile.Bio, 1024),
			textInput("timezone", "Timezone (e.g. UTC+2, EST)", discordgo.TextInputShort, profile.Timezone, 32))

	case "profile_clock":
		profile, err := storage.Profiles.Get(view.ownerID)
		if err != nil {
			respond(s, i, "There was an error loading your profile.", true)
			return
		}
		profile.ClockedIn = !profile.ClockedIn
		if err := storage.Profiles.Save(view.ownerID, profile); err != nil {
			log.Printf("[Profile] Clock toggle %s: %v", view.ownerID, err)
			respond(s, i, "There was an error saving your profile.", true)
			return
		}
		refreshProfileMessage(s, i, view, nil)

	case "profile_schedule":
		profile, err := storage.Profiles.Get(view.ownerID)
		if err != nil {
			respond(s, i, "There was an error loading your profile.", true)
			return
		}
		_ = s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
			Type: discordgo.InteractionResponseUpdateMessage,
			Data: &discordgo.InteractionResponseData{
				Embeds:     []*discordgo.MessageEmbed{profileEmbed(i.Member.User, profile, view.staff)},
				Components: scheduleDayRow(view.staff),
			},
		})

	case "profile_day":
		vals := i.MessageComponentData().Values
		if len(vals) != 1 {
			return
		}
		day := vals[0]
		profile, err := storage.Profiles.Get(view.ownerID)
		if err != nil {
			respond(s, i, "There was an error loading your profile.", true)
			return
		}
		ds := profile.Schedule[day]
		showTextModal(s, i, "profile_modal_schedule_"+day, "Edit "+titleCase(day)+" Schedule",
			textInput("start", "Start Time (HH:MM, blank to clear)", discordgo.TextInputShort, ds.Start, 5),
			textInput("end", "End Time (HH:MM, blank to clear)", discordgo.TextInputShort, ds.End, 5))

	case "profile_stats":
		showStaffStats(s, i, view.ownerID)
	}
}

func refreshProfileMessage(s *discordgo.Session, i *discordgo.InteractionCreate, view *profileView, components []discordgo.MessageComponent) {
	profile, err := storage.Profiles.Get(view.ownerID)
	if err != nil {
		respond(s, i, "There was an error loading your profile.", true)
		return
	}
	if components == nil {
		components = profileButtons(view.staff, false)
	}
	_ = s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseUpdateMessage,
		Data: &discordgo.InteractionResponseData{
			Embeds:     []*discordgo.MessageEmbed{profileEmbed(i.Member.User, profile, view.staff)},
			Components: components,
		},
	})
}

func showStaffStats(s *discordgo.Session, i *discordgo.InteractionCreate, staffID string) {
	if storage.DB == nil {
		respond(s, i, "Stats are unavailable: no database is configured.", true)
		return
	}

	stats, err := storage.DB.StaffStats(i.GuildID, staffID)
	if err != nil {
		log.Printf("[Profile] Stats %s: %v", staffID, err)
		respond(s, i, "There was an error loading your stats.", true)
		return
	}

	desc := fmt.Sprintf("**Tickets Reviewed:** %d\n**Average Rating:** %.2f ⭐", stats.Closed, stats.AverageRating)
	if reviews, err := storage.DB.GetReviews(i.GuildID, staffID, 3); err == nil && len(reviews) > 0 {
		desc += "\n\n**Recent Reviews**"
		for _, r := range reviews {
			desc += fmt.Sprintf("\n%s `%s`", strings.Repeat("⭐", r.Rating), r.Comment)
		}
	}

	respondEmbed(s, i, &discordgo.MessageEmbed{
		Title:       "Staff Stats",
		Description: desc,
		Color:       config.Colour(storage.Cfg.Embed.Colours.General),
	}, true)
}

func handleProfileModal(s *discordgo.Session, i *discordgo.InteractionCreate) {
	view, ok := lookupProfileView(s, i)
	if !ok {
		return
	}

	data := i.ModalSubmitData()
	values := modalValues(data)

	profile, err := storage.Profiles.Get(view.ownerID)
	if err != nil {
		respond(s, i, "There was an error loading your profile.", true)
		return
	}

	switch {
	case data.CustomID == "profile_modal_edit":
		profile.Bio = strings.TrimSpace(values["bio"])
		profile.Timezone = strings.TrimSpace(values["timezone"])

	case strings.HasPrefix(data.CustomID, "profile_modal_schedule_"):
		if !view.staff {
			respondEmbed(s, i, noPermsEmbed(), true)
			return
		}
		day := strings.TrimPrefix(data.CustomID, "profile_modal_schedule_")
		start := strings.TrimSpace(values["start"])
		end := strings.TrimSpace(values["end"])

		if start == "" && end == "" {
			delete(profile.Schedule, day)
			break
		}
		if !storage.ValidClock(start) || !storage.ValidClock(end) {
			respond(s, i, "Invalid time format. Use HH:MM, e.g. 09:00.", true)
			return
		}
		profile.Schedule[day] = storage.DaySchedule{Start: start, End: end}

	default:
		return
	}

	if err := storage.Profiles.Save(view.ownerID, profile); err != nil {
		log.Printf("[Profile] Save %s: %v", view.ownerID, err)
		respond(s, i, "There was an error saving your profile.", true)
		return
	}
	refreshProfileMessage(s, i, view, nil)
}
