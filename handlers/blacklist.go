package handlers

import (
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"support-bot/config"
	"support-bot/storage"

	"github.com/bwmarrin/discordgo"
)

const (
	blacklistPageSize   = 5
	blacklistSessionTTL = 60 * time.Second
)

// blacklistView is the pagination state behind one /mod ticketblacklist
// view response, keyed by the invoking user. Each button press is
// dispatched on its own goroutine, so page moves go through the view's
// own lock.
type blacklistView struct {
	mu        sync.Mutex
	userIDs   []string
	page      int
	expiresAt time.Time
}

// step applies one prev/next press and returns the state to render.
func (v *blacklistView) step(customID string) ([]string, int) {
	v.mu.Lock()
	defer v.mu.Unlock()

	switch customID {
	case "blacklist_prev":
		if v.page > 0 {
			v.page--
		}
	case "blacklist_next":
		if v.page < blacklistPageCount(len(v.userIDs))-1 {
			v.page++
		}
	}
	return v.userIDs, v.page
}

func (v *blacklistView) current() ([]string, int) {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.userIDs, v.page
}

var (
	blacklistMu    sync.Mutex
	blacklistViews = make(map[string]*blacklistView)
)

func handleModCommand(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if !canUseModCommands(s, i) {
		respondEmbed(s, i, noPermsEmbed(), true)
		return
	}

	group := i.ApplicationCommandData().Options[0]
	if group.Name != "ticketblacklist" || len(group.Options) == 0 {
		return
	}
	sub := group.Options[0]
	opts := subOptMap(sub.Options)

	switch sub.Name {
	case "add":
		user := opts["user"].UserValue(s)
		reason := optStr(opts, "reason", "No Reason Provided.")
		if err := storage.Blacklist.Add(user.ID); err != nil {
			if errors.Is(err, storage.ErrAlreadyBlacklisted) {
				respondEmbed(s, i, warnEmbed("Already Blacklisted!",
					fmt.Sprintf("<@%s> is already on the ticket blacklist.", user.ID)), true)
			} else {
				log.Printf("[Blacklist] Add %s: %v", user.ID, err)
				respond(s, i, "There was an error updating the blacklist.", true)
			}
			return
		}
		respondEmbed(s, i, successEmbed(fmt.Sprintf("<@%s> has been added to the ticket blacklist.", user.ID)), false)
		if Auditor != nil {
			Auditor.BlacklistChange(i.GuildID, user.ID, user.String(),
				i.Member.User.ID, i.Member.User.AvatarURL("64"), "add", reason)
		}

	case "remove":
		user := opts["user"].UserValue(s)
		reason := optStr(opts, "reason", "No Reason Provided.")
		if err := storage.Blacklist.Remove(user.ID); err != nil {
			if errors.Is(err, storage.ErrNotBlacklisted) {
				respondEmbed(s, i, warnEmbed("Not Blacklisted!",
					fmt.Sprintf("<@%s> is not on the ticket blacklist.", user.ID)), true)
			} else {
				log.Printf("[Blacklist] Remove %s: %v", user.ID, err)
				respond(s, i, "There was an error updating the blacklist.", true)
			}
			return
		}
		respondEmbed(s, i, successEmbed(fmt.Sprintf("<@%s> has been removed from the ticket blacklist.", user.ID)), false)
		if Auditor != nil {
			Auditor.BlacklistChange(i.GuildID, user.ID, user.String(),
				i.Member.User.ID, i.Member.User.AvatarURL("64"), "remove", reason)
		}

	case "view":
		ids, err := storage.Blacklist.All()
		if err != nil {
			log.Printf("[Blacklist] View: %v", err)
			respond(s, i, "There was an error loading the blacklist.", true)
			return
		}
		if len(ids) == 0 {
			respondEmbed(s, i, warnEmbed("Ticket Blacklist", "No users are currently blacklisted."), true)
			return
		}

		view := &blacklistView{userIDs: ids, expiresAt: time.Now().Add(blacklistSessionTTL)}
		blacklistMu.Lock()
		blacklistViews[i.Member.User.ID] = view
		blacklistMu.Unlock()

		_ = s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
			Type: discordgo.InteractionResponseChannelMessageWithSource,
			Data: &discordgo.InteractionResponseData{
				Embeds:     []*discordgo.MessageEmbed{blacklistPageEmbed(ids, 0)},
				Components: blacklistPageButtons(len(ids), 0, false),
				Flags:      discordgo.MessageFlagsEphemeral,
			},
		})

	default:
		log.Printf("[Blacklist] Unknown subcommand: %s", sub.Name)
	}
}

// canUseModCommands gates /mod behind admin or moderator, plus support
// staff when the config opts in.
func canUseModCommands(s *discordgo.Session, i *discordgo.InteractionCreate) bool {
	cfg := storage.Cfg

	allowed := []string{cfg.Roles.Admin, cfg.Roles.Moderator}
	if cfg.Roles.ModAllowSupportStaff {
		allowed = append(allowed, cfg.Roles.Staff)
	}
	for _, nameOrID := range allowed {
		if role := getRole(s, i.GuildID, nameOrID); role != nil && memberHasRole(i.Member, role.ID) {
			return true
		}
	}
	return false
}

// chunkIDs splits the blacklist into display pages.
func chunkIDs(ids []string, size int) [][]string {
	var pages [][]string
	for len(ids) > 0 {
		n := size
		if len(ids) < n {
			n = len(ids)
		}
		pages = append(pages, ids[:n])
		ids = ids[n:]
	}
	return pages
}

func blacklistPageCount(total int) int {
	return (total + blacklistPageSize - 1) / blacklistPageSize
}

func blacklistPageEmbed(ids []string, page int) *discordgo.MessageEmbed {
	pages := chunkIDs(ids, blacklistPageSize)
	if len(pages) == 0 {
		return &discordgo.MessageEmbed{
			Title:       "Ticket Blacklist",
			Description: "No users are currently blacklisted.",
			Color:       config.Colour(storage.Cfg.Embed.Colours.General),
			Footer:      &discordgo.MessageEmbedFooter{Text: "Page 1/1 • 0 user(s)"},
		}
	}
	if page < 0 || page >= len(pages) {
		page = 0
	}

	desc := ""
	for idx, id := range pages[page] {
		desc += fmt.Sprintf("`%d.` <@%s> (`%s`)\n", page*blacklistPageSize+idx+1, id, id)
	}

	return &discordgo.MessageEmbed{
		Title:       "Ticket Blacklist",
		Description: desc,
		Color:       config.Colour(storage.Cfg.Embed.Colours.General),
		Footer: &discordgo.MessageEmbedFooter{
			Text: fmt.Sprintf("Page %d/%d • %d user(s)", page+1, len(pages), len(ids)),
		},
	}
}

// blacklistPageButtons builds the prev/next row. Edge buttons are
// disabled on their respective boundary pages, and everything is
// disabled once the view expires.
func blacklistPageButtons(total, page int, expired bool) []discordgo.MessageComponent {
	last := blacklistPageCount(total) - 1
	return []discordgo.MessageComponent{
		discordgo.ActionsRow{Components: []discordgo.MessageComponent{
			discordgo.Button{
				Label:    "Previous",
				Style:    discordgo.PrimaryButton,
				CustomID: "blacklist_prev",
				Disabled: expired || page <= 0,
			},
			discordgo.Button{
				Label:    "Next",
				Style:    discordgo.PrimaryButton,
				CustomID: "blacklist_next",
				Disabled: expired || page >= last,
			},
		}},
	}
}

func handleBlacklistPage(s *discordgo.Session, i *discordgo.InteractionCreate) {
	blacklistMu.Lock()
	view := blacklistViews[i.Member.User.ID]
	blacklistMu.Unlock()

	if view == nil {
		respond(s, i, "This blacklist view is no longer active.", true)
		return
	}
	if time.Now().After(view.expiresAt) {
		blacklistMu.Lock()
		delete(blacklistViews, i.Member.User.ID)
		blacklistMu.Unlock()

		ids, page := view.current()
		_ = s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
			Type: discordgo.InteractionResponseUpdateMessage,
			Data: &discordgo.InteractionResponseData{
				Embeds:     []*discordgo.MessageEmbed{blacklistPageEmbed(ids, page)},
				Components: blacklistPageButtons(len(ids), page, true),
			},
		})
		return
	}

	ids, page := view.step(i.MessageComponentData().CustomID)

	_ = s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseUpdateMessage,
		Data: &discordgo.InteractionResponseData{
			Embeds:     []*discordgo.MessageEmbed{blacklistPageEmbed(ids, page)},
			Components: blacklistPageButtons(len(ids), page, false),
		},
	})
}
