package handlers

import (
	"log"
	"strings"

	"support-bot/audit"
	"support-bot/config"
	"support-bot/lang"
	"support-bot/storage"

	"github.com/bwmarrin/discordgo"
)

// Auditor is set in main once the session is open.
var Auditor *audit.Logger

func Commands(cfg *config.Config) []*discordgo.ApplicationCommand {
	return []*discordgo.ApplicationCommand{
		{
			Name:        "close",
			Description: "Close the current ticket",
			Options: []*discordgo.ApplicationCommandOption{
				{Type: discordgo.ApplicationCommandOptionString, Name: "reason", Description: "Ticket close reason"},
			},
		},
		{
			Name:        "embedbuilder",
			Description: "Interactively build and send a custom message",
			Options: []*discordgo.ApplicationCommandOption{
				{Type: discordgo.ApplicationCommandOptionChannel, Name: "channel", Description: "Channel to send the message to", Required: true},
			},
		},
		{
			Name:        "mod",
			Description: "Moderation tools",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Name: "ticketblacklist", Description: "Manage the ticket blacklist",
					Type: discordgo.ApplicationCommandOptionSubCommandGroup,
					Options: []*discordgo.ApplicationCommandOption{
						{
							Name: "add", Description: "Add a user to the ticket blacklist",
							Type: discordgo.ApplicationCommandOptionSubCommand,
							Options: []*discordgo.ApplicationCommandOption{
								{Type: discordgo.ApplicationCommandOptionUser, Name: "user", Description: "User to blacklist", Required: true},
								{Type: discordgo.ApplicationCommandOptionString, Name: "reason", Description: "Reason for blacklisting"},
							},
						},
						{
							Name: "remove", Description: "Remove a user from the ticket blacklist",
							Type: discordgo.ApplicationCommandOptionSubCommand,
							Options: []*discordgo.ApplicationCommandOption{
								{Type: discordgo.ApplicationCommandOptionUser, Name: "user", Description: "User to remove from the blacklist", Required: true},
								{Type: discordgo.ApplicationCommandOptionString, Name: "reason", Description: "Reason for removing from the blacklist"},
							},
						},
						{
							Name: "view", Description: "View all blacklisted users",
							Type: discordgo.ApplicationCommandOptionSubCommand,
						},
					},
				},
			},
		},
		{
			Name:        "profile",
			Description: "View or edit a staff profile",
			Options: []*discordgo.ApplicationCommandOption{
				{Type: discordgo.ApplicationCommandOptionUser, Name: "user", Description: "The user to view the profile of"},
			},
		},
	}
}

func Register(s *discordgo.Session) {
	s.AddHandler(func(s *discordgo.Session, i *discordgo.InteractionCreate) {
		if i.GuildID == "" {
			return
		}

		switch i.Type {
		case discordgo.InteractionApplicationCommand:
			handleSlashCommand(s, i)
		case discordgo.InteractionMessageComponent:
			handleComponent(s, i)
		case discordgo.InteractionModalSubmit:
			handleModal(s, i)
		}
	})

	s.AddHandler(func(s *discordgo.Session, m *discordgo.MessageCreate) {
		dispatchMessageWait(m.Message)
	})
}

func handleSlashCommand(s *discordgo.Session, i *discordgo.InteractionCreate) {
	switch i.ApplicationCommandData().Name {
	case "close":
		handleClose(s, i)
	case "embedbuilder":
		handleEmbedBuilder(s, i)
	case "mod":
		handleModCommand(s, i)
	case "profile":
		handleProfile(s, i)
	default:
		log.Printf("Unknown command: %s", i.ApplicationCommandData().Name)
	}
}

func handleComponent(s *discordgo.Session, i *discordgo.InteractionCreate) {
	// A blocked workflow (review prompts) may be waiting on this
	// component; give it first refusal.
	if dispatchComponentWait(i) {
		return
	}

	customID := i.MessageComponentData().CustomID
	switch {
	case strings.HasPrefix(customID, "embed_"):
		handleEmbedComponent(s, i)
	case strings.HasPrefix(customID, "blacklist_"):
		handleBlacklistPage(s, i)
	case strings.HasPrefix(customID, "profile_"):
		handleProfileComponent(s, i)
	default:
		log.Printf("Unknown component: %s", customID)
	}
}

func handleModal(s *discordgo.Session, i *discordgo.InteractionCreate) {
	customID := i.ModalSubmitData().CustomID
	switch {
	case strings.HasPrefix(customID, "embed_modal_"):
		handleEmbedModal(s, i)
	case strings.HasPrefix(customID, "profile_modal_"):
		handleProfileModal(s, i)
	default:
		log.Printf("Unknown modal: %s", customID)
	}
}

func respond(s *discordgo.Session, i *discordgo.InteractionCreate, content string, ephemeral bool) {
	flags := discordgo.MessageFlags(0)
	if ephemeral {
		flags = discordgo.MessageFlagsEphemeral
	}
	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: content,
			Flags:   flags,
		},
	})
	if err != nil {
		log.Printf("Failed to respond: %v", err)
	}
}

func respondEmbed(s *discordgo.Session, i *discordgo.InteractionCreate, embed *discordgo.MessageEmbed, ephemeral bool) {
	flags := discordgo.MessageFlags(0)
	if ephemeral {
		flags = discordgo.MessageFlagsEphemeral
	}
	_ = s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Embeds: []*discordgo.MessageEmbed{embed},
			Flags:  flags,
		},
	})
}

func deferReply(s *discordgo.Session, i *discordgo.InteractionCreate, ephemeral bool) error {
	flags := discordgo.MessageFlags(0)
	if ephemeral {
		flags = discordgo.MessageFlagsEphemeral
	}
	return s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{Flags: flags},
	})
}

func followup(s *discordgo.Session, i *discordgo.InteractionCreate, content string) {
	_, _ = s.FollowupMessageCreate(i.Interaction, true, &discordgo.WebhookParams{
		Content: content,
	})
}

func followupEmbed(s *discordgo.Session, i *discordgo.InteractionCreate, embed *discordgo.MessageEmbed) {
	_, _ = s.FollowupMessageCreate(i.Interaction, true, &discordgo.WebhookParams{
		Embeds: []*discordgo.MessageEmbed{embed},
	})
}

func optionMap(i *discordgo.InteractionCreate) map[string]*discordgo.ApplicationCommandInteractionDataOption {
	m := make(map[string]*discordgo.ApplicationCommandInteractionDataOption)
	for _, opt := range i.ApplicationCommandData().Options {
		m[opt.Name] = opt
	}
	return m
}

func subOptMap(opts []*discordgo.ApplicationCommandInteractionDataOption) map[string]*discordgo.ApplicationCommandInteractionDataOption {
	m := make(map[string]*discordgo.ApplicationCommandInteractionDataOption)
	for _, opt := range opts {
		m[opt.Name] = opt
	}
	return m
}

func optStr(m map[string]*discordgo.ApplicationCommandInteractionDataOption, key, def string) string {
	if o, ok := m[key]; ok && o.StringValue() != "" {
		return o.StringValue()
	}
	return def
}

// getRole resolves a configured role by ID first, then by name.
func getRole(s *discordgo.Session, guildID, nameOrID string) *discordgo.Role {
	if nameOrID == "" {
		return nil
	}
	roles, err := s.GuildRoles(guildID)
	if err != nil {
		return nil
	}
	for _, r := range roles {
		if r.ID == nameOrID {
			return r
		}
	}
	for _, r := range roles {
		if strings.EqualFold(r.Name, nameOrID) {
			return r
		}
	}
	return nil
}

func memberHasRole(member *discordgo.Member, roleID string) bool {
	if member == nil {
		return false
	}
	for _, id := range member.Roles {
		if id == roleID {
			return true
		}
	}
	return false
}

func warnEmbed(title, description string) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title:       title,
		Description: description,
		Color:       config.Colour(storage.Cfg.Embed.Colours.Warn),
	}
}

func successEmbed(description string) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Description: description,
		Color:       config.Colour(storage.Cfg.Embed.Colours.Success),
	}
}

// noPermsEmbed is the shared "missing role" rejection.
func noPermsEmbed() *discordgo.MessageEmbed {
	cfg := storage.Cfg
	return warnEmbed("Invalid Permissions!",
		lang.T("error.incorrect_perms")+
			"\n\nRole Required: `"+cfg.Roles.Staff+"` or `"+cfg.Roles.Admin+"`")
}
