package config

import (
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	TicketTypeThreads  = "threads"
	TicketTypeChannels = "channels"
)

// DefaultColour is used wherever a configured or user-supplied colour
// fails to parse.
const DefaultColour = 0x5865F2

type Config struct {
	Discord    DiscordConfig    `yaml:"discord"`
	Roles      RolesConfig      `yaml:"roles"`
	Ticket     TicketConfig     `yaml:"ticket"`
	MessageLog MessageLogConfig `yaml:"message_log"`
	Embed      EmbedConfig      `yaml:"embed"`
	Storage    StorageConfig    `yaml:"storage"`
	Audit      AuditConfig      `yaml:"audit"`
}

type DiscordConfig struct {
	Token   string `yaml:"token"`
	GuildID string `yaml:"guild_id"`
}

// Role values may be either a role ID or a role name; handlers resolve
// them against the guild at request time.
type RolesConfig struct {
	Staff     string `yaml:"staff"`
	Admin     string `yaml:"admin"`
	Moderator string `yaml:"moderator"`

	// ModAllowSupportStaff lets plain support staff use the /mod
	// blacklist commands in addition to admins and moderators.
	ModAllowSupportStaff bool `yaml:"mod_allow_support_staff"`
}

type TicketConfig struct {
	// Type is "threads" or "channels" and decides which channel kinds
	// /close accepts.
	Type           string `yaml:"type"`
	StaffOnlyClose bool   `yaml:"staff_only_close"`

	TranscriptLog string `yaml:"transcript_log"`
	BlacklistLog  string `yaml:"blacklist_log"`

	Review ReviewConfig `yaml:"review"`
	Claim  ClaimConfig  `yaml:"claim"`
}

type ReviewConfig struct {
	Enabled bool   `yaml:"enabled"`
	Channel string `yaml:"channel"`

	// TimeoutSeconds bounds both review prompts. When the ticket owner
	// does not respond in time the review is skipped and the close
	// continues.
	TimeoutSeconds int `yaml:"timeout_seconds"`
}

type ClaimConfig struct {
	Enabled bool `yaml:"enabled"`
}

type MessageLogConfig struct {
	// Channels accept an ID or a channel name.
	UpdateChannel string `yaml:"update_channel"`
	DeleteChannel string `yaml:"delete_channel"`
	UpdateColour  string `yaml:"update_colour"`
	DeleteColour  string `yaml:"delete_colour"`
}

type EmbedConfig struct {
	Footer  string       `yaml:"footer"`
	Colours ColourConfig `yaml:"colours"`
}

type ColourConfig struct {
	General string `yaml:"general"`
	Success string `yaml:"success"`
	Warn    string `yaml:"warn"`
	Error   string `yaml:"error"`
}

type StorageConfig struct {
	DataDir  string         `yaml:"data_dir"`
	Database DatabaseConfig `yaml:"database"`
}

type DatabaseConfig struct {
	Driver  string        `yaml:"driver"`
	SQLite  SQLiteConfig  `yaml:"sqlite"`
	MongoDB MongoDBConfig `yaml:"mongodb"`
}

type SQLiteConfig struct {
	Path string `yaml:"path"`
}

type MongoDBConfig struct {
	URI      string `yaml:"uri"`
	Database string `yaml:"database"`
}

type AuditConfig struct {
	AMQPURL  string `yaml:"amqp_url"`
	Exchange string `yaml:"exchange"`
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Ticket.Type == "" {
		c.Ticket.Type = TicketTypeChannels
	}
	if c.Ticket.Review.TimeoutSeconds <= 0 {
		c.Ticket.Review.TimeoutSeconds = 120
	}
	if c.Storage.DataDir == "" {
		c.Storage.DataDir = "data"
	}
	if c.Storage.Database.Driver == "" {
		c.Storage.Database.Driver = "sqlite"
	}
	if c.Storage.Database.SQLite.Path == "" {
		c.Storage.Database.SQLite.Path = "data/supportbot.db"
	}
	if c.Audit.Exchange == "" {
		c.Audit.Exchange = "supportbot.audit"
	}
}

// Validate reports every missing or malformed field in one error so a
// bad config fails loudly at startup instead of at request time.
func (c *Config) Validate() error {
	var problems []string

	if c.Discord.Token == "" || c.Discord.Token == "YOUR_DISCORD_BOT_TOKEN_HERE" {
		problems = append(problems, "discord.token is not set")
	}
	if c.Roles.Staff == "" {
		problems = append(problems, "roles.staff is not set")
	}
	if c.Roles.Admin == "" {
		problems = append(problems, "roles.admin is not set")
	}
	if c.Ticket.Type != TicketTypeThreads && c.Ticket.Type != TicketTypeChannels {
		problems = append(problems, fmt.Sprintf("ticket.type must be %q or %q, got %q",
			TicketTypeThreads, TicketTypeChannels, c.Ticket.Type))
	}
	if c.Ticket.TranscriptLog == "" {
		problems = append(problems, "ticket.transcript_log is not set")
	}
	if c.Ticket.Review.Enabled && c.Ticket.Review.Channel == "" {
		problems = append(problems, "ticket.review.channel is not set but ticket.review.enabled is true")
	}
	switch c.Storage.Database.Driver {
	case "sqlite":
	case "mongodb":
		if c.Storage.Database.MongoDB.URI == "" || c.Storage.Database.MongoDB.Database == "" {
			problems = append(problems, "storage.database.mongodb.uri and .database must be set for driver=mongodb")
		}
	default:
		problems = append(problems, fmt.Sprintf("storage.database.driver must be \"sqlite\" or \"mongodb\", got %q", c.Storage.Database.Driver))
	}

	if len(problems) > 0 {
		return fmt.Errorf("config: %s", strings.Join(problems, "; "))
	}
	return nil
}

var hexColourRe = regexp.MustCompile(`^[0-9A-Fa-f]{6}$`)

// Colour converts a 6-hex-digit string (with or without a leading #)
// into an embed colour, falling back to DefaultColour.
func Colour(s string) int {
	s = strings.TrimPrefix(strings.TrimSpace(s), "#")
	if !hexColourRe.MatchString(s) {
		return DefaultColour
	}
	v, err := strconv.ParseInt(s, 16, 32)
	if err != nil {
		return DefaultColour
	}
	return int(v)
}
