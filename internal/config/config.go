package config

import (
	"strings"
	"time"

	"github.com/caarlos0/env"
	"go.uber.org/zap"

	"github.com/drksurvraze/orderbot/internal/middlewares/logger"
)

// ScopeMode selects how pending orders are partitioned.
type ScopeMode string

const (
	// ScopeGlobal keeps one table for the whole process.
	ScopeGlobal ScopeMode = "global"
	// ScopeChannel partitions the table by originating channel.
	ScopeChannel ScopeMode = "channel"
)

type Config struct {
	BotToken string `env:"BOT_TOKEN"`
	GuildID  string `env:"GUILD_ID"`

	OrderChannelIDs   string `env:"ORDER_CHANNEL_IDS"`
	CommandChannelIDs string `env:"COMMAND_CHANNEL_IDS"`
	AnnounceChannelID string `env:"ANNOUNCE_CHANNEL_ID"`

	Prefix            string `env:"COMMAND_PREFIX"`
	ScopeMode         string `env:"SCOPE_MODE"`
	AutoExpireSeconds int    `env:"AUTO_EXPIRE_SECONDS"`

	SupportInviteURL string `env:"SUPPORT_INVITE_URL"`
	MentionEveryone  bool   `env:"ANNOUNCE_MENTION_EVERYONE"`

	OpsAddress   string `env:"OPS_ADDRESS"`
	OpsJWTSecret string `env:"OPS_JWT_SECRET"`
}

func InitConfig() *Config {
	flags := Flags{}
	flags.Init()

	cfg := Config{
		BotToken:          flags.botToken,
		GuildID:           flags.guildID,
		OrderChannelIDs:   flags.orderChannels,
		CommandChannelIDs: flags.commandChannels,
		AnnounceChannelID: flags.announceChannel,
		Prefix:            flags.prefix,
		ScopeMode:         flags.scopeMode,
		AutoExpireSeconds: flags.autoExpire,
		SupportInviteURL:  flags.supportInviteURL,
		MentionEveryone:   flags.mentionEveryone,
		OpsAddress:        flags.opsAddress,
		OpsJWTSecret:      flags.opsJWTSecret,
	}
	cfg.parseEnv()

	if cfg.Prefix == "" {
		cfg.Prefix = defaultPrefix
	}
	if cfg.OpsAddress == "" {
		cfg.OpsAddress = defaultOpsAddress
	}

	return &cfg
}

func (cfg *Config) parseEnv() {
	err := env.Parse(cfg)
	if err != nil {
		logger.Log.Warn("Getting an error while parsing the configuration", zap.String("err", err.Error()))
	}
}

// Scope reports the effective scope mode, falling back to global on
// unrecognized values.
func (cfg *Config) Scope() ScopeMode {
	if ScopeMode(cfg.ScopeMode) == ScopeChannel {
		return ScopeChannel
	}
	return ScopeGlobal
}

func (cfg *Config) AutoExpire() time.Duration {
	if cfg.AutoExpireSeconds <= 0 {
		return 0
	}
	return time.Duration(cfg.AutoExpireSeconds) * time.Second
}

func (cfg *Config) OrderChannels() []string {
	return splitCSV(cfg.OrderChannelIDs)
}

func (cfg *Config) CommandChannels() []string {
	return splitCSV(cfg.CommandChannelIDs)
}

func splitCSV(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
