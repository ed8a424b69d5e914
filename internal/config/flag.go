package config

import (
	"flag"
)

const (
	defaultPrefix     = "./"
	defaultOpsAddress = ":8080"
	defaultScopeMode  = "global"
)

type Flags struct {
	botToken string
	guildID  string

	orderChannels   string
	commandChannels string
	announceChannel string

	prefix     string
	scopeMode  string
	autoExpire int

	supportInviteURL string
	mentionEveryone  bool

	opsAddress   string
	opsJWTSecret string
}

func (flags *Flags) Init() {
	flag.StringVar(&flags.botToken, "t", "", "bot authentication token")
	flag.StringVar(&flags.guildID, "g", "", "primary guild id")

	flag.StringVar(&flags.orderChannels, "o", "", "order channel ids, comma separated")
	flag.StringVar(&flags.commandChannels, "c", "", "command channel ids, comma separated")
	flag.StringVar(&flags.announceChannel, "n", "", "announcement channel id")

	flag.StringVar(&flags.prefix, "p", defaultPrefix, "command prefix")
	flag.StringVar(&flags.scopeMode, "s", defaultScopeMode, "order scoping: global or channel")
	flag.IntVar(&flags.autoExpire, "e", 0, "auto expiry of order notifications in seconds, 0 disables")

	flag.StringVar(&flags.supportInviteURL, "i", "", "support invite link for rejection DMs")
	flag.BoolVar(&flags.mentionEveryone, "m", false, "mention everyone in announcements")

	flag.StringVar(&flags.opsAddress, "a", defaultOpsAddress, "address and port for the ops API server")
	flag.StringVar(&flags.opsJWTSecret, "j", "", "JWT secret for the ops API")

	flag.Parse()
}
