// Package discord adapts the bwmarrin/discordgo client to the platform
// interfaces the bot core is written against.
package discord

import (
	"context"
	"fmt"
	"time"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"

	"github.com/drksurvraze/orderbot/internal/extract"
	"github.com/drksurvraze/orderbot/internal/handlers"
	"github.com/drksurvraze/orderbot/internal/middlewares/logger"
	"github.com/drksurvraze/orderbot/internal/models"
	"github.com/drksurvraze/orderbot/internal/platform"
	"github.com/drksurvraze/orderbot/internal/service"
)

const membersPageSize = 1000

// Bot owns the gateway session. It implements platform.Messenger,
// platform.UserDirectory and platform.PermissionChecker and feeds gateway
// events into the ingestor and the command router.
type Bot struct {
	session *discordgo.Session
	prefix  string
	guildID string

	orderChannels map[string]struct{}

	router   *handlers.Router
	ingestor *service.Ingestor
}

func NewBot(token, prefix, guildID string, orderChannels []string) (*Bot, error) {
	session, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}

	session.Identify.Intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildMessages |
		discordgo.IntentsMessageContent |
		discordgo.IntentsGuildMembers |
		discordgo.IntentsDirectMessages

	channels := make(map[string]struct{}, len(orderChannels))
	for _, id := range orderChannels {
		channels[id] = struct{}{}
	}

	return &Bot{
		session:       session,
		prefix:        prefix,
		guildID:       guildID,
		orderChannels: channels,
	}, nil
}

// Bind attaches the event consumers. Must be called before Start.
func (b *Bot) Bind(router *handlers.Router, ingestor *service.Ingestor) {
	b.router = router
	b.ingestor = ingestor
}

// Start opens the gateway connection. An authentication failure here is
// the only fatal error in the process.
func (b *Bot) Start() error {
	b.session.AddHandler(b.onReady)
	b.session.AddHandler(b.onMessageCreate)

	if err := b.session.Open(); err != nil {
		return fmt.Errorf("open gateway: %w", err)
	}
	return nil
}

func (b *Bot) Close() error {
	return b.session.Close()
}

// Latency reports the gateway heartbeat round-trip for the ping command.
func (b *Bot) Latency() time.Duration {
	return b.session.HeartbeatLatency()
}

func (b *Bot) onReady(s *discordgo.Session, r *discordgo.Ready) {
	logger.Log.Info("bot logged in",
		zap.String("user", r.User.Username),
		zap.Int("guilds", len(r.Guilds)))

	if err := s.UpdateWatchStatus(0, b.prefix+"help | Drk Survraze"); err != nil {
		logger.Log.Warn("could not set activity", zap.Error(err))
	}
}

func (b *Bot) onMessageCreate(s *discordgo.Session, m *discordgo.MessageCreate) {
	if m.Author == nil {
		return
	}
	ctx := context.Background()

	if m.Author.Bot {
		// Webhook-authored embeds in order channels are order
		// notifications; every other bot message is noise.
		if m.WebhookID != "" && b.isOrderChannel(m.ChannelID) && len(m.Embeds) > 0 {
			_ = b.ingestor.HandleNotification(ctx, notificationFromMessage(m))
		}
		return
	}

	b.router.HandleMessage(ctx, models.InboundMessage{
		ChannelID: m.ChannelID,
		MessageID: m.ID,
		AuthorID:  m.Author.ID,
		AuthorTag: userTag(m.Author),
		Content:   m.Content,
		CreatedAt: m.Timestamp,
	})
}

func (b *Bot) isOrderChannel(channelID string) bool {
	if len(b.orderChannels) == 0 {
		return true
	}
	_, ok := b.orderChannels[channelID]
	return ok
}

func notificationFromMessage(m *discordgo.MessageCreate) models.Notification {
	embed := m.Embeds[0]
	fields := make([]models.EmbedField, 0, len(embed.Fields))
	for _, f := range embed.Fields {
		fields = append(fields, models.EmbedField{Name: f.Name, Value: f.Value})
	}
	return models.Notification{
		ChannelID: m.ChannelID,
		MessageID: m.ID,
		Fields:    fields,
		Body:      embed.Description,
	}
}

// SendMessage implements platform.Messenger.
func (b *Bot) SendMessage(ctx context.Context, channelID, content string) (string, error) {
	msg, err := b.session.ChannelMessageSend(channelID, content)
	if err != nil {
		return "", err
	}
	return msg.ID, nil
}

// SendEmbed implements platform.Messenger.
func (b *Bot) SendEmbed(ctx context.Context, channelID string, embed models.Embed) (string, error) {
	msg, err := b.session.ChannelMessageSendEmbed(channelID, toMessageEmbed(embed))
	if err != nil {
		return "", err
	}
	return msg.ID, nil
}

// SendDM implements platform.Messenger.
func (b *Bot) SendDM(ctx context.Context, userID string, embed models.Embed) error {
	channel, err := b.session.UserChannelCreate(userID)
	if err != nil {
		return fmt.Errorf("create DM channel: %w", err)
	}
	_, err = b.session.ChannelMessageSendEmbed(channel.ID, toMessageEmbed(embed))
	return err
}

// EditMessageEmbed implements platform.Messenger. Interactive components
// are cleared together with the embed swap.
func (b *Bot) EditMessageEmbed(ctx context.Context, channelID, messageID string, embed models.Embed) error {
	embeds := []*discordgo.MessageEmbed{toMessageEmbed(embed)}
	components := []discordgo.MessageComponent{}
	_, err := b.session.ChannelMessageEditComplex(&discordgo.MessageEdit{
		Channel:    channelID,
		ID:         messageID,
		Embeds:     &embeds,
		Components: &components,
	})
	return err
}

// DeleteMessage implements platform.Messenger.
func (b *Bot) DeleteMessage(ctx context.Context, channelID, messageID string) error {
	return b.session.ChannelMessageDelete(channelID, messageID)
}

// ResolveUser implements platform.UserDirectory: case-sensitive exact
// match on tag, then username, then display name, across every guild the
// bot can see.
func (b *Bot) ResolveUser(ctx context.Context, username string) (platform.User, bool, error) {
	clean := extract.StripMarkup(username)

	var members []*discordgo.Member
	for _, guildID := range b.searchOrder() {
		fetched, err := b.fetchMembers(guildID)
		if err != nil {
			logger.Log.Warn("could not fetch guild members",
				zap.String("guild_id", guildID), zap.Error(err))
			continue
		}
		members = append(members, fetched...)
	}

	matchers := []func(m *discordgo.Member) bool{
		func(m *discordgo.Member) bool { return userTag(m.User) == clean },
		func(m *discordgo.Member) bool { return m.User.Username == clean },
		func(m *discordgo.Member) bool { return displayName(m) == clean },
	}
	for _, match := range matchers {
		for _, m := range members {
			if m.User == nil {
				continue
			}
			if match(m) {
				return platform.User{
					ID:          m.User.ID,
					Tag:         userTag(m.User),
					Username:    m.User.Username,
					DisplayName: displayName(m),
				}, true, nil
			}
		}
	}
	return platform.User{}, false, nil
}

// searchOrder lists guild ids to scan, the configured primary guild first.
func (b *Bot) searchOrder() []string {
	ids := make([]string, 0, len(b.session.State.Guilds)+1)
	if b.guildID != "" {
		ids = append(ids, b.guildID)
	}
	for _, guild := range b.session.State.Guilds {
		if guild.ID != b.guildID {
			ids = append(ids, guild.ID)
		}
	}
	return ids
}

func (b *Bot) fetchMembers(guildID string) ([]*discordgo.Member, error) {
	var all []*discordgo.Member
	after := ""
	for {
		page, err := b.session.GuildMembers(guildID, after, membersPageSize)
		if err != nil {
			return nil, err
		}
		all = append(all, page...)
		if len(page) < membersPageSize {
			return all, nil
		}
		after = page[len(page)-1].User.ID
	}
}

// IsAdministrator implements platform.PermissionChecker.
func (b *Bot) IsAdministrator(ctx context.Context, channelID, userID string) (bool, error) {
	perms, err := b.session.UserChannelPermissions(userID, channelID)
	if err != nil {
		return false, err
	}
	return perms&discordgo.PermissionAdministrator != 0, nil
}

func toMessageEmbed(embed models.Embed) *discordgo.MessageEmbed {
	out := &discordgo.MessageEmbed{
		Title:       embed.Title,
		Description: embed.Description,
		Color:       embed.Color,
	}
	for _, f := range embed.Fields {
		out.Fields = append(out.Fields, &discordgo.MessageEmbedField{
			Name:   f.Name,
			Value:  f.Value,
			Inline: true,
		})
	}
	if embed.Footer != "" {
		out.Footer = &discordgo.MessageEmbedFooter{Text: embed.Footer}
	}
	return out
}

func userTag(u *discordgo.User) string {
	if u == nil {
		return ""
	}
	// Legacy discriminators still appear on older accounts.
	if u.Discriminator != "" && u.Discriminator != "0" {
		return u.Username + "#" + u.Discriminator
	}
	return u.Username
}

func displayName(m *discordgo.Member) string {
	if m.Nick != "" {
		return m.Nick
	}
	if m.User != nil && m.User.GlobalName != "" {
		return m.User.GlobalName
	}
	return ""
}
