package notify

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/drksurvraze/orderbot/internal/middlewares/logger"
	"github.com/drksurvraze/orderbot/internal/models"
	"github.com/drksurvraze/orderbot/internal/ordererr"
	"github.com/drksurvraze/orderbot/internal/platform"
)

const (
	approvalMessage  = "🎉 **YOUR ORDER APPROVED!**\nYour purchase has been approved successfully!"
	rejectionMessage = "❌ **YOUR ORDER REJECTED**\nIf you have any problem, please create a ticket on our Discord server."

	dmFooter = "Drk Survraze SMP - Order Management System"

	timestampLayout = "2 Jan 2006 15:04 MST"
)

// Notifier delivers outcome payloads and owns the deferred-deletion timers.
type Notifier struct {
	messenger         platform.Messenger
	announceChannelID string
	supportInviteURL  string
	mentionEveryone   bool
	nowFunc           func() time.Time
}

func New(messenger platform.Messenger, announceChannelID, supportInviteURL string, mentionEveryone bool) *Notifier {
	return &Notifier{
		messenger:         messenger,
		announceChannelID: announceChannelID,
		supportInviteURL:  supportInviteURL,
		mentionEveryone:   mentionEveryone,
		nowFunc:           time.Now,
	}
}

// SendApprovalDM direct-messages the purchaser that the order went through.
func (n *Notifier) SendApprovalDM(ctx context.Context, user platform.User, rec models.OrderRecord) error {
	embed := models.Embed{
		Title:       "🎉 ORDER APPROVED!",
		Description: approvalMessage,
		Color:       models.ColorGreen,
		Fields: []models.EmbedField{
			{Name: "🆔 Order ID", Value: fmt.Sprintf("`%s`", rec.OrderID)},
			{Name: "📦 Product", Value: rec.ProductDetails},
			{Name: "⭐ Status", Value: "✅ Approved"},
			{Name: "⏰ Approved At", Value: n.nowFunc().Format(timestampLayout)},
		},
		Footer: dmFooter,
	}
	if err := n.messenger.SendDM(ctx, user.ID, embed); err != nil {
		return ordererr.NewDeliveryError("dm:"+user.ID, err)
	}
	return nil
}

// SendRejectionDM direct-messages the purchaser, including the support
// invite link so they can open a ticket.
func (n *Notifier) SendRejectionDM(ctx context.Context, user platform.User, rec models.OrderRecord) error {
	embed := models.Embed{
		Title:       "❌ ORDER REJECTED",
		Description: rejectionMessage,
		Color:       models.ColorRed,
		Fields: []models.EmbedField{
			{Name: "🆔 Order ID", Value: fmt.Sprintf("`%s`", rec.OrderID)},
			{Name: "⭐ Status", Value: "❌ Rejected"},
			{Name: "⏰ Rejected At", Value: n.nowFunc().Format(timestampLayout)},
			{Name: "📞 Need Help?", Value: fmt.Sprintf("[Create Ticket on Discord](%s)", n.supportInviteURL)},
		},
		Footer: dmFooter,
	}
	if err := n.messenger.SendDM(ctx, user.ID, embed); err != nil {
		return ordererr.NewDeliveryError("dm:"+user.ID, err)
	}
	return nil
}

// Announce posts the public approval notice. A no-op when no announcement
// channel is configured.
func (n *Notifier) Announce(ctx context.Context, rec models.OrderRecord) error {
	if n.announceChannelID == "" {
		return nil
	}
	content := fmt.Sprintf("🎉 **%s** just purchased **%s**! Thank you for supporting the server!",
		rec.Username, rec.ProductDetails)
	if n.mentionEveryone {
		content = "@everyone " + content
	}
	if _, err := n.messenger.SendMessage(ctx, n.announceChannelID, content); err != nil {
		return ordererr.NewDeliveryError("announce:"+n.announceChannelID, err)
	}
	return nil
}

// ScheduleDelete arranges deletion of a message after delay. The timer is
// fire-and-forget: if the message is already gone when it fires, the
// failure is logged and swallowed.
func (n *Notifier) ScheduleDelete(channelID, messageID string, delay time.Duration) {
	time.AfterFunc(delay, func() {
		if err := n.messenger.DeleteMessage(context.Background(), channelID, messageID); err != nil {
			logger.Log.Info("could not delete scheduled message",
				zap.String("channel_id", channelID),
				zap.String("message_id", messageID),
				zap.Error(err))
		}
	})
}
