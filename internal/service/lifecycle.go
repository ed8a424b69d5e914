package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/drksurvraze/orderbot/internal/metrics"
	"github.com/drksurvraze/orderbot/internal/middlewares/logger"
	"github.com/drksurvraze/orderbot/internal/models"
	"github.com/drksurvraze/orderbot/internal/notify"
	"github.com/drksurvraze/orderbot/internal/ordererr"
	"github.com/drksurvraze/orderbot/internal/platform"
	"github.com/drksurvraze/orderbot/internal/store"
)

const defaultDeleteDelay = 10 * time.Second

// Controller drives an order from pending to a terminal outcome. Every
// terminal command claims the record first: the claim is atomic, so of two
// concurrent commands for the same id only one proceeds to side effects,
// the other observes absence and reports order-not-found. No platform call
// happens before the claim.
type Controller struct {
	store     *store.Store
	directory platform.UserDirectory
	messenger platform.Messenger
	notifier  *notify.Notifier
	collector *metrics.Collector

	deleteDelay time.Duration
	nowFunc     func() time.Time
}

func NewController(st *store.Store, directory platform.UserDirectory, messenger platform.Messenger, notifier *notify.Notifier, collector *metrics.Collector) *Controller {
	return &Controller{
		store:       st,
		directory:   directory,
		messenger:   messenger,
		notifier:    notifier,
		collector:   collector,
		deleteDelay: defaultDeleteDelay,
		nowFunc:     time.Now,
	}
}

// Approve resolves the purchaser, DMs the approval, posts the public
// announcement, cleans up the original notification and confirms to the
// administrator. Caller authorization is a precondition.
func (c *Controller) Approve(ctx context.Context, cmd models.CommandContext, orderID string) (string, error) {
	rec, user, err := c.claimAndResolve(ctx, cmd, orderID)
	if err != nil {
		return "", err
	}
	rec.Status = models.ApprovedStatus

	dmSent := c.deliverDM(ctx, cmd, user, rec, c.notifier.SendApprovalDM)

	if err := c.notifier.Announce(ctx, rec); err != nil {
		logger.Log.Warn("announcement failed", zap.String("order_id", orderID), zap.Error(err))
	}

	c.finalizeOriginal(ctx, rec, c.outcomeEmbed(rec, cmd, "✅ Order Approved", "approved", models.ColorGreen, true, dmSent))
	c.collector.RecordApproved()

	logger.Log.Info("order approved",
		zap.String("order_id", orderID),
		zap.String("username", rec.Username),
		zap.String("approved_by", cmd.InvokerTag))

	return fmt.Sprintf("✅ Order `%s` approved! DM sent to %s. Pending for %s.",
		orderID, rec.Username, c.pendingFor(rec)), nil
}

// Reject mirrors Approve but the DM carries the support link and no public
// announcement is posted.
func (c *Controller) Reject(ctx context.Context, cmd models.CommandContext, orderID string) (string, error) {
	rec, user, err := c.claimAndResolve(ctx, cmd, orderID)
	if err != nil {
		return "", err
	}
	rec.Status = models.RejectedStatus

	dmSent := c.deliverDM(ctx, cmd, user, rec, c.notifier.SendRejectionDM)

	c.finalizeOriginal(ctx, rec, c.outcomeEmbed(rec, cmd, "❌ Order Rejected", "rejected", models.ColorRed, true, dmSent))
	c.collector.RecordRejected()

	logger.Log.Info("order rejected",
		zap.String("order_id", orderID),
		zap.String("username", rec.Username),
		zap.String("rejected_by", cmd.InvokerTag))

	return fmt.Sprintf("❌ Order `%s` rejected! DM sent to %s. Pending for %s.",
		orderID, rec.Username, c.pendingFor(rec)), nil
}

// Dismiss removes the order without contacting the purchaser. The original
// notification is still edited and scheduled for deletion.
func (c *Controller) Dismiss(ctx context.Context, cmd models.CommandContext, orderID string) (string, error) {
	rec, ok := c.store.Claim(cmd.ChannelID, orderID)
	if !ok {
		return "", ordererr.NewOrderNotFoundError(orderID)
	}
	rec.Status = models.DismissedStatus

	c.finalizeOriginal(ctx, rec, c.outcomeEmbed(rec, cmd, "🚫 Order Dismissed", "dismissed", models.ColorOrange, false, false))
	c.collector.RecordDismissed()

	return fmt.Sprintf("🚫 Order `%s` dismissed. Pending for %s.", orderID, c.pendingFor(rec)), nil
}

// Cleanup removes the order and deletes its notification immediately.
// Nobody is notified.
func (c *Controller) Cleanup(ctx context.Context, cmd models.CommandContext, orderID string) (string, error) {
	rec, ok := c.store.Claim(cmd.ChannelID, orderID)
	if !ok {
		return "", ordererr.NewOrderNotFoundError(orderID)
	}

	if err := c.messenger.DeleteMessage(ctx, rec.OriginChannelID, rec.OriginMessageID); err != nil {
		logger.Log.Info("could not delete notification during cleanup",
			zap.String("order_id", orderID), zap.Error(err))
	}
	c.collector.RecordCleaned()

	return fmt.Sprintf("🧹 Order `%s` removed. Pending for %s.", orderID, c.pendingFor(rec)), nil
}

// claimAndResolve claims within the invoking channel's scope: in global
// mode the store collapses every scope to one table, in channel mode the
// command acts on its own channel's partition.
func (c *Controller) claimAndResolve(ctx context.Context, cmd models.CommandContext, orderID string) (models.OrderRecord, platform.User, error) {
	rec, ok := c.store.Claim(cmd.ChannelID, orderID)
	if !ok {
		return models.OrderRecord{}, platform.User{}, ordererr.NewOrderNotFoundError(orderID)
	}

	user, found, err := c.directory.ResolveUser(ctx, rec.Username)
	if err != nil {
		logger.Log.Warn("user directory lookup failed",
			zap.String("username", rec.Username), zap.Error(err))
	}
	if err != nil || !found {
		// Terminal anyway: an unresolvable order must not stay pending
		// forever. The record is already claimed, nothing to undo.
		return models.OrderRecord{}, platform.User{}, ordererr.NewUserResolutionError(rec.Username)
	}
	return rec, user, nil
}

type dmFunc func(ctx context.Context, user platform.User, rec models.OrderRecord) error

func (c *Controller) deliverDM(ctx context.Context, cmd models.CommandContext, user platform.User, rec models.OrderRecord, send dmFunc) bool {
	if err := send(ctx, user, rec); err != nil {
		c.collector.RecordDMFailure()
		logger.Log.Warn("could not DM user, mentioning in channel",
			zap.String("order_id", rec.OrderID),
			zap.String("user_id", user.ID),
			zap.Error(err))

		fallback := fmt.Sprintf("📢 <@%s>, your order `%s` has been processed but I couldn't DM you. Please check your order status.",
			user.ID, rec.OrderID)
		if _, ferr := c.messenger.SendMessage(ctx, cmd.ChannelID, fallback); ferr != nil {
			logger.Log.Warn("fallback mention failed", zap.Error(ferr))
		}
		return false
	}
	return true
}

// finalizeOriginal mutates the webhook notification to its outcome state
// and schedules its deletion. Both steps are best-effort.
func (c *Controller) finalizeOriginal(ctx context.Context, rec models.OrderRecord, embed models.Embed) {
	if err := c.messenger.EditMessageEmbed(ctx, rec.OriginChannelID, rec.OriginMessageID, embed); err != nil {
		logger.Log.Info("original message edit failed",
			zap.String("order_id", rec.OrderID), zap.Error(err))
	}
	c.notifier.ScheduleDelete(rec.OriginChannelID, rec.OriginMessageID, c.deleteDelay)
}

func (c *Controller) outcomeEmbed(rec models.OrderRecord, cmd models.CommandContext, title, verb string, color int, withDM, dmSent bool) models.Embed {
	fields := []models.EmbedField{
		{Name: "🕒 Processed At", Value: c.nowFunc().Format("2 Jan 2006 15:04 MST")},
	}
	if withDM {
		dmStatus := "✅ Sent to User"
		if !dmSent {
			dmStatus = "❌ Failed, user mentioned"
		}
		fields = append(fields, models.EmbedField{Name: "📧 DM Status", Value: dmStatus})
	}
	return models.Embed{
		Title:       title,
		Description: fmt.Sprintf("Order `%s` has been %s by %s", rec.OrderID, verb, cmd.InvokerTag),
		Color:       color,
		Fields:      fields,
	}
}

func (c *Controller) pendingFor(rec models.OrderRecord) string {
	return notify.FormatPendingDuration(c.nowFunc().Sub(rec.CreatedAt))
}
