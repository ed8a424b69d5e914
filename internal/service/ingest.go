package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/drksurvraze/orderbot/internal/config"
	"github.com/drksurvraze/orderbot/internal/extract"
	"github.com/drksurvraze/orderbot/internal/metrics"
	"github.com/drksurvraze/orderbot/internal/middlewares/logger"
	"github.com/drksurvraze/orderbot/internal/models"
	"github.com/drksurvraze/orderbot/internal/notify"
	"github.com/drksurvraze/orderbot/internal/platform"
	"github.com/drksurvraze/orderbot/internal/store"
)

const ackDeleteDelay = 30 * time.Second

// Ingestor turns webhook-authored notifications into pending orders.
type Ingestor struct {
	store     *store.Store
	messenger platform.Messenger
	notifier  *notify.Notifier
	collector *metrics.Collector

	scopeMode  config.ScopeMode
	autoExpire time.Duration
	nowFunc    func() time.Time
}

func NewIngestor(st *store.Store, messenger platform.Messenger, notifier *notify.Notifier, collector *metrics.Collector, scopeMode config.ScopeMode, autoExpire time.Duration) *Ingestor {
	return &Ingestor{
		store:      st,
		messenger:  messenger,
		notifier:   notifier,
		collector:  collector,
		scopeMode:  scopeMode,
		autoExpire: autoExpire,
		nowFunc:    time.Now,
	}
}

// HandleNotification extracts order metadata and stores the pending
// record. Extraction failures and duplicates drop the notification
// silently: no reply is ever sent for a bad inbound payload.
func (ing *Ingestor) HandleNotification(ctx context.Context, n models.Notification) error {
	ext, err := extract.Extract(n)
	if err != nil {
		ing.collector.RecordExtractionFailure()
		logger.Log.Info("dropping unparseable notification",
			zap.String("channel_id", n.ChannelID),
			zap.String("message_id", n.MessageID),
			zap.Error(err))
		return err
	}

	rec := models.OrderRecord{
		OrderID:         ext.OrderID,
		Username:        ext.Username,
		ProductDetails:  ext.ProductDetails,
		OriginChannelID: n.ChannelID,
		OriginMessageID: n.MessageID,
		CreatedAt:       ing.nowFunc(),
		Status:          models.PendingStatus,
	}

	scope := ing.scopeFor(n.ChannelID)
	if !ing.store.InsertIfAbsent(scope, rec) {
		ing.collector.RecordDuplicate()
		logger.Log.Info("duplicate order dropped",
			zap.String("order_id", rec.OrderID),
			zap.String("scope", scope))
		return nil
	}
	ing.collector.RecordReceived()

	logger.Log.Info("new order stored",
		zap.String("order_id", rec.OrderID),
		zap.String("username", rec.Username),
		zap.String("product", rec.ProductDetails),
		zap.String("scope", scope))

	ack := fmt.Sprintf("📥 New order received: `%s` for %s", rec.OrderID, rec.Username)
	if ackID, err := ing.messenger.SendMessage(ctx, n.ChannelID, ack); err != nil {
		logger.Log.Warn("could not send order ack", zap.String("order_id", rec.OrderID), zap.Error(err))
	} else {
		ing.notifier.ScheduleDelete(n.ChannelID, ackID, ackDeleteDelay)
	}

	if ing.autoExpire > 0 {
		ing.scheduleExpiry(scope, rec)
	}
	return nil
}

func (ing *Ingestor) scopeFor(channelID string) string {
	if ing.scopeMode == config.ScopeChannel {
		return channelID
	}
	return store.GlobalScope
}

// scheduleExpiry drops the order and its notification after the configured
// delay unless an administrator already acted on it. The claim decides:
// a record that is already gone makes the timer a no-op.
func (ing *Ingestor) scheduleExpiry(scope string, rec models.OrderRecord) {
	time.AfterFunc(ing.autoExpire, func() {
		if _, ok := ing.store.Claim(scope, rec.OrderID); !ok {
			return
		}
		ing.collector.RecordExpired()
		if err := ing.messenger.DeleteMessage(context.Background(), rec.OriginChannelID, rec.OriginMessageID); err != nil {
			logger.Log.Info("could not delete expired notification",
				zap.String("order_id", rec.OrderID), zap.Error(err))
		}
		logger.Log.Info("order expired", zap.String("order_id", rec.OrderID))
	})
}
