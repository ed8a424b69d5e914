package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/drksurvraze/orderbot/internal/config"
	"github.com/drksurvraze/orderbot/internal/metrics"
	"github.com/drksurvraze/orderbot/internal/models"
	"github.com/drksurvraze/orderbot/internal/notify"
	"github.com/drksurvraze/orderbot/internal/store"
)

func notification(channelID, messageID string) models.Notification {
	return models.Notification{
		ChannelID: channelID,
		MessageID: messageID,
		Fields: []models.EmbedField{
			{Name: "🆔 Order", Value: "`ORD_AB12`"},
			{Name: "👤 Discord", Value: "alice#0001"},
			{Name: "📦 Product", Value: "VIP Rank"},
		},
	}
}

func newIngestorFixture(mode config.ScopeMode, autoExpire time.Duration) (*Ingestor, *store.Store, *MockMessenger, *metrics.Collector) {
	messenger := new(MockMessenger)
	st := store.New(mode)
	collector := metrics.New()
	notifier := notify.New(messenger, "", "", false)
	ing := NewIngestor(st, messenger, notifier, collector, mode, autoExpire)
	return ing, st, messenger, collector
}

func TestIngestor_StoresAndAcks(t *testing.T) {
	ing, st, messenger, collector := newIngestorFixture(config.ScopeGlobal, 0)

	messenger.On("SendMessage", mock.Anything, "order-ch", mock.MatchedBy(func(content string) bool {
		return strings.Contains(content, "ORD_AB12") && strings.Contains(content, "alice#0001")
	})).Return("ack-1", nil)

	err := ing.HandleNotification(context.Background(), notification("order-ch", "msg-1"))

	require.NoError(t, err)
	rec, found := st.Get("order-ch", "ORD_AB12")
	require.True(t, found, "extracted order must be retrievable by id")
	assert.Equal(t, "alice#0001", rec.Username)
	assert.Equal(t, "VIP Rank", rec.ProductDetails)
	assert.Equal(t, "order-ch", rec.OriginChannelID)
	assert.Equal(t, "msg-1", rec.OriginMessageID)
	assert.Equal(t, models.PendingStatus, rec.Status)
	assert.Equal(t, int64(1), collector.Snapshot().Received)
	messenger.AssertExpectations(t)
}

func TestIngestor_DuplicateKeepsFirst(t *testing.T) {
	ing, st, messenger, collector := newIngestorFixture(config.ScopeGlobal, 0)

	messenger.On("SendMessage", mock.Anything, "order-ch", mock.Anything).Return("ack-1", nil)

	require.NoError(t, ing.HandleNotification(context.Background(), notification("order-ch", "msg-1")))

	// Same order id again, different message.
	require.NoError(t, ing.HandleNotification(context.Background(), notification("order-ch", "msg-2")))

	rec, found := st.Get("order-ch", "ORD_AB12")
	require.True(t, found)
	assert.Equal(t, "msg-1", rec.OriginMessageID, "duplicate must not overwrite the first record")
	assert.Equal(t, 1, st.Len())
	assert.Equal(t, int64(1), collector.Snapshot().Duplicates)
	assert.Equal(t, 1, messenger.callCount("SendMessage"), "no ack for a dropped duplicate")
}

func TestIngestor_ExtractionFailureIsSilent(t *testing.T) {
	ing, st, messenger, collector := newIngestorFixture(config.ScopeGlobal, 0)

	err := ing.HandleNotification(context.Background(), models.Notification{
		ChannelID: "order-ch",
		MessageID: "msg-1",
		Fields:    []models.EmbedField{{Name: "Note", Value: "nothing useful"}},
	})

	require.Error(t, err)
	assert.Zero(t, st.Len())
	assert.Zero(t, messenger.callCount("SendMessage"), "no reply for an unparseable notification")
	assert.Equal(t, int64(1), collector.Snapshot().ExtractionFailures)
}

func TestIngestor_ChannelModeScopesByOrigin(t *testing.T) {
	ing, st, messenger, _ := newIngestorFixture(config.ScopeChannel, 0)

	messenger.On("SendMessage", mock.Anything, mock.Anything, mock.Anything).Return("ack", nil)

	require.NoError(t, ing.HandleNotification(context.Background(), notification("ch1", "msg-1")))

	assert.Len(t, st.List("ch1"), 1)
	assert.Empty(t, st.List("ch2"))
}

func TestIngestor_AutoExpiryDropsPendingOrder(t *testing.T) {
	ing, st, messenger, collector := newIngestorFixture(config.ScopeGlobal, 20*time.Millisecond)

	messenger.On("SendMessage", mock.Anything, "order-ch", mock.Anything).Return("ack-1", nil)
	messenger.On("DeleteMessage", mock.Anything, "order-ch", mock.Anything).Return(nil)

	require.NoError(t, ing.HandleNotification(context.Background(), notification("order-ch", "msg-1")))

	assert.Eventually(t, func() bool {
		return st.Len() == 0 && collector.Snapshot().Expired == 1
	}, time.Second, 5*time.Millisecond)
}

func TestIngestor_AutoExpiryIsNoopAfterClaim(t *testing.T) {
	ing, st, messenger, collector := newIngestorFixture(config.ScopeGlobal, 20*time.Millisecond)

	messenger.On("SendMessage", mock.Anything, "order-ch", mock.Anything).Return("ack-1", nil)
	messenger.On("DeleteMessage", mock.Anything, "order-ch", mock.Anything).Return(nil)

	require.NoError(t, ing.HandleNotification(context.Background(), notification("order-ch", "msg-1")))

	// An administrator acts before the expiry timer fires.
	_, ok := st.Claim("order-ch", "ORD_AB12")
	require.True(t, ok)

	time.Sleep(60 * time.Millisecond)
	assert.Zero(t, collector.Snapshot().Expired, "a claimed order must not expire")
}
