package notify

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/drksurvraze/orderbot/internal/models"
	"github.com/drksurvraze/orderbot/internal/platform"
)

// MockMessenger - мок для platform.Messenger
type MockMessenger struct {
	mock.Mock
	mu sync.Mutex
}

func (m *MockMessenger) SendMessage(ctx context.Context, channelID, content string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	args := m.Called(ctx, channelID, content)
	return args.String(0), args.Error(1)
}

func (m *MockMessenger) SendEmbed(ctx context.Context, channelID string, embed models.Embed) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	args := m.Called(ctx, channelID, embed)
	return args.String(0), args.Error(1)
}

func (m *MockMessenger) SendDM(ctx context.Context, userID string, embed models.Embed) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	args := m.Called(ctx, userID, embed)
	return args.Error(0)
}

func (m *MockMessenger) EditMessageEmbed(ctx context.Context, channelID, messageID string, embed models.Embed) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	args := m.Called(ctx, channelID, messageID, embed)
	return args.Error(0)
}

func (m *MockMessenger) DeleteMessage(ctx context.Context, channelID, messageID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	args := m.Called(ctx, channelID, messageID)
	return args.Error(0)
}

func fixedClock(n *Notifier, at time.Time) {
	n.nowFunc = func() time.Time { return at }
}

func TestFormatPendingDuration(t *testing.T) {
	tests := []struct {
		name string
		d    time.Duration
		want string
	}{
		{"ninety minutes", 90 * time.Minute, "1 hours, 30 minutes"},
		{"two days three hours", 51 * time.Hour, "2 days, 3 hours"},
		{"minutes only", 45 * time.Minute, "45 minutes"},
		{"days hours minutes", 26*time.Hour + 5*time.Minute, "1 days, 2 hours, 5 minutes"},
		{"under a minute", 20 * time.Second, "0 minutes"},
		{"negative clamped", -time.Hour, "0 minutes"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatPendingDuration(tt.d))
		})
	}
}

func TestNotifier_SendApprovalDM(t *testing.T) {
	messenger := new(MockMessenger)
	n := New(messenger, "", "", false)
	fixedClock(n, time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))

	rec := models.OrderRecord{OrderID: "ORD_1", ProductDetails: "VIP Rank"}
	user := platform.User{ID: "u1", Tag: "alice#0001"}

	messenger.On("SendDM", mock.Anything, "u1", mock.MatchedBy(func(e models.Embed) bool {
		return e.Title == "🎉 ORDER APPROVED!" && e.Color == models.ColorGreen
	})).Return(nil)

	err := n.SendApprovalDM(context.Background(), user, rec)

	require.NoError(t, err)
	messenger.AssertExpectations(t)
}

func TestNotifier_SendRejectionDM_IncludesSupportLink(t *testing.T) {
	messenger := new(MockMessenger)
	n := New(messenger, "", "https://discord.gg/example", false)
	fixedClock(n, time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))

	var sent models.Embed
	messenger.On("SendDM", mock.Anything, "u1", mock.MatchedBy(func(e models.Embed) bool {
		sent = e
		return true
	})).Return(nil)

	err := n.SendRejectionDM(context.Background(), platform.User{ID: "u1"}, models.OrderRecord{OrderID: "ORD_2"})

	require.NoError(t, err)
	found := false
	for _, f := range sent.Fields {
		if strings.Contains(f.Value, "https://discord.gg/example") {
			found = true
		}
	}
	assert.True(t, found, "rejection DM must carry the support link")
}

func TestNotifier_SendDMFailureWrapped(t *testing.T) {
	messenger := new(MockMessenger)
	n := New(messenger, "", "", false)

	messenger.On("SendDM", mock.Anything, "u1", mock.Anything).Return(errors.New("closed DMs"))

	err := n.SendApprovalDM(context.Background(), platform.User{ID: "u1"}, models.OrderRecord{OrderID: "ORD_3"})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "closed DMs")
}

func TestNotifier_Announce(t *testing.T) {
	messenger := new(MockMessenger)
	n := New(messenger, "announce", "", true)

	rec := models.OrderRecord{OrderID: "ORD_4", Username: "bob#0002", ProductDetails: "500 Tokens"}

	messenger.On("SendMessage", mock.Anything, "announce", mock.MatchedBy(func(content string) bool {
		return strings.HasPrefix(content, "@everyone ") &&
			strings.Contains(content, "bob#0002") &&
			strings.Contains(content, "500 Tokens")
	})).Return("m1", nil)

	err := n.Announce(context.Background(), rec)

	require.NoError(t, err)
	messenger.AssertExpectations(t)
}

func TestNotifier_AnnounceWithoutChannelIsNoop(t *testing.T) {
	messenger := new(MockMessenger)
	n := New(messenger, "", "", false)

	err := n.Announce(context.Background(), models.OrderRecord{OrderID: "ORD_5"})

	require.NoError(t, err)
	messenger.AssertNotCalled(t, "SendMessage", mock.Anything, mock.Anything, mock.Anything)
}

func TestNotifier_ScheduleDeleteFires(t *testing.T) {
	messenger := new(MockMessenger)
	n := New(messenger, "", "", false)

	messenger.On("DeleteMessage", mock.Anything, "ch1", "m1").Return(nil)

	n.ScheduleDelete("ch1", "m1", 10*time.Millisecond)

	assert.Eventually(t, func() bool {
		messenger.mu.Lock()
		defer messenger.mu.Unlock()
		for _, call := range messenger.Calls {
			if call.Method == "DeleteMessage" {
				return true
			}
		}
		return false
	}, time.Second, 5*time.Millisecond)
}

func TestNotifier_ScheduleDeleteToleratesStaleTarget(t *testing.T) {
	messenger := new(MockMessenger)
	n := New(messenger, "", "", false)

	messenger.On("DeleteMessage", mock.Anything, "ch1", "gone").Return(errors.New("unknown message"))

	// Must not panic when the target is already deleted.
	n.ScheduleDelete("ch1", "gone", time.Millisecond)
	time.Sleep(50 * time.Millisecond)

	messenger.AssertExpectations(t)
}
