// Package platform defines the collaborator contracts the bot core depends
// on. The concrete chat client lives in the discord subpackage; the core
// only sees these interfaces, which keeps the lifecycle logic testable.
package platform

import (
	"context"

	"github.com/drksurvraze/orderbot/internal/models"
)

// User is a resolved platform account.
type User struct {
	ID          string
	Tag         string
	Username    string
	DisplayName string
}

// Messenger delivers outbound payloads and mutates existing messages.
// Every method is non-fatal from the caller's point of view: errors are
// reported, never panicked.
type Messenger interface {
	SendMessage(ctx context.Context, channelID, content string) (messageID string, err error)
	SendEmbed(ctx context.Context, channelID string, embed models.Embed) (messageID string, err error)
	SendDM(ctx context.Context, userID string, embed models.Embed) error
	EditMessageEmbed(ctx context.Context, channelID, messageID string, embed models.Embed) error
	DeleteMessage(ctx context.Context, channelID, messageID string) error
}

// UserDirectory resolves a claimed purchaser name to a platform user.
// Matching is case-sensitive and exact, against full tag, bare username and
// display name in that priority order, across all searchable guilds.
type UserDirectory interface {
	ResolveUser(ctx context.Context, username string) (User, bool, error)
}

// PermissionChecker reports whether a caller holds the platform's
// administrator capability. The lifecycle controller treats a positive
// answer as a precondition, it never computes it.
type PermissionChecker interface {
	IsAdministrator(ctx context.Context, channelID, userID string) (bool, error)
}
