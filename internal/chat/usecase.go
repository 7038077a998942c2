package chat

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// IdentityProvider is the slice of the identity subsystem this core consumes.
// User validity and presence are owned elsewhere; the usecase only reads them
// to hydrate DialogUser values.
type IdentityProvider interface {
	ValidateUser(ctx context.Context, id uuid.UUID) (bool, error)
	LastSeen(ctx context.Context, id uuid.UUID) (*time.Time, error)
	IsOnline(ctx context.Context, id uuid.UUID) (bool, error)
}

type ChatUsecase interface {
	// SendMessage persists the message and, as a transactional side effect,
	// get-or-creates the dialog for (sender, recipient).
	SendMessage(ctx context.Context, cmd SendMessageCommand) (*Message, error)

	// GetDialogs returns every dialog the user participates in, with
	// presence hydrated for both sides.
	GetDialogs(ctx context.Context, user uuid.UUID) ([]Dialog, error)

	// GetUnreadCount counts unread, non-deleted messages sender -> recipient.
	GetUnreadCount(ctx context.Context, sender, recipient uuid.UUID) (int, error)

	// MarkRead is idempotent; marking an already-read message again is a no-op.
	MarkRead(ctx context.Context, messageID int64) error

	// MarkDialogRead flips every unread message sender -> recipient in one go.
	MarkDialogRead(ctx context.Context, sender, recipient uuid.UUID) error

	// DeleteMessage soft-deletes: the row disappears from default listings
	// and unread counts but stays queryable on the administrative surface.
	DeleteMessage(ctx context.Context, messageID int64) error

	ListMessages(ctx context.Context, q ListMessagesQuery) (*MessagePage, error)
}
