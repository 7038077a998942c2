package chat

import (
	"context"

	"github.com/google/uuid"

	"privchat/internal/chat/model"
)

type ChatRepository interface {
	// FindDialog returns the unique record for the unordered pair {a, b},
	// or (nil, nil) when none exists. Absence is not an error.
	FindDialog(ctx context.Context, a, b uuid.UUID) (*model.Dialog, error)

	// GetOrCreateDialog is idempotent and race-safe: concurrent first-contact
	// calls from either orientation all resolve to the same single record.
	GetOrCreateDialog(ctx context.Context, a, b uuid.UUID) (*model.Dialog, error)

	ListDialogsForUser(ctx context.Context, user uuid.UUID) ([]model.Dialog, error)

	// CreateMessage inserts the message and get-or-creates the dialog for
	// (sender, recipient) in one transaction; either both commit or neither.
	CreateMessage(ctx context.Context, msg *model.Message) (*model.Dialog, error)

	GetMessage(ctx context.Context, id int64) (*model.Message, error)

	// UnreadCount is directional: unread, non-deleted messages sender -> recipient.
	UnreadCount(ctx context.Context, sender, recipient uuid.UUID) (int, error)

	MarkRead(ctx context.Context, id int64) error
	MarkDialogRead(ctx context.Context, sender, recipient uuid.UUID) error

	SoftDelete(ctx context.Context, id int64) error

	// ListMessages pages newest-first by (created_at, id); soft-deleted rows
	// are excluded unless includeDeleted is set.
	ListMessages(ctx context.Context, a, b uuid.UUID, cursor *Cursor, limit int, includeDeleted bool) ([]model.Message, error)
}
