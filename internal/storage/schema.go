package storage

import (
	"context"

	"github.com/uptrace/bun"

	chatmodel "privchat/internal/chat/model"
	identitymodel "privchat/internal/identity/model"
)

// CreateSchema creates the tables and the dialog-pair unique index. The
// index is what makes GetOrCreateDialog race-safe; without it concurrent
// first contacts could persist two rows for one pair.
func CreateSchema(ctx context.Context, db *bun.DB) error {
	if _, err := db.NewCreateTable().
		Model((*identitymodel.User)(nil)).
		IfNotExists().
		Exec(ctx); err != nil {
		return err
	}

	if _, err := db.NewCreateTable().
		Model((*chatmodel.Dialog)(nil)).
		IfNotExists().
		ForeignKey(`("user1_id") REFERENCES "users" ("id") ON DELETE CASCADE`).
		ForeignKey(`("user2_id") REFERENCES "users" ("id") ON DELETE CASCADE`).
		Exec(ctx); err != nil {
		return err
	}

	if _, err := db.NewCreateTable().
		Model((*chatmodel.Message)(nil)).
		IfNotExists().
		ForeignKey(`("sender_id") REFERENCES "users" ("id") ON DELETE CASCADE`).
		ForeignKey(`("recipient_id") REFERENCES "users" ("id") ON DELETE CASCADE`).
		Exec(ctx); err != nil {
		return err
	}

	if _, err := db.ExecContext(ctx,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_dialog_pair ON dialogs (least(user1_id, user2_id), greatest(user1_id, user2_id))`); err != nil {
		return err
	}

	// Unread-count and listing queries filter on these.
	if _, err := db.ExecContext(ctx,
		`CREATE INDEX IF NOT EXISTS idx_messages_unread ON messages (sender_id, recipient_id) WHERE read = FALSE AND deleted_at IS NULL`); err != nil {
		return err
	}
	_, err := db.ExecContext(ctx,
		`CREATE INDEX IF NOT EXISTS idx_messages_created ON messages (created_at DESC, id DESC)`)
	return err
}
