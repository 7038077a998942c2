package repository

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"net"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/driver/pgdriver"

	"privchat/internal/chat"
	"privchat/internal/chat/model"
	appErrors "privchat/pkg/errors"
	"privchat/pkg/logger"
)

type ChatRepository struct {
	db     *bun.DB
	logger *logger.Logger
}

func NewChatRepository(db *bun.DB, logger logger.Logger) *ChatRepository {
	return &ChatRepository{
		db:     db,
		logger: &logger,
	}
}

func sqlState(err error) string {
	var pgErr pgdriver.Error
	if errors.As(err, &pgErr) {
		return pgErr.Field('C')
	}
	return ""
}

// Connection loss, shutdown and timeout states are retryable by the caller;
// everything else is not.
func transient(err error) bool {
	if errors.Is(err, driver.ErrBadConn) || errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	if state := sqlState(err); len(state) >= 2 {
		switch state[:2] {
		case "08", "53", "57":
			return true
		}
	}
	return false
}

func (r *ChatRepository) mapErr(err error, op string) error {
	var appErr *appErrors.AppError
	if errors.As(err, &appErr) {
		return err
	}
	if sqlState(err) == "23503" {
		return appErrors.ErrUnknownUser
	}
	if transient(err) {
		return appErrors.ErrStorageUnavailable(err)
	}
	return errors.Wrap(err, op)
}

func (r *ChatRepository) FindDialog(ctx context.Context, a, b uuid.UUID) (*model.Dialog, error) {
	return r.findDialog(ctx, r.db, a, b)
}

// The persisted pair keeps insertion order, so both orientations are queried.
func (r *ChatRepository) findDialog(ctx context.Context, idb bun.IDB, a, b uuid.UUID) (*model.Dialog, error) {
	dialog := new(model.Dialog)
	err := idb.NewSelect().
		Model(dialog).
		Where("(user1_id = ? AND user2_id = ?) OR (user1_id = ? AND user2_id = ?)", a, b, b, a).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, r.mapErr(err, "chatRepo.FindDialog.Scan")
	}
	return dialog, nil
}

func (r *ChatRepository) GetOrCreateDialog(ctx context.Context, a, b uuid.UUID) (*model.Dialog, error) {
	return r.getOrCreateDialog(ctx, r.db, a, b)
}

// getOrCreateDialog races the insert against the unique index on the
// canonicalized pair; the loser detects the conflict and re-reads the
// winner's row. The race never escapes to the caller.
func (r *ChatRepository) getOrCreateDialog(ctx context.Context, idb bun.IDB, a, b uuid.UUID) (*model.Dialog, error) {
	if dialog, err := r.findDialog(ctx, idb, a, b); err != nil || dialog != nil {
		return dialog, err
	}

	dialog := &model.Dialog{User1ID: a, User2ID: b}
	_, err := idb.NewInsert().
		Model(dialog).
		On("CONFLICT DO NOTHING").
		Exec(ctx)
	if err != nil && sqlState(err) != "23505" {
		return nil, r.mapErr(err, "chatRepo.GetOrCreateDialog.Insert")
	}
	if err == nil && dialog.ID != 0 {
		return dialog, nil
	}

	// Lost the race; the conflicting row is committed by now.
	dialog, err = r.findDialog(ctx, idb, a, b)
	if err != nil {
		return nil, err
	}
	if dialog == nil {
		return nil, appErrors.Internal("dialog missing after conflict re-read")
	}
	return dialog, nil
}

func (r *ChatRepository) ListDialogsForUser(ctx context.Context, user uuid.UUID) ([]model.Dialog, error) {
	var dialogs []model.Dialog
	err := r.db.NewSelect().
		Model(&dialogs).
		Where("user1_id = ? OR user2_id = ?", user, user).
		Scan(ctx)
	if err != nil {
		return nil, r.mapErr(err, "chatRepo.ListDialogsForUser.Scan")
	}
	return dialogs, nil
}

func (r *ChatRepository) CreateMessage(ctx context.Context, msg *model.Message) (*model.Dialog, error) {
	var dialog *model.Dialog

	err := r.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewInsert().Model(msg).Returning("*").Exec(ctx); err != nil {
			return errors.Wrap(err, "chatRepo.CreateMessage.InsertMessage")
		}

		d, err := r.getOrCreateDialog(ctx, tx, msg.SenderID, msg.RecipientID)
		if err != nil {
			return err
		}
		dialog = d
		return nil
	})
	if err != nil {
		return nil, r.mapErr(err, "chatRepo.CreateMessage")
	}
	return dialog, nil
}

func (r *ChatRepository) GetMessage(ctx context.Context, id int64) (*model.Message, error) {
	msg := new(model.Message)
	err := r.db.NewSelect().Model(msg).Where("id = ?", id).Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrMessageNotFound
		}
		return nil, r.mapErr(err, "chatRepo.GetMessage.Scan")
	}
	return msg, nil
}

func (r *ChatRepository) UnreadCount(ctx context.Context, sender, recipient uuid.UUID) (int, error) {
	count, err := r.db.NewSelect().
		Model((*model.Message)(nil)).
		Where("sender_id = ? AND recipient_id = ? AND read = FALSE", sender, recipient).
		Count(ctx)
	if err != nil {
		return 0, r.mapErr(err, "chatRepo.UnreadCount.Count")
	}
	return count, nil
}

func (r *ChatRepository) MarkRead(ctx context.Context, id int64) error {
	res, err := r.db.NewUpdate().
		Model((*model.Message)(nil)).
		Set("read = TRUE").
		Set("updated_at = current_timestamp").
		Where("id = ?", id).
		Where("deleted_at IS NULL").
		Exec(ctx)
	if err != nil {
		return r.mapErr(err, "chatRepo.MarkRead.Update")
	}
	if rows, _ := res.RowsAffected(); rows == 0 {
		return appErrors.ErrMessageNotFound
	}
	return nil
}

func (r *ChatRepository) MarkDialogRead(ctx context.Context, sender, recipient uuid.UUID) error {
	_, err := r.db.NewUpdate().
		Model((*model.Message)(nil)).
		Set("read = TRUE").
		Set("updated_at = current_timestamp").
		Where("sender_id = ? AND recipient_id = ? AND read = FALSE", sender, recipient).
		Where("deleted_at IS NULL").
		Exec(ctx)
	if err != nil {
		return r.mapErr(err, "chatRepo.MarkDialogRead.Update")
	}
	return nil
}

func (r *ChatRepository) SoftDelete(ctx context.Context, id int64) error {
	// NewDelete on a soft-delete model sets deleted_at instead of removing the row.
	res, err := r.db.NewDelete().
		Model((*model.Message)(nil)).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return r.mapErr(err, "chatRepo.SoftDelete.Delete")
	}
	if rows, _ := res.RowsAffected(); rows > 0 {
		return nil
	}

	// Zero rows: already deleted (idempotent no-op) or never existed.
	exists, err := r.db.NewSelect().
		Model((*model.Message)(nil)).
		WhereAllWithDeleted().
		Where("id = ?", id).
		Exists(ctx)
	if err != nil {
		return r.mapErr(err, "chatRepo.SoftDelete.Exists")
	}
	if !exists {
		return appErrors.ErrMessageNotFound
	}
	return nil
}

func (r *ChatRepository) ListMessages(ctx context.Context, a, b uuid.UUID, cursor *chat.Cursor, limit int, includeDeleted bool) ([]model.Message, error) {
	var msgs []model.Message

	q := r.db.NewSelect().
		Model(&msgs).
		Where("(sender_id = ? AND recipient_id = ?) OR (sender_id = ? AND recipient_id = ?)", a, b, b, a).
		OrderExpr("created_at DESC, id DESC").
		Limit(limit)
	if includeDeleted {
		q = q.WhereAllWithDeleted()
	}
	if cursor != nil {
		q = q.Where("(created_at, id) < (?, ?)", cursor.CreatedAt, cursor.MsgID)
	}

	if err := q.Scan(ctx); err != nil {
		return nil, r.mapErr(err, "chatRepo.ListMessages.Scan")
	}
	return msgs, nil
}
