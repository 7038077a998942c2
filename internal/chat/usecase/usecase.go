package usecase

import (
	"context"

	"github.com/google/uuid"

	"privchat/config"
	"privchat/internal/chat"
	"privchat/internal/chat/model"
	appErrors "privchat/pkg/errors"
	"privchat/pkg/logger"
)

type ChatUsecase struct {
	repo     chat.ChatRepository
	identity chat.IdentityProvider
	logger   logger.Logger
	config   config.Config
}

func NewChatUsecase(repo chat.ChatRepository, identity chat.IdentityProvider, logger logger.Logger, config config.Config) *ChatUsecase {
	return &ChatUsecase{repo: repo, identity: identity, logger: logger, config: config}
}

func (uc *ChatUsecase) SendMessage(ctx context.Context, cmd chat.SendMessageCommand) (*chat.Message, error) {
	if cmd.Payload.IsEmpty() {
		return nil, appErrors.ErrEmptyPayload
	}

	if err := uc.requireUsers(ctx, cmd.Sender, cmd.Recipient); err != nil {
		return nil, err
	}

	rec := &model.Message{
		SenderID:    cmd.Sender,
		RecipientID: cmd.Recipient,
	}
	switch cmd.Payload.Kind {
	case chat.PayloadText:
		rec.Text = cmd.Payload.Text
	case chat.PayloadBinary:
		// Binary payloads carry the opaque reference issued by the
		// external attachment store, never the attachment bytes.
		rec.File = string(cmd.Payload.Data)
	default:
		return nil, appErrors.InvalidArg("unknown payload kind")
	}

	dialog, err := uc.repo.CreateMessage(ctx, rec)
	if err != nil {
		uc.logger.Error("failed to persist message", "sender", cmd.Sender, "recipient", cmd.Recipient, "err", err)
		return nil, err
	}

	msg := uc.toMessage(ctx, dialog.ID, rec)
	return &msg, nil
}

func (uc *ChatUsecase) GetDialogs(ctx context.Context, user uuid.UUID) ([]chat.Dialog, error) {
	records, err := uc.repo.ListDialogsForUser(ctx, user)
	if err != nil {
		uc.logger.Error("failed to list dialogs", "user", user, "err", err)
		return nil, err
	}

	hydrated := make(map[uuid.UUID]chat.DialogUser, len(records)+1)
	dialogs := make([]chat.Dialog, 0, len(records))
	for _, rec := range records {
		dialogs = append(dialogs, chat.Dialog{
			ID:       rec.ID,
			Creator:  uc.cachedUser(ctx, hydrated, rec.User1ID),
			Opponent: uc.cachedUser(ctx, hydrated, rec.User2ID),
		})
	}
	return dialogs, nil
}

func (uc *ChatUsecase) GetUnreadCount(ctx context.Context, sender, recipient uuid.UUID) (int, error) {
	if err := uc.requireUsers(ctx, sender, recipient); err != nil {
		return 0, err
	}
	return uc.repo.UnreadCount(ctx, sender, recipient)
}

func (uc *ChatUsecase) MarkRead(ctx context.Context, messageID int64) error {
	return uc.repo.MarkRead(ctx, messageID)
}

func (uc *ChatUsecase) MarkDialogRead(ctx context.Context, sender, recipient uuid.UUID) error {
	if err := uc.requireUsers(ctx, sender, recipient); err != nil {
		return err
	}
	return uc.repo.MarkDialogRead(ctx, sender, recipient)
}

func (uc *ChatUsecase) DeleteMessage(ctx context.Context, messageID int64) error {
	return uc.repo.SoftDelete(ctx, messageID)
}

func (uc *ChatUsecase) ListMessages(ctx context.Context, q chat.ListMessagesQuery) (*chat.MessagePage, error) {
	if q.PageSize <= 0 {
		return nil, appErrors.ErrInvalidPageSize
	}

	var cursor *chat.Cursor
	if q.Cursor != "" {
		c, err := chat.DecodeCursor(q.Cursor)
		if err != nil {
			return nil, err
		}
		cursor = c
	}

	dialog, err := uc.repo.FindDialog(ctx, q.UserA, q.UserB)
	if err != nil {
		return nil, err
	}
	if dialog == nil {
		// No first contact yet: an empty page, not an error.
		return &chat.MessagePage{}, nil
	}

	records, err := uc.repo.ListMessages(ctx, q.UserA, q.UserB, cursor, q.PageSize, q.IncludeDeleted)
	if err != nil {
		uc.logger.Error("failed to list messages", "dialog", dialog.ID, "err", err)
		return nil, err
	}

	page := &chat.MessagePage{Messages: make([]chat.Message, 0, len(records))}
	for i := range records {
		page.Messages = append(page.Messages, uc.toMessage(ctx, dialog.ID, &records[i]))
	}
	if len(records) == q.PageSize {
		last := records[len(records)-1]
		page.NextCursor = chat.Cursor{CreatedAt: last.CreatedAt, MsgID: last.ID}.Encode()
	}
	return page, nil
}

func (uc *ChatUsecase) requireUsers(ctx context.Context, ids ...uuid.UUID) error {
	for _, id := range ids {
		ok, err := uc.identity.ValidateUser(ctx, id)
		if err != nil {
			uc.logger.Error("identity lookup failed", "user", id, "err", err)
			return appErrors.Internal("identity lookup failed")
		}
		if !ok {
			return appErrors.ErrUnknownUser
		}
	}
	return nil
}

// dialogUser hydrates presence for one participant. Presence is best-effort:
// a tracker failure degrades to offline instead of failing the read path.
func (uc *ChatUsecase) dialogUser(ctx context.Context, id uuid.UUID) chat.DialogUser {
	u := chat.DialogUser{ID: id}

	seen, err := uc.identity.LastSeen(ctx, id)
	if err != nil {
		uc.logger.Warn("failed to read last seen", "user", id, "err", err)
	} else {
		u.WasOnline = seen
	}

	online, err := uc.identity.IsOnline(ctx, id)
	if err != nil {
		uc.logger.Warn("failed to read online flag", "user", id, "err", err)
		return u
	}
	u.IsOnline = online
	return u
}

func (uc *ChatUsecase) cachedUser(ctx context.Context, cache map[uuid.UUID]chat.DialogUser, id uuid.UUID) chat.DialogUser {
	if u, ok := cache[id]; ok {
		return u
	}
	u := uc.dialogUser(ctx, id)
	cache[id] = u
	return u
}

func (uc *ChatUsecase) toMessage(ctx context.Context, dialogID int64, rec *model.Message) chat.Message {
	var payload chat.Payload
	if rec.Text != "" {
		payload = chat.TextPayload(rec.Text)
	} else {
		payload = chat.BinaryPayload([]byte(rec.File))
	}

	return chat.Message{
		DialogID: dialogID,
		MsgID:    rec.ID,
		Payload:  payload,
		SentBy:   uc.dialogUser(ctx, rec.SenderID),
		SentAt:   rec.CreatedAt,
		WasRead:  rec.Read,
	}
}
