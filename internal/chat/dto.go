package chat

import (
	"encoding/base64"
	"fmt"
	"time"

	"github.com/google/uuid"

	appErrors "privchat/pkg/errors"
)

// NOTE: commands travel from handler to usecase
// Note: DTO travels from usecase to handler
// Input commands
type SendMessageCommand struct {
	Sender    uuid.UUID
	Recipient uuid.UUID
	Payload   Payload
}

type ListMessagesQuery struct {
	UserA    uuid.UUID
	UserB    uuid.UUID
	Cursor   string // empty for the first page
	PageSize int

	// Administrative surface: include soft-deleted rows.
	IncludeDeleted bool
}

// Output DTOs
type MessagePage struct {
	Messages   []Message
	NextCursor string // empty when the page is the last one
}

// Cursor is a keyset pagination position: the (created_at, id) of the last
// message of the previous page. Re-querying with a saved cursor reproduces
// the remaining pages even if newer messages arrived in the meantime.
type Cursor struct {
	CreatedAt time.Time
	MsgID     int64
}

func (c Cursor) Encode() string {
	raw := fmt.Sprintf("%d:%d", c.CreatedAt.UnixNano(), c.MsgID)
	return base64.RawURLEncoding.EncodeToString([]byte(raw))
}

func DecodeCursor(token string) (*Cursor, error) {
	raw, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return nil, appErrors.ErrInvalidCursor
	}
	var nanos, id int64
	if _, err := fmt.Sscanf(string(raw), "%d:%d", &nanos, &id); err != nil {
		return nil, appErrors.ErrInvalidCursor
	}
	return &Cursor{CreatedAt: time.Unix(0, nanos), MsgID: id}, nil
}
