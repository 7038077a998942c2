package model

import (
	"time"

	"github.com/google/uuid"
)

// Dialog is the persisted conversation row for a 1:1 pair. The pair is kept
// in insertion order; uniqueness over the unordered pair comes from the
// migration index:
// CREATE UNIQUE INDEX idx_dialog_pair ON dialogs(least(user1_id,user2_id), greatest(user1_id,user2_id));
type Dialog struct {
	ID int64 `bun:",pk,autoincrement"`

	User1ID uuid.UUID `bun:",notnull,type:uuid"`
	User2ID uuid.UUID `bun:",notnull,type:uuid"`

	CreatedAt time.Time `bun:",nullzero,notnull,default:current_timestamp"`
	UpdatedAt time.Time `bun:",nullzero,notnull,default:current_timestamp"`
}

// Involves reports whether the record belongs to the unordered pair {a, b},
// regardless of which column holds which user.
func (d *Dialog) Involves(a, b uuid.UUID) bool {
	return (d.User1ID == a && d.User2ID == b) || (d.User1ID == b && d.User2ID == a)
}
