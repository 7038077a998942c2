package model

import (
	"time"

	"github.com/google/uuid"
)

// Message is the persisted chat item. The dialog is derived from
// (sender, recipient), not stored as a foreign key. ID is a bigserial and
// doubles as the per-dialog ordering tiebreaker.
type Message struct {
	ID int64 `bun:",pk,autoincrement"`

	SenderID    uuid.UUID `bun:",notnull,type:uuid"`
	RecipientID uuid.UUID `bun:",notnull,type:uuid"`

	Text string `bun:",nullzero"`
	File string `bun:",nullzero"` // opaque attachment reference; bytes live in external storage

	Read bool `bun:",notnull,default:false"`

	CreatedAt time.Time  `bun:",nullzero,notnull,default:current_timestamp"`
	UpdatedAt time.Time  `bun:",nullzero,notnull,default:current_timestamp"`
	DeletedAt *time.Time `bun:",soft_delete"`
}
