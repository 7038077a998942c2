package models

import (
	"time"

	"github.com/google/uuid"
)

// User is the slice of the identity subsystem this core reads: an opaque id
// plus the persisted last-seen timestamp. Account management lives elsewhere.
type User struct {
	ID uuid.UUID `bun:",pk,type:uuid,default:gen_random_uuid()"`

	// Username = unique @handle (used for login and identity)
	Username string `bun:",unique,notnull"`

	// Name = display name shown in chats (can be changed freely)
	Name string `bun:",notnull"`

	// Set when the user's last connection goes away; nil if never observed.
	LastSeenAt *time.Time `bun:",nullzero"`

	CreatedAt time.Time `bun:",nullzero,notnull,default:current_timestamp"`
	UpdatedAt time.Time `bun:",nullzero,notnull,default:current_timestamp"`
}
