package chat

import (
	"time"

	"github.com/google/uuid"
)

// DialogUser is a presence snapshot of one participant. IsOnline is supplied
// at read time by the presence tracker and is never persisted here.
type DialogUser struct {
	ID        uuid.UUID
	WasOnline *time.Time
	IsOnline  bool
}

// Dialog is the presentation value for a conversation between two users.
// Which participant sits in Creator vs Opponent carries no meaning for
// identity; use Equal, not ==.
type Dialog struct {
	ID       int64
	Creator  DialogUser
	Opponent DialogUser
}

// Equal compares the unordered pair of participant ids, so
// Dialog{A,B} equals Dialog{B,A}.
func (d Dialog) Equal(other Dialog) bool {
	if d.Creator.ID == other.Creator.ID && d.Opponent.ID == other.Opponent.ID {
		return true
	}
	return d.Creator.ID == other.Opponent.ID && d.Opponent.ID == other.Creator.ID
}

type PayloadKind int

const (
	PayloadText PayloadKind = iota
	PayloadBinary
)

// Payload is a tagged variant: exactly one of Text or Data is set,
// according to Kind. Callers switch on Kind rather than sniffing fields.
type Payload struct {
	Kind PayloadKind
	Text string
	Data []byte
}

func TextPayload(text string) Payload {
	return Payload{Kind: PayloadText, Text: text}
}

func BinaryPayload(data []byte) Payload {
	return Payload{Kind: PayloadBinary, Data: data}
}

func (p Payload) IsEmpty() bool {
	switch p.Kind {
	case PayloadText:
		return p.Text == ""
	default:
		return len(p.Data) == 0
	}
}

// Message is the presentation value for one chat item. MsgID increases
// monotonically within a dialog's storage and breaks ordering ties.
type Message struct {
	DialogID int64
	MsgID    int64
	Payload  Payload
	SentBy   DialogUser
	SentAt   time.Time
	WasRead  bool
}
