package chat

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "privchat/pkg/errors"
)

func TestDialog_Equal(t *testing.T) {
	a := uuid.New()
	b := uuid.New()
	c := uuid.New()

	ab := Dialog{ID: 1, Creator: DialogUser{ID: a}, Opponent: DialogUser{ID: b}}
	ba := Dialog{ID: 2, Creator: DialogUser{ID: b}, Opponent: DialogUser{ID: a}}
	ac := Dialog{ID: 3, Creator: DialogUser{ID: a}, Opponent: DialogUser{ID: c}}

	assert.True(t, ab.Equal(ab))
	assert.True(t, ab.Equal(ba), "equality must ignore creator/opponent orientation")
	assert.True(t, ba.Equal(ab))
	assert.False(t, ab.Equal(ac))
	assert.False(t, ac.Equal(ba))
}

func TestPayload_Kinds(t *testing.T) {
	text := TextPayload("hi")
	assert.Equal(t, PayloadText, text.Kind)
	assert.False(t, text.IsEmpty())

	bin := BinaryPayload([]byte{0x1, 0x2})
	assert.Equal(t, PayloadBinary, bin.Kind)
	assert.False(t, bin.IsEmpty())

	assert.True(t, TextPayload("").IsEmpty())
	assert.True(t, BinaryPayload(nil).IsEmpty())
}

func TestCursor_Roundtrip(t *testing.T) {
	orig := Cursor{CreatedAt: time.Unix(0, 1724659200123456789), MsgID: 42}

	decoded, err := DecodeCursor(orig.Encode())
	require.NoError(t, err)
	assert.Equal(t, orig.MsgID, decoded.MsgID)
	assert.True(t, orig.CreatedAt.Equal(decoded.CreatedAt))
}

func TestDecodeCursor_Invalid(t *testing.T) {
	_, err := DecodeCursor("not a cursor!!!")
	assert.ErrorIs(t, err, appErrors.ErrInvalidCursor)

	_, err = DecodeCursor("aGVsbG8") // valid base64, wrong shape
	assert.ErrorIs(t, err, appErrors.ErrInvalidCursor)
}
