package repository

import (
	"context"
	"database/sql"
	"log"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go/modules/postgres"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"

	"testing"

	"privchat/internal/chat"
	"privchat/internal/chat/model"
	identity "privchat/internal/identity/model"
	"privchat/internal/storage"
	appErrors "privchat/pkg/errors"
	"privchat/pkg/logger"
)

var (
	testDB     *bun.DB
	testLogger logger.Logger
)

func TestMain(m *testing.M) {
	ctx := context.Background()

	dbName := "privchat"
	dbUser := "privchat"
	dbPassword := "password"

	postgresContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase(dbName),
		postgres.WithUsername(dbUser),
		postgres.WithPassword(dbPassword),
		postgres.BasicWaitStrategies(),
	)
	if err != nil {
		log.Printf("failed to start container: %s", err)
		return
	}

	defer func() {
		if err := postgresContainer.Terminate(ctx); err != nil {
			log.Printf("failed to terminate container: %s", err)
		}
	}()

	connStr, err := postgresContainer.ConnectionString(ctx, "sslmode=disable", "application_name=test")
	if err != nil {
		log.Printf("failed to get connections string, %v", err)
	}

	connector := pgdriver.NewConnector(pgdriver.WithDSN(connStr))
	sqlDB := sql.OpenDB(connector)
	testDB = bun.NewDB(sqlDB, pgdialect.New())

	if err := sqlDB.PingContext(ctx); err != nil {
		log.Fatalf("failed to ping db: %v", err)
	}

	if err := storage.CreateSchema(ctx, testDB); err != nil {
		testDB.Close()
		log.Fatalf("failed to create schema: %v", err)
	}

	code := m.Run()

	testDB.Close()

	os.Exit(code)
}

func truncateAll(t *testing.T) {
	t.Helper()
	_, err := testDB.ExecContext(context.Background(),
		`TRUNCATE TABLE messages, dialogs, users RESTART IDENTITY CASCADE`)
	require.NoError(t, err)
}

func createUser(t *testing.T, username string) uuid.UUID {
	t.Helper()
	u := &identity.User{Username: username, Name: username}
	_, err := testDB.NewInsert().Model(u).Returning("*").Exec(context.Background())
	require.NoError(t, err)
	return u.ID
}

func countDialogs(t *testing.T) int {
	t.Helper()
	count, err := testDB.NewSelect().Model((*model.Dialog)(nil)).Count(context.Background())
	require.NoError(t, err)
	return count
}

func Test_GetOrCreateDialog(t *testing.T) {
	t.Cleanup(func() { truncateAll(t) })

	repo := NewChatRepository(testDB, testLogger)
	a := createUser(t, "alice")
	b := createUser(t, "bob")

	first, err := repo.GetOrCreateDialog(context.Background(), a, b)
	require.NoError(t, err)
	require.NotZero(t, first.ID)
	assert.True(t, first.Involves(a, b))

	// Opposite orientation must return the same record, not a duplicate.
	second, err := repo.GetOrCreateDialog(context.Background(), b, a)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	assert.Equal(t, 1, countDialogs(t))
}

func Test_FindDialog_AbsentIsNotAnError(t *testing.T) {
	t.Cleanup(func() { truncateAll(t) })

	repo := NewChatRepository(testDB, testLogger)
	a := createUser(t, "alice")
	b := createUser(t, "bob")

	dialog, err := repo.FindDialog(context.Background(), a, b)
	require.NoError(t, err)
	assert.Nil(t, dialog)
}

func Test_GetOrCreateDialog_ConcurrentFirstContact(t *testing.T) {
	t.Cleanup(func() { truncateAll(t) })

	repo := NewChatRepository(testDB, testLogger)
	a := createUser(t, "alice")
	b := createUser(t, "bob")

	const n = 8
	ids := make([]int64, n)
	errs := make([]error, n)

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			// Alternate orientations to exercise both race directions.
			u1, u2 := a, b
			if i%2 == 1 {
				u1, u2 = b, a
			}
			d, err := repo.GetOrCreateDialog(context.Background(), u1, u2)
			if err != nil {
				errs[i] = err
				return
			}
			ids[i] = d.ID
		}(i)
	}
	wg.Wait()

	for i := 0; i < n; i++ {
		require.NoError(t, errs[i])
		assert.Equal(t, ids[0], ids[i])
	}
	assert.Equal(t, 1, countDialogs(t))
}

func Test_ListDialogsForUser(t *testing.T) {
	t.Cleanup(func() { truncateAll(t) })

	repo := NewChatRepository(testDB, testLogger)
	a := createUser(t, "alice")
	b := createUser(t, "bob")
	c := createUser(t, "carol")

	_, err := repo.GetOrCreateDialog(context.Background(), a, b)
	require.NoError(t, err)
	_, err = repo.GetOrCreateDialog(context.Background(), c, a)
	require.NoError(t, err)
	_, err = repo.GetOrCreateDialog(context.Background(), b, c)
	require.NoError(t, err)

	dialogs, err := repo.ListDialogsForUser(context.Background(), a)
	require.NoError(t, err)
	require.Len(t, dialogs, 2)
	for _, d := range dialogs {
		assert.True(t, d.User1ID == a || d.User2ID == a)
	}
}

func Test_CreateMessage_CreatesDialog(t *testing.T) {
	t.Cleanup(func() { truncateAll(t) })

	repo := NewChatRepository(testDB, testLogger)
	a := createUser(t, "alice")
	b := createUser(t, "bob")

	msg := &model.Message{SenderID: a, RecipientID: b, Text: "hi"}
	dialog, err := repo.CreateMessage(context.Background(), msg)
	require.NoError(t, err)
	require.NotZero(t, msg.ID)
	require.NotNil(t, dialog)
	assert.True(t, dialog.Involves(a, b))
	assert.False(t, msg.Read)

	found, err := repo.FindDialog(context.Background(), a, b)
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, dialog.ID, found.ID)

	// A second message must not create a second dialog.
	_, err = repo.CreateMessage(context.Background(), &model.Message{SenderID: b, RecipientID: a, Text: "hey"})
	require.NoError(t, err)
	assert.Equal(t, 1, countDialogs(t))
}

func Test_CreateMessage_UnknownRecipient(t *testing.T) {
	t.Cleanup(func() { truncateAll(t) })

	repo := NewChatRepository(testDB, testLogger)
	a := createUser(t, "alice")

	_, err := repo.CreateMessage(context.Background(), &model.Message{
		SenderID:    a,
		RecipientID: uuid.New(),
		Text:        "hello?",
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, appErrors.ErrUnknownUser)

	// The transaction rolled back: no message and no dialog remain.
	msgCount, err := testDB.NewSelect().Model((*model.Message)(nil)).WhereAllWithDeleted().Count(context.Background())
	require.NoError(t, err)
	assert.Zero(t, msgCount)
	assert.Zero(t, countDialogs(t))
}

func Test_UnreadCount(t *testing.T) {
	t.Cleanup(func() { truncateAll(t) })

	repo := NewChatRepository(testDB, testLogger)
	a := createUser(t, "alice")
	b := createUser(t, "bob")

	send := func(from, to uuid.UUID, text string) *model.Message {
		msg := &model.Message{SenderID: from, RecipientID: to, Text: text}
		_, err := repo.CreateMessage(context.Background(), msg)
		require.NoError(t, err)
		return msg
	}

	m1 := send(a, b, "one")
	send(a, b, "two")
	send(b, a, "reply")

	count, err := repo.UnreadCount(context.Background(), a, b)
	require.NoError(t, err)
	assert.Equal(t, 2, count, "a -> b unread")

	count, err = repo.UnreadCount(context.Background(), b, a)
	require.NoError(t, err)
	assert.Equal(t, 1, count, "b -> a unread is independent")

	require.NoError(t, repo.MarkRead(context.Background(), m1.ID))
	count, err = repo.UnreadCount(context.Background(), a, b)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func Test_MarkRead(t *testing.T) {
	t.Cleanup(func() { truncateAll(t) })

	repo := NewChatRepository(testDB, testLogger)
	a := createUser(t, "alice")
	b := createUser(t, "bob")

	msg := &model.Message{SenderID: a, RecipientID: b, Text: "hi"}
	_, err := repo.CreateMessage(context.Background(), msg)
	require.NoError(t, err)

	require.NoError(t, repo.MarkRead(context.Background(), msg.ID))

	fetched, err := repo.GetMessage(context.Background(), msg.ID)
	require.NoError(t, err)
	assert.True(t, fetched.Read)

	// Marking again is a no-op, not an error.
	require.NoError(t, repo.MarkRead(context.Background(), msg.ID))

	err = repo.MarkRead(context.Background(), msg.ID+1000)
	assert.ErrorIs(t, err, appErrors.ErrMessageNotFound)
}

func Test_MarkDialogRead(t *testing.T) {
	t.Cleanup(func() { truncateAll(t) })

	repo := NewChatRepository(testDB, testLogger)
	a := createUser(t, "alice")
	b := createUser(t, "bob")

	for _, text := range []string{"one", "two", "three"} {
		_, err := repo.CreateMessage(context.Background(), &model.Message{SenderID: a, RecipientID: b, Text: text})
		require.NoError(t, err)
	}
	_, err := repo.CreateMessage(context.Background(), &model.Message{SenderID: b, RecipientID: a, Text: "reply"})
	require.NoError(t, err)

	require.NoError(t, repo.MarkDialogRead(context.Background(), a, b))

	count, err := repo.UnreadCount(context.Background(), a, b)
	require.NoError(t, err)
	assert.Zero(t, count)

	// The opposite direction is untouched.
	count, err = repo.UnreadCount(context.Background(), b, a)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func Test_SoftDelete(t *testing.T) {
	t.Cleanup(func() { truncateAll(t) })

	repo := NewChatRepository(testDB, testLogger)
	a := createUser(t, "alice")
	b := createUser(t, "bob")

	send := func(text string) *model.Message {
		msg := &model.Message{SenderID: a, RecipientID: b, Text: text}
		_, err := repo.CreateMessage(context.Background(), msg)
		require.NoError(t, err)
		return msg
	}

	unreadMsg := send("unread then deleted")
	readMsg := send("read then deleted")
	keptMsg := send("kept")
	require.NoError(t, repo.MarkRead(context.Background(), readMsg.ID))

	// Deleting an unread message removes it from the unread count.
	require.NoError(t, repo.SoftDelete(context.Background(), unreadMsg.ID))
	count, err := repo.UnreadCount(context.Background(), a, b)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	// Deleting a read message leaves the count unchanged.
	require.NoError(t, repo.SoftDelete(context.Background(), readMsg.ID))
	count, err = repo.UnreadCount(context.Background(), a, b)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	// Deleted rows vanish from the default surface but stay on the full one.
	visible, err := repo.ListMessages(context.Background(), a, b, nil, 10, false)
	require.NoError(t, err)
	require.Len(t, visible, 1)
	assert.Equal(t, keptMsg.ID, visible[0].ID)

	all, err := repo.ListMessages(context.Background(), a, b, nil, 10, true)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	// Idempotent: deleting again is a no-op.
	require.NoError(t, repo.SoftDelete(context.Background(), unreadMsg.ID))

	err = repo.SoftDelete(context.Background(), keptMsg.ID+1000)
	assert.ErrorIs(t, err, appErrors.ErrMessageNotFound)
}

func Test_ListMessages_Pagination(t *testing.T) {
	t.Cleanup(func() { truncateAll(t) })

	repo := NewChatRepository(testDB, testLogger)
	a := createUser(t, "alice")
	b := createUser(t, "bob")

	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		msg := &model.Message{
			SenderID:    a,
			RecipientID: b,
			Text:        "msg",
			CreatedAt:   base.Add(time.Duration(i) * time.Minute),
		}
		_, err := repo.CreateMessage(context.Background(), msg)
		require.NoError(t, err)
	}

	page1, err := repo.ListMessages(context.Background(), a, b, nil, 2, false)
	require.NoError(t, err)
	require.Len(t, page1, 2)
	assert.True(t, page1[0].CreatedAt.After(page1[1].CreatedAt), "newest first")

	cursor := &chat.Cursor{CreatedAt: page1[1].CreatedAt, MsgID: page1[1].ID}
	page2, err := repo.ListMessages(context.Background(), b, a, cursor, 2, false)
	require.NoError(t, err)
	require.Len(t, page2, 2)
	assert.True(t, page1[1].CreatedAt.After(page2[0].CreatedAt) || page1[1].ID > page2[0].ID)

	// A newer arrival must not disturb a saved cursor.
	newer := &model.Message{
		SenderID:    b,
		RecipientID: a,
		Text:        "late arrival",
		CreatedAt:   base.Add(time.Hour),
	}
	_, err = repo.CreateMessage(context.Background(), newer)
	require.NoError(t, err)

	page2again, err := repo.ListMessages(context.Background(), a, b, cursor, 2, false)
	require.NoError(t, err)
	require.Len(t, page2again, 2)
	assert.Equal(t, page2[0].ID, page2again[0].ID)
	assert.Equal(t, page2[1].ID, page2again[1].ID)

	page3, err := repo.ListMessages(context.Background(), a, b,
		&chat.Cursor{CreatedAt: page2[1].CreatedAt, MsgID: page2[1].ID}, 2, false)
	require.NoError(t, err)
	assert.Len(t, page3, 1)
}

// The end-to-end exchange: first contact creates the dialog, counts move per
// direction, marking read settles them.
func Test_MessageExchangeScenario(t *testing.T) {
	t.Cleanup(func() { truncateAll(t) })

	repo := NewChatRepository(testDB, testLogger)
	u1 := createUser(t, "u1")
	u2 := createUser(t, "u2")

	first := &model.Message{SenderID: u1, RecipientID: u2, Text: "hi"}
	dialog, err := repo.CreateMessage(context.Background(), first)
	require.NoError(t, err)
	assert.True(t, dialog.Involves(u1, u2))

	count, err := repo.UnreadCount(context.Background(), u1, u2)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
	count, err = repo.UnreadCount(context.Background(), u2, u1)
	require.NoError(t, err)
	assert.Zero(t, count)

	_, err = repo.CreateMessage(context.Background(), &model.Message{SenderID: u2, RecipientID: u1, Text: "hey"})
	require.NoError(t, err)
	assert.Equal(t, 1, countDialogs(t))

	count, err = repo.UnreadCount(context.Background(), u2, u1)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	require.NoError(t, repo.MarkRead(context.Background(), first.ID))
	count, err = repo.UnreadCount(context.Background(), u1, u2)
	require.NoError(t, err)
	assert.Zero(t, count)
}
