package repository_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oggyb/campusmatch/internal/db"
	"github.com/oggyb/campusmatch/internal/repository"
	"github.com/oggyb/campusmatch/internal/room"
	"github.com/oggyb/campusmatch/internal/testutil"
)

func TestHistory_OrderedWithReactions(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewMessageRepository(testutil.NewDB(t))
	rid := room.ID("b@u.edu", "a@u.edu")

	now := time.Now().UTC()
	second := &db.Message{RoomID: rid, Sender: "b@u.edu", Receiver: "a@u.edu", Text: "second", CreatedAt: now}
	first := &db.Message{RoomID: rid, Sender: "a@u.edu", Receiver: "b@u.edu", Text: "first", CreatedAt: now.Add(-time.Minute)}
	require.NoError(t, repo.Create(ctx, second))
	require.NoError(t, repo.Create(ctx, first))
	require.NoError(t, repo.Create(ctx, &db.Message{RoomID: room.ID("a@u.edu", "c@u.edu"), Sender: "a@u.edu", Receiver: "c@u.edu", Text: "other"}))

	require.NoError(t, repo.AddReaction(ctx, second.ID, "❤️", "a@u.edu"))
	require.NoError(t, repo.AddReaction(ctx, second.ID, "❤️", "a@u.edu"))

	msgs, err := repo.History(ctx, rid)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, "first", msgs[0].Text)
	assert.Equal(t, "second", msgs[1].Text)
	assert.Equal(t, db.MessageStatusSent, msgs[0].Status)
	require.Len(t, msgs[1].Reactions, 1)

	require.NoError(t, repo.RemoveReaction(ctx, second.ID, "❤️", "a@u.edu"))
	m, err := repo.GetByID(ctx, second.ID)
	require.NoError(t, err)
	assert.Empty(t, m.Reactions)
}

func TestCountDistinctSenders_IgnoresSystem(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewMessageRepository(testutil.NewDB(t))
	rid := room.ID("a@u.edu", "b@u.edu")

	require.NoError(t, repo.Create(ctx, &db.Message{RoomID: rid, Sender: db.SystemSender, Receiver: "a@u.edu", Text: "matched"}))
	require.NoError(t, repo.Create(ctx, &db.Message{RoomID: rid, Sender: "a@u.edu", Receiver: "b@u.edu", Text: "hi"}))
	require.NoError(t, repo.Create(ctx, &db.Message{RoomID: rid, Sender: "a@u.edu", Receiver: "b@u.edu", Text: "hello?"}))

	n, err := repo.CountDistinctSenders(ctx, rid)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	require.NoError(t, repo.Create(ctx, &db.Message{RoomID: rid, Sender: "b@u.edu", Receiver: "a@u.edu", Text: "hey"}))
	n, err = repo.CountDistinctSenders(ctx, rid)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
}

func TestDeleteRoomAndMarkRead(t *testing.T) {
	ctx := context.Background()
	dbase := testutil.NewDB(t)
	repo := repository.NewMessageRepository(dbase)
	rid := room.ID("a@u.edu", "b@u.edu")

	m := &db.Message{RoomID: rid, Sender: "a@u.edu", Receiver: "b@u.edu", Text: "hi"}
	require.NoError(t, repo.Create(ctx, m))
	require.NoError(t, repo.Create(ctx, &db.Message{RoomID: rid, Sender: "a@u.edu", Receiver: "b@u.edu", Text: "there"}))
	require.NoError(t, repo.AddReaction(ctx, m.ID, "👍", "b@u.edu"))

	updated, err := repo.MarkRead(ctx, rid, "a@u.edu", "b@u.edu")
	require.NoError(t, err)
	assert.Equal(t, int64(2), updated)

	// already read
	updated, err = repo.MarkRead(ctx, rid, "a@u.edu", "b@u.edu")
	require.NoError(t, err)
	assert.Equal(t, int64(0), updated)

	deleted, err := repo.DeleteRoom(ctx, rid)
	require.NoError(t, err)
	assert.Equal(t, int64(2), deleted)

	var reactions int64
	require.NoError(t, dbase.Model(&db.MessageReaction{}).Count(&reactions).Error)
	assert.Zero(t, reactions)
}
