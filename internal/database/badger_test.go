package database

import (
	"context"
	"fmt"
	"testing"
	"time"

	"chat-relay/internal/models"

	"github.com/dgraph-io/badger/v4"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *BadgerStore {
	t.Helper()
	db, err := badger.Open(badger.DefaultOptions(t.TempDir()).WithLoggingLevel(badger.ERROR))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewBadgerStore(db)
}

func Test_RecentFeed_Empty(t *testing.T) {
	store := openTestStore(t)

	feed, err := store.RecentFeed(context.Background(), 25)
	require.NoError(t, err)
	require.Empty(t, feed)
}

func Test_Append_Then_RecentFeed_NewestFirst(t *testing.T) {
	req := require.New(t)
	store := openTestStore(t)
	ctx := context.Background()

	at := time.Date(2024, time.March, 1, 10, 0, 0, 0, time.UTC)
	messages := []models.ChatMessage{
		{Text: "hello", AuthorName: "alice", Timestamp: at},
		{Text: "hi alice", AuthorName: "bob", Timestamp: at.Add(time.Minute)},
		{Text: "how are you", AuthorName: "clara", Timestamp: at.Add(2 * time.Minute)},
	}
	for _, msg := range messages {
		id, err := store.AppendMessage(ctx, msg)
		req.NoError(err)
		req.NotEmpty(id)
	}

	feed, err := store.RecentFeed(ctx, 25)
	req.NoError(err)
	req.Len(feed, 3)
	req.Equal("how are you", feed[0].Text)
	req.Equal("hi alice", feed[1].Text)
	req.Equal("hello", feed[2].Text)
	req.True(feed[2].Timestamp.Equal(at))
	req.Equal("alice", feed[2].AuthorName)
}

func Test_RecentFeed_RespectsLimit(t *testing.T) {
	req := require.New(t)
	store := openTestStore(t)
	ctx := context.Background()

	at := time.Now().UTC()
	for i := 0; i < 30; i++ {
		_, err := store.AppendMessage(ctx, models.ChatMessage{
			Text:       fmt.Sprintf("message %d", i),
			AuthorName: "alice",
			Timestamp:  at.Add(time.Duration(i) * time.Second),
		})
		req.NoError(err)
	}

	feed, err := store.RecentFeed(ctx, 25)
	req.NoError(err)
	req.Len(feed, 25)
	req.Equal("message 29", feed[0].Text)
	req.Equal("message 5", feed[24].Text)
}

func Test_Append_SameTimestamp_DoesNotOverwrite(t *testing.T) {
	req := require.New(t)
	store := openTestStore(t)
	ctx := context.Background()

	at := time.Now().UTC()
	_, err := store.AppendMessage(ctx, models.ChatMessage{Text: "one", AuthorName: "alice", Timestamp: at})
	req.NoError(err)
	_, err = store.AppendMessage(ctx, models.ChatMessage{Text: "two", AuthorName: "bob", Timestamp: at})
	req.NoError(err)

	feed, err := store.RecentFeed(ctx, 25)
	req.NoError(err)
	req.Len(feed, 2)
}

func Test_Append_CancelledContext(t *testing.T) {
	store := openTestStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := store.AppendMessage(ctx, models.ChatMessage{Text: "lost", AuthorName: "alice", Timestamp: time.Now()})
	require.ErrorIs(t, err, context.Canceled)
}
