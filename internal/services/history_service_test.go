package services

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	chaterrors "chat-relay/internal/errors"
	"chat-relay/internal/mocks"
	"chat-relay/internal/models"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func newestFirst(n int, at time.Time) []models.ChatMessage {
	msgs := make([]models.ChatMessage, 0, n)
	for i := n - 1; i >= 0; i-- {
		msgs = append(msgs, models.ChatMessage{
			Text:       fmt.Sprintf("m%d", i),
			AuthorName: "alice",
			Timestamp:  at.Add(time.Duration(i) * time.Minute),
		})
	}
	return msgs
}

func TestHistoryService_Feed_OldestFirst(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	repo := mocks.NewMockMessageRepository(ctrl)
	svc := NewHistoryService(repo, 25)
	ctx := context.Background()

	stored := newestFirst(3, time.Now())
	repo.EXPECT().RecentFeed(ctx, 25).Return(stored, nil)

	feed, err := svc.Feed(ctx)
	req.NoError(err)
	req.Equal([]string{"m0", "m1", "m2"}, []string{feed[0].Text, feed[1].Text, feed[2].Text})
	// the caller's slice is left untouched
	req.Equal("m2", stored[0].Text)
}

func TestHistoryService_Feed_CapsAtFeedSize(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	repo := mocks.NewMockMessageRepository(ctrl)
	svc := NewHistoryService(repo, 25)
	ctx := context.Background()

	repo.EXPECT().RecentFeed(ctx, 25).Return(newestFirst(30, time.Now()), nil)

	feed, err := svc.Feed(ctx)
	req.NoError(err)
	req.Len(feed, 25)
	req.Equal("m5", feed[0].Text)
	req.Equal("m29", feed[24].Text)
}

func TestHistoryService_FeedLines(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	repo := mocks.NewMockMessageRepository(ctrl)
	svc := NewHistoryService(repo, 25)
	ctx := context.Background()

	at := time.Date(2024, time.March, 1, 9, 5, 7, 0, time.Local)
	repo.EXPECT().RecentFeed(ctx, 25).Return([]models.ChatMessage{
		{Text: "hi", AuthorName: "alice", Timestamp: at},
	}, nil)

	lines, err := svc.FeedLines(ctx)
	req.NoError(err)
	req.Equal([]string{"Mar 01 2024 09:05:07\talice : hi"}, lines)
}

func TestHistoryService_WrapsStoreErrors(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	repo := mocks.NewMockMessageRepository(ctrl)
	svc := NewHistoryService(repo, 25)
	ctx := context.Background()

	repo.EXPECT().RecentFeed(ctx, 25).Return(nil, errors.New("connection refused"))
	_, err := svc.Feed(ctx)
	req.ErrorIs(err, chaterrors.ErrStore)

	msg := models.ChatMessage{Text: "hi", AuthorName: "alice", Timestamp: time.Now()}
	repo.EXPECT().AppendMessage(ctx, msg).Return("", errors.New("connection refused"))
	_, err = svc.Record(ctx, msg)
	req.ErrorIs(err, chaterrors.ErrStore)

	repo.EXPECT().AppendMessage(ctx, msg).Return("42", nil)
	id, err := svc.Record(ctx, msg)
	req.NoError(err)
	req.Equal("42", id)
}

func TestHistoryService_KeepsStoreCause(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	repo := mocks.NewMockMessageRepository(ctrl)
	svc := NewHistoryService(repo, 25)
	ctx := context.Background()

	repo.EXPECT().RecentFeed(ctx, 25).Return(nil, context.DeadlineExceeded)
	_, err := svc.Feed(ctx)
	req.ErrorIs(err, chaterrors.ErrStore)
	req.ErrorIs(err, context.DeadlineExceeded)

	msg := models.ChatMessage{Text: "hi", AuthorName: "alice", Timestamp: time.Now()}
	repo.EXPECT().AppendMessage(ctx, msg).Return("", context.DeadlineExceeded)
	_, err = svc.Record(ctx, msg)
	req.ErrorIs(err, chaterrors.ErrStore)
	req.ErrorIs(err, context.DeadlineExceeded)
}
