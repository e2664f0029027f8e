package services

import (
	"context"
	"fmt"

	"chat-relay/internal/database"
	chaterrors "chat-relay/internal/errors"
	"chat-relay/internal/models"

	"github.com/samber/lo"
)

// HistoryService fronts the history store: it bounds and orders the feed
// and tags store failures with ErrStore.
type HistoryService struct {
	repo     database.MessageRepository
	feedSize int
}

func NewHistoryService(repo database.MessageRepository, feedSize int) *HistoryService {
	return &HistoryService{repo: repo, feedSize: feedSize}
}

func (s *HistoryService) FeedSize() int {
	return s.feedSize
}

func (s *HistoryService) Record(ctx context.Context, msg models.ChatMessage) (string, error) {
	id, err := s.repo.AppendMessage(ctx, msg)
	if err != nil {
		return "", fmt.Errorf("%w: append: %w", chaterrors.ErrStore, err)
	}
	return id, nil
}

// Feed returns at most FeedSize recent messages, oldest first.
func (s *HistoryService) Feed(ctx context.Context) ([]models.ChatMessage, error) {
	recent, err := s.repo.RecentFeed(ctx, s.feedSize)
	if err != nil {
		return nil, fmt.Errorf("%w: recent feed: %w", chaterrors.ErrStore, err)
	}
	if len(recent) > s.feedSize {
		recent = recent[:s.feedSize]
	}
	// the store answers newest first
	return lo.Reverse(append([]models.ChatMessage(nil), recent...)), nil
}

// FeedLines renders the feed the way it is displayed to a joiner.
func (s *HistoryService) FeedLines(ctx context.Context) ([]string, error) {
	feed, err := s.Feed(ctx)
	if err != nil {
		return nil, err
	}
	return lo.Map(feed, func(msg models.ChatMessage, _ int) string {
		return msg.Line()
	}), nil
}
