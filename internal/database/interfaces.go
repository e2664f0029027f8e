//go:generate go run go.uber.org/mock/mockgen -source=interfaces.go -destination=../mocks/mock_database.go -package=mocks
package database

import (
	"context"

	"chat-relay/internal/models"
)

type UserRepository interface {
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	CreateUser(ctx context.Context, req *models.RegisterRequest) (*models.User, error)
	GetUserByID(ctx context.Context, id int) (*models.User, error)
}

// MessageRepository is the history store: an append-only log queried
// newest first.
type MessageRepository interface {
	AppendMessage(ctx context.Context, msg models.ChatMessage) (string, error)
	RecentFeed(ctx context.Context, limit int) ([]models.ChatMessage, error)
}
