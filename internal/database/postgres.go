package database

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	chaterrors "chat-relay/internal/errors"
	"chat-relay/internal/models"
	"chat-relay/pkg/logger"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/crypto/bcrypt"
)

const uniqueViolation = "23505"

type PostgresDB struct {
	pool *pgxpool.Pool
}

var (
	_ UserRepository    = (*PostgresDB)(nil)
	_ MessageRepository = (*PostgresDB)(nil)
)

func NewPostgresDB(ctx context.Context, databaseURL string) (*PostgresDB, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Test connection
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	db := &PostgresDB{pool: pool}
	if err := db.migrate(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	logger.Info("Connected to database successfully")
	return db, nil
}

func (db *PostgresDB) Close() error {
	db.pool.Close()
	return nil
}

func (db *PostgresDB) migrate(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id SERIAL PRIMARY KEY,
			username VARCHAR(15) UNIQUE NOT NULL,
			email VARCHAR(50) UNIQUE NOT NULL,
			password_hash TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS messages (
			id BIGSERIAL PRIMARY KEY,
			username TEXT NOT NULL,
			content TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_messages_created_at ON messages (created_at DESC, id DESC)`,
	}

	for _, stmt := range stmts {
		if _, err := db.pool.Exec(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

// User Repository Implementation
func (db *PostgresDB) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	query := `SELECT id, username, email, password_hash, created_at FROM users WHERE username = $1`

	user := &models.User{}
	err := db.pool.QueryRow(ctx, query, username).Scan(
		&user.ID, &user.Username, &user.Email, &user.PasswordHash, &user.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	return user, nil
}

func (db *PostgresDB) CreateUser(ctx context.Context, req *models.RegisterRequest) (*models.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	query := `
		INSERT INTO users (username, email, password_hash, created_at)
		VALUES ($1, $2, $3, NOW())
		RETURNING id, username, email, created_at`

	user := &models.User{}
	err = db.pool.QueryRow(ctx, query, req.Username, req.Email, string(hash)).Scan(
		&user.ID, &user.Username, &user.Email, &user.CreatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return nil, chaterrors.ErrUserAlreadyExists
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return user, nil
}

func (db *PostgresDB) GetUserByID(ctx context.Context, id int) (*models.User, error) {
	query := `SELECT id, username, email, created_at FROM users WHERE id = $1`

	user := &models.User{}
	err := db.pool.QueryRow(ctx, query, id).Scan(
		&user.ID, &user.Username, &user.Email, &user.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	return user, nil
}

// Message Repository Implementation
func (db *PostgresDB) AppendMessage(ctx context.Context, msg models.ChatMessage) (string, error) {
	query := `INSERT INTO messages (username, content, created_at) VALUES ($1, $2, $3) RETURNING id`

	var id int64
	if err := db.pool.QueryRow(ctx, query, msg.AuthorName, msg.Text, msg.Timestamp).Scan(&id); err != nil {
		return "", err
	}
	return strconv.FormatInt(id, 10), nil
}

func (db *PostgresDB) RecentFeed(ctx context.Context, limit int) ([]models.ChatMessage, error) {
	query := `
		SELECT id, username, content, created_at
		FROM messages
		ORDER BY created_at DESC, id DESC
		LIMIT $1`

	rows, err := db.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, err
	}

	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.ChatMessage, error) {
		var (
			msg models.ChatMessage
			id  int64
		)
		if err := row.Scan(&id, &msg.AuthorName, &msg.Text, &msg.Timestamp); err != nil {
			return models.ChatMessage{}, err
		}
		msg.ID = strconv.FormatInt(id, 10)
		return msg, nil
	})
}
