// Package relay drives the per-connection chat state machine: it turns
// join/text/left frames into session registry, room broadcaster and
// history store calls.
package relay

import (
	"context"
	"time"

	"chat-relay/internal/models"
	"chat-relay/internal/services"
	"chat-relay/internal/session"
	"chat-relay/pkg/logger"
)

// Broadcaster fans events out to the members of a room.
type Broadcaster interface {
	AddMember(ctx context.Context, roomID string, id session.ID) error
	RemoveMember(ctx context.Context, roomID string, id session.ID) error
	Broadcast(ctx context.Context, roomID string, event models.Event) error
	SendTo(id session.ID, event models.Event) error
}

type Server struct {
	registry     *session.Registry
	broadcaster  Broadcaster
	history      *services.HistoryService
	roomID       string
	storeTimeout time.Duration
	now          func() time.Time
}

type Option func(*Server)

// WithClock overrides the clock used to timestamp messages.
func WithClock(now func() time.Time) Option {
	return func(s *Server) { s.now = now }
}

func WithStoreTimeout(d time.Duration) Option {
	return func(s *Server) { s.storeTimeout = d }
}

func NewServer(registry *session.Registry, broadcaster Broadcaster, history *services.HistoryService, opts ...Option) *Server {
	s := &Server{
		registry:     registry,
		broadcaster:  broadcaster,
		history:      history,
		roomID:       models.DefaultRoom,
		storeTimeout: 5 * time.Second,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Connect registers an authenticated identity and returns its connection
// in the Connected state.
func (s *Server) Connect(identity models.Identity, conn session.Conn) (*Connection, error) {
	id, err := s.registry.CreateSession(identity, conn)
	if err != nil {
		return nil, err
	}
	logger.Debug("Session %s created for %s", id, identity.DisplayName)

	return &Connection{
		server:    s,
		sessionID: id,
		identity:  identity,
		conn:      conn,
		state:     StateConnected,
	}, nil
}

// persist stores msg on the sender's goroutine so a later join sees it in
// the feed. Failures are logged only; the broadcast that preceded it stands.
func (s *Server) persist(ctx context.Context, msg models.ChatMessage) {
	ctx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()

	if _, err := s.history.Record(ctx, msg); err != nil {
		logger.Error("Error saving message from %s: %v", msg.AuthorName, err)
	}
}

func (s *Server) feed(ctx context.Context) models.Event {
	ctx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()

	lines, err := s.history.FeedLines(ctx)
	if err != nil {
		logger.Error("Error loading recent messages, sending empty feed: %v", err)
		lines = nil
	}
	return models.FeedEvent(lines)
}
