package relay

import (
	"context"
	"encoding/json"
	"sync"

	chaterrors "chat-relay/internal/errors"
	"chat-relay/internal/models"
	"chat-relay/internal/session"
	"chat-relay/pkg/logger"
)

type State int

const (
	StateConnected State = iota
	StateJoined
	StateDisconnected
)

func (s State) String() string {
	switch s {
	case StateConnected:
		return "connected"
	case StateJoined:
		return "joined"
	case StateDisconnected:
		return "disconnected"
	default:
		return "unknown"
	}
}

// Connection is the relay side of one client connection. Once
// Disconnected it never comes back; a new connection gets a new session.
type Connection struct {
	server    *Server
	sessionID session.ID
	identity  models.Identity
	conn      session.Conn

	mu    sync.Mutex
	state State
}

func (c *Connection) SessionID() session.ID {
	return c.sessionID
}

func (c *Connection) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Handle applies one inbound frame. It returns false once the connection
// has reached Disconnected and should be closed.
func (c *Connection) Handle(ctx context.Context, frame models.Frame) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch frame.Type {
	case models.EventJoin:
		c.join(ctx)
	case models.EventText:
		c.text(ctx, frame.Payload)
	case models.EventLeft:
		c.leave(ctx)
	default:
		logger.Warn("Dropped unknown %q event from %s", frame.Type, c.identity.DisplayName)
	}
	return c.state != StateDisconnected
}

// Disconnect tears the session down when the transport goes away. It is
// safe to call after an explicit left.
func (c *Connection) Disconnect(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.leave(ctx)
}

func (c *Connection) join(ctx context.Context) {
	if c.state != StateConnected {
		logger.Debug("Dropped join from %s in state %s", c.identity.DisplayName, c.state)
		return
	}

	roomID := c.server.roomID
	if err := c.server.registry.JoinRoom(c.sessionID, roomID); err != nil {
		logger.Warn("Dropped join from %s: %v", c.identity.DisplayName, err)
		return
	}
	if err := c.server.broadcaster.AddMember(ctx, roomID, c.sessionID); err != nil {
		logger.Error("Error adding %s to room %s: %v", c.identity.DisplayName, roomID, err)
		c.server.registry.LeaveRoom(c.sessionID)
		return
	}
	c.state = StateJoined

	if err := c.server.broadcaster.SendTo(c.sessionID, c.server.feed(ctx)); err != nil {
		logger.Warn("Error sending feed to %s: %v", c.identity.DisplayName, err)
	}
}

func (c *Connection) text(ctx context.Context, raw json.RawMessage) {
	if c.state != StateJoined {
		logger.Debug("Dropped text from %s: %v", c.identity.DisplayName, chaterrors.ErrNotInRoom)
		return
	}

	var payload models.TextPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		logger.Warn("Dropped malformed text from %s: %v", c.identity.DisplayName, err)
		return
	}

	msg := models.ChatMessage{
		Text:       payload.Msg,
		AuthorName: c.identity.DisplayName,
		Timestamp:  c.server.now(),
	}
	if err := c.server.broadcaster.Broadcast(ctx, c.server.roomID, models.MessageEvent(msg.Line())); err != nil {
		logger.Error("Error broadcasting message from %s: %v", c.identity.DisplayName, err)
		return
	}
	c.server.persist(ctx, msg)
}

func (c *Connection) leave(ctx context.Context) {
	if c.state == StateDisconnected {
		return
	}

	if c.state == StateJoined {
		if err := c.server.broadcaster.RemoveMember(ctx, c.server.roomID, c.sessionID); err != nil {
			logger.Error("Error removing %s from room %s: %v", c.identity.DisplayName, c.server.roomID, err)
		}
		c.server.registry.LeaveRoom(c.sessionID)
	}
	c.server.registry.DestroySession(c.sessionID)
	c.state = StateDisconnected

	if err := c.conn.Close(); err != nil {
		logger.Debug("Error closing connection for %s: %v", c.identity.DisplayName, err)
	}
	logger.Debug("Session %s for %s disconnected", c.sessionID, c.identity.DisplayName)
}
