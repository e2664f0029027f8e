package websocket

import (
	"context"

	chaterrors "chat-relay/internal/errors"
	"chat-relay/internal/models"
	"chat-relay/internal/session"
	"chat-relay/pkg/logger"

	"github.com/samber/lo"
)

// SessionLookup resolves a session id to its identity and connection.
type SessionLookup interface {
	Lookup(id session.ID) (session.Session, error)
}

type opKind int

const (
	opAdd opKind = iota
	opRemove
	opBroadcast
	opMembers
)

type hubOp struct {
	kind      opKind
	sessionID session.ID
	event     models.Event
	snapshot  *[]session.ID
	result    chan error
}

type member struct {
	name string
	conn session.Conn
}

// Hub owns the member set of one room. All membership changes and
// broadcasts run on the Run goroutine, one at a time, so members observe
// room events in the order they were submitted.
type Hub struct {
	roomID   string
	sessions SessionLookup
	members  map[session.ID]member
	ops      chan hubOp
	ctx      context.Context
	cancel   context.CancelFunc
	done     chan struct{}
}

func NewHub(roomID string, sessions SessionLookup) *Hub {
	ctx, cancel := context.WithCancel(context.Background())
	return &Hub{
		roomID:   roomID,
		sessions: sessions,
		members:  make(map[session.ID]member),
		ops:      make(chan hubOp),
		ctx:      ctx,
		cancel:   cancel,
		done:     make(chan struct{}),
	}
}

func (h *Hub) Run() {
	defer close(h.done)

	for {
		select {
		case <-h.ctx.Done():
			logger.Debug("Hub for room %s stopped with %d members", h.roomID, len(h.members))
			return
		case op := <-h.ops:
			op.result <- h.apply(op)
		}
	}
}

// AddMember adds the session and announces it to everyone in the room,
// the joiner included. Adding an existing member does nothing.
func (h *Hub) AddMember(ctx context.Context, id session.ID) error {
	return h.submit(ctx, hubOp{kind: opAdd, sessionID: id})
}

// RemoveMember removes the session and announces it to the remaining
// members. Removing a non-member does nothing.
func (h *Hub) RemoveMember(ctx context.Context, id session.ID) error {
	return h.submit(ctx, hubOp{kind: opRemove, sessionID: id})
}

func (h *Hub) Broadcast(ctx context.Context, event models.Event) error {
	return h.submit(ctx, hubOp{kind: opBroadcast, event: event})
}

func (h *Hub) Members(ctx context.Context) ([]session.ID, error) {
	var snapshot []session.ID
	if err := h.submit(ctx, hubOp{kind: opMembers, snapshot: &snapshot}); err != nil {
		return nil, err
	}
	return snapshot, nil
}

// Stop terminates Run and waits for it to return.
func (h *Hub) Stop() {
	h.cancel()
	<-h.done
}

func (h *Hub) submit(ctx context.Context, op hubOp) error {
	op.result = make(chan error, 1)
	select {
	case h.ops <- op:
	case <-ctx.Done():
		return ctx.Err()
	case <-h.ctx.Done():
		return chaterrors.ErrHubClosed
	}
	// Run always answers an op it has received.
	return <-op.result
}

func (h *Hub) apply(op hubOp) error {
	switch op.kind {
	case opAdd:
		if _, ok := h.members[op.sessionID]; ok {
			return nil
		}
		s, err := h.sessions.Lookup(op.sessionID)
		if err != nil {
			return err
		}
		h.members[op.sessionID] = member{name: s.Identity.DisplayName, conn: s.Conn}
		logger.Info("User %s joined room %s. Members: %d", s.Identity.DisplayName, h.roomID, len(h.members))
		h.broadcastToAll(models.StatusEvent(s.Identity.DisplayName + " has entered the room."))

	case opRemove:
		m, ok := h.members[op.sessionID]
		if !ok {
			return nil
		}
		delete(h.members, op.sessionID)
		logger.Info("User %s left room %s. Members: %d", m.name, h.roomID, len(h.members))
		h.broadcastToAll(models.StatusEvent(m.name + " has left the room."))

	case opBroadcast:
		h.broadcastToAll(op.event)

	case opMembers:
		*op.snapshot = lo.Keys(h.members)
	}
	return nil
}

// broadcastToAll is best effort: a failed delivery is logged and skipped.
func (h *Hub) broadcastToAll(event models.Event) {
	for id, m := range h.members {
		if err := m.conn.Send(event); err != nil {
			logger.Warn("Dropped %s event for %s (session %s) in room %s: %v", event.Type, m.name, id, h.roomID, err)
		}
	}
}
