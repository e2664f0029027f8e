// Package session tracks which identity is connected through which
// connection and which room it currently occupies.
package session

import (
	"sync"

	chaterrors "chat-relay/internal/errors"
	"chat-relay/internal/models"

	"github.com/google/uuid"
)

type ID string

// Conn is the outbound side of a client connection. Implementations must be
// comparable (pointer types) since the registry indexes sessions by handle.
type Conn interface {
	Send(event models.Event) error
	Close() error
}

type Session struct {
	ID       ID
	Identity models.Identity
	RoomID   string
	Conn     Conn
}

// InRoom reports whether the session currently occupies a room.
func (s Session) InRoom() bool {
	return s.RoomID != ""
}

type Registry struct {
	mu       sync.RWMutex
	sessions map[ID]*Session
	byConn   map[Conn]ID
}

func NewRegistry() *Registry {
	return &Registry{
		sessions: make(map[ID]*Session),
		byConn:   make(map[Conn]ID),
	}
}

// CreateSession allocates a session with no room membership.
func (r *Registry) CreateSession(identity models.Identity, conn Conn) (ID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byConn[conn]; exists {
		return "", chaterrors.ErrDuplicateConnection
	}

	id := ID(uuid.NewString())
	r.sessions[id] = &Session{
		ID:       id,
		Identity: identity,
		Conn:     conn,
	}
	r.byConn[conn] = id
	return id, nil
}

// JoinRoom records room membership. Joining the current room again is a
// no-op; joining another room replaces the membership.
func (r *Registry) JoinRoom(id ID, roomID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[id]
	if !ok {
		return chaterrors.ErrUnknownSession
	}
	s.RoomID = roomID
	return nil
}

func (r *Registry) LeaveRoom(id ID) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if s, ok := r.sessions[id]; ok {
		s.RoomID = ""
	}
}

func (r *Registry) DestroySession(id ID) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[id]
	if !ok {
		return
	}
	delete(r.byConn, s.Conn)
	delete(r.sessions, id)
}

// Lookup returns a copy of the session.
func (r *Registry) Lookup(id ID) (Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.sessions[id]
	if !ok {
		return Session{}, chaterrors.ErrUnknownSession
	}
	return *s, nil
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}
