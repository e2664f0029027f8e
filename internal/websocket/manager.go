package websocket

import (
	"context"
	"sync"
	"time"

	chaterrors "chat-relay/internal/errors"
	"chat-relay/internal/models"
	"chat-relay/internal/session"
	"chat-relay/pkg/logger"
)

// Manager is the room broadcaster. Rooms are created on first join and
// live until Shutdown.
type Manager struct {
	hubs     map[string]*Hub
	mutex    sync.Mutex
	sessions SessionLookup
	closed   bool
}

func NewManager(sessions SessionLookup) *Manager {
	return &Manager{
		hubs:     make(map[string]*Hub),
		sessions: sessions,
	}
}

// GetHubForRoom returns the room's hub, starting it when create is set.
func (m *Manager) GetHubForRoom(roomID string, create bool) (*Hub, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if m.closed {
		return nil, chaterrors.ErrHubClosed
	}

	hub, exists := m.hubs[roomID]
	if !exists {
		if !create {
			return nil, nil
		}
		hub = NewHub(roomID, m.sessions)
		m.hubs[roomID] = hub
		go hub.Run()
		logger.Debug("Started hub for room %s", roomID)
	}
	return hub, nil
}

func (m *Manager) AddMember(ctx context.Context, roomID string, id session.ID) error {
	hub, err := m.GetHubForRoom(roomID, true)
	if err != nil {
		return err
	}
	return hub.AddMember(ctx, id)
}

func (m *Manager) RemoveMember(ctx context.Context, roomID string, id session.ID) error {
	hub, err := m.GetHubForRoom(roomID, false)
	if err != nil || hub == nil {
		return err
	}
	return hub.RemoveMember(ctx, id)
}

func (m *Manager) Broadcast(ctx context.Context, roomID string, event models.Event) error {
	hub, err := m.GetHubForRoom(roomID, false)
	if err != nil || hub == nil {
		return err
	}
	return hub.Broadcast(ctx, event)
}

// SendTo delivers an event privately to one session, bypassing the room.
func (m *Manager) SendTo(id session.ID, event models.Event) error {
	s, err := m.sessions.Lookup(id)
	if err != nil {
		return err
	}
	return s.Conn.Send(event)
}

func (m *Manager) Members(ctx context.Context, roomID string) ([]session.ID, error) {
	hub, err := m.GetHubForRoom(roomID, false)
	if err != nil || hub == nil {
		return nil, err
	}
	return hub.Members(ctx)
}

// Shutdown stops every hub, giving up after timeout.
func (m *Manager) Shutdown(timeout time.Duration) error {
	m.mutex.Lock()
	m.closed = true
	hubs := make([]*Hub, 0, len(m.hubs))
	for _, hub := range m.hubs {
		hubs = append(hubs, hub)
	}
	m.mutex.Unlock()

	done := make(chan struct{})
	go func() {
		for _, hub := range hubs {
			hub.Stop()
		}
		close(done)
	}()

	select {
	case <-done:
		logger.Info("Stopped %d room hubs", len(hubs))
		return nil
	case <-time.After(timeout):
		logger.Warn("Hub shutdown timeout reached")
		return context.DeadlineExceeded
	}
}
