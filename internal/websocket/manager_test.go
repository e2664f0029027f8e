package websocket

import (
	"context"
	"testing"
	"time"

	chaterrors "chat-relay/internal/errors"
	"chat-relay/internal/models"
	"chat-relay/internal/session"

	"github.com/stretchr/testify/require"
)

func TestManager_LazilyCreatesRoomOnFirstJoin(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	registry := session.NewRegistry()
	m := NewManager(registry)
	t.Cleanup(func() { _ = m.Shutdown(time.Second) })

	hub, err := m.GetHubForRoom(models.DefaultRoom, false)
	req.NoError(err)
	req.Nil(hub)

	// operations on a room nobody joined yet are no-ops
	req.NoError(m.Broadcast(ctx, models.DefaultRoom, models.MessageEvent("nobody")))
	req.NoError(m.RemoveMember(ctx, models.DefaultRoom, "missing"))
	members, err := m.Members(ctx, models.DefaultRoom)
	req.NoError(err)
	req.Empty(members)

	id, conn := connect(t, registry, "alice")
	req.NoError(m.AddMember(ctx, models.DefaultRoom, id))

	first, err := m.GetHubForRoom(models.DefaultRoom, false)
	req.NoError(err)
	again, err := m.GetHubForRoom(models.DefaultRoom, true)
	req.NoError(err)
	req.Same(first, again)

	req.NoError(m.Broadcast(ctx, models.DefaultRoom, models.MessageEvent("hi")))
	req.Equal([]models.Event{
		models.StatusEvent("alice has entered the room."),
		models.MessageEvent("hi"),
	}, conn.received())
}

func TestManager_SendTo_IsPrivate(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	registry := session.NewRegistry()
	m := NewManager(registry)
	t.Cleanup(func() { _ = m.Shutdown(time.Second) })

	aliceID, alice := connect(t, registry, "alice")
	bobID, bob := connect(t, registry, "bob")
	req.NoError(m.AddMember(ctx, models.DefaultRoom, aliceID))
	req.NoError(m.AddMember(ctx, models.DefaultRoom, bobID))

	feed := models.FeedEvent([]string{"old line"})
	req.NoError(m.SendTo(bobID, feed))

	req.Equal(feed, bob.received()[1])
	req.Len(alice.received(), 2)

	req.ErrorIs(m.SendTo("missing", feed), chaterrors.ErrUnknownSession)
}

func TestManager_Shutdown(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	registry := session.NewRegistry()
	m := NewManager(registry)

	id, _ := connect(t, registry, "alice")
	req.NoError(m.AddMember(ctx, models.DefaultRoom, id))
	req.NoError(m.Shutdown(time.Second))

	req.ErrorIs(m.AddMember(ctx, models.DefaultRoom, id), chaterrors.ErrHubClosed)
}
