package websocket

import (
	"encoding/json"
	"testing"

	"chat-relay/internal/models"

	"github.com/stretchr/testify/require"
)

func TestClient_SendQueuesJSONFrames(t *testing.T) {
	req := require.New(t)
	client := NewClient(nil, "127.0.0.1:12345", 4, 4096)

	req.NoError(client.Send(models.StatusEvent("alice has entered the room.")))

	var frame struct {
		Type    string `json:"type"`
		Payload struct {
			Msg string `json:"msg"`
		} `json:"payload"`
	}
	req.NoError(json.Unmarshal(<-client.send, &frame))
	req.Equal("status", frame.Type)
	req.Equal("alice has entered the room.", frame.Payload.Msg)
}

func TestClient_SendFailsWhenBufferFull(t *testing.T) {
	req := require.New(t)
	client := NewClient(nil, "127.0.0.1:12345", 1, 4096)

	req.NoError(client.Send(models.MessageEvent("first")))
	req.ErrorIs(client.Send(models.MessageEvent("second")), ErrSendBufferFull)
}

func TestClient_SendAfterClose(t *testing.T) {
	req := require.New(t)
	client := NewClient(nil, "127.0.0.1:12345", 4, 4096)

	req.NoError(client.Close())
	req.NoError(client.Close())
	req.ErrorIs(client.Send(models.MessageEvent("late")), ErrClientClosed)
}

func TestClient_FeedEncodesEmptyList(t *testing.T) {
	req := require.New(t)
	client := NewClient(nil, "127.0.0.1:12345", 4, 4096)

	req.NoError(client.Send(models.FeedEvent(nil)))
	req.JSONEq(`{"type":"feed","payload":{"feed":[]}}`, string(<-client.send))
}
