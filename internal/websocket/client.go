package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"chat-relay/internal/models"
	"chat-relay/pkg/logger"

	"github.com/gorilla/websocket"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 54 * time.Second
)

var (
	ErrClientClosed   = errors.New("client closed")
	ErrSendBufferFull = errors.New("send buffer full")
)

// FrameHandler consumes the inbound frames of one connection.
type FrameHandler interface {
	// Handle returns false once the connection should be closed.
	Handle(ctx context.Context, frame models.Frame) bool
	Disconnect(ctx context.Context)
}

// Client is one websocket connection. Outbound events are queued on a
// buffered channel drained by WritePump.
type Client struct {
	conn           *websocket.Conn
	send           chan []byte
	addr           string
	maxMessageSize int64

	mu     sync.RWMutex
	closed bool
}

func NewClient(conn *websocket.Conn, addr string, sendBuffer int, maxMessageSize int64) *Client {
	return &Client{
		conn:           conn,
		send:           make(chan []byte, sendBuffer),
		addr:           addr,
		maxMessageSize: maxMessageSize,
	}
}

func (c *Client) Addr() string {
	return c.addr
}

// Send queues the event without blocking.
func (c *Client) Send(event models.Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal %s event: %w", event.Type, err)
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.closed {
		return ErrClientClosed
	}
	select {
	case c.send <- data:
		return nil
	default:
		return ErrSendBufferFull
	}
}

// Close stops accepting events. WritePump flushes what is queued, sends a
// close frame and closes the connection.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.closed {
		c.closed = true
		close(c.send)
	}
	return nil
}

func (c *Client) ReadPump(ctx context.Context, h FrameHandler) {
	defer func() {
		h.Disconnect(ctx)
		_ = c.Close()
	}()

	c.conn.SetReadLimit(c.maxMessageSize)
	if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		logger.Error("Error setting read deadline for %s: %v", c.addr, err)
		return
	}
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if errors.Is(err, websocket.ErrReadLimit) {
				logger.Warn("Message from %s exceeded maximum size of %d bytes", c.addr, c.maxMessageSize)
			} else if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logger.Error("WebSocket error from %s: %v", c.addr, err)
			} else {
				logger.Debug("Client %s disconnected: %v", c.addr, err)
			}
			return
		}

		var frame models.Frame
		if err := json.Unmarshal(data, &frame); err != nil {
			logger.Warn("Invalid frame from %s: %v", c.addr, err)
			continue
		}

		if !h.Handle(ctx, frame) {
			return
		}
	}
}

func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}

			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				logger.Error("Write error to %s: %v", c.addr, err)
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
