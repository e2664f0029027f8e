package handlers

import (
	"context"
	"net/http"
	"net/url"

	"chat-relay/internal/auth"
	"chat-relay/internal/relay"
	ws "chat-relay/internal/websocket"
	"chat-relay/pkg/logger"

	"github.com/gorilla/websocket"
	"github.com/samber/lo"
)

type WebSocketOptions struct {
	AllowedOrigins []string
	SendBufferSize int
	MaxMessageSize int64
}

type WebSocketHandlers struct {
	authService *auth.Service
	relay       *relay.Server
	opts        WebSocketOptions
	// ctx outlives the upgrade request and is cancelled on shutdown
	ctx      context.Context
	upgrader websocket.Upgrader
}

func NewWebSocketHandlers(ctx context.Context, authService *auth.Service, relayServer *relay.Server, opts WebSocketOptions) *WebSocketHandlers {
	h := &WebSocketHandlers{
		authService: authService,
		relay:       relayServer,
		opts:        opts,
		ctx:         ctx,
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     h.checkOrigin,
	}
	return h
}

// checkOrigin accepts requests without an Origin header, any origin when
// "*" is configured, and otherwise only the listed scheme://host values.
func (h *WebSocketHandlers) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" || lo.Contains(h.opts.AllowedOrigins, "*") {
		return true
	}
	u, err := url.Parse(origin)
	if err != nil {
		return false
	}
	return lo.Contains(h.opts.AllowedOrigins, u.Scheme+"://"+u.Host)
}

func (h *WebSocketHandlers) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	tokenStr := r.URL.Query().Get("token")
	if tokenStr == "" {
		http.Error(w, "missing token", http.StatusUnauthorized)
		return
	}

	identity, err := h.authService.IdentityFromToken(r.Context(), tokenStr)
	if err != nil {
		logger.Warn("Rejected websocket from %s: %v", r.RemoteAddr, err)
		http.Error(w, "invalid token", http.StatusUnauthorized)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Error("Upgrade error: %v", err)
		return
	}

	client := ws.NewClient(conn, r.RemoteAddr, h.opts.SendBufferSize, h.opts.MaxMessageSize)
	session, err := h.relay.Connect(identity, client)
	if err != nil {
		logger.Error("Error creating session for %s: %v", identity.DisplayName, err)
		_ = conn.Close()
		return
	}
	logger.Info("%s connected from %s", identity.DisplayName, r.RemoteAddr)

	go client.WritePump()
	go client.ReadPump(h.ctx, session)
}
