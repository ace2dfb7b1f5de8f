package loading

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/coder/websocket"

	"github.com/ashureev/startup-navigator/internal/identity"
)

// clientMessage is what the loading view may send.
type clientMessage struct {
	Type string `json:"type"`
}

// Handler upgrades /ws/loading requests and runs a Stream on each connection.
type Handler struct {
	src            Source
	registry       *Registry
	tick           time.Duration
	isDev          bool
	allowedOrigins []string
}

// NewHandler creates a websocket handler for the loading view. A nil registry
// gets a private one.
func NewHandler(src Source, registry *Registry, tick time.Duration, isDev bool, allowedOrigins []string) *Handler {
	if registry == nil {
		registry = NewRegistry()
	}
	return &Handler{src: src, registry: registry, tick: tick, isDev: isDev, allowedOrigins: allowedOrigins}
}

// ServeHTTP implements http.Handler for WebSocket upgrade.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	caller, ok := identity.CallerFromContext(r.Context())
	userID, sessionID := caller.DeviceID, caller.TabID
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	if !h.checkOrigin(r) {
		http.Error(w, "origin not allowed", http.StatusForbidden)
		return
	}

	ws, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		slog.Error("Failed to accept WebSocket", "error", err, "user_id", userID)
		return
	}
	defer func() {
		if closeErr := ws.Close(websocket.StatusNormalClosure, "stream ended"); closeErr != nil {
			slog.Debug("Failed to close websocket", "error", closeErr, "user_id", userID)
		}
	}()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	reg := h.registry.Register(userID, sessionID, cancel)
	defer h.registry.Unregister(userID, sessionID, reg)

	// Writes come from both loops.
	var writeMu sync.Mutex
	send := func(f Frame) error {
		writeMu.Lock()
		defer writeMu.Unlock()
		return writeJSON(ctx, ws, f)
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		defer cancel()
		h.inputLoop(ctx, ws, send, userID)
	}()

	err = NewStream(h.src, userID, sessionID, h.tick).Run(ctx, send)
	switch {
	case err == nil:
		slog.Info("Loading stream settled", "user_id", userID, "session_id", sessionID)
	case errors.Is(err, context.Canceled):
		slog.Debug("Loading stream cancelled", "user_id", userID, "session_id", sessionID)
	default:
		slog.Warn("Loading stream failed", "error", err, "user_id", userID, "session_id", sessionID)
	}
	cancel()
	wg.Wait()
}

func (h *Handler) checkOrigin(r *http.Request) bool {
	if h.isDev {
		return true
	}
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	for _, allowed := range h.allowedOrigins {
		if allowed == "*" || allowed == origin {
			return true
		}
	}
	slog.Warn("WebSocket origin rejected", "origin", origin, "allowed", h.allowedOrigins)
	return false
}

func (h *Handler) inputLoop(ctx context.Context, ws *websocket.Conn, send func(Frame) error, userID string) {
	for {
		_, message, err := ws.Read(ctx)
		if err != nil {
			if websocket.CloseStatus(err) != -1 || ctx.Err() != nil {
				slog.Debug("WebSocket closed", "user_id", userID)
			} else {
				slog.Warn("WebSocket read error", "error", err, "user_id", userID)
			}
			return
		}

		var msg clientMessage
		if err := json.Unmarshal(message, &msg); err != nil {
			continue
		}
		if msg.Type == "ping" {
			if err := send(Frame{Type: FramePong}); err != nil {
				slog.Debug("Failed to send pong", "error", err)
				return
			}
		}
	}
}

func writeJSON(ctx context.Context, ws *websocket.Conn, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return ws.Write(ctx, websocket.MessageText, data)
}
