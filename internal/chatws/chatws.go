// Package chatws provides a WebSocket-based dev chat transport. It
// feeds text frames into the same dispatcher the Telegram transport
// uses, so the interview can be exercised locally without a bot token.
package chatws

import (
	"context"
	"encoding/binary"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"sync"

	"github.com/coder/websocket"
	"github.com/google/uuid"

	"github.com/rentline/leadbot/internal/bot"
)

// Hub tracks the active connection per conversation and implements
// bot.Sender. Replies for conversations without a live connection fall
// through to the wrapped sender (the Telegram transport, when present).
type Hub struct {
	fallback bot.Sender

	mu    sync.RWMutex
	conns map[int64]*websocket.Conn
}

// NewHub creates a hub. fallback may be nil.
func NewHub(fallback bot.Sender) *Hub {
	return &Hub{
		fallback: fallback,
		conns:    make(map[int64]*websocket.Conn),
	}
}

// Send writes the reply to the live connection for the conversation,
// or falls back to the wrapped sender.
func (h *Hub) Send(ctx context.Context, chatID int64, text string) error {
	h.mu.RLock()
	conn := h.conns[chatID]
	h.mu.RUnlock()

	if conn != nil {
		if err := conn.Write(ctx, websocket.MessageText, []byte(text)); err != nil {
			return fmt.Errorf("write reply: %w", err)
		}
		return nil
	}

	if h.fallback != nil {
		return h.fallback.Send(ctx, chatID, text)
	}
	return fmt.Errorf("no active connection for chat %d", chatID)
}

func (h *Hub) register(chatID int64, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if existing, ok := h.conns[chatID]; ok && existing != conn {
		_ = existing.Close(websocket.StatusNormalClosure, "connection replaced")
	}
	h.conns[chatID] = conn
	slog.Info("Chat connection registered", "chat_id", chatID)
}

func (h *Hub) unregister(chatID int64, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if current, ok := h.conns[chatID]; ok && current == conn {
		delete(h.conns, chatID)
		slog.Info("Chat connection unregistered", "chat_id", chatID)
	}
}

// Handler upgrades HTTP requests to chat sessions.
type Handler struct {
	hub        *Hub
	dispatcher *bot.Dispatcher
}

// NewHandler creates a WebSocket chat handler.
func NewHandler(hub *Hub, dispatcher *bot.Dispatcher) *Handler {
	return &Handler{hub: hub, dispatcher: dispatcher}
}

// ServeHTTP accepts a connection and pumps its text frames through the
// dispatcher. The conversation id comes from the chat_id query param;
// without one a synthetic id is minted so each tab gets its own
// interview.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		slog.Error("WebSocket accept failed", "error", err)
		return
	}
	defer conn.CloseNow()

	chatID := chatIDFromRequest(r)
	h.hub.register(chatID, conn)
	defer h.hub.unregister(chatID, conn)

	ctx := r.Context()
	for {
		typ, data, err := conn.Read(ctx)
		if err != nil {
			slog.Debug("Chat connection closed", "chat_id", chatID, "error", err)
			return
		}
		if typ != websocket.MessageText {
			continue
		}

		msg := bot.Message{
			ChatID:   chatID,
			UserID:   chatID,
			Username: "web",
			Text:     string(data),
		}
		if err := h.dispatcher.HandleMessage(ctx, msg); err != nil {
			slog.Error("Failed to handle chat message", "chat_id", chatID, "error", err)
		}
	}
}

func chatIDFromRequest(r *http.Request) int64 {
	if raw := r.URL.Query().Get("chat_id"); raw != "" {
		if id, err := strconv.ParseInt(raw, 10, 64); err == nil && id != 0 {
			return id
		}
	}

	u := uuid.New()
	return int64(binary.BigEndian.Uint64(u[:8]) &^ (1 << 63))
}
