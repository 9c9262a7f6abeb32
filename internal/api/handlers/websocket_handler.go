package handlers

import (
	"github.com/gofiber/websocket/v2"
	"go.uber.org/zap"

	"github.com/maintsense/backend/internal/training"
	"github.com/maintsense/backend/pkg/logger"
)

// WebSocketHandler pushes training status updates to connected clients as
// they happen, instead of requiring the client to poll.
type WebSocketHandler struct {
	orchestrator *training.Orchestrator
}

func NewWebSocketHandler(orchestrator *training.Orchestrator) *WebSocketHandler {
	return &WebSocketHandler{orchestrator: orchestrator}
}

func (h *WebSocketHandler) HandleConnection(c *websocket.Conn) {
	logger.Info("Training status stream opened")

	defer func() {
		c.Close()
		logger.Info("Training status stream closed")
	}()

	id, updates := h.orchestrator.Subscribe()
	defer h.orchestrator.Unsubscribe(id)

	if err := c.WriteJSON(h.orchestrator.Status()); err != nil {
		logger.Error("Failed to write status", zap.Error(err))
		return
	}

	// Drain reads so we notice the client going away.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := c.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-done:
			return
		case status := <-updates:
			if err := c.WriteJSON(status); err != nil {
				logger.Error("Failed to write status", zap.Error(err))
				return
			}
		}
	}
}
