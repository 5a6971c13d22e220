// Package ws serves the participant conversation over a WebSocket
// connection: ordered text frames in, one engine reply per frame.
package ws

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/civicvoice/civicvoice-server/internal/logger"
	"github.com/civicvoice/civicvoice-server/internal/model"
	"github.com/civicvoice/civicvoice-server/internal/service"
)

const genericErrorMessage = "A processing error occurred. Please try again."

// Handler upgrades connections and runs one conversation per connection.
type Handler struct {
	codes       model.CodeStore
	surveys     model.SurveyStore
	responses   model.ResponseStore
	logger      *logger.Logger
	ttl         time.Duration
	maxAttempts int
	upgrader    websocket.Upgrader
}

// NewHandler creates a conversation Handler. The ttl and maxAttempts are
// passed through to each connection's engine.
func NewHandler(
	codes model.CodeStore,
	surveys model.SurveyStore,
	responses model.ResponseStore,
	logger *logger.Logger,
	ttl time.Duration,
	maxAttempts int,
) *Handler {
	return &Handler{
		codes:       codes,
		surveys:     surveys,
		responses:   responses,
		logger:      logger,
		ttl:         ttl,
		maxAttempts: maxAttempts,
		upgrader: websocket.Upgrader{
			// Participants connect from arbitrary agents, not browsers.
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
}

// ServeHTTP upgrades the request and drives the conversation until it
// completes or the participant disconnects. The session lives exactly as
// long as the connection.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error("failed to upgrade connection", "error", err.Error())
		return
	}
	defer conn.Close()

	session := model.NewSession()
	engine := service.NewConversation(session, h.codes, h.surveys, h.responses,
		h.logger, h.ttl, h.maxAttempts)

	h.logger.Info("participant connected", "session_id", session.ID)
	defer h.logger.Info("participant disconnected", "session_id", session.ID)

	if err := conn.WriteMessage(websocket.TextMessage, []byte(engine.Welcome())); err != nil {
		return
	}

	for {
		msgType, payload, err := conn.ReadMessage()
		if err != nil {
			return
		}
		if msgType != websocket.TextMessage {
			continue
		}

		reply, err := engine.ProcessInput(r.Context(), string(payload))
		if err != nil {
			// Collaborator failure: the session is intact; report once and
			// keep reading.
			h.logger.Error("failed to process input",
				"session_id", session.ID,
				"error", err.Error())
			if err := conn.WriteMessage(websocket.TextMessage, []byte(genericErrorMessage)); err != nil {
				return
			}
			continue
		}

		if reply != "" {
			if err := conn.WriteMessage(websocket.TextMessage, []byte(reply)); err != nil {
				return
			}
		}

		if session.State == model.StateCompleted {
			if engine.Recorded() {
				if err := conn.WriteMessage(websocket.TextMessage, []byte(engine.Summary())); err != nil {
					return
				}
			}
			_ = conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		}
	}
}
