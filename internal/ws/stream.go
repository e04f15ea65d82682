// Package ws provides the websocket chat transport. Unlike the HTTP endpoint,
// which returns one terminal event, the websocket streams content deltas as
// the backend produces them.
package ws

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"ai-persona-chat/backend/internal/models"
	"ai-persona-chat/backend/internal/ratelimit"
	"ai-persona-chat/backend/internal/service"
	apperrors "ai-persona-chat/backend/pkg/errors"
	"ai-persona-chat/backend/pkg/logger"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	maxMessageSize = 64 * 1024
)

// Event is the server-to-client frame. Type is one of "delta", "result",
// "error".
type Event struct {
	Type      string `json:"type"`
	Content   string `json:"content,omitempty"`
	Emotion   string `json:"emotion,omitempty"`
	Emoji     string `json:"emoji,omitempty"`
	SessionID string `json:"sessionId,omitempty"`
	Code      string `json:"code,omitempty"`
	Message   string `json:"message,omitempty"`
}

// ChatStream handles the websocket chat endpoint.
type ChatStream struct {
	orchestrator *service.ChatOrchestrator
	upgrader     websocket.Upgrader
	log          *logger.Logger
}

// NewChatStream builds the websocket handler. An empty origin list allows
// any origin (development).
func NewChatStream(orchestrator *service.ChatOrchestrator, allowedOrigins []string, log *logger.Logger) *ChatStream {
	if log == nil {
		log = logger.GetGlobal()
	}
	allowed := make(map[string]bool, len(allowedOrigins))
	for _, origin := range allowedOrigins {
		allowed[origin] = true
	}

	return &ChatStream{
		orchestrator: orchestrator,
		log:          log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin: func(r *http.Request) bool {
				if len(allowed) == 0 {
					return true
				}
				return allowed[r.Header.Get("Origin")]
			},
		},
	}
}

// Handle upgrades the connection and serves chat turns until the client
// disconnects. Turns are processed one at a time per connection, so all
// frame writes happen on the handler goroutine.
func (s *ChatStream) Handle(c *gin.Context) {
	conn, err := s.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.log.Warn("websocket upgrade failed", "error", err.Error())
		return
	}
	defer conn.Close()

	conn.SetReadLimit(maxMessageSize)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	clientKey := ratelimit.ClientKey(c)
	ctx := c.Request.Context()

	for {
		var req models.ChatRequest
		if err := conn.ReadJSON(&req); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.log.Warn("websocket read failed", "error", err.Error())
			}
			return
		}
		conn.SetReadDeadline(time.Now().Add(pongWait))

		result, err := s.orchestrator.ChatStream(ctx, clientKey, req, func(delta string) {
			s.write(conn, Event{Type: "delta", Content: delta})
		})
		if err != nil {
			appErr := apperrors.FromError(err)
			if !s.write(conn, Event{Type: "error", Code: appErr.Code, Message: appErr.Message}) {
				return
			}
			continue
		}

		if !s.write(conn, Event{
			Type:      "result",
			Content:   result.Content,
			Emotion:   result.Emotion,
			Emoji:     result.Emoji,
			SessionID: result.SessionID,
		}) {
			return
		}
	}
}

func (s *ChatStream) write(conn *websocket.Conn, event Event) bool {
	conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := conn.WriteJSON(event); err != nil {
		s.log.Warn("websocket write failed", "error", err.Error())
		return false
	}
	return true
}
