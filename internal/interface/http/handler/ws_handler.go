package handler

import (
	"net/http"
	"slices"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/ignatzorin/grantwriter-backend/internal/http/middleware"
	"github.com/ignatzorin/grantwriter-backend/internal/interface/http/response"
	"github.com/ignatzorin/grantwriter-backend/internal/logger"
	"github.com/ignatzorin/grantwriter-backend/internal/ws"
)

// WSHandler отвечает за установку WebSocket соединений.
type WSHandler struct {
	hub      *ws.Hub
	tokens   middleware.AccessTokenParser
	upgrader websocket.Upgrader
}

// NewWSHandler создаёт новый хэндлер. Пустой список origins пропускает всех.
func NewWSHandler(hub *ws.Hub, tokens middleware.AccessTokenParser, allowedOrigins []string) *WSHandler {
	return &WSHandler{
		hub:    hub,
		tokens: tokens,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				if origin == "" || len(allowedOrigins) == 0 || slices.Contains(allowedOrigins, "*") {
					return true
				}
				return slices.Contains(allowedOrigins, origin)
			},
		},
	}
}

// Handle обслуживает GET /api/ws?token=...
// Браузер не умеет слать заголовки при апгрейде, поэтому токен идёт в query.
func (h *WSHandler) Handle(c *gin.Context) {
	rawToken := c.Query("token")
	if rawToken == "" {
		response.Unauthorized(c, "access token is required")
		return
	}

	userID, err := h.tokens.ParseAccess(rawToken)
	if err != nil || userID == uuid.Nil {
		response.Unauthorized(c, "invalid access token")
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade уже ответил клиенту.
		logger.L().WithError(err).Warn("ws: не удалось установить соединение")
		return
	}

	client := ws.NewClient(conn, h.hub, userID)
	h.hub.Register(client)

	client.Run(c.Request.Context())
}
