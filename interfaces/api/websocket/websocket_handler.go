package websocket

import (
	"sync"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"

	wsmanager "github.com/siddiqueakber/ai-creative-director-sub001/infrastructure/websocket"
	"github.com/siddiqueakber/ai-creative-director-sub001/pkg/logger"
	"github.com/siddiqueakber/ai-creative-director-sub001/pkg/utils"
)

type WebSocketHandler struct {
	manager *wsmanager.Manager
}

func NewWebSocketHandler(manager *wsmanager.Manager) *WebSocketHandler {
	return &WebSocketHandler{manager: manager}
}

// WebSocketUpgrade ตรวจ upgrade และ room ก่อน handshake
func (h *WebSocketHandler) WebSocketUpgrade(c *fiber.Ctx) error {
	if !websocket.IsWebSocketUpgrade(c) {
		return fiber.ErrUpgradeRequired
	}
	if room := c.Query("room"); room != "" && !wsmanager.IsValidRoom(room) {
		return utils.BadRequestResponse(c, "Invalid room")
	}
	if user, err := utils.GetUserFromContext(c); err == nil {
		c.Locals("ws_user_id", user.ID)
	}
	return c.Next()
}

// lockedConn gorilla-style conn เขียนพร้อมกันหลาย goroutine ไม่ได้
type lockedConn struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func (l *lockedConn) WriteJSON(v interface{}) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.conn.WriteJSON(v)
}

func (l *lockedConn) Close() error {
	return l.conn.Close()
}

func (h *WebSocketHandler) HandleWebSocket(c *websocket.Conn) {
	userID, _ := c.Locals("ws_user_id").(uuid.UUID)
	room := c.Query("room", "")

	conn := &lockedConn{conn: c}
	h.manager.RegisterClient(conn, userID, room)
	defer h.manager.UnregisterClient(conn)

	for {
		_, message, err := c.ReadMessage()
		if err != nil {
			logger.Debug("WebSocket closed", "user_id", userID, "room", room, "error", err)
			return
		}
		h.manager.HandleMessage(conn, message)
	}
}
