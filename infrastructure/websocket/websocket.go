package websocket

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/siddiqueakber/ai-creative-director-sub001/pkg/logger"
)

// Conn ส่วนที่ manager ใช้จาก *websocket.Conn
type Conn interface {
	WriteJSON(v interface{}) error
	Close() error
}

type Client struct {
	Conn   Conn
	UserID uuid.UUID
	RoomID string
}

type Message struct {
	Type   string      `json:"type"`
	Data   interface{} `json:"data"`
	RoomID string      `json:"roomId,omitempty"`
}

type BroadcastMessage struct {
	Message Message
	RoomID  string
}

const broadcastBuffer = 256

// Manager hub ของ websocket clients แบ่งตาม room (run:<id>)
type Manager struct {
	clients         map[Conn]*Client
	userConnections map[uuid.UUID]Conn // 1 authenticated user = 1 connection
	rooms           map[string]map[Conn]bool
	broadcast       chan BroadcastMessage
	done            chan struct{}
	closeOnce       sync.Once
	mutex           sync.RWMutex
}

func NewManager() *Manager {
	m := &Manager{
		clients:         make(map[Conn]*Client),
		userConnections: make(map[uuid.UUID]Conn),
		rooms:           make(map[string]map[Conn]bool),
		broadcast:       make(chan BroadcastMessage, broadcastBuffer),
		done:            make(chan struct{}),
	}
	go m.run()
	return m
}

// RoomForRun ชื่อ room ของ run
func RoomForRun(runID string) string {
	return "run:" + runID
}

func (m *Manager) run() {
	for {
		select {
		case <-m.done:
			return
		case msg := <-m.broadcast:
			m.deliver(msg)
		}
	}
}

// deliver ส่งนอก lock ไม่ได้ เพราะ map อาจเปลี่ยน จึงเก็บ conn ที่ส่งไม่สำเร็จไว้ลบทีหลัง
func (m *Manager) deliver(msg BroadcastMessage) {
	var failed []Conn

	m.mutex.RLock()
	if msg.RoomID != "" {
		for conn := range m.rooms[msg.RoomID] {
			if err := conn.WriteJSON(msg.Message); err != nil {
				failed = append(failed, conn)
			}
		}
	} else {
		for conn := range m.clients {
			if err := conn.WriteJSON(msg.Message); err != nil {
				failed = append(failed, conn)
			}
		}
	}
	m.mutex.RUnlock()

	for _, conn := range failed {
		logger.Debug("WebSocket write failed, dropping client")
		m.UnregisterClient(conn)
	}
}

// RegisterClient anonymous (uuid.Nil) ได้หลาย connection
func (m *Manager) RegisterClient(conn Conn, userID uuid.UUID, roomID string) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if userID != uuid.Nil {
		if oldConn, exists := m.userConnections[userID]; exists && oldConn != conn {
			logger.Info("Closing previous websocket for user", "user_id", userID)
			m.removeLocked(oldConn)
			oldConn.Close()
		}
		m.userConnections[userID] = conn
	}

	client := &Client{Conn: conn, UserID: userID}
	m.clients[conn] = client
	if roomID != "" {
		m.joinLocked(client, roomID)
	}

	logger.Debug("WebSocket client connected", "user_id", userID, "room", roomID)
}

func (m *Manager) UnregisterClient(conn Conn) {
	m.mutex.Lock()
	_, ok := m.clients[conn]
	if ok {
		m.removeLocked(conn)
	}
	m.mutex.Unlock()

	if ok {
		conn.Close()
	}
}

func (m *Manager) removeLocked(conn Conn) {
	client, ok := m.clients[conn]
	if !ok {
		return
	}
	m.leaveLocked(client)
	delete(m.clients, conn)
	if current, exists := m.userConnections[client.UserID]; exists && current == conn {
		delete(m.userConnections, client.UserID)
	}
}

func (m *Manager) joinLocked(client *Client, roomID string) {
	m.leaveLocked(client)
	client.RoomID = roomID
	if m.rooms[roomID] == nil {
		m.rooms[roomID] = make(map[Conn]bool)
	}
	m.rooms[roomID][client.Conn] = true
}

func (m *Manager) leaveLocked(client *Client) {
	if client.RoomID == "" {
		return
	}
	if room := m.rooms[client.RoomID]; room != nil {
		delete(room, client.Conn)
		if len(room) == 0 {
			delete(m.rooms, client.RoomID)
		}
	}
	client.RoomID = ""
}

func (m *Manager) JoinRoom(conn Conn, roomID string) bool {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	client, ok := m.clients[conn]
	if !ok {
		return false
	}
	m.joinLocked(client, roomID)
	return true
}

func (m *Manager) LeaveRoom(conn Conn) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if client, ok := m.clients[conn]; ok {
		m.leaveLocked(client)
	}
}

// BroadcastToRoom ไม่ block: queue เต็มจะทิ้ง message (progress ถัดไปจะตามมาเอง)
func (m *Manager) BroadcastToRoom(roomID string, messageType string, data interface{}) {
	m.enqueue(BroadcastMessage{
		Message: Message{Type: messageType, Data: data, RoomID: roomID},
		RoomID:  roomID,
	})
}

func (m *Manager) enqueue(msg BroadcastMessage) {
	select {
	case m.broadcast <- msg:
	default:
		logger.Warn("WebSocket broadcast queue full, dropping message", "type", msg.Message.Type, "room", msg.RoomID)
	}
}

func (m *Manager) GetRoomClients(roomID string) int {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	return len(m.rooms[roomID])
}

func (m *Manager) GetTotalClients() int {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	return len(m.clients)
}

// Close ปิดทุก connection และหยุด loop
func (m *Manager) Close() {
	m.closeOnce.Do(func() {
		close(m.done)

		m.mutex.Lock()
		conns := make([]Conn, 0, len(m.clients))
		for conn := range m.clients {
			conns = append(conns, conn)
		}
		m.clients = make(map[Conn]*Client)
		m.userConnections = make(map[uuid.UUID]Conn)
		m.rooms = make(map[string]map[Conn]bool)
		m.mutex.Unlock()

		for _, conn := range conns {
			conn.Close()
		}
	})
}

// HandleMessage ping / join_room / leave_room จาก client
func (m *Manager) HandleMessage(conn Conn, data []byte) {
	var message Message
	if err := json.Unmarshal(data, &message); err != nil {
		logger.Debug("Invalid websocket message", "error", err)
		return
	}

	switch message.Type {
	case "ping":
		conn.WriteJSON(Message{Type: "pong", Data: "pong"})

	case "join_room":
		roomData, _ := message.Data.(map[string]interface{})
		roomID, _ := roomData["roomId"].(string)
		if !isValidRoom(roomID) {
			conn.WriteJSON(Message{Type: "error", Data: "invalid room"})
			return
		}
		if m.JoinRoom(conn, roomID) {
			conn.WriteJSON(Message{
				Type: "room_joined",
				Data: map[string]interface{}{
					"roomId":  roomID,
					"message": fmt.Sprintf("Joined room %s", roomID),
				},
			})
		}

	case "leave_room":
		m.LeaveRoom(conn)
		conn.WriteJSON(Message{Type: "room_left", Data: "Left room successfully"})

	default:
		logger.Debug("Unknown websocket message type", "type", message.Type)
	}
}

// isValidRoom รับเฉพาะ run:<uuid>
func isValidRoom(roomID string) bool {
	id, ok := strings.CutPrefix(roomID, "run:")
	if !ok {
		return false
	}
	_, err := uuid.Parse(id)
	return err == nil
}

// IsValidRoom ใช้ตอน handshake (?room=)
func IsValidRoom(roomID string) bool {
	return isValidRoom(roomID)
}
