package feed

import (
	"sync"

	"github.com/gorilla/websocket"
)

// Hub keeps one live dashboard connection per trainer and pushes
// payment/agenda updates to it. Delivery is best-effort: a dead
// connection is dropped, never retried, and a failed push is invisible
// to the financial transaction that triggered it.
type Hub struct {
	connections map[int64]*websocket.Conn
	mutex       sync.RWMutex
}

func NewHub() *Hub {
	return &Hub{
		connections: make(map[int64]*websocket.Conn),
	}
}

func (h *Hub) Register(trainerID int64, conn *websocket.Conn) {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	if oldConn, exists := h.connections[trainerID]; exists && oldConn != nil {
		_ = oldConn.Close()
	}

	h.connections[trainerID] = conn
}

func (h *Hub) Unregister(trainerID int64) {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	if conn, exists := h.connections[trainerID]; exists && conn != nil {
		_ = conn.Close()
		delete(h.connections, trainerID)
	}
}

// Publish satisfies the Notifier interfaces of the contract and agenda
// services.
func (h *Hub) Publish(trainerID int64, message any) {
	h.mutex.RLock()
	conn, exists := h.connections[trainerID]
	h.mutex.RUnlock()

	if !exists || conn == nil {
		return
	}

	if err := conn.WriteJSON(message); err != nil {
		h.Unregister(trainerID)
	}
}

func (h *Hub) IsOnline(trainerID int64) bool {
	h.mutex.RLock()
	defer h.mutex.RUnlock()

	_, exists := h.connections[trainerID]
	return exists
}

func (h *Hub) Close() {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	for trainerID, conn := range h.connections {
		if conn != nil {
			_ = conn.Close()
		}
		delete(h.connections, trainerID)
	}
}
