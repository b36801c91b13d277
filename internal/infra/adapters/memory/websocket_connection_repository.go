package memory

import (
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/vgrebnev/duolink/internal/application/constant"
	"github.com/vgrebnev/duolink/internal/application/metric"
)

// WebsocketConnectionRepository tracks the live websocket connection of
// every session and serializes writes to it. Delivery is fire-and-forget:
// a failed write is logged, never surfaced to the sender.
type WebsocketConnectionRepository interface {
	Add(uuid.UUID, *websocket.Conn)
	Remove(sessionID uuid.UUID)

	Write(uuid.UUID, any)
}

type safeWS struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

type wsConnectionRepository struct {
	// wsConns maps session id to its connection.
	wsConns map[uuid.UUID]*safeWS

	mu sync.RWMutex
}

func NewWSConnectionRepository() WebsocketConnectionRepository {
	return &wsConnectionRepository{
		wsConns: make(map[uuid.UUID]*safeWS, 10),
	}
}

func (w *wsConnectionRepository) Add(sessionID uuid.UUID, conn *websocket.Conn) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.wsConns[sessionID] = &safeWS{conn: conn}

	metric.IncrementWSActiveConnections()
}

func (w *wsConnectionRepository) Remove(sessionID uuid.UUID) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if _, exists := w.wsConns[sessionID]; exists {
		delete(w.wsConns, sessionID)

		metric.DecrementWSActiveConnections()
	}
}

func (w *wsConnectionRepository) Write(sessionID uuid.UUID, payload any) {
	safews, ok := w.getSafeWS(sessionID)
	if !ok {
		return
	}

	safews.mu.Lock()
	defer safews.mu.Unlock()

	err := safews.conn.WriteJSON(payload)
	if err != nil {
		slog.Error(
			"write to websocket",
			slog.Any(constant.Error, err),
			slog.Any(constant.SessionID, sessionID),
		)
		return
	}
}

func (w *wsConnectionRepository) getSafeWS(sessionID uuid.UUID) (*safeWS, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()

	conn, ok := w.wsConns[sessionID]
	return conn, ok
}
