package runtime

import "github.com/google/uuid"

// Session is the server-side handle for one websocket connection. It is
// confined to that connection's read goroutine: join, leave, signal and
// disconnect handling for a session all run there, so no locking is needed.
// A reconnecting client gets a brand-new Session and must join again.
type Session struct {
	ID uuid.UUID

	roomID string
}

func NewSession() *Session {
	return &Session{ID: uuid.New()}
}

// Bind associates the session with a room after a successful admission.
func (s *Session) Bind(roomID string) {
	s.roomID = roomID
}

// Unbind clears the association. Safe to call when already unbound.
func (s *Session) Unbind() {
	s.roomID = ""
}

func (s *Session) RoomID() string {
	return s.roomID
}

func (s *Session) Bound() bool {
	return s.roomID != ""
}
