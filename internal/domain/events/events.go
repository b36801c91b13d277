// Package events defines the websocket wire protocol. Every frame is a
// Message envelope; Data carries the event-specific payload and is relayed
// verbatim for signaling messages.
package events

import "encoding/json"

// Client to server message types.
const (
	TypeCreate    = "create"
	TypeJoin      = "join"
	TypeLeave     = "leave"
	TypeOffer     = "offer"
	TypeAnswer    = "answer"
	TypeCandidate = "candidate"
	TypePing      = "ping"
)

// Server to client message types.
const (
	TypeRoomCreated       = "room-created"
	TypeJoinRejected      = "join-rejected"
	TypePeerJoined        = "peer-joined"
	TypePeerLeft          = "peer-left"
	TypeMembershipChanged = "membership-changed"
	TypePong              = "pong"
)

// Join rejection reasons.
const (
	ReasonRoomFull    = "room_full"
	ReasonInvalidRoom = "invalid_room"
)

type Message struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

type JoinEvent struct {
	RoomID string `json:"room_id"`
}

type RoomCreatedEvent struct {
	RoomID string `json:"room_id"`
}

type JoinRejectedEvent struct {
	RoomID string `json:"room_id"`
	Reason string `json:"reason"`
}

type PeerJoinedEvent struct {
	SessionID string `json:"session_id"`
}

type PeerLeftEvent struct {
	SessionID string `json:"session_id"`
}

type MembershipChangedEvent struct {
	RoomID string `json:"room_id"`
	Count  int    `json:"count"`
}
