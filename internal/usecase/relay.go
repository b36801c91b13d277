package usecase

import (
	"encoding/json"
	"log/slog"

	"github.com/google/uuid"

	"github.com/vgrebnev/duolink/internal/application/constant"
	"github.com/vgrebnev/duolink/internal/application/metric"
	"github.com/vgrebnev/duolink/internal/domain/events"
	"github.com/vgrebnev/duolink/internal/infra/adapters/memory"
)

// Relay fans events out to room members over their websocket connections.
// It never inspects signaling payloads and never reports delivery failures
// back to the sender. Implements memory.MembershipNotifier, so membership
// events are emitted while the registry holds the room lock.
type Relay struct {
	wsRepo memory.WebsocketConnectionRepository
}

func NewRelay(wsRepo memory.WebsocketConnectionRepository) *Relay {
	return &Relay{wsRepo: wsRepo}
}

func (r *Relay) RoomCreated(to uuid.UUID, roomID string) {
	r.send(to, events.TypeRoomCreated, events.RoomCreatedEvent{RoomID: roomID})
}

func (r *Relay) JoinRejected(to uuid.UUID, roomID, reason string) {
	metric.RecordJoinRejection(reason)

	r.send(to, events.TypeJoinRejected, events.JoinRejectedEvent{RoomID: roomID, Reason: reason})
}

func (r *Relay) PeerJoined(roomID string, to, joined uuid.UUID) {
	r.send(to, events.TypePeerJoined, events.PeerJoinedEvent{SessionID: joined.String()})
}

func (r *Relay) PeerLeft(roomID string, to, left uuid.UUID) {
	r.send(to, events.TypePeerLeft, events.PeerLeftEvent{SessionID: left.String()})
}

func (r *Relay) MembershipChanged(roomID string, members []uuid.UUID, count int) {
	for _, member := range members {
		r.send(member, events.TypeMembershipChanged, events.MembershipChangedEvent{RoomID: roomID, Count: count})
	}
}

// Forward delivers a signaling message verbatim to each peer.
func (r *Relay) Forward(peers []uuid.UUID, msg *events.Message) {
	for _, peer := range peers {
		r.wsRepo.Write(peer, msg)
	}

	if len(peers) > 0 {
		metric.RecordSignalRelayed(msg.Type)
	}
}

func (r *Relay) Pong(to uuid.UUID) {
	r.wsRepo.Write(to, events.Message{Type: events.TypePong})
}

func (r *Relay) send(to uuid.UUID, eventType string, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		slog.Error("marshal event", slog.Any(constant.Error, err), slog.String("type", eventType))
		return
	}

	r.wsRepo.Write(to, events.Message{Type: eventType, Data: data})
}
