package usecase

import (
	"context"
	"errors"
	"log/slog"

	"github.com/vgrebnev/duolink/internal/application/constant"
	"github.com/vgrebnev/duolink/internal/domain"
	"github.com/vgrebnev/duolink/internal/domain/events"
	"github.com/vgrebnev/duolink/internal/domain/runtime"
	"github.com/vgrebnev/duolink/internal/infra/adapters/memory"
)

// SignalingUsecase drives the lifecycle of one session: room creation,
// admission, departure and signaling relay. Each method is invoked from the
// session's own connection goroutine.
type SignalingUsecase interface {
	HandleCreate(ctx context.Context, sess *runtime.Session)
	HandleJoin(ctx context.Context, sess *runtime.Session, join events.JoinEvent)
	HandleLeave(ctx context.Context, sess *runtime.Session)

	// HandleDisconnect is called exactly once when the connection is lost.
	// Room-side effects are identical to HandleLeave.
	HandleDisconnect(ctx context.Context, sess *runtime.Session)

	HandleSignal(ctx context.Context, sess *runtime.Session, msg *events.Message)
	HandlePing(ctx context.Context, sess *runtime.Session)
}

type signalingUsecase struct {
	registry *memory.RoomRegistry
	relay    *Relay
}

func NewSignalingUsecase(registry *memory.RoomRegistry, relay *Relay) SignalingUsecase {
	return &signalingUsecase{
		registry: registry,
		relay:    relay,
	}
}

func (s *signalingUsecase) HandleCreate(ctx context.Context, sess *runtime.Session) {
	roomID := s.registry.Create()

	slog.Info("room created",
		slog.String(constant.RoomID, roomID),
		slog.Any(constant.SessionID, sess.ID),
	)

	s.relay.RoomCreated(sess.ID, roomID)
}

func (s *signalingUsecase) HandleJoin(ctx context.Context, sess *runtime.Session, join events.JoinEvent) {
	if sess.Bound() {
		// Protocol violation: one room per session. Dropping the message
		// keeps the existing membership intact.
		slog.Warn("join while already in a room",
			slog.Any(constant.SessionID, sess.ID),
			slog.String(constant.RoomID, sess.RoomID()),
		)
		return
	}

	if join.RoomID == "" {
		s.relay.JoinRejected(sess.ID, join.RoomID, events.ReasonInvalidRoom)
		return
	}

	err := s.registry.AddMember(join.RoomID, sess.ID)
	switch {
	case errors.Is(err, domain.ErrRoomNotFound):
		s.relay.JoinRejected(sess.ID, join.RoomID, events.ReasonInvalidRoom)
	case errors.Is(err, domain.ErrRoomFull):
		s.relay.JoinRejected(sess.ID, join.RoomID, events.ReasonRoomFull)
	case err == nil:
		sess.Bind(join.RoomID)

		slog.Info("session joined room",
			slog.String(constant.RoomID, join.RoomID),
			slog.Any(constant.SessionID, sess.ID),
		)
	}
}

func (s *signalingUsecase) HandleLeave(ctx context.Context, sess *runtime.Session) {
	s.depart(sess)
}

func (s *signalingUsecase) HandleDisconnect(ctx context.Context, sess *runtime.Session) {
	s.depart(sess)

	slog.Info("session disconnected", slog.Any(constant.SessionID, sess.ID))
}

// depart is the single exit path shared by leave and disconnect, so a
// leave followed by a connection drop removes the member once and emits
// one peer-left.
func (s *signalingUsecase) depart(sess *runtime.Session) {
	if !sess.Bound() {
		return
	}

	roomID := sess.RoomID()
	sess.Unbind()

	s.registry.RemoveMember(roomID, sess.ID)

	slog.Info("session left room",
		slog.String(constant.RoomID, roomID),
		slog.Any(constant.SessionID, sess.ID),
	)
}

// HandleSignal forwards an offer, answer or candidate message untouched to
// the other room member. A session outside a room, or a room that vanished
// underneath the sender, drops the message silently: there is no peer left
// to tell and nothing for the sender to do about it.
func (s *signalingUsecase) HandleSignal(ctx context.Context, sess *runtime.Session, msg *events.Message) {
	if !sess.Bound() {
		return
	}

	peers := s.registry.Peers(sess.RoomID(), sess.ID)
	if len(peers) == 0 {
		return
	}

	s.relay.Forward(peers, msg)
}

func (s *signalingUsecase) HandlePing(ctx context.Context, sess *runtime.Session) {
	s.relay.Pong(sess.ID)
}
