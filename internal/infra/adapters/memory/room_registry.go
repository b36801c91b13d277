package memory

import (
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/vgrebnev/duolink/internal/application/constant"
	"github.com/vgrebnev/duolink/internal/application/metric"
	"github.com/vgrebnev/duolink/internal/domain"
	"github.com/vgrebnev/duolink/internal/idgen"
)

// roomCapacity is the hard two-party limit: one caller, one callee.
const roomCapacity = 2

// MembershipNotifier receives membership events while the room lock is
// held, so every member observes count changes in the order they happened.
type MembershipNotifier interface {
	PeerJoined(roomID string, to, joined uuid.UUID)
	PeerLeft(roomID string, to, left uuid.UUID)
	MembershipChanged(roomID string, members []uuid.UUID, count int)
}

// RoomRegistry is the process-wide room store. The outer RWMutex guards
// only the map; each room carries its own mutex so admission, removal and
// relay snapshots on unrelated rooms never contend.
type RoomRegistry struct {
	rooms map[string]*room
	mu    sync.RWMutex

	notifier MembershipNotifier

	now func() time.Time
}

type room struct {
	id        string
	createdAt time.Time

	mu sync.Mutex
	// members in join order: members[0] is the first joiner, the one that
	// later receives peer-joined and turns into the offering side.
	members []uuid.UUID
	// gone marks a room deleted while its map entry may still be visible
	// to a concurrent lookup.
	gone bool
}

func NewRoomRegistry(notifier MembershipNotifier) *RoomRegistry {
	return &RoomRegistry{
		rooms:    make(map[string]*room),
		notifier: notifier,
		now:      time.Now,
	}
}

// Create allocates a fresh room with a collision-checked short code and
// returns the code.
func (r *RoomRegistry) Create() string {
	r.mu.Lock()
	defer r.mu.Unlock()

	for {
		id := idgen.NewRoomCode()
		if _, exists := r.rooms[id]; exists {
			slog.Warn("room code collision, regenerating", slog.String(constant.RoomID, id))
			continue
		}

		r.rooms[id] = &room{id: id, createdAt: r.now()}
		metric.IncrementRoomsActive()

		return id
	}
}

// Info returns the current member count and creation time of a room.
func (r *RoomRegistry) Info(roomID string) (count int, createdAt time.Time, ok bool) {
	rm, ok := r.lookup(roomID)
	if !ok {
		return 0, time.Time{}, false
	}

	rm.mu.Lock()
	defer rm.mu.Unlock()

	if rm.gone {
		return 0, time.Time{}, false
	}

	return len(rm.members), rm.createdAt, true
}

// AddMember admits a session into a room. The capacity check, the
// membership mutation and the resulting notifications run under the room
// lock, so two sessions racing for the last slot never both win.
func (r *RoomRegistry) AddMember(roomID string, sessionID uuid.UUID) error {
	rm, ok := r.lookup(roomID)
	if !ok {
		return domain.ErrRoomNotFound
	}

	rm.mu.Lock()
	defer rm.mu.Unlock()

	if rm.gone {
		return domain.ErrRoomNotFound
	}

	if len(rm.members) >= roomCapacity {
		return domain.ErrRoomFull
	}

	peers := slices.Clone(rm.members)
	rm.members = append(rm.members, sessionID)

	// Only pre-existing members learn about the newcomer; this is what
	// makes them, and not the joiner, create the offer.
	for _, peer := range peers {
		r.notifier.PeerJoined(roomID, peer, sessionID)
	}

	r.notifier.MembershipChanged(roomID, slices.Clone(rm.members), len(rm.members))

	return nil
}

// RemoveMember removes a session from a room, notifying the remaining
// member. When the last member departs the room is deleted right away;
// the sweep only exists for rooms this path missed. Idempotent: unknown
// rooms and members are a no-op.
func (r *RoomRegistry) RemoveMember(roomID string, sessionID uuid.UUID) {
	rm, ok := r.lookup(roomID)
	if !ok {
		return
	}

	rm.mu.Lock()

	idx := slices.Index(rm.members, sessionID)
	if rm.gone || idx < 0 {
		rm.mu.Unlock()
		return
	}

	rm.members = slices.Delete(rm.members, idx, idx+1)

	for _, peer := range rm.members {
		r.notifier.PeerLeft(roomID, peer, sessionID)
	}

	if len(rm.members) == 0 {
		rm.gone = true
	} else {
		r.notifier.MembershipChanged(roomID, slices.Clone(rm.members), len(rm.members))
	}

	gone := rm.gone
	rm.mu.Unlock()

	if gone {
		r.delete(rm)
	}
}

// Peers returns the other members of a room for a relay fan-out, or nil
// when the room is gone (relaying into a vanished room is a silent no-op).
func (r *RoomRegistry) Peers(roomID string, exclude uuid.UUID) []uuid.UUID {
	rm, ok := r.lookup(roomID)
	if !ok {
		return nil
	}

	rm.mu.Lock()
	defer rm.mu.Unlock()

	if rm.gone {
		return nil
	}

	peers := make([]uuid.UUID, 0, len(rm.members))
	for _, member := range rm.members {
		if member != exclude {
			peers = append(peers, member)
		}
	}

	return peers
}

// SweepStale deletes every empty room older than maxAge and reports how
// many were removed. It takes each room's lock, so a sweep never races a
// concurrent admission on the same room.
func (r *RoomRegistry) SweepStale(maxAge time.Duration) int {
	r.mu.RLock()
	candidates := make([]*room, 0, len(r.rooms))
	for _, rm := range r.rooms {
		candidates = append(candidates, rm)
	}
	r.mu.RUnlock()

	cutoff := r.now().Add(-maxAge)
	swept := 0

	for _, rm := range candidates {
		rm.mu.Lock()
		stale := !rm.gone && len(rm.members) == 0 && rm.createdAt.Before(cutoff)
		if stale {
			rm.gone = true
		}
		rm.mu.Unlock()

		if stale {
			r.delete(rm)
			swept++

			slog.Info("swept stale room", slog.String(constant.RoomID, rm.id))
		}
	}

	return swept
}

func (r *RoomRegistry) lookup(roomID string) (*room, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rm, ok := r.rooms[roomID]
	return rm, ok
}

func (r *RoomRegistry) delete(rm *room) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if current, ok := r.rooms[rm.id]; ok && current == rm {
		delete(r.rooms, rm.id)
		metric.DecrementRoomsActive()
	}
}
