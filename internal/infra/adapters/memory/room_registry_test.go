package memory

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/vgrebnev/duolink/internal/domain"
)

type notifierCall struct {
	kind    string // "peer-joined", "peer-left", "membership-changed"
	roomID  string
	to      uuid.UUID
	subject uuid.UUID
	count   int
}

// recordingNotifier captures membership events in the order they fired.
type recordingNotifier struct {
	mu    sync.Mutex
	calls []notifierCall
}

func (n *recordingNotifier) PeerJoined(roomID string, to, joined uuid.UUID) {
	n.record(notifierCall{kind: "peer-joined", roomID: roomID, to: to, subject: joined})
}

func (n *recordingNotifier) PeerLeft(roomID string, to, left uuid.UUID) {
	n.record(notifierCall{kind: "peer-left", roomID: roomID, to: to, subject: left})
}

func (n *recordingNotifier) MembershipChanged(roomID string, members []uuid.UUID, count int) {
	for _, member := range members {
		n.record(notifierCall{kind: "membership-changed", roomID: roomID, to: member, count: count})
	}
}

func (n *recordingNotifier) record(c notifierCall) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.calls = append(n.calls, c)
}

func (n *recordingNotifier) callsTo(to uuid.UUID, kind string) []notifierCall {
	n.mu.Lock()
	defer n.mu.Unlock()

	var out []notifierCall
	for _, c := range n.calls {
		if c.to == to && c.kind == kind {
			out = append(out, c)
		}
	}
	return out
}

func newTestRegistry() (*RoomRegistry, *recordingNotifier) {
	notifier := &recordingNotifier{}
	return NewRoomRegistry(notifier), notifier
}

func TestCreateRoom(t *testing.T) {
	registry, _ := newTestRegistry()

	roomID := registry.Create()
	if roomID == "" {
		t.Fatal("expected a non-empty room id")
	}

	count, createdAt, ok := registry.Info(roomID)
	if !ok {
		t.Fatalf("room %q not found after create", roomID)
	}
	if count != 0 {
		t.Errorf("new room member count = %d, want 0", count)
	}
	if createdAt.IsZero() {
		t.Error("new room has zero createdAt")
	}

	if other := registry.Create(); other == roomID {
		t.Errorf("two rooms share id %q", roomID)
	}
}

func TestAddMemberCapacity(t *testing.T) {
	registry, _ := newTestRegistry()
	roomID := registry.Create()

	s1, s2, s3 := uuid.New(), uuid.New(), uuid.New()

	if err := registry.AddMember(roomID, s1); err != nil {
		t.Fatalf("first join: %v", err)
	}
	if err := registry.AddMember(roomID, s2); err != nil {
		t.Fatalf("second join: %v", err)
	}

	err := registry.AddMember(roomID, s3)
	if !errors.Is(err, domain.ErrRoomFull) {
		t.Fatalf("third join error = %v, want ErrRoomFull", err)
	}

	count, _, _ := registry.Info(roomID)
	if count != 2 {
		t.Errorf("member count = %d, want 2", count)
	}
}

func TestAddMemberUnknownRoom(t *testing.T) {
	registry, _ := newTestRegistry()

	err := registry.AddMember("no-such-room", uuid.New())
	if !errors.Is(err, domain.ErrRoomNotFound) {
		t.Fatalf("error = %v, want ErrRoomNotFound", err)
	}
	if errors.Is(err, domain.ErrRoomFull) {
		t.Fatal("a missing room must never look full")
	}
}

func TestJoinNotifications(t *testing.T) {
	registry, notifier := newTestRegistry()
	roomID := registry.Create()

	s1, s2 := uuid.New(), uuid.New()

	if err := registry.AddMember(roomID, s1); err != nil {
		t.Fatal(err)
	}

	// The first joiner must not hear about itself.
	if got := notifier.callsTo(s1, "peer-joined"); len(got) != 0 {
		t.Fatalf("first joiner received %d peer-joined events", len(got))
	}

	mc := notifier.callsTo(s1, "membership-changed")
	if len(mc) != 1 || mc[0].count != 1 {
		t.Fatalf("first joiner membership-changed = %+v, want one event with count 1", mc)
	}

	if err := registry.AddMember(roomID, s2); err != nil {
		t.Fatal(err)
	}

	// Only the pre-existing member hears peer-joined; it becomes the
	// offering side.
	pj := notifier.callsTo(s1, "peer-joined")
	if len(pj) != 1 || pj[0].subject != s2 {
		t.Fatalf("existing member peer-joined = %+v, want one event for %s", pj, s2)
	}
	if got := notifier.callsTo(s2, "peer-joined"); len(got) != 0 {
		t.Fatalf("joiner received %d peer-joined events, want 0", len(got))
	}

	for _, sid := range []uuid.UUID{s1, s2} {
		mc := notifier.callsTo(sid, "membership-changed")
		if len(mc) == 0 || mc[len(mc)-1].count != 2 {
			t.Errorf("member %s last membership-changed = %+v, want count 2", sid, mc)
		}
	}
}

func TestRemoveMember(t *testing.T) {
	registry, notifier := newTestRegistry()
	roomID := registry.Create()

	s1, s2 := uuid.New(), uuid.New()
	if err := registry.AddMember(roomID, s1); err != nil {
		t.Fatal(err)
	}
	if err := registry.AddMember(roomID, s2); err != nil {
		t.Fatal(err)
	}

	registry.RemoveMember(roomID, s1)

	pl := notifier.callsTo(s2, "peer-left")
	if len(pl) != 1 || pl[0].subject != s1 {
		t.Fatalf("remaining member peer-left = %+v, want one event for %s", pl, s1)
	}

	mc := notifier.callsTo(s2, "membership-changed")
	if len(mc) == 0 || mc[len(mc)-1].count != 1 {
		t.Fatalf("remaining member membership-changed = %+v, want last count 1", mc)
	}

	count, _, ok := registry.Info(roomID)
	if !ok || count != 1 {
		t.Fatalf("room after one departure: count=%d ok=%v, want 1/true", count, ok)
	}

	// Last departure deletes the room immediately, not merely empties it.
	registry.RemoveMember(roomID, s2)

	if _, _, ok := registry.Info(roomID); ok {
		t.Fatal("room still present after last member departed")
	}
}

func TestRemoveMemberIdempotent(t *testing.T) {
	registry, notifier := newTestRegistry()
	roomID := registry.Create()

	s1, s2 := uuid.New(), uuid.New()
	if err := registry.AddMember(roomID, s1); err != nil {
		t.Fatal(err)
	}
	if err := registry.AddMember(roomID, s2); err != nil {
		t.Fatal(err)
	}

	registry.RemoveMember(roomID, s1)
	registry.RemoveMember(roomID, s1) // duplicate departure
	registry.RemoveMember("no-such-room", s1)

	if pl := notifier.callsTo(s2, "peer-left"); len(pl) != 1 {
		t.Fatalf("remaining member received %d peer-left events, want 1", len(pl))
	}
}

func TestConcurrentAdmission(t *testing.T) {
	registry, _ := newTestRegistry()
	roomID := registry.Create()

	const contenders = 8

	var wg sync.WaitGroup
	results := make([]error, contenders)

	for i := 0; i < contenders; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = registry.AddMember(roomID, uuid.New())
		}(i)
	}
	wg.Wait()

	admitted, full := 0, 0
	for _, err := range results {
		switch {
		case err == nil:
			admitted++
		case errors.Is(err, domain.ErrRoomFull):
			full++
		default:
			t.Fatalf("unexpected admission error: %v", err)
		}
	}

	if admitted != 2 || full != contenders-2 {
		t.Fatalf("admitted=%d full=%d, want 2/%d", admitted, full, contenders-2)
	}
}

func TestPeersExcludesSender(t *testing.T) {
	registry, _ := newTestRegistry()
	roomID := registry.Create()

	s1, s2 := uuid.New(), uuid.New()
	if err := registry.AddMember(roomID, s1); err != nil {
		t.Fatal(err)
	}
	if err := registry.AddMember(roomID, s2); err != nil {
		t.Fatal(err)
	}

	peers := registry.Peers(roomID, s1)
	if len(peers) != 1 || peers[0] != s2 {
		t.Fatalf("peers = %v, want [%s]", peers, s2)
	}

	if peers := registry.Peers("no-such-room", s1); peers != nil {
		t.Fatalf("peers of missing room = %v, want nil", peers)
	}
}

func TestSweepStale(t *testing.T) {
	registry, _ := newTestRegistry()

	oldEmpty := registry.Create()
	freshEmpty := registry.Create()
	oldOccupied := registry.Create()

	if err := registry.AddMember(oldOccupied, uuid.New()); err != nil {
		t.Fatal(err)
	}

	dayOld := time.Now().Add(-25 * time.Hour)
	registry.rooms[oldEmpty].createdAt = dayOld
	registry.rooms[oldOccupied].createdAt = dayOld
	registry.rooms[freshEmpty].createdAt = time.Now().Add(-time.Hour)

	if swept := registry.SweepStale(24 * time.Hour); swept != 1 {
		t.Fatalf("swept = %d, want 1", swept)
	}

	if _, _, ok := registry.Info(oldEmpty); ok {
		t.Error("old empty room survived the sweep")
	}
	if _, _, ok := registry.Info(freshEmpty); !ok {
		t.Error("fresh empty room was swept")
	}
	if _, _, ok := registry.Info(oldOccupied); !ok {
		t.Error("occupied room was swept")
	}
}
