package room

import (
	"sync"
	"testing"
	"time"
)

// fakeEmitter records every event handed to it, mirroring the teacher's
// fakeConn recording pattern (garbhj-motion-demo's room/room_test.go) but at
// the Emitter seam rather than a raw byte socket.
type fakeEmitter struct {
	mu     sync.Mutex
	events []emittedEvent
}

type emittedEvent struct {
	connID    string
	eventType string
	payload   any
}

func (f *fakeEmitter) Send(connID, eventType string, payload any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, emittedEvent{connID, eventType, payload})
}

func (f *fakeEmitter) all() []emittedEvent {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]emittedEvent, len(f.events))
	copy(out, f.events)
	return out
}

func newTestRoom(t *testing.T) (*Room, *fakeEmitter) {
	t.Helper()
	emitter := &fakeEmitter{}
	return newRoom("00001", nil, emitter), emitter
}

func TestHandleJoinFirstPlayerBecomesLeaderAndReady(t *testing.T) {
	r, _ := newTestRoom(t)
	res := r.handleJoin(joinRequest{persistentID: "device-a", displayName: "Alice", connID: "conn-a"})
	if res.err != nil {
		t.Fatalf("unexpected error: %v", res.err)
	}
	if !res.isLeader {
		t.Fatalf("expected first joiner to be leader")
	}
	if r.leaderKey != res.playerKey {
		t.Fatalf("leaderKey = %q, want %q", r.leaderKey, res.playerKey)
	}
	p := r.players[res.playerKey]
	if !p.Ready {
		t.Fatalf("expected leader to be ready by default")
	}
}

func TestHandleJoinSecondPlayerIsNotLeader(t *testing.T) {
	r, _ := newTestRoom(t)
	first := r.handleJoin(joinRequest{persistentID: "device-a", connID: "conn-a"})
	second := r.handleJoin(joinRequest{persistentID: "device-b", connID: "conn-b"})
	if second.isLeader {
		t.Fatalf("expected second joiner not to be leader")
	}
	if r.leaderKey != first.playerKey {
		t.Fatalf("leaderKey changed to %q, want unchanged %q", r.leaderKey, first.playerKey)
	}
}

func TestHandleJoinRejectsBeyondMaxPlayers(t *testing.T) {
	r, _ := newTestRoom(t)
	for i := 0; i < MaxPlayers; i++ {
		res := r.handleJoin(joinRequest{persistentID: string(rune('a' + i)), connID: string(rune('a' + i))})
		if res.err != nil {
			t.Fatalf("join %d: unexpected error: %v", i, res.err)
		}
	}
	overflow := r.handleJoin(joinRequest{persistentID: "overflow", connID: "overflow"})
	if overflow.err != ErrRoomFull {
		t.Fatalf("err = %v, want ErrRoomFull", overflow.err)
	}
}

func TestHandleJoinRejectsOnceGameStarted(t *testing.T) {
	r, _ := newTestRoom(t)
	r.handleJoin(joinRequest{persistentID: "device-a", connID: "conn-a"})
	r.state = StatePlaying
	res := r.handleJoin(joinRequest{persistentID: "device-b", connID: "conn-b"})
	if res.err != ErrRoomAlreadyStarted {
		t.Fatalf("err = %v, want ErrRoomAlreadyStarted", res.err)
	}
}

func TestHandleStartGameRequiresLeader(t *testing.T) {
	r, _ := newTestRoom(t)
	r.handleJoin(joinRequest{persistentID: "device-a", connID: "conn-a"})
	second := r.handleJoin(joinRequest{persistentID: "device-b", connID: "conn-b"})
	if err := r.handleStartGame(second.playerKey); err != ErrNotRoomLeader {
		t.Fatalf("err = %v, want ErrNotRoomLeader", err)
	}
}

func TestHandleStartGameRequiresAllNonLeaderPlayersReady(t *testing.T) {
	r, _ := newTestRoom(t)
	leader := r.handleJoin(joinRequest{persistentID: "device-a", connID: "conn-a"})
	r.handleJoin(joinRequest{persistentID: "device-b", connID: "conn-b"})
	if err := r.handleStartGame(leader.playerKey); err != ErrNotAllReady {
		t.Fatalf("err = %v, want ErrNotAllReady", err)
	}
}

func TestHandleStartGameRejectsWhileAnyPlayerDisconnected(t *testing.T) {
	r, _ := newTestRoom(t)
	leader := r.handleJoin(joinRequest{persistentID: "device-a", connID: "conn-a"})
	second := r.handleJoin(joinRequest{persistentID: "device-b", connID: "conn-b"})
	r.handleReady(second.playerKey, true)
	r.players[second.playerKey].Disconnected = true
	if err := r.handleStartGame(leader.playerKey); err != ErrNotAllReady {
		t.Fatalf("err = %v, want ErrNotAllReady", err)
	}
}

func TestHandleStartGameTransitionsToStarting(t *testing.T) {
	r, _ := newTestRoom(t)
	leader := r.handleJoin(joinRequest{persistentID: "device-a", connID: "conn-a"})
	second := r.handleJoin(joinRequest{persistentID: "device-b", connID: "conn-b"})
	r.handleReady(second.playerKey, true)

	if err := r.handleStartGame(leader.playerKey); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.state != StateStarting {
		t.Fatalf("state = %v, want StateStarting", r.state)
	}
	if r.matchID == "" {
		t.Fatalf("expected matchID to be assigned")
	}
	if r.MapDef.Key == "" {
		t.Fatalf("expected a map to be chosen at startGame")
	}
	for _, p := range r.players {
		if p.X == 0 && p.Y == 0 {
			t.Fatalf("expected player to be placed at a spawn point")
		}
	}
}

func TestHandleLeaveInLobbyElectsNewLeader(t *testing.T) {
	r, _ := newTestRoom(t)
	leader := r.handleJoin(joinRequest{persistentID: "device-a", connID: "conn-a"})
	second := r.handleJoin(joinRequest{persistentID: "device-b", connID: "conn-b"})

	r.handleLeave(leader.playerKey)

	if _, ok := r.players[leader.playerKey]; ok {
		t.Fatalf("expected leaving player to be removed from lobby")
	}
	if r.leaderKey != second.playerKey {
		t.Fatalf("leaderKey = %q, want %q", r.leaderKey, second.playerKey)
	}
}

func TestHandleLeaveDuringMatchMarksDisconnectedRatherThanRemoving(t *testing.T) {
	r, _ := newTestRoom(t)
	p := r.handleJoin(joinRequest{persistentID: "device-a", connID: "conn-a"})
	r.state = StatePlaying

	r.handleLeave(p.playerKey)

	player, ok := r.players[p.playerKey]
	if !ok {
		t.Fatalf("expected disconnected player to remain in the room until match end")
	}
	if !player.Disconnected {
		t.Fatalf("expected player to be marked Disconnected")
	}
}

func TestHandleKickRequiresLeader(t *testing.T) {
	r, _ := newTestRoom(t)
	r.handleJoin(joinRequest{persistentID: "device-a", connID: "conn-a"})
	second := r.handleJoin(joinRequest{persistentID: "device-b", connID: "conn-b"})
	if err := r.handleKick(second.playerKey, second.playerKey); err != ErrNotRoomLeader {
		t.Fatalf("err = %v, want ErrNotRoomLeader", err)
	}
}

func TestHandleKickMissingTargetReturnsError(t *testing.T) {
	r, _ := newTestRoom(t)
	leader := r.handleJoin(joinRequest{persistentID: "device-a", connID: "conn-a"})
	if err := r.handleKick(leader.playerKey, "no-such-player"); err != ErrKickTargetMissing {
		t.Fatalf("err = %v, want ErrKickTargetMissing", err)
	}
}

func TestHandleKickRemovesTargetAndNotifiesThem(t *testing.T) {
	r, emitter := newTestRoom(t)
	leader := r.handleJoin(joinRequest{persistentID: "device-a", connID: "conn-a"})
	target := r.handleJoin(joinRequest{persistentID: "device-b", connID: "conn-b"})

	if err := r.handleKick(leader.playerKey, target.playerKey); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := r.players[target.playerKey]; ok {
		t.Fatalf("expected kicked player to be removed")
	}

	var sawKick bool
	for _, e := range emitter.all() {
		if e.connID == "conn-b" && e.eventType == "kickedFromParty" {
			sawKick = true
		}
	}
	if !sawKick {
		t.Fatalf("expected a kickedFromParty event sent to the kicked player's connection")
	}
}

func TestHandleReconnectRebindsConnIDWithoutChangingPlayerKey(t *testing.T) {
	r, _ := newTestRoom(t)
	joined := r.handleJoin(joinRequest{persistentID: "device-a", connID: "conn-a"})
	r.state = StatePlaying
	r.handleLeave(joined.playerKey)

	res := r.handleReconnect(reconnectRequest{persistentID: "device-a", connID: "conn-a-2"})
	if res.err != nil {
		t.Fatalf("unexpected error: %v", res.err)
	}
	if res.playerKey != joined.playerKey {
		t.Fatalf("playerKey = %q, want unchanged %q", res.playerKey, joined.playerKey)
	}
	p := r.players[joined.playerKey]
	if p.Disconnected {
		t.Fatalf("expected player to be marked reconnected")
	}
	if p.ConnID != "conn-a-2" {
		t.Fatalf("ConnID = %q, want %q", p.ConnID, "conn-a-2")
	}
}

func TestHandleReconnectUnknownPersistentIDFails(t *testing.T) {
	r, _ := newTestRoom(t)
	res := r.handleReconnect(reconnectRequest{persistentID: "ghost", connID: "conn-x"})
	if res.err != ErrPlayerNotInRoom {
		t.Fatalf("err = %v, want ErrPlayerNotInRoom", res.err)
	}
}

func TestStoreCreateGeneratesUniqueFiveDigitCodes(t *testing.T) {
	store := NewStore(nil, &fakeEmitter{})
	seen := make(map[string]bool)
	for i := 0; i < 20; i++ {
		r, err := store.Create()
		if err != nil {
			t.Fatalf("Create: %v", err)
		}
		if len(r.Code) != 5 {
			t.Fatalf("room code %q has length %d, want 5", r.Code, len(r.Code))
		}
		if r.Code[0] == '0' {
			t.Fatalf("room code %q has a leading zero", r.Code)
		}
		if seen[r.Code] {
			t.Fatalf("room code %q generated twice", r.Code)
		}
		seen[r.Code] = true
	}
	if store.Count() != 20 {
		t.Fatalf("Count() = %d, want 20", store.Count())
	}
}

// TestRoomActorJoinRequestLobbyStateLeaveLifecycle exercises the actor loop
// itself (Run, driven by the real inbox channel) rather than calling
// handlers directly, matching the teacher's goroutine-plus-channel test
// shape in garbhj-motion-demo's room_test.go.
func TestRoomActorJoinRequestLobbyStateLeaveLifecycle(t *testing.T) {
	store := NewStore(nil, &fakeEmitter{})
	r, err := store.Create()
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	keyA, isLeaderA, err := r.Join("device-a", "profile-a", "Alice", "conn-a")
	if err != nil {
		t.Fatalf("Join a: %v", err)
	}
	if !isLeaderA {
		t.Fatalf("expected first joiner to be leader")
	}
	keyB, _, err := r.Join("device-b", "profile-b", "Bob", "conn-b")
	if err != nil {
		t.Fatalf("Join b: %v", err)
	}

	snap := r.RequestLobbyState()
	if len(snap.Players) != 2 {
		t.Fatalf("len(Players) = %d, want 2", len(snap.Players))
	}

	r.Leave(keyA)

	deadline := time.Now().Add(time.Second)
	for {
		snap = r.RequestLobbyState()
		if len(snap.Players) == 1 && snap.Players[0].PlayerKey == keyB && snap.Players[0].IsLeader {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for leader re-election after leave, last snapshot: %+v", snap)
		}
		time.Sleep(5 * time.Millisecond)
	}
}
