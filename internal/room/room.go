package room

import (
	"context"
	"math/rand"
	"time"

	"github.com/google/uuid"

	"arenaserver/internal/anticheat"
	"arenaserver/internal/mapcatalog"
	"arenaserver/internal/protocol"
	"arenaserver/internal/validate"
	"arenaserver/logging"
)

// Emitter delivers an outbound wire event to one connection. Rooms never
// touch a net.Conn or websocket.Conn directly — this seam is grounded on
// the teacher's Hub.broadcastState pattern of writing to an abstract
// per-subscriber channel (hub.go), generalized to an interface so the
// transport layer owns the actual socket.
type Emitter interface {
	Send(connID string, eventType string, payload any)
}

// TickHz is the fixed simulation rate every room ticks at. The TICK_RATE
// value loaded by internal/config is not applied to rooms.
const TickHz = 30

type command struct {
	kind  string
	reply chan any
	data  any
}

type joinRequest struct {
	persistentID string
	profileID    string
	displayName  string
	connID       string
}

type joinResult struct {
	err       error
	playerKey string
	isLeader  bool
}

type reconnectRequest struct {
	persistentID string
	connID       string
}

type reconnectResult struct {
	err       error
	playerKey string
}

// Room is one authoritative arena match lifecycle: lobby, countdown,
// playing, back to lobby. Exactly one goroutine (Run) ever mutates a
// Room's state; every external interaction goes through the inbox channel,
// grounded on garbhj-motion-demo's room/room.go actor pattern.
type Room struct {
	Code   string
	MapDef mapcatalog.Def

	inbox chan command
	quit  chan struct{}

	router  *logging.Router
	emitter Emitter

	state       State
	leaderKey   string
	players     map[string]*Player
	projectiles map[string]*Projectile
	buffs       []*Buff

	matchID          string
	matchStartAt      time.Time
	countdownStartAt  time.Time
	lastFullSnapshotAt time.Time
	fullSnapshotIntervalMS int64

	nextSpawnIndex int

	lastResults []MatchStat

	onRewardConsume func(persistentID string) int
	onRewardRestore func(persistentID string, chargesRemaining int)
	onMatchEnd      func(roomCode, matchID string, stats []MatchStat, recipients []string)
	onInvitesClear  func(roomCode string)

	anticheatEngine *anticheat.Engine

	lastPlayerView     map[string]protocol.PlayerView
	lastProjectileView map[string]protocol.ProjectileView
	lastBuffView       map[string]protocol.BuffView
	lastTick           int64
}

// newRoom starts a room with no map assigned. The map is chosen at random
// from mapcatalog.Keys() in handleStartGame (spec §4.4), not at creation, so
// a client can never force a map choice by supplying one at createRoom.
func newRoom(code string, router *logging.Router, emitter Emitter) *Room {
	r := &Room{
		Code:        code,
		inbox:       make(chan command, 64),
		quit:        make(chan struct{}),
		router:      router,
		emitter:     emitter,
		state:       StateLobby,
		players:     make(map[string]*Player),
		projectiles: make(map[string]*Projectile),
		fullSnapshotIntervalMS: 1000,
		lastPlayerView:     make(map[string]protocol.PlayerView),
		lastProjectileView: make(map[string]protocol.ProjectileView),
		lastBuffView:       make(map[string]protocol.BuffView),
	}
	return r
}

// SetRewardHooks wires the reward-flag consume/restore callbacks (spec
// §4.9); kept optional so room tests don't need a reward.Store.
func (r *Room) SetRewardHooks(consume func(string) int, restore func(string, int)) {
	r.onRewardConsume = consume
	r.onRewardRestore = restore
}

// SetMatchEndHook wires match-result publication (spec §3 pending match
// result), called synchronously from the room goroutine at game end.
func (r *Room) SetMatchEndHook(fn func(roomCode, matchID string, stats []MatchStat, recipients []string)) {
	r.onMatchEnd = fn
}

// SetInvitesClearHook wires invalidation of any outstanding party invites
// targeting this room, called synchronously from the room goroutine when
// startGame transitions the room out of lobby (spec §4.4/§3 invariant:
// "all party invites targeting that room are invalidated when the room
// ceases to be in lobby").
func (r *Room) SetInvitesClearHook(fn func(roomCode string)) {
	r.onInvitesClear = fn
}

func (r *Room) SetFullSnapshotIntervalMS(ms int) {
	if ms > 0 {
		r.fullSnapshotIntervalMS = int64(ms)
	}
}

// SetAntiCheat wires the shared anti-abuse engine so input/fire validation
// failures inside the simulation tick can record strikes (spec §4.6/§4.7).
func (r *Room) SetAntiCheat(e *anticheat.Engine) {
	r.anticheatEngine = e
}

// Run is the room's actor loop: select over the inbox channel and a fixed
// tick rate, as in garbhj-motion-demo's Room.Run. onEmpty is invoked once
// after the last player leaves so the owning Store can release the room.
func (r *Room) Run(onEmpty func()) {
	ticker := time.NewTicker(time.Second / TickHz)
	defer ticker.Stop()

	emptySince := time.Time{}
	const emptyGrace = 30 * time.Second

	for {
		select {
		case <-r.quit:
			return
		case cmd := <-r.inbox:
			r.handleCommand(cmd)
		case now := <-ticker.C:
			r.tick(now)
		}

		if len(r.players) == 0 {
			if emptySince.IsZero() {
				emptySince = time.Now()
			} else if time.Since(emptySince) > emptyGrace {
				if onEmpty != nil {
					onEmpty()
				}
				return
			}
		} else {
			emptySince = time.Time{}
		}
	}
}

func (r *Room) send(kind string, data any) any {
	reply := make(chan any, 1)
	select {
	case r.inbox <- command{kind: kind, data: data, reply: reply}:
	case <-r.quit:
		return nil
	}
	select {
	case v := <-reply:
		return v
	case <-time.After(2 * time.Second):
		return nil
	}
}

func (r *Room) sendAsync(kind string, data any) {
	select {
	case r.inbox <- command{kind: kind, data: data}:
	case <-r.quit:
	default:
	}
}

func (r *Room) handleCommand(cmd command) {
	switch cmd.kind {
	case "join":
		result := r.handleJoin(cmd.data.(joinRequest))
		if cmd.reply != nil {
			cmd.reply <- result
		}
	case "reconnect":
		result := r.handleReconnect(cmd.data.(reconnectRequest))
		if cmd.reply != nil {
			cmd.reply <- result
		}
	case "ready":
		req := cmd.data.(readyRequest)
		r.handleReady(req.playerKey, req.ready)
	case "toggleReady":
		playerKey := cmd.data.(string)
		if p, ok := r.players[playerKey]; ok && playerKey != r.leaderKey {
			r.handleReady(playerKey, !p.Ready)
		}
	case "startGame":
		playerKey := cmd.data.(string)
		err := r.handleStartGame(playerKey)
		if cmd.reply != nil {
			cmd.reply <- errResult{err: err}
		}
	case "input":
		req := cmd.data.(inputCommand)
		r.handleInput(req)
	case "fire":
		req := cmd.data.(fireCommand)
		r.handleFire(req)
	case "leave":
		r.handleLeave(cmd.data.(string))
	case "kick":
		req := cmd.data.(kickRequest)
		err := r.handleKick(req.requesterKey, req.targetKey)
		if cmd.reply != nil {
			cmd.reply <- errResult{err: err}
		}
	case "requestLobbyState":
		snap := r.lobbySnapshot()
		if cmd.reply != nil {
			cmd.reply <- snap
		}
	case "returnToLobby":
		r.handleReturnToLobby(cmd.data.(string))
	}
}

// errResult wraps an error so a nil error can be distinguished on the
// reply channel from a dropped/timed-out command (which yields a bare nil
// any, not an errResult).
type errResult struct{ err error }

type readyRequest struct {
	playerKey string
	ready     bool
}

type kickRequest struct {
	requesterKey string
	targetKey    string
}

type inputCommand struct {
	playerKey string
	seq       int64
	input     InputState
	now       time.Time
}

type fireCommand struct {
	playerKey string
	seq       int64
	angle     float64
	now       time.Time
}

// --- Public API (called from the transport goroutine; each hops onto the
// room's own goroutine via the inbox channel) ---

func (r *Room) Join(persistentID, profileID, displayName, connID string) (string, bool, error) {
	v := r.send("join", joinRequest{persistentID: persistentID, profileID: profileID, displayName: displayName, connID: connID})
	if v == nil {
		return "", false, ErrRoomNotFound
	}
	res := v.(joinResult)
	return res.playerKey, res.isLeader, res.err
}

func (r *Room) Reconnect(persistentID, connID string) (string, error) {
	v := r.send("reconnect", reconnectRequest{persistentID: persistentID, connID: connID})
	if v == nil {
		return "", ErrRoomNotFound
	}
	res := v.(reconnectResult)
	return res.playerKey, res.err
}

func (r *Room) SetReady(playerKey string, ready bool) {
	r.sendAsync("ready", readyRequest{playerKey: playerKey, ready: ready})
}

func (r *Room) ToggleReady(playerKey string) {
	r.sendAsync("toggleReady", playerKey)
}

func (r *Room) StartGame(playerKey string) error {
	v := r.send("startGame", playerKey)
	if v == nil {
		return ErrRoomNotFound
	}
	return v.(errResult).err
}

func (r *Room) SubmitInput(playerKey string, seq int64, input InputState, now time.Time) {
	r.sendAsync("input", inputCommand{playerKey: playerKey, seq: seq, input: input, now: now})
}

func (r *Room) FireProjectile(playerKey string, seq int64, angle float64, now time.Time) {
	r.sendAsync("fire", fireCommand{playerKey: playerKey, seq: seq, angle: angle, now: now})
}

func (r *Room) Leave(playerKey string) {
	r.sendAsync("leave", playerKey)
}

func (r *Room) Kick(requesterKey, targetKey string) error {
	v := r.send("kick", kickRequest{requesterKey: requesterKey, targetKey: targetKey})
	if v == nil {
		return ErrRoomNotFound
	}
	return v.(errResult).err
}

// LobbySnapshot is the read-only view of a room's lobby state (spec §4.4).
type LobbySnapshot struct {
	RoomCode string
	MapKey   string
	State    State
	Players  []LobbyPlayer
}

type LobbyPlayer struct {
	PlayerKey   string
	DisplayName string
	Ready       bool
	IsLeader    bool
}

func (r *Room) RequestLobbyState() LobbySnapshot {
	v := r.send("requestLobbyState", nil)
	if v == nil {
		return LobbySnapshot{RoomCode: r.Code}
	}
	return v.(LobbySnapshot)
}

func (r *Room) ReturnToLobby(playerKey string) {
	r.sendAsync("returnToLobby", playerKey)
}

func (r *Room) NumPlayers() int {
	v := r.send("requestLobbyState", nil)
	if v == nil {
		return 0
	}
	return len(v.(LobbySnapshot).Players)
}

// --- Handlers (run on the room goroutine only) ---

func (r *Room) handleJoin(req joinRequest) joinResult {
	if r.state != StateLobby {
		return joinResult{err: ErrRoomAlreadyStarted}
	}
	if len(r.players) >= MaxPlayers {
		return joinResult{err: ErrRoomFull}
	}

	playerKey := uuid.NewString()
	isLeader := len(r.players) == 0
	p := &Player{
		PlayerKey:    playerKey,
		PersistentID: req.persistentID,
		ProfileID:    req.profileID,
		DisplayName:  req.displayName,
		ConnID:       req.connID,
		HP:           MaxHP,
		MaxHP:        MaxHP,
		Ready:        isLeader,
	}
	if isLeader {
		r.leaderKey = playerKey
	}
	r.players[playerKey] = p

	r.broadcastLobbyUpdate()
	r.logEvent(logging.CategoryLobby, "player_joined", playerKey, map[string]any{"roomCode": r.Code})
	return joinResult{playerKey: playerKey, isLeader: isLeader}
}

func (r *Room) handleReconnect(req reconnectRequest) reconnectResult {
	for key, p := range r.players {
		if p.PersistentID == req.persistentID && p.Disconnected {
			p.ConnID = req.connID
			p.Disconnected = false
			p.LastInputSeq = 0
			r.emit(key, "reconnectedToGame", map[string]any{"roomCode": r.Code, "playerKey": key})
			return reconnectResult{playerKey: key}
		}
	}
	return reconnectResult{err: ErrPlayerNotInRoom}
}

func (r *Room) handleReady(playerKey string, ready bool) {
	p, ok := r.players[playerKey]
	if !ok {
		return
	}
	if playerKey == r.leaderKey {
		// leader's ready flag is immutable — always true (spec §3 invariant).
		p.Ready = true
	} else {
		p.Ready = ready
	}
	r.broadcastLobbyUpdate()
}

func (r *Room) handleStartGame(playerKey string) error {
	if playerKey != r.leaderKey {
		return ErrNotRoomLeader
	}
	if r.state != StateLobby {
		return ErrRoomAlreadyStarted
	}
	for key, p := range r.players {
		if p.Disconnected {
			return ErrNotAllReady
		}
		if key != r.leaderKey && !p.Ready {
			return ErrNotAllReady
		}
	}

	keys := mapcatalog.Keys()
	def, _ := mapcatalog.Get(keys[rand.Intn(len(keys))])
	r.MapDef = def
	r.buffs = r.spawnBuffs()

	r.state = StateStarting
	r.countdownStartAt = time.Now()
	r.matchID = uuid.NewString()
	r.nextSpawnIndex = 0
	for _, p := range r.players {
		spawn := r.nextSpawn()
		p.X, p.Y = spawn.X, spawn.Y
		p.HP = p.MaxHP
		p.Kills, p.Deaths, p.Killstreak, p.BestKillstreak = 0, 0, 0, 0
		p.ClearBuffs()
		p.Charging = false
		p.Input = InputState{}
		p.ToggleMeter = validate.ToggleSpamMeter{}
		p.ToggleSpamWindowAt = time.Time{}
		if r.onRewardConsume != nil {
			p.InstantRespawnCharges = r.onRewardConsume(p.PersistentID)
		} else {
			p.InstantRespawnCharges = 0
		}
	}

	if r.onInvitesClear != nil {
		r.onInvitesClear(r.Code)
	}

	r.broadcastAll("gameStarting", map[string]any{
		"mapKey": r.MapDef.Key,
	})
	r.broadcastAll("countdownStart", map[string]any{
		"startsAtServerTime": r.countdownStartAt.UnixMilli(),
		"durationMs":         CountdownMS,
	})
	return nil
}

func (r *Room) handleLeave(playerKey string) {
	p, ok := r.players[playerKey]
	if !ok {
		return
	}
	delete(r.players, playerKey)
	if r.state == StateLobby {
		if playerKey == r.leaderKey {
			r.electNewLeader()
		}
		r.broadcastLobbyUpdate()
	} else {
		p.Disconnected = true
		p.DisconnectAt = time.Now()
		r.players[playerKey] = p
	}
	r.logEvent(logging.CategoryLobby, "player_left", playerKey, map[string]any{"roomCode": r.Code})
}

func (r *Room) handleKick(requesterKey, targetKey string) error {
	if requesterKey != r.leaderKey {
		return ErrNotRoomLeader
	}
	if _, ok := r.players[targetKey]; !ok {
		return ErrKickTargetMissing
	}
	r.emit(targetKey, "kickedFromParty", map[string]any{"reason": "kicked_by_leader"})
	delete(r.players, targetKey)
	if targetKey == r.leaderKey {
		r.electNewLeader()
	}
	r.broadcastLobbyUpdate()
	return nil
}

func (r *Room) handleReturnToLobby(playerKey string) {
	if _, ok := r.players[playerKey]; !ok {
		return
	}
	if r.state == StatePlaying || r.state == StateStarting {
		return
	}
	r.broadcastLobbyUpdate()
}

func (r *Room) electNewLeader() {
	for key, p := range r.players {
		r.leaderKey = key
		p.Ready = true
		r.broadcastAll("newLeader", map[string]any{"playerKey": key})
		return
	}
	r.leaderKey = ""
}

func (r *Room) nextSpawn() mapcatalog.Point {
	spawns := r.MapDef.PlayerSpawns
	if len(spawns) == 0 {
		return mapcatalog.Point{X: mapcatalog.Width / 2, Y: mapcatalog.Height / 2}
	}
	p := spawns[r.nextSpawnIndex%len(spawns)]
	r.nextSpawnIndex++
	return p
}

func (r *Room) spawnBuffs() []*Buff {
	buffs := make([]*Buff, 0, len(r.MapDef.BuffSpawns))
	for i, pt := range r.MapDef.BuffSpawns {
		buffs = append(buffs, &Buff{
			ID:     uuid.NewString(),
			Kind:   buffKinds[i%len(buffKinds)],
			X:      pt.X,
			Y:      pt.Y,
			Active: true,
		})
	}
	return buffs
}

func (r *Room) lobbySnapshot() LobbySnapshot {
	out := LobbySnapshot{RoomCode: r.Code, MapKey: r.MapDef.Key, State: r.state}
	for key, p := range r.players {
		out.Players = append(out.Players, LobbyPlayer{
			PlayerKey:   key,
			DisplayName: p.DisplayName,
			Ready:       p.Ready,
			IsLeader:    key == r.leaderKey,
		})
	}
	return out
}

func (r *Room) broadcastLobbyUpdate() {
	snap := r.lobbySnapshot()
	players := make([]map[string]any, 0, len(snap.Players))
	for _, p := range snap.Players {
		players = append(players, map[string]any{
			"playerKey":   p.PlayerKey,
			"displayName": p.DisplayName,
			"ready":       p.Ready,
			"isLeader":    p.IsLeader,
		})
	}
	r.broadcastAll("lobbyUpdate", map[string]any{
		"roomCode": r.Code,
		"mapKey":   r.MapDef.Key,
		"players":  players,
	})
}

func (r *Room) broadcastAll(eventType string, payload any) {
	if r.emitter == nil {
		return
	}
	for _, p := range r.players {
		if p.Disconnected {
			continue
		}
		r.emitter.Send(p.ConnID, eventType, payload)
	}
}

func (r *Room) emit(playerKey, eventType string, payload any) {
	if r.emitter == nil {
		return
	}
	p, ok := r.players[playerKey]
	if !ok || p.Disconnected {
		return
	}
	r.emitter.Send(p.ConnID, eventType, payload)
}

func (r *Room) logEvent(category, eventType, playerKey string, payload map[string]any) {
	if r.router == nil {
		return
	}
	r.router.Publish(context.Background(), logging.Event{
		Type:     logging.EventType(eventType),
		Time:     time.Now(),
		Actor:    logging.EntityRef{ID: playerKey, Kind: logging.EntityKindPlayer},
		Severity: logging.SeverityInfo,
		Category: category,
		Payload:  payload,
	})
}
