// Package arenaserver is the facade the transport layer drives: one Hub
// instance per process, owning every cross-cutting collaborator (identity,
// sessions, rate limiting, anti-abuse, rewards, pending match results) and
// the room store, and exposing one method per inbound wire event. Grounded
// on the teacher's Hub (hub.go), generalized from a single flat world to a
// multi-room lobby/match lifecycle.
package arenaserver

import (
	"time"

	"github.com/gorilla/websocket"

	"arenaserver/internal/anticheat"
	"arenaserver/internal/config"
	"arenaserver/internal/identity"
	"arenaserver/internal/matchresult"
	"arenaserver/internal/protocol"
	"arenaserver/internal/ratelimit"
	"arenaserver/internal/reward"
	"arenaserver/internal/room"
	"arenaserver/internal/session"
	"arenaserver/logging"
)

type Hub struct {
	cfg config.Config

	registry *registry

	identity     identity.Store
	sessions     *session.Manager
	reconnect    *session.ReconnectGuard
	limiter      *ratelimit.Limiter
	anticheat    *anticheat.Engine
	rewards      *reward.Store
	matchResults *matchresult.Store
	rooms        *room.Store
	router       *logging.Router

	social *socialState
}

func NewHub(cfg config.Config, router *logging.Router, identityStore identity.Store) *Hub {
	h := &Hub{
		cfg:          cfg,
		registry:     newRegistry(),
		identity:     identityStore,
		sessions:     session.NewManager(cfg.SessionSecret),
		reconnect:    session.NewReconnectGuard(),
		limiter:      ratelimit.NewLimiter(),
		rewards:      reward.NewStore(),
		matchResults: matchresult.NewStore(),
		router:       router,
		social:       newSocialState(),
	}
	h.anticheat = anticheat.New(cfg, router)
	h.rooms = room.NewStore(router, h.registry)
	return h
}

// Connect registers a freshly upgraded websocket connection and returns its
// connID plus the metadata slot the transport layer mutates as the
// connection authenticates and joins a room (spec §6.1).
func (h *Hub) Connect(conn *websocket.Conn, sourceIP string) (string, *ConnMeta) {
	connID := newID()
	meta := h.registry.add(connID, conn)
	meta.mu.Lock()
	meta.sourceIP = sourceIP
	meta.mu.Unlock()
	return connID, meta
}

// Disconnect tears down a closed connection: it leaves the player's room (if
// any), which removes them from a lobby or marks them disconnected in a
// running match, releases per-connection rate-limit state, and drops the
// connection from the registry.
func (h *Hub) Disconnect(connID string) {
	meta, ok := h.registry.metaFor(connID)
	if ok {
		snap := meta.snapshot()
		if snap.roomCode != "" && snap.playerKey != "" {
			if r, ok := h.rooms.Get(snap.roomCode); ok {
				r.Leave(snap.playerKey)
			}
			h.social.rememberRoom(snap.deviceID, snap.roomCode)
		}
		h.anticheat.Forget(snap.playerKey)
	}
	h.limiter.Forget(connID)
	h.registry.remove(connID)
}

func (h *Hub) emit(connID, eventType string, payload any) {
	h.registry.Send(connID, eventType, payload)
}

func (h *Hub) emitError(connID, eventType string, code protocol.ErrorCode) {
	h.registry.Send(connID, eventType, protocol.Error{Code: code})
}

// HandleRegisterPlayer bootstraps (or resumes) a guest profile for deviceID,
// issues a session token, and attempts to silently rejoin the player's last
// room if one is remembered and still reachable (spec §4.5 reconnection).
func (h *Hub) HandleRegisterPlayer(connID string, meta *ConnMeta, msg protocol.RegisterPlayer) {
	if !h.limiter.Allow(ratelimit.EventRegisterPlayer, ratelimit.ScopeSourceIP, meta.snapshot().sourceIP) {
		h.emitError(connID, protocol.EventAuthError, protocol.ErrRateLimited)
		return
	}
	deviceID := msg.DeviceID
	if deviceID == "" {
		deviceID = newID()
	}
	if !h.limiter.Allow(ratelimit.EventRegisterPlayer, ratelimit.ScopePersistent, deviceID) {
		h.emitError(connID, protocol.EventAuthError, protocol.ErrRateLimited)
		return
	}

	profile, err := h.identity.EnsureGuestProfile(deviceID)
	if err != nil {
		h.emitError(connID, protocol.EventAuthError, protocol.ErrInternal)
		return
	}
	displayName := msg.DisplayName
	if displayName != "" && displayName != profile.DisplayName {
		if updated, err := h.identity.UpdateDisplayName(profile.ProfileID, displayName); err == nil {
			profile = updated
		}
	}

	token, expiresAt, err := h.sessions.Issue(deviceID, profile.DisplayName, profile.ProfileID, profile.FriendCode, profile.Login)
	if err != nil {
		h.emitError(connID, protocol.EventAuthError, protocol.ErrInternal)
		return
	}

	meta.mu.Lock()
	meta.deviceID = deviceID
	meta.profileID = profile.ProfileID
	meta.displayName = profile.DisplayName
	meta.mu.Unlock()

	h.emit(connID, protocol.EventSessionToken, protocol.SessionToken{Token: token, ExpiresAt: expiresAt})

	if stats, matchID, ok := h.matchResults.Pending(deviceID); ok {
		h.emit(connID, protocol.EventMatchResultsPending, protocol.MatchResultsPending{MatchID: matchID, Stats: stats})
	}

	h.attemptReconnect(connID, meta, deviceID)
}

func (h *Hub) attemptReconnect(connID string, meta *ConnMeta, deviceID string) {
	roomCode, ok := h.social.lastRoomOf(deviceID)
	if !ok {
		return
	}
	r, ok := h.rooms.Get(roomCode)
	if !ok {
		return
	}
	allowed, retryAfter := h.reconnect.Allow(deviceID)
	if !allowed {
		h.emit(connID, protocol.EventReconnectLimited, protocol.ReconnectLimited{RetryAfterMS: retryAfter.Milliseconds()})
		return
	}
	playerKey, err := r.Reconnect(deviceID, connID)
	if err != nil {
		return
	}
	meta.setRoom(roomCode, playerKey)
}

func (h *Hub) HandleUpdateName(connID string, meta *ConnMeta, msg protocol.UpdateName) {
	snap := meta.snapshot()
	if snap.profileID == "" {
		h.emitError(connID, protocol.EventAuthError, protocol.ErrAuthRequired)
		return
	}
	profile, err := h.identity.UpdateDisplayName(snap.profileID, msg.DisplayName)
	if err != nil {
		h.emitError(connID, protocol.EventError, protocol.ErrProfileNotFound)
		return
	}
	meta.mu.Lock()
	meta.displayName = profile.DisplayName
	meta.mu.Unlock()
	h.emit(connID, protocol.EventProfileNickUpdated, protocol.ProfileNicknameUpdated{DisplayName: profile.DisplayName})
}

func (h *Hub) HandleCreateRoom(connID string, meta *ConnMeta, msg protocol.CreateRoom) {
	snap := meta.snapshot()
	if snap.deviceID == "" {
		h.emitError(connID, protocol.EventAuthError, protocol.ErrAuthRequired)
		return
	}
	if !h.limiter.Allow(ratelimit.EventCreateRoom, ratelimit.ScopePersistent, snap.deviceID) {
		h.emitError(connID, protocol.EventJoinError, protocol.ErrRateLimited)
		return
	}

	// spec §4.4 createRoom: if the caller already has an in-match room,
	// attempt reconnect first instead of always allocating a new one.
	if roomCode, ok := h.social.lastRoomOf(snap.deviceID); ok {
		if r, ok := h.rooms.Get(roomCode); ok {
			allowed, retryAfter := h.reconnect.Allow(snap.deviceID)
			if !allowed {
				h.emit(connID, protocol.EventReconnectLimited, protocol.ReconnectLimited{RetryAfterMS: retryAfter.Milliseconds()})
				return
			}
			if playerKey, err := r.Reconnect(snap.deviceID, connID); err == nil {
				meta.setRoom(r.Code, playerKey)
				return
			}
		}
	}

	if msg.PlayerName != "" && msg.PlayerName != snap.displayName {
		if updated, err := h.identity.UpdateDisplayName(snap.profileID, msg.PlayerName); err == nil {
			meta.mu.Lock()
			meta.displayName = updated.DisplayName
			meta.mu.Unlock()
			snap = meta.snapshot()
		}
	}

	r, err := h.rooms.Create()
	if err != nil {
		h.emitError(connID, protocol.EventJoinError, protocol.ErrInternal)
		return
	}
	h.wireRoom(r)

	playerKey, _, err := r.Join(snap.deviceID, snap.profileID, snap.displayName, connID)
	if err != nil {
		h.emitError(connID, protocol.EventJoinError, mapRoomError(err))
		return
	}
	meta.setRoom(r.Code, playerKey)
	h.social.rememberRoom(snap.deviceID, r.Code)
	h.emit(connID, protocol.EventRoomCreated, protocol.RoomCreated{RoomCode: r.Code, LeaderID: playerKey})
}

func (h *Hub) HandleJoinRoom(connID string, meta *ConnMeta, msg protocol.JoinRoom) {
	snap := meta.snapshot()
	if snap.deviceID == "" {
		h.emitError(connID, protocol.EventAuthError, protocol.ErrAuthRequired)
		return
	}
	if !h.limiter.Allow(ratelimit.EventJoinRoom, ratelimit.ScopePersistent, snap.deviceID) {
		h.emitError(connID, protocol.EventJoinError, protocol.ErrRateLimited)
		return
	}

	r, ok := h.rooms.Get(msg.RoomCode)
	if !ok {
		h.emitError(connID, protocol.EventJoinError, protocol.ErrRoomNotFound)
		return
	}
	playerKey, _, err := r.Join(snap.deviceID, snap.profileID, snap.displayName, connID)
	if err != nil {
		h.emitError(connID, protocol.EventJoinError, mapRoomError(err))
		return
	}
	meta.setRoom(r.Code, playerKey)
	h.social.rememberRoom(snap.deviceID, r.Code)
}

func (h *Hub) wireRoom(r *room.Room) {
	r.SetFullSnapshotIntervalMS(h.cfg.StateFullSnapshotIntervalMS)
	r.SetAntiCheat(h.anticheat)
	r.SetRewardHooks(h.rewards.ConsumeAtMatchStart, h.rewards.RestoreIfUnused)
	r.SetInvitesClearHook(h.social.clearInvitesForRoom)
	r.SetMatchEndHook(func(roomCode, matchID string, stats []room.MatchStat, recipients []string) {
		wire := make([]protocol.PlayerMatchStat, 0, len(stats))
		for _, s := range stats {
			wire = append(wire, protocol.PlayerMatchStat{
				PlayerKey: s.PlayerKey, DisplayName: s.DisplayName,
				Kills: s.Kills, Deaths: s.Deaths, Killstreak: s.BestKillstreak,
			})
		}
		h.matchResults.Publish(matchID, wire, recipients)
	})
}

func (h *Hub) HandlePlayerReady(connID string, meta *ConnMeta, msg protocol.PlayerReady) {
	snap := meta.snapshot()
	if !h.limiter.Allow(ratelimit.EventPlayerReady, ratelimit.ScopeConnection, connID) {
		return
	}
	if r, ok := h.rooms.Get(snap.roomCode); ok {
		r.SetReady(snap.playerKey, msg.Ready)
	}
}

func (h *Hub) HandleToggleReady(connID string, meta *ConnMeta) {
	snap := meta.snapshot()
	if !h.limiter.Allow(ratelimit.EventToggleReady, ratelimit.ScopeConnection, connID) {
		return
	}
	if r, ok := h.rooms.Get(snap.roomCode); ok {
		r.ToggleReady(snap.playerKey)
	}
}

func (h *Hub) HandleStartGame(connID string, meta *ConnMeta) {
	snap := meta.snapshot()
	if !h.limiter.Allow(ratelimit.EventStartGame, ratelimit.ScopeConnection, connID) {
		return
	}
	r, ok := h.rooms.Get(snap.roomCode)
	if !ok {
		return
	}
	if err := r.StartGame(snap.playerKey); err != nil {
		h.emitError(connID, protocol.EventError, mapRoomError(err))
	}
}

func (h *Hub) HandlePlayerInput(connID string, meta *ConnMeta, msg protocol.PlayerInput) {
	snap := meta.snapshot()
	if snap.playerKey == "" {
		return
	}
	if !h.limiter.Allow(ratelimit.EventPlayerInput, ratelimit.ScopeConnection, connID) {
		return
	}
	if level, blocked := h.anticheat.Blocked(snap.playerKey); blocked && level == anticheat.LevelHardBlock {
		h.emit(connID, protocol.EventAntiCheatAction, protocol.AntiCheatAction{Level: string(level), Reason: "blocked"})
		return
	}
	r, ok := h.rooms.Get(snap.roomCode)
	if !ok {
		return
	}
	r.SubmitInput(snap.playerKey, msg.Seq, room.InputState{
		Up: msg.Up, Down: msg.Down, Left: msg.Left, Right: msg.Right,
		Angle: msg.Angle, Charging: msg.Charging,
	}, time.Now())
}

func (h *Hub) HandleFireProjectile(connID string, meta *ConnMeta, msg protocol.FireProjectile) {
	snap := meta.snapshot()
	if snap.playerKey == "" {
		return
	}
	if !h.limiter.Allow(ratelimit.EventFireProjectile, ratelimit.ScopeConnection, connID) {
		return
	}
	// fireProjectile is rejected on either a soft- or a hard-block (spec
	// §4.7), unlike player input which only stops on a hard-block.
	if level, blocked := h.anticheat.Blocked(snap.playerKey); blocked {
		h.emit(connID, protocol.EventAntiCheatAction, protocol.AntiCheatAction{Level: string(level), Reason: "blocked"})
		return
	}
	r, ok := h.rooms.Get(snap.roomCode)
	if !ok {
		return
	}
	r.FireProjectile(snap.playerKey, msg.Seq, msg.Angle, time.Now())
}

func (h *Hub) HandleLeaveRoom(connID string, meta *ConnMeta) {
	snap := meta.snapshot()
	if !h.limiter.Allow(ratelimit.EventLeaveRoom, ratelimit.ScopeConnection, connID) {
		return
	}
	if r, ok := h.rooms.Get(snap.roomCode); ok {
		r.Leave(snap.playerKey)
	}
	h.social.forgetRoom(snap.deviceID)
	meta.clearRoom()
}

func (h *Hub) HandleKickPlayer(connID string, meta *ConnMeta, msg protocol.KickPlayer) {
	snap := meta.snapshot()
	if !h.limiter.Allow(ratelimit.EventKickPlayer, ratelimit.ScopeConnection, connID) {
		return
	}
	r, ok := h.rooms.Get(snap.roomCode)
	if !ok {
		return
	}
	if err := r.Kick(snap.playerKey, msg.PlayerKey); err != nil {
		h.emitError(connID, protocol.EventError, mapRoomError(err))
	}
}

func (h *Hub) HandleRequestLobbyState(connID string, meta *ConnMeta) {
	snap := meta.snapshot()
	if !h.limiter.Allow(ratelimit.EventRequestLobbyState, ratelimit.ScopeConnection, connID) {
		return
	}
	r, ok := h.rooms.Get(snap.roomCode)
	if !ok {
		return
	}
	lobby := r.RequestLobbyState()
	h.emit(connID, protocol.EventLobbySnapshot, toLobbyUpdate(lobby))
}

func (h *Hub) HandleReturnToLobby(connID string, meta *ConnMeta) {
	snap := meta.snapshot()
	if !h.limiter.Allow(ratelimit.EventReturnToLobby, ratelimit.ScopeConnection, connID) {
		return
	}
	if r, ok := h.rooms.Get(snap.roomCode); ok {
		r.ReturnToLobby(snap.playerKey)
	}
}

func (h *Hub) HandleAckMatchResults(meta *ConnMeta, msg protocol.AckMatchResults) {
	snap := meta.snapshot()
	if snap.deviceID == "" {
		return
	}
	h.matchResults.Ack(snap.deviceID, msg.MatchID)
}

// SendHeartbeat pushes a heartbeat frame to connID, called by the transport
// layer's ping ticker (spec §6.1's keepalive) rather than from any room.
func (h *Hub) SendHeartbeat(connID string) {
	h.emit(connID, protocol.EventHeartbeat, protocol.Heartbeat{ServerTime: time.Now().UnixMilli()})
}

func (h *Hub) HandleClientPing(connID string, msg protocol.ClientPing) {
	h.emit(connID, protocol.EventServerPong, protocol.ServerPong{Echo: msg.SentAt, ServerTime: time.Now().UnixMilli()})
}

func toLobbyUpdate(snap room.LobbySnapshot) protocol.LobbyUpdate {
	out := protocol.LobbyUpdate{RoomCode: snap.RoomCode, MapKey: snap.MapKey}
	for _, p := range snap.Players {
		out.Players = append(out.Players, protocol.LobbyPlayerView{
			PlayerKey: p.PlayerKey, DisplayName: p.DisplayName, Ready: p.Ready, IsLeader: p.IsLeader,
		})
	}
	return out
}

func mapRoomError(err error) protocol.ErrorCode {
	switch err {
	case room.ErrRoomNotFound:
		return protocol.ErrRoomNotFound
	case room.ErrRoomFull:
		return protocol.ErrRoomFull
	case room.ErrRoomAlreadyStarted:
		return protocol.ErrGameAlreadyStarted
	case room.ErrNotRoomLeader:
		return protocol.ErrNotLeader
	case room.ErrNotAllReady:
		return protocol.ErrNotAllReady
	case room.ErrPlayerNotInRoom:
		return protocol.ErrPlayerNotInRoom
	case room.ErrKickTargetMissing:
		return protocol.ErrInvalidKickTarget
	default:
		return protocol.ErrInternal
	}
}
