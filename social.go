package arenaserver

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"arenaserver/internal/identity"
	"arenaserver/internal/protocol"
	"arenaserver/internal/ratelimit"
	"arenaserver/internal/room"
)

func newID() string {
	return uuid.NewString()
}

const partyInviteTTL = 45 * time.Second

type pendingPartyInvite struct {
	fromProfileID string
	toProfileID   string
	roomCode      string
	expiresAt     time.Time
}

// socialState holds the lightweight bookkeeping the friends/party/ads
// surface needs beyond what the Identity-Store adapter already models:
// the device's last room (for silent reconnection) and in-flight party
// invites, sized the way the teacher keeps small keyed maps of transient
// state directly on the Hub (hub.go's cooldowns map) rather than a
// dedicated package.
type socialState struct {
	mu       sync.Mutex
	lastRoom map[string]string
	invites  map[string]*pendingPartyInvite
}

func newSocialState() *socialState {
	return &socialState{
		lastRoom: make(map[string]string),
		invites:  make(map[string]*pendingPartyInvite),
	}
}

func (s *socialState) rememberRoom(deviceID, roomCode string) {
	if deviceID == "" {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastRoom[deviceID] = roomCode
}

func (s *socialState) forgetRoom(deviceID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.lastRoom, deviceID)
}

func (s *socialState) lastRoomOf(deviceID string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	code, ok := s.lastRoom[deviceID]
	return code, ok
}

// clearInvitesForRoom invalidates every pending party invite targeting
// roomCode (spec §3 invariant: invites are invalidated when a room ceases
// to be in lobby, e.g. at startGame).
func (s *socialState) clearInvitesForRoom(roomCode string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, inv := range s.invites {
		if inv.roomCode == roomCode {
			delete(s.invites, id)
		}
	}
}

func (h *Hub) HandleFriendRequest(connID string, meta *ConnMeta, msg protocol.FriendRequest) {
	snap := meta.snapshot()
	if snap.profileID == "" {
		h.emitError(connID, protocol.EventError, protocol.ErrAuthRequired)
		return
	}
	if !h.limiter.Allow(ratelimit.EventFriendsGeneric, ratelimit.ScopePersistent, snap.deviceID) {
		h.emitError(connID, protocol.EventError, protocol.ErrRateLimited)
		return
	}
	if err := h.identity.AddFriend(snap.profileID, msg.ProfileID); err != nil {
		code := protocol.ErrInternal
		if err == identity.ErrFriendAlreadyAdded {
			code = protocol.ErrAlreadyFriends
		}
		h.emitError(connID, protocol.EventError, code)
		return
	}
	h.emitFriendsState(connID, snap.profileID)
}

func (h *Hub) HandleFriendRespond(connID string, meta *ConnMeta, msg protocol.FriendRespond) {
	// The in-memory identity adapter models friendship as a direct,
	// one-directional add (only the caller's list changes) rather than a
	// request/accept pair, so responding to a request id only re-sends the
	// caller's current friend list.
	snap := meta.snapshot()
	if !h.limiter.Allow(ratelimit.EventFriendsGeneric, ratelimit.ScopePersistent, snap.deviceID) {
		return
	}
	h.emitFriendsState(connID, snap.profileID)
}

func (h *Hub) HandleFriendRemove(connID string, meta *ConnMeta, msg protocol.FriendRemove) {
	snap := meta.snapshot()
	if !h.limiter.Allow(ratelimit.EventFriendsGeneric, ratelimit.ScopePersistent, snap.deviceID) {
		return
	}
	if err := h.identity.RemoveFriend(snap.profileID, msg.ProfileID); err != nil {
		h.emitError(connID, protocol.EventError, protocol.ErrFriendNotFound)
		return
	}
	h.emitFriendsState(connID, snap.profileID)
}

func (h *Hub) emitFriendsState(connID, profileID string) {
	friends, err := h.identity.ListFriends(profileID)
	if err != nil {
		return
	}
	view := make([]protocol.FriendView, 0, len(friends))
	for _, f := range friends {
		view = append(view, protocol.FriendView{ProfileID: f.ProfileID, DisplayName: f.DisplayName, Online: h.isOnline(f.ProfileID)})
	}
	h.emit(connID, protocol.EventFriendsState, protocol.FriendsState{Friends: view})
}

func (h *Hub) isOnline(profileID string) bool {
	h.registry.mu.RLock()
	defer h.registry.mu.RUnlock()
	for _, m := range h.registry.meta {
		if m.snapshot().profileID == profileID {
			return true
		}
	}
	return false
}

// HandlePartyInvite creates a pending invite from the caller's profile to
// msg.ProfileID, valid for 45s (spec §8 example 6). Delivery to the target's
// live connections is best-effort: offline targets simply never see it.
func (h *Hub) HandlePartyInvite(connID string, meta *ConnMeta, msg protocol.PartyInvite) {
	snap := meta.snapshot()
	if !h.limiter.Allow(ratelimit.EventPartyInvite, ratelimit.ScopePersistent, snap.deviceID) {
		h.emitError(connID, protocol.EventError, protocol.ErrRateLimited)
		return
	}
	if snap.roomCode == "" {
		h.emitError(connID, protocol.EventError, protocol.ErrPartyNotFound)
		return
	}
	inviteID := newID()
	h.social.mu.Lock()
	h.social.invites[inviteID] = &pendingPartyInvite{
		fromProfileID: snap.profileID,
		toProfileID:   msg.ProfileID,
		roomCode:      snap.roomCode,
		expiresAt:     time.Now().Add(partyInviteTTL),
	}
	h.social.mu.Unlock()

	h.forEachConnOfProfile(msg.ProfileID, func(targetConnID string) {
		h.emit(targetConnID, protocol.EventPartyLobbyState, protocol.PartyLobbyState{Members: []string{snap.profileID}, LeaderID: snap.profileID})
	})
}

func (h *Hub) HandlePartyInviteRespond(connID string, meta *ConnMeta, msg protocol.PartyInviteRespond) {
	snap := meta.snapshot()
	if !h.limiter.Allow(ratelimit.EventPartyInviteRespond, ratelimit.ScopePersistent, snap.deviceID) {
		return
	}
	h.social.mu.Lock()
	invite, ok := h.social.invites[msg.InviteID]
	if ok {
		delete(h.social.invites, msg.InviteID)
	}
	h.social.mu.Unlock()
	if !ok || time.Now().After(invite.expiresAt) {
		h.emitError(connID, protocol.EventError, protocol.ErrPartyInviteExpired)
		return
	}
	if !msg.Accept {
		return
	}

	r, ok := h.rooms.Get(invite.roomCode)
	if !ok {
		h.emitError(connID, protocol.EventJoinError, protocol.ErrRoomNotFound)
		return
	}
	if snap.roomCode != "" {
		if old, ok := h.rooms.Get(snap.roomCode); ok {
			old.Leave(snap.playerKey)
		}
	}
	playerKey, _, err := r.Join(snap.deviceID, snap.profileID, snap.displayName, connID)
	if err != nil {
		h.emitError(connID, protocol.EventJoinError, mapRoomError(err))
		return
	}
	meta.setRoom(r.Code, playerKey)
	h.social.rememberRoom(snap.deviceID, r.Code)
}

func (h *Hub) HandlePartyLeave(connID string, meta *ConnMeta) {
	h.HandleLeaveRoom(connID, meta)
}

// HandleAdsWatched grants the instant-respawn reward flag (spec §4.9) and
// pushes the updated state to every live connection for this persistent id.
// Precondition (spec §4.9): rejected while the caller is in an active match
// or already readied up in a lobby.
func (h *Hub) HandleAdsWatched(connID string, meta *ConnMeta, msg protocol.AdsWatched) {
	snap := meta.snapshot()
	if snap.deviceID == "" {
		return
	}
	if snap.roomCode != "" {
		if r, ok := h.rooms.Get(snap.roomCode); ok {
			lobby := r.RequestLobbyState()
			if lobby.State == room.StatePlaying || lobby.State == room.StateStarting {
				h.emitError(connID, protocol.EventError, protocol.ErrInMatch)
				return
			}
			for _, p := range lobby.Players {
				if p.PlayerKey == snap.playerKey && p.Ready {
					h.emitError(connID, protocol.EventError, protocol.ErrNotAllowedWhileReady)
					return
				}
			}
		}
	}
	h.rewards.SetPending(snap.deviceID)
	h.forEachConnOfDevice(snap.deviceID, func(c string) {
		h.emit(c, protocol.EventAdsState, protocol.AdsState{PlacementID: msg.PlacementID, Rewarded: true})
	})
}

func (h *Hub) forEachConnOfProfile(profileID string, fn func(connID string)) {
	h.registry.mu.RLock()
	matches := make([]string, 0, 1)
	for connID, m := range h.registry.meta {
		if m.snapshot().profileID == profileID {
			matches = append(matches, connID)
		}
	}
	h.registry.mu.RUnlock()
	for _, c := range matches {
		fn(c)
	}
}

func (h *Hub) forEachConnOfDevice(deviceID string, fn func(connID string)) {
	h.registry.mu.RLock()
	matches := make([]string, 0, 1)
	for connID, m := range h.registry.meta {
		if m.snapshot().deviceID == deviceID {
			matches = append(matches, connID)
		}
	}
	h.registry.mu.RUnlock()
	for _, c := range matches {
		fn(c)
	}
}
