// Package protocol defines the wire vocabulary shared between the transport
// layer and the room/session/identity domain packages: inbound/outbound
// event payloads and the stable error-code taxonomy (spec §7), following the
// teacher's messages.go convention of small, flat, JSON-tagged structs per
// wire message rather than one polymorphic envelope type.
package protocol

// ErrorCode is a stable string identifier sent to clients on rejected
// requests, never a human-readable sentence, so the client can branch on it.
type ErrorCode string

const (
	// Auth
	ErrAuthRequired        ErrorCode = "AUTH_REQUIRED"
	ErrAuthContextRequired ErrorCode = "AUTH_CONTEXT_REQUIRED"
	ErrInvalidCredentials  ErrorCode = "INVALID_CREDENTIALS"
	ErrEmailNotVerified    ErrorCode = "EMAIL_NOT_VERIFIED"
	ErrAccountSuspended    ErrorCode = "ACCOUNT_SUSPENDED"

	// Lobby / room lifecycle
	ErrRoomNotFound       ErrorCode = "ROOM_NOT_FOUND"
	ErrRoomFull           ErrorCode = "ROOM_FULL"
	ErrGameAlreadyStarted ErrorCode = "GAME_ALREADY_STARTED"
	ErrNotLeader          ErrorCode = "NOT_LEADER"
	ErrNotAllReady        ErrorCode = "NOT_ALL_READY"
	ErrInvalidKickTarget  ErrorCode = "INVALID_KICK_TARGET"
	ErrActiveMatchLock    ErrorCode = "ACTIVE_MATCH_LOCK"
	ErrPlayerNotInRoom    ErrorCode = "PLAYER_NOT_IN_ROOM"

	// Party / friends
	ErrProfileNotFound            ErrorCode = "PROFILE_NOT_FOUND"
	ErrFriendRequestAlreadyExists ErrorCode = "FRIEND_REQUEST_ALREADY_EXISTS"
	ErrAlreadyFriends             ErrorCode = "ALREADY_FRIENDS"
	ErrFriendRequestNotFound      ErrorCode = "FRIEND_REQUEST_NOT_FOUND"
	ErrPartyInviteNotAllowed      ErrorCode = "PARTY_INVITE_NOT_ALLOWED"
	ErrPartyInviteExpired         ErrorCode = "PARTY_INVITE_EXPIRED"
	ErrTargetNotOnline            ErrorCode = "TARGET_NOT_ONLINE"
	ErrTargetAlreadyInParty       ErrorCode = "TARGET_ALREADY_IN_PARTY"
	ErrPartyNotFound              ErrorCode = "PARTY_NOT_FOUND"
	ErrFriendNotFound             ErrorCode = "FRIEND_NOT_FOUND"

	// Rate / abuse
	ErrRateLimited      ErrorCode = "RATE_LIMITED"
	ErrReconnectLimited ErrorCode = "RECONNECT_LIMITED"

	// Reward
	ErrInMatch              ErrorCode = "IN_MATCH"
	ErrNotAllowedWhileReady ErrorCode = "NOT_ALLOWED_WHILE_READY"
	ErrInvalidRewardType    ErrorCode = "INVALID_REWARD_TYPE"

	// Generic
	ErrInternal ErrorCode = "INTERNAL_ERROR"
)
