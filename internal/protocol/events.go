package protocol

// Event type strings for the Envelope/OutEnvelope Type discriminator.
const (
	// Inbound
	EventRegisterPlayer      = "registerPlayer"
	EventUpdateName          = "updateName"
	EventCreateRoom          = "createRoom"
	EventJoinRoom            = "joinRoom"
	EventPlayerReady         = "playerReady"
	EventToggleReady         = "toggleReady"
	EventStartGame           = "startGame"
	EventPlayerInput         = "playerInput"
	EventFireProjectile      = "fireProjectile"
	EventLeaveRoom           = "leaveRoom"
	EventRequestLobbyState   = "requestLobbyState"
	EventReturnToLobby       = "returnToLobby"
	EventAckMatchResults     = "ackMatchResults"
	EventKickPlayer          = "kickPlayer"
	EventClientPing          = "clientPing"
	EventPong                = "pong"
	EventFriendRequest       = "friends:request"
	EventFriendRespond       = "friends:respond"
	EventFriendRemove        = "friends:remove"
	EventPartyInvite         = "party:invite"
	EventPartyInviteRespond  = "party:inviteRespond"
	EventPartyLeave          = "party:leave"
	EventAdsWatched          = "ads:watched"

	// Outbound
	EventSessionToken         = "sessionToken"
	EventHeartbeat            = "heartbeat"
	EventServerPong           = "serverPong"
	EventRoomCreated          = "roomCreated"
	EventPlayerJoined         = "playerJoined"
	EventPlayerLeft           = "playerLeft"
	EventLobbyUpdate          = "lobbyUpdate"
	EventUpdatePlayers        = "updatePlayers"
	EventPlayerReadyUpdate    = "playerReadyUpdate"
	EventNewLeader            = "newLeader"
	EventGameStarting         = "gameStarting"
	EventCountdownStart       = "countdownStart"
	EventGameStarted          = "gameStarted"
	EventGameStart            = "gameStart"
	EventStateUpdate          = "stateUpdate"
	EventProjectileFired      = "projectileFired"
	EventHitEffect            = "hitEffect"
	EventShieldBreak          = "shieldBreak"
	EventPlayerKilled         = "playerKilled"
	EventPlayerRespawn        = "playerRespawn"
	EventBuffPickup           = "buffPickup"
	EventBuffRespawn          = "buffRespawn"
	EventInstantRespawnUsed   = "instantRespawnUsed"
	EventGameEnd              = "gameEnd"
	EventMatchResultsPending  = "matchResultsPending"
	EventKickedFromParty      = "kickedFromParty"
	EventReconnectedToGame    = "reconnectedToGame"
	EventReconnectLimited     = "reconnectLimited"
	EventAntiCheatAction      = "antiCheatAction"
	EventAuthError            = "authError"
	EventJoinError            = "joinError"
	EventError                = "error"
	EventFriendsState         = "friends:state"
	EventPartyLobbyState      = "party:lobbyState"
	EventLobbySnapshot        = "lobbySnapshot"
	EventAdsState             = "ads:state"
	EventProfileNickUpdated   = "profile:nicknameUpdated"
)
