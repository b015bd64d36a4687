package room

import "errors"

var (
	errRoomCodeExhausted = errors.New("room: no unused room code available")

	ErrRoomNotFound       = errors.New("room: not found")
	ErrRoomFull           = errors.New("room: full")
	ErrRoomAlreadyStarted = errors.New("room: already started")
	ErrNotRoomLeader      = errors.New("room: not leader")
	ErrNotAllReady        = errors.New("room: not all connected non-leader players ready")
	ErrPlayerNotInRoom    = errors.New("room: player not in room")
	ErrKickTargetMissing  = errors.New("room: kick target not found")
)
