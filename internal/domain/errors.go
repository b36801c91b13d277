package domain

import "errors"

var (
	// ErrRoomNotFound is returned when the target room does not exist or the
	// supplied identifier is malformed. Distinct from ErrRoomFull: callers
	// must not tell a user a never-created room is "full".
	ErrRoomNotFound = errors.New("room not found")

	// ErrRoomFull is returned when a room already holds two members.
	ErrRoomFull = errors.New("room is full")
)
