// Package ids mints the opaque, 128-bit random identifiers used throughout
// the session fabric. ConnectionId, RoomId, PlayerId, and GameId are
// disjoint string namespaces backed by the same uuid generator; a GameId
// equals the originating RoomId (see lobby.Room promotion).
package ids

import "github.com/google/uuid"

// ConnectionID identifies a single live transport connection.
type ConnectionID string

// RoomID identifies a lobby room. A promoted room's GameID equals its RoomID.
type RoomID string

// PlayerID identifies a seat at a table, valid for the lifetime of one game.
type PlayerID string

// GameID identifies a running game. Always equal to the RoomID it was
// promoted from.
type GameID string

// NewConnectionID mints a fresh opaque connection identifier.
func NewConnectionID() ConnectionID {
	return ConnectionID(uuid.New().String())
}

// NewRoomID mints a fresh opaque room identifier.
func NewRoomID() RoomID {
	return RoomID(uuid.New().String())
}

// NewPlayerID mints a fresh opaque player identifier.
func NewPlayerID() PlayerID {
	return PlayerID(uuid.New().String())
}

// GameIDFromRoom converts a RoomID into the GameID of the game it is
// promoted into. A GameId always equals its originating RoomId.
func GameIDFromRoom(r RoomID) GameID {
	return GameID(r)
}
