// Package lobby implements the pre-game room lifecycle (C4) and the
// single process-wide LobbyActor (C6) that owns every Room. Room data is
// never touched outside the LobbyActor's own goroutine; every other
// component only ever sees the outbound responses the actor emits.
package lobby

import (
	"errors"

	"github.com/cardtable/arena/internal/v1/ids"
)

const (
	maxPlayers = 4
	minPlayers = 2
)

// State is the lifecycle stage of a Room.
type State int

const (
	StateLobby State = iota
	StateInGame
)

var (
	ErrRoomFull            = errors.New("lobby: room is full")
	ErrRoomInGame          = errors.New("lobby: room is no longer in the lobby phase")
	ErrRoomNameEmpty       = errors.New("lobby: room name must not be blank")
	ErrConnectionNotInRoom = errors.New("lobby: connection is not a member of this room")
)

// Room is lobby-phase membership and readiness for one table (§3, §4.4).
// Only the LobbyActor's goroutine ever calls its methods; it carries no
// mutex of its own.
type Room struct {
	ID           ids.RoomID
	Name         string
	Players      map[ids.PlayerID]string
	PlayersReady map[ids.PlayerID]struct{}
	State        State
}

// NewRoom creates a fresh Lobby-state room with the given display name.
func NewRoom(name string) *Room {
	return &Room{
		ID:           ids.NewRoomID(),
		Name:         name,
		Players:      make(map[ids.PlayerID]string),
		PlayersReady: make(map[ids.PlayerID]struct{}),
		State:        StateLobby,
	}
}

// AddPlayer seats a new player under playerName, failing ErrRoomFull or
// ErrRoomInGame as appropriate, and returns the freshly minted PlayerID.
func (r *Room) AddPlayer(playerName string) (ids.PlayerID, error) {
	if r.State != StateLobby {
		return "", ErrRoomInGame
	}
	if len(r.Players) >= maxPlayers {
		return "", ErrRoomFull
	}
	pid := ids.NewPlayerID()
	r.Players[pid] = playerName
	return pid, nil
}

// RemovePlayer evicts pid from the room's membership and ready set.
func (r *Room) RemovePlayer(pid ids.PlayerID) error {
	if r.State != StateLobby {
		return ErrRoomInGame
	}
	delete(r.Players, pid)
	delete(r.PlayersReady, pid)
	return nil
}

// AddPlayerReady idempotently marks pid ready and returns the current
// ready set's player ids.
func (r *Room) AddPlayerReady(pid ids.PlayerID) ([]ids.PlayerID, error) {
	if _, ok := r.Players[pid]; !ok {
		return nil, ErrConnectionNotInRoom
	}
	r.PlayersReady[pid] = struct{}{}
	return r.readyList(), nil
}

func (r *Room) readyList() []ids.PlayerID {
	out := make([]ids.PlayerID, 0, len(r.PlayersReady))
	for pid := range r.PlayersReady {
		out = append(out, pid)
	}
	return out
}

// PlayerIDs returns every seated player id, order unspecified.
func (r *Room) PlayerIDs() []ids.PlayerID {
	out := make([]ids.PlayerID, 0, len(r.Players))
	for pid := range r.Players {
		out = append(out, pid)
	}
	return out
}

// CanStartGame reports whether every seated player is ready, the room is
// still in Lobby state, and the room has met the minimum player count.
// This is the full production predicate; the source's debug short-circuit
// (start on any single ready) is exposed separately via FastStart.
func (r *Room) CanStartGame() bool {
	return r.State == StateLobby &&
		len(r.Players) >= minPlayers &&
		len(r.PlayersReady) == len(r.Players)
}

// CanStartGameFastStart is the debug short-circuit: any single ready
// player is sufficient, gated by the caller on the process-wide FastStart
// config flag (see §9.5 of the expanded specification).
func (r *Room) CanStartGameFastStart() bool {
	return r.State == StateLobby && len(r.PlayersReady) > 0
}

// SetStateInGame transitions the room from Lobby to InGame. Idempotent
// only from Lobby; calling it again from InGame is a no-op.
func (r *Room) SetStateInGame() {
	if r.State == StateLobby {
		r.State = StateInGame
	}
}

// IsEmpty reports whether the room currently has no seated players.
func (r *Room) IsEmpty() bool {
	return len(r.Players) == 0
}
