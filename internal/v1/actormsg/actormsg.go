// Package actormsg defines the marker interfaces that let the registry
// hold onto typed inboxes for the lobby actor, every game actor, and every
// connection actor without importing any of those packages (which in turn
// import the registry to route messages). Each concrete message type lives
// in its owning package and satisfies the relevant marker method.
package actormsg

import "github.com/cardtable/arena/internal/v1/ids"

// LobbyMessage is implemented by every variant the LobbyActor's inbox
// accepts (lobby.PingMsg, lobby.ChatMsg, ...).
type LobbyMessage interface {
	isLobbyMessage()
}

// GameMessage is implemented by every variant a GameActor's inbox accepts
// (game.TurnPassMsg, game.PriorityPassMsg, ...).
type GameMessage interface {
	isGameMessage()
}

// ConnectionMessage is implemented by every variant a ConnectionActor's
// inbox accepts (connection.ClientMessageMsg, connection.DisconnectMsg, ...).
type ConnectionMessage interface {
	isConnectionMessage()
}

// TransitionToGameMsg and TransitionToLobbyMsg live here rather than in the
// lobby or connection package: the lobby actor sends them on game
// promotion and the connection actor consumes them to flip its
// ConnectionState, and neither package may import the other.

// TransitionToGameMsg tells a ConnectionActor it has been seated into a
// running game.
type TransitionToGameMsg struct {
	GameID   ids.GameID
	PlayerID ids.PlayerID
}

// TransitionToLobbyMsg tells a ConnectionActor to return to InLobby state.
type TransitionToLobbyMsg struct{}

func (TransitionToGameMsg) isConnectionMessage()  {}
func (TransitionToLobbyMsg) isConnectionMessage() {}
