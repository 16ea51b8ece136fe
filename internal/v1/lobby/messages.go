package lobby

import "github.com/cardtable/arena/internal/v1/ids"

// PingMsg requests a Pong back to Conn.
type PingMsg struct{ Conn ids.ConnectionID }

// ChatMsg broadcasts Message to every connection sharing Conn's room.
type ChatMsg struct {
	Conn    ids.ConnectionID
	Message string
}

// CreateRoomMsg creates a room named RoomName and seats Conn as its first
// player under FirstPlayerName.
type CreateRoomMsg struct {
	Conn            ids.ConnectionID
	RoomName        string
	FirstPlayerName string
}

// DestroyRoomMsg tears down RoomID, evicting any running GameActor.
type DestroyRoomMsg struct {
	Conn   ids.ConnectionID
	RoomID ids.RoomID
}

// JoinRoomMsg seats Conn into RoomID under PlayerName.
type JoinRoomMsg struct {
	Conn       ids.ConnectionID
	PlayerName string
	RoomID     ids.RoomID
}

// LeaveRoomMsg removes Conn from whatever room it currently occupies.
type LeaveRoomMsg struct{ Conn ids.ConnectionID }

// PlayerReadyMsg marks Conn's seat ready, possibly promoting the room.
type PlayerReadyMsg struct{ Conn ids.ConnectionID }

func (PingMsg) isLobbyMessage()        {}
func (ChatMsg) isLobbyMessage()        {}
func (CreateRoomMsg) isLobbyMessage()  {}
func (DestroyRoomMsg) isLobbyMessage() {}
func (JoinRoomMsg) isLobbyMessage()    {}
func (LeaveRoomMsg) isLobbyMessage()   {}
func (PlayerReadyMsg) isLobbyMessage() {}
