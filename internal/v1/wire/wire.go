// Package wire defines the JSON-tagged-union payloads that cross the
// transport boundary (§6) and the error taxonomy actors use to classify
// failures (§7). The core never touches a net.Conn or a websocket frame;
// it only ever produces and consumes these Go values, which the transport
// adapter marshals to and from text frames.
package wire

import "github.com/cardtable/arena/internal/v1/ids"

// ClientMessage is one inbound payload, tagged by Type. Only the field
// group commented with that Type below is populated; unused fields are the
// zero value. This mirrors the source JSON's externally-tagged union using
// a single flat struct rather than an interface, trading a few unused
// fields for trivial unmarshalling.
type ClientMessage struct {
	Type ClientMessageType `json:"type"`

	// Chat
	Message string `json:"message,omitempty"`

	// CreateRoom
	RoomName       string `json:"room_name,omitempty"`
	FirstPlayerName string `json:"first_player_name,omitempty"`

	// DestroyRoom, JoinRoom
	RoomID ids.RoomID `json:"room_id,omitempty"`

	// JoinRoom
	PlayerName string `json:"player_name,omitempty"`

	// Ack, acknowledging a reliably-delivered PrivateBoardState push
	AckMessageID string `json:"ack_message_id,omitempty"`
}

// ClientMessageType is the discriminant tag of an inbound ClientMessage.
type ClientMessageType string

const (
	TypePing        ClientMessageType = "Ping"
	TypeChat        ClientMessageType = "Chat"
	TypeCreateRoom  ClientMessageType = "CreateRoom"
	TypeDestroyRoom ClientMessageType = "DestroyRoom"
	TypeJoinRoom    ClientMessageType = "JoinRoom"
	TypeLeaveRoom   ClientMessageType = "LeaveRoom"
	TypePlayerReady ClientMessageType = "PlayerReady"
	TypeTurnPass    ClientMessageType = "TurnPass"
	TypePriorityPass ClientMessageType = "PriorityPass"
	TypeAck          ClientMessageType = "Ack"
)

// Category classifies a ClientMessageType as lobby-bound or game-bound,
// the dispatch rule the ConnectionActor applies to every inbound message
// (§4.5).
type Category int

const (
	CategoryLobby Category = iota
	CategoryGame
)

var categoryByType = map[ClientMessageType]Category{
	TypePing:         CategoryLobby,
	TypeChat:         CategoryLobby,
	TypeCreateRoom:   CategoryLobby,
	TypeDestroyRoom:  CategoryLobby,
	TypeJoinRoom:     CategoryLobby,
	TypeLeaveRoom:    CategoryLobby,
	TypePlayerReady:  CategoryLobby,
	TypeTurnPass:     CategoryGame,
	TypePriorityPass: CategoryGame,
	TypeAck:          CategoryGame,
}

// Category returns the dispatch category of m's Type, or CategoryLobby with
// false if the Type is unrecognised.
func (t ClientMessageType) Category() (Category, bool) {
	cat, ok := categoryByType[t]
	return cat, ok
}

// ServerResponse is one outbound payload, tagged by Type, mirroring
// ClientMessage's externally-tagged-union-as-flat-struct approach.
type ServerResponse struct {
	Type ServerResponseType `json:"type"`

	ConnectionID ids.ConnectionID `json:"connection_id,omitempty"`

	// ChatMessage, SelfJoined, PlayerJoined, PlayerLeft
	PlayerName string `json:"player_name,omitempty"`

	// ChatMessage
	Message string `json:"message,omitempty"`

	// RoomCreated, RoomCreatedBroadcast, RoomDestroyed, LobbyStartedGame
	RoomID ids.RoomID `json:"room_id,omitempty"`

	// RoomCreated, SelfJoined, PlayerJoined, TurnPhaseChange
	PlayerID ids.PlayerID `json:"player_id,omitempty"`

	// PlayersReady
	PlayersReady []ids.PlayerID `json:"players_ready,omitempty"`

	// RoomGameStart
	TurnOrder []ids.PlayerID `json:"turn_order,omitempty"`

	// TurnPhaseChange
	Phase string `json:"phase,omitempty"`

	// PublicBoardState
	LootDeckSize    int                `json:"loot_deck_size,omitempty"`
	LootDiscardSize int                `json:"loot_discard,omitempty"`
	CurrentPhase    string             `json:"current_phase,omitempty"`
	ActivePlayer    ids.PlayerID       `json:"active_player,omitempty"`
	Players         []PublicPlayerView `json:"players,omitempty"`

	// PrivateBoardState. ReliableID/ReliableSequence are set only when the
	// reliable-delivery sublayer (§5) is stamping this push; the client
	// echoes ReliableID back in an Ack message.
	Hand             []HandCardView `json:"hand,omitempty"`
	ReliableID       string         `json:"reliable_id,omitempty"`
	ReliableSequence uint64         `json:"reliable_sequence,omitempty"`

	// GameEnded
	WinnerID ids.PlayerID `json:"winner_id,omitempty"`

	// Error
	ErrorType string `json:"error_type,omitempty"`
	Code      int    `json:"code,omitempty"`
}

// PublicPlayerView is the per-player slice of a PublicBoardState: hand size
// only, never hand contents, per the §4.11 confidentiality rule.
type PublicPlayerView struct {
	PlayerID      ids.PlayerID `json:"player_id"`
	HandSize      int          `json:"hand_size"`
	CurrentHealth uint8        `json:"current_health"`
	MaxHealth     uint8        `json:"max_health"`
}

// HandCardView is one card in a PrivateBoardState's full hand contents,
// visible only to the owning player's connection.
type HandCardView struct {
	EntityID   string `json:"entity_id"`
	TemplateID string `json:"template_id"`
	Name       string `json:"name"`
}

// ServerResponseType is the discriminant tag of an outbound ServerResponse.
type ServerResponseType string

const (
	TypeConnectionID         ServerResponseType = "ConnectionId"
	TypePong                 ServerResponseType = "Pong"
	TypeChatMessage          ServerResponseType = "ChatMessage"
	TypeRoomCreated          ServerResponseType = "RoomCreated"
	TypeRoomCreatedBroadcast ServerResponseType = "RoomCreatedBroadcast"
	TypeRoomDestroyed        ServerResponseType = "RoomDestroyed"
	TypeSelfJoined           ServerResponseType = "SelfJoined"
	TypePlayerJoined         ServerResponseType = "PlayerJoined"
	TypePlayerLeft           ServerResponseType = "PlayerLeft"
	TypePlayersReady         ServerResponseType = "PlayersReady"
	TypeLobbyStartedGame     ServerResponseType = "LobbyStartedGame"
	TypeRoomGameStart        ServerResponseType = "RoomGameStart"
	TypeTurnPhaseChange      ServerResponseType = "TurnPhaseChange"
	TypePublicBoardState     ServerResponseType = "PublicBoardState"
	TypePrivateBoardState    ServerResponseType = "PrivateBoardState"
	TypeGameEnded            ServerResponseType = "GameEnded"
	TypeError                ServerResponseType = "Error"
)
