package lobby

import (
	"context"
	"encoding/json"
	"strings"

	"go.uber.org/zap"

	"github.com/cardtable/arena/internal/v1/actormsg"
	"github.com/cardtable/arena/internal/v1/catalog"
	"github.com/cardtable/arena/internal/v1/delivery"
	"github.com/cardtable/arena/internal/v1/game"
	"github.com/cardtable/arena/internal/v1/ids"
	"github.com/cardtable/arena/internal/v1/logging"
	"github.com/cardtable/arena/internal/v1/metrics"
	"github.com/cardtable/arena/internal/v1/registry"
	"github.com/cardtable/arena/internal/v1/wire"
)

const inboxSize = 256

// memberInfo is one connection's membership record, indexed by connection
// id so the actor can resolve conn → room without scanning every room.
type memberInfo struct {
	roomID     ids.RoomID
	playerID   ids.PlayerID
	playerName string
}

// Actor is the single process-wide LobbyActor (C6). It owns every Room and
// is the only component that mutates lobby data; all access happens from
// its own goroutine in response to inbox messages.
type Actor struct {
	rooms              map[ids.RoomID]*Room
	connToRoomInfo     map[ids.ConnectionID]memberInfo
	roomToConnections  map[ids.RoomID]map[ids.ConnectionID]struct{}

	registry  *registry.ActorRegistry
	catalogue *catalog.Catalogue
	outbox    chan<- delivery.Command
	inbox     chan actormsg.LobbyMessage

	// fastStart mirrors the source's debug short-circuit (promote on the
	// first ready player) behind an explicit config flag instead of a
	// hard-coded constant.
	fastStart bool
}

// NewActor constructs the LobbyActor. The returned actor owns its inbox;
// callers register it with the ActorRegistry via Inbox() and start it with
// Run in its own goroutine before any connection is accepted.
func NewActor(reg *registry.ActorRegistry, catalogue *catalog.Catalogue, outbox chan<- delivery.Command, fastStart bool) *Actor {
	return &Actor{
		rooms:             make(map[ids.RoomID]*Room),
		connToRoomInfo:    make(map[ids.ConnectionID]memberInfo),
		roomToConnections: make(map[ids.RoomID]map[ids.ConnectionID]struct{}),
		registry:          reg,
		catalogue:         catalogue,
		outbox:            outbox,
		inbox:             make(chan actormsg.LobbyMessage, inboxSize),
		fastStart:         fastStart,
	}
}

// Inbox returns the send handle to register with the ActorRegistry.
func (a *Actor) Inbox() chan<- actormsg.LobbyMessage { return a.inbox }

// SetRegistry wires the registry after construction, for callers that must
// build the ActorRegistry from the lobby actor's own Inbox() first (the
// registry and the lobby actor otherwise depend on each other).
func (a *Actor) SetRegistry(reg *registry.ActorRegistry) { a.registry = reg }

// Run drains the inbox until ctx is cancelled or the channel is closed.
// The lobby actor is expected to run for the lifetime of the process.
func (a *Actor) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-a.inbox:
			if !ok {
				return
			}
			a.handle(ctx, msg)
		}
	}
}

func (a *Actor) handle(ctx context.Context, msg actormsg.LobbyMessage) {
	switch m := msg.(type) {
	case PingMsg:
		a.sendOne(m.Conn, wire.ServerResponse{Type: wire.TypePong})
	case ChatMsg:
		a.handleChat(m)
	case CreateRoomMsg:
		a.handleCreateRoom(m)
	case DestroyRoomMsg:
		a.handleDestroyRoom(m)
	case JoinRoomMsg:
		a.handleJoinRoom(m)
	case LeaveRoomMsg:
		a.handleLeaveRoom(m)
	case PlayerReadyMsg:
		a.handlePlayerReady(ctx, m)
	default:
		logging.Warn(nil, "lobby actor received unrecognised message")
	}
}

func (a *Actor) handleChat(m ChatMsg) {
	info, ok := a.connToRoomInfo[m.Conn]
	if !ok {
		a.sendError(m.Conn, wire.NewError(wire.ClassClient, "ConnectionNotInRoom", "you are not in a room"))
		return
	}
	a.broadcastRoom(info.roomID, wire.ServerResponse{
		Type:       wire.TypeChatMessage,
		PlayerName: info.playerName,
		Message:    m.Message,
	})
}

func (a *Actor) handleCreateRoom(m CreateRoomMsg) {
	if strings.TrimSpace(m.RoomName) == "" {
		a.sendError(m.Conn, wire.NewError(wire.ClassValidation, "RoomNameEmpty", "room name must not be blank"))
		return
	}
	if _, alreadyIn := a.connToRoomInfo[m.Conn]; alreadyIn {
		a.sendError(m.Conn, wire.NewError(wire.ClassClient, "AlreadyInRoom", "you are already in a room"))
		return
	}

	room := NewRoom(m.RoomName)
	playerID, err := room.AddPlayer(m.FirstPlayerName)
	if err != nil {
		a.sendError(m.Conn, wire.NewError(wire.ClassServer, "Internal", err.Error()))
		return
	}

	a.rooms[room.ID] = room
	a.roomToConnections[room.ID] = map[ids.ConnectionID]struct{}{m.Conn: {}}
	a.connToRoomInfo[m.Conn] = memberInfo{roomID: room.ID, playerID: playerID, playerName: m.FirstPlayerName}

	metrics.ActiveRooms.Inc()
	metrics.RoomPlayers.WithLabelValues(string(room.ID)).Set(1)

	a.sendOne(m.Conn, wire.ServerResponse{Type: wire.TypeRoomCreated, RoomID: room.ID, PlayerID: playerID})
	a.sendAll(wire.ServerResponse{Type: wire.TypeRoomCreatedBroadcast, RoomID: room.ID})
}

func (a *Actor) handleDestroyRoom(m DestroyRoomMsg) {
	room, ok := a.rooms[m.RoomID]
	if !ok {
		a.sendError(m.Conn, wire.NewError(wire.ClassClient, "RoomNotFound", "no such room"))
		return
	}

	for connID := range a.roomToConnections[room.ID] {
		if err := a.registry.SendToConnectionActor(connID, actormsg.TransitionToLobbyMsg{}); err != nil {
			logging.Warn(nil, "failed to notify connection of room destruction", zap.String("connection_id", string(connID)), zap.Error(err))
		}
		delete(a.connToRoomInfo, connID)
	}
	delete(a.roomToConnections, room.ID)
	delete(a.rooms, room.ID)
	metrics.ActiveRooms.Dec()
	metrics.RoomPlayers.DeleteLabelValues(string(room.ID))

	a.registry.CleanupGameActor(ids.GameIDFromRoom(room.ID))
	a.sendAll(wire.ServerResponse{Type: wire.TypeRoomDestroyed, RoomID: room.ID})
}

func (a *Actor) handleJoinRoom(m JoinRoomMsg) {
	if _, alreadyIn := a.connToRoomInfo[m.Conn]; alreadyIn {
		a.sendError(m.Conn, wire.NewError(wire.ClassClient, "AlreadyInRoom", "you are already in a room"))
		return
	}
	room, ok := a.rooms[m.RoomID]
	if !ok {
		a.sendError(m.Conn, wire.NewError(wire.ClassClient, "RoomNotFound", "no such room"))
		return
	}

	playerID, err := room.AddPlayer(m.PlayerName)
	if err != nil {
		a.sendError(m.Conn, wire.NewError(wire.ClassClient, classifyRoomErr(err), err.Error()))
		return
	}

	if a.roomToConnections[room.ID] == nil {
		a.roomToConnections[room.ID] = make(map[ids.ConnectionID]struct{})
	}
	a.roomToConnections[room.ID][m.Conn] = struct{}{}
	a.connToRoomInfo[m.Conn] = memberInfo{roomID: room.ID, playerID: playerID, playerName: m.PlayerName}
	for connID := range a.roomToConnections[room.ID] {
		a.sendOne(connID, wire.ServerResponse{Type: wire.TypePlayerJoined, PlayerName: m.PlayerName, PlayerID: playerID})
	}
	metrics.RoomPlayers.WithLabelValues(string(room.ID)).Set(float64(len(room.Players)))

	a.sendOne(m.Conn, wire.ServerResponse{Type: wire.TypeSelfJoined, PlayerName: m.PlayerName, PlayerID: playerID})
}

func (a *Actor) handleLeaveRoom(m LeaveRoomMsg) {
	info, ok := a.connToRoomInfo[m.Conn]
	if !ok {
		a.sendError(m.Conn, wire.NewError(wire.ClassClient, "ConnectionNotInRoom", "you are not in a room"))
		return
	}

	room := a.rooms[info.roomID]
	delete(a.connToRoomInfo, m.Conn)
	if conns := a.roomToConnections[info.roomID]; conns != nil {
		delete(conns, m.Conn)
	}
	if room != nil {
		_ = room.RemovePlayer(info.playerID)
	}

	if room == nil || room.IsEmpty() {
		delete(a.rooms, info.roomID)
		delete(a.roomToConnections, info.roomID)
		metrics.ActiveRooms.Dec()
		metrics.RoomPlayers.DeleteLabelValues(string(info.roomID))
		return
	}
	metrics.RoomPlayers.WithLabelValues(string(info.roomID)).Set(float64(len(room.Players)))

	a.broadcastRoom(info.roomID, wire.ServerResponse{Type: wire.TypePlayerLeft, PlayerName: info.playerName})
}

func (a *Actor) handlePlayerReady(ctx context.Context, m PlayerReadyMsg) {
	info, ok := a.connToRoomInfo[m.Conn]
	if !ok {
		a.sendError(m.Conn, wire.NewError(wire.ClassClient, "ConnectionNotInRoom", "you are not in a room"))
		return
	}
	room, ok := a.rooms[info.roomID]
	if !ok {
		a.sendError(m.Conn, wire.NewError(wire.ClassClient, "RoomNotFound", "no such room"))
		return
	}

	readySet, err := room.AddPlayerReady(info.playerID)
	if err != nil {
		a.sendError(m.Conn, wire.NewError(wire.ClassClient, "ConnectionNotInRoom", err.Error()))
		return
	}

	startable := room.CanStartGame()
	if a.fastStart {
		startable = startable || room.CanStartGameFastStart()
	}

	if !startable {
		a.broadcastRoom(info.roomID, wire.ServerResponse{Type: wire.TypePlayersReady, PlayersReady: readySet})
		return
	}

	a.promoteToGame(ctx, room)
}

// promoteToGame spawns a GameActor for room, binds every participant
// through the registry, notifies each ConnectionActor, and marks the room
// InGame (§4.6 PlayerReady effect d).
func (a *Actor) promoteToGame(ctx context.Context, room *Room) {
	playerToConn := make(map[ids.PlayerID]ids.ConnectionID, len(room.Players))
	for connID, info := range a.connToRoomInfo {
		if info.roomID == room.ID {
			playerToConn[info.playerID] = connID
		}
	}

	gameID := ids.GameIDFromRoom(room.ID)
	actor := game.NewActor(gameID, room.PlayerIDs(), playerToConn, a.catalogue.Instances(), a.outbox)

	conns := actor.Participants()
	a.registry.StartGameActor(gameID, conns, actor.Inbox())
	metrics.ActiveGames.Inc()

	go func() {
		actor.Run(ctx)
		a.registry.CleanupGameActor(gameID)
		metrics.ActiveGames.Dec()
	}()

	room.SetStateInGame()

	turnOrder := actor.TurnOrder()
	for playerID, connID := range playerToConn {
		if err := a.registry.SendToConnectionActor(connID, actormsg.TransitionToGameMsg{GameID: gameID, PlayerID: playerID}); err != nil {
			logging.Warn(nil, "failed to notify connection of game start", zap.String("connection_id", string(connID)), zap.Error(err))
		}
	}

	a.broadcastRoom(room.ID, wire.ServerResponse{Type: wire.TypeRoomGameStart, TurnOrder: turnOrder})
	a.sendAll(wire.ServerResponse{Type: wire.TypeLobbyStartedGame, RoomID: room.ID})
}

func classifyRoomErr(err error) string {
	switch err {
	case ErrRoomFull:
		return "RoomFull"
	case ErrRoomInGame:
		return "RoomInGame"
	default:
		return "Internal"
	}
}

func (a *Actor) broadcastRoom(roomID ids.RoomID, resp wire.ServerResponse) {
	conns := a.roomToConnections[roomID]
	targets := make([]ids.ConnectionID, 0, len(conns))
	for connID := range conns {
		targets = append(targets, connID)
	}
	payload, err := json.Marshal(resp)
	if err != nil {
		logging.Error(nil, "failed to marshal room broadcast", zap.Error(err))
		return
	}
	a.outbox <- delivery.SendToManyCmd{Conns: targets, Payload: payload}
}

func (a *Actor) sendOne(conn ids.ConnectionID, resp wire.ServerResponse) {
	payload, err := json.Marshal(resp)
	if err != nil {
		logging.Error(nil, "failed to marshal lobby response", zap.Error(err))
		return
	}
	a.outbox <- delivery.SendToOneCmd{Conn: conn, Payload: payload}
}

func (a *Actor) sendAll(resp wire.ServerResponse) {
	payload, err := json.Marshal(resp)
	if err != nil {
		logging.Error(nil, "failed to marshal lobby broadcast", zap.Error(err))
		return
	}
	a.outbox <- delivery.SendToAllCmd{Payload: payload}
}

func (a *Actor) sendError(conn ids.ConnectionID, err *wire.Error) {
	a.sendOne(conn, err.ToResponse())
}
