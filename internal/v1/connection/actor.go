// Package connection implements the ConnectionActor (C5): the per-client
// state machine that classifies inbound client messages as lobby-bound or
// game-bound and forwards them through the ActorRegistry. It is the only
// component aware of both the lobby and game message schemas; the lobby and
// game actors never import it back.
package connection

import (
	"context"
	"encoding/json"
	"time"

	"github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/store/memory"
	"go.uber.org/zap"

	"github.com/cardtable/arena/internal/v1/actormsg"
	"github.com/cardtable/arena/internal/v1/delivery"
	"github.com/cardtable/arena/internal/v1/game"
	"github.com/cardtable/arena/internal/v1/ids"
	"github.com/cardtable/arena/internal/v1/lobby"
	"github.com/cardtable/arena/internal/v1/logging"
	"github.com/cardtable/arena/internal/v1/metrics"
	"github.com/cardtable/arena/internal/v1/registry"
	"github.com/cardtable/arena/internal/v1/wire"
)

const inboxSize = 256

// State is the ConnectionActor's own small state machine: a connection is
// either waiting in the lobby or seated in exactly one game.
type State int

const (
	StateInLobby State = iota
	StateInGame
)

// Actor is the per-connection state machine spawned by the transport
// adapter for every accepted socket. It owns no game or room data itself;
// it only classifies and routes.
type Actor struct {
	id       ids.ConnectionID
	registry *registry.ActorRegistry
	outbox   chan<- delivery.Command
	inbox    chan actormsg.ConnectionMessage

	limiter *limiter.Limiter

	state    State
	gameID   ids.GameID
	playerID ids.PlayerID
}

// NewActor constructs a ConnectionActor for id. msgRate is a
// limiter.NewRateFromFormatted string (e.g. "20-S") bounding how many
// client messages this connection may send per window; every connection
// gets its own in-memory limiter rather than sharing one keyed by
// connection id, since connections never share a rate budget.
func NewActor(id ids.ConnectionID, reg *registry.ActorRegistry, outbox chan<- delivery.Command, msgRate string) (*Actor, error) {
	rate, err := limiter.NewRateFromFormatted(msgRate)
	if err != nil {
		return nil, err
	}
	return &Actor{
		id:       id,
		registry: reg,
		outbox:   outbox,
		inbox:    make(chan actormsg.ConnectionMessage, inboxSize),
		limiter:  limiter.New(memory.NewStore(), rate),
		state:    StateInLobby,
	}, nil
}

// Inbox returns the send handle to register with the ActorRegistry.
func (a *Actor) Inbox() chan<- actormsg.ConnectionMessage { return a.inbox }

// ID reports the connection id this actor was constructed for.
func (a *Actor) ID() ids.ConnectionID { return a.id }

// Run drains the inbox until ctx is cancelled, the channel is closed, or a
// DisconnectMsg is handled. Every exit path deregisters the connection from
// the registry; the connection actor never destroys rooms itself, that
// remains the lobby actor's job on an explicit LeaveRoom.
func (a *Actor) Run(ctx context.Context) {
	defer a.registry.RemovePlayerConnection(a.id)

	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-a.inbox:
			if !ok {
				return
			}
			if !a.handle(ctx, msg) {
				return
			}
		}
	}
}

func (a *Actor) handle(ctx context.Context, msg actormsg.ConnectionMessage) bool {
	switch m := msg.(type) {
	case ClientMessageMsg:
		a.dispatch(ctx, m.Payload)
	case actormsg.TransitionToGameMsg:
		a.state = StateInGame
		a.gameID = m.GameID
		a.playerID = m.PlayerID
	case actormsg.TransitionToLobbyMsg:
		a.state = StateInLobby
		a.gameID = ""
		a.playerID = ""
	case DisconnectMsg:
		return false
	default:
		logging.Warn(ctx, "connection actor received unrecognised message", zap.String("connection_id", string(a.id)))
	}
	return true
}

func (a *Actor) dispatch(ctx context.Context, cm wire.ClientMessage) {
	start := time.Now()
	status := "ok"
	defer func() {
		metrics.WebsocketEvents.WithLabelValues(string(cm.Type), status).Inc()
		metrics.MessageProcessingDuration.WithLabelValues(string(cm.Type)).Observe(time.Since(start).Seconds())
	}()

	if a.rateLimited(ctx) {
		status = "rate_limited"
		metrics.RateLimitExceeded.WithLabelValues("ws_message", "per_connection").Inc()
		a.sendError(wire.NewError(wire.ClassServer, "RateLimited", "too many messages, slow down"))
		return
	}
	metrics.RateLimitRequests.WithLabelValues("ws_message").Inc()

	category, ok := cm.Type.Category()
	if !ok {
		status = "unknown_type"
		a.sendError(wire.NewError(wire.ClassClient, "UnknownMessageType", "unrecognised message type"))
		return
	}

	if category == wire.CategoryLobby {
		a.dispatchLobby(cm)
		return
	}
	a.dispatchGame(cm)
}

func (a *Actor) rateLimited(ctx context.Context) bool {
	result, err := a.limiter.Get(ctx, string(a.id))
	if err != nil {
		logging.Warn(ctx, "rate limiter check failed, allowing message", zap.Error(err))
		return false
	}
	return result.Reached
}

// dispatchLobby translates cm into the matching lobby.XxxMsg, injecting this
// actor's connection id, and forwards it to the lobby actor.
func (a *Actor) dispatchLobby(cm wire.ClientMessage) {
	var msg actormsg.LobbyMessage
	switch cm.Type {
	case wire.TypePing:
		msg = lobby.PingMsg{Conn: a.id}
	case wire.TypeChat:
		msg = lobby.ChatMsg{Conn: a.id, Message: cm.Message}
	case wire.TypeCreateRoom:
		msg = lobby.CreateRoomMsg{Conn: a.id, RoomName: cm.RoomName, FirstPlayerName: cm.FirstPlayerName}
	case wire.TypeDestroyRoom:
		msg = lobby.DestroyRoomMsg{Conn: a.id, RoomID: cm.RoomID}
	case wire.TypeJoinRoom:
		msg = lobby.JoinRoomMsg{Conn: a.id, PlayerName: cm.PlayerName, RoomID: cm.RoomID}
	case wire.TypeLeaveRoom:
		// A connection always returns to InLobby on its own LeaveRoom,
		// regardless of whether it was ever seated in a game.
		a.state = StateInLobby
		a.gameID = ""
		a.playerID = ""
		msg = lobby.LeaveRoomMsg{Conn: a.id}
	case wire.TypePlayerReady:
		msg = lobby.PlayerReadyMsg{Conn: a.id}
	default:
		a.sendError(wire.NewError(wire.ClassClient, "UnknownMessageType", "unrecognised lobby message type"))
		return
	}

	if err := a.registry.SendLobbyMessage(msg); err != nil {
		a.sendError(wire.NewError(wire.ClassServer, "Internal", err.Error()))
	}
}

// dispatchGame translates cm into the matching connection-scoped
// game.XxxFromConnectionMsg and routes it via the registry, which resolves
// this connection to its bound game.
func (a *Actor) dispatchGame(cm wire.ClientMessage) {
	if a.state == StateInLobby {
		a.sendError(wire.NewError(wire.ClassClient, "ConnectionNotInRoom", "you are not in a game"))
		return
	}

	var msg actormsg.GameMessage
	switch cm.Type {
	case wire.TypeTurnPass:
		msg = game.TurnPassFromConnectionMsg{ConnectionID: a.id}
	case wire.TypePriorityPass:
		msg = game.PriorityPassFromConnectionMsg{ConnectionID: a.id}
	case wire.TypeAck:
		msg = game.AckMsg{ConnectionID: a.id, MessageID: cm.AckMessageID}
	default:
		a.sendError(wire.NewError(wire.ClassClient, "UnknownMessageType", "unrecognised game message type"))
		return
	}

	if err := a.registry.SendGameMessage(a.id, msg); err != nil {
		a.sendError(wire.NewError(wire.ClassServer, "Internal", err.Error()))
	}
}

func (a *Actor) sendError(err *wire.Error) {
	payload, marshalErr := json.Marshal(err.ToResponse())
	if marshalErr != nil {
		logging.Error(nil, "failed to marshal connection error response", zap.Error(marshalErr))
		return
	}
	a.outbox <- delivery.SendToOneCmd{Conn: a.id, Payload: payload}
}
