package game

import (
	"context"

	"go.uber.org/zap"

	"github.com/cardtable/arena/internal/v1/actormsg"
	"github.com/cardtable/arena/internal/v1/card"
	"github.com/cardtable/arena/internal/v1/delivery"
	"github.com/cardtable/arena/internal/v1/gamestate"
	"github.com/cardtable/arena/internal/v1/ids"
	"github.com/cardtable/arena/internal/v1/logging"
	"github.com/cardtable/arena/internal/v1/metrics"
	"github.com/cardtable/arena/internal/v1/wire"
)

// inboxSize matches the teacher's per-client send buffer: generous enough
// that a burst of turn/priority passes from every seat never blocks a
// sender, while still bounded.
const inboxSize = 256

// Actor is one-per-game (C7): it owns a GameState and drives every
// phase/priority transition strictly from messages arriving on its own
// inbox. No other goroutine ever touches its GameState.
type Actor struct {
	gameID ids.GameID
	state  *gamestate.GameState

	playerToConn map[ids.PlayerID]ids.ConnectionID
	connToPlayer map[ids.ConnectionID]ids.PlayerID

	broadcaster *StateBroadcaster
	outbox      chan<- delivery.Command
	inbox       chan actormsg.GameMessage
}

// NewActor constructs a GameActor for a freshly promoted room. playerIDs
// determines both the randomised TurnOrder and the initial Board deal;
// playerToConn must contain exactly those same player ids.
func NewActor(
	gameID ids.GameID,
	playerIDs []ids.PlayerID,
	playerToConn map[ids.PlayerID]ids.ConnectionID,
	catalogueInstances []*card.LootCard,
	outbox chan<- delivery.Command,
) *Actor {
	connToPlayer := make(map[ids.ConnectionID]ids.PlayerID, len(playerToConn))
	for pid, conn := range playerToConn {
		connToPlayer[conn] = pid
	}

	return &Actor{
		gameID:       gameID,
		state:        gamestate.NewGameState(playerIDs, catalogueInstances),
		playerToConn: playerToConn,
		connToPlayer: connToPlayer,
		broadcaster:  NewStateBroadcaster(outbox, playerToConn),
		outbox:       outbox,
		inbox:        make(chan actormsg.GameMessage, inboxSize),
	}
}

// Inbox returns the send handle to register with the ActorRegistry.
func (a *Actor) Inbox() chan<- actormsg.GameMessage { return a.inbox }

// TurnOrder exposes the (already randomised) turn order, used by the
// lobby actor to populate the RoomGameStart broadcast.
func (a *Actor) TurnOrder() []ids.PlayerID { return a.state.TurnOrder.Order() }

// Participants returns every connection id bound to this game.
func (a *Actor) Participants() []ids.ConnectionID {
	out := make([]ids.ConnectionID, 0, len(a.connToPlayer))
	for conn := range a.connToPlayer {
		out = append(out, conn)
	}
	return out
}

// Run executes InitializeGame followed by the main message loop. It
// returns when the inbox is closed (cleanup_game_actor) or the win
// condition ends the game. Intended to be launched in its own goroutine.
func (a *Actor) Run(ctx context.Context) {
	a.initializeGame()

	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-a.inbox:
			if !ok {
				return
			}
			if a.handle(msg) {
				return
			}
		}
	}
}

// initializeGame draws the untap/draw stand-in card for the starting
// active player, broadcasts the initial full state, then formally enters
// UntapStartStep so the priority protocol is live (§4.7).
func (a *Actor) initializeGame() {
	if _, err := a.state.Board.DrawLootForPlayer(a.state.TurnOrder.Active()); err != nil {
		logging.Error(nil, "failed to draw initial card", zap.Error(err), zap.String("game_id", string(a.gameID)))
	}
	a.broadcaster.BroadcastFullState(a.state)

	next, err := a.state.WithPhaseTransition(gamestate.PhaseUntapStartStep)
	if err != nil {
		logging.Error(nil, "failed to enter initial phase", zap.Error(err), zap.String("game_id", string(a.gameID)))
		return
	}
	a.state = next
	a.broadcaster.BroadcastPhaseStart(a.state)
}

// handle applies one inbox message and returns true if the game has
// ended and the actor loop should stop.
func (a *Actor) handle(msg actormsg.GameMessage) bool {
	switch m := msg.(type) {
	case TurnPassMsg:
		return a.applyTurnPass(m.PlayerID)
	case TurnPassFromConnectionMsg:
		pid, ok := a.connToPlayer[m.ConnectionID]
		if !ok {
			a.sendError(m.ConnectionID, wire.NewError(wire.ClassClient, "ConnectionNotInRoom", "connection is not part of this game"))
			return false
		}
		return a.applyTurnPass(pid)
	case PriorityPassMsg:
		return a.applyPriorityPass(m.PlayerID)
	case PriorityPassFromConnectionMsg:
		pid, ok := a.connToPlayer[m.ConnectionID]
		if !ok {
			a.sendError(m.ConnectionID, wire.NewError(wire.ClassClient, "ConnectionNotInRoom", "connection is not part of this game"))
			return false
		}
		return a.applyPriorityPass(pid)
	case AckMsg:
		a.broadcaster.Ack(m.MessageID)
		return false
	default:
		logging.Warn(nil, "game actor received unrecognised message", zap.String("game_id", string(a.gameID)))
		return false
	}
}

// applyTurnPass validates that playerID holds the turn, then forces the
// phase straight to TurnEnd, matching the source's "pass turn" semantics:
// it always ends the active player's turn outright rather than stepping
// through the remaining phases one priority round at a time.
func (a *Actor) applyTurnPass(playerID ids.PlayerID) (ended bool) {
	if !a.state.CanPlayerPassTurn(playerID) {
		a.sendPlayerError(playerID, wire.NewError(wire.ClassGame, "NotPlayerTurn", "you do not hold the turn"))
		return false
	}

	next, err := a.state.WithPhaseTransition(gamestate.PhaseTurnEnd)
	if err != nil {
		a.sendPlayerError(playerID, wire.NewError(wire.ClassGame, "InvalidTurnPass", err.Error()))
		return false
	}
	a.state = next
	return a.afterTransition()
}

// applyPriorityPass validates that playerID holds priority, then advances
// the priority/phase machine one step (§4.3).
func (a *Actor) applyPriorityPass(playerID ids.PlayerID) (ended bool) {
	next, err := a.state.WithPriorityPass(playerID)
	if err != nil {
		a.sendPlayerError(playerID, wire.NewError(wire.ClassGame, "InvalidPriorityPass", err.Error()))
		return false
	}
	a.state = next
	return a.afterTransition()
}

// afterTransition broadcasts the post-transition state and evaluates the
// win condition, per the C7 main-loop contract: every accepted message
// broadcasts full state, then checks for game end.
func (a *Actor) afterTransition() bool {
	metrics.GameTransitions.WithLabelValues(string(a.state.CurrentPhase)).Inc()
	a.broadcaster.BroadcastFullState(a.state)
	a.broadcaster.BroadcastPhaseStart(a.state)

	if ended, winner := a.state.EvaluateWinCondition(); ended {
		metrics.GamesCompleted.Inc()
		a.broadcaster.BroadcastGameEnd(winner)
		return true
	}
	return false
}

func (a *Actor) sendPlayerError(playerID ids.PlayerID, err *wire.Error) {
	connID, ok := a.playerToConn[playerID]
	if !ok {
		return
	}
	a.sendError(connID, err)
}

func (a *Actor) sendError(connID ids.ConnectionID, err *wire.Error) {
	resp := err.ToResponse()
	payload, marshalErr := marshalResponse(resp)
	if marshalErr != nil {
		logging.Error(nil, "failed to marshal game error response", zap.Error(marshalErr))
		return
	}
	a.outbox <- delivery.SendToOneCmd{Conn: connID, Payload: payload}
}
