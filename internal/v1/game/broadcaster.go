package game

import (
	"encoding/json"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/cardtable/arena/internal/v1/delivery"
	"github.com/cardtable/arena/internal/v1/gamestate"
	"github.com/cardtable/arena/internal/v1/ids"
	"github.com/cardtable/arena/internal/v1/logging"
	"github.com/cardtable/arena/internal/v1/reliable"
	"github.com/cardtable/arena/internal/v1/wire"
)

// StateBroadcaster derives public and private wire snapshots from a
// GameState and enqueues them as delivery Commands (C11). It never writes
// to a transport sink itself; it only ever talks to the outbox channel the
// CommandLoop drains. Private pushes go through a reliable.Sender (§5):
// every other broadcast uses the best-effort outbox path directly.
type StateBroadcaster struct {
	outbox       chan<- delivery.Command
	playerToConn map[ids.PlayerID]ids.ConnectionID
	reliable     *reliable.Sender
}

// NewStateBroadcaster builds a StateBroadcaster for one game's fixed
// player↔connection mapping.
func NewStateBroadcaster(outbox chan<- delivery.Command, playerToConn map[ids.PlayerID]ids.ConnectionID) *StateBroadcaster {
	b := &StateBroadcaster{outbox: outbox, playerToConn: playerToConn}
	b.reliable = reliable.NewSender(func(connID ids.ConnectionID, payload []byte) error {
		b.outbox <- delivery.SendToOneCmd{Conn: connID, Payload: payload}
		return nil
	})
	return b
}

// Ack forwards a client's acknowledgement of a reliably-delivered message
// to the underlying sender, clearing its retry timer.
func (b *StateBroadcaster) Ack(messageID string) {
	b.reliable.Ack(messageID)
}

func (b *StateBroadcaster) participants() []ids.ConnectionID {
	out := make([]ids.ConnectionID, 0, len(b.playerToConn))
	for _, conn := range b.playerToConn {
		out = append(out, conn)
	}
	return out
}

func (b *StateBroadcaster) enqueue(resp wire.ServerResponse, conns []ids.ConnectionID) {
	payload, err := marshalResponse(resp)
	if err != nil {
		logging.Error(nil, "failed to marshal outbound state", zap.Error(err))
		return
	}
	b.outbox <- delivery.SendToManyCmd{Conns: conns, Payload: payload}
}

// marshalResponse is the single JSON encoding point for every ServerResponse
// this package emits.
func marshalResponse(resp wire.ServerResponse) ([]byte, error) {
	return json.Marshal(resp)
}

// BroadcastFullState emits both the public snapshot (to every participant)
// and each player's private snapshot (to that player alone). This is what
// InitializeGame and every post-transition step in the main loop call.
func (b *StateBroadcaster) BroadcastFullState(gs *gamestate.GameState) {
	b.broadcastPublic(gs)
	b.broadcastPrivate(gs)
}

func (b *StateBroadcaster) broadcastPublic(gs *gamestate.GameState) {
	players := make([]wire.PublicPlayerView, 0, len(gs.Board.Players))
	for pid, p := range gs.Board.Players {
		players = append(players, wire.PublicPlayerView{
			PlayerID:      pid,
			HandSize:      len(p.Hand),
			CurrentHealth: p.CurrentHealth,
			MaxHealth:     p.MaxHealth,
		})
	}

	resp := wire.ServerResponse{
		Type:            wire.TypePublicBoardState,
		LootDeckSize:    len(gs.Board.LootDeck),
		LootDiscardSize: len(gs.Board.LootDiscard),
		CurrentPhase:    string(gs.CurrentPhase),
		ActivePlayer:    gs.TurnOrder.Active(),
		Players:         players,
	}
	b.enqueue(resp, b.participants())
}

// broadcastPrivate sends each player's own hand contents to their own
// connection only. This must never be merged with the public broadcast:
// PrivateBoardState is never visible to any connection but its owner.
func (b *StateBroadcaster) broadcastPrivate(gs *gamestate.GameState) {
	for pid, player := range gs.Board.Players {
		connID, ok := b.playerToConn[pid]
		if !ok {
			continue
		}

		hand := make([]wire.HandCardView, 0, len(player.Hand))
		for _, c := range player.Hand {
			hand = append(hand, wire.HandCardView{
				EntityID:   string(c.EntityID),
				TemplateID: string(c.TemplateID()),
				Name:       c.Template.Name,
			})
		}

		messageID := uuid.New().String()
		resp := wire.ServerResponse{
			Type:             wire.TypePrivateBoardState,
			Hand:             hand,
			ReliableID:       messageID,
			ReliableSequence: b.reliable.NextSequence(connID),
		}
		payload, err := json.Marshal(resp)
		if err != nil {
			logging.Error(nil, "failed to marshal private board state", zap.Error(err))
			continue
		}
		if err := b.reliable.Send(connID, messageID, payload); err != nil {
			logging.Warn(nil, "failed to send private board state", zap.Error(err))
		}
	}
}

// BroadcastPhaseStart emits the phase-start notice to every participant.
func (b *StateBroadcaster) BroadcastPhaseStart(gs *gamestate.GameState) {
	resp := wire.ServerResponse{
		Type:     wire.TypeTurnPhaseChange,
		PlayerID: gs.CurrentPriorityPlayer,
		Phase:    string(gs.CurrentPhase),
	}
	b.enqueue(resp, b.participants())
}

// BroadcastGameEnd emits the game-end notice to every participant.
func (b *StateBroadcaster) BroadcastGameEnd(winner ids.PlayerID) {
	resp := wire.ServerResponse{Type: wire.TypeGameEnded, WinnerID: winner}
	b.enqueue(resp, b.participants())
}
