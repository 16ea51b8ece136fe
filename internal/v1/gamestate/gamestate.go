// Package gamestate implements the per-game turn-and-priority engine (C1-C3
// of the specification): TurnOrder, Board, and the immutable-update
// GameState that ties them together. It has no knowledge of actors,
// messages, or the network; the GameActor is the sole caller and sole
// mutator-by-replacement of a GameState value.
package gamestate

import (
	"github.com/cardtable/arena/internal/v1/card"
	"github.com/cardtable/arena/internal/v1/ids"
)

// winningTurnCount is the placeholder win condition from §7: the game ends
// once the turn counter reaches this value, and the winner is the first
// entry of the original turn order. This stands in for unimplemented Four
// Souls win conditions and is deliberately easy to replace.
const winningTurnCount = 100

// GameState is an immutable-update snapshot of phase, priority, turn order,
// board, and pass-set (§3, §4.3). Every transition method returns a new
// GameState rather than mutating the receiver; the GameActor is the only
// component that threads the returned value forward.
type GameState struct {
	TurnOrder             TurnOrder
	CurrentPhase          Phase
	CurrentPriorityPlayer ids.PlayerID
	PlayersPassedPriority map[ids.PlayerID]struct{}
	Board                 *Board
	GameRunning           bool
	WaitingForPriority    bool
}

// NewGameState constructs the initial state of a freshly promoted game: a
// randomised TurnOrder, a freshly dealt Board, and a phase/priority baseline
// that the GameActor's InitializeGame immediately advances via
// WithPhaseTransition(PhaseUntapStartStep) to enter the real priority
// protocol (§4.7).
func NewGameState(playerIDs []ids.PlayerID, catalogueInstances []*card.LootCard) *GameState {
	turnOrder := NewTurnOrder(playerIDs)
	board := NewBoard(playerIDs, catalogueInstances)

	return &GameState{
		TurnOrder:             turnOrder,
		CurrentPhase:          PhaseUntapStartStep,
		CurrentPriorityPlayer: turnOrder.Active(),
		PlayersPassedPriority: map[ids.PlayerID]struct{}{},
		Board:                 board,
		GameRunning:           true,
		WaitingForPriority:    false,
	}
}

// clonePassSet returns a fresh copy of a pass-set, used so every returned
// GameState owns its own map.
func clonePassSet(set map[ids.PlayerID]struct{}) map[ids.PlayerID]struct{} {
	out := make(map[ids.PlayerID]struct{}, len(set))
	for p := range set {
		out[p] = struct{}{}
	}
	return out
}

// shallowCopy returns a GameState with its own Board and pass-set, sharing
// nothing mutable with the receiver.
func (g *GameState) shallowCopy() *GameState {
	return &GameState{
		TurnOrder:             g.TurnOrder,
		CurrentPhase:          g.CurrentPhase,
		CurrentPriorityPlayer: g.CurrentPriorityPlayer,
		PlayersPassedPriority: clonePassSet(g.PlayersPassedPriority),
		Board:                 g.Board.Clone(),
		GameRunning:           g.GameRunning,
		WaitingForPriority:    g.WaitingForPriority,
	}
}

// CanPlayerPassPriority reports whether p currently holds priority (§4.3).
func (g *GameState) CanPlayerPassPriority(p ids.PlayerID) bool {
	return g.WaitingForPriority && g.CurrentPriorityPlayer == p
}

// CanPlayerPassTurn reports whether p is the active player in the turn
// order (§4.3), gating the GameActor's TurnPass handler.
func (g *GameState) CanPlayerPassTurn(p ids.PlayerID) bool {
	return g.TurnOrder.IsPlayerTurn(p)
}

// WithPhaseTransition applies the §4.3 phase-transition rule and returns the
// resulting GameState. Landing in PhaseTurnEnd advances the turn order,
// resets to PhaseUntapStartStep, and draws one card for the new active
// player (the temporary stand-in for the untap/draw phases, §3). Any other
// target phase simply re-opens the priority round in that phase.
func (g *GameState) WithPhaseTransition(newPhase Phase) (*GameState, error) {
	next := g.shallowCopy()

	if newPhase == PhaseTurnEnd {
		next.TurnOrder = next.TurnOrder.Advance()
		next.CurrentPhase = PhaseUntapStartStep
		next.CurrentPriorityPlayer = next.TurnOrder.Active()
		next.WaitingForPriority = true
		next.PlayersPassedPriority = map[ids.PlayerID]struct{}{}

		if _, err := next.Board.DrawLootForPlayer(next.TurnOrder.Active()); err != nil {
			return nil, err
		}
		return next, nil
	}

	next.CurrentPhase = newPhase
	next.WaitingForPriority = true
	next.PlayersPassedPriority = map[ids.PlayerID]struct{}{}
	next.CurrentPriorityPlayer = next.TurnOrder.Active()

	if newPhase == PhaseLootStep {
		if _, err := next.Board.DrawLootForPlayer(next.CurrentPriorityPlayer); err != nil {
			return nil, err
		}
	}

	return next, nil
}

// WithPriorityPass applies the §4.3 priority-pass rule: playerID must
// currently hold priority (ErrInvalidPriorityPass otherwise). Once every
// player in the turn order has passed, the phase advances; otherwise
// priority moves to the next player in turn order who has not yet passed.
func (g *GameState) WithPriorityPass(playerID ids.PlayerID) (*GameState, error) {
	if !g.CanPlayerPassPriority(playerID) {
		return g, ErrInvalidPriorityPass
	}

	next := g.shallowCopy()
	next.PlayersPassedPriority[playerID] = struct{}{}

	if len(next.PlayersPassedPriority) == len(next.TurnOrder.Order()) {
		return next.WithPhaseTransition(next.CurrentPhase.NextPhase())
	}

	next.CurrentPriorityPlayer = next.TurnOrder.NextAfter(playerID, next.PlayersPassedPriority)
	return next, nil
}

// EvaluateWinCondition applies the §7 placeholder win condition: the game
// ends once the turn counter reaches winningTurnCount, and the winner is
// the first player in the (fixed, randomised-at-creation) turn order. This
// is explicitly a stand-in for unimplemented Four Souls win conditions —
// see §9.5 — and must not be extended with guessed rules.
func (g *GameState) EvaluateWinCondition() (ended bool, winner ids.PlayerID) {
	if g.TurnOrder.TurnCounter() >= winningTurnCount {
		order := g.TurnOrder.Order()
		return true, order[0]
	}
	return false, ""
}
