package gamestate

import (
	"math/rand/v2"

	"github.com/cardtable/arena/internal/v1/ids"
)

// TurnOrder is a randomised cyclic sequence of player ids with an active
// cursor and a monotonic turn counter (§3, §4.1).
type TurnOrder struct {
	order       []ids.PlayerID
	active      ids.PlayerID
	turnCounter uint32
}

// NewTurnOrder randomises playerIds uniformly and picks the first entry as
// the initial active player. playerIds must be non-empty; this is a
// programmer precondition (a Room can never promote with zero players), not
// a reachable runtime failure.
func NewTurnOrder(playerIDs []ids.PlayerID) TurnOrder {
	if len(playerIDs) == 0 {
		panic("gamestate: NewTurnOrder requires at least one player")
	}

	order := make([]ids.PlayerID, len(playerIDs))
	copy(order, playerIDs)
	rand.Shuffle(len(order), func(i, j int) {
		order[i], order[j] = order[j], order[i]
	})

	return TurnOrder{
		order:  order,
		active: order[0],
	}
}

// Order returns a copy of the randomised player sequence.
func (t TurnOrder) Order() []ids.PlayerID {
	out := make([]ids.PlayerID, len(t.order))
	copy(out, t.order)
	return out
}

// Active returns the player currently holding the turn.
func (t TurnOrder) Active() ids.PlayerID {
	return t.active
}

// TurnCounter returns the number of completed Advance calls.
func (t TurnOrder) TurnCounter() uint32 {
	return t.turnCounter
}

// IsPlayerTurn reports whether p is the active player.
func (t TurnOrder) IsPlayerTurn(p ids.PlayerID) bool {
	return t.active == p
}

// indexOf returns the position of p in order, or -1 if p is not present.
func (t TurnOrder) indexOf(p ids.PlayerID) int {
	for i, candidate := range t.order {
		if candidate == p {
			return i
		}
	}
	return -1
}

// Contains reports whether p is a member of the turn order.
func (t TurnOrder) Contains(p ids.PlayerID) bool {
	return t.indexOf(p) >= 0
}

// Advance rotates the active player to the next entry in order and
// increments the turn counter, returning the new active player.
func (t TurnOrder) Advance() TurnOrder {
	idx := t.indexOf(t.active)
	next := t.order[(idx+1)%len(t.order)]
	t.active = next
	t.turnCounter++
	return t
}

// NextAfter returns the next player in order, after current, skipping any
// player present in skip (wrap-around from current's index). Used by
// WithPriorityPass to find who receives priority next.
func (t TurnOrder) NextAfter(current ids.PlayerID, skip map[ids.PlayerID]struct{}) ids.PlayerID {
	idx := t.indexOf(current)
	n := len(t.order)
	for i := 1; i <= n; i++ {
		candidate := t.order[(idx+i)%n]
		if _, skipped := skip[candidate]; !skipped {
			return candidate
		}
	}
	return current
}
