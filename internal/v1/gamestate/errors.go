package gamestate

import "errors"

// Sentinel errors for the turn/priority/board engine. Callers in the game
// actor classify these against the §7 error taxonomy (GameError, code 200)
// before wrapping them into a wire.Error response.
var (
	ErrPlayerNotFound      = errors.New("gamestate: player not found")
	ErrEmptyLootDeck       = errors.New("gamestate: deck and discard are both empty")
	ErrCardNotInHand       = errors.New("gamestate: card not in hand")
	ErrInvalidPriorityPass = errors.New("gamestate: player does not hold priority")
	ErrNotPlayerTurn       = errors.New("gamestate: player does not hold the turn")
)
