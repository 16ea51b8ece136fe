package game

import "github.com/cardtable/arena/internal/v1/ids"

// TurnPassMsg is a turn-pass addressed directly by player id, used in
// tests; production traffic arrives as TurnPassFromConnectionMsg.
type TurnPassMsg struct{ PlayerID ids.PlayerID }

// TurnPassFromConnectionMsg is a turn-pass as routed by the
// ConnectionActor, which knows only the connection id.
type TurnPassFromConnectionMsg struct{ ConnectionID ids.ConnectionID }

// PriorityPassMsg is a priority-pass addressed directly by player id.
type PriorityPassMsg struct{ PlayerID ids.PlayerID }

// PriorityPassFromConnectionMsg is a priority-pass as routed by the
// ConnectionActor.
type PriorityPassFromConnectionMsg struct{ ConnectionID ids.ConnectionID }

// AckMsg acknowledges a reliably-delivered PrivateBoardState push (§5),
// routed by the ConnectionActor the same way the pass messages are.
type AckMsg struct {
	ConnectionID ids.ConnectionID
	MessageID    string
}

func (TurnPassMsg) isGameMessage()                  {}
func (TurnPassFromConnectionMsg) isGameMessage()     {}
func (PriorityPassMsg) isGameMessage()               {}
func (PriorityPassFromConnectionMsg) isGameMessage() {}
func (AckMsg) isGameMessage()                        {}
