package connection

import (
	"github.com/cardtable/arena/internal/v1/actormsg"
	"github.com/cardtable/arena/internal/v1/wire"
)

// ClientMessageMsg wraps one parsed inbound payload for dispatch.
type ClientMessageMsg struct {
	Payload wire.ClientMessage
}

// DisconnectMsg signals the owning transport closed; the actor deregisters
// and stops.
type DisconnectMsg struct{}

func (ClientMessageMsg) isConnectionMessage() {}
func (DisconnectMsg) isConnectionMessage()    {}

// Inbox is the message type accepted by an Actor, re-exported so callers
// outside the package don't need to reach into actormsg directly.
type Inbox = actormsg.ConnectionMessage
