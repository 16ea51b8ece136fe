// Package delivery implements the outbound write path (C9, C10): the
// ConnectionManager's sink bookkeeping and the single-consumer CommandLoop
// that drains the process-wide command queue and performs the actual
// writes. No actor writes to a transport sink directly; every outbound
// effect is a Command enqueued here.
package delivery

import "github.com/cardtable/arena/internal/v1/ids"

// Sink is anything a CommandLoop can hand a serialised payload to. The
// transport adapter's per-connection send channel satisfies this.
type Sink interface {
	Send(payload []byte) error
}

// Command is implemented by every variant the CommandLoop's queue accepts.
type Command interface {
	isCommand()
}

// AddConnectionCmd registers Sink as the outbound write path for ID.
type AddConnectionCmd struct {
	ID   ids.ConnectionID
	Sink Sink
}

// RemoveConnectionCmd deregisters ID's outbound write path.
type RemoveConnectionCmd struct {
	ID ids.ConnectionID
}

// SendToOneCmd writes Payload to a single connection.
type SendToOneCmd struct {
	Conn    ids.ConnectionID
	Payload []byte
}

// SendToManyCmd writes Payload to a fixed list of connections.
type SendToManyCmd struct {
	Conns   []ids.ConnectionID
	Payload []byte
}

// SendToAllCmd writes Payload to every currently registered connection.
type SendToAllCmd struct {
	Payload []byte
}

func (AddConnectionCmd) isCommand()    {}
func (RemoveConnectionCmd) isCommand() {}
func (SendToOneCmd) isCommand()        {}
func (SendToManyCmd) isCommand()       {}
func (SendToAllCmd) isCommand()        {}
