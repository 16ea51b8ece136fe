package delivery

import (
	"context"

	"github.com/cardtable/arena/internal/v1/logging"
)

// CommandLoop is the single consumer of the process-wide Command queue
// (§4.9, §5). Every actor enqueues outbound effects here instead of
// writing to a transport sink directly; this is what gives the per-actor
// enqueue-order guarantee without requiring actors to share the
// ConnectionManager.
type CommandLoop struct {
	manager *ConnectionManager
	inbox   <-chan Command
}

// NewCommandLoop builds a CommandLoop draining inbox into manager.
func NewCommandLoop(manager *ConnectionManager, inbox <-chan Command) *CommandLoop {
	return &CommandLoop{manager: manager, inbox: inbox}
}

// Run drains the command queue until ctx is cancelled or the queue is
// closed. It is meant to be started once, in its own goroutine, for the
// lifetime of the process.
func (l *CommandLoop) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case cmd, ok := <-l.inbox:
			if !ok {
				return
			}
			l.apply(cmd)
		}
	}
}

func (l *CommandLoop) apply(cmd Command) {
	switch c := cmd.(type) {
	case AddConnectionCmd:
		l.manager.Add(c.ID, c.Sink)
	case RemoveConnectionCmd:
		l.manager.Remove(c.ID)
	case SendToOneCmd:
		l.manager.SendToOne(c.Conn, c.Payload)
	case SendToManyCmd:
		l.manager.SendToMany(c.Conns, c.Payload)
	case SendToAllCmd:
		l.manager.SendToAll(c.Payload)
	default:
		logging.Warn(nil, "command loop received unknown command type")
	}
}
