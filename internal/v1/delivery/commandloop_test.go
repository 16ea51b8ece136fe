package delivery

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cardtable/arena/internal/v1/ids"
)

type recordingSink struct {
	received chan []byte
	failNext bool
}

func newRecordingSink() *recordingSink {
	return &recordingSink{received: make(chan []byte, 8)}
}

func (s *recordingSink) Send(payload []byte) error {
	if s.failNext {
		return errors.New("boom")
	}
	s.received <- payload
	return nil
}

func TestCommandLoop_AddAndSendToOne(t *testing.T) {
	mgr := NewConnectionManager()
	cmds := make(chan Command, 8)
	loop := NewCommandLoop(mgr, cmds)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go loop.Run(ctx)

	connID := ids.NewConnectionID()
	sink := newRecordingSink()
	cmds <- AddConnectionCmd{ID: connID, Sink: sink}
	cmds <- SendToOneCmd{Conn: connID, Payload: []byte("hello")}

	select {
	case got := <-sink.received:
		assert.Equal(t, []byte("hello"), got)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for delivery")
	}
}

func TestCommandLoop_SendToAll(t *testing.T) {
	mgr := NewConnectionManager()
	cmds := make(chan Command, 8)
	loop := NewCommandLoop(mgr, cmds)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go loop.Run(ctx)

	sinkA := newRecordingSink()
	sinkB := newRecordingSink()
	cmds <- AddConnectionCmd{ID: ids.NewConnectionID(), Sink: sinkA}
	cmds <- AddConnectionCmd{ID: ids.NewConnectionID(), Sink: sinkB}
	cmds <- SendToAllCmd{Payload: []byte("broadcast")}

	for _, sink := range []*recordingSink{sinkA, sinkB} {
		select {
		case got := <-sink.received:
			assert.Equal(t, []byte("broadcast"), got)
		case <-time.After(time.Second):
			t.Fatal("timed out waiting for broadcast delivery")
		}
	}
}

func TestConnectionManager_FailedWriteRemovesConnection(t *testing.T) {
	mgr := NewConnectionManager()
	connID := ids.NewConnectionID()
	sink := newRecordingSink()
	sink.failNext = true

	mgr.Add(connID, sink)
	require.Equal(t, 1, mgr.Count())

	mgr.SendToOne(connID, []byte("x"))

	assert.Equal(t, 0, mgr.Count())
}

func TestCommandLoop_StopsOnContextCancel(t *testing.T) {
	mgr := NewConnectionManager()
	cmds := make(chan Command)
	loop := NewCommandLoop(mgr, cmds)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		loop.Run(ctx)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("command loop did not stop after context cancel")
	}
}
