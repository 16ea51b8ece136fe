// Package transport adapts the JSON wire schema (§6) onto a
// gorilla/websocket duplex connection: a read pump decodes inbound text
// frames into connection.ClientMessageMsg values, and a write pump (driven
// by delivery.Sink.Send) encodes outbound ServerResponse payloads back out.
// The CORE never touches a net.Conn directly.
package transport

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/cardtable/arena/internal/v1/actormsg"
	"github.com/cardtable/arena/internal/v1/connection"
	"github.com/cardtable/arena/internal/v1/ids"
	"github.com/cardtable/arena/internal/v1/logging"
	"github.com/cardtable/arena/internal/v1/wire"
)

const (
	writeWait  = 10 * time.Second
	sendBuffer = 256
)

var (
	errSendBufferFull = errors.New("transport: send buffer full, dropping message")
	errClosedSink     = errors.New("transport: connection already closed")
)

// wsConnection narrows *websocket.Conn to what the pumps use, so tests can
// substitute a fake without opening a real socket.
type wsConnection interface {
	ReadMessage() (messageType int, p []byte, err error)
	WriteMessage(messageType int, data []byte) error
	Close() error
	SetWriteDeadline(t time.Time) error
}

// Client is the I/O glue for one accepted connection. It implements
// delivery.Sink so the CommandLoop can address it directly once registered
// with the ConnectionManager.
type Client struct {
	id   ids.ConnectionID
	conn wsConnection
	send chan []byte

	closeOnce sync.Once
}

// NewClient wraps conn for connection id.
func NewClient(id ids.ConnectionID, conn wsConnection) *Client {
	return &Client{id: id, conn: conn, send: make(chan []byte, sendBuffer)}
}

// Send satisfies delivery.Sink. It never blocks: a full buffer or a send on
// an already-closed channel is reported as an error so the CommandLoop can
// drop the connection via ConnectionManager.Remove.
func (c *Client) Send(payload []byte) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errClosedSink
		}
	}()
	select {
	case c.send <- payload:
		return nil
	default:
		return errSendBufferFull
	}
}

// Close closes the underlying socket and the send channel exactly once.
func (c *Client) Close() {
	c.closeOnce.Do(func() {
		c.conn.Close()
		close(c.send)
	})
}

// ReadPump decodes inbound text frames as wire.ClientMessage and forwards
// each as a ClientMessageMsg to connInbox until the socket errors or ctx is
// cancelled. It always attempts a final DisconnectMsg on exit so the owning
// ConnectionActor deregisters itself even if the client never sent one.
func (c *Client) ReadPump(ctx context.Context, connInbox chan<- actormsg.ConnectionMessage) {
	defer func() {
		select {
		case connInbox <- connection.DisconnectMsg{}:
		default:
		}
	}()

	// Closing the socket on cancellation unblocks a pending ReadMessage.
	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
			c.conn.Close()
		case <-stop:
		}
	}()

	for {
		messageType, data, err := c.conn.ReadMessage()
		if err != nil {
			return
		}
		if messageType != websocket.TextMessage {
			continue
		}

		var msg wire.ClientMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			logging.Warn(ctx, "dropping unparseable client message", zap.String("connection_id", string(c.id)), zap.Error(err))
			continue
		}

		select {
		case connInbox <- connection.ClientMessageMsg{Payload: msg}:
		case <-ctx.Done():
			return
		}
	}
}

// WritePump drains c.send and writes each payload as a text frame until the
// channel is closed or a write fails.
func (c *Client) WritePump() {
	defer c.Close()
	for payload := range c.send {
		c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			return
		}
	}
}
