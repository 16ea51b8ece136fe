// Package reliable implements the optional reliable-delivery sublayer (§5)
// used specifically for PrivateBoardState pushes: every other outbound
// payload travels the best-effort delivery.Command path. Only the sender
// half lives here — retry-until-ack is a server-side concern. The
// receiver-side reordering, gap-buffering and duplicate suppression the
// specification describes are the responsibility of the client, which is
// outside this module.
package reliable

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/cardtable/arena/internal/v1/ids"
	"github.com/cardtable/arena/internal/v1/logging"
	"github.com/cardtable/arena/internal/v1/metrics"
)

const (
	maxRetries    = 3
	retryInterval = 500 * time.Millisecond
)

// pending is one in-flight message awaiting acknowledgement.
type pending struct {
	connID  ids.ConnectionID
	payload []byte
	timer   *time.Timer
	retries int
}

// Sender retains every message it hands to write until the owning
// connection acknowledges it, retrying on a fixed interval. It has no
// notion of "session" beyond the connection id a message was addressed to.
type Sender struct {
	mu       sync.Mutex
	pending  map[string]*pending
	sequence map[ids.ConnectionID]uint64

	write func(connID ids.ConnectionID, payload []byte) error
}

// NewSender constructs a Sender. write is called once per initial send and
// once per retry; it is expected to be delivery.Command enqueuing, wrapped
// by the caller.
func NewSender(write func(connID ids.ConnectionID, payload []byte) error) *Sender {
	return &Sender{
		pending:  make(map[string]*pending),
		sequence: make(map[ids.ConnectionID]uint64),
		write:    write,
	}
}

// NextSequence returns the next per-connection sequence number, for the
// caller to stamp onto the message before calling Send.
func (s *Sender) NextSequence(connID ids.ConnectionID) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sequence[connID]++
	return s.sequence[connID]
}

// Send writes payload to connID immediately and retains it under messageID
// until Ack(messageID) is called or the retry budget is exhausted.
func (s *Sender) Send(connID ids.ConnectionID, messageID string, payload []byte) error {
	if err := s.write(connID, payload); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	p := &pending{connID: connID, payload: payload}
	p.timer = time.AfterFunc(retryInterval, func() { s.retry(messageID) })
	s.pending[messageID] = p
	return nil
}

func (s *Sender) retry(messageID string) {
	s.mu.Lock()
	p, ok := s.pending[messageID]
	if !ok {
		s.mu.Unlock()
		return
	}
	if p.retries >= maxRetries {
		delete(s.pending, messageID)
		s.mu.Unlock()
		metrics.ReliableRetries.WithLabelValues("exhausted").Inc()
		logging.Warn(nil, "reliable sender exhausted retries, giving up", zap.String("message_id", messageID), zap.String("connection_id", string(p.connID)))
		return
	}
	p.retries++
	connID, payload := p.connID, p.payload
	p.timer = time.AfterFunc(retryInterval, func() { s.retry(messageID) })
	s.mu.Unlock()

	metrics.ReliableRetries.WithLabelValues("attempt").Inc()
	if err := s.write(connID, payload); err != nil {
		metrics.ReliableRetries.WithLabelValues("write_failed").Inc()
		logging.Warn(nil, "reliable sender retry write failed", zap.String("message_id", messageID), zap.Error(err))
	}
}

// Ack clears the pending entry for messageID, if any. A duplicate or
// unknown ack is a no-op: the message may have already been acked, or its
// retry budget may have already been exhausted.
func (s *Sender) Ack(messageID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.pending[messageID]
	if !ok {
		return
	}
	p.timer.Stop()
	delete(s.pending, messageID)
}

// Pending reports how many messages are currently awaiting acknowledgement,
// for tests and diagnostics.
func (s *Sender) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}
