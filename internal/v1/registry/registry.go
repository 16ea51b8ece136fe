// Package registry implements the process-wide ActorRegistry (C8): the
// directory of actor inboxes and the connection↔game bindings that let any
// component address any actor without importing it. Tables sit behind two
// RWMutexes rather than one global lock: one guards the connection table,
// the other guards the game table together with the connection→game
// bindings, so connection lookups never contend with game mutations.
package registry

import (
	"errors"
	"sync"

	"github.com/cardtable/arena/internal/v1/actormsg"
	"github.com/cardtable/arena/internal/v1/ids"
)

var (
	ErrInternal              = errors.New("registry: channel send failed")
	ErrConnectionNotFound    = errors.New("registry: connection actor not registered")
	ErrMessageSendFailed     = errors.New("registry: failed to enqueue message")
	ErrConnectionNotInRoom   = errors.New("registry: connection is not bound to a game")
	ErrGameMessageLoopGone   = errors.New("registry: no game actor for this game id")
	ErrGameEventSendFailed   = errors.New("registry: failed to enqueue game message")
)

// ActorRegistry is safe for concurrent use from any actor's goroutine.
type ActorRegistry struct {
	lobbyInbox chan<- actormsg.LobbyMessage

	connMu    sync.RWMutex
	connInbox map[ids.ConnectionID]chan<- actormsg.ConnectionMessage

	gameMu     sync.RWMutex
	gameInbox  map[ids.GameID]chan<- actormsg.GameMessage
	connToGame map[ids.ConnectionID]ids.GameID
}

// New constructs an ActorRegistry bound to the single process-wide lobby
// inbox. The lobby actor is expected to live for the process lifetime, so
// unlike games and connections it is installed at construction rather than
// registered dynamically.
func New(lobbyInbox chan<- actormsg.LobbyMessage) *ActorRegistry {
	return &ActorRegistry{
		lobbyInbox: lobbyInbox,
		connInbox:  make(map[ids.ConnectionID]chan<- actormsg.ConnectionMessage),
		gameInbox:  make(map[ids.GameID]chan<- actormsg.GameMessage),
		connToGame: make(map[ids.ConnectionID]ids.GameID),
	}
}

// trySend enqueues msg on ch without blocking, recovering from the panic a
// closed channel raises and reporting it as ErrInternal. Every inbox in
// this system is sized generously (see the owning actor's constructor), so
// a full buffer is an internal invariant violation and is also reported as
// ErrInternal: the registry's job is routing, not backpressure.
func trySend[T any](ch chan<- T, msg T) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = ErrInternal
		}
	}()
	select {
	case ch <- msg:
		return nil
	default:
		return ErrInternal
	}
}

// SendLobbyMessage enqueues msg on the lobby actor's inbox.
func (r *ActorRegistry) SendLobbyMessage(msg actormsg.LobbyMessage) error {
	return trySend(r.lobbyInbox, msg)
}

// RegisterConnectionActor installs inbox as the addressable mailbox for
// connID. Called once by the transport adapter when a connection is
// accepted.
func (r *ActorRegistry) RegisterConnectionActor(connID ids.ConnectionID, inbox chan<- actormsg.ConnectionMessage) {
	r.connMu.Lock()
	defer r.connMu.Unlock()
	r.connInbox[connID] = inbox
}

// SendToConnectionActor resolves connID and enqueues msg on its inbox.
func (r *ActorRegistry) SendToConnectionActor(connID ids.ConnectionID, msg actormsg.ConnectionMessage) error {
	r.connMu.RLock()
	inbox, ok := r.connInbox[connID]
	r.connMu.RUnlock()
	if !ok {
		return ErrConnectionNotFound
	}
	if err := trySend(inbox, msg); err != nil {
		return ErrMessageSendFailed
	}
	return nil
}

// StartGameActor installs an already-constructed game actor's inbox under
// gameID and binds every connection in conns to that game id. The lobby
// actor constructs the GameActor and its GameState (including the
// randomised TurnOrder) before calling this; the registry's sole job here
// is publishing the routing entries atomically.
func (r *ActorRegistry) StartGameActor(gameID ids.GameID, conns []ids.ConnectionID, inbox chan<- actormsg.GameMessage) {
	r.gameMu.Lock()
	defer r.gameMu.Unlock()
	r.gameInbox[gameID] = inbox
	for _, connID := range conns {
		r.connToGame[connID] = gameID
	}
}

// SendGameMessage resolves connID to its bound game, then enqueues msg on
// that game's inbox.
func (r *ActorRegistry) SendGameMessage(connID ids.ConnectionID, msg actormsg.GameMessage) error {
	r.gameMu.RLock()
	gameID, ok := r.connToGame[connID]
	if !ok {
		r.gameMu.RUnlock()
		return ErrConnectionNotInRoom
	}
	inbox, ok := r.gameInbox[gameID]
	r.gameMu.RUnlock()
	if !ok {
		return ErrGameMessageLoopGone
	}
	if err := trySend(inbox, msg); err != nil {
		return ErrGameEventSendFailed
	}
	return nil
}

// CleanupGameActor drops gameID's inbox entry and closes that channel,
// which stops the GameActor's loop on its next read, and purges every
// connToGame entry pointing at gameID. A second call for the same gameID
// finds no entry and closes nothing.
func (r *ActorRegistry) CleanupGameActor(gameID ids.GameID) {
	r.gameMu.Lock()
	defer r.gameMu.Unlock()
	if inbox, ok := r.gameInbox[gameID]; ok {
		close(inbox)
	}
	delete(r.gameInbox, gameID)
	for connID, g := range r.connToGame {
		if g == gameID {
			delete(r.connToGame, connID)
		}
	}
}

// RemovePlayerConnection drops connID from the connection table and from
// connToGame, called when a transport closes.
func (r *ActorRegistry) RemovePlayerConnection(connID ids.ConnectionID) {
	r.connMu.Lock()
	delete(r.connInbox, connID)
	r.connMu.Unlock()

	r.gameMu.Lock()
	delete(r.connToGame, connID)
	r.gameMu.Unlock()
}

// GameIDForConnection reports the game, if any, that connID is currently
// bound to.
func (r *ActorRegistry) GameIDForConnection(connID ids.ConnectionID) (ids.GameID, bool) {
	r.gameMu.RLock()
	defer r.gameMu.RUnlock()
	gameID, ok := r.connToGame[connID]
	return gameID, ok
}

// NotifyConnectionGameStart and NotifyConnectionLobbyReturn from §4.8 are
// realised as plain SendToConnectionActor calls: the caller builds the
// actormsg.TransitionToGameMsg / actormsg.TransitionToLobbyMsg value
// (the registry cannot import the connection package without creating an
// import cycle) and routes it through the same addressing path as any
// other connection-bound message.
