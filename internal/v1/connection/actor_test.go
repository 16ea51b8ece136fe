package connection

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cardtable/arena/internal/v1/actormsg"
	"github.com/cardtable/arena/internal/v1/delivery"
	"github.com/cardtable/arena/internal/v1/game"
	"github.com/cardtable/arena/internal/v1/ids"
	"github.com/cardtable/arena/internal/v1/lobby"
	"github.com/cardtable/arena/internal/v1/registry"
	"github.com/cardtable/arena/internal/v1/wire"
)

func newTestConnection(t *testing.T) (*Actor, chan delivery.Command, chan actormsg.LobbyMessage, chan actormsg.GameMessage) {
	t.Helper()

	lobbyInbox := make(chan actormsg.LobbyMessage, 16)
	reg := registry.New(lobbyInbox)
	outbox := make(chan delivery.Command, 16)

	actor, err := NewActor(ids.NewConnectionID(), reg, outbox, "100-S")
	require.NoError(t, err)
	reg.RegisterConnectionActor(actor.ID(), actor.Inbox())

	gameInbox := make(chan actormsg.GameMessage, 16)
	gameID := ids.GameID("game-under-test")
	reg.StartGameActor(gameID, []ids.ConnectionID{actor.ID()}, gameInbox)

	return actor, outbox, lobbyInbox, gameInbox
}

func decodeOne(t *testing.T, outbox chan delivery.Command, timeout time.Duration) wire.ServerResponse {
	t.Helper()
	select {
	case cmd := <-outbox:
		one, ok := cmd.(delivery.SendToOneCmd)
		require.True(t, ok, "expected a SendToOneCmd")
		var resp wire.ServerResponse
		require.NoError(t, json.Unmarshal(one.Payload, &resp))
		return resp
	case <-time.After(timeout):
		t.Fatal("timed out waiting for response")
		return wire.ServerResponse{}
	}
}

func TestConnectionActor_LobbyMessage_ForwardsToLobbyInbox(t *testing.T) {
	actor, _, lobbyInbox, _ := newTestConnection(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go actor.Run(ctx)

	actor.Inbox() <- ClientMessageMsg{Payload: wire.ClientMessage{Type: wire.TypeChat, Message: "hi"}}

	select {
	case msg := <-lobbyInbox:
		chat, ok := msg.(lobby.ChatMsg)
		require.True(t, ok)
		assert.Equal(t, actor.ID(), chat.Conn)
		assert.Equal(t, "hi", chat.Message)
	case <-time.After(2 * time.Second):
		t.Fatal("lobby actor never received forwarded chat message")
	}
}

func TestConnectionActor_GameMessage_RejectedWhileInLobby(t *testing.T) {
	actor, outbox, _, _ := newTestConnection(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go actor.Run(ctx)

	actor.Inbox() <- ClientMessageMsg{Payload: wire.ClientMessage{Type: wire.TypeTurnPass}}

	resp := decodeOne(t, outbox, 2*time.Second)
	assert.Equal(t, wire.TypeError, resp.Type)
	assert.Equal(t, "ConnectionNotInRoom", resp.ErrorType)
}

func TestConnectionActor_GameMessage_RoutedAfterTransition(t *testing.T) {
	actor, _, _, gameInbox := newTestConnection(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go actor.Run(ctx)

	actor.Inbox() <- actormsg.TransitionToGameMsg{GameID: "game-under-test", PlayerID: ids.NewPlayerID()}
	actor.Inbox() <- ClientMessageMsg{Payload: wire.ClientMessage{Type: wire.TypePriorityPass}}

	select {
	case msg := <-gameInbox:
		pass, ok := msg.(game.PriorityPassFromConnectionMsg)
		require.True(t, ok)
		assert.Equal(t, actor.ID(), pass.ConnectionID)
	case <-time.After(2 * time.Second):
		t.Fatal("game actor never received forwarded priority pass")
	}
}

func TestConnectionActor_AckMessage_RoutedToGameAfterTransition(t *testing.T) {
	actor, _, _, gameInbox := newTestConnection(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go actor.Run(ctx)

	actor.Inbox() <- actormsg.TransitionToGameMsg{GameID: "game-under-test", PlayerID: ids.NewPlayerID()}
	actor.Inbox() <- ClientMessageMsg{Payload: wire.ClientMessage{Type: wire.TypeAck, AckMessageID: "msg-1"}}

	select {
	case msg := <-gameInbox:
		ack, ok := msg.(game.AckMsg)
		require.True(t, ok)
		assert.Equal(t, actor.ID(), ack.ConnectionID)
		assert.Equal(t, "msg-1", ack.MessageID)
	case <-time.After(2 * time.Second):
		t.Fatal("game actor never received forwarded ack")
	}
}

func TestConnectionActor_LeaveRoom_AlwaysReturnsToLobbyState(t *testing.T) {
	actor, outbox, lobbyInbox, _ := newTestConnection(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go actor.Run(ctx)

	actor.Inbox() <- actormsg.TransitionToGameMsg{GameID: "game-under-test", PlayerID: ids.NewPlayerID()}
	actor.Inbox() <- ClientMessageMsg{Payload: wire.ClientMessage{Type: wire.TypeLeaveRoom}}

	select {
	case msg := <-lobbyInbox:
		_, ok := msg.(lobby.LeaveRoomMsg)
		require.True(t, ok)
	case <-time.After(2 * time.Second):
		t.Fatal("lobby actor never received forwarded leave room message")
	}

	// LeaveRoom must reset state to InLobby even though the connection had
	// been transitioned into a game: a subsequent game-category message
	// should now be rejected rather than routed.
	actor.Inbox() <- ClientMessageMsg{Payload: wire.ClientMessage{Type: wire.TypeTurnPass}}
	resp := decodeOne(t, outbox, 2*time.Second)
	assert.Equal(t, "ConnectionNotInRoom", resp.ErrorType)
}

func TestConnectionActor_StopsOnDisconnect(t *testing.T) {
	actor, _, _, _ := newTestConnection(t)

	done := make(chan struct{})
	go func() {
		actor.Run(context.Background())
		close(done)
	}()

	actor.Inbox() <- DisconnectMsg{}

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("actor did not stop after DisconnectMsg")
	}
}

func TestConnectionActor_StopsOnContextCancel(t *testing.T) {
	actor, _, _, _ := newTestConnection(t)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		actor.Run(ctx)
		close(done)
	}()

	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("actor did not stop after context cancel")
	}
}
