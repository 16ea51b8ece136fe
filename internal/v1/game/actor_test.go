package game

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cardtable/arena/internal/v1/card"
	"github.com/cardtable/arena/internal/v1/delivery"
	"github.com/cardtable/arena/internal/v1/ids"
	"github.com/cardtable/arena/internal/v1/wire"
)

func testCatalogueInstances(n int) []*card.LootCard {
	tpl := &card.Template{ID: "loot-bandage", Name: "Bandage", Type: "loot", Count: n}
	out := make([]*card.LootCard, n)
	for i := range out {
		out[i] = &card.LootCard{EntityID: card.EntityID("bandage"), Template: tpl, Zone: card.ZoneDeck}
	}
	return out
}

func newTestActor(t *testing.T, playerCount int) (*Actor, chan delivery.Command, []ids.PlayerID, map[ids.PlayerID]ids.ConnectionID) {
	t.Helper()

	players := make([]ids.PlayerID, playerCount)
	playerToConn := make(map[ids.PlayerID]ids.ConnectionID, playerCount)
	for i := range players {
		players[i] = ids.NewPlayerID()
		playerToConn[players[i]] = ids.NewConnectionID()
	}

	outbox := make(chan delivery.Command, 256)
	actor := NewActor(ids.GameIDFromRoom(ids.NewRoomID()), players, playerToConn, testCatalogueInstances(200), outbox)
	return actor, outbox, players, playerToConn
}

func drainResponses(t *testing.T, outbox chan delivery.Command, want int, timeout time.Duration) []wire.ServerResponse {
	t.Helper()
	var got []wire.ServerResponse
	deadline := time.After(timeout)
	for len(got) < want {
		select {
		case cmd := <-outbox:
			var payload []byte
			switch c := cmd.(type) {
			case delivery.SendToOneCmd:
				payload = c.Payload
			case delivery.SendToManyCmd:
				payload = c.Payload
			case delivery.SendToAllCmd:
				payload = c.Payload
			default:
				continue
			}
			var resp wire.ServerResponse
			require.NoError(t, json.Unmarshal(payload, &resp))
			got = append(got, resp)
		case <-deadline:
			t.Fatalf("timed out waiting for %d responses, got %d", want, len(got))
		}
	}
	return got
}

func TestActor_InitializeGame_BroadcastsFullStateAndPhaseStart(t *testing.T) {
	actor, outbox, players, _ := newTestActor(t, 4)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go actor.Run(ctx)

	// public + 4 private + phase-start = 6 responses minimum
	responses := drainResponses(t, outbox, 6, 2*time.Second)

	var sawPublic, sawPhase bool
	privateCount := 0
	for _, r := range responses {
		switch r.Type {
		case wire.TypePublicBoardState:
			sawPublic = true
			assert.Len(t, r.Players, 4)
			for _, p := range r.Players {
				assert.Contains(t, players, p.PlayerID)
			}
		case wire.TypePrivateBoardState:
			privateCount++
		case wire.TypeTurnPhaseChange:
			sawPhase = true
			assert.Equal(t, "UntapStartStep", r.Phase)
		}
	}
	assert.True(t, sawPublic)
	assert.True(t, sawPhase)
	assert.Equal(t, 4, privateCount)
}

func TestActor_TurnPassFromConnection_WrongPlayer(t *testing.T) {
	actor, outbox, players, playerToConn := newTestActor(t, 2)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go actor.Run(ctx)
	drainResponses(t, outbox, 4, 2*time.Second) // drain InitializeGame noise

	active := actor.state.TurnOrder.Active()
	var notActive ids.PlayerID
	for _, p := range players {
		if p != active {
			notActive = p
		}
	}

	actor.inbox <- TurnPassFromConnectionMsg{ConnectionID: playerToConn[notActive]}

	responses := drainResponses(t, outbox, 1, 2*time.Second)
	assert.Equal(t, wire.TypeError, responses[0].Type)
	assert.Equal(t, "NotPlayerTurn", responses[0].ErrorType)
	assert.Equal(t, 200, responses[0].Code)
}

func TestActor_TurnPassFromConnection_UnknownConnection(t *testing.T) {
	actor, outbox, _, _ := newTestActor(t, 2)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go actor.Run(ctx)
	drainResponses(t, outbox, 4, 2*time.Second)

	actor.inbox <- TurnPassFromConnectionMsg{ConnectionID: ids.NewConnectionID()}

	responses := drainResponses(t, outbox, 1, 2*time.Second)
	assert.Equal(t, "ConnectionNotInRoom", responses[0].ErrorType)
}

func TestActor_PriorityPassCycle_AdvancesPhase(t *testing.T) {
	actor, outbox, players, playerToConn := newTestActor(t, 2)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go actor.Run(ctx)
	drainResponses(t, outbox, 1+len(players)+1, 2*time.Second)

	holder := actor.state.CurrentPriorityPlayer
	var other ids.PlayerID
	for _, p := range players {
		if p != holder {
			other = p
		}
	}
	// The phase only advances once every seat has passed priority.
	actor.inbox <- PriorityPassFromConnectionMsg{ConnectionID: playerToConn[holder]}
	actor.inbox <- PriorityPassFromConnectionMsg{ConnectionID: playerToConn[other]}

	responses := drainResponses(t, outbox, 2*(1+len(players)+1), 2*time.Second)

	var lastPhase string
	for _, r := range responses {
		if r.Type == wire.TypeTurnPhaseChange {
			lastPhase = r.Phase
		}
	}
	assert.Equal(t, "LootStep", lastPhase)
}

func TestActor_AckMsg_StopsRetries(t *testing.T) {
	actor, outbox, _, _ := newTestActor(t, 2)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go actor.Run(ctx)
	responses := drainResponses(t, outbox, 4, 2*time.Second)

	// One reliable PrivateBoardState push per player; each needs its own ack.
	var messageIDs []string
	for _, r := range responses {
		if r.Type == wire.TypePrivateBoardState {
			messageIDs = append(messageIDs, r.ReliableID)
		}
	}
	require.NotEmpty(t, messageIDs)
	assert.Equal(t, 2, actor.broadcaster.reliable.Pending())

	for _, messageID := range messageIDs {
		actor.inbox <- AckMsg{MessageID: messageID}
	}

	require.Eventually(t, func() bool {
		return actor.broadcaster.reliable.Pending() == 0
	}, 2*time.Second, 10*time.Millisecond)
}

func TestActor_StopsOnInboxClose(t *testing.T) {
	actor, outbox, _, _ := newTestActor(t, 2)

	done := make(chan struct{})
	go func() {
		actor.Run(context.Background())
		close(done)
	}()
	drainResponses(t, outbox, 4, 2*time.Second)

	close(actor.inbox)

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("actor did not stop after inbox closed")
	}
}
