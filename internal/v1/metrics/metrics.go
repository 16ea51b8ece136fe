package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics for the card table session server.
//
// Naming convention: namespace_subsystem_name
// - namespace: cardtable (application-level grouping)
// - subsystem: websocket, lobby, game (feature-level grouping)
// - name: specific metric (connections_active, events_total, etc.)
//
// Metric Types:
// - Gauge: Current state (connections, rooms, players)
// - Counter: Cumulative events (messages processed, errors)
// - Histogram: Latency distributions (processing time)

var (
	// ActiveWebSocketConnections tracks the current number of active WebSocket connections.
	ActiveWebSocketConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "cardtable",
		Subsystem: "websocket",
		Name:      "connections_active",
		Help:      "Current number of active WebSocket connections",
	})

	// ActiveRooms tracks the current number of rooms held by the lobby,
	// including rooms whose game is in progress.
	ActiveRooms = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "cardtable",
		Subsystem: "lobby",
		Name:      "rooms_active",
		Help:      "Current number of active lobby rooms",
	})

	// ActiveGames tracks the current number of in-progress GameActors.
	ActiveGames = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "cardtable",
		Subsystem: "game",
		Name:      "games_active",
		Help:      "Current number of in-progress games",
	})

	// RoomPlayers tracks the number of players seated in each room.
	RoomPlayers = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "cardtable",
		Subsystem: "lobby",
		Name:      "room_players",
		Help:      "Number of players seated in each lobby room",
	}, []string{"room_id"})

	// WebsocketEvents tracks the total number of WebSocket client messages processed.
	WebsocketEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "cardtable",
		Subsystem: "websocket",
		Name:      "events_total",
		Help:      "Total WebSocket client messages processed",
	}, []string{"message_type", "status"})

	// MessageProcessingDuration tracks the time spent dispatching one client message.
	MessageProcessingDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "cardtable",
		Subsystem: "websocket",
		Name:      "message_processing_seconds",
		Help:      "Time spent processing a WebSocket client message",
		Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
	}, []string{"message_type"})

	// GameTransitions tracks phase/priority transitions accepted by GameActors.
	GameTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "cardtable",
		Subsystem: "game",
		Name:      "transitions_total",
		Help:      "Total phase and priority transitions accepted by game actors",
	}, []string{"phase"})

	// GamesCompleted tracks games that reached a win condition.
	GamesCompleted = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "cardtable",
		Subsystem: "game",
		Name:      "completed_total",
		Help:      "Total games that reached a win condition",
	})

	// RateLimitExceeded tracks the total number of requests that exceeded a rate limit.
	RateLimitExceeded = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "cardtable",
		Subsystem: "rate_limit",
		Name:      "exceeded_total",
		Help:      "Total number of requests that exceeded the rate limit",
	}, []string{"endpoint", "reason"})

	// RateLimitRequests tracks the total number of requests checked against the rate limiter.
	RateLimitRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "cardtable",
		Subsystem: "rate_limit",
		Name:      "requests_total",
		Help:      "Total number of requests checked against the rate limiter",
	}, []string{"endpoint"})

	// ReliableRetries tracks retries issued by the reliable-delivery sender (§5).
	ReliableRetries = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "cardtable",
		Subsystem: "reliable",
		Name:      "retries_total",
		Help:      "Total retries issued by the reliable-delivery sender",
	}, []string{"outcome"})
)

func IncConnection() {
	ActiveWebSocketConnections.Inc()
}

func DecConnection() {
	ActiveWebSocketConnections.Dec()
}
