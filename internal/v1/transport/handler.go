package transport

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/store/memory"
	"go.uber.org/zap"

	"github.com/cardtable/arena/internal/v1/connection"
	"github.com/cardtable/arena/internal/v1/delivery"
	"github.com/cardtable/arena/internal/v1/ids"
	"github.com/cardtable/arena/internal/v1/logging"
	"github.com/cardtable/arena/internal/v1/metrics"
	"github.com/cardtable/arena/internal/v1/registry"
	"github.com/cardtable/arena/internal/v1/wire"
)

// Server owns the /ws upgrade route. It mints a ConnectionActor and a
// Client per accepted socket and wires both into the registry and the
// outbound command path before starting their pumps.
type Server struct {
	registry       *registry.ActorRegistry
	outbox         chan<- delivery.Command
	msgRate        string
	allowedOrigins []string
	connectLimiter *limiter.Limiter
}

// NewServer constructs a Server. connectRate and msgRate are
// limiter.NewRateFromFormatted strings (e.g. "20-M", "10-S"): the former
// bounds upgrade attempts per remote IP, the latter bounds how many
// messages each accepted connection may send per window.
func NewServer(reg *registry.ActorRegistry, outbox chan<- delivery.Command, allowedOrigins []string, connectRate, msgRate string) (*Server, error) {
	rate, err := limiter.NewRateFromFormatted(connectRate)
	if err != nil {
		return nil, fmt.Errorf("transport: invalid connect rate: %w", err)
	}
	return &Server{
		registry:       reg,
		outbox:         outbox,
		msgRate:        msgRate,
		allowedOrigins: allowedOrigins,
		connectLimiter: limiter.New(memory.NewStore(), rate),
	}, nil
}

var upgrader = websocket.Upgrader{}

// ServeWS upgrades the request to a WebSocket connection, mints a new
// ConnectionId, and wires a Client/ConnectionActor pair for its lifetime.
func (s *Server) ServeWS(c *gin.Context) {
	ctx := c.Request.Context()

	ip := c.ClientIP()
	metrics.RateLimitRequests.WithLabelValues("ws_connect").Inc()
	limitCtx, err := s.connectLimiter.Get(ctx, ip)
	if err != nil {
		logging.Warn(ctx, "connect rate limiter check failed, allowing upgrade", zap.Error(err))
	} else if limitCtx.Reached {
		metrics.RateLimitExceeded.WithLabelValues("ws_connect", "per_ip").Inc()
		c.JSON(http.StatusTooManyRequests, gin.H{"error": "too many connection attempts"})
		return
	}

	if err := validateOrigin(c.Request, s.allowedOrigins); err != nil {
		c.JSON(http.StatusForbidden, gin.H{"error": "origin not allowed"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logging.Warn(ctx, "websocket upgrade failed", zap.Error(err))
		return
	}

	id := ids.NewConnectionID()
	client := NewClient(id, conn)

	connActor, err := connection.NewActor(id, s.registry, s.outbox, s.msgRate)
	if err != nil {
		logging.Error(ctx, "failed to construct connection actor", zap.Error(err))
		conn.Close()
		return
	}

	s.registry.RegisterConnectionActor(id, connActor.Inbox())
	s.outbox <- delivery.AddConnectionCmd{ID: id, Sink: client}
	metrics.IncConnection()

	if payload, err := json.Marshal(wire.ServerResponse{Type: wire.TypeConnectionID, ConnectionID: id}); err == nil {
		s.outbox <- delivery.SendToOneCmd{Conn: id, Payload: payload}
	}

	actorCtx, cancel := context.WithCancel(context.Background())
	go connActor.Run(actorCtx)
	go client.WritePump()

	client.ReadPump(actorCtx, connActor.Inbox())

	cancel()
	client.Close()
	s.outbox <- delivery.RemoveConnectionCmd{ID: id}
	metrics.DecConnection()
}

// validateOrigin allows any request carrying no Origin header (non-browser
// clients) and otherwise requires a scheme+host match against allowed.
func validateOrigin(r *http.Request, allowed []string) error {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return nil
	}

	originURL, err := url.Parse(origin)
	if err != nil {
		return fmt.Errorf("invalid origin URL: %w", err)
	}

	for _, a := range allowed {
		a = strings.TrimSpace(a)
		allowedURL, err := url.Parse(a)
		if err != nil {
			continue
		}
		if originURL.Scheme == allowedURL.Scheme && originURL.Host == allowedURL.Host {
			return nil
		}
	}
	return fmt.Errorf("origin not allowed: %s", origin)
}
