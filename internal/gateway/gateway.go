// Package gateway is the connection terminator: it upgrades HTTP
// connections to WebSockets, runs the per-connection read/write pumps,
// demultiplexes inbound frames, and exposes the health route. It is
// built from a gin router, a per-client Send/Done channel pair and
// read/write pump goroutines, with a single /ws upgrade endpoint and
// room-keyed broadcast.
package gateway

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/terminal-bench/quizleaderboard/internal/quiz"
	"github.com/terminal-bench/quizleaderboard/internal/resilience"
	"github.com/terminal-bench/quizleaderboard/internal/session"
)

// WSClient is one live client connection, keyed by an opaque session
// id. Send carries outbound frames to the write pump; Done signals the
// write pump to exit.
type WSClient struct {
	SessionID string
	Conn      *websocket.Conn

	Send chan []byte
	Done chan struct{}

	closeOnce sync.Once
}

func (c *WSClient) close() {
	c.closeOnce.Do(func() {
		close(c.Done)
	})
}

// Config configures the gateway's HTTP surface.
type Config struct {
	Port string
}

// Gateway owns the gin router, the live connection table, and the
// session lifecycle manager.
type Gateway struct {
	router  *gin.Engine
	srv     *http.Server
	clients sync.Map // session id -> *WSClient

	sessions *session.Manager
	svc      *quiz.Service
	gate     *resilience.Gate
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

func New(sessions *session.Manager, svc *quiz.Service, gate *resilience.Gate) *Gateway {
	g := &Gateway{
		router:   gin.Default(),
		sessions: sessions,
		svc:      svc,
		gate:     gate,
	}
	g.setupRoutes()
	return g
}

func (g *Gateway) setupRoutes() {
	g.router.GET("/healthz", g.healthCheck)
	g.router.GET("/ws", g.handleWebSocket)
}

// Start runs the HTTP server, blocking until it shuts down or fails.
func (g *Gateway) Start(addr string) error {
	g.srv = &http.Server{Addr: addr, Handler: g.router}
	err := g.srv.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown drains outbound queues for a bounded grace period, then
// closes every live connection.
func (g *Gateway) Shutdown(ctx context.Context) error {
	err := g.srv.Shutdown(ctx)

	deadline := time.Now().Add(50 * time.Millisecond)
	if d, ok := ctx.Deadline(); ok {
		deadline = d
	}
	time.Sleep(time.Until(deadline))

	g.clients.Range(func(_, v interface{}) bool {
		client := v.(*WSClient)
		client.Conn.Close()
		return true
	})
	return err
}

// Router exposes the underlying gin engine for tests that want to drive
// requests through httptest without a live listener.
func (g *Gateway) Router() http.Handler {
	return g.router
}

func (g *Gateway) healthCheck(c *gin.Context) {
	snap := g.gate.Snapshot()
	c.JSON(http.StatusOK, gin.H{
		"status":         "ok",
		"circuitState":   snap.State.String(),
		"windowFailures": snap.WindowFailures,
		"windowTotal":    snap.WindowTotal,
	})
}

func (g *Gateway) handleWebSocket(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}

	client := &WSClient{
		SessionID: uuid.New().String(),
		Conn:      conn,
		Send:      make(chan []byte, 16),
		Done:      make(chan struct{}),
	}
	g.clients.Store(client.SessionID, client)

	// Baseline timestamp so the sweep can see this session even if it
	// never sends an explicit HEARTBEAT frame.
	g.sessions.Heartbeat.Record(client.SessionID)

	go g.writePump(client)
	g.readPump(client)
}

// CloseConnection force-closes the live connection for sessionID, if
// one is still open. Used by the heartbeat sweep to tear down the
// socket of a session it just found stale, the same way a client-side
// disconnect does.
func (g *Gateway) CloseConnection(sessionID string) {
	v, ok := g.clients.Load(sessionID)
	if !ok {
		return
	}
	client := v.(*WSClient)
	client.close()
	client.Conn.Close()
}

// BroadcastToRoom implements broadcast.RoomSender: deliver payload to
// every local session in quizID's room, non-blocking so one slow or
// stuck client can never stall the redraw for everyone else.
func (g *Gateway) BroadcastToRoom(quizID string, payload []byte) {
	for _, sessionID := range g.sessions.Registry.RoomMembers(quizID) {
		v, ok := g.clients.Load(sessionID)
		if !ok {
			continue
		}
		client := v.(*WSClient)
		select {
		case client.Send <- payload:
		default:
		}
	}
}
