package api

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"MomentumPull/internal/domain/models"
	svcmetrics "MomentumPull/internal/service/metrics"
	xlogger "MomentumPull/pkg/logger"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
)

const (
	wsWriteWait  = 5 * time.Second
	wsPongWait   = 60 * time.Second
	wsPingPeriod = wsPongWait * 9 / 10
	wsSendBuffer = 4
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

type wsClient struct {
	conn *websocket.Conn
	send chan []byte
}

// DashboardHub pushes every refreshed dashboard to connected websocket clients.
// Slow clients whose buffer is full are disconnected.
type DashboardHub struct {
	logger *xlogger.Logger
	latest func() *models.Dashboard

	mu      sync.Mutex
	clients map[*wsClient]struct{}
	closed  bool
}

// NewDashboardHub creates the hub; latest may be nil.
func NewDashboardHub(logger *xlogger.Logger, latest func() *models.Dashboard) *DashboardHub {
	if logger == nil {
		logger = xlogger.NewNop()
	}
	return &DashboardHub{
		logger:  logger,
		latest:  latest,
		clients: make(map[*wsClient]struct{}),
	}
}

func (h *DashboardHub) RegisterRoutes(e *echo.Echo) {
	e.GET("/ws/dashboard", h.Serve)
}

// Serve upgrades the request and streams dashboards until the peer goes away.
func (h *DashboardHub) Serve(c echo.Context) error {
	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", xlogger.Error(err))
		return nil
	}

	cl := &wsClient{conn: conn, send: make(chan []byte, wsSendBuffer)}
	// queued before the client is visible to Broadcast
	if h.latest != nil {
		if d := h.latest(); d != nil {
			if msg, err := json.Marshal(d); err == nil {
				cl.send <- msg
			}
		}
	}
	if !h.add(cl) {
		_ = conn.Close()
		return nil
	}

	go h.writeLoop(cl)
	h.readLoop(cl)
	return nil
}

// Broadcast implements usecase.Broadcaster.
func (h *DashboardHub) Broadcast(d *models.Dashboard) {
	if d == nil {
		return
	}
	msg, err := json.Marshal(d)
	if err != nil {
		h.logger.Error("marshal dashboard failed", xlogger.Error(err))
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for cl := range h.clients {
		select {
		case cl.send <- msg:
		default:
			h.logger.Warn("dropping slow dashboard subscriber",
				xlogger.String("remote", cl.conn.RemoteAddr().String()))
			h.removeLocked(cl)
		}
	}
}

// Subscribers returns the number of connected clients.
func (h *DashboardHub) Subscribers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Close disconnects every client and rejects new ones.
func (h *DashboardHub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	for cl := range h.clients {
		h.removeLocked(cl)
	}
}

func (h *DashboardHub) add(cl *wsClient) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return false
	}
	h.clients[cl] = struct{}{}
	svcmetrics.DashboardSubscribers.Set(float64(len(h.clients)))
	return true
}

func (h *DashboardHub) remove(cl *wsClient) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removeLocked(cl)
}

func (h *DashboardHub) removeLocked(cl *wsClient) {
	if _, ok := h.clients[cl]; !ok {
		return
	}
	delete(h.clients, cl)
	close(cl.send)
	svcmetrics.DashboardSubscribers.Set(float64(len(h.clients)))
}

func (h *DashboardHub) writeLoop(cl *wsClient) {
	ticker := time.NewTicker(wsPingPeriod)
	defer func() {
		ticker.Stop()
		_ = cl.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-cl.send:
			_ = cl.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if !ok {
				_ = cl.conn.WriteMessage(websocket.CloseMessage, nil)
				return
			}
			if err := cl.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				h.remove(cl)
				return
			}
		case <-ticker.C:
			_ = cl.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := cl.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				h.remove(cl)
				return
			}
		}
	}
}

// readLoop drains control frames; clients never send data.
func (h *DashboardHub) readLoop(cl *wsClient) {
	defer h.remove(cl)
	cl.conn.SetReadLimit(512)
	_ = cl.conn.SetReadDeadline(time.Now().Add(wsPongWait))
	cl.conn.SetPongHandler(func(string) error {
		return cl.conn.SetReadDeadline(time.Now().Add(wsPongWait))
	})
	for {
		if _, _, err := cl.conn.ReadMessage(); err != nil {
			return
		}
	}
}
