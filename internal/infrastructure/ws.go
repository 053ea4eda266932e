package infra

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

var (
	writeWait    = 10 * time.Second
	pongWait     = 30 * time.Second
	pingInterval = pongWait * 9 / 10
)

const maxInboundMessage = 512

// Websocket fan-out hub, connections are grouped by an integer key (the learner id)
type Websocket struct {
	upgrader websocket.Upgrader
	logger   *zap.Logger

	mu    sync.RWMutex
	conns map[int]map[*wsConn]struct{}
}

// gorilla connections support one concurrent writer only
type wsConn struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (wc *wsConn) writeJSON(v interface{}) error {
	wc.mu.Lock()
	defer wc.mu.Unlock()
	wc.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return wc.conn.WriteJSON(v)
}

func (wc *wsConn) ping() error {
	wc.mu.Lock()
	defer wc.mu.Unlock()
	return wc.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait))
}

// NewWebsocket create a hub
func NewWebsocket(logger *zap.Logger) *Websocket {
	return &Websocket{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
			HandshakeTimeout: 3 * time.Second,
		},
		logger: logger,
		conns:  make(map[int]map[*wsConn]struct{}),
	}
}

// Subscribe upgrade the request and route pushes addressed to key into it until the peer goes away
func (ws *Websocket) Subscribe(c echo.Context, key int) error {
	conn, err := ws.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		// upgrader has replied with an http error already
		ws.logger.Debug("websocket upgrade failed", zap.Error(err))
		return nil
	}

	wc := &wsConn{conn: conn}
	ws.register(key, wc)

	done := make(chan struct{})
	go ws.heartbeatRoutine(wc, done)
	go ws.readRoutine(key, wc, done)
	return nil
}

// Push write v as JSON to every connection of key, returns the number of successful deliveries
func (ws *Websocket) Push(key int, v interface{}) int {
	ws.mu.RLock()
	targets := make([]*wsConn, 0, len(ws.conns[key]))
	for wc := range ws.conns[key] {
		targets = append(targets, wc)
	}
	ws.mu.RUnlock()

	delivered := 0
	for _, wc := range targets {
		if err := wc.writeJSON(v); err != nil {
			ws.logger.Debug("websocket push failed", zap.Int("ws.key", key), zap.Error(err))
			// read routine notices the closed conn and unregisters it
			wc.conn.Close()
			continue
		}
		delivered++
	}
	return delivered
}

// Count number of live connections under key
func (ws *Websocket) Count(key int) int {
	ws.mu.RLock()
	defer ws.mu.RUnlock()
	return len(ws.conns[key])
}

func (ws *Websocket) register(key int, wc *wsConn) {
	ws.mu.Lock()
	defer ws.mu.Unlock()
	group, ok := ws.conns[key]
	if !ok {
		group = make(map[*wsConn]struct{})
		ws.conns[key] = group
	}
	group[wc] = struct{}{}
}

func (ws *Websocket) unregister(key int, wc *wsConn) {
	ws.mu.Lock()
	defer ws.mu.Unlock()
	if group, ok := ws.conns[key]; ok {
		delete(group, wc)
		if len(group) == 0 {
			delete(ws.conns, key)
		}
	}
}

func (ws *Websocket) heartbeatRoutine(wc *wsConn, done <-chan struct{}) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			if err := wc.ping(); err != nil {
				wc.conn.Close()
				return
			}
		}
	}
}

// inbound frames are discarded, reading keeps pong handling and close detection alive
func (ws *Websocket) readRoutine(key int, wc *wsConn, done chan<- struct{}) {
	conn := wc.conn
	defer func() {
		ws.unregister(key, wc)
		close(done)
		conn.Close()
	}()

	conn.SetReadLimit(maxInboundMessage)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}
