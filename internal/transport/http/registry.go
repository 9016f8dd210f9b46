package http

import (
	"context"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"live-quiz-service/internal/domain"
)

const writeTimeout = 10 * time.Second

// ConnRegistry is the push channel: it resolves a connection id to the
// live websocket and delivers one JSON message to it. Gorilla permits a
// single concurrent writer per connection, so writes serialize on a
// per-connection mutex.
type ConnRegistry struct {
	mu    sync.RWMutex
	conns map[string]*wsConn
}

type wsConn struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func NewConnRegistry() *ConnRegistry {
	return &ConnRegistry{conns: make(map[string]*wsConn)}
}

func (r *ConnRegistry) Register(connectionID string, conn *websocket.Conn) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.conns[connectionID] = &wsConn{conn: conn}
}

func (r *ConnRegistry) Unregister(connectionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.conns, connectionID)
}

// Push delivers one message; it fails when the connection is gone or the
// write errors. Callers treat failures as per-attempt outcomes.
func (r *ConnRegistry) Push(_ context.Context, connectionID string, message any) error {
	r.mu.RLock()
	c, ok := r.conns[connectionID]
	r.mu.RUnlock()
	if !ok {
		return domain.ErrConnectionGone
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return c.conn.WriteJSON(message)
}
