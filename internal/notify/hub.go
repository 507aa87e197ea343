package notify

import (
	"context"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/oklog/ulid/v2"
	"github.com/sirupsen/logrus"
)

// Token is the only message subscribers ever receive. It carries no detail;
// clients re-fetch state when they see it.
const Token = "UPDATE"

const defaultWriteTimeout = time.Second

// Conn is one subscriber channel. *websocket.Conn satisfies it.
type Conn interface {
	Write(ctx context.Context, typ websocket.MessageType, data []byte) error
	Close(code websocket.StatusCode, reason string) error
}

// Hub owns the live subscriber set. A single mutex covers register,
// unregister and broadcast, and Broadcast writes to channels one at a time
// while holding it. A stalled subscriber therefore delays everyone after it,
// and every Register and Unregister call, by up to the write timeout before
// it is dropped.
type Hub struct {
	mu    sync.Mutex
	conns map[string]Conn

	writeTimeout time.Duration
	log          logrus.FieldLogger
}

func NewHub(log logrus.FieldLogger) *Hub {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Hub{conns: map[string]Conn{}, writeTimeout: defaultWriteTimeout, log: log}
}

// SetWriteTimeout bounds each per-channel write during Broadcast.
func (h *Hub) SetWriteTimeout(d time.Duration) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if d > 0 {
		h.writeTimeout = d
	}
}

func (h *Hub) Register(c Conn) string {
	id := ulid.Make().String()
	h.mu.Lock()
	h.conns[id] = c
	n := len(h.conns)
	h.mu.Unlock()
	h.log.WithFields(logrus.Fields{"conn": id, "subscribers": n}).Debug("subscriber registered")
	return id
}

func (h *Hub) Unregister(id string) {
	h.mu.Lock()
	_, ok := h.conns[id]
	delete(h.conns, id)
	h.mu.Unlock()
	if ok {
		h.log.WithField("conn", id).Debug("subscriber removed")
	}
}

func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.conns)
}

// Broadcast writes Token to every channel and returns how many writes
// succeeded. A channel whose write fails is closed and dropped; the rest
// still receive the token.
func (h *Hub) Broadcast(ctx context.Context) int {
	h.mu.Lock()
	defer h.mu.Unlock()

	delivered := 0
	for id, c := range h.conns {
		wctx, cancel := context.WithTimeout(ctx, h.writeTimeout)
		err := c.Write(wctx, websocket.MessageText, []byte(Token))
		cancel()
		if err != nil {
			h.log.WithError(err).WithField("conn", id).Info("dropping subscriber after failed write")
			_ = c.Close(websocket.StatusGoingAway, "write failed")
			delete(h.conns, id)
			continue
		}
		delivered++
	}
	return delivered
}
