package notify_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/coder/websocket"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flitsinc/agentboard/internal/notify"
)

type fakeConn struct {
	mu     sync.Mutex
	msgs   []string
	fail   bool
	closed bool
}

func (f *fakeConn) Write(_ context.Context, _ websocket.MessageType, data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail || f.closed {
		return errors.New("connection closed")
	}
	f.msgs = append(f.msgs, string(data))
	return nil
}

func (f *fakeConn) Close(websocket.StatusCode, string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func (f *fakeConn) isClosed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

func (f *fakeConn) messages() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.msgs...)
}

func TestBroadcastDeliversOneTokenPerChannel(t *testing.T) {
	hub := notify.NewHub(nil)
	conns := make([]*fakeConn, 4)
	for i := range conns {
		conns[i] = &fakeConn{}
		hub.Register(conns[i])
	}

	assert.Equal(t, 4, hub.Broadcast(context.Background()))
	for _, c := range conns {
		assert.Equal(t, []string{notify.Token}, c.messages())
	}
}

func TestBroadcastDropsFailingChannel(t *testing.T) {
	hub := notify.NewHub(nil)
	good1, bad, good2 := &fakeConn{}, &fakeConn{fail: true}, &fakeConn{}
	hub.Register(good1)
	hub.Register(bad)
	hub.Register(good2)

	assert.Equal(t, 2, hub.Broadcast(context.Background()))
	assert.Equal(t, 2, hub.Len())
	assert.True(t, bad.closed)
	assert.Equal(t, []string{notify.Token}, good1.messages())
	assert.Equal(t, []string{notify.Token}, good2.messages())

	assert.Equal(t, 2, hub.Broadcast(context.Background()))
	assert.Len(t, good1.messages(), 2)
}

// stalledConn never completes a write on its own.
type stalledConn struct{ fakeConn }

func (s *stalledConn) Write(ctx context.Context, _ websocket.MessageType, _ []byte) error {
	<-ctx.Done()
	return ctx.Err()
}

func TestBroadcastBoundsStalledChannel(t *testing.T) {
	hub := notify.NewHub(nil)
	hub.SetWriteTimeout(50 * time.Millisecond)
	stuck := &stalledConn{}
	ok := &fakeConn{}
	hub.Register(stuck)
	hub.Register(ok)

	start := time.Now()
	assert.Equal(t, 1, hub.Broadcast(context.Background()))
	assert.Less(t, time.Since(start), time.Second)
	assert.Equal(t, []string{notify.Token}, ok.messages())
	assert.True(t, stuck.isClosed())
	assert.Equal(t, 1, hub.Len())
}

func TestUnregister(t *testing.T) {
	hub := notify.NewHub(nil)
	c := &fakeConn{}
	id := hub.Register(c)
	hub.Unregister(id)
	hub.Unregister(id)
	assert.Equal(t, 0, hub.Len())
	assert.Equal(t, 0, hub.Broadcast(context.Background()))
	assert.Empty(t, c.messages())
}

func TestLocalNotify(t *testing.T) {
	hub := notify.NewHub(nil)
	c := &fakeConn{}
	hub.Register(c)
	require.NoError(t, notify.NewLocal(hub).Notify(context.Background()))
	assert.Equal(t, []string{notify.Token}, c.messages())
}

func TestRedisRelayFansOutAcrossHubs(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	rc := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rc.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	hubA, hubB := notify.NewHub(nil), notify.NewHub(nil)
	connA, connB := &fakeConn{}, &fakeConn{}
	hubA.Register(connA)
	hubB.Register(connB)

	relayA := notify.NewRedisRelay(rc, "test-updates", hubA, nil)
	relayB := notify.NewRedisRelay(rc, "test-updates", hubB, nil)
	go relayA.Run(ctx)
	go relayB.Run(ctx)

	require.Eventually(t, func() bool {
		return mr.PubSubNumSub("test-updates")["test-updates"] == 2
	}, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, relayA.Notify(context.Background()))

	require.Eventually(t, func() bool {
		return len(connA.messages()) == 1 && len(connB.messages()) == 1
	}, 2*time.Second, 10*time.Millisecond)
}
