package jobs

import (
	"context"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

const (
	DefaultWorkers   = 4
	DefaultQueueSize = 1024
)

type job struct {
	name string
	fn   func(ctx context.Context)
}

// Pool runs detached background work on a fixed set of workers. Delivery is
// at most once: Submit drops work when the queue is full or the pool is
// closed.
type Pool struct {
	queue  chan job
	group  *errgroup.Group
	ctx    context.Context
	cancel context.CancelFunc
	log    logrus.FieldLogger

	mu     sync.RWMutex
	closed bool
}

func NewPool(workers, queueSize int, log logrus.FieldLogger) *Pool {
	if workers <= 0 {
		workers = DefaultWorkers
	}
	if queueSize <= 0 {
		queueSize = DefaultQueueSize
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	ctx, cancel := context.WithCancel(context.Background())
	p := &Pool{
		queue:  make(chan job, queueSize),
		group:  &errgroup.Group{},
		ctx:    ctx,
		cancel: cancel,
		log:    log,
	}
	for i := 0; i < workers; i++ {
		p.group.Go(p.work)
	}
	return p
}

func (p *Pool) Submit(name string, fn func(ctx context.Context)) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		p.log.WithField("job", name).Warn("pool closed, dropping job")
		return false
	}
	select {
	case p.queue <- job{name: name, fn: fn}:
		return true
	default:
		p.log.WithField("job", name).Warn("job queue full, dropping job")
		return false
	}
}

// Close stops accepting work, runs what is already queued and waits for the
// workers to exit.
func (p *Pool) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	close(p.queue)
	p.mu.Unlock()

	err := p.group.Wait()
	p.cancel()
	return err
}

func (p *Pool) work() error {
	for j := range p.queue {
		p.run(j)
	}
	return nil
}

func (p *Pool) run(j job) {
	defer func() {
		if r := recover(); r != nil {
			p.log.WithField("job", j.name).WithError(fmt.Errorf("panic: %v", r)).Error("job panicked")
		}
	}()
	j.fn(p.ctx)
}
