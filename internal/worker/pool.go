package worker

import (
	"log/slog"
	"sync"

	"github.com/baharkarakas/qrpay-backend/internal/metrics"
)

// Pool runs fire-and-forget side work (audit writes, notifications) off the
// request path.
type Pool struct {
	wg      sync.WaitGroup
	jobs    chan func()
	mu      sync.RWMutex
	stopped bool
}

func NewPool(n, queue int) *Pool {
	if n <= 0 {
		n = 1
	}
	if queue <= 0 {
		queue = 1024
	}
	p := &Pool{jobs: make(chan func(), queue)}
	for i := 0; i < n; i++ {
		p.wg.Add(1)
		go func() {
			defer p.wg.Done()
			for job := range p.jobs {
				metrics.WorkerQueueDepth.Dec()
				p.run(job)
			}
		}()
	}
	return p
}

func (p *Pool) run(job func()) {
	defer func() {
		if rec := recover(); rec != nil {
			slog.Error("worker panic", "err", rec)
		}
	}()
	job()
}

// Submit queues f without blocking. It reports false when the queue is full
// or the pool is stopped.
func (p *Pool) Submit(f func()) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.stopped {
		return false
	}
	select {
	case p.jobs <- f:
		metrics.WorkerQueueDepth.Inc()
		return true
	default:
		return false
	}
}

// Stop drains queued jobs and waits for the workers to exit.
func (p *Pool) Stop() {
	p.mu.Lock()
	if p.stopped {
		p.mu.Unlock()
		return
	}
	p.stopped = true
	close(p.jobs)
	p.mu.Unlock()
	p.wg.Wait()
}
