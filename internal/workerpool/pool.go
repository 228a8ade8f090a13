// Package workerpool implements the core's fixed-size worker pool (spec
// component C4): a bounded job ring with FIFO dispatch and first-error
// latching, used by the parallel decoder (C10) to fan band jobs across
// goroutines.
//
// Grounded on two pack sources: the atomic-fast-path-before-falling-back
// design comes from the teacher's internal/lossy/encode_parallel.go
// rowSync (cache-line-padded atomic counters with a mutex/cond fallback);
// the channel-based job/result shape comes from
// other_examples/…diamondburned-tcell-sixel…pipeline.go's
// pipelineReady/workerFinished channels plus context cancellation and a
// sync.WaitGroup join.
package workerpool

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/deepteams/sixel/internal/status"
)

// Job is an opaque unit of work, matching spec.md §4.4's "a job is an
// opaque integer (band index)".
type Job int

// WorkerFunc processes a single job. workspace is the worker's
// zero-initialized per-worker scratch buffer, sized by workspaceSize at
// pool construction; userdata is shared, caller-owned state.
type WorkerFunc func(job Job, userdata any, workspace []byte) error

// Pool is a fixed-size worker pool with a bounded job ring.
type Pool struct {
	fn       WorkerFunc
	userdata any

	jobs chan Job

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	firstErr atomic.Pointer[error]

	finished atomic.Bool
}

// New starts nthreads workers pulling from a ring buffer of capacity
// qsize. Each worker gets workspaceSize bytes of zero-initialized scratch,
// per spec.md §4.4.
func New(nthreads, qsize, workspaceSize int, fn WorkerFunc, userdata any) *Pool {
	if nthreads < 1 {
		nthreads = 1
	}
	if qsize < 1 {
		qsize = 1
	}
	ctx, cancel := context.WithCancel(context.Background())
	p := &Pool{
		fn:       fn,
		userdata: userdata,
		jobs:     make(chan Job, qsize),
		ctx:      ctx,
		cancel:   cancel,
	}
	p.wg.Add(nthreads)
	for i := 0; i < nthreads; i++ {
		go p.worker(workspaceSize)
	}
	return p
}

func (p *Pool) worker(workspaceSize int) {
	defer p.wg.Done()
	workspace := make([]byte, workspaceSize)
	for {
		select {
		case job := <-p.jobs:
			if err := p.fn(job, p.userdata, workspace); err != nil {
				p.latchError(err)
			}
		case <-p.ctx.Done():
			// Drain any jobs already queued before shutting down, so
			// "finish drains running jobs" holds even under cancellation.
			for {
				select {
				case job := <-p.jobs:
					if err := p.fn(job, p.userdata, workspace); err != nil {
						p.latchError(err)
					}
				default:
					return
				}
			}
		}
	}
}

func (p *Pool) latchError(err error) {
	p.firstErr.CompareAndSwap(nil, &err)
}

// Push enqueues a job, blocking while the ring is full. Pushing after
// Finish has been called is a programming error and returns
// status.LogicError rather than panicking on a closed channel.
func (p *Pool) Push(job Job) error {
	if p.finished.Load() {
		return status.New(status.LogicError, "push after pool finish")
	}
	select {
	case p.jobs <- job:
		return nil
	case <-p.ctx.Done():
		return status.New(status.Interrupted, "pool shutting down")
	}
}

// Finish marks the pool as shutting down, drains queued jobs, joins every
// worker, and returns the first non-OK error latched by any worker (nil if
// none).
func (p *Pool) Finish() error {
	p.finished.Store(true)
	p.cancel()
	p.wg.Wait()
	if e := p.firstErr.Load(); e != nil {
		return *e
	}
	return nil
}
