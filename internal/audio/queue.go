package audio

import (
	"context"
	"sync"
)

type job struct {
	gen  uint64
	ctx  context.Context
	run  func(ctx context.Context, gen uint64)
	drop func()
}

// sessionQueue runs one session's commands strictly one at a time. The worker
// goroutine lives only while jobs are queued.
type sessionQueue struct {
	mtx     sync.Mutex
	gen     uint64
	jobs    []*job
	running bool
	// cancels the in-flight job
	cancel func()
}

func (q *sessionQueue) push(j *job, preempt bool) {
	q.mtx.Lock()
	var dropped []*job
	if preempt {
		q.gen++
		dropped = q.jobs
		q.jobs = nil
		if q.cancel != nil {
			q.cancel()
		}
	}
	j.gen = q.gen
	q.jobs = append(q.jobs, j)
	if !q.running {
		q.running = true
		go q.work()
	}
	q.mtx.Unlock()

	for _, d := range dropped {
		d.drop()
	}
}

// clear drops queued jobs and bumps the generation so the in-flight job
// discards its result.
func (q *sessionQueue) clear() {
	q.mtx.Lock()
	q.gen++
	dropped := q.jobs
	q.jobs = nil
	if q.cancel != nil {
		q.cancel()
	}
	q.mtx.Unlock()

	for _, d := range dropped {
		d.drop()
	}
}

func (q *sessionQueue) generation() uint64 {
	q.mtx.Lock()
	defer q.mtx.Unlock()
	return q.gen
}

func (q *sessionQueue) idle() bool {
	q.mtx.Lock()
	defer q.mtx.Unlock()
	return !q.running && len(q.jobs) == 0
}

func (q *sessionQueue) work() {
	for {
		q.mtx.Lock()
		if len(q.jobs) == 0 {
			q.running = false
			q.cancel = nil
			q.mtx.Unlock()
			return
		}
		j := q.jobs[0]
		q.jobs = q.jobs[1:]
		ctx, cancel := context.WithCancel(j.ctx)
		q.cancel = cancel
		q.mtx.Unlock()

		j.run(ctx, j.gen)
		cancel()
	}
}

type queues struct {
	mtx      sync.Mutex
	sessions map[string]*sessionQueue
}

func newQueues() *queues {
	return &queues{sessions: map[string]*sessionQueue{}}
}

func (qs *queues) get(code string) *sessionQueue {
	qs.mtx.Lock()
	defer qs.mtx.Unlock()
	q, ok := qs.sessions[code]
	if !ok {
		q = &sessionQueue{}
		qs.sessions[code] = q
	}
	return q
}

// forget drops an idle session queue.
func (qs *queues) forget(code string) {
	qs.mtx.Lock()
	defer qs.mtx.Unlock()
	if q, ok := qs.sessions[code]; ok && q.idle() {
		delete(qs.sessions, code)
	}
}
