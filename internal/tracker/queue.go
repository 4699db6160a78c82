package tracker

import (
	"context"
	"log"
	"sync"
	"time"
)

// remoteWriteTimeout bounds a single queued remote write.
const remoteWriteTimeout = 30 * time.Second

// writeQueue serializes the remote writes for one collection. Jobs run
// one at a time in enqueue order, so a later full-replace can never be
// overtaken by an earlier one.
type writeQueue struct {
	name   string
	logger *log.Logger

	jobs chan func(context.Context)
	wg   sync.WaitGroup

	done      chan struct{}
	closeOnce sync.Once
}

func newWriteQueue(name string, logger *log.Logger) *writeQueue {
	q := &writeQueue{
		name:   name,
		logger: logger,
		jobs:   make(chan func(context.Context), 64),
		done:   make(chan struct{}),
	}
	go q.run()
	return q
}

func (q *writeQueue) run() {
	for {
		select {
		case <-q.done:
			return
		case job := <-q.jobs:
			ctx, cancel := context.WithTimeout(context.Background(), remoteWriteTimeout)
			job(ctx)
			cancel()
			q.wg.Done()
		}
	}
}

// enqueue schedules a job. After close the job is dropped; callers do
// not depend on remote completion, so a dropped job only means the
// durable tier is behind by one write.
func (q *writeQueue) enqueue(job func(context.Context)) {
	q.wg.Add(1)
	select {
	case q.jobs <- job:
	case <-q.done:
		q.wg.Done()
		q.logger.Printf("%s queue closed, dropping write", q.name)
	}
}

// flush blocks until every enqueued job has run or ctx expires.
func (q *writeQueue) flush(ctx context.Context) error {
	idle := make(chan struct{})
	go func() {
		q.wg.Wait()
		close(idle)
	}()
	select {
	case <-idle:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (q *writeQueue) close() {
	q.closeOnce.Do(func() { close(q.done) })
}
