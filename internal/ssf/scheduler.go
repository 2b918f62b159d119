package ssf

import (
	"container/heap"
	"sync"
	"time"

	"github.com/memfault/memfaultd/internal/log"
)

// job is one entry in the scheduler's min-heap, ordered by next run time.
type job struct {
	nextRun time.Time
	period  time.Duration
	run     func() error
}

type jobHeap []*job

func (h jobHeap) Len() int            { return len(h) }
func (h jobHeap) Less(i, j int) bool  { return h[i].nextRun.Before(h[j].nextRun) }
func (h jobHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *jobHeap) Push(x interface{}) { *h = append(*h, x.(*job)) }
func (h *jobHeap) Pop() interface{} {
	old := *h
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return item
}

// Scheduler keeps a schedule of messages that need to be delivered to
// various mailboxes at fixed intervals. It runs on its own goroutine once
// started with Run.
type Scheduler struct {
	mu    sync.Mutex
	heap  jobHeap
	stop  chan struct{}
	onErr func(error)
}

// NewScheduler returns an empty Scheduler.
func NewScheduler() *Scheduler {
	return &Scheduler{stop: make(chan struct{})}
}

// ScheduleMessageSubscription arranges for message to be delivered to mb
// every period, starting after the first period elapses. The reply (if any)
// is discarded.
func ScheduleMessageSubscription[S any, M any](s *Scheduler, mb Mailbox[S], message M, period time.Duration, deliver func(*S, M)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	j := &job{
		nextRun: time.Now().Add(period),
		period:  period,
		run: func() error {
			_, err := SendAndWaitForReply(mb, func(svc *S) struct{} {
				deliver(svc, message)
				return struct{}{}
			})
			return err
		},
	}
	heap.Push(&s.heap, j)
}

// Run starts the scheduler's goroutine. onError is invoked whenever a
// delivery fails (typically because the target mailbox closed); the
// scheduler keeps running afterwards. Call Stop to terminate it.
func (s *Scheduler) Run(onError func(error)) {
	s.onErr = onError
	go s.loop()
}

// Stop terminates the scheduler's goroutine. Safe to call once.
func (s *Scheduler) Stop() {
	close(s.stop)
}

func (s *Scheduler) loop() {
	logger := log.WithComponent("scheduler")
	for {
		s.mu.Lock()
		if s.heap.Len() == 0 {
			s.mu.Unlock()
			select {
			case <-s.stop:
				return
			case <-time.After(50 * time.Millisecond):
				continue
			}
		}
		next := s.heap[0]
		wait := time.Until(next.nextRun)
		s.mu.Unlock()

		if wait > 0 {
			select {
			case <-s.stop:
				return
			case <-time.After(wait):
			}
		}

		s.mu.Lock()
		if s.heap.Len() == 0 {
			s.mu.Unlock()
			continue
		}
		due := heap.Pop(&s.heap).(*job)
		s.mu.Unlock()

		if err := due.run(); err != nil && s.onErr != nil {
			logger.Debug().Err(err).Msg("scheduled delivery failed")
			s.onErr(err)
		}

		due.nextRun = due.nextRun.Add(due.period)
		s.mu.Lock()
		heap.Push(&s.heap, due)
		s.mu.Unlock()

		select {
		case <-s.stop:
			return
		default:
		}
	}
}
