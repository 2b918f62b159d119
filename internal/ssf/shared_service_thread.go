package ssf

import (
	"sync"

	"github.com/memfault/memfaultd/internal/log"
)

// SharedServiceThread runs a service in its own goroutine like ServiceThread,
// but also exposes the service behind a mutex so callers on other goroutines
// can read its state directly without going through the mailbox. Prefer
// ServiceThread for new code; this exists for components that still need
// direct shared-memory access during a migration to pure actors.
type SharedServiceThread[S Service] struct {
	Mailbox Mailbox[S]
	mu      *sync.Mutex
	service *S
}

// SpawnShared starts service in a new goroutine, guarded by a mutex, and
// returns a handle to both its mailbox and its shared state.
func SpawnShared[S Service](service S) *SharedServiceThread[S] {
	mb, recv := NewMailbox[S]()
	mu := &sync.Mutex{}
	svc := &service
	go runShared(svc, mu, mb, recv)
	return &SharedServiceThread[S]{Mailbox: mb, mu: mu, service: svc}
}

// Shared locks and returns the service along with an unlock function. Callers
// must invoke unlock when done.
func (t *SharedServiceThread[S]) Shared() (service *S, unlock func()) {
	t.mu.Lock()
	return t.service, t.mu.Unlock
}

func runShared[S Service](service *S, mu *sync.Mutex, mb Mailbox[S], recv Inbox[S]) {
	logger := log.WithComponent((*service).Name())
	stats := NewStatsAggregator()
	defer mb.markClosed()
	defer func() { logger.Debug().Str("stats", stats.String()).Msg("shared service thread stopped") }()

	for {
		envelope, ok := recv.Receive()
		if !ok {
			return
		}
		mu.Lock()
		s, err := envelope.DeliverTo(service)
		mu.Unlock()
		if err != nil {
			logger.Fatal().Err(err).Msg("delivery failed")
		}
		stats.Add(s)
		if envelope.IsShutdown() {
			return
		}
	}
}
