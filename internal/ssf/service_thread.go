package ssf

import (
	"github.com/memfault/memfaultd/internal/log"
)

// ServiceThread runs a service in its own dedicated goroutine, processing one
// envelope at a time. Use this for services with no state shared outside the
// actor ("pure actor").
type ServiceThread[S Service] struct {
	Mailbox Mailbox[S]
}

// SpawnDedicated starts service in a new goroutine and returns a handle to
// its mailbox.
func SpawnDedicated[S Service](service S) *ServiceThread[S] {
	mb, recv := NewMailbox[S]()
	go runDedicated(service, mb, recv)
	return &ServiceThread[S]{Mailbox: mb}
}

func runDedicated[S Service](service S, mb Mailbox[S], recv Inbox[S]) {
	logger := log.WithComponent(service.Name())
	stats := NewStatsAggregator()
	defer mb.markClosed()
	defer func() { logger.Debug().Str("stats", stats.String()).Msg("service thread stopped") }()

	for {
		envelope, ok := recv.Receive()
		if !ok {
			return
		}
		s, err := envelope.DeliverTo(&service)
		if err != nil {
			logger.Fatal().Err(err).Msg("delivery failed")
		}
		stats.Add(s)
		if envelope.IsShutdown() {
			return
		}
	}
}
