package ssf

import "github.com/memfault/memfaultd/internal/log"

// Jig runs a service without a goroutine so a test can control precisely
// when queued messages are delivered and inspect the service's state at any
// point in between.
type Jig[S Service] struct {
	Mailbox Mailbox[S]
	service S
	recv    Inbox[S]
}

// PrepareJig wraps service for synchronous, test-controlled delivery.
func PrepareJig[S Service](service S) *Jig[S] {
	mb, recv := NewMailbox[S]()
	return &Jig[S]{Mailbox: mb, service: service, recv: recv}
}

// ProcessAll delivers every envelope currently queued, without blocking for
// more to arrive.
func (j *Jig[S]) ProcessAll() {
	for {
		envelope, ok := j.recv.TryReceive()
		if !ok {
			return
		}
		if _, err := envelope.DeliverTo(&j.service); err != nil {
			log.WithComponent(j.service.Name()).Fatal().Err(err).Msg("delivery failed")
		}
	}
}

// Service returns a read-only view of the wrapped service.
func (j *Jig[S]) Service() *S { return &j.service }
