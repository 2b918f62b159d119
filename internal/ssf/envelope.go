package ssf

import (
	"errors"
	"time"
)

// ErrDuplicateDelivery is returned by a second DeliverTo call against the
// same envelope. An envelope is delivered at most once; a second attempt is
// a framework-internal bug, not a retryable condition, and is fatal to the
// owning service loop.
var ErrDuplicateDelivery = errors.New("ssf: envelope already delivered")

// Envelope carries one pending delivery to a service of type S. The actual
// message and reply types are erased into the closure built by Send /
// SendAndForget; the service loop only needs to know how to run it.
type Envelope[S any] struct {
	deliver   func(*S)
	timestamp time.Time
	shutdown  bool
	delivered bool
}

// DeliveryStats reports how long an envelope waited in the mailbox and how
// long its handler took to run.
type DeliveryStats struct {
	Queued     time.Duration
	Processing time.Duration
}

func newEnvelope[S any](deliver func(*S), shutdown bool) Envelope[S] {
	return Envelope[S]{deliver: deliver, timestamp: time.Now(), shutdown: shutdown}
}

// DeliverTo runs the envelope's closure against service and returns how long
// it waited and took to process. Calling DeliverTo a second time on the same
// envelope does not run the closure again; it returns ErrDuplicateDelivery.
func (e *Envelope[S]) DeliverTo(service *S) (DeliveryStats, error) {
	if e.delivered {
		return DeliveryStats{}, ErrDuplicateDelivery
	}
	e.delivered = true
	processingAt := time.Now()
	e.deliver(service)
	now := time.Now()
	return DeliveryStats{
		Queued:     processingAt.Sub(e.timestamp),
		Processing: now.Sub(processingAt),
	}, nil
}

// IsShutdown reports whether this envelope is the terminal shutdown message.
// Service loops stop after delivering it and drop anything still queued.
func (e *Envelope[S]) IsShutdown() bool {
	return e.shutdown
}
