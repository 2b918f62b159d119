package ssf

import (
	"errors"
	"sync"
)

// ErrMailboxClosed is returned when a send targets a mailbox whose service
// loop has already exited.
var ErrMailboxClosed = errors.New("ssf: mailbox receiver has been closed")

// ErrNoResponse is returned by SendAndWaitForReply if its reply channel is
// closed without a reply. Send never closes that channel; a send to a
// mailbox that has been shut down fails with ErrMailboxClosed instead.
var ErrNoResponse = errors.New("ssf: no reply received")

// mailboxState is an unbounded FIFO guarded by a mutex and condition
// variable, grounded on the Rust std::sync::mpsc::channel() this framework
// ports from: send never blocks on a concurrent receiver, queuing instead.
type mailboxState[S any] struct {
	mu     sync.Mutex
	cond   *sync.Cond
	queue  []Envelope[S]
	closed bool
}

// Mailbox is a lightweight, cheaply-copied handle used to send messages to a
// service of type S running behind some loop (dedicated thread, shared
// thread, or a synchronous test Jig).
type Mailbox[S any] struct {
	state *mailboxState[S]
}

// Inbox is the receive side of a mailbox, held only by the loop that drains
// it (a service thread's goroutine, or a test Jig).
type Inbox[S any] struct {
	state *mailboxState[S]
}

// NewMailbox creates a mailbox and the receive side its service loop should
// drain.
func NewMailbox[S any]() (Mailbox[S], Inbox[S]) {
	st := &mailboxState[S]{}
	st.cond = sync.NewCond(&st.mu)
	return Mailbox[S]{state: st}, Inbox[S]{state: st}
}

// markClosed is called by the service loop once it stops reading from the
// mailbox, so any blocked or future sender gets ErrMailboxClosed instead of
// queuing into a mailbox nothing will ever drain.
func (mb Mailbox[S]) markClosed() {
	st := mb.state
	st.mu.Lock()
	defer st.mu.Unlock()
	st.closed = true
	st.cond.Broadcast()
}

func (mb Mailbox[S]) send(e Envelope[S]) error {
	st := mb.state
	st.mu.Lock()
	defer st.mu.Unlock()
	if st.closed {
		return ErrMailboxClosed
	}
	st.queue = append(st.queue, e)
	// Nothing queued behind a shutdown envelope would ever be delivered, so
	// once one is queued the mailbox refuses further sends.
	if e.shutdown {
		st.closed = true
	}
	st.cond.Signal()
	return nil
}

// Receive blocks until an envelope is queued or the mailbox is closed with
// nothing left to deliver.
func (in Inbox[S]) Receive() (Envelope[S], bool) {
	st := in.state
	st.mu.Lock()
	defer st.mu.Unlock()
	for len(st.queue) == 0 && !st.closed {
		st.cond.Wait()
	}
	if len(st.queue) == 0 {
		var zero Envelope[S]
		return zero, false
	}
	e := st.queue[0]
	st.queue = st.queue[1:]
	return e, true
}

// TryReceive returns the next queued envelope without blocking for more to
// arrive, for a test Jig's ProcessAll.
func (in Inbox[S]) TryReceive() (Envelope[S], bool) {
	st := in.state
	st.mu.Lock()
	defer st.mu.Unlock()
	if len(st.queue) == 0 {
		var zero Envelope[S]
		return zero, false
	}
	e := st.queue[0]
	st.queue = st.queue[1:]
	return e, true
}

// SendAndForget enqueues deliver to run against the service, ignoring any
// result. Returns ErrMailboxClosed if the receiver has gone away.
func (mb Mailbox[S]) SendAndForget(deliver func(*S)) error {
	return mb.send(newEnvelope(deliver, false))
}

// Send runs deliver against the service and returns its result via a
// buffered channel that will receive exactly one value once the envelope has
// been processed.
func Send[S any, R any](mb Mailbox[S], deliver func(*S) R) (<-chan R, error) {
	ack := make(chan R, 1)
	err := mb.send(newEnvelope(func(s *S) {
		ack <- deliver(s)
	}, false))
	if err != nil {
		return nil, err
	}
	return ack, nil
}

// SendAndWaitForReply runs deliver against the service and blocks for its
// result.
func SendAndWaitForReply[S any, R any](mb Mailbox[S], deliver func(*S) R) (R, error) {
	var zero R
	ack, err := Send(mb, deliver)
	if err != nil {
		return zero, err
	}
	reply, ok := <-ack
	if !ok {
		return zero, ErrNoResponse
	}
	return reply, nil
}

// Shutdown asks the service behind mb to stop processing after this
// envelope. Every service supports it.
func Shutdown[S any](mb Mailbox[S]) error {
	return mb.send(newEnvelope(func(*S) {}, true))
}

// Ping round-trips through the mailbox, proving the service loop is alive
// and has drained everything queued ahead of it.
func Ping[S any](mb Mailbox[S]) error {
	_, err := SendAndWaitForReply(mb, func(*S) struct{} { return struct{}{} })
	return err
}
