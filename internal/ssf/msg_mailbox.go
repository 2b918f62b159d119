package ssf

import "sync"

// MsgMailbox depends only on the type of message it carries, not on which
// service handles it. This lets a producer and a consumer be wired together
// without either knowing the other's concrete service type — handy for
// passing a handle into a constructor, or swapping in a ServiceMock in tests.
type MsgMailbox[M any, R any] struct {
	target msgMailboxTarget[M, R]
}

type msgMailboxTarget[M any, R any] interface {
	SendAndForget(M) error
	SendAndWaitForReply(M) (R, error)
	duplicate() msgMailboxTarget[M, R]
}

// NewMsgMailbox adapts a concrete Mailbox[S] into a MsgMailbox[M, R] given a
// function describing how S handles M.
func NewMsgMailbox[S any, M any, R any](mb Mailbox[S], deliver func(*S, M) R) MsgMailbox[M, R] {
	return MsgMailbox[M, R]{target: mailboxAdapter[S, M, R]{mb: mb, deliver: deliver}}
}

// SendAndForget enqueues message, ignoring its reply.
func (m MsgMailbox[M, R]) SendAndForget(message M) error {
	return m.target.SendAndForget(message)
}

// SendAndWaitForReply enqueues message and blocks for its reply.
func (m MsgMailbox[M, R]) SendAndWaitForReply(message M) (R, error) {
	return m.target.SendAndWaitForReply(message)
}

// Clone returns an independent handle to the same underlying recipient.
func (m MsgMailbox[M, R]) Clone() MsgMailbox[M, R] {
	return MsgMailbox[M, R]{target: m.target.duplicate()}
}

type mailboxAdapter[S any, M any, R any] struct {
	mb      Mailbox[S]
	deliver func(*S, M) R
}

func (a mailboxAdapter[S, M, R]) SendAndForget(message M) error {
	deliver := a.deliver
	return a.mb.SendAndForget(func(s *S) { deliver(s, message) })
}

func (a mailboxAdapter[S, M, R]) SendAndWaitForReply(message M) (R, error) {
	return SendAndWaitForReply(a.mb, func(s *S) R { return a.deliver(s, message) })
}

func (a mailboxAdapter[S, M, R]) duplicate() msgMailboxTarget[M, R] {
	return a
}

// MockMsgMailbox records every message sent to it instead of delivering it
// anywhere. Create one with NewServiceMock.
type MockMsgMailbox[M any, R any] struct {
	mu       *sync.Mutex
	messages *[]M
}

// NewMockMsgMailbox returns a MsgMailbox backed by an in-memory recorder and
// the recorder itself, so a test can both hand out the mailbox and later
// inspect what was sent to it.
func NewMockMsgMailbox[M any, R any]() (MsgMailbox[M, R], *MockMsgMailbox[M, R]) {
	mock := &MockMsgMailbox[M, R]{mu: &sync.Mutex{}, messages: &[]M{}}
	return MsgMailbox[M, R]{target: mock}, mock
}

func (m *MockMsgMailbox[M, R]) SendAndForget(message M) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	*m.messages = append(*m.messages, message)
	return nil
}

func (m *MockMsgMailbox[M, R]) SendAndWaitForReply(M) (R, error) {
	panic("ssf: MockMsgMailbox does not support SendAndWaitForReply")
}

func (m *MockMsgMailbox[M, R]) duplicate() msgMailboxTarget[M, R] {
	return m
}

// Messages returns a snapshot of everything sent so far.
func (m *MockMsgMailbox[M, R]) Messages() []M {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]M, len(*m.messages))
	copy(out, *m.messages)
	return out
}

// TakeMessages returns everything sent so far and clears the recorder.
func (m *MockMsgMailbox[M, R]) TakeMessages() []M {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := *m.messages
	*m.messages = nil
	return out
}
