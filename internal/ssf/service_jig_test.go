package ssf

import "testing"

type counterService struct {
	total int
}

func (c counterService) Name() string { return "counter" }

type addMsg struct{ amount int }

func deliverAdd(s *counterService, m addMsg) int {
	s.total += m.amount
	return s.total
}

func TestJigProcessAllDeliversQueuedMessages(t *testing.T) {
	jig := PrepareJig(counterService{})

	for _, amount := range []int{1, 2, 3} {
		if err := jig.Mailbox.SendAndForget(func(s *counterService) { deliverAdd(s, addMsg{amount: amount}) }); err != nil {
			t.Fatalf("SendAndForget() error = %v", err)
		}
	}

	if jig.Service().total != 0 {
		t.Fatalf("expected no delivery before ProcessAll, got total = %d", jig.Service().total)
	}

	jig.ProcessAll()

	if got, want := jig.Service().total, 6; got != want {
		t.Errorf("total = %d, want %d", got, want)
	}
}

func TestJigProcessAllIsIdempotentWhenEmpty(t *testing.T) {
	jig := PrepareJig(counterService{})
	jig.ProcessAll()
	jig.ProcessAll()

	if jig.Service().total != 0 {
		t.Errorf("total = %d, want 0", jig.Service().total)
	}
}

func TestSendAndWaitForReplyReturnsHandlerResult(t *testing.T) {
	jig := PrepareJig(counterService{})

	replyCh, err := Send(jig.Mailbox, func(s *counterService) int { return deliverAdd(s, addMsg{amount: 5}) })
	if err != nil {
		t.Fatalf("Send() error = %v", err)
	}

	jig.ProcessAll()

	select {
	case reply := <-replyCh:
		if reply != 5 {
			t.Errorf("reply = %d, want 5", reply)
		}
	default:
		t.Fatal("expected reply to be ready after ProcessAll")
	}
}

func TestShutdownStopsDedicatedServiceThread(t *testing.T) {
	thread := SpawnDedicated(counterService{})

	if err := thread.Mailbox.SendAndForget(func(s *counterService) { deliverAdd(s, addMsg{amount: 1}) }); err != nil {
		t.Fatalf("SendAndForget() error = %v", err)
	}
	if err := Shutdown(thread.Mailbox); err != nil {
		t.Fatalf("Shutdown() error = %v", err)
	}

	if err := Ping(thread.Mailbox); err == nil {
		t.Error("expected Ping() after Shutdown() to fail, got nil error")
	}
}
