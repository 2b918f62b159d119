package ssf

import "testing"

func TestMsgMailboxAdaptsMailboxSend(t *testing.T) {
	jig := PrepareJig(counterService{})
	msgMb := NewMsgMailbox(jig.Mailbox, deliverAdd)

	if err := msgMb.SendAndForget(addMsg{amount: 4}); err != nil {
		t.Fatalf("SendAndForget() error = %v", err)
	}
	jig.ProcessAll()

	if got, want := jig.Service().total, 4; got != want {
		t.Errorf("total = %d, want %d", got, want)
	}
}

func TestMsgMailboxCloneSharesTarget(t *testing.T) {
	mock := NewServiceMock[addMsg, int]()
	clone := mock.Mailbox.Clone()

	if err := clone.SendAndForget(addMsg{amount: 1}); err != nil {
		t.Fatalf("SendAndForget() error = %v", err)
	}

	messages := mock.Messages()
	if len(messages) != 1 || messages[0].amount != 1 {
		t.Errorf("messages = %+v, want one message with amount 1", messages)
	}
}

func TestServiceMockTakeMessagesClearsRecorder(t *testing.T) {
	mock := NewServiceMock[addMsg, int]()
	_ = mock.Mailbox.SendAndForget(addMsg{amount: 1})
	_ = mock.Mailbox.SendAndForget(addMsg{amount: 2})

	taken := mock.TakeMessages()
	if len(taken) != 2 {
		t.Fatalf("len(taken) = %d, want 2", len(taken))
	}

	if remaining := mock.Messages(); len(remaining) != 0 {
		t.Errorf("len(remaining) = %d, want 0 after TakeMessages", len(remaining))
	}
}
