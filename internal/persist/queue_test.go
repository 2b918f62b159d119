package persist

import "testing"

func TestQueuePushPopIsFIFO(t *testing.T) {
	store := openTestStore(t)
	queue, err := store.Queue("reboot-reasons")
	if err != nil {
		t.Fatal(err)
	}

	for _, v := range []string{"first", "second", "third"} {
		if err := queue.Push([]byte(v)); err != nil {
			t.Fatal(err)
		}
	}

	for _, want := range []string{"first", "second", "third"} {
		got, ok, err := queue.Pop()
		if err != nil {
			t.Fatal(err)
		}
		if !ok || string(got) != want {
			t.Fatalf("expected (%q, true), got (%q, %v)", want, got, ok)
		}
	}

	_, ok, err := queue.Pop()
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Error("expected queue to be empty after draining")
	}
}

func TestQueuePeekDoesNotRemove(t *testing.T) {
	store := openTestStore(t)
	queue, err := store.Queue("q")
	if err != nil {
		t.Fatal(err)
	}
	if err := queue.Push([]byte("only")); err != nil {
		t.Fatal(err)
	}

	got, ok, err := queue.Peek()
	if err != nil {
		t.Fatal(err)
	}
	if !ok || string(got) != "only" {
		t.Fatalf("unexpected peek result: %q, %v", got, ok)
	}

	n, err := queue.Len()
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Errorf("expected Peek to leave the entry in place, Len=%d", n)
	}
}

func TestQueueLenTracksPushesAndPops(t *testing.T) {
	store := openTestStore(t)
	queue, err := store.Queue("q")
	if err != nil {
		t.Fatal(err)
	}

	for i := 0; i < 3; i++ {
		if err := queue.Push([]byte{byte(i)}); err != nil {
			t.Fatal(err)
		}
	}
	if n, err := queue.Len(); err != nil || n != 3 {
		t.Fatalf("expected Len 3, got %d (err=%v)", n, err)
	}

	if _, _, err := queue.Pop(); err != nil {
		t.Fatal(err)
	}
	if n, err := queue.Len(); err != nil || n != 2 {
		t.Fatalf("expected Len 2 after one pop, got %d (err=%v)", n, err)
	}
}

func TestQueueTrimCapsToMaxLen(t *testing.T) {
	store := openTestStore(t)
	queue, err := store.Queue("q")
	if err != nil {
		t.Fatal(err)
	}

	for _, v := range []string{"a", "b", "c", "d", "e"} {
		if err := queue.Push([]byte(v)); err != nil {
			t.Fatal(err)
		}
	}

	if err := queue.Trim(2); err != nil {
		t.Fatal(err)
	}

	n, err := queue.Len()
	if err != nil {
		t.Fatal(err)
	}
	if n != 2 {
		t.Fatalf("expected 2 entries after trim, got %d", n)
	}

	// The oldest entries ("a", "b", "c") should have been discarded first.
	first, _, err := queue.Peek()
	if err != nil {
		t.Fatal(err)
	}
	if string(first) != "d" {
		t.Errorf("expected oldest surviving entry to be %q, got %q", "d", first)
	}
}

func TestDifferentQueuesAreIndependent(t *testing.T) {
	store := openTestStore(t)
	a, err := store.Queue("a")
	if err != nil {
		t.Fatal(err)
	}
	b, err := store.Queue("b")
	if err != nil {
		t.Fatal(err)
	}

	if err := a.Push([]byte("only-in-a")); err != nil {
		t.Fatal(err)
	}

	if n, err := b.Len(); err != nil || n != 0 {
		t.Fatalf("expected queue b to be empty, Len=%d (err=%v)", n, err)
	}
}
