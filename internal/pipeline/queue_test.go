package pipeline

import (
	"testing"
	"time"
)

func TestPlaybackQueue_FIFO(t *testing.T) {
	q := NewPlaybackQueue()

	for i := 0; i < 3; i++ {
		if err := q.Push(&Artifact{Seq: i}); err != nil {
			t.Fatalf("Push(%d) failed: %v", i, err)
		}
	}

	for i := 0; i < 3; i++ {
		a, ok := q.Pop()
		if !ok {
			t.Fatalf("Pop() returned closed at %d", i)
		}
		if a.Seq != i {
			t.Errorf("Expected Seq %d, got %d", i, a.Seq)
		}
	}
}

func TestPlaybackQueue_PopBlocksUntilPush(t *testing.T) {
	q := NewPlaybackQueue()

	got := make(chan *Artifact, 1)
	go func() {
		a, _ := q.Pop()
		got <- a
	}()

	select {
	case <-got:
		t.Fatal("Pop() returned before anything was pushed")
	case <-time.After(20 * time.Millisecond):
	}

	q.Push(&Artifact{Seq: 7})

	select {
	case a := <-got:
		if a.Seq != 7 {
			t.Errorf("Expected Seq 7, got %d", a.Seq)
		}
	case <-time.After(time.Second):
		t.Fatal("Pop() never woke after Push")
	}
}

func TestPlaybackQueue_CloseWakesBlockedPop(t *testing.T) {
	q := NewPlaybackQueue()

	done := make(chan bool, 1)
	go func() {
		_, ok := q.Pop()
		done <- ok
	}()

	time.Sleep(10 * time.Millisecond)
	q.Close()

	select {
	case ok := <-done:
		if ok {
			t.Error("Expected Pop() to report closed")
		}
	case <-time.After(time.Second):
		t.Fatal("Pop() never woke after Close")
	}
}

func TestPlaybackQueue_DrainsAfterClose(t *testing.T) {
	q := NewPlaybackQueue()
	q.Push(&Artifact{Seq: 0})
	q.Push(&Artifact{Seq: 1})
	q.Close()

	// Already-queued items remain poppable after close
	for i := 0; i < 2; i++ {
		a, ok := q.Pop()
		if !ok || a.Seq != i {
			t.Fatalf("Expected Seq %d after close, got ok=%v", i, ok)
		}
	}

	if _, ok := q.Pop(); ok {
		t.Error("Expected closed-and-empty after draining")
	}
}

func TestPlaybackQueue_PushAfterClose(t *testing.T) {
	q := NewPlaybackQueue()
	q.Close()

	if err := q.Push(&Artifact{}); err != ErrQueueClosed {
		t.Errorf("Expected ErrQueueClosed, got %v", err)
	}
}

func TestPlaybackQueue_Drain(t *testing.T) {
	q := NewPlaybackQueue()
	q.Push(&Artifact{Seq: 0})
	q.Push(&Artifact{Seq: 1})

	drained := q.Drain()
	if len(drained) != 2 {
		t.Fatalf("Expected 2 drained artifacts, got %d", len(drained))
	}
	if q.Len() != 0 {
		t.Errorf("Expected empty queue after Drain, got %d", q.Len())
	}
}
