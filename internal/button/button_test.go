package button

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

// scriptedPin replays a fixed sequence of states, holding the last
// one once the script runs out
type scriptedPin struct {
	mu     sync.Mutex
	states []bool
	i      int
	err    error
}

func (p *scriptedPin) Pressed() (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return false, p.err
	}
	if len(p.states) == 0 {
		return false, nil
	}
	if p.i < len(p.states)-1 {
		s := p.states[p.i]
		p.i++
		return s, nil
	}
	return p.states[len(p.states)-1], nil
}

func newTestButton(pin Pin) *Button {
	return NewWithPin(pin, time.Millisecond, time.Millisecond)
}

func TestWaitForPress(t *testing.T) {
	pin := &scriptedPin{states: []bool{false, false, true}}
	b := newTestButton(pin)

	done := make(chan error, 1)
	go func() {
		done <- b.WaitForPress(context.Background())
	}()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Expected no error, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("WaitForPress did not return")
	}
}

func TestWaitForPress_Cancelled(t *testing.T) {
	pin := &scriptedPin{states: []bool{false}}
	b := newTestButton(pin)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- b.WaitForPress(ctx)
	}()

	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Expected context.Canceled, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("WaitForPress did not return after cancel")
	}
}

func TestWaitForRelease(t *testing.T) {
	pin := &scriptedPin{states: []bool{true, true, false}}
	b := newTestButton(pin)

	done := make(chan error, 1)
	go func() {
		done <- b.WaitForRelease(context.Background())
	}()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Expected no error, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("WaitForRelease did not return")
	}
}

func TestWaitForPress_PinError(t *testing.T) {
	pin := &scriptedPin{err: errors.New("read failed")}
	b := newTestButton(pin)

	err := b.WaitForPress(context.Background())
	if err == nil {
		t.Fatal("Expected error from failing pin, got nil")
	}
}

func TestMonitorInterrupt_FiresOncePerPress(t *testing.T) {
	// Press, hold, release, then idle
	pin := &scriptedPin{states: []bool{false, true, true, true, false, false}}
	b := newTestButton(pin)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	fired := make(chan struct{}, 2)
	done := make(chan struct{})
	go func() {
		b.MonitorInterrupt(ctx, func() { fired <- struct{}{} })
		close(done)
	}()

	select {
	case <-fired:
	case <-time.After(time.Second):
		t.Fatal("MonitorInterrupt did not fire on press")
	}

	// Give the monitor time to run past the release
	time.Sleep(20 * time.Millisecond)
	select {
	case <-fired:
		t.Error("Expected a single interrupt for one press, got two")
	default:
	}

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("MonitorInterrupt did not stop after cancel")
	}
}

func TestMonitorInterrupt_NoPress(t *testing.T) {
	pin := &scriptedPin{states: []bool{false}}
	b := newTestButton(pin)

	ctx, cancel := context.WithCancel(context.Background())
	fired := make(chan struct{}, 1)
	done := make(chan struct{})
	go func() {
		b.MonitorInterrupt(ctx, func() { fired <- struct{}{} })
		close(done)
	}()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("MonitorInterrupt did not stop after cancel")
	}
	select {
	case <-fired:
		t.Error("Expected no interrupt without a press")
	default:
	}
}
