package audit

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"
	"time"
)

func TestDisabledDispatcherIsNil(t *testing.T) {
	d := NewDispatcher(Config{Enabled: false}, nil)
	if d != nil {
		t.Fatal("disabled dispatcher must be nil")
	}
	// Nil-safe surface.
	d.Emit(context.Background(), Event{EventType: "login_success"})
	d.Close()
	if d.Dropped() != 0 {
		t.Fatal("nil dispatcher reported drops")
	}
}

func TestDispatcherDeliversInOrder(t *testing.T) {
	sink := NewChannelSink(8)
	d := NewDispatcher(Config{Enabled: true, BufferSize: 8}, sink)

	for _, et := range []string{"login_success", "renew_success", "logout"} {
		d.Emit(context.Background(), Event{EventType: et, Timestamp: time.Now()})
	}

	for _, want := range []string{"login_success", "renew_success", "logout"} {
		select {
		case ev := <-sink.Events():
			if ev.EventType != want {
				t.Fatalf("got %q, want %q", ev.EventType, want)
			}
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out waiting for %q", want)
		}
	}
	d.Close()
}

func TestDispatcherDrainsOnClose(t *testing.T) {
	var buf bytes.Buffer
	sink := NewJSONWriterSink(&buf)

	d := NewDispatcher(Config{Enabled: true, BufferSize: 16}, sink)
	for i := 0; i < 5; i++ {
		d.Emit(context.Background(), Event{EventType: "retry", Success: true})
	}
	// Close waits for the forwarder, so the buffer is quiescent below.
	d.Close()

	dec := json.NewDecoder(&buf)
	count := 0
	for dec.More() {
		var ev Event
		if err := dec.Decode(&ev); err != nil {
			t.Fatalf("decode: %v", err)
		}
		count++
	}
	if count != 5 {
		t.Fatalf("drained %d events, want 5", count)
	}
}

func TestDispatcherDropsUnderBackpressure(t *testing.T) {
	block := make(chan struct{})
	sink := &blockingSink{release: block}
	d := NewDispatcher(Config{Enabled: true, BufferSize: 1, DropIfFull: true}, sink)

	// First event occupies the forwarder, second fills the buffer, the
	// rest must be shed without blocking.
	for i := 0; i < 10; i++ {
		d.Emit(context.Background(), Event{EventType: "login_failure"})
	}
	if d.Dropped() == 0 {
		t.Fatal("expected drops under backpressure")
	}
	close(block)
	d.Close()
}

func TestEmitAfterCloseIsNoOp(t *testing.T) {
	sink := NewChannelSink(1)
	d := NewDispatcher(Config{Enabled: true, BufferSize: 1}, sink)
	d.Close()
	d.Emit(context.Background(), Event{EventType: "logout"})
	select {
	case ev := <-sink.Events():
		t.Fatalf("event delivered after close: %+v", ev)
	case <-time.After(50 * time.Millisecond):
	}
}

type blockingSink struct {
	release chan struct{}
}

func (s *blockingSink) Emit(_ context.Context, _ Event) { <-s.release }

