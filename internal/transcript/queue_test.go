package transcript

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/atlas-develop/clinic-assistant/pkg/logging"
)

type recordingWriter struct {
	mu      sync.Mutex
	records []Record
	err     error
	done    chan struct{}
}

func newRecordingWriter(expect int) *recordingWriter {
	w := &recordingWriter{}
	if expect > 0 {
		w.done = make(chan struct{}, expect)
	}
	return w
}

func (w *recordingWriter) Write(_ context.Context, rec Record) error {
	w.mu.Lock()
	w.records = append(w.records, rec)
	w.mu.Unlock()
	if w.done != nil {
		w.done <- struct{}{}
	}
	return w.err
}

func (w *recordingWriter) snapshot() []Record {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]Record, len(w.records))
	copy(out, w.records)
	return out
}

func waitFor(t *testing.T, ch chan struct{}, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		select {
		case <-ch:
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out waiting for write %d of %d", i+1, n)
		}
	}
}

func TestQueueDeliversInOrder(t *testing.T) {
	writer := newRecordingWriter(3)
	q := NewQueue(writer, 8, logging.Default())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go q.Run(ctx)

	q.Enqueue(Record{Destination: "1", Text: "first"})
	q.Enqueue(Record{Destination: "1", Text: "second"})
	q.Enqueue(Record{Destination: "1", Text: "third"})

	waitFor(t, writer.done, 3)
	got := writer.snapshot()
	if len(got) != 3 {
		t.Fatalf("expected 3 records, got %d", len(got))
	}
	for i, want := range []string{"first", "second", "third"} {
		if got[i].Text != want {
			t.Fatalf("record %d: expected %q, got %q", i, want, got[i].Text)
		}
	}
}

func TestEnqueueDropsOldestWhenFull(t *testing.T) {
	writer := newRecordingWriter(0)
	q := NewQueue(writer, 2, logging.Default())

	// no consumer running: buffer fills, then sheds from the front
	q.Enqueue(Record{Text: "a"})
	q.Enqueue(Record{Text: "b"})
	q.Enqueue(Record{Text: "c"})

	if q.Pending() != 2 {
		t.Fatalf("expected 2 pending records, got %d", q.Pending())
	}

	writer.done = make(chan struct{}, 2)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go q.Run(ctx)

	waitFor(t, writer.done, 2)
	got := writer.snapshot()
	if got[0].Text != "b" || got[1].Text != "c" {
		t.Fatalf("expected oldest record dropped, got %q then %q", got[0].Text, got[1].Text)
	}
}

func TestWriterFailureDoesNotStopConsumer(t *testing.T) {
	writer := newRecordingWriter(2)
	writer.err = errors.New("sink unavailable")
	q := NewQueue(writer, 8, logging.Default())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go q.Run(ctx)

	q.Enqueue(Record{Text: "a"})
	q.Enqueue(Record{Text: "b"})

	waitFor(t, writer.done, 2)
	if len(writer.snapshot()) != 2 {
		t.Fatalf("expected consumer to keep draining after a write error")
	}
}

func TestRunStopsOnContextCancel(t *testing.T) {
	writer := newRecordingWriter(0)
	q := NewQueue(writer, 8, logging.Default())

	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	go func() {
		q.Run(ctx)
		close(stopped)
	}()

	cancel()
	select {
	case <-stopped:
	case <-time.After(2 * time.Second):
		t.Fatal("consumer did not stop after cancel")
	}
}

func TestDestination(t *testing.T) {
	if got := Destination("12345", "alice"); got != "12345 - @alice" {
		t.Fatalf("unexpected destination: %q", got)
	}
	if got := Destination("12345", ""); got != "12345" {
		t.Fatalf("expected bare chat id, got %q", got)
	}
}
