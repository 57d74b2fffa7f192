package transcript

import (
	"context"
	"time"

	"github.com/atlas-develop/clinic-assistant/pkg/logging"
)

// Record is a single line of conversation bound for the transcript sink.
type Record struct {
	Destination string
	ClientID    string
	Role        string
	Text        string
	When        time.Time
}

// Writer persists transcript records to an external sink.
type Writer interface {
	Write(ctx context.Context, rec Record) error
}

// Queue decouples turn processing from transcript delivery. Producers never
// block: when the buffer is full the oldest record is dropped and a warning
// is logged.
type Queue struct {
	ch     chan Record
	writer Writer
	logger *logging.Logger
}

// NewQueue creates a Queue with the provided buffer capacity.
func NewQueue(writer Writer, buffer int, logger *logging.Logger) *Queue {
	if writer == nil {
		panic("transcript: writer required")
	}
	if buffer <= 0 {
		buffer = 256
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Queue{
		ch:     make(chan Record, buffer),
		writer: writer,
		logger: logger,
	}
}

// Enqueue adds a record without blocking the caller. A full buffer sheds the
// oldest pending record to make room.
func (q *Queue) Enqueue(rec Record) {
	for {
		select {
		case q.ch <- rec:
			return
		default:
		}
		select {
		case dropped := <-q.ch:
			q.logger.Warn("transcript queue full, dropped oldest record",
				"destination", dropped.Destination,
				"client_id", dropped.ClientID)
		default:
		}
	}
}

// Run consumes records until ctx is canceled. Write failures are logged and
// the affected record is discarded; delivery never feeds back into the
// conversation path.
func (q *Queue) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case rec := <-q.ch:
			if err := q.writer.Write(ctx, rec); err != nil {
				q.logger.Error("transcript write failed",
					"error", err,
					"destination", rec.Destination)
			}
		}
	}
}

// Pending reports the number of buffered records.
func (q *Queue) Pending() int {
	return len(q.ch)
}
