package queue

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

type recordingWriter struct {
	mu     sync.Mutex
	writes map[int64][]time.Time
	done   chan struct{}
	want   int
	total  int
}

func newRecordingWriter(want int) *recordingWriter {
	return &recordingWriter{writes: make(map[int64][]time.Time), done: make(chan struct{}), want: want}
}

func (w *recordingWriter) UpdateLastLogin(_ context.Context, id int64, at time.Time) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.writes[id] = append(w.writes[id], at)
	w.total++
	if w.total == w.want {
		close(w.done)
	}
	return nil
}

func TestLastLoginDispatcher_PreservesPerUserOrder(t *testing.T) {
	writer := newRecordingWriter(30)
	d := NewLastLoginDispatcher(3, writer, zerolog.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	d.Start(ctx)

	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 10; i++ {
		for _, id := range []int64{1, 2, 3} {
			d.Record(context.Background(), id, base.Add(time.Duration(i)*time.Second))
		}
	}

	select {
	case <-writer.done:
	case <-time.After(5 * time.Second):
		t.Fatalf("timed out waiting for writes")
	}

	writer.mu.Lock()
	defer writer.mu.Unlock()
	for id, times := range writer.writes {
		for i := 1; i < len(times); i++ {
			if times[i].Before(times[i-1]) {
				t.Fatalf("user %d writes out of order: %v", id, times)
			}
		}
	}
}

func TestLastLoginDispatcher_ShardIndexStable(t *testing.T) {
	d := NewLastLoginDispatcher(0, nil, zerolog.Nop())
	if len(d.workers) != defaultWorkers {
		t.Fatalf("expected %d workers, got %d", defaultWorkers, len(d.workers))
	}
	for id := int64(1); id < 100; id++ {
		a, b := d.shardIndex(id), d.shardIndex(id)
		if a != b || a < 0 || a >= len(d.workers) {
			t.Fatalf("bad shard for %d: %d/%d", id, a, b)
		}
	}
}

func TestLastLoginDispatcher_DrainsOnShutdown(t *testing.T) {
	writer := newRecordingWriter(5)
	d := NewLastLoginDispatcher(1, writer, zerolog.Nop())

	for i := 0; i < 5; i++ {
		d.Record(context.Background(), 42, time.Now())
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	d.Start(ctx)
	d.Wait()

	writer.mu.Lock()
	defer writer.mu.Unlock()
	if writer.total != 5 {
		t.Fatalf("expected 5 drained writes, got %d", writer.total)
	}
}
