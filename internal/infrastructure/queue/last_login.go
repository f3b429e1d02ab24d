package queue

import (
	"context"
	"hash/fnv"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/baseuac/uac-api/internal/api/metrics"
)

const (
	defaultWorkers = 4
	channelBuffer  = 256
	drainTimeout   = 2 * time.Second
)

// LastLoginWriter is the store operation the dispatcher drives.
type LastLoginWriter interface {
	UpdateLastLogin(ctx context.Context, id int64, at time.Time) error
}

type lastLoginJob struct {
	userID int64
	at     time.Time
}

// LastLoginDispatcher writes last-login timestamps off the request path.
// Jobs are sharded by user id so writes for one user apply in arrival order.
// When a worker's buffer is full the job is dropped; the timestamp is
// best-effort.
type LastLoginDispatcher struct {
	workers []chan lastLoginJob
	writer  LastLoginWriter
	log     zerolog.Logger
	wg      sync.WaitGroup
}

// NewLastLoginDispatcher creates a dispatcher with numWorkers shards.
// If numWorkers <= 0, defaultWorkers is used.
func NewLastLoginDispatcher(numWorkers int, writer LastLoginWriter, log zerolog.Logger) *LastLoginDispatcher {
	if numWorkers <= 0 {
		numWorkers = defaultWorkers
	}
	d := &LastLoginDispatcher{
		workers: make([]chan lastLoginJob, numWorkers),
		writer:  writer,
		log:     log,
	}
	for i := range d.workers {
		d.workers[i] = make(chan lastLoginJob, channelBuffer)
	}
	return d
}

// Start launches all worker goroutines. Workers drain what is already queued
// and stop when ctx is cancelled.
func (d *LastLoginDispatcher) Start(ctx context.Context) {
	for i, ch := range d.workers {
		d.wg.Add(1)
		go d.runWorker(ctx, i, ch)
	}
}

// Wait blocks until every worker has returned.
func (d *LastLoginDispatcher) Wait() {
	d.wg.Wait()
}

// Record implements ports.LastLoginRecorder. It never blocks.
func (d *LastLoginDispatcher) Record(_ context.Context, userID int64, at time.Time) {
	idx := d.shardIndex(userID)
	select {
	case d.workers[idx] <- lastLoginJob{userID: userID, at: at}:
		metrics.LastLoginQueueDepth.WithLabelValues(strconv.Itoa(idx)).Set(float64(len(d.workers[idx])))
	default:
		metrics.LastLoginDroppedTotal.Inc()
		d.log.Warn().Int64("user_id", userID).Int("worker_id", idx).Msg("last login queue full, dropping update")
	}
}

// shardIndex maps a user id deterministically to a worker index.
func (d *LastLoginDispatcher) shardIndex(userID int64) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(strconv.FormatInt(userID, 10)))
	return int(h.Sum32() % uint32(len(d.workers)))
}

func (d *LastLoginDispatcher) runWorker(ctx context.Context, id int, ch <-chan lastLoginJob) {
	defer d.wg.Done()
	label := strconv.Itoa(id)
	for {
		select {
		case <-ctx.Done():
			d.drain(id, ch)
			return
		case job := <-ch:
			metrics.LastLoginQueueDepth.WithLabelValues(label).Set(float64(len(ch)))
			d.write(ctx, id, job)
		}
	}
}

func (d *LastLoginDispatcher) drain(id int, ch <-chan lastLoginJob) {
	ctx, cancel := context.WithTimeout(context.Background(), drainTimeout)
	defer cancel()
	for {
		select {
		case job := <-ch:
			d.write(ctx, id, job)
		default:
			return
		}
	}
}

func (d *LastLoginDispatcher) write(ctx context.Context, id int, job lastLoginJob) {
	if err := d.writer.UpdateLastLogin(ctx, job.userID, job.at); err != nil {
		d.log.Error().Err(err).
			Int64("user_id", job.userID).
			Int("worker_id", id).
			Msg("last login update failed")
	}
}
