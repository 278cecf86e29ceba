package queue

import (
	"context"
	"hash/fnv"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/mathvisuals/account-api/internal/api/metrics"
	"github.com/mathvisuals/account-api/internal/core/ports"
)

const (
	defaultWorkers = 4
	channelBuffer  = 256
)

// SendGuard abstracts the once-per-token delivery check (Redis).
type SendGuard interface {
	AlreadySent(ctx context.Context, token string) (bool, error)
	Mark(ctx context.Context, token string) error
}

// Dispatcher fans verification notices out to a fixed set of workers,
// sharded by recipient address so retries for the same account stay
// ordered. Delivery is fire-and-forget: failures are logged and counted,
// never surfaced to the request that enqueued the notice.
type Dispatcher struct {
	workers  []chan ports.VerificationNotice
	notifier ports.Notifier
	guard    SendGuard
	log      zerolog.Logger
}

// NewDispatcher creates a Dispatcher with numWorkers sharded workers.
// If numWorkers <= 0, defaultWorkers is used. guard may be nil, in which
// case every notice is sent unconditionally.
func NewDispatcher(numWorkers int, notifier ports.Notifier, guard SendGuard, log zerolog.Logger) *Dispatcher {
	if numWorkers <= 0 {
		numWorkers = defaultWorkers
	}
	d := &Dispatcher{
		workers:  make([]chan ports.VerificationNotice, numWorkers),
		notifier: notifier,
		guard:    guard,
		log:      log,
	}
	for i := range d.workers {
		d.workers[i] = make(chan ports.VerificationNotice, channelBuffer)
	}
	return d
}

// Start launches all worker goroutines. Workers stop when ctx is cancelled.
func (d *Dispatcher) Start(ctx context.Context) {
	for i, ch := range d.workers {
		go d.runWorker(ctx, i, ch)
	}
}

// Enqueue hands a notice to the worker responsible for its address.
// Non-blocking up to channelBuffer capacity.
func (d *Dispatcher) Enqueue(notice ports.VerificationNotice) {
	idx := d.shardIndex(notice.Email)
	d.workers[idx] <- notice
	metrics.NotifyQueueDepth.WithLabelValues(strconv.Itoa(idx)).Set(float64(len(d.workers[idx])))
}

// shardIndex maps an address deterministically to a worker index.
func (d *Dispatcher) shardIndex(email string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(email))
	return int(h.Sum32()) % len(d.workers)
}

func (d *Dispatcher) runWorker(ctx context.Context, id int, ch <-chan ports.VerificationNotice) {
	workerID := strconv.Itoa(id)
	for {
		select {
		case <-ctx.Done():
			return
		case notice, ok := <-ch:
			if !ok {
				return
			}
			d.deliver(ctx, id, notice)
			metrics.NotifyQueueDepth.WithLabelValues(workerID).Set(float64(len(ch)))
		}
	}
}

func (d *Dispatcher) deliver(ctx context.Context, workerID int, notice ports.VerificationNotice) {
	if d.guard != nil {
		sent, err := d.guard.AlreadySent(ctx, notice.Token)
		if err != nil {
			d.log.Warn().Err(err).Msg("send guard check failed, sending anyway")
		} else if sent {
			metrics.NotificationsTotal.WithLabelValues("skipped").Inc()
			d.log.Debug().Str("email", notice.Email).Msg("verification notice already sent, skipping")
			return
		}
	}

	if err := d.notifier.SendVerification(ctx, notice); err != nil {
		metrics.NotificationsTotal.WithLabelValues("failed").Inc()
		d.log.Error().Err(err).
			Str("email", notice.Email).
			Int("worker_id", workerID).
			Msg("verification notice delivery failed")
		return
	}

	if d.guard != nil {
		if err := d.guard.Mark(ctx, notice.Token); err != nil {
			d.log.Warn().Err(err).Msg("failed to set send guard key")
		}
	}

	metrics.NotificationsTotal.WithLabelValues("sent").Inc()
	d.log.Info().Str("email", notice.Email).Msg("verification notice sent")
}
