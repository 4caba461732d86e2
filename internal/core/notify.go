package core

import (
	"context"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/cipher-x-sudo/midjourney-proxy/pkg/structs"
	"github.com/cipher-x-sudo/midjourney-proxy/pkg/webhook"
)

const dedupHighWater = 1000

// NotifyOptions tunes webhook delivery.
type NotifyOptions struct {
	PoolSize   int
	QueueSize  int
	Retries    int
	Backoff    time.Duration
	Timeout    time.Duration
	OnProgress bool
}

func (o *NotifyOptions) sanitize() {
	if o.PoolSize <= 0 {
		o.PoolSize = 4
	}
	if o.QueueSize <= 0 {
		o.QueueSize = 256
	}
	if o.Retries < 0 {
		o.Retries = 2
	}
	if o.Backoff <= 0 {
		o.Backoff = time.Second
	}
	if o.Timeout <= 0 {
		o.Timeout = 10 * time.Second
	}
}

type notifyJob struct {
	id   string
	task *structs.Task
}

// Notifier delivers task snapshots to their callback URLs from a bounded
// worker pool. Deliveries for a task are deduplicated by status order so a
// stale snapshot never overwrites a later one at the receiver.
type Notifier struct {
	sender webhook.Sender
	opts   NotifyOptions
	log    *zap.Logger

	jobs chan *notifyJob
	wg   sync.WaitGroup

	mu   sync.Mutex
	seen map[string]float64
}

func NewNotifier(sender webhook.Sender, opts NotifyOptions, log *zap.Logger) *Notifier {
	opts.sanitize()
	n := &Notifier{
		sender: sender,
		opts:   opts,
		log:    log,
		jobs:   make(chan *notifyJob, opts.QueueSize),
		seen:   map[string]float64{},
	}
	for i := 0; i < opts.PoolSize; i++ {
		n.wg.Add(1)
		go n.worker()
	}
	return n
}

// Enqueue schedules delivery of the given snapshot. A full queue drops the
// job rather than blocking task processing.
func (n *Notifier) Enqueue(t *structs.Task) {
	if t == nil || t.NotifyHook == "" {
		return
	}
	job := &notifyJob{id: uuid.New().String(), task: t}
	select {
	case n.jobs <- job:
	default:
		n.log.Warn("notify queue full, dropping",
			zap.String("job", job.id), zap.String("task", t.ID))
	}
}

func (n *Notifier) Close() {
	close(n.jobs)
	n.wg.Wait()
}

func (n *Notifier) worker() {
	defer n.wg.Done()
	for job := range n.jobs {
		if !n.advance(job.task) {
			continue
		}
		n.deliver(job)
	}
}

// advance records the snapshot's position in the status order and reports
// whether it moves the task forward. Progress within IN_PROGRESS counts
// fractionally so 50% outranks 30% but never a terminal status.
func (n *Notifier) advance(t *structs.Task) bool {
	order := float64(structs.StatusOrder(t.Status))
	if t.Status == structs.IN_PROGRESS {
		order += progressFraction(t.Progress)
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	if last, ok := n.seen[t.ID]; ok && order <= last {
		return false
	}
	if len(n.seen) > dedupHighWater {
		n.evictFinishedLocked()
	}
	n.seen[t.ID] = order
	return true
}

// evictFinishedLocked drops entries that reached a terminal order. Nothing
// further can be enqueued for those tasks, while in-flight entries must
// survive or a replayed stale snapshot would deliver out of order.
func (n *Notifier) evictFinishedLocked() {
	final := float64(structs.StatusOrder(structs.SUCCESS))
	for id, order := range n.seen {
		if order >= final {
			delete(n.seen, id)
		}
	}
}

func (n *Notifier) deliver(job *notifyJob) {
	backoff := n.opts.Backoff
	for attempt := 0; ; attempt++ {
		ctx, cancel := context.WithTimeout(context.Background(), n.opts.Timeout)
		err := n.sender.Deliver(ctx, job.task.NotifyHook, job.task)
		cancel()
		if err == nil {
			return
		}
		if attempt >= n.opts.Retries {
			n.log.Warn("notify failed, giving up",
				zap.String("job", job.id),
				zap.String("task", job.task.ID),
				zap.Int("attempts", attempt+1),
				zap.Error(err))
			return
		}
		time.Sleep(backoff)
		backoff *= 2
	}
}

func progressFraction(progress string) float64 {
	p := strings.TrimSuffix(progress, "%")
	if p == progress {
		return 0
	}
	v, err := strconv.ParseFloat(p, 64)
	if err != nil {
		return 0
	}
	return v / 100
}
