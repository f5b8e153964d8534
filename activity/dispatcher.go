package activity

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"workhub-api/domain"
)

// Config sizes the dispatcher's worker pool.
type Config struct {
	Workers        int
	Buffer         int
	SendTimeout    time.Duration
	HandoffTimeout time.Duration
}

func (c Config) withDefaults() Config {
	if c.Workers <= 0 {
		c.Workers = 4
	}
	if c.Buffer <= 0 {
		c.Buffer = 1024
	}
	if c.SendTimeout <= 0 {
		c.SendTimeout = 30 * time.Second
	}
	if c.HandoffTimeout < 0 {
		c.HandoffTimeout = 0
	}
	return c
}

// Dispatcher hands activity to a fixed pool of workers that deliver it with a
// Sender. Record never blocks for longer than the handoff timeout; records
// that cannot be queued in time are dropped with a warning.
type Dispatcher struct {
	sender Sender
	cfg    Config
	log    *log.Logger

	mu     sync.RWMutex
	closed bool
	jobs   chan domain.Activity
	wg     sync.WaitGroup
}

// NewDispatcher starts cfg.Workers workers.
func NewDispatcher(sender Sender, cfg Config, logger *log.Logger) *Dispatcher {
	if sender == nil {
		panic("activity.NewDispatcher: sender is nil")
	}
	if logger == nil {
		panic("activity.NewDispatcher: logger is nil")
	}
	cfg = cfg.withDefaults()
	d := &Dispatcher{
		sender: sender,
		cfg:    cfg,
		log:    logger,
		jobs:   make(chan domain.Activity, cfg.Buffer),
	}
	for i := 0; i < cfg.Workers; i++ {
		d.wg.Add(1)
		go d.worker(i)
	}
	logger.Infof("activity dispatcher started, workers: %d, buffer: %d, timeout: %v, handoff: %v", cfg.Workers, cfg.Buffer, cfg.SendTimeout, cfg.HandoffTimeout)
	return d
}

// Record queues a for delivery. It fills in the id and timestamp when unset.
func (d *Dispatcher) Record(_ context.Context, a domain.Activity) {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	if a.OccurredAt.IsZero() {
		a.OccurredAt = time.Now().UTC()
	}
	if !d.tryEnqueue(a) {
		d.log.WithFields(log.Fields{
			"activity_type": a.Type,
			"board_id":      a.BoardID,
		}).Warn("activity dropped")
	}
}

func (d *Dispatcher) tryEnqueue(a domain.Activity) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		return false
	}

	select {
	case d.jobs <- a:
		return true
	default:
	}

	if d.cfg.HandoffTimeout <= 0 {
		return false
	}

	timer := time.NewTimer(d.cfg.HandoffTimeout)
	defer timer.Stop()

	select {
	case d.jobs <- a:
		return true
	case <-timer.C:
		return false
	}
}

func (d *Dispatcher) worker(id int) {
	defer d.wg.Done()
	for a := range d.jobs {
		ctx, cancel := context.WithTimeout(context.Background(), d.cfg.SendTimeout)
		err := d.sender.Send(ctx, a)
		cancel()
		if err != nil {
			d.log.Errorf("activity send failed, err: %v, type: %s, board: %s, worker: %d", err, a.Type, a.BoardID, id)
		}
	}
}

// Close stops accepting activity and waits for queued records to drain or ctx
// to expire.
func (d *Dispatcher) Close(ctx context.Context) error {
	d.mu.Lock()
	if !d.closed {
		d.closed = true
		close(d.jobs)
	}
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

var _ domain.ActivityRecorder = (*Dispatcher)(nil)
