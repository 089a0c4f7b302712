package outbox

import (
	"context"
	"sync"
	"time"

	"github.com/dalemusser/partnerportal/internal/app/store/audit"
	"github.com/dalemusser/partnerportal/internal/app/system/timeouts"
	"go.uber.org/zap"
)

// Sink persists drained events.
type Sink interface {
	LogMany(ctx context.Context, events []audit.Event) error
}

// Consumer is a background worker that moves events from a Queue to a Sink.
// Delivery is at-least-once; events carry their ID from the moment they are
// queued so the sink can drop redeliveries.
type Consumer struct {
	queue    Queue
	sink     Sink
	log      *zap.Logger
	interval time.Duration
	batch    int
	stopCh   chan struct{}
	wg       sync.WaitGroup
}

// NewConsumer creates a consumer that drains up to batch events every interval.
func NewConsumer(q Queue, sink Sink, logger *zap.Logger, interval time.Duration, batch int) *Consumer {
	if interval <= 0 {
		interval = 2 * time.Second
	}
	if batch <= 0 {
		batch = 100
	}
	return &Consumer{
		queue:    q,
		sink:     sink,
		log:      logger,
		interval: interval,
		batch:    batch,
		stopCh:   make(chan struct{}),
	}
}

// Start begins the background drain loop.
func (c *Consumer) Start() {
	c.wg.Add(1)
	go c.run()
	c.log.Info("audit outbox consumer started",
		zap.Duration("interval", c.interval),
		zap.Int("batch", c.batch))
}

// Stop signals the worker to stop, waits for it, then drains what is left.
func (c *Consumer) Stop() {
	close(c.stopCh)
	c.wg.Wait()

	ctx, cancel := context.WithTimeout(context.Background(), timeouts.Batch())
	defer cancel()
	for {
		n, err := c.DrainOnce(ctx)
		if err != nil || n == 0 {
			break
		}
	}
	c.log.Info("audit outbox consumer stopped")
}

func (c *Consumer) run() {
	defer c.wg.Done()

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-c.stopCh:
			return
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), timeouts.Batch())
			if _, err := c.DrainOnce(ctx); err != nil {
				c.log.Error("audit outbox drain failed", zap.Error(err))
			}
			cancel()
		}
	}
}

// DrainOnce moves one batch and returns how many queue entries were consumed.
// Entries are acknowledged only after the sink accepted them.
func (c *Consumer) DrainOnce(ctx context.Context) (int, error) {
	events, err := c.queue.Peek(ctx, c.batch)
	if err != nil {
		return 0, err
	}
	if len(events) == 0 {
		return 0, nil
	}

	valid := make([]audit.Event, 0, len(events))
	for _, e := range events {
		if e.EventType == "" {
			c.log.Warn("dropping undecodable audit outbox entry")
			continue
		}
		valid = append(valid, e)
	}
	if err := c.sink.LogMany(ctx, valid); err != nil {
		return 0, err
	}
	if err := c.queue.Ack(ctx, len(events)); err != nil {
		return 0, err
	}
	return len(events), nil
}
