// Package broadcast fans an order card out to walkers.
package broadcast

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"

	"dogbot/pkg/action"
	"dogbot/pkg/logger"
	"dogbot/pkg/metrics"
	"dogbot/pkg/transport"
)

const (
	DefaultBatch = 25
	DefaultPause = time.Second

	// batchTimeout bounds one concurrent batch of sends.
	batchTimeout = 10 * time.Second
)

type Card struct {
	OrderID int64
	Text    string
	Image   *transport.Image
}

type Report struct {
	Recipients int
	Batches    int
	Delivered  int
	Failed     int
	// Err joins the per-recipient failures. It never aborts the broadcast.
	Err error
}

// Dispatcher sends cards in fixed-size batches. Sends within a batch run
// concurrently; batches are separated by a pause so the chat API is not
// flooded. Failed sends are logged and counted, never retried.
type Dispatcher struct {
	msg     transport.Messenger
	log     logger.ILogger
	metrics *metrics.Metrics
	batch   int
	pause   time.Duration
	sleep   func(ctx context.Context, d time.Duration) error
}

type Option func(*Dispatcher)

func WithBatch(n int) Option {
	return func(d *Dispatcher) {
		if n > 0 {
			d.batch = n
		}
	}
}

func WithPause(p time.Duration) Option {
	return func(d *Dispatcher) {
		if p >= 0 {
			d.pause = p
		}
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(d *Dispatcher) { d.metrics = m }
}

func New(msg transport.Messenger, log logger.ILogger, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		msg:   msg,
		log:   log,
		batch: DefaultBatch,
		pause: DefaultPause,
		sleep: sleepCtx,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

func RespondKeyboard(orderID int64) transport.Keyboard {
	return transport.Rows(transport.Row(
		transport.ActionButton("✋ Откликнуться", action.RespondTo(orderID)),
	))
}

// Budget is how long a broadcast to n recipients may take: every batch gets
// batchTimeout plus the pauses between batches.
func (d *Dispatcher) Budget(n int) time.Duration {
	if n <= 0 {
		return batchTimeout
	}
	batches := (n + d.batch - 1) / d.batch
	return time.Duration(batches)*batchTimeout + time.Duration(batches-1)*d.pause
}

// Dispatch sends card to every recipient and stops early only when ctx is
// done. Callers that must not lose a fan-out pass a context sized by Budget.
func (d *Dispatcher) Dispatch(ctx context.Context, card Card, recipients []int64) Report {
	rep := Report{Recipients: len(recipients)}
	kb := RespondKeyboard(card.OrderID)

	for start := 0; start < len(recipients); start += d.batch {
		if start > 0 && d.pause > 0 {
			if err := d.sleep(ctx, d.pause); err != nil {
				rep.Err = multierr.Append(rep.Err, err)
				d.log.Warning("broadcast interrupted",
					logger.Int64("order_id", card.OrderID),
					logger.Int("sent", rep.Delivered+rep.Failed),
					logger.Error(err),
				)
				return rep
			}
		}
		end := start + d.batch
		if end > len(recipients) {
			end = len(recipients)
		}
		d.sendBatch(ctx, card, kb, recipients[start:end], &rep)
		rep.Batches++
	}

	d.log.Info("order broadcast",
		logger.Int64("order_id", card.OrderID),
		logger.Int("recipients", rep.Recipients),
		logger.Int("batches", rep.Batches),
		logger.Int("delivered", rep.Delivered),
		logger.Int("failed", rep.Failed),
	)
	return rep
}

func (d *Dispatcher) sendBatch(ctx context.Context, card Card, kb transport.Keyboard, ids []int64, rep *Report) {
	var (
		g  errgroup.Group
		mu sync.Mutex
	)
	for _, id := range ids {
		g.Go(func() error {
			err := d.send(ctx, id, card, kb)
			d.metrics.Delivery(err == nil)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				rep.Failed++
				rep.Err = multierr.Append(rep.Err, fmt.Errorf("walker %d: %w", id, err))
				d.log.Warning("order card delivery failed",
					logger.Int64("order_id", card.OrderID),
					logger.Int64("walker_id", id),
					logger.Error(err),
				)
				return nil
			}
			rep.Delivered++
			return nil
		})
	}
	_ = g.Wait()
}

func (d *Dispatcher) send(ctx context.Context, to int64, card Card, kb transport.Keyboard) error {
	if card.Image != nil {
		return d.msg.SendImage(ctx, to, *card.Image, card.Text, kb)
	}
	return d.msg.SendText(ctx, to, card.Text, kb)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
