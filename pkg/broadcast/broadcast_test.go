package broadcast

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"

	"dogbot/pkg/logger"
	"dogbot/pkg/metrics"
	"dogbot/pkg/transport"
	"dogbot/pkg/transport/transporttest"
)

type pauseRecorder struct {
	calls []time.Duration
	// sent holds how many messages had been attempted at each pause
	sent []int
	rec  *transporttest.Recorder
}

func (p *pauseRecorder) sleep(_ context.Context, d time.Duration) error {
	p.calls = append(p.calls, d)
	p.sent = append(p.sent, p.rec.Attempts())
	return nil
}

func ids(n int) []int64 {
	out := make([]int64, n)
	for i := range out {
		out[i] = int64(1000 + i)
	}
	return out
}

func newDispatcher(rec *transporttest.Recorder, p *pauseRecorder, opts ...Option) *Dispatcher {
	d := New(rec, logger.NewNop(), opts...)
	d.sleep = p.sleep
	return d
}

func TestDispatchBatches(t *testing.T) {
	rec := transporttest.New()
	pauses := &pauseRecorder{rec: rec}
	d := newDispatcher(rec, pauses)

	rep := d.Dispatch(context.Background(), Card{OrderID: 9, Text: "card"}, ids(30))

	assert.Equal(t, 2, rep.Batches)
	assert.Equal(t, 30, rep.Delivered)
	assert.Zero(t, rep.Failed)
	assert.NoError(t, rep.Err)

	require.Len(t, pauses.calls, 1)
	assert.Equal(t, time.Second, pauses.calls[0])
	assert.Equal(t, []int{25}, pauses.sent)

	msgs := rec.Messages()
	require.Len(t, msgs, 30)
	assert.Equal(t, []string{"pr:9"}, transporttest.Data(msgs[0].Keyboard))
}

func TestDispatchIsolatesFailures(t *testing.T) {
	rec := transporttest.New()
	rec.Fail(1003, 1027)
	pauses := &pauseRecorder{rec: rec}
	reg := prometheus.NewRegistry()
	d := newDispatcher(rec, pauses, WithMetrics(metrics.New(reg)))

	rep := d.Dispatch(context.Background(), Card{OrderID: 1, Text: "card"}, ids(30))

	assert.Equal(t, 28, rep.Delivered)
	assert.Equal(t, 2, rep.Failed)
	assert.Len(t, multierr.Errors(rep.Err), 2)
	assert.ErrorIs(t, rep.Err, transporttest.ErrDelivery)
	assert.Equal(t, 30, rec.Attempts())
	assert.Len(t, rec.Recipients(), 28)
}

func TestDispatchSingleBatchNoPause(t *testing.T) {
	rec := transporttest.New()
	pauses := &pauseRecorder{rec: rec}
	d := newDispatcher(rec, pauses)

	rep := d.Dispatch(context.Background(), Card{OrderID: 1}, ids(25))
	assert.Equal(t, 1, rep.Batches)
	assert.Empty(t, pauses.calls)

	rep = d.Dispatch(context.Background(), Card{OrderID: 1}, nil)
	assert.Zero(t, rep.Batches)
}

func TestDispatchCustomBatchAndImage(t *testing.T) {
	rec := transporttest.New()
	pauses := &pauseRecorder{rec: rec}
	d := newDispatcher(rec, pauses, WithBatch(2), WithPause(10*time.Millisecond))

	img := &transport.Image{FileID: "photo-1"}
	rep := d.Dispatch(context.Background(), Card{OrderID: 4, Text: "caption", Image: img}, ids(5))
	assert.Equal(t, 3, rep.Batches)
	assert.Len(t, pauses.calls, 2)

	for _, m := range rec.Messages() {
		require.NotNil(t, m.Image)
		assert.Equal(t, "photo-1", m.Image.FileID)
		assert.Equal(t, "caption", m.Text)
	}
}

func TestDispatchStopsOnCancelledPause(t *testing.T) {
	rec := transporttest.New()
	d := New(rec, logger.NewNop(), WithBatch(2), WithPause(time.Hour))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	rep := d.Dispatch(ctx, Card{OrderID: 1}, ids(4))

	assert.Equal(t, 1, rep.Batches)
	assert.ErrorIs(t, rep.Err, context.Canceled)
}

func TestBudgetCoversEveryBatch(t *testing.T) {
	d := New(transporttest.New(), logger.NewNop(), WithBatch(25), WithPause(time.Second))

	assert.Equal(t, batchTimeout, d.Budget(0))
	assert.Equal(t, batchTimeout, d.Budget(25))
	assert.Equal(t, 2*batchTimeout+time.Second, d.Budget(26))
	// 750 walkers: 30 batches and 29 pauses, far past a 30s request deadline
	assert.Equal(t, 30*batchTimeout+29*time.Second, d.Budget(750))
}

func TestDispatchWithinBudgetReachesEveryone(t *testing.T) {
	rec := transporttest.New()
	d := New(rec, logger.NewNop(), WithBatch(5), WithPause(20*time.Millisecond))

	// the caller's deadline would expire after the second pause
	short, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	ctx, stop := context.WithTimeout(context.WithoutCancel(short), d.Budget(50))
	defer stop()
	rep := d.Dispatch(ctx, Card{OrderID: 4, Text: "card"}, ids(50))

	assert.NoError(t, rep.Err)
	assert.Equal(t, 10, rep.Batches)
	assert.Equal(t, 50, rep.Delivered)
	assert.Len(t, rec.Recipients(), 50)
}
