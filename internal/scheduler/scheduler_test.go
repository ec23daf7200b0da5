package scheduler

import (
	"context"
	"math"
	"sync"
	"testing"
	"time"

	"AirBox.influxDB/internal/feed"
	"AirBox.influxDB/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeClock struct {
	mu     sync.Mutex
	now    time.Duration
	timers []*fakeTimer
}

type fakeTimer struct {
	clock   *fakeClock
	at      time.Duration
	delay   time.Duration
	f       func()
	stopped bool
	fired   bool
}

func (c *fakeClock) AfterFunc(d time.Duration, f func()) Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &fakeTimer{clock: c, at: c.now + d, delay: d, f: f}
	c.timers = append(c.timers, t)
	return t
}

func (t *fakeTimer) Stop() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()
	active := !t.stopped && !t.fired
	t.stopped = true
	return active
}

// Fire runs the callback now, as if the timer expired before it could be stopped.
func (t *fakeTimer) Fire() {
	t.clock.mu.Lock()
	t.fired = true
	t.clock.mu.Unlock()
	t.f()
}

func (c *fakeClock) pending() []*fakeTimer {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []*fakeTimer
	for _, t := range c.timers {
		if !t.stopped && !t.fired {
			out = append(out, t)
		}
	}
	return out
}

// Advance moves virtual time and fires due timers in deadline order.
func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now += d
	c.mu.Unlock()
	for {
		c.mu.Lock()
		var next *fakeTimer
		for _, t := range c.timers {
			if t.stopped || t.fired || t.at > c.now {
				continue
			}
			if next == nil || t.at < next.at {
				next = t
			}
		}
		if next == nil {
			c.mu.Unlock()
			return
		}
		next.fired = true
		c.mu.Unlock()
		next.f()
	}
}

type fakeIngester struct {
	mu      sync.Mutex
	calls   int
	err     error
	entered chan struct{}
	release chan struct{}
}

func (f *fakeIngester) Run(context.Context) (models.IngestResult, error) {
	f.mu.Lock()
	f.calls++
	entered, release, err := f.entered, f.release, f.err
	f.mu.Unlock()
	if entered != nil {
		entered <- struct{}{}
	}
	if release != nil {
		<-release
	}
	return models.IngestResult{Received: 1, Saved: 1}, err
}

func (f *fakeIngester) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fakeEvaluator struct {
	mu     sync.Mutex
	calls  int
	panics bool
}

func (f *fakeEvaluator) Evaluate(context.Context) []models.Alert {
	f.mu.Lock()
	f.calls++
	panics := f.panics
	f.mu.Unlock()
	if panics {
		panic("evaluator exploded")
	}
	return nil
}

func (f *fakeEvaluator) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func newTestScheduler(t *testing.T, ing *fakeIngester, eval *fakeEvaluator, minutes float64) (*Scheduler, *fakeClock) {
	t.Helper()
	clock := &fakeClock{}
	s, err := New(ing, eval, minutes, clock, zap.NewNop(), nil)
	require.NoError(t, err)
	return s, clock
}

func TestDelay(t *testing.T) {
	tests := []struct {
		minutes float64
		want    time.Duration
	}{
		{0.25, time.Minute},
		{1, 60000 * time.Millisecond},
		{1.5, 90 * time.Second},
		{2, 120000 * time.Millisecond},
		{60, time.Hour},
		{2e8, time.Duration(math.MaxInt64)},
		{1e12, time.Duration(math.MaxInt64)},
		{1e300, time.Duration(math.MaxInt64)},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Delay(tt.minutes), "minutes=%v", tt.minutes)
		assert.Positive(t, Delay(tt.minutes), "minutes=%v", tt.minutes)
	}
}

func TestNewRejectsInvalidInterval(t *testing.T) {
	_, err := New(&fakeIngester{}, &fakeEvaluator{}, 0, &fakeClock{}, zap.NewNop(), nil)
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestStartRunsImmediateCycleThenArms(t *testing.T) {
	ing, eval := &fakeIngester{}, &fakeEvaluator{}
	s, clock := newTestScheduler(t, ing, eval, 1)

	s.Start(context.Background())

	assert.Equal(t, 1, ing.count())
	assert.Equal(t, 1, eval.count())
	require.Len(t, clock.pending(), 1)
	assert.Equal(t, time.Minute, clock.pending()[0].delay)

	clock.Advance(59 * time.Second)
	assert.Equal(t, 1, ing.count())

	clock.Advance(time.Second)
	assert.Equal(t, 2, ing.count())
	assert.Equal(t, 2, eval.count())
	assert.Len(t, clock.pending(), 1)
}

func TestSetIntervalRearms(t *testing.T) {
	ing := &fakeIngester{}
	s, clock := newTestScheduler(t, ing, &fakeEvaluator{}, 1)
	s.Start(context.Background())
	first := clock.pending()[0]

	require.NoError(t, s.SetInterval(5))

	assert.True(t, first.stopped)
	require.Len(t, clock.pending(), 1)
	assert.Equal(t, 5*time.Minute, clock.pending()[0].delay)
	assert.Equal(t, 5.0, s.IntervalMinutes())

	clock.Advance(4 * time.Minute)
	assert.Equal(t, 1, ing.count())
	clock.Advance(time.Minute)
	assert.Equal(t, 2, ing.count())
}

func TestSetIntervalAcceptsLongestSchedulableDelay(t *testing.T) {
	s, clock := newTestScheduler(t, &fakeIngester{}, &fakeEvaluator{}, 1)

	require.NoError(t, s.SetInterval(1.5e8))

	require.Len(t, clock.pending(), 1)
	assert.Positive(t, clock.pending()[0].delay)
	assert.Equal(t, time.Duration(1.5e8*float64(time.Minute)), clock.pending()[0].delay)
}

func TestSetIntervalClampsShortDelays(t *testing.T) {
	s, clock := newTestScheduler(t, &fakeIngester{}, &fakeEvaluator{}, 1)

	require.NoError(t, s.SetInterval(0.25))

	assert.Equal(t, 0.25, s.IntervalMinutes())
	require.Len(t, clock.pending(), 1)
	assert.Equal(t, time.Minute, clock.pending()[0].delay)
}

func TestSetIntervalRejectsInvalidValues(t *testing.T) {
	s, clock := newTestScheduler(t, &fakeIngester{}, &fakeEvaluator{}, 3)
	s.Start(context.Background())
	armed := clock.pending()

	for _, minutes := range []float64{0, -1, math.NaN(), math.Inf(1), math.Inf(-1), 2e8, 1e12, math.MaxFloat64} {
		err := s.SetInterval(minutes)
		assert.ErrorIs(t, err, ErrInvalidArgument, "minutes=%v", minutes)
	}

	assert.Equal(t, 3.0, s.IntervalMinutes())
	assert.Equal(t, armed, clock.pending())
}

func TestFireDuringCycleSkipsAndRearms(t *testing.T) {
	ing := &fakeIngester{entered: make(chan struct{}), release: make(chan struct{})}
	eval := &fakeEvaluator{}
	s, clock := newTestScheduler(t, ing, eval, 1)

	done := make(chan struct{})
	go func() {
		s.Start(context.Background())
		close(done)
	}()
	<-ing.entered
	assert.True(t, s.InFlight())

	require.NoError(t, s.SetInterval(2))
	armed := clock.pending()
	require.Len(t, armed, 1)

	armed[0].Fire()

	assert.Equal(t, 1, ing.count(), "no fetch while a cycle is in flight")
	require.Len(t, clock.pending(), 1, "skip re-arms the timer")
	assert.Equal(t, 2*time.Minute, clock.pending()[0].delay)

	close(ing.release)
	<-done

	assert.False(t, s.InFlight())
	assert.Equal(t, 1, ing.count())
	assert.Equal(t, 1, eval.count())
	require.Len(t, clock.pending(), 1)
	assert.Equal(t, 2*time.Minute, clock.pending()[0].delay)
}

func TestFailedIngestionSkipsEvaluation(t *testing.T) {
	ing := &fakeIngester{err: feed.ErrFeedUnavailable}
	eval := &fakeEvaluator{}
	s, clock := newTestScheduler(t, ing, eval, 1)

	s.Start(context.Background())

	assert.Equal(t, 1, ing.count())
	assert.Zero(t, eval.count())
	assert.False(t, s.InFlight())
	assert.Len(t, clock.pending(), 1)
}

func TestPanickingCycleStillRearms(t *testing.T) {
	ing := &fakeIngester{}
	s, clock := newTestScheduler(t, ing, &fakeEvaluator{panics: true}, 1)

	assert.NotPanics(t, func() { s.Start(context.Background()) })
	assert.False(t, s.InFlight())
	require.Len(t, clock.pending(), 1)

	clock.Advance(time.Minute)
	assert.Equal(t, 2, ing.count())
}

func TestStopCancelsTimer(t *testing.T) {
	ing := &fakeIngester{}
	s, clock := newTestScheduler(t, ing, &fakeEvaluator{}, 1)
	s.Start(context.Background())
	armed := clock.pending()[0]

	s.Stop()

	assert.Empty(t, clock.pending())
	clock.Advance(10 * time.Minute)
	armed.Fire()
	assert.Equal(t, 1, ing.count())
}

func TestStopDuringCycleDoesNotRearm(t *testing.T) {
	ing := &fakeIngester{entered: make(chan struct{}), release: make(chan struct{})}
	s, clock := newTestScheduler(t, ing, &fakeEvaluator{}, 1)

	done := make(chan struct{})
	go func() {
		s.Start(context.Background())
		close(done)
	}()
	<-ing.entered

	s.Stop()
	close(ing.release)
	<-done

	assert.Empty(t, clock.pending())
}
