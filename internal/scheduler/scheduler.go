package scheduler

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"AirBox.influxDB/internal/metrics"
	"AirBox.influxDB/internal/models"
	"go.uber.org/zap"
)

// ErrInvalidArgument is returned for a non-positive or non-finite interval.
var ErrInvalidArgument = errors.New("invalid argument")

// Ingester runs one ingestion pass.
type Ingester interface {
	Run(ctx context.Context) (models.IngestResult, error)
}

// Evaluator checks thresholds after a successful ingestion.
type Evaluator interface {
	Evaluate(ctx context.Context) []models.Alert
}

// Scheduler runs ingest+evaluate cycles on a self re-arming timer. At most
// one cycle runs at a time; a timer that fires during a cycle only re-arms.
type Scheduler struct {
	ingester  Ingester
	evaluator Evaluator
	clock     Clock
	logger    *zap.Logger
	metrics   *metrics.Collectors

	mu              sync.Mutex
	ctx             context.Context
	intervalMinutes float64
	timer           Timer
	generation      uint64
	inFlight        bool
	stopped         bool
}

// New creates an idle scheduler. A nil clock uses the system clock.
func New(ingester Ingester, evaluator Evaluator, intervalMinutes float64, clock Clock, logger *zap.Logger, m *metrics.Collectors) (*Scheduler, error) {
	if err := validateMinutes(intervalMinutes); err != nil {
		return nil, err
	}
	if clock == nil {
		clock = SystemClock()
	}
	return &Scheduler{
		ingester:        ingester,
		evaluator:       evaluator,
		clock:           clock,
		logger:          logger.With(zap.String("component", "scheduler")),
		metrics:         m,
		ctx:             context.Background(),
		intervalMinutes: intervalMinutes,
		stopped:         true,
	}, nil
}

// maxDelay is the largest wait a time.Duration can hold, as a float.
const maxDelay = float64(math.MaxInt64)

// Delay is the wait between cycles; intervals under one minute are clamped to
// one and intervals beyond the Duration range saturate.
func Delay(minutes float64) time.Duration {
	d := math.Max(1, minutes) * float64(time.Minute)
	if d >= maxDelay {
		return time.Duration(math.MaxInt64)
	}
	return time.Duration(d)
}

// Start runs one cycle immediately and then keeps the timer armed. Cycles
// keep ctx's values but are not cancelled with it.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	s.ctx = context.WithoutCancel(ctx)
	s.stopped = false
	run := s.beginLocked()
	cycleCtx := s.ctx
	s.mu.Unlock()

	s.logger.Info("Scheduler started", zap.Float64("interval_minutes", s.IntervalMinutes()))
	if run {
		s.execute(cycleCtx)
	}
}

// SetInterval replaces the interval and re-arms the timer from now. Invalid
// values leave the schedule untouched.
func (s *Scheduler) SetInterval(minutes float64) error {
	if err := validateMinutes(minutes); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.intervalMinutes = minutes
	s.stopped = false
	s.armLocked()
	s.logger.Info("Fetch interval updated", zap.Float64("interval_minutes", minutes))
	return nil
}

// IntervalMinutes returns the configured interval.
func (s *Scheduler) IntervalMinutes() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.intervalMinutes
}

// InFlight reports whether a cycle is running.
func (s *Scheduler) InFlight() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inFlight
}

// Stop cancels the pending timer. A cycle already running finishes but does
// not re-arm.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopped = true
	s.generation++
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.logger.Info("Scheduler stopped")
}

func (s *Scheduler) fire(generation uint64) {
	s.mu.Lock()
	if generation != s.generation || s.stopped {
		s.mu.Unlock()
		return
	}
	s.timer = nil
	run := s.beginLocked()
	cycleCtx := s.ctx
	s.mu.Unlock()

	if run {
		s.execute(cycleCtx)
	}
}

// beginLocked claims the in-flight flag, or re-arms when a cycle is already running.
func (s *Scheduler) beginLocked() bool {
	if s.inFlight {
		s.logger.Info("Previous cycle still running, skipping this one")
		s.metrics.ObserveCycle(metrics.OutcomeSkipped, 0)
		s.armLocked()
		return false
	}
	s.inFlight = true
	return true
}

func (s *Scheduler) armLocked() {
	if s.timer != nil {
		s.timer.Stop()
	}
	s.generation++
	generation := s.generation
	delay := Delay(s.intervalMinutes)
	s.timer = s.clock.AfterFunc(delay, func() { s.fire(generation) })
	s.logger.Debug("Next cycle scheduled", zap.Duration("in", delay))
}

func (s *Scheduler) execute(ctx context.Context) {
	defer func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.inFlight = false
		if !s.stopped {
			s.armLocked()
		}
	}()
	s.runCycle(ctx)
}

func (s *Scheduler) runCycle(ctx context.Context) {
	start := time.Now()
	outcome := metrics.OutcomeCompleted
	defer func() {
		if r := recover(); r != nil {
			outcome = metrics.OutcomeFailed
			s.logger.Error("❌ Polling cycle panicked", zap.Any("panic", r))
		}
		s.metrics.ObserveCycle(outcome, time.Since(start))
	}()

	s.logger.Info("Polling cycle started")
	result, err := s.ingester.Run(ctx)
	if err != nil {
		outcome = metrics.OutcomeFailed
		s.logger.Error("❌ Polling cycle failed", zap.Error(err))
		return
	}

	alerts := s.evaluator.Evaluate(ctx)
	s.logger.Info("Polling cycle completed",
		zap.Int("received", result.Received),
		zap.Int("saved", result.Saved),
		zap.Int("failed", len(result.Failures)),
		zap.Int("alerts", len(alerts)),
		zap.Duration("elapsed", time.Since(start)),
	)
}

func validateMinutes(minutes float64) error {
	if !(minutes > 0) || math.IsInf(minutes, 1) {
		return fmt.Errorf("%w: interval must be a positive number of minutes, got %v", ErrInvalidArgument, minutes)
	}
	if minutes*float64(time.Minute) >= maxDelay {
		return fmt.Errorf("%w: interval of %v minutes exceeds the longest schedulable delay", ErrInvalidArgument, minutes)
	}
	return nil
}
