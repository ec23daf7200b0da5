package service

import (
	"context"
	"time"

	"AirBox.influxDB/internal/metrics"
	"AirBox.influxDB/internal/models"
	"AirBox.influxDB/internal/repository"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// SnapshotFetcher retrieves the raw upstream snapshot.
type SnapshotFetcher interface {
	Fetch(ctx context.Context) ([]byte, error)
}

// IngestionService pulls one feed snapshot and stores its valid entries.
type IngestionService struct {
	feed            SnapshotFetcher
	repo            repository.ReadingRepository
	saveConcurrency int
	logger          *zap.Logger
	metrics         *metrics.Collectors
}

// NewIngestionService creates a new IngestionService. saveConcurrency <= 0
// issues every save at once.
func NewIngestionService(feed SnapshotFetcher, repo repository.ReadingRepository, saveConcurrency int, logger *zap.Logger, m *metrics.Collectors) *IngestionService {
	return &IngestionService{
		feed:            feed,
		repo:            repo,
		saveConcurrency: saveConcurrency,
		logger:          logger.With(zap.String("component", "ingestion")),
		metrics:         m,
	}
}

type indexedReading struct {
	index   int
	reading models.Reading
}

// Run fetches the snapshot, normalizes it and saves every valid reading.
// Only a feed failure is returned; a malformed snapshot, dropped entries and
// individual save failures are logged and reported in the result.
func (s *IngestionService) Run(ctx context.Context) (models.IngestResult, error) {
	start := time.Now()

	body, err := s.feed.Fetch(ctx)
	if err != nil {
		return models.IngestResult{}, err
	}

	entries, err := DecodeSnapshot(body)
	if err != nil {
		s.logger.Warn("Unexpected feed format, nothing ingested", zap.Error(err))
		return models.IngestResult{}, nil
	}

	result := models.IngestResult{Received: len(entries)}
	valid := make([]indexedReading, 0, len(entries))
	for i, entry := range entries {
		reading := NormalizeEntry(entry)
		if err := ValidateReading(reading); err != nil {
			result.Dropped++
			s.logger.Warn("Dropping invalid feed entry", zap.Int("index", i), zap.String("mac", reading.MAC), zap.Error(err))
			continue
		}
		valid = append(valid, indexedReading{index: i, reading: reading})
	}
	if result.Dropped > 0 {
		s.logger.Info("Dropped invalid feed entries", zap.Int("dropped", result.Dropped), zap.Int("received", result.Received))
	}

	if len(valid) == 0 {
		s.logger.Warn("No valid entries to save", zap.Int("received", result.Received))
		s.metrics.ObserveEntries(0, 0, result.Dropped)
		return result, nil
	}

	result.Failures = s.saveAll(ctx, valid)
	result.Saved = len(valid) - len(result.Failures)
	s.metrics.ObserveEntries(result.Saved, len(result.Failures), result.Dropped)

	for _, failure := range result.Failures {
		s.logger.Error("Failed to save reading",
			zap.Int("index", failure.Index),
			zap.String("mac", failure.MAC),
			zap.Error(failure.Err),
		)
	}
	if len(result.Failures) > 0 {
		s.logger.Error("❌ Some readings were not saved",
			zap.Int("failed", len(result.Failures)),
			zap.Int("saved", result.Saved),
		)
	} else {
		s.logger.Info("✅ Readings saved",
			zap.Int("saved", result.Saved),
			zap.Duration("elapsed", time.Since(start)),
		)
	}
	return result, nil
}

// saveAll waits for every save to settle; one failure never cancels the rest.
func (s *IngestionService) saveAll(ctx context.Context, batch []indexedReading) []models.EntryFailure {
	errs := make([]error, len(batch))

	var g errgroup.Group
	if s.saveConcurrency > 0 {
		g.SetLimit(s.saveConcurrency)
	}
	for i, item := range batch {
		g.Go(func() error {
			_, errs[i] = s.repo.Create(ctx, item.reading)
			return nil
		})
	}
	_ = g.Wait()

	var failures []models.EntryFailure
	for i, err := range errs {
		if err != nil {
			failures = append(failures, models.EntryFailure{
				Index: batch[i].index,
				MAC:   batch[i].reading.MAC,
				Err:   err,
			})
		}
	}
	return failures
}
