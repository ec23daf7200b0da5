package service

import (
	"sync"

	"AirBox.influxDB/internal/models"
)

// ThresholdStore holds the in-memory notification thresholds. It starts
// empty and is lost on restart.
type ThresholdStore struct {
	mu      sync.RWMutex
	current models.Thresholds
}

func NewThresholdStore() *ThresholdStore {
	return &ThresholdStore{}
}

// Get returns a copy of the current thresholds.
func (s *ThresholdStore) Get() models.Thresholds {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current.Clone()
}

// Update merges the set fields of update and returns the result.
func (s *ThresholdStore) Update(update models.Thresholds) models.Thresholds {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = s.current.Merge(update)
	return s.current.Clone()
}
