package service

import (
	"context"

	"AirBox.influxDB/internal/metrics"
	"AirBox.influxDB/internal/models"
	"AirBox.influxDB/internal/repository"
	"go.uber.org/zap"
)

// Dispatcher delivers one batch of alerts to a recipient.
type Dispatcher interface {
	Dispatch(ctx context.Context, recipient string, alerts []models.Alert) error
}

// AlertService compares each device's latest reading with the configured
// thresholds and sends at most one notification per evaluation.
type AlertService struct {
	repo       repository.ReadingRepository
	thresholds *ThresholdStore
	dispatcher Dispatcher
	logger     *zap.Logger
	metrics    *metrics.Collectors
}

func NewAlertService(repo repository.ReadingRepository, thresholds *ThresholdStore, dispatcher Dispatcher, logger *zap.Logger, m *metrics.Collectors) *AlertService {
	return &AlertService{
		repo:       repo,
		thresholds: thresholds,
		dispatcher: dispatcher,
		logger:     logger.With(zap.String("component", "alerts")),
		metrics:    m,
	}
}

// Evaluate returns the alerts it raised. Store and dispatch failures are
// logged and never returned.
func (s *AlertService) Evaluate(ctx context.Context) []models.Alert {
	thresholds := s.thresholds.Get()
	recipient := thresholds.Recipient()
	if recipient == "" {
		return nil
	}

	readings, err := s.repo.FindAll(ctx)
	if err != nil {
		s.logger.Error("Failed to load readings for threshold check", zap.Error(err))
		return nil
	}
	if len(readings) == 0 {
		return nil
	}

	var alerts []models.Alert
	for _, reading := range LatestPerDevice(readings) {
		alerts = append(alerts, CheckThresholds(reading, thresholds)...)
	}
	if len(alerts) == 0 {
		return nil
	}

	for _, alert := range alerts {
		s.metrics.AlertRaised(alert.ThresholdType)
	}
	if err := s.dispatcher.Dispatch(ctx, recipient, alerts); err != nil {
		s.metrics.DispatchFailed()
		s.logger.Error("❌ Failed to send threshold alerts", zap.Int("alerts", len(alerts)), zap.Error(err))
		return alerts
	}
	s.logger.Info("✅ Threshold alerts sent", zap.Int("alerts", len(alerts)), zap.String("recipient", recipient))
	return alerts
}

// LatestPerDevice keeps the newest reading of each MAC. Devices appear in
// order of first occurrence; on equal timestamps the earlier reading wins.
func LatestPerDevice(readings []models.Reading) []models.Reading {
	position := make(map[string]int)
	latest := make([]models.Reading, 0)
	for _, reading := range readings {
		i, seen := position[reading.MAC]
		if !seen {
			position[reading.MAC] = len(latest)
			latest = append(latest, reading)
			continue
		}
		if reading.Time.After(latest[i].Time) {
			latest[i] = reading
		}
	}
	return latest
}

// CheckThresholds reports every set threshold the reading strictly exceeds,
// in humidity, temperature, PM2.5 order.
func CheckThresholds(reading models.Reading, thresholds models.Thresholds) []models.Alert {
	name := reading.Name
	if name == "" {
		name = models.UnknownSensorName
	}

	var alerts []models.Alert
	check := func(kind string, limit *float64, actual float64) {
		if limit == nil || !(actual > *limit) {
			return
		}
		alerts = append(alerts, models.Alert{
			SensorName:     name,
			MAC:            reading.MAC,
			ThresholdType:  kind,
			ThresholdValue: *limit,
			ActualValue:    actual,
			Time:           reading.Time,
		})
	}
	check(models.ThresholdHumidity, thresholds.Humidity, reading.Humidity)
	check(models.ThresholdTemperature, thresholds.Temperature, reading.Temperature)
	check(models.ThresholdPM25, thresholds.PM25, reading.PM25)
	return alerts
}
