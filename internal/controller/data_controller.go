package controller

import (
	"context"
	"net/http"

	"AirBox.influxDB/internal/models"
	"AirBox.influxDB/internal/repository"
	"AirBox.influxDB/internal/utils"
	"go.uber.org/zap"
)

// IngestionRunner runs one ad-hoc ingestion pass.
type IngestionRunner interface {
	Run(ctx context.Context) (models.IngestResult, error)
}

// IntervalSource exposes the scheduler's interval.
type IntervalSource interface {
	IntervalMinutes() float64
}

// DataController handles HTTP requests for AirBox readings.
type DataController struct {
	repo      repository.ReadingRepository
	ingestion IngestionRunner
	interval  IntervalSource
	logger    *zap.Logger
}

// NewDataController creates a new DataController.
func NewDataController(repo repository.ReadingRepository, ingestion IngestionRunner, interval IntervalSource, logger *zap.Logger) *DataController {
	return &DataController{
		repo:      repo,
		ingestion: ingestion,
		interval:  interval,
		logger:    logger,
	}
}

// GetData returns every stored reading, newest first.
func (c *DataController) GetData(w http.ResponseWriter, r *http.Request) {
	readings, err := c.repo.FindAll(r.Context())
	if err != nil {
		c.logger.Error("Failed to list readings", zap.Error(err))
		utils.RespondWithError(w, models.NewAPIError(models.ErrorCodeStoreUnavailable, "Failed to fetch data", nil, http.StatusInternalServerError))
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, readings)
}

// FetchData runs the ingestion pipeline once, outside the schedule.
func (c *DataController) FetchData(w http.ResponseWriter, r *http.Request) {
	result, err := c.ingestion.Run(r.Context())
	if err != nil {
		c.logger.Error("Ad-hoc fetch failed", zap.Error(err))
		utils.RespondWithError(w, models.NewAPIError(models.ErrorCodeUpstreamUnavailable, "Failed to fetch and save data", nil, http.StatusInternalServerError))
		return
	}
	c.logger.Info("Ad-hoc fetch completed", zap.Int("saved", result.Saved), zap.Int("dropped", result.Dropped))
	utils.RespondWithJSON(w, http.StatusOK, map[string]interface{}{
		"message":         "Data fetched and saved successfully",
		"intervalMinutes": c.interval.IntervalMinutes(),
	})
}
