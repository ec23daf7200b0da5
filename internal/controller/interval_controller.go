package controller

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"AirBox.influxDB/internal/models"
	"AirBox.influxDB/internal/scheduler"
	"AirBox.influxDB/internal/utils"
	"go.uber.org/zap"
)

const maxBodyBytes = 1 << 20

// IntervalScheduler is the part of the scheduler the interval routes drive.
type IntervalScheduler interface {
	IntervalSource
	SetInterval(minutes float64) error
}

type IntervalController struct {
	scheduler IntervalScheduler
	logger    *zap.Logger
}

func NewIntervalController(s IntervalScheduler, logger *zap.Logger) *IntervalController {
	return &IntervalController{scheduler: s, logger: logger}
}

func (c *IntervalController) GetInterval(w http.ResponseWriter, r *http.Request) {
	utils.RespondWithJSON(w, http.StatusOK, map[string]float64{"intervalMinutes": c.scheduler.IntervalMinutes()})
}

// SetInterval accepts {"intervalMinutes": <positive number>}.
func (c *IntervalController) SetInterval(w http.ResponseWriter, r *http.Request) {
	fields, err := readObject(w, r)
	if err != nil {
		invalidInterval(w, err.Error())
		return
	}
	minutes, ok := numberField(fields, "intervalMinutes")
	if !ok {
		invalidInterval(w, "intervalMinutes must be a number")
		return
	}

	if err := c.scheduler.SetInterval(minutes); err != nil {
		if errors.Is(err, scheduler.ErrInvalidArgument) {
			invalidInterval(w, "intervalMinutes must be a positive number of minutes within the schedulable range")
			return
		}
		c.logger.Error("Failed to update interval", zap.Error(err))
		utils.RespondWithError(w, models.NewAPIError(models.ErrorCodeInternalServerError, "Failed to update interval", nil, http.StatusInternalServerError))
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, map[string]string{
		"message": fmt.Sprintf("Fetch interval updated to %s minutes", strconv.FormatFloat(minutes, 'f', -1, 64)),
	})
}

func invalidInterval(w http.ResponseWriter, detail string) {
	utils.RespondWithError(w, models.NewAPIError(models.ErrorCodeValidationFailed, "Invalid intervalMinutes value", []string{detail}, http.StatusBadRequest))
}

// readObject reads the request body as a JSON object.
func readObject(w http.ResponseWriter, r *http.Request) (map[string]json.RawMessage, error) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("error reading request body: %v", err)
	}
	defer r.Body.Close()

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil || fields == nil {
		return nil, errors.New("body must be a JSON object")
	}
	return fields, nil
}

// numberField reports whether key holds a JSON number. Absent and null are not numbers.
func numberField(fields map[string]json.RawMessage, key string) (float64, bool) {
	raw, ok := fields[key]
	if !ok || isNull(raw) {
		return 0, false
	}
	var v float64
	if err := json.Unmarshal(raw, &v); err != nil {
		return 0, false
	}
	return v, true
}

func isNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}
