package controller

import (
	"encoding/json"
	"net/http"

	"AirBox.influxDB/internal/models"
	"AirBox.influxDB/internal/service"
	"AirBox.influxDB/internal/utils"
	"go.uber.org/zap"
)

// NotificationController reads and updates the alert thresholds.
type NotificationController struct {
	store  *service.ThresholdStore
	logger *zap.Logger
}

func NewNotificationController(store *service.ThresholdStore, logger *zap.Logger) *NotificationController {
	return &NotificationController{store: store, logger: logger}
}

func (c *NotificationController) GetThresholds(w http.ResponseWriter, r *http.Request) {
	utils.RespondWithJSON(w, http.StatusOK, map[string]models.Thresholds{"thresholds": c.store.Get()})
}

// SetThresholds merges the provided fields into the current thresholds.
// Nothing is applied unless every provided field is valid.
func (c *NotificationController) SetThresholds(w http.ResponseWriter, r *http.Request) {
	fields, err := readObject(w, r)
	if err != nil {
		invalidPayload(w, []string{err.Error()})
		return
	}

	update, details := decodeThresholdUpdate(fields)
	if len(details) > 0 {
		invalidPayload(w, details)
		return
	}

	thresholds := c.store.Update(update)
	c.logger.Info("Notification thresholds updated")
	utils.RespondWithJSON(w, http.StatusOK, map[string]interface{}{
		"message":    "Notification thresholds updated",
		"thresholds": thresholds,
	})
}

func invalidPayload(w http.ResponseWriter, details []string) {
	utils.RespondWithError(w, models.NewAPIError(models.ErrorCodeValidationFailed, "Invalid payload", details, http.StatusBadRequest))
}

func decodeThresholdUpdate(fields map[string]json.RawMessage) (models.Thresholds, []string) {
	var update models.Thresholds
	var details []string

	number := func(key string) *float64 {
		if _, present := fields[key]; !present {
			return nil
		}
		v, ok := numberField(fields, key)
		if !ok {
			details = append(details, key+" must be a number")
			return nil
		}
		return &v
	}
	update.Humidity = number("humidity")
	update.Temperature = number("temperature")
	update.PM25 = number("pm25")

	if raw, present := fields["email"]; present {
		var email string
		if isNull(raw) || json.Unmarshal(raw, &email) != nil {
			details = append(details, "email must be a string")
		} else {
			update.Email = &email
		}
	}
	return update, details
}
