package models

import "time"

// Threshold types carried in Alert.ThresholdType.
const (
	ThresholdHumidity    = "Humidity"
	ThresholdTemperature = "Temperature"
	ThresholdPM25        = "PM2.5"
)

// UnknownSensorName replaces an empty device name in alerts.
const UnknownSensorName = "Unknown"

// Alert records one threshold breach on a device's latest reading.
type Alert struct {
	SensorName     string    `json:"sensorName"`
	MAC            string    `json:"mac"`
	ThresholdType  string    `json:"thresholdType"`
	ThresholdValue float64   `json:"thresholdValue"`
	ActualValue    float64   `json:"actualValue"`
	Time           time.Time `json:"time"`
}
