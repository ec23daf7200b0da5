package models

import "time"

// Defaults applied to feed entries that omit the field.
const (
	DefaultReadingType   = "airbox"
	DefaultReadingStatus = "offline"
)

// Reading is one normalized snapshot of a single AirBox device.
type Reading struct {
	MAC         string    `json:"mac"`
	Name        string    `json:"name"`
	FwVer       string    `json:"fw_ver"`
	Model       string    `json:"model"`
	ODM         string    `json:"odm"`
	Lat         float64   `json:"lat"`
	Lon         float64   `json:"lon"`
	Humidity    float64   `json:"h"`
	Temperature float64   `json:"t"`
	PM1         float64   `json:"pm1"`
	PM10        float64   `json:"pm10"`
	PM25        float64   `json:"pm25"`
	CO          float64   `json:"co"`
	CO2         float64   `json:"co2"`
	HCHO        float64   `json:"hcho"`
	TVOC        float64   `json:"tvoc"`
	Area        string    `json:"area"`
	Type        string    `json:"type"`
	Time        time.Time `json:"time"`
	Status      string    `json:"status"`
	AdfStatus   float64   `json:"adf_status"`
}

// RawEntry is a feed entry before normalization. Values keep whatever JSON
// type the upstream sent.
type RawEntry map[string]any
