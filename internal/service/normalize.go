package service

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"AirBox.influxDB/internal/models"
)

var (
	// ErrShapeMismatch means the snapshot body is not an object with an entries array.
	ErrShapeMismatch = errors.New("feed snapshot shape mismatch")
	// ErrValidation marks an entry that cannot be stored.
	ErrValidation = errors.New("entry validation failed")
)

// Layouts without a zone are read as UTC.
var utcLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
}

// DecodeSnapshot extracts the entries of a feed snapshot. Entries that are
// not JSON objects decode as empty entries and fail validation later.
func DecodeSnapshot(body []byte) ([]models.RawEntry, error) {
	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("%w: body is not a JSON object", ErrShapeMismatch)
	}

	raw := bytes.TrimSpace(envelope["entries"])
	if len(raw) == 0 || raw[0] != '[' {
		return nil, fmt.Errorf("%w: entries is not an array", ErrShapeMismatch)
	}
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrShapeMismatch, err)
	}

	entries := make([]models.RawEntry, len(items))
	for i, item := range items {
		var entry models.RawEntry
		if err := json.Unmarshal(item, &entry); err != nil || entry == nil {
			entry = models.RawEntry{}
		}
		entries[i] = entry
	}
	return entries, nil
}

// NormalizeEntry maps a raw feed entry onto a Reading, filling defaults for
// absent fields. The Time is zero when the entry has no usable timestamp.
func NormalizeEntry(entry models.RawEntry) models.Reading {
	ts, _ := parseTimestamp(entry["time"])
	return models.Reading{
		MAC:         stringField(entry, "mac", ""),
		Name:        stringField(entry, "name", ""),
		FwVer:       stringField(entry, "fw_ver", ""),
		Model:       stringField(entry, "model", ""),
		ODM:         stringField(entry, "odm", ""),
		Area:        stringField(entry, "area", ""),
		Type:        stringField(entry, "type", models.DefaultReadingType),
		Status:      stringField(entry, "status", models.DefaultReadingStatus),
		Lat:         coerceNumber(entry["lat"]),
		Lon:         coerceNumber(entry["lon"]),
		Humidity:    coerceNumber(entry["h"]),
		Temperature: coerceNumber(entry["t"]),
		PM1:         coerceNumber(entry["pm1"]),
		PM10:        coerceNumber(entry["pm10"]),
		PM25:        coerceNumber(entry["pm25"]),
		CO:          coerceNumber(entry["co"]),
		CO2:         coerceNumber(entry["co2"]),
		HCHO:        coerceNumber(entry["hcho"]),
		TVOC:        coerceNumber(entry["tvoc"]),
		AdfStatus:   coerceNumber(entry["adf_status"]),
		Time:        ts,
	}
}

// ValidateReading rejects readings without a MAC or a timestamp.
func ValidateReading(reading models.Reading) error {
	if reading.MAC == "" {
		return fmt.Errorf("%w: mac is missing", ErrValidation)
	}
	if reading.Time.IsZero() {
		return fmt.Errorf("%w: timestamp is missing or unparseable", ErrValidation)
	}
	return nil
}

func stringField(entry models.RawEntry, key, fallback string) string {
	v, ok := entry[key]
	if !ok || v == nil {
		return fallback
	}
	s, _ := v.(string)
	return s
}

func coerceNumber(v any) float64 {
	var f float64
	switch n := v.(type) {
	case float64:
		f = n
	case bool:
		if n {
			f = 1
		}
	case string:
		s := strings.TrimSpace(n)
		if s == "" {
			return 0
		}
		parsed, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0
		}
		f = parsed
	default:
		return 0
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}

// maxEpochMillis is 100,000,000 days either side of the epoch.
const maxEpochMillis = 8.64e15

// Points are stored with nanosecond precision, so timestamps must fit an int64
// count of nanoseconds since the epoch (1677 to 2262).
var (
	earliestStorable = time.Unix(0, math.MinInt64).UTC()
	latestStorable   = time.Unix(0, math.MaxInt64).UTC()
)

func parseTimestamp(v any) (time.Time, bool) {
	switch t := v.(type) {
	case string:
		s := strings.TrimSpace(t)
		if s == "" {
			return time.Time{}, false
		}
		if ts, err := time.Parse(time.RFC3339Nano, s); err == nil {
			return storable(ts.UTC())
		}
		for _, layout := range utcLayouts {
			if ts, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
				return storable(ts)
			}
		}
	case float64:
		if t == 0 || math.IsNaN(t) || math.Abs(t) > maxEpochMillis {
			return time.Time{}, false
		}
		return storable(time.UnixMilli(int64(t)).UTC())
	}
	return time.Time{}, false
}

func storable(ts time.Time) (time.Time, bool) {
	if ts.Before(earliestStorable) || ts.After(latestStorable) {
		return time.Time{}, false
	}
	return ts, true
}
