package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"AirBox.influxDB/internal/models"
	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"
	"go.uber.org/zap"
)

const measurement = "airbox_reading"

// ErrStoreUnavailable wraps failures talking to the reading store.
var ErrStoreUnavailable = errors.New("reading store unavailable")

// ReadingRepository persists and lists AirBox readings.
type ReadingRepository interface {
	FindAll(ctx context.Context) ([]models.Reading, error)
	Create(ctx context.Context, reading models.Reading) (models.Reading, error)
}

// InfluxDBRepository stores one point per reading, tagged by device MAC.
type InfluxDBRepository struct {
	client   influxdb2.Client
	org      string
	bucket   string
	writeAPI api.WriteAPIBlocking
	queryAPI api.QueryAPI
	logger   *zap.Logger
}

// NewInfluxDBRepository creates a new InfluxDBRepository.
func NewInfluxDBRepository(url, token, org, bucket string, logger *zap.Logger) *InfluxDBRepository {
	client := influxdb2.NewClient(url, token)
	return &InfluxDBRepository{
		client:   client,
		org:      org,
		bucket:   bucket,
		writeAPI: client.WriteAPIBlocking(org, bucket),
		queryAPI: client.QueryAPI(org),
		logger:   logger.With(zap.String("component", "influxdb")),
	}
}

// Ping fails unless the server reports a passing health check.
func (r *InfluxDBRepository) Ping(ctx context.Context) error {
	health, err := r.client.Health(ctx)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	if health.Status != "pass" {
		msg := ""
		if health.Message != nil {
			msg = *health.Message
		}
		return fmt.Errorf("%w: health check %s: %s", ErrStoreUnavailable, health.Status, msg)
	}
	r.logger.Info("✅ Connected to InfluxDB")
	return nil
}

// EnsureBucket creates the configured bucket when it does not exist yet.
func (r *InfluxDBRepository) EnsureBucket(ctx context.Context) error {
	bucketsAPI := r.client.BucketsAPI()
	if bucket, err := bucketsAPI.FindBucketByName(ctx, r.bucket); err == nil && bucket != nil {
		return nil
	}

	org, err := r.client.OrganizationsAPI().FindOrganizationByName(ctx, r.org)
	if err != nil {
		return fmt.Errorf("finding organization %q: %w", r.org, err)
	}
	if org == nil {
		return fmt.Errorf("organization %q not found", r.org)
	}
	if _, err := bucketsAPI.CreateBucketWithName(ctx, org, r.bucket); err != nil {
		return fmt.Errorf("creating bucket %q: %w", r.bucket, err)
	}
	r.logger.Info("✅ Bucket created", zap.String("bucket", r.bucket))
	return nil
}

// Create writes one reading.
func (r *InfluxDBRepository) Create(ctx context.Context, reading models.Reading) (models.Reading, error) {
	if err := r.writeAPI.WritePoint(ctx, readingPoint(reading)); err != nil {
		return models.Reading{}, fmt.Errorf("writing reading for %s: %w", reading.MAC, err)
	}
	r.logger.Debug("reading written", zap.String("mac", reading.MAC), zap.Time("time", reading.Time))
	return reading, nil
}

// FindAll returns every stored reading, newest first.
func (r *InfluxDBRepository) FindAll(ctx context.Context) ([]models.Reading, error) {
	result, err := r.queryAPI.Query(ctx, findAllQuery(r.bucket))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	defer result.Close()

	readings := make([]models.Reading, 0)
	for result.Next() {
		readings = append(readings, readingFromValues(result.Record().Time(), result.Record().Values()))
	}
	if result.Err() != nil {
		return nil, fmt.Errorf("%w: query parsing error: %v", ErrStoreUnavailable, result.Err())
	}
	return readings, nil
}

// Close releases the client's connections.
func (r *InfluxDBRepository) Close() {
	r.client.Close()
}

func readingPoint(reading models.Reading) *write.Point {
	return influxdb2.NewPoint(
		measurement,
		map[string]string{"mac": reading.MAC},
		map[string]interface{}{
			"name":       reading.Name,
			"fw_ver":     reading.FwVer,
			"model":      reading.Model,
			"odm":        reading.ODM,
			"area":       reading.Area,
			"type":       reading.Type,
			"status":     reading.Status,
			"lat":        reading.Lat,
			"lon":        reading.Lon,
			"h":          reading.Humidity,
			"t":          reading.Temperature,
			"pm1":        reading.PM1,
			"pm10":       reading.PM10,
			"pm25":       reading.PM25,
			"co":         reading.CO,
			"co2":        reading.CO2,
			"hcho":       reading.HCHO,
			"tvoc":       reading.TVOC,
			"adf_status": reading.AdfStatus,
		},
		reading.Time,
	)
}

func findAllQuery(bucket string) string {
	return fmt.Sprintf(`from(bucket: %q)
  |> range(start: 0)
  |> filter(fn: (r) => r["_measurement"] == %q)
  |> pivot(rowKey: ["_time"], columnKey: ["_field"], valueColumn: "_value")
  |> group()
  |> sort(columns: ["_time"], desc: true)`, bucket, measurement)
}

func readingFromValues(ts time.Time, values map[string]interface{}) models.Reading {
	return models.Reading{
		MAC:         stringValue(values["mac"]),
		Name:        stringValue(values["name"]),
		FwVer:       stringValue(values["fw_ver"]),
		Model:       stringValue(values["model"]),
		ODM:         stringValue(values["odm"]),
		Area:        stringValue(values["area"]),
		Type:        stringValue(values["type"]),
		Status:      stringValue(values["status"]),
		Lat:         floatValue(values["lat"]),
		Lon:         floatValue(values["lon"]),
		Humidity:    floatValue(values["h"]),
		Temperature: floatValue(values["t"]),
		PM1:         floatValue(values["pm1"]),
		PM10:        floatValue(values["pm10"]),
		PM25:        floatValue(values["pm25"]),
		CO:          floatValue(values["co"]),
		CO2:         floatValue(values["co2"]),
		HCHO:        floatValue(values["hcho"]),
		TVOC:        floatValue(values["tvoc"]),
		AdfStatus:   floatValue(values["adf_status"]),
		Time:        ts.UTC(),
	}
}

func stringValue(v interface{}) string {
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}

func floatValue(v interface{}) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case int64:
		return float64(n)
	case uint64:
		return float64(n)
	default:
		return 0
	}
}
