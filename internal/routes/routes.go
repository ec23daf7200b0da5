package routes

import (
	"fmt"
	"net/http"

	"AirBox.influxDB/internal/controller"
	"AirBox.influxDB/internal/metrics"
	"AirBox.influxDB/internal/middleware"
	"AirBox.influxDB/internal/models"
	"AirBox.influxDB/internal/utils"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// Handlers groups everything the router serves.
type Handlers struct {
	Data          *controller.DataController
	Interval      *controller.IntervalController
	Notifications *controller.NotificationController
	// Metrics serves the Prometheus exposition.
	Metrics http.Handler
	// Guard wraps the mutating admin routes.
	Guard func(http.Handler) http.Handler
}

// NewRouter registers all application routes.
func NewRouter(h Handlers, logger *zap.Logger, c *metrics.Collectors) *mux.Router {
	guard := h.Guard
	if guard == nil {
		guard = func(next http.Handler) http.Handler { return next }
	}

	router := mux.NewRouter()
	router.Use(middleware.RequestLogger(logger), middleware.Metrics(c))

	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, "OK")
	}).Methods(http.MethodGet)
	if h.Metrics != nil {
		router.Handle("/metrics", h.Metrics).Methods(http.MethodGet)
	}

	// Readings
	router.HandleFunc("/get-data", h.Data.GetData).Methods(http.MethodGet)
	router.HandleFunc("/fetch-data", h.Data.FetchData).Methods(http.MethodGet)

	// Scheduler
	router.HandleFunc("/interval", h.Interval.GetInterval).Methods(http.MethodGet)
	router.Handle("/interval:set", guard(http.HandlerFunc(h.Interval.SetInterval))).Methods(http.MethodPost)

	// Notifications
	router.HandleFunc("/set-notification-values", h.Notifications.GetThresholds).Methods(http.MethodGet)
	router.Handle("/set-notification-values", guard(http.HandlerFunc(h.Notifications.SetThresholds))).Methods(http.MethodPost)

	router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		utils.RespondWithError(w, models.NewAPIError(models.ErrorCodeNotFound, "Not found", nil, http.StatusNotFound))
	})
	router.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		utils.RespondWithError(w, models.NewAPIError(models.ErrorCodeBadRequest, "Method not allowed", nil, http.StatusMethodNotAllowed))
	})
	return router
}
