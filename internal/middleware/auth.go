package middleware

import (
	"fmt"
	"net/http"
	"net/url"
	"time"

	"AirBox.influxDB/internal/config"
	"AirBox.influxDB/internal/models"
	"AirBox.influxDB/internal/utils"
	jwtmiddleware "github.com/auth0/go-jwt-middleware/v2"
	"github.com/auth0/go-jwt-middleware/v2/jwks"
	"github.com/auth0/go-jwt-middleware/v2/validator"
	"go.uber.org/zap"
)

// NewAuthGuard validates Auth0-issued RS256 bearer tokens. When Auth0 is not
// configured the guard lets every request through.
func NewAuthGuard(cfg config.Auth0Config, logger *zap.Logger) (func(http.Handler) http.Handler, error) {
	if !cfg.Enabled() {
		logger.Warn("Auth0 is not configured, admin routes are unauthenticated")
		return func(next http.Handler) http.Handler { return next }, nil
	}

	issuerURL, err := url.Parse("https://" + cfg.Domain + "/")
	if err != nil {
		return nil, fmt.Errorf("parsing issuer url: %w", err)
	}
	provider := jwks.NewCachingProvider(issuerURL, 5*time.Minute)

	jwtValidator, err := validator.New(
		provider.KeyFunc,
		validator.RS256,
		issuerURL.String(),
		[]string{cfg.Audience},
		validator.WithAllowedClockSkew(time.Minute),
	)
	if err != nil {
		return nil, fmt.Errorf("setting up jwt validator: %w", err)
	}

	errorHandler := func(w http.ResponseWriter, r *http.Request, err error) {
		logger.Warn("Rejected request", zap.String("path", r.URL.Path), zap.Error(err))
		utils.RespondWithError(w, models.NewAPIError(models.ErrorCodeUnauthorized, "Invalid or missing token", nil, http.StatusUnauthorized))
	}
	guard := jwtmiddleware.New(jwtValidator.ValidateToken, jwtmiddleware.WithErrorHandler(errorHandler))

	return guard.CheckJWT, nil
}
