package notify

import (
	"context"
	"errors"
	"fmt"
	"time"

	"AirBox.influxDB/internal/config"
	"AirBox.influxDB/internal/models"
	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

// ErrDispatch wraps every delivery failure.
var ErrDispatch = errors.New("alert dispatch failed")

type emailRequest struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html"`
}

type emailResponse struct {
	ID string `json:"id"`
}

// EmailDispatcher sends alert batches through the Resend e-mail API.
type EmailDispatcher struct {
	client *resty.Client
	apiKey string
	from   string
	logger *zap.Logger
}

func NewEmailDispatcher(cfg config.ResendConfig, logger *zap.Logger) *EmailDispatcher {
	return &EmailDispatcher{
		client: resty.New().
			SetBaseURL(cfg.APIURL).
			SetAuthToken(cfg.APIKey).
			SetTimeout(15 * time.Second),
		apiKey: cfg.APIKey,
		from:   cfg.FromEmail,
		logger: logger.With(zap.String("component", "email")),
	}
}

// Dispatch e-mails the alerts to recipient. Without an API key it only warns.
func (d *EmailDispatcher) Dispatch(ctx context.Context, recipient string, alerts []models.Alert) error {
	if d.apiKey == "" {
		d.logger.Warn("RESEND_API_KEY is not set, skipping alert e-mail", zap.Int("alerts", len(alerts)))
		return nil
	}
	if len(alerts) == 0 {
		return nil
	}

	body, err := RenderAlertEmail(alerts)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDispatch, err)
	}

	var sent emailResponse
	resp, err := d.client.R().
		SetContext(ctx).
		SetBody(emailRequest{
			From:    d.from,
			To:      []string{recipient},
			Subject: Subject(len(alerts)),
			HTML:    body,
		}).
		SetResult(&sent).
		Post("/emails")
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDispatch, err)
	}
	if resp.IsError() {
		return fmt.Errorf("%w: e-mail provider responded %s: %s", ErrDispatch, resp.Status(), resp.String())
	}

	d.logger.Info("Alert e-mail sent", zap.String("id", sent.ID), zap.String("to", recipient))
	return nil
}
