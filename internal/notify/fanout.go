package notify

import (
	"context"
	"errors"

	"AirBox.influxDB/internal/models"
)

// Dispatcher delivers one batch of alerts to a recipient.
type Dispatcher interface {
	Dispatch(ctx context.Context, recipient string, alerts []models.Alert) error
}

// Fanout hands each batch to every dispatcher; one failing sink does not
// stop the others.
type Fanout []Dispatcher

func (f Fanout) Dispatch(ctx context.Context, recipient string, alerts []models.Alert) error {
	var errs []error
	for _, d := range f {
		if err := d.Dispatch(ctx, recipient, alerts); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
