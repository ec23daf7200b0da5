package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"AirBox.influxDB/internal/models"
)

type fakeFeed struct {
	body []byte
	err  error
}

func (f *fakeFeed) Fetch(context.Context) ([]byte, error) {
	return f.body, f.err
}

type fakeRepository struct {
	mu       sync.Mutex
	created  []models.Reading
	failMACs map[string]error
	readings []models.Reading
	findErr  error
	barrier  *saveBarrier
}

func (r *fakeRepository) Create(_ context.Context, reading models.Reading) (models.Reading, error) {
	if r.barrier != nil {
		if err := r.barrier.wait(); err != nil {
			return models.Reading{}, err
		}
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.failMACs[reading.MAC]; err != nil {
		return models.Reading{}, err
	}
	r.created = append(r.created, reading)
	return reading, nil
}

func (r *fakeRepository) FindAll(context.Context) ([]models.Reading, error) {
	if r.findErr != nil {
		return nil, r.findErr
	}
	return r.readings, nil
}

func (r *fakeRepository) createdMACs() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	macs := make([]string, 0, len(r.created))
	for _, reading := range r.created {
		macs = append(macs, reading.MAC)
	}
	return macs
}

// saveBarrier holds every caller until want callers are waiting at once.
type saveBarrier struct {
	mu      sync.Mutex
	want    int
	entered int
	all     chan struct{}
}

func newSaveBarrier(want int) *saveBarrier {
	return &saveBarrier{want: want, all: make(chan struct{})}
}

func (b *saveBarrier) wait() error {
	b.mu.Lock()
	b.entered++
	if b.entered == b.want {
		close(b.all)
	}
	entered := b.entered
	b.mu.Unlock()

	select {
	case <-b.all:
		return nil
	case <-time.After(2 * time.Second):
		return fmt.Errorf("only %d of %d saves in flight", entered, b.want)
	}
}

type dispatchCall struct {
	recipient string
	alerts    []models.Alert
}

type fakeDispatcher struct {
	calls []dispatchCall
	err   error
}

func (d *fakeDispatcher) Dispatch(_ context.Context, recipient string, alerts []models.Alert) error {
	d.calls = append(d.calls, dispatchCall{recipient: recipient, alerts: alerts})
	return d.err
}

func ptr[T any](v T) *T { return &v }
