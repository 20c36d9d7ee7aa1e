// Package service implements business logic, validation, and orchestration
// between HTTP handlers and the repository layer.
package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/htl-registration/appointment-intake/internal/model"
)

var (
	// ErrStoreUnavailable wraps every failure of the underlying store.
	// Callers treat it as terminal for the current request.
	ErrStoreUnavailable = errors.New("store unavailable")

	// ErrConfigurationMissing means no appointment configuration has been
	// imported yet.
	ErrConfigurationMissing = errors.New("no appointment configuration")
)

// ConfigurationStore persists configuration documents.
type ConfigurationStore interface {
	Create(ctx context.Context, cfg model.AppointmentConfiguration) error
	List(ctx context.Context) ([]model.AppointmentConfiguration, error)
	Delete(ctx context.Context, id string) error
}

// RegistrationLedger is the append-only registration store.
type RegistrationLedger interface {
	Create(ctx context.Context, reg *model.Registration) error
	List(ctx context.Context) ([]model.Registration, error)
	GetByID(ctx context.Context, id string) (*model.Registration, error)
}

// EventPublisher delivers domain events to interested consumers.
type EventPublisher interface {
	PublishEvent(ctx context.Context, routingKey, messageID string, body []byte) error
}

// ValidationErrors maps a field name to the problem found with it.
type ValidationErrors map[string]string

func (v ValidationErrors) Error() string {
	fields := make([]string, 0, len(v))
	for f := range v {
		fields = append(fields, f)
	}
	sort.Strings(fields)

	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		parts = append(parts, fmt.Sprintf("%s: %s", f, v[f]))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func storeErr(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrStoreUnavailable, op, err)
}

// storeCall bounds a single store round-trip.
func storeCall(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, timeout)
}
