package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/htl-registration/appointment-intake/internal/logger"
	"github.com/htl-registration/appointment-intake/internal/metrics"
	"github.com/htl-registration/appointment-intake/internal/model"
	"github.com/htl-registration/appointment-intake/internal/workday"
)

// AppointmentService keeps a single current appointment configuration.
type AppointmentService struct {
	configs      ConfigurationStore
	now          func() time.Time
	storeTimeout time.Duration

	visibilityFilter bool
	visibilityOffset int
}

type AppointmentOption func(*AppointmentService)

// WithClock overrides time.Now for the visibility filter.
func WithClock(now func() time.Time) AppointmentOption {
	return func(s *AppointmentService) { s.now = now }
}

// WithVisibilityFilter keeps only slots whose date lies strictly before the
// date offset workdays away from today.
func WithVisibilityFilter(offset int) AppointmentOption {
	return func(s *AppointmentService) {
		s.visibilityFilter = true
		s.visibilityOffset = offset
	}
}

// WithConfigStoreTimeout bounds each store call.
func WithConfigStoreTimeout(d time.Duration) AppointmentOption {
	return func(s *AppointmentService) { s.storeTimeout = d }
}

func NewAppointmentService(configs ConfigurationStore, opts ...AppointmentOption) *AppointmentService {
	s := &AppointmentService{configs: configs, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ReplaceConfiguration stores cfg under a fresh id and then deletes every
// other stored configuration.
//
// The two steps are not atomic. Readers in between may see two documents.
// Failures after the insert are logged and left for the next replace, which
// again deletes everything but its own document.
func (s *AppointmentService) ReplaceConfiguration(ctx context.Context, cfg model.AppointmentConfiguration) (model.AppointmentConfiguration, error) {
	cfg.ID = uuid.NewString()
	log := logger.Ctx(ctx).With().Str("configuration_id", cfg.ID).Logger()

	callCtx, cancel := storeCall(ctx, s.storeTimeout)
	err := s.configs.Create(callCtx, cfg)
	cancel()
	if err != nil {
		metrics.RecordReplacement(false, 0)
		return model.AppointmentConfiguration{}, storeErr("insert configuration", err)
	}

	callCtx, cancel = storeCall(ctx, s.storeTimeout)
	existing, err := s.configs.List(callCtx)
	cancel()
	if err != nil {
		log.Warn().Err(err).Msg("listing stale configurations failed; left for next replace")
		metrics.RecordReplacement(false, 0)
		return cfg, nil
	}

	removed, failed := 0, 0
	for _, old := range existing {
		if old.ID == cfg.ID {
			continue
		}
		callCtx, cancel = storeCall(ctx, s.storeTimeout)
		err := s.configs.Delete(callCtx, old.ID)
		cancel()
		if err != nil {
			failed++
			log.Warn().Err(err).Str("stale_id", old.ID).Msg("deleting stale configuration failed")
			continue
		}
		removed++
	}

	metrics.RecordReplacement(failed == 0, removed)
	log.Info().
		Int("appointments", len(cfg.Appointments)).
		Float64("rate_girls", cfg.RateGirls).
		Int("stale_removed", removed).
		Int("stale_failed", failed).
		Msg("configuration replaced")
	return cfg, nil
}

// CurrentConfiguration returns the first stored configuration, with the
// visibility filter applied when enabled.
func (s *AppointmentService) CurrentConfiguration(ctx context.Context) (*model.AppointmentConfiguration, error) {
	cfg, err := s.storedConfiguration(ctx)
	if err != nil {
		return nil, err
	}
	if s.visibilityFilter {
		cfg.Appointments = s.visibleSlots(ctx, cfg.Appointments)
	}
	return cfg, nil
}

// storedConfiguration returns the first document of an unordered listing.
func (s *AppointmentService) storedConfiguration(ctx context.Context) (*model.AppointmentConfiguration, error) {
	callCtx, cancel := storeCall(ctx, s.storeTimeout)
	defer cancel()

	configs, err := s.configs.List(callCtx)
	if err != nil {
		return nil, storeErr("list configurations", err)
	}
	if len(configs) == 0 {
		return nil, ErrConfigurationMissing
	}
	if len(configs) > 1 {
		logger.Ctx(ctx).Warn().Int("count", len(configs)).Msg("multiple configurations stored; using first")
	}
	cfg := configs[0]
	return &cfg, nil
}

func (s *AppointmentService) visibleSlots(ctx context.Context, slots []model.AppointmentSlot) []model.AppointmentSlot {
	now := s.now()
	out := make([]model.AppointmentSlot, 0, len(slots))
	for _, slot := range slots {
		past, err := workday.IsInThePast(slot.ISODate, now, s.visibilityOffset)
		if err != nil {
			logger.Ctx(ctx).Warn().Err(err).Str("iso_date", slot.ISODate).Msg("unparseable appointment date hidden")
			continue
		}
		if past {
			out = append(out, slot)
		}
	}
	return out
}

// isVisible reports whether isoDate survives the visibility filter.
func (s *AppointmentService) isVisible(ctx context.Context, isoDate string) bool {
	if !s.visibilityFilter {
		return true
	}
	return len(s.visibleSlots(ctx, []model.AppointmentSlot{{ISODate: isoDate}})) == 1
}
