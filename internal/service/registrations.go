package service

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/htl-registration/appointment-intake/internal/allocation"
	"github.com/htl-registration/appointment-intake/internal/logger"
	"github.com/htl-registration/appointment-intake/internal/messaging"
	"github.com/htl-registration/appointment-intake/internal/metrics"
	"github.com/htl-registration/appointment-intake/internal/model"
	"github.com/htl-registration/appointment-intake/internal/repository"
)

// RegistrationService computes offers and commits allocation decisions.
//
// Every call re-reads the configuration and the full ledger. There is no
// lock between reading and appending, so concurrent submissions for the
// last seat of a slot may both succeed.
type RegistrationService struct {
	appointments *AppointmentService
	ledger       RegistrationLedger
	publisher    EventPublisher
	now          func() time.Time
	storeTimeout time.Duration
}

type RegistrationOption func(*RegistrationService)

// WithPublisher sends registration.created events after each commit.
func WithPublisher(p EventPublisher) RegistrationOption {
	return func(s *RegistrationService) { s.publisher = p }
}

// WithRegistrationClock overrides time.Now for CreatedAt stamps.
func WithRegistrationClock(now func() time.Time) RegistrationOption {
	return func(s *RegistrationService) { s.now = now }
}

// WithLedgerTimeout bounds each ledger call.
func WithLedgerTimeout(d time.Duration) RegistrationOption {
	return func(s *RegistrationService) { s.storeTimeout = d }
}

func NewRegistrationService(appointments *AppointmentService, ledger RegistrationLedger, opts ...RegistrationOption) *RegistrationService {
	s := &RegistrationService{
		appointments: appointments,
		ledger:       ledger,
		publisher:    messaging.NoopPublisher{},
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *RegistrationService) listLedger(ctx context.Context) ([]model.Registration, error) {
	callCtx, cancel := storeCall(ctx, s.storeTimeout)
	defer cancel()

	regs, err := s.ledger.List(callCtx)
	if err != nil {
		return nil, storeErr("list registrations", err)
	}
	return regs, nil
}

// Statistics aggregates the ledger for dept.
func (s *RegistrationService) Statistics(ctx context.Context, dept model.Department) (model.RegistrationStatistics, error) {
	regs, err := s.listLedger(ctx)
	if err != nil {
		return model.RegistrationStatistics{}, err
	}
	return allocation.Aggregate(regs, dept), nil
}

// Offer returns the appointments of dept an applicant of the given gender
// may currently choose.
//
// The quota is computed against the whole stored configuration; the
// visibility filter, when enabled, only narrows the offered slots.
func (s *RegistrationService) Offer(ctx context.Context, dept model.Department, gender string) (model.Offer, error) {
	cfg, err := s.appointments.storedConfiguration(ctx)
	if err != nil {
		return model.Offer{}, err
	}
	stats, err := s.Statistics(ctx, dept)
	if err != nil {
		return model.Offer{}, err
	}

	offer := allocation.Eligible(cfg, &stats, dept, gender)
	if s.appointments.visibilityFilter {
		offer.Appointments = slices.DeleteFunc(offer.Appointments, func(a model.AppointmentSlot) bool {
			return !s.appointments.isVisible(ctx, a.ISODate)
		})
		if len(offer.Appointments) == 0 {
			offer.Full = true
		}
	}
	return offer, nil
}

// Register validates req, computes a fresh offer and commits the decision.
func (s *RegistrationService) Register(ctx context.Context, req model.RegisterRequest) (*model.Registration, error) {
	req = Normalize(req)
	if verrs := Validate(req); verrs != nil {
		return nil, verrs
	}

	offer, err := s.Offer(ctx, model.Department(req.Department), req.Gender)
	if err != nil {
		return nil, err
	}
	return s.Decide(ctx, offer, req)
}

// Decide checks req.Appointment against offer and appends a registration
// when it is accepted. A rejection returns *allocation.SelectionError and
// leaves the ledger untouched.
//
// offer may be older than the ledger; Decide does not re-read it.
func (s *RegistrationService) Decide(ctx context.Context, offer model.Offer, req model.RegisterRequest) (*model.Registration, error) {
	dept := model.Department(req.Department)
	if dept != offer.Department {
		return nil, fmt.Errorf("offer for department %q used for %q applicant", offer.Department, dept)
	}
	log := logger.Ctx(ctx).With().Str("department", string(dept)).Str("appointment", req.Appointment).Logger()

	if err := allocation.Decide(req.Appointment, offer); err != nil {
		metrics.RecordDecision(string(dept), metrics.OutcomeRejected)
		log.Info().Bool("full", offer.Full).Int("offered", len(offer.Appointments)).Msg("selection rejected")
		return nil, err
	}

	reg := &model.Registration{
		ID:            uuid.NewString(),
		FirstName:     req.FirstName,
		LastName:      req.LastName,
		Gender:        req.Gender,
		Email:         req.Email,
		PhoneNumber:   req.PhoneNumber,
		Residence:     req.Residence,
		CurrentSchool: req.CurrentSchool,
		CurrentClass:  req.CurrentClass,
		Department:    dept,
		Appointment:   req.Appointment,
		CreatedAt:     s.now().UTC(),
	}

	callCtx, cancel := storeCall(ctx, s.storeTimeout)
	err := s.ledger.Create(callCtx, reg)
	cancel()
	if err != nil {
		return nil, storeErr("append registration", err)
	}

	outcome := metrics.OutcomeBooked
	if reg.OnWaitingList() {
		outcome = metrics.OutcomeWaitingList
	}
	metrics.RecordDecision(string(dept), outcome)
	log.Info().Str("registration_id", reg.ID).Str("outcome", outcome).Msg("registration created")

	s.publishCreated(ctx, reg)
	return reg, nil
}

// publishCreated never fails the request: the registration is committed.
func (s *RegistrationService) publishCreated(ctx context.Context, reg *model.Registration) {
	body, err := messaging.NewRegistrationCreated(reg)
	if err == nil {
		err = s.publisher.PublishEvent(ctx, messaging.RoutingKeyRegistrationCreated, reg.ID, body)
	}
	if err != nil {
		logger.Ctx(ctx).Warn().Err(err).Str("registration_id", reg.ID).Msg("publish registration.created failed")
	}
}

// Get returns a registration by id.
func (s *RegistrationService) Get(ctx context.Context, id string) (*model.Registration, error) {
	callCtx, cancel := storeCall(ctx, s.storeTimeout)
	defer cancel()

	reg, err := s.ledger.GetByID(callCtx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, repository.ErrNotFound
		}
		return nil, storeErr("get registration", err)
	}
	return reg, nil
}

// ListAll returns every registration, waiting list included, sorted by
// department and then appointment value.
func (s *RegistrationService) ListAll(ctx context.Context) ([]model.Registration, error) {
	regs, err := s.listLedger(ctx)
	if err != nil {
		return nil, err
	}
	slices.SortStableFunc(regs, func(a, b model.Registration) int {
		if c := cmp.Compare(a.Department, b.Department); c != 0 {
			return c
		}
		return cmp.Compare(a.Appointment, b.Appointment)
	})
	return regs, nil
}
