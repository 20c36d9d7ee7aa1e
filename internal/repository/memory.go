package repository

import (
	"context"
	"sync"

	"github.com/htl-registration/appointment-intake/internal/model"
)

// MemoryConfigurationRepository keeps configurations in a map. Like the
// Postgres table it returns them in no particular order.
type MemoryConfigurationRepository struct {
	mu      sync.RWMutex
	configs map[string]model.AppointmentConfiguration
}

func NewMemoryConfigurationRepository() *MemoryConfigurationRepository {
	return &MemoryConfigurationRepository{configs: make(map[string]model.AppointmentConfiguration)}
}

func (r *MemoryConfigurationRepository) Create(ctx context.Context, cfg model.AppointmentConfiguration) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	cfg.Appointments = append([]model.AppointmentSlot(nil), cfg.Appointments...)
	r.configs[cfg.ID] = cfg
	return nil
}

func (r *MemoryConfigurationRepository) List(ctx context.Context) ([]model.AppointmentConfiguration, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]model.AppointmentConfiguration, 0, len(r.configs))
	for _, cfg := range r.configs {
		cfg.Appointments = append([]model.AppointmentSlot(nil), cfg.Appointments...)
		out = append(out, cfg)
	}
	return out, nil
}

func (r *MemoryConfigurationRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.configs, id)
	return nil
}

// MemoryRegistrationRepository is an in-process ledger for local runs and tests.
type MemoryRegistrationRepository struct {
	mu   sync.RWMutex
	regs []model.Registration
}

func NewMemoryRegistrationRepository() *MemoryRegistrationRepository {
	return &MemoryRegistrationRepository{}
}

func (r *MemoryRegistrationRepository) Create(ctx context.Context, reg *model.Registration) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.regs = append(r.regs, *reg)
	return nil
}

func (r *MemoryRegistrationRepository) List(ctx context.Context) ([]model.Registration, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return append([]model.Registration(nil), r.regs...), nil
}

func (r *MemoryRegistrationRepository) GetByID(ctx context.Context, id string) (*model.Registration, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for i := range r.regs {
		if r.regs[i].ID == id {
			reg := r.regs[i]
			return &reg, nil
		}
	}
	return nil, ErrNotFound
}
