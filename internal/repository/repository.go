// Package repository implements persistence for appointment configurations
// and the registration ledger. It uses pgx directly (no ORM).
package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/htl-registration/appointment-intake/internal/model"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound is returned when a requested resource does not exist.
var ErrNotFound = errors.New("not found")

// configurationDocument is the JSONB shape of a stored configuration.
type configurationDocument struct {
	Appointments []model.AppointmentSlot `json:"appointments"`
	RateGirls    float64                 `json:"rateGirls"`
}

// ConfigurationRepository stores configuration documents.
// It offers plain create/list/delete; keeping a single current document is
// the caller's job.
type ConfigurationRepository struct {
	db *pgxpool.Pool
}

// NewConfigurationRepository constructs a ConfigurationRepository.
func NewConfigurationRepository(db *pgxpool.Pool) *ConfigurationRepository {
	return &ConfigurationRepository{db: db}
}

// Create inserts cfg under cfg.ID.
func (r *ConfigurationRepository) Create(ctx context.Context, cfg model.AppointmentConfiguration) error {
	doc, err := json.Marshal(configurationDocument{Appointments: cfg.Appointments, RateGirls: cfg.RateGirls})
	if err != nil {
		return fmt.Errorf("encode configuration: %w", err)
	}

	_, err = r.db.Exec(ctx,
		`INSERT INTO appointment_configurations (id, document) VALUES ($1, $2)`,
		cfg.ID, doc,
	)
	if err != nil {
		return fmt.Errorf("insert configuration: %w", err)
	}
	return nil
}

// List returns every stored configuration in no particular order.
func (r *ConfigurationRepository) List(ctx context.Context) ([]model.AppointmentConfiguration, error) {
	rows, err := r.db.Query(ctx, `SELECT id, document FROM appointment_configurations`)
	if err != nil {
		return nil, fmt.Errorf("list configurations: %w", err)
	}
	defer rows.Close()

	var configs []model.AppointmentConfiguration
	for rows.Next() {
		var (
			id  uuid.UUID
			raw []byte
			doc configurationDocument
		)
		if err := rows.Scan(&id, &raw); err != nil {
			return nil, fmt.Errorf("scan configuration: %w", err)
		}
		if err := json.Unmarshal(raw, &doc); err != nil {
			return nil, fmt.Errorf("decode configuration %s: %w", id, err)
		}
		configs = append(configs, model.AppointmentConfiguration{
			ID:           id.String(),
			Appointments: doc.Appointments,
			RateGirls:    doc.RateGirls,
		})
	}
	return configs, rows.Err()
}

// Delete removes the configuration with the given id. Deleting a missing id
// is not an error.
func (r *ConfigurationRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.Exec(ctx, `DELETE FROM appointment_configurations WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete configuration %s: %w", id, err)
	}
	return nil
}

// RegistrationRepository is the append-only registration ledger.
type RegistrationRepository struct {
	db *pgxpool.Pool
}

// NewRegistrationRepository constructs a RegistrationRepository.
func NewRegistrationRepository(db *pgxpool.Pool) *RegistrationRepository {
	return &RegistrationRepository{db: db}
}

const registrationColumns = `id, first_name, last_name, gender, email, phone_number, residence,
	current_school, current_class, department, appointment, created_at`

// Create appends reg to the ledger.
func (r *RegistrationRepository) Create(ctx context.Context, reg *model.Registration) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO registrations (`+registrationColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		reg.ID, reg.FirstName, reg.LastName, reg.Gender, reg.Email, reg.PhoneNumber, reg.Residence,
		reg.CurrentSchool, reg.CurrentClass, string(reg.Department), reg.Appointment, reg.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert registration: %w", err)
	}
	return nil
}

// List returns the whole ledger, waiting-list entries included.
func (r *RegistrationRepository) List(ctx context.Context) ([]model.Registration, error) {
	rows, err := r.db.Query(ctx, `SELECT `+registrationColumns+` FROM registrations`)
	if err != nil {
		return nil, fmt.Errorf("list registrations: %w", err)
	}
	defer rows.Close()

	var regs []model.Registration
	for rows.Next() {
		reg, err := scanRegistration(rows)
		if err != nil {
			return nil, err
		}
		regs = append(regs, *reg)
	}
	return regs, rows.Err()
}

// GetByID returns a single registration or ErrNotFound.
func (r *RegistrationRepository) GetByID(ctx context.Context, id string) (*model.Registration, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrNotFound
	}

	row := r.db.QueryRow(ctx, `SELECT `+registrationColumns+` FROM registrations WHERE id = $1`, id)
	reg, err := scanRegistration(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return reg, nil
}

func scanRegistration(row pgx.Row) (*model.Registration, error) {
	var (
		reg  model.Registration
		id   uuid.UUID
		dept string
	)
	err := row.Scan(&id, &reg.FirstName, &reg.LastName, &reg.Gender, &reg.Email, &reg.PhoneNumber,
		&reg.Residence, &reg.CurrentSchool, &reg.CurrentClass, &dept, &reg.Appointment, &reg.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("scan registration: %w", err)
	}
	reg.ID = id.String()
	reg.Department = model.Department(dept)
	return &reg, nil
}
