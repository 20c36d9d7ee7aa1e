// Package importer reads appointment configuration files.
package importer

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/htl-registration/appointment-intake/internal/model"
	"github.com/htl-registration/appointment-intake/internal/workday"
)

// Parse decodes a configuration document and validates every slot.
// All problems are returned together.
func Parse(r io.Reader) (model.AppointmentConfiguration, error) {
	var cfg model.AppointmentConfiguration

	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&cfg); err != nil {
		return model.AppointmentConfiguration{}, fmt.Errorf("decode configuration: %w", err)
	}
	cfg.ID = ""

	if err := Validate(cfg); err != nil {
		return model.AppointmentConfiguration{}, err
	}
	return cfg, nil
}

// ParseFile opens path and parses it.
func ParseFile(path string) (model.AppointmentConfiguration, error) {
	f, err := os.Open(path)
	if err != nil {
		return model.AppointmentConfiguration{}, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	return Parse(f)
}

// Validate checks the document shape.
func Validate(cfg model.AppointmentConfiguration) error {
	var errs []error

	if cfg.RateGirls < 0 || cfg.RateGirls > 1 {
		errs = append(errs, fmt.Errorf("rateGirls %v: must be between 0 and 1", cfg.RateGirls))
	}
	if len(cfg.Appointments) == 0 {
		errs = append(errs, errors.New("appointments: at least one slot required"))
	}

	seen := make(map[string]bool, len(cfg.Appointments))
	for i, a := range cfg.Appointments {
		if !a.Department.Valid() {
			errs = append(errs, fmt.Errorf("appointments[%d]: unknown department %q", i, a.Department))
		}
		if _, err := workday.Parse(a.ISODate); err != nil {
			errs = append(errs, fmt.Errorf("appointments[%d]: %w", i, err))
		}
		if a.MaxAttendees < 0 {
			errs = append(errs, fmt.Errorf("appointments[%d]: maxAttendees must not be negative", i))
		}

		key := string(a.Department) + "|" + a.ISODate
		if seen[key] {
			errs = append(errs, fmt.Errorf("appointments[%d]: duplicate slot %s %s", i, a.Department, a.ISODate))
		}
		seen[key] = true
	}

	return errors.Join(errs...)
}
