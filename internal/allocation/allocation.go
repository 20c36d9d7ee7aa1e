// Package allocation turns a configuration and a registration ledger into
// the set of appointments an applicant may book, and decides whether a
// chosen appointment can be committed.
//
// Everything here is pure: callers read the store, hand the snapshot in,
// and write the outcome back. Nothing guards the gap between reading and
// writing, so two decisions taken against the same snapshot can both accept
// the last free seat of a slot.
package allocation

import (
	"errors"
	"fmt"

	"github.com/htl-registration/appointment-intake/internal/model"
)

// ErrInvalidSelection is returned when the chosen appointment is not offered.
var ErrInvalidSelection = errors.New("invalid appointment selection")

// SelectionError carries the offer the rejected choice was checked against
// so the caller can present it again.
type SelectionError struct {
	Choice string
	Offer  model.Offer
}

func (e *SelectionError) Error() string {
	if e.Offer.Full {
		return fmt.Sprintf("%s: %q (fully booked)", ErrInvalidSelection, e.Choice)
	}
	return fmt.Sprintf("%s: %q", ErrInvalidSelection, e.Choice)
}

func (e *SelectionError) Unwrap() error { return ErrInvalidSelection }

// Aggregate scans the ledger once.
//
// TotalRegistrations and RegistrationsMale span all departments and leave
// out waiting-list entries. Appointments holds, in first-seen order, the
// count per appointment value within dept; waiting-list entries of dept are
// counted in WaitingList instead.
func Aggregate(registrations []model.Registration, dept model.Department) model.RegistrationStatistics {
	stats := model.RegistrationStatistics{Appointments: []model.AppointmentCount{}}
	index := make(map[string]int)

	for i := range registrations {
		r := &registrations[i]
		if r.OnWaitingList() {
			if r.Department == dept {
				stats.WaitingList++
			}
			continue
		}

		stats.TotalRegistrations++
		if r.Gender == model.GenderMale {
			stats.RegistrationsMale++
		}
		if r.Department != dept {
			continue
		}

		pos, ok := index[r.Appointment]
		if !ok {
			pos = len(stats.Appointments)
			index[r.Appointment] = pos
			stats.Appointments = append(stats.Appointments, model.AppointmentCount{ISODate: r.Appointment})
		}
		stats.Appointments[pos].NumberOfRegistrations++
	}
	return stats
}

// MaleQuotaReached reports whether the male share of total configured
// capacity is exhausted. Both figures are global, not per department.
func MaleQuotaReached(cfg *model.AppointmentConfiguration, stats *model.RegistrationStatistics) bool {
	ceiling := float64(cfg.TotalCapacity()) * (1 - cfg.RateGirls)
	return float64(stats.RegistrationsMale) >= ceiling
}

// Eligible returns the slots of dept that still have room, and marks the
// offer full when none remain or a male applicant hits the quota.
// The waiting list is never part of the returned slots.
func Eligible(cfg *model.AppointmentConfiguration, stats *model.RegistrationStatistics, dept model.Department, gender string) model.Offer {
	offer := model.Offer{Department: dept, Appointments: []model.AppointmentSlot{}}

	for _, slot := range cfg.Appointments {
		if slot.Department != dept {
			continue
		}
		if stats.Count(slot.ISODate) >= slot.MaxAttendees {
			continue
		}
		offer.Appointments = append(offer.Appointments, slot)
	}

	offer.Full = len(offer.Appointments) == 0 ||
		(gender == model.GenderMale && MaleQuotaReached(cfg, stats))
	return offer
}

// Decide accepts the waiting list unconditionally and any other choice only
// when the offer is not full and contains it.
func Decide(choice string, offer model.Offer) error {
	if choice == model.WaitingList {
		return nil
	}
	if !offer.Full && offer.Contains(choice) {
		return nil
	}
	return &SelectionError{Choice: choice, Offer: offer}
}
