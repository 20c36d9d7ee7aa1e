// Package model defines the core domain types for appointment registration.
package model

import "time"

// WaitingList is the appointment value meaning "no specific slot, queue instead".
const WaitingList = "waiting-list"

// Department identifies which programme an appointment slot belongs to.
type Department string

const (
	DepartmentInformatik    Department = "informatik"
	DepartmentMedientechnik Department = "medientechnik"
)

// Departments lists every known department in display order.
var Departments = []Department{DepartmentInformatik, DepartmentMedientechnik}

// Valid reports whether d is a known department.
func (d Department) Valid() bool {
	for _, known := range Departments {
		if d == known {
			return true
		}
	}
	return false
}

// GenderMale is the gender value counted against the girls quota.
const GenderMale = "male"

// AppointmentSlot is a single schedulable appointment with a capacity ceiling.
type AppointmentSlot struct {
	Department   Department `json:"department"`
	ISODate      string     `json:"isoDate"`
	MaxAttendees int        `json:"maxAttendees"`
}

// AppointmentConfiguration is the complete set of published slots plus the
// share of total capacity reserved for girls.
type AppointmentConfiguration struct {
	ID           string            `json:"id,omitempty"`
	Appointments []AppointmentSlot `json:"appointments"`
	RateGirls    float64           `json:"rateGirls"`
}

// TotalCapacity sums maxAttendees over every slot of every department.
func (c *AppointmentConfiguration) TotalCapacity() int {
	total := 0
	for _, a := range c.Appointments {
		total += a.MaxAttendees
	}
	return total
}

// Registration is one applicant's committed booking or waiting-list entry.
type Registration struct {
	ID            string     `json:"id"`
	FirstName     string     `json:"first_name"`
	LastName      string     `json:"last_name"`
	Gender        string     `json:"gender"`
	Email         string     `json:"email"`
	PhoneNumber   string     `json:"phone_number"`
	Residence     string     `json:"residence"`
	CurrentSchool string     `json:"current_school"`
	CurrentClass  string     `json:"current_class"`
	Department    Department `json:"department"`
	Appointment   string     `json:"appointment"`
	CreatedAt     time.Time  `json:"created_at"`
}

// OnWaitingList reports whether the registration holds no specific slot.
func (r *Registration) OnWaitingList() bool {
	return r.Appointment == WaitingList
}

// RegisterRequest is the applicant form submitted for a booking.
type RegisterRequest struct {
	FirstName     string `json:"first_name" validate:"required"`
	LastName      string `json:"last_name" validate:"required"`
	Gender        string `json:"gender" validate:"required,oneof=male female diverse"`
	Email         string `json:"email" validate:"required,email"`
	PhoneNumber   string `json:"phone_number" validate:"required"`
	Residence     string `json:"residence" validate:"required"`
	CurrentSchool string `json:"current_school" validate:"required"`
	CurrentClass  string `json:"current_class" validate:"required"`
	Department    string `json:"department" validate:"required,department"`
	Appointment   string `json:"appointment" validate:"required"`
}

// AppointmentCount is the number of registrations holding one appointment value.
type AppointmentCount struct {
	ISODate               string `json:"isoDate"`
	NumberOfRegistrations int    `json:"numberOfRegistrations"`
}

// RegistrationStatistics summarises the ledger as seen by one department.
type RegistrationStatistics struct {
	TotalRegistrations int                `json:"totalRegistrations"`
	RegistrationsMale  int                `json:"registrationsMale"`
	Appointments       []AppointmentCount `json:"appointments"`
	WaitingList        int                `json:"waitingList"`
}

// Count returns the registrations recorded for isoDate, or zero.
func (s *RegistrationStatistics) Count(isoDate string) int {
	for _, a := range s.Appointments {
		if a.ISODate == isoDate {
			return a.NumberOfRegistrations
		}
	}
	return 0
}

// Offer is the set of slots an applicant may currently choose.
type Offer struct {
	Department   Department        `json:"department"`
	Appointments []AppointmentSlot `json:"appointments"`
	Full         bool              `json:"full"`
}

// Contains reports whether isoDate is one of the offered slots.
func (o *Offer) Contains(isoDate string) bool {
	for _, a := range o.Appointments {
		if a.ISODate == isoDate {
			return true
		}
	}
	return false
}

// ErrorResponse is a standard JSON error envelope.
type ErrorResponse struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
	Offer  *Offer            `json:"offer,omitempty"`
}
