// Package export renders the registration ledger as semicolon-separated CSV.
package export

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/htl-registration/appointment-intake/internal/model"
)

var header = []string{
	"id", "department", "appointment", "first_name", "last_name", "gender",
	"email", "phone_number", "residence", "current_school", "current_class",
}

// WriteCSV writes one row per registration in the given order.
func WriteCSV(w io.Writer, regs []model.Registration) error {
	cw := csv.NewWriter(w)
	cw.Comma = ';'

	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, r := range regs {
		row := []string{
			r.ID, string(r.Department), r.Appointment, r.FirstName, r.LastName, r.Gender,
			r.Email, r.PhoneNumber, r.Residence, r.CurrentSchool, r.CurrentClass,
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write registration %s: %w", r.ID, err)
		}
	}

	cw.Flush()
	return cw.Error()
}
