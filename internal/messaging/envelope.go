package messaging

import (
	"encoding/json"
	"time"

	"github.com/htl-registration/appointment-intake/internal/model"
)

// RoutingKeyRegistrationCreated is published once per committed registration.
const RoutingKeyRegistrationCreated = "registration.created"

// RegistrationCreated is the body of a registration.created event.
// Applicant contact details stay out of the event; consumers fetch the
// registration by id.
type RegistrationCreated struct {
	ID          string           `json:"id"`
	Department  model.Department `json:"department"`
	Appointment string           `json:"appointment"`
	WaitingList bool             `json:"waitingList"`
	OccurredAt  time.Time        `json:"occurredAt"`
}

// NewRegistrationCreated builds the event body for reg.
func NewRegistrationCreated(reg *model.Registration) ([]byte, error) {
	return json.Marshal(RegistrationCreated{
		ID:          reg.ID,
		Department:  reg.Department,
		Appointment: reg.Appointment,
		WaitingList: reg.OnWaitingList(),
		OccurredAt:  reg.CreatedAt.UTC(),
	})
}
