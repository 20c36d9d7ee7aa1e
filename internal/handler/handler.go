// Package handler contains chi HTTP handlers that translate HTTP
// requests/responses to and from the service layer.
package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/htl-registration/appointment-intake/internal/allocation"
	"github.com/htl-registration/appointment-intake/internal/logger"
	"github.com/htl-registration/appointment-intake/internal/model"
	"github.com/htl-registration/appointment-intake/internal/repository"
	"github.com/htl-registration/appointment-intake/internal/service"
)

// RegistrationHandler holds all HTTP handlers for the registration API.
type RegistrationHandler struct {
	appointments  *service.AppointmentService
	registrations *service.RegistrationService
}

// NewRegistrationHandler constructs a RegistrationHandler.
func NewRegistrationHandler(appointments *service.AppointmentService, registrations *service.RegistrationService) *RegistrationHandler {
	return &RegistrationHandler{appointments: appointments, registrations: registrations}
}

// ─── Helper utilities ─────────────────────────────────────────────────────────

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, model.ErrorResponse{Error: msg})
}

// writeServiceError maps service and allocation errors onto HTTP statuses.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		verrs  service.ValidationErrors
		selErr *allocation.SelectionError
	)
	switch {
	case errors.As(err, &verrs):
		writeJSON(w, http.StatusUnprocessableEntity, model.ErrorResponse{Error: "invalid registration", Fields: verrs})
	case errors.As(err, &selErr):
		offer := selErr.Offer
		writeJSON(w, http.StatusConflict, model.ErrorResponse{Error: "appointment no longer available", Offer: &offer})
	case errors.Is(err, service.ErrConfigurationMissing):
		writeError(w, http.StatusNotFound, "no appointments found")
	case errors.Is(err, repository.ErrNotFound):
		writeError(w, http.StatusNotFound, "registration not found")
	case errors.Is(err, service.ErrStoreUnavailable):
		logger.Ctx(r.Context()).Error().Err(err).Msg("store unavailable")
		writeError(w, http.StatusServiceUnavailable, "service temporarily unavailable")
	default:
		logger.Ctx(r.Context()).Error().Err(err).Msg("request failed")
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func departmentParam(r *http.Request) (model.Department, bool) {
	d := model.Department(strings.ToLower(strings.TrimSpace(r.URL.Query().Get("department"))))
	return d, d.Valid()
}

// decodeRegistration accepts JSON bodies and classic HTML form posts.
func decodeRegistration(r *http.Request) (model.RegisterRequest, error) {
	var req model.RegisterRequest
	r.Body = http.MaxBytesReader(nil, r.Body, 1<<20) // 1 MB limit

	if render.GetRequestContentType(r) == render.ContentTypeForm {
		if err := r.ParseForm(); err != nil {
			return req, err
		}
		req = model.RegisterRequest{
			FirstName:     r.PostForm.Get("first_name"),
			LastName:      r.PostForm.Get("last_name"),
			Gender:        r.PostForm.Get("gender"),
			Email:         r.PostForm.Get("email"),
			PhoneNumber:   r.PostForm.Get("phone_number"),
			Residence:     r.PostForm.Get("residence"),
			CurrentSchool: r.PostForm.Get("current_school"),
			CurrentClass:  r.PostForm.Get("current_class"),
			Department:    r.PostForm.Get("department"),
			Appointment:   r.PostForm.Get("appointment"),
		}
		return req, nil
	}

	err := render.DecodeJSON(r.Body, &req)
	return req, err
}

// ─── Handlers ─────────────────────────────────────────────────────────────────

// GetConfiguration handles GET /configuration
// Returns the current appointment configuration.
func (h *RegistrationHandler) GetConfiguration(w http.ResponseWriter, r *http.Request) {
	cfg, err := h.appointments.CurrentConfiguration(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, cfg)
}

// GetOffer handles GET /appointments?department=&gender=
// Returns the appointments the applicant may currently choose.
func (h *RegistrationHandler) GetOffer(w http.ResponseWriter, r *http.Request) {
	dept, ok := departmentParam(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "unknown department")
		return
	}
	gender := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("gender")))

	offer, err := h.registrations.Offer(r.Context(), dept, gender)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, offer)
}

// GetStatistics handles GET /statistics?department=
// Returns registration counts as seen by one department.
func (h *RegistrationHandler) GetStatistics(w http.ResponseWriter, r *http.Request) {
	dept, ok := departmentParam(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "unknown department")
		return
	}

	stats, err := h.registrations.Statistics(r.Context(), dept)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// Register handles POST /registrations
// Books the chosen appointment or a waiting-list place.
func (h *RegistrationHandler) Register(w http.ResponseWriter, r *http.Request) {
	req, err := decodeRegistration(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	reg, err := h.registrations.Register(r.Context(), req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	w.Header().Set("Location", "/registrations/"+reg.ID)
	writeJSON(w, http.StatusCreated, reg)
}

// GetRegistration handles GET /registrations/{id}
// Returns a single registration, e.g. for a confirmation page.
func (h *RegistrationHandler) GetRegistration(w http.ResponseWriter, r *http.Request) {
	reg, err := h.registrations.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, reg)
}

// ─── Health check ─────────────────────────────────────────────────────────────

// HealthCheck handles GET /health
func HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
