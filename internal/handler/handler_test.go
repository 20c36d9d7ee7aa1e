package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/htl-registration/appointment-intake/internal/model"
	"github.com/htl-registration/appointment-intake/internal/repository"
	"github.com/htl-registration/appointment-intake/internal/service"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testServer struct {
	http.Handler
	appointments *service.AppointmentService
}

func newTestServer(t *testing.T, limiter RateLimiter) *testServer {
	t.Helper()
	appointments := service.NewAppointmentService(repository.NewMemoryConfigurationRepository())
	registrations := service.NewRegistrationService(appointments, repository.NewMemoryRegistrationRepository())
	return &testServer{
		Handler: NewRouter(RouterDeps{
			Handler: NewRegistrationHandler(appointments, registrations),
			Limiter: limiter,
		}),
		appointments: appointments,
	}
}

func (s *testServer) seed(t *testing.T) {
	t.Helper()
	_, err := s.appointments.ReplaceConfiguration(context.Background(), model.AppointmentConfiguration{
		Appointments: []model.AppointmentSlot{
			{Department: model.DepartmentInformatik, ISODate: "2024-03-04", MaxAttendees: 1},
			{Department: model.DepartmentInformatik, ISODate: "2024-03-05", MaxAttendees: 1},
			{Department: model.DepartmentMedientechnik, ISODate: "2024-03-04", MaxAttendees: 2},
		},
		RateGirls: 0.5,
	})
	require.NoError(t, err)
}

func (s *testServer) do(t *testing.T, method, target string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	return rec
}

func registerBody(appointment string) map[string]string {
	return map[string]string{
		"first_name":     "Jonas",
		"last_name":      "Mayr",
		"gender":         "female",
		"email":          "jonas.mayr@example.org",
		"phone_number":   "0650 1112223",
		"residence":      "Traun",
		"current_school": "MS Traun",
		"current_class":  "4c",
		"department":     "informatik",
		"appointment":    appointment,
	}
}

func TestHealthCheck(t *testing.T) {
	s := newTestServer(t, nil)

	rec := s.do(t, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-Request-Id"))
}

func TestGetConfiguration_Missing(t *testing.T) {
	s := newTestServer(t, nil)

	rec := s.do(t, http.MethodGet, "/configuration", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "no appointments found")
}

func TestGetConfiguration(t *testing.T) {
	s := newTestServer(t, nil)
	s.seed(t)

	rec := s.do(t, http.MethodGet, "/configuration", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var cfg model.AppointmentConfiguration
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &cfg))
	assert.Len(t, cfg.Appointments, 3)
	assert.NotEmpty(t, cfg.ID)
}

func TestGetOffer(t *testing.T) {
	s := newTestServer(t, nil)
	s.seed(t)

	rec := s.do(t, http.MethodGet, "/appointments?department=informatik&gender=female", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var offer model.Offer
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &offer))
	assert.False(t, offer.Full)
	assert.Len(t, offer.Appointments, 2)

	rec = s.do(t, http.MethodGet, "/appointments?department=physik", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRegister_CreatedThenConflict(t *testing.T) {
	s := newTestServer(t, nil)
	s.seed(t)

	rec := s.do(t, http.MethodPost, "/registrations", registerBody("2024-03-04"))
	require.Equal(t, http.StatusCreated, rec.Code)

	var reg model.Registration
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &reg))
	assert.Equal(t, "/registrations/"+reg.ID, rec.Header().Get("Location"))

	rec = s.do(t, http.MethodGet, "/registrations/"+reg.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "jonas.mayr@example.org")

	rec = s.do(t, http.MethodPost, "/registrations", registerBody("2024-03-04"))
	require.Equal(t, http.StatusConflict, rec.Code)

	var body model.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.NotNil(t, body.Offer)
	assert.False(t, body.Offer.Contains("2024-03-04"))
	assert.True(t, body.Offer.Contains("2024-03-05"))
}

func TestRegister_ValidationErrors(t *testing.T) {
	s := newTestServer(t, nil)
	s.seed(t)

	body := registerBody("2024-03-04")
	delete(body, "email")
	body["current_class"] = ""

	rec := s.do(t, http.MethodPost, "/registrations", body)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	var resp model.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, map[string]string{
		"email":         "is required",
		"current_class": "is required",
	}, resp.Fields)
}

func TestRegister_FormPost(t *testing.T) {
	s := newTestServer(t, nil)
	s.seed(t)

	form := url.Values{}
	for k, v := range registerBody(model.WaitingList) {
		form.Set(k, v)
	}
	req := httptest.NewRequest(http.MethodPost, "/registrations", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Contains(t, rec.Body.String(), `"appointment":"waiting-list"`)
}

func TestRegister_MalformedBody(t *testing.T) {
	s := newTestServer(t, nil)

	req := httptest.NewRequest(http.MethodPost, "/registrations", strings.NewReader("{"))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetRegistration_NotFound(t *testing.T) {
	s := newTestServer(t, nil)

	rec := s.do(t, http.MethodGet, "/registrations/does-not-exist", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetStatistics(t *testing.T) {
	s := newTestServer(t, nil)
	s.seed(t)

	require.Equal(t, http.StatusCreated, s.do(t, http.MethodPost, "/registrations", registerBody("2024-03-05")).Code)

	rec := s.do(t, http.MethodGet, "/statistics?department=informatik", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var stats model.RegistrationStatistics
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stats))
	assert.Equal(t, 1, stats.TotalRegistrations)
	assert.Equal(t, 1, stats.Count("2024-03-05"))
}

func TestRegister_RateLimited(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	s := newTestServer(t, NewRedisLimiter(client, 2, time.Minute))
	s.seed(t)

	for i := 0; i < 2; i++ {
		rec := s.do(t, http.MethodPost, "/registrations", registerBody(model.WaitingList))
		require.Equal(t, http.StatusCreated, rec.Code)
	}

	rec := s.do(t, http.MethodPost, "/registrations", registerBody(model.WaitingList))
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "60", rec.Header().Get("Retry-After"))

	// reads are not limited
	assert.Equal(t, http.StatusOK, s.do(t, http.MethodGet, "/configuration", nil).Code)

	mr.FastForward(2 * time.Minute)
	rec = s.do(t, http.MethodPost, "/registrations", registerBody(model.WaitingList))
	assert.Equal(t, http.StatusCreated, rec.Code)
}

func TestCORS_Preflight(t *testing.T) {
	s := newTestServer(t, nil)

	rec := s.do(t, http.MethodOptions, "/registrations", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}
