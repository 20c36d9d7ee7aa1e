package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/htl-registration/appointment-intake/internal/config"
	"github.com/htl-registration/appointment-intake/internal/model"
	"github.com/htl-registration/appointment-intake/internal/repository"
	"github.com/htl-registration/appointment-intake/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleConfig = `{
  "appointments": [
    {"department": "informatik", "isoDate": "2024-03-04", "maxAttendees": 2},
    {"department": "medientechnik", "isoDate": "2024-03-05", "maxAttendees": 1}
  ],
  "rateGirls": 0.4
}`

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "appointments.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestRunImport(t *testing.T) {
	ctx := context.Background()
	appointments := service.NewAppointmentService(repository.NewMemoryConfigurationRepository())

	var out bytes.Buffer
	require.NoError(t, runImport(ctx, appointments, writeFile(t, sampleConfig), &out))
	assert.Contains(t, out.String(), "2 appointments, total capacity 3")

	cfg, err := appointments.CurrentConfiguration(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0.4, cfg.RateGirls)
}

func TestRunImport_InvalidFileLeavesStoreUntouched(t *testing.T) {
	ctx := context.Background()
	appointments := service.NewAppointmentService(repository.NewMemoryConfigurationRepository())

	err := runImport(ctx, appointments, writeFile(t, `{"appointments": [], "rateGirls": 2}`), &bytes.Buffer{})
	require.Error(t, err)

	_, err = appointments.CurrentConfiguration(ctx)
	assert.ErrorIs(t, err, service.ErrConfigurationMissing)
}

func TestRunExport_SortedCSV(t *testing.T) {
	ctx := context.Background()
	ledger := repository.NewMemoryRegistrationRepository()
	now := time.Date(2024, 2, 1, 9, 0, 0, 0, time.UTC)
	for _, r := range []model.Registration{
		{ID: "c", Department: model.DepartmentMedientechnik, Appointment: "2024-03-05"},
		{ID: "b", Department: model.DepartmentInformatik, Appointment: model.WaitingList},
		{ID: "a", Department: model.DepartmentInformatik, Appointment: "2024-03-04"},
	} {
		r.CreatedAt = now
		require.NoError(t, ledger.Create(ctx, &r))
	}

	appointments := service.NewAppointmentService(repository.NewMemoryConfigurationRepository())
	registrations := service.NewRegistrationService(appointments, ledger)

	var out bytes.Buffer
	require.NoError(t, runExport(ctx, registrations, &out))

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 4)
	assert.True(t, strings.HasPrefix(lines[1], "a;informatik;2024-03-04;"))
	assert.True(t, strings.HasPrefix(lines[2], "b;informatik;waiting-list;"))
	assert.True(t, strings.HasPrefix(lines[3], "c;medientechnik;2024-03-05;"))
}

func TestRequirePersistent(t *testing.T) {
	assert.Error(t, requirePersistent(&config.Config{StoreDriver: config.StoreDriverMemory}, "export"))
	assert.NoError(t, requirePersistent(&config.Config{StoreDriver: config.StoreDriverPostgres}, "export"))
}

func TestAppointmentOptions_VisibilityFilter(t *testing.T) {
	assert.Len(t, appointmentOptions(&config.Config{}), 1)
	assert.Len(t, appointmentOptions(&config.Config{VisibilityFilter: true, VisibilityOffset: -2}), 2)
}

func TestImportRequiresPath(t *testing.T) {
	flag := importCmd.Flags().Lookup("path")
	require.NotNil(t, flag)
	assert.Equal(t, "p", flag.Shorthand)
}
