package repository

import (
	"context"
	"testing"

	"github.com/htl-registration/appointment-intake/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryConfigurationRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryConfigurationRepository()

	slots := []model.AppointmentSlot{{Department: model.DepartmentInformatik, ISODate: "2024-03-04", MaxAttendees: 2}}
	require.NoError(t, repo.Create(ctx, model.AppointmentConfiguration{ID: "a", Appointments: slots, RateGirls: 0.5}))
	require.NoError(t, repo.Create(ctx, model.AppointmentConfiguration{ID: "b", RateGirls: 0.3}))

	// callers must not be able to mutate stored slots
	slots[0].MaxAttendees = 99

	all, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	require.NoError(t, repo.Delete(ctx, "b"))
	require.NoError(t, repo.Delete(ctx, "missing"))

	all, err = repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "a", all[0].ID)
	assert.Equal(t, 2, all[0].Appointments[0].MaxAttendees)
}

func TestMemoryRegistrationRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRegistrationRepository()

	require.NoError(t, repo.Create(ctx, &model.Registration{ID: "r1", Appointment: "2024-03-04"}))
	require.NoError(t, repo.Create(ctx, &model.Registration{ID: "r2", Appointment: model.WaitingList}))

	all, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	got, err := repo.GetByID(ctx, "r2")
	require.NoError(t, err)
	assert.True(t, got.OnWaitingList())

	_, err = repo.GetByID(ctx, "nope")
	assert.ErrorIs(t, err, ErrNotFound)
}
