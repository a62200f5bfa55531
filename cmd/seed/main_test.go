package main

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hackgods/clinic-operations/internal/appointment"
	"github.com/hackgods/clinic-operations/internal/clinic"
	redisclient "github.com/hackgods/clinic-operations/internal/redis"
	"github.com/hackgods/clinic-operations/internal/visit"
)

func TestSeedVisits(t *testing.T) {
	cal := clinic.NewCalendar(time.UTC, nil)
	svc := visit.NewService(visit.NewMemoryRepository(), cal, nil, zerolog.Nop())
	names := []visit.PatientName{
		{Nom: "Dupont", Prenom: "Jean"},
		{Nom: "Martin", Prenom: "Claire"},
	}

	require.NoError(t, seedVisits(context.Background(), svc, names, 10, zerolog.Nop()))

	all, err := svc.ListAll(context.Background())
	require.NoError(t, err)
	require.Len(t, all, 10)
	for _, v := range all {
		assert.Contains(t, names, v.Name)
		assert.Contains(t, visit.Motifs(), v.Motif)
	}
}

func TestSeedAppointments(t *testing.T) {
	cal := clinic.NewCalendar(time.UTC, nil)
	svc := appointment.NewService(appointment.NewMemoryRepository(), redisclient.NopLocker(), cal, nil, zerolog.Nop())
	ctx := context.Background()
	today := clinic.NewDate(2024, time.May, 1)

	require.NoError(t, seedAppointments(ctx, svc, today, zerolog.Nop()))

	booked := 0
	for i := 0; i < appointmentDays; i++ {
		appts, err := svc.ListByDay(ctx, today.AddDays(i))
		require.NoError(t, err)
		booked += len(appts)
	}
	assert.Positive(t, booked)
	assert.LessOrEqual(t, booked, appointmentCount)

	appts, err := svc.ListByDay(ctx, today.AddDays(appointmentDays))
	require.NoError(t, err)
	assert.Empty(t, appts)
}
