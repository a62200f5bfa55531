package main

import (
	"context"
	"errors"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/hackgods/clinic-operations/internal/appointment"
	"github.com/hackgods/clinic-operations/internal/clinic"
	"github.com/hackgods/clinic-operations/internal/config"
	"github.com/hackgods/clinic-operations/internal/db"
	"github.com/hackgods/clinic-operations/internal/logging"
	redisclient "github.com/hackgods/clinic-operations/internal/redis"
	"github.com/hackgods/clinic-operations/internal/visit"
)

const (
	patientCount     = 2000
	visitCount       = 25
	appointmentDays  = 14
	appointmentCount = 80
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		boot := logging.New("", "info")
		boot.Fatal().Err(err).Msg("config load error")
	}
	logger := logging.New(cfg.Env, cfg.LogLevel)
	logger.Info().Msg("seed starting")

	if cfg.StorageDriver != config.StoragePostgres {
		logger.Fatal().Str("storage", cfg.StorageDriver).Msg("seed needs STORAGE_DRIVER=postgres")
	}

	calendar, err := clinic.LoadCalendar(cfg.ClinicTimezone)
	if err != nil {
		logger.Fatal().Err(err).Msg("clinic calendar error")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	pool, err := db.ConnectPostgres(ctx, cfg.PostgresDSN)
	if err != nil {
		logger.Fatal().Err(err).Msg("connect postgres")
	}
	defer pool.Close()

	if _, err := db.Migrate(ctx, pool); err != nil {
		logger.Fatal().Err(err).Msg("migrate")
	}

	names, err := seedPatients(ctx, pool, patientCount, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("seed patients")
	}

	visits := visit.NewService(visit.NewPgRepository(pool), calendar, nil, logger)
	if err := seedVisits(ctx, visits, names, visitCount, logger); err != nil {
		logger.Fatal().Err(err).Msg("seed visits")
	}

	appts := appointment.NewService(appointment.NewPgRepository(pool), redisclient.NopLocker(), calendar, nil, logger)
	if err := seedAppointments(ctx, appts, calendar.Today(), logger); err != nil {
		logger.Fatal().Err(err).Msg("seed appointments")
	}

	logger.Info().Msg("seed complete")
}

func seedPatients(ctx context.Context, pool *pgxpool.Pool, count int, logger zerolog.Logger) ([]visit.PatientName, error) {
	logger.Info().Int("count", count).Msg("seeding patients")

	const batchSize = 500
	names := make([]visit.PatientName, 0, count)

	for offset := 0; offset < count; offset += batchSize {
		end := offset + batchSize
		if end > count {
			end = count
		}

		tx, err := pool.Begin(ctx)
		if err != nil {
			return nil, err
		}

		for i := offset; i < end; i++ {
			name := visit.PatientName{Nom: gofakeit.LastName(), Prenom: gofakeit.FirstName()}

			_, err := tx.Exec(ctx, `
				INSERT INTO patients (id, nom, prenom, created_at)
				VALUES ($1, $2, $3, now())
			`, uuid.New(), name.Nom, name.Prenom)
			if err != nil {
				_ = tx.Rollback(ctx)
				return nil, err
			}
			names = append(names, name)
		}

		if err := tx.Commit(ctx); err != nil {
			return nil, err
		}

		logger.Info().Int("done", end).Int("total", count).Msg("patients seeded")
	}

	return names, nil
}

func seedVisits(ctx context.Context, svc *visit.Service, names []visit.PatientName, count int, logger zerolog.Logger) error {
	logger.Info().Int("count", count).Msg("seeding today's visits")

	motifs := visit.Motifs()
	for i := 0; i < count; i++ {
		name := names[gofakeit.Number(0, len(names)-1)]
		motif := motifs[gofakeit.Number(0, len(motifs)-1)]

		if _, err := svc.CheckIn(ctx, visit.CheckIn{Name: name, Motif: string(motif)}); err != nil {
			return err
		}
	}
	return nil
}

func seedAppointments(ctx context.Context, svc *appointment.Service, today clinic.Date, logger zerolog.Logger) error {
	logger.Info().Int("count", appointmentCount).Int("days", appointmentDays).Msg("seeding appointments")

	slots := appointment.Slots()
	booked, taken := 0, 0
	for i := 0; i < appointmentCount; i++ {
		day := today.AddDays(gofakeit.Number(0, appointmentDays-1))
		slot := slots[gofakeit.Number(0, len(slots)-1)]

		_, err := svc.Book(ctx, day, string(slot), gofakeit.Sentence(4))
		switch {
		case err == nil:
			booked++
		case errors.Is(err, clinic.ErrSlotConflict):
			taken++
		default:
			return err
		}
	}

	logger.Info().Int("booked", booked).Int("already_taken", taken).Msg("appointments seeded")
	return nil
}
