package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/clinova/clinova/internal/domain/examination"
	"github.com/clinova/clinova/internal/domain/identity"
	"github.com/clinova/clinova/internal/domain/scheduling"
	"github.com/clinova/clinova/internal/platform/db"
)

const (
	seedDoctors  = 8
	seedPatients = 40
)

// runSeed populates demo identities, the examination catalog, and two weeks
// of working schedules inside a single transaction. Safe to run against an
// empty database only.
func runSeed(ctx context.Context, pool *pgxpool.Pool, logger zerolog.Logger) error {
	return db.WithTx(ctx, pool, func(ctx context.Context) error {
		return seedAll(ctx, pool, logger)
	})
}

func seedAll(ctx context.Context, pool *pgxpool.Pool, logger zerolog.Logger) error {
	faker := gofakeit.New(0)
	strPtr := func(s string) *string { return &s }

	patientRepo := identity.NewPatientRepoPG(pool)
	doctorRepo := identity.NewDoctorRepoPG(pool)
	examRepo := examination.NewRepoPG(pool)
	scheduleRepo := scheduling.NewScheduleRepoPG(pool)

	doctors := make([]*identity.Doctor, 0, seedDoctors)
	for i := 0; i < seedDoctors; i++ {
		d := &identity.Doctor{
			FirstName: faker.FirstName(),
			LastName:  faker.LastName(),
			Email:     faker.Email(),
			Specialty: strPtr(faker.RandomString([]string{"general", "cardiology", "dermatology", "pediatrics"})),
		}
		if err := doctorRepo.Create(ctx, d); err != nil {
			return fmt.Errorf("seed doctor: %w", err)
		}
		doctors = append(doctors, d)
	}

	for i := 0; i < seedPatients; i++ {
		p := &identity.Patient{
			FirstName: faker.FirstName(),
			LastName:  faker.LastName(),
			Email:     faker.Email(),
			Phone:     strPtr(faker.Phone()),
		}
		if err := patientRepo.Create(ctx, p); err != nil {
			return fmt.Errorf("seed patient: %w", err)
		}
	}

	exams := []*examination.MedicalExamination{
		{Code: examination.OnlineConsultationCode, Name: "Online Consultation", Online: true, DurationMinutes: 20, PriceCents: 4500},
		{Code: "general-checkup", Name: "General Checkup", DurationMinutes: 30, PriceCents: 6000},
		{Code: "ecg", Name: "Electrocardiogram", DurationMinutes: 45, PriceCents: 12000},
		{Code: "blood-panel", Name: "Blood Panel", DurationMinutes: 15, PriceCents: 8000},
	}
	for _, e := range exams {
		if err := examRepo.Create(ctx, e); err != nil {
			return fmt.Errorf("seed examination %s: %w", e.Code, err)
		}
	}

	// Weekday 9-17 shifts for the coming two weeks.
	start := time.Now().UTC().Truncate(24 * time.Hour).Add(24 * time.Hour)
	var scheduleCount int
	for day := 0; day < 14; day++ {
		date := start.Add(time.Duration(day) * 24 * time.Hour)
		if wd := date.Weekday(); wd == time.Saturday || wd == time.Sunday {
			continue
		}
		for _, d := range doctors {
			iv, err := scheduling.NewTimeInterval(date.Add(9*time.Hour), date.Add(17*time.Hour))
			if err != nil {
				return err
			}
			if err := scheduleRepo.Create(ctx, &scheduling.Schedule{DoctorID: d.ID, Interval: iv}); err != nil {
				return fmt.Errorf("seed schedule: %w", err)
			}
			scheduleCount++
		}
	}

	names := make([]string, 0, len(doctors))
	for _, d := range doctors {
		names = append(names, d.LastName)
	}
	logger.Info().
		Int("doctors", len(doctors)).
		Int("patients", seedPatients).
		Int("examinations", len(exams)).
		Int("schedules", scheduleCount).
		Str("doctor_names", strings.Join(names, ", ")).
		Msg("seeded demo data")
	return nil
}
