package integration

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/google/uuid"

	"github.com/clinova/clinova/internal/domain/examination"
	"github.com/clinova/clinova/internal/domain/identity"
	"github.com/clinova/clinova/internal/platform/db"
)

// testDB holds the shared database infrastructure for integration tests.
// Tests are gated on TEST_DATABASE_URL; without it the whole package skips.
type testDB struct {
	Pool *pgxpool.Pool
}

var globalDB *testDB

func TestMain(m *testing.M) {
	connStr := os.Getenv("TEST_DATABASE_URL")
	if connStr == "" {
		os.Exit(m.Run())
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, connStr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "connect test database: %v\n", err)
		os.Exit(1)
	}
	if err := pool.Ping(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "ping test database: %v\n", err)
		os.Exit(1)
	}

	migrator := db.NewMigrator(pool, findMigrationsDir())
	if _, err := migrator.Up(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "apply migrations: %v\n", err)
		os.Exit(1)
	}

	globalDB = &testDB{Pool: pool}
	code := m.Run()
	pool.Close()
	os.Exit(code)
}

func requireDB(t *testing.T) *testDB {
	t.Helper()
	if globalDB == nil {
		t.Skip("TEST_DATABASE_URL not set")
	}
	return globalDB
}

// findMigrationsDir locates the migrations directory relative to this file.
func findMigrationsDir() string {
	_, filename, _, _ := runtime.Caller(0)
	return filepath.Join(filepath.Dir(filename), "..", "..", "migrations")
}

// truncateAll resets the mutable tables between tests.
func truncateAll(t *testing.T, ctx context.Context) {
	t.Helper()
	_, err := globalDB.Pool.Exec(ctx, `
		TRUNCATE schedule_change_request, appointment_examination, appointment,
			schedule, medical_examination, doctor, patient CASCADE`)
	if err != nil {
		t.Fatalf("truncate: %v", err)
	}
}

func createTestDoctor(t *testing.T, ctx context.Context, lastName string) *identity.Doctor {
	t.Helper()
	repo := identity.NewDoctorRepoPG(globalDB.Pool)
	d := &identity.Doctor{
		FirstName: "Test",
		LastName:  lastName,
		Email:     fmt.Sprintf("%s.%d@clinic.test", lastName, time.Now().UnixNano()),
	}
	if err := repo.Create(ctx, d); err != nil {
		t.Fatalf("create test doctor: %v", err)
	}
	return d
}

func createTestPatient(t *testing.T, ctx context.Context, lastName string) *identity.Patient {
	t.Helper()
	repo := identity.NewPatientRepoPG(globalDB.Pool)
	p := &identity.Patient{
		FirstName: "Test",
		LastName:  lastName,
		Email:     fmt.Sprintf("%s.%d@patients.test", lastName, time.Now().UnixNano()),
	}
	if err := repo.Create(ctx, p); err != nil {
		t.Fatalf("create test patient: %v", err)
	}
	return p
}

// seedExaminations creates n catalog rows and returns their ids in creation
// order.
func seedExaminations(t *testing.T, ctx context.Context, n int) []uuid.UUID {
	t.Helper()
	repo := examination.NewRepoPG(globalDB.Pool)
	ids := make([]uuid.UUID, 0, n)
	for i := 0; i < n; i++ {
		e := &examination.MedicalExamination{
			Code:            fmt.Sprintf("exam-%d-%d", time.Now().UnixNano(), i),
			Name:            fmt.Sprintf("Examination %d", i),
			DurationMinutes: 30,
		}
		if err := repo.Create(ctx, e); err != nil {
			t.Fatalf("seed examination: %v", err)
		}
		ids = append(ids, e.ID)
	}
	return ids
}
