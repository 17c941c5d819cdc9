package scheduling

import (
	"context"
	"testing"

	"github.com/google/uuid"
)

func newChecker() (*ConflictChecker, *mockScheduleRepo, *mockAppointmentRepo, *mockPendingSource) {
	schedules := newMockScheduleRepo()
	appts := newMockAppointmentRepo()
	pending := newMockPendingSource()
	return NewConflictChecker(schedules, appts, pending), schedules, appts, pending
}

func TestCanBook_DoctorScheduleOverlap(t *testing.T) {
	checker, schedules, _, _ := newChecker()
	doctorID := uuid.New()
	patientID := uuid.New()
	schedules.Create(context.Background(), &Schedule{DoctorID: doctorID, Interval: interval(t, 9, 10)})

	ok, err := checker.CanBook(context.Background(), doctorID, patientID, mustInterval(t, 9, 30, 10, 30), uuid.Nil)
	if err != nil {
		t.Fatalf("CanBook() error: %v", err)
	}
	if ok {
		t.Error("expected conflict with committed schedule")
	}

	ok, err = checker.CanBook(context.Background(), doctorID, patientID, mustInterval(t, 10, 0, 10, 30), uuid.Nil)
	if err != nil {
		t.Fatalf("CanBook() error: %v", err)
	}
	if !ok {
		t.Error("adjacent interval must not conflict")
	}
}

func TestCanBook_NilDoctorSkipsDoctorPath(t *testing.T) {
	checker, schedules, _, _ := newChecker()
	doctorID := uuid.New()
	patientID := uuid.New()
	schedules.Create(context.Background(), &Schedule{DoctorID: doctorID, Interval: interval(t, 8, 18)})

	ok, err := checker.CanBook(context.Background(), uuid.Nil, patientID, interval(t, 9, 10), uuid.Nil)
	if err != nil {
		t.Fatalf("CanBook() error: %v", err)
	}
	if !ok {
		t.Error("nil doctor must skip doctor-level checks")
	}
}

func TestCanBook_PatientAppointmentOverlap(t *testing.T) {
	checker, _, appts, _ := newChecker()
	patientID := uuid.New()
	appts.Create(context.Background(), &Appointment{PatientID: patientID, Interval: interval(t, 9, 10)})

	ok, err := checker.CanBook(context.Background(), uuid.Nil, patientID, mustInterval(t, 9, 45, 11, 0), uuid.Nil)
	if err != nil {
		t.Fatalf("CanBook() error: %v", err)
	}
	if ok {
		t.Error("expected patient-level conflict")
	}
}

func TestCanBook_ExcludeID(t *testing.T) {
	checker, _, appts, _ := newChecker()
	patientID := uuid.New()
	appt := &Appointment{PatientID: patientID, Interval: interval(t, 9, 10)}
	appts.Create(context.Background(), appt)

	ok, err := checker.CanBook(context.Background(), uuid.Nil, patientID, interval(t, 9, 10), appt.ID)
	if err != nil {
		t.Fatalf("CanBook() error: %v", err)
	}
	if !ok {
		t.Error("excluded record must not conflict with itself")
	}
}

func TestCanBook_CancelledAppointmentIgnored(t *testing.T) {
	checker, _, appts, _ := newChecker()
	doctorID := uuid.New()
	patientID := uuid.New()
	appts.Create(context.Background(), &Appointment{
		PatientID: uuid.New(), DoctorID: &doctorID,
		Interval: interval(t, 9, 10), Status: StatusCancelled,
	})

	ok, err := checker.CanBook(context.Background(), doctorID, patientID, interval(t, 9, 10), uuid.Nil)
	if err != nil {
		t.Fatalf("CanBook() error: %v", err)
	}
	if !ok {
		t.Error("cancelled appointments must not block booking")
	}
}

func TestCanScheduleChange_PendingConflict(t *testing.T) {
	checker, _, _, pending := newChecker()
	doctorID := uuid.New()
	iv := interval(t, 9, 10)
	pending.intervals[doctorID.String()] = []TimeInterval{iv}

	ok, err := checker.CanScheduleChange(context.Background(), doctorID, iv.Day(), mustInterval(t, 9, 30, 10, 30), uuid.Nil)
	if err != nil {
		t.Fatalf("CanScheduleChange() error: %v", err)
	}
	if ok {
		t.Error("expected conflict with pending request interval")
	}

	ok, err = checker.CanScheduleChange(context.Background(), doctorID, iv.Day(), mustInterval(t, 10, 0, 11, 0), uuid.Nil)
	if err != nil {
		t.Fatalf("CanScheduleChange() error: %v", err)
	}
	if !ok {
		t.Error("adjacent pending interval must not conflict")
	}
}
