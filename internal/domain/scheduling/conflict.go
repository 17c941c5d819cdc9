package scheduling

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// PendingIntervalSource exposes the intervals of in-flight CREATE/UPDATE
// schedule-change requests for a doctor and date. DELETE requests never
// conflict and must not be returned.
type PendingIntervalSource interface {
	PendingIntervals(ctx context.Context, doctorID uuid.UUID, date time.Time, excludeRequestID uuid.UUID) ([]TimeInterval, error)
}

// ConflictChecker answers read-only booking questions. Its verdicts are not
// atomic with the subsequent write; the booking path serializes through a
// per-key lock and schedule applies rely on the version column as the final
// authority.
type ConflictChecker struct {
	schedules    ScheduleRepository
	appointments AppointmentRepository
	pending      PendingIntervalSource
}

func NewConflictChecker(schedules ScheduleRepository, appointments AppointmentRepository, pending PendingIntervalSource) *ConflictChecker {
	return &ConflictChecker{schedules: schedules, appointments: appointments, pending: pending}
}

// CanBook reports whether the interval is free for the given doctor and
// patient. A nil doctor id skips the doctor-level checks; a nil patient id
// skips the patient-level check. excludeID exempts the record being updated.
func (c *ConflictChecker) CanBook(ctx context.Context, doctorID, patientID uuid.UUID, interval TimeInterval, excludeID uuid.UUID) (bool, error) {
	date := interval.Day()

	if doctorID != uuid.Nil {
		scheds, err := c.schedules.ListByDoctorAndDate(ctx, doctorID, date)
		if err != nil {
			return false, err
		}
		for _, s := range scheds {
			if s.ID == excludeID {
				continue
			}
			if interval.Overlaps(s.Interval) {
				return false, nil
			}
		}

		appts, err := c.appointments.ListByDoctorAndDate(ctx, doctorID, date)
		if err != nil {
			return false, err
		}
		if conflictsWithAppointments(interval, appts, excludeID) {
			return false, nil
		}
	}

	if patientID != uuid.Nil {
		appts, err := c.appointments.ListByPatientAndDate(ctx, patientID, date)
		if err != nil {
			return false, err
		}
		if conflictsWithAppointments(interval, appts, excludeID) {
			return false, nil
		}
	}

	return true, nil
}

// CanScheduleChange re-checks the interval against every other PENDING
// CREATE/UPDATE change request for the same doctor and date, catching
// in-flight conflicts that committed data cannot show yet.
func (c *ConflictChecker) CanScheduleChange(ctx context.Context, doctorID uuid.UUID, date time.Time, interval TimeInterval, excludeRequestID uuid.UUID) (bool, error) {
	pending, err := c.pending.PendingIntervals(ctx, doctorID, date, excludeRequestID)
	if err != nil {
		return false, err
	}
	for _, p := range pending {
		if interval.Overlaps(p) {
			return false, nil
		}
	}
	return true, nil
}

func conflictsWithAppointments(interval TimeInterval, appts []*Appointment, excludeID uuid.UUID) bool {
	for _, a := range appts {
		if a.ID == excludeID || a.Status == StatusCancelled {
			continue
		}
		if interval.Overlaps(a.Interval) {
			return true
		}
	}
	return false
}
