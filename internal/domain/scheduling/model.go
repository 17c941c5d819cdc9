package scheduling

import (
	"time"

	"github.com/google/uuid"
)

// Appointment statuses. Stored as opaque strings.
const (
	StatusScheduled = "SCHEDULED"
	StatusCompleted = "COMPLETED"
	StatusCancelled = "CANCELLED"
	StatusNoShow    = "NO_SHOW"
)

var validStatuses = map[string]bool{
	StatusScheduled: true,
	StatusCompleted: true,
	StatusCancelled: true,
	StatusNoShow:    true,
}

// Schedule maps to the schedule table: a committed block of doctor
// availability. Mutated only through the change-request workflow; the
// version column guards concurrent applies.
type Schedule struct {
	ID        uuid.UUID    `db:"id" json:"id"`
	DoctorID  uuid.UUID    `db:"doctor_id" json:"doctor_id"`
	Interval  TimeInterval `json:"interval"`
	Version   int          `db:"version" json:"version"`
	CreatedAt time.Time    `db:"created_at" json:"created_at"`
	UpdatedAt time.Time    `db:"updated_at" json:"updated_at"`
}

// Appointment maps to the appointment table: a booked use of doctor and/or
// clinic time. DoctorID nil means a service-only appointment. Children ride
// on their parent's doctor slot and are never conflict-checked.
type Appointment struct {
	ID             uuid.UUID    `db:"id" json:"id"`
	PatientID      uuid.UUID    `db:"patient_id" json:"patient_id"`
	DoctorID       *uuid.UUID   `db:"doctor_id" json:"doctor_id,omitempty"`
	Interval       TimeInterval `json:"interval"`
	Status         string       `db:"status" json:"status"`
	ParentID       *uuid.UUID   `db:"parent_id" json:"parent_appointment_id,omitempty"`
	ChildIDs       []uuid.UUID  `json:"child_appointment_ids,omitempty"`
	ExaminationIDs []uuid.UUID  `json:"examination_ids,omitempty"`
	CreatedAt      time.Time    `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time    `db:"updated_at" json:"updated_at"`
}

// HasDoctor reports whether the appointment consumes doctor time.
func (a *Appointment) HasDoctor() bool {
	return a.DoctorID != nil && *a.DoctorID != uuid.Nil
}
