package scheduling

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type ScheduleRepository interface {
	Create(ctx context.Context, s *Schedule) error
	GetByID(ctx context.Context, id uuid.UUID) (*Schedule, error)
	// UpdateInterval rewrites the interval conditionally on the version read
	// by the caller; a lost race returns ErrVersionConflict.
	UpdateInterval(ctx context.Context, id uuid.UUID, interval TimeInterval, version int) error
	// Delete removes the schedule conditionally on version, like UpdateInterval.
	Delete(ctx context.Context, id uuid.UUID, version int) error
	ListByDoctorAndDate(ctx context.Context, doctorID uuid.UUID, date time.Time) ([]*Schedule, error)
	ListByDoctor(ctx context.Context, doctorID uuid.UUID, limit, offset int) ([]*Schedule, int, error)
	List(ctx context.Context, limit, offset int) ([]*Schedule, int, error)
}

type AppointmentRepository interface {
	Create(ctx context.Context, a *Appointment) error
	GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error)
	Update(ctx context.Context, a *Appointment) error
	Delete(ctx context.Context, id uuid.UUID) error
	ListByDoctorAndDate(ctx context.Context, doctorID uuid.UUID, date time.Time) ([]*Appointment, error)
	ListByPatientAndDate(ctx context.Context, patientID uuid.UUID, date time.Time) ([]*Appointment, error)
	List(ctx context.Context, filter AppointmentFilter, limit, offset int) ([]*Appointment, int, error)
	ChildIDs(ctx context.Context, parentID uuid.UUID) ([]uuid.UUID, error)
	ExaminationIDs(ctx context.Context, appointmentID uuid.UUID) ([]uuid.UUID, error)
	// SetExaminations replaces the ordered examination set, normalizing an
	// absent collection into an empty one.
	SetExaminations(ctx context.Context, appointmentID uuid.UUID, ids []uuid.UUID) error
}

// AppointmentFilter narrows List results. Zero values are ignored.
type AppointmentFilter struct {
	DoctorID  uuid.UUID
	PatientID uuid.UUID
	Date      time.Time
	Status    string
}
