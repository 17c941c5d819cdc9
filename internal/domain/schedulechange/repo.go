package schedulechange

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Repository stores change requests. There is deliberately no Delete:
// terminal requests are kept as the audit trail.
type Repository interface {
	Create(ctx context.Context, r *ScheduleChangeRequest) error
	GetByID(ctx context.Context, id uuid.UUID) (*ScheduleChangeRequest, error)
	Update(ctx context.Context, r *ScheduleChangeRequest) error
	FindPendingByDoctorAndDate(ctx context.Context, doctorID uuid.UUID, date time.Time) ([]*ScheduleChangeRequest, error)
	List(ctx context.Context, filter Filter, limit, offset int) ([]*ScheduleChangeRequest, int, error)
}

// Filter narrows List results. Zero values are ignored.
type Filter struct {
	DoctorID uuid.UUID
	Status   string
}
