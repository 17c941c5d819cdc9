package schedulechange

import (
	"time"

	"github.com/google/uuid"

	"github.com/clinova/clinova/internal/domain/scheduling"
)

// Change types.
const (
	ChangeCreate = "CREATE"
	ChangeUpdate = "UPDATE"
	ChangeDelete = "DELETE"
)

// Request statuses. PENDING is the only mutable state; APPROVED immediately
// transitions to APPLIED from the caller's point of view.
const (
	StatusPending  = "PENDING"
	StatusApproved = "APPROVED"
	StatusRejected = "REJECTED"
	StatusApplied  = "APPLIED"
)

var validChangeTypes = map[string]bool{
	ChangeCreate: true,
	ChangeUpdate: true,
	ChangeDelete: true,
}

// ScheduleChangeRequest maps to the schedule_change_request table. Requests
// are never physically deleted; terminal rows form the audit trail.
type ScheduleChangeRequest struct {
	ID               uuid.UUID                `db:"id" json:"id"`
	ChangeType       string                   `db:"change_type" json:"change_type"`
	Status           string                   `db:"status" json:"status"`
	TargetDoctorID   uuid.UUID                `db:"target_doctor_id" json:"target_doctor_id"`
	TargetScheduleID *uuid.UUID               `db:"target_schedule_id" json:"target_schedule_id,omitempty"`
	Interval         *scheduling.TimeInterval `json:"interval,omitempty"`
	AffectedDoctorIDs []uuid.UUID             `db:"affected_doctor_ids" json:"affected_doctor_ids"`
	ApprovedDoctorIDs []uuid.UUID             `db:"approved_doctor_ids" json:"approved_doctor_ids"`
	RejectionNote    *string                  `db:"rejection_note" json:"rejection_note,omitempty"`
	RejectedBy       *uuid.UUID               `db:"rejected_by" json:"rejected_by,omitempty"`
	Reason           string                   `db:"reason" json:"reason"`
	CreatedAt        time.Time                `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time                `db:"updated_at" json:"updated_at"`
	ProcessedAt      *time.Time               `db:"processed_at" json:"processed_at,omitempty"`
}

// IsAffected reports whether the doctor is in the request's affected set.
func (r *ScheduleChangeRequest) IsAffected(doctorID uuid.UUID) bool {
	for _, id := range r.AffectedDoctorIDs {
		if id == doctorID {
			return true
		}
	}
	return false
}

// HasApproved reports whether the doctor already approved the request.
func (r *ScheduleChangeRequest) HasApproved(doctorID uuid.UUID) bool {
	for _, id := range r.ApprovedDoctorIDs {
		if id == doctorID {
			return true
		}
	}
	return false
}

// QuorumMet reports whether every affected doctor has approved. The creation
// paths populate a single affected doctor, so one approval meets quorum; the
// general tally stays in place for multi-approver sets.
func (r *ScheduleChangeRequest) QuorumMet() bool {
	return len(r.ApprovedDoctorIDs) >= len(r.AffectedDoctorIDs)
}
