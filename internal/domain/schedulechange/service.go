package schedulechange

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/clinova/clinova/internal/domain/scheduling"
)

// errNoChange marks an UPDATE whose proposed interval equals the current
// one. Bulk creation skips these silently; single creation surfaces them.
var errNoChange = fmt.Errorf("no time change: %w", scheduling.ErrInvalidState)

type Service struct {
	requests  Repository
	schedules scheduling.ScheduleRepository
	checker   *scheduling.ConflictChecker
	doctors   scheduling.DoctorDirectory
	applier   *Applier
	notifier  scheduling.Notifier
	logger    zerolog.Logger
}

func NewService(
	requests Repository,
	schedules scheduling.ScheduleRepository,
	checker *scheduling.ConflictChecker,
	doctors scheduling.DoctorDirectory,
	applier *Applier,
	notifier scheduling.Notifier,
	logger zerolog.Logger,
) *Service {
	return &Service{
		requests:  requests,
		schedules: schedules,
		checker:   checker,
		doctors:   doctors,
		applier:   applier,
		notifier:  notifier,
		logger:    logger,
	}
}

// CreateRequest carries a change-request submission.
type CreateRequest struct {
	ChangeType       string                   `json:"change_type"`
	TargetDoctorID   uuid.UUID                `json:"target_doctor_id"`
	TargetScheduleID *uuid.UUID               `json:"target_schedule_id,omitempty"`
	Interval         *scheduling.TimeInterval `json:"interval,omitempty"`
	Reason           string                   `json:"reason"`
}

// Create validates and persists a single PENDING request, notifying the
// target doctor best-effort.
func (s *Service) Create(ctx context.Context, req CreateRequest) (*ScheduleChangeRequest, error) {
	if err := s.validate(ctx, req, uuid.Nil); err != nil {
		return nil, err
	}
	entity := s.newEntity(req)
	if err := s.requests.Create(ctx, entity); err != nil {
		return nil, err
	}
	s.notifyDoctor(ctx, req.TargetDoctorID, "schedule-change-requested", entity)
	return entity, nil
}

// CreateBulk applies single-item validation to each item independently.
// No-op UPDATE items are skipped silently; any other failure aborts the
// remaining items. Requests created before the failure remain.
func (s *Service) CreateBulk(ctx context.Context, items []CreateRequest) ([]*ScheduleChangeRequest, error) {
	var created []*ScheduleChangeRequest
	for i, item := range items {
		entity, err := s.Create(ctx, item)
		if err != nil {
			if errors.Is(err, errNoChange) {
				continue
			}
			return created, fmt.Errorf("item %d: %w", i, err)
		}
		created = append(created, entity)
	}
	return created, nil
}

// Approve records the doctor's approval. Re-approving is a no-op. Once every
// affected doctor has approved, the request transitions to APPROVED and the
// mutation is applied synchronously; success yields APPLIED, an applier
// failure leaves the request APPROVED and surfaces the error.
func (s *Service) Approve(ctx context.Context, requestID, doctorID uuid.UUID) (*ScheduleChangeRequest, error) {
	req, err := s.requests.GetByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if req.Status != StatusPending {
		return nil, fmt.Errorf("request is %s: %w", req.Status, scheduling.ErrInvalidState)
	}
	if !req.IsAffected(doctorID) {
		return nil, fmt.Errorf("doctor %s: %w", doctorID, scheduling.ErrUnauthorized)
	}
	if req.HasApproved(doctorID) {
		return req, nil
	}

	req.ApprovedDoctorIDs = append(req.ApprovedDoctorIDs, doctorID)
	if !req.QuorumMet() {
		if err := s.requests.Update(ctx, req); err != nil {
			return nil, err
		}
		return req, nil
	}

	req.Status = StatusApproved
	if err := s.requests.Update(ctx, req); err != nil {
		return nil, err
	}

	if err := s.applier.Apply(ctx, req); err != nil {
		// The request stays APPROVED; operators must reconcile.
		return nil, err
	}

	now := time.Now().UTC()
	req.Status = StatusApplied
	req.ProcessedAt = &now
	if err := s.requests.Update(ctx, req); err != nil {
		return nil, err
	}

	s.notifyDoctor(ctx, req.TargetDoctorID, "schedule-change-approved", req)
	return req, nil
}

// Reject terminates a PENDING request with a note and the rejecting doctor.
func (s *Service) Reject(ctx context.Context, requestID, doctorID uuid.UUID, note string) (*ScheduleChangeRequest, error) {
	req, err := s.requests.GetByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if req.Status != StatusPending {
		return nil, fmt.Errorf("request is %s: %w", req.Status, scheduling.ErrInvalidState)
	}
	if !req.IsAffected(doctorID) {
		return nil, fmt.Errorf("doctor %s: %w", doctorID, scheduling.ErrUnauthorized)
	}

	now := time.Now().UTC()
	req.Status = StatusRejected
	req.RejectionNote = &note
	req.RejectedBy = &doctorID
	req.ProcessedAt = &now
	if err := s.requests.Update(ctx, req); err != nil {
		return nil, err
	}

	s.notifyDoctor(ctx, req.TargetDoctorID, "schedule-change-rejected", req)
	return req, nil
}

// Update replaces the proposed fields of a PENDING request, re-validating
// like Create. Any edit invalidates approvals already collected.
func (s *Service) Update(ctx context.Context, requestID uuid.UUID, req CreateRequest) (*ScheduleChangeRequest, error) {
	entity, err := s.requests.GetByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if entity.Status != StatusPending {
		return nil, fmt.Errorf("request is %s: %w", entity.Status, scheduling.ErrInvalidState)
	}
	if err := s.validate(ctx, req, requestID); err != nil {
		return nil, err
	}

	entity.ChangeType = req.ChangeType
	entity.TargetDoctorID = req.TargetDoctorID
	entity.TargetScheduleID = req.TargetScheduleID
	entity.Interval = req.Interval
	entity.Reason = req.Reason
	entity.AffectedDoctorIDs = []uuid.UUID{req.TargetDoctorID}
	entity.ApprovedDoctorIDs = []uuid.UUID{}
	if err := s.requests.Update(ctx, entity); err != nil {
		return nil, err
	}
	return entity, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*ScheduleChangeRequest, error) {
	return s.requests.GetByID(ctx, id)
}

func (s *Service) List(ctx context.Context, filter Filter, limit, offset int) ([]*ScheduleChangeRequest, int, error) {
	return s.requests.List(ctx, filter, limit, offset)
}

func (s *Service) newEntity(req CreateRequest) *ScheduleChangeRequest {
	return &ScheduleChangeRequest{
		ChangeType:        req.ChangeType,
		Status:            StatusPending,
		TargetDoctorID:    req.TargetDoctorID,
		TargetScheduleID:  req.TargetScheduleID,
		Interval:          req.Interval,
		AffectedDoctorIDs: []uuid.UUID{req.TargetDoctorID},
		ApprovedDoctorIDs: []uuid.UUID{},
		Reason:            req.Reason,
	}
}

// validate applies the per-type creation rules. excludeRequestID exempts the
// request being edited from the in-flight conflict check.
func (s *Service) validate(ctx context.Context, req CreateRequest, excludeRequestID uuid.UUID) error {
	if !validChangeTypes[req.ChangeType] {
		return fmt.Errorf("invalid change_type: %s", req.ChangeType)
	}
	if req.TargetDoctorID == uuid.Nil {
		return fmt.Errorf("target_doctor_id is required")
	}
	if _, err := s.doctors.GetDoctor(ctx, req.TargetDoctorID); err != nil {
		return fmt.Errorf("doctor %s: %w", req.TargetDoctorID, scheduling.ErrNotFound)
	}

	switch req.ChangeType {
	case ChangeCreate:
		if req.Interval == nil {
			return fmt.Errorf("interval is required for CREATE")
		}
		if err := req.Interval.Validate(); err != nil {
			return err
		}
		ok, err := s.checker.CanBook(ctx, req.TargetDoctorID, uuid.Nil, *req.Interval, uuid.Nil)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("interval overlaps committed bookings: %w", scheduling.ErrConflict)
		}
		ok, err = s.checker.CanScheduleChange(ctx, req.TargetDoctorID, req.Interval.Day(), *req.Interval, excludeRequestID)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("interval overlaps a pending change: %w", scheduling.ErrConflict)
		}

	case ChangeUpdate:
		if req.TargetScheduleID == nil {
			return fmt.Errorf("target_schedule_id is required for UPDATE")
		}
		if req.Interval == nil {
			return fmt.Errorf("interval is required for UPDATE")
		}
		if err := req.Interval.Validate(); err != nil {
			return err
		}
		current, err := s.schedules.GetByID(ctx, *req.TargetScheduleID)
		if err != nil {
			return err
		}
		if current.Interval.Equal(*req.Interval) {
			return errNoChange
		}

	case ChangeDelete:
		if req.TargetScheduleID == nil {
			return fmt.Errorf("target_schedule_id is required for DELETE")
		}
		if _, err := s.schedules.GetByID(ctx, *req.TargetScheduleID); err != nil {
			return err
		}
	}
	return nil
}

// notifyDoctor fires a best-effort notification; failures are logged and
// swallowed.
func (s *Service) notifyDoctor(ctx context.Context, doctorID uuid.UUID, templateID string, req *ScheduleChangeRequest) {
	doctor, err := s.doctors.GetDoctor(ctx, doctorID)
	if err != nil {
		return
	}
	data := map[string]string{
		"doctor_name": doctor.LastName,
		"change_type": req.ChangeType,
	}
	if req.Interval != nil {
		data["date"] = req.Interval.Day().Format("2006-01-02")
	}
	if req.RejectionNote != nil {
		data["note"] = *req.RejectionNote
	}
	if err := s.notifier.Notify(ctx, templateID, doctor.Email, data); err != nil {
		s.logger.Warn().Err(err).
			Str("request_id", req.ID.String()).
			Str("template", templateID).
			Msg("schedule change notification failed")
	}
}
