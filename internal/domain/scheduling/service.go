package scheduling

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/clinova/clinova/internal/domain/examination"
	"github.com/clinova/clinova/internal/domain/identity"
	"github.com/clinova/clinova/internal/platform/redislock"
)

// Collaborators resolved at booking time. identity and examination services
// satisfy these directly.
type PatientDirectory interface {
	GetPatient(ctx context.Context, id uuid.UUID) (*identity.Patient, error)
}

type DoctorDirectory interface {
	GetDoctor(ctx context.Context, id uuid.UUID) (*identity.Doctor, error)
}

type ExaminationCatalog interface {
	Get(ctx context.Context, id uuid.UUID) (*examination.MedicalExamination, error)
}

// Notifier and ChannelOpener are best-effort side channels; their failures
// are logged and swallowed, never propagated.
type Notifier interface {
	Notify(ctx context.Context, templateID, recipient string, data map[string]string) error
}

type ChannelOpener interface {
	OpenChannel(ctx context.Context, participants []string) (string, error)
}

type Service struct {
	appointments AppointmentRepository
	schedules    ScheduleRepository
	checker      *ConflictChecker
	patients     PatientDirectory
	doctors      DoctorDirectory
	catalog      ExaminationCatalog
	notifier     Notifier
	chat         ChannelOpener
	locker       redislock.Locker
	logger       zerolog.Logger
}

func NewService(
	appointments AppointmentRepository,
	schedules ScheduleRepository,
	checker *ConflictChecker,
	patients PatientDirectory,
	doctors DoctorDirectory,
	catalog ExaminationCatalog,
	notifier Notifier,
	chat ChannelOpener,
	locker redislock.Locker,
	logger zerolog.Logger,
) *Service {
	return &Service{
		appointments: appointments,
		schedules:    schedules,
		checker:      checker,
		patients:     patients,
		doctors:      doctors,
		catalog:      catalog,
		notifier:     notifier,
		chat:         chat,
		locker:       locker,
		logger:       logger,
	}
}

// BookAppointmentRequest carries a booking submission. A blank or whitespace
// DoctorID means a service-only appointment.
type BookAppointmentRequest struct {
	PatientID      uuid.UUID    `json:"patient_id"`
	DoctorID       string       `json:"doctor_id"`
	Interval       TimeInterval `json:"interval"`
	ParentID       *uuid.UUID   `json:"parent_appointment_id,omitempty"`
	ExaminationIDs []uuid.UUID  `json:"examination_ids,omitempty"`
}

// UpdateAppointmentRequest rewrites the interval and/or status.
type UpdateAppointmentRequest struct {
	Interval *TimeInterval `json:"interval,omitempty"`
	Status   string        `json:"status,omitempty"`
}

// BookAppointment creates an appointment, optionally composed under a parent.
// Children skip doctor-level conflict checking entirely; they ride on the
// parent's slot.
func (s *Service) BookAppointment(ctx context.Context, req BookAppointmentRequest) (*Appointment, error) {
	req.Interval.normalize()
	if err := req.Interval.Validate(); err != nil {
		return nil, err
	}
	if req.PatientID == uuid.Nil {
		return nil, fmt.Errorf("patient_id is required")
	}
	if _, err := s.patients.GetPatient(ctx, req.PatientID); err != nil {
		return nil, fmt.Errorf("patient %s: %w", req.PatientID, ErrNotFound)
	}

	doctorID, err := s.resolveDoctor(ctx, req.DoctorID)
	if err != nil {
		return nil, err
	}

	appt := &Appointment{
		PatientID: req.PatientID,
		DoctorID:  doctorID,
		Interval:  req.Interval,
		Status:    StatusScheduled,
	}

	exams, err := s.resolveExaminations(ctx, req.ExaminationIDs, nil)
	if err != nil {
		return nil, err
	}
	appt.ExaminationIDs = dedupe(req.ExaminationIDs)

	if req.ParentID != nil {
		parent, err := s.appointments.GetByID(ctx, *req.ParentID)
		if err != nil {
			return nil, fmt.Errorf("parent appointment %s: %w", *req.ParentID, ErrNotFound)
		}
		appt.ParentID = &parent.ID
		if err := s.appointments.Create(ctx, appt); err != nil {
			return nil, err
		}
	} else {
		key := s.lockKey(doctorID, req.PatientID, req.Interval)
		err := s.locker.WithLock(ctx, key, func(ctx context.Context) error {
			did := uuid.Nil
			if doctorID != nil {
				did = *doctorID
			}
			ok, err := s.checker.CanBook(ctx, did, req.PatientID, req.Interval, uuid.Nil)
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("interval %s-%s: %w",
					req.Interval.Start.Format("15:04"), req.Interval.End.Format("15:04"), ErrConflict)
			}
			return s.appointments.Create(ctx, appt)
		})
		if err != nil {
			return nil, err
		}
	}

	s.openConsultationChannel(ctx, appt, exams)
	s.notifyBooked(ctx, appt)

	return appt, nil
}

// UpdateAppointment rewrites interval and/or status, re-running conflict
// checks for interval moves on doctor-bound, non-child appointments.
func (s *Service) UpdateAppointment(ctx context.Context, id uuid.UUID, req UpdateAppointmentRequest) (*Appointment, error) {
	appt, err := s.appointments.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Status != "" {
		if !validStatuses[req.Status] {
			return nil, fmt.Errorf("invalid status: %s", req.Status)
		}
		appt.Status = req.Status
	}

	if req.Interval != nil {
		req.Interval.normalize()
		if err := req.Interval.Validate(); err != nil {
			return nil, err
		}
		if appt.ParentID == nil {
			did := uuid.Nil
			if appt.HasDoctor() {
				did = *appt.DoctorID
			}
			ok, err := s.checker.CanBook(ctx, did, appt.PatientID, *req.Interval, appt.ID)
			if err != nil {
				return nil, err
			}
			if !ok {
				return nil, fmt.Errorf("interval %s-%s: %w",
					req.Interval.Start.Format("15:04"), req.Interval.End.Format("15:04"), ErrConflict)
			}
		}
		appt.Interval = *req.Interval
	}

	if err := s.appointments.Update(ctx, appt); err != nil {
		return nil, err
	}
	return appt, nil
}

// AssignDoctor attaches a doctor to a service-only appointment after a
// doctor-level conflict check.
func (s *Service) AssignDoctor(ctx context.Context, id, doctorID uuid.UUID) (*Appointment, error) {
	appt, err := s.appointments.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if _, err := s.doctors.GetDoctor(ctx, doctorID); err != nil {
		return nil, fmt.Errorf("doctor %s: %w", doctorID, ErrNotFound)
	}

	key := fmt.Sprintf("doctor:%s:%s", doctorID, appt.Interval.Day().Format("2006-01-02"))
	err = s.locker.WithLock(ctx, key, func(ctx context.Context) error {
		ok, err := s.checker.CanBook(ctx, doctorID, uuid.Nil, appt.Interval, appt.ID)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("doctor %s is busy: %w", doctorID, ErrConflict)
		}
		appt.DoctorID = &doctorID
		return s.appointments.Update(ctx, appt)
	})
	if err != nil {
		return nil, err
	}
	return appt, nil
}

// UpdateExaminations adds new, non-duplicate examinations to an appointment.
// Duplicates are skipped without a second catalog lookup; an empty list still
// persists to normalize a possibly-null collection.
func (s *Service) UpdateExaminations(ctx context.Context, id uuid.UUID, ids []uuid.UUID) (*Appointment, error) {
	appt, err := s.appointments.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	existing, err := s.appointments.ExaminationIDs(ctx, id)
	if err != nil {
		return nil, err
	}

	present := make(map[uuid.UUID]bool, len(existing))
	for _, e := range existing {
		present[e] = true
	}

	merged := append([]uuid.UUID{}, existing...)
	if _, err := s.resolveExaminations(ctx, ids, present); err != nil {
		return nil, err
	}
	for _, eid := range ids {
		if present[eid] {
			continue
		}
		present[eid] = true
		merged = append(merged, eid)
	}

	if err := s.appointments.SetExaminations(ctx, appt.ID, merged); err != nil {
		return nil, err
	}
	appt.ExaminationIDs = merged
	return appt, nil
}

// CancelAppointment marks the appointment CANCELLED, freeing its slot for
// conflict checks.
func (s *Service) CancelAppointment(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	return s.UpdateAppointment(ctx, id, UpdateAppointmentRequest{Status: StatusCancelled})
}

// DeleteAppointment removes the appointment. Children are not cascade-deleted.
func (s *Service) DeleteAppointment(ctx context.Context, id uuid.UUID) error {
	if _, err := s.appointments.GetByID(ctx, id); err != nil {
		return err
	}
	return s.appointments.Delete(ctx, id)
}

// GetAppointment loads the appointment with its children and examination set.
func (s *Service) GetAppointment(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	appt, err := s.appointments.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if appt.ChildIDs, err = s.appointments.ChildIDs(ctx, id); err != nil {
		return nil, err
	}
	if appt.ExaminationIDs, err = s.appointments.ExaminationIDs(ctx, id); err != nil {
		return nil, err
	}
	return appt, nil
}

func (s *Service) ListAppointments(ctx context.Context, filter AppointmentFilter, limit, offset int) ([]*Appointment, int, error) {
	return s.appointments.List(ctx, filter, limit, offset)
}

func (s *Service) GetSchedule(ctx context.Context, id uuid.UUID) (*Schedule, error) {
	return s.schedules.GetByID(ctx, id)
}

func (s *Service) ListSchedules(ctx context.Context, doctorID uuid.UUID, limit, offset int) ([]*Schedule, int, error) {
	if doctorID != uuid.Nil {
		return s.schedules.ListByDoctor(ctx, doctorID, limit, offset)
	}
	return s.schedules.List(ctx, limit, offset)
}

// resolveDoctor maps a raw doctor id to a resolved reference. Blank or
// whitespace means no doctor, not an error.
func (s *Service) resolveDoctor(ctx context.Context, raw string) (*uuid.UUID, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil, nil
	}
	id, err := uuid.Parse(trimmed)
	if err != nil {
		return nil, fmt.Errorf("invalid doctor_id: %s", raw)
	}
	if _, err := s.doctors.GetDoctor(ctx, id); err != nil {
		return nil, fmt.Errorf("doctor %s: %w", id, ErrNotFound)
	}
	return &id, nil
}

// resolveExaminations looks up every id not already present and returns the
// resolved entries. An unresolved id is a NotFound error.
func (s *Service) resolveExaminations(ctx context.Context, ids []uuid.UUID, skip map[uuid.UUID]bool) ([]*examination.MedicalExamination, error) {
	var exams []*examination.MedicalExamination
	seen := make(map[uuid.UUID]bool, len(ids))
	for _, id := range ids {
		if seen[id] || (skip != nil && skip[id]) {
			continue
		}
		seen[id] = true
		e, err := s.catalog.Get(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("examination %s: %w", id, ErrNotFound)
		}
		exams = append(exams, e)
	}
	return exams, nil
}

func dedupe(ids []uuid.UUID) []uuid.UUID {
	if len(ids) == 0 {
		return ids
	}
	seen := make(map[uuid.UUID]bool, len(ids))
	out := ids[:0:0]
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}

func (s *Service) lockKey(doctorID *uuid.UUID, patientID uuid.UUID, interval TimeInterval) string {
	day := interval.Day().Format("2006-01-02")
	if doctorID != nil {
		return fmt.Sprintf("doctor:%s:%s", doctorID, day)
	}
	return fmt.Sprintf("patient:%s:%s", patientID, day)
}

// openConsultationChannel opens the companion chat channel when the booking
// includes the online-consultation service. Failures never fail the booking.
func (s *Service) openConsultationChannel(ctx context.Context, appt *Appointment, exams []*examination.MedicalExamination) {
	online := false
	for _, e := range exams {
		if e.Online {
			online = true
			break
		}
	}
	if !online {
		return
	}

	participants := []string{appt.PatientID.String()}
	if appt.HasDoctor() {
		participants = append(participants, appt.DoctorID.String())
	}
	if _, err := s.chat.OpenChannel(ctx, participants); err != nil {
		s.logger.Warn().Err(err).
			Str("appointment_id", appt.ID.String()).
			Msg("failed to open consultation channel")
	}
}

func (s *Service) notifyBooked(ctx context.Context, appt *Appointment) {
	patient, err := s.patients.GetPatient(ctx, appt.PatientID)
	if err != nil {
		return
	}
	data := map[string]string{
		"patient_name": patient.FullName(),
		"date":         appt.Interval.Day().Format("2006-01-02"),
		"start":        appt.Interval.Start.Format("15:04"),
		"end":          appt.Interval.End.Format("15:04"),
	}
	if err := s.notifier.Notify(ctx, "appointment-booked", patient.Email, data); err != nil {
		s.logger.Warn().Err(err).
			Str("appointment_id", appt.ID.String()).
			Msg("booking notification failed")
	}
}
