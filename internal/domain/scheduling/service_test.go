package scheduling

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/clinova/clinova/internal/domain/examination"
	"github.com/clinova/clinova/internal/domain/identity"
	"github.com/clinova/clinova/internal/platform/redislock"
)

// ---- in-memory mocks ----

type mockScheduleRepo struct {
	schedules map[uuid.UUID]*Schedule
}

func newMockScheduleRepo() *mockScheduleRepo {
	return &mockScheduleRepo{schedules: make(map[uuid.UUID]*Schedule)}
}

func (m *mockScheduleRepo) Create(_ context.Context, s *Schedule) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	if s.Version == 0 {
		s.Version = 1
	}
	cp := *s
	m.schedules[s.ID] = &cp
	return nil
}

func (m *mockScheduleRepo) GetByID(_ context.Context, id uuid.UUID) (*Schedule, error) {
	s, ok := m.schedules[id]
	if !ok {
		return nil, fmt.Errorf("schedule: %w", ErrNotFound)
	}
	cp := *s
	return &cp, nil
}

func (m *mockScheduleRepo) UpdateInterval(_ context.Context, id uuid.UUID, interval TimeInterval, version int) error {
	s, ok := m.schedules[id]
	if !ok || s.Version != version {
		return ErrVersionConflict
	}
	s.Interval = interval
	s.Version++
	return nil
}

func (m *mockScheduleRepo) Delete(_ context.Context, id uuid.UUID, version int) error {
	s, ok := m.schedules[id]
	if !ok || s.Version != version {
		return ErrVersionConflict
	}
	delete(m.schedules, id)
	return nil
}

func (m *mockScheduleRepo) ListByDoctorAndDate(_ context.Context, doctorID uuid.UUID, date time.Time) ([]*Schedule, error) {
	var items []*Schedule
	for _, s := range m.schedules {
		if s.DoctorID == doctorID && s.Interval.Day().Equal(date) {
			items = append(items, s)
		}
	}
	return items, nil
}

func (m *mockScheduleRepo) ListByDoctor(_ context.Context, doctorID uuid.UUID, limit, offset int) ([]*Schedule, int, error) {
	var items []*Schedule
	for _, s := range m.schedules {
		if s.DoctorID == doctorID {
			items = append(items, s)
		}
	}
	return items, len(items), nil
}

func (m *mockScheduleRepo) List(_ context.Context, limit, offset int) ([]*Schedule, int, error) {
	var items []*Schedule
	for _, s := range m.schedules {
		items = append(items, s)
	}
	return items, len(items), nil
}

type mockAppointmentRepo struct {
	appointments map[uuid.UUID]*Appointment
	examinations map[uuid.UUID][]uuid.UUID
	setExamCalls int
}

func newMockAppointmentRepo() *mockAppointmentRepo {
	return &mockAppointmentRepo{
		appointments: make(map[uuid.UUID]*Appointment),
		examinations: make(map[uuid.UUID][]uuid.UUID),
	}
}

func (m *mockAppointmentRepo) Create(_ context.Context, a *Appointment) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	if a.Status == "" {
		a.Status = StatusScheduled
	}
	cp := *a
	m.appointments[a.ID] = &cp
	if len(a.ExaminationIDs) > 0 {
		m.examinations[a.ID] = append([]uuid.UUID{}, a.ExaminationIDs...)
	}
	return nil
}

func (m *mockAppointmentRepo) GetByID(_ context.Context, id uuid.UUID) (*Appointment, error) {
	a, ok := m.appointments[id]
	if !ok {
		return nil, fmt.Errorf("appointment: %w", ErrNotFound)
	}
	cp := *a
	return &cp, nil
}

func (m *mockAppointmentRepo) Update(_ context.Context, a *Appointment) error {
	if _, ok := m.appointments[a.ID]; !ok {
		return fmt.Errorf("appointment: %w", ErrNotFound)
	}
	cp := *a
	m.appointments[a.ID] = &cp
	return nil
}

func (m *mockAppointmentRepo) Delete(_ context.Context, id uuid.UUID) error {
	delete(m.appointments, id)
	return nil
}

func (m *mockAppointmentRepo) ListByDoctorAndDate(_ context.Context, doctorID uuid.UUID, date time.Time) ([]*Appointment, error) {
	var items []*Appointment
	for _, a := range m.appointments {
		if a.HasDoctor() && *a.DoctorID == doctorID && a.Interval.Day().Equal(date) {
			items = append(items, a)
		}
	}
	return items, nil
}

func (m *mockAppointmentRepo) ListByPatientAndDate(_ context.Context, patientID uuid.UUID, date time.Time) ([]*Appointment, error) {
	var items []*Appointment
	for _, a := range m.appointments {
		if a.PatientID == patientID && a.Interval.Day().Equal(date) {
			items = append(items, a)
		}
	}
	return items, nil
}

func (m *mockAppointmentRepo) List(_ context.Context, filter AppointmentFilter, limit, offset int) ([]*Appointment, int, error) {
	var items []*Appointment
	for _, a := range m.appointments {
		items = append(items, a)
	}
	return items, len(items), nil
}

func (m *mockAppointmentRepo) ChildIDs(_ context.Context, parentID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	for _, a := range m.appointments {
		if a.ParentID != nil && *a.ParentID == parentID {
			ids = append(ids, a.ID)
		}
	}
	return ids, nil
}

func (m *mockAppointmentRepo) ExaminationIDs(_ context.Context, appointmentID uuid.UUID) ([]uuid.UUID, error) {
	return append([]uuid.UUID{}, m.examinations[appointmentID]...), nil
}

func (m *mockAppointmentRepo) SetExaminations(_ context.Context, appointmentID uuid.UUID, ids []uuid.UUID) error {
	m.setExamCalls++
	m.examinations[appointmentID] = append([]uuid.UUID{}, ids...)
	return nil
}

type mockPendingSource struct {
	intervals map[string][]TimeInterval // doctorID -> intervals
}

func newMockPendingSource() *mockPendingSource {
	return &mockPendingSource{intervals: make(map[string][]TimeInterval)}
}

func (m *mockPendingSource) PendingIntervals(_ context.Context, doctorID uuid.UUID, date time.Time, _ uuid.UUID) ([]TimeInterval, error) {
	var out []TimeInterval
	for _, i := range m.intervals[doctorID.String()] {
		if i.Day().Equal(date) {
			out = append(out, i)
		}
	}
	return out, nil
}

type mockDirectory struct {
	patients map[uuid.UUID]*identity.Patient
	doctors  map[uuid.UUID]*identity.Doctor
}

func newMockDirectory() *mockDirectory {
	return &mockDirectory{
		patients: make(map[uuid.UUID]*identity.Patient),
		doctors:  make(map[uuid.UUID]*identity.Doctor),
	}
}

func (m *mockDirectory) GetPatient(_ context.Context, id uuid.UUID) (*identity.Patient, error) {
	p, ok := m.patients[id]
	if !ok {
		return nil, identity.ErrPatientNotFound
	}
	return p, nil
}

func (m *mockDirectory) GetDoctor(_ context.Context, id uuid.UUID) (*identity.Doctor, error) {
	d, ok := m.doctors[id]
	if !ok {
		return nil, identity.ErrDoctorNotFound
	}
	return d, nil
}

func (m *mockDirectory) addPatient() uuid.UUID {
	id := uuid.New()
	m.patients[id] = &identity.Patient{ID: id, FirstName: "Pat", LastName: "Doe", Email: "pat@example.com"}
	return id
}

func (m *mockDirectory) addDoctor() uuid.UUID {
	id := uuid.New()
	m.doctors[id] = &identity.Doctor{ID: id, FirstName: "Doc", LastName: "Roe", Email: "doc@example.com"}
	return id
}

type mockCatalog struct {
	exams   map[uuid.UUID]*examination.MedicalExamination
	lookups int
}

func newMockCatalog() *mockCatalog {
	return &mockCatalog{exams: make(map[uuid.UUID]*examination.MedicalExamination)}
}

func (m *mockCatalog) Get(_ context.Context, id uuid.UUID) (*examination.MedicalExamination, error) {
	m.lookups++
	e, ok := m.exams[id]
	if !ok {
		return nil, examination.ErrNotFound
	}
	return e, nil
}

func (m *mockCatalog) add(code string, online bool) uuid.UUID {
	id := uuid.New()
	m.exams[id] = &examination.MedicalExamination{ID: id, Code: code, Name: code, Online: online}
	return id
}

type mockNotifier struct {
	calls []string // template ids
	fail  bool
}

func (m *mockNotifier) Notify(_ context.Context, templateID, _ string, _ map[string]string) error {
	m.calls = append(m.calls, templateID)
	if m.fail {
		return errors.New("notify failed")
	}
	return nil
}

type mockChat struct {
	opened [][]string
	fail   bool
}

func (m *mockChat) OpenChannel(_ context.Context, participants []string) (string, error) {
	m.opened = append(m.opened, participants)
	if m.fail {
		return "", errors.New("chat unavailable")
	}
	return "consult:test", nil
}

type fixture struct {
	svc       *Service
	schedules *mockScheduleRepo
	appts     *mockAppointmentRepo
	pending   *mockPendingSource
	dir       *mockDirectory
	catalog   *mockCatalog
	notifier  *mockNotifier
	chat      *mockChat
}

func newFixture() *fixture {
	schedules := newMockScheduleRepo()
	appts := newMockAppointmentRepo()
	pending := newMockPendingSource()
	dir := newMockDirectory()
	catalog := newMockCatalog()
	notifier := &mockNotifier{}
	chat := &mockChat{}
	checker := NewConflictChecker(schedules, appts, pending)
	svc := NewService(appts, schedules, checker, dir, dir, catalog, notifier, chat,
		redislock.NewLocalLocker(), zerolog.Nop())
	return &fixture{svc: svc, schedules: schedules, appts: appts, pending: pending,
		dir: dir, catalog: catalog, notifier: notifier, chat: chat}
}

func interval(t *testing.T, startHour, endHour int) TimeInterval {
	t.Helper()
	return mustInterval(t, startHour, 0, endHour, 0)
}

// ---- booking ----

func TestBookAppointment_Success(t *testing.T) {
	f := newFixture()
	patientID := f.dir.addPatient()
	doctorID := f.dir.addDoctor()

	appt, err := f.svc.BookAppointment(context.Background(), BookAppointmentRequest{
		PatientID: patientID,
		DoctorID:  doctorID.String(),
		Interval:  interval(t, 9, 10),
	})
	if err != nil {
		t.Fatalf("BookAppointment() error: %v", err)
	}
	if appt.Status != StatusScheduled {
		t.Errorf("expected SCHEDULED, got %s", appt.Status)
	}
	if !appt.HasDoctor() || *appt.DoctorID != doctorID {
		t.Error("expected doctor to be set")
	}
	if len(f.notifier.calls) != 1 || f.notifier.calls[0] != "appointment-booked" {
		t.Errorf("expected booking notification, got %v", f.notifier.calls)
	}
}

func TestBookAppointment_DoctorConflictAgainstSchedule(t *testing.T) {
	// Committed schedule 09:00-10:00; booking 09:30-10:30 conflicts, 10:00-10:30 is adjacent.
	f := newFixture()
	patientID := f.dir.addPatient()
	doctorID := f.dir.addDoctor()
	f.schedules.Create(context.Background(), &Schedule{DoctorID: doctorID, Interval: interval(t, 9, 10)})

	_, err := f.svc.BookAppointment(context.Background(), BookAppointmentRequest{
		PatientID: patientID,
		DoctorID:  doctorID.String(),
		Interval:  mustInterval(t, 9, 30, 10, 30),
	})
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}

	if _, err := f.svc.BookAppointment(context.Background(), BookAppointmentRequest{
		PatientID: patientID,
		DoctorID:  doctorID.String(),
		Interval:  mustInterval(t, 10, 0, 10, 30),
	}); err != nil {
		t.Fatalf("adjacent interval should book, got %v", err)
	}
}

func TestBookAppointment_ServiceOnlySkipsDoctorPath(t *testing.T) {
	f := newFixture()
	patientID := f.dir.addPatient()
	doctorID := f.dir.addDoctor()
	// Doctor fully booked, but a service-only booking must not care.
	f.schedules.Create(context.Background(), &Schedule{DoctorID: doctorID, Interval: interval(t, 8, 18)})

	appt, err := f.svc.BookAppointment(context.Background(), BookAppointmentRequest{
		PatientID: patientID,
		DoctorID:  "   ",
		Interval:  interval(t, 9, 10),
	})
	if err != nil {
		t.Fatalf("service-only booking failed: %v", err)
	}
	if appt.HasDoctor() {
		t.Error("expected no doctor on service-only appointment")
	}
}

func TestBookAppointment_PatientConflictStillChecked(t *testing.T) {
	f := newFixture()
	patientID := f.dir.addPatient()
	if _, err := f.svc.BookAppointment(context.Background(), BookAppointmentRequest{
		PatientID: patientID,
		Interval:  interval(t, 9, 10),
	}); err != nil {
		t.Fatalf("first booking failed: %v", err)
	}

	_, err := f.svc.BookAppointment(context.Background(), BookAppointmentRequest{
		PatientID: patientID,
		Interval:  mustInterval(t, 9, 30, 10, 30),
	})
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("expected patient-level ErrConflict, got %v", err)
	}
}

func TestBookAppointment_ChildSkipsConflictChecks(t *testing.T) {
	f := newFixture()
	patientID := f.dir.addPatient()
	doctorID := f.dir.addDoctor()

	parent, err := f.svc.BookAppointment(context.Background(), BookAppointmentRequest{
		PatientID: patientID,
		DoctorID:  doctorID.String(),
		Interval:  interval(t, 9, 10),
	})
	if err != nil {
		t.Fatalf("parent booking failed: %v", err)
	}

	// Same interval, same doctor: would conflict, but rides on the parent slot.
	child, err := f.svc.BookAppointment(context.Background(), BookAppointmentRequest{
		PatientID: patientID,
		DoctorID:  doctorID.String(),
		Interval:  interval(t, 9, 10),
		ParentID:  &parent.ID,
	})
	if err != nil {
		t.Fatalf("child booking failed: %v", err)
	}
	if child.ParentID == nil || *child.ParentID != parent.ID {
		t.Error("expected child linked to parent")
	}

	loaded, err := f.svc.GetAppointment(context.Background(), parent.ID)
	if err != nil {
		t.Fatalf("GetAppointment() error: %v", err)
	}
	if len(loaded.ChildIDs) != 1 || loaded.ChildIDs[0] != child.ID {
		t.Errorf("expected parent to list child, got %v", loaded.ChildIDs)
	}
}

func TestBookAppointment_UnknownParent(t *testing.T) {
	f := newFixture()
	patientID := f.dir.addPatient()
	missing := uuid.New()
	_, err := f.svc.BookAppointment(context.Background(), BookAppointmentRequest{
		PatientID: patientID,
		Interval:  interval(t, 9, 10),
		ParentID:  &missing,
	})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestBookAppointment_UnknownPatient(t *testing.T) {
	f := newFixture()
	_, err := f.svc.BookAppointment(context.Background(), BookAppointmentRequest{
		PatientID: uuid.New(),
		Interval:  interval(t, 9, 10),
	})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestBookAppointment_UnknownExamination(t *testing.T) {
	f := newFixture()
	patientID := f.dir.addPatient()
	_, err := f.svc.BookAppointment(context.Background(), BookAppointmentRequest{
		PatientID:      patientID,
		Interval:       interval(t, 9, 10),
		ExaminationIDs: []uuid.UUID{uuid.New()},
	})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestBookAppointment_OnlineConsultationOpensChannel(t *testing.T) {
	f := newFixture()
	patientID := f.dir.addPatient()
	doctorID := f.dir.addDoctor()
	examID := f.catalog.add(examination.OnlineConsultationCode, true)

	_, err := f.svc.BookAppointment(context.Background(), BookAppointmentRequest{
		PatientID:      patientID,
		DoctorID:       doctorID.String(),
		Interval:       interval(t, 9, 10),
		ExaminationIDs: []uuid.UUID{examID},
	})
	if err != nil {
		t.Fatalf("BookAppointment() error: %v", err)
	}
	if len(f.chat.opened) != 1 {
		t.Fatalf("expected one channel open, got %d", len(f.chat.opened))
	}
	if len(f.chat.opened[0]) != 2 {
		t.Errorf("expected patient+doctor participants, got %v", f.chat.opened[0])
	}
}

func TestBookAppointment_ChatFailureSwallowed(t *testing.T) {
	f := newFixture()
	f.chat.fail = true
	f.notifier.fail = true
	patientID := f.dir.addPatient()
	examID := f.catalog.add(examination.OnlineConsultationCode, true)

	if _, err := f.svc.BookAppointment(context.Background(), BookAppointmentRequest{
		PatientID:      patientID,
		Interval:       interval(t, 9, 10),
		ExaminationIDs: []uuid.UUID{examID},
	}); err != nil {
		t.Fatalf("side-effect failures must not fail booking, got %v", err)
	}
}

func TestBookAppointment_OfflineExamNoChannel(t *testing.T) {
	f := newFixture()
	patientID := f.dir.addPatient()
	examID := f.catalog.add("blood-panel", false)

	if _, err := f.svc.BookAppointment(context.Background(), BookAppointmentRequest{
		PatientID:      patientID,
		Interval:       interval(t, 9, 10),
		ExaminationIDs: []uuid.UUID{examID},
	}); err != nil {
		t.Fatalf("BookAppointment() error: %v", err)
	}
	if len(f.chat.opened) != 0 {
		t.Errorf("expected no channel for offline exam, got %d", len(f.chat.opened))
	}
}

func TestBookAppointment_InvalidDoctorID(t *testing.T) {
	f := newFixture()
	patientID := f.dir.addPatient()
	_, err := f.svc.BookAppointment(context.Background(), BookAppointmentRequest{
		PatientID: patientID,
		DoctorID:  "not-a-uuid",
		Interval:  interval(t, 9, 10),
	})
	if err == nil {
		t.Fatal("expected error for malformed doctor id")
	}
}

// ---- update / assign / examinations ----

func TestUpdateAppointment_MoveConflict(t *testing.T) {
	f := newFixture()
	patientID := f.dir.addPatient()
	doctorID := f.dir.addDoctor()

	first, err := f.svc.BookAppointment(context.Background(), BookAppointmentRequest{
		PatientID: patientID, DoctorID: doctorID.String(), Interval: interval(t, 9, 10),
	})
	if err != nil {
		t.Fatalf("booking failed: %v", err)
	}
	second, err := f.svc.BookAppointment(context.Background(), BookAppointmentRequest{
		PatientID: patientID, DoctorID: doctorID.String(), Interval: interval(t, 11, 12),
	})
	if err != nil {
		t.Fatalf("booking failed: %v", err)
	}

	// Moving second onto first conflicts.
	iv := interval(t, 9, 10)
	if _, err := f.svc.UpdateAppointment(context.Background(), second.ID, UpdateAppointmentRequest{Interval: &iv}); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}

	// Moving second onto its own slot is allowed (excluded from the check).
	own := interval(t, 11, 12)
	if _, err := f.svc.UpdateAppointment(context.Background(), second.ID, UpdateAppointmentRequest{Interval: &own}); err != nil {
		t.Fatalf("self-overlapping move should pass, got %v", err)
	}
	_ = first
}

func TestAssignDoctor_ConflictAndSuccess(t *testing.T) {
	f := newFixture()
	patientID := f.dir.addPatient()
	doctorID := f.dir.addDoctor()
	f.schedules.Create(context.Background(), &Schedule{DoctorID: doctorID, Interval: interval(t, 9, 10)})

	appt, err := f.svc.BookAppointment(context.Background(), BookAppointmentRequest{
		PatientID: patientID, Interval: mustInterval(t, 9, 30, 10, 30),
	})
	if err != nil {
		t.Fatalf("booking failed: %v", err)
	}

	if _, err := f.svc.AssignDoctor(context.Background(), appt.ID, doctorID); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict assigning busy doctor, got %v", err)
	}

	free, err := f.svc.BookAppointment(context.Background(), BookAppointmentRequest{
		PatientID: patientID, Interval: interval(t, 14, 15),
	})
	if err != nil {
		t.Fatalf("booking failed: %v", err)
	}
	updated, err := f.svc.AssignDoctor(context.Background(), free.ID, doctorID)
	if err != nil {
		t.Fatalf("AssignDoctor() error: %v", err)
	}
	if !updated.HasDoctor() || *updated.DoctorID != doctorID {
		t.Error("expected doctor assigned")
	}
}

func TestUpdateExaminations_IdempotentAdd(t *testing.T) {
	f := newFixture()
	patientID := f.dir.addPatient()
	examID := f.catalog.add("xray", false)

	appt, err := f.svc.BookAppointment(context.Background(), BookAppointmentRequest{
		PatientID: patientID, Interval: interval(t, 9, 10),
	})
	if err != nil {
		t.Fatalf("booking failed: %v", err)
	}

	first, err := f.svc.UpdateExaminations(context.Background(), appt.ID, []uuid.UUID{examID})
	if err != nil {
		t.Fatalf("UpdateExaminations() error: %v", err)
	}
	if len(first.ExaminationIDs) != 1 {
		t.Fatalf("expected 1 examination, got %d", len(first.ExaminationIDs))
	}
	lookupsAfterFirst := f.catalog.lookups

	second, err := f.svc.UpdateExaminations(context.Background(), appt.ID, []uuid.UUID{examID})
	if err != nil {
		t.Fatalf("UpdateExaminations() second call error: %v", err)
	}
	if len(second.ExaminationIDs) != 1 {
		t.Errorf("expected set unchanged, got %d entries", len(second.ExaminationIDs))
	}
	if f.catalog.lookups != lookupsAfterFirst {
		t.Errorf("expected no duplicate lookups, got %d extra", f.catalog.lookups-lookupsAfterFirst)
	}
}

func TestUpdateExaminations_EmptyListStillPersists(t *testing.T) {
	f := newFixture()
	patientID := f.dir.addPatient()
	appt, err := f.svc.BookAppointment(context.Background(), BookAppointmentRequest{
		PatientID: patientID, Interval: interval(t, 9, 10),
	})
	if err != nil {
		t.Fatalf("booking failed: %v", err)
	}

	before := f.appts.setExamCalls
	if _, err := f.svc.UpdateExaminations(context.Background(), appt.ID, nil); err != nil {
		t.Fatalf("UpdateExaminations() error: %v", err)
	}
	if f.appts.setExamCalls != before+1 {
		t.Error("expected empty update to still persist the collection")
	}
}

func TestCancelAndDelete(t *testing.T) {
	f := newFixture()
	patientID := f.dir.addPatient()
	appt, err := f.svc.BookAppointment(context.Background(), BookAppointmentRequest{
		PatientID: patientID, Interval: interval(t, 9, 10),
	})
	if err != nil {
		t.Fatalf("booking failed: %v", err)
	}

	cancelled, err := f.svc.CancelAppointment(context.Background(), appt.ID)
	if err != nil {
		t.Fatalf("CancelAppointment() error: %v", err)
	}
	if cancelled.Status != StatusCancelled {
		t.Errorf("expected CANCELLED, got %s", cancelled.Status)
	}

	// A cancelled slot no longer blocks the patient.
	if _, err := f.svc.BookAppointment(context.Background(), BookAppointmentRequest{
		PatientID: patientID, Interval: interval(t, 9, 10),
	}); err != nil {
		t.Fatalf("rebooking over cancelled slot should pass, got %v", err)
	}

	if err := f.svc.DeleteAppointment(context.Background(), appt.ID); err != nil {
		t.Fatalf("DeleteAppointment() error: %v", err)
	}
	if err := f.svc.DeleteAppointment(context.Background(), appt.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound on second delete, got %v", err)
	}
}

func TestDeleteParent_ChildrenOrphaned(t *testing.T) {
	f := newFixture()
	patientID := f.dir.addPatient()
	parent, err := f.svc.BookAppointment(context.Background(), BookAppointmentRequest{
		PatientID: patientID, Interval: interval(t, 9, 10),
	})
	if err != nil {
		t.Fatalf("booking failed: %v", err)
	}
	child, err := f.svc.BookAppointment(context.Background(), BookAppointmentRequest{
		PatientID: patientID, Interval: interval(t, 9, 10), ParentID: &parent.ID,
	})
	if err != nil {
		t.Fatalf("child booking failed: %v", err)
	}

	if err := f.svc.DeleteAppointment(context.Background(), parent.ID); err != nil {
		t.Fatalf("DeleteAppointment() error: %v", err)
	}

	// Child survives with a dangling parent ref.
	got, err := f.svc.GetAppointment(context.Background(), child.ID)
	if err != nil {
		t.Fatalf("child should survive parent delete, got %v", err)
	}
	if got.ParentID == nil || *got.ParentID != parent.ID {
		t.Error("expected dangling parent ref preserved")
	}
}
