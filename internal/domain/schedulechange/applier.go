package schedulechange

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/clinova/clinova/internal/domain/scheduling"
)

// maxApplyRetries bounds the optimistic-concurrency retry loop: one initial
// attempt plus up to three retries, sleeping 100ms × attempt between tries.
const maxApplyRetries = 3

// Applier translates an approved request into a schedule mutation under
// optimistic concurrency. Exhausting the retries is a fatal condition: the
// owning request has already been marked APPROVED.
type Applier struct {
	schedules scheduling.ScheduleRepository
	sleep     func(time.Duration)
	logger    zerolog.Logger
}

func NewApplier(schedules scheduling.ScheduleRepository, logger zerolog.Logger) *Applier {
	return &Applier{schedules: schedules, sleep: time.Sleep, logger: logger}
}

// Apply dispatches on the request's change type and retries lost version
// races. Any other error propagates immediately.
func (a *Applier) Apply(ctx context.Context, req *ScheduleChangeRequest) error {
	for attempt := 0; ; attempt++ {
		err := a.applyOnce(ctx, req)
		if err == nil {
			return nil
		}
		if !errors.Is(err, scheduling.ErrVersionConflict) {
			return err
		}
		if attempt == maxApplyRetries {
			a.logger.Error().
				Str("request_id", req.ID.String()).
				Str("change_type", req.ChangeType).
				Msg("schedule apply retries exhausted; request left APPROVED")
			return fmt.Errorf("request %s: %w", req.ID, scheduling.ErrFatal)
		}
		a.sleep(time.Duration(attempt+1) * 100 * time.Millisecond)
	}
}

func (a *Applier) applyOnce(ctx context.Context, req *ScheduleChangeRequest) error {
	switch req.ChangeType {
	case ChangeCreate:
		return a.schedules.Create(ctx, &scheduling.Schedule{
			DoctorID: req.TargetDoctorID,
			Interval: *req.Interval,
		})
	case ChangeUpdate:
		current, err := a.schedules.GetByID(ctx, *req.TargetScheduleID)
		if err != nil {
			return err
		}
		return a.schedules.UpdateInterval(ctx, current.ID, *req.Interval, current.Version)
	case ChangeDelete:
		current, err := a.schedules.GetByID(ctx, *req.TargetScheduleID)
		if err != nil {
			return err
		}
		return a.schedules.Delete(ctx, current.ID, current.Version)
	default:
		return fmt.Errorf("unknown change type: %s", req.ChangeType)
	}
}
