package schedulechange

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/clinova/clinova/internal/domain/scheduling"
)

// PendingSource adapts the request store to the conflict checker's
// PendingIntervalSource. DELETE requests never conflict and are skipped.
type PendingSource struct {
	repo Repository
}

func NewPendingSource(repo Repository) *PendingSource {
	return &PendingSource{repo: repo}
}

func (p *PendingSource) PendingIntervals(ctx context.Context, doctorID uuid.UUID, date time.Time, excludeRequestID uuid.UUID) ([]scheduling.TimeInterval, error) {
	requests, err := p.repo.FindPendingByDoctorAndDate(ctx, doctorID, date)
	if err != nil {
		return nil, err
	}
	var intervals []scheduling.TimeInterval
	for _, r := range requests {
		if r.ID == excludeRequestID || r.ChangeType == ChangeDelete || r.Interval == nil {
			continue
		}
		intervals = append(intervals, *r.Interval)
	}
	return intervals, nil
}
