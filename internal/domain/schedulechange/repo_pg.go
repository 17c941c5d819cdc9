package schedulechange

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/clinova/clinova/internal/domain/scheduling"
	"github.com/clinova/clinova/internal/platform/db"
)

type queryable interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
}

type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository { return &repoPG{pool: pool} }

func (r *repoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const requestCols = `id, change_type, status, target_doctor_id, target_schedule_id,
	date, start_time, end_time, affected_doctor_ids, approved_doctor_ids,
	rejection_note, rejected_by, reason, created_at, updated_at, processed_at`

func scanRequest(row pgx.Row) (*ScheduleChangeRequest, error) {
	var (
		req              ScheduleChangeRequest
		date, start, end *time.Time
	)
	err := row.Scan(&req.ID, &req.ChangeType, &req.Status, &req.TargetDoctorID,
		&req.TargetScheduleID, &date, &start, &end,
		&req.AffectedDoctorIDs, &req.ApprovedDoctorIDs,
		&req.RejectionNote, &req.RejectedBy, &req.Reason,
		&req.CreatedAt, &req.UpdatedAt, &req.ProcessedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("schedule change request: %w", scheduling.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	if start != nil && end != nil {
		iv := scheduling.TimeInterval{Start: *start, End: *end}
		if date != nil {
			iv.Date = *date
		}
		req.Interval = &iv
	}
	return &req, nil
}

func intervalColumns(iv *scheduling.TimeInterval) (date, start, end interface{}) {
	if iv == nil {
		return nil, nil, nil
	}
	return iv.Day(), iv.Start, iv.End
}

func (r *repoPG) Create(ctx context.Context, req *ScheduleChangeRequest) error {
	if req.ID == uuid.Nil {
		req.ID = uuid.New()
	}
	date, start, end := intervalColumns(req.Interval)
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO schedule_change_request
			(id, change_type, status, target_doctor_id, target_schedule_id,
			 date, start_time, end_time, affected_doctor_ids, approved_doctor_ids,
			 reason)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)`,
		req.ID, req.ChangeType, req.Status, req.TargetDoctorID, req.TargetScheduleID,
		date, start, end, req.AffectedDoctorIDs, req.ApprovedDoctorIDs,
		req.Reason)
	return err
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*ScheduleChangeRequest, error) {
	return scanRequest(r.conn(ctx).QueryRow(ctx,
		`SELECT `+requestCols+` FROM schedule_change_request WHERE id = $1`, id))
}

func (r *repoPG) Update(ctx context.Context, req *ScheduleChangeRequest) error {
	date, start, end := intervalColumns(req.Interval)
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE schedule_change_request
		SET change_type=$2, status=$3, target_doctor_id=$4, target_schedule_id=$5,
			date=$6, start_time=$7, end_time=$8, affected_doctor_ids=$9,
			approved_doctor_ids=$10, rejection_note=$11, rejected_by=$12,
			reason=$13, processed_at=$14, updated_at=NOW()
		WHERE id = $1`,
		req.ID, req.ChangeType, req.Status, req.TargetDoctorID, req.TargetScheduleID, date, start, end,
		req.AffectedDoctorIDs, req.ApprovedDoctorIDs,
		req.RejectionNote, req.RejectedBy, req.Reason, req.ProcessedAt)
	return err
}

func (r *repoPG) FindPendingByDoctorAndDate(ctx context.Context, doctorID uuid.UUID, date time.Time) ([]*ScheduleChangeRequest, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT `+requestCols+` FROM schedule_change_request
		WHERE target_doctor_id = $1 AND date = $2 AND status = $3
		ORDER BY created_at`,
		doctorID, date, StatusPending)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []*ScheduleChangeRequest
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, req)
	}
	return items, rows.Err()
}

func (r *repoPG) List(ctx context.Context, filter Filter, limit, offset int) ([]*ScheduleChangeRequest, int, error) {
	where := ` WHERE 1=1`
	var args []interface{}
	idx := 1
	if filter.DoctorID != uuid.Nil {
		where += fmt.Sprintf(` AND target_doctor_id = $%d`, idx)
		args = append(args, filter.DoctorID)
		idx++
	}
	if filter.Status != "" {
		where += fmt.Sprintf(` AND status = $%d`, idx)
		args = append(args, filter.Status)
		idx++
	}

	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM schedule_change_request`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `SELECT ` + requestCols + ` FROM schedule_change_request` + where +
		fmt.Sprintf(` ORDER BY created_at DESC LIMIT $%d OFFSET $%d`, idx, idx+1)
	args = append(args, limit, offset)
	rows, err := r.conn(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*ScheduleChangeRequest
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, req)
	}
	return items, total, rows.Err()
}
