package examination

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

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

const examCols = `id, code, name, online, duration_minutes, price_cents, created_at, updated_at`

func scanExamination(row pgx.Row) (*MedicalExamination, error) {
	var e MedicalExamination
	err := row.Scan(&e.ID, &e.Code, &e.Name, &e.Online, &e.DurationMinutes,
		&e.PriceCents, &e.CreatedAt, &e.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return &e, err
}

func (r *repoPG) Create(ctx context.Context, e *MedicalExamination) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO medical_examination (id, code, name, online, duration_minutes, price_cents)
		VALUES ($1,$2,$3,$4,$5,$6)`,
		e.ID, e.Code, e.Name, e.Online, e.DurationMinutes, e.PriceCents)
	return err
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*MedicalExamination, error) {
	return scanExamination(r.conn(ctx).QueryRow(ctx, `SELECT `+examCols+` FROM medical_examination WHERE id = $1`, id))
}

func (r *repoPG) GetByCode(ctx context.Context, code string) (*MedicalExamination, error) {
	return scanExamination(r.conn(ctx).QueryRow(ctx, `SELECT `+examCols+` FROM medical_examination WHERE code = $1`, code))
}

func (r *repoPG) List(ctx context.Context, limit, offset int) ([]*MedicalExamination, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM medical_examination`).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx, `SELECT `+examCols+` FROM medical_examination ORDER BY name LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*MedicalExamination
	for rows.Next() {
		e, err := scanExamination(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, e)
	}
	return items, total, rows.Err()
}
