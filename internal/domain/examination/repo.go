package examination

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var ErrNotFound = errors.New("examination not found")

type Repository interface {
	Create(ctx context.Context, e *MedicalExamination) error
	GetByID(ctx context.Context, id uuid.UUID) (*MedicalExamination, error)
	GetByCode(ctx context.Context, code string) (*MedicalExamination, error)
	List(ctx context.Context, limit, offset int) ([]*MedicalExamination, int, error)
}
