package examination

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) Create(ctx context.Context, e *MedicalExamination) error {
	if strings.TrimSpace(e.Code) == "" {
		return fmt.Errorf("code is required")
	}
	if strings.TrimSpace(e.Name) == "" {
		return fmt.Errorf("name is required")
	}
	if e.DurationMinutes <= 0 {
		e.DurationMinutes = 30
	}
	// The online-consultation service is online by definition.
	if e.Code == OnlineConsultationCode {
		e.Online = true
	}
	return s.repo.Create(ctx, e)
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*MedicalExamination, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) GetByCode(ctx context.Context, code string) (*MedicalExamination, error) {
	return s.repo.GetByCode(ctx, code)
}

func (s *Service) List(ctx context.Context, limit, offset int) ([]*MedicalExamination, int, error) {
	return s.repo.List(ctx, limit, offset)
}
