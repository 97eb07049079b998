package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	repository "github.com/venuedesk/backend/internal/database/postgres"
	"github.com/venuedesk/backend/internal/entity"
)

// CreateLayoutRequest holds a new floor-plan template. Items carry positions
// and table limits but no bookings; those belong to per-event copies.
type CreateLayoutRequest struct {
	Name  string             `json:"name" binding:"required,min=1,max=255"`
	Items []entity.TableItem `json:"items" binding:"required,min=1"`
}

type CreateReferenceRequest struct {
	Name string `json:"name" binding:"required,min=1,max=255"`
}

// ReferenceService manages the company-scoped lookup tables events resolve
// against: layouts, categories, club cards and genres.
type ReferenceService interface {
	CreateLayout(ctx context.Context, companyID string, req *CreateLayoutRequest) (*entity.Layout, error)
	GetLayout(ctx context.Context, companyID, layoutID string) (*entity.Layout, error)
	DeleteLayout(ctx context.Context, companyID, layoutID string) error

	CreateValue(ctx context.Context, companyID string, kind entity.ReferenceKind, req *CreateReferenceRequest) (*entity.Reference, error)
	DeleteValue(ctx context.Context, companyID string, kind entity.ReferenceKind, id string) error
}

type referenceService struct {
	refs repository.ReferenceRepository
}

func NewReferenceService(refs repository.ReferenceRepository) ReferenceService {
	return &referenceService{refs: refs}
}

func (s *referenceService) CreateLayout(ctx context.Context, companyID string, req *CreateLayoutRequest) (*entity.Layout, error) {
	if _, err := s.refs.GetCompany(ctx, companyID); err != nil {
		return nil, err
	}
	if strings.TrimSpace(req.Name) == "" {
		return nil, entity.NewValidationError("name", "layout name is required")
	}
	if len(req.Items) == 0 {
		return nil, entity.NewValidationError("items", "layout needs at least one item")
	}

	layout := &entity.Layout{
		ID:        uuid.NewString(),
		CompanyID: companyID,
		Name:      req.Name,
		Items:     req.Items,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.refs.CreateLayout(ctx, layout); err != nil {
		return nil, err
	}
	return layout, nil
}

func (s *referenceService) GetLayout(ctx context.Context, companyID, layoutID string) (*entity.Layout, error) {
	if _, err := s.refs.GetCompany(ctx, companyID); err != nil {
		return nil, err
	}
	return s.refs.GetLayout(ctx, companyID, layoutID)
}

func (s *referenceService) DeleteLayout(ctx context.Context, companyID, layoutID string) error {
	if _, err := s.refs.GetCompany(ctx, companyID); err != nil {
		return err
	}
	return s.refs.DeleteLayout(ctx, companyID, layoutID)
}

func (s *referenceService) CreateValue(ctx context.Context, companyID string, kind entity.ReferenceKind, req *CreateReferenceRequest) (*entity.Reference, error) {
	if _, err := s.refs.GetCompany(ctx, companyID); err != nil {
		return nil, err
	}
	if strings.TrimSpace(req.Name) == "" {
		return nil, entity.NewValidationError("name", "name is required")
	}

	ref := &entity.Reference{ID: uuid.NewString(), Name: req.Name}
	if err := s.refs.CreateValue(ctx, kind, ref, companyID); err != nil {
		return nil, err
	}
	return ref, nil
}

func (s *referenceService) DeleteValue(ctx context.Context, companyID string, kind entity.ReferenceKind, id string) error {
	if _, err := s.refs.GetCompany(ctx, companyID); err != nil {
		return err
	}
	return s.refs.DeleteValue(ctx, kind, companyID, id)
}
