package service

import (
	"context"
	"fmt"

	repository "github.com/venuedesk/backend/internal/database/postgres"
	"github.com/venuedesk/backend/internal/entity"
)

// referenceResolver turns the id lists of a create or update request into
// (id, name) reference pairs, failing on the first id that does not belong to
// the company.
type referenceResolver struct {
	repo repository.ReferenceRepository
}

func newReferenceResolver(repo repository.ReferenceRepository) *referenceResolver {
	return &referenceResolver{repo: repo}
}

func (r *referenceResolver) resolve(ctx context.Context, companyID string, kind entity.ReferenceKind, ids []string) ([]entity.Reference, error) {
	if len(ids) == 0 {
		return []entity.Reference{}, nil
	}
	refs, err := r.repo.GetNames(ctx, companyID, kind, ids)
	if err != nil {
		return nil, fmt.Errorf("resolve %s references: %w", kind, err)
	}
	return refs, nil
}

// resolvedRefs holds every reference group a create request can carry.
type resolvedRefs struct {
	Layouts    []entity.Reference
	Categories []entity.Reference
	ClubCards  []entity.Reference
	Genres     []entity.Reference
}

func (r *referenceResolver) resolveAll(ctx context.Context, companyID string, req *CreateEventRequest) (*resolvedRefs, error) {
	out := &resolvedRefs{}
	var err error
	if out.Layouts, err = r.resolve(ctx, companyID, entity.ReferenceLayout, req.TableLayouts); err != nil {
		return nil, err
	}
	if out.Categories, err = r.resolve(ctx, companyID, entity.ReferenceCategory, req.Categories); err != nil {
		return nil, err
	}
	if out.ClubCards, err = r.resolve(ctx, companyID, entity.ReferenceClubCard, req.ClubCardIDs); err != nil {
		return nil, err
	}
	if out.Genres, err = r.resolve(ctx, companyID, entity.ReferenceGenre, req.EventGenre); err != nil {
		return nil, err
	}
	return out, nil
}
