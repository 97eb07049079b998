package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/venuedesk/backend/internal/entity"
)

func newReferenceServiceFixture() (ReferenceService, *fakeRefRepo) {
	refs := newFakeRefRepo()
	refs.companies["c1"] = &entity.Company{ID: "c1", Name: "Club One"}
	return NewReferenceService(refs), refs
}

func TestReferenceServiceLayoutLifecycle(t *testing.T) {
	svc, refs := newReferenceServiceFixture()
	ctx := context.Background()

	layout, err := svc.CreateLayout(ctx, "c1", &CreateLayoutRequest{
		Name: "Main floor",
		Items: []entity.TableItem{
			{ItemID: "t1", ItemType: "table", Shape: "circle", Label: "1", PosX: 10, PosY: 20},
			{ItemID: "t2", ItemType: "table", Shape: "square", Label: "2", PosX: 30, PosY: 20},
		},
	})
	require.NoError(t, err)
	assert.NotEmpty(t, layout.ID)
	assert.Equal(t, "c1", layout.CompanyID)
	assert.False(t, layout.CreatedAt.IsZero())

	got, err := svc.GetLayout(ctx, "c1", layout.ID)
	require.NoError(t, err)
	assert.Equal(t, "Main floor", got.Name)
	assert.Len(t, got.Items, 2)

	// the layout is resolvable by name once created
	names, err := refs.GetNames(ctx, "c1", entity.ReferenceLayout, []string{layout.ID})
	require.NoError(t, err)
	assert.Equal(t, "Main floor", names[0].Name)

	require.NoError(t, svc.DeleteLayout(ctx, "c1", layout.ID))
	_, err = svc.GetLayout(ctx, "c1", layout.ID)
	assert.ErrorIs(t, err, entity.ErrLayoutNotFound)
}

func TestReferenceServiceLayoutValidation(t *testing.T) {
	svc, _ := newReferenceServiceFixture()
	ctx := context.Background()

	_, err := svc.CreateLayout(ctx, "ghost", &CreateLayoutRequest{
		Name:  "Main floor",
		Items: []entity.TableItem{{ItemID: "t1", ItemType: "table", Shape: "circle"}},
	})
	assert.ErrorIs(t, err, entity.ErrCompanyNotFound)

	var validation *entity.ValidationError
	_, err = svc.CreateLayout(ctx, "c1", &CreateLayoutRequest{Name: "  ", Items: []entity.TableItem{{ItemID: "t1"}}})
	assert.ErrorAs(t, err, &validation)

	_, err = svc.CreateLayout(ctx, "c1", &CreateLayoutRequest{Name: "Empty"})
	assert.ErrorAs(t, err, &validation)
}

func TestReferenceServiceValues(t *testing.T) {
	svc, refs := newReferenceServiceFixture()
	ctx := context.Background()

	ref, err := svc.CreateValue(ctx, "c1", entity.ReferenceGenre, &CreateReferenceRequest{Name: "Techno"})
	require.NoError(t, err)
	assert.NotEmpty(t, ref.ID)

	names, err := refs.GetNames(ctx, "c1", entity.ReferenceGenre, []string{ref.ID})
	require.NoError(t, err)
	assert.Equal(t, "Techno", names[0].Name)

	require.NoError(t, svc.DeleteValue(ctx, "c1", entity.ReferenceGenre, ref.ID))
	_, err = refs.GetNames(ctx, "c1", entity.ReferenceGenre, []string{ref.ID})
	var notFound *entity.ReferenceNotFoundError
	assert.ErrorAs(t, err, &notFound)

	_, err = svc.CreateValue(ctx, "ghost", entity.ReferenceCategory, &CreateReferenceRequest{Name: "VIP"})
	assert.ErrorIs(t, err, entity.ErrCompanyNotFound)
}
