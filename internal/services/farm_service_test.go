package services

import (
	"context"
	"sort"
	"testing"

	"bantayani/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeFarmStore struct {
	farms map[uuid.UUID]map[int]models.Farm
}

func (f *fakeFarmStore) ListByFarmer(_ context.Context, farmerID uuid.UUID) ([]models.Farm, error) {
	var out []models.Farm
	for _, farm := range f.farms[farmerID] {
		out = append(out, farm)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Slot < out[j].Slot })
	return out, nil
}

func (f *fakeFarmStore) Upsert(_ context.Context, farm *models.Farm) (*models.Farm, error) {
	if f.farms == nil {
		f.farms = map[uuid.UUID]map[int]models.Farm{}
	}
	if f.farms[farm.FarmerID] == nil {
		f.farms[farm.FarmerID] = map[int]models.Farm{}
	}
	f.farms[farm.FarmerID][farm.Slot] = *farm
	cp := *farm
	return &cp, nil
}

func (f *fakeFarmStore) Delete(_ context.Context, farmerID uuid.UUID, slot int) error {
	if _, ok := f.farms[farmerID][slot]; !ok {
		return models.ErrNotFound
	}
	delete(f.farms[farmerID], slot)
	return nil
}

func TestFarmService_SaveListDelete(t *testing.T) {
	store := &fakeFarmStore{}
	changes := &recordingChanges{}
	svc := NewFarmService(store, changes)
	ctx := context.Background()
	farmer := models.Caller{UserID: uuid.New(), Role: models.RoleFarmer}

	farm, err := svc.Save(ctx, farmer, 2, models.FarmUpsertRequest{
		Name:      strPtr("  Lower paddy "),
		Address:   strPtr(" "),
		Latitude:  floatPtr(15.1),
		Longitude: floatPtr(120.6),
	})
	require.NoError(t, err)
	require.NotNil(t, farm.Name)
	assert.Equal(t, "Lower paddy", *farm.Name)
	assert.Nil(t, farm.Address)

	_, err = svc.Save(ctx, farmer, 2, models.FarmUpsertRequest{Name: strPtr("Renamed")})
	require.NoError(t, err)

	list, err := svc.List(ctx, farmer)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Renamed", *list[0].Name)

	require.NoError(t, svc.Delete(ctx, farmer, 2))
	assert.ErrorIs(t, svc.Delete(ctx, farmer, 2), models.ErrNotFound)
	assert.Equal(t, []string{models.TableFarms, models.TableFarms, models.TableFarms}, changes.tables)
}

func TestFarmService_Validation(t *testing.T) {
	svc := NewFarmService(&fakeFarmStore{}, nil)
	ctx := context.Background()
	farmer := models.Caller{UserID: uuid.New(), Role: models.RoleFarmer}

	_, err := svc.Save(ctx, farmer, 4, models.FarmUpsertRequest{})
	assert.ErrorIs(t, err, models.ErrValidation)
	_, err = svc.Save(ctx, farmer, 1, models.FarmUpsertRequest{Latitude: floatPtr(10)})
	assert.ErrorIs(t, err, models.ErrValidation)
	_, err = svc.Save(ctx, farmer, 1, models.FarmUpsertRequest{Latitude: floatPtr(91), Longitude: floatPtr(0)})
	assert.ErrorIs(t, err, models.ErrValidation)

	admin := models.Caller{UserID: uuid.New(), Role: models.RoleLGUAdmin}
	_, err = svc.List(ctx, admin)
	assert.ErrorIs(t, err, models.ErrForbidden)
}
