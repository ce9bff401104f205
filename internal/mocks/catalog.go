package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/pageza/foodgram/backend/internal/service"
	"github.com/pageza/foodgram/backend/internal/types"
)

var _ service.ICatalogService = (*MockCatalogService)(nil)

// MockCatalogService is a testify mock of service.ICatalogService
type MockCatalogService struct {
	mock.Mock
}

func (m *MockCatalogService) ListTags(ctx context.Context) ([]types.TagResponse, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]types.TagResponse), args.Error(1)
}

func (m *MockCatalogService) GetTag(ctx context.Context, id uint) (*types.TagResponse, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.TagResponse), args.Error(1)
}

func (m *MockCatalogService) CreateTag(ctx context.Context, viewer types.Viewer, req *types.CreateTagRequest) (*types.TagResponse, error) {
	args := m.Called(ctx, viewer, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.TagResponse), args.Error(1)
}

func (m *MockCatalogService) SearchIngredients(ctx context.Context, name string) ([]types.IngredientResponse, error) {
	args := m.Called(ctx, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]types.IngredientResponse), args.Error(1)
}

func (m *MockCatalogService) GetIngredient(ctx context.Context, id uint) (*types.IngredientResponse, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.IngredientResponse), args.Error(1)
}

func (m *MockCatalogService) CreateIngredient(ctx context.Context, viewer types.Viewer, req *types.CreateIngredientRequest) (*types.IngredientResponse, error) {
	args := m.Called(ctx, viewer, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.IngredientResponse), args.Error(1)
}
