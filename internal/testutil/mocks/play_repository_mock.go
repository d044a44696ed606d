package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"
	"github.com/vytor/boxhunt/internal/models"
)

// MockPlayRepository is a mock implementation of repository.PlayRepository
type MockPlayRepository struct {
	mock.Mock
}

func (m *MockPlayRepository) Insert(ctx context.Context, play models.Play) (int64, error) {
	args := m.Called(ctx, play)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockPlayRepository) List(ctx context.Context, filter models.PlayFilter) ([]models.Play, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Play), args.Error(1)
}

func (m *MockPlayRepository) Count(ctx context.Context, filter models.PlayFilter) (int, error) {
	args := m.Called(ctx, filter)
	return args.Int(0), args.Error(1)
}

func (m *MockPlayRepository) Summary(ctx context.Context, filter models.PlayFilter) (*models.PlaySummary, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.PlaySummary), args.Error(1)
}

func (m *MockPlayRepository) DeleteByWidget(ctx context.Context, widgetID string) (int64, error) {
	args := m.Called(ctx, widgetID)
	return args.Get(0).(int64), args.Error(1)
}
