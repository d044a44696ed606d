package mocks

import (
	"github.com/stretchr/testify/mock"
	"github.com/vytor/boxhunt/internal/search"
)

// MockJobQueue is a mock implementation of jobs.JobQueue
type MockJobQueue struct {
	mock.Mock
}

func (m *MockJobQueue) EnqueueAutoSearch(widgetID string, run *search.Run) error {
	args := m.Called(widgetID, run)
	return args.Error(0)
}
