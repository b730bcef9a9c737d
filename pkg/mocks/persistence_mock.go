package mocks

import (
	"context"

	"github.com/dukex/wflguard/pkg/persistence"
	"github.com/stretchr/testify/mock"
)

// MockVerdictSink is a mock implementation of persistence.VerdictSink interface.
type MockVerdictSink struct {
	mock.Mock
}

func (m *MockVerdictSink) Write(ctx context.Context, record persistence.Record) error {
	args := m.Called(ctx, record)

	return args.Error(0)
}

func (m *MockVerdictSink) HealthCheck(ctx context.Context) error {
	args := m.Called(ctx)

	return args.Error(0)
}

func (m *MockVerdictSink) Close(ctx context.Context) error {
	args := m.Called(ctx)

	return args.Error(0)
}
