package testing

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/imamik/surfspot/internal/change"
	"github.com/imamik/surfspot/internal/configure"
	"github.com/imamik/surfspot/internal/workspace"
)

// MockProvider is a testify mock of workspace.Provider.
type MockProvider struct {
	mock.Mock
}

// Create records the call and returns the configured record.
func (m *MockProvider) Create(ctx context.Context, req workspace.Request) (*workspace.Record, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*workspace.Record), args.Error(1)
}

// Get records the call and returns the configured record.
func (m *MockProvider) Get(ctx context.Context, id string) (*workspace.Record, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*workspace.Record), args.Error(1)
}

// FindByName records the call and returns the configured record.
func (m *MockProvider) FindByName(ctx context.Context, name string) (*workspace.Record, error) {
	args := m.Called(ctx, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*workspace.Record), args.Error(1)
}

// Delete records the call.
func (m *MockProvider) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockDetector is a testify mock of change.Detector.
type MockDetector struct {
	mock.Mock
}

// Detect records the call and returns the configured token.
func (m *MockDetector) Detect(ctx context.Context) (change.Token, error) {
	args := m.Called(ctx)
	return change.Token(args.String(0)), args.Error(1)
}

// MockConfigurator is a testify mock of configure.Configurator.
type MockConfigurator struct {
	mock.Mock
}

// Configure records the call.
func (m *MockConfigurator) Configure(ctx context.Context, target configure.Target) error {
	args := m.Called(ctx, target)
	return args.Error(0)
}
