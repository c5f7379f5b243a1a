package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/pkthom/japanese-conjugation-search/internal/model"
	"github.com/pkthom/japanese-conjugation-search/internal/service"
)

type MockCatalog struct {
	mock.Mock
}

func (m *MockCatalog) Sections(ctx context.Context) ([]model.Section, error) {
	args := m.Called(ctx)
	var s []model.Section
	if v := args.Get(0); v != nil {
		s = v.([]model.Section)
	}
	return s, args.Error(1)
}

func (m *MockCatalog) Search(ctx context.Context, query string) ([]model.Section, error) {
	args := m.Called(ctx, query)
	var s []model.Section
	if v := args.Get(0); v != nil {
		s = v.([]model.Section)
	}
	return s, args.Error(1)
}

func (m *MockCatalog) BySlug(ctx context.Context, slug string) (*model.Section, error) {
	args := m.Called(ctx, slug)
	var s *model.Section
	if v := args.Get(0); v != nil {
		s = v.(*model.Section)
	}
	return s, args.Error(1)
}

func (m *MockCatalog) Status() service.Status {
	args := m.Called()
	return args.Get(0).(service.Status)
}

func (m *MockCatalog) Warm(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockCatalog) Invalidate() {
	m.Called()
}
