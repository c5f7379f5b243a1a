package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/pkthom/japanese-conjugation-search/internal/model"
)

type MockSource struct {
	mock.Mock
}

func (m *MockSource) Name() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockSource) Load(ctx context.Context) (*model.Table, error) {
	args := m.Called(ctx)
	var t *model.Table
	if v := args.Get(0); v != nil {
		t = v.(*model.Table)
	}
	return t, args.Error(1)
}
