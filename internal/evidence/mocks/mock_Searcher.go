// Package mocks provides test doubles for the evidence searcher.
package mocks

import (
	"context"

	model "github.com/sells-group/factcheck/internal/model"
	mock "github.com/stretchr/testify/mock"
)

// MockSearcher is a mock type for the Searcher interface.
type MockSearcher struct {
	mock.Mock
}

// Search provides a mock function with given fields: ctx, query
func (_m *MockSearcher) Search(ctx context.Context, query string) ([]model.EvidenceItem, error) {
	ret := _m.Called(ctx, query)

	if len(ret) == 0 {
		panic("no return value specified for Search")
	}

	var r0 []model.EvidenceItem
	var r1 error
	if rf, ok := ret.Get(0).(func(context.Context, string) ([]model.EvidenceItem, error)); ok {
		return rf(ctx, query)
	}
	if rf, ok := ret.Get(0).(func(context.Context, string) []model.EvidenceItem); ok {
		r0 = rf(ctx, query)
	} else {
		if ret.Get(0) != nil {
			r0 = ret.Get(0).([]model.EvidenceItem)
		}
	}

	if rf, ok := ret.Get(1).(func(context.Context, string) error); ok {
		r1 = rf(ctx, query)
	} else {
		r1 = ret.Error(1)
	}

	return r0, r1
}

// NewMockSearcher creates a new instance of MockSearcher.
func NewMockSearcher(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockSearcher {
	mock := &MockSearcher{}
	mock.Test(t)

	t.Cleanup(func() { mock.AssertExpectations(t) })

	return mock
}
