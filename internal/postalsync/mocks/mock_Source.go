// Package mocks provides test doubles for the postalsync engine.
package mocks

import (
	"context"

	mock "github.com/stretchr/testify/mock"

	dawa "github.com/sells-group/dawa-cli/internal/dawa"
)

// MockSource is a mock type for the Source interface.
type MockSource struct {
	mock.Mock
}

// PostalCodes provides a mock function with given fields: ctx
func (_m *MockSource) PostalCodes(ctx context.Context) ([]dawa.PostalCodeRecord, error) {
	ret := _m.Called(ctx)

	if len(ret) == 0 {
		panic("no return value specified for PostalCodes")
	}

	var r0 []dawa.PostalCodeRecord
	var r1 error
	if rf, ok := ret.Get(0).(func(context.Context) ([]dawa.PostalCodeRecord, error)); ok {
		return rf(ctx)
	}
	if rf, ok := ret.Get(0).(func(context.Context) []dawa.PostalCodeRecord); ok {
		r0 = rf(ctx)
	} else {
		if ret.Get(0) != nil {
			r0 = ret.Get(0).([]dawa.PostalCodeRecord)
		}
	}

	if rf, ok := ret.Get(1).(func(context.Context) error); ok {
		r1 = rf(ctx)
	} else {
		r1 = ret.Error(1)
	}

	return r0, r1
}

// NewMockSource creates a new instance of MockSource.
func NewMockSource(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockSource {
	mock := &MockSource{}
	mock.Test(t)

	t.Cleanup(func() { mock.AssertExpectations(t) })

	return mock
}
