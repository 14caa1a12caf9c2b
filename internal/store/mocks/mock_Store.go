// Package mocks provides test doubles for the store package.
package mocks

import (
	"context"

	mock "github.com/stretchr/testify/mock"

	dawa "github.com/sells-group/dawa-cli/internal/dawa"
	store "github.com/sells-group/dawa-cli/internal/store"
)

// MockStore is a mock type for the Store interface.
type MockStore struct {
	mock.Mock
}

// Migrate provides a mock function with given fields: ctx
func (_m *MockStore) Migrate(ctx context.Context) error {
	ret := _m.Called(ctx)

	if len(ret) == 0 {
		panic("no return value specified for Migrate")
	}

	var r0 error
	if rf, ok := ret.Get(0).(func(context.Context) error); ok {
		r0 = rf(ctx)
	} else {
		r0 = ret.Error(0)
	}

	return r0
}

// Load provides a mock function with given fields: ctx, tables, mode
func (_m *MockStore) Load(ctx context.Context, tables *dawa.Tables, mode store.Mode) (*store.LoadResult, error) {
	ret := _m.Called(ctx, tables, mode)

	if len(ret) == 0 {
		panic("no return value specified for Load")
	}

	var r0 *store.LoadResult
	var r1 error
	if rf, ok := ret.Get(0).(func(context.Context, *dawa.Tables, store.Mode) (*store.LoadResult, error)); ok {
		return rf(ctx, tables, mode)
	}
	if rf, ok := ret.Get(0).(func(context.Context, *dawa.Tables, store.Mode) *store.LoadResult); ok {
		r0 = rf(ctx, tables, mode)
	} else {
		if ret.Get(0) != nil {
			r0 = ret.Get(0).(*store.LoadResult)
		}
	}

	if rf, ok := ret.Get(1).(func(context.Context, *dawa.Tables, store.Mode) error); ok {
		r1 = rf(ctx, tables, mode)
	} else {
		r1 = ret.Error(1)
	}

	return r0, r1
}

// Municipalities provides a mock function with given fields: ctx
func (_m *MockStore) Municipalities(ctx context.Context) ([]store.Municipality, error) {
	ret := _m.Called(ctx)

	if len(ret) == 0 {
		panic("no return value specified for Municipalities")
	}

	var r0 []store.Municipality
	var r1 error
	if rf, ok := ret.Get(0).(func(context.Context) ([]store.Municipality, error)); ok {
		return rf(ctx)
	}
	if rf, ok := ret.Get(0).(func(context.Context) []store.Municipality); ok {
		r0 = rf(ctx)
	} else {
		if ret.Get(0) != nil {
			r0 = ret.Get(0).([]store.Municipality)
		}
	}

	if rf, ok := ret.Get(1).(func(context.Context) error); ok {
		r1 = rf(ctx)
	} else {
		r1 = ret.Error(1)
	}

	return r0, r1
}

// Runs provides a mock function with given fields: ctx, limit
func (_m *MockStore) Runs(ctx context.Context, limit int) ([]store.Run, error) {
	ret := _m.Called(ctx, limit)

	if len(ret) == 0 {
		panic("no return value specified for Runs")
	}

	var r0 []store.Run
	var r1 error
	if rf, ok := ret.Get(0).(func(context.Context, int) ([]store.Run, error)); ok {
		return rf(ctx, limit)
	}
	if rf, ok := ret.Get(0).(func(context.Context, int) []store.Run); ok {
		r0 = rf(ctx, limit)
	} else {
		if ret.Get(0) != nil {
			r0 = ret.Get(0).([]store.Run)
		}
	}

	if rf, ok := ret.Get(1).(func(context.Context, int) error); ok {
		r1 = rf(ctx, limit)
	} else {
		r1 = ret.Error(1)
	}

	return r0, r1
}

// Close provides a mock function with no fields
func (_m *MockStore) Close() error {
	ret := _m.Called()

	if len(ret) == 0 {
		panic("no return value specified for Close")
	}

	var r0 error
	if rf, ok := ret.Get(0).(func() error); ok {
		r0 = rf()
	} else {
		r0 = ret.Error(0)
	}

	return r0
}

// NewMockStore creates a new instance of MockStore.
func NewMockStore(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockStore {
	mock := &MockStore{}
	mock.Test(t)

	t.Cleanup(func() { mock.AssertExpectations(t) })

	return mock
}
