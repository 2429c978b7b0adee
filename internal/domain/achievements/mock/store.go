package mock

import (
	context "context"
	reflect "reflect"
	time "time"

	gomock "go.uber.org/mock/gomock"
)

// MockStore is a mock of Store interface.
type MockStore struct {
	ctrl     *gomock.Controller
	recorder *MockStoreMockRecorder
	isgomock struct{}
}

// MockStoreMockRecorder is the mock recorder for MockStore.
type MockStoreMockRecorder struct {
	mock *MockStore
}

// NewMockStore creates a new mock instance.
func NewMockStore(ctrl *gomock.Controller) *MockStore {
	mock := &MockStore{ctrl: ctrl}
	mock.recorder = &MockStoreMockRecorder{mock}
	return mock
}

// EXPECT returns an object that allows the caller to indicate expected use.
func (m *MockStore) EXPECT() *MockStoreMockRecorder {
	return m.recorder
}

// Achieve mocks base method.
func (m *MockStore) Achieve(ctx context.Context, userID, threshold int64, epoch string, until time.Time) (bool, bool, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "Achieve", ctx, userID, threshold, epoch, until)
	ret0, _ := ret[0].(bool)
	ret1, _ := ret[1].(bool)
	ret2, _ := ret[2].(error)
	return ret0, ret1, ret2
}

// Achieve indicates an expected call of Achieve.
func (mr *MockStoreMockRecorder) Achieve(ctx, userID, threshold, epoch, until any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "Achieve", reflect.TypeOf((*MockStore)(nil).Achieve), ctx, userID, threshold, epoch, until)
}

// BoostExpiry mocks base method.
func (m *MockStore) BoostExpiry(ctx context.Context, userID int64, epoch string) (time.Time, bool, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "BoostExpiry", ctx, userID, epoch)
	ret0, _ := ret[0].(time.Time)
	ret1, _ := ret[1].(bool)
	ret2, _ := ret[2].(error)
	return ret0, ret1, ret2
}

// BoostExpiry indicates an expected call of BoostExpiry.
func (mr *MockStoreMockRecorder) BoostExpiry(ctx, userID, epoch any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "BoostExpiry", reflect.TypeOf((*MockStore)(nil).BoostExpiry), ctx, userID, epoch)
}

// Reset mocks base method.
func (m *MockStore) Reset(ctx context.Context, before string) error {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "Reset", ctx, before)
	ret0, _ := ret[0].(error)
	return ret0
}

// Reset indicates an expected call of Reset.
func (mr *MockStoreMockRecorder) Reset(ctx, before any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "Reset", reflect.TypeOf((*MockStore)(nil).Reset), ctx, before)
}
