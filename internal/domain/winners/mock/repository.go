package mock

import (
	context "context"
	reflect "reflect"

	winners "github.com/jkcommunity/jkbot/internal/domain/winners"
	gomock "go.uber.org/mock/gomock"
)

// MockRepository is a mock of Repository interface.
type MockRepository struct {
	ctrl     *gomock.Controller
	recorder *MockRepositoryMockRecorder
	isgomock struct{}
}

// MockRepositoryMockRecorder is the mock recorder for MockRepository.
type MockRepositoryMockRecorder struct {
	mock *MockRepository
}

// NewMockRepository creates a new mock instance.
func NewMockRepository(ctrl *gomock.Controller) *MockRepository {
	mock := &MockRepository{ctrl: ctrl}
	mock.recorder = &MockRepositoryMockRecorder{mock}
	return mock
}

// EXPECT returns an object that allows the caller to indicate expected use.
func (m *MockRepository) EXPECT() *MockRepositoryMockRecorder {
	return m.recorder
}

// History mocks base method.
func (m *MockRepository) History(ctx context.Context, limit int) ([]winners.Winner, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "History", ctx, limit)
	ret0, _ := ret[0].([]winners.Winner)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

// History indicates an expected call of History.
func (mr *MockRepositoryMockRecorder) History(ctx, limit any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "History", reflect.TypeOf((*MockRepository)(nil).History), ctx, limit)
}

// Record mocks base method.
func (m *MockRepository) Record(ctx context.Context, w *winners.Winner) (bool, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "Record", ctx, w)
	ret0, _ := ret[0].(bool)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

// Record indicates an expected call of Record.
func (mr *MockRepositoryMockRecorder) Record(ctx, w any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "Record", reflect.TypeOf((*MockRepository)(nil).Record), ctx, w)
}
