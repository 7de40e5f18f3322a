package mocks

import (
	"reflect"

	"github.com/golang/mock/gomock"

	"github.com/farcloser/framegrab"
)

// MockImageWriter is a mock of the framegrab.ImageWriter interface.
type MockImageWriter struct {
	ctrl     *gomock.Controller
	recorder *MockImageWriterMockRecorder
}

// MockImageWriterMockRecorder is the mock recorder for MockImageWriter.
type MockImageWriterMockRecorder struct {
	mock *MockImageWriter
}

// NewMockImageWriter creates a new mock instance.
func NewMockImageWriter(ctrl *gomock.Controller) *MockImageWriter {
	mock := &MockImageWriter{ctrl: ctrl}
	mock.recorder = &MockImageWriterMockRecorder{mock}

	return mock
}

// EXPECT returns an object that allows the caller to indicate expected use.
func (m *MockImageWriter) EXPECT() *MockImageWriterMockRecorder {
	return m.recorder
}

// Write mocks base method.
func (m *MockImageWriter) Write(p framegrab.Picture, format framegrab.OutputFormat, path string) error {
	m.ctrl.T.Helper()

	ret := m.ctrl.Call(m, "Write", p, format, path)
	ret0, _ := ret[0].(error)

	return ret0
}

// Write indicates an expected call of Write.
func (mr *MockImageWriterMockRecorder) Write(p, format, path interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()

	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "Write",
		reflect.TypeOf((*MockImageWriter)(nil).Write), p, format, path)
}
