// Package mocks holds a hand-maintained gomock-style mock of
// h264.SliceDecoder, in the same MockGen shape bugVanisher-streamer's
// media/protocol/rtmp/mock_conn.go uses for its Conn mock: a struct
// embedding *gomock.Controller plus a recorder type for EXPECT().
package mocks

import (
	"image"
	"reflect"

	"github.com/golang/mock/gomock"

	"github.com/farcloser/framegrab/h264"
)

// MockSliceDecoder is a mock of the h264.SliceDecoder interface.
type MockSliceDecoder struct {
	ctrl     *gomock.Controller
	recorder *MockSliceDecoderMockRecorder
}

// MockSliceDecoderMockRecorder is the mock recorder for MockSliceDecoder.
type MockSliceDecoderMockRecorder struct {
	mock *MockSliceDecoder
}

// NewMockSliceDecoder creates a new mock instance.
func NewMockSliceDecoder(ctrl *gomock.Controller) *MockSliceDecoder {
	mock := &MockSliceDecoder{ctrl: ctrl}
	mock.recorder = &MockSliceDecoderMockRecorder{mock}

	return mock
}

// EXPECT returns an object that allows the caller to indicate expected use.
func (m *MockSliceDecoder) EXPECT() *MockSliceDecoderMockRecorder {
	return m.recorder
}

// DecodeIDR mocks base method.
func (m *MockSliceDecoder) DecodeIDR(nal []byte, sps *h264.SPS, pps *h264.PPS) (image.Image, error) {
	m.ctrl.T.Helper()

	ret := m.ctrl.Call(m, "DecodeIDR", nal, sps, pps)
	ret0, _ := ret[0].(image.Image)
	ret1, _ := ret[1].(error)

	return ret0, ret1
}

// DecodeIDR indicates an expected call of DecodeIDR.
func (mr *MockSliceDecoderMockRecorder) DecodeIDR(nal, sps, pps interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()

	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "DecodeIDR",
		reflect.TypeOf((*MockSliceDecoder)(nil).DecodeIDR), nal, sps, pps)
}
