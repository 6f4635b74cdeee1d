//go:build !opencl

package main

import "errors"

type openCLNarrowPhase struct{}

func newOpenCLNarrowPhase(circleCapacity int) (*openCLNarrowPhase, error) {
	return nil, errors.New("OpenCL support is not enabled; rebuild with -tags opencl")
}

func (s *openCLNarrowPhase) detect(circles *circleData, pairs [][2]int32, result *[]collision) error {
	return errors.New("OpenCL narrow phase unavailable")
}

func (s *openCLNarrowPhase) Close() {}

func (s *openCLNarrowPhase) DeviceName() string { return "" }
