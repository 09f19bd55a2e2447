package kernel

import "errors"

var (
	// ErrUnavailable reports a selector with no implementation in this build.
	ErrUnavailable = errors.New("kernel unavailable")
	// ErrUnsupported reports a launch shape the selected kernel cannot run.
	ErrUnsupported = errors.New("kernel does not support configuration")
	// ErrLaunch reports launch buffers that disagree with the declared shape.
	ErrLaunch = errors.New("invalid kernel launch")
)
