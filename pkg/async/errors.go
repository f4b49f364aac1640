package async

import "errors"

var (
	// ErrTimeout indicates the wait expired before the future completed
	ErrTimeout = errors.New("async.timeout")
)
