package input

import "errors"

// ErrClosed is returned by waits on a closed input source.
var ErrClosed = errors.New("input closed")
