package tlzc

import "errors"

var (
	ErrTruncated = errors.New("compressed stream truncated")
)
