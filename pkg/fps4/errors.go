package fps4

import "errors"

var (
	ErrNameTooLong = errors.New("name does not fit the 32-byte descriptor field")
	ErrNoFiles     = errors.New("no files to pack")
	ErrStop        = errors.New("stop walking")
)
