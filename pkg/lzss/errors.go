package lzss

import "errors"

var ErrUnsupportedVariant = errors.New("unsupported LZSS variant")
