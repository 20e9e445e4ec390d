//go:build !(linux || darwin || freebsd || netbsd || openbsd)

package internal

import (
	"errors"
	"os"
)

const mmapSupported = false

func mapFile(*os.File, int64) ([]byte, error) {
	return nil, errors.ErrUnsupported
}

func unmapFile([]byte) error { return nil }
