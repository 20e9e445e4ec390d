package internal

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"runtime/debug"
	"strings"

	"github.com/coregx/coregex/simd"
)

// Strategy is the way a scan reaches the file's bytes.
type Strategy int

const (
	StrategyBuffered Strategy = iota
	StrategyMmap
)

func (s Strategy) String() string {
	if s == StrategyMmap {
		return "mmap"
	}
	return "buffered"
}

// MmapPolicy controls when memory-mapping may be used.
type MmapPolicy int

const (
	MmapAuto MmapPolicy = iota
	MmapNever
	MmapAlways
)

func (p MmapPolicy) String() string {
	switch p {
	case MmapNever:
		return "never"
	case MmapAlways:
		return "always"
	default:
		return "auto"
	}
}

// ParseMmapPolicy parses auto, never or always.
func ParseMmapPolicy(s string) (MmapPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "auto":
		return MmapAuto, nil
	case "never":
		return MmapNever, nil
	case "always":
		return MmapAlways, nil
	}
	return MmapAuto, fmt.Errorf("unknown mmap policy %q (want auto, never or always)", s)
}

// ChooseStrategy picks how to read info's remaining bytes after offset.
// Non-regular files and platforms without mmap always get StrategyBuffered,
// whatever the policy says.
func ChooseStrategy(policy MmapPolicy, info os.FileInfo, offset, threshold int64) Strategy {
	return chooseStrategy(policy, info, offset, threshold, mmapSupported)
}

func chooseStrategy(policy MmapPolicy, info os.FileInfo, offset, threshold int64, supported bool) Strategy {
	if !supported || policy == MmapNever || info == nil || !info.Mode().IsRegular() {
		return StrategyBuffered
	}
	size := info.Size()
	if size > math.MaxInt || offset < 0 || offset >= size {
		return StrategyBuffered
	}
	if policy == MmapAlways || size-offset >= threshold {
		return StrategyMmap
	}
	return StrategyBuffered
}

// lineSource yields lines, terminator included, until the source is drained
// or fn fails. consumed counts the bytes handed to fn.
type lineSource interface {
	each(fn func(line []byte) error) (consumed int64, err error)
}

type bufferedSource struct {
	r *bufio.Reader
}

func newBufferedSource(r io.Reader, size int) *bufferedSource {
	return &bufferedSource{r: bufio.NewReaderSize(r, size)}
}

func (s *bufferedSource) each(fn func(line []byte) error) (int64, error) {
	var consumed int64
	for {
		line, err := s.r.ReadSlice('\n')
		if errors.Is(err, bufio.ErrBufferFull) {
			// line longer than the buffer: stitch it together
			long := append([]byte(nil), line...)
			for errors.Is(err, bufio.ErrBufferFull) {
				line, err = s.r.ReadSlice('\n')
				long = append(long, line...)
			}
			line = long
		}
		if len(line) > 0 {
			consumed += int64(len(line))
			if ferr := fn(line); ferr != nil {
				return consumed, ferr
			}
		}
		if err != nil {
			if err == io.EOF {
				return consumed, nil
			}
			return consumed, err
		}
	}
}

type mappedSource struct {
	data []byte
}

func (s *mappedSource) each(fn func(line []byte) error) (int64, error) {
	var consumed int64
	data := s.data
	for len(data) > 0 {
		var line []byte
		if i := simd.Memchr(data, '\n'); i >= 0 {
			line, data = data[:i+1], data[i+1:]
		} else {
			line, data = data, nil
		}
		consumed += int64(len(line))
		if err := fn(line); err != nil {
			return consumed, err
		}
	}
	return consumed, nil
}

// errMappedFault is returned when touching the mapping faulted, which
// happens when the file shrinks underneath it.
var errMappedFault = errors.New("fault reading mapped file")

// scanMapped maps f, walks the lines after offset and unmaps before
// returning.
func scanMapped(f *os.File, offset, size int64, fn func(line []byte) error) (consumed int64, err error) {
	data, err := mapFile(f, size)
	if err != nil {
		return 0, err
	}
	defer func() {
		if uerr := unmapFile(data); uerr != nil && err == nil {
			err = uerr
		}
	}()

	old := debug.SetPanicOnFault(true)
	defer debug.SetPanicOnFault(old)
	defer func() {
		if r := recover(); r != nil {
			if _, ok := r.(interface{ Addr() uintptr }); !ok {
				panic(r)
			}
			err = fmt.Errorf("%w: %v", errMappedFault, r)
		}
	}()

	src := &mappedSource{data: data[offset:]}
	return src.each(fn)
}
