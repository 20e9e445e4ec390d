package internal

import (
	"errors"
	"runtime"
	"time"
)

const (
	defaultMmapThreshold = 1 << 20
	defaultBufferSize    = 64 * 1024
	minBufferSize        = 16
)

// Options configure the scanning engine of a Wordlist. They are fixed once
// the Wordlist is built. BOM sniffing is always off and line numbers are
// always tracked.
type Options struct {
	Mmap          MmapPolicy
	MmapThreshold int64 // auto policy maps files with at least this many unread bytes; 0 means the default
	BufferSize    int   // read buffer for the buffered strategy
}

func DefaultOptions() Options {
	return Options{
		Mmap:          MmapAuto,
		MmapThreshold: defaultMmapThreshold,
		BufferSize:    defaultBufferSize,
	}
}

// Validate checks invariants.
func (o *Options) Validate() error {
	if o.Mmap < MmapAuto || o.Mmap > MmapAlways {
		return errors.New("unknown mmap policy")
	}
	if o.MmapThreshold < 0 {
		return errors.New("mmap-threshold must not be negative")
	}
	if o.BufferSize < 0 {
		return errors.New("buffer-size must not be negative")
	}
	return nil
}

// Prepare fills zero values with defaults.
func (o *Options) Prepare() {
	if o.MmapThreshold == 0 {
		o.MmapThreshold = defaultMmapThreshold
	}
	if o.BufferSize == 0 {
		o.BufferSize = defaultBufferSize
	}
	o.BufferSize = max(o.BufferSize, minBufferSize)
}

// RunOptions - public options from CLI.
type RunOptions struct {
	Files           []string
	Pattern         string
	Threads         int
	LineNumbers     bool
	Timeout         time.Duration
	SaveMatchesFile string
	Engine          Options
}

// Validate checks invariants.
func (o *RunOptions) Validate() error {
	if o.Pattern == "" {
		return errors.New("pattern is required")
	}
	if len(o.Files) == 0 {
		return errors.New("at least one file is required")
	}
	if o.Timeout < 0 {
		return errors.New("timeout must not be negative")
	}
	stdin := 0
	for _, f := range o.Files {
		if f == StdinPath {
			stdin++
		}
	}
	if stdin > 1 {
		return errors.New("standard input ('-') may be given only once")
	}
	return o.Engine.Validate()
}

// Prepare sets sensible defaults.
func (o *RunOptions) Prepare() {
	if o.Threads <= 0 {
		o.Threads = runtime.GOMAXPROCS(0)
	}
	o.Threads = min(o.Threads, max(len(o.Files), 1))
	o.Engine.Prepare()
}
