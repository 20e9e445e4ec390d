package internal

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"os"
	"sync"
	"time"
	"unicode/utf8"

	"WordlistGrep/internal/scanner"

	"github.com/coregx/coregex/simd"
	"github.com/sirupsen/logrus"
)

// Wordlist searches the lines of one file it owns.
//
// The read position is NOT rewound between searches: each search scans from
// where the previous one stopped, so a second search right after a full scan
// sees nothing. Call Rewind to search the whole file again.
//
// Searches are serialized; a Wordlist may be shared between goroutines but
// never searches concurrently.
type Wordlist struct {
	mu       sync.Mutex
	file     *os.File
	path     string
	opts     Options
	offset   int64 // bytes before the next unread byte
	lineBase int   // lines consumed since construction or the last Rewind
	last     Strategy
	closed   bool
}

var _ scanner.Searcher = (*Wordlist)(nil)

// Open opens path with DefaultOptions.
func Open(path string) (*Wordlist, error) {
	return OpenWithOptions(path, DefaultOptions())
}

// OpenWithOptions opens path for searching.
func OpenWithOptions(path string, opts Options) (*Wordlist, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, newError("open", path, ErrFileNotFound, err)
		}
		return nil, newError("open", path, ErrIO, err)
	}
	w, err := FromFileWithOptions(f, opts)
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	return w, nil
}

// FromFile adopts an open file with DefaultOptions.
func FromFile(f *os.File) (*Wordlist, error) {
	return FromFileWithOptions(f, DefaultOptions())
}

// FromFileWithOptions adopts f; the Wordlist closes it on Close. Scanning
// starts at f's current position, which is also line 1.
func FromFileWithOptions(f *os.File, opts Options) (*Wordlist, error) {
	if f == nil {
		return nil, newError("open", "", ErrIO, os.ErrInvalid)
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	opts.Prepare()

	w := &Wordlist{file: f, path: f.Name(), opts: opts}
	// pipes and other unseekable handles start at 0
	if pos, err := f.Seek(0, io.SeekCurrent); err == nil {
		w.offset = pos
	}
	logrus.WithFields(logrus.Fields{
		"file":   w.path,
		"offset": w.offset,
		"mmap":   opts.Mmap,
	}).Debug("Wordlist opened")
	return w, nil
}

// Search returns every remaining line matching the regular expression
// pattern, in file order.
func (w *Wordlist) Search(pattern string) ([]string, error) {
	lines, err := w.SearchLines(context.Background(), pattern)
	if err != nil {
		return nil, err
	}
	return scanner.Texts(lines), nil
}

// SearchContext is Search with cancellation checked between lines.
func (w *Wordlist) SearchContext(ctx context.Context, pattern string) ([]string, error) {
	lines, err := w.SearchLines(ctx, pattern)
	if err != nil {
		return nil, err
	}
	return scanner.Texts(lines), nil
}

// SearchLines is Search with line numbers. Numbers continue across
// searches that do not rewind.
func (w *Wordlist) SearchLines(ctx context.Context, pattern string) ([]scanner.Line, error) {
	p, err := CompilePattern(pattern)
	if err != nil {
		if se, ok := err.(*SearchError); ok {
			se.Op, se.Path = "search", w.path
		}
		return nil, err
	}
	return w.SearchPattern(ctx, p)
}

// SearchPattern scans the remaining lines with an already compiled pattern.
// On any failure the partial result is discarded.
func (w *Wordlist) SearchPattern(ctx context.Context, p Pattern) ([]scanner.Line, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return nil, newError("search", w.path, ErrIO, ErrClosed)
	}
	if err := ctx.Err(); err != nil {
		return nil, newError("search", w.path, ErrIO, err)
	}

	info, err := w.file.Stat()
	if err != nil {
		return nil, newError("search", w.path, ErrIO, err)
	}
	strategy := ChooseStrategy(w.opts.Mmap, info, w.offset, w.opts.MmapThreshold)

	start := time.Now()
	var (
		matches []scanner.Line
		lineNum = w.lineBase
	)
	visit := func(line []byte) error {
		lineNum++
		if lineNum&0x3ff == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}
		if !p.Match(trimTerminator(line)) {
			return nil
		}
		if !validText(line) {
			return &SearchError{Op: "search", Path: w.path, Line: lineNum, Kind: ErrEncoding}
		}
		matches = append(matches, scanner.Line{Number: lineNum, Text: string(line)})
		return nil
	}

	var consumed int64
	if strategy == StrategyMmap {
		consumed, err = w.scanMapped(info.Size(), visit)
	} else {
		consumed, err = newBufferedSource(w.file, w.opts.BufferSize).each(visit)
	}
	w.last = strategy
	if err != nil {
		w.restore()
		var se *SearchError
		if errors.As(err, &se) {
			return nil, se
		}
		return nil, newError("search", w.path, ErrIO, err)
	}
	w.offset += consumed
	w.lineBase = lineNum

	logrus.WithFields(logrus.Fields{
		"file":     w.path,
		"pattern":  p.Desc(),
		"strategy": strategy,
		"bytes":    consumed,
		"matches":  len(matches),
		"elapsed":  time.Since(start),
	}).Debug("Search finished")
	return matches, nil
}

func (w *Wordlist) scanMapped(size int64, fn func([]byte) error) (int64, error) {
	consumed, err := scanMapped(w.file, w.offset, size, fn)
	if err != nil {
		return consumed, err
	}
	// a file that shrank while mapped may have been read past its new end
	info, err := w.file.Stat()
	if err != nil {
		return consumed, err
	}
	if info.Size() < size {
		return consumed, errors.New("file truncated during scan")
	}
	// leave the handle where a buffered read would have
	if _, err := w.file.Seek(w.offset+consumed, io.SeekStart); err != nil {
		return consumed, err
	}
	return consumed, nil
}

// restore moves the handle back to where the failed scan started, so the
// next search sees the same lines again. Handles that cannot seek keep
// whatever position the read left them at.
func (w *Wordlist) restore() {
	if _, err := w.file.Seek(w.offset, io.SeekStart); err == nil {
		return
	}
	if pos, err := w.file.Seek(0, io.SeekCurrent); err == nil {
		w.offset = pos
	}
}

// Rewind moves back to the start of the file and restarts line numbering.
func (w *Wordlist) Rewind() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return newError("rewind", w.path, ErrIO, ErrClosed)
	}
	if _, err := w.file.Seek(0, io.SeekStart); err != nil {
		return newError("rewind", w.path, ErrIO, err)
	}
	w.offset = 0
	w.lineBase = 0
	return nil
}

// Offset reports the position the next search starts from.
func (w *Wordlist) Offset() int64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.offset
}

// Strategy reports the access strategy of the last search.
func (w *Wordlist) Strategy() Strategy {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.last
}

// Path returns the name of the underlying file.
func (w *Wordlist) Path() string { return w.path }

// Close releases the file. Closing twice is a no-op.
func (w *Wordlist) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return nil
	}
	w.closed = true
	if err := w.file.Close(); err != nil {
		return newError("close", w.path, ErrIO, err)
	}
	return nil
}

// trimTerminator strips the trailing newline so that $ anchors at the end
// of the line text.
func trimTerminator(line []byte) []byte {
	if n := len(line); n > 0 && line[n-1] == '\n' {
		return line[:n-1]
	}
	return line
}

func validText(line []byte) bool {
	return simd.IsASCII(line) || utf8.Valid(line)
}
