package internal

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"sync"

	"WordlistGrep/internal/scanner"

	"github.com/panjf2000/ants/v2"
	"github.com/sirupsen/logrus"
)

// StdinPath is the file argument that stands for standard input.
const StdinPath = "-"

// FileResult is the outcome of searching one file.
type FileResult struct {
	Path     string
	Lines    []scanner.Line
	Strategy Strategy
	Error    error
}

// NewResultSink returns a closure printing matches to out and updating
// stats. Matched lines are also appended to opts.SaveMatchesFile when set.
func NewResultSink(out io.Writer, opts RunOptions, stats *AppStats) func(FileResult) {
	stats.Start()
	multi := len(opts.Files) > 1
	var mu sync.Mutex

	return func(res FileResult) {
		mu.Lock()
		defer mu.Unlock()

		stats.FilesSearched.Add(1)
		if res.Error != nil {
			stats.Errors.Add(1)
			logrus.WithFields(logrus.Fields{"file": res.Path, "err": res.Error}).Error("search error")
			return
		}
		if len(res.Lines) == 0 {
			logrus.WithField("file", res.Path).Debug("No match")
			return
		}
		stats.FilesMatched.Add(1)
		stats.Matches.Add(int64(len(res.Lines)))
		logrus.WithFields(logrus.Fields{
			"file":     res.Path,
			"matches":  len(res.Lines),
			"strategy": res.Strategy,
		}).Info("Match found")

		var b strings.Builder
		for _, l := range res.Lines {
			if multi {
				b.WriteString(res.Path)
				b.WriteByte(':')
			}
			if opts.LineNumbers {
				b.WriteString(strconv.Itoa(l.Number))
				b.WriteByte(':')
			}
			b.WriteString(withNewline(l.Text))
		}
		_, _ = io.WriteString(out, b.String())

		if opts.SaveMatchesFile != "" {
			f, err := os.OpenFile(opts.SaveMatchesFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
			if err != nil {
				stats.Errors.Add(1)
				logrus.WithError(err).WithField("file", opts.SaveMatchesFile).Error("save matches")
				return
			}
			for _, l := range res.Lines {
				_, _ = io.WriteString(f, withNewline(l.Text))
			}
			_ = f.Close()
		}
	}
}

func withNewline(s string) string {
	if strings.HasSuffix(s, "\n") {
		return s
	}
	return s + "\n"
}

// Grep searches every file of opts for opts.Pattern on a worker pool and
// reports one FileResult per file, in argument order. A timeout stops the
// wait: searches still reading are abandoned and ctx's error is returned.
func Grep(ctx context.Context, opts RunOptions, onResult func(FileResult)) error {
	pattern, err := ParsePattern(opts.Pattern)
	if err != nil {
		return err
	}
	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	results := make([]FileResult, len(opts.Files))
	var wg sync.WaitGroup

	pool, err := ants.NewPoolWithFunc(opts.Threads, func(i interface{}) {
		defer wg.Done()
		idx := i.(int)
		results[idx] = searchFile(ctx, opts.Files[idx], pattern, opts.Engine)
	})
	if err != nil {
		return fmt.Errorf("pool: %w", err)
	}
	defer pool.Release()

	for i, path := range opts.Files {
		wg.Add(1)
		if err := pool.Invoke(i); err != nil {
			wg.Done()
			logrus.WithError(err).Error("submit task")
			results[i] = FileResult{Path: path, Error: err}
		}
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		return ctx.Err()
	}

	for _, res := range results {
		onResult(res)
	}
	return nil
}

func searchFile(ctx context.Context, path string, p Pattern, opts Options) FileResult {
	res := FileResult{Path: path}
	if err := ctx.Err(); err != nil {
		res.Error = err
		return res
	}

	var (
		w   *Wordlist
		err error
	)
	if path == StdinPath {
		res.Path = "(standard input)"
		w, err = FromFileWithOptions(os.Stdin, opts)
	} else {
		w, err = OpenWithOptions(path, opts)
	}
	if err != nil {
		res.Error = err
		return res
	}
	defer w.Close()

	res.Lines, res.Error = w.SearchPattern(ctx, p)
	res.Strategy = w.Strategy()
	return res
}
