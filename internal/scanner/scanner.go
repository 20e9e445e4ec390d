package scanner

import (
	"context"
)

// Line is one matched line. Text keeps the line terminator exactly as it
// appeared in the file; the last line of a file may have none.
type Line struct {
	Number int
	Text   string
}

// Searcher is the interface for single-file line searchers.
type Searcher interface {
	Search(pattern string) ([]string, error)
	SearchLines(ctx context.Context, pattern string) ([]Line, error)
	Rewind() error
	Close() error
}

// Texts drops the line numbers.
func Texts(lines []Line) []string {
	out := make([]string, len(lines))
	for i, l := range lines {
		out[i] = l.Text
	}
	return out
}
