package internal

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"WordlistGrep/internal/scanner"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGrep_Integration(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.txt")
	b := filepath.Join(dir, "b.txt")
	require.NoError(t, os.WriteFile(a, []byte(clueWords), 0644))
	require.NoError(t, os.WriteFile(b, []byte("bitcoin\ncoinage"), 0644))
	missing := filepath.Join(dir, "missing.txt")

	opts := RunOptions{
		Files:   []string{a, missing, b},
		Pattern: "re:co.n",
		Threads: 2,
	}
	opts.Prepare()

	var got []FileResult
	err := Grep(context.Background(), opts, func(res FileResult) {
		got = append(got, res)
	})
	require.NoError(t, err)
	require.Len(t, got, 3)

	assert.Equal(t, a, got[0].Path)
	assert.Equal(t, []string{"coin\n"}, scanner.Texts(got[0].Lines))
	assert.ErrorIs(t, got[1].Error, ErrFileNotFound)
	assert.Equal(t, []string{"bitcoin\n", "coinage"}, scanner.Texts(got[2].Lines))
	assert.Equal(t, 2, got[2].Lines[1].Number)
}

func TestGrep_InvalidPattern(t *testing.T) {
	opts := RunOptions{Files: []string{"whatever.txt"}, Pattern: "re:("}
	opts.Prepare()
	called := false
	err := Grep(context.Background(), opts, func(FileResult) { called = true })
	assert.ErrorIs(t, err, ErrInvalidPattern)
	assert.False(t, called, "no file is touched for a bad pattern")
}

func TestGrep_CancelledContext(t *testing.T) {
	path := writeWordlist(t, clueWords)
	opts := RunOptions{Files: []string{path}, Pattern: "coin"}
	opts.Prepare()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := Grep(ctx, opts, func(res FileResult) {
		assert.ErrorIs(t, res.Error, context.Canceled)
	})
	if err != nil {
		assert.ErrorIs(t, err, context.Canceled)
	}
}

func TestResultSink_PrintsAndSaves(t *testing.T) {
	dir := t.TempDir()
	opts := RunOptions{
		Files:           []string{"a.txt", "b.txt"},
		LineNumbers:     true,
		SaveMatchesFile: filepath.Join(dir, "all.txt"),
	}
	var (
		stats AppStats
		out   bytes.Buffer
	)
	sink := NewResultSink(&out, opts, &stats)

	sink(FileResult{Path: "a.txt", Lines: []scanner.Line{{Number: 3, Text: "coin\n"}}})
	sink(FileResult{Path: "b.txt", Lines: []scanner.Line{{Number: 1, Text: "coin"}}})
	sink(FileResult{Path: "c.txt", Error: ErrFileNotFound})
	sink(FileResult{Path: "d.txt"})

	assert.Equal(t, "a.txt:3:coin\nb.txt:1:coin\n", out.String())

	all, err := os.ReadFile(opts.SaveMatchesFile)
	require.NoError(t, err)
	assert.Equal(t, "coin\ncoin\n", string(all))

	assert.Equal(t, int64(4), stats.FilesSearched.Load())
	assert.Equal(t, int64(2), stats.FilesMatched.Load())
	assert.Equal(t, int64(2), stats.Matches.Load())
	assert.Equal(t, int64(1), stats.Errors.Load())
}

func TestResultSink_SingleFileNoPrefix(t *testing.T) {
	var (
		stats AppStats
		out   bytes.Buffer
	)
	sink := NewResultSink(&out, RunOptions{Files: []string{"a.txt"}}, &stats)
	sink(FileResult{Path: "a.txt", Lines: []scanner.Line{{Number: 1, Text: "clue\n"}, {Number: 3, Text: "coin\n"}}})
	assert.Equal(t, "clue\ncoin\n", out.String())
}
