package internal

import (
	"errors"
	"io/fs"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeInfo struct {
	size int64
	mode fs.FileMode
}

func (f fakeInfo) Name() string       { return "fake" }
func (f fakeInfo) Size() int64        { return f.size }
func (f fakeInfo) Mode() fs.FileMode  { return f.mode }
func (f fakeInfo) ModTime() time.Time { return time.Time{} }
func (f fakeInfo) IsDir() bool        { return f.mode.IsDir() }
func (f fakeInfo) Sys() any           { return nil }

func TestChooseStrategy(t *testing.T) {
	const threshold = 1 << 20
	regular := func(size int64) fakeInfo { return fakeInfo{size: size} }

	tests := []struct {
		name      string
		policy    MmapPolicy
		info      fakeInfo
		offset    int64
		supported bool
		want      Strategy
	}{
		{"auto small", MmapAuto, regular(10), 0, true, StrategyBuffered},
		{"auto large", MmapAuto, regular(threshold), 0, true, StrategyMmap},
		{"auto large mostly read", MmapAuto, regular(threshold + 10), 20, true, StrategyBuffered},
		{"always small", MmapAlways, regular(10), 0, true, StrategyMmap},
		{"always empty", MmapAlways, regular(0), 0, true, StrategyBuffered},
		{"always at eof", MmapAlways, regular(10), 10, true, StrategyBuffered},
		{"never large", MmapNever, regular(threshold * 4), 0, true, StrategyBuffered},
		{"unsupported platform", MmapAlways, regular(threshold), 0, false, StrategyBuffered},
		{"pipe", MmapAlways, fakeInfo{size: threshold, mode: fs.ModeNamedPipe}, 0, true, StrategyBuffered},
		{"char device", MmapAlways, fakeInfo{size: threshold, mode: fs.ModeDevice | fs.ModeCharDevice}, 0, true, StrategyBuffered},
		{"directory", MmapAuto, fakeInfo{size: threshold, mode: fs.ModeDir}, 0, true, StrategyBuffered},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := chooseStrategy(tt.policy, tt.info, tt.offset, threshold, tt.supported)
			assert.Equal(t, tt.want, got)
		})
	}

	assert.Equal(t, StrategyBuffered, chooseStrategy(MmapAlways, nil, 0, threshold, true))
}

func TestParseMmapPolicy(t *testing.T) {
	for in, want := range map[string]MmapPolicy{"": MmapAuto, "auto": MmapAuto, "Never": MmapNever, " always ": MmapAlways} {
		got, err := ParseMmapPolicy(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
		if in != "" {
			assert.Equal(t, strings.ToLower(strings.TrimSpace(in)), got.String())
		}
	}
	_, err := ParseMmapPolicy("sometimes")
	assert.Error(t, err)
}

func collect(t *testing.T, src lineSource) ([]string, int64) {
	t.Helper()
	var lines []string
	n, err := src.each(func(line []byte) error {
		lines = append(lines, string(line))
		return nil
	})
	require.NoError(t, err)
	return lines, n
}

func TestLineSources_Split(t *testing.T) {
	long := strings.Repeat("z", 40)
	cases := []struct {
		in   string
		want []string
	}{
		{"", nil},
		{"\n", []string{"\n"}},
		{"a", []string{"a"}},
		{"a\nb", []string{"a\n", "b"}},
		{"clue\nanswer\n\n", []string{"clue\n", "answer\n", "\n"}},
		{"crlf\r\nline\r\n", []string{"crlf\r\n", "line\r\n"}},
		{long + "\nq", []string{long + "\n", "q"}},
	}
	for _, c := range cases {
		in, want := c.in, c.want
		got, n := collect(t, newBufferedSource(strings.NewReader(in), 16))
		assert.Equal(t, want, got, "buffered %q", in)
		assert.Equal(t, int64(len(in)), n)

		got, n = collect(t, &mappedSource{data: []byte(in)})
		assert.Equal(t, want, got, "mapped %q", in)
		assert.Equal(t, int64(len(in)), n)
	}
}

func TestLineSources_StopOnCallbackError(t *testing.T) {
	stop := errors.New("stop")
	for name, src := range map[string]lineSource{
		"buffered": newBufferedSource(strings.NewReader("a\nb\nc\n"), 16),
		"mapped":   &mappedSource{data: []byte("a\nb\nc\n")},
	} {
		var seen int
		n, err := src.each(func([]byte) error {
			seen++
			if seen == 2 {
				return stop
			}
			return nil
		})
		assert.ErrorIs(t, err, stop, name)
		assert.Equal(t, 2, seen, name)
		assert.Equal(t, int64(4), n, name)
	}
}

type failingReader struct {
	data []byte
	err  error
}

func (r *failingReader) Read(p []byte) (int, error) {
	if len(r.data) == 0 {
		return 0, r.err
	}
	n := copy(p, r.data)
	r.data = r.data[n:]
	return n, nil
}

func TestBufferedSource_ReadError(t *testing.T) {
	boom := errors.New("disk on fire")
	src := newBufferedSource(&failingReader{data: []byte("a\nb\n"), err: boom}, 16)
	var lines []string
	_, err := src.each(func(line []byte) error {
		lines = append(lines, string(line))
		return nil
	})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, []string{"a\n", "b\n"}, lines)
}
