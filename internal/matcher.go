package internal

import (
	"strings"

	"github.com/coregx/coregex"
	"github.com/sirupsen/logrus"
)

// Pattern - fast interface for line match.
type Pattern interface {
	Match(line []byte) bool
	Desc() string // for logs/files
}

// RegexPattern is a compiled regular expression. It keeps no per-call state
// and may be reused across lines and goroutines.
type RegexPattern struct {
	re   *coregex.Regex
	desc string
}

func (p *RegexPattern) Match(line []byte) bool { return p.re.Match(line) }
func (p *RegexPattern) Desc() string            { return p.desc }

// FindIndex returns the bounds of the leftmost match in line, or nil.
func (p *RegexPattern) FindIndex(line []byte) []int { return p.re.FindIndex(line) }

// CompilePattern compiles expr as an unanchored regular expression.
func CompilePattern(expr string) (*RegexPattern, error) {
	re, err := coregex.Compile(expr)
	if err != nil {
		return nil, &SearchError{Op: "compile", Kind: ErrInvalidPattern, Err: err}
	}
	return &RegexPattern{re: re, desc: expr}, nil
}

// ParsePattern accepts a single pattern in the prefixed form:
//
//	re:^user=\w+$
//	plain:foo.bar
//	plain:i:Foo
//
// Anything without a known prefix is compiled as a regular expression.
func ParsePattern(arg string) (*RegexPattern, error) {
	var expr string
	switch {
	case strings.HasPrefix(arg, "re:"):
		expr = arg[3:]
	case strings.HasPrefix(arg, "plain:i:"):
		expr = "(?i)" + coregex.QuoteMeta(arg[8:])
	case strings.HasPrefix(arg, "plain:"):
		expr = coregex.QuoteMeta(arg[6:])
	default:
		expr = arg
	}
	p, err := CompilePattern(expr)
	if err != nil {
		return nil, err
	}
	p.desc = arg
	logrus.Debugf("Compiled pattern %q as %q", arg, expr)
	return p, nil
}
