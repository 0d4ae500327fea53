package nscheck

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// ErrInvalidPattern is returned when a namespace pattern does not compile.
var ErrInvalidPattern = errors.New("invalid namespace pattern")

// Pattern accepts candidates matching any of its regular expressions.
// Expressions are matched against the candidate without its leading
// separator.
type Pattern struct {
	exprs []*regexp.Regexp
}

// NewPattern compiles the given expressions.
func NewPattern(exprs ...string) (*Pattern, error) {
	p := &Pattern{exprs: make([]*regexp.Regexp, 0, len(exprs))}

	for _, expr := range exprs {
		re, err := regexp.Compile(expr)
		if err != nil {
			return nil, fmt.Errorf("%w %q: %w", ErrInvalidPattern, expr, err)
		}

		p.exprs = append(p.exprs, re)
	}

	return p, nil
}

// ShouldTransform implements Checker.
func (p *Pattern) ShouldTransform(candidate string) bool {
	normalized := strings.TrimLeft(candidate, Separator)
	if normalized == "" {
		return false
	}

	for _, re := range p.exprs {
		if re.MatchString(normalized) {
			return true
		}
	}

	return false
}
