// Package nscheck decides which PHP namespaces are relocated under the
// isolation prefix.
//
// Every decision is made on a canonical namespace string: segments joined
// with a backslash and terminated by one trailing backslash ("Vendor\Pkg\").
// The empty string and a lone separator denote the global namespace and are
// never eligible.
package nscheck

import "strings"

// Separator is the PHP namespace separator.
const Separator = `\`

// Checker classifies canonical namespace strings. Implementations must be
// deterministic and safe for concurrent use.
type Checker interface {
	ShouldTransform(candidate string) bool
}

// CheckerFunc adapts a function to the Checker interface.
type CheckerFunc func(candidate string) bool

// ShouldTransform calls fn(candidate).
func (fn CheckerFunc) ShouldTransform(candidate string) bool { return fn(candidate) }

// Canonical normalizes a namespace to its matching form: no leading
// separator, exactly one trailing separator. The global namespace yields "".
func Canonical(namespace string) string {
	trimmed := strings.Trim(strings.TrimSpace(namespace), Separator)
	if trimmed == "" {
		return ""
	}

	return trimmed + Separator
}

// anyChecker accepts a candidate when at least one member does.
type anyChecker []Checker

// Any combines checkers so that a candidate is accepted when any of them
// accepts it. Nil members are ignored.
func Any(checkers ...Checker) Checker {
	out := make(anyChecker, 0, len(checkers))

	for _, c := range checkers {
		if c != nil {
			out = append(out, c)
		}
	}

	return out
}

func (a anyChecker) ShouldTransform(candidate string) bool {
	for _, c := range a {
		if c.ShouldTransform(candidate) {
			return true
		}
	}

	return false
}

// notChecker vetoes candidates accepted by an exclusion checker.
type notChecker struct {
	include Checker
	exclude Checker
}

// Except returns a checker accepting what include accepts unless exclude
// also accepts it.
func Except(include, exclude Checker) Checker {
	return notChecker{include: include, exclude: exclude}
}

func (n notChecker) ShouldTransform(candidate string) bool {
	if n.exclude != nil && n.exclude.ShouldTransform(candidate) {
		return false
	}

	return n.include.ShouldTransform(candidate)
}
