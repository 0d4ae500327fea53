package nscheck

import (
	"slices"
	"strings"
)

// Policy accepts namespaces by exact match or by segment-aligned prefix,
// rejects anything under an exclusion, and never accepts a namespace that
// already lives under the isolation prefix.
type Policy struct {
	isolation  string
	exact      map[string]struct{}
	prefixes   []string
	exclusions []string
}

// PolicyOption configures a Policy.
type PolicyOption func(*Policy)

// WithIsolationPrefix makes the policy reject namespaces already relocated
// under prefix, so repeated runs never prepend it twice.
func WithIsolationPrefix(prefix string) PolicyOption {
	return func(p *Policy) {
		p.isolation = Canonical(prefix)
	}
}

// WithExact accepts exactly the given namespaces.
func WithExact(namespaces ...string) PolicyOption {
	return func(p *Policy) {
		for _, ns := range namespaces {
			if c := Canonical(ns); c != "" {
				p.exact[c] = struct{}{}
			}
		}
	}
}

// WithPrefixes accepts the given namespaces and everything nested under them.
func WithPrefixes(namespaces ...string) PolicyOption {
	return func(p *Policy) {
		p.prefixes = appendCanonical(p.prefixes, namespaces)
	}
}

// WithExclusions rejects the given namespaces and everything nested under
// them. Exclusions take precedence over every inclusion rule.
func WithExclusions(namespaces ...string) PolicyOption {
	return func(p *Policy) {
		p.exclusions = appendCanonical(p.exclusions, namespaces)
	}
}

// NewPolicy creates a Policy from options.
func NewPolicy(opts ...PolicyOption) *Policy {
	p := &Policy{exact: make(map[string]struct{})}

	for _, opt := range opts {
		opt(p)
	}

	// Longest first so the most specific rule is found first when listing.
	sortLongestFirst(p.prefixes)
	sortLongestFirst(p.exclusions)

	return p
}

// ShouldTransform implements Checker. The candidate may carry a leading
// separator; it is matched as written otherwise, so "Vendor\Pkg\Foo" is
// accepted by a "Vendor\Pkg\" prefix rule but "Vendor\PkgExtra" is not.
func (p *Policy) ShouldTransform(candidate string) bool {
	normalized := strings.TrimLeft(candidate, Separator)
	if normalized == "" {
		return false
	}

	if p.isolation != "" && strings.HasPrefix(normalized, p.isolation) {
		return false
	}

	if hasAnyPrefix(normalized, p.exclusions) {
		return false
	}

	if _, ok := p.exact[normalized]; ok {
		return true
	}

	return hasAnyPrefix(normalized, p.prefixes)
}

// Namespaces returns every namespace the policy accepts explicitly, sorted.
func (p *Policy) Namespaces() []string {
	out := make([]string, 0, len(p.exact)+len(p.prefixes))

	for ns := range p.exact {
		out = append(out, ns)
	}

	out = append(out, p.prefixes...)
	slices.Sort(out)

	return slices.Compact(out)
}

func appendCanonical(dst, namespaces []string) []string {
	for _, ns := range namespaces {
		if c := Canonical(ns); c != "" && !slices.Contains(dst, c) {
			dst = append(dst, c)
		}
	}

	return dst
}

func hasAnyPrefix(candidate string, prefixes []string) bool {
	for _, prefix := range prefixes {
		if strings.HasPrefix(candidate, prefix) {
			return true
		}
	}

	return false
}

func sortLongestFirst(list []string) {
	slices.SortStableFunc(list, func(a, b string) int {
		return len(b) - len(a)
	})
}
