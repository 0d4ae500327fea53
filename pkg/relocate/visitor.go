// Package relocate moves PHP namespaces under a private prefix.
//
// A Visitor walks one parsed file top-down and rewrites, in place, every
// namespace declaration, use statement, qualified reference and
// namespace-shaped string literal that its Checker marks as eligible. All
// decisions go through one canonical-namespace query, so the same namespace
// is treated consistently in every syntactic position.
package relocate

import (
	"slices"
	"strings"

	"github.com/Sumatoshi-tech/nsisolate/pkg/nscheck"
	"github.com/Sumatoshi-tech/nsisolate/pkg/phpast"
)

const separator = phpast.Separator

// globalNamespace marks that no named namespace declaration has been seen.
// A declared namespace is never empty, so "" cannot collide with one.
const globalNamespace = ""

// Visitor relocates namespaces in a single file. It carries per-file state
// (current namespace, aliases seen so far, whether anything changed) and
// must not be reused across files.
type Visitor struct {
	prefix  string
	checker nscheck.Checker

	namespace   string
	aliases     map[string]struct{}
	transformed bool
}

// NewVisitor creates a Visitor that prepends prefix to namespaces accepted
// by checker.
func NewVisitor(prefix string, checker nscheck.Checker) *Visitor {
	return &Visitor{
		prefix:    prefix,
		checker:   checker,
		namespace: globalNamespace,
		aliases:   make(map[string]struct{}),
	}
}

// Visit walks file and relocates it in place.
func (v *Visitor) Visit(file *phpast.File) {
	phpast.Walk(file, v)
}

// Enter implements phpast.Visitor. Node kinds other than namespace
// declarations, use statements, string literals and reference names are
// passed through untouched.
func (v *Visitor) Enter(node phpast.Node) bool {
	switch n := node.(type) {
	case *phpast.Namespace:
		v.enterNamespace(n)
	case *phpast.Use:
		v.enterUse(n)
	case *phpast.String:
		v.enterString(n)
	case *phpast.Name:
		if n.Role == phpast.RoleReference {
			v.enterReference(n)
		}
	default:
	}

	return true
}

// DidTransform reports whether any relocation happened.
func (v *Visitor) DidTransform() bool {
	return v.transformed
}

// CurrentNamespace returns the original name of the most recently entered
// namespace declaration, or "" while still in the global namespace.
func (v *Visitor) CurrentNamespace() string {
	return v.namespace
}

// HasAlias reports whether a use statement introduced alias so far.
func (v *Visitor) HasAlias(alias string) bool {
	_, ok := v.aliases[alias]

	return ok
}

func (v *Visitor) enterNamespace(ns *phpast.Namespace) {
	// The unnamed form is the global namespace.
	if ns.Name == nil || len(ns.Name.Parts) == 0 {
		return
	}

	v.namespace = strings.Join(ns.Name.Parts, separator)
	ns.Name.Parts = v.transformNamespace(ns.Name.Parts)
}

// enterUse rewrites imported paths. Aliases accumulate for the rest of the
// file and are never cleared, including across namespace declarations.
func (v *Visitor) enterUse(use *phpast.Use) {
	for _, clause := range use.Clauses {
		if clause.Alias != "" {
			v.aliases[clause.Alias] = struct{}{}
		}

		// Group clauses are relative to the shared prefix, handled below.
		if use.Prefix != nil || clause.Name == nil {
			continue
		}

		// A single part is a global symbol.
		if len(clause.Name.Parts) > 1 {
			clause.Name.Parts = v.relocateQualified(clause.Name.Parts)
		}
	}

	if use.Prefix != nil && len(use.Prefix.Parts) > 0 {
		use.Prefix.Parts = withoutEmpty(v.transformNamespace(use.Prefix.Parts))
	}
}

// enterString relocates literals naming a namespace or a namespaced class,
// such as the argument of class_exists('Vendor\Pkg\Foo').
func (v *Visitor) enterString(lit *phpast.String) {
	if !IsCandidate(v.checker, lit.Value) {
		return
	}

	lit.Value = Prefixed(v.prefix, lit.Value)
	v.transformed = true
}

// enterReference relocates qualified references. Inside a named namespace
// only fully qualified names are touched; relative ones resolve through the
// already relocated namespace declaration.
func (v *Visitor) enterReference(name *phpast.Name) {
	if !name.FullyQualified && v.namespace != globalNamespace {
		return
	}

	if len(name.Parts) <= 1 {
		return
	}

	// The import that introduced the alias was already relocated.
	if v.HasAlias(name.Parts[0]) {
		return
	}

	name.Parts = v.relocateQualified(name.Parts)
}

// relocateQualified relocates the namespace part of a qualified name and
// keeps the leaf (class, function or constant name) as is.
func (v *Visitor) relocateQualified(parts []string) []string {
	last := len(parts) - 1

	out := v.transformNamespace(parts[:last:last])
	out = append(out, parts[last])

	return withoutEmpty(out)
}

// transformNamespace is the single point where relocation is decided.
// It prepends the prefix when the checker accepts the canonical form of
// parts and returns the parts unchanged otherwise.
func (v *Visitor) transformNamespace(parts []string) []string {
	canonical := strings.Trim(strings.Join(parts, separator), separator) + separator

	if !v.checker.ShouldTransform(canonical) {
		return parts
	}

	v.transformed = true

	return append([]string{v.prefix}, parts...)
}

// IsCandidate reports whether a string literal value names an eligible
// namespace, either directly or once its trailing class name is removed.
func IsCandidate(checker nscheck.Checker, value string) bool {
	if checker.ShouldTransform(value) {
		return true
	}

	segments := strings.Split(value, separator)
	namespace := strings.Join(segments[:len(segments)-1], separator)

	return checker.ShouldTransform(strings.Trim(namespace, separator) + separator)
}

// Prefixed returns value moved under prefix, the way eligible string
// literals are rewritten.
func Prefixed(prefix, value string) string {
	return prefix + separator + strings.TrimLeft(value, separator)
}

func withoutEmpty(parts []string) []string {
	return slices.DeleteFunc(parts, func(part string) bool { return part == "" })
}
