// Package phpast provides a mutable PHP syntax tree built from tree-sitter,
// pre-order traversal over it, and a format-preserving printer.
//
// The tree keeps only the node kinds that namespace relocation cares about
// as typed nodes (namespace declarations, use statements, names, string
// literals, properties and array literals). Every other grammar node is kept
// as a Generic node so that traversal still reaches nested code.
package phpast

import "strings"

// Separator is the PHP namespace separator.
const Separator = `\`

// Span represents the source position of a node.
// StartOffset/EndOffset are byte offsets; StartLine and StartCol are 1-based.
type Span struct {
	StartOffset int
	EndOffset   int
	StartLine   int
	StartCol    int
}

// Pos returns the span itself so that every node embedding Span satisfies Node.
func (s Span) Pos() Span { return s }

// Node is a PHP syntax tree node.
//
// The set of implementations is closed: *File, *Namespace, *Use, *UseClause,
// *Name, *String, *Property, *Array, *ArrayItem and *Generic.
type Node interface {
	Pos() Span
	Children() []Node
	phpNode()
}

// Role labels what a Name is used for.
type Role string

// Name roles.
const (
	RoleDeclaration Role = "Declaration"
	RoleImport      Role = "Import"
	RoleReference   Role = "Reference"
)

// UseKind distinguishes class, function and constant imports.
type UseKind string

// Use kinds.
const (
	UseNormal   UseKind = ""
	UseFunction UseKind = "function"
	UseConst    UseKind = "const"
)

// File is the root of a parsed PHP source file.
type File struct {
	Span

	Name   string
	Source []byte
	Stmts  []Node
}

// Namespace is a namespace declaration. Name is nil for the unnamed
// (global) block form. Body is empty for the semicolon form, whose scope
// is every following sibling statement.
type Namespace struct {
	Span

	Name *Name
	Body []Node
}

// Use is a use statement. Prefix is set for group uses
// (use A\B\{C, D as E}) and holds the shared namespace.
type Use struct {
	Span

	Kind    UseKind
	Prefix  *Name
	Clauses []*UseClause
}

// UseClause is a single imported path with an optional alias.
type UseClause struct {
	Span

	Kind  UseKind
	Name  *Name
	Alias string
}

// Name is a possibly qualified name: Vendor\Pkg\Foo, \Vendor\Foo or
// namespace\Foo. Parts never contains the leading separator; it is
// carried by FullyQualified instead.
type Name struct {
	Span

	Parts          []string
	FullyQualified bool
	Relative       bool
	Role           Role

	original string
}

// String is a non-interpolated string literal, quoted or heredoc/nowdoc.
// Value is the decoded logical value.
type String struct {
	Span

	Value  string
	Quote  byte
	Binary bool

	// EscapeBackslashes prints every backslash doubled, the way generated
	// code such as Composer's autoloader writes namespaces.
	EscapeBackslashes bool

	// Doc marks a heredoc (Quote '"') or nowdoc (Quote '\'') literal. Its
	// span covers the body lines only, between the opening line and the
	// closing marker. Indent is the closing marker indentation, removed
	// from every body line.
	Doc    bool
	Indent string

	original string
}

// Property is a single class property element, e.g. the "files" in
// public static $files = array(...).
type Property struct {
	Span

	Name    string
	Static  bool
	Default Node
}

// Array is an array literal, in either array(...) or [...] form.
type Array struct {
	Span

	Items []*ArrayItem
}

// ArrayItem is one array element. Key is nil for list-style elements.
type ArrayItem struct {
	Span

	Key   Node
	Value Node
}

// Generic is any grammar node without a dedicated type.
type Generic struct {
	Span

	Kind string
	Kids []Node
}

// NewName creates a name from its segments. The result is not Modified.
func NewName(role Role, parts ...string) *Name {
	n := &Name{Parts: parts, Role: role}
	n.original = n.String()

	return n
}

// NewFullyQualifiedName creates a name rooted at the global namespace.
func NewFullyQualifiedName(role Role, parts ...string) *Name {
	n := &Name{Parts: parts, Role: role, FullyQualified: true}
	n.original = n.String()

	return n
}

// NewString creates a single-quoted string literal. The result is not Modified.
func NewString(value string) *String {
	return &String{Value: value, Quote: '\'', original: value}
}

// String renders the name the way it is printed in source.
func (n *Name) String() string {
	joined := strings.Join(n.Parts, Separator)

	switch {
	case n.FullyQualified:
		return Separator + joined
	case n.Relative:
		return "namespace" + Separator + joined
	default:
		return joined
	}
}

// Modified reports whether the name differs from what was parsed.
func (n *Name) Modified() bool {
	return n.String() != n.original
}

// Modified reports whether the literal value differs from what was parsed.
func (s *String) Modified() bool {
	return s.Value != s.original
}

// Children implementations.

// Children returns the top-level statements.
func (f *File) Children() []Node { return f.Stmts }

// Children returns the name (when present) followed by the body statements.
func (ns *Namespace) Children() []Node {
	out := make([]Node, 0, len(ns.Body)+1)
	if ns.Name != nil {
		out = append(out, ns.Name)
	}

	return append(out, ns.Body...)
}

// Children returns the group prefix (when present) followed by the clauses.
func (u *Use) Children() []Node {
	out := make([]Node, 0, len(u.Clauses)+1)
	if u.Prefix != nil {
		out = append(out, u.Prefix)
	}

	for _, clause := range u.Clauses {
		out = append(out, clause)
	}

	return out
}

// Children returns the imported name.
func (c *UseClause) Children() []Node {
	if c.Name == nil {
		return nil
	}

	return []Node{c.Name}
}

// Children returns nil; names are leaves.
func (n *Name) Children() []Node { return nil }

// Children returns nil; string literals are leaves.
func (s *String) Children() []Node { return nil }

// Children returns the default value when present.
func (p *Property) Children() []Node {
	if p.Default == nil {
		return nil
	}

	return []Node{p.Default}
}

// Children returns the array items.
func (a *Array) Children() []Node {
	out := make([]Node, len(a.Items))
	for idx, item := range a.Items {
		out[idx] = item
	}

	return out
}

// Children returns the key (when present) and the value.
func (it *ArrayItem) Children() []Node {
	out := make([]Node, 0, 2) //nolint:mnd // key and value
	if it.Key != nil {
		out = append(out, it.Key)
	}

	if it.Value != nil {
		out = append(out, it.Value)
	}

	return out
}

// Children returns the converted named children.
func (g *Generic) Children() []Node { return g.Kids }

func (*File) phpNode()      {}
func (*Namespace) phpNode() {}
func (*Use) phpNode()       {}
func (*UseClause) phpNode() {}
func (*Name) phpNode()      {}
func (*String) phpNode()    {}
func (*Property) phpNode()  {}
func (*Array) phpNode()     {}
func (*ArrayItem) phpNode() {}
func (*Generic) phpNode()   {}
