package phpast

import (
	"strings"
	"unicode"

	sitter "github.com/alexaandru/go-tree-sitter-bare"
)

// Tree-sitter PHP node types with dedicated conversions. Several grammar
// releases are covered, hence the alternates.
const (
	tsNamespaceDefinition = "namespace_definition"
	tsNamespaceName       = "namespace_name"
	tsUseDeclaration      = "namespace_use_declaration"
	tsUseClause           = "namespace_use_clause"
	tsUseGroup            = "namespace_use_group"
	tsUseGroupClause      = "namespace_use_group_clause"
	tsAliasingClause      = "namespace_aliasing_clause"
	tsQualifiedName       = "qualified_name"
	tsRelativeName        = "relative_name"
	tsName                = "name"
	tsString              = "string"
	tsEncapsedString      = "encapsed_string"
	tsHeredoc             = "heredoc"
	tsNowdoc              = "nowdoc"
	tsPropertyDeclaration = "property_declaration"
	tsPropertyElement     = "property_element"
	tsPropertyInitializer = "property_initializer"
	tsStaticModifier      = "static_modifier"
	tsVariableName        = "variable_name"
	tsArrayCreation       = "array_creation_expression"
	tsArrayElement        = "array_element_initializer"

	fieldName         = "name"
	fieldBody         = "body"
	fieldAlias        = "alias"
	fieldDefaultValue = "default_value"

	keywordFunction = "function"
	keywordConst    = "const"
	keywordRelative = "namespace"
	keywordUse      = "use"
)

// useBodyTypes are the named children that follow the optional
// function/const keyword of a use declaration.
var useBodyTypes = map[string]bool{
	tsUseClause:      true,
	tsUseGroupClause: true,
	tsUseGroup:       true,
	tsNamespaceName:  true,
	tsName:           true,
	tsQualifiedName:  true,
}

// stringPieceTypes are the child node types a string literal may contain
// without being interpolated.
var stringPieceTypes = map[string]bool{
	"string":          true,
	"string_value":    true,
	"string_content":  true,
	"escape_sequence": true,
}

type converter struct {
	src   []byte
	lines lineIndex
}

func newConverter(src []byte) *converter {
	return &converter{src: src, lines: newLineIndex(src)}
}

// offset converts a tree-sitter byte offset, panicking on overflow.
// Overflow is impossible for any file that fits in memory.
func (c *converter) offset(v uint) int {
	const maxInt = int(^uint(0) >> 1)

	if v > uint(maxInt) {
		panic("phpast: offset overflows int")
	}

	return int(v)
}

func (c *converter) lineCol(offset int) (line, col int) {
	return c.lines.lineCol(offset)
}

func (c *converter) span(n sitter.Node) Span {
	start := c.offset(n.StartByte())
	line, col := c.lineCol(start)

	return Span{
		StartOffset: start,
		EndOffset:   c.offset(n.EndByte()),
		StartLine:   line,
		StartCol:    col,
	}
}

func (c *converter) text(n sitter.Node) string {
	start, end := c.offset(n.StartByte()), c.offset(n.EndByte())
	if end > len(c.src) || start > end {
		return ""
	}

	return string(c.src[start:end])
}

func (c *converter) children(n sitter.Node) []Node {
	count := n.NamedChildCount()
	out := make([]Node, 0, count)

	for idx := range count {
		if child := c.convert(n.NamedChild(idx)); child != nil {
			out = append(out, child)
		}
	}

	return out
}

func (c *converter) convert(n sitter.Node) Node {
	switch n.Type() {
	case tsNamespaceDefinition:
		return c.namespace(n)
	case tsUseDeclaration:
		return c.use(n)
	case tsQualifiedName, tsRelativeName:
		return c.name(n, RoleReference)
	case tsString, tsEncapsedString:
		if lit := c.stringLiteral(n); lit != nil {
			return lit
		}

		return c.generic(n)
	case tsHeredoc, tsNowdoc:
		if lit := c.docString(n); lit != nil {
			return lit
		}

		return c.generic(n)
	case tsPropertyDeclaration:
		return c.propertyDeclaration(n)
	case tsArrayCreation:
		return c.array(n)
	default:
		return c.generic(n)
	}
}

func (c *converter) generic(n sitter.Node) *Generic {
	return &Generic{
		Span: c.span(n),
		Kind: n.Type(),
		Kids: c.children(n),
	}
}

func (c *converter) namespace(n sitter.Node) *Namespace {
	decl := &Namespace{Span: c.span(n)}

	if nameNode := n.ChildByFieldName(fieldName); !nameNode.IsNull() {
		decl.Name = c.name(nameNode, RoleDeclaration)
	}

	if body := n.ChildByFieldName(fieldBody); !body.IsNull() {
		decl.Body = c.children(body)
	}

	return decl
}

func (c *converter) use(n sitter.Node) *Use {
	decl := &Use{Span: c.span(n), Kind: c.useKind(n)}
	grouped := false

	for idx := range n.NamedChildCount() {
		child := n.NamedChild(idx)

		switch child.Type() {
		case tsUseClause, tsUseGroupClause:
			decl.Clauses = append(decl.Clauses, c.useClause(child, decl.Kind))
		case tsNamespaceName:
			decl.Prefix = c.name(child, RoleImport)
			decl.Prefix.FullyQualified = c.groupPrefixRooted(n, child)
			decl.Prefix.original = decl.Prefix.String()
		case tsUseGroup:
			grouped = true

			for gIdx := range child.NamedChildCount() {
				clause := child.NamedChild(gIdx)
				if clause.Type() == tsUseClause || clause.Type() == tsUseGroupClause {
					decl.Clauses = append(decl.Clauses, c.useClause(clause, decl.Kind))
				}
			}
		}
	}

	// Some grammar releases attach the keyword of a plain use to its first
	// clause; it applies to every clause of the declaration.
	if decl.Kind == UseNormal && !grouped && decl.Prefix == nil && len(decl.Clauses) > 0 {
		decl.Kind = decl.Clauses[0].Kind
		for _, clause := range decl.Clauses {
			clause.Kind = decl.Kind
		}
	}

	return decl
}

// useKind reads the optional function/const keyword between "use" and the
// first clause, prefix or group of the declaration.
func (c *converter) useKind(n sitter.Node) UseKind {
	end := n.EndByte()

	for idx := range n.NamedChildCount() {
		if child := n.NamedChild(idx); useBodyTypes[child.Type()] {
			end = child.StartByte()

			break
		}
	}

	head := string(c.src[c.offset(n.StartByte()):c.offset(end)])

	return keywordKind(strings.TrimPrefix(strings.ToLower(strings.TrimSpace(head)), keywordUse))
}

// keywordKind maps a function/const keyword, surrounded by optional
// whitespace, to its UseKind.
func keywordKind(raw string) UseKind {
	switch strings.TrimSpace(raw) {
	case keywordFunction:
		return UseFunction
	case keywordConst:
		return UseConst
	default:
		return UseNormal
	}
}

// groupPrefixRooted reports whether a group use prefix is written with a
// leading separator (use \A\B\{...}).
func (c *converter) groupPrefixRooted(decl, prefix sitter.Node) bool {
	head := strings.TrimSpace(string(c.src[c.offset(decl.StartByte()):c.offset(prefix.StartByte())]))

	return strings.HasSuffix(head, Separator)
}

func (c *converter) useClause(n sitter.Node, inherited UseKind) *UseClause {
	clause := &UseClause{Span: c.span(n), Kind: inherited}

	if alias := n.ChildByFieldName(fieldAlias); !alias.IsNull() {
		clause.Alias = c.text(alias)
	}

	for idx := range n.NamedChildCount() {
		child := n.NamedChild(idx)

		switch child.Type() {
		case tsName, tsQualifiedName, tsNamespaceName, tsRelativeName:
			if clause.Name == nil {
				clause.Name = c.name(child, RoleImport)
			} else if clause.Alias == "" {
				clause.Alias = c.text(child)
			}
		case tsAliasingClause:
			for aIdx := range child.NamedChildCount() {
				if aliasNode := child.NamedChild(aIdx); aliasNode.Type() == tsName {
					clause.Alias = c.text(aliasNode)
				}
			}
		}
	}

	if kind := keywordKind(strings.ToLower(c.prefixText(n, clause))); kind != UseNormal {
		clause.Kind = kind
	}

	return clause
}

// prefixText returns the source between the clause start and its name, which
// holds the per-clause function/const keyword inside group uses.
func (c *converter) prefixText(n sitter.Node, clause *UseClause) string {
	if clause.Name == nil {
		return ""
	}

	return string(c.src[c.offset(n.StartByte()):clause.Name.StartOffset])
}

func (c *converter) name(n sitter.Node, role Role) *Name {
	raw := strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}

		return r
	}, c.text(n))

	name := &Name{Span: c.span(n), Role: role}

	lower := strings.ToLower(raw)
	if strings.HasPrefix(lower, keywordRelative+Separator) {
		name.Relative = true
		raw = raw[len(keywordRelative+Separator):]
	} else if strings.HasPrefix(raw, Separator) {
		name.FullyQualified = true
		raw = strings.TrimLeft(raw, Separator)
	}

	if raw != "" {
		name.Parts = strings.Split(raw, Separator)
	}

	name.original = name.String()

	return name
}

func (c *converter) stringLiteral(n sitter.Node) *String {
	for idx := range n.NamedChildCount() {
		if !stringPieceTypes[n.NamedChild(idx).Type()] {
			return nil
		}
	}

	raw := c.text(n)
	lit := &String{Span: c.span(n)}

	if raw != "" && (raw[0] == 'b' || raw[0] == 'B') {
		lit.Binary = true
		raw = raw[1:]
	}

	if len(raw) < 2 || raw[0] != raw[len(raw)-1] { //nolint:mnd // opening and closing quote
		return nil
	}

	lit.Quote = raw[0]
	body := raw[1 : len(raw)-1]
	lit.EscapeBackslashes = strings.Contains(body, `\\`)

	switch lit.Quote {
	case quoteSingle:
		lit.Value = unquoteSingle(body)
	case quoteDouble:
		lit.Value = unquoteDouble(body)
	default:
		return nil
	}

	lit.original = lit.Value

	return lit
}

// docString converts a heredoc or nowdoc whose body has no interpolation.
// The literal spans the body lines; the opening line and the closing marker
// are never reprinted.
func (c *converter) docString(n sitter.Node) *String {
	raw := c.text(n)

	headerEnd := strings.IndexByte(raw, '\n')
	closing := strings.LastIndexByte(raw, '\n')

	if headerEnd < 0 || closing <= headerEnd {
		return nil
	}

	header := strings.TrimSpace(raw[:headerEnd])
	header = strings.TrimSpace(strings.TrimPrefix(strings.TrimLeft(header, "bB"), "<<<"))
	label := strings.Trim(header, `'"`)

	marker := raw[closing+1:]
	trimmed := strings.TrimLeft(marker, " \t")

	if label == "" || !strings.HasPrefix(trimmed, label) {
		return nil
	}

	bodyStart, bodyEnd := headerEnd+1, closing
	if bodyEnd > bodyStart && raw[bodyEnd-1] == '\r' {
		bodyEnd--
	}

	body := raw[bodyStart:bodyEnd]
	nowdoc := strings.HasPrefix(header, "'")

	if !nowdoc && hasInterpolation(body) {
		return nil
	}

	base := c.offset(n.StartByte())
	line, col := c.lineCol(base + bodyStart)

	lit := &String{
		Span: Span{
			StartOffset: base + bodyStart,
			EndOffset:   base + bodyEnd,
			StartLine:   line,
			StartCol:    col,
		},
		Doc:    true,
		Indent: marker[:len(marker)-len(trimmed)],
	}

	value := dedent(body, lit.Indent)

	if nowdoc {
		lit.Quote = quoteSingle
		lit.Value = value
	} else {
		lit.Quote = quoteDouble
		lit.Value = unquoteHeredoc(value)
		lit.EscapeBackslashes = strings.Contains(body, `\\`)
	}

	lit.original = lit.Value

	return lit
}

func (c *converter) propertyDeclaration(n sitter.Node) *Generic {
	decl := &Generic{Span: c.span(n), Kind: n.Type()}

	static := false

	for idx := range n.NamedChildCount() {
		if n.NamedChild(idx).Type() == tsStaticModifier {
			static = true
		}
	}

	for idx := range n.NamedChildCount() {
		child := n.NamedChild(idx)
		if child.Type() == tsPropertyElement {
			decl.Kids = append(decl.Kids, c.property(child, static))

			continue
		}

		if conv := c.convert(child); conv != nil {
			decl.Kids = append(decl.Kids, conv)
		}
	}

	return decl
}

func (c *converter) property(n sitter.Node, static bool) *Property {
	prop := &Property{Span: c.span(n), Static: static}

	if value := n.ChildByFieldName(fieldDefaultValue); !value.IsNull() {
		prop.Default = c.convert(value)
	}

	for idx := range n.NamedChildCount() {
		child := n.NamedChild(idx)

		switch child.Type() {
		case tsVariableName:
			prop.Name = strings.TrimPrefix(c.text(child), "$")
		case tsPropertyInitializer:
			if prop.Default == nil && child.NamedChildCount() > 0 {
				prop.Default = c.convert(child.NamedChild(0))
			}
		}
	}

	return prop
}

func (c *converter) array(n sitter.Node) *Array {
	arr := &Array{Span: c.span(n)}

	for idx := range n.NamedChildCount() {
		child := n.NamedChild(idx)
		if child.Type() != tsArrayElement {
			continue
		}

		item := &ArrayItem{Span: c.span(child)}
		parts := c.children(child)

		switch len(parts) {
		case 0:
		case 1:
			item.Value = parts[0]
		default:
			item.Key = parts[0]
			item.Value = parts[len(parts)-1]
		}

		arr.Items = append(arr.Items, item)
	}

	return arr
}
