package phpast

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	sitter "github.com/alexaandru/go-tree-sitter-bare"

	"github.com/alexaandru/go-sitter-forest/php"
)

// Sentinel errors for parser operations.
var (
	// ErrSyntax is returned when the source does not parse as PHP.
	ErrSyntax = errors.New("php syntax error")

	errNoRootNode = errors.New("phpast: no root node")
	errPoolType   = errors.New("phpast: pool returned unexpected type")
)

// nodeTypeError is the tree-sitter node type for unparsable input.
const nodeTypeError = "ERROR"

var (
	languageOnce sync.Once
	language     *sitter.Language
)

func phpLanguage() *sitter.Language {
	languageOnce.Do(func() {
		language = sitter.NewLanguage(php.GetLanguage())
	})

	return language
}

// Parser parses PHP source into a File tree. It is safe for concurrent use;
// tree-sitter parsers are pooled per goroutine use.
type Parser struct {
	pool sync.Pool
}

// NewParser creates a Parser for the PHP grammar.
func NewParser() *Parser {
	lang := phpLanguage()

	return &Parser{
		pool: sync.Pool{
			New: func() any {
				tsParser := sitter.NewParser()
				tsParser.SetLanguage(lang)

				return tsParser
			},
		},
	}
}

// Parse parses content and returns its tree. Files containing syntax errors
// are rejected with ErrSyntax so that callers never reprint a partially
// understood file.
func (p *Parser) Parse(ctx context.Context, filename string, content []byte) (*File, error) {
	tsParser, ok := p.pool.Get().(*sitter.Parser)
	if !ok {
		return nil, errPoolType
	}

	defer p.pool.Put(tsParser)

	tree, err := tsParser.ParseString(ctx, nil, content)
	if err != nil {
		return nil, fmt.Errorf("phpast: failed to parse %s: %w", filename, err)
	}
	defer tree.Close()

	root := tree.RootNode()
	if root.IsNull() {
		return nil, errNoRootNode
	}

	conv := newConverter(content)

	if root.HasError() {
		line, col := conv.lineCol(conv.offset(firstErrorOffset(root)))

		return nil, fmt.Errorf("%w: %s:%d:%d", ErrSyntax, filename, line, col)
	}

	file := &File{
		Span:   conv.span(root),
		Name:   filename,
		Source: content,
		Stmts:  conv.children(root),
	}

	return file, nil
}

// firstErrorOffset returns the start byte of the first ERROR node, or the
// root start when the error is a missing token rather than an ERROR node.
func firstErrorOffset(root sitter.Node) uint {
	stack := []sitter.Node{root}

	for len(stack) > 0 {
		curr := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if curr.Type() == nodeTypeError {
			return curr.StartByte()
		}

		if !curr.HasError() {
			continue
		}

		for idx := curr.ChildCount(); idx > 0; idx-- {
			stack = append(stack, curr.Child(idx-1))
		}
	}

	return root.StartByte()
}

// lineIndex maps byte offsets to 1-based line/column positions.
type lineIndex []int

func newLineIndex(src []byte) lineIndex {
	starts := lineIndex{0}

	for idx, ch := range src {
		if ch == '\n' {
			starts = append(starts, idx+1)
		}
	}

	return starts
}

func (li lineIndex) lineCol(offset int) (line, col int) {
	line = sort.Search(len(li), func(i int) bool { return li[i] > offset })

	return line, offset - li[line-1] + 1
}
