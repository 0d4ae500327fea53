// Package filehash patches Composer's generated static autoloader.
//
// Composer writes a ComposerStaticInit class whose static $files property
// maps a file identifier hash to the path of a file that must be included
// eagerly. The loader records every identifier it has included in a global,
// so an isolated copy of a package shares identifiers with the host's copy
// and one of the two is silently skipped. The Patcher locates that property
// and hands each entry to a Rewriter.
//
// How an entry is rewritten is deliberately pluggable: the identifier
// scheme is Composer's, and this package does not recompute it.
package filehash

import "github.com/Sumatoshi-tech/nsisolate/pkg/phpast"

// FilesProperty is the generated property holding the file identifier map.
const FilesProperty = "files"

// Entry is one element of the files map.
type Entry struct {
	// Item is the array element; rewriters may modify its key or value nodes.
	Item *phpast.ArrayItem
	// Key is the identifier literal, nil when the key is not a plain string.
	Key *phpast.String
	// Value is the path expression, typically __DIR__ . '/..' . '/pkg/file.php'.
	Value phpast.Node
}

// Rewriter rewrites a single files entry and reports whether it changed it.
type Rewriter interface {
	Rewrite(entry Entry) bool
}

// RewriterFunc adapts a function to the Rewriter interface.
type RewriterFunc func(entry Entry) bool

// Rewrite calls fn(entry).
func (fn RewriterFunc) Rewrite(entry Entry) bool { return fn(entry) }

// Patcher applies a Rewriter to the files map of one file. Like the
// relocation visitor it holds per-file state and must not be reused.
type Patcher struct {
	rewriter    Rewriter
	transformed bool
}

// NewPatcher creates a Patcher delegating entry rewrites to rewriter.
func NewPatcher(rewriter Rewriter) *Patcher {
	return &Patcher{rewriter: rewriter}
}

// Visit walks file and patches it in place.
func (p *Patcher) Visit(file *phpast.File) {
	phpast.Walk(file, p)
}

// Enter implements phpast.Visitor.
func (p *Patcher) Enter(node phpast.Node) bool {
	prop, ok := node.(*phpast.Property)
	if !ok || prop.Name != FilesProperty {
		return true
	}

	arr, ok := prop.Default.(*phpast.Array)
	if !ok {
		return true
	}

	for _, item := range arr.Items {
		key, _ := item.Key.(*phpast.String)

		if p.rewriter.Rewrite(Entry{Item: item, Key: key, Value: item.Value}) {
			p.transformed = true
		}
	}

	return true
}

// DidTransform reports whether any entry was rewritten.
func (p *Patcher) DidTransform() bool {
	return p.transformed
}
