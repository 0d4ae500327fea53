package phpast

import (
	"bytes"
	"sort"
)

// edit replaces source[start:end] with text.
type edit struct {
	start int
	end   int
	text  string
}

// Print renders the file back to source. Only names and string literals can
// change, so the printer splices the re-rendered leaves into the original
// source and leaves every other byte, comments and layout included, intact.
func Print(file *File) []byte {
	edits := collectEdits(file)
	if len(edits) == 0 {
		return bytes.Clone(file.Source)
	}

	var buf bytes.Buffer

	buf.Grow(len(file.Source) + len(edits)*16) //nolint:mnd // typical prefix length

	cursor := 0

	for _, ed := range edits {
		if ed.start < cursor || ed.end > len(file.Source) {
			continue
		}

		buf.Write(file.Source[cursor:ed.start])
		buf.WriteString(ed.text)
		cursor = ed.end
	}

	buf.Write(file.Source[cursor:])

	return buf.Bytes()
}

// Changed reports whether any name or string literal in the tree differs
// from the parsed source.
func Changed(file *File) bool {
	return len(collectEdits(file)) > 0
}

func collectEdits(file *File) []edit {
	var edits []edit

	Inspect(file, func(node Node) bool {
		switch leaf := node.(type) {
		case *Name:
			if leaf.Modified() {
				edits = append(edits, edit{start: leaf.StartOffset, end: leaf.EndOffset, text: leaf.String()})
			}
		case *String:
			if leaf.Modified() {
				edits = append(edits, edit{start: leaf.StartOffset, end: leaf.EndOffset, text: renderString(leaf)})
			}
		}

		return true
	})

	sort.SliceStable(edits, func(i, j int) bool { return edits[i].start < edits[j].start })

	return edits
}
