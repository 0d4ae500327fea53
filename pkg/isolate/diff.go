package isolate

import (
	"fmt"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// LineDiff renders a compact unified-style line diff between before and
// after. Hunks carry no context lines; each starts with the 1-based line
// numbers it applies to.
func LineDiff(path string, before, after []byte) string {
	dmp := diffmatchpatch.New()
	src, dst, lines := dmp.DiffLinesToRunes(string(before), string(after))
	diffs := dmp.DiffCharsToLines(dmp.DiffMainRunes(src, dst, false), lines)

	var sb strings.Builder

	fmt.Fprintf(&sb, "--- a/%s\n+++ b/%s\n", path, path)

	oldLine, newLine := 1, 1
	inHunk := false

	for _, diff := range diffs {
		chunk := splitLines(diff.Text)

		switch diff.Type {
		case diffmatchpatch.DiffEqual:
			oldLine += len(chunk)
			newLine += len(chunk)
			inHunk = false
		case diffmatchpatch.DiffDelete:
			if !inHunk {
				fmt.Fprintf(&sb, "@@ -%d +%d @@\n", oldLine, newLine)
				inHunk = true
			}

			writePrefixed(&sb, "-", chunk)
			oldLine += len(chunk)
		case diffmatchpatch.DiffInsert:
			if !inHunk {
				fmt.Fprintf(&sb, "@@ -%d +%d @@\n", oldLine, newLine)
				inHunk = true
			}

			writePrefixed(&sb, "+", chunk)
			newLine += len(chunk)
		}
	}

	return sb.String()
}

func splitLines(text string) []string {
	if text == "" {
		return nil
	}

	return strings.SplitAfter(strings.TrimSuffix(text, "\n"), "\n")
}

func writePrefixed(sb *strings.Builder, marker string, lines []string) {
	for _, line := range lines {
		sb.WriteString(marker)
		sb.WriteString(strings.TrimSuffix(line, "\n"))
		sb.WriteByte('\n')
	}
}
