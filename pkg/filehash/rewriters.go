package filehash

import "strings"

// keySeparator joins the isolation prefix and the original identifier.
const keySeparator = "_"

// KeyPrefix returns a Rewriter that namespaces every string identifier with
// prefix, turning '0e6d7bf4...' into 'Iso_0e6d7bf4...'. Identifiers stay
// unique per isolated copy while paths are left alone. Identifiers that
// already carry the prefix are skipped, so repeated runs are stable.
func KeyPrefix(prefix string) Rewriter {
	marker := prefix + keySeparator

	return RewriterFunc(func(entry Entry) bool {
		if entry.Key == nil || prefix == "" || strings.HasPrefix(entry.Key.Value, marker) {
			return false
		}

		entry.Key.Value = marker + entry.Key.Value

		return true
	})
}

// Noop returns a Rewriter that leaves every entry unchanged.
func Noop() Rewriter {
	return RewriterFunc(func(Entry) bool { return false })
}
