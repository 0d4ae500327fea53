package phpast

import (
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	quoteSingle = '\''
	quoteDouble = '"'

	octalMaxDigits = 3
	hexMaxDigits   = 2
)

// unquoteSingle decodes the body of a single-quoted literal. Only \\ and \'
// are escapes; any other backslash is literal.
func unquoteSingle(body string) string {
	if !strings.Contains(body, `\`) {
		return body
	}

	var sb strings.Builder

	sb.Grow(len(body))

	for idx := 0; idx < len(body); idx++ {
		ch := body[idx]
		if ch == '\\' && idx+1 < len(body) && (body[idx+1] == '\\' || body[idx+1] == quoteSingle) {
			sb.WriteByte(body[idx+1])
			idx++

			continue
		}

		sb.WriteByte(ch)
	}

	return sb.String()
}

// quoteSingleBody encodes value for a single-quoted literal. Unless
// escapeAll is set, a backslash is doubled only where it would otherwise
// start an escape or swallow the closing quote.
func quoteSingleBody(value string, escapeAll bool) string {
	var sb strings.Builder

	sb.Grow(len(value) + len(value)/8) //nolint:mnd // small headroom for escapes

	for idx := range len(value) {
		ch := value[idx]

		switch {
		case ch == quoteSingle:
			sb.WriteString(`\'`)
		case ch == '\\' && (escapeAll || idx+1 == len(value) || value[idx+1] == '\\' || value[idx+1] == quoteSingle):
			sb.WriteString(`\\`)
		default:
			sb.WriteByte(ch)
		}
	}

	return sb.String()
}

// unquoteDouble decodes the body of a double-quoted literal without
// interpolation. Unknown escapes are kept verbatim, as PHP does.
func unquoteDouble(body string) string {
	return unquoteEscaped(body, quoteDouble)
}

// unquoteHeredoc decodes a heredoc body. It differs from a double-quoted
// body only in that \" is not an escape.
func unquoteHeredoc(body string) string {
	return unquoteEscaped(body, 0)
}

func unquoteEscaped(body string, quote byte) string {
	if !strings.Contains(body, `\`) {
		return body
	}

	var sb strings.Builder

	sb.Grow(len(body))

	for idx := 0; idx < len(body); idx++ {
		ch := body[idx]
		if ch != '\\' || idx+1 == len(body) {
			sb.WriteByte(ch)

			continue
		}

		consumed := decodeDoubleEscape(body[idx+1:], quote, &sb)
		idx += consumed
	}

	return sb.String()
}

// decodeDoubleEscape decodes the escape following a backslash and returns
// how many bytes after the backslash it consumed.
func decodeDoubleEscape(rest string, quote byte, sb *strings.Builder) int {
	next := rest[0]

	switch {
	case next == quoteDouble && quote != quoteDouble:
		sb.WriteByte('\\')
		sb.WriteByte(next)

		return 1
	case next == '\\', next == '$', next == quoteDouble:
		sb.WriteByte(next)

		return 1
	}

	switch next {
	case 'n':
		sb.WriteByte('\n')
	case 't':
		sb.WriteByte('\t')
	case 'r':
		sb.WriteByte('\r')
	case 'v':
		sb.WriteByte('\v')
	case 'e':
		sb.WriteByte(0x1b) //nolint:mnd // ESC
	case 'f':
		sb.WriteByte('\f')
	case 'x':
		return decodeNumeric(rest, 1, hexMaxDigits, 16, isHexDigit, sb) //nolint:mnd // base 16
	case 'u':
		return decodeUnicode(rest, sb)
	default:
		if isOctalDigit(next) {
			return decodeNumeric(rest, 0, octalMaxDigits, 8, isOctalDigit, sb) //nolint:mnd // base 8
		}

		sb.WriteByte('\\')
		sb.WriteByte(next)
	}

	return 1
}

func decodeNumeric(rest string, skip, maxDigits, base int, valid func(byte) bool, sb *strings.Builder) int {
	end := skip
	for end < len(rest) && end-skip < maxDigits && valid(rest[end]) {
		end++
	}

	if end == skip {
		// "\x" with no digits stays literal.
		sb.WriteByte('\\')
		sb.WriteByte(rest[0])

		return 1
	}

	val, err := strconv.ParseUint(rest[skip:end], base, 16)
	if err != nil {
		sb.WriteByte('\\')
		sb.WriteString(rest[:end])

		return end
	}

	sb.WriteByte(byte(val)) //nolint:gosec // PHP truncates octal escapes to one byte.

	return end
}

func decodeUnicode(rest string, sb *strings.Builder) int {
	if len(rest) < 3 || rest[1] != '{' { //nolint:mnd // u{X}
		sb.WriteString(`\u`)

		return 1
	}

	closing := strings.IndexByte(rest, '}')
	if closing < 0 {
		sb.WriteString(`\u`)

		return 1
	}

	code, err := strconv.ParseUint(rest[2:closing], 16, 32)
	if err != nil || code > utf8.MaxRune {
		sb.WriteString(`\u`)

		return 1
	}

	sb.WriteRune(rune(code))

	return closing + 1
}

// quoteDoubleBody encodes value for a double-quoted literal.
func quoteDoubleBody(value string, escapeAll bool) string {
	var sb strings.Builder

	sb.Grow(len(value) + len(value)/8) //nolint:mnd // small headroom for escapes

	for idx := range len(value) {
		ch := value[idx]

		switch ch {
		case quoteDouble:
			sb.WriteString(`\"`)
		case '$':
			sb.WriteString(`\$`)
		case '\n':
			sb.WriteString(`\n`)
		case '\t':
			sb.WriteString(`\t`)
		case '\r':
			sb.WriteString(`\r`)
		case '\v':
			sb.WriteString(`\v`)
		case '\f':
			sb.WriteString(`\f`)
		case 0x1b: //nolint:mnd // ESC
			sb.WriteString(`\e`)
		case '\\':
			if escapeAll || idx+1 == len(value) || startsDoubleEscape(value[idx+1]) {
				sb.WriteString(`\\`)
			} else {
				sb.WriteByte(ch)
			}
		default:
			sb.WriteByte(ch)
		}
	}

	return sb.String()
}

func startsDoubleEscape(ch byte) bool {
	switch ch {
	case 'n', 't', 'r', 'v', 'e', 'f', '\\', '$', quoteDouble, 'x', 'u':
		return true
	default:
		return isOctalDigit(ch)
	}
}

func isOctalDigit(ch byte) bool { return ch >= '0' && ch <= '7' }

func isHexDigit(ch byte) bool {
	return (ch >= '0' && ch <= '9') || (ch >= 'a' && ch <= 'f') || (ch >= 'A' && ch <= 'F')
}

// quoteHeredocBody encodes value for a heredoc body. Line breaks, tabs and
// double quotes stay literal.
func quoteHeredocBody(value string, escapeAll bool) string {
	var sb strings.Builder

	sb.Grow(len(value) + len(value)/8) //nolint:mnd // small headroom for escapes

	for idx := range len(value) {
		ch := value[idx]

		switch {
		case ch == '$':
			sb.WriteString(`\$`)
		case ch == '\\' && (escapeAll || idx+1 == len(value) || startsDoubleEscape(value[idx+1])):
			sb.WriteString(`\\`)
		default:
			sb.WriteByte(ch)
		}
	}

	return sb.String()
}

// hasInterpolation reports whether a heredoc body embeds variables
// ($name, {$expr} or ${expr}).
func hasInterpolation(body string) bool {
	for idx := 0; idx < len(body)-1; idx++ {
		switch ch, next := body[idx], body[idx+1]; {
		case ch == '\\':
			idx++
		case ch == '$' && (next == '{' || next == '_' || next >= utf8.RuneSelf || unicode.IsLetter(rune(next))):
			return true
		case ch == '{' && next == '$':
			return true
		}
	}

	return false
}

// dedent removes indent from the start of every line of body.
func dedent(body, indent string) string {
	if indent == "" {
		return body
	}

	lines := strings.Split(body, "\n")
	for idx, line := range lines {
		lines[idx] = strings.TrimPrefix(line, indent)
	}

	return strings.Join(lines, "\n")
}

// indentLines prefixes every non-empty line of body with indent.
func indentLines(body, indent string) string {
	if indent == "" {
		return body
	}

	lines := strings.Split(body, "\n")
	for idx, line := range lines {
		if line != "" {
			lines[idx] = indent + line
		}
	}

	return strings.Join(lines, "\n")
}

// renderDocBody prints the body lines of a heredoc or nowdoc literal.
func renderDocBody(lit *String) string {
	body := lit.Value
	if lit.Quote == quoteDouble {
		body = quoteHeredocBody(body, lit.EscapeBackslashes)
	}

	return indentLines(body, lit.Indent)
}

// renderString prints a literal in its original quote style.
func renderString(lit *String) string {
	if lit.Doc {
		return renderDocBody(lit)
	}

	var sb strings.Builder

	if lit.Binary {
		sb.WriteByte('b')
	}

	quote := lit.Quote
	if quote != quoteDouble {
		quote = quoteSingle
	}

	sb.WriteByte(quote)

	if quote == quoteDouble {
		sb.WriteString(quoteDoubleBody(lit.Value, lit.EscapeBackslashes))
	} else {
		sb.WriteString(quoteSingleBody(lit.Value, lit.EscapeBackslashes))
	}

	sb.WriteByte(quote)

	return sb.String()
}
