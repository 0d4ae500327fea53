package phpast

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUnquoteSingle(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		`plain`:          "plain",
		`Vendor\Pkg\Foo`: `Vendor\Pkg\Foo`,
		`Vendor\\Pkg\\`:  `Vendor\Pkg\`,
		`it\'s`:          "it's",
		`keeps\n`:        `keeps\n`,
		`trailing\`:      `trailing\`,
	}

	for body, want := range tests {
		assert.Equal(t, want, unquoteSingle(body), body)
	}
}

func TestUnquoteDouble(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		`plain`:          "plain",
		`a\tb`:           "a\tb",
		`\x41\101`:       "AA",
		`\u{1F600}`:      "\U0001F600",
		`\$var \"q\"`:    `$var "q"`,
		`Vendor\Pkg\Foo`: `Vendor\Pkg\Foo`,
		`Vendor\\Pkg\\`:  `Vendor\Pkg\`,
		`\xZZ`:           `\xZZ`,
		`A`:              `A`,
	}

	for body, want := range tests {
		assert.Equal(t, want, unquoteDouble(body), body)
	}
}

func TestUnquoteHeredoc(t *testing.T) {
	t.Parallel()

	assert.Equal(t, `Vendor\Pkg\`, unquoteHeredoc(`Vendor\\Pkg\\`))
	assert.Equal(t, `say \"hi\" $x`, unquoteHeredoc(`say \"hi\" \$x`))
	assert.Equal(t, "a\tb", unquoteHeredoc(`a\tb`))
}

func TestHasInterpolation(t *testing.T) {
	t.Parallel()

	tests := map[string]bool{
		`Vendor\Pkg\Foo`:     false,
		`costs $5`:           false,
		`escaped \$name`:     false,
		`brace {literal}`:    false,
		`hello $name`:        true,
		`hello {$obj->name}`: true,
		`hello ${name}`:      true,
	}

	for body, want := range tests {
		assert.Equal(t, want, hasInterpolation(body), body)
	}
}

func TestRenderDocBody(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		lit  String
		want string
	}{
		{name: "nowdoc verbatim", lit: String{Doc: true, Quote: '\'', Value: `Iso\Vendor\ $x`}, want: `Iso\Vendor\ $x`},
		{name: "heredoc dollar", lit: String{Doc: true, Quote: '"', Value: `Iso\Vendor $x`}, want: `Iso\Vendor \$x`},
		{name: "heredoc escape all", lit: String{Doc: true, Quote: '"', Value: `Iso\Pkg\`, EscapeBackslashes: true}, want: `Iso\\Pkg\\`},
		{name: "indented", lit: String{Doc: true, Quote: '\'', Value: "one\n\ntwo", Indent: "  "}, want: "  one\n\n  two"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tt.want, renderString(&tt.lit))
		})
	}
}

func TestRenderString(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		lit  String
		want string
	}{
		{name: "single minimal", lit: String{Value: `Iso\Vendor\Foo`, Quote: '\''}, want: `'Iso\Vendor\Foo'`},
		{name: "single trailing", lit: String{Value: `Iso\Vendor\`, Quote: '\''}, want: `'Iso\Vendor\\'`},
		{name: "single escape all", lit: String{Value: `Iso\Vendor\`, Quote: '\'', EscapeBackslashes: true}, want: `'Iso\\Vendor\\'`},
		{name: "single quote", lit: String{Value: `it's`, Quote: '\''}, want: `'it\'s'`},
		{name: "double minimal", lit: String{Value: `Iso\Vendor\Foo`, Quote: '"'}, want: `"Iso\Vendor\Foo"`},
		{name: "double escapes", lit: String{Value: "Iso\\nope\n$x", Quote: '"'}, want: `"Iso\\nope\n\$x"`},
		{name: "double escape all", lit: String{Value: `Iso\Pkg\`, Quote: '"', EscapeBackslashes: true}, want: `"Iso\\Pkg\\"`},
		{name: "binary", lit: String{Value: "x", Quote: '\'', Binary: true}, want: `b'x'`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tt.want, renderString(&tt.lit))
		})
	}
}

func TestQuoteRoundTrip(t *testing.T) {
	t.Parallel()

	values := []string{`Iso\Vendor\Pkg\`, `a\\b`, `it's`, "tab\there", `$dollar`, `\n literal`}

	for _, value := range values {
		assert.Equal(t, value, unquoteSingle(quoteSingleBody(value, false)), value)
		assert.Equal(t, value, unquoteDouble(quoteDoubleBody(value, false)), value)
		assert.Equal(t, value, unquoteSingle(quoteSingleBody(value, true)), value)
		assert.Equal(t, value, unquoteDouble(quoteDoubleBody(value, true)), value)
	}
}
