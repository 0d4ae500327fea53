package phpast_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/nsisolate/pkg/phpast"
)

const parserSource = `<?php
namespace Vendor\Pkg;

use Other\Lib\Thing as Alias, Other\Lib\Util;
use function Other\Lib\helper;
use Other\Lib\{Alpha, Beta as B};

$x = new \Vendor\Pkg\Foo();
$y = 'Vendor\Pkg\Foo';
$z = "hello $name";
$w = namespace\Local\Thing::NAME;
`

type collected struct {
	namespaces []*phpast.Namespace
	uses       []*phpast.Use
	references []*phpast.Name
	strings    []*phpast.String
}

func collect(file *phpast.File) collected {
	var out collected

	phpast.Inspect(file, func(node phpast.Node) bool {
		switch n := node.(type) {
		case *phpast.Namespace:
			out.namespaces = append(out.namespaces, n)
		case *phpast.Use:
			out.uses = append(out.uses, n)
		case *phpast.Name:
			if n.Role == phpast.RoleReference {
				out.references = append(out.references, n)
			}
		case *phpast.String:
			out.strings = append(out.strings, n)
		}

		return true
	})

	return out
}

func parse(t *testing.T, src string) *phpast.File {
	t.Helper()

	file, err := phpast.NewParser().Parse(context.Background(), "test.php", []byte(src))
	require.NoError(t, err)

	return file
}

func TestParse_NamespaceAndUses(t *testing.T) {
	t.Parallel()

	got := collect(parse(t, parserSource))

	require.Len(t, got.namespaces, 1)
	require.NotNil(t, got.namespaces[0].Name)
	assert.Equal(t, []string{"Vendor", "Pkg"}, got.namespaces[0].Name.Parts)
	assert.Equal(t, phpast.RoleDeclaration, got.namespaces[0].Name.Role)
	assert.Equal(t, 2, got.namespaces[0].StartLine)

	require.Len(t, got.uses, 3)

	plain := got.uses[0]
	require.Len(t, plain.Clauses, 2)
	assert.Equal(t, `Other\Lib\Thing`, plain.Clauses[0].Name.String())
	assert.Equal(t, "Alias", plain.Clauses[0].Alias)
	assert.Equal(t, `Other\Lib\Util`, plain.Clauses[1].Name.String())
	assert.Empty(t, plain.Clauses[1].Alias)

	fn := got.uses[1]
	assert.Equal(t, phpast.UseFunction, fn.Kind)
	require.Len(t, fn.Clauses, 1)
	assert.Equal(t, `Other\Lib\helper`, fn.Clauses[0].Name.String())

	group := got.uses[2]
	require.NotNil(t, group.Prefix)
	assert.Equal(t, `Other\Lib`, group.Prefix.String())
	require.Len(t, group.Clauses, 2)
	assert.Equal(t, "Alpha", group.Clauses[0].Name.String())
	assert.Equal(t, "Beta", group.Clauses[1].Name.String())
	assert.Equal(t, "B", group.Clauses[1].Alias)
}

func TestParse_ReferencesAndStrings(t *testing.T) {
	t.Parallel()

	got := collect(parse(t, parserSource))

	var rendered []string
	for _, ref := range got.references {
		rendered = append(rendered, ref.String())
	}

	assert.Contains(t, rendered, `\Vendor\Pkg\Foo`)
	assert.Contains(t, rendered, `namespace\Local\Thing`)

	for _, ref := range got.references {
		if ref.String() == `\Vendor\Pkg\Foo` {
			assert.True(t, ref.FullyQualified)
			assert.Equal(t, []string{"Vendor", "Pkg", "Foo"}, ref.Parts)
		}
	}

	// The interpolated string is not a literal.
	require.Len(t, got.strings, 1)
	assert.Equal(t, `Vendor\Pkg\Foo`, got.strings[0].Value)
	assert.Equal(t, byte('\''), got.strings[0].Quote)
}

func TestParse_DoubleQuotedEscapes(t *testing.T) {
	t.Parallel()

	got := collect(parse(t, "<?php\n$a = \"Vendor\\\\Pkg\\\\Foo\";\n"))

	require.Len(t, got.strings, 1)
	assert.Equal(t, `Vendor\Pkg\Foo`, got.strings[0].Value)
	assert.True(t, got.strings[0].EscapeBackslashes)
}

func TestParse_StaticFilesProperty(t *testing.T) {
	t.Parallel()

	src := `<?php
class ComposerStaticInitabc
{
    public static $files = array (
        'abc123' => __DIR__ . '/..' . '/a/b.php',
    );
}
`

	var props []*phpast.Property

	phpast.Inspect(parse(t, src), func(node phpast.Node) bool {
		if prop, ok := node.(*phpast.Property); ok {
			props = append(props, prop)
		}

		return true
	})

	require.Len(t, props, 1)
	assert.Equal(t, "files", props[0].Name)
	assert.True(t, props[0].Static)

	arr, ok := props[0].Default.(*phpast.Array)
	require.True(t, ok)
	require.Len(t, arr.Items, 1)

	key, ok := arr.Items[0].Key.(*phpast.String)
	require.True(t, ok)
	assert.Equal(t, "abc123", key.Value)
}

func TestParse_UseKinds(t *testing.T) {
	t.Parallel()

	src := `<?php
use Vendor\Pkg\Thing;
use function Vendor\Pkg\helper, Vendor\Pkg\other;
use const Vendor\Pkg\LIMIT;
use Vendor\Pkg\{Alpha, function beta, const GAMMA};
`

	got := collect(parse(t, src))
	require.Len(t, got.uses, 4)

	assert.Equal(t, phpast.UseNormal, got.uses[0].Kind)
	assert.Equal(t, phpast.UseNormal, got.uses[0].Clauses[0].Kind)

	fn := got.uses[1]
	assert.Equal(t, phpast.UseFunction, fn.Kind)
	require.Len(t, fn.Clauses, 2)

	for _, clause := range fn.Clauses {
		assert.Equal(t, phpast.UseFunction, clause.Kind, clause.Name.String())
	}

	assert.Equal(t, `Vendor\Pkg\other`, fn.Clauses[1].Name.String())

	assert.Equal(t, phpast.UseConst, got.uses[2].Kind)
	require.Len(t, got.uses[2].Clauses, 1)
	assert.Equal(t, phpast.UseConst, got.uses[2].Clauses[0].Kind)

	group := got.uses[3]
	assert.Equal(t, phpast.UseNormal, group.Kind)
	require.Len(t, group.Clauses, 3)
	assert.Equal(t, phpast.UseNormal, group.Clauses[0].Kind)
	assert.Equal(t, phpast.UseFunction, group.Clauses[1].Kind)
	assert.Equal(t, "beta", group.Clauses[1].Name.String())
	assert.Equal(t, phpast.UseConst, group.Clauses[2].Kind)
}

func TestParse_HeredocAndNowdoc(t *testing.T) {
	t.Parallel()

	src := "<?php\n" +
		"$n = <<<'EOT'\nVendor\\Pkg\\Foo\nEOT;\n" +
		"$h = <<<EOT\n    Vendor\\Pkg\\Bar\n    EOT;\n" +
		"$q = <<<\"EOT\"\nVendor\\\\Pkg\\\\\nEOT;\n" +
		"$i = <<<EOT\nVendor\\Pkg $name\nEOT;\n"

	got := collect(parse(t, src))
	require.Len(t, got.strings, 3, "the interpolated heredoc is not a literal")

	nowdoc := got.strings[0]
	assert.True(t, nowdoc.Doc)
	assert.Equal(t, byte('\''), nowdoc.Quote)
	assert.Equal(t, `Vendor\Pkg\Foo`, nowdoc.Value)
	assert.Equal(t, 3, nowdoc.StartLine)
	assert.Equal(t, `Vendor\Pkg\Foo`, src[nowdoc.StartOffset:nowdoc.EndOffset])

	indented := got.strings[1]
	assert.True(t, indented.Doc)
	assert.Equal(t, byte('"'), indented.Quote)
	assert.Equal(t, "    ", indented.Indent)
	assert.Equal(t, `Vendor\Pkg\Bar`, indented.Value)

	quoted := got.strings[2]
	assert.Equal(t, `Vendor\Pkg\`, quoted.Value)
	assert.True(t, quoted.EscapeBackslashes)
}

func TestParse_SyntaxError(t *testing.T) {
	t.Parallel()

	_, err := phpast.NewParser().Parse(context.Background(), "bad.php", []byte("<?php\nfunction (\n"))
	require.ErrorIs(t, err, phpast.ErrSyntax)
	assert.Contains(t, err.Error(), "bad.php:")
}

func TestParser_ConcurrentUse(t *testing.T) {
	t.Parallel()

	parser := phpast.NewParser()
	done := make(chan error, 8)

	for range 8 {
		go func() {
			_, err := parser.Parse(context.Background(), "c.php", []byte(parserSource))
			done <- err
		}()
	}

	for range 8 {
		require.NoError(t, <-done)
	}
}
