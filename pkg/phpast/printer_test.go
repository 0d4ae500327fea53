package phpast_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/nsisolate/pkg/phpast"
)

func TestPrint_UnchangedTreeIsByteIdentical(t *testing.T) {
	t.Parallel()

	src := "<?php\n// comment\nnamespace   Vendor\\Pkg ;\n\n$y = 'Vendor\\Pkg\\Foo';  /* keep */\n"
	file := parse(t, src)

	assert.False(t, phpast.Changed(file))
	assert.Equal(t, src, string(phpast.Print(file)))
}

func TestPrint_SplicesModifiedLeaves(t *testing.T) {
	t.Parallel()

	src := "<?php\nnamespace Vendor\\Pkg;\n\n// keep me\n$y = 'Vendor\\Pkg\\Foo';\n$x = new \\Vendor\\Pkg\\Foo();\n"
	file := parse(t, src)
	got := collect(file)

	got.namespaces[0].Name.Parts = append([]string{"Iso"}, got.namespaces[0].Name.Parts...)
	got.strings[0].Value = `Iso\Vendor\Pkg\Foo`

	for _, ref := range got.references {
		ref.Parts = append([]string{"Iso"}, ref.Parts...)
	}

	want := "<?php\nnamespace Iso\\Vendor\\Pkg;\n\n// keep me\n$y = 'Iso\\Vendor\\Pkg\\Foo';\n$x = new \\Iso\\Vendor\\Pkg\\Foo();\n"

	assert.True(t, phpast.Changed(file))
	assert.Equal(t, want, string(phpast.Print(file)))
}

func TestPrint_HeredocAndNowdocBodies(t *testing.T) {
	t.Parallel()

	src := "<?php\n" +
		"$n = <<<'EOT'\nVendor\\Pkg\\Foo\nEOT;\n" +
		"$h = <<<EOT\n    Vendor\\Pkg\\Bar\n    EOT;\n" +
		"$q = <<<\"EOT\"\nVendor\\\\Pkg\\\\\nEOT;\n"
	file := parse(t, src)
	got := collect(file)

	require.Len(t, got.strings, 3)

	for _, lit := range got.strings {
		lit.Value = `Iso\` + lit.Value
	}

	want := "<?php\n" +
		"$n = <<<'EOT'\nIso\\Vendor\\Pkg\\Foo\nEOT;\n" +
		"$h = <<<EOT\n    Iso\\Vendor\\Pkg\\Bar\n    EOT;\n" +
		"$q = <<<\"EOT\"\nIso\\\\Vendor\\\\Pkg\\\\\nEOT;\n"

	assert.Equal(t, want, string(phpast.Print(file)))
}

func TestPrint_DoesNotAliasSource(t *testing.T) {
	t.Parallel()

	src := "<?php\necho 1;\n"
	file := parse(t, src)

	out := phpast.Print(file)
	out[0] = 'X'

	assert.Equal(t, byte('<'), file.Source[0])
}
