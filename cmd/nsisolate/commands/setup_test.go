package commands_test

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/nsisolate/cmd/nsisolate/commands"
	"github.com/Sumatoshi-tech/nsisolate/pkg/config"
)

func TestBuildChecker(t *testing.T) {
	t.Parallel()

	fx := newFixture(t, "")

	root := filepath.Dir(fx.configPath)
	composerJSON := filepath.Join(root, "composer.json")
	require.NoError(t, os.WriteFile(composerJSON,
		[]byte(`{"autoload": {"psr-4": {"Vendor\\Pkg\\Own\\": "src/"}}}`), 0o644))

	cfg := &config.Config{
		Prefix:       "Iso",
		VendorDir:    fx.vendorDir,
		ComposerJSON: composerJSON,
		Namespaces: config.NamespaceConfig{
			Include:  []string{`Extra\Ns`},
			Exclude:  []string{`Other\Lib\Internal`},
			Patterns: []string{`^Regex\\`},
		},
		Packages: config.PackageConfig{Exclude: []string{"skipped/tool"}},
	}

	checker, err := commands.BuildChecker(context.Background(), cfg, slog.New(slog.DiscardHandler))
	require.NoError(t, err)

	cases := map[string]bool{
		`Vendor\Pkg\`:         true,
		`Vendor\Pkg\Sub\`:     true,
		`Other\Lib\`:          true,
		`Extra\Ns\`:           true,
		`Regex\Anything\`:     true,
		`Skipped\Tool\`:       false,
		`Other\Lib\Internal\`: false,
		`Vendor\Pkg\Own\`:     false,
		`Iso\Vendor\Pkg\`:     false,
		`Psr\Log\`:            false,
	}

	for candidate, want := range cases {
		assert.Equal(t, want, checker.ShouldTransform(candidate), candidate)
	}

	checker.ShouldTransform(`Vendor\Pkg\`)
	assert.Positive(t, checker.Hits())
}

func TestBuildChecker_InvalidPattern(t *testing.T) {
	t.Parallel()

	cfg := &config.Config{
		Prefix:     "Iso",
		VendorDir:  t.TempDir(),
		Namespaces: config.NamespaceConfig{Patterns: []string{"("}},
	}

	_, err := commands.BuildChecker(context.Background(), cfg, slog.New(slog.DiscardHandler))
	require.Error(t, err)
}
