package isolate_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/nsisolate/pkg/isolate"
)

func TestDiscover(t *testing.T) {
	t.Parallel()

	root := t.TempDir()

	writeFile(t, filepath.Join(root, "a", "A.php"), "<?php\n")
	writeFile(t, filepath.Join(root, "a", "B.PHP"), "<?php\n")
	writeFile(t, filepath.Join(root, "a", "README.md"), "# readme\n")
	writeFile(t, filepath.Join(root, ".git", "hooks", "hook.php"), "<?php\n")
	writeFile(t, filepath.Join(root, "node_modules", "x.php"), "<?php\n")
	writeFile(t, filepath.Join(root, "tests", "fixture.php"), "<?php\n")

	paths, err := isolate.Discover(context.Background(), root, []string{"node_modules", "tests"})
	require.NoError(t, err)

	assert.Equal(t, []string{
		filepath.Join(root, "a", "A.php"),
		filepath.Join(root, "a", "B.PHP"),
	}, paths)
}

func TestDiscover_CancelledContext(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeFile(t, filepath.Join(root, "A.php"), "<?php\n")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := isolate.Discover(ctx, root, nil)
	require.ErrorIs(t, err, context.Canceled)
}
