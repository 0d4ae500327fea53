package isolate

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/src-d/enry/v2"
)

// sniffSize is how much of an ambiguous file is read for classification.
const sniffSize = 16 << 10

// vcsDirs are never descended into.
var vcsDirs = []string{".git", ".hg", ".svn", ".bzr"}

// phpLanguages are the enry language names accepted as PHP sources.
var phpLanguages = []string{"PHP", "HTML+PHP"}

// Discover returns the PHP sources under root in lexical order. Files named
// *.php are always selected; *.inc, *.phtml and extensionless files are
// selected when enry classifies their content as PHP. Symbolic links are
// skipped so that nothing outside root is rewritten.
func Discover(ctx context.Context, root string, excludeDirs []string) ([]string, error) {
	var paths []string

	err := filepath.WalkDir(root, func(path string, entry fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}

		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}

		if entry.IsDir() {
			if path != root && isExcludedDir(entry.Name(), excludeDirs) {
				return filepath.SkipDir
			}

			return nil
		}

		if !entry.Type().IsRegular() {
			return nil
		}

		ok, err := isPHPSource(path)
		if err != nil {
			return err
		}

		if ok {
			paths = append(paths, path)
		}

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("discover %s: %w", root, err)
	}

	return paths, nil
}

func isExcludedDir(name string, excludeDirs []string) bool {
	return slices.Contains(vcsDirs, name) || slices.Contains(excludeDirs, name)
}

func isPHPSource(path string) (bool, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".php":
		return true, nil
	case ".inc", ".phtml", "":
	default:
		return false, nil
	}

	head, err := readHead(path)
	if err != nil {
		return false, err
	}

	if len(head) == 0 || enry.IsBinary(head) {
		return false, nil
	}

	return slices.Contains(phpLanguages, enry.GetLanguage(filepath.Base(path), head)), nil
}

func readHead(path string) ([]byte, error) {
	fd, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer fd.Close()

	buf := make([]byte, sniffSize)

	n, err := io.ReadFull(fd, buf)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	return buf[:n], nil
}
