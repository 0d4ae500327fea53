package nscheck

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"
)

// ErrInvalidManifest is returned when a Composer manifest cannot be decoded.
var ErrInvalidManifest = errors.New("invalid composer manifest")

// autoload is the autoload section of a Composer package manifest.
// Values are directory lists or strings; only the keys matter here.
type autoload struct {
	PSR4 map[string]json.RawMessage `json:"psr-4"`
	PSR0 map[string]json.RawMessage `json:"psr-0"`
}

type composerPackage struct {
	Name     string   `json:"name"`
	Autoload autoload `json:"autoload"`
}

// installedV2 is the installed.json layout written by Composer 2.
type installedV2 struct {
	Packages []composerPackage `json:"packages"`
}

// ReadInstalled reads vendor/composer/installed.json and returns the
// canonical namespaces declared by every installed package's psr-4 and
// psr-0 autoload rules, minus the packages listed in skipPackages.
// Both the Composer 1 (top-level array) and Composer 2 layouts are accepted.
func ReadInstalled(path string, skipPackages []string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read installed packages: %w", err)
	}

	packages, err := decodeInstalled(data)
	if err != nil {
		return nil, fmt.Errorf("%w %s: %w", ErrInvalidManifest, path, err)
	}

	var namespaces []string

	for _, pkg := range packages {
		if slices.Contains(skipPackages, pkg.Name) {
			continue
		}

		namespaces = append(namespaces, pkg.Autoload.namespaces()...)
	}

	return dedupe(namespaces), nil
}

// ReadComposerJSON returns the canonical namespaces declared by a root
// package's composer.json autoload section.
func ReadComposerJSON(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read composer.json: %w", err)
	}

	var pkg composerPackage

	err = json.Unmarshal(data, &pkg)
	if err != nil {
		return nil, fmt.Errorf("%w %s: %w", ErrInvalidManifest, path, err)
	}

	return dedupe(pkg.Autoload.namespaces()), nil
}

func decodeInstalled(data []byte) ([]composerPackage, error) {
	trimmed := bytes.TrimSpace(data)

	if len(trimmed) > 0 && trimmed[0] == '[' {
		var packages []composerPackage

		err := json.Unmarshal(trimmed, &packages)
		if err != nil {
			return nil, fmt.Errorf("decode package list: %w", err)
		}

		return packages, nil
	}

	var installed installedV2

	err := json.Unmarshal(trimmed, &installed)
	if err != nil {
		return nil, fmt.Errorf("decode installed packages: %w", err)
	}

	return installed.Packages, nil
}

// namespaces returns the namespaces of the autoload rules. PSR-0 keys that
// are underscore class prefixes (Twig_) are not namespaces and are skipped,
// as is the empty fallback key.
func (a autoload) namespaces() []string {
	out := make([]string, 0, len(a.PSR4)+len(a.PSR0))

	for key := range a.PSR4 {
		if c := Canonical(key); c != "" {
			out = append(out, c)
		}
	}

	for key := range a.PSR0 {
		if strings.HasSuffix(key, "_") {
			continue
		}

		if c := Canonical(key); c != "" {
			out = append(out, c)
		}
	}

	return out
}

func dedupe(list []string) []string {
	slices.Sort(list)

	return slices.Compact(list)
}
