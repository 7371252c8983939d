package catalog

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	archerr "git.home.luguber.info/inful/docarchive/internal/errors"
)

// InfoFileName is the catalog metadata file at the catalog root.
const InfoFileName = "catalog.yaml"

// Info is the parsed catalog metadata.
type Info struct {
	Identifier    string          `yaml:"identifier"`
	DisplayName   string          `yaml:"display_name"`
	Version       string          `yaml:"version,omitempty"`
	DefaultModule string          `yaml:"default_module,omitempty"`
	Ignore        []string        `yaml:"ignore,omitempty"` // doublestar globs, relative to catalog root
	DefaultLocale string          `yaml:"default_locale,omitempty"`
	FeatureFlags  map[string]bool `yaml:"feature_flags,omitempty"`
}

// LoadOptions supplies fallback values for metadata the catalog omits.
type LoadOptions struct {
	FallbackDisplayName string
	FallbackIdentifier  string
}

// readInfo loads catalog.yaml and applies fallback options. A missing file is
// not an error as long as both fallbacks are provided.
func readInfo(root string, opts LoadOptions) (Info, error) {
	var info Info
	data, err := os.ReadFile(filepath.Join(root, InfoFileName))
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &info); err != nil {
			return Info{}, archerr.Wrap(err, archerr.CategoryCatalog, archerr.SeverityFatal,
				fmt.Sprintf("malformed %s", InfoFileName))
		}
	case os.IsNotExist(err):
		// Fall through to fallback handling.
	default:
		return Info{}, archerr.Wrap(err, archerr.CategoryCatalog, archerr.SeverityFatal,
			fmt.Sprintf("read %s", InfoFileName))
	}

	if info.DisplayName == "" {
		if opts.FallbackDisplayName == "" {
			return Info{}, archerr.CatalogError(
				"the catalog is missing a display name; add a 'display_name' field to catalog.yaml or pass --fallback-display-name")
		}
		info.DisplayName = opts.FallbackDisplayName
	}
	if info.Identifier == "" {
		if opts.FallbackIdentifier == "" {
			return Info{}, archerr.CatalogError(
				"the catalog is missing an identifier; add an 'identifier' field to catalog.yaml or pass --fallback-bundle-identifier")
		}
		info.Identifier = opts.FallbackIdentifier
	}
	return info, nil
}
