// Package merge combines several built archives into one, with a preflight
// pass that rejects conflicting inputs before anything is written.
package merge

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"git.home.luguber.info/inful/docarchive/internal/archive"
	archerr "git.home.luguber.info/inful/docarchive/internal/errors"
)

const maxReportedEntries = 5

// Preflight validates the merge inputs and output. It fails when an input is
// not an archive, when inputs disagree about static hosting, when two inputs
// claim the same top-level page slug, or when the output directory is not
// empty. Nothing is written until preflight passes.
func Preflight(inputs []string, output string) error {
	if len(inputs) < 2 {
		return archerr.New(archerr.CategoryMerge, archerr.SeverityFatal,
			"merging requires at least two archives")
	}
	for _, in := range inputs {
		if !archive.IsArchive(in) {
			return archerr.New(archerr.CategoryMerge, archerr.SeverityFatal,
				fmt.Sprintf("%s is not a documentation archive", in))
		}
	}
	if err := checkStaticHostingAgreement(inputs); err != nil {
		return err
	}
	if err := checkCollisions(inputs); err != nil {
		return err
	}
	return checkOutputEmpty(output)
}

// checkStaticHostingAgreement requires every input to be built the same
// way; a merged archive cannot be half static-hostable.
func checkStaticHostingAgreement(inputs []string) error {
	first := isStaticHosted(inputs[0])
	for _, in := range inputs[1:] {
		if isStaticHosted(in) != first {
			return archerr.New(archerr.CategoryMerge, archerr.SeverityFatal,
				fmt.Sprintf("archives disagree about static hosting: %s and %s were built differently",
					inputs[0], in))
		}
	}
	return nil
}

func isStaticHosted(root string) bool {
	_, err := os.Stat(filepath.Join(root, "index.html"))
	return err == nil
}

// checkCollisions detects top-level page slugs claimed by more than one
// input. Slugs compare case-insensitively because the merged archive may
// land on a case-insensitive filesystem.
func checkCollisions(inputs []string) error {
	claims := map[string][]string{} // "documentation/mykit" -> claiming archives
	for _, in := range inputs {
		for _, section := range []string{archive.DocumentationDir, archive.TutorialsDir} {
			slugs, err := topLevelSlugs(filepath.Join(in, archive.DataDir, section))
			if err != nil {
				return err
			}
			for _, slug := range slugs {
				key := section + "/" + strings.ToLower(slug)
				claims[key] = append(claims[key], in)
			}
		}
	}

	var collided []string
	for key, archives := range claims {
		if len(archives) > 1 {
			collided = append(collided, key)
		}
	}
	if len(collided) == 0 {
		return nil
	}
	sort.Strings(collided)
	var lines []string
	for _, key := range collided {
		// Claiming archives appear in the order they were passed in.
		lines = append(lines, fmt.Sprintf("%s (from %s)", key, strings.Join(claims[key], ", ")))
	}
	return archerr.New(archerr.CategoryMerge, archerr.SeverityFatal,
		"archives contain colliding pages:\n  "+strings.Join(lines, "\n  "))
}

func topLevelSlugs(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, archerr.Wrap(err, archerr.CategoryFileSystem, archerr.SeverityFatal, "read "+dir)
	}
	var slugs []string
	for _, e := range entries {
		slugs = append(slugs, strings.TrimSuffix(e.Name(), ".json"))
	}
	return slugs, nil
}

// checkOutputEmpty requires an empty or absent output directory and names
// the first few offending entries so the message is actionable.
func checkOutputEmpty(output string) error {
	entries, err := os.ReadDir(output)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return archerr.Wrap(err, archerr.CategoryFileSystem, archerr.SeverityFatal, "read output directory")
	}
	if len(entries) == 0 {
		return nil
	}
	var names []string
	for i, e := range entries {
		if i == maxReportedEntries {
			names = append(names, fmt.Sprintf("and %d more", len(entries)-maxReportedEntries))
			break
		}
		names = append(names, e.Name())
	}
	return archerr.New(archerr.CategoryMerge, archerr.SeverityFatal,
		fmt.Sprintf("output directory %s is not empty: %s", output, strings.Join(names, ", ")))
}
