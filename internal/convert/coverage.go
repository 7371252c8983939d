package convert

import (
	"fmt"

	"git.home.luguber.info/inful/docarchive/internal/render"
)

// CoverageLevel selects how much documentation-coverage detail a build
// collects. Brief and detailed levels produce the same number of entries,
// one per symbol page; the levels differ only in entry richness.
type CoverageLevel string

const (
	CoverageNone     CoverageLevel = "none"
	CoverageBrief    CoverageLevel = "brief"
	CoverageDetailed CoverageLevel = "detailed"
)

// ParseCoverageLevel maps the flag value onto a coverage level.
func ParseCoverageLevel(s string) (CoverageLevel, error) {
	switch s {
	case "", "none":
		return CoverageNone, nil
	case "brief":
		return CoverageBrief, nil
	case "detailed":
		return CoverageDetailed, nil
	}
	return CoverageNone, fmt.Errorf("unknown coverage level %q", s)
}

// CoverageEntry summarizes how documented one symbol page is. Detailed-level
// fields stay zero-valued at the brief level.
type CoverageEntry struct {
	Path          string `json:"path"`
	Title         string `json:"title"`
	Kind          string `json:"kind"`
	HasAbstract   bool   `json:"hasAbstract"`
	IsDocumented  bool   `json:"isDocumented"`
	HasCuration   bool   `json:"hasCuration,omitempty"`
	HasCodeSample bool   `json:"hasCodeListing,omitempty"`
	Language      string `json:"language,omitempty"`
	USR           string `json:"usr,omitempty"`
}

// CoverageInfo is the serialized coverage report.
type CoverageInfo struct {
	Level   CoverageLevel   `json:"level"`
	Totals  CoverageTotals  `json:"totals"`
	Entries []CoverageEntry `json:"entries"`
}

// CoverageTotals aggregates the report.
type CoverageTotals struct {
	Pages      int `json:"pages"`
	Documented int `json:"documented"`
}

// coverageEntry derives a coverage entry from a converted symbol page.
func coverageEntry(level CoverageLevel, entity Entity, node *render.Node) CoverageEntry {
	entry := CoverageEntry{
		Path:         entity.Reference.Path,
		Title:        entity.Title,
		Kind:         entity.SymbolKind,
		HasAbstract:  entity.Abstract != "",
		IsDocumented: entity.Abstract != "",
	}
	if level == CoverageDetailed {
		entry.HasCuration = len(node.TopicSections) > 0
		entry.Language = node.Identifier.InterfaceLanguage
		entry.USR = entity.USR
	}
	return entry
}
