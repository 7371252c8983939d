package catalog

import (
	"encoding/json"
	"fmt"
	"os"

	archerr "git.home.luguber.info/inful/docarchive/internal/errors"
)

// SymbolGraph is the subset of a symbol-graph file the pipeline consumes.
// Full symbol-graph ingestion is an external collaborator; this reader pulls
// only the fields the converter, navigator and coverage writers need.
type SymbolGraph struct {
	Module  SymbolGraphModule `json:"module"`
	Symbols []Symbol          `json:"symbols"`
}

// SymbolGraphModule identifies the module a graph describes.
type SymbolGraphModule struct {
	Name     string `json:"name"`
	Platform struct {
		OperatingSystem struct {
			Name string `json:"name"`
		} `json:"operatingSystem"`
	} `json:"platform"`
}

// Symbol is one declared symbol in a graph.
type Symbol struct {
	Identifier struct {
		Precise           string `json:"precise"`
		InterfaceLanguage string `json:"interfaceLanguage"`
	} `json:"identifier"`
	Names struct {
		Title string `json:"title"`
	} `json:"names"`
	Kind struct {
		Identifier  string `json:"identifier"`
		DisplayName string `json:"displayName"`
	} `json:"kind"`
	PathComponents []string             `json:"pathComponents"`
	Availability   []SymbolAvailability `json:"availability,omitempty"`
	DocComment     *struct {
		Lines []struct {
			Text string `json:"text"`
		} `json:"lines"`
	} `json:"docComment,omitempty"`
	DeclarationFragments []struct {
		Kind     string `json:"kind"`
		Spelling string `json:"spelling"`
	} `json:"declarationFragments,omitempty"`
}

// SymbolAvailability is one platform availability entry.
type SymbolAvailability struct {
	Domain     string `json:"domain"`
	Introduced *struct {
		Major int `json:"major"`
		Minor int `json:"minor"`
	} `json:"introduced,omitempty"`
	IsBeta bool `json:"isBeta,omitempty"`
}

// AbstractText returns the first doc-comment line, the symbol's abstract.
func (s *Symbol) AbstractText() string {
	if s.DocComment == nil || len(s.DocComment.Lines) == 0 {
		return ""
	}
	return s.DocComment.Lines[0].Text
}

// ReadSymbolGraph parses one symbol-graph document.
func ReadSymbolGraph(path string) (*SymbolGraph, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, archerr.Wrap(err, archerr.CategoryCatalog, archerr.SeverityFatal,
			fmt.Sprintf("read symbol graph %s", path))
	}
	var graph SymbolGraph
	if err := json.Unmarshal(data, &graph); err != nil {
		return nil, archerr.Wrap(err, archerr.CategoryCatalog, archerr.SeverityFatal,
			fmt.Sprintf("malformed symbol graph %s", path))
	}
	return &graph, nil
}
