package render

import (
	"fmt"
	"sort"
)

// DanglingReferenceError reports identifiers mentioned in a node's content
// that have no entry in its references table.
type DanglingReferenceError struct {
	NodeURL     string
	Identifiers []string
}

func (e *DanglingReferenceError) Error() string {
	return fmt.Sprintf("render node %s mentions %d reference(s) with no references-table entry: %v",
		e.NodeURL, len(e.Identifiers), e.Identifiers)
}

// Validate checks the references-table invariant: every reference mentioned
// inside content must have a corresponding entry in the references table.
func Validate(node *Node) error {
	mentioned := map[string]struct{}{}

	for _, section := range node.TopicSections {
		for _, id := range section.Identifiers {
			mentioned[id] = struct{}{}
		}
	}
	for _, section := range node.SeeAlsoSections {
		for _, id := range section.Identifiers {
			mentioned[id] = struct{}{}
		}
	}
	for _, section := range node.PrimaryContent {
		for _, id := range section.References {
			mentioned[id] = struct{}{}
		}
	}

	var dangling []string
	for id := range mentioned {
		if _, ok := node.References[id]; !ok {
			dangling = append(dangling, id)
		}
	}
	if len(dangling) == 0 {
		return nil
	}
	sort.Strings(dangling)
	return &DanglingReferenceError{NodeURL: node.Identifier.URL, Identifiers: dangling}
}
