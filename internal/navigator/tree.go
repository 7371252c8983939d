// Package navigator builds the archive's navigation index: a deterministic
// tree over all converted pages, serialized both as index/index.json and as
// a queryable sqlite database.
package navigator

import (
	"fmt"
	"sort"
	"strings"
)

// NodeKind classifies a navigator node.
type NodeKind string

const (
	KindRoot        NodeKind = "root"
	KindLanguage    NodeKind = "languageGroup"
	KindGroupMarker NodeKind = "groupMarker"
	KindModule      NodeKind = "module"
	KindSymbol      NodeKind = "symbol"
	KindArticle     NodeKind = "article"
	KindTutorial    NodeKind = "tutorial"
)

// Node is one navigator tree node. Children of a group marker keep authored
// order; all other sibling lists are sorted into the canonical order.
type Node struct {
	Title        string   `json:"title"`
	Path         string   `json:"path,omitempty"`
	Kind         NodeKind `json:"type"`
	SymbolKind   string   `json:"symbolKind,omitempty"`
	LanguageMask uint64   `json:"languageID,omitempty"`
	USR          string   `json:"externalID,omitempty"`
	Beta         bool     `json:"beta,omitempty"`
	Children     []*Node  `json:"children,omitempty"`
}

// kindBucket orders sibling nodes by coarse kind before title. Group
// markers never reach here; authored groups are not sorted.
func kindBucket(n *Node) int {
	switch n.Kind {
	case KindModule:
		return 0
	case KindSymbol:
		switch n.SymbolKind {
		case "protocol":
			return 1
		case "class":
			return 2
		case "struct":
			return 3
		case "enum":
			return 4
		default:
			return 5
		}
	case KindArticle:
		return 6
	case KindTutorial:
		return 7
	}
	return 8
}

// sortSiblings puts a sibling list into the canonical total order: kind
// bucket, then title, then USR as the final tiebreaker so two same-titled
// overloads still order identically on every run.
func sortSiblings(nodes []*Node) {
	sort.SliceStable(nodes, func(i, j int) bool {
		bi, bj := kindBucket(nodes[i]), kindBucket(nodes[j])
		if bi != bj {
			return bi < bj
		}
		if nodes[i].Title != nodes[j].Title {
			return nodes[i].Title < nodes[j].Title
		}
		return nodes[i].USR < nodes[j].USR
	})
}

// Dump renders the tree as indented text. Two identical trees dump
// byte-identically; tests lean on that.
func (n *Node) Dump() string {
	var sb strings.Builder
	n.dump(&sb, 0)
	return sb.String()
}

func (n *Node) dump(sb *strings.Builder, depth int) {
	fmt.Fprintf(sb, "%s%s\n", strings.Repeat("  ", depth), n.Title)
	for _, child := range n.Children {
		child.dump(sb, depth+1)
	}
}

// Count returns the number of nodes in the subtree rooted at n.
func (n *Node) Count() int {
	total := 1
	for _, child := range n.Children {
		total += child.Count()
	}
	return total
}
