// Package render defines the serializable projection of a converted
// documentation entity and its references table.
package render

import (
	"encoding/json"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"git.home.luguber.info/inful/docarchive/internal/reference"
)

// Kind enumerates the page kinds a render node can have.
type Kind string

const (
	KindSymbol   Kind = "symbol"
	KindArticle  Kind = "article"
	KindTutorial Kind = "tutorial"
	KindOverview Kind = "overview"
)

// Identifier is the serializable form of a topic reference.
type Identifier struct {
	URL               string `json:"url"`
	InterfaceLanguage string `json:"interfaceLanguage"`
}

// PlatformAvailability records one platform's availability for a symbol.
type PlatformAvailability struct {
	Name       string `json:"name"`
	Introduced string `json:"introducedAt,omitempty"`
	Deprecated string `json:"deprecatedAt,omitempty"`
	IsBeta     bool   `json:"beta,omitempty"`
}

// Metadata carries page-level presentation metadata.
type Metadata struct {
	Title             string                 `json:"title"`
	Role              string                 `json:"role,omitempty"`
	RoleHeading       string                 `json:"roleHeading,omitempty"`
	ExternalID        string                 `json:"externalID,omitempty"`
	SymbolKind        string                 `json:"symbolKind,omitempty"`
	Modules           []string               `json:"modules,omitempty"`
	Platforms         []PlatformAvailability `json:"platforms,omitempty"`
	Beta              bool                   `json:"beta,omitempty"`
	Deprecated        bool                   `json:"deprecated,omitempty"`
	NavigatorTitle    string                 `json:"navigatorTitle,omitempty"`
	AvailableLocales  []string               `json:"availableLocales,omitempty"`
	EstimatedReadTime string                 `json:"estimatedReadTime,omitempty"`
}

// DeclarationFragment is one token of a symbol declaration.
type DeclarationFragment struct {
	Kind     string `json:"kind"`
	Spelling string `json:"spelling"`
	USR      string `json:"preciseIdentifier,omitempty"`
}

// TopicSection is a curated group of child references.
type TopicSection struct {
	Title       string   `json:"title,omitempty"`
	Identifiers []string `json:"identifiers"`
}

// ContentSection is a minimal body section: a heading plus paragraphs of
// plain text and inline reference mentions.
type ContentSection struct {
	Heading    string   `json:"heading,omitempty"`
	Text       []string `json:"text,omitempty"`
	References []string `json:"references,omitempty"`
}

// Landmark is an on-page anchor that can be linked to from other pages.
type Landmark struct {
	Title  string `json:"title"`
	Anchor string `json:"anchor"`
}

// Node is the JSON-serializable representation of one documentation page.
// Immutable after conversion.
type Node struct {
	SchemaVersion    int                        `json:"schemaVersion"`
	Identifier       Identifier                 `json:"identifier"`
	Kind             Kind                       `json:"kind"`
	Metadata         Metadata                   `json:"metadata"`
	Abstract         string                     `json:"abstract,omitempty"`
	Declaration      []DeclarationFragment      `json:"declarationFragments,omitempty"`
	PrimaryContent   []ContentSection           `json:"primaryContentSections,omitempty"`
	TopicSections    []TopicSection             `json:"topicSections,omitempty"`
	SeeAlsoSections  []TopicSection             `json:"seeAlsoSections,omitempty"`
	Landmarks        []Landmark                 `json:"landmarks,omitempty"`
	References       map[string]Reference       `json:"references,omitempty"`
	Variants         map[string]json.RawMessage `json:"variantOverrides,omitempty"`
	SourceLanguages  []string                   `json:"sourceLanguages,omitempty"`
	ArchiveVersion   string                     `json:"archiveVersion,omitempty"`
	DocumentationURL string                     `json:"documentationURL,omitempty"`
}

// CurrentSchemaVersion is incremented when Node's serialized shape changes
// incompatibly.
const CurrentSchemaVersion = 1

var lowercaser = cases.Lower(language.Und)

// RoutePath derives the stable, content-independent route for a reference:
// the reference path lowercased, without the leading slash. Both the data
// file and the static HTML mirror are keyed by it.
func RoutePath(ref reference.TopicReference) string {
	return lowercaser.String(strings.TrimPrefix(ref.Path, "/"))
}

// DataFilePath returns the archive-relative JSON path for a reference, e.g.
// data/documentation/mykit/myclass.json.
func DataFilePath(ref reference.TopicReference) string {
	return "data/" + RoutePath(ref) + ".json"
}

// Encode serializes a node deterministically: pretty-printed with sorted
// object keys. Go's encoding/json already emits map keys in sorted order, so
// the references table is stable regardless of insertion order.
func Encode(node *Node) ([]byte, error) {
	data, err := json.MarshalIndent(node, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

// Decode restores a node from its serialized form.
func Decode(data []byte) (*Node, error) {
	var node Node
	if err := json.Unmarshal(data, &node); err != nil {
		return nil, err
	}
	return &node, nil
}
