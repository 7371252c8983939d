package catalog

import (
	"strings"

	"github.com/yuin/goldmark"
	gmast "github.com/yuin/goldmark/ast"
	gmtext "github.com/yuin/goldmark/text"
)

// Article is the scanned shape of a markdown input: title, abstract, section
// headings, authored topic links and the flattened indexable text.
type Article struct {
	Title         string
	Abstract      string
	Headings      []string
	TopicLinks    []string // <doc:...> and doc:// destinations, in authored order
	AssetLinks    []string // image destinations, in authored order
	Sections      []ArticleSection
	IndexableText string
}

// ArticleSection groups the topic links authored under one heading, in
// authored order. Curation groups on a module page come from here.
type ArticleSection struct {
	Heading string
	Links   []string
}

// ScanArticle parses a markdown document and extracts the pieces the
// converter and indexing records need. It is a scan, not a render; the full
// directive grammar lives outside this module.
func ScanArticle(source []byte) Article {
	md := goldmark.New()
	root := md.Parser().Parse(gmtext.NewReader(source))

	var article Article
	var textParts []string
	firstParagraphSeen := false

	_ = gmast.Walk(root, func(n gmast.Node, entering bool) (gmast.WalkStatus, error) {
		if !entering {
			return gmast.WalkContinue, nil
		}
		switch node := n.(type) {
		case *gmast.Heading:
			text := flattenText(node, source)
			if node.Level == 1 && article.Title == "" {
				article.Title = text
			} else {
				article.Headings = append(article.Headings, text)
				article.Sections = append(article.Sections, ArticleSection{Heading: text})
			}
			textParts = append(textParts, text)
		case *gmast.Paragraph:
			text := flattenText(node, source)
			if !firstParagraphSeen && article.Title != "" && text != "" {
				article.Abstract = text
				firstParagraphSeen = true
			}
			textParts = append(textParts, text)
		case *gmast.Link:
			dest := string(node.Destination)
			if isTopicLink(dest) {
				article.addTopicLink(dest)
			}
		case *gmast.AutoLink:
			dest := string(node.URL(source))
			if isTopicLink(dest) {
				article.addTopicLink(dest)
			}
		case *gmast.Image:
			article.AssetLinks = append(article.AssetLinks, string(node.Destination))
		}
		return gmast.WalkContinue, nil
	})

	article.IndexableText = strings.Join(textParts, " ")
	return article
}

// addTopicLink records a topic link globally and under the current section.
func (a *Article) addTopicLink(dest string) {
	a.TopicLinks = append(a.TopicLinks, dest)
	if len(a.Sections) > 0 {
		last := &a.Sections[len(a.Sections)-1]
		last.Links = append(last.Links, dest)
	}
}

func isTopicLink(dest string) bool {
	return strings.HasPrefix(dest, "doc:") || strings.HasPrefix(dest, "doc://")
}

// flattenText concatenates the raw text under a node.
func flattenText(n gmast.Node, source []byte) string {
	var sb strings.Builder
	_ = gmast.Walk(n, func(child gmast.Node, entering bool) (gmast.WalkStatus, error) {
		if !entering {
			return gmast.WalkContinue, nil
		}
		if t, ok := child.(*gmast.Text); ok {
			sb.Write(t.Segment.Value(source))
		}
		return gmast.WalkContinue, nil
	})
	return strings.TrimSpace(sb.String())
}
