package emit

import (
	"bytes"
	"os"
	"path/filepath"

	"golang.org/x/net/html"

	"git.home.luguber.info/inful/docarchive/internal/diagnostics"
	archerr "git.home.luguber.info/inful/docarchive/internal/errors"
	"git.home.luguber.info/inful/docarchive/internal/reference"
	"git.home.luguber.info/inful/docarchive/internal/render"
)

// HTMLWriter mirrors every page as <route>/index.html so the archive can be
// served by a static file server. Each page is the renderer template with
// the page title and abstract injected: the <title> element, a description
// meta tag, and plain content inside the template's <noscript> region so
// crawlers and script-less browsers see something useful.
type HTMLWriter struct {
	root     string
	template *html.Node
}

// NewHTMLWriter parses the renderer template once. templateDir is the
// renderer template directory; its index.html is the page shell.
func NewHTMLWriter(root, templateDir string) (*HTMLWriter, error) {
	data, err := os.ReadFile(filepath.Join(templateDir, "index.html"))
	if err != nil {
		return nil, archerr.Wrap(err, archerr.CategoryFileSystem, archerr.SeverityFatal, "read renderer template")
	}
	doc, err := html.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, archerr.Wrap(err, archerr.CategoryInternal, archerr.SeverityFatal, "parse renderer template")
	}
	return &HTMLWriter{root: root, template: doc}, nil
}

// ConsumeRenderNode writes the page's HTML mirror.
func (w *HTMLWriter) ConsumeRenderNode(ref reference.TopicReference, node *render.Node) error {
	doc := cloneNode(w.template)
	injectPage(doc, node.Metadata.Title, node.Abstract)

	var buf bytes.Buffer
	if err := html.Render(&buf, doc); err != nil {
		return archerr.Wrap(err, archerr.CategoryInternal, archerr.SeverityFatal, "render HTML for "+ref.URL())
	}

	rel := filepath.Join(filepath.FromSlash(render.RoutePath(ref)), "index.html")
	abs := filepath.Join(w.root, rel)
	if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
		return archerr.Wrap(err, archerr.CategoryFileSystem, archerr.SeverityFatal, "create directory for "+rel)
	}
	if err := os.WriteFile(abs, buf.Bytes(), 0o644); err != nil {
		return archerr.Wrap(err, archerr.CategoryFileSystem, archerr.SeverityFatal, "write "+rel)
	}
	return nil
}

// ConsumeProblems is part of the consumer contract.
func (w *HTMLWriter) ConsumeProblems([]diagnostics.Problem) error { return nil }

// injectPage rewrites the title element, sets a description meta tag and
// fills the noscript region with the page's heading and abstract.
func injectPage(doc *html.Node, title, abstract string) {
	walkHTML(doc, func(n *html.Node) {
		if n.Type != html.ElementNode {
			return
		}
		switch n.Data {
		case "title":
			for c := n.FirstChild; c != nil; c = n.FirstChild {
				n.RemoveChild(c)
			}
			n.AppendChild(&html.Node{Type: html.TextNode, Data: title})
		case "head":
			if abstract != "" {
				n.AppendChild(&html.Node{
					Type: html.ElementNode,
					Data: "meta",
					Attr: []html.Attribute{
						{Key: "name", Val: "description"},
						{Key: "content", Val: abstract},
					},
				})
			}
		case "noscript":
			h1 := &html.Node{Type: html.ElementNode, Data: "h1"}
			h1.AppendChild(&html.Node{Type: html.TextNode, Data: title})
			n.AppendChild(h1)
			if abstract != "" {
				p := &html.Node{Type: html.ElementNode, Data: "p"}
				p.AppendChild(&html.Node{Type: html.TextNode, Data: abstract})
				n.AppendChild(p)
			}
		}
	})
}

func walkHTML(n *html.Node, visit func(*html.Node)) {
	visit(n)
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		walkHTML(c, visit)
	}
}

// cloneNode deep-copies a parsed document so per-page injection never
// mutates the shared template.
func cloneNode(n *html.Node) *html.Node {
	clone := &html.Node{
		Type:     n.Type,
		DataAtom: n.DataAtom,
		Data:     n.Data,
		Attr:     append([]html.Attribute(nil), n.Attr...),
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		clone.AppendChild(cloneNode(c))
	}
	return clone
}
