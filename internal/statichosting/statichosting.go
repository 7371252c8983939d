// Package statichosting rewrites a built archive so a plain file server can
// host it, optionally under a URL base path.
package statichosting

import (
	"bytes"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/net/html"

	"git.home.luguber.info/inful/docarchive/internal/archive"
	archerr "git.home.luguber.info/inful/docarchive/internal/errors"
)

// NormalizeBasePath canonicalizes a user-supplied hosting base path. All of
// "test", "/test", "test/" and "/test/" mean the same thing; the canonical
// form has no surrounding slashes, and the empty path stays empty.
func NormalizeBasePath(p string) string {
	return strings.Trim(strings.TrimSpace(p), "/")
}

// Options configures a transform run.
type Options struct {
	// OutputDir receives the transformed archive. Empty means transform the
	// archive in place.
	OutputDir string

	// BasePath is the URL prefix the archive will be hosted under,
	// normalized via NormalizeBasePath.
	BasePath string
}

// Transform makes the archive static-hostable: one index.html per render
// JSON route, with the renderer template's absolute URLs rewritten for the
// base path.
func Transform(archiveRoot string, opts Options) error {
	root := archiveRoot
	if opts.OutputDir != "" {
		if err := copyArchive(archiveRoot, opts.OutputDir); err != nil {
			return err
		}
		root = opts.OutputDir
	}

	basePath := NormalizeBasePath(opts.BasePath)
	template, err := loadTemplate(root, basePath)
	if err != nil {
		return err
	}

	return writeRoutePages(root, template)
}

// loadTemplate reads the renderer's index.html at the archive root and
// rewrites its absolute href/src attributes under the base path.
func loadTemplate(root, basePath string) ([]byte, error) {
	data, err := os.ReadFile(filepath.Join(root, "index.html"))
	if err != nil {
		return nil, archerr.Wrap(err, archerr.CategoryFileSystem, archerr.SeverityFatal,
			"read renderer template; the archive was not built with a renderer template")
	}
	if basePath == "" {
		return data, nil
	}

	doc, err := html.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, archerr.Wrap(err, archerr.CategoryInternal, archerr.SeverityFatal, "parse renderer template")
	}
	rewriteURLs(doc, "/"+basePath)

	var buf bytes.Buffer
	if err := html.Render(&buf, doc); err != nil {
		return nil, archerr.Wrap(err, archerr.CategoryInternal, archerr.SeverityFatal, "render transformed template")
	}
	rewritten := buf.Bytes()

	if err := os.WriteFile(filepath.Join(root, "index.html"), rewritten, 0o644); err != nil {
		return nil, archerr.Wrap(err, archerr.CategoryFileSystem, archerr.SeverityFatal, "write transformed template")
	}
	return rewritten, nil
}

// rewriteURLs prefixes every root-absolute href/src attribute with the base
// path. Scheme-qualified and relative URLs stay untouched.
func rewriteURLs(n *html.Node, prefix string) {
	if n.Type == html.ElementNode {
		for i, attr := range n.Attr {
			if attr.Key != "href" && attr.Key != "src" {
				continue
			}
			if strings.HasPrefix(attr.Val, "/") && !strings.HasPrefix(attr.Val, "//") &&
				!strings.HasPrefix(attr.Val, prefix+"/") {
				n.Attr[i].Val = prefix + attr.Val
			}
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		rewriteURLs(c, prefix)
	}
}

// writeRoutePages mirrors each data/<route>.json as <route>/index.html.
func writeRoutePages(root string, template []byte) error {
	dataRoot := filepath.Join(root, archive.DataDir)
	err := filepath.WalkDir(dataRoot, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(path, ".json") {
			return nil
		}
		rel, err := filepath.Rel(dataRoot, path)
		if err != nil {
			return err
		}
		route := strings.TrimSuffix(filepath.ToSlash(rel), ".json")
		dst := filepath.Join(root, filepath.FromSlash(route), "index.html")
		if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
			return err
		}
		return os.WriteFile(dst, template, 0o644)
	})
	if err != nil {
		return archerr.Wrap(err, archerr.CategoryFileSystem, archerr.SeverityFatal, "write static hosting pages")
	}
	return nil
}

func copyArchive(src, dst string) error {
	return filepath.WalkDir(src, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)
		if d.IsDir() {
			return os.MkdirAll(target, 0o755)
		}
		in, err := os.Open(path)
		if err != nil {
			return archerr.Wrap(err, archerr.CategoryFileSystem, archerr.SeverityFatal, "open "+path)
		}
		defer in.Close()
		out, err := os.Create(target)
		if err != nil {
			return archerr.Wrap(err, archerr.CategoryFileSystem, archerr.SeverityFatal, "create "+target)
		}
		defer out.Close()
		_, err = io.Copy(out, in)
		return err
	})
}
