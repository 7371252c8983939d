// Package reference defines resolved topic references, source languages and
// the per-build resolution cache.
package reference

import (
	"fmt"
	"strings"
)

// SourceLanguage identifies the language a documentation entity belongs to.
type SourceLanguage string

const (
	LanguageSwift      SourceLanguage = "swift"
	LanguageObjectiveC SourceLanguage = "occ"
	LanguageData       SourceLanguage = "data"
)

// Mask returns the language bit used in navigator language-identifier masks.
func (l SourceLanguage) Mask() uint64 {
	switch l {
	case LanguageSwift:
		return 1 << 0
	case LanguageObjectiveC:
		return 1 << 1
	case LanguageData:
		return 1 << 2
	}
	return 0
}

// DisplayName returns the human-readable language name used for navigator
// root nodes.
func (l SourceLanguage) DisplayName() string {
	switch l {
	case LanguageSwift:
		return "Swift"
	case LanguageObjectiveC:
		return "Objective-C"
	case LanguageData:
		return "Data"
	}
	return string(l)
}

// TopicReference uniquely addresses a documentation entity within one build:
// a catalog identifier, an absolute path, and a source language. Immutable
// value type.
type TopicReference struct {
	BundleIdentifier string
	Path             string
	SourceLanguage   SourceLanguage
	Fragment         string
}

// NewTopicReference creates a reference with a normalized absolute path.
func NewTopicReference(bundleIdentifier, path string, language SourceLanguage) TopicReference {
	return TopicReference{
		BundleIdentifier: bundleIdentifier,
		Path:             normalizePath(path),
		SourceLanguage:   language,
	}
}

// URL returns the doc:// form of the reference, e.g.
// doc://org.swift.docc.example/documentation/MyKit/MyClass.
func (r TopicReference) URL() string {
	u := fmt.Sprintf("doc://%s%s", r.BundleIdentifier, r.Path)
	if r.Fragment != "" {
		u += "#" + r.Fragment
	}
	return u
}

// String implements fmt.Stringer.
func (r TopicReference) String() string { return r.URL() }

// AppendingPath returns a child reference one path component deeper.
func (r TopicReference) AppendingPath(component string) TopicReference {
	child := r
	child.Path = normalizePath(r.Path + "/" + component)
	child.Fragment = ""
	return child
}

// LastPathComponent returns the final path component, or "" for the root.
func (r TopicReference) LastPathComponent() string {
	idx := strings.LastIndex(r.Path, "/")
	if idx < 0 || idx == len(r.Path)-1 {
		return ""
	}
	return r.Path[idx+1:]
}

// normalizePath guarantees a single leading slash and no trailing slash.
// Path matching is case-sensitive; no case folding happens here.
func normalizePath(p string) string {
	p = "/" + strings.Trim(p, "/")
	for strings.Contains(p, "//") {
		p = strings.ReplaceAll(p, "//", "/")
	}
	return p
}
