// Package resolver resolves topic references against the current build and
// delegates unknown references to external resolvers over two transports: an
// out-of-process executable speaking line-delimited JSON, and an in-process
// documentation-server service.
package resolver

import (
	"git.home.luguber.info/inful/docarchive/internal/render"
)

// PlatformAvailability is an external entity's availability on one platform.
type Platform struct {
	Name       string `json:"name"`
	Introduced string `json:"introducedAt,omitempty"`
	IsBeta     bool   `json:"beta,omitempty"`
}

// TopicImage associates an image role with an asset identifier.
type TopicImage struct {
	Type       string `json:"type"` // "card" or "icon"
	Identifier string `json:"identifier"`
}

// ResolvedInformation is the payload an external resolver returns for a
// successfully resolved reference.
type ResolvedInformation struct {
	Kind               string                       `json:"kind"`
	URL                string                       `json:"url"`
	Title              string                       `json:"title"`
	Abstract           string                       `json:"abstract,omitempty"`
	Language           string                       `json:"language"`
	AvailableLanguages []string                     `json:"availableLanguages,omitempty"`
	Platforms          []Platform                   `json:"platforms,omitempty"`
	Declaration        []render.DeclarationFragment `json:"declarationFragments,omitempty"`
	TopicImages        []TopicImage                 `json:"topicImages,omitempty"`
	References         []string                     `json:"references,omitempty"`
	Variants           []Variant                    `json:"variants,omitempty"`
}

// Variant carries per-language overrides, patch-style: only non-nil fields
// replace the base values.
type Variant struct {
	Traits      []VariantTrait                `json:"traits"`
	Kind        *string                       `json:"kind,omitempty"`
	URL         *string                       `json:"url,omitempty"`
	Title       *string                       `json:"title,omitempty"`
	Abstract    *string                       `json:"abstract,omitempty"`
	Language    *string                       `json:"language,omitempty"`
	Declaration *[]render.DeclarationFragment `json:"declarationFragments,omitempty"`
}

// VariantTrait selects which requests a variant applies to.
type VariantTrait struct {
	InterfaceLanguage string `json:"interfaceLanguage"`
}

// IsBeta reports whether the entity is in beta: true if and only if every
// listed platform is in beta. Zero platforms means not beta; a mix of beta
// and non-beta platforms means not beta.
func (r *ResolvedInformation) IsBeta() bool {
	if len(r.Platforms) == 0 {
		return false
	}
	for _, p := range r.Platforms {
		if !p.IsBeta {
			return false
		}
	}
	return true
}

// ApplyingVariant returns a copy with the overrides of the first variant
// whose traits match the given interface language. The receiver is not
// modified; with no matching variant the copy equals the base.
func (r *ResolvedInformation) ApplyingVariant(interfaceLanguage string) ResolvedInformation {
	result := *r
	for _, v := range r.Variants {
		if !v.matches(interfaceLanguage) {
			continue
		}
		if v.Kind != nil {
			result.Kind = *v.Kind
		}
		if v.URL != nil {
			result.URL = *v.URL
		}
		if v.Title != nil {
			result.Title = *v.Title
		}
		if v.Abstract != nil {
			result.Abstract = *v.Abstract
		}
		if v.Language != nil {
			result.Language = *v.Language
		}
		if v.Declaration != nil {
			result.Declaration = *v.Declaration
		}
		break
	}
	return result
}

func (v *Variant) matches(interfaceLanguage string) bool {
	for _, trait := range v.Traits {
		if trait.InterfaceLanguage == interfaceLanguage {
			return true
		}
	}
	return false
}

// RenderReference projects the resolved information into a references-table
// entry. Both resolver transports funnel through this, so they produce
// behaviorally identical render references.
func (r *ResolvedInformation) RenderReference(identifier string) render.Reference {
	ref := render.Reference{
		Type:       render.ReferenceTypeTopic,
		Identifier: identifier,
		Title:      r.Title,
		URL:        r.URL,
		Abstract:   r.Abstract,
		Kind:       r.Kind,
		IsBeta:     r.IsBeta(),
		Languages:  r.AvailableLanguages,
	}
	return ref
}
