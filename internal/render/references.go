package render

// ReferenceType enumerates the closed set of render-reference variants.
type ReferenceType string

const (
	ReferenceTypeTopic    ReferenceType = "topic"
	ReferenceTypeImage    ReferenceType = "image"
	ReferenceTypeVideo    ReferenceType = "video"
	ReferenceTypeDownload ReferenceType = "download"
	ReferenceTypeSection  ReferenceType = "section" // on-page landmark
)

// Reference is one entry in a node's references table, keyed by its
// identifier URL. The Type field discriminates the variant; unused fields
// stay empty and are omitted from the serialized form.
type Reference struct {
	Type       ReferenceType `json:"type"`
	Identifier string        `json:"identifier"`
	Title      string        `json:"title,omitempty"`
	URL        string        `json:"url,omitempty"`
	Abstract   string        `json:"abstract,omitempty"`
	Kind       string        `json:"kind,omitempty"`
	Role       string        `json:"role,omitempty"`
	IsBeta     bool          `json:"beta,omitempty"`
	Deprecated bool          `json:"deprecated,omitempty"`

	// Asset variants
	AssetPath string `json:"assetPath,omitempty"`
	AltText   string `json:"alt,omitempty"`
	Checksum  string `json:"checksum,omitempty"`

	// Section variant
	Anchor string `json:"anchor,omitempty"`

	// Topic variant language availability
	Languages []string `json:"languages,omitempty"`
}

// TopicRenderReference builds a topic reference table entry.
func TopicRenderReference(identifier, title, url string) Reference {
	return Reference{
		Type:       ReferenceTypeTopic,
		Identifier: identifier,
		Title:      title,
		URL:        url,
	}
}

// AssetRenderReference builds an image, video or download entry.
func AssetRenderReference(t ReferenceType, identifier, assetPath string) Reference {
	return Reference{
		Type:       t,
		Identifier: identifier,
		AssetPath:  assetPath,
	}
}

// SectionRenderReference builds an on-page landmark entry.
func SectionRenderReference(identifier, title, anchor string) Reference {
	return Reference{
		Type:       ReferenceTypeSection,
		Identifier: identifier,
		Title:      title,
		Anchor:     anchor,
	}
}
