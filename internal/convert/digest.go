package convert

// IndexingRecord is the search-index projection of one converted page.
type IndexingRecord struct {
	Kind                    string   `json:"kind"`
	Location                string   `json:"location"` // archive-relative page route
	Title                   string   `json:"title"`
	Summary                 string   `json:"summary,omitempty"`
	Headings                []string `json:"headings,omitempty"`
	RawIndexableTextContent string   `json:"rawIndexableTextContent,omitempty"`
}

// LinkableEntity describes one page other archives may link to.
type LinkableEntity struct {
	ReferenceURL string   `json:"referenceURL"`
	Title        string   `json:"title"`
	Kind         string   `json:"kind"`
	Path         string   `json:"path"`
	USR          string   `json:"usr,omitempty"`
	Language     string   `json:"language,omitempty"`
	Availability []string `json:"availableLanguages,omitempty"`
}

// AssetSummary describes one media file copied into the archive.
type AssetSummary struct {
	Identifier  string `json:"identifier"`
	Type        string `json:"type"`
	ArchivePath string `json:"path"`
}
