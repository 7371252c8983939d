package convert

import (
	"git.home.luguber.info/inful/docarchive/internal/diagnostics"
	"git.home.luguber.info/inful/docarchive/internal/reference"
	"git.home.luguber.info/inful/docarchive/internal/render"
)

// Consumer receives conversion output. Per-page calls happen in deterministic
// entity order after all workers finish; a consumer never needs its own
// locking against the engine.
type Consumer interface {
	ConsumeRenderNode(ref reference.TopicReference, node *render.Node) error
	ConsumeProblems(problems []diagnostics.Problem) error
}

// AssetConsumer optionally receives the catalog's asset table once per build.
type AssetConsumer interface {
	ConsumeAssets(assets []Asset) error
}

// LinkableEntityConsumer optionally receives the linkable-entity digest once
// per build.
type LinkableEntityConsumer interface {
	ConsumeLinkableEntities(entities []LinkableEntity) error
}

// IndexingConsumer optionally receives search indexing records once per
// build.
type IndexingConsumer interface {
	ConsumeIndexingRecords(records []IndexingRecord) error
}

// CoverageConsumer optionally receives the coverage report once per build.
type CoverageConsumer interface {
	ConsumeCoverage(info CoverageInfo) error
}

// MetadataConsumer optionally receives build metadata once per build, after
// every other bundle-level call.
type MetadataConsumer interface {
	ConsumeBuildMetadata(metadata BuildMetadata) error
}

// BuildMetadata identifies the produced archive.
type BuildMetadata struct {
	BundleIdentifier   string `json:"bundleIdentifier"`
	BundleDisplayName  string `json:"bundleDisplayName"`
	SchemaVersion      int    `json:"schemaVersion"`
	ArchiveFingerprint string `json:"fingerprint,omitempty"`
}
