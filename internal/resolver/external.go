package resolver

import (
	"context"
)

// ExternalResolver resolves references the current build does not own.
// Implementations exist for two transports: a child executable
// (OutOfProcessResolver) and an in-process service (ServiceResolver). Both
// must yield behaviorally identical ResolvedInformation.
type ExternalResolver interface {
	// BundleIdentifier returns the catalog identifier this resolver serves.
	BundleIdentifier() string
	// ResolveTopic resolves a topic URL.
	ResolveTopic(ctx context.Context, url string) (*ResolvedInformation, error)
	// ResolveSymbol resolves a precise symbol identifier (USR).
	ResolveSymbol(ctx context.Context, usr string) (*ResolvedInformation, error)
}
