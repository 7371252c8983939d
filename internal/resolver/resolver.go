package resolver

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"git.home.luguber.info/inful/docarchive/internal/reference"
)

// ResolutionFailure is the typed, recoverable outcome of a link that could
// not be resolved. Unresolved links are expected and become diagnostics, not
// crashes.
type ResolutionFailure struct {
	Reference string
	Message   string
}

func (f *ResolutionFailure) Error() string {
	return fmt.Sprintf("unresolved reference %q: %s", f.Reference, f.Message)
}

// Resolver resolves topic links for one build: exact case-sensitive matching
// against the known entities of the current catalog graph, with delegation
// to registered per-catalog-identifier external resolvers for everything
// else. Safe for concurrent use by conversion workers.
type Resolver struct {
	bundleID string
	cache    *reference.Cache

	mu       sync.RWMutex
	known    map[string]reference.TopicReference // path -> reference, case-sensitive
	external map[string]ExternalResolver         // bundle identifier -> resolver
	resolved map[string]*ResolvedInformation     // external results by canonical URL
}

// NewResolver creates a resolver for the catalog with the given identifier.
func NewResolver(bundleID string) *Resolver {
	return &Resolver{
		bundleID: bundleID,
		cache:    reference.NewCache(),
		known:    make(map[string]reference.TopicReference),
		external: make(map[string]ExternalResolver),
		resolved: make(map[string]*ResolvedInformation),
	}
}

// RegisterEntity adds a known entity of the current build. Synthesized
// entities (such as a module landing page) register the same way authored
// ones do and resolve indistinguishably.
func (r *Resolver) RegisterEntity(ref reference.TopicReference) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.known[ref.Path] = ref
}

// RegisterExternalResolver installs an external resolver for a catalog
// identifier.
func (r *Resolver) RegisterExternalResolver(resolver ExternalResolver) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.external[resolver.BundleIdentifier()] = resolver
}

// Cache exposes the per-build resolution cache.
func (r *Resolver) Cache() *reference.Cache { return r.cache }

// ExternalInformation returns the resolved information cached for an
// externally resolved canonical URL.
func (r *Resolver) ExternalInformation(canonicalURL string) (*ResolvedInformation, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	info, ok := r.resolved[canonicalURL]
	return info, ok
}

// Resolve resolves an authored link to a concrete reference. On failure it
// returns a *ResolutionFailure; callers report it as a diagnostic and
// continue.
func (r *Resolver) Resolve(ctx context.Context, authored string, language reference.SourceLanguage) (reference.TopicReference, error) {
	bundleID, path, external := r.splitAuthored(authored)

	candidate := reference.NewTopicReference(bundleID, path, language)
	if cached, ok := r.cache.Lookup(candidate.URL()); ok {
		return cached, nil
	}

	if !external || bundleID == r.bundleID {
		r.mu.RLock()
		known, ok := r.known[candidate.Path]
		r.mu.RUnlock()
		if !ok {
			return reference.TopicReference{}, &ResolutionFailure{
				Reference: authored,
				Message:   fmt.Sprintf("no local documentation matches %q", candidate.Path),
			}
		}
		r.cache.Store(known)
		return known, nil
	}

	return r.resolveExternal(ctx, authored, bundleID, candidate)
}

// ResolveSymbol resolves a precise symbol identifier through the external
// resolver registered for the given catalog identifier.
func (r *Resolver) ResolveSymbol(ctx context.Context, bundleID, usr string) (*ResolvedInformation, error) {
	r.mu.RLock()
	ext, ok := r.external[bundleID]
	r.mu.RUnlock()
	if !ok {
		return nil, &ResolutionFailure{
			Reference: usr,
			Message:   fmt.Sprintf("no external resolver registered for catalog identifier %q", bundleID),
		}
	}
	return ext.ResolveSymbol(ctx, usr)
}

func (r *Resolver) resolveExternal(ctx context.Context, authored, bundleID string, candidate reference.TopicReference) (reference.TopicReference, error) {
	r.mu.RLock()
	ext, ok := r.external[bundleID]
	r.mu.RUnlock()
	if !ok {
		return reference.TopicReference{}, &ResolutionFailure{
			Reference: authored,
			Message:   fmt.Sprintf("no external resolver registered for catalog identifier %q", bundleID),
		}
	}

	info, err := ext.ResolveTopic(ctx, authored)
	if err != nil {
		// Per-request failure; already-resolved references stay valid.
		return reference.TopicReference{}, err
	}

	resolved := reference.NewTopicReference(bundleID, candidate.Path, reference.SourceLanguage(info.Language))
	r.cache.Store(resolved)
	r.mu.Lock()
	r.resolved[resolved.URL()] = info
	r.mu.Unlock()
	return resolved, nil
}

// splitAuthored decomposes an authored link: doc://bundle/path is external
// when the bundle differs from the current build, doc:Path and bare paths
// are local.
func (r *Resolver) splitAuthored(authored string) (bundleID, path string, external bool) {
	switch {
	case strings.HasPrefix(authored, "doc://"):
		rest := strings.TrimPrefix(authored, "doc://")
		idx := strings.Index(rest, "/")
		if idx < 0 {
			return rest, "/", rest != r.bundleID
		}
		return rest[:idx], rest[idx:], rest[:idx] != r.bundleID
	case strings.HasPrefix(authored, "doc:"):
		p := strings.TrimPrefix(authored, "doc:")
		if !strings.HasPrefix(p, "/") {
			p = "/documentation/" + p
		}
		return r.bundleID, p, false
	default:
		p := authored
		if !strings.HasPrefix(p, "/") {
			p = "/documentation/" + p
		}
		return r.bundleID, p, false
	}
}
