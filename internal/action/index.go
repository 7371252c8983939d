package action

import (
	"context"
	"path/filepath"

	"git.home.luguber.info/inful/docarchive/internal/archive"
	archerr "git.home.luguber.info/inful/docarchive/internal/errors"
	"git.home.luguber.info/inful/docarchive/internal/navigator"
)

// IndexOptions configures a standalone index action.
type IndexOptions struct {
	ArchivePath string
	EmitJSON    bool
	EmitDB      bool
}

// IndexAction rebuilds the navigator index of an existing archive in a
// second pass over its render JSON. Its output matches indexing during
// conversion byte for byte.
type IndexAction struct {
	opts IndexOptions
}

// NewIndexAction creates an index action.
func NewIndexAction(opts IndexOptions) *IndexAction {
	if !opts.EmitJSON && !opts.EmitDB {
		opts.EmitJSON = true
		opts.EmitDB = true
	}
	return &IndexAction{opts: opts}
}

// Perform runs the pass.
func (a *IndexAction) Perform(ctx context.Context) (Result, error) {
	var result Result
	if !archive.IsArchive(a.opts.ArchivePath) {
		return result, archerr.New(archerr.CategoryValidation, archerr.SeverityFatal,
			a.opts.ArchivePath+" is not a documentation archive")
	}

	builder, err := navigator.BuildFromArchive(a.opts.ArchivePath)
	if err != nil {
		return result, err
	}
	tree, problems := builder.Finalize()
	result.Problems = problems

	if err := navigator.Write(a.opts.ArchivePath, tree, navigator.WriteOptions{
		EmitJSON: a.opts.EmitJSON,
		EmitDB:   a.opts.EmitDB,
	}); err != nil {
		return result, err
	}
	if a.opts.EmitJSON {
		result.Outputs = append(result.Outputs, filepath.Join(a.opts.ArchivePath, filepath.FromSlash(archive.IndexFileName)))
	}
	if a.opts.EmitDB {
		result.Outputs = append(result.Outputs, filepath.Join(a.opts.ArchivePath, filepath.FromSlash(archive.IndexDBFileName)))
	}
	return result, nil
}
