package action

import (
	"context"

	"git.home.luguber.info/inful/docarchive/internal/statichosting"
)

// TransformOptions configures a static-hosting transform action.
type TransformOptions struct {
	ArchivePath string
	OutputPath  string // empty transforms in place
	BasePath    string
}

// TransformAction makes an existing archive static-hostable.
type TransformAction struct {
	opts TransformOptions
}

// NewTransformAction creates a transform action.
func NewTransformAction(opts TransformOptions) *TransformAction {
	return &TransformAction{opts: opts}
}

// Perform runs the transform.
func (a *TransformAction) Perform(ctx context.Context) (Result, error) {
	var result Result
	err := statichosting.Transform(a.opts.ArchivePath, statichosting.Options{
		OutputDir: a.opts.OutputPath,
		BasePath:  a.opts.BasePath,
	})
	if err != nil {
		return result, err
	}
	out := a.opts.OutputPath
	if out == "" {
		out = a.opts.ArchivePath
	}
	result.Outputs = append(result.Outputs, out)
	return result, nil
}
