package action

import (
	"context"

	"git.home.luguber.info/inful/docarchive/internal/merge"
)

// MergeOptions configures a merge action.
type MergeOptions struct {
	Inputs []string
	Output string
}

// MergeAction combines archives after a preflight pass; nothing is written
// when preflight rejects the inputs.
type MergeAction struct {
	opts MergeOptions
}

// NewMergeAction creates a merge action.
func NewMergeAction(opts MergeOptions) *MergeAction {
	return &MergeAction{opts: opts}
}

// Perform validates and merges.
func (a *MergeAction) Perform(ctx context.Context) (Result, error) {
	var result Result
	if err := merge.Preflight(a.opts.Inputs, a.opts.Output); err != nil {
		return result, err
	}
	if err := merge.Merge(a.opts.Inputs, a.opts.Output); err != nil {
		return result, err
	}
	result.Outputs = append(result.Outputs, a.opts.Output)
	return result, nil
}
