// Package action exposes the tool's operations as composable actions with a
// shared result contract: which outputs were produced, which problems were
// found, and whether any of them were fatal.
package action

import (
	"context"

	"git.home.luguber.info/inful/docarchive/internal/diagnostics"
)

// Result is the outcome contract every action honors. Problems carry the
// full diagnostic stream regardless of success; DidEncounterError mirrors
// the diagnostic engine's verdict, including warnings promoted to errors.
type Result struct {
	Outputs           []string
	Problems          []diagnostics.Problem
	DidEncounterError bool
}

// Action is one executable operation.
type Action interface {
	Perform(ctx context.Context) (Result, error)
}
