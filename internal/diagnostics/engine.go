package diagnostics

import (
	"encoding/json"
	"os"
	"sort"
	"sync"
)

// Consumer receives problems as they are emitted. Implementations must be
// safe to call from multiple conversion workers.
type Consumer interface {
	Receive(problems []Problem)
}

// Engine accumulates problems for one build. Emit is safe for concurrent
// use; consumer registration and removal must be externally synchronized by
// the caller (test setup mutates consumers between runs).
type Engine struct {
	mu                    sync.Mutex
	problems              []Problem
	consumers             []Consumer
	minimumSeverity       Severity
	treatWarningsAsErrors bool
	unfiltered            bool // analyze mode: report everything regardless of minimum severity
}

// EngineOption configures a new Engine.
type EngineOption func(*Engine)

// WithMinimumSeverity suppresses problems below the given severity from the
// reported problem list.
func WithMinimumSeverity(s Severity) EngineOption {
	return func(e *Engine) { e.minimumSeverity = s }
}

// WithWarningsAsErrors reclassifies warnings for the purpose of the
// did-encounter-error flag only. It does not affect filtering.
func WithWarningsAsErrors() EngineOption {
	return func(e *Engine) { e.treatWarningsAsErrors = true }
}

// WithUnfilteredOutput disables minimum-severity filtering (analyze mode).
func WithUnfilteredOutput() EngineOption {
	return func(e *Engine) { e.unfiltered = true }
}

// NewEngine creates an engine reporting hints and above.
func NewEngine(opts ...EngineOption) *Engine {
	e := &Engine{minimumSeverity: SeverityHint}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Emit records problems and forwards them to registered consumers.
func (e *Engine) Emit(problems ...Problem) {
	if len(problems) == 0 {
		return
	}
	kept := make([]Problem, 0, len(problems))
	for _, p := range problems {
		if e.unfiltered || p.Diagnostic.Severity >= e.minimumSeverity {
			kept = append(kept, p)
		}
	}
	if len(kept) == 0 {
		return
	}
	e.mu.Lock()
	e.problems = append(e.problems, kept...)
	consumers := make([]Consumer, len(e.consumers))
	copy(consumers, e.consumers)
	e.mu.Unlock()

	for _, c := range consumers {
		c.Receive(kept)
	}
}

// AddConsumer registers a consumer for subsequently emitted problems.
func (e *Engine) AddConsumer(c Consumer) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.consumers = append(e.consumers, c)
}

// RemoveConsumer unregisters a previously added consumer.
func (e *Engine) RemoveConsumer(c Consumer) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for i, existing := range e.consumers {
		if existing == c {
			e.consumers = append(e.consumers[:i], e.consumers[i+1:]...)
			return
		}
	}
}

// Problems returns a copy of the accumulated problems in production order.
func (e *Engine) Problems() []Problem {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]Problem, len(e.problems))
	copy(out, e.problems)
	return out
}

// DidEncounterError reports whether any accumulated problem crosses the
// error threshold, honoring treat-warnings-as-errors.
func (e *Engine) DidEncounterError() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return ContainsErrors(e.problems, e.treatWarningsAsErrors)
}

// Clear drops accumulated problems, keeping configuration and consumers.
// Used between preview rebuilds.
func (e *Engine) Clear() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.problems = nil
}

// SortProblems orders problems for display: identifier first, ties broken by
// summary. Production order is concurrency-dependent; display order is not.
func SortProblems(problems []Problem) {
	sort.SliceStable(problems, func(i, j int) bool {
		if problems[i].Diagnostic.Identifier != problems[j].Diagnostic.Identifier {
			return problems[i].Diagnostic.Identifier < problems[j].Diagnostic.Identifier
		}
		return problems[i].Diagnostic.Summary < problems[j].Diagnostic.Summary
	})
}

// WriteFile persists problems as pretty-printed JSON in display order.
// Written whenever requested, even if the build ultimately failed, so
// failure artifacts are not lost.
func WriteFile(path string, problems []Problem) error {
	sorted := make([]Problem, len(problems))
	copy(sorted, problems)
	SortProblems(sorted)
	if sorted == nil {
		sorted = []Problem{}
	}
	data, err := json.MarshalIndent(sorted, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0o644)
}
