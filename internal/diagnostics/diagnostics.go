// Package diagnostics defines the problem model emitted throughout a build
// and the engine that accumulates problems across concurrent workers.
package diagnostics

import (
	"fmt"
)

// Severity orders diagnostic levels from least to most severe.
type Severity int

const (
	SeverityHint Severity = iota
	SeverityInformation
	SeverityWarning
	SeverityError
)

// ParseSeverity maps the user-facing level names onto Severity.
func ParseSeverity(s string) (Severity, error) {
	switch s {
	case "hint":
		return SeverityHint, nil
	case "information", "info":
		return SeverityInformation, nil
	case "warning":
		return SeverityWarning, nil
	case "error":
		return SeverityError, nil
	}
	return SeverityHint, fmt.Errorf("unknown diagnostic level %q", s)
}

// String returns the canonical level name.
func (s Severity) String() string {
	switch s {
	case SeverityHint:
		return "hint"
	case SeverityInformation:
		return "information"
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	}
	return "unknown"
}

// MarshalText serializes the level name into JSON and YAML payloads.
func (s Severity) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText restores a Severity from its level name.
func (s *Severity) UnmarshalText(text []byte) error {
	parsed, err := ParseSeverity(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// SourceLocation is an optional pointer into catalog source material.
type SourceLocation struct {
	Path   string `json:"path"`
	Line   int    `json:"line,omitempty"`
	Column int    `json:"column,omitempty"`
}

// Diagnostic describes one problem found during a build. The convenience
// form never carries local filesystem user paths; Source holds a
// catalog-relative path only.
type Diagnostic struct {
	Severity    Severity        `json:"severity"`
	Identifier  string          `json:"identifier"`
	Summary     string          `json:"summary"`
	Explanation string          `json:"explanation,omitempty"`
	Source      *SourceLocation `json:"source,omitempty"`
	Notes       []string        `json:"notes,omitempty"`
}

// Problem pairs a diagnostic with optional remediation suggestions.
type Problem struct {
	Diagnostic Diagnostic `json:"diagnostic"`
	Solutions  []string   `json:"possibleSolutions,omitempty"`
}

// NewProblem is shorthand for a problem without solutions.
func NewProblem(severity Severity, identifier, summary string) Problem {
	return Problem{Diagnostic: Diagnostic{Severity: severity, Identifier: identifier, Summary: summary}}
}

// ContainsErrors reports whether any problem has error severity. When
// treatWarningsAsErrors is set, warning severity also counts.
func ContainsErrors(problems []Problem, treatWarningsAsErrors bool) bool {
	threshold := SeverityError
	if treatWarningsAsErrors {
		threshold = SeverityWarning
	}
	for _, p := range problems {
		if p.Diagnostic.Severity >= threshold {
			return true
		}
	}
	return false
}
