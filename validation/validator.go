// Package validation reports structural problems in a mind map graph.
//
// The editor tolerates most of them (dangling connections are skipped when
// painting), so the validator reports rather than rejects. Repair removes the
// problems that would break the store's invariants.
package validation

import (
	"fmt"
	"strings"

	"mindmaps/diagram"
)

// Kind classifies an issue.
type Kind string

const (
	DuplicateNodeID       Kind = "duplicate-node-id"
	DuplicateConnectionID Kind = "duplicate-connection-id"
	MissingID             Kind = "missing-id"
	SelfConnection        Kind = "self-connection"
	DanglingConnection    Kind = "dangling-connection"
	DuplicatePair         Kind = "duplicate-pair"
	NonFiniteCoordinate   Kind = "non-finite-coordinate"
	InvalidField          Kind = "invalid-field"
)

// Severity says whether an issue blocks saving.
type Severity int

const (
	Warning Severity = iota
	Error
)

func (s Severity) String() string {
	if s == Error {
		return "error"
	}
	return "warning"
}

// MarshalText encodes the severity by name.
func (s Severity) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// ValidationError represents a validation issue with the offending id.
type ValidationError struct {
	Kind     Kind     `json:"kind"`
	Severity Severity `json:"severity"`
	ID       string   `json:"id"`
	Message  string   `json:"message"`
}

// GraphValidator validates node and connection sets.
type GraphValidator struct {
	// Track validation errors
	errors []ValidationError
	// Options
	strictMode bool // Dangling connections count as errors
}

// NewGraphValidator creates a new validator with default settings.
func NewGraphValidator() *GraphValidator {
	return &GraphValidator{}
}

// SetStrictMode enables or disables strict validation.
func (v *GraphValidator) SetStrictMode(strict bool) {
	v.strictMode = strict
}

// Validate checks a graph. Issues are reported in node order, then
// connection order.
func (v *GraphValidator) Validate(g diagram.Graph) []ValidationError {
	v.errors = nil

	nodes := make(map[string]bool, len(g.Nodes))
	for _, n := range g.Nodes {
		switch {
		case n.ID == "":
			v.addError(MissingID, Error, "", "node %q has no id", n.Title)
		case nodes[n.ID]:
			v.addError(DuplicateNodeID, Error, n.ID, "node id %s is used more than once", n.ID)
		}
		nodes[n.ID] = true

		if !diagram.IsFinite(n.X) || !diagram.IsFinite(n.Y) {
			v.addError(NonFiniteCoordinate, Error, n.ID, "node %s has coordinates (%v, %v)", n.ID, n.X, n.Y)
		}
	}

	conns := make(map[string]bool, len(g.Connections))
	pairs := make(map[[2]string]string, len(g.Connections))
	for _, c := range g.Connections {
		switch {
		case c.ID == "":
			v.addError(MissingID, Error, "", "connection %s -> %s has no id", c.SourceID, c.TargetID)
		case conns[c.ID]:
			v.addError(DuplicateConnectionID, Error, c.ID, "connection id %s is used more than once", c.ID)
		}
		conns[c.ID] = true

		if c.SourceID == c.TargetID {
			v.addError(SelfConnection, Error, c.ID, "connection %s links node %s to itself", c.ID, c.SourceID)
			continue
		}

		if !nodes[c.SourceID] || !nodes[c.TargetID] {
			sev := Warning
			if v.strictMode {
				sev = Error
			}
			v.addError(DanglingConnection, sev, c.ID, "connection %s references a missing node", c.ID)
		}

		key := pairKey(c.SourceID, c.TargetID)
		if first, ok := pairs[key]; ok {
			v.addError(DuplicatePair, Error, c.ID, "connection %s repeats %s", c.ID, first)
		} else {
			pairs[key] = c.ID
		}

		if err := diagram.ValidateConnection(c); err != nil && c.ID != "" {
			v.addError(InvalidField, Error, c.ID, "connection %s: %s", c.ID, firstLine(err.Error()))
		}
	}

	return v.errors
}

// HasErrors reports whether any issue has Error severity.
func HasErrors(issues []ValidationError) bool {
	for _, e := range issues {
		if e.Severity == Error {
			return true
		}
	}
	return false
}

// Repair returns a copy of g that satisfies the store's invariants: unique
// non-empty ids, finite coordinates, no self connections and at most one
// connection per unordered pair. Dangling connections are kept.
func Repair(g diagram.Graph, gen diagram.IDGenerator) diagram.Graph {
	out := g.Sanitize()
	diagram.EnsureUniqueIDs(&out, gen)

	kept := out.Connections[:0]
	seen := make(map[[2]string]bool, len(out.Connections))
	for _, c := range out.Connections {
		key := pairKey(c.SourceID, c.TargetID)
		if c.SourceID == c.TargetID || seen[key] {
			continue
		}
		seen[key] = true
		kept = append(kept, c)
	}
	out.Connections = kept
	return out
}

func pairKey(a, b string) [2]string {
	if b < a {
		a, b = b, a
	}
	return [2]string{a, b}
}

// addError adds a validation error.
func (v *GraphValidator) addError(kind Kind, sev Severity, id, format string, args ...interface{}) {
	v.errors = append(v.errors, ValidationError{
		Kind:     kind,
		Severity: sev,
		ID:       id,
		Message:  fmt.Sprintf(format, args...),
	})
}

func firstLine(s string) string {
	line, _, _ := strings.Cut(s, "\n")
	return line
}

// String formats validation errors as a string.
func (e ValidationError) String() string {
	return fmt.Sprintf("%s [%s] %s: %s", e.Severity, e.Kind, e.ID, e.Message)
}
