// Package stage defines the fixed maturity pipeline V1 through V5.
//
// Stages are totally ordered by position. Navigation never fails: asking for the
// stage after the last one, or after a value that is not a stage at all, reports
// that no further transition exists. Callers treat that as "final stage", not as
// an error.
//
// Key types:
//   - [Stage] is a single pipeline position
//   - [Mode] selects how [Parse] handles values that are not recognized stages
package stage

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownStage is returned by [Parse] in [Strict] mode for values that are
// not one of V1..V5.
var ErrUnknownStage = errors.New("unknown stage")

// Stage is a position in the maturity pipeline.
type Stage string

// Pipeline stages in order.
const (
	V1 Stage = "V1"
	V2 Stage = "V2"
	V3 Stage = "V3"
	V4 Stage = "V4"
	V5 Stage = "V5"
)

// ordered is the single source of truth for stage order.
var ordered = []Stage{V1, V2, V3, V4, V5}

type stageInfo struct {
	label string
	color string
}

var info = map[Stage]stageInfo{
	V1: {label: "Demo/Conceito", color: "amber"},
	V2: {label: "Protótipo", color: "blue"},
	V3: {label: "Alpha/Beta", color: "purple"},
	V4: {label: "Pre-Production", color: "cyan"},
	V5: {label: "Produção", color: "green"},
}

// All returns the stages in pipeline order. The returned slice is a copy.
func All() []Stage {
	out := make([]Stage, len(ordered))
	copy(out, ordered)
	return out
}

// First returns the first pipeline stage.
func First() Stage { return ordered[0] }

// Last returns the final pipeline stage.
func Last() Stage { return ordered[len(ordered)-1] }

// Index returns the zero-based position of s, or -1 if s is not a stage.
func Index(s Stage) int {
	for i, st := range ordered {
		if st == s {
			return i
		}
	}
	return -1
}

// IsValid reports whether s is one of the pipeline stages.
func (s Stage) IsValid() bool {
	return Index(s) >= 0
}

// String implements fmt.Stringer.
func (s Stage) String() string {
	return string(s)
}

// Label returns the display label for s, or the raw value for unknown stages.
func (s Stage) Label() string {
	if i, ok := info[s]; ok {
		return i.label
	}
	return string(s)
}

// Color returns the display color name for s ("gray" for unknown stages).
func (s Stage) Color() string {
	if i, ok := info[s]; ok {
		return i.color
	}
	return "gray"
}

// Next returns the stage immediately after s.
// The boolean is false when s is the last stage or not a stage at all.
func Next(s Stage) (Stage, bool) {
	i := Index(s)
	if i < 0 || i == len(ordered)-1 {
		return "", false
	}
	return ordered[i+1], true
}

// Previous returns the stage immediately before s.
// The boolean is false when s is the first stage or not a stage at all.
func Previous(s Stage) (Stage, bool) {
	i := Index(s)
	if i <= 0 {
		return "", false
	}
	return ordered[i-1], true
}

// Adjacent reports whether to is the immediate next or previous stage of from.
func Adjacent(from, to Stage) bool {
	if next, ok := Next(from); ok && next == to {
		return true
	}
	if prev, ok := Previous(from); ok && prev == to {
		return true
	}
	return false
}

// Mode controls how [Parse] treats values that are not recognized stages.
type Mode int

const (
	// Lenient maps empty or unrecognized values to the first stage.
	Lenient Mode = iota

	// Strict rejects unrecognized values with [ErrUnknownStage].
	Strict
)

// Parse converts raw into a [Stage]. Surrounding whitespace is ignored and the
// comparison is case-insensitive ("v2" parses as V2).
func Parse(raw string, mode Mode) (Stage, error) {
	s := Stage(strings.ToUpper(strings.TrimSpace(raw)))
	if s.IsValid() {
		return s, nil
	}
	if mode == Strict {
		return "", fmt.Errorf("%w: %q", ErrUnknownStage, raw)
	}
	return First(), nil
}
