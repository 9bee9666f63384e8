// Package transition decides whether a product may advance to its next stage.
//
// A [Table] maps every exit criterion to the single stage transition it gates.
// From that table the package derives, for a stage and a set of criteria
// evaluations, the required criteria, the blocking subset and a readiness
// percentage. All evaluation functions are pure: the same inputs always produce
// the same outputs.
//
// Tables can be built from the hardcoded defaults ([DefaultTable]) or from a
// criteria manifest ([NewTableFromManifest]).
//
// Key types:
//   - [Table] - Ordered, read-only criteria table
//   - [Criteria] - Evaluations supplied with each product
//   - [Result] - Outcome of [Table.Evaluate]
//
// Package-level functions [Evaluate], [Score], [Required] and [Describe] use the
// default table.
package transition

import (
	"errors"
	"fmt"
	"strings"

	"maturity/internal/manifest"
	"maturity/internal/stage"
)

// Sentinel errors for table construction.
var (
	// ErrDuplicateCriterion indicates a criterion key appears more than once.
	// Each criterion gates exactly one transition.
	ErrDuplicateCriterion = errors.New("criterion gates more than one transition")

	// ErrInvalidTransition indicates a criterion is attached to a pair of stages
	// that are not consecutive in the pipeline.
	ErrInvalidTransition = errors.New("criterion must gate a transition to the next stage")
)

// Key identifies an exit criterion (e.g., "uptime_95").
type Key string

// Built-in criterion keys.
const (
	Staging        Key = "staging"
	BugsCritical   Key = "bugs_critical"
	BugsMediumPlus Key = "bugs_medium_plus"
	BugsAll        Key = "bugs_all"
	Uptime99       Key = "uptime_99"
	Uptime95       Key = "uptime_95"
	ActiveUsers1   Key = "active_users_1"
	ActiveUsers2   Key = "active_users_2"
	ActiveUsers3   Key = "active_users_3"
)

// Criteria holds the evaluations supplied with a product.
//
// Values are kept as decoded so that only the boolean true counts as met.
// Strings such as "true", numbers, nil and absent keys are all unmet.
type Criteria map[Key]any

// Met reports whether k is present and holds exactly the boolean true.
func (c Criteria) Met(k Key) bool {
	v, ok := c[k].(bool)
	return ok && v
}

// Criterion is a single row of the criteria table.
type Criterion struct {
	Key   Key         `json:"key" yaml:"key"`
	From  stage.Stage `json:"from" yaml:"from"`
	To    stage.Stage `json:"to" yaml:"to"`
	Label string      `json:"label" yaml:"label"`
}

// Table is an ordered, read-only criteria table.
//
// Create with [DefaultTable] or [NewTableFromManifest]. Row order defines the
// order in which required and blocking criteria are reported.
type Table struct {
	criteria []Criterion
}

// defaultLabels are the display labels for the built-in criteria.
var defaultLabels = map[Key]string{
	Staging:        "Link pra Staging",
	BugsCritical:   "Sem bugs high/highest",
	BugsMediumPlus: "Sem bugs medium+",
	BugsAll:        "Sem nenhum bug registrado",
	Uptime99:       "Uptime >= 99%",
	Uptime95:       "Uptime >= 95%",
	ActiveUsers1:   "Pelo menos 3 usuarios",
	ActiveUsers2:   "Pelo menos 10 usuarios",
	ActiveUsers3:   "Pelo menos 50 usuarios",
}

// DefaultTable returns the built-in criteria table.
//
// The transitions and their gating criteria are:
//   - V1 -> V2: staging
//   - V2 -> V3: bugs_critical, active_users_1
//   - V3 -> V4: bugs_medium_plus, active_users_2, uptime_95
//   - V4 -> V5: bugs_all, active_users_3, uptime_99
func DefaultTable() *Table {
	rows := []struct {
		key      Key
		from, to stage.Stage
	}{
		{Staging, stage.V1, stage.V2},
		{BugsCritical, stage.V2, stage.V3},
		{ActiveUsers1, stage.V2, stage.V3},
		{BugsMediumPlus, stage.V3, stage.V4},
		{ActiveUsers2, stage.V3, stage.V4},
		{Uptime95, stage.V3, stage.V4},
		{BugsAll, stage.V4, stage.V5},
		{ActiveUsers3, stage.V4, stage.V5},
		{Uptime99, stage.V4, stage.V5},
	}

	t := &Table{criteria: make([]Criterion, 0, len(rows))}
	for _, r := range rows {
		t.criteria = append(t.criteria, Criterion{
			Key:   r.key,
			From:  r.from,
			To:    r.to,
			Label: defaultLabels[r.key],
		})
	}
	return t
}

// NewTableFromManifest creates a [Table] from a criteria manifest.
//
// Stages are parsed strictly. Every entry must gate a transition from a stage
// to its immediate successor, and no criterion may appear twice. Entries
// without a label fall back to the built-in label or to the key with
// underscores replaced by spaces.
func NewTableFromManifest(m *manifest.Manifest) (*Table, error) {
	t := &Table{criteria: make([]Criterion, 0, len(m.Entries))}
	seen := make(map[Key]bool, len(m.Entries))

	for _, entry := range m.Entries {
		key := Key(entry.Criterion)
		if seen[key] {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateCriterion, key)
		}
		seen[key] = true

		from, err := stage.Parse(entry.From, stage.Strict)
		if err != nil {
			return nil, fmt.Errorf("criterion %s: %w", key, err)
		}
		to, err := stage.Parse(entry.To, stage.Strict)
		if err != nil {
			return nil, fmt.Errorf("criterion %s: %w", key, err)
		}
		if next, ok := stage.Next(from); !ok || next != to {
			return nil, fmt.Errorf("%w: %s (%s -> %s)", ErrInvalidTransition, key, from, to)
		}

		label := entry.Label
		if label == "" {
			label = fallbackLabel(key)
		}
		t.criteria = append(t.criteria, Criterion{Key: key, From: from, To: to, Label: label})
	}

	return t, nil
}

func fallbackLabel(k Key) string {
	if label, ok := defaultLabels[k]; ok {
		return label
	}
	return strings.ReplaceAll(string(k), "_", " ")
}

// Criteria returns a copy of the table rows in order.
func (t *Table) Criteria() []Criterion {
	out := make([]Criterion, len(t.criteria))
	copy(out, t.criteria)
	return out
}

// Label returns the display label for k.
func (t *Table) Label(k Key) string {
	for _, c := range t.criteria {
		if c.Key == k {
			return c.Label
		}
	}
	return fallbackLabel(k)
}

// Required returns every criterion gating the transition from the given stage
// to its successor, in table order.
//
// The result is empty (not nil) for the final stage and for unknown stages.
func (t *Table) Required(from stage.Stage) []Key {
	keys := []Key{}
	next, ok := stage.Next(from)
	if !ok {
		return keys
	}
	for _, c := range t.criteria {
		if c.From == from && c.To == next {
			keys = append(keys, c.Key)
		}
	}
	return keys
}

// Result is the outcome of evaluating a stage against its criteria.
type Result struct {
	// CanTransition is true when no required criterion is blocking.
	// Always false at the final stage.
	CanTransition bool `json:"canTransition" yaml:"canTransition"`

	// NextStage is set only when CanTransition is true.
	NextStage stage.Stage `json:"nextStage,omitempty" yaml:"nextStage,omitempty"`

	// BlockingCriteria are the required criteria not met, in table order.
	BlockingCriteria []Key `json:"blockingCriteria" yaml:"blockingCriteria"`

	// RequiredCriteria are all criteria gating the next transition.
	RequiredCriteria []Key `json:"requiredCriteria" yaml:"requiredCriteria"`
}

// Evaluate computes the transition result for a product at stage s.
//
// At the final stage (or an unknown stage) the result is not transitionable
// and carries no criteria. Otherwise every required criterion that is not
// exactly true is blocking. A transition with no gating criteria is
// immediately transitionable.
func (t *Table) Evaluate(s stage.Stage, c Criteria) Result {
	next, ok := stage.Next(s)
	if !ok {
		return Result{
			BlockingCriteria: []Key{},
			RequiredCriteria: []Key{},
		}
	}

	required := t.Required(s)
	blocking := []Key{}
	for _, k := range required {
		if !c.Met(k) {
			blocking = append(blocking, k)
		}
	}

	r := Result{
		CanTransition:    len(blocking) == 0,
		BlockingCriteria: blocking,
		RequiredCriteria: required,
	}
	if r.CanTransition {
		r.NextStage = next
	}
	return r
}

// Score returns the readiness percentage for the transition out of stage s.
//
// When nothing is required (including the final stage) the score is 100.
// Otherwise it is the share of met required criteria, rounded half up.
func (t *Table) Score(s stage.Stage, c Criteria) int {
	required := t.Required(s)
	if len(required) == 0 {
		return 100
	}

	met := 0
	for _, k := range required {
		if c.Met(k) {
			met++
		}
	}

	n := len(required)
	return (200*met + n) / (2 * n)
}

// Describe returns a sentence listing what the transition out of s requires.
func (t *Table) Describe(s stage.Stage) string {
	next, ok := stage.Next(s)
	if !ok {
		return fmt.Sprintf("%s is the final stage.", s)
	}

	required := t.Required(s)
	if len(required) == 0 {
		return fmt.Sprintf("%s can transition to %s without further criteria.", s, next)
	}

	labels := make([]string, len(required))
	for i, k := range required {
		labels[i] = t.Label(k)
	}
	return fmt.Sprintf("To transition from %s to %s, the following criteria must be met: %s.",
		s, next, strings.Join(labels, ", "))
}

// defaultTable is the package-level table used by the convenience functions.
var defaultTable = DefaultTable()

// Default returns the package-level default table.
func Default() *Table {
	return defaultTable
}

// Required returns the criteria gating the transition out of s in the default table.
func Required(s stage.Stage) []Key {
	return defaultTable.Required(s)
}

// Evaluate evaluates s against c using the default table.
func Evaluate(s stage.Stage, c Criteria) Result {
	return defaultTable.Evaluate(s, c)
}

// Score computes the readiness score of s against c using the default table.
func Score(s stage.Stage, c Criteria) int {
	return defaultTable.Score(s, c)
}

// Describe describes the transition out of s using the default table.
func Describe(s stage.Stage) string {
	return defaultTable.Describe(s)
}
