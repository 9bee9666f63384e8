package transition

import (
	"maturity/internal/stage"
)

// RoadmapStep represents a single remaining transition on the way to the final stage.
//
// Each step carries the stages it connects and the criteria that gate it. The
// first step of a roadmap is the product's next transition; later steps are
// what it will face after that.
type RoadmapStep struct {
	// From is the stage the transition starts at.
	From stage.Stage `json:"from" yaml:"from"`

	// To is the stage reached when the step's criteria are met.
	To stage.Stage `json:"to" yaml:"to"`

	// Required lists the criteria gating this step, in table order.
	Required []Key `json:"required" yaml:"required"`
}

// Roadmap returns every remaining transition from s through to the final stage.
//
// The result is empty for the final stage and for unknown stages.
func (t *Table) Roadmap(s stage.Stage) []RoadmapStep {
	steps := []RoadmapStep{}
	current := s
	for {
		next, ok := stage.Next(current)
		if !ok {
			return steps
		}
		steps = append(steps, RoadmapStep{
			From:     current,
			To:       next,
			Required: t.Required(current),
		})
		current = next
	}
}
