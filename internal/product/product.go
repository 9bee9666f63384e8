// Package product models products tracked through the maturity pipeline.
//
// Products arrive from the remote store as [Record] values. [Derive] turns a
// record into a [Product], recomputing every derived field (target stage,
// readiness score, transition result and, when the store does not supply one,
// status) from the stage and criteria. Derived values in the payload are never
// trusted.
//
// The package also provides the read-side helpers the presentation layer
// needs: project names, filters, grouping by stage and summary statistics.
package product

import (
	"fmt"
	"strings"
	"time"

	"maturity/internal/stage"
	"maturity/internal/transition"
)

// DefaultNextAction is used when a record carries no next action.
const DefaultNextAction = "No action defined"

// kickoffLayout is the calendar date format used by the store.
const kickoffLayout = "2006-01-02"

// Status is the readiness status of a product.
type Status string

// Product status values.
const (
	StatusReady      Status = "ready"
	StatusBlocked    Status = "blocked"
	StatusInProgress Status = "in-progress"
)

// IsValid reports whether s is one of the known status values.
func (s Status) IsValid() bool {
	switch s {
	case StatusReady, StatusBlocked, StatusInProgress:
		return true
	}
	return false
}

// Record is a product as stored by the remote store.
//
// TargetStage and ReadinessScore may be present in payloads but are ignored;
// they are recomputed by [Derive]. Status is honoured when it holds a known
// value.
type Record struct {
	ID             string              `json:"id" yaml:"id" jsonschema:"required,pattern=^[a-z0-9]+$"`
	Name           string              `json:"name" yaml:"name"`
	Description    string              `json:"description,omitempty" yaml:"description,omitempty"`
	URL            *string             `json:"url,omitempty" yaml:"url,omitempty"`
	Stage          string              `json:"stage,omitempty" yaml:"stage,omitempty" jsonschema:"enum=V1,enum=V2,enum=V3,enum=V4,enum=V5"`
	TargetStage    string              `json:"targetStage,omitempty" yaml:"targetStage,omitempty"`
	Status         string              `json:"status,omitempty" yaml:"status,omitempty"`
	ReadinessScore *int                `json:"readinessScore,omitempty" yaml:"readinessScore,omitempty"`
	DaysInStage    *int                `json:"daysInStage,omitempty" yaml:"daysInStage,omitempty"`
	Criteria       transition.Criteria `json:"criteria,omitempty" yaml:"criteria,omitempty"`
	Metrics        map[string]*float64 `json:"metrics,omitempty" yaml:"metrics,omitempty"`
	Blockers       []string            `json:"blockers,omitempty" yaml:"blockers,omitempty"`
	NextAction     string              `json:"nextAction,omitempty" yaml:"nextAction,omitempty"`
	Observations   string              `json:"observations,omitempty" yaml:"observations,omitempty"`
	KickoffDate    *string             `json:"kickoffDate,omitempty" yaml:"kickoffDate,omitempty"`
}

// Product is a product with all derived fields computed.
type Product struct {
	ID             string              `json:"id" yaml:"id"`
	Name           string              `json:"name" yaml:"name"`
	Description    string              `json:"description" yaml:"description"`
	URL            string              `json:"url,omitempty" yaml:"url,omitempty"`
	Stage          stage.Stage         `json:"stage" yaml:"stage"`
	TargetStage    stage.Stage         `json:"targetStage" yaml:"targetStage"`
	Status         Status              `json:"status" yaml:"status"`
	ReadinessScore int                 `json:"readinessScore" yaml:"readinessScore"`
	Transition     transition.Result   `json:"transitionResult" yaml:"transitionResult"`
	Criteria       transition.Criteria `json:"criteria" yaml:"criteria"`
	Metrics        map[string]*float64 `json:"metrics,omitempty" yaml:"metrics,omitempty"`
	Blockers       []string            `json:"blockers" yaml:"blockers"`
	NextAction     string              `json:"nextAction" yaml:"nextAction"`
	Observations   string              `json:"observations,omitempty" yaml:"observations,omitempty"`
	DaysInStage    int                 `json:"daysInStage" yaml:"daysInStage"`
	KickoffDate    *time.Time          `json:"kickoffDate,omitempty" yaml:"kickoffDate,omitempty"`
}

// Derive builds a [Product] from a record, recomputing all derived fields.
//
// The stage is parsed with mode: in [stage.Lenient] mode a missing or unknown
// stage becomes V1, in [stage.Strict] mode it is an error wrapping
// [stage.ErrUnknownStage]. Missing days in stage default to 0, missing
// blockers to an empty list and a missing next action to [DefaultNextAction].
func Derive(rec Record, table *transition.Table, mode stage.Mode) (Product, error) {
	s, err := stage.Parse(rec.Stage, mode)
	if err != nil {
		return Product{}, fmt.Errorf("product %s: %w", rec.ID, err)
	}

	criteria := rec.Criteria
	if criteria == nil {
		criteria = transition.Criteria{}
	}

	p := Product{
		ID:           rec.ID,
		Name:         rec.Name,
		Description:  rec.Description,
		Stage:        s,
		Criteria:     criteria,
		Metrics:      rec.Metrics,
		Blockers:     rec.Blockers,
		NextAction:   rec.NextAction,
		Observations: rec.Observations,
	}
	if rec.URL != nil {
		p.URL = *rec.URL
	}
	if rec.DaysInStage != nil && *rec.DaysInStage > 0 {
		p.DaysInStage = *rec.DaysInStage
	}
	if p.Blockers == nil {
		p.Blockers = []string{}
	}
	if strings.TrimSpace(p.NextAction) == "" {
		p.NextAction = DefaultNextAction
	}
	if rec.KickoffDate != nil {
		if d, err := parseKickoff(*rec.KickoffDate); err == nil {
			p.KickoffDate = &d
		}
	}

	p.Transition = table.Evaluate(s, criteria)
	p.ReadinessScore = table.Score(s, criteria)
	p.TargetStage = s
	if next, ok := stage.Next(s); ok {
		p.TargetStage = next
	}

	if explicit := Status(rec.Status); explicit.IsValid() {
		p.Status = explicit
	} else {
		p.Status = InferStatus(p.Transition)
	}

	return p, nil
}

// DeriveAll derives every record in order. It fails on the first record that
// cannot be derived, so a strict-mode load never yields a partial list.
func DeriveAll(records []Record, table *transition.Table, mode stage.Mode) ([]Product, error) {
	products := make([]Product, 0, len(records))
	for _, rec := range records {
		p, err := Derive(rec, table, mode)
		if err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	return products, nil
}

// InferStatus derives a status from a transition result: ready when the
// product can transition, blocked when criteria are blocking, and in-progress
// otherwise (the final stage).
func InferStatus(r transition.Result) Status {
	if r.CanTransition {
		return StatusReady
	}
	if len(r.BlockingCriteria) > 0 {
		return StatusBlocked
	}
	return StatusInProgress
}

func parseKickoff(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if d, err := time.Parse(kickoffLayout, raw); err == nil {
		return d, nil
	}
	return time.Parse(time.RFC3339, raw)
}
