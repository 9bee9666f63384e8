package remote

import (
	"errors"
	"net/http"
)

// Outcome classifies the answer to a single request.
type Outcome int

const (
	// OutcomeSuccess is a 2xx answer.
	OutcomeSuccess Outcome = iota

	// OutcomeNotFound is a 404 answer. Only this outcome advances to the
	// next stage-change candidate.
	OutcomeNotFound

	// OutcomeError is any other failure: non-2xx status, transport error or
	// timeout.
	OutcomeError
)

// String returns the metric/log label for o.
func (o Outcome) String() string {
	switch o {
	case OutcomeSuccess:
		return "success"
	case OutcomeNotFound:
		return "not_found"
	default:
		return "error"
	}
}

// Classify maps a request error to its [Outcome].
func Classify(err error) Outcome {
	switch {
	case err == nil:
		return OutcomeSuccess
	case errors.Is(err, ErrNotFound):
		return OutcomeNotFound
	default:
		return OutcomeError
	}
}

// Candidate is one (method, path) combination for a stage change.
type Candidate struct {
	// Name labels the candidate in logs and metrics.
	Name   string
	Method string
	Path   string
}

// Attempt records one candidate request and its outcome.
type Attempt struct {
	Candidate Candidate
	Outcome   Outcome
	Err       error
}

// StageChangeCandidates returns the stage-change requests for product id in
// the order they are tried:
//  1. PATCH /maturity/products/{id}/stage
//  2. PATCH /maturity/products/{id}
//  3. PUT /maturity/products/{id}/stage
func StageChangeCandidates(id string) []Candidate {
	base := productPath(id)
	return []Candidate{
		{Name: "primary", Method: http.MethodPatch, Path: base + "/stage"},
		{Name: "alternate_path", Method: http.MethodPatch, Path: base},
		{Name: "alternate_method", Method: http.MethodPut, Path: base + "/stage"},
	}
}
