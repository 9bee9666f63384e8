package session

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"maturity/internal/product"
	"maturity/internal/stage"
	"maturity/internal/transition"
)

var (
	// ErrProductNotFound indicates the product is not in the cache.
	ErrProductNotFound = errors.New("product not found")

	// ErrNotAdjacent indicates a stage change that skips or repeats a stage.
	ErrNotAdjacent = errors.New("stage change must move to an adjacent stage")

	// ErrBlocked matches every [*BlockedError].
	ErrBlocked = errors.New("stage transition blocked")
)

// BlockedError is returned when a forward stage change is requested for a
// product whose transition criteria are not met and force was not set.
type BlockedError struct {
	ID       string
	From     stage.Stage
	To       stage.Stage
	Blocking []transition.Key
}

func (e *BlockedError) Error() string {
	keys := make([]string, len(e.Blocking))
	for i, k := range e.Blocking {
		keys[i] = string(k)
	}
	return fmt.Sprintf("cannot move %s from %s to %s: blocking criteria: %s",
		e.ID, e.From, e.To, strings.Join(keys, ", "))
}

// Is reports whether target is [ErrBlocked].
func (e *BlockedError) Is(target error) bool {
	return target == ErrBlocked
}

// ChangeStage moves product id to an adjacent stage.
//
// A forward move whose criteria are not met fails with [*BlockedError] before
// any request is made, unless force is set. Forced moves are logged at WARN.
// Backward moves are never gated. On success the cache is refetched; on
// failure the error is recorded and the cache is left untouched.
func (s *Store) ChangeStage(ctx context.Context, id string, to stage.Stage, force bool) error {
	if err := s.checkRunning(); err != nil {
		return err
	}
	if !to.IsValid() {
		return fmt.Errorf("%w: %q", stage.ErrUnknownStage, to)
	}

	p, ok := s.Product(id)
	if !ok {
		return fmt.Errorf("%w: %s", ErrProductNotFound, id)
	}
	if !stage.Adjacent(p.Stage, to) {
		return fmt.Errorf("%w: %s to %s", ErrNotAdjacent, p.Stage, to)
	}

	blocked := stage.Index(to) > stage.Index(p.Stage) && !p.Transition.CanTransition
	if blocked {
		if !force {
			return &BlockedError{ID: id, From: p.Stage, To: to, Blocking: p.Transition.BlockingCriteria}
		}
		s.logger.Warn("forcing blocked stage transition",
			"product", id, "from", p.Stage, "to", to,
			"blocking", p.Transition.BlockingCriteria)
	}

	if err := s.remote.ChangeStage(ctx, id, to); err != nil {
		s.fail(err)
		return fmt.Errorf("change stage of %s: %w", id, err)
	}
	s.logger.Info("stage changed", "product", id, "from", p.Stage, "to", to, "forced", blocked)
	return s.refetch(ctx, "stage change")
}

// Advance moves product id to the next stage.
func (s *Store) Advance(ctx context.Context, id string, force bool) error {
	p, ok := s.Product(id)
	if !ok {
		return fmt.Errorf("%w: %s", ErrProductNotFound, id)
	}
	next, ok := stage.Next(p.Stage)
	if !ok {
		return fmt.Errorf("%w: %s is already at %s", ErrNotAdjacent, id, p.Stage)
	}
	return s.ChangeStage(ctx, id, next, force)
}

// Revert moves product id back to the previous stage.
func (s *Store) Revert(ctx context.Context, id string) error {
	p, ok := s.Product(id)
	if !ok {
		return fmt.Errorf("%w: %s", ErrProductNotFound, id)
	}
	prev, ok := stage.Previous(p.Stage)
	if !ok {
		return fmt.Errorf("%w: %s is already at %s", ErrNotAdjacent, id, p.Stage)
	}
	return s.ChangeStage(ctx, id, prev, false)
}

// UpdateObservations replaces the observations text of product id and
// refetches on success.
func (s *Store) UpdateObservations(ctx context.Context, id string, observations string) error {
	if err := s.checkRunning(); err != nil {
		return err
	}
	if err := s.remote.UpdateObservations(ctx, id, observations); err != nil {
		s.fail(err)
		return fmt.Errorf("update observations of %s: %w", id, err)
	}
	return s.refetch(ctx, "observations update")
}

// CreateProduct validates np, creates it in the store and refetches.
//
// Validation failures return before any request is made.
func (s *Store) CreateProduct(ctx context.Context, np product.NewProduct) error {
	if err := s.checkRunning(); err != nil {
		return err
	}
	np, err := np.Normalize()
	if err != nil {
		return err
	}
	if err := s.remote.CreateProduct(ctx, np); err != nil {
		s.fail(err)
		return fmt.Errorf("create product %s: %w", np.ID, err)
	}
	s.logger.Info("product created", "product", np.ID)
	return s.refetch(ctx, "product creation")
}

func (s *Store) refetch(ctx context.Context, after string) error {
	if err := s.Refresh(ctx); err != nil {
		return fmt.Errorf("refresh after %s: %w", after, err)
	}
	return nil
}
