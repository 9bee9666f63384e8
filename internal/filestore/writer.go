package filestore

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"maturity/internal/product"
	"maturity/internal/stage"
)

// ChangeStage sets the stage of product id and resets its days in stage.
func (s *Store) ChangeStage(ctx context.Context, id string, to stage.Stage) error {
	if !to.IsValid() {
		return fmt.Errorf("%w: %q", stage.ErrUnknownStage, to)
	}
	return s.update(ctx, id, func(rec *product.Record) {
		zero := 0
		rec.Stage = string(to)
		rec.DaysInStage = &zero
	})
}

// UpdateObservations replaces the observations text of product id.
func (s *Store) UpdateObservations(ctx context.Context, id string, observations string) error {
	return s.update(ctx, id, func(rec *product.Record) {
		rec.Observations = observations
	})
}

// CreateProduct appends a new product at the first stage with no criteria met.
func (s *Store) CreateProduct(ctx context.Context, np product.NewProduct) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.read()
	if err != nil {
		return err
	}
	if findIndex(doc.Products, np.ID) >= 0 {
		return fmt.Errorf("%w: %s", ErrProductExists, np.ID)
	}

	zero := 0
	doc.Products = append(doc.Products, product.Record{
		ID:          np.ID,
		Name:        np.Name,
		Description: np.Description,
		Stage:       string(stage.First()),
		DaysInStage: &zero,
		Blockers:    []string{},
	})
	return s.write(doc)
}

func (s *Store) update(ctx context.Context, id string, mutate func(*product.Record)) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.read()
	if err != nil {
		return err
	}
	i := findIndex(doc.Products, id)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrProductNotFound, id)
	}
	mutate(&doc.Products[i])
	return s.write(doc)
}

// write replaces the store file atomically (write to temp, then rename).
func (s *Store) write(doc *Document) error {
	data, err := yaml.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to marshal product store: %w", err)
	}

	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to write product store: %w", err)
		}
	}

	tmpPath := s.path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write product store: %w", err)
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to write product store: %w", err)
	}
	return nil
}
