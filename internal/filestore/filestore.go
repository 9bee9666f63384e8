// Package filestore is a product store backed by a single YAML file.
//
// It answers the same operations as the HTTP product store, which makes it
// useful for offline boards, demos and tests. The file holds a top-level
// products list whose items use the same field names as the HTTP payloads:
//
//	products:
//	  - id: chorus
//	    name: Chorus
//	    stage: V2
//	    criteria:
//	      bugs_critical: true
//
// Mutations rewrite the whole file atomically.
package filestore

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"

	"gopkg.in/yaml.v3"

	"maturity/internal/product"
)

// PathEnv overrides the store file location when set.
const PathEnv = "MATURITY_STORE_FILE"

// DefaultPath is used when neither [PathEnv] nor an explicit path is set.
const DefaultPath = "products.yaml"

var (
	// ErrProductNotFound indicates a mutation targeted an id not in the file.
	ErrProductNotFound = errors.New("product not found in store file")

	// ErrProductExists indicates a create for an id already in the file.
	ErrProductExists = errors.New("product already exists in store file")
)

// Document is the on-disk layout of the store file.
type Document struct {
	Products []product.Record `yaml:"products"`
}

// ResolvePath returns the store file to use.
//
// Resolution order:
//  1. MATURITY_STORE_FILE environment variable
//  2. Explicit path (e.g., from config)
//  3. [DefaultPath] in the working directory
func ResolvePath(path string) string {
	if envPath := os.Getenv(PathEnv); envPath != "" {
		return envPath
	}
	if path != "" {
		return path
	}
	return DefaultPath
}

// Store reads and writes products in a YAML file.
//
// A missing file reads as an empty store; the first mutation creates it.
// Store serializes its own operations but does not lock the file against
// other processes.
type Store struct {
	path string
	mu   sync.Mutex
}

// New creates a [Store] for the file resolved by [ResolvePath].
func New(path string) *Store {
	return &Store{path: ResolvePath(path)}
}

// Path returns the resolved store file path.
func (s *Store) Path() string {
	return s.path
}

// ListProducts returns every record in file order.
func (s *Store) ListProducts(ctx context.Context) ([]product.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.read()
	if err != nil {
		return nil, err
	}
	if doc.Products == nil {
		return []product.Record{}, nil
	}
	return doc.Products, nil
}

func (s *Store) read() (*Document, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return &Document{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read product store: %w", err)
	}

	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to read product store: %w", err)
	}
	return &doc, nil
}

func findIndex(records []product.Record, id string) int {
	for i := range records {
		if records[i].ID == id {
			return i
		}
	}
	return -1
}
