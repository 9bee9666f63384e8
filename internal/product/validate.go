package product

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// Validation errors for new products. Both are reported before any request
// reaches the remote store.
var (
	// ErrInvalidID indicates a product id that is not lowercase alphanumeric.
	ErrInvalidID = errors.New("product id must be alphanumeric and lowercase only (no spaces or special characters)")

	// ErrNameRequired indicates an empty product name.
	ErrNameRequired = errors.New("product name is required")
)

var idPattern = regexp.MustCompile(`^[a-z0-9]+$`)

// NewProduct is the payload for creating a product.
type NewProduct struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// ValidateID trims id and checks it against the lowercase alphanumeric pattern.
// It returns the trimmed id.
func ValidateID(id string) (string, error) {
	trimmed := strings.TrimSpace(id)
	if !idPattern.MatchString(trimmed) {
		return "", fmt.Errorf("%w: %q", ErrInvalidID, id)
	}
	return trimmed, nil
}

// Normalize validates np and returns a copy with id and name trimmed.
func (np NewProduct) Normalize() (NewProduct, error) {
	id, err := ValidateID(np.ID)
	if err != nil {
		return NewProduct{}, err
	}
	name := strings.TrimSpace(np.Name)
	if name == "" {
		return NewProduct{}, ErrNameRequired
	}
	return NewProduct{
		ID:          id,
		Name:        name,
		Description: strings.TrimSpace(np.Description),
	}, nil
}
