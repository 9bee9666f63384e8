package filestore

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"maturity/internal/product"
	"maturity/internal/stage"
	"maturity/internal/transition"
)

const sampleStore = `products:
  - id: kenna
    name: Kenna
    stage: V2
    daysInStage: 65
    criteria:
      bugs_critical: true
      active_users_1: false
    blockers:
      - AI speaker identification system
    nextAction: Fix P1 speaker identification
    kickoffDate: 2025-07-14
  - id: duet
    name: Duet
    stage: V1
    criteria:
      staging: "true"
`

func writeStore(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "products.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestStore_ListProducts(t *testing.T) {
	t.Setenv(PathEnv, "")
	s := New(writeStore(t, sampleStore))

	records, err := s.ListProducts(context.Background())

	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "kenna", records[0].ID)
	assert.Equal(t, "V2", records[0].Stage)
	require.NotNil(t, records[0].DaysInStage)
	assert.Equal(t, 65, *records[0].DaysInStage)
	require.NotNil(t, records[0].KickoffDate)
	assert.Equal(t, "2025-07-14", *records[0].KickoffDate)
	assert.True(t, records[0].Criteria.Met(transition.BugsCritical))
	assert.False(t, records[0].Criteria.Met(transition.ActiveUsers1))
}

func TestStore_QuotedBooleanIsNotMet(t *testing.T) {
	t.Setenv(PathEnv, "")
	s := New(writeStore(t, sampleStore))

	records, err := s.ListProducts(context.Background())
	require.NoError(t, err)

	p, err := product.Derive(records[1], transition.Default(), stage.Lenient)
	require.NoError(t, err)
	assert.False(t, p.Transition.CanTransition)
	assert.Equal(t, product.StatusBlocked, p.Status)
}

func TestStore_ListProducts_MissingFileIsEmpty(t *testing.T) {
	t.Setenv(PathEnv, "")
	s := New(filepath.Join(t.TempDir(), "nope.yaml"))

	records, err := s.ListProducts(context.Background())

	require.NoError(t, err)
	assert.Equal(t, []product.Record{}, records)
}

func TestStore_ListProducts_InvalidYAML(t *testing.T) {
	t.Setenv(PathEnv, "")
	s := New(writeStore(t, "products:\n  id: [unterminated\n"))

	records, err := s.ListProducts(context.Background())

	assert.Error(t, err)
	assert.Nil(t, records)
	assert.Contains(t, err.Error(), "failed to read product store")
}

func TestStore_ListProducts_CanceledContext(t *testing.T) {
	t.Setenv(PathEnv, "")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New(writeStore(t, sampleStore)).ListProducts(ctx)

	assert.True(t, errors.Is(err, context.Canceled))
}

func TestStore_ChangeStage(t *testing.T) {
	t.Setenv(PathEnv, "")
	path := writeStore(t, sampleStore)
	s := New(path)

	require.NoError(t, s.ChangeStage(context.Background(), "kenna", stage.V3))

	records, err := s.ListProducts(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "V3", records[0].Stage)
	require.NotNil(t, records[0].DaysInStage)
	assert.Equal(t, 0, *records[0].DaysInStage)
	assert.Equal(t, "V1", records[1].Stage)

	_, statErr := os.Stat(path + ".tmp")
	assert.True(t, os.IsNotExist(statErr), "temp file should be renamed away")
}

func TestStore_ChangeStage_Errors(t *testing.T) {
	t.Setenv(PathEnv, "")
	s := New(writeStore(t, sampleStore))

	err := s.ChangeStage(context.Background(), "missing", stage.V2)
	assert.True(t, errors.Is(err, ErrProductNotFound))

	err = s.ChangeStage(context.Background(), "kenna", stage.Stage("V9"))
	assert.True(t, errors.Is(err, stage.ErrUnknownStage))
}

func TestStore_UpdateObservations(t *testing.T) {
	t.Setenv(PathEnv, "")
	s := New(writeStore(t, sampleStore))

	require.NoError(t, s.UpdateObservations(context.Background(), "duet", "Wisdom labs fixed"))

	records, err := s.ListProducts(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Wisdom labs fixed", records[1].Observations)
	assert.Equal(t, "Kenna", records[0].Name)
}

func TestStore_CreateProduct(t *testing.T) {
	t.Setenv(PathEnv, "")
	path := filepath.Join(t.TempDir(), "nested", "products.yaml")
	s := New(path)

	err := s.CreateProduct(context.Background(), product.NewProduct{ID: "symphony", Name: "Symphony"})
	require.NoError(t, err)

	records, err := s.ListProducts(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "symphony", records[0].ID)
	assert.Equal(t, "V1", records[0].Stage)

	err = s.CreateProduct(context.Background(), product.NewProduct{ID: "symphony", Name: "Again"})
	assert.True(t, errors.Is(err, ErrProductExists))
}

func TestResolvePath(t *testing.T) {
	tests := []struct {
		name     string
		env      string
		explicit string
		want     string
	}{
		{name: "env overrides explicit", env: "/env/products.yaml", explicit: "/explicit.yaml", want: "/env/products.yaml"},
		{name: "explicit path", explicit: "/explicit.yaml", want: "/explicit.yaml"},
		{name: "default", want: DefaultPath},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(PathEnv, tt.env)
			assert.Equal(t, tt.want, ResolvePath(tt.explicit))
		})
	}
}
