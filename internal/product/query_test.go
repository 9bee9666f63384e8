package product

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"maturity/internal/stage"
)

func sampleProducts() []Product {
	return []Product{
		{ID: "kenna", Name: "Kenna", Stage: stage.V2, Status: StatusBlocked, DaysInStage: 65},
		{ID: "duet", Name: "duet", Stage: stage.V3, Status: StatusInProgress, DaysInStage: 1},
		{ID: "cadence", Name: "Cadence", Stage: stage.V1, Status: StatusReady, DaysInStage: 15},
		{ID: "duet2", Name: "Duet", Stage: stage.V1, Status: StatusBlocked, DaysInStage: 45},
	}
}

func TestFind(t *testing.T) {
	p, ok := Find(sampleProducts(), "cadence")
	require.True(t, ok)
	assert.Equal(t, "Cadence", p.Name)

	_, ok = Find(sampleProducts(), "missing")
	assert.False(t, ok)
}

func TestProjectNames(t *testing.T) {
	names := ProjectNames(sampleProducts())

	assert.Equal(t, []string{"Cadence", "duet", "Kenna"}, names)
	assert.Equal(t, []string{}, ProjectNames(nil))
}

func TestFilter(t *testing.T) {
	tests := []struct {
		filter string
		want   []string
	}{
		{"all", []string{"kenna", "duet", "cadence", "duet2"}},
		{"", []string{"kenna", "duet", "cadence", "duet2"}},
		{"blocked", []string{"kenna", "duet2"}},
		{"READY", []string{"cadence"}},
		{"in-progress", []string{"duet"}},
		{"v1", []string{"cadence", "duet2"}},
		{"V5", []string{}},
		{"nonsense", []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.filter, func(t *testing.T) {
			got := Filter(sampleProducts(), tt.filter)
			ids := make([]string, 0, len(got))
			for _, p := range got {
				ids = append(ids, p.ID)
			}
			assert.Equal(t, tt.want, ids)
		})
	}
}

func TestByProject(t *testing.T) {
	got := ByProject(sampleProducts(), "DUET")
	require.Len(t, got, 2)
	assert.Equal(t, "duet", got[0].ID)
	assert.Equal(t, "duet2", got[1].ID)

	assert.Len(t, ByProject(sampleProducts(), ""), 4)
}

func TestByStage(t *testing.T) {
	groups := ByStage(sampleProducts())

	assert.Len(t, groups, 5)
	assert.Len(t, groups[stage.V1], 2)
	assert.Len(t, groups[stage.V2], 1)
	assert.Empty(t, groups[stage.V5])
}

func TestSummarize(t *testing.T) {
	st := Summarize(sampleProducts())

	assert.Equal(t, 4, st.Total)
	assert.Equal(t, 1, st.ReadyToAdvance)
	assert.Equal(t, 2, st.Blocked)
	// (65+1+15+45)/4 = 31.5 rounds to 32
	assert.Equal(t, 32, st.AvgDaysInStage)

	assert.Equal(t, Stats{}, Summarize(nil))
}

func TestValidateID(t *testing.T) {
	tests := []struct {
		name    string
		id      string
		want    string
		wantErr bool
	}{
		{name: "lowercase alphanumeric", id: "symphony1", want: "symphony1"},
		{name: "trimmed", id: "  chorus ", want: "chorus"},
		{name: "uppercase and space", id: "Symphony 1", wantErr: true},
		{name: "dash", id: "n8n-content", wantErr: true},
		{name: "uppercase only", id: "ABC", wantErr: true},
		{name: "empty", id: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ValidateID(tt.id)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, ErrInvalidID))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNewProduct_Normalize(t *testing.T) {
	np, err := NewProduct{ID: " symphony ", Name: " Symphony ", Description: " New orchestration product "}.Normalize()
	require.NoError(t, err)
	assert.Equal(t, NewProduct{ID: "symphony", Name: "Symphony", Description: "New orchestration product"}, np)

	_, err = NewProduct{ID: "symphony", Name: "   "}.Normalize()
	assert.True(t, errors.Is(err, ErrNameRequired))

	_, err = NewProduct{ID: "Symphony 1", Name: "Symphony"}.Normalize()
	assert.True(t, errors.Is(err, ErrInvalidID))
}
