package output

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"maturity/internal/product"
	"maturity/internal/session"
	"maturity/internal/stage"
	"maturity/internal/transition"
)

func derive(t *testing.T, rec product.Record) product.Product {
	t.Helper()
	p, err := product.Derive(rec, transition.Default(), stage.Lenient)
	require.NoError(t, err)
	return p
}

func sample(t *testing.T) []product.Product {
	days := 65
	uptime := 99.5
	kickoff := "2025-07-14"
	return []product.Product{
		derive(t, product.Record{
			ID: "kenna", Name: "Kenna", Stage: "V2", DaysInStage: &days,
			Criteria:    transition.Criteria{"bugs_critical": true},
			Blockers:    []string{"AI speaker identification system"},
			NextAction:  "Fix P1 speaker identification",
			Metrics:     map[string]*float64{"uptime": &uptime, "errors": nil},
			KickoffDate: &kickoff,
		}),
		derive(t, product.Record{ID: "cadence", Name: "Cadence", Stage: "V1", Criteria: transition.Criteria{"staging": true}}),
	}
}

func TestBoard(t *testing.T) {
	buf := &bytes.Buffer{}
	NewPrinterWithWriter(buf).Board(sample(t))

	out := buf.String()
	assert.Contains(t, out, "V1 Demo/Conceito (1)")
	assert.Contains(t, out, "V2 Protótipo (1)")
	assert.Contains(t, out, "V5 Produção (0)")
	assert.Contains(t, out, "Kenna")
	assert.Contains(t, out, "Cadence")
	assert.Contains(t, out, "50%")
	assert.Contains(t, out, "no products")
}

func TestTable(t *testing.T) {
	buf := &bytes.Buffer{}
	NewPrinterWithWriter(buf).Table(sample(t))

	out := buf.String()
	assert.Contains(t, out, "READINESS")
	assert.Contains(t, out, "kenna")
	assert.Contains(t, out, "blocked")
	assert.Contains(t, out, "Fix P1 speaker identification")
	assert.Contains(t, out, "No action defined")
}

func TestTable_Empty(t *testing.T) {
	buf := &bytes.Buffer{}
	NewPrinterWithWriter(buf).Table(nil)
	assert.Contains(t, buf.String(), "No products.")
}

func TestProductDetails(t *testing.T) {
	buf := &bytes.Buffer{}
	NewPrinterWithWriter(buf).ProductDetails(sample(t)[0], transition.Default())

	out := buf.String()
	assert.Contains(t, out, "Kenna")
	assert.Contains(t, out, "V2 Protótipo → V3 Alpha/Beta")
	assert.Contains(t, out, "Kickoff:")
	assert.Contains(t, out, "2025-07-14")
	assert.Contains(t, out, "Criteria for V2 → V3")
	assert.Contains(t, out, "✓")
	assert.Contains(t, out, "✗")
	assert.Contains(t, out, "(active_users_1)")
	assert.Contains(t, out, "AI speaker identification system")
	assert.Contains(t, out, "uptime: 99.5")
	assert.Contains(t, out, "errors: n/a")
	assert.Less(t, strings.Index(out, "errors:"), strings.Index(out, "uptime:"))
}

func TestRoadmap(t *testing.T) {
	item := sample(t)[0]
	steps := transition.Default().Roadmap(item.Stage)

	buf := &bytes.Buffer{}
	NewPrinterWithWriter(buf).Roadmap(item, steps, transition.Default())

	out := buf.String()
	assert.Contains(t, out, "Roadmap for Kenna")
	assert.Contains(t, out, "1. V2 Protótipo → V3 Alpha/Beta")
	assert.Contains(t, out, "3. V4 Pre-Production → V5 Produção")
}

func TestRoadmap_FinalStage(t *testing.T) {
	item := derive(t, product.Record{ID: "done", Name: "Done", Stage: "V5"})

	buf := &bytes.Buffer{}
	NewPrinterWithWriter(buf).Roadmap(item, nil, transition.Default())

	assert.Contains(t, buf.String(), "V5 is the final stage.")
}

func TestCriteria(t *testing.T) {
	buf := &bytes.Buffer{}
	p := NewPrinterWithWriter(buf)

	p.Criteria(transition.Default().Criteria())
	p.Criteria(nil)

	out := buf.String()
	assert.Contains(t, out, "TRANSITION")
	assert.Contains(t, out, "uptime_95")
	assert.Contains(t, out, "V3 → V4")
	assert.Contains(t, out, "Sem bugs high/highest")
	assert.Contains(t, out, "No criteria.")
}

func TestStats(t *testing.T) {
	buf := &bytes.Buffer{}
	NewPrinterWithWriter(buf).Stats(product.Stats{Total: 4, ReadyToAdvance: 1, Blocked: 2, AvgDaysInStage: 32})

	out := buf.String()
	assert.Contains(t, out, "Products:")
	assert.Contains(t, out, "32")
}

func TestProgressBar(t *testing.T) {
	tests := []struct {
		score int
		want  string
	}{
		{0, "░░░░░░░░░░ 0%"},
		{33, "███░░░░░░░ 33%"},
		{67, "███████░░░ 67%"},
		{100, "██████████ 100%"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, progressBar(tt.score))
	}
}

func TestSyncStatus(t *testing.T) {
	buf := &bytes.Buffer{}
	p := NewPrinterWithWriter(buf)

	p.SyncStatus(session.Snapshot{State: session.StateIdle})
	p.SyncStatus(session.Snapshot{
		State:       session.StateFailure,
		Err:         errors.New("connection refused"),
		LastUpdated: time.Date(2026, 1, 2, 15, 4, 5, 0, time.UTC),
	})

	out := buf.String()
	assert.Contains(t, out, "idle · 0 products · updated never")
	assert.Contains(t, out, "updated 15:04:05 · connection refused")
}

func TestMessages(t *testing.T) {
	buf := &bytes.Buffer{}
	p := NewPrinterWithWriter(buf)

	p.Success("moved %s to %s", "kenna", "V3")
	p.Warning("forced")
	p.Error(errors.New("boom"))
	p.Projects(nil)
	p.Projects([]string{"Cadence", "Kenna"})

	out := buf.String()
	assert.Contains(t, out, "✓ moved kenna to V3")
	assert.Contains(t, out, "! forced")
	assert.Contains(t, out, "Error: boom")
	assert.Contains(t, out, "No projects.")
	assert.Contains(t, out, "Cadence\nKenna\n")
}

func TestJSONAndYAML(t *testing.T) {
	item := sample(t)[1]

	buf := &bytes.Buffer{}
	p := NewPrinterWithWriter(buf)
	require.NoError(t, p.JSON(item))

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, "cadence", decoded["id"])
	assert.Equal(t, "ready", decoded["status"])
	tr := decoded["transitionResult"].(map[string]any)
	assert.Equal(t, true, tr["canTransition"])
	assert.Equal(t, "V2", tr["nextStage"])

	buf.Reset()
	require.NoError(t, p.YAML(item))
	var fromYAML map[string]any
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &fromYAML))
	assert.Equal(t, "cadence", fromYAML["id"])
	assert.Equal(t, 100, fromYAML["readinessScore"])
}
