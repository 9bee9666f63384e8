package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"maturity/internal/config"
	"maturity/internal/filestore"
	"maturity/internal/output"
	"maturity/internal/product"
	"maturity/internal/remote"
	"maturity/internal/session"
)

// boardYAML has kenna blocked at V2, cadence ready at V1 and final at V5.
const boardYAML = `products:
  - id: kenna
    name: Kenna
    stage: V2
    daysInStage: 65
    criteria:
      bugs_critical: true
      active_users_1: false
    blockers:
      - AI speaker identification system
  - id: cadence
    name: Cadence
    stage: V1
    daysInStage: 10
    criteria:
      staging: true
  - id: final
    name: Final
    stage: V5
`

// testEnv is an App wired to a temp-dir product file with captured output.
type testEnv struct {
	app       *App
	out       *bytes.Buffer
	logs      *bytes.Buffer
	storePath string
}

func newTestEnv(t *testing.T, content string) *testEnv {
	t.Helper()
	t.Setenv(filestore.PathEnv, "")

	path := filepath.Join(t.TempDir(), "products.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	return newEnv(t, filestore.New(path), path)
}

func newEnv(t *testing.T, backend session.Remote, storePath string) *testEnv {
	t.Helper()
	out := &bytes.Buffer{}
	logs := &bytes.Buffer{}
	logger := slog.New(slog.NewTextHandler(logs, &slog.HandlerOptions{Level: slog.LevelDebug}))

	registry := prometheus.NewRegistry()
	store := session.New(backend,
		session.WithLogger(logger),
		session.WithMetrics(session.NewMetrics(registry)),
	)
	t.Cleanup(store.Stop)

	cfg := config.DefaultConfig()
	return &testEnv{
		app: &App{
			Config:   cfg,
			Store:    store,
			Printer:  output.NewPrinterWithWriter(out),
			Logger:   logger,
			Registry: registry,
		},
		out:       out,
		logs:      logs,
		storePath: storePath,
	}
}

func (e *testEnv) run(args ...string) (string, error) {
	return e.runContext(context.Background(), args...)
}

func (e *testEnv) runContext(ctx context.Context, args ...string) (string, error) {
	rootCmd := NewRootCommand(e.app)
	rootCmd.SetArgs(args)
	rootCmd.SetOut(e.out)
	rootCmd.SetErr(e.out)
	err := rootCmd.ExecuteContext(ctx)
	return e.out.String(), err
}

// readStore decodes the product file after a command ran.
func (e *testEnv) readStore(t *testing.T) map[string]product.Record {
	t.Helper()
	records, err := filestore.New(e.storePath).ListProducts(context.Background())
	require.NoError(t, err)
	byID := make(map[string]product.Record, len(records))
	for _, r := range records {
		byID[r.ID] = r
	}
	return byID
}

// legacyAPI serves the product list and only the PATCH /maturity/products/{id}
// stage route, so stage changes succeed on the second candidate.
type legacyAPI struct {
	mu      sync.Mutex
	records []product.Record
	calls   []string
}

func newLegacyAPI(t *testing.T, records ...product.Record) (*legacyAPI, *httptest.Server) {
	t.Helper()
	api := &legacyAPI{records: records}
	srv := httptest.NewServer(http.HandlerFunc(api.serve))
	t.Cleanup(srv.Close)
	return api, srv
}

func (a *legacyAPI) serve(w http.ResponseWriter, r *http.Request) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.calls = append(a.calls, r.Method+" "+r.URL.Path)

	switch {
	case r.Method == http.MethodGet && r.URL.Path == "/maturity/products":
		_ = json.NewEncoder(w).Encode(map[string]any{"products": a.records})
	case r.Method == http.MethodPatch && strings.HasPrefix(r.URL.Path, "/maturity/products/") &&
		!strings.HasSuffix(r.URL.Path, "/stage"):
		var body struct {
			Stage string `json:"stage"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		id := strings.TrimPrefix(r.URL.Path, "/maturity/products/")
		for i := range a.records {
			if a.records[i].ID == id && body.Stage != "" {
				a.records[i].Stage = body.Stage
			}
		}
		w.WriteHeader(http.StatusOK)
	default:
		http.NotFound(w, r)
	}
}

func (a *legacyAPI) requests() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]string(nil), a.calls...)
}

func newRemoteEnv(t *testing.T, baseURL string) *testEnv {
	t.Helper()
	return newEnv(t, remote.New(baseURL), "")
}
