package session

import (
	"context"
	"sync"

	"maturity/internal/product"
	"maturity/internal/stage"
)

type stageCall struct {
	ID string
	To stage.Stage
}

// mockRemote is an in-memory product store. Mutations are applied to its
// records so refetches observe them.
type mockRemote struct {
	mu        sync.Mutex
	records   []product.Record
	listErr   error
	listCalls int
	// listFunc, when set, answers ListProducts instead of records.
	listFunc func(ctx context.Context, call int) ([]product.Record, error)

	stageErr   error
	stageCalls []stageCall

	obsErr   error
	obsCalls int

	createErr   error
	createCalls []product.NewProduct
}

func newMockRemote(records ...product.Record) *mockRemote {
	return &mockRemote{records: records}
}

func (m *mockRemote) ListProducts(ctx context.Context) ([]product.Record, error) {
	m.mu.Lock()
	m.listCalls++
	call := m.listCalls
	fn := m.listFunc
	m.mu.Unlock()

	if fn != nil {
		return fn(ctx, call)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.listErr != nil {
		return nil, m.listErr
	}
	out := make([]product.Record, len(m.records))
	copy(out, m.records)
	return out, nil
}

func (m *mockRemote) ChangeStage(_ context.Context, id string, to stage.Stage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stageCalls = append(m.stageCalls, stageCall{ID: id, To: to})
	if m.stageErr != nil {
		return m.stageErr
	}
	for i := range m.records {
		if m.records[i].ID == id {
			m.records[i].Stage = string(to)
		}
	}
	return nil
}

func (m *mockRemote) UpdateObservations(_ context.Context, id string, observations string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.obsCalls++
	if m.obsErr != nil {
		return m.obsErr
	}
	for i := range m.records {
		if m.records[i].ID == id {
			m.records[i].Observations = observations
		}
	}
	return nil
}

func (m *mockRemote) CreateProduct(_ context.Context, np product.NewProduct) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.createCalls = append(m.createCalls, np)
	if m.createErr != nil {
		return m.createErr
	}
	m.records = append(m.records, product.Record{ID: np.ID, Name: np.Name, Description: np.Description, Stage: "V1"})
	return nil
}

func (m *mockRemote) calls() (list, stages, obs, creates int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.listCalls, len(m.stageCalls), m.obsCalls, len(m.createCalls)
}
