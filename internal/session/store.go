// Package session keeps the in-memory product cache in sync with the product
// store.
//
// A [Store] is the single owner of the cache for one session. It fetches the
// full product list on [Store.Start], on every tick of the refresh interval,
// on [Store.Refresh] and after every successful mutation. Each fetch takes a
// sequence number and its response, success or failure, is applied only when
// no later fetch has already been applied. A slow response can therefore never
// overwrite newer data.
//
// The cache is never modified locally: mutations are sent to the store and
// their effect becomes visible through the refetch that follows.
package session

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/sasha-s/go-deadlock"

	"maturity/internal/product"
	"maturity/internal/stage"
	"maturity/internal/transition"
)

// DefaultRefreshInterval is the period of the background refresh.
const DefaultRefreshInterval = 60 * time.Second

var (
	// ErrStopped indicates the store was stopped and accepts no more work.
	ErrStopped = errors.New("session store stopped")

	// ErrAlreadyStarted indicates Start was called twice.
	ErrAlreadyStarted = errors.New("session store already started")
)

// Remote is the product store the session synchronizes with.
//
// The HTTP client in package remote and the YAML file store in package
// filestore implement it.
type Remote interface {
	ListProducts(ctx context.Context) ([]product.Record, error)
	ChangeStage(ctx context.Context, id string, to stage.Stage) error
	UpdateObservations(ctx context.Context, id string, observations string) error
	CreateProduct(ctx context.Context, np product.NewProduct) error
}

// State is the status of the most recent synchronization.
type State int

const (
	// StateIdle means no fetch has started yet.
	StateIdle State = iota
	// StateLoading means a fetch is in flight.
	StateLoading
	// StateSuccess means the latest applied fetch succeeded.
	StateSuccess
	// StateFailure means the latest applied fetch or mutation failed.
	StateFailure
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateLoading:
		return "loading"
	case StateSuccess:
		return "success"
	case StateFailure:
		return "failure"
	default:
		return "unknown"
	}
}

// Snapshot is an immutable view of the store. Callers must not modify the
// products it holds.
type Snapshot struct {
	Products    []product.Product
	State       State
	Err         error
	LastUpdated time.Time
	// Seq is the sequence number of the last applied fetch.
	Seq uint64

	version uint64 // publication order, see Store.publishLocked
}

// Listener receives a snapshot after every state change.
type Listener func(Snapshot)

// Option configures a [Store].
type Option func(*Store)

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithRefreshInterval sets the background refresh period. Non-positive values
// are ignored.
func WithRefreshInterval(d time.Duration) Option {
	return func(s *Store) {
		if d > 0 {
			s.interval = d
		}
	}
}

// WithStageMode sets how unknown stages in fetched records are handled.
func WithStageMode(m stage.Mode) Option {
	return func(s *Store) {
		s.mode = m
	}
}

// WithTable replaces the default transition criteria table.
func WithTable(t *transition.Table) Option {
	return func(s *Store) {
		if t != nil {
			s.table = t
		}
	}
}

// WithMetrics records store activity in m.
func WithMetrics(m *Metrics) Option {
	return func(s *Store) {
		s.metrics = m
	}
}

// WithClock replaces time.Now for LastUpdated stamps.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// Store is the session-scoped product cache. Create instances with [New].
// A Store is safe for concurrent use.
type Store struct {
	remote   Remote
	logger   *slog.Logger
	table    *transition.Table
	mode     stage.Mode
	interval time.Duration
	metrics  *Metrics
	now      func() time.Time

	mu          deadlock.Mutex
	products    []product.Product
	state       State
	err         error
	lastUpdated time.Time
	seq         uint64 // last issued
	applied     uint64 // last applied
	started     bool
	stopped     bool
	listeners   map[int]Listener
	nextID      int
	published   uint64 // version of the newest published snapshot

	// deliverMu serializes listener calls; delivered is guarded by it.
	deliverMu deadlock.Mutex
	delivered uint64

	done chan struct{}
	wg   sync.WaitGroup
}

// New creates a [Store] backed by r. The cache starts empty and idle.
func New(r Remote, opts ...Option) *Store {
	s := &Store{
		remote:    r,
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
		table:     transition.Default(),
		mode:      stage.Lenient,
		interval:  DefaultRefreshInterval,
		now:       time.Now,
		products:  []product.Product{},
		listeners: make(map[int]Listener),
		done:      make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Table returns the criteria table used to derive products.
func (s *Store) Table() *transition.Table {
	return s.table
}

// SetRefreshInterval changes the background refresh period. It has no effect
// once the store has started. Non-positive values are ignored.
func (s *Store) SetRefreshInterval(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if d > 0 && !s.started {
		s.interval = d
	}
}

// Start performs the initial fetch and starts the background refresh.
//
// The returned error is the outcome of the initial fetch; the background
// refresh runs regardless. Cancelling ctx stops the background refresh.
func (s *Store) Start(ctx context.Context) error {
	s.mu.Lock()
	switch {
	case s.stopped:
		s.mu.Unlock()
		return ErrStopped
	case s.started:
		s.mu.Unlock()
		return ErrAlreadyStarted
	}
	s.started = true
	s.wg.Add(1)
	s.mu.Unlock()

	err := s.Refresh(ctx)
	go s.loop(ctx)
	return err
}

// Stop ends the background refresh and waits for it to exit. Responses that
// arrive after Stop are discarded. Stop is idempotent.
func (s *Store) Stop() {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}
	s.stopped = true
	close(s.done)
	s.mu.Unlock()

	s.wg.Wait()
	s.logger.Debug("session store stopped")
}

func (s *Store) loop(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.done:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.Refresh(ctx); err != nil && !errors.Is(err, ErrStopped) {
				s.logger.Warn("background refresh failed", "error", err)
			}
		}
	}
}

// Refresh fetches the full product list and replaces the cache with it.
//
// The store enters the loading state and clears the previous error first.
// The fetch's own outcome is returned even when a newer fetch has already
// been applied and this one is discarded.
func (s *Store) Refresh(ctx context.Context) error {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return ErrStopped
	}
	s.seq++
	seq := s.seq
	s.state = StateLoading
	s.err = nil
	snap := s.publishLocked()
	s.mu.Unlock()
	s.notify(snap)

	start := time.Now()
	records, err := s.remote.ListProducts(ctx)
	var products []product.Product
	if err == nil {
		products, err = product.DeriveAll(records, s.table, s.mode)
	}
	s.metrics.observeFetch(err, time.Since(start))

	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		s.metrics.staleDiscard()
		s.logger.Debug("discarding fetch completed after stop", "seq", seq)
		if err != nil {
			return err
		}
		return ErrStopped
	}
	if seq <= s.applied {
		latest := s.applied
		s.mu.Unlock()
		s.metrics.staleDiscard()
		s.logger.Debug("discarding stale fetch", "seq", seq, "applied", latest)
		return err
	}

	s.applied = seq
	if err != nil {
		s.state = StateFailure
		s.err = err
	} else {
		s.products = products
		s.state = StateSuccess
		s.lastUpdated = s.now()
		s.metrics.setProducts(len(products))
	}
	snap = s.publishLocked()
	s.mu.Unlock()

	if err != nil {
		s.logger.Warn("product fetch failed", "seq", seq, "error", err)
	} else {
		s.logger.Debug("product fetch applied", "seq", seq, "products", len(products))
	}
	s.notify(snap)
	return err
}

// Snapshot returns the current state of the store.
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Products returns the cached products.
func (s *Store) Products() []product.Product {
	return s.Snapshot().Products
}

// Product returns the cached product with the given id.
func (s *Store) Product(id string) (product.Product, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return product.Find(s.products, id)
}

// ProjectNames returns the distinct product names in the cache.
func (s *Store) ProjectNames() []string {
	return product.ProjectNames(s.Products())
}

// Subscribe registers fn to receive a snapshot after every state change and
// returns a function that removes it. Listeners are called synchronously, one
// at a time, and never see a snapshot older than one already delivered. They
// must not call back into the store's mutating methods.
func (s *Store) Subscribe(fn Listener) (unsubscribe func()) {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.listeners, id)
		s.mu.Unlock()
	}
}

func (s *Store) snapshotLocked() Snapshot {
	products := make([]product.Product, len(s.products))
	copy(products, s.products)
	return Snapshot{
		Products:    products,
		State:       s.state,
		Err:         s.err,
		LastUpdated: s.lastUpdated,
		Seq:         s.applied,
	}
}

// publishLocked stamps a snapshot for delivery to listeners. Versions
// increase in the order state changes are made under s.mu.
func (s *Store) publishLocked() Snapshot {
	s.published++
	snap := s.snapshotLocked()
	snap.version = s.published
	return snap
}

// notify delivers snap to every listener unless a newer snapshot has
// already been delivered.
func (s *Store) notify(snap Snapshot) {
	s.deliverMu.Lock()
	defer s.deliverMu.Unlock()
	if snap.version <= s.delivered {
		s.logger.Debug("skipping superseded snapshot", "version", snap.version, "delivered", s.delivered)
		return
	}
	s.delivered = snap.version

	s.mu.Lock()
	ids := make([]int, 0, len(s.listeners))
	for id := range s.listeners {
		ids = append(ids, id)
	}
	listeners := make([]Listener, 0, len(ids))
	slices.Sort(ids)
	for _, id := range ids {
		listeners = append(listeners, s.listeners[id])
	}
	s.mu.Unlock()

	for _, fn := range listeners {
		fn(snap)
	}
}

// fail records a mutation failure without touching the cache.
func (s *Store) fail(err error) {
	s.mu.Lock()
	s.state = StateFailure
	s.err = err
	snap := s.publishLocked()
	s.mu.Unlock()
	s.notify(snap)
}

func (s *Store) checkRunning() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return ErrStopped
	}
	return nil
}
