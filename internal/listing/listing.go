// Package listing holds the paginated, sorted game list shown on the home page.
package listing

import (
	"context"
	"errors"
	"sync"

	"github.com/meur/reviewhub/internal/apiclient"
	"github.com/meur/reviewhub/internal/models"
)

// DefaultPageSize is the page size used when none is configured.
const DefaultPageSize = 10

// ErrSuperseded is returned by a load whose response arrived after a newer
// load had been issued. Its result was discarded.
var ErrSuperseded = errors.New("list load superseded by a newer request")

// Fetcher fetches one page of games. *apiclient.Client satisfies it.
type Fetcher interface {
	ListGames(ctx context.Context, page, limit int, sort models.SortKey) (*models.GamePage, error)
}

// State is an immutable snapshot of the list.
type State struct {
	Items   []models.Game
	Total   int
	Page    int
	Limit   int
	Sort    models.SortKey
	Loading bool
	Err     string
	// Seq is the sequence number of the load that produced Items.
	Seq uint64
}

// HasPrev reports whether a previous page exists.
func (s State) HasPrev() bool { return s.Page > 1 }

// HasNext reports whether the server has items past this page.
func (s State) HasNext() bool { return s.Page*s.Limit < s.Total }

// Empty reports a finished load that returned nothing.
func (s State) Empty() bool { return !s.Loading && s.Err == "" && len(s.Items) == 0 }

// Model is the list view-model. It is safe for concurrent use.
type Model struct {
	fetcher Fetcher

	mu       sync.Mutex
	state    State
	issued   uint64
	onChange func(State)
}

// New creates a model on page 1 with the default sort.
func New(fetcher Fetcher, pageSize int) *Model {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return &Model{
		fetcher: fetcher,
		state: State{
			Items: []models.Game{},
			Page:  1,
			Limit: pageSize,
			Sort:  models.DefaultSort,
		},
	}
}

// OnChange registers fn to receive every state change. fn runs with the
// model locked and must not call back into it.
func (m *Model) OnChange(fn func(State)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onChange = fn
}

// Snapshot returns the current state.
func (m *Model) Snapshot() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.clone()
}

// Load fetches the current (page, sort) pair and replaces the held items.
// A response is applied only if no newer load was issued in the meantime.
func (m *Model) Load(ctx context.Context) (State, error) {
	m.mu.Lock()
	m.issued++
	seq := m.issued
	page, limit, sort := m.state.Page, m.state.Limit, m.state.Sort
	m.state.Loading = true
	m.state.Err = ""
	m.emitLocked()
	m.mu.Unlock()

	result, err := m.fetcher.ListGames(ctx, page, limit, sort)

	m.mu.Lock()
	defer m.mu.Unlock()
	if seq != m.issued {
		return m.state.clone(), ErrSuperseded
	}
	m.state.Loading = false
	if err != nil {
		m.state.Err = apiclient.Message(err)
		m.emitLocked()
		return m.state.clone(), err
	}
	items := result.Items
	if len(items) > limit {
		items = items[:limit]
	}
	m.state.Items = append([]models.Game(nil), items...)
	m.state.Total = result.Total
	m.state.Seq = seq
	m.emitLocked()
	return m.state.clone(), nil
}

// SetPage moves to page n (clamped to 1) and reloads.
func (m *Model) SetPage(ctx context.Context, n int) (State, error) {
	if n < 1 {
		n = 1
	}
	m.mu.Lock()
	m.state.Page = n
	m.mu.Unlock()
	return m.Load(ctx)
}

// SetSort changes the ordering, returns to page 1 and reloads.
func (m *Model) SetSort(ctx context.Context, key models.SortKey) (State, error) {
	if !key.Valid() {
		return m.Snapshot(), errors.New("unknown sort key " + string(key))
	}
	m.mu.Lock()
	m.state.Sort = key
	m.state.Page = 1
	m.mu.Unlock()
	return m.Load(ctx)
}

// Goto sets page and sort together and loads once. An invalid key falls
// back to the default ordering.
func (m *Model) Goto(ctx context.Context, page int, key models.SortKey) (State, error) {
	if page < 1 {
		page = 1
	}
	if !key.Valid() {
		key = models.DefaultSort
	}
	m.mu.Lock()
	m.state.Page = page
	m.state.Sort = key
	m.mu.Unlock()
	return m.Load(ctx)
}

// NextPage advances when the server reported more items.
func (m *Model) NextPage(ctx context.Context) (State, error) {
	s := m.Snapshot()
	if !s.HasNext() {
		return s, nil
	}
	return m.SetPage(ctx, s.Page+1)
}

// PrevPage steps back, stopping at page 1.
func (m *Model) PrevPage(ctx context.Context) (State, error) {
	s := m.Snapshot()
	if !s.HasPrev() {
		return s, nil
	}
	return m.SetPage(ctx, s.Page-1)
}

// Refresh re-runs the current load. Mutations call it after they succeed.
func (m *Model) Refresh(ctx context.Context) error {
	_, err := m.Load(ctx)
	if errors.Is(err, ErrSuperseded) {
		return nil
	}
	return err
}

func (m *Model) emitLocked() {
	if m.onChange != nil {
		m.onChange(m.state.clone())
	}
}

func (s State) clone() State {
	s.Items = append([]models.Game(nil), s.Items...)
	return s
}
