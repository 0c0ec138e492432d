package session

import (
	"context"
	"sync"

	"studio/internal/infra"
	"studio/internal/sqlinline"
)

// State is the explicit per-visitor context the orchestration reads instead
// of ambient browser storage: whether the one free render was claimed and how
// many guest credits remain.
type State struct {
	SessionID     string
	FreeClaimUsed bool
	GuestCredits  int
}

// FreeRenderAvailable reports whether this visitor qualifies for a zero-price
// render.
func (s *State) FreeRenderAvailable() bool {
	return !s.FreeClaimUsed || s.GuestCredits > 0
}

// ConsumeFreeRender burns the free claim, preferring credits when present.
func (s *State) ConsumeFreeRender() {
	if s.GuestCredits > 0 {
		s.GuestCredits--
		return
	}
	s.FreeClaimUsed = true
}

// Store reads and writes visitor state.
type Store interface {
	Get(ctx context.Context, sessionID string) (State, error)
	Put(ctx context.Context, state State) error
}

// PGStore persists session state in Postgres.
type PGStore struct {
	sql infra.SQLExecutor
}

func NewPGStore(sql infra.SQLExecutor) *PGStore {
	return &PGStore{sql: sql}
}

func (p *PGStore) Get(ctx context.Context, sessionID string) (State, error) {
	state := State{SessionID: sessionID}
	row := p.sql.QueryRow(ctx, sqlinline.QSelectSessionState, sessionID)
	if err := row.Scan(&state.FreeClaimUsed, &state.GuestCredits); err != nil {
		if infra.IsNoRows(err) {
			return state, nil
		}
		return State{}, err
	}
	return state, nil
}

func (p *PGStore) Put(ctx context.Context, state State) error {
	_, err := p.sql.Exec(ctx, sqlinline.QUpsertSessionState, state.SessionID, state.FreeClaimUsed, state.GuestCredits)
	return err
}

// MemoryStore is an in-process Store for tests and development.
type MemoryStore struct {
	mu     sync.Mutex
	states map[string]State
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{states: map[string]State{}}
}

func (m *MemoryStore) Get(_ context.Context, sessionID string) (State, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if state, ok := m.states[sessionID]; ok {
		return state, nil
	}
	return State{SessionID: sessionID}, nil
}

func (m *MemoryStore) Put(_ context.Context, state State) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.states[state.SessionID] = state
	return nil
}

var (
	_ Store = (*PGStore)(nil)
	_ Store = (*MemoryStore)(nil)
)
