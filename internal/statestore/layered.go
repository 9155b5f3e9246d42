package statestore

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/user/creatordesk/internal/types"
)

// Layered composes the memory cache and the durable store. Reads fall
// through memory-fresh, durable, then memory-stale in degraded mode;
// they never fail a request. Durable writes happen off the request path.
type Layered struct {
	memory  *MemoryCache
	durable *SQLStore
	logger  *slog.Logger
	writes  sync.WaitGroup
}

var _ types.StateStore = (*Layered)(nil)

func NewLayered(memory *MemoryCache, durable *SQLStore, logger *slog.Logger) *Layered {
	return &Layered{
		memory:  memory,
		durable: durable,
		logger:  logger.With("component", "statestore"),
	}
}

// Get resolves key through the layers. A stale memory entry is still
// returned when the durable store cannot serve, with a notice for the
// caller to surface.
func (l *Layered) Get(ctx context.Context, user types.UserID, key types.StateKey) (*types.StateHit, error) {
	entry, inMemory := l.memory.Get(key)
	if inMemory && entry.FreshAt(l.memory.now()) {
		return &types.StateHit{State: entry.State, Source: types.ProvenanceCache, Fresh: true}, nil
	}

	if l.durable != nil {
		state, queryContext, err := l.durable.Get(ctx, user, key)
		if err != nil {
			l.logger.Warn("durable state read failed", "key", key, "error", err)
		} else if state != nil {
			l.memory.Put(key, state, queryContext, false)
			return &types.StateHit{State: state, Source: types.ProvenanceDB, Fresh: true}, nil
		}
	}

	if inMemory {
		return &types.StateHit{
			State:  entry.State,
			Source: types.ProvenanceCache,
			Fresh:  false,
			Notice: "Previous results may be stale; fresh data was unavailable.",
		}, nil
	}
	return nil, nil
}

// Set writes memory synchronously and the durable store as a detached
// best-effort task. The request never waits on, or fails from, the
// durable write.
func (l *Layered) Set(ctx context.Context, user types.UserID, key types.StateKey, state *types.PreviousState, queryContext string, complete bool) error {
	l.memory.Put(key, state, queryContext, complete)

	if l.durable == nil {
		return nil
	}
	errs := make(chan error, 1)
	l.writes.Add(1)
	go func() {
		defer l.writes.Done()
		writeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		errs <- l.durable.Set(writeCtx, user, key, state, queryContext)
	}()
	go func() {
		if err := <-errs; err != nil {
			l.logger.Warn("durable state write failed", "key", key, "error", err)
		}
	}()
	return nil
}

// FindByQuery searches the durable store for the closest prior context.
// Failures degrade to a miss.
func (l *Layered) FindByQuery(ctx context.Context, user types.UserID, terms []string) (*types.StateHit, error) {
	if l.durable == nil {
		return nil, nil
	}
	state, err := l.durable.FindByQuery(ctx, user, terms)
	if err != nil {
		l.logger.Warn("state search failed", "error", err)
		return nil, nil
	}
	if state == nil {
		return nil, nil
	}
	return &types.StateHit{State: state, Source: types.ProvenanceDB, Fresh: true}, nil
}

func (l *Layered) AppendOperations(results ...types.OperationResult) {
	l.memory.AppendOperations(results...)
}

func (l *Layered) RecentOperations() []types.OperationResult {
	return l.memory.RecentOperations()
}

// Flush drops the memory layer. Durable rows expire on their own.
func (l *Layered) Flush() {
	l.memory.Flush()
}

// WaitForWrites blocks until in-flight durable writes finish.
func (l *Layered) WaitForWrites() {
	l.writes.Wait()
}
