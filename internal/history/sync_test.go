package history

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"resumeforge/internal/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeBackend serves a mutable list. listGates, when set, block List calls
// in order so tests can complete them out of order.
type fakeBackend struct {
	mu          sync.Mutex
	entries     []types.HistoryEntry
	listCalls   int
	deleteCalls int
	deleteGate  chan struct{}
	listGates   []chan struct{}
	listResults [][]types.HistoryEntry
	err         error
}

func (f *fakeBackend) List(_ context.Context, token string) ([]types.HistoryEntry, error) {
	f.mu.Lock()
	call := f.listCalls
	f.listCalls++
	var gate chan struct{}
	if call < len(f.listGates) {
		gate = f.listGates[call]
	}
	result := append([]types.HistoryEntry(nil), f.entries...)
	if call < len(f.listResults) {
		result = f.listResults[call]
	}
	err := f.err
	f.mu.Unlock()

	if gate != nil {
		<-gate
	}
	return result, err
}

func (f *fakeBackend) Delete(_ context.Context, token string, id int64) error {
	f.mu.Lock()
	f.deleteCalls++
	gate := f.deleteGate
	f.mu.Unlock()
	if gate != nil {
		<-gate
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	for i, e := range f.entries {
		if e.ID == id {
			f.entries = append(f.entries[:i], f.entries[i+1:]...)
			return nil
		}
	}
	return errors.New("not found")
}

func (f *fakeBackend) add(id int64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries = append([]types.HistoryEntry{{ID: id, TargetJobTitle: "Role"}}, f.entries...)
}

func (f *fakeBackend) calls() (int, int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.listCalls, f.deleteCalls
}

func yes(int64) bool { return true }

func TestVersionStartsAtZero(t *testing.T) {
	s := NewSync(&fakeBackend{}, nil)
	assert.Equal(t, uint64(0), s.Version())
	assert.Empty(t, s.Entries())
}

func TestSaveThenDeleteVersions(t *testing.T) {
	ctx := context.Background()
	backend := &fakeBackend{}
	s := NewSync(backend, nil)
	require.NoError(t, s.SetIdentity(ctx, "tok"))

	backend.add(1)
	version, err := s.Bump(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), version)
	assert.Len(t, s.Entries(), 1)

	require.NoError(t, s.Delete(ctx, 1, yes))
	assert.Equal(t, uint64(2), s.Version())
	assert.Empty(t, s.Entries())
}

func TestGuestNeverCallsBackend(t *testing.T) {
	ctx := context.Background()
	backend := &fakeBackend{entries: []types.HistoryEntry{{ID: 1}}}
	s := NewSync(backend, nil)

	assert.ErrorIs(t, s.Start(ctx), ErrUnauthorized)
	assert.ErrorIs(t, s.Delete(ctx, 1, yes), ErrUnauthorized)
	assert.Empty(t, s.Entries())

	lists, deletes := backend.calls()
	assert.Zero(t, lists)
	assert.Zero(t, deletes)
}

func TestSignOutClearsEntries(t *testing.T) {
	ctx := context.Background()
	backend := &fakeBackend{entries: []types.HistoryEntry{{ID: 1}}}
	s := NewSync(backend, nil)

	require.NoError(t, s.SetIdentity(ctx, "tok"))
	require.Len(t, s.Entries(), 1)

	assert.ErrorIs(t, s.SetIdentity(ctx, ""), ErrUnauthorized)
	assert.Empty(t, s.Entries())
}

func TestDeclinedDeleteMakesNoCall(t *testing.T) {
	ctx := context.Background()
	backend := &fakeBackend{entries: []types.HistoryEntry{{ID: 4}}}
	s := NewSync(backend, nil)
	require.NoError(t, s.SetIdentity(ctx, "tok"))

	assert.ErrorIs(t, s.Delete(ctx, 4, func(int64) bool { return false }), ErrDeclined)
	assert.ErrorIs(t, s.Delete(ctx, 4, nil), ErrDeclined)

	_, deletes := backend.calls()
	assert.Zero(t, deletes)
	assert.Equal(t, uint64(0), s.Version())
}

func TestDuplicateDeleteRejected(t *testing.T) {
	ctx := context.Background()
	gate := make(chan struct{})
	backend := &fakeBackend{entries: []types.HistoryEntry{{ID: 4}, {ID: 5}}, deleteGate: gate}
	s := NewSync(backend, nil)
	require.NoError(t, s.SetIdentity(ctx, "tok"))

	done := make(chan error, 1)
	go func() { done <- s.Delete(ctx, 4, yes) }()
	require.Eventually(t, func() bool {
		_, deletes := backend.calls()
		return deletes == 1
	}, time.Second, time.Millisecond)

	assert.ErrorIs(t, s.Delete(ctx, 4, yes), ErrDeleteInFlight)

	// a different id is not blocked by the first
	other := make(chan error, 1)
	go func() { other <- s.Delete(ctx, 5, yes) }()
	require.Eventually(t, func() bool {
		_, deletes := backend.calls()
		return deletes == 2
	}, time.Second, time.Millisecond)

	close(gate)
	require.NoError(t, <-done)
	require.NoError(t, <-other)
	assert.Equal(t, uint64(2), s.Version())
	assert.Empty(t, s.Entries())
}

func TestOutOfOrderRefreshKeepsNewest(t *testing.T) {
	ctx := context.Background()
	first, second := make(chan struct{}), make(chan struct{})
	backend := &fakeBackend{
		listGates:   []chan struct{}{nil, first, second},
		listResults: [][]types.HistoryEntry{nil, {{ID: 1}}, {{ID: 1}, {ID: 2}}},
	}
	s := NewSync(backend, nil)
	require.NoError(t, s.SetIdentity(ctx, "tok"))

	older := make(chan error, 1)
	go func() { older <- s.Refresh(ctx) }()
	require.Eventually(t, func() bool { lists, _ := backend.calls(); return lists == 2 }, time.Second, time.Millisecond)

	newer := make(chan error, 1)
	go func() { newer <- s.Refresh(ctx) }()
	require.Eventually(t, func() bool { lists, _ := backend.calls(); return lists == 3 }, time.Second, time.Millisecond)

	close(second)
	require.NoError(t, <-newer)
	close(first)
	assert.ErrorIs(t, <-older, ErrStaleFetch)

	entries := s.Entries()
	require.Len(t, entries, 2)
}

func TestSubscribeReceivesVersions(t *testing.T) {
	ctx := context.Background()
	s := NewSync(&fakeBackend{}, nil)
	require.NoError(t, s.SetIdentity(ctx, "tok"))
	versions := s.Subscribe()

	_, err := s.Bump(ctx)
	require.NoError(t, err)
	_, err = s.Bump(ctx)
	require.NoError(t, err)

	assert.Equal(t, uint64(2), <-versions, "a slow reader sees the newest version")
}

func TestRefreshFailureKeepsList(t *testing.T) {
	ctx := context.Background()
	backend := &fakeBackend{entries: []types.HistoryEntry{{ID: 1}}}
	s := NewSync(backend, nil)
	require.NoError(t, s.SetIdentity(ctx, "tok"))

	backend.mu.Lock()
	backend.err = errors.New("server down")
	backend.mu.Unlock()

	assert.Error(t, s.Refresh(ctx))
	assert.Len(t, s.Entries(), 1)
}
