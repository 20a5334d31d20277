package events

import (
	"context"
	"testing"

	"github.com/lazypower/engram/internal/store"
)

type fakeStore struct {
	delta      store.SyncDelta
	syncStates map[string]store.AgentSyncState
	setCalls   []store.AgentSyncState
}

func newFakeStore() *fakeStore {
	return &fakeStore{syncStates: map[string]store.AgentSyncState{}}
}

func (f *fakeStore) AppendEvent(ctx context.Context, eventType string, memoryID *int64, agentID string, data map[string]any) error {
	return nil
}
func (f *fakeStore) EventsPoll(ctx context.Context, sinceID int64, agentID string, limit int) ([]store.Event, error) {
	return nil, nil
}
func (f *fakeStore) EventsClear(ctx context.Context, uptoID int64) (int64, error) { return 0, nil }
func (f *fakeStore) SyncVersion(ctx context.Context) (store.SyncVersionInfo, error) {
	return store.SyncVersionInfo{}, nil
}
func (f *fakeStore) SyncDelta(ctx context.Context, sinceVersion int64) (store.SyncDelta, error) {
	d := f.delta
	d.From = sinceVersion
	return d, nil
}
func (f *fakeStore) GetSyncState(ctx context.Context, agentID string) (store.AgentSyncState, error) {
	if s, ok := f.syncStates[agentID]; ok {
		return s, nil
	}
	return store.AgentSyncState{AgentID: agentID}, nil
}
func (f *fakeStore) SetSyncState(ctx context.Context, agentID string, version int64) error {
	s := store.AgentSyncState{AgentID: agentID, LastSyncVersion: version}
	f.syncStates[agentID] = s
	f.setCalls = append(f.setCalls, s)
	return nil
}
func (f *fakeStore) CleanupSyncState(ctx context.Context, beforeTs int64) (int64, error) {
	return 0, nil
}
func (f *fakeStore) Share(ctx context.Context, memoryID int64, from, to, message string) (*store.AgentShare, error) {
	return &store.AgentShare{MemoryID: memoryID, FromAgent: from, ToAgent: to, Message: message}, nil
}
func (f *fakeStore) SharedPoll(ctx context.Context, agent string, includeAck bool) ([]store.AgentShare, error) {
	return nil, nil
}
func (f *fakeStore) ShareAck(ctx context.Context, shareID int64, agent string) error { return nil }

func TestDeltaAdvancesAgentSyncCursor(t *testing.T) {
	st := newFakeStore()
	st.delta = store.SyncDelta{To: 42}
	ctx := context.Background()

	if _, err := Delta(ctx, st, "agent-1", 10); err != nil {
		t.Fatalf("Delta: %v", err)
	}
	if len(st.setCalls) != 1 || st.setCalls[0].LastSyncVersion != 42 {
		t.Fatalf("SetSyncState calls = %+v, want one call advancing to 42", st.setCalls)
	}
}

func TestDeltaWithoutAgentIDDoesNotTouchSyncState(t *testing.T) {
	st := newFakeStore()
	st.delta = store.SyncDelta{To: 42}
	ctx := context.Background()

	if _, err := Delta(ctx, st, "", 10); err != nil {
		t.Fatalf("Delta: %v", err)
	}
	if len(st.setCalls) != 0 {
		t.Errorf("SetSyncState calls = %+v, want none", st.setCalls)
	}
}

func TestDeltaForAgentResumesFromStoredCursor(t *testing.T) {
	st := newFakeStore()
	st.syncStates["agent-2"] = store.AgentSyncState{AgentID: "agent-2", LastSyncVersion: 7}
	st.delta = store.SyncDelta{To: 50}
	ctx := context.Background()

	delta, err := DeltaForAgent(ctx, st, "agent-2")
	if err != nil {
		t.Fatalf("DeltaForAgent: %v", err)
	}
	if delta.From != 7 {
		t.Errorf("From = %d, want 7 (the agent's stored cursor)", delta.From)
	}
}
