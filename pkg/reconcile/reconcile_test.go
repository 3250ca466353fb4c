package reconcile

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/AgileSoftDev-2025/Story-Canvas-web-sub002/pkg/apperrors"
	"github.com/AgileSoftDev-2025/Story-Canvas-web-sub002/pkg/gateway"
	"github.com/AgileSoftDev-2025/Story-Canvas-web-sub002/pkg/models"
)

// mockStore is an in-memory Store.
type mockStore struct {
	mu        sync.Mutex
	scenarios map[string][]*models.Scenario
	stories   map[string][]*models.UserStory
	syncedAt  map[string]time.Time
}

func newMockStore() *mockStore {
	return &mockStore{
		scenarios: make(map[string][]*models.Scenario),
		stories:   make(map[string][]*models.UserStory),
		syncedAt:  make(map[string]time.Time),
	}
}

func (m *mockStore) ListScenarios(projectID string) ([]*models.Scenario, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*models.Scenario(nil), m.scenarios[projectID]...), nil
}

func (m *mockStore) ReplaceScenarios(projectID string, scenarios []*models.Scenario) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.scenarios[projectID] = append([]*models.Scenario(nil), scenarios...)
	return nil
}

func (m *mockStore) ListStories(projectID string) ([]*models.UserStory, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*models.UserStory(nil), m.stories[projectID]...), nil
}

func (m *mockStore) ReplaceStories(projectID string, stories []*models.UserStory) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stories[projectID] = append([]*models.UserStory(nil), stories...)
	return nil
}

func (m *mockStore) SetSyncedAt(projectID, family string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.syncedAt[projectID+"/"+family] = at
	return nil
}

// mockGateway is a configurable RemoteGateway. Unset functions answer with
// empty results.
type mockGateway struct {
	listScenariosFunc func(projectID string) (*gateway.RecordSet, error)
	bulkScenariosFunc func(projectID string, local []*models.Scenario) ([]*models.Scenario, error)
	createScenario    func(sc *models.Scenario) (*models.Scenario, error)
	updateScenario    func(id string, sc *models.Scenario) (*models.Scenario, error)

	listStoriesFunc func(projectID string) (*gateway.StorySet, error)
	bulkStoriesFunc func(projectID string, local []*models.UserStory) ([]*models.UserStory, error)
	createStory     func(st *models.UserStory) (*models.UserStory, error)
	updateStory     func(id string, st *models.UserStory) (*models.UserStory, error)

	bulkCalls   int
	updateCalls []string
	createCalls []string
}

func (m *mockGateway) ListScenarios(_ context.Context, projectID string) (*gateway.RecordSet, error) {
	if m.listScenariosFunc != nil {
		return m.listScenariosFunc(projectID)
	}
	return &gateway.RecordSet{}, nil
}

func (m *mockGateway) BulkSyncScenarios(_ context.Context, projectID string, local []*models.Scenario) ([]*models.Scenario, error) {
	m.bulkCalls++
	if m.bulkScenariosFunc != nil {
		return m.bulkScenariosFunc(projectID, local)
	}
	return local, nil
}

func (m *mockGateway) CreateScenario(_ context.Context, sc *models.Scenario) (*models.Scenario, error) {
	m.createCalls = append(m.createCalls, sc.ID)
	if m.createScenario != nil {
		return m.createScenario(sc)
	}
	return sc, nil
}

func (m *mockGateway) UpdateScenario(_ context.Context, id string, sc *models.Scenario) (*models.Scenario, error) {
	m.updateCalls = append(m.updateCalls, id)
	if m.updateScenario != nil {
		return m.updateScenario(id, sc)
	}
	return sc, nil
}

func (m *mockGateway) ListStories(_ context.Context, projectID string) (*gateway.StorySet, error) {
	if m.listStoriesFunc != nil {
		return m.listStoriesFunc(projectID)
	}
	return &gateway.StorySet{}, nil
}

func (m *mockGateway) BulkSyncStories(_ context.Context, projectID string, local []*models.UserStory) ([]*models.UserStory, error) {
	m.bulkCalls++
	if m.bulkStoriesFunc != nil {
		return m.bulkStoriesFunc(projectID, local)
	}
	return local, nil
}

func (m *mockGateway) CreateStory(_ context.Context, st *models.UserStory) (*models.UserStory, error) {
	m.createCalls = append(m.createCalls, st.ID)
	if m.createStory != nil {
		return m.createStory(st)
	}
	return st, nil
}

func (m *mockGateway) UpdateStory(_ context.Context, id string, st *models.UserStory) (*models.UserStory, error) {
	m.updateCalls = append(m.updateCalls, id)
	if m.updateStory != nil {
		return m.updateStory(id, st)
	}
	return st, nil
}

func scenarioRecords(projectID string, ids ...string) []*models.Scenario {
	out := make([]*models.Scenario, len(ids))
	for i, id := range ids {
		out[i] = &models.Scenario{
			ID:        id,
			ProjectID: projectID,
			Type:      models.ScenarioHappyPath,
			Steps:     []string{"Given " + id},
			UpdatedAt: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC).Add(time.Duration(i) * time.Minute),
		}
	}
	return out
}

func TestSyncScenariosPullsWhenLocalEmpty(t *testing.T) {
	remote := scenarioRecords("p1", "r1", "r2")
	gw := &mockGateway{
		listScenariosFunc: func(string) (*gateway.RecordSet, error) {
			return &gateway.RecordSet{Scenarios: remote, Count: 2}, nil
		},
	}
	store := newMockStore()
	r := NewReconciler(gw, store, zap.NewNop())

	report, err := r.SyncScenarios(context.Background(), "p1")
	require.NoError(t, err)
	assert.Equal(t, 2, report.Pulled)
	assert.Zero(t, report.Failed)
	assert.Zero(t, gw.bulkCalls)

	local, _ := store.ListScenarios("p1")
	require.Len(t, local, 2)
	// Remote-assigned ids are preserved verbatim.
	assert.Equal(t, "r1", local[0].ID)
	assert.Contains(t, store.syncedAt, "p1/"+FamilyScenarios)
}

func TestSyncScenariosPushesWhenRemoteEmpty(t *testing.T) {
	gw := &mockGateway{}
	store := newMockStore()
	store.scenarios["p1"] = scenarioRecords("p1", "l1", "l2", "l3")
	r := NewReconciler(gw, store, zap.NewNop())

	report, err := r.SyncScenarios(context.Background(), "p1")
	require.NoError(t, err)
	assert.Equal(t, 3, report.Pushed)
	assert.Equal(t, 3, report.Succeeded)
	assert.Equal(t, 1, gw.bulkCalls)
}

func TestSyncScenariosTwoWayMergeIsRemoteAuthoritative(t *testing.T) {
	local := scenarioRecords("p1", "l1", "l2", "l3")
	remoteList := scenarioRecords("p1", "r1", "r2", "r3")
	merged := scenarioRecords("p1", "r1", "r2", "r3", "l2")

	var sentLocal []*models.Scenario
	gw := &mockGateway{
		listScenariosFunc: func(string) (*gateway.RecordSet, error) {
			return &gateway.RecordSet{Scenarios: remoteList}, nil
		},
		bulkScenariosFunc: func(_ string, l []*models.Scenario) ([]*models.Scenario, error) {
			sentLocal = l
			return merged, nil
		},
	}
	store := newMockStore()
	store.scenarios["p1"] = local
	r := NewReconciler(gw, store, zap.NewNop())

	_, err := r.SyncScenarios(context.Background(), "p1")
	require.NoError(t, err)

	// The full local set travelled with its updatedAt values.
	require.Len(t, sentLocal, 3)
	assert.False(t, sentLocal[0].UpdatedAt.IsZero())

	// Local cache now holds exactly the merged set, not a union of L and R.
	got, _ := store.ListScenarios("p1")
	require.Len(t, got, 4)
	gotIDs := make([]string, len(got))
	for i, sc := range got {
		gotIDs[i] = sc.ID
	}
	assert.Equal(t, []string{"r1", "r2", "r3", "l2"}, gotIDs)
}

func TestSyncScenariosPerRecordFallback(t *testing.T) {
	gw := &mockGateway{
		bulkScenariosFunc: func(string, []*models.Scenario) ([]*models.Scenario, error) {
			return nil, fmt.Errorf("%w: no bulk endpoint", apperrors.ErrNotFound)
		},
		updateScenario: func(id string, sc *models.Scenario) (*models.Scenario, error) {
			switch id {
			case "new1":
				return nil, fmt.Errorf("%w: scenario", apperrors.ErrNotFound)
			case "bad1":
				return nil, fmt.Errorf("%w: rejected", apperrors.ErrValidation)
			}
			return sc, nil
		},
	}
	store := newMockStore()
	store.scenarios["p1"] = scenarioRecords("p1", "ok1", "new1", "bad1")
	r := NewReconciler(gw, store, zap.NewNop())

	report, err := r.SyncScenarios(context.Background(), "p1")
	require.NoError(t, err)
	assert.Equal(t, 2, report.Succeeded)
	assert.Equal(t, 1, report.Failed)
	require.Len(t, report.Errors, 1)
	assert.ErrorIs(t, report.Errors[0], apperrors.ErrValidation)

	// new1 fell through update to create; bad1 did not.
	assert.Equal(t, []string{"new1"}, gw.createCalls)
	// A partially failed push records no sync timestamp.
	assert.NotContains(t, store.syncedAt, "p1/"+FamilyScenarios)
}

func TestSyncScenariosIdempotentPull(t *testing.T) {
	remote := scenarioRecords("p1", "r1", "r2")
	gw := &mockGateway{
		listScenariosFunc: func(string) (*gateway.RecordSet, error) {
			return &gateway.RecordSet{Scenarios: remote}, nil
		},
		bulkScenariosFunc: func(_ string, l []*models.Scenario) ([]*models.Scenario, error) {
			// No remote change: the merge returns the same authoritative set.
			return remote, nil
		},
	}
	store := newMockStore()
	r := NewReconciler(gw, store, zap.NewNop())

	_, err := r.SyncScenarios(context.Background(), "p1")
	require.NoError(t, err)
	first, _ := store.ListScenarios("p1")

	_, err = r.SyncScenarios(context.Background(), "p1")
	require.NoError(t, err)
	second, _ := store.ListScenarios("p1")

	assert.Equal(t, first, second)
}

func TestSyncScenariosBothEmpty(t *testing.T) {
	gw := &mockGateway{}
	store := newMockStore()
	r := NewReconciler(gw, store, zap.NewNop())

	report, err := r.SyncScenarios(context.Background(), "p1")
	require.NoError(t, err)
	assert.Zero(t, report.Pulled)
	assert.Zero(t, report.Pushed)
	assert.Zero(t, gw.bulkCalls)
}

func TestSyncScenariosFetchFailureLeavesLocalUntouched(t *testing.T) {
	gw := &mockGateway{
		listScenariosFunc: func(string) (*gateway.RecordSet, error) {
			return nil, fmt.Errorf("%w: boom", apperrors.ErrValidation)
		},
	}
	store := newMockStore()
	store.scenarios["p1"] = scenarioRecords("p1", "l1")
	r := NewReconciler(gw, store, zap.NewNop())

	_, err := r.SyncScenarios(context.Background(), "p1")
	require.Error(t, err)

	local, _ := store.ListScenarios("p1")
	assert.Len(t, local, 1)
}

func TestSyncStoriesPullsWhenLocalEmpty(t *testing.T) {
	gw := &mockGateway{
		listStoriesFunc: func(string) (*gateway.StorySet, error) {
			return &gateway.StorySet{Stories: []*models.UserStory{
				{ID: "st1", ProjectID: "p1", Role: "User"},
			}}, nil
		},
	}
	store := newMockStore()
	r := NewReconciler(gw, store, zap.NewNop())

	report, err := r.SyncStories(context.Background(), "p1")
	require.NoError(t, err)
	assert.Equal(t, 1, report.Pulled)

	local, _ := store.ListStories("p1")
	require.Len(t, local, 1)
	assert.Equal(t, "st1", local[0].ID)
}

func TestPullScenariosEmptyRemoteLeavesLocal(t *testing.T) {
	gw := &mockGateway{}
	store := newMockStore()
	store.scenarios["p1"] = scenarioRecords("p1", "l1")
	r := NewReconciler(gw, store, zap.NewNop())

	pulled, err := r.PullScenarios(context.Background(), "p1")
	require.NoError(t, err)
	assert.Empty(t, pulled)

	local, _ := store.ListScenarios("p1")
	assert.Len(t, local, 1)
}

func TestPushScenariosSkipsEmptyLocal(t *testing.T) {
	gw := &mockGateway{}
	store := newMockStore()
	r := NewReconciler(gw, store, zap.NewNop())

	report, err := r.PushScenarios(context.Background(), "p1")
	require.NoError(t, err)
	assert.Zero(t, report.Pushed)
	assert.Zero(t, gw.bulkCalls)
}

func TestKeyedMutexSerializesSameKey(t *testing.T) {
	km := newKeyedMutex()
	var inCritical int
	var maxSeen int
	var mu sync.Mutex
	var wg sync.WaitGroup

	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := km.lock("p1/scenarios")
			defer unlock()

			mu.Lock()
			inCritical++
			if inCritical > maxSeen {
				maxSeen = inCritical
			}
			mu.Unlock()

			time.Sleep(time.Millisecond)

			mu.Lock()
			inCritical--
			mu.Unlock()
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, maxSeen)
}
