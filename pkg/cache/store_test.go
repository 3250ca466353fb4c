package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AgileSoftDev-2025/Story-Canvas-web-sub002/pkg/models"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func testProject(id string) *models.Project {
	now := time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC)
	return &models.Project{
		ID:        id,
		Title:     "Checkout flow docs",
		Objective: "Document the checkout flow",
		Status:    models.StatusDraft,
		IsGuest:   true,
		Owner:     "guest_4821",
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func testScenario(id, projectID string, at time.Time) *models.Scenario {
	return &models.Scenario{
		ID:        id,
		ProjectID: projectID,
		Title:     "Successful checkout",
		Type:      models.ScenarioHappyPath,
		Steps:     []string{"Given a cart with items", "When the user pays", "Then an order is created"},
		Status:    models.ScenarioStatusDraft,
		CreatedAt: at,
		UpdatedAt: at,
	}
}

func TestProjectRoundTrip(t *testing.T) {
	s := newTestStore(t)
	p := testProject("p1")
	require.NoError(t, s.PutProject(p))

	got, err := s.GetProject("p1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, p.Title, got.Title)
	assert.True(t, got.IsGuest)

	missing, err := s.GetProject("nope")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestChildWriteRequiresParentProject(t *testing.T) {
	s := newTestStore(t)
	sc := testScenario("s1", "orphan-project", time.Now())
	err := s.PutScenario(sc)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "does not exist")
}

func TestListGuestProjects(t *testing.T) {
	s := newTestStore(t)
	guest := testProject("p1")
	require.NoError(t, s.PutProject(guest))

	bound := testProject("p2")
	bound.IsGuest = false
	bound.Owner = "alice"
	require.NoError(t, s.PutProject(bound))

	guests, err := s.ListGuestProjects()
	require.NoError(t, err)
	require.Len(t, guests, 1)
	assert.Equal(t, "p1", guests[0].ID)

	all, err := s.ListProjects()
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestReplaceScenariosIsIdempotent(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.PutProject(testProject("p1")))

	at := time.Date(2026, 2, 1, 11, 0, 0, 0, time.UTC)
	set := []*models.Scenario{
		testScenario("s1", "p1", at),
		testScenario("s2", "p1", at.Add(time.Minute)),
	}
	require.NoError(t, s.ReplaceScenarios("p1", set))
	require.NoError(t, s.ReplaceScenarios("p1", set))

	got, err := s.ListScenarios("p1")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "s1", got[0].ID)
	assert.Equal(t, "s2", got[1].ID)
}

func TestReplaceScenariosClearsOldSet(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.PutProject(testProject("p1")))

	at := time.Now().UTC()
	require.NoError(t, s.ReplaceScenarios("p1", []*models.Scenario{testScenario("old", "p1", at)}))
	require.NoError(t, s.ReplaceScenarios("p1", []*models.Scenario{testScenario("new", "p1", at)}))

	got, err := s.ListScenarios("p1")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "new", got[0].ID)
}

func TestDeleteProjectCascades(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.PutProject(testProject("p1")))

	at := time.Now().UTC()
	require.NoError(t, s.PutScenario(testScenario("s1", "p1", at)))
	require.NoError(t, s.PutStory(&models.UserStory{
		ID: "st1", ProjectID: "p1", Role: "User", Action: "pay", UpdatedAt: at,
	}))
	require.NoError(t, s.PutWireframe(&models.Wireframe{
		ID: "w1", ProjectID: "p1", PageName: "Checkout", UpdatedAt: at,
	}))
	require.NoError(t, s.SetSyncedAt("p1", "scenarios", at))

	require.NoError(t, s.DeleteProject("p1"))

	p, err := s.GetProject("p1")
	require.NoError(t, err)
	assert.Nil(t, p)
	n, err := s.CountScenarios("p1")
	require.NoError(t, err)
	assert.Zero(t, n)
	n, err = s.CountStories("p1")
	require.NoError(t, err)
	assert.Zero(t, n)
	n, err = s.CountWireframes("p1")
	require.NoError(t, err)
	assert.Zero(t, n)
	ts, err := s.SyncedAt("p1", "scenarios")
	require.NoError(t, err)
	assert.True(t, ts.IsZero())
}

func TestCredentialsRoundTrip(t *testing.T) {
	s := newTestStore(t)

	c, err := s.LoadCredentials()
	require.NoError(t, err)
	assert.Nil(t, c)

	require.NoError(t, s.SaveCredentials(&models.Credentials{
		Username: "alice",
		Token:    "tok",
		SavedAt:  time.Now().UTC(),
	}))

	c, err = s.LoadCredentials()
	require.NoError(t, err)
	require.NotNil(t, c)
	assert.Equal(t, "alice", c.Username)
	assert.False(t, c.IsGuest())

	require.NoError(t, s.ClearCredentials())
	c, err = s.LoadCredentials()
	require.NoError(t, err)
	assert.Nil(t, c)
}

func TestPurgeAllLeavesNothing(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.PutProject(testProject("p1")))
	require.NoError(t, s.PutScenario(testScenario("s1", "p1", time.Now())))
	require.NoError(t, s.SaveCredentials(&models.Credentials{Username: "alice", Token: "tok"}))
	require.NoError(t, s.SetSyncedAt("p1", "scenarios", time.Now()))

	require.NoError(t, s.PurgeAll())

	projects, err := s.ListProjects()
	require.NoError(t, err)
	assert.Empty(t, projects)
	creds, err := s.LoadCredentials()
	require.NoError(t, err)
	assert.Nil(t, creds)
	ts, err := s.SyncedAt("p1", "scenarios")
	require.NoError(t, err)
	assert.True(t, ts.IsZero())
}

func TestSyncedAtRoundTrip(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.PutProject(testProject("p1")))

	at := time.Date(2026, 2, 1, 12, 30, 0, 0, time.UTC)
	require.NoError(t, s.SetSyncedAt("p1", "scenarios", at))

	got, err := s.SyncedAt("p1", "scenarios")
	require.NoError(t, err)
	assert.True(t, got.Equal(at))
}
