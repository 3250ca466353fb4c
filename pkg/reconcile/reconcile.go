// Package reconcile keeps the local cache and the remote store consistent,
// one project and one entity family at a time.
//
// The remote store is authoritative: merges happen on its side of the
// bulk-sync call and the local family is rewritten from the returned set.
// The engine never invents its own merge policy beyond shipping both sides'
// updatedAt values with every record.
package reconcile

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/AgileSoftDev-2025/Story-Canvas-web-sub002/pkg/apperrors"
	"github.com/AgileSoftDev-2025/Story-Canvas-web-sub002/pkg/gateway"
	"github.com/AgileSoftDev-2025/Story-Canvas-web-sub002/pkg/models"
	"github.com/AgileSoftDev-2025/Story-Canvas-web-sub002/pkg/retry"
)

// Entity family names used for serialization keys and sync timestamps.
const (
	FamilyScenarios = "scenarios"
	FamilyStories   = "user_stories"
)

// Report summarizes one reconciliation pass. Per-record failures are
// collected here as partial-success counts; they never abort the batch.
type Report struct {
	Family    string
	Pulled    int
	Pushed    int
	Succeeded int
	Failed    int
	Errors    []error
}

// ScenarioGateway is the remote surface the reconciler needs for scenarios.
type ScenarioGateway interface {
	ListScenarios(ctx context.Context, projectID string) (*gateway.RecordSet, error)
	BulkSyncScenarios(ctx context.Context, projectID string, local []*models.Scenario) ([]*models.Scenario, error)
	CreateScenario(ctx context.Context, sc *models.Scenario) (*models.Scenario, error)
	UpdateScenario(ctx context.Context, id string, sc *models.Scenario) (*models.Scenario, error)
}

// StoryGateway is the remote surface the reconciler needs for user stories.
type StoryGateway interface {
	ListStories(ctx context.Context, projectID string) (*gateway.StorySet, error)
	BulkSyncStories(ctx context.Context, projectID string, local []*models.UserStory) ([]*models.UserStory, error)
	CreateStory(ctx context.Context, st *models.UserStory) (*models.UserStory, error)
	UpdateStory(ctx context.Context, id string, st *models.UserStory) (*models.UserStory, error)
}

// RemoteGateway combines the per-family remote surfaces.
type RemoteGateway interface {
	ScenarioGateway
	StoryGateway
}

// Store is the local cache surface the reconciler mutates.
type Store interface {
	ListScenarios(projectID string) ([]*models.Scenario, error)
	ReplaceScenarios(projectID string, scenarios []*models.Scenario) error
	ListStories(projectID string) ([]*models.UserStory, error)
	ReplaceStories(projectID string, stories []*models.UserStory) error
	SetSyncedAt(projectID, family string, at time.Time) error
}

// Reconciler merges one project's entity families between the local cache
// and the remote store.
type Reconciler interface {
	// SyncScenarios runs the full merge for one project's scenario family.
	SyncScenarios(ctx context.Context, projectID string) (*Report, error)
	// SyncStories runs the full merge for one project's story family.
	SyncStories(ctx context.Context, projectID string) (*Report, error)
	// PullScenarios overwrites the local scenario family from the remote
	// store and returns the pulled records.
	PullScenarios(ctx context.Context, projectID string) ([]*models.Scenario, error)
	// PushScenarios ships the local scenario family to the remote store.
	PushScenarios(ctx context.Context, projectID string) (*Report, error)
}

type reconciler struct {
	remote   RemoteGateway
	store    Store
	locks    *keyedMutex
	retryCfg *retry.Config
	logger   *zap.Logger
	now      func() time.Time
}

// NewReconciler creates the merge engine. Reconciliations of the same
// project and family are serialized; everything else runs in parallel.
func NewReconciler(remote RemoteGateway, store Store, logger *zap.Logger) Reconciler {
	return &reconciler{
		remote:   remote,
		store:    store,
		locks:    newKeyedMutex(),
		retryCfg: retry.DefaultConfig(),
		logger:   logger.Named("reconcile"),
		now:      time.Now,
	}
}

var _ Reconciler = (*reconciler)(nil)

func (r *reconciler) SyncScenarios(ctx context.Context, projectID string) (*Report, error) {
	unlock := r.locks.lock(projectID + "/" + FamilyScenarios)
	defer unlock()

	local, err := r.store.ListScenarios(projectID)
	if err != nil {
		return nil, fmt.Errorf("list local scenarios: %w", err)
	}

	remoteSet, err := retry.DoWithResult(ctx, r.retryCfg, func() (*gateway.RecordSet, error) {
		return r.remote.ListScenarios(ctx, projectID)
	})
	if err != nil {
		return nil, fmt.Errorf("fetch remote scenarios: %w", err)
	}
	remote := remoteSet.Scenarios

	report := &Report{Family: FamilyScenarios}

	switch {
	case len(remote) > 0 && len(local) == 0:
		if err := r.store.ReplaceScenarios(projectID, remote); err != nil {
			return nil, fmt.Errorf("write pulled scenarios: %w", err)
		}
		report.Pulled = len(remote)

	case len(local) > 0:
		// Push and two-way merge share the bulk call; the remote side owns
		// the merge decision either way.
		if err := r.bulkSyncScenarios(ctx, projectID, local, report); err != nil {
			return nil, err
		}
	}

	if report.Failed == 0 {
		if err := r.store.SetSyncedAt(projectID, FamilyScenarios, r.now().UTC()); err != nil {
			r.logger.Warn("record sync timestamp", zap.Error(err))
		}
	}

	r.logger.Info("scenario family reconciled",
		zap.String("project_id", projectID),
		zap.Int("pulled", report.Pulled),
		zap.Int("pushed", report.Pushed),
		zap.Int("failed", report.Failed))
	return report, nil
}

// bulkSyncScenarios ships the local set and rewrites the family from the
// authoritative merged result. When the remote side has no bulk endpoint it
// answers 404; the per-record fallback then syncs each record individually.
func (r *reconciler) bulkSyncScenarios(ctx context.Context, projectID string, local []*models.Scenario, report *Report) error {
	merged, err := r.remote.BulkSyncScenarios(ctx, projectID, local)
	if errors.Is(err, apperrors.ErrNotFound) {
		r.logger.Warn("bulk sync unavailable, syncing per record",
			zap.String("project_id", projectID))
		r.pushScenariosIndividually(ctx, local, report)
		return nil
	}
	if err != nil {
		return fmt.Errorf("bulk sync scenarios: %w", err)
	}

	if err := r.store.ReplaceScenarios(projectID, merged); err != nil {
		return fmt.Errorf("write merged scenarios: %w", err)
	}
	report.Pushed = len(local)
	report.Succeeded = len(local)
	return nil
}

// pushScenariosIndividually is the update-then-create-on-404 fallback.
// Per-record errors are collected, never fatal to the batch.
func (r *reconciler) pushScenariosIndividually(ctx context.Context, local []*models.Scenario, report *Report) {
	for _, sc := range local {
		_, err := r.remote.UpdateScenario(ctx, sc.ID, sc)
		if errors.Is(err, apperrors.ErrNotFound) {
			_, err = r.remote.CreateScenario(ctx, sc)
		}
		if err != nil {
			report.Failed++
			report.Errors = append(report.Errors, fmt.Errorf("scenario %s: %w", sc.ID, err))
			continue
		}
		report.Succeeded++
	}
	report.Pushed = report.Succeeded
}

func (r *reconciler) SyncStories(ctx context.Context, projectID string) (*Report, error) {
	unlock := r.locks.lock(projectID + "/" + FamilyStories)
	defer unlock()

	local, err := r.store.ListStories(projectID)
	if err != nil {
		return nil, fmt.Errorf("list local stories: %w", err)
	}

	remoteSet, err := retry.DoWithResult(ctx, r.retryCfg, func() (*gateway.StorySet, error) {
		return r.remote.ListStories(ctx, projectID)
	})
	if err != nil {
		return nil, fmt.Errorf("fetch remote stories: %w", err)
	}
	remote := remoteSet.Stories

	report := &Report{Family: FamilyStories}

	switch {
	case len(remote) > 0 && len(local) == 0:
		if err := r.store.ReplaceStories(projectID, remote); err != nil {
			return nil, fmt.Errorf("write pulled stories: %w", err)
		}
		report.Pulled = len(remote)

	case len(local) > 0:
		if err := r.bulkSyncStories(ctx, projectID, local, report); err != nil {
			return nil, err
		}
	}

	if report.Failed == 0 {
		if err := r.store.SetSyncedAt(projectID, FamilyStories, r.now().UTC()); err != nil {
			r.logger.Warn("record sync timestamp", zap.Error(err))
		}
	}

	r.logger.Info("story family reconciled",
		zap.String("project_id", projectID),
		zap.Int("pulled", report.Pulled),
		zap.Int("pushed", report.Pushed),
		zap.Int("failed", report.Failed))
	return report, nil
}

func (r *reconciler) bulkSyncStories(ctx context.Context, projectID string, local []*models.UserStory, report *Report) error {
	merged, err := r.remote.BulkSyncStories(ctx, projectID, local)
	if errors.Is(err, apperrors.ErrNotFound) {
		r.logger.Warn("bulk sync unavailable, syncing per record",
			zap.String("project_id", projectID))
		r.pushStoriesIndividually(ctx, local, report)
		return nil
	}
	if err != nil {
		return fmt.Errorf("bulk sync stories: %w", err)
	}

	if err := r.store.ReplaceStories(projectID, merged); err != nil {
		return fmt.Errorf("write merged stories: %w", err)
	}
	report.Pushed = len(local)
	report.Succeeded = len(local)
	return nil
}

func (r *reconciler) pushStoriesIndividually(ctx context.Context, local []*models.UserStory, report *Report) {
	for _, st := range local {
		_, err := r.remote.UpdateStory(ctx, st.ID, st)
		if errors.Is(err, apperrors.ErrNotFound) {
			_, err = r.remote.CreateStory(ctx, st)
		}
		if err != nil {
			report.Failed++
			report.Errors = append(report.Errors, fmt.Errorf("story %s: %w", st.ID, err))
			continue
		}
		report.Succeeded++
	}
	report.Pushed = report.Succeeded
}

// PullScenarios overwrites the local scenario family from the remote store,
// preserving remote-assigned ids, and returns the pulled records.
func (r *reconciler) PullScenarios(ctx context.Context, projectID string) ([]*models.Scenario, error) {
	unlock := r.locks.lock(projectID + "/" + FamilyScenarios)
	defer unlock()

	remoteSet, err := retry.DoWithResult(ctx, r.retryCfg, func() (*gateway.RecordSet, error) {
		return r.remote.ListScenarios(ctx, projectID)
	})
	if err != nil {
		return nil, fmt.Errorf("fetch remote scenarios: %w", err)
	}
	if len(remoteSet.Scenarios) == 0 {
		return nil, nil
	}

	if err := r.store.ReplaceScenarios(projectID, remoteSet.Scenarios); err != nil {
		return nil, fmt.Errorf("write pulled scenarios: %w", err)
	}
	if err := r.store.SetSyncedAt(projectID, FamilyScenarios, r.now().UTC()); err != nil {
		r.logger.Warn("record sync timestamp", zap.Error(err))
	}
	return remoteSet.Scenarios, nil
}

// PushScenarios ships the local scenario family to the remote store without
// pulling first. Used by the facade's persistence step after generation.
func (r *reconciler) PushScenarios(ctx context.Context, projectID string) (*Report, error) {
	unlock := r.locks.lock(projectID + "/" + FamilyScenarios)
	defer unlock()

	local, err := r.store.ListScenarios(projectID)
	if err != nil {
		return nil, fmt.Errorf("list local scenarios: %w", err)
	}

	report := &Report{Family: FamilyScenarios}
	if len(local) == 0 {
		return report, nil
	}

	if err := r.bulkSyncScenarios(ctx, projectID, local, report); err != nil {
		return nil, err
	}
	if report.Failed == 0 {
		if err := r.store.SetSyncedAt(projectID, FamilyScenarios, r.now().UTC()); err != nil {
			r.logger.Warn("record sync timestamp", zap.Error(err))
		}
	}
	return report, nil
}
