// Package migration adopts guest data into an authenticated account and
// owns the purge routines at the session boundary.
//
// Deletion is always the last step and always gated on an explicit success
// from the remote side; a failed migration leaves local data untouched.
package migration

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/AgileSoftDev-2025/Story-Canvas-web-sub002/pkg/gateway"
	"github.com/AgileSoftDev-2025/Story-Canvas-web-sub002/pkg/models"
)

// Store is the local cache surface the coordinator needs.
type Store interface {
	GetProject(id string) (*models.Project, error)
	ListGuestProjects() ([]*models.Project, error)
	ListStories(projectID string) ([]*models.UserStory, error)
	ListWireframes(projectID string) ([]*models.Wireframe, error)
	ListScenarios(projectID string) ([]*models.Scenario, error)
	DeleteProject(id string) error
	PurgeAll() error
}

// RemoteGateway is the remote surface the coordinator needs.
type RemoteGateway interface {
	MigrateGuestProject(ctx context.Context, payload *gateway.MigrationPayload) error
	SyncLocalProjects(ctx context.Context, projects []*models.Project) error
	SignOut(ctx context.Context)
}

// Session is what the coordinator needs from the session manager.
type Session interface {
	Current() *models.Credentials
	SignOut() error
}

// Report summarizes a multi-project migration.
type Report struct {
	Migrated int
	Failed   int
	Errors   []error
}

// Coordinator moves guest data into an authenticated account and purges
// local data at the session boundary.
type Coordinator interface {
	// MigrateProject adopts one guest project. On success the local copy
	// and all its children are deleted.
	MigrateProject(ctx context.Context, projectID string) error
	// MigrateAll adopts every guest project, continuing past per-project
	// failures.
	MigrateAll(ctx context.Context) (*Report, error)
	// SyncLocal ships the core fields of all guest projects to the
	// sync-local endpoint, then clears the migrated local copies.
	SyncLocal(ctx context.Context) error
	// PurgeGuestData deletes every guest project and its children. Called
	// on login before new credentials are stored.
	PurgeGuestData(ctx context.Context) error
	// Logout purges all local session data and notifies the remote side
	// best effort.
	Logout(ctx context.Context) error
}

type coordinator struct {
	store   Store
	remote  RemoteGateway
	session Session
	logger  *zap.Logger
}

// NewCoordinator creates the migration coordinator.
func NewCoordinator(store Store, remote RemoteGateway, session Session, logger *zap.Logger) Coordinator {
	return &coordinator{
		store:   store,
		remote:  remote,
		session: session,
		logger:  logger.Named("migration"),
	}
}

var _ Coordinator = (*coordinator)(nil)

func (c *coordinator) MigrateProject(ctx context.Context, projectID string) error {
	project, err := c.store.GetProject(projectID)
	if err != nil {
		return fmt.Errorf("load project: %w", err)
	}
	if project == nil {
		return fmt.Errorf("project %s not found locally", projectID)
	}
	if !project.IsGuest {
		return fmt.Errorf("project %s is not guest data", projectID)
	}

	payload, err := c.gatherPayload(project)
	if err != nil {
		return err
	}

	start := time.Now()
	if err := c.remote.MigrateGuestProject(ctx, payload); err != nil {
		c.logger.Warn("migration rejected, local data preserved",
			zap.String("project_id", projectID),
			zap.Error(err))
		return fmt.Errorf("migrate project %s: %w", projectID, err)
	}

	// The remote side confirmed adoption; only now may local copies go.
	if err := c.store.DeleteProject(projectID); err != nil {
		return fmt.Errorf("delete migrated project %s: %w", projectID, err)
	}

	c.logger.Info("guest project migrated",
		zap.String("project_id", projectID),
		zap.Int("stories", len(payload.UserStories)),
		zap.Int("wireframes", len(payload.Wireframes)),
		zap.Int("scenarios", len(payload.Scenarios)),
		zap.Duration("elapsed", time.Since(start)))
	return nil
}

// gatherPayload collects the project and all its children into the single
// request the migrate endpoint expects.
func (c *coordinator) gatherPayload(project *models.Project) (*gateway.MigrationPayload, error) {
	stories, err := c.store.ListStories(project.ID)
	if err != nil {
		return nil, fmt.Errorf("gather stories: %w", err)
	}
	wireframes, err := c.store.ListWireframes(project.ID)
	if err != nil {
		return nil, fmt.Errorf("gather wireframes: %w", err)
	}
	scenarios, err := c.store.ListScenarios(project.ID)
	if err != nil {
		return nil, fmt.Errorf("gather scenarios: %w", err)
	}
	return &gateway.MigrationPayload{
		Project:     project,
		UserStories: stories,
		Wireframes:  wireframes,
		Scenarios:   scenarios,
	}, nil
}

func (c *coordinator) MigrateAll(ctx context.Context) (*Report, error) {
	projects, err := c.store.ListGuestProjects()
	if err != nil {
		return nil, fmt.Errorf("list guest projects: %w", err)
	}

	report := &Report{}
	for _, p := range projects {
		if err := c.MigrateProject(ctx, p.ID); err != nil {
			report.Failed++
			report.Errors = append(report.Errors, err)
			continue
		}
		report.Migrated++
	}

	c.logger.Info("guest migration finished",
		zap.Int("migrated", report.Migrated),
		zap.Int("failed", report.Failed))
	return report, nil
}

func (c *coordinator) SyncLocal(ctx context.Context) error {
	projects, err := c.store.ListGuestProjects()
	if err != nil {
		return fmt.Errorf("list guest projects: %w", err)
	}
	if len(projects) == 0 {
		return nil
	}

	if err := c.remote.SyncLocalProjects(ctx, projects); err != nil {
		return fmt.Errorf("sync local projects: %w", err)
	}

	// Children were shipped with the core fields; clear the local copies.
	for _, p := range projects {
		if err := c.store.DeleteProject(p.ID); err != nil {
			return fmt.Errorf("delete synced project %s: %w", p.ID, err)
		}
	}

	c.logger.Info("local guest projects synced", zap.Int("count", len(projects)))
	return nil
}

func (c *coordinator) PurgeGuestData(ctx context.Context) error {
	projects, err := c.store.ListGuestProjects()
	if err != nil {
		return fmt.Errorf("list guest projects: %w", err)
	}
	for _, p := range projects {
		if err := c.store.DeleteProject(p.ID); err != nil {
			return fmt.Errorf("purge guest project %s: %w", p.ID, err)
		}
	}
	// A cached guest identity is part of the guest data.
	if creds := c.session.Current(); creds != nil && creds.IsGuest() {
		if err := c.session.SignOut(); err != nil {
			return fmt.Errorf("drop guest identity: %w", err)
		}
	}
	if len(projects) > 0 {
		c.logger.Info("guest data purged", zap.Int("projects", len(projects)))
	}
	return nil
}

// Logout purges everything local, then tells the remote side. The sign-out
// call is best effort and runs before the in-memory credential is dropped
// so it still carries the bearer token; its failure never blocks the purge.
func (c *coordinator) Logout(ctx context.Context) error {
	if err := c.store.PurgeAll(); err != nil {
		return fmt.Errorf("purge local data: %w", err)
	}

	c.remote.SignOut(ctx)

	if err := c.session.SignOut(); err != nil {
		return fmt.Errorf("drop session: %w", err)
	}

	c.logger.Info("logged out, local data purged")
	return nil
}
