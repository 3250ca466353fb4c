// Package generate is the entry point for obtaining a project's scenarios.
//
// The facade walks a fixed progression: check the remote store (when
// authenticated), check the local cache, generate, persist. The cache is
// authoritative for avoiding duplicate generation: existing records are
// returned as-is, never regenerated. Each request carries a generation
// sequence number per project; a result whose number is no longer the
// latest is discarded instead of persisted, so an abandoned operation can
// never clobber a newer one.
package generate

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/AgileSoftDev-2025/Story-Canvas-web-sub002/pkg/gateway"
	"github.com/AgileSoftDev-2025/Story-Canvas-web-sub002/pkg/models"
	"github.com/AgileSoftDev-2025/Story-Canvas-web-sub002/pkg/reconcile"
)

// State names the facade's position in the generation progression.
type State string

const (
	StateIdle           State = "idle"
	StateCheckingRemote State = "checking_remote"
	StateCheckingLocal  State = "checking_local"
	StateGenerating     State = "generating"
	StatePersisting     State = "persisting"
	StateDone           State = "done"
	StateFailed         State = "failed"
)

// Source reports where a result's records came from.
type Source string

const (
	SourceRemote    Source = "remote"
	SourceCache     Source = "cache"
	SourceGenerated Source = "generated"
)

// Result is a completed generation request.
type Result struct {
	Scenarios []*models.Scenario
	Source    Source
}

// Store is the local cache surface the facade needs.
type Store interface {
	GetProject(id string) (*models.Project, error)
	ListStories(projectID string) ([]*models.UserStory, error)
	ListScenarios(projectID string) ([]*models.Scenario, error)
	ReplaceScenarios(projectID string, scenarios []*models.Scenario) error
}

// Remote is the remote surface the facade needs.
type Remote interface {
	CheckScenarios(ctx context.Context, projectID string) (*gateway.Existence, error)
	GenerateScenarios(ctx context.Context, projectID string, opts gateway.GenerateOptions) (*gateway.RecordSet, error)
}

// Syncer moves scenario records between the stores.
type Syncer interface {
	PullScenarios(ctx context.Context, projectID string) ([]*models.Scenario, error)
	PushScenarios(ctx context.Context, projectID string) (*reconcile.Report, error)
}

// Session answers whether a non-guest account is signed in.
type Session interface {
	IsAuthenticated() bool
}

// Facade produces a project's scenarios from whichever source holds them.
type Facade interface {
	GetOrGenerate(ctx context.Context, projectID string) (*Result, error)
}

type facade struct {
	store     Store
	remote    Remote
	syncer    Syncer
	session   Session
	offline   *TemplateGenerator
	enhancer  *Enhancer
	sequences *sequenceTracker
	logger    *zap.Logger
}

// NewFacade creates the generation facade. enhancer may be nil; generated
// scenarios are then kept exactly as the offline templates produce them.
func NewFacade(store Store, remote Remote, syncer Syncer, session Session, enhancer *Enhancer, logger *zap.Logger) Facade {
	return &facade{
		store:     store,
		remote:    remote,
		syncer:    syncer,
		session:   session,
		offline:   NewTemplateGenerator(),
		enhancer:  enhancer,
		sequences: newSequenceTracker(),
		logger:    logger.Named("generate"),
	}
}

var _ Facade = (*facade)(nil)

func (f *facade) GetOrGenerate(ctx context.Context, projectID string) (*Result, error) {
	seq := f.sequences.begin(projectID)
	state := StateIdle
	fail := func(err error) (*Result, error) {
		f.logger.Warn("generation failed",
			zap.String("project_id", projectID),
			zap.String("state", string(state)))
		return nil, fmt.Errorf("generate scenarios (%s): %w", state, err)
	}

	authenticated := f.session.IsAuthenticated()

	if authenticated {
		state = StateCheckingRemote
		existence, err := f.remote.CheckScenarios(ctx, projectID)
		if err != nil {
			return fail(err)
		}
		if existence.Exists {
			pulled, err := f.syncer.PullScenarios(ctx, projectID)
			if err != nil {
				return fail(err)
			}
			if len(pulled) > 0 {
				f.logger.Info("scenarios pulled from remote",
					zap.String("project_id", projectID),
					zap.Int("count", len(pulled)))
				return &Result{Scenarios: pulled, Source: SourceRemote}, nil
			}
		}
	}

	state = StateCheckingLocal
	cached, err := f.store.ListScenarios(projectID)
	if err != nil {
		return fail(err)
	}
	if len(cached) > 0 {
		return &Result{Scenarios: cached, Source: SourceCache}, nil
	}

	state = StateGenerating
	var generated []*models.Scenario
	if authenticated {
		set, err := f.remote.GenerateScenarios(ctx, projectID, gateway.GenerateOptions{})
		if err != nil {
			return fail(err)
		}
		generated = set.Scenarios
	} else {
		project, err := f.store.GetProject(projectID)
		if err != nil {
			return fail(err)
		}
		if project == nil {
			return fail(fmt.Errorf("project %s not found locally", projectID))
		}
		stories, err := f.store.ListStories(projectID)
		if err != nil {
			return fail(err)
		}
		generated = f.offline.Generate(project, stories)
		if f.enhancer != nil {
			generated = f.enhancer.Enhance(ctx, generated)
		}
	}

	state = StatePersisting
	if err := ctx.Err(); err != nil {
		return fail(err)
	}
	if !f.sequences.isLatest(projectID, seq) {
		// A newer request superseded this one; its result wins.
		return fail(fmt.Errorf("superseded by a newer generation request"))
	}
	if err := f.store.ReplaceScenarios(projectID, generated); err != nil {
		return fail(err)
	}
	if authenticated {
		// The push completes before the operation reports success.
		if report, err := f.syncer.PushScenarios(ctx, projectID); err != nil {
			return fail(err)
		} else if report.Failed > 0 {
			f.logger.Warn("generated scenarios partially pushed",
				zap.String("project_id", projectID),
				zap.Int("failed", report.Failed))
		}
	}

	f.logger.Info("scenarios generated",
		zap.String("project_id", projectID),
		zap.Int("count", len(generated)),
		zap.Bool("authenticated", authenticated))
	return &Result{Scenarios: generated, Source: SourceGenerated}, nil
}
