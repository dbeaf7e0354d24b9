package deploy

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/hutchdb/hutch/pkg/log"
	"github.com/hutchdb/hutch/pkg/metrics"
	"github.com/hutchdb/hutch/pkg/runtime"
	"github.com/hutchdb/hutch/pkg/types"
	"github.com/hutchdb/hutch/pkg/volume"
)

// RuntimeGateway is the slice of the gateway the orchestrator drives.
type RuntimeGateway interface {
	Endpoint() runtime.Endpoint
	PullImage(ctx context.Context, image, tag string) error
	CreateContainer(ctx context.Context, spec runtime.CreateSpec) (runtime.CreateResult, error)
	StartContainer(ctx context.Context, id string) error
}

// Storage is the filesystem collaborator used for persistent data
// directories.
type Storage interface {
	Resolve(path string) (string, error)
	EnsureDir(path string, mode os.FileMode, uid, gid int) (bool, error)
}

// HistoryStore records deployment outcomes. Optional; a nil store
// disables history.
type HistoryStore interface {
	SaveDeployment(record *types.DeploymentRecord) error
}

// StageError tags a deployment failure with the stage it occurred at.
// A start failure additionally carries the container id: the container
// exists but is not running, and the caller can retry the start instead
// of re-creating.
type StageError struct {
	Stage       types.DeploymentStage
	ContainerID string
	Err         error
}

func (e *StageError) Error() string {
	if e.ContainerID != "" {
		return fmt.Sprintf("deployment failed at stage %s (container %s): %v", e.Stage, e.ContainerID, e.Err)
	}
	return fmt.Sprintf("deployment failed at stage %s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

// Orchestrator provisions database containers through a linear sequence
// of stages: pull, identity discovery, storage provisioning, create,
// start. The stages for one deployment are strictly sequential;
// independent deployments share no state and may run concurrently.
type Orchestrator struct {
	gateway  RuntimeGateway
	identity IdentityDiscoverer
	storage  Storage
	history  HistoryStore
	logger   zerolog.Logger
}

// NewOrchestrator creates an orchestrator. history may be nil.
func NewOrchestrator(gateway RuntimeGateway, identity IdentityDiscoverer, storage Storage, history HistoryStore) *Orchestrator {
	return &Orchestrator{
		gateway:  gateway,
		identity: identity,
		storage:  storage,
		history:  history,
		logger:   log.WithComponent("orchestrator"),
	}
}

// Deploy runs one provisioning pass for the request. On success the
// returned record has reached the done stage and carries the container
// id; on failure the error is a StageError and the record captures the
// stage reached. No step is retried internally.
func (o *Orchestrator) Deploy(ctx context.Context, req *types.DeployRequest) (*types.DeploymentRecord, error) {
	start := time.Now()

	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("invalid deploy request: %w", err)
	}
	profile, err := ProfileFor(req.Engine)
	if err != nil {
		return nil, err
	}

	record := &types.DeploymentRecord{
		ID:        uuid.New().String(),
		Engine:    req.Engine,
		Name:      req.Name,
		Image:     profile.Image(req.Version),
		HostPort:  req.HostPort,
		CreatedAt: start,
	}
	logger := o.logger.With().Str("deployment_id", record.ID).Str("name", req.Name).Logger()

	err = o.run(ctx, req, profile, record, logger)
	record.CompletedAt = time.Now()

	if err != nil {
		record.Failed = true
		record.Error = err.Error()
		var se *StageError
		if errors.As(err, &se) {
			record.Stage = se.Stage
			record.ContainerID = se.ContainerID
			metrics.ObserveDeploymentFailure(string(se.Stage))
		}
		metrics.ObserveDeployment(string(req.Engine), "failure", time.Since(start))
	} else {
		record.Stage = types.StageDone
		metrics.ObserveDeployment(string(req.Engine), "success", time.Since(start))
	}

	o.saveHistory(record, logger)
	return record, err
}

// run walks the stages in order. Each stage depends on the previous
// one's output; there are no back-edges.
func (o *Orchestrator) run(ctx context.Context, req *types.DeployRequest, profile Profile, record *types.DeploymentRecord, logger zerolog.Logger) error {
	// Pull. Nothing exists yet, so a failure here aborts the whole run
	// with nothing to roll back.
	logger.Info().Str("image", record.Image).Msg("pulling image")
	if err := o.gateway.PullImage(ctx, profile.Repository, req.Version); err != nil {
		return &StageError{Stage: types.StagePull, Err: err}
	}

	// Discover the image's runtime user so the data directory can be
	// owned correctly. Best-effort: any failure falls back to the
	// default identity.
	identity := o.discoverIdentity(ctx, record.Image, logger)

	// Ensure host storage, only when the caller asked for persistence.
	// An existing directory, including one another caller just created,
	// is success.
	var binds []string
	if req.DataPath != "" {
		dataPath, err := o.storage.Resolve(req.DataPath)
		if err != nil {
			return &StageError{Stage: types.StageStorage, Err: err}
		}
		created, err := o.storage.EnsureDir(req.DataPath, volume.DefaultDirMode, identity.UID, identity.GID)
		if err != nil {
			return &StageError{Stage: types.StageStorage, Err: err}
		}
		if created {
			logger.Info().Str("path", dataPath).Int("uid", identity.UID).Int("gid", identity.GID).Msg("created data directory")
		}
		binds = append(binds, dataPath+":"+profile.DataDir)
	}

	// Build the abstract container spec; the gateway's translator turns
	// it into whichever dialect the socket speaks.
	spec := runtime.CreateSpec{
		Name:   req.Name,
		Image:  record.Image,
		Env:    profile.Env(req),
		Labels: profile.Labels(req),
		Port: &types.PortBinding{
			ContainerPort: profile.ContainerPort,
			HostPort:      req.HostPort,
			Protocol:      "tcp",
		},
		Binds: binds,
	}

	// Create. On failure nothing was started, so there is nothing to
	// clean up.
	result, err := o.gateway.CreateContainer(ctx, spec)
	if err != nil {
		return &StageError{Stage: types.StageCreate, Err: err}
	}
	record.ContainerID = result.ID
	for _, warning := range result.Warnings {
		logger.Warn().Str("warning", warning).Msg("runtime create warning")
	}

	// Start. This is the only stage whose failure leaves a visible,
	// retryable artifact: the created container. Tag it so the caller
	// can offer retry-start instead of re-creating.
	if err := o.gateway.StartContainer(ctx, result.ID); err != nil {
		return &StageError{Stage: types.StageStart, ContainerID: result.ID, Err: err}
	}

	logger.Info().Str("container_id", result.ID).Msg("deployment complete")
	return nil
}

// discoverIdentity resolves the image's default uid/gid, distinguishing
// a missing CLI binary from unparseable output in the logs while
// falling back to the default identity either way.
func (o *Orchestrator) discoverIdentity(ctx context.Context, image string, logger zerolog.Logger) types.ImageIdentity {
	identity, err := o.identity.Discover(ctx, image)
	if err == nil {
		logger.Debug().Int("uid", identity.UID).Int("gid", identity.GID).Str("user", identity.Username).Msg("discovered image identity")
		return identity
	}
	if errors.Is(err, exec.ErrNotFound) {
		logger.Warn().Err(err).Msg("runtime CLI unavailable, using default identity")
	} else {
		logger.Warn().Err(err).Msg("identity discovery failed, using default identity")
	}
	return DefaultIdentity
}

func (o *Orchestrator) saveHistory(record *types.DeploymentRecord, logger zerolog.Logger) {
	if o.history == nil {
		return
	}
	if err := o.history.SaveDeployment(record); err != nil {
		logger.Error().Err(err).Msg("failed to save deployment record")
	}
}
