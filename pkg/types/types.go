package types

import (
	"fmt"
	"time"
)

// Dialect identifies the request/response shape spoken by a runtime socket
type Dialect string

const (
	DialectDocker Dialect = "docker"
	DialectPodman Dialect = "podman"
)

// EngineType identifies a supported database engine
type EngineType string

const (
	EngineMySQL    EngineType = "mysql"
	EnginePostgres EngineType = "postgres"
)

// ContainerState represents the lifecycle state of a container
type ContainerState string

const (
	ContainerStateRunning    ContainerState = "running"
	ContainerStateStopped    ContainerState = "stopped"
	ContainerStatePaused     ContainerState = "paused"
	ContainerStateRestarting ContainerState = "restarting"
	ContainerStateUnknown    ContainerState = "unknown"
)

// Label keys written at creation time and read back to classify a
// container as owned by hutch. A container is managed iff LabelManaged
// is present and equals ManagedMarker exactly.
const (
	LabelManaged      = "hutch.managed"
	LabelDatabaseType = "hutch.database-type"
	LabelDatabaseName = "hutch.database-name"
	LabelDatabasePort = "hutch.database-port"

	ManagedMarker = "true"
)

// PortBinding maps a container port to a host port
type PortBinding struct {
	ContainerPort int    `json:"container_port"`
	HostPort      int    `json:"host_port"`
	Protocol      string `json:"protocol"` // "tcp" or "udp"
}

// Mount describes a bind mount from host to container
type Mount struct {
	Source   string `json:"source"`
	Target   string `json:"target"`
	ReadOnly bool   `json:"read_only"`
}

// Container is the normalized view of a runtime container, built by
// merging the dialect-specific field casings into one canonical shape
type Container struct {
	ID        string            `json:"id"`
	Name      string            `json:"name"`
	Image     string            `json:"image"`
	State     ContainerState    `json:"state"`
	Status    string            `json:"status"`
	Ports     []PortBinding     `json:"ports"`
	CreatedAt time.Time         `json:"created_at"`
	Labels    map[string]string `json:"labels"`
	Mounts    []Mount           `json:"mounts"`
	Networks  []string          `json:"networks"`
}

// Managed reports whether the container carries the hutch ownership marker
func (c *Container) Managed() bool {
	return c.Labels[LabelManaged] == ManagedMarker
}

// DatabaseName returns the logical database name label, if any
func (c *Container) DatabaseName() string {
	return c.Labels[LabelDatabaseName]
}

// DeployRequest describes one database container to provision.
// It is validated before use, consumed once by the orchestrator and
// never persisted.
type DeployRequest struct {
	Engine       EngineType        `json:"engine"`
	Name         string            `json:"name"`
	Version      string            `json:"version"`
	RootPassword string            `json:"root_password"`
	User         string            `json:"user,omitempty"`
	Password     string            `json:"password,omitempty"`
	Database     string            `json:"database,omitempty"`
	HostPort     int               `json:"host_port"`
	DataPath     string            `json:"data_path,omitempty"`
	ExtraEnv     map[string]string `json:"extra_env,omitempty"`
}

// Validate checks the request for fields the orchestrator cannot default
func (r *DeployRequest) Validate() error {
	switch r.Engine {
	case EngineMySQL, EnginePostgres:
	default:
		return fmt.Errorf("unsupported engine type: %q", r.Engine)
	}
	if r.Name == "" {
		return fmt.Errorf("name is required")
	}
	if r.RootPassword == "" {
		return fmt.Errorf("root password is required")
	}
	if r.HostPort <= 0 || r.HostPort > 65535 {
		return fmt.Errorf("host port %d out of range", r.HostPort)
	}
	if r.Version == "" {
		r.Version = "latest"
	}
	return nil
}

// DeploymentStage names one step of the deployment state machine.
// Failures are tagged with the stage they occurred at so the caller can
// distinguish a retryable start failure from everything else.
type DeploymentStage string

const (
	StagePull     DeploymentStage = "pull"
	StageDiscover DeploymentStage = "discover"
	StageStorage  DeploymentStage = "storage"
	StageCreate   DeploymentStage = "create"
	StageStart    DeploymentStage = "start"
	StageDone     DeploymentStage = "done"
)

// DeploymentRecord is the persisted outcome of one orchestration run.
// Credentials from the originating request are never stored.
type DeploymentRecord struct {
	ID          string          `json:"id"`
	Engine      EngineType      `json:"engine"`
	Name        string          `json:"name"`
	Image       string          `json:"image"`
	ContainerID string          `json:"container_id,omitempty"`
	HostPort    int             `json:"host_port"`
	Stage       DeploymentStage `json:"stage"`
	Failed      bool            `json:"failed"`
	Error       string          `json:"error,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	CompletedAt time.Time       `json:"completed_at,omitempty"`
}

// ImageIdentity is the default user a database image runs as,
// discovered by running the image's id command
type ImageIdentity struct {
	UID      int    `json:"uid"`
	GID      int    `json:"gid"`
	Username string `json:"username,omitempty"`
}

// StatsSnapshot is a normalized point-in-time resource usage reading
type StatsSnapshot struct {
	CPUPercent    float64 `json:"cpu_percent"`
	MemoryUsage   uint64  `json:"memory_usage"`
	MemoryLimit   uint64  `json:"memory_limit"`
	MemoryPercent float64 `json:"memory_percent"`
	NetworkRx     uint64  `json:"network_rx"`
	NetworkTx     uint64  `json:"network_tx"`
}
