package runtime

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/hutchdb/hutch/pkg/types"
)

// dockerCreateResponse is the Docker Engine create envelope.
type dockerCreateResponse struct {
	ID       string   `json:"Id"`
	Warnings []string `json:"Warnings"`
}

// podmanCreateResponse is the libpod create envelope.
type podmanCreateResponse struct {
	ID       string   `json:"id"`
	Warnings []string `json:"warnings"`
}

// decodeCreateResponse resolves the dialect's native create envelope
// into the canonical CreateResult.
func decodeCreateResponse(dialect types.Dialect, body []byte) (CreateResult, error) {
	if dialect == types.DialectPodman {
		var env podmanCreateResponse
		if err := json.Unmarshal(body, &env); err != nil {
			return CreateResult{}, &DecodeError{Reason: "create response: " + err.Error()}
		}
		return CreateResult{ID: env.ID, Warnings: env.Warnings}, nil
	}
	var env dockerCreateResponse
	if err := json.Unmarshal(body, &env); err != nil {
		return CreateResult{}, &DecodeError{Reason: "create response: " + err.Error()}
	}
	return CreateResult{ID: env.ID, Warnings: env.Warnings}, nil
}

// containerSummary covers the list entry shape of both dialects.
// Fields the runtime omits or renders differently degrade to safe
// defaults instead of failing the decode, so loosely typed fields stay
// loose on purpose.
type containerSummary struct {
	ID      string            `json:"Id"`
	Names   []string          `json:"Names"`
	Image   string            `json:"Image"`
	State   string            `json:"State"`
	Status  string            `json:"Status"`
	Created any               `json:"Created"`
	Labels  map[string]string `json:"Labels"`
	Ports   []summaryPort     `json:"Ports"`
	Mounts  json.RawMessage   `json:"Mounts"`

	NetworkSettings *struct {
		Networks map[string]json.RawMessage `json:"Networks"`
	} `json:"NetworkSettings"`
	Networks []string `json:"Networks"` // libpod puts them at top level
}

// summaryPort tolerates both the Docker Engine casing (PrivatePort,
// PublicPort) and the libpod casing (container_port, host_port).
type summaryPort struct {
	PrivatePort   int    `json:"PrivatePort"`
	PublicPort    int    `json:"PublicPort"`
	Type          string `json:"Type"`
	ContainerPort int    `json:"container_port"`
	HostPort      int    `json:"host_port"`
	Protocol      string `json:"protocol"`
}

// dockerSummaryMount is the Docker Engine mount entry; libpod renders
// mounts as a plain string list instead.
type dockerSummaryMount struct {
	Source      string `json:"Source"`
	Destination string `json:"Destination"`
	RW          bool   `json:"RW"`
}

// decodeContainerList normalizes a container list response from either
// dialect into canonical container records.
func decodeContainerList(dialect types.Dialect, body []byte) ([]types.Container, error) {
	var summaries []containerSummary
	if err := json.Unmarshal(body, &summaries); err != nil {
		return nil, &DecodeError{Reason: "container list: " + err.Error()}
	}
	containers := make([]types.Container, 0, len(summaries))
	for i := range summaries {
		containers = append(containers, normalizeSummary(dialect, &summaries[i]))
	}
	return containers, nil
}

func normalizeSummary(dialect types.Dialect, s *containerSummary) types.Container {
	c := types.Container{
		ID:        s.ID,
		Name:      firstName(s.Names),
		Image:     s.Image,
		State:     NormalizeState(s.State),
		Status:    s.Status,
		CreatedAt: toTime(s.Created),
		Labels:    s.Labels,
	}
	if c.Labels == nil {
		c.Labels = map[string]string{}
	}

	for _, p := range s.Ports {
		pb := types.PortBinding{
			ContainerPort: p.PrivatePort,
			HostPort:      p.PublicPort,
			Protocol:      p.Type,
		}
		if pb.ContainerPort == 0 {
			pb.ContainerPort = p.ContainerPort
			pb.HostPort = p.HostPort
			pb.Protocol = p.Protocol
		}
		if pb.Protocol == "" {
			pb.Protocol = "tcp"
		}
		if pb.ContainerPort != 0 {
			c.Ports = append(c.Ports, pb)
		}
	}

	c.Mounts = normalizeMounts(dialect, s.Mounts)

	if s.NetworkSettings != nil {
		for name := range s.NetworkSettings.Networks {
			c.Networks = append(c.Networks, name)
		}
	}
	c.Networks = append(c.Networks, s.Networks...)

	return c
}

func normalizeMounts(dialect types.Dialect, raw json.RawMessage) []types.Mount {
	if len(raw) == 0 {
		return nil
	}
	if dialect == types.DialectPodman {
		// libpod list entries carry mount destinations only.
		var targets []string
		if err := json.Unmarshal(raw, &targets); err == nil {
			mounts := make([]types.Mount, 0, len(targets))
			for _, t := range targets {
				mounts = append(mounts, types.Mount{Target: t})
			}
			return mounts
		}
		// Some libpod versions emit the object form; fall through.
	}
	var entries []dockerSummaryMount
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil
	}
	mounts := make([]types.Mount, 0, len(entries))
	for _, m := range entries {
		mounts = append(mounts, types.Mount{Source: m.Source, Target: m.Destination, ReadOnly: !m.RW})
	}
	return mounts
}

// containerInspect covers the inspect shape, which both dialects render
// with the same capitalized keys.
type containerInspect struct {
	ID      string `json:"Id"`
	Name    string `json:"Name"`
	Created string `json:"Created"`
	State   *struct {
		Status string `json:"Status"`
	} `json:"State"`
	Config *struct {
		Image  string            `json:"Image"`
		Labels map[string]string `json:"Labels"`
	} `json:"Config"`
	Mounts          []dockerSummaryMount `json:"Mounts"`
	NetworkSettings *struct {
		Networks map[string]json.RawMessage `json:"Networks"`
		Ports    map[string][]struct {
			HostPort string `json:"HostPort"`
		} `json:"Ports"`
	} `json:"NetworkSettings"`
}

// decodeContainerInspect normalizes a single-container inspect
// response. Both dialects render inspect with the same capitalized
// keys, so no dialect split is needed here.
func decodeContainerInspect(body []byte) (*types.Container, error) {
	var ins containerInspect
	if err := json.Unmarshal(body, &ins); err != nil {
		return nil, &DecodeError{Reason: "container inspect: " + err.Error()}
	}

	c := &types.Container{
		ID:        ins.ID,
		Name:      strings.TrimPrefix(ins.Name, "/"),
		State:     types.ContainerStateUnknown,
		CreatedAt: toTime(ins.Created),
		Labels:    map[string]string{},
	}
	if ins.State != nil {
		c.State = NormalizeState(ins.State.Status)
		c.Status = ins.State.Status
	}
	if ins.Config != nil {
		c.Image = ins.Config.Image
		if ins.Config.Labels != nil {
			c.Labels = ins.Config.Labels
		}
	}
	for _, m := range ins.Mounts {
		c.Mounts = append(c.Mounts, types.Mount{Source: m.Source, Target: m.Destination, ReadOnly: !m.RW})
	}
	if ins.NetworkSettings != nil {
		for name := range ins.NetworkSettings.Networks {
			c.Networks = append(c.Networks, name)
		}
		for portKey, bindings := range ins.NetworkSettings.Ports {
			cp, proto, _ := strings.Cut(portKey, "/")
			for _, b := range bindings {
				c.Ports = append(c.Ports, types.PortBinding{
					ContainerPort: atoiSafe(cp),
					HostPort:      atoiSafe(b.HostPort),
					Protocol:      proto,
				})
			}
		}
	}
	return c, nil
}

// NormalizeState maps the assorted state strings both runtimes emit
// onto the canonical lifecycle states.
func NormalizeState(s string) types.ContainerState {
	switch strings.ToLower(s) {
	case "running", "up":
		return types.ContainerStateRunning
	case "exited", "stopped", "created", "dead", "configured":
		return types.ContainerStateStopped
	case "paused":
		return types.ContainerStatePaused
	case "restarting":
		return types.ContainerStateRestarting
	default:
		return types.ContainerStateUnknown
	}
}

// toTime converts the creation timestamp, which arrives as a unix
// epoch number from list responses and as RFC3339 text from inspect
// responses. Anything unreadable degrades to the zero time.
func toTime(v any) time.Time {
	switch t := v.(type) {
	case float64:
		return time.Unix(int64(t), 0).UTC()
	case string:
		if ts, err := time.Parse(time.RFC3339Nano, t); err == nil {
			return ts.UTC()
		}
	}
	return time.Time{}
}

func firstName(names []string) string {
	if len(names) == 0 {
		return ""
	}
	return strings.TrimPrefix(names[0], "/")
}

func atoiSafe(s string) int {
	n := 0
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0
		}
		n = n*10 + int(r-'0')
	}
	return n
}
