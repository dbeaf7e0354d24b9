package runtime

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/hutchdb/hutch/pkg/types"
)

// CreateSpec is the abstract container specification handed to the
// translator. The translator rewrites it into whichever body shape the
// endpoint's dialect expects; nothing dialect-specific leaks past this
// boundary.
type CreateSpec struct {
	Name   string
	Image  string
	Env    []string // KEY=VALUE entries
	Labels map[string]string
	Port   *types.PortBinding
	Binds  []string // host:container bind mounts
}

// CreateResult is the canonical create-response envelope, normalized
// from either dialect's native field casing.
type CreateResult struct {
	ID       string
	Warnings []string
}

// The request builders below are pure mappings: given the same dialect
// and parameters they always emit the same request shape.

func listContainersRequest(e Endpoint, all bool) request {
	q := url.Values{}
	if all {
		q.Set("all", "true")
	}
	return request{Method: "GET", Path: withQuery(e.apiPrefix()+"/containers/json", q)}
}

func inspectContainerRequest(e Endpoint, id string) request {
	return request{Method: "GET", Path: e.apiPrefix() + "/containers/" + url.PathEscape(id) + "/json"}
}

// createContainerRequest encodes the dialect split for container
// creation: the Docker Engine dialect takes the name as a query
// parameter plus a lower-case name field in the body, the libpod
// dialect takes an upper-case Name body field and no query parameter.
func createContainerRequest(e Endpoint, spec CreateSpec) (request, error) {
	var body any
	path := e.apiPrefix() + "/containers/create"

	switch e.Dialect {
	case types.DialectDocker:
		q := url.Values{}
		q.Set("name", spec.Name)
		path = withQuery(path, q)
		body = dockerCreateBody(spec)
	case types.DialectPodman:
		body = podmanCreateBody(spec)
	default:
		return request{}, &DialectError{Dialect: e.Dialect, Op: "create container"}
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return request{}, fmt.Errorf("failed to encode container spec: %w", err)
	}
	return request{
		Method:  "POST",
		Path:    path,
		Headers: map[string]string{"Content-Type": "application/json"},
		Body:    payload,
	}, nil
}

func startContainerRequest(e Endpoint, id string) request {
	return request{Method: "POST", Path: e.apiPrefix() + "/containers/" + url.PathEscape(id) + "/start"}
}

func stopContainerRequest(e Endpoint, id string) request {
	return request{Method: "POST", Path: e.apiPrefix() + "/containers/" + url.PathEscape(id) + "/stop"}
}

func restartContainerRequest(e Endpoint, id string) request {
	return request{Method: "POST", Path: e.apiPrefix() + "/containers/" + url.PathEscape(id) + "/restart"}
}

func removeContainerRequest(e Endpoint, id string, force bool) request {
	q := url.Values{}
	if force {
		q.Set("force", "true")
	}
	return request{Method: "DELETE", Path: withQuery(e.apiPrefix()+"/containers/"+url.PathEscape(id), q)}
}

// pullImageRequest encodes the pull parameter split: fromImage/tag for
// the Docker Engine dialect, a single reference for libpod.
func pullImageRequest(e Endpoint, image, tag string) request {
	if tag == "" {
		tag = "latest"
	}
	q := url.Values{}
	var path string
	if e.Dialect == types.DialectPodman {
		q.Set("reference", image+":"+tag)
		path = e.apiPrefix() + "/images/pull"
	} else {
		q.Set("fromImage", image)
		q.Set("tag", tag)
		path = e.apiPrefix() + "/images/create"
	}
	return request{Method: "POST", Path: withQuery(path, q)}
}

func containerLogsRequest(e Endpoint, id string, tail int) request {
	q := url.Values{}
	q.Set("stdout", "true")
	q.Set("stderr", "true")
	if tail > 0 {
		q.Set("tail", strconv.Itoa(tail))
	}
	return request{Method: "GET", Path: withQuery(e.apiPrefix()+"/containers/"+url.PathEscape(id)+"/logs", q)}
}

func containerStatsRequest(e Endpoint, id string) request {
	q := url.Values{}
	q.Set("stream", "false")
	return request{Method: "GET", Path: withQuery(e.apiPrefix()+"/containers/"+url.PathEscape(id)+"/stats", q)}
}

func infoRequest(e Endpoint) request {
	return request{Method: "GET", Path: e.apiPrefix() + "/info"}
}

// dockerCreateBody emits the Docker Engine create shape: capitalized
// config fields with port bindings and binds under HostConfig.
func dockerCreateBody(spec CreateSpec) map[string]any {
	body := map[string]any{
		"name":   spec.Name,
		"Image":  spec.Image,
		"Env":    spec.Env,
		"Labels": spec.Labels,
	}

	hostConfig := map[string]any{}
	if spec.Port != nil {
		portKey := fmt.Sprintf("%d/%s", spec.Port.ContainerPort, protocolOf(spec.Port))
		body["ExposedPorts"] = map[string]any{portKey: map[string]any{}}
		hostConfig["PortBindings"] = map[string]any{
			portKey: []map[string]string{{
				"HostIp":   "0.0.0.0",
				"HostPort": strconv.Itoa(spec.Port.HostPort),
			}},
		}
	}
	if len(spec.Binds) > 0 {
		hostConfig["Binds"] = spec.Binds
	}
	if len(hostConfig) > 0 {
		body["HostConfig"] = hostConfig
	}
	return body
}

// podmanCreateBody emits the libpod create shape: lower-case spec
// fields, env as a map and explicit port mappings.
func podmanCreateBody(spec CreateSpec) map[string]any {
	env := make(map[string]string, len(spec.Env))
	for _, entry := range spec.Env {
		k, v, ok := strings.Cut(entry, "=")
		if !ok {
			continue
		}
		env[k] = v
	}

	body := map[string]any{
		"Name":   spec.Name,
		"image":  spec.Image,
		"env":    env,
		"labels": spec.Labels,
	}
	if spec.Port != nil {
		body["portmappings"] = []map[string]any{{
			"container_port": spec.Port.ContainerPort,
			"host_port":      spec.Port.HostPort,
			"protocol":       protocolOf(spec.Port),
		}}
	}
	if len(spec.Binds) > 0 {
		mounts := make([]map[string]any, 0, len(spec.Binds))
		for _, bind := range spec.Binds {
			src, dst, ok := strings.Cut(bind, ":")
			if !ok {
				continue
			}
			mounts = append(mounts, map[string]any{
				"type":        "bind",
				"source":      src,
				"destination": dst,
			})
		}
		body["mounts"] = mounts
	}
	return body
}

func protocolOf(p *types.PortBinding) string {
	if p.Protocol == "" {
		return "tcp"
	}
	return p.Protocol
}

func withQuery(path string, q url.Values) string {
	if len(q) == 0 {
		return path
	}
	return path + "?" + q.Encode()
}
