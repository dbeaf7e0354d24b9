package runtime

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/hutchdb/hutch/pkg/log"
	"github.com/hutchdb/hutch/pkg/metrics"
	"github.com/hutchdb/hutch/pkg/types"
)

// Gateway is the request/response façade over a runtime socket. It
// composes the dialect translator, socket transport, response decoder
// and log demultiplexer into single-shot calls. Gateway calls share no
// mutable state and may be issued concurrently without coordination.
type Gateway struct {
	endpoint Endpoint
	logger   zerolog.Logger
}

// NewGateway builds a gateway for the given socket path. An empty path
// probes the well-known socket locations instead.
func NewGateway(socketPath string) (*Gateway, error) {
	var endpoint Endpoint
	if socketPath == "" {
		var err error
		endpoint, err = DiscoverEndpoint()
		if err != nil {
			return nil, err
		}
	} else {
		endpoint = NewEndpoint(socketPath)
	}
	return &Gateway{
		endpoint: endpoint,
		logger:   log.WithComponent("runtime-gateway"),
	}, nil
}

// Endpoint returns the endpoint this gateway talks to.
func (g *Gateway) Endpoint() Endpoint { return g.endpoint }

// Result is the outcome of decoding a textual response body: either a
// parsed JSON document or, when parsing fails, the sanitized raw text.
// The fallback is a first-class value so callers can still inspect what
// the runtime said; a parse failure is never raised as an error.
type Result struct {
	Parsed map[string]any
	Raw    string
}

// IsParsed reports whether the body decoded as a JSON object.
func (r Result) IsParsed() bool { return r.Parsed != nil }

// invoke performs one socket conversation and decodes the raw bytes.
// Non-2xx statuses become StatusError carrying whatever message text
// the runtime attached.
func (g *Gateway) invoke(ctx context.Context, op string, req request) (*rawResponse, error) {
	start := time.Now()
	raw, err := roundTrip(ctx, g.endpoint, req)
	if err != nil {
		metrics.ObserveGatewayRequest(op, string(g.endpoint.Dialect), "error", time.Since(start))
		return nil, err
	}

	resp, err := decodeResponse(raw)
	if err != nil {
		metrics.ObserveGatewayRequest(op, string(g.endpoint.Dialect), "decode_error", time.Since(start))
		return nil, err
	}
	metrics.ObserveGatewayRequest(op, string(g.endpoint.Dialect), statusClass(resp.StatusCode), time.Since(start))

	g.logger.Debug().
		Str("op", op).
		Str("path", req.Path).
		Int("status", resp.StatusCode).
		Msg("runtime call")

	// 304 means the container was already in the requested state.
	if resp.StatusCode >= 400 {
		return nil, &StatusError{Code: resp.StatusCode, Body: errorMessage(resp.Body)}
	}
	return resp, nil
}

// decodeResult sanitizes a textual body and attempts a JSON parse,
// falling back to the sanitized text. Sanitization here is applied
// again, more aggressively than the decoder's pass, immediately before
// the parse attempt.
func decodeResult(body []byte) Result {
	clean := sanitize(body)
	var parsed map[string]any
	if err := json.Unmarshal(clean, &parsed); err == nil {
		return Result{Parsed: parsed}
	}
	return Result{Raw: string(clean)}
}

// ListContainers returns normalized records for the runtime's
// containers, including stopped ones when all is set.
func (g *Gateway) ListContainers(ctx context.Context, all bool) ([]types.Container, error) {
	resp, err := g.invoke(ctx, "list", listContainersRequest(g.endpoint, all))
	if err != nil {
		return nil, err
	}
	return decodeContainerList(g.endpoint.Dialect, sanitize(resp.Body))
}

// InspectContainer returns the normalized record for one container.
func (g *Gateway) InspectContainer(ctx context.Context, id string) (*types.Container, error) {
	resp, err := g.invoke(ctx, "inspect", inspectContainerRequest(g.endpoint, id))
	if err != nil {
		return nil, err
	}
	return decodeContainerInspect(sanitize(resp.Body))
}

// CreateContainer submits a dialect-correct container specification and
// returns the canonical create envelope.
func (g *Gateway) CreateContainer(ctx context.Context, spec CreateSpec) (CreateResult, error) {
	req, err := createContainerRequest(g.endpoint, spec)
	if err != nil {
		return CreateResult{}, err
	}
	resp, err := g.invoke(ctx, "create", req)
	if err != nil {
		return CreateResult{}, err
	}
	return decodeCreateResponse(g.endpoint.Dialect, sanitize(resp.Body))
}

// StartContainer starts a created or stopped container.
func (g *Gateway) StartContainer(ctx context.Context, id string) error {
	_, err := g.invoke(ctx, "start", startContainerRequest(g.endpoint, id))
	return err
}

// StopContainer stops a running container.
func (g *Gateway) StopContainer(ctx context.Context, id string) error {
	_, err := g.invoke(ctx, "stop", stopContainerRequest(g.endpoint, id))
	return err
}

// RestartContainer restarts a container.
func (g *Gateway) RestartContainer(ctx context.Context, id string) error {
	_, err := g.invoke(ctx, "restart", restartContainerRequest(g.endpoint, id))
	return err
}

// RemoveContainer removes a container from the runtime.
func (g *Gateway) RemoveContainer(ctx context.Context, id string, force bool) error {
	_, err := g.invoke(ctx, "remove", removeContainerRequest(g.endpoint, id, force))
	return err
}

// PullImage pulls repository:tag from a registry. The streamed progress
// chunks are drained but not parsed; only the final status matters.
func (g *Gateway) PullImage(ctx context.Context, image, tag string) error {
	_, err := g.invoke(ctx, "pull", pullImageRequest(g.endpoint, image, tag))
	return err
}

// ContainerLogs fetches up to tail lines of a container's output. The
// body is opaque binary: it bypasses sanitization and goes through the
// frame demultiplexer, which falls back to plain text on its own.
func (g *Gateway) ContainerLogs(ctx context.Context, id string, tail int) ([]string, error) {
	resp, err := g.invoke(ctx, "logs", containerLogsRequest(g.endpoint, id, tail))
	if err != nil {
		return nil, err
	}
	return DemuxLogStream(resp.Body), nil
}

// ContainerStats fetches a one-shot resource usage snapshot.
func (g *Gateway) ContainerStats(ctx context.Context, id string) (*types.StatsSnapshot, error) {
	resp, err := g.invoke(ctx, "stats", containerStatsRequest(g.endpoint, id))
	if err != nil {
		return nil, err
	}
	result := decodeResult(resp.Body)
	if !result.IsParsed() {
		return nil, &DecodeError{Reason: "stats response is not JSON: " + truncate(result.Raw, 64)}
	}
	return normalizeStats(g.endpoint.Dialect, result.Parsed), nil
}

// Info fetches the runtime's info document. The result degrades to raw
// text when the body does not parse.
func (g *Gateway) Info(ctx context.Context) (Result, error) {
	resp, err := g.invoke(ctx, "info", infoRequest(g.endpoint))
	if err != nil {
		return Result{}, err
	}
	return decodeResult(resp.Body), nil
}

// errorMessage extracts the message field both runtimes put in error
// bodies, falling back to the sanitized body text.
func errorMessage(body []byte) string {
	result := decodeResult(body)
	if result.IsParsed() {
		if msg, ok := result.Parsed["message"].(string); ok {
			return msg
		}
	}
	return strings.TrimSpace(result.Raw)
}

func statusClass(code int) string {
	switch {
	case code < 300:
		return "2xx"
	case code < 400:
		return "3xx"
	case code < 500:
		return "4xx"
	default:
		return "5xx"
	}
}
