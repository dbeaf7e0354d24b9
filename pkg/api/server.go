package api

import (
	"context"
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/rs/zerolog"

	"github.com/hutchdb/hutch/pkg/deploy"
	"github.com/hutchdb/hutch/pkg/log"
	"github.com/hutchdb/hutch/pkg/metrics"
	"github.com/hutchdb/hutch/pkg/runtime"
	"github.com/hutchdb/hutch/pkg/types"
)

// ContainerService is the slice of the runtime gateway the API exposes.
type ContainerService interface {
	ListContainers(ctx context.Context, all bool) ([]types.Container, error)
	InspectContainer(ctx context.Context, id string) (*types.Container, error)
	StartContainer(ctx context.Context, id string) error
	StopContainer(ctx context.Context, id string) error
	RestartContainer(ctx context.Context, id string) error
	RemoveContainer(ctx context.Context, id string, force bool) error
	ContainerLogs(ctx context.Context, id string, tail int) ([]string, error)
	ContainerStats(ctx context.Context, id string) (*types.StatsSnapshot, error)
	Info(ctx context.Context) (runtime.Result, error)
}

// Deployer runs provisioning requests.
type Deployer interface {
	Deploy(ctx context.Context, req *types.DeployRequest) (*types.DeploymentRecord, error)
}

// History reads persisted deployment records.
type History interface {
	ListDeployments() ([]*types.DeploymentRecord, error)
	GetDeployment(id string) (*types.DeploymentRecord, error)
}

// DirLister lists directories for the storage-path picker in the UI.
type DirLister interface {
	ListSubdirs(path string) ([]string, error)
}

// Server is the HTTP/JSON surface consumed by the browser UI.
type Server struct {
	app        *fiber.App
	containers ContainerService
	deployer   Deployer
	history    History
	dirs       DirLister
	logger     zerolog.Logger
}

// NewServer wires the API routes. history and dirs may be nil, which
// disables the corresponding endpoints.
func NewServer(containers ContainerService, deployer Deployer, history History, dirs DirLister) *Server {
	s := &Server{
		app:        fiber.New(fiber.Config{DisableStartupMessage: true}),
		containers: containers,
		deployer:   deployer,
		history:    history,
		dirs:       dirs,
		logger:     log.WithComponent("api"),
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.app.Get("/healthz", s.handleHealth)
	s.app.Get("/metrics", adaptor.HTTPHandler(metrics.Handler()))

	v1 := s.app.Group("/api/v1")
	v1.Get("/info", s.handleInfo)
	v1.Get("/containers", s.handleListContainers)
	v1.Get("/containers/:id", s.handleGetContainer)
	v1.Post("/containers/:id/start", s.handleStartContainer)
	v1.Post("/containers/:id/stop", s.handleStopContainer)
	v1.Post("/containers/:id/restart", s.handleRestartContainer)
	v1.Delete("/containers/:id", s.handleRemoveContainer)
	v1.Get("/containers/:id/logs", s.handleContainerLogs)
	v1.Get("/containers/:id/stats", s.handleContainerStats)
	v1.Post("/deployments", s.handleDeploy)
	v1.Get("/deployments", s.handleListDeployments)
	v1.Get("/deployments/:id", s.handleGetDeployment)
	v1.Get("/dirs", s.handleListDirs)
}

// Start runs the HTTP server until Stop is called.
func (s *Server) Start(addr string) error {
	s.logger.Info().Str("addr", addr).Msg("API listening")
	return s.app.Listen(addr)
}

// Stop shuts the server down gracefully.
func (s *Server) Stop() error {
	return s.app.Shutdown()
}

// App exposes the fiber app for tests.
func (s *Server) App() *fiber.App { return s.app }

func (s *Server) handleHealth(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok"})
}

func (s *Server) handleInfo(c *fiber.Ctx) error {
	result, err := s.containers.Info(c.Context())
	if err != nil {
		return s.fail(c, err)
	}
	if result.IsParsed() {
		return c.JSON(result.Parsed)
	}
	c.Set("Content-Type", "text/plain")
	return c.SendString(result.Raw)
}

func (s *Server) handleListContainers(c *fiber.Ctx) error {
	all := c.QueryBool("all", true)
	containers, err := s.containers.ListContainers(c.Context(), all)
	if err != nil {
		return s.fail(c, err)
	}
	publishInventory(containers)
	if c.QueryBool("managed", false) {
		managed := make([]types.Container, 0, len(containers))
		for _, ct := range containers {
			if ct.Managed() {
				managed = append(managed, ct)
			}
		}
		containers = managed
	}
	return c.JSON(containers)
}

func (s *Server) handleGetContainer(c *fiber.Ctx) error {
	container, err := s.containers.InspectContainer(c.Context(), c.Params("id"))
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(container)
}

func (s *Server) handleStartContainer(c *fiber.Ctx) error {
	if err := s.containers.StartContainer(c.Context(), c.Params("id")); err != nil {
		return s.fail(c, err)
	}
	return c.JSON(fiber.Map{"status": "started"})
}

func (s *Server) handleStopContainer(c *fiber.Ctx) error {
	if err := s.containers.StopContainer(c.Context(), c.Params("id")); err != nil {
		return s.fail(c, err)
	}
	return c.JSON(fiber.Map{"status": "stopped"})
}

func (s *Server) handleRestartContainer(c *fiber.Ctx) error {
	if err := s.containers.RestartContainer(c.Context(), c.Params("id")); err != nil {
		return s.fail(c, err)
	}
	return c.JSON(fiber.Map{"status": "restarted"})
}

func (s *Server) handleRemoveContainer(c *fiber.Ctx) error {
	force := c.QueryBool("force", false)
	if err := s.containers.RemoveContainer(c.Context(), c.Params("id"), force); err != nil {
		return s.fail(c, err)
	}
	return c.JSON(fiber.Map{"status": "removed"})
}

func (s *Server) handleContainerLogs(c *fiber.Ctx) error {
	tail, err := strconv.Atoi(c.Query("tail", "200"))
	if err != nil || tail < 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid tail value"})
	}
	lines, err := s.containers.ContainerLogs(c.Context(), c.Params("id"), tail)
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(fiber.Map{"lines": lines})
}

func (s *Server) handleContainerStats(c *fiber.Ctx) error {
	stats, err := s.containers.ContainerStats(c.Context(), c.Params("id"))
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(stats)
}

func (s *Server) handleDeploy(c *fiber.Ctx) error {
	var req types.DeployRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}
	if err := req.Validate(); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	record, err := s.deployer.Deploy(c.Context(), &req)
	if err != nil {
		// The record still describes how far the run got; a start
		// failure carries the container id so the UI can offer a
		// retry-start instead of re-creating.
		var se *deploy.StageError
		if errors.As(err, &se) {
			return c.Status(statusFor(err)).JSON(fiber.Map{
				"error":        err.Error(),
				"stage":        se.Stage,
				"container_id": se.ContainerID,
				"deployment":   record,
			})
		}
		return s.fail(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(record)
}

func (s *Server) handleListDeployments(c *fiber.Ctx) error {
	if s.history == nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "deployment history disabled"})
	}
	records, err := s.history.ListDeployments()
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(records)
}

func (s *Server) handleGetDeployment(c *fiber.Ctx) error {
	if s.history == nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "deployment history disabled"})
	}
	record, err := s.history.GetDeployment(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(record)
}

func (s *Server) handleListDirs(c *fiber.Ctx) error {
	if s.dirs == nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "directory browsing disabled"})
	}
	path := c.Query("path", ".")
	names, err := s.dirs.ListSubdirs(path)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(fiber.Map{"path": path, "dirs": names})
}

// publishInventory refreshes the managed-container gauge from a full
// listing.
func publishInventory(containers []types.Container) {
	metrics.ManagedContainers.Reset()
	counts := make(map[[2]string]int)
	for _, ct := range containers {
		if !ct.Managed() {
			continue
		}
		counts[[2]string{ct.Labels[types.LabelDatabaseType], string(ct.State)}]++
	}
	for key, n := range counts {
		metrics.ManagedContainers.WithLabelValues(key[0], key[1]).Set(float64(n))
	}
}

// fail maps gateway and orchestration errors onto HTTP statuses.
func (s *Server) fail(c *fiber.Ctx, err error) error {
	s.logger.Error().Err(err).Str("path", c.Path()).Msg("request failed")
	return c.Status(statusFor(err)).JSON(fiber.Map{"error": err.Error()})
}

func statusFor(err error) int {
	var statusErr *runtime.StatusError
	if errors.As(err, &statusErr) {
		switch statusErr.Code {
		case fiber.StatusNotFound:
			return fiber.StatusNotFound
		case fiber.StatusConflict:
			return fiber.StatusConflict
		}
		return fiber.StatusBadGateway
	}
	if runtime.IsTimeout(err) {
		return fiber.StatusGatewayTimeout
	}
	var transportErr *runtime.TransportError
	var decodeErr *runtime.DecodeError
	if errors.As(err, &transportErr) || errors.As(err, &decodeErr) {
		return fiber.StatusBadGateway
	}
	var stageErr *deploy.StageError
	if errors.As(err, &stageErr) {
		return statusFor(stageErr.Err)
	}
	return fiber.StatusInternalServerError
}
