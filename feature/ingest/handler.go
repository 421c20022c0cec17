package ingest

import (
	"bytes"
	"context"
	"errors"

	"inventory-reconciler/core/logger"
	"inventory-reconciler/core/reconcile"
	"inventory-reconciler/feature/archive"
	"inventory-reconciler/feature/facts"
	"inventory-reconciler/feature/poller"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Runner commits one facts document.
type Runner interface {
	Run(ctx context.Context, doc *facts.Document) (*reconcile.Report, error)
}

// History reads archived run reports.
type History interface {
	List(ctx context.Context, subject string) ([]archive.Entry, error)
	Load(ctx context.Context, subject, runID string) (*reconcile.Report, error)
}

// Handler handles HTTP requests for commit runs.
type Handler struct {
	runner   Runner
	registry *reconcile.Registry
	history  History
	logger   *zap.Logger
}

// NewHandler creates a new HTTP handler. history may be nil when archiving
// is disabled.
func NewHandler(runner Runner, registry *reconcile.Registry, history History, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{runner: runner, registry: registry, history: history, logger: logger}
}

// RegisterRoutes registers the ingest routes.
func (h *Handler) RegisterRoutes(app fiber.Router) {
	app.Get("/health", h.HandleHealth)
	app.Get("/registry/order", h.HandleOrder)

	group := app.Group("/devices/:sysname/runs")
	group.Post("/", h.HandleCommit)
	if h.history != nil {
		group.Get("/", h.HandleListRuns)
		group.Get("/:run", h.HandleGetRun)
	}
}

// HandleHealth reports that the server is up.
func (h *Handler) HandleHealth(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok"})
}

// HandleOrder returns the commit order and the dependencies of every type.
func (h *Handler) HandleOrder(c *fiber.Ctx) error {
	deps := make(map[reconcile.TypeName][]reconcile.TypeName)
	for _, t := range h.registry.Order() {
		deps[t] = h.registry.Dependencies(t)
	}
	return c.JSON(fiber.Map{
		"subject":      h.registry.Subject(),
		"order":        h.registry.Order(),
		"dependencies": deps,
	})
}

// HandleCommit stages the uploaded facts document and commits it.
// The body is YAML or JSON, see facts.Document.
func (h *Handler) HandleCommit(c *fiber.Ctx) error {
	sysname := c.Params("sysname")
	l := logger.WithRayID(h.logger, c).With(zap.String("sysname", sysname))

	doc, err := facts.Decode(bytes.NewReader(c.Body()))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	if doc.Sysname == "" {
		doc.Sysname = sysname
	}
	if doc.Sysname != sysname {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "document sysname " + doc.Sysname + " does not match path",
		})
	}

	report, err := h.runner.Run(c.UserContext(), doc)
	if err != nil {
		status := statusOf(err)
		if status == fiber.StatusInternalServerError {
			l.Error("Commit run failed", zap.Error(err))
		} else {
			l.Warn("Commit run rejected", zap.Error(err))
		}
		body := fiber.Map{"error": err.Error()}
		if report != nil {
			body["report"] = report
		}
		return c.Status(status).JSON(body)
	}

	l.Info("Commit run finished",
		zap.String("run_id", report.RunID),
		zap.Int("writes", report.Writes()),
		zap.Duration("duration", report.Duration),
	)
	return c.JSON(report)
}

// HandleListRuns lists the archived reports of a netbox, newest first.
func (h *Handler) HandleListRuns(c *fiber.Ctx) error {
	entries, err := h.history.List(c.UserContext(), c.Params("sysname"))
	if err != nil {
		logger.WithRayID(h.logger, c).Error("Listing run reports failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(entries)
}

// HandleGetRun returns one archived report.
func (h *Handler) HandleGetRun(c *fiber.Ctx) error {
	report, err := h.history.Load(c.UserContext(), c.Params("sysname"), c.Params("run"))
	if errors.Is(err, archive.ErrNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error()})
	}
	if err != nil {
		logger.WithRayID(h.logger, c).Error("Loading run report failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(report)
}

func statusOf(err error) int {
	switch {
	case errors.Is(err, facts.ErrInvalidDocument), errors.Is(err, reconcile.ErrUnknownType):
		return fiber.StatusBadRequest
	case errors.Is(err, poller.ErrUnknownNetbox):
		return fiber.StatusNotFound
	case errors.Is(err, reconcile.ErrRunInProgress):
		return fiber.StatusConflict
	default:
		return fiber.StatusInternalServerError
	}
}
