package integrity

import (
	"errors"

	"inventory-reconciler/core/logger"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Handler handles HTTP requests for integrity checks.
type Handler struct {
	service *Service
}

// NewHandler creates a new HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes registers the integrity routes.
func (h *Handler) RegisterRoutes(app fiber.Router) {
	group := app.Group("/integrity")
	group.Get("/", h.HandleIntegrityCheck)
	group.Get("/schema", h.HandleSchemaCheck)
	group.Get("/bucket", h.HandleBucketCheck)
}

// HandleIntegrityCheck runs every check without fixing anything.
func (h *Handler) HandleIntegrityCheck(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)
	l.Info("Triggering all integrity checks")

	ctx := c.UserContext()
	report := make(map[string]any)

	if drift, err := h.service.CheckSchema(ctx); err != nil {
		report["schema"] = fiber.Map{"status": "error", "error": err.Error()}
	} else {
		report["schema"] = fiber.Map{"status": "ok", "drift": drift}
	}

	exists, err := h.service.CheckBucket(ctx)
	switch {
	case errors.Is(err, ErrArchiveDisabled):
		report["bucket"] = fiber.Map{"status": "disabled"}
	case err != nil:
		report["bucket"] = fiber.Map{"status": "error", "error": err.Error()}
	default:
		report["bucket"] = fiber.Map{"status": "ok", "bucket": h.service.Bucket(), "exists": exists}
	}

	return c.JSON(report)
}

// HandleSchemaCheck checks and optionally migrates the inventory tables.
func (h *Handler) HandleSchemaCheck(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)
	fix := c.Query("fix") == "true"

	drift, err := h.service.CheckSchema(c.UserContext())
	if err != nil {
		l.Error("Schema check failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	if len(drift) > 0 {
		l.Warn("Schema drift detected", zap.Int("tables", len(drift)))

		if fix {
			if err := h.service.FixSchema(c.UserContext()); err != nil {
				return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
					"error":   "Failed to migrate schema",
					"details": err.Error(),
					"drift":   drift,
				})
			}
			return c.JSON(fiber.Map{
				"status": "fixed",
				"fixed":  drift,
			})
		}
	}

	return c.JSON(fiber.Map{
		"status": "checked",
		"drift":  drift,
	})
}

// HandleBucketCheck checks and optionally creates the run-report bucket.
func (h *Handler) HandleBucketCheck(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)
	fix := c.Query("fix") == "true"

	exists, err := h.service.CheckBucket(c.UserContext())
	if errors.Is(err, ErrArchiveDisabled) {
		return c.JSON(fiber.Map{"status": "disabled"})
	}
	if err != nil {
		l.Error("Bucket check failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	if !exists && fix {
		if err := h.service.FixBucket(c.UserContext()); err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error":   "Failed to create bucket",
				"details": err.Error(),
			})
		}
		return c.JSON(fiber.Map{"status": "fixed", "bucket": h.service.Bucket()})
	}

	return c.JSON(fiber.Map{
		"status": "checked",
		"bucket": h.service.Bucket(),
		"exists": exists,
	})
}
