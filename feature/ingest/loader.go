// Package ingest exposes commit runs over HTTP.
//
//	POST /devices/:sysname/runs          commit a facts document
//	GET  /devices/:sysname/runs          list archived reports
//	GET  /devices/:sysname/runs/:run     fetch one archived report
//	GET  /registry/order                 commit order of the entity types
//	GET  /health                         liveness
package ingest

import (
	"inventory-reconciler/core/reconcile"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Feature implements the loader.Feature interface.
type Feature struct {
	handler *Handler
}

// NewFeature creates the ingest feature.
func NewFeature(runner Runner, registry *reconcile.Registry, history History, logger *zap.Logger) *Feature {
	return &Feature{handler: NewHandler(runner, registry, history, logger)}
}

// Name returns the name of the feature.
func (f *Feature) Name() string {
	return "ingest"
}

// IsEnabled checks if the feature is enabled.
func (f *Feature) IsEnabled() bool {
	return true
}

// Load registers the feature's routes.
func (f *Feature) Load(app fiber.Router) error {
	f.handler.RegisterRoutes(app)
	return nil
}
