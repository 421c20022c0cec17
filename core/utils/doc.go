// Package utils provides common utility functions for the inventory reconciler.
// It includes helpers for loose type conversion and value comparison that are
// shared by the storage layer and the reconciliation engine.
package utils
