// Package metrics exposes reconciliation counters through OpenTelemetry.
package metrics
