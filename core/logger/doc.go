// Package logger provides a structured logging facility based on Zap.
//
// It offers a configured logger instance that supports different environments
// (development vs production) and attaches correlation fields: WithRayID for
// HTTP requests served by Fiber and WithRun for reconciliation runs.
//
// # Usage
//
//	log, _ := logger.New(&logger.Config{Level: "info"})
//	runLog := logger.WithRun(log, report.RunID, "gw1.example.org")
//	runLog.Info("commit finished")
package logger
