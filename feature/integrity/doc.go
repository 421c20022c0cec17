// Package integrity provides health checks of the infrastructure the
// reconciler writes to.
//
// # Checks Provided
//
//   - Schema: Compares the canonical inventory tables with the models and
//     lists missing tables and columns. Fixing migrates the tables and seeds
//     the net type vocabulary.
//   - Bucket: Checks that the run-report bucket exists. Fixing creates it.
//     The check is skipped when archiving is disabled.
//
// # HTTP Endpoints
//
//   - GET /integrity : Runs all checks.
//   - GET /integrity/schema : Runs the schema check (supports ?fix=true).
//   - GET /integrity/bucket : Runs the bucket check (supports ?fix=true).
package integrity
