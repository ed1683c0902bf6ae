// Package runner executes batches of department jobs through the
// orchestrator with bounded concurrency, idempotent replay protection and
// retry with exponential backoff.
package runner
