// Package core provides the business logic for dataset profiling and
// version comparison.
//
// This package is the seam between the pure computation packages and the
// outside world: it owns ingestion, persistence, and diff orchestration,
// independent of any transport. Web handlers and CLI commands call it
// without modification.
//
// # Ingest
//
// An upload flows through [Service.Ingest]:
//
//  1. The reader is wrapped with BOM skipping and UTF-8 sanitization.
//  2. The payload is parsed into a table (delimiter sniffed when needed).
//  3. A profile is computed over the full row set.
//  4. The version row, raw payload, and profile JSON are persisted.
//
// Concurrency is bounded by [ProfilingLimiter]; requests that cannot get a
// slot within the configured wait receive [ErrTooManyRuns].
//
// # Diff
//
// [Service.Diff] compares two stored versions. Results are memoized per
// (base, compare) pair and concurrent requests for the same pair share one
// computation. A side that is missing or never profiled yields an
// unavailable result rather than an error.
//
// # Error Handling
//
// Technical errors are mapped to user-facing messages using [MapError].
// Each category has a unique code for support reference:
//
//   - DB001-DB004: Database errors (connectivity, timeouts)
//   - PARSE001-PARSE003: Parse errors (empty input, malformed rows)
//   - FILE001-FILE003: File errors (size, missing, empty)
//   - VER001-VER002: Version errors (not found, not ready)
//   - ING001-ING003: Ingest errors (busy, cancelled, timed out)
package core
