// Package tasks runs upload batches with real-time progress reporting.
//
// # Upload Batches
//
// [UploadEngine.Run] uploads the files of an [UploadBatch] strictly one after another. Each file
// succeeds or fails on its own; the returned [models.UploadTally] counts both and lists the
// failure reason per file. Nothing is rolled back because the server offers no transaction.
//
// Cancellation is checked between files. A cancelled batch still returns an accurate tally, with
// the files that were never attempted counted as cancelled.
//
// An optional [rate.Limiter] paces requests so a large batch does not flood the server.
//
// # Progress Reporting
//
// The [ProgressUpdate] struct contains phase, step counters, messages, and optional data for advanced UI rendering.
// Updates use select with default to prevent blocking.
//
// # Upload History
//
// The optional [UploadRecorder] interface persists each outcome (repositories.UploadRecorder).
// Recording errors are logged and never affect the batch.
package tasks
