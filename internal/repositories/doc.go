// Package repositories implements SQLite persistence for the wardrobe client's local state.
//
// The wardrobe server owns every item; nothing here caches the remote collection.
//
// Key Implementations:
//   - [SessionRepository] : String key/value rows in the session_store table
//   - [SessionStore] : [models.SessionStore] over the key/value table, plus the cached provider token
//   - [UploadLogRepository] : Per-file upload history grouped by batch
//   - [UploadRecorder] : Adapter that lets the upload engine write to the history
//
// Session entries have no TTL. They remain until explicitly cleared (auth logout).
package repositories
