// Package services implements the HTTP client for the remote wardrobe server.
//
// # Collections
//
// The server holds two collections per user: the main wardrobe, partitioned by clothing category,
// and the single-bucket "wannabe" board. [WardrobeClient.Collection] returns a [Collection] for a
// [models.PageKind]; both kinds share list, upload and delete and differ only in endpoints and in
// whether a category is sent.
//
// # Normalization
//
// List responses are accepted as {"images": [...]} or as a bare array. Each item's identifier is
// its "path" (or "url") field and is kept verbatim for delete requests. The display URL is made
// absolute against the configured base URL.
//
// # Error Handling
//
// Input problems are reported as [shared.ErrValidation] before any request is made. Remote failures
// are [*RequestError] values that match [shared.ErrLoadFailed], [shared.ErrUploadFailed] or
// [shared.ErrDeleteFailed] and carry a [FailureKind]:
//   - [KindTransport] : server unreachable, retried for list calls
//   - [KindDecode] : response was not JSON, never retried
//   - [KindStatus] : non-2xx response, retried for list calls only on 5xx
//   - [KindRejected] : 2xx response whose status was not "ok"
//
// # Images
//
// [ImagePreparer] downscales oversized photos and re-encodes them as JPEG before upload.
package services
