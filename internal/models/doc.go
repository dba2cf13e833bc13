// Package models defines the domain types shared by the wardrobe client.
//
// The package contains three groups of types:
//
// 1. Remote collection data: what the wardrobe server stores and returns
//   - [WardrobeItem] : One stored image with its category and optional tags
//   - [Category] : The fixed clothing enumeration plus the "all" filter and the wannabe bucket
//
// 2. Session data: the identity a page runs under
//   - [Session] : Opaque user identifier and cosmetic display name
//   - [SessionStore] : Persistence contract for the active session
//
// 3. Page data: what a page controller works with
//   - [PageKind] : Main wardrobe or the single-category wannabe board
//   - [UploadFile] : One file selected for upload
//   - [UploadTally] : Per-file success and failure counts of an upload batch
//   - [UploadRecord] : Local history entry for one uploaded file
//
// The client never owns authoritative state. Items are created and destroyed server-side and every
// local list is replaced wholesale by the latest list response.
package models
