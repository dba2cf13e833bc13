// Package ui implements an interactive terminal board using bubbletea's Elm architecture.
//
// One [Model] drives one [controller.Controller]:
//  1. [BoardView] : the gallery as a list, with selection (space, a for all), filter cycling and the status line
//  2. [UploadView] : a comma separated path prompt, plus the category on the main board
//  3. [UploadingView] : per-file progress while the batch runs
//  4. [ConfirmDeleteView] : confirm deleting the selected items
//  5. [LoginView] : shown when the board could not sign in
//
// Commands run controller operations off the update loop and report back through the Msg union type.
// Upload progress flows through a channel from the upload engine without blocking it.
// Failed requests are written to the model's logger, which the CLI points at a file.
package ui
