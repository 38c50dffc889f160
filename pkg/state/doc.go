// Package state persists widget snapshots outside the live session so a
// notebook can be reopened with the same widget table.
//
// Responsibilities:
//   - Store[T] loads, saves, lists and deletes snapshots keyed by Ref.
//   - Resolver[T] runs read-modify-write cycles with ETag checks.
//   - Save and Restore move a whole xplot.Manager table in and out of a
//     Store[Record] through the widget-state document.
//
// Data flow:
//
//	Manager.Export -> Record -> Store -> Record -> WidgetStateDocument -> Manager.Import
//
// Deterministic keys:
//
//	Ref.Identifier() returns `notebook/<notebook>/widget/<widget id>`;
//	ParseIdentifier reverses it.
//
// Concurrency:
//
//	Stores stamp a fresh ETag on every save. Callers that pass the ETag they
//	loaded get ErrETagMismatch when another writer saved in between.
package state
