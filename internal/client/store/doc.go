// Package store holds the authoritative local copy of one resource's
// collection and computes derived views (filter, sort, pagination) over it.
//
// The collection is mutated only through intents: ApplyLocal applies an
// intent optimistically and returns the snapshot taken just before it,
// Commit confirms it and Revert rolls it back. A Replace (a fresh load)
// supersedes the local collection; intents issued against an older load are
// reconciled by entity id, never by index.
//
// Store is safe for concurrent use.
package store
