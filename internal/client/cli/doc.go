// Package cli provides the interactive admin console.
//
// It wires configuration, the local cache, the REST client and one Screen
// per resource behind a line-oriented REPL. Typical flow: pick a resource
// with "use", browse it with list/search/sort/page, open the drawer with
// add or edit, fill fields with set and attach, then submit.
//
// Key features:
//   - Optimistic create, update and delete with rollback on failure
//   - Reordering of ordered resources with "move"
//   - Offline fallback to the last cached collection
//   - Sidebar counters refreshed in the background
//
// The REPL is started via App.Run(ctx), which blocks until the user exits.
package cli
