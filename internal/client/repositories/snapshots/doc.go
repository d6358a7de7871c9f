// Package snapshots caches the last settled collection of every resource in
// the local SQLite database, so a screen can still show data when the API is
// unreachable.
//
// Save replaces a resource's rows in one transaction; Load returns them in
// their original order together with the time they were saved.
package snapshots
