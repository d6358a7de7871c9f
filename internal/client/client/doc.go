// Package client talks to the admin API over HTTP.
//
// # Overview
//
// HTTPClient wraps net/http with the API base URL, an optional bearer token
// and a per-request timeout. Resource binds it to one resources.Schema and
// implements the list/create/update/delete/move calls the mutation and
// reorder layers need. Counts reads the navigation counters.
//
// # Envelope
//
// Successful responses look like {"data": ..., "message": "..."}; some
// endpoints use the resource's list key instead of "data". Failures carry an
// optional "message" that is returned verbatim inside a *common.RemoteError.
// Transport failures wrap common.ErrNetworkFailure.
//
// # Local cache
//
// InitDatabase opens the SQLite snapshot cache and applies the embedded
// goose migrations.
package client
