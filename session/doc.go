// Package session owns the current document of one editing session and
// admits loads and edits one at a time.
//
// A session moves between four states:
//
//	Empty -> Loading -> Ready -> Mutating -> Ready
//
// A failed load returns to the state it started from and a failed edit
// returns to Ready with the previous snapshot. Requests that arrive while
// a load or edit is in flight fail with [ErrBusy] instead of waiting.
//
// Callers observe the session through [Session.Snapshot] or by
// subscribing to change notifications with [Session.Subscribe]. Both hand
// out immutable document snapshots, never the session's own state.
package session
