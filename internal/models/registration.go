package models

import "time"

// Registration records which worker script identity currently governs
// a scope. A mismatch against the running version marks the
// registration stale.
type Registration struct {
	Scope          string
	ScriptIdentity string
	RegisteredAt   time.Time
}
