// Package storage persists the settings aggregate.
//
// The aggregate lives under a single key, settings.StorageKey, and is
// always written whole, so a reader observes either the previous or the
// next record and never a mix of the two.
//
// Two durable backends are provided:
//   - Bolt: a BBolt file with a config bucket (schema version, created and
//     modified timestamps) and a settings bucket holding the JSON record
//   - Postgres: a key/value table with a JSONB value column
//
// Memory is a process-local backend for tests and throwaway daemons.
//
// Read returns the defaults when nothing has been written yet. Records are
// not validated here; the protection package owns the invariants.
package storage
