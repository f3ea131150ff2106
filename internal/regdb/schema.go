// Package regdb is the registry's relational model (spec.md §3/§4.3):
// organizations, entries, versions, files, dependency edges, the version
// mapping table, ingestion jobs, entity-specific metadata, and the
// denormalized search projection. Handlers own their inline SQL and
// transactions against a *sql.DB/*sql.Tx; per spec.md §9 there is
// deliberately no shared "DB layer" base type.
package regdb

import _ "embed"

//go:embed schema.sql
var Schema string
