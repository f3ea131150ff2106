package ingest

import "io"

// Pipeline is the shape every source-specific parser (C5) implements, per
// spec.md §4.5: "discover() -> list<external_version>, fetch(external_version)
// -> byte-stream, parse(stream) -> sequence<record>, store(record-batch,
// internal_version) -> stats, with a thin orchestrator calling them in
// order." Fetch is intentionally absent from this interface: byte-stream
// fetching is a contract-only external collaborator per spec.md §1; each
// pipeline's Parse takes an io.Reader the caller already obtained.
type Pipeline interface {
	// Discover lists upstream external versions, source-specific ordering
	// already applied (see internal/idver.OrderFor).
	Discover() ([]string, error)
	// Parse streams records out of r. limit, when non-negative, caps the
	// number of records parsed — the "parse-limit hook" spec.md §4.5
	// requires for tests. failed counts records that parsed ill-formed and
	// were dropped (spec.md §4.4 ParseError: per-record, not fatal to the
	// file); the caller folds it into the job's records_failed counter.
	Parse(r io.Reader, limit int) (records []Record, failed int, err error)
}
