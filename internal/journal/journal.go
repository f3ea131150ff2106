// Package journal implements the client's tamper-evident audit journal
// (spec.md §4.11): an append-only, hash-chained table in the same SQLite
// catalog internal/cache opens, plus exporters into the regulatory
// formats FDA/NIH/EMA/DAS/raw-JSON name. It generalizes the teacher's
// internal/audit JSONL-append-one-event idiom from a flat file to a
// SQLite table with a running hash chain, using internal/idgen/hash.go's
// SHA-256 content-hash approach for the chain hash itself.
package journal

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"sort"
	"time"

	"github.com/bdp-project/bdp/internal/bdperr"
)

// zeroHash is the prev_hash of the first row in the chain: 32 zero bytes,
// hex-encoded.
var zeroHash = hex.EncodeToString(make([]byte, 32))

// Record is one journal event as recorded to the chain, before the hash
// fields are computed.
type Record struct {
	Seq       int64
	Timestamp time.Time
	MachineID string
	Action    string
	Target    string
	Metadata  map[string]any
}

// Entry is a Record plus its computed chain fields, as read back from the
// journal.
type Entry struct {
	Record
	PrevHash string
	Hash     string
}

// Journal appends audit events to audit_journal and walks/verifies the
// resulting hash chain. It shares the cache.Store's *sql.DB rather than
// opening its own connection, since both tables live in the same
// catalog.db file.
type Journal struct {
	db *sql.DB
}

// Open wraps an already-open catalog database (internal/cache.Store.DB())
// for journal use.
func Open(db *sql.DB) *Journal {
	return &Journal{db: db}
}

// Append records one event, computing its chain hash from the previous
// row's hash. Returns the fully-populated Entry.
func (j *Journal) Append(ctx context.Context, machineID, action, target string, metadata map[string]any) (Entry, error) {
	tx, err := j.db.BeginTx(ctx, nil)
	if err != nil {
		return Entry{}, bdperr.Wrap(bdperr.KindInternal, err, "begin journal append transaction")
	}
	defer tx.Rollback()

	prevHash := zeroHash
	row := tx.QueryRowContext(ctx, `SELECT hash FROM audit_journal ORDER BY seq DESC LIMIT 1`)
	if err := row.Scan(&prevHash); err != nil && err != sql.ErrNoRows {
		return Entry{}, bdperr.Wrap(bdperr.KindInternal, err, "read journal tail hash")
	}

	rec := Record{
		Timestamp: time.Now().UTC(),
		MachineID: machineID,
		Action:    action,
		Target:    target,
		Metadata:  metadata,
	}
	metaJSON, err := canonicalJSON(metadata)
	if err != nil {
		return Entry{}, bdperr.Wrap(bdperr.KindInternal, err, "canonicalize journal metadata")
	}

	res, err := tx.ExecContext(ctx, `
		INSERT INTO audit_journal (timestamp, machine_id, action, target, metadata, prev_hash, hash)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		rec.Timestamp.Format(time.RFC3339Nano), rec.MachineID, rec.Action, rec.Target, string(metaJSON), prevHash, "")
	if err != nil {
		return Entry{}, bdperr.Wrap(bdperr.KindInternal, err, "insert journal row")
	}
	seq, err := res.LastInsertId()
	if err != nil {
		return Entry{}, bdperr.Wrap(bdperr.KindInternal, err, "read journal row id")
	}
	rec.Seq = seq

	hash, err := computeHash(prevHash, seq, rec.Timestamp, rec.MachineID, rec.Action, rec.Target, metaJSON)
	if err != nil {
		return Entry{}, err
	}
	if _, err := tx.ExecContext(ctx, `UPDATE audit_journal SET hash = ? WHERE seq = ?`, hash, seq); err != nil {
		return Entry{}, bdperr.Wrap(bdperr.KindInternal, err, "write journal row hash")
	}
	if err := tx.Commit(); err != nil {
		return Entry{}, bdperr.Wrap(bdperr.KindInternal, err, "commit journal append")
	}

	return Entry{Record: rec, PrevHash: prevHash, Hash: hash}, nil
}

// List returns every entry in seq order.
func (j *Journal) List(ctx context.Context) ([]Entry, error) {
	rows, err := j.db.QueryContext(ctx, `
		SELECT seq, timestamp, machine_id, action, target, metadata, prev_hash, hash
		FROM audit_journal ORDER BY seq ASC`)
	if err != nil {
		return nil, bdperr.Wrap(bdperr.KindInternal, err, "list journal entries")
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var e Entry
		var ts, metaRaw string
		if err := rows.Scan(&e.Seq, &ts, &e.MachineID, &e.Action, &e.Target, &metaRaw, &e.PrevHash, &e.Hash); err != nil {
			return nil, bdperr.Wrap(bdperr.KindInternal, err, "scan journal entry")
		}
		e.Timestamp, err = time.Parse(time.RFC3339Nano, ts)
		if err != nil {
			return nil, bdperr.Wrap(bdperr.KindInternal, err, "parse journal entry timestamp")
		}
		if metaRaw != "" {
			if err := json.Unmarshal([]byte(metaRaw), &e.Metadata); err != nil {
				return nil, bdperr.Wrap(bdperr.KindInternal, err, "parse journal entry metadata")
			}
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// VerifyResult reports the outcome of a chain walk.
type VerifyResult struct {
	OK            bool
	Entries       int
	FirstMismatch int64 // 0 if OK
}

// Verify walks the chain and recomputes each entry's hash, returning the
// first divergent seq on mismatch, per spec.md §4.11.
func (j *Journal) Verify(ctx context.Context) (VerifyResult, error) {
	entries, err := j.List(ctx)
	if err != nil {
		return VerifyResult{}, err
	}

	prevHash := zeroHash
	for _, e := range entries {
		if e.PrevHash != prevHash {
			return VerifyResult{OK: false, Entries: len(entries), FirstMismatch: e.Seq}, nil
		}
		metaJSON, err := canonicalJSON(e.Metadata)
		if err != nil {
			return VerifyResult{}, bdperr.Wrap(bdperr.KindInternal, err, "canonicalize entry for verification")
		}
		want, err := computeHash(e.PrevHash, e.Seq, e.Timestamp, e.MachineID, e.Action, e.Target, metaJSON)
		if err != nil {
			return VerifyResult{}, err
		}
		if want != e.Hash {
			return VerifyResult{OK: false, Entries: len(entries), FirstMismatch: e.Seq}, nil
		}
		prevHash = e.Hash
	}
	return VerifyResult{OK: true, Entries: len(entries)}, nil
}

// computeHash implements hash_i = H(prev_hash || seq || canonical_json(record_without_hash)).
func computeHash(prevHash string, seq int64, ts time.Time, machineID, action, target string, metaJSON []byte) (string, error) {
	body := struct {
		Seq       int64           `json:"seq"`
		Timestamp string          `json:"timestamp"`
		MachineID string          `json:"machine_id"`
		Action    string          `json:"action"`
		Target    string          `json:"target"`
		Metadata  json.RawMessage `json:"metadata"`
		PrevHash  string          `json:"prev_hash"`
	}{seq, ts.Format(time.RFC3339Nano), machineID, action, target, metaJSON, prevHash}

	encoded, err := json.Marshal(body)
	if err != nil {
		return "", bdperr.Wrap(bdperr.KindInternal, err, "marshal journal record for hashing")
	}

	h := sha256.New()
	h.Write([]byte(prevHash))
	h.Write(encoded)
	return hex.EncodeToString(h.Sum(nil)), nil
}

// canonicalJSON marshals metadata with sorted keys, the "canonical_json"
// spec.md §4.11 requires for stable hashing regardless of map iteration
// order. UTF-8 is Go's native string encoding, already NFC for ASCII
// field names; BDP does not accept non-NFC metadata values.
func canonicalJSON(metadata map[string]any) ([]byte, error) {
	if metadata == nil {
		return []byte("{}"), nil
	}
	keys := make([]string, 0, len(metadata))
	for k := range metadata {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var buf []byte
	buf = append(buf, '{')
	for i, k := range keys {
		if i > 0 {
			buf = append(buf, ',')
		}
		keyJSON, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		valJSON, err := json.Marshal(metadata[k])
		if err != nil {
			return nil, err
		}
		buf = append(buf, keyJSON...)
		buf = append(buf, ':')
		buf = append(buf, valJSON...)
	}
	buf = append(buf, '}')
	return buf, nil
}
