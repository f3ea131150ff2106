package regdb

import (
	"context"
	"encoding/json"

	"github.com/bdp-project/bdp/internal/bdperr"
)

// InsertAuditRecord writes one audit_records row. Per spec.md §4.7 the
// audit middleware acquires its own connection for this and does not share
// the mutating command's transaction — the audit store is eventually
// consistent with the command it describes, never a dependency of it.
func (s *Store) InsertAuditRecord(ctx context.Context, rec AuditRecord) error {
	changes, err := json.Marshal(nonNilMap(rec.Changes))
	if err != nil {
		return bdperr.Wrap(bdperr.KindInternal, err, "marshal audit changes")
	}
	metadata, err := json.Marshal(nonNilMap(rec.Metadata))
	if err != nil {
		return bdperr.Wrap(bdperr.KindInternal, err, "marshal audit metadata")
	}

	_, err = s.DB.ExecContext(ctx, `
		INSERT INTO audit_records (action, resource_type, resource_id, user_id, ip, user_agent, changes, metadata)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
		rec.Action, rec.ResourceType, rec.ResourceID, rec.UserID, rec.IP, rec.UserAgent, changes, metadata,
	)
	if err != nil {
		return bdperr.Wrap(bdperr.KindInternal, err, "insert audit record")
	}
	return nil
}

func nonNilMap(m map[string]any) map[string]any {
	if m == nil {
		return map[string]any{}
	}
	return m
}

// ListAuditParams filters GET /api/v1/audit.
type ListAuditParams struct {
	ResourceType string
	ResourceID   string
	Limit        int
	Offset       int
}

// ListAuditRecords returns audit_records newest-first, for the
// operator-facing audit query endpoint.
func (s *Store) ListAuditRecords(ctx context.Context, p ListAuditParams) ([]AuditRecord, error) {
	limit := p.Limit
	if limit <= 0 {
		limit = 50
	}

	rows, err := s.DB.QueryContext(ctx, `
		SELECT id, timestamp, action, resource_type, resource_id, user_id, ip, user_agent, changes, metadata
		FROM audit_records
		WHERE ($1 = '' OR resource_type = $1) AND ($2 = '' OR resource_id = $2)
		ORDER BY timestamp DESC
		LIMIT $3 OFFSET $4`, p.ResourceType, p.ResourceID, limit, p.Offset)
	if err != nil {
		return nil, bdperr.Wrap(bdperr.KindInternal, err, "list audit records")
	}
	defer rows.Close()

	var out []AuditRecord
	for rows.Next() {
		var rec AuditRecord
		var changesRaw, metadataRaw []byte
		if err := rows.Scan(&rec.ID, &rec.Timestamp, &rec.Action, &rec.ResourceType, &rec.ResourceID,
			&rec.UserID, &rec.IP, &rec.UserAgent, &changesRaw, &metadataRaw); err != nil {
			return nil, bdperr.Wrap(bdperr.KindInternal, err, "scan audit record")
		}
		if err := json.Unmarshal(changesRaw, &rec.Changes); err != nil {
			return nil, bdperr.Wrap(bdperr.KindInternal, err, "parse audit record changes")
		}
		if err := json.Unmarshal(metadataRaw, &rec.Metadata); err != nil {
			return nil, bdperr.Wrap(bdperr.KindInternal, err, "parse audit record metadata")
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}
