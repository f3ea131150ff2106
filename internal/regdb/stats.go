package regdb

import (
	"context"

	"github.com/bdp-project/bdp/internal/bdperr"
)

// Stats is the row-count summary GET /stats reports.
type Stats struct {
	Organizations int64 `json:"organizations"`
	Entries       int64 `json:"entries"`
	Versions      int64 `json:"versions"`
	Files         int64 `json:"files"`
}

func (s *Store) GetStats(ctx context.Context) (Stats, error) {
	var st Stats
	err := s.DB.QueryRowContext(ctx, `SELECT
		(SELECT count(*) FROM organizations),
		(SELECT count(*) FROM registry_entries),
		(SELECT count(*) FROM versions),
		(SELECT count(*) FROM version_files)`,
	).Scan(&st.Organizations, &st.Entries, &st.Versions, &st.Files)
	if err != nil {
		return Stats{}, bdperr.Wrap(bdperr.KindInternal, err, "query stats")
	}
	return st, nil
}
