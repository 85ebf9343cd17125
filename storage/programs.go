package storage

import (
	"context"
	"fmt"

	"ig_apify/models"
)

const (
	profileProgramsQuery = `
		SELECT id
		FROM programs
		WHERE actv_profile_scrape_instagram IS TRUE
		ORDER BY id`

	postProgramsQuery = `
		SELECT id
		FROM programs
		WHERE actv_post_scrape_instagram IS TRUE
		ORDER BY id`
)

// ProgramIDs returns the programs flagged for the given campaign. No
// flagged program is an empty slice, not an error.
func (s *PostgresStore) ProgramIDs(ctx context.Context, kind models.Kind) ([]int64, error) {
	var query string
	switch kind {
	case models.KindProfile:
		query = profileProgramsQuery
	case models.KindPost:
		query = postProgramsQuery
	default:
		return nil, fmt.Errorf("program ids: unknown kind %q", kind)
	}

	ids, err := queryInt64s(ctx, s.conn, query)
	if err != nil {
		return nil, fmt.Errorf("select %s programs: %w", kind, err)
	}
	return ids, nil
}
