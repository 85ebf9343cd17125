package storage

import (
	"context"
	"fmt"

	"ig_apify/models"
)

// Eligibility predicates. $1 is the program id set, $2 the last_scraped
// cutoff, $3/$4 the inclusive created-date window. LIMIT/OFFSET, when
// present, bind from $5 on.
const (
	profileCandidateFrom = `
		FROM instagram_users AS i
		INNER JOIN users AS u ON i.ig_uid = u.ig_uid
		WHERE u.pid = ANY($1)
		  AND i.username IS NOT NULL
		  AND (i.is_private IS NULL OR i.is_private IS FALSE)
		  AND LENGTH(i.ig_uid::text) > 15
		  AND (i.last_scraped IS NULL OR i.last_scraped <= $2::timestamp)
		  AND i.created::date BETWEEN $3::date AND $4::date`

	postCandidateFrom = `
		FROM kns_filtered_instagram_posts AS p
		INNER JOIN users AS u ON p.ig_uid = u.ig_uid
		WHERE u.pid = ANY($1)
		  AND p.post_url IS NOT NULL
		  AND (p.last_scraped IS NULL OR p.last_scraped <= $2::timestamp)
		  AND p.created::date BETWEEN $3::date AND $4::date`

	profileCandidateSelect = `SELECT DISTINCT i.username` + profileCandidateFrom
	postCandidateSelect    = `SELECT DISTINCT p.post_url` + postCandidateFrom

	profileCandidateCount = `
		SELECT COALESCE(SUM(username_count), 0)::bigint
		FROM (
			SELECT COUNT(DISTINCT i.username) AS username_count` + profileCandidateFrom + `
		) AS c`

	postCandidateCount = `
		SELECT COALESCE(SUM(post_url_count), 0)::bigint
		FROM (
			SELECT COUNT(DISTINCT p.post_url) AS post_url_count` + postCandidateFrom + `
		) AS c`
)

// ProfileURL is the address handed to the scraper for a username.
func ProfileURL(username string) string {
	return fmt.Sprintf("https://www.instagram.com/%s/", username)
}

// FindCandidates returns the distinct scrape targets for the query: profile
// URLs for KindProfile, stored post URLs for KindPost.
func (s *PostgresStore) FindCandidates(ctx context.Context, kind models.Kind, q models.CandidateQuery) ([]string, error) {
	query, args, err := candidateSelectSQL(kind, q)
	if err != nil {
		return nil, err
	}

	keys, err := queryStrings(ctx, s.conn, query, args...)
	if err != nil {
		return nil, fmt.Errorf("select %s candidates: %w", kind, err)
	}

	if kind == models.KindProfile {
		for i, username := range keys {
			keys[i] = ProfileURL(username)
		}
	}
	return keys, nil
}

// CountCandidates reports how many rows match the eligibility predicate
// regardless of any cap.
func (s *PostgresStore) CountCandidates(ctx context.Context, kind models.Kind, programIDs []int64, w models.Window) (int, error) {
	var query string
	switch kind {
	case models.KindProfile:
		query = profileCandidateCount
	case models.KindPost:
		query = postCandidateCount
	default:
		return 0, fmt.Errorf("count candidates: unknown kind %q", kind)
	}

	var count int64
	if err := s.conn.QueryRow(ctx, query, windowArgs(programIDs, w)...).Scan(&count); err != nil {
		return 0, fmt.Errorf("count %s candidates: %w", kind, err)
	}
	return int(count), nil
}

func candidateSelectSQL(kind models.Kind, q models.CandidateQuery) (string, []any, error) {
	var query string
	switch kind {
	case models.KindProfile:
		query = profileCandidateSelect
	case models.KindPost:
		query = postCandidateSelect
	default:
		return "", nil, fmt.Errorf("select candidates: unknown kind %q", kind)
	}

	args := windowArgs(q.ProgramIDs, q.Window)
	if q.Limit != nil {
		args = append(args, *q.Limit)
		query += fmt.Sprintf("\n\t\tLIMIT $%d", len(args))
	}
	if q.Offset != nil {
		args = append(args, *q.Offset)
		query += fmt.Sprintf("\n\t\tOFFSET $%d", len(args))
	}
	return query, args, nil
}

func windowArgs(programIDs []int64, w models.Window) []any {
	if programIDs == nil {
		programIDs = []int64{}
	}
	return []any{programIDs, w.StaleCutoff, w.Start, w.End}
}
