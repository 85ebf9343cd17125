package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"ig_apify/models"
)

// The writers overwrite every matching row and report, per row, whether any
// stored value differed from what was written. Rows that do not exist are
// not inserted.
const (
	updateProfileQuery = `
		UPDATE instagram_users AS i
		SET full_name = $2,
			bio = $3,
			profile_picture = $4,
			media_count = $5,
			followed_by = $6,
			follows = $7,
			is_private = $8,
			last_scraped = $9::timestamp,
			scrape_error_code = CASE WHEN $10::boolean THEN 0 ELSE prev.scrape_error_code END,
			scrape_error_message = CASE WHEN $10::boolean THEN NULL ELSE prev.scrape_error_message END
		FROM (
			SELECT ctid, full_name, bio, profile_picture, media_count, followed_by, follows,
				is_private, last_scraped, scrape_error_code, scrape_error_message
			FROM instagram_users
			WHERE username = $1
			FOR UPDATE
		) AS prev
		WHERE i.ctid = prev.ctid
		RETURNING (i.full_name, i.bio, i.profile_picture, i.media_count, i.followed_by, i.follows,
				i.is_private, i.last_scraped, i.scrape_error_code, i.scrape_error_message)
			IS DISTINCT FROM (prev.full_name, prev.bio, prev.profile_picture, prev.media_count,
				prev.followed_by, prev.follows, prev.is_private, prev.last_scraped,
				prev.scrape_error_code, prev.scrape_error_message)`

	updatePostQuery = `
		UPDATE kns_filtered_instagram_posts AS p
		SET comment_count = $2,
			like_count = $3,
			location_id = $4,
			location_name = $5,
			last_scraped = $6::timestamp
		FROM (
			SELECT ctid, comment_count, like_count, location_id, location_name, last_scraped
			FROM kns_filtered_instagram_posts
			WHERE post_url = $1
			FOR UPDATE
		) AS prev
		WHERE p.ctid = prev.ctid
		RETURNING (p.comment_count, p.like_count, p.location_id, p.location_name, p.last_scraped)
			IS DISTINCT FROM (prev.comment_count, prev.like_count, prev.location_id,
				prev.location_name, prev.last_scraped)`

	scrapeErrorCodeQuery = `
		SELECT scrape_error_code
		FROM instagram_users
		WHERE username = $1
		LIMIT 1`
)

func (s *PostgresStore) UpdateProfile(ctx context.Context, u models.ProfileUpdate) (models.UpdateResult, error) {
	affected, changed, err := queryChanged(ctx, s.conn, updateProfileQuery,
		u.Username, u.FullName, u.Bio, u.ProfilePicture, u.MediaCount, u.FollowedBy, u.Follows,
		u.IsPrivate, u.LastScraped, u.ClearScrapeError,
	)
	if err != nil {
		return models.UpdateResult{}, fmt.Errorf("update instagram_users %q: %w", u.Username, err)
	}
	return models.UpdateResult{Affected: affected, Changed: changed}, nil
}

func (s *PostgresStore) UpdatePost(ctx context.Context, u models.PostUpdate) (models.UpdateResult, error) {
	affected, changed, err := queryChanged(ctx, s.conn, updatePostQuery,
		u.PostURL, u.CommentCount, u.LikeCount, u.LocationID, u.LocationName, u.LastScraped,
	)
	if err != nil {
		return models.UpdateResult{}, fmt.Errorf("update kns_filtered_instagram_posts %q: %w", u.PostURL, err)
	}
	return models.UpdateResult{Affected: affected, Changed: changed}, nil
}

// IsScrapeErrorCodeNull reports whether the user's stored scrape_error_code
// is NULL. An unknown username reports false.
func (s *PostgresStore) IsScrapeErrorCodeNull(ctx context.Context, username string) (bool, error) {
	var code *int32
	err := s.conn.QueryRow(ctx, scrapeErrorCodeQuery, username).Scan(&code)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("select scrape_error_code %q: %w", username, err)
	}
	return code == nil, nil
}
