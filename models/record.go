package models

import (
	"fmt"
	"strings"
)

// TimestampLayout is how last_scraped is written.
const TimestampLayout = "2006-01-02 15:04:05"

// ProfileRecord is one item of a profile scrape result file.
type ProfileRecord struct {
	Username        string  `json:"username"`
	FullName        *string `json:"fullName"`
	Biography       *string `json:"biography"`
	ProfilePicURLHD *string `json:"profilePicUrlHD"`
	PostsCount      *int64  `json:"postsCount"`
	FollowsCount    *int64  `json:"followsCount"`
	FollowersCount  *int64  `json:"followersCount"`
	Private         *bool   `json:"private"`
}

// PostRecord is one item of a post scrape result file.
type PostRecord struct {
	URL           string  `json:"url"`
	CommentsCount *int64  `json:"commentsCount"`
	LikesCount    *int64  `json:"likesCount"`
	LocationID    *string `json:"locationId"`
	LocationName  *string `json:"locationName"`
}

// ProfileUpdate is the column set written back to instagram_users. A nil
// attribute is written as NULL.
type ProfileUpdate struct {
	Username       string
	FullName       *string
	Bio            *string
	ProfilePicture *string
	MediaCount     *int64
	FollowedBy     *int64
	Follows        *int64
	IsPrivate      *bool
	LastScraped    string
	// ClearScrapeError resets scrape_error_code to 0 and scrape_error_message to NULL.
	ClearScrapeError bool
}

// PostUpdate is the column set written back to kns_filtered_instagram_posts.
type PostUpdate struct {
	PostURL      string
	CommentCount *int64
	LikeCount    *int64
	LocationID   *string
	LocationName *string
	LastScraped  string
}

func (r ProfileRecord) ToUpdate(lastScraped string) ProfileUpdate {
	return ProfileUpdate{
		Username:       r.Username,
		FullName:       r.FullName,
		Bio:            r.Biography,
		ProfilePicture: r.ProfilePicURLHD,
		MediaCount:     r.PostsCount,
		FollowedBy:     r.FollowersCount,
		Follows:        r.FollowsCount,
		IsPrivate:      r.Private,
		LastScraped:    lastScraped,
	}
}

// ToUpdate maps the record to its row. Stored post URLs carry a trailing
// slash that the scraper output drops.
func (r PostRecord) ToUpdate(lastScraped string) PostUpdate {
	return PostUpdate{
		PostURL:      r.URL + "/",
		CommentCount: r.CommentsCount,
		LikeCount:    r.LikesCount,
		LocationID:   r.LocationID,
		LocationName: r.LocationName,
		LastScraped:  lastScraped,
	}
}

// UpdateResult mirrors the driver-reported counts of a single UPDATE.
// Changed counts matched rows whose stored values actually differed.
type UpdateResult struct {
	Affected int64
	Changed  int64
}

// RecordOutcome is the per-key result of reconciling one record.
type RecordOutcome struct {
	Key    string
	Result UpdateResult
	Err    error
}

type IngestSummary struct {
	Kind     Kind
	Records  int
	Affected int64
	Changed  int64
	Outcomes []RecordOutcome
}

func (s *IngestSummary) Add(o RecordOutcome) {
	s.Outcomes = append(s.Outcomes, o)
	s.Affected += o.Result.Affected
	s.Changed += o.Result.Changed
}

func (s *IngestSummary) FailedKeys() []string {
	var keys []string
	for _, o := range s.Outcomes {
		if o.Err != nil {
			keys = append(keys, o.Key)
		}
	}
	return keys
}

// Text is the one-line summary posted after a batch.
func (s *IngestSummary) Text() string {
	text := fmt.Sprintf("records: %d, affected rows: %d, changed rows: %d", s.Records, s.Affected, s.Changed)
	if failed := s.FailedKeys(); len(failed) > 0 {
		text += fmt.Sprintf(", failed: %d [%s]", len(failed), strings.Join(failed, ", "))
	}
	return text
}

// Message is what the ingest function returns to the runtime.
func (s *IngestSummary) Message() string {
	return fmt.Sprintf("Successfully updated %d %s records", s.Records, s.Kind)
}

type DispatchSummary struct {
	Kind       Kind
	ProgramIDs []int64
	Candidates int
	Eligible   int
	RunID      string
	Submitted  bool
}

func (s *DispatchSummary) Message() string {
	if !s.Submitted {
		return fmt.Sprintf("Dispatched 0 of %d eligible %s candidates", s.Eligible, s.Kind)
	}
	return fmt.Sprintf("Dispatched %d of %d eligible %s candidates (run %s)", s.Candidates, s.Eligible, s.Kind, s.RunID)
}
