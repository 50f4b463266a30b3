// Package seed drives a running service with generated marketplace data and
// checks the recommendations it returns.
package seed

import "time"

// Config holds configuration for a seed run.
type Config struct {
	BaseURL    string        // Base URL of the service
	Profiles   int           // Number of freelancer profiles to generate
	Postings   int           // Number of job postings to generate
	Reviews    int           // Number of reviews to generate
	Workers    int           // Number of concurrent submitters
	Timeout    time.Duration // HTTP request timeout
	Settle     time.Duration // Longest wait for the catalog to absorb the data
	Sample     int           // Number of freelancers and postings to verify
	Limit      int           // Limit passed to recommendation requests
	Seed       uint64        // Random seed; zero picks one from the clock
	OutputFile string        // File for the generated dataset; empty skips saving
	Verbose    bool          // Enable verbose logging
}

// Posting is the POST /postings body.
type Posting struct {
	EventID   string    `json:"event_id"`
	PostingID string    `json:"posting_id"`
	OwnerID   string    `json:"owner_id"`
	Title     string    `json:"title"`
	Category  string    `json:"category"`
	Skills    []string  `json:"skills"`
	PostedAt  time.Time `json:"posted_at"`
}

// Profile is the POST /profiles body.
type Profile struct {
	EventID             string   `json:"event_id"`
	UserID              string   `json:"user_id"`
	DisplayName         string   `json:"display_name"`
	Skills              []string `json:"skills"`
	CompletedCategories []string `json:"completed_categories"`
	Rating              float64  `json:"rating"`
}

// Review is the POST /reviews body.
type Review struct {
	EventID     string `json:"event_id"`
	ReviewerID  string `json:"reviewer_id"`
	RevieweeID  string `json:"reviewee_id"`
	JobID       string `json:"job_id"`
	Rating      int    `json:"rating"`
	StakeWeight int64  `json:"stake_weight"`
}

// Dataset is everything one run submits.
type Dataset struct {
	Clients  []string  `json:"clients"`
	Profiles []Profile `json:"profiles"`
	Postings []Posting `json:"postings"`
	Reviews  []Review  `json:"reviews"`
}

// Recommendation is one ranked entry as returned by the API.
type Recommendation struct {
	Rank  int     `json:"rank"`
	ID    string  `json:"id"`
	Score float64 `json:"score"`
}

// RecommendationList is the body of both recommendation endpoints.
type RecommendationList struct {
	SubjectID string           `json:"subject_id"`
	Limit     int              `json:"limit"`
	Results   []Recommendation `json:"results"`
}

// AckResponse represents the response from an ingestion request.
type AckResponse struct {
	Status    string `json:"status"`
	Duplicate bool   `json:"duplicate"`
	EventID   string `json:"event_id"`
}

// catalogStats is the subset of /stats the runner polls.
type catalogStats struct {
	Postings int `json:"postings"`
	Profiles int `json:"profiles"`
	Reviews  int `json:"reviews"`
}

// Stats holds run statistics.
type Stats struct {
	EventsGenerated  int
	EventsSubmitted  int
	EventsSuccessful int
	EventsDuplicate  int
	EventsRetried    int
	EventsFailed     int
	ListsVerified    int
	StartTime        time.Time
	EndTime          time.Time
	Duration         time.Duration
}
