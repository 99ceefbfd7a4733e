package llm

import "time"

// ChatResponse is the success body of POST /api/chat.
type ChatResponse struct {
	Answer  string   `json:"answer"`  // Markdown answer
	Sources []string `json:"sources"` // Retrieved recipe snippets, may be empty

	// Set by servers that track queries; older servers omit them.
	QueryID      string  `json:"query_id,omitempty"`
	ResponseTime float64 `json:"response_time,omitempty"` // Seconds
}

// FeedbackResponse is the success body of POST /api/feedback.
type FeedbackResponse struct {
	Status  string `json:"status"`
	QueryID string `json:"query_id"`
}

// FeedbackEntry is one stored rating.
type FeedbackEntry struct {
	QueryID   string    `json:"query_id"`
	Rating    int       `json:"rating"`
	Feedback  string    `json:"feedback,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// FeedbackListResponse is the body of GET /api/feedback.
type FeedbackListResponse struct {
	Count   int             `json:"count"`
	Entries []FeedbackEntry `json:"entries"`
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status    string  `json:"status"`
	Timestamp float64 `json:"timestamp"`
}
