package llm

// ChatRequest is the body of POST /api/chat.
type ChatRequest struct {
	Message string `json:"message"`         // The user's question, sent verbatim
	TopK    *int   `json:"top_k,omitempty"` // Number of recipes to retrieve (server default: 3)
}

// FeedbackRequest is the body of POST /api/feedback.
type FeedbackRequest struct {
	QueryID  string `json:"query_id"`
	Rating   int    `json:"rating"`             // 1-5
	Feedback string `json:"feedback,omitempty"` // Optional free text
}
