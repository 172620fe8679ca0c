package models

// AskRequest is the query API request body
type AskRequest struct {
	Query string `json:"query" binding:"required,min=1,max=2000"`
	TopK  int    `json:"top_k" binding:"omitempty,min=1,max=20"`
}

// AskResponse is the query API response body
type AskResponse struct {
	Answer  string  `json:"answer"`
	Matches []Match `json:"matches"`
}

// Match is one retrieval result. Transient: assembled per query, never
// persisted. Distance is nil for keyword-only matches.
type Match struct {
	HighlightID  uint     `json:"highlight_id"`
	VideoID      uint     `json:"video_id"`
	Filename     string   `json:"filename"`
	StartSeconds float64  `json:"start_seconds"`
	EndSeconds   float64  `json:"end_seconds"`
	Title        string   `json:"title"`
	Summary      string   `json:"summary"`
	Distance     *float64 `json:"distance,omitempty"`
}

// ErrorResponse is a generic API error body
type ErrorResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}
