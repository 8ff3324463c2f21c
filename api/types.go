// Package api defines the wire types of the HTTP surface.
package api

// ChatRequest is a question posed to the portfolio assistant.
type ChatRequest struct {
	Message   string `json:"message"`
	SessionID string `json:"sessionId,omitempty"`
}

// ChatResponse is the assistant's answer. The endpoint answers HTTP 200
// even on internal failures; callers read Confidence and FromCache to
// judge how the answer was produced.
type ChatResponse struct {
	Response   string   `json:"response"`
	Sources    []string `json:"sources,omitempty"`
	SessionID  string   `json:"sessionId"`
	Confidence int      `json:"confidence,omitempty"`
	FromCache  bool     `json:"fromCache,omitempty"`
}

// SearchRequest queries the retrieval pipeline directly, without the
// generation step.
type SearchRequest struct {
	Query      string `json:"query"`
	MaxResults int    `json:"maxResults,omitempty"`
}

// HealthResponse reports service liveness and pipeline readiness.
type HealthResponse struct {
	Status   string `json:"status"`
	State    string `json:"state"`
	Degraded bool   `json:"degraded"`
}
