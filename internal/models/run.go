package models

// RunState mirrors the controller's authoritative autorun status. The
// console only requests transitions and displays the latest observed
// state; it never fabricates one.
type RunState struct {
	Running bool   `json:"running"`
	Paused  bool   `json:"paused"`
	Route   string `json:"route"`
	Index   int    `json:"index"`
	Total   int    `json:"total"`
	Error   string `json:"error,omitempty"`
}
