package models

// Result is the public answer to a verification lookup. It carries only existence and
// coarse metadata, never status, content id or transaction reference.
type Result struct {
	Valid bool   `json:"valid"`
	Type  string `json:"type,omitempty"`
	Owner string `json:"owner,omitempty"`
	Date  string `json:"date,omitempty"`
}

func NotFound() *Result {
	return &Result{Valid: false}
}
