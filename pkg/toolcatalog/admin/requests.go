package admin

// Request DTOs

// DefaultListLimit applies when ListToolsRequest.Limit is zero
const DefaultListLimit = 100

// ListToolsRequest contains parameters for admin tool listing
type ListToolsRequest struct {
	Category string `json:"category,omitempty"`
	Limit    int    `json:"limit"`
	Offset   int    `json:"offset"`
}

// DefaultVerifyConcurrency bounds parallel blob checks when unset
const DefaultVerifyConcurrency = 8

// VerifyRequest contains parameters for a consistency check
type VerifyRequest struct {
	Category    string `json:"category,omitempty"`
	Concurrency int    `json:"concurrency"`
}
