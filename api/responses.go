package api

// ListResponse wraps a list of items with pagination metadata.
type ListResponse[T any] struct {
	Items  []T `json:"items" description:"List of items"`
	Limit  int `json:"limit" description:"Page size"`
	Offset int `json:"offset" description:"Page offset"`
}

// ErrorResponse is the body of a CONFLICT response.
type ErrorResponse struct {
	Code    string         `json:"code" description:"Failure kind"`
	Message string         `json:"message" description:"Human-readable message"`
	Meta    map[string]any `json:"meta,omitempty" description:"Details such as active user counts"`
}
