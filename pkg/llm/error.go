// Package llm provides the wire representations of the recipe assistant's
// inference API requests and responses.
package llm

// ErrorResponse represents an error from the inference API. Clients never
// parse it; it exists for humans and for the server side.
type ErrorResponse struct {
	Detail string `json:"detail"`
}
