// Package models defines the request and response data structures used
// for communication between clients and the URL shortener service.
package models

import "time"

// ShortenRequest is the body of POST /shorten.
type ShortenRequest struct {
	// URL is the address to shorten. A missing scheme defaults to https.
	URL string `json:"url"`
}

// ShortenResponse is returned for both newly created and existing mappings.
type ShortenResponse struct {
	OriginalURL string `json:"original_url"`
	ShortURL    string `json:"short_url"`
	ShortCode   string `json:"short_code"`
	// Message tells whether the mapping was created by this request.
	Message string `json:"message"`
}

// StatsResponse is returned by GET /stats/{code}.
type StatsResponse struct {
	OriginalURL string    `json:"original_url"`
	ShortCode   string    `json:"short_code"`
	Clicks      int64     `json:"clicks"`
	CreatedAt   time.Time `json:"created_at"`
}

// ErrorResponse carries a human readable error for JSON endpoints.
type ErrorResponse struct {
	Error string `json:"error"`
}

const (
	MessageCreated = "URL shortened successfully"
	MessageExisted = "URL already shortened"
)
