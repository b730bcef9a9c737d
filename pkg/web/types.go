// Package web provides HTTP request and response types for the validation API.
package web

// ValidateQuery holds the query parameters shared by /validate and /extract.
type ValidateQuery struct {
	CheckOnly   bool `query:"check_only"`
	StrictDates bool `query:"strict_dates"`
	SkipSchema  bool `query:"skip_schema"`
	Preview     int  `query:"preview"      validate:"min=0,max=100"`
}

// ExtractRequest represents the request body for /extract.
type ExtractRequest struct {
	Text string `json:"text" validate:"required"`
	Name string `json:"name,omitempty"`
}
