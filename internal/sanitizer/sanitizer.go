// Package sanitizer provides HTML sanitization for user-submitted
// content to prevent stored XSS.
package sanitizer

import (
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// ContentSanitizer cleans user-provided text before it is stored or
// echoed back in API responses.
type ContentSanitizer interface {
	// SanitizeText strips all markup. Used for single-line fields
	// such as names, locations, and titles.
	SanitizeText(s string) string
	// SanitizeRichText keeps basic formatting but removes scripts,
	// event handlers, and unknown elements. Used for long-form fields
	// such as role descriptions and cover letters.
	SanitizeRichText(s string) string
}

// DefaultSanitizer implements ContentSanitizer using bluemonday
type DefaultSanitizer struct {
	strict *bluemonday.Policy
	ugc    *bluemonday.Policy
}

// New creates a sanitizer with secure defaults
func New() *DefaultSanitizer {
	return &DefaultSanitizer{
		strict: bluemonday.StrictPolicy(),
		ugc:    bluemonday.UGCPolicy(),
	}
}

// SanitizeText strips all markup and collapses surrounding whitespace
func (s *DefaultSanitizer) SanitizeText(in string) string {
	return strings.TrimSpace(s.strict.Sanitize(in))
}

// SanitizeRichText removes dangerous markup while keeping basic
// formatting elements.
func (s *DefaultSanitizer) SanitizeRichText(in string) string {
	return strings.TrimSpace(s.ugc.Sanitize(in))
}
