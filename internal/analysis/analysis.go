// Package analysis defines the CV analysis boundary. The matching core only
// consumes the extracted skills; scoring summaries are passed through for
// display.
package analysis

import "context"

// Profile is the structured result of analyzing a CV.
type Profile struct {
	Skills  []string
	Fields  []string
	Summary string
	Raw     string
}

// Provider produces a Profile from raw CV text.
type Provider interface {
	ExtractSkills(ctx context.Context, cvText string) (*Profile, error)
}
