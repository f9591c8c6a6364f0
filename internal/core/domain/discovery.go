// Package domain contains the core types of the discovery pipeline:
// requests, candidate results, validation verdicts and per-company
// tuning state. No I/O here, only data and invariants.
package domain

import (
	"strings"

	"finscout/internal/platform/errors"
)

// Confidence is the model's self-reported certainty about a candidate.
type Confidence string

const (
	ConfidenceHigh   Confidence = "HIGH"
	ConfidenceMedium Confidence = "MEDIUM"
	ConfidenceLow    Confidence = "LOW"
)

// ParseConfidence normalizes a free-form confidence string. Anything
// unrecognized degrades to LOW rather than failing the whole candidate.
func ParseConfidence(s string) Confidence {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "HIGH":
		return ConfidenceHigh
	case "MEDIUM", "MED":
		return ConfidenceMedium
	default:
		return ConfidenceLow
	}
}

// Status is the terminal outcome of one discovery.
type Status string

const (
	StatusFound    Status = "FOUND"
	StatusNotFound Status = "NOT_FOUND"
)

// DiscoveryRequest identifies one unit of work: which company and which
// kind of document to locate. Treated as immutable once built.
type DiscoveryRequest struct {
	Company  string
	Category string
}

// Validate rejects requests that cannot possibly succeed.
func (r DiscoveryRequest) Validate() error {
	if strings.TrimSpace(r.Company) == "" {
		return errors.Wrap(errors.ErrInvalidInput, "company name is empty")
	}
	return nil
}

// CandidateResult is the single result of a discovery request.
//
// Invariants: a FOUND result carries a non-empty URL that answered a
// live probe; a NOT_FOUND result carries empty metadata. Extra holds
// additional top-level keys the model returned beyond the known schema;
// they are forwarded untouched.
type CandidateResult struct {
	Company           string            `json:"company_name"`
	Category          string            `json:"category"`
	URL               string            `json:"url"`
	Year              string            `json:"year"`
	Confidence        Confidence        `json:"confidence"`
	SourceDescription string            `json:"source_description"`
	Status            Status            `json:"status"`
	Strategy          string            `json:"strategy,omitempty"`
	Attempts          map[string]int    `json:"attempts,omitempty"`
	Extra             map[string]string `json:"extra,omitempty"`
}

// NotFound builds the sentinel result for an exhausted discovery. It is
// a normal terminal state, not an error.
func NotFound(req DiscoveryRequest) *CandidateResult {
	return &CandidateResult{
		Company:  req.Company,
		Category: req.Category,
		Status:   StatusNotFound,
	}
}

// Found marks the result FOUND and stamps the request identity on it.
func (c *CandidateResult) Found(req DiscoveryRequest, strategy string) *CandidateResult {
	c.Company = req.Company
	c.Category = req.Category
	c.Status = StatusFound
	c.Strategy = strategy
	return c
}

// ValidationVerdict is the judgment a validator model renders over a
// candidate. Score is 0-100.
type ValidationVerdict struct {
	IsValid     bool     `json:"is_valid"`
	Score       int      `json:"validation_score"`
	Feedback    string   `json:"feedback"`
	Suggestions []string `json:"improvement_suggestions"`
}

// DefaultVerdict is the never-nil fallback used whenever the validator
// output cannot be interpreted. Reason must explain what went wrong.
func DefaultVerdict(reason string) ValidationVerdict {
	return ValidationVerdict{
		IsValid:     false,
		Score:       0,
		Feedback:    reason,
		Suggestions: []string{"Provide a valid JSON response"},
	}
}

// GeneratedCodeArtifact is a synthesized retrieval routine kept on disk
// for audit. Written once, read once.
type GeneratedCodeArtifact struct {
	Source string
	Path   string
}
