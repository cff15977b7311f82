package suggest

import (
	"errors"
	"math"
)

// DefaultThreshold is the similarity at or above which bulk apply accepts a suggestion.
const DefaultThreshold = 0.9

var (
	// ErrSuggestionNotFound marks a master reference without a pending suggestion.
	ErrSuggestionNotFound = errors.New("suggestion not pending")
	// ErrConfirmedMappingProtected marks an AI suggestion that would displace a human-confirmed link.
	ErrConfirmedMappingProtected = errors.New("target held by a confirmed mapping")
)

// Suggestion is implemented by the category and attribute suggestion shapes.
type Suggestion interface {
	MasterRef() string
	Score() float64
}

type CanonicalRef struct {
	ID   string `json:"id"`
	GUID string `json:"guid,omitempty"`
	Name string `json:"name,omitempty"`
	Path string `json:"path,omitempty"`
}

type ShopRef struct {
	ID         string `json:"id"`
	Name       string `json:"name,omitempty"`
	Path       string `json:"path,omitempty"`
	RemoteGUID string `json:"remote_guid,omitempty"`
}

// CategorySuggestion is one AI proposal for a canonical category. A nil
// Suggested means the provider found no counterpart.
type CategorySuggestion struct {
	Canonical  CanonicalRef `json:"canonical"`
	Suggested  *ShopRef     `json:"suggested"`
	Similarity float64      `json:"similarity"`
	Reason     string       `json:"reason,omitempty"`
}

func (s CategorySuggestion) MasterRef() string { return s.Canonical.ID }
func (s CategorySuggestion) Score() float64    { return s.Similarity }

type ValueSuggestion struct {
	MasterKey  string  `json:"master_key"`
	TargetKey  *string `json:"target_key"`
	Similarity float64 `json:"similarity"`
}

// AttributeSuggestion is one AI proposal for a master attribute, optionally with
// value-level proposals.
type AttributeSuggestion struct {
	MasterKey  string            `json:"master_key"`
	TargetKey  *string           `json:"target_key"`
	Similarity float64           `json:"similarity"`
	Reason     string            `json:"reason,omitempty"`
	Values     []ValueSuggestion `json:"values,omitempty"`
}

func (s AttributeSuggestion) MasterRef() string { return s.MasterKey }
func (s AttributeSuggestion) Score() float64    { return s.Similarity }

// Outcome describes what applying one suggestion did to the working mapping.
type Outcome struct {
	MasterRef string   `json:"master_ref"`
	TargetRef string   `json:"target_ref,omitempty"`
	Cleared   bool     `json:"cleared"`
	Displaced []string `json:"displaced,omitempty"`
	Warnings  []string `json:"warnings,omitempty"`
}

type Failure struct {
	MasterRef string `json:"master_ref"`
	Err       error  `json:"-"`
	Message   string `json:"message"`
}

// BulkResult summarizes an apply-all run.
type BulkResult struct {
	Applied  int       `json:"applied"`
	Eligible int       `json:"eligible"`
	Outcomes []Outcome `json:"outcomes,omitempty"`
	Failures []Failure `json:"failures,omitempty"`
}

// Options tunes how suggestions are applied.
type Options struct {
	// PreserveConfirmed skips suggestions that would displace a link a human confirmed.
	PreserveConfirmed bool
}

func normalizeScore(v float64) float64 {
	switch {
	case math.IsNaN(v), v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
