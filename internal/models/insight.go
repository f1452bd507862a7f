package models

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Insight is an externally produced statement of a desired improvement.
// Insights are treated as immutable once loaded. Deduplication keys on
// Summary, not ID.
type Insight struct {
	ID           string `json:"id" yaml:"id"`
	Summary      string `json:"summary" yaml:"summary"`
	Implication  string `json:"implication" yaml:"implication"`
	Type         string `json:"type" yaml:"type"`
	Action       string `json:"action" yaml:"action"`
	TargetSystem string `json:"target_system,omitempty" yaml:"target_system,omitempty"`
	Description  string `json:"description,omitempty" yaml:"description,omitempty"`
	Priority     string `json:"priority,omitempty" yaml:"priority,omitempty"`
	Source       string `json:"source,omitempty" yaml:"source,omitempty"`
}

// Validate checks that the insight carries enough text to be planned.
func (i *Insight) Validate() error {
	if strings.TrimSpace(i.Summary) == "" {
		return fmt.Errorf("insight %q: summary is required", i.ID)
	}
	return nil
}

// EnsureIDs assigns a random ID to every insight that has none.
// The slice is modified in place.
func EnsureIDs(insights []Insight) {
	for idx := range insights {
		if strings.TrimSpace(insights[idx].ID) == "" {
			insights[idx].ID = uuid.New().String()
		}
	}
}

// Priority levels shared by actions and fix recommendations.
const (
	PriorityHigh   = "HIGH"
	PriorityMedium = "MEDIUM"
	PriorityLow    = "LOW"
)
