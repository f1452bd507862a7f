package planner

import (
	"testing"

	"pgregory.net/rapid"

	"github.com/harrison/actuator/internal/models"
)

// TestPropertyVoteThreshold verifies that Vote keeps exactly the keys that
// reach the majority threshold, unless none do.
func TestPropertyVoteThreshold(t *testing.T) {
	kinds := []models.Kind{
		models.KindAddOpportunityDetection,
		models.KindAddProfitTracking,
		models.KindAddErrorHandling,
		models.KindAddRetryLogic,
	}

	rapid.Check(t, func(rt *rapid.T) {
		n := rapid.IntRange(1, 7).Draw(rt, "samples")

		plans := make([][]models.Action, n)
		counts := make(map[models.ActionKey]int)
		for i := range plans {
			size := rapid.IntRange(0, 4).Draw(rt, "plan_size")
			for j := 0; j < size; j++ {
				kind := rapid.SampledFrom(kinds).Draw(rt, "kind")
				target := rapid.SampledFrom([]string{"a", "b"}).Draw(rt, "target")
				action := models.NewAction(kind, target, "", "")
				plans[i] = append(plans[i], action)
				counts[action.Key()]++
			}
		}

		threshold := n/2 + 1
		expected := 0
		for _, c := range counts {
			if c >= threshold {
				expected++
			}
		}

		got := Vote(plans, n)

		if expected == 0 {
			if len(got) != len(plans[0]) {
				rt.Fatalf("no majority: got %d actions, want first sample with %d", len(got), len(plans[0]))
			}
			return
		}

		if len(got) != expected {
			rt.Fatalf("got %d actions, want %d", len(got), expected)
		}
		seen := make(map[models.ActionKey]bool)
		for _, a := range got {
			if counts[a.Key()] < threshold {
				rt.Fatalf("action %v below threshold %d", a.Key(), threshold)
			}
			if seen[a.Key()] {
				rt.Fatalf("action %v emitted twice", a.Key())
			}
			seen[a.Key()] = true
		}
	})
}

// TestPropertyDeterministicClassifierIsStable verifies that voting over a
// deterministic classifier returns the single-sample plan with duplicate
// keys collapsed.
func TestPropertyDeterministicClassifierIsStable(t *testing.T) {
	actions := []string{"add_opportunity_detection", "add_execution_protocols", "add_profit_tracking", "add_error_handling"}

	rapid.Check(t, func(rt *rapid.T) {
		n := rapid.IntRange(1, 5).Draw(rt, "samples")
		count := rapid.IntRange(1, 4).Draw(rt, "insights")

		insights := make([]models.Insight, count)
		for i := range insights {
			insights[i] = models.Insight{
				Summary: rapid.StringMatching(`[a-z ]{1,20}`).Draw(rt, "summary"),
				Type:    "trading_optimization",
				Action:  rapid.SampledFrom(actions).Draw(rt, "action"),
			}
		}

		s := NewSynthesizer(nil, n)
		single := s.CreateActionPlan(insights)
		voted := s.Synthesize(insights)

		unique := make(map[models.ActionKey]bool)
		for _, a := range single {
			unique[a.Key()] = true
		}
		if len(voted) != len(unique) {
			rt.Fatalf("voted plan has %d actions, want %d unique", len(voted), len(unique))
		}
		if len(voted) > 0 && voted[0].Key() != single[0].Key() {
			rt.Fatalf("first-seen order not preserved")
		}
	})
}
