package analysis

import (
	"testing"

	"pgregory.net/rapid"

	"github.com/harrison/actuator/internal/models"
)

var allPatterns = []models.PatternKind{
	models.PatternTimeout,
	models.PatternPermission,
	models.PatternMissingResource,
	models.PatternCodeSyntax,
	models.PatternDependency,
	models.PatternUnknown,
}

// TestPropertyCommonPatternThreshold verifies that a pattern is reported iff
// it occurs more than once, with its exact frequency and the priority the
// frequency implies.
func TestPropertyCommonPatternThreshold(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		n := rapid.IntRange(0, 30).Draw(rt, "num_failures")

		counts := make(map[models.PatternKind]int)
		patterns := make([]models.FailurePattern, 0, n)
		for i := 0; i < n; i++ {
			p := rapid.SampledFrom(allPatterns).Draw(rt, "pattern")
			counts[p]++
			patterns = append(patterns, models.FailurePattern{Pattern: p})
		}

		common := FindCommonPatterns(patterns)

		reported := make(map[models.PatternKind]bool)
		for i, c := range common {
			if reported[c.Pattern] {
				rt.Fatalf("pattern %s reported twice", c.Pattern)
			}
			reported[c.Pattern] = true

			if c.Frequency != counts[c.Pattern] {
				rt.Fatalf("pattern %s frequency = %d, want %d", c.Pattern, c.Frequency, counts[c.Pattern])
			}
			want := models.PriorityMedium
			if c.Frequency >= 3 {
				want = models.PriorityHigh
			}
			if c.Priority != want {
				rt.Fatalf("pattern %s priority = %s, want %s", c.Pattern, c.Priority, want)
			}
			if i > 0 && common[i-1].Frequency < c.Frequency {
				rt.Fatalf("common patterns not sorted by frequency: %v", common)
			}
		}

		for p, count := range counts {
			if (count > 1) != reported[p] {
				rt.Fatalf("pattern %s with count %d reported=%v", p, count, reported[p])
			}
		}
	})
}

// TestPropertyOneFixPerAggregate verifies that every common pattern and
// systemic issue yields exactly one recommendation.
func TestPropertyOneFixPerAggregate(t *testing.T) {
	kinds := models.Kinds()

	rapid.Check(t, func(rt *rapid.T) {
		n := rapid.IntRange(0, 20).Draw(rt, "num_failures")

		results := make([]models.ActionResult, 0, n)
		for i := 0; i < n; i++ {
			kind := rapid.SampledFrom(kinds).Draw(rt, "kind")
			errText := rapid.SampledFrom([]string{"timeout", "permission denied", "target_not_found: x", "syntax", "import", "boom"}).Draw(rt, "error")
			results = append(results, models.ActionResult{
				Action: models.NewAction(kind, "t", "", ""),
				Result: &models.ExecutionResult{Status: models.StatusFailed, Error: errText},
			})
		}

		analysis := Analyze(results)
		want := len(analysis.CommonPatterns) + len(analysis.SystemicIssues)
		if len(analysis.RecommendedFixes) != want {
			rt.Fatalf("got %d fixes, want %d", len(analysis.RecommendedFixes), want)
		}
		for _, fix := range analysis.RecommendedFixes {
			if models.ParseKind(fix.Type, fix.Action) == models.KindUnknown {
				rt.Fatalf("fix %s/%s is not a known kind", fix.Type, fix.Action)
			}
		}
	})
}
