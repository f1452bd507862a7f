package planner

import "github.com/harrison/actuator/internal/models"

// DefaultSamples is the number of plans drawn per synthesis.
const DefaultSamples = 3

// Synthesizer builds action plans by sampling a classifier several times
// and keeping the actions a majority of samples agree on.
type Synthesizer struct {
	classifier Classifier
	samples    int
}

// NewSynthesizer creates a synthesizer. A nil classifier uses the default
// rule table; samples below 1 are treated as 1.
func NewSynthesizer(classifier Classifier, samples int) *Synthesizer {
	if classifier == nil {
		classifier = NewRuleClassifier()
	}
	if samples < 1 {
		samples = 1
	}
	return &Synthesizer{classifier: classifier, samples: samples}
}

// Samples returns the number of plans drawn per synthesis.
func (s *Synthesizer) Samples() int {
	return s.samples
}

// CreateActionPlan draws one plan: the concatenation of every insight's
// classified actions, in insight order.
func (s *Synthesizer) CreateActionPlan(insights []models.Insight) []models.Action {
	var plan []models.Action
	for _, insight := range insights {
		plan = append(plan, s.classifier.Classify(insight)...)
	}
	return plan
}

// Synthesize draws Samples plans and returns their majority vote.
func (s *Synthesizer) Synthesize(insights []models.Insight) []models.Action {
	plans := make([][]models.Action, 0, s.samples)
	for i := 0; i < s.samples; i++ {
		plans = append(plans, s.CreateActionPlan(insights))
	}
	return Vote(plans, s.samples)
}

// Vote keeps actions whose key occurs at least max(1, n/2+1) times across
// all plans, counting every occurrence. Kept actions appear in first-seen
// key order, each represented by the last instance seen. When nothing
// reaches the threshold the first plan is returned unchanged.
func Vote(plans [][]models.Action, n int) []models.Action {
	if n < 1 {
		n = 1
	}
	threshold := n/2 + 1
	if threshold < 1 {
		threshold = 1
	}

	counts := make(map[models.ActionKey]int)
	last := make(map[models.ActionKey]models.Action)
	var order []models.ActionKey

	for _, plan := range plans {
		for _, action := range plan {
			key := action.Key()
			if _, seen := counts[key]; !seen {
				order = append(order, key)
			}
			counts[key]++
			last[key] = action
		}
	}

	var majority []models.Action
	for _, key := range order {
		if counts[key] >= threshold {
			majority = append(majority, last[key])
		}
	}

	if len(majority) == 0 && len(plans) > 0 {
		return plans[0]
	}
	return majority
}
