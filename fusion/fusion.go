package fusion

import "github.com/clearsight-video/inspect-api/inspector"

// Label is the categorical verdict the Engine assigns to a confidence
// value.
type Label string

const (
	LikelyReal Label = "LIKELY_REAL"
	Uncertain  Label = "UNCERTAIN"
	LikelyFake Label = "LIKELY_FAKE"
)

// Result is the Fusion Engine's output: an overall confidence plus the
// visual-only sub-fusion used for diagnostics.
type Result struct {
	Confidence  float64
	Label       Label
	VisualScore float64
}

// Engine is a deterministic, stateless weighted combiner: identical score
// maps always produce identical Results. It performs no I/O.
type Engine struct{}

func NewEngine() *Engine {
	return &Engine{}
}

// Combine maps the per-inspector score vector to an overall confidence and
// label. descriptors supplies the weight (and `requires`, for the visual
// sub-score) for every name present in scores.
func (e *Engine) Combine(descriptors []inspector.Descriptor, scores map[string]float64) Result {
	byName := make(map[string]inspector.Descriptor, len(descriptors))
	for _, d := range descriptors {
		byName[d.Name] = d
	}

	fakeScore, ok := weightedMean(byName, scores, func(inspector.Descriptor) bool { return true })
	if !ok {
		return Result{Confidence: 0.5, Label: Uncertain, VisualScore: 0.5}
	}
	confidence := clamp01(1 - fakeScore)

	visualFake, visualOK := weightedMean(byName, scores, func(d inspector.Descriptor) bool { return d.Requires["frames"] })
	visualScore := 0.5
	if visualOK {
		visualScore = clamp01(1 - visualFake)
	}

	return Result{
		Confidence:  confidence,
		Label:       labelFor(confidence),
		VisualScore: visualScore,
	}
}

// weightedMean computes Σ weight_i×score_i / Σ weight_i over the subset of
// scores whose descriptor matches include, with non-zero weight. ok is
// false when the denominator is zero (no matching inspector produced a
// score).
func weightedMean(byName map[string]inspector.Descriptor, scores map[string]float64, include func(inspector.Descriptor) bool) (mean float64, ok bool) {
	var weightedSum, weightSum float64
	for name, score := range scores {
		d, known := byName[name]
		if !known || d.Weight == 0 || !include(d) {
			continue
		}
		weightedSum += d.Weight * score
		weightSum += d.Weight
	}
	if weightSum == 0 {
		return 0, false
	}
	return weightedSum / weightSum, true
}

// labelFor applies the inclusive-lower-bound threshold rule.
func labelFor(confidence float64) Label {
	switch {
	case confidence >= 0.70:
		return LikelyReal
	case confidence >= 0.40:
		return Uncertain
	default:
		return LikelyFake
	}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
