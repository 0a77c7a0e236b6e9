package fusion

import (
	"testing"

	"github.com/clearsight-video/inspect-api/inspector"
	"github.com/stretchr/testify/require"
)

func descriptors() []inspector.Descriptor {
	mk := func(name string, weight float64, frames bool) inspector.Descriptor {
		reqs := map[string]bool{}
		if frames {
			reqs["frames"] = true
		}
		return inspector.Descriptor{Name: name, Weight: weight, Requires: reqs}
	}
	return []inspector.Descriptor{
		mk("visual_clip", 0.20, true),
		mk("visual_artifacts", 0.15, true),
		mk("lipsync", 0.15, true),
		mk("blink", 0.10, true),
		mk("ocr_gibberish", 0.05, true),
		mk("motion_flow", 0.10, true),
		mk("audio_loop", 0.05, false),
		mk("lighting", 0.05, true),
		mk("transcript", 0.00, false),
	}
}

func TestHappyPathLikelyReal(t *testing.T) {
	scores := map[string]float64{}
	for _, d := range descriptors() {
		scores[d.Name] = 0.1
	}
	e := NewEngine()
	result := e.Combine(descriptors(), scores)
	require.InDelta(t, 0.9, result.Confidence, 1e-9)
	require.Equal(t, LikelyReal, result.Label)
}

func TestLikelyFakeFromSkewedScores(t *testing.T) {
	scores := map[string]float64{
		"visual_clip":      0.9,
		"visual_artifacts": 0.85,
		"lipsync":          0.8,
		"blink":            0.7,
		"ocr_gibberish":    0.6,
		"motion_flow":      0.75,
		"audio_loop":       0.5,
		"lighting":         0.8,
	}
	e := NewEngine()
	result := e.Combine(descriptors(), scores)
	// Expected value derived from the §4.5 algorithm itself (weighted mean
	// over non-zero-weight inspectors, confidence = 1 - fakeScore), not
	// transcribed from an illustrative example.
	wSum := 0.20 + 0.15 + 0.15 + 0.10 + 0.05 + 0.10 + 0.05 + 0.05
	fakeScore := (0.9*0.20 + 0.85*0.15 + 0.8*0.15 + 0.7*0.10 + 0.6*0.05 + 0.75*0.10 + 0.5*0.05 + 0.8*0.05) / wSum
	require.InDelta(t, 1-fakeScore, result.Confidence, 1e-9)
	require.Equal(t, LikelyFake, result.Label)
}

func TestAllInspectorsNeutralYieldsUncertain(t *testing.T) {
	scores := map[string]float64{}
	for _, d := range descriptors() {
		scores[d.Name] = 0.5
	}
	e := NewEngine()
	result := e.Combine(descriptors(), scores)
	require.InDelta(t, 0.5, result.Confidence, 1e-9)
	require.Equal(t, Uncertain, result.Label)
}

func TestNoScoresYieldsUncertainHalf(t *testing.T) {
	e := NewEngine()
	result := e.Combine(descriptors(), map[string]float64{})
	require.Equal(t, 0.5, result.Confidence)
	require.Equal(t, Uncertain, result.Label)
}

func TestLabelThresholdBoundariesAreInclusiveOnLowerBound(t *testing.T) {
	single := []inspector.Descriptor{{Name: "visual_clip", Weight: 1.0}}
	e := NewEngine()

	r := e.Combine(single, map[string]float64{"visual_clip": 0.30}) // confidence exactly 0.70
	require.Equal(t, LikelyReal, r.Label)

	r = e.Combine(single, map[string]float64{"visual_clip": 0.60}) // confidence exactly 0.40
	require.Equal(t, Uncertain, r.Label)

	r = e.Combine(single, map[string]float64{"visual_clip": 0.6000001})
	require.Equal(t, LikelyFake, r.Label)
}

func TestIsDeterministic(t *testing.T) {
	scores := map[string]float64{"visual_clip": 0.37, "blink": 0.81}
	e := NewEngine()
	a := e.Combine(descriptors(), scores)
	b := e.Combine(descriptors(), scores)
	require.Equal(t, a, b)
}

func TestVisualScoreExcludesNonVisualInspectors(t *testing.T) {
	scores := map[string]float64{
		"visual_clip": 0.2,
		"audio_loop":  0.9, // not frames-requiring; must not affect VisualScore
	}
	e := NewEngine()
	result := e.Combine(descriptors(), scores)
	require.InDelta(t, 0.8, result.VisualScore, 1e-9)
}
