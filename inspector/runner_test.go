package inspector

import (
	"context"
	"errors"
	"testing"

	"github.com/clearsight-video/inspect-api/media"
	"github.com/stretchr/testify/require"
)

func testDescriptor(name string, timeoutSec int, fn Func) Descriptor {
	return Descriptor{
		Name:          name,
		Requires:      requires("frames"),
		Weight:        0.1,
		Timeout:       func() int { return timeoutSec },
		MayEmitEvents: emits("some_tag"),
		Fn:            fn,
	}
}

func TestRunnerSuccess(t *testing.T) {
	r := NewRunner()
	d := testDescriptor("visual_clip", 5, FixedScoreStub(0.3, nil))
	outcome := r.Run(context.Background(), d, media.SampledMedia{}, Derived{})
	require.Equal(t, Success, outcome.Kind)
	require.Equal(t, 0.3, outcome.Score)
}

func TestRunnerClampsOutOfRangeScore(t *testing.T) {
	r := NewRunner()
	given := []AnomalyEvent{{Module: "visual_clip", EventTag: "some_tag"}}
	d := testDescriptor("visual_clip", 5, FixedScoreStub(1.5, given))
	outcome := r.Run(context.Background(), d, media.SampledMedia{}, Derived{})
	require.Equal(t, Success, outcome.Kind)
	require.Equal(t, 1.0, outcome.Score)
	require.Len(t, outcome.Events, 1)
	require.Equal(t, "some_tag", outcome.Events[0].EventTag)
	require.Equal(t, true, outcome.Events[0].Metadata["score_clamped"])
	require.Equal(t, 1.5, outcome.Events[0].Metadata["raw_score"])
}

func TestRunnerClampsOutOfRangeScoreWithNoEvents(t *testing.T) {
	r := NewRunner()
	d := testDescriptor("visual_clip", 5, FixedScoreStub(-0.5, nil))
	outcome := r.Run(context.Background(), d, media.SampledMedia{}, Derived{})
	require.Equal(t, Success, outcome.Kind)
	require.Equal(t, 0.0, outcome.Score)
	require.Empty(t, outcome.Events)
}

func TestRunnerTimeout(t *testing.T) {
	r := NewRunner()
	d := testDescriptor("lipsync", 0, HangingStub())
	outcome := r.Run(context.Background(), d, media.SampledMedia{}, Derived{})
	require.Equal(t, Timeout, outcome.Kind)
}

func TestRunnerError(t *testing.T) {
	r := NewRunner()
	d := testDescriptor("ocr_gibberish", 5, ErroringStub(errors.New("boom")))
	outcome := r.Run(context.Background(), d, media.SampledMedia{}, Derived{})
	require.Equal(t, Error, outcome.Kind)
	require.ErrorContains(t, outcome.Err, "boom")
}

func TestRunnerRecoversPanic(t *testing.T) {
	r := NewRunner()
	d := testDescriptor("blink", 5, PanickingStub("nil pointer somewhere"))
	outcome := r.Run(context.Background(), d, media.SampledMedia{}, Derived{})
	require.Equal(t, Error, outcome.Kind)
	require.ErrorContains(t, outcome.Err, "nil pointer somewhere")
}

func TestResolveSuccessPassesThrough(t *testing.T) {
	d := testDescriptor("visual_clip", 5, nil)
	outcome := Outcome{Kind: Success, Score: 0.42, Events: []AnomalyEvent{{Module: "visual_clip", EventTag: "some_tag"}}}
	score, events := Resolve(d, outcome, 10)
	require.Equal(t, 0.42, score)
	require.Len(t, events, 1)
}

func TestResolveTimeoutDegradesToNeutral(t *testing.T) {
	d := testDescriptor("lipsync", 5, nil)
	score, events := Resolve(d, Outcome{Kind: Timeout}, 30)
	require.Equal(t, NeutralScore, score)
	require.Len(t, events, 1)
	require.Equal(t, "inspector_failed", events[0].EventTag)
	require.Equal(t, 30.0, events[0].DurationSec)
	require.Equal(t, "timeout", events[0].Metadata["reason"])
}

func TestResolveErrorDegradesToNeutral(t *testing.T) {
	d := testDescriptor("blink", 5, nil)
	score, events := Resolve(d, Outcome{Kind: Error, Err: errors.New("decode failed")}, 30)
	require.Equal(t, NeutralScore, score)
	require.Equal(t, "decode failed", events[0].Metadata["reason"])
}
