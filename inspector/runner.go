package inspector

import (
	"context"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/clearsight-video/inspect-api/log"
	"github.com/clearsight-video/inspect-api/media"
)

// NeutralScore is substituted for any non-Success outcome, unless the
// descriptor is fatalOnFailure (in which case the job fails instead).
const NeutralScore = 0.5

// Runner executes a single inspector's black-box function under a strict
// timeout, isolating any failure mode (panic, error, or hang) from the rest
// of the pipeline.
type Runner struct{}

func NewRunner() *Runner {
	return &Runner{}
}

// Run invokes descriptor.Fn against bundle/derived, enforcing
// descriptor.Timeout() as a hard wall-clock cap. It never panics: any panic
// inside the inspector's scope is recovered and reported as an Error
// outcome.
func (r *Runner) Run(ctx context.Context, descriptor Descriptor, bundle media.SampledMedia, derived Derived) Outcome {
	timeout := time.Duration(descriptor.Timeout()) * time.Second
	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	type result struct {
		score  float64
		events []AnomalyEvent
		err    error
	}
	done := make(chan result, 1)

	go func() {
		score, events, err := recovered(descriptor, runCtx, bundle, derived)
		done <- result{score, events, err}
	}()

	select {
	case res := <-done:
		if res.err != nil {
			// An inspector that returns because its context expired timed out,
			// even if its return beat runCtx.Done() to this select.
			if runCtx.Err() != nil {
				return Outcome{Kind: Timeout, Err: runCtx.Err()}
			}
			return Outcome{Kind: Error, Err: res.err}
		}
		return classify(descriptor, res.score, res.events)
	case <-runCtx.Done():
		return Outcome{Kind: Timeout, Err: runCtx.Err()}
	}
}

// recovered runs fn in the calling goroutine but converts any panic into an
// error return, so a misbehaving inspector can never crash the process.
func recovered(descriptor Descriptor, ctx context.Context, bundle media.SampledMedia, derived Derived) (score float64, events []AnomalyEvent, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			log.LogNoRequestID("panic in inspector, recovering", "inspector", descriptor.Name, "err", rec, "trace", string(debug.Stack()))
			err = fmt.Errorf("panic in inspector %s: %v", descriptor.Name, rec)
		}
	}()
	return descriptor.Fn(ctx, bundle, derived)
}

// classify applies the Runner's error-classification rules to a clean
// return from the inspector: scores outside [0,1] are clamped and flagged,
// everything else passes through as Success.
func classify(descriptor Descriptor, score float64, events []AnomalyEvent) Outcome {
	raw := score
	clamped := false
	if score < 0 {
		score = 0
		clamped = true
	} else if score > 1 {
		score = 1
		clamped = true
	}
	// Clamping is recorded as metadata on the inspector's own emitted events,
	// never as a synthetic event of its own: a descriptor with an empty
	// MayEmitEvents set (e.g. visual_clip) has no tag to carry it under, so a
	// clamp with no events to annotate is silently dropped.
	if clamped {
		for i := range events {
			if events[i].Metadata == nil {
				events[i].Metadata = map[string]interface{}{}
			}
			events[i].Metadata["score_clamped"] = true
			events[i].Metadata["raw_score"] = raw
		}
	}
	return Outcome{Kind: Success, Score: score, Events: events}
}

// Resolve applies the neutral-score policy to a Runner outcome, producing
// the score/events contribution this inspector makes to the job: Success
// passes through; Timeout and Error degrade to NeutralScore plus a single
// inspector_failed diagnostic event, unless the descriptor is fatal, in
// which case the caller (the Orchestrator) is expected to fail the job
// instead of calling Resolve.
func Resolve(descriptor Descriptor, outcome Outcome, effectiveDurationSec float64) (score float64, events []AnomalyEvent) {
	if outcome.Kind == Success {
		return outcome.Score, outcome.Events
	}

	reason := "unknown"
	switch outcome.Kind {
	case Timeout:
		reason = "timeout"
	case Error:
		if outcome.Err != nil {
			reason = outcome.Err.Error()
		} else {
			reason = "error"
		}
	}

	return NeutralScore, []AnomalyEvent{{
		Module:       descriptor.Name,
		EventTag:     "inspector_failed",
		TimestampSec: 0,
		DurationSec:  effectiveDurationSec,
		Metadata:     map[string]interface{}{"reason": reason},
	}}
}
