package inspector

import (
	"context"

	"github.com/clearsight-video/inspect-api/media"
)

// NeutralStub is the default Func for a descriptor with no wired
// implementation: it reports the neutral score with no events. Production
// registries override every entry with a real model-backed Func; this stub
// exists so an incomplete wiring degrades gracefully instead of panicking.
func NeutralStub(ctx context.Context, bundle media.SampledMedia, derived Derived) (float64, []AnomalyEvent, error) {
	return NeutralScore, nil, nil
}

// FixedScoreStub returns a Func that always reports score with the given
// events, ignoring its inputs — used by tests to script an inspector's
// behavior (mirrors the fake-over-mock style used for the HTTP handler
// tests elsewhere in this repo).
func FixedScoreStub(score float64, events []AnomalyEvent) Func {
	return func(ctx context.Context, bundle media.SampledMedia, derived Derived) (float64, []AnomalyEvent, error) {
		return score, events, nil
	}
}

// HangingStub never returns until ctx is cancelled, used to exercise the
// Runner's timeout path.
func HangingStub() Func {
	return func(ctx context.Context, bundle media.SampledMedia, derived Derived) (float64, []AnomalyEvent, error) {
		<-ctx.Done()
		return 0, nil, ctx.Err()
	}
}

// ErroringStub returns a Func that immediately fails.
func ErroringStub(err error) Func {
	return func(ctx context.Context, bundle media.SampledMedia, derived Derived) (float64, []AnomalyEvent, error) {
		return 0, nil, err
	}
}

// PanickingStub returns a Func that panics, used to exercise the Runner's
// panic recovery.
func PanickingStub(msg string) Func {
	return func(ctx context.Context, bundle media.SampledMedia, derived Derived) (float64, []AnomalyEvent, error) {
		panic(msg)
	}
}
