package inspector

import (
	"context"

	"github.com/clearsight-video/inspect-api/media"
)

// AnomalyEvent is a timestamped observation attributed to one inspector.
type AnomalyEvent struct {
	Module       string
	EventTag     string
	TimestampSec float64
	DurationSec  float64
	Metadata     map[string]interface{}
}

// Descriptor is a static catalogue entry: one per registered inspector.
// The Registry owns the full set; the Orchestrator treats every inspector
// identically regardless of name.
type Descriptor struct {
	Name           string
	Requires       map[string]bool // subset of {"frames", "audio", "transcript"}
	Weight         float64
	Timeout        func() int // seconds; indirection lets callers override via Config.PerInspectorTimeoutSec
	MayEmitEvents  map[string]bool
	FatalOnFailure bool
	Fn             Func
}

// Derived is the read-only bag of artifacts produced by earlier-run
// inspectors, keyed by producer name (e.g. "transcript" -> string).
type Derived map[string]interface{}

// Func is the black-box inspector contract: sampled-media in, a score and
// event list out. Implementations MUST observe ctx cancellation promptly.
type Func func(ctx context.Context, bundle media.SampledMedia, derived Derived) (score float64, events []AnomalyEvent, err error)

// Outcome is the tagged union an inspector invocation resolves to. Exactly
// one of the three cases is populated, signalled by Kind.
type OutcomeKind int

const (
	Success OutcomeKind = iota
	Timeout
	Error
)

type Outcome struct {
	Kind   OutcomeKind
	Score  float64
	Events []AnomalyEvent
	Err    error
}
