package events

import (
	"math"
	"sort"
	"sync"

	"github.com/clearsight-video/inspect-api/inspector"
)

// Aggregator collects AnomalyEvents emitted by any inspector for one job and
// produces the final deduplicated, sorted, clamped timeline.
type Aggregator struct {
	mu     sync.Mutex
	events []inspector.AnomalyEvent
}

func NewAggregator() *Aggregator {
	return &Aggregator{}
}

// Append adds events under a concurrent-safe critical section. Multiple
// inspectors running concurrently call this independently.
func (a *Aggregator) Append(events ...inspector.AnomalyEvent) {
	if len(events) == 0 {
		return
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.events = append(a.events, events...)
}

type dedupKey struct {
	module       string
	eventTag     string
	timestampSec float64
	durationSec  float64
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// Finalize produces the final ordered timeline: sorted by (timestampSec,
// module, eventTag), deduplicated per the (module, eventTag, timestampSec,
// durationSec) equivalence (rounded to 0.01s, metadata shallow-merged,
// later writer wins), and clamped so no event extends past
// effectiveDurationSec.
func (a *Aggregator) Finalize(effectiveDurationSec float64) []inspector.AnomalyEvent {
	a.mu.Lock()
	snapshot := make([]inspector.AnomalyEvent, len(a.events))
	copy(snapshot, a.events)
	a.mu.Unlock()

	for i := range snapshot {
		e := &snapshot[i]
		if e.TimestampSec+e.DurationSec > effectiveDurationSec {
			e.DurationSec = effectiveDurationSec - e.TimestampSec
			if e.DurationSec < 0 {
				e.DurationSec = 0
			}
			if e.Metadata == nil {
				e.Metadata = map[string]interface{}{}
			}
			e.Metadata["clamped"] = true
		}
	}

	merged := map[dedupKey]*inspector.AnomalyEvent{}
	order := []dedupKey{}
	for _, e := range snapshot {
		key := dedupKey{
			module:       e.Module,
			eventTag:     e.EventTag,
			timestampSec: round2(e.TimestampSec),
			durationSec:  round2(e.DurationSec),
		}
		if existing, ok := merged[key]; ok {
			for k, v := range e.Metadata {
				if existing.Metadata == nil {
					existing.Metadata = map[string]interface{}{}
				}
				existing.Metadata[k] = v
			}
			continue
		}
		eCopy := e
		merged[key] = &eCopy
		order = append(order, key)
	}

	out := make([]inspector.AnomalyEvent, 0, len(order))
	for _, key := range order {
		out = append(out, *merged[key])
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].TimestampSec != out[j].TimestampSec {
			return out[i].TimestampSec < out[j].TimestampSec
		}
		if out[i].Module != out[j].Module {
			return out[i].Module < out[j].Module
		}
		return out[i].EventTag < out[j].EventTag
	})

	return out
}
