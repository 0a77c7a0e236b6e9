package media

import "fmt"

// Frame is one decoded video frame, sampled at a fixed cadence. Pixels are
// held on disk (inside the job workspace) rather than in memory — a single
// job can produce hundreds of frames and inspectors read them independently
// and concurrently.
type Frame struct {
	TimestampSec float64
	PixelsPath   string
}

// SampledMedia is the canonical intermediate representation the Sampler
// produces and every inspector consumes. See Sampler.Sample for the
// invariants it guarantees.
type SampledMedia struct {
	Frames              []Frame
	AudioPath           string
	HasAudio            bool
	OriginalDurationSec float64
	EffectiveDurationSec float64
	TargetFps           int
}

func (m SampledMedia) String() string {
	return fmt.Sprintf("SampledMedia{frames=%d, effectiveDurationSec=%.3f, targetFps=%d, hasAudio=%v}",
		len(m.Frames), m.EffectiveDurationSec, m.TargetFps, m.HasAudio)
}
