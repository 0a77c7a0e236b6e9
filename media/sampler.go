package media

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/clearsight-video/inspect-api/log"
	ffmpeg "github.com/u2takey/ffmpeg-go"
)

// Sampler turns an uploaded file into a SampledMedia bundle: ordered frames
// at a target cadence, extracted audio, and derived metadata.
type Sampler struct {
	Prober Prober
}

func NewSampler() *Sampler {
	return &Sampler{Prober: FFProbe{}}
}

// Sample implements the Media Sampler's contract. workspaceDir is the job's
// private temp directory; frames and audio are written inside it.
func (s *Sampler) Sample(ctx context.Context, inputPath, workspaceDir string, targetFps, maxDurationSec int) (SampledMedia, error) {
	probe, err := s.Prober.Probe(ctx, inputPath)
	if err != nil {
		return SampledMedia{}, UnsupportedMediaError{Detail: "could not probe input", Cause: err}
	}

	effectiveDurationSec := probe.DurationSec
	if float64(maxDurationSec) < effectiveDurationSec {
		effectiveDurationSec = float64(maxDurationSec)
	}

	framesDir := filepath.Join(workspaceDir, "frames")
	if err := os.MkdirAll(framesDir, 0755); err != nil {
		return SampledMedia{}, fmt.Errorf("creating frames dir: %w", err)
	}

	frames, err := s.extractFrames(ctx, inputPath, framesDir, targetFps, effectiveDurationSec)
	if err != nil {
		return SampledMedia{}, err
	}
	if len(frames) == 0 {
		return SampledMedia{}, UnsupportedMediaError{Detail: "zero frames decoded"}
	}

	audioPath := filepath.Join(workspaceDir, "audio.wav")
	if err := s.extractAudio(ctx, inputPath, audioPath, effectiveDurationSec, probe.HasAudio); err != nil {
		return SampledMedia{}, err
	}

	last := frames[len(frames)-1].TimestampSec
	bundle := SampledMedia{
		Frames:               frames,
		AudioPath:            audioPath,
		HasAudio:             probe.HasAudio,
		OriginalDurationSec:  probe.DurationSec,
		EffectiveDurationSec: last + 1/float64(targetFps),
		TargetFps:            targetFps,
	}
	if bundle.EffectiveDurationSec > effectiveDurationSec {
		bundle.EffectiveDurationSec = effectiveDurationSec
	}
	return bundle, nil
}

func (s *Sampler) extractFrames(ctx context.Context, inputPath, framesDir string, targetFps int, durationSec float64) ([]Frame, error) {
	pattern := filepath.Join(framesDir, "frame_%06d.png")

	var ffmpegErr bytes.Buffer
	err := ffmpeg.
		Input(inputPath).
		Output(pattern, ffmpeg.KwArgs{
			"vf": fmt.Sprintf("fps=%d", targetFps),
			"t":  fmt.Sprintf("%.3f", durationSec),
		}).
		OverWriteOutput().WithErrorOutput(&ffmpegErr).Run()
	if err != nil {
		log.LogNoRequestID("frame extraction failed", "err", err, "ffmpeg", ffmpegErr.String())
		return nil, UnsupportedMediaError{Detail: "frame decode failed", Cause: err}
	}

	entries, err := filepath.Glob(filepath.Join(framesDir, "frame_*.png"))
	if err != nil {
		return nil, fmt.Errorf("listing extracted frames: %w", err)
	}
	sort.Strings(entries)

	frames := make([]Frame, 0, len(entries))
	for i, path := range entries {
		frames = append(frames, Frame{
			TimestampSec: float64(i) / float64(targetFps),
			PixelsPath:   path,
		})
	}
	return frames, nil
}

func (s *Sampler) extractAudio(ctx context.Context, inputPath, audioPath string, durationSec float64, hasAudio bool) error {
	if !hasAudio {
		return os.WriteFile(audioPath, nil, 0644)
	}

	var ffmpegErr bytes.Buffer
	err := ffmpeg.
		Input(inputPath).
		Output(audioPath, ffmpeg.KwArgs{
			"vn": "",
			"ac": "1",
			"ar": "16000",
			"t":  fmt.Sprintf("%.3f", durationSec),
		}).
		OverWriteOutput().WithErrorOutput(&ffmpegErr).Run()
	if err != nil {
		log.LogNoRequestID("audio extraction failed", "err", err, "ffmpeg", ffmpegErr.String())
		return UnsupportedMediaError{Detail: "audio decode failed", Cause: err}
	}
	return nil
}

// SampleWithTimeout wraps Sample with an overall sampling budget, translating a
// context deadline into SamplingTimeoutError rather than a bare context
// error.
func (s *Sampler) SampleWithTimeout(ctx context.Context, inputPath, workspaceDir string, targetFps, maxDurationSec int, budget time.Duration) (SampledMedia, error) {
	ctx, cancel := context.WithTimeout(ctx, budget)
	defer cancel()

	type result struct {
		bundle SampledMedia
		err    error
	}
	done := make(chan result, 1)
	go func() {
		bundle, err := s.Sample(ctx, inputPath, workspaceDir, targetFps, maxDurationSec)
		done <- result{bundle, err}
	}()

	select {
	case r := <-done:
		return r.bundle, r.err
	case <-ctx.Done():
		return SampledMedia{}, SamplingTimeoutError{Detail: fmt.Sprintf("exceeded %s", budget)}
	}
}
