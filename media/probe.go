package media

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"gopkg.in/vansante/go-ffprobe.v2"
)

var unsupportedVideoCodecs = []string{"mjpeg", "jpeg", "png"}

// ProbeResult is everything the Sampler needs from ffprobe before it starts
// decoding: how long the source is and whether it carries an audio track.
type ProbeResult struct {
	DurationSec float64
	HasAudio    bool
}

// Prober probes a source file for duration/codec information. The default
// implementation shells out to ffprobe; tests substitute a stub.
type Prober interface {
	Probe(ctx context.Context, path string) (ProbeResult, error)
}

// FFProbe is the production Prober, grounded on the teacher's retrying
// ffprobe wrapper.
type FFProbe struct{}

func (FFProbe) Probe(ctx context.Context, path string) (ProbeResult, error) {
	var data *ffprobe.ProbeData
	operation := func() error {
		probeCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
		defer cancel()
		var err error
		data, err = ffprobe.ProbeURL(probeCtx, path, "-loglevel", "error")
		return err
	}

	backOff := backoff.NewExponentialBackOff()
	backOff.InitialInterval = 250 * time.Millisecond
	backOff.MaxInterval = 2 * time.Second
	backOff.MaxElapsedTime = 10 * time.Second
	if err := backoff.Retry(operation, backoff.WithContext(backOff, ctx)); err != nil {
		return ProbeResult{}, fmt.Errorf("probing %s: %w", path, err)
	}
	return parseProbeOutput(data)
}

func parseProbeOutput(probeData *ffprobe.ProbeData) (ProbeResult, error) {
	videoStream := probeData.FirstVideoStream()
	if videoStream == nil {
		return ProbeResult{}, fmt.Errorf("no video stream found")
	}
	for _, codec := range unsupportedVideoCodecs {
		if strings.EqualFold(videoStream.CodecName, codec) {
			return ProbeResult{}, fmt.Errorf("video codec %s is not supported", videoStream.CodecName)
		}
	}
	if probeData.Format == nil {
		return ProbeResult{}, fmt.Errorf("format information missing")
	}

	duration := probeData.Format.DurationSeconds
	if duration <= 0 {
		return ProbeResult{}, fmt.Errorf("could not determine duration")
	}

	return ProbeResult{
		DurationSec: duration,
		HasAudio:    probeData.FirstAudioStream() != nil,
	}, nil
}
