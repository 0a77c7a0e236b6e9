package inspector

import (
	"context"
	"testing"

	"github.com/clearsight-video/inspect-api/config"
	"github.com/clearsight-video/inspect-api/media"
	"github.com/stretchr/testify/require"
)

func TestDefaultRegistryHasNineInspectors(t *testing.T) {
	r := NewDefaultRegistry(config.Default(), nil)
	require.Len(t, r.All(), 9)
}

func TestTranscriptInspectorHasZeroWeight(t *testing.T) {
	r := NewDefaultRegistry(config.Default(), nil)
	d, ok := r.Get("transcript")
	require.True(t, ok)
	require.Equal(t, 0.0, d.Weight)
	require.True(t, d.Requires["audio"])
}

func TestLipsyncRequiresTranscript(t *testing.T) {
	r := NewDefaultRegistry(config.Default(), nil)
	d, ok := r.Get("lipsync")
	require.True(t, ok)
	require.True(t, d.Requires["transcript"])
}

func TestPerInspectorTimeoutOverride(t *testing.T) {
	cfg := config.Default()
	cfg.PerInspectorTimeoutSec["blink"] = 5
	r := NewDefaultRegistry(cfg, nil)
	d, ok := r.Get("blink")
	require.True(t, ok)
	require.Equal(t, 5, d.Timeout())
}

func TestUnwiredInspectorDefaultsToNeutralStub(t *testing.T) {
	r := NewDefaultRegistry(config.Default(), nil)
	d, ok := r.Get("visual_clip")
	require.True(t, ok)
	score, events, err := d.Fn(context.Background(), media.SampledMedia{}, nil)
	require.NoError(t, err)
	require.Equal(t, NeutralScore, score)
	require.Nil(t, events)
}
