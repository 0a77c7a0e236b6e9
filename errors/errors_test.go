package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPipelineErrorKind(t *testing.T) {
	err := NewPipelineError(SamplingError, "zero frames decoded", fmt.Errorf("ffmpeg: no frames"))
	require.True(t, IsPipelineError(err, SamplingError))
	require.False(t, IsPipelineError(err, FusionError))
	require.Contains(t, err.Error(), "zero frames decoded")
	require.ErrorContains(t, errors.Unwrap(err), "no frames")
}

func TestRejectedErrorReasons(t *testing.T) {
	err := NewRejectedError(TooLarge, "5242880001 bytes exceeds limit")
	require.Equal(t, TooLarge, err.Reason)
	require.Contains(t, err.Error(), "TooLarge")
}
