package api

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestOkWritesOK(t *testing.T) {
	h := &Handlers{}
	resp := httptest.NewRecorder()
	h.Ok()(resp, nil, nil)
	require.Equal(t, "OK", resp.Body.String())
}

func TestHealthcheckReturnsHealthyStatus(t *testing.T) {
	h := &Handlers{}
	resp := httptest.NewRecorder()
	h.Healthcheck()(resp, nil, nil)
	require.Equal(t, `{"status":"healthy"}`, resp.Body.String())
}
