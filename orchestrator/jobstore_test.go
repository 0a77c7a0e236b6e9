package orchestrator

import (
	"testing"

	apierrors "github.com/clearsight-video/inspect-api/errors"
	"github.com/stretchr/testify/require"
)

func TestJobStoreInsertAndRead(t *testing.T) {
	s := NewJobStore()
	require.NoError(t, s.Insert("job-1", JobRecord{JobId: "job-1", Status: StatusPending}))

	rec, err := s.Read("job-1")
	require.NoError(t, err)
	require.Equal(t, StatusPending, rec.Status)
}

func TestJobStoreInsertDuplicateFails(t *testing.T) {
	s := NewJobStore()
	require.NoError(t, s.Insert("job-1", JobRecord{JobId: "job-1"}))

	err := s.Insert("job-1", JobRecord{JobId: "job-1"})
	require.Error(t, err)
	require.IsType(t, apierrors.DuplicateJobError{}, err)
}

func TestJobStoreReadUnknownFails(t *testing.T) {
	s := NewJobStore()
	_, err := s.Read("nope")
	require.Error(t, err)
	require.IsType(t, apierrors.NotFoundError{}, err)
}

func TestJobStoreUpdateMutatesInPlace(t *testing.T) {
	s := NewJobStore()
	require.NoError(t, s.Insert("job-1", JobRecord{JobId: "job-1", Status: StatusPending, Progress: 0}))

	err := s.Update("job-1", func(r *JobRecord) {
		r.Status = StatusProcessing
		r.Progress = 0.5
	})
	require.NoError(t, err)

	rec, err := s.Read("job-1")
	require.NoError(t, err)
	require.Equal(t, StatusProcessing, rec.Status)
	require.Equal(t, 0.5, rec.Progress)
}

func TestJobStoreUpdateUnknownFails(t *testing.T) {
	s := NewJobStore()
	err := s.Update("nope", func(r *JobRecord) {})
	require.Error(t, err)
	require.IsType(t, apierrors.NotFoundError{}, err)
}

func TestJobStoreRemoveRollsBackInsert(t *testing.T) {
	s := NewJobStore()
	require.NoError(t, s.Insert("job-1", JobRecord{JobId: "job-1"}))
	s.remove("job-1")

	_, err := s.Read("job-1")
	require.IsType(t, apierrors.NotFoundError{}, err)

	// A fresh Insert of the same jobId now succeeds since the slot was
	// actually removed, not merely marked.
	require.NoError(t, s.Insert("job-1", JobRecord{JobId: "job-1"}))
}

// A terminal write must make status and the terminal fields (Result,
// ErrorKind, CompletedAt) visible to a reader in the same snapshot — never
// a status flip observed before the accompanying fields land.
func TestJobStoreUpdateIsAtomicAcrossFields(t *testing.T) {
	s := NewJobStore()
	require.NoError(t, s.Insert("job-1", JobRecord{JobId: "job-1", Status: StatusProcessing}))

	kind := apierrors.FusionError
	err := s.Update("job-1", func(r *JobRecord) {
		r.ErrorKind = &kind
		r.ErrorDetail = "boom"
		r.Status = StatusFailed
	})
	require.NoError(t, err)

	rec, err := s.Read("job-1")
	require.NoError(t, err)
	require.Equal(t, StatusFailed, rec.Status)
	require.NotNil(t, rec.ErrorKind)
	require.Equal(t, apierrors.FusionError, *rec.ErrorKind)
	require.Equal(t, "boom", rec.ErrorDetail)
}
