package orchestrator

import (
	"sync"
	"time"

	"github.com/clearsight-video/inspect-api/cache"
	apierrors "github.com/clearsight-video/inspect-api/errors"
	"github.com/clearsight-video/inspect-api/fusion"
)

// JobStatus is the externally-visible lifecycle stage. The orchestrator's
// internal state machine has more states (see runJob in pipeline.go); every
// internal state collapses to one of these four for anyone outside the
// orchestrator.
type JobStatus string

const (
	StatusPending    JobStatus = "PENDING"
	StatusProcessing JobStatus = "PROCESSING"
	StatusCompleted  JobStatus = "COMPLETED"
	StatusFailed     JobStatus = "FAILED"
)

// AnalysisResult is the wire-stable payload handed back from resultOf.
type AnalysisResult struct {
	JobId              string
	Label              fusion.Label
	Confidence         float64
	PerInspectorScores map[string]float64
	Events             []EventView
	VisualScore        float64
	VideoLengthSec     float64
	OriginalVideoLengthSec float64
	TranscriptSnippet  string
	ProcessingTimeSec  float64
	PipelineVersion    string
	ProcessedAt        time.Time
}

// EventView is the wire shape of one anomaly event.
type EventView struct {
	Module   string
	Event    string
	Ts       float64
	Dur      float64
	Metadata map[string]interface{}
}

// JobRecord is the Job Store's unit of storage. Every field beyond JobId is
// only ever mutated by the owning job's orchestrator goroutine, under the
// store's per-job lock; readers see immutable snapshots.
type JobRecord struct {
	JobId       string
	Status      JobStatus
	CreatedAt   time.Time
	StartedAt   *time.Time
	CompletedAt *time.Time
	Progress    float64
	Result      *AnalysisResult
	ErrorKind   *apierrors.ErrorKind
	ErrorDetail string

	// InspectorLatencies is diagnostic-only bookkeeping (not part of the
	// wire-stable AnalysisResult): how long each inspector's Runner
	// invocation took, keyed by inspector name.
	InspectorLatencies map[string]time.Duration
}

// snapshot returns a deep-enough copy for safe external consumption: the
// pointer fields point at values that are never mutated after being set, so
// a shallow copy of the record itself is a consistent snapshot.
func (r JobRecord) snapshot() JobRecord {
	return r
}

type jobSlot struct {
	mu     sync.Mutex
	record JobRecord
}

// JobStore is the in-process JobId -> JobRecord map described in the core's
// job-store contract: per-job exclusive writes, unbounded concurrent reads
// across jobs, and a write-ordering guarantee that resultRef/errorKind are
// visible in the same snapshot as a terminal status flip. The outer map is
// backed by the generic Cache; each slot carries its own mutex so a write to
// one job never blocks a read or write of any other.
type JobStore struct {
	slots *cache.Cache[*jobSlot]
}

func NewJobStore() *JobStore {
	return &JobStore{slots: cache.New[*jobSlot]()}
}

// Insert creates a new record for jobId. Fails with DuplicateJobError if
// jobId is already known.
func (s *JobStore) Insert(jobId string, record JobRecord) error {
	if !s.slots.StoreIfAbsent(jobId, &jobSlot{record: record}) {
		return apierrors.DuplicateJobError{JobId: jobId}
	}
	return nil
}

// Read returns a consistent immutable snapshot of jobId's record.
func (s *JobStore) Read(jobId string) (JobRecord, error) {
	slot, ok := s.slots.GetOK(jobId)
	if !ok {
		return JobRecord{}, apierrors.NotFoundError{JobId: jobId}
	}
	slot.mu.Lock()
	defer slot.mu.Unlock()
	return slot.record.snapshot(), nil
}

// remove deletes jobId's record outright. Only used to roll back an Insert
// when a job fails admission after its record was created (e.g. the
// admission queue turned out to be full concurrently with the insert).
func (s *JobStore) remove(jobId string) {
	s.slots.Remove("", jobId)
}

// Update applies mutator to jobId's record under that job's exclusive lock.
// It never blocks updates or reads of any other job.
func (s *JobStore) Update(jobId string, mutator func(*JobRecord)) error {
	slot, ok := s.slots.GetOK(jobId)
	if !ok {
		return apierrors.NotFoundError{JobId: jobId}
	}
	slot.mu.Lock()
	defer slot.mu.Unlock()
	mutator(&slot.record)
	return nil
}
