package orchestrator

import (
	"context"
	"fmt"
	"mime"
	"path/filepath"
	"sync"

	"github.com/clearsight-video/inspect-api/config"
	apierrors "github.com/clearsight-video/inspect-api/errors"
	"github.com/clearsight-video/inspect-api/fusion"
	"github.com/clearsight-video/inspect-api/inspector"
	"github.com/clearsight-video/inspect-api/log"
	"github.com/clearsight-video/inspect-api/media"
	"github.com/clearsight-video/inspect-api/metrics"
	"github.com/clearsight-video/inspect-api/workspace"
	"github.com/google/uuid"
)

// allowedMIMEs is the submission allow-list; mapped from file extension
// since the core receives a path, not a browser-supplied Content-Type.
var allowedMIMEs = map[string]bool{
	".mp4":  true,
	".mov":  true,
	".avi":  true,
	".webm": true,
}

type submission struct {
	jobId     string
	mediaPath string
	filename  string
}

// Orchestrator is the process-wide pipeline core: it owns the Job Store, an
// admission scheduler bounded by maxConcurrentJobs, and the components each
// job's run drives (Workspace Manager, Sampler, Inspector Registry/Runner,
// Fusion Engine).
type Orchestrator struct {
	cfg       config.Config
	store     *JobStore
	workspace *workspace.Manager
	sampler   *media.Sampler
	registry  *inspector.Registry
	runner    *inspector.Runner
	fusion    *fusion.Engine

	queue chan submission

	cancelMu sync.Mutex
	cancels  map[string]context.CancelFunc
}

func New(cfg config.Config, registry *inspector.Registry) *Orchestrator {
	return &Orchestrator{
		cfg:       cfg,
		store:     NewJobStore(),
		workspace: workspace.NewManager(cfg.WorkspaceBasePath),
		sampler:   media.NewSampler(),
		registry:  registry,
		runner:    inspector.NewRunner(),
		fusion:    fusion.NewEngine(),
		queue:     make(chan submission, cfg.AdmissionQueueCapacity),
		cancels:   map[string]context.CancelFunc{},
	}
}

// Run launches maxConcurrentJobs worker goroutines that drain the admission
// queue. It blocks until ctx is cancelled, then lets in-flight jobs observe
// cancellation and returns once they've all exited.
func (o *Orchestrator) Run(ctx context.Context) {
	var wg sync.WaitGroup
	for i := 0; i < o.cfg.MaxConcurrentJobs; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			o.worker(ctx)
		}()
	}
	wg.Wait()
}

func (o *Orchestrator) worker(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case sub, ok := <-o.queue:
			if !ok {
				return
			}
			metrics.Metrics.AdmissionQueueDepth.Dec()
			o.runJob(ctx, sub)
		}
	}
}

// Submit validates and admits a new job. On success the core takes
// ownership of mediaPath: the caller must not touch it again. On any
// RejectedError the caller retains ownership and should clean it up.
func (o *Orchestrator) Submit(mediaPath, filename string, sizeBytes int64) (string, error) {
	if sizeBytes > o.cfg.MaxUploadBytes {
		return "", apierrors.NewRejectedError(apierrors.TooLarge, fmt.Sprintf("%d bytes exceeds max %d", sizeBytes, o.cfg.MaxUploadBytes))
	}
	ext := filepath.Ext(filename)
	if o.cfg.StrictMimeCheck && !allowedMIMEs[ext] {
		return "", apierrors.NewRejectedError(apierrors.BadMIME, fmt.Sprintf("unsupported extension %q (detected type %s)", ext, mime.TypeByExtension(ext)))
	}

	jobId := uuid.NewString()
	sub := submission{jobId: jobId, mediaPath: mediaPath, filename: filename}

	// Insert before enqueueing: a worker may dequeue and begin runJob the
	// instant the send below succeeds, and runJob's first store.Update
	// requires the record to already exist.
	if err := o.store.Insert(jobId, JobRecord{
		JobId:     jobId,
		Status:    StatusPending,
		CreatedAt: config.Clock.GetTime(),
	}); err != nil {
		return "", err
	}

	select {
	case o.queue <- sub:
		metrics.Metrics.AdmissionQueueDepth.Inc()
	default:
		o.store.remove(jobId)
		return "", apierrors.NewRejectedError(apierrors.Overloaded, "admission queue full")
	}

	log.LogNoRequestID("job admitted", "job_id", jobId, "filename", filename)
	return jobId, nil
}

// StatusOf returns the current externally-visible snapshot for jobId.
func (o *Orchestrator) StatusOf(jobId string) (JobRecord, error) {
	return o.store.Read(jobId)
}

// ResultOf returns the AnalysisResult for a COMPLETED job, or the
// appropriate synchronous error otherwise.
func (o *Orchestrator) ResultOf(jobId string) (AnalysisResult, error) {
	rec, err := o.store.Read(jobId)
	if err != nil {
		return AnalysisResult{}, err
	}
	switch rec.Status {
	case StatusCompleted:
		return *rec.Result, nil
	case StatusFailed:
		kind := apierrors.FusionError
		if rec.ErrorKind != nil {
			kind = *rec.ErrorKind
		}
		return AnalysisResult{}, apierrors.FailedError{JobId: jobId, Kind: kind, Detail: rec.ErrorDetail}
	default:
		return AnalysisResult{}, apierrors.NotReadyError{JobId: jobId, Status: string(rec.Status)}
	}
}

// Cancel requests cooperative cancellation of a running job. It is a no-op
// if the job is unknown or already terminal.
func (o *Orchestrator) Cancel(jobId string) {
	o.cancelMu.Lock()
	cancel, ok := o.cancels[jobId]
	o.cancelMu.Unlock()
	if ok {
		cancel()
	}
}

func (o *Orchestrator) registerCancel(jobId string, cancel context.CancelFunc) {
	o.cancelMu.Lock()
	o.cancels[jobId] = cancel
	o.cancelMu.Unlock()
}

func (o *Orchestrator) unregisterCancel(jobId string) {
	o.cancelMu.Lock()
	delete(o.cancels, jobId)
	o.cancelMu.Unlock()
}
