package orchestrator

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/clearsight-video/inspect-api/config"
	apierrors "github.com/clearsight-video/inspect-api/errors"
	"github.com/clearsight-video/inspect-api/events"
	"github.com/clearsight-video/inspect-api/inspector"
	"github.com/clearsight-video/inspect-api/log"
	"github.com/clearsight-video/inspect-api/media"
	"github.com/clearsight-video/inspect-api/metrics"
	"golang.org/x/sync/semaphore"
)

// runJob drives one job through PENDING -> SAMPLING -> INSPECTING -> FUSING
// -> COMPLETED|FAILED. It is the Orchestrator's only writer of this job's
// JobRecord.
func (o *Orchestrator) runJob(parent context.Context, sub submission) {
	jobId := sub.jobId
	ctx, cancel := context.WithTimeout(parent, time.Duration(o.cfg.PerJobTimeoutSec)*time.Second)
	o.registerCancel(jobId, cancel)
	defer o.unregisterCancel(jobId)
	defer cancel()

	metrics.Metrics.JobsInFlight.Inc()
	defer metrics.Metrics.JobsInFlight.Dec()

	startedAt := config.Clock.GetTime()
	_ = o.store.Update(jobId, func(r *JobRecord) {
		r.Status = StatusProcessing
		r.StartedAt = &startedAt
	})

	handle, err := o.workspace.Acquire(jobId)
	if err != nil {
		o.fail(jobId, startedAt, apierrors.WorkspaceError, err.Error())
		return
	}

	samplingStart := config.Clock.GetTime()
	bundle, err := o.sampler.SampleWithTimeout(ctx, sub.mediaPath, handle.Path, o.cfg.TargetFps, o.cfg.MaxDurationSec, time.Duration(o.cfg.PerJobTimeoutSec)*time.Second)
	metrics.Metrics.SamplingDurationSec.Observe(config.Clock.GetTime().Sub(samplingStart).Seconds())
	if err != nil {
		o.workspace.Release(handle)
		o.fail(jobId, startedAt, apierrors.SamplingError, err.Error())
		return
	}
	_ = o.store.Update(jobId, func(r *JobRecord) { r.Progress = 0.10 })
	log.LogNoRequestID("sampling complete", "job_id", jobId, "frames", len(bundle.Frames), "has_audio", bundle.HasAudio)

	scores, anomalyEvents, fatalErr := o.inspect(ctx, jobId, bundle)
	if fatalErr != nil {
		o.workspace.Release(handle)
		if ctx.Err() != nil {
			o.fail(jobId, startedAt, apierrors.Cancelled, "job cancelled or exceeded perJobTimeoutSec")
		} else {
			o.fail(jobId, startedAt, apierrors.InspectorFatal, fatalErr.Error())
		}
		return
	}
	_ = o.store.Update(jobId, func(r *JobRecord) { r.Progress = 0.90 })

	result, fuseErr := o.fuse(jobId, bundle, scores, anomalyEvents, startedAt)
	o.workspace.Release(handle)
	if fuseErr != nil {
		o.fail(jobId, startedAt, apierrors.FusionError, fuseErr.Error())
		return
	}

	completedAt := config.Clock.GetTime()
	_ = o.store.Update(jobId, func(r *JobRecord) {
		r.Result = &result
		r.Progress = 1.0
		r.CompletedAt = &completedAt
		r.Status = StatusCompleted
	})
	metrics.Metrics.JobOutcomeCount.WithLabelValues(string(StatusCompleted), "").Inc()
	rec, _ := o.store.Read(jobId)
	log.LogNoRequestID("job completed", "job_id", jobId, "label", result.Label, "confidence", result.Confidence, "inspector_latencies", rec.InspectorLatencies)
}

// fail records a terminal failure, honoring the ordering rule that
// errorKind/errorDetail/completedAt are all visible before status flips to
// FAILED.
func (o *Orchestrator) fail(jobId string, startedAt time.Time, kind apierrors.ErrorKind, detail string) {
	completedAt := config.Clock.GetTime()
	_ = o.store.Update(jobId, func(r *JobRecord) {
		r.ErrorKind = &kind
		r.ErrorDetail = detail
		r.CompletedAt = &completedAt
		r.Status = StatusFailed
	})
	metrics.Metrics.JobOutcomeCount.WithLabelValues(string(StatusFailed), string(kind)).Inc()
	log.LogNoRequestID("job failed", "job_id", jobId, "kind", kind, "detail", detail)
}

// inspect runs the INSPECTING phase: the transcript inspector first (its
// derived artifact, always the empty string per the pipeline's documented
// behavior, gates every transcript-dependent inspector), then every other
// inspector concurrently, bounded by maxConcurrentInspectorsPerJob. It
// returns a fatal error only when a fatalOnFailure descriptor did not
// succeed, or when ctx was cancelled.
func (o *Orchestrator) inspect(ctx context.Context, jobId string, bundle media.SampledMedia) (map[string]float64, []inspector.AnomalyEvent, error) {
	descriptors := o.registry.All()
	total := len(descriptors)
	if total == 0 {
		return map[string]float64{}, nil, nil
	}

	var (
		mu        sync.Mutex
		scores    = map[string]float64{}
		latencies = map[string]time.Duration{}
		fatalErr  error
		finished  int
	)
	agg := events.NewAggregator()
	sem := semaphore.NewWeighted(int64(o.cfg.MaxConcurrentInspectorsPerJob))
	transcriptDone := make(chan struct{})

	recordOutcome := func(d inspector.Descriptor, outcome inspector.Outcome, latency time.Duration) {
		mu.Lock()
		defer mu.Unlock()
		latencies[d.Name] = latency

		outcomeLabel := "success"
		if outcome.Kind == inspector.Timeout {
			outcomeLabel = "timeout"
		} else if outcome.Kind == inspector.Error {
			outcomeLabel = "error"
		}
		metrics.Metrics.InspectorDurationSec.WithLabelValues(d.Name, outcomeLabel).Observe(latency.Seconds())
		if outcome.Kind != inspector.Success {
			metrics.Metrics.InspectorFailureCount.WithLabelValues(d.Name, outcomeLabel).Inc()
		}

		finished++
		progress := 0.10 + 0.80*(float64(finished)/float64(total))
		if outcome.Kind != inspector.Success && d.FatalOnFailure {
			kind := "timeout"
			if outcome.Kind == inspector.Error {
				kind = "error"
			}
			if fatalErr == nil {
				fatalErr = fmt.Errorf("inspector %s failed fatally (%s): %w", d.Name, kind, outcome.Err)
			}
		}
		score, ev := inspector.Resolve(d, outcome, bundle.EffectiveDurationSec)
		scores[d.Name] = score
		agg.Append(ev...)
		for _, e := range ev {
			metrics.Metrics.EventsEmittedCount.WithLabelValues(e.Module, e.EventTag).Inc()
		}
		_ = o.store.Update(jobId, func(r *JobRecord) { r.Progress = progress })
	}

	var wg sync.WaitGroup
	runOne := func(d inspector.Descriptor, derived inspector.Derived) {
		defer wg.Done()
		if err := sem.Acquire(ctx, 1); err != nil {
			recordOutcome(d, inspector.Outcome{Kind: inspector.Timeout, Err: ctx.Err()}, 0)
			return
		}
		defer sem.Release(1)
		start := config.Clock.GetTime()
		outcome := o.runner.Run(ctx, d, bundle, derived)
		recordOutcome(d, outcome, config.Clock.GetTime().Sub(start))
	}

	transcriptDesc, hasTranscript := o.registry.Get("transcript")
	for _, d := range descriptors {
		if d.Name == "transcript" {
			continue
		}
		if d.Requires["transcript"] {
			continue // started after transcript resolves, below
		}
		wg.Add(1)
		go runOne(d, inspector.Derived{})
	}

	if hasTranscript {
		wg.Add(1)
		go func() {
			runOne(transcriptDesc, inspector.Derived{})
			close(transcriptDone)
		}()
	} else {
		close(transcriptDone)
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		<-transcriptDone
		derived := inspector.Derived{"transcript": ""}
		for _, d := range descriptors {
			if !d.Requires["transcript"] {
				continue
			}
			wg.Add(1)
			go runOne(d, derived)
		}
	}()

	wg.Wait()

	mu.Lock()
	defer mu.Unlock()
	_ = o.store.Update(jobId, func(r *JobRecord) { r.InspectorLatencies = latencies })
	if fatalErr != nil {
		return scores, nil, fatalErr
	}
	if ctx.Err() != nil {
		return scores, nil, ctx.Err()
	}
	return scores, agg.Finalize(bundle.EffectiveDurationSec), nil
}

// fuse runs the FUSING phase and assembles the wire-stable AnalysisResult.
// A panic inside the Fusion Engine is recovered and reported as a
// FusionError rather than crashing the worker goroutine.
func (o *Orchestrator) fuse(jobId string, bundle media.SampledMedia, scores map[string]float64, anomalyEvents []inspector.AnomalyEvent, startedAt time.Time) (result AnalysisResult, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("fusion panicked: %v", rec)
		}
	}()

	fusionStart := config.Clock.GetTime()
	fused := o.fusion.Combine(o.registry.All(), scores)
	metrics.Metrics.FusionDurationSec.Observe(config.Clock.GetTime().Sub(fusionStart).Seconds())
	metrics.Metrics.FusionConfidence.Observe(fused.Confidence)

	views := make([]EventView, 0, len(anomalyEvents))
	for _, e := range anomalyEvents {
		views = append(views, EventView{Module: e.Module, Event: e.EventTag, Ts: e.TimestampSec, Dur: e.DurationSec, Metadata: e.Metadata})
	}

	return AnalysisResult{
		JobId:                  jobId,
		Label:                  fused.Label,
		Confidence:             fused.Confidence,
		PerInspectorScores:     scores,
		Events:                 views,
		VisualScore:            fused.VisualScore,
		VideoLengthSec:         bundle.EffectiveDurationSec,
		OriginalVideoLengthSec: bundle.OriginalDurationSec,
		TranscriptSnippet:      "",
		ProcessingTimeSec:      config.Clock.GetTime().Sub(startedAt).Seconds(),
		PipelineVersion:        o.cfg.PipelineVersion,
		ProcessedAt:            config.Clock.GetTime(),
	}, nil
}
