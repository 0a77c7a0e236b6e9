package api

import (
	"encoding/json"
	stderrors "errors"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/clearsight-video/inspect-api/config"
	apierrors "github.com/clearsight-video/inspect-api/errors"
	"github.com/clearsight-video/inspect-api/log"
	"github.com/clearsight-video/inspect-api/metrics"
	"github.com/clearsight-video/inspect-api/orchestrator"
	"github.com/clearsight-video/inspect-api/requests"
	"github.com/julienschmidt/httprouter"
	"github.com/xeipuuv/gojsonschema"
)

// Handlers is the receiver every HTTP route hangs off, mirroring the
// teacher's single-collection-of-handlers convention. It holds the one
// Orchestrator instance this process runs.
type Handlers struct {
	orch *orchestrator.Orchestrator
	cfg  config.Config
}

func NewHandlers(orch *orchestrator.Orchestrator, cfg config.Config) *Handlers {
	return &Handlers{orch: orch, cfg: cfg}
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.LogNoRequestID("failed to encode JSON response", "err", err)
	}
}

// Submit handles POST /api/jobs: a multipart upload with a "file" part and
// an optional JSON "metadata" part.
func (h *Handlers) Submit() httprouter.Handle {
	return func(w http.ResponseWriter, req *http.Request, _ httprouter.Params) {
		requestID := requests.GetRequestId(req)

		if err := req.ParseMultipartForm(32 << 20); err != nil {
			apierrors.WriteHTTPBadRequest(w, "could not parse multipart form", err)
			return
		}
		file, header, err := req.FormFile("file")
		if err != nil {
			apierrors.WriteHTTPBadRequest(w, `missing "file" part`, err)
			return
		}
		defer file.Close()

		filename := header.Filename
		if metaVals := req.MultipartForm.Value["metadata"]; len(metaVals) > 0 {
			payload := []byte(metaVals[0])
			result, err := inputSchemasCompiled["SubmitMetadata"].Validate(gojsonschema.NewBytesLoader(payload))
			if err != nil {
				apierrors.WriteHTTPInternalServerError(w, "cannot validate metadata", err)
				return
			}
			if !result.Valid() {
				apierrors.WriteHTTPBadBodySchema("metadata", w, result.Errors())
				return
			}
			var meta submitMetadata
			if err := json.Unmarshal(payload, &meta); err != nil {
				apierrors.WriteHTTPBadRequest(w, "invalid metadata JSON", err)
				return
			}
			if meta.Filename != "" {
				filename = meta.Filename
			}
		}

		tmp, err := os.CreateTemp("", "inspect-api-upload-*"+filepath.Ext(filename))
		if err != nil {
			apierrors.WriteHTTPInternalServerError(w, "could not buffer upload", err)
			return
		}
		defer tmp.Close()

		limited := io.LimitReader(file, h.cfg.MaxUploadBytes+1)
		written, err := io.Copy(tmp, limited)
		if err != nil {
			os.Remove(tmp.Name())
			apierrors.WriteHTTPInternalServerError(w, "could not buffer upload", err)
			return
		}

		jobId, err := h.orch.Submit(tmp.Name(), filename, written)
		if err != nil {
			os.Remove(tmp.Name())
			var rejected apierrors.RejectedError
			if stderrors.As(err, &rejected) {
				metrics.Metrics.SubmissionRejected.WithLabelValues(string(rejected.Reason)).Inc()
				log.Log(requestID, "submission rejected", "reason", rejected.Reason, "detail", rejected.Detail)
				switch rejected.Reason {
				case apierrors.BadMIME:
					apierrors.WriteHTTPUnsupportedMediaType(w, rejected.Error(), nil)
				case apierrors.Overloaded:
					apierrors.WriteHTTPTooManyRequests(w, rejected.Error(), nil)
				default:
					apierrors.WriteHTTPBadRequest(w, rejected.Error(), nil)
				}
				return
			}
			apierrors.WriteHTTPInternalServerError(w, "submission failed", err)
			return
		}

		metrics.Metrics.SubmissionCount.WithLabelValues("true").Inc()
		log.Log(requestID, "job submitted", "job_id", jobId, "filename", filename, "size_bytes", written)
		writeJSON(w, http.StatusAccepted, submitResponse{JobId: jobId})
	}
}

// StatusOf handles GET /api/jobs/:jobId.
func (h *Handlers) StatusOf() httprouter.Handle {
	return func(w http.ResponseWriter, req *http.Request, ps httprouter.Params) {
		jobId := ps.ByName("jobId")
		rec, err := h.orch.StatusOf(jobId)
		if err != nil {
			var notFound apierrors.NotFoundError
			if stderrors.As(err, &notFound) {
				apierrors.WriteHTTPNotFound(w, err.Error(), nil)
				return
			}
			apierrors.WriteHTTPInternalServerError(w, "could not read job status", err)
			return
		}

		resp := statusResponse{
			JobId:       rec.JobId,
			Status:      string(rec.Status),
			Progress:    rec.Progress,
			CreatedAt:   rec.CreatedAt,
			StartedAt:   rec.StartedAt,
			CompletedAt: rec.CompletedAt,
		}
		if rec.ErrorKind != nil {
			resp.ErrorKind = string(*rec.ErrorKind)
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

// ResultOf handles GET /api/jobs/:jobId/result.
func (h *Handlers) ResultOf() httprouter.Handle {
	return func(w http.ResponseWriter, req *http.Request, ps httprouter.Params) {
		jobId := ps.ByName("jobId")
		result, err := h.orch.ResultOf(jobId)
		if err != nil {
			var notFound apierrors.NotFoundError
			var notReady apierrors.NotReadyError
			var failed apierrors.FailedError
			switch {
			case stderrors.As(err, &notFound):
				apierrors.WriteHTTPNotFound(w, err.Error(), nil)
			case stderrors.As(err, &notReady):
				apierrors.WriteHTTPConflict(w, err.Error(), nil)
			case stderrors.As(err, &failed):
				writeJSON(w, http.StatusUnprocessableEntity, errorResponse{ErrorKind: string(failed.Kind), ErrorDetail: failed.Detail})
			default:
				apierrors.WriteHTTPInternalServerError(w, "could not read job result", err)
			}
			return
		}

		events := make([]eventResponse, 0, len(result.Events))
		for _, e := range result.Events {
			events = append(events, eventResponse{Module: e.Module, Event: e.Event, Ts: e.Ts, Dur: e.Dur, Meta: e.Metadata})
		}

		writeJSON(w, http.StatusOK, resultResponse{
			JobId:              result.JobId,
			Label:              string(result.Label),
			Confidence:         result.Confidence,
			PerInspectorScores: result.PerInspectorScores,
			Events:             events,
			Derived: derivedResponse{
				VisualScore:         result.VisualScore,
				VideoLength:         result.VideoLengthSec,
				OriginalVideoLength: result.OriginalVideoLengthSec,
				TranscriptSnippet:   result.TranscriptSnippet,
				ProcessingTimeSec:   result.ProcessingTimeSec,
				PipelineVersion:     result.PipelineVersion,
			},
			ProcessedAt: result.ProcessedAt,
		})
	}
}

// Ok is the bare liveness probe used by load balancers.
func (h *Handlers) Ok() httprouter.Handle {
	return func(w http.ResponseWriter, req *http.Request, _ httprouter.Params) {
		if _, err := io.WriteString(w, "OK"); err != nil {
			log.LogNoRequestID("failed to write /ok response", "err", err)
		}
	}
}

type healthcheckResponse struct {
	Status string `json:"status"`
}

// Healthcheck returns process-level health, independent of any single
// job's outcome.
func (h *Handlers) Healthcheck() httprouter.Handle {
	return func(w http.ResponseWriter, req *http.Request, _ httprouter.Params) {
		b, err := json.Marshal(healthcheckResponse{Status: "healthy"})
		if err != nil {
			log.LogNoRequestID("failed to marshal healthcheck status", "err", err)
			b = []byte(`{"status": "marshalling status failed"}`)
		}
		if _, err := w.Write(b); err != nil {
			log.LogNoRequestID("failed to write /healthz response", "err", err)
		}
	}
}
