package api

import (
	"context"
	"net/http"
	"time"

	"github.com/clearsight-video/inspect-api/config"
	"github.com/clearsight-video/inspect-api/log"
	"github.com/clearsight-video/inspect-api/middleware"
	"github.com/clearsight-video/inspect-api/orchestrator"
	"github.com/julienschmidt/httprouter"
)

// NewRouter wires every route this service exposes, wrapping each in the
// shared logging/CORS middleware stack.
func NewRouter(orch *orchestrator.Orchestrator, cfg config.Config) *httprouter.Router {
	h := NewHandlers(orch, cfg)
	router := httprouter.New()
	withLogging := middleware.LogRequest()
	withCORS := middleware.AllowCORS()
	wrap := func(next httprouter.Handle) httprouter.Handle {
		return withLogging(withCORS(next))
	}

	router.GET("/ok", wrap(h.Ok()))
	router.GET("/healthz", wrap(h.Healthcheck()))
	router.POST("/api/jobs", wrap(h.Submit()))
	router.GET("/api/jobs/:jobId", wrap(h.StatusOf()))
	router.GET("/api/jobs/:jobId/result", wrap(h.ResultOf()))

	return router
}

// ListenAndServe starts the HTTP server and blocks until ctx is cancelled,
// then gracefully shuts it down.
func ListenAndServe(ctx context.Context, addr string, orch *orchestrator.Orchestrator, cfg config.Config) error {
	router := NewRouter(orch, cfg)
	server := http.Server{Addr: addr, Handler: router}
	ctx, cancel := context.WithCancel(ctx)

	log.LogNoRequestID("starting inspect-api HTTP server", "host", addr)

	var serveErr error
	go func() {
		serveErr = server.ListenAndServe()
		cancel()
	}()

	<-ctx.Done()
	if serveErr != nil && serveErr != http.ErrServerClosed {
		return serveErr
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	return server.Shutdown(shutdownCtx)
}
