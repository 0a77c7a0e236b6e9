package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/clearsight-video/inspect-api/api"
	"github.com/clearsight-video/inspect-api/config"
	"github.com/clearsight-video/inspect-api/inspector"
	"github.com/clearsight-video/inspect-api/metrics"
	"github.com/clearsight-video/inspect-api/orchestrator"
	"github.com/golang/glog"
	"github.com/peterbourgon/ff/v3"
	"golang.org/x/sync/errgroup"
)

func main() {
	if err := flag.Set("logtostderr", "true"); err != nil {
		glog.Fatal(err)
	}
	vFlag := flag.Lookup("v")
	fs := flag.NewFlagSet("inspect-api", flag.ExitOnError)
	cli := config.Cli{}

	version := fs.Bool("version", false, "print application version")
	fs.StringVar(&cli.HTTPAddress, "http-addr", "0.0.0.0:8989", "address to bind for the job submission/status/result API")
	fs.IntVar(&cli.PromPort, "prom-port", 9090, "port to serve Prometheus metrics on")
	fs.IntVar(&cli.MaxConcurrentJobs, "max-concurrent-jobs", config.DefaultMaxConcurrentJobs, "maximum number of jobs the orchestrator runs simultaneously")
	fs.IntVar(&cli.MaxConcurrentInspectorsPerJob, "max-concurrent-inspectors-per-job", config.DefaultMaxConcurrentInspectorsPerJob, "maximum number of inspectors one job runs concurrently")
	fs.IntVar(&cli.AdmissionQueueCapacity, "admission-queue-capacity", config.DefaultAdmissionQueueCapacity, "depth of the pending-job FIFO before submissions are rejected as overloaded")
	fs.IntVar(&cli.TargetFps, "target-fps", config.DefaultTargetFps, "frame sampling rate used by the Media Sampler")
	fs.IntVar(&cli.MaxDurationSec, "max-duration-sec", config.DefaultMaxDurationSec, "ceiling on source media duration; longer inputs are truncated before sampling")
	fs.Int64Var(&cli.MaxUploadBytes, "max-upload-bytes", config.DefaultMaxUploadBytes, "ceiling on accepted upload size")
	fs.IntVar(&cli.PerJobTimeoutSec, "per-job-timeout-sec", config.DefaultPerJobTimeoutSec, "overall wall-clock budget for one job before it is cancelled")
	fs.StringVar(&cli.WorkspaceBasePath, "workspace-base-path", "/tmp/inspect-api", "base directory under which per-job workspaces are created")
	fs.StringVar(&cli.PipelineVersion, "pipeline-version", "v1", "static pipeline version string; fusion weights are frozen per version")
	config.InvertedBoolFlag(fs, &cli.StrictMimeCheck, "strict-mime-check", true, "reject submissions whose extension is outside the mp4/mov/avi/webm allow-list")
	verbosity := fs.String("v", "", "log verbosity {0-9}")
	_ = fs.String("config", "", "config file (optional)")

	err := ff.Parse(fs, os.Args[1:],
		ff.WithConfigFileFlag("config"),
		ff.WithConfigFileParser(ff.PlainParser),
		ff.WithEnvVarPrefix("INSPECT_API"),
	)
	if err != nil {
		glog.Fatalf("error parsing cli: %s", err)
	}
	if len(fs.Args()) > 0 {
		glog.Fatalf("unexpected extra arguments on command line: %v", fs.Args())
	}

	if *version {
		fmt.Printf("inspect-api version: %s", config.Version)
		return
	}
	if *verbosity != "" {
		if err := vFlag.Value.Set(*verbosity); err != nil {
			glog.Fatal(err)
		}
	}

	cfg := cli.ToConfig()
	registry := inspector.NewDefaultRegistry(cfg, nil)
	orch := orchestrator.New(cfg, registry)

	// Reference the metrics singleton so promauto registration happens
	// before the first request, not lazily on first scrape.
	_ = metrics.Metrics

	go func() {
		if err := metrics.ListenAndServe(cli.PromPort); err != nil {
			glog.Errorf("metrics server exited: %v", err)
		}
	}()

	group, ctx := errgroup.WithContext(context.Background())

	group.Go(func() error {
		return handleSignals(ctx)
	})

	group.Go(func() error {
		orch.Run(ctx)
		return nil
	})

	group.Go(func() error {
		return api.ListenAndServe(ctx, cli.HTTPAddress, orch, cfg)
	})

	err = group.Wait()
	glog.Infof("shutdown complete, reason: %s", err)
}

func handleSignals(ctx context.Context) error {
	c := make(chan os.Signal, 1)
	signal.Notify(c, syscall.SIGQUIT, syscall.SIGTERM, syscall.SIGINT)
	for {
		select {
		case s := <-c:
			glog.Errorf("caught signal=%v, attempting clean shutdown", s)
			return fmt.Errorf("caught signal=%v", s)
		case <-ctx.Done():
			return nil
		}
	}
}
