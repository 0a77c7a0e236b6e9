package config

import (
	"os"
	"time"

	"github.com/go-kit/log"
)

var Version string

// Used so that we can generate fixed timestamps in tests
var Clock TimestampGenerator = RealTimestampGenerator{}

// Logger is a package-level logfmt logger for ambient infrastructure
// (middleware) that doesn't carry a request ID.
var Logger = log.With(log.NewLogfmtLogger(log.NewSyncWriter(os.Stderr)), "ts", log.DefaultTimestampUTC)

// Somewhat arbitrary and conservative default for how many jobs the
// orchestrator will run at once. Operators size this to available CPU/ffmpeg
// headroom.
const DefaultMaxConcurrentJobs = 2

// Default per-job cap on inspectors running concurrently.
const DefaultMaxConcurrentInspectorsPerJob = 4

// Default depth of the pending-job FIFO before submissions are rejected
// with RejectedError{Reason: Overloaded}.
const DefaultAdmissionQueueCapacity = 64

// Default frame sampling rate used by the Media Sampler.
const DefaultTargetFps = 8

// Default ceiling on source media duration; longer inputs are truncated to
// this length before sampling.
const DefaultMaxDurationSec = 30

// Default ceiling on upload size.
const DefaultMaxUploadBytes = 100 * 1024 * 1024 // 100 MiB

// Default ceiling on total job wall-clock time before the orchestrator
// cancels it and reports errorKind=Cancelled.
const DefaultPerJobTimeoutSec = 600

// Default per-inspector timeout used when PerInspectorTimeoutSec has no
// entry for a given inspector name.
const DefaultInspectorTimeoutSec = 20

// Config holds every tunable knob of the pipeline, built once at process
// start from Cli and never mutated afterwards. Components read it by value
// or by pointer-to-const; nothing here is package-level mutable state.
type Config struct {
	MaxConcurrentJobs             int
	MaxConcurrentInspectorsPerJob int
	AdmissionQueueCapacity        int
	TargetFps                     int
	MaxDurationSec                int
	MaxUploadBytes                int64
	PerInspectorTimeoutSec        map[string]int
	PerJobTimeoutSec              int
	WorkspaceBasePath             string
	PipelineVersion               string
	StrictMimeCheck               bool
}

// Default returns a Config populated with the package defaults, suitable
// for tests that don't care about specific tuning.
func Default() Config {
	return Config{
		MaxConcurrentJobs:             DefaultMaxConcurrentJobs,
		MaxConcurrentInspectorsPerJob: DefaultMaxConcurrentInspectorsPerJob,
		AdmissionQueueCapacity:        DefaultAdmissionQueueCapacity,
		TargetFps:                     DefaultTargetFps,
		MaxDurationSec:                DefaultMaxDurationSec,
		MaxUploadBytes:                DefaultMaxUploadBytes,
		PerInspectorTimeoutSec:        map[string]int{},
		PerJobTimeoutSec:              DefaultPerJobTimeoutSec,
		WorkspaceBasePath:             "/tmp/inspect-api",
		PipelineVersion:               "v1",
		StrictMimeCheck:               true,
	}
}

// InspectorTimeout returns the configured timeout for the named inspector,
// falling back to DefaultInspectorTimeoutSec when unset.
func (c Config) InspectorTimeout(name string) time.Duration {
	if secs, ok := c.PerInspectorTimeoutSec[name]; ok {
		return time.Duration(secs) * time.Second
	}
	return DefaultInspectorTimeoutSec * time.Second
}
