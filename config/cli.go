package config

import (
	"flag"
	"fmt"
	"strconv"
)

// Cli mirrors the flags accepted on the command line / environment, before
// they are folded into an immutable Config.
type Cli struct {
	HTTPAddress      string
	PromPort         int
	MaxConcurrentJobs             int
	MaxConcurrentInspectorsPerJob int
	AdmissionQueueCapacity        int
	TargetFps                     int
	MaxDurationSec                int
	MaxUploadBytes                int64
	PerJobTimeoutSec              int
	WorkspaceBasePath             string
	PipelineVersion               string
	StrictMimeCheck               bool
}

// ToConfig folds the parsed CLI flags into the immutable Config consumed by
// the rest of the process. PerInspectorTimeoutSec has no flag of its own
// today (every inspector uses its default timeout from the inspector
// registry); it's left here so
// a future flag can populate per-inspector overrides without reshaping
// Config.
func (c Cli) ToConfig() Config {
	return Config{
		MaxConcurrentJobs:             c.MaxConcurrentJobs,
		MaxConcurrentInspectorsPerJob: c.MaxConcurrentInspectorsPerJob,
		AdmissionQueueCapacity:        c.AdmissionQueueCapacity,
		TargetFps:                     c.TargetFps,
		MaxDurationSec:                c.MaxDurationSec,
		MaxUploadBytes:                c.MaxUploadBytes,
		PerInspectorTimeoutSec:        map[string]int{},
		PerJobTimeoutSec:              c.PerJobTimeoutSec,
		WorkspaceBasePath:             c.WorkspaceBasePath,
		PipelineVersion:               c.PipelineVersion,
		StrictMimeCheck:               c.StrictMimeCheck,
	}
}

// invertedBoolValue backs a `-no-X` flag that sets `*target` to the opposite
// of whatever the user passes, so operators can reason about the flag in
// terms of the positive feature name ("mime-check") while defaulting it on.
type invertedBoolValue struct {
	target *bool
}

func (v *invertedBoolValue) String() string {
	if v == nil || v.target == nil {
		return "false"
	}
	return strconv.FormatBool(!*v.target)
}

func (v *invertedBoolValue) Set(s string) error {
	b, err := strconv.ParseBool(s)
	if err != nil {
		return fmt.Errorf("invalid boolean value %q", s)
	}
	*v.target = !b
	return nil
}

func (v *invertedBoolValue) IsBoolFlag() bool { return true }

// InvertedBoolFlag registers a `-no-<name>` flag whose sense is inverted
// relative to target: passing `-no-<name>` (or `-no-<name>=true`) clears
// target, `-no-<name>=false` sets it. def is the default value of target
// itself, not of the inverted flag.
func InvertedBoolFlag(fs *flag.FlagSet, target *bool, name string, def bool, usage string) {
	*target = def
	fs.Var(&invertedBoolValue{target: target}, "no-"+name, usage)
}
