package inspector

import "github.com/clearsight-video/inspect-api/config"

// Registry is the static catalogue of inspector descriptors. The core
// treats every inspector identically; the names are contract-only.
type Registry struct {
	descriptors map[string]Descriptor
	order       []string
}

func NewRegistry() *Registry {
	return &Registry{descriptors: map[string]Descriptor{}}
}

// Register adds a descriptor to the catalogue. Order of registration is
// preserved for deterministic iteration (e.g. tie-breaking in logs).
func (r *Registry) Register(d Descriptor) {
	if _, exists := r.descriptors[d.Name]; !exists {
		r.order = append(r.order, d.Name)
	}
	r.descriptors[d.Name] = d
}

func (r *Registry) Get(name string) (Descriptor, bool) {
	d, ok := r.descriptors[name]
	return d, ok
}

// All returns every registered descriptor in registration order.
func (r *Registry) All() []Descriptor {
	out := make([]Descriptor, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.descriptors[name])
	}
	return out
}

func requires(names ...string) map[string]bool {
	m := make(map[string]bool, len(names))
	for _, n := range names {
		m[n] = true
	}
	return m
}

func emits(tags ...string) map[string]bool {
	m := make(map[string]bool, len(tags))
	for _, t := range tags {
		m[t] = true
	}
	return m
}

func timeoutFrom(cfg config.Config, name string, defaultSec int) func() int {
	return func() int {
		if secs, ok := cfg.PerInspectorTimeoutSec[name]; ok {
			return secs
		}
		return defaultSec
	}
}

// NewDefaultRegistry builds the registry of reference inspectors from the
// core's descriptor table, wired to fn for each name. fns with no entry
// default to a neutral stub that always returns a score of 0.5.
func NewDefaultRegistry(cfg config.Config, fns map[string]Func) *Registry {
	r := NewRegistry()

	fn := func(name string) Func {
		if f, ok := fns[name]; ok {
			return f
		}
		return NeutralStub
	}

	r.Register(Descriptor{
		Name: "visual_clip", Requires: requires("frames"), Weight: 0.20,
		Timeout: timeoutFrom(cfg, "visual_clip", 60), MayEmitEvents: emits(),
		Fn: fn("visual_clip"),
	})
	r.Register(Descriptor{
		Name: "visual_artifacts", Requires: requires("frames"), Weight: 0.15,
		Timeout: timeoutFrom(cfg, "visual_artifacts", 120), MayEmitEvents: emits("visual_artifact"),
		Fn: fn("visual_artifacts"),
	})
	r.Register(Descriptor{
		Name: "lipsync", Requires: requires("frames", "audio", "transcript"), Weight: 0.15,
		Timeout: timeoutFrom(cfg, "lipsync", 120), MayEmitEvents: emits("lipsync_mismatch"),
		Fn: fn("lipsync"),
	})
	r.Register(Descriptor{
		Name: "blink", Requires: requires("frames"), Weight: 0.10,
		Timeout: timeoutFrom(cfg, "blink", 90), MayEmitEvents: emits("abnormal_blink"),
		Fn: fn("blink"),
	})
	r.Register(Descriptor{
		Name: "ocr_gibberish", Requires: requires("frames"), Weight: 0.05,
		Timeout: timeoutFrom(cfg, "ocr_gibberish", 60), MayEmitEvents: emits("gibberish_text"),
		Fn: fn("ocr_gibberish"),
	})
	r.Register(Descriptor{
		Name: "motion_flow", Requires: requires("frames"), Weight: 0.10,
		Timeout: timeoutFrom(cfg, "motion_flow", 60), MayEmitEvents: emits("flow_spike"),
		Fn: fn("motion_flow"),
	})
	r.Register(Descriptor{
		Name: "audio_loop", Requires: requires("audio"), Weight: 0.05,
		Timeout: timeoutFrom(cfg, "audio_loop", 30), MayEmitEvents: emits("audio_loop"),
		Fn: fn("audio_loop"),
	})
	r.Register(Descriptor{
		Name: "lighting", Requires: requires("frames"), Weight: 0.05,
		Timeout: timeoutFrom(cfg, "lighting", 30), MayEmitEvents: emits("light_change"),
		Fn: fn("lighting"),
	})
	r.Register(Descriptor{
		Name: "transcript", Requires: requires("audio"), Weight: 0.00,
		Timeout: timeoutFrom(cfg, "transcript", 60), MayEmitEvents: emits(),
		Fn: fn("transcript"),
	})

	return r
}
