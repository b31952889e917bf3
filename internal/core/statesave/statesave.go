// Package statesave layers change tracking on top of the serialize codec.
//
// A Tracker remembers, per named field, the value captured at the object's
// first stable moment (the initial cache) and the value most recently
// transferred (the last cache). A Pass binds the tracker to one serializer
// session at a save level; Value then either writes the field, prefixed with
// a changed flag computed against the right cache, or reads the flag and
// applies the payload only when one is present. Unchanged fields cost one
// byte, which is what makes per-frame delta recording practical.
//
// Trackers are not safe for concurrent use: recording and playback are
// synchronous by design, and one tracker belongs to one object.
package statesave

import (
	"fmt"
	"io"

	"github.com/snapsync/snapsync/internal/core/observability/log"
	"github.com/snapsync/snapsync/internal/core/serialize"
)

// Level selects which cache a pass compares against.
type Level uint8

const (
	// LevelNone serializes nothing and touches no cache.
	LevelNone Level = iota
	// LevelSincePrevious writes only fields that differ from the last
	// transferred value. This is the delta-frame level.
	LevelSincePrevious
	// LevelSinceBeginning writes only fields that differ from the captured
	// baseline. This is the save-file level: restoring needs only changes
	// against a fresh scene.
	LevelSinceBeginning
	// LevelComplete writes every field unconditionally.
	LevelComplete
)

// String returns the level name.
func (l Level) String() string {
	switch l {
	case LevelNone:
		return "none"
	case LevelSincePrevious:
		return "since-previous"
	case LevelSinceBeginning:
		return "since-beginning"
	case LevelComplete:
		return "complete"
	default:
		return fmt.Sprintf("level(%d)", uint8(l))
	}
}

// Incremental reports whether the level compares against a cache at all.
func (l Level) Incremental() bool {
	return l == LevelSincePrevious || l == LevelSinceBeginning
}

// Options tune a pass or a single field.
type Options uint32

const (
	// OptDryRun runs comparisons, counters and cache policy but emits no
	// bytes. Recorders use it to ask "would anything change?" cheaply.
	OptDryRun Options = 1 << iota
	// OptSkipCacheUpdate leaves the caches untouched after the transfer.
	OptSkipCacheUpdate
	// OptForce treats the field as changed regardless of comparison. A
	// structural change upstream (such as a reparent) invalidates the
	// meaning of cached values even when the numbers still match.
	OptForce
	// OptRebase resets both caches to the value seen during this call.
	OptRebase
)

// Has reports whether flag is set.
func (o Options) Has(flag Options) bool {
	return o&flag != 0
}

// Monitor receives a callback around every tracked field. Implementations
// must be cheap; they run inline with serialization.
type Monitor interface {
	FieldSerializing(ev FieldEvent)
	FieldSerialized(ev FieldEvent)
}

// Tracker owns the change caches for one object.
type Tracker struct {
	cfg     Config
	log     log.Log
	monitor Monitor
	entries map[string]*entry
}

type entry struct {
	initial    any
	hasInitial bool
	last       any
	hasLast    bool
}

// TrackerOption configures a Tracker.
type TrackerOption func(*Tracker)

// WithConfig replaces the default engine settings.
func WithConfig(cfg Config) TrackerOption {
	return func(t *Tracker) { t.cfg = cfg }
}

// WithMonitor attaches a field observer.
func WithMonitor(m Monitor) TrackerOption {
	return func(t *Tracker) { t.monitor = m }
}

// WithLogger attaches a logger.
func WithLogger(l log.Log) TrackerOption {
	return func(t *Tracker) { t.log = l }
}

// NewTracker returns a tracker with empty caches.
func NewTracker(opts ...TrackerOption) *Tracker {
	t := &Tracker{
		cfg:     DefaultConfig(),
		log:     log.NewNop(),
		monitor: NopMonitor{},
		entries: make(map[string]*entry),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Begin binds the tracker to a serializer session for one save or load
// pass. Extra options apply to every field of the pass.
func (t *Tracker) Begin(s *serialize.Serializer, level Level, opts ...Options) *Pass {
	p := &Pass{tracker: t, s: s, level: level}
	for _, o := range opts {
		p.opts |= o
	}
	return p
}

// CaptureBaseline runs fn in a dry write pass that rebases every field it
// touches, making the current values the baseline for LevelSinceBeginning
// comparisons. Call it once after the object's one-time initialization.
func (t *Tracker) CaptureBaseline(fn func(p *Pass) error) error {
	p := t.Begin(serialize.NewWriter(io.Discard), LevelComplete, OptDryRun|OptRebase)
	if err := fn(p); err != nil {
		return err
	}
	t.log.Debug("statesave: baseline captured", log.Int("fields", p.Changes()))
	return nil
}

// HasBaseline reports whether a baseline was captured for name.
func (t *Tracker) HasBaseline(name string) bool {
	ent, ok := t.entries[name]
	return ok && ent.hasInitial
}

// Reset drops every cached value, as if the tracker were fresh.
func (t *Tracker) Reset() {
	clear(t.entries)
}

func (t *Tracker) entry(name string) *entry {
	ent, ok := t.entries[name]
	if !ok {
		ent = &entry{}
		t.entries[name] = ent
	}
	return ent
}

// Pass is one save or load traversal of an object's fields.
type Pass struct {
	tracker *Tracker
	s       *serialize.Serializer
	level   Level
	opts    Options
	changes int
}

// Serializer returns the bound session, for fields that need the codec
// directly.
func (p *Pass) Serializer() *serialize.Serializer { return p.s }

// Level returns the pass save level.
func (p *Pass) Level() Level { return p.level }

// Options returns the pass-wide options.
func (p *Pass) Options() Options { return p.opts }

// Changes returns how many fields were actually transferred so far. A
// wrapper that sees zero changes after a dry pass can skip the object
// entirely.
func (p *Pass) Changes() int { return p.changes }

// IsReading reports whether the pass applies state rather than records it.
func (p *Pass) IsReading() bool { return p.s.IsReading() }

// Value serializes one tracked field. The returned bool reports whether the
// payload was actually transferred. An empty name bypasses tracking: no
// changed flag, no caches, transferred every time.
func Value[T any](p *Pass, name string, v *T) (bool, error) {
	return ValueWith(p, name, v, 0)
}

// ValueWith is Value with per-field options on top of the pass options.
func ValueWith[T any](p *Pass, name string, v *T, opts Options) (bool, error) {
	if v == nil {
		panic(fmt.Errorf("statesave: nil target for field %q", name))
	}
	if p.level == LevelNone {
		return false, nil
	}
	opts |= p.opts

	t := p.tracker
	t.monitor.FieldSerializing(FieldEvent{
		Name:    name,
		Level:   p.level,
		Options: opts,
		Reading: p.s.IsReading(),
	})

	start := p.s.Offset()
	var changed bool
	var err error
	if p.s.IsReading() {
		changed, err = readField(p, name, v, opts)
	} else {
		changed, err = writeField(p, name, v, opts)
	}
	if changed {
		p.changes++
	}

	t.monitor.FieldSerialized(FieldEvent{
		Name:    name,
		Level:   p.level,
		Options: opts,
		Reading: p.s.IsReading(),
		Changed: changed,
		Bytes:   p.s.Offset() - start,
		Err:     err,
	})
	return changed, err
}

func writeField[T any](p *Pass, name string, v *T, opts Options) (bool, error) {
	t := p.tracker
	var ent *entry
	if name != "" {
		ent = t.entry(name)
	}

	changed := true
	if ent != nil && !opts.Has(OptForce) {
		switch p.level {
		case LevelSincePrevious:
			if ent.hasLast {
				changed = !equalWithTolerance(*v, ent.last, t.cfg.FloatTolerance)
			}
		case LevelSinceBeginning:
			if !ent.hasInitial {
				panic(fmt.Errorf("statesave: field %q has no baseline; CaptureBaseline must run after initialization", name))
			}
			changed = !equalWithTolerance(*v, ent.initial, t.cfg.FloatTolerance)
		}
	}

	dry := opts.Has(OptDryRun)
	if ent != nil && !dry {
		if err := p.s.Bool(&changed); err != nil {
			return false, err
		}
	}
	if changed && !dry {
		if err := serialize.Tagged(p.s, v); err != nil {
			return changed, err
		}
	}

	if ent != nil && !opts.Has(OptSkipCacheUpdate) {
		if opts.Has(OptRebase) {
			ent.initial = cloneForCache(*v)
			ent.hasInitial = true
			ent.last = cloneForCache(*v)
			ent.hasLast = true
		} else if changed {
			ent.last = cloneForCache(*v)
			ent.hasLast = true
		}
	}
	return changed, nil
}

func readField[T any](p *Pass, name string, v *T, opts Options) (bool, error) {
	t := p.tracker
	var ent *entry
	if name != "" {
		ent = t.entry(name)
	}

	changed := true
	if ent != nil {
		if err := p.s.Bool(&changed); err != nil {
			return false, err
		}
	}
	if changed {
		if err := serialize.Tagged(p.s, v); err != nil {
			return changed, err
		}
	}

	if ent != nil && !opts.Has(OptSkipCacheUpdate) {
		if opts.Has(OptRebase) {
			ent.initial = cloneForCache(*v)
			ent.hasInitial = true
			ent.last = cloneForCache(*v)
			ent.hasLast = true
		} else if changed {
			ent.last = cloneForCache(*v)
			ent.hasLast = true
		}
	}
	return changed, nil
}
