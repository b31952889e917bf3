package replay

import (
	"bytes"
	"fmt"
	"io"

	"github.com/snapsync/snapsync/internal/core/observability/log"
	"github.com/snapsync/snapsync/internal/core/serialize"
	"github.com/snapsync/snapsync/internal/core/statesave"
	"github.com/snapsync/snapsync/pkg/generic"
)

// RecorderOptions wires a Recorder. Zero fields fall back to defaults; a
// nil Types registry is fine as long as no source serializes enums or
// objects.
type RecorderOptions struct {
	Types   *serialize.TypeRegistry
	Config  statesave.Config
	Monitor statesave.Monitor
	Logger  log.Log
	// KeyframeEvery inserts a keyframe every n-th frame so playback can
	// resynchronize periodically. Zero means only the first frame and
	// explicit Keyframe calls.
	KeyframeEvery int
}

// Recorder serializes the tracked state of its sources into frames. One
// tracker per source keeps change caches across frames: the first frame is
// always a keyframe, later ones are deltas unless the schedule or the
// caller says otherwise.
type Recorder struct {
	w       io.Writer
	types   *serialize.TypeRegistry
	cfg     statesave.Config
	monitor statesave.Monitor
	log     log.Log
	every   int

	sources  []Saveable
	trackers map[serialize.Ref]*statesave.Tracker
	bufs     *generic.Pool[*bytes.Buffer]
	frames   int
}

// NewRecorder returns a recorder writing frames to w.
func NewRecorder(w io.Writer, opts RecorderOptions) *Recorder {
	if opts.Config == (statesave.Config{}) {
		opts.Config = statesave.DefaultConfig()
	}
	if opts.Monitor == nil {
		opts.Monitor = statesave.NopMonitor{}
	}
	if opts.Logger == nil {
		opts.Logger = log.NewNop()
	}
	return &Recorder{
		w:        w,
		types:    opts.Types,
		cfg:      opts.Config,
		monitor:  opts.Monitor,
		log:      opts.Logger,
		every:    opts.KeyframeEvery,
		trackers: make(map[serialize.Ref]*statesave.Tracker),
		bufs:     generic.NewBufferPool(),
	}
}

// Add registers a source. Frame order follows registration order.
func (r *Recorder) Add(src Saveable) error {
	ref := src.StateRef()
	if ref.IsNil() {
		return ErrNilSourceRef
	}
	if _, ok := r.trackers[ref]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateSource, ref)
	}
	r.sources = append(r.sources, src)
	r.trackers[ref] = statesave.NewTracker(
		statesave.WithConfig(r.cfg),
		statesave.WithMonitor(r.monitor),
		statesave.WithLogger(r.log),
	)
	return nil
}

// Frames returns how many frames were written so far.
func (r *Recorder) Frames() int { return r.frames }

// Frame records one frame: a keyframe when the schedule says so, otherwise
// a delta holding only sources with at least one changed field. It returns
// the number of sources included.
func (r *Recorder) Frame() (int, error) {
	kind := FrameDelta
	if r.frames == 0 || (r.every > 0 && r.frames%r.every == 0) {
		kind = FrameKeyframe
	}
	return r.frame(kind)
}

// Keyframe records a complete frame regardless of the schedule.
func (r *Recorder) Keyframe() (int, error) {
	return r.frame(FrameKeyframe)
}

type pendingEntity struct {
	ref serialize.Ref
	buf *bytes.Buffer
}

func (r *Recorder) frame(kind FrameKind) (int, error) {
	var pending []pendingEntity
	release := func() {
		for _, e := range pending {
			r.bufs.Put(e.buf)
		}
	}

	for _, src := range r.sources {
		ref := src.StateRef()
		eb := r.bufs.Get()
		es := serialize.NewWriter(eb, serialize.WithTypes(r.types))
		p := r.trackers[ref].Begin(es, kind.level())
		if err := src.SaveState(p); err != nil {
			r.bufs.Put(eb)
			release()
			return 0, fmt.Errorf("replay: source %s: %w", ref, err)
		}
		if kind == FrameDelta && p.Changes() == 0 {
			r.bufs.Put(eb)
			continue
		}
		pending = append(pending, pendingEntity{ref: ref, buf: eb})
	}

	body := r.bufs.Get()
	defer r.bufs.Put(body)
	s := serialize.NewWriter(body, serialize.WithTypes(r.types))
	ver := uint8(serialize.Version)
	kb := uint8(kind)
	count := uint32(len(pending))
	_ = s.Uint8(&ver)
	_ = s.Uint8(&kb)
	_ = s.Uint32(&count)
	for _, e := range pending {
		ref := e.ref
		payload := e.buf.Bytes()
		_ = s.Ref(&ref)
		_ = s.Bytes(&payload)
	}
	release()
	if err := s.Err(); err != nil {
		return 0, err
	}

	if err := writeFrame(r.w, body.Bytes()); err != nil {
		return 0, err
	}
	r.frames++
	r.log.Debug("replay: frame written",
		log.Stringer("kind", kind),
		log.Int("sources", int(count)),
		log.Int("bytes", body.Len()),
	)
	return int(count), nil
}
