package replay

import (
	"bufio"
	"bytes"
	"fmt"
	"io"

	"github.com/snapsync/snapsync/internal/core/observability/log"
	"github.com/snapsync/snapsync/internal/core/registry"
	"github.com/snapsync/snapsync/internal/core/serialize"
	"github.com/snapsync/snapsync/internal/core/statesave"
)

// PlayerOptions wires a Player. The resolver maps recorded refs back to
// live Saveable objects; refs it cannot resolve are skipped with a warning
// so a stream stays playable in a scene that lost some objects. A nil
// resolver turns the player into a pure verifier: frames are parsed and
// checksummed but applied to nothing.
type PlayerOptions struct {
	Resolver registry.Resolver
	Types    *serialize.TypeRegistry
	Config   statesave.Config
	Logger   log.Log
}

// Player applies recorded frames to live objects.
type Player struct {
	r        *bufio.Reader
	resolver registry.Resolver
	types    *serialize.TypeRegistry
	cfg      statesave.Config
	log      log.Log

	trackers map[serialize.Ref]*statesave.Tracker
	frames   int
}

// NewPlayer returns a player reading frames from r.
func NewPlayer(r io.Reader, opts PlayerOptions) *Player {
	if opts.Config == (statesave.Config{}) {
		opts.Config = statesave.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = log.NewNop()
	}
	return &Player{
		r:        bufio.NewReader(r),
		resolver: opts.Resolver,
		types:    opts.Types,
		cfg:      opts.Config,
		log:      opts.Logger,
		trackers: make(map[serialize.Ref]*statesave.Tracker),
	}
}

// Frame describes one frame after it was applied. Bytes counts the whole
// frame on the wire, envelope included.
type Frame struct {
	Kind    FrameKind
	Sources int
	Applied int
	Skipped int
	Bytes   int
}

// Frames returns how many frames were applied so far.
func (p *Player) Frames() int { return p.frames }

// Step reads, verifies and applies the next frame. The end of the stream
// is a plain io.EOF; a frame cut short is io.ErrUnexpectedEOF.
func (p *Player) Step() (Frame, error) {
	body, err := readFrame(p.r)
	if err != nil {
		return Frame{}, err
	}
	if len(body) < 2 {
		return Frame{}, fmt.Errorf("%w: body too short", ErrBadFrame)
	}

	// The leading byte is the codec version the frame was written with.
	s, err := serialize.NewReader(bytes.NewReader(body[1:]), int(body[0]), serialize.WithTypes(p.types))
	if err != nil {
		return Frame{}, err
	}
	var kb uint8
	var count uint32
	if err = s.Uint8(&kb); err != nil {
		return Frame{}, err
	}
	kind := FrameKind(kb)
	if !kind.valid() {
		return Frame{}, fmt.Errorf("%w: %s", ErrBadFrame, kind)
	}
	if err = s.Uint32(&count); err != nil {
		return Frame{}, err
	}

	fr := Frame{Kind: kind, Sources: int(count), Bytes: frameWireSize(len(body))}
	for i := 0; i < int(count); i++ {
		var ref serialize.Ref
		var payload []byte
		if err = s.Ref(&ref); err != nil {
			return fr, err
		}
		if err = s.Bytes(&payload); err != nil {
			return fr, err
		}

		src := p.lookup(ref)
		if src == nil {
			fr.Skipped++
			if p.resolver != nil {
				p.log.Warn("replay: no object for recorded ref, skipping", log.Stringer("ref", ref))
			}
			continue
		}
		es, err := serialize.NewReader(bytes.NewReader(payload), int(body[0]), serialize.WithTypes(p.types))
		if err != nil {
			return fr, err
		}
		pass := p.tracker(ref).Begin(es, kind.level())
		if err = src.SaveState(pass); err != nil {
			return fr, fmt.Errorf("replay: source %s: %w", ref, err)
		}
		fr.Applied++
	}

	p.frames++
	return fr, nil
}

// PlayAll applies frames until the stream ends and returns how many it
// applied.
func (p *Player) PlayAll() (int, error) {
	n := 0
	for {
		if _, err := p.Step(); err != nil {
			if err == io.EOF {
				return n, nil
			}
			return n, err
		}
		n++
	}
}

func (p *Player) lookup(ref serialize.Ref) Saveable {
	if p.resolver == nil {
		return nil
	}
	v, ok := p.resolver.Resolve(ref)
	if !ok {
		return nil
	}
	src, ok := v.(Saveable)
	if !ok {
		return nil
	}
	return src
}

func (p *Player) tracker(ref serialize.Ref) *statesave.Tracker {
	tr, ok := p.trackers[ref]
	if !ok {
		tr = statesave.NewTracker(
			statesave.WithConfig(p.cfg),
			statesave.WithLogger(p.log),
		)
		p.trackers[ref] = tr
	}
	return tr
}
