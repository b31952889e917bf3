package transform

import (
	"github.com/snapsync/snapsync/internal/core/observability/log"
	"github.com/snapsync/snapsync/internal/core/registry"
	"github.com/snapsync/snapsync/internal/core/serialize"
	"github.com/snapsync/snapsync/internal/core/statesave"
	"github.com/snapsync/snapsync/pkg/maths"
)

// AnchorProvider supplies the reference node for SpaceAnchor poses.
type AnchorProvider interface {
	Anchor() *Node
}

// AnchorFunc adapts a plain function to AnchorProvider.
type AnchorFunc func() *Node

func (f AnchorFunc) Anchor() *Node { return f() }

// Codec serializes node poses through a change-tracking pass. One codec
// serves one scene: it resolves parent references against the scene's
// registry, caches the anchor lookup after the first use, and remembers the
// space each node's pose last arrived in.
type Codec struct {
	resolver registry.Resolver
	anchors  AnchorProvider
	log      log.Log

	anchor         *Node
	anchorResolved bool
	anchorWarned   bool
	spaces         map[serialize.Ref]Space
}

// CodecOption configures a Codec.
type CodecOption func(*Codec)

// WithResolver sets the lookup used to turn parent refs back into nodes.
func WithResolver(r registry.Resolver) CodecOption {
	return func(c *Codec) { c.resolver = r }
}

// WithAnchors sets the provider consulted for SpaceAnchor poses.
func WithAnchors(a AnchorProvider) CodecOption {
	return func(c *Codec) { c.anchors = a }
}

// WithLogger sets the codec logger.
func WithLogger(l log.Log) CodecOption {
	return func(c *Codec) { c.log = l }
}

// NewCodec returns a codec with the given wiring.
func NewCodec(opts ...CodecOption) *Codec {
	c := &Codec{
		log:    log.NewNop(),
		spaces: make(map[serialize.Ref]Space),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Sync serializes n's parent link and pose as five tracked fields under
// name: ".parent", ".space", ".position", ".rotation" and ".scale" suffixes.
// Position and rotation are expressed in the requested space; scale is
// always local, since a world-space scale cannot generally be applied back.
// The space travels with the data, and reading honors the stream's space
// over the caller's, so a replica reconstructs correctly even when its
// default convention differs from the recorder's.
//
// When the parent changed, the pose fields are forced through even if their
// numbers still match the cache, because those numbers now mean something
// else; a space change forces position and rotation for the same reason.
// Reading reparents before applying the pose.
func (c *Codec) Sync(p *statesave.Pass, name string, n *Node, space Space) error {
	if p.IsReading() {
		return c.read(p, name, n, space)
	}
	return c.write(p, name, n, space)
}

func (c *Codec) write(p *statesave.Pass, name string, n *Node, space Space) error {
	parentRef := serialize.NilRef
	if n.parent != nil {
		parentRef = n.parent.ref
	}
	parentChanged, err := statesave.Value(p, name+".parent", &parentRef)
	if err != nil {
		return err
	}
	spc := space
	spaceChanged, err := statesave.Value(p, name+".space", &spc)
	if err != nil {
		return err
	}

	var poseOpts statesave.Options
	if parentChanged || spaceChanged {
		poseOpts = statesave.OptForce
	}
	var scaleOpts statesave.Options
	if parentChanged {
		scaleOpts = statesave.OptForce
	}
	pos, rot := c.pose(n, space)
	if _, err = statesave.ValueWith(p, name+".position", &pos, poseOpts); err != nil {
		return err
	}
	if _, err = statesave.ValueWith(p, name+".rotation", &rot, poseOpts); err != nil {
		return err
	}
	scale := n.localScale
	_, err = statesave.ValueWith(p, name+".scale", &scale, scaleOpts)
	return err
}

func (c *Codec) read(p *statesave.Pass, name string, n *Node, space Space) error {
	parentRef := serialize.NilRef
	if n.parent != nil {
		parentRef = n.parent.ref
	}
	parentChanged, err := statesave.Value(p, name+".parent", &parentRef)
	if err != nil {
		return err
	}
	if parentChanged {
		c.reparent(n, parentRef)
	}

	// The recorded numbers are in the space the writer chose, so the
	// stream's space wins over the caller's. An unchanged flag keeps the
	// space last decoded for this node.
	spc := space
	if prev, ok := c.spaces[n.ref]; ok {
		spc = prev
	}
	if _, err = statesave.Value(p, name+".space", &spc); err != nil {
		return err
	}
	c.spaces[n.ref] = spc

	// Targets are primed with the current pose so an absent field leaves
	// the node where it is.
	pos, rot := c.pose(n, spc)
	posChanged, err := statesave.Value(p, name+".position", &pos)
	if err != nil {
		return err
	}
	rotChanged, err := statesave.Value(p, name+".rotation", &rot)
	if err != nil {
		return err
	}
	scale := n.localScale
	scaleChanged, err := statesave.Value(p, name+".scale", &scale)
	if err != nil {
		return err
	}

	c.apply(n, spc, pos, rot, posChanged, rotChanged)
	if scaleChanged {
		n.localScale = scale
	}
	return nil
}

// pose reads the node's position and rotation in the requested space.
func (c *Codec) pose(n *Node, space Space) (maths.Vector3, maths.Quaternion) {
	switch space {
	case SpaceLocal:
		return n.localPos, n.localRot
	case SpaceAnchor:
		if a := c.anchorNode(); a != nil {
			return a.InverseTransformPoint(n.WorldPosition()),
				a.WorldRotation().Conjugate().Mul(n.WorldRotation())
		}
	}
	return n.WorldPosition(), n.WorldRotation()
}

func (c *Codec) apply(n *Node, space Space, pos maths.Vector3, rot maths.Quaternion, posChanged, rotChanged bool) {
	if !posChanged && !rotChanged {
		return
	}
	switch space {
	case SpaceLocal:
		if posChanged {
			n.localPos = pos
		}
		if rotChanged {
			n.localRot = rot
		}
		return
	case SpaceAnchor:
		if a := c.anchorNode(); a != nil {
			if posChanged {
				n.SetWorldPosition(a.TransformPoint(pos))
			}
			if rotChanged {
				n.SetWorldRotation(a.WorldRotation().Mul(rot))
			}
			return
		}
	}
	if posChanged {
		n.SetWorldPosition(pos)
	}
	if rotChanged {
		n.SetWorldRotation(rot)
	}
}

func (c *Codec) reparent(n *Node, ref serialize.Ref) {
	if ref.IsNil() {
		n.SetParent(nil)
		return
	}
	if n.parent != nil && n.parent.ref == ref {
		return
	}
	if c.resolver == nil {
		c.log.Warn("transform: no resolver, keeping current parent", log.Stringer("ref", ref))
		return
	}
	v, ok := c.resolver.Resolve(ref)
	if !ok {
		c.log.Warn("transform: parent not in registry, keeping current parent", log.Stringer("ref", ref))
		return
	}
	parent, ok := v.(*Node)
	if !ok {
		c.log.Warn("transform: ref does not resolve to a node", log.Stringer("ref", ref))
		return
	}
	n.SetParent(parent)
}

// anchorNode resolves the anchor once and reuses it for the codec's
// lifetime. SpaceAnchor degrades to world space when no anchor exists.
func (c *Codec) anchorNode() *Node {
	if !c.anchorResolved {
		c.anchorResolved = true
		if c.anchors != nil {
			c.anchor = c.anchors.Anchor()
		}
	}
	if c.anchor == nil && !c.anchorWarned {
		c.anchorWarned = true
		c.log.Warn("transform: no anchor available, anchor-space poses use world space")
	}
	return c.anchor
}
