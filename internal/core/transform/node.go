// Package transform models a parented scene node and serializes its pose
// through the change tracker, so recorded streams stay small while still
// surviving reparenting and coordinate-space conversion.
package transform

import (
	"fmt"

	"github.com/snapsync/snapsync/internal/core/serialize"
	"github.com/snapsync/snapsync/pkg/maths"
)

// Space selects the frame a pose is recorded in.
type Space uint8

const (
	// SpaceWorld records position and rotation in world coordinates.
	SpaceWorld Space = iota
	// SpaceLocal records them relative to the parent node.
	SpaceLocal
	// SpaceAnchor records them relative to the codec's anchor node, which
	// keeps poses meaningful when the whole play area moves between
	// sessions.
	SpaceAnchor
)

// String returns the space name.
func (s Space) String() string {
	switch s {
	case SpaceWorld:
		return "world"
	case SpaceLocal:
		return "local"
	case SpaceAnchor:
		return "anchor"
	default:
		return fmt.Sprintf("space(%d)", uint8(s))
	}
}

// Node is one transform in a parent hierarchy. Position, rotation and scale
// are stored relative to the parent; world values are derived on demand by
// walking the chain.
type Node struct {
	ref        serialize.Ref
	parent     *Node
	localPos   maths.Vector3
	localRot   maths.Quaternion
	localScale maths.Vector3
}

// NewNode returns a detached node at the local origin.
func NewNode(ref serialize.Ref) *Node {
	return &Node{
		ref:        ref,
		localRot:   maths.QuaternionIdentity(),
		localScale: maths.One3(),
	}
}

// Ref returns the node's stable identity.
func (n *Node) Ref() serialize.Ref { return n.ref }

// Parent returns the current parent, nil when detached.
func (n *Node) Parent() *Node { return n.parent }

// SetParent attaches n under parent, keeping the local values as they are.
// Passing nil detaches. Attaching under n itself or one of its descendants
// is ignored.
func (n *Node) SetParent(parent *Node) {
	for a := parent; a != nil; a = a.parent {
		if a == n {
			return
		}
	}
	n.parent = parent
}

// SetParentKeepWorld reparents while preserving the world pose. Scale is
// carried over componentwise, which is approximate when an ancestor
// combines rotation with non-uniform scale.
func (n *Node) SetParentKeepWorld(parent *Node) {
	pos := n.WorldPosition()
	rot := n.WorldRotation()
	scale := n.WorldScale()
	n.SetParent(parent)
	if n.parent != parent {
		return
	}
	n.SetWorldPosition(pos)
	n.SetWorldRotation(rot)
	if parent == nil {
		n.localScale = scale
	} else {
		n.localScale = scale.Div(parent.WorldScale())
	}
}

// LocalPosition returns the position relative to the parent.
func (n *Node) LocalPosition() maths.Vector3 { return n.localPos }

// SetLocalPosition sets the position relative to the parent.
func (n *Node) SetLocalPosition(p maths.Vector3) { n.localPos = p }

// LocalRotation returns the rotation relative to the parent.
func (n *Node) LocalRotation() maths.Quaternion { return n.localRot }

// SetLocalRotation sets the rotation relative to the parent.
func (n *Node) SetLocalRotation(r maths.Quaternion) { n.localRot = r }

// LocalScale returns the scale relative to the parent.
func (n *Node) LocalScale() maths.Vector3 { return n.localScale }

// SetLocalScale sets the scale relative to the parent.
func (n *Node) SetLocalScale(s maths.Vector3) { n.localScale = s }

// WorldPosition returns the node origin in world space.
func (n *Node) WorldPosition() maths.Vector3 {
	if n.parent == nil {
		return n.localPos
	}
	return n.parent.TransformPoint(n.localPos)
}

// SetWorldPosition moves the node to a world-space position by adjusting
// the local one.
func (n *Node) SetWorldPosition(p maths.Vector3) {
	if n.parent == nil {
		n.localPos = p
		return
	}
	n.localPos = n.parent.InverseTransformPoint(p)
}

// WorldRotation returns the accumulated rotation of the chain.
func (n *Node) WorldRotation() maths.Quaternion {
	if n.parent == nil {
		return n.localRot
	}
	return n.parent.WorldRotation().Mul(n.localRot)
}

// SetWorldRotation orients the node in world space by adjusting the local
// rotation.
func (n *Node) SetWorldRotation(r maths.Quaternion) {
	if n.parent == nil {
		n.localRot = r
		return
	}
	n.localRot = n.parent.WorldRotation().Conjugate().Mul(r)
}

// WorldScale returns the componentwise product of the chain's scales. Shear
// introduced by rotated non-uniform ancestors is not representable here.
func (n *Node) WorldScale() maths.Vector3 {
	if n.parent == nil {
		return n.localScale
	}
	return n.parent.WorldScale().Mul(n.localScale)
}

// TransformPoint maps a point from n's local space to world space.
func (n *Node) TransformPoint(p maths.Vector3) maths.Vector3 {
	q := n.localRot.Rotate(p.Mul(n.localScale)).Add(n.localPos)
	if n.parent == nil {
		return q
	}
	return n.parent.TransformPoint(q)
}

// InverseTransformPoint maps a world-space point into n's local space. A
// zero scale component yields infinities, matching Go float semantics.
func (n *Node) InverseTransformPoint(p maths.Vector3) maths.Vector3 {
	if n.parent != nil {
		p = n.parent.InverseTransformPoint(p)
	}
	return n.localRot.Conjugate().Rotate(p.Sub(n.localPos)).Div(n.localScale)
}

// WorldMatrix composes the full TRS chain.
func (n *Node) WorldMatrix() maths.Matrix4x4 {
	m := maths.TRS(n.localPos, n.localRot, n.localScale)
	if n.parent == nil {
		return m
	}
	return n.parent.WorldMatrix().Mul(m)
}
