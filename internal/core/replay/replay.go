// Package replay records the tracked state of a set of objects frame by
// frame and plays the stream back. A frame is either a keyframe carrying
// complete state or a delta carrying only what changed, so long recordings
// stay proportional to activity, not to scene size. Every frame is
// checksummed; playback refuses corrupted bytes instead of desynchronizing.
package replay

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/cespare/xxhash/v2"

	"github.com/snapsync/snapsync/internal/core/serialize"
	"github.com/snapsync/snapsync/internal/core/statesave"
)

// Saveable is an object that can route its state through a tracked pass.
// The same SaveState method serves recording and playback; the pass
// direction decides which happens.
type Saveable interface {
	// StateRef identifies the object across processes and sessions.
	StateRef() serialize.Ref
	// SaveState serializes the object's tracked fields through p.
	SaveState(p *statesave.Pass) error
}

// FrameKind tells the player how a frame was recorded.
type FrameKind uint8

const (
	// FrameKeyframe carries complete state for every included source.
	FrameKeyframe FrameKind = iota + 1
	// FrameDelta carries only fields that changed since the previous
	// frame, omitting sources with no changes at all.
	FrameDelta
)

// String returns the kind name.
func (k FrameKind) String() string {
	switch k {
	case FrameKeyframe:
		return "keyframe"
	case FrameDelta:
		return "delta"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

func (k FrameKind) valid() bool {
	return k == FrameKeyframe || k == FrameDelta
}

func (k FrameKind) level() statesave.Level {
	if k == FrameKeyframe {
		return statesave.LevelComplete
	}
	return statesave.LevelSincePrevious
}

var (
	// ErrBadMagic means the stream does not start a frame where one was
	// expected.
	ErrBadMagic = errors.New("replay: bad frame magic")
	// ErrChecksum means frame bytes do not match their checksum.
	ErrChecksum = errors.New("replay: frame checksum mismatch")
	// ErrBadFrame means the frame body is structurally invalid.
	ErrBadFrame = errors.New("replay: malformed frame")
	// ErrFrameTooLarge guards against absurd length prefixes.
	ErrFrameTooLarge = errors.New("replay: frame exceeds size limit")
	// ErrDuplicateSource means two sources share a state ref.
	ErrDuplicateSource = errors.New("replay: duplicate source ref")
	// ErrNilSourceRef means a source reported the nil ref.
	ErrNilSourceRef = errors.New("replay: source has nil ref")
)

// frameMagic pins the frame envelope layout. The codec version travels in
// the body, so envelope and payload can evolve independently.
var frameMagic = [4]byte{'S', 'N', 'P', '1'}

const maxFrameLen = 1 << 28

// frameWireSize returns the full on-wire size of a frame with the given
// body length: magic, varint length, body, checksum.
func frameWireSize(bodyLen int) int {
	n := 1
	for v := uint64(bodyLen); v >= 0x80; v >>= 7 {
		n++
	}
	return 4 + n + bodyLen + 8
}

// writeFrame wraps a finished body in the envelope: magic, varint body
// length, body bytes, then the body's xxhash64.
func writeFrame(w io.Writer, body []byte) error {
	var hdr [4 + binary.MaxVarintLen64]byte
	copy(hdr[:4], frameMagic[:])
	n := binary.PutUvarint(hdr[4:], uint64(len(body)))
	if _, err := w.Write(hdr[:4+n]); err != nil {
		return err
	}
	if _, err := w.Write(body); err != nil {
		return err
	}
	var sum [8]byte
	binary.LittleEndian.PutUint64(sum[:], xxhash.Sum64(body))
	_, err := w.Write(sum[:])
	return err
}

// readFrame returns the next verified frame body. A clean end of stream is
// io.EOF; a stream cut mid-frame is io.ErrUnexpectedEOF.
func readFrame(br *bufio.Reader) ([]byte, error) {
	var magic [4]byte
	if _, err := io.ReadFull(br, magic[:]); err != nil {
		return nil, err
	}
	if magic != frameMagic {
		return nil, ErrBadMagic
	}
	size, err := binary.ReadUvarint(br)
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, io.ErrUnexpectedEOF
		}
		return nil, err
	}
	if size > maxFrameLen {
		return nil, fmt.Errorf("%w: %d bytes", ErrFrameTooLarge, size)
	}
	body := make([]byte, size)
	if _, err = io.ReadFull(br, body); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, io.ErrUnexpectedEOF
		}
		return nil, err
	}
	var sum [8]byte
	if _, err = io.ReadFull(br, sum[:]); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, io.ErrUnexpectedEOF
		}
		return nil, err
	}
	if xxhash.Sum64(body) != binary.LittleEndian.Uint64(sum[:]) {
		return nil, ErrChecksum
	}
	return body, nil
}
