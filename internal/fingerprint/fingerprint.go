// Package fingerprint defines the Fingerprint type produced by hashing a
// sampled sequence of video frames, and the integer-only distance metric
// used to compare two fingerprints.
package fingerprint

import (
	"errors"
	"fmt"
	"image"
	"math/bits"

	"github.com/Farmadupe/vid-dup-finder/internal/dcthash"
)

const (
	// NMax bounds the number of sampled frames a fingerprint can hold;
	// distance lookup tables are sized against it.
	NMax = 10

	// Scale is the fixed-point multiplier applied when normalizing a
	// raw Hamming distance against the number of words compared.
	Scale = 64

	// HashBitsPerFrame is the width of one spatial hash word.
	HashBitsPerFrame = 64

	// TolerranceScalingFactor converts a user-facing tolerance in
	// [0,1] into the integer distance domain. Equal to
	// HashX*HashY*Scale*NMax.
	TolerranceScalingFactor = dcthash.HashX * dcthash.HashY * Scale * NMax
)

var (
	// ErrVideoTooShort is returned when fewer than two frames could be
	// sampled, so no temporal hash can be formed.
	ErrVideoTooShort = errors.New("fingerprint: video too short to hash")
	// ErrEmptyHash is returned when every spatial hash word (and so
	// every temporal word) is zero, which would match any other empty
	// fingerprint trivially.
	ErrEmptyHash = errors.New("fingerprint: no frames available to hash")
)

// Fingerprint is the perceptual signature of a video: one spatial hash
// word per sampled frame, and one temporal (XOR-delta) word per
// consecutive pair of frames.
type Fingerprint struct {
	FrameCount   int
	SpatialHash  []uint64
	TemporalHash []uint64
}

// FromFrames builds a Fingerprint from a slice of sampled frame images,
// in presentation order.
func FromFrames(frames []image.Image) (Fingerprint, error) {
	if len(frames) < 2 {
		return Fingerprint{}, ErrVideoTooShort
	}

	spatial := make([]uint64, len(frames))
	allZero := true
	for i, f := range frames {
		spatial[i] = dcthash.SpatialHashOf(f)
		if spatial[i] != 0 {
			allZero = false
		}
	}
	if allZero {
		return Fingerprint{}, ErrEmptyHash
	}

	temporal := make([]uint64, len(frames)-1)
	for i := 0; i < len(frames)-1; i++ {
		temporal[i] = dcthash.TemporalHashOf(spatial[i], spatial[i+1])
	}

	return Fingerprint{
		FrameCount:   len(frames),
		SpatialHash:  spatial,
		TemporalHash: temporal,
	}, nil
}

// spatialLUT[m] / temporalLUT[q] hold round(Scale*NMax/index) for index
// in [1, NMax]. Index 0 is unused (kept so the tables can be indexed
// directly by m / numQwords without an off-by-one subtraction at every
// call site), matching the original implementation's layout exactly.
var spatialLUT = buildLUT()
var temporalLUT = buildLUT()

func buildLUT() [NMax + 1]uint32 {
	var t [NMax + 1]uint32
	for i := 1; i <= NMax; i++ {
		t[i] = uint32(roundDiv(Scale*NMax, i))
	}
	return t
}

func roundDiv(num, den int) int {
	// round-half-up integer division, matching round(a/b) for positive
	// a, b.
	return (num*2 + den) / (den * 2)
}

// Distance is the componentwise distance between two fingerprints: a
// normalized spatial distance and a normalized temporal distance. The
// two components are compared independently against a tolerance pair,
// but combine into a single scalar key for structural indexing (e.g.
// BK-tree node keys).
type Distance struct {
	Spatial  uint32
	Temporal uint32
}

// Value returns the combined scalar used as a BK-tree metric key.
func (d Distance) Value() uint32 {
	return d.Spatial + d.Temporal
}

// WithinTolerance reports whether both components of d are within the
// corresponding component of t.
func (d Distance) WithinTolerance(t Distance) bool {
	return d.Spatial <= t.Spatial && d.Temporal <= t.Temporal
}

// Between computes the normalized distance between two fingerprints.
// The spatial lookup table is indexed by m = min(len(a.SpatialHash),
// len(b.SpatialHash)); the temporal table is indexed by the number of
// temporal words actually compared, m-1 -- not by m itself. This
// mirrors the reference implementation's LUT indexing exactly (see
// DESIGN.md: the two tables are keyed by different quantities).
func Between(a, b Fingerprint) (Distance, error) {
	m := min(len(a.SpatialHash), len(b.SpatialHash))
	if m == 0 {
		return Distance{}, fmt.Errorf("fingerprint: cannot compare empty hashes")
	}
	if m > NMax {
		m = NMax
	}

	var rawSpatial int
	for i := 0; i < m; i++ {
		rawSpatial += bits.OnesCount64(a.SpatialHash[i] ^ b.SpatialHash[i])
	}

	numQwords := min(len(a.TemporalHash), len(b.TemporalHash))
	if numQwords > m-1 {
		numQwords = m - 1
	}
	if numQwords > NMax {
		numQwords = NMax
	}

	var rawTemporal int
	for i := 0; i < numQwords; i++ {
		rawTemporal += bits.OnesCount64(a.TemporalHash[i] ^ b.TemporalHash[i])
	}

	spatial := uint32(rawSpatial) * spatialLUT[m]

	var temporal uint32
	if numQwords > 0 {
		temporal = uint32(rawTemporal) * temporalLUT[numQwords]
	}

	return Distance{Spatial: spatial, Temporal: temporal}, nil
}

// ScaleTolerance converts a user-facing tolerance in [0,1] into the
// integer Distance domain, applying the same scaled value to both the
// spatial and temporal components.
func ScaleTolerance(t float64) Distance {
	scaled := uint32(t * float64(TolerranceScalingFactor))
	return Distance{Spatial: scaled, Temporal: scaled}
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
