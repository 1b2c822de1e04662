package fingerprint

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDistanceSelfIsZero(t *testing.T) {
	fp := Fingerprint{
		FrameCount:   4,
		SpatialHash:  []uint64{1, 2, 3, 4},
		TemporalHash: []uint64{5, 6, 7},
	}
	d, err := Between(fp, fp)
	require.NoError(t, err)
	require.Equal(t, uint32(0), d.Spatial)
	require.Equal(t, uint32(0), d.Temporal)
}

func TestDistanceIsSymmetric(t *testing.T) {
	a := Fingerprint{FrameCount: 3, SpatialHash: []uint64{1, 2, 3}, TemporalHash: []uint64{9, 10}}
	b := Fingerprint{FrameCount: 3, SpatialHash: []uint64{4, 2, 9}, TemporalHash: []uint64{9, 1}}

	d1, err := Between(a, b)
	require.NoError(t, err)
	d2, err := Between(b, a)
	require.NoError(t, err)

	require.Equal(t, d1, d2)
}

func TestBetweenEmptyIsError(t *testing.T) {
	_, err := Between(Fingerprint{}, Fingerprint{})
	require.Error(t, err)
}

func TestScaleToleranceZeroAndOne(t *testing.T) {
	zero := ScaleTolerance(0)
	require.Equal(t, uint32(0), zero.Spatial)
	require.Equal(t, uint32(0), zero.Temporal)

	full := ScaleTolerance(1)
	require.Equal(t, uint32(TolerranceScalingFactor), full.Spatial)
}

func TestWithinTolerance(t *testing.T) {
	d := Distance{Spatial: 10, Temporal: 10}
	tol := Distance{Spatial: 10, Temporal: 10}
	require.True(t, d.WithinTolerance(tol))

	tooFar := Distance{Spatial: 11, Temporal: 0}
	require.False(t, tooFar.WithinTolerance(tol))
}

func TestFromFramesTooShort(t *testing.T) {
	_, err := FromFrames(nil)
	require.ErrorIs(t, err, ErrVideoTooShort)
}
