package dcthash

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/require"
)

func solidImage(v uint8) image.Image {
	img := image.NewGray(image.Rect(0, 0, ResizeX, ResizeY))
	for y := 0; y < ResizeY; y++ {
		for x := 0; x < ResizeX; x++ {
			img.SetGray(x, y, color.Gray{Y: v})
		}
	}
	return img
}

func checkerImage() image.Image {
	img := image.NewGray(image.Rect(0, 0, ResizeX, ResizeY))
	for y := 0; y < ResizeY; y++ {
		for x := 0; x < ResizeX; x++ {
			v := uint8(0)
			if (x+y)%2 == 0 {
				v = 255
			}
			img.SetGray(x, y, color.Gray{Y: v})
		}
	}
	return img
}

func TestSpatialHashIsDeterministic(t *testing.T) {
	img := checkerImage()
	h1 := SpatialHashOf(img)
	h2 := SpatialHashOf(img)
	require.Equal(t, h1, h2)
}

func TestSpatialHashDiffersForDifferentImages(t *testing.T) {
	h1 := SpatialHashOf(solidImage(0))
	h2 := SpatialHashOf(checkerImage())
	require.NotEqual(t, h1, h2)
}

func TestTemporalHashOfIdenticalFramesIsZero(t *testing.T) {
	h := SpatialHashOf(checkerImage())
	require.Equal(t, uint64(0), TemporalHashOf(h, h))
}
