// Package dcthash computes perceptual spatial hashes of individual video
// frames using a 2-D DCT, and the XOR-delta temporal hash between
// consecutive frames' spatial hashes.
package dcthash

import (
	"image"
	"image/color"
	"math"

	"github.com/nfnt/resize"
)

const (
	// ResizeX/ResizeY is the working resolution a sampled frame is
	// downscaled to before the DCT is taken.
	ResizeX = 32
	ResizeY = 32

	// HashX/HashY is the size of the low-frequency DCT corner kept as
	// the perceptual hash, giving HashX*HashY/64 = 1 uint64 word.
	HashX = 8
	HashY = 8
)

// SpatialHashOf reduces a single sampled frame to one 64-bit perceptual
// hash word, computed from the sign of each of the 63 lowest-frequency
// 2-D DCT coefficients (the 8x8 corner minus the DC term) relative to
// their mean. Bit 63 is always zero.
func SpatialHashOf(img image.Image) uint64 {
	small := resize.Resize(ResizeX, ResizeY, img, resize.Bilinear)

	gray := make([][]float64, ResizeY)
	for y := 0; y < ResizeY; y++ {
		gray[y] = make([]float64, ResizeX)
		for x := 0; x < ResizeX; x++ {
			c := color.GrayModel.Convert(small.At(small.Bounds().Min.X+x, small.Bounds().Min.Y+y)).(color.Gray)
			gray[y][x] = float64(c.Y)
		}
	}

	coeffs := dct2D(gray)

	// flatten the top-left HashX*HashY block (skip the DC coefficient
	// at [0][0]) and hash on sign relative to the mean of the rest.
	vals := make([]float64, 0, HashX*HashY-1)
	for y := 0; y < HashY; y++ {
		for x := 0; x < HashX; x++ {
			if x == 0 && y == 0 {
				continue
			}
			vals = append(vals, coeffs[y][x])
		}
	}

	mean := 0.0
	for _, v := range vals {
		mean += v
	}
	mean /= float64(len(vals))

	var hash uint64
	for i, v := range vals {
		if v > mean {
			hash |= 1 << uint(i)
		}
	}
	return hash
}

// dct2D computes a naive 2-D DCT-II over a square matrix. There is no
// third-party 2-D DCT implementation anywhere in the retrieval pack, so
// this one numeric kernel is hand-rolled; see DESIGN.md.
func dct2D(in [][]float64) [][]float64 {
	n := len(in)
	out := make([][]float64, n)
	for i := range out {
		out[i] = make([]float64, n)
	}

	// precompute cosine table
	cosTab := make([][]float64, n)
	for i := range cosTab {
		cosTab[i] = make([]float64, n)
		for j := range cosTab[i] {
			cosTab[i][j] = math.Cos(math.Pi / float64(n) * (float64(j) + 0.5) * float64(i))
		}
	}

	for u := 0; u < n; u++ {
		for v := 0; v < n; v++ {
			sum := 0.0
			for x := 0; x < n; x++ {
				for y := 0; y < n; y++ {
					sum += in[x][y] * cosTab[u][x] * cosTab[v][y]
				}
			}
			cu := alpha(u, n)
			cv := alpha(v, n)
			out[u][v] = 0.25 * cu * cv * sum
		}
	}
	return out
}

func alpha(u, n int) float64 {
	if u == 0 {
		return 1.0 / math.Sqrt2
	}
	_ = n
	return 1.0
}

// TemporalHashOf XORs two consecutive spatial hash words, yielding the
// bits that changed between frames.
func TemporalHashOf(a, b uint64) uint64 {
	return a ^ b
}
