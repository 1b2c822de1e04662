// Package thumbnail renders a headless visual summary of a duplicate
// match group: one smart-cropped representative frame per member,
// tiled horizontally into a single PNG.
package thumbnail

import (
	"fmt"
	"image"
	"image/draw"
	"image/png"
	"os"
	"path/filepath"

	"github.com/muesli/smartcrop"
	"github.com/muesli/smartcrop/nfnt"
	"github.com/nfnt/resize"

	"github.com/Farmadupe/vid-dup-finder/internal/frames"
)

// TileSize is the width and height, in pixels, of each member's
// smart-cropped tile.
const TileSize = 256

// WriteGroup renders a tile per path in paths and writes the combined
// filmstrip PNG to filepath.Join(dir, name).
func WriteGroup(dir, name string, paths []string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("thumbnail: mkdir %s: %w", dir, err)
	}

	tiles := make([]image.Image, 0, len(paths))
	for _, p := range paths {
		tile, err := representativeTile(p)
		if err != nil {
			continue // one unreadable member shouldn't fail the whole group
		}
		tiles = append(tiles, tile)
	}
	if len(tiles) == 0 {
		return fmt.Errorf("thumbnail: no representative frames available for group %s", name)
	}

	strip := image.NewRGBA(image.Rect(0, 0, TileSize*len(tiles), TileSize))
	for i, t := range tiles {
		draw.Draw(strip, image.Rect(i*TileSize, 0, (i+1)*TileSize, TileSize), t, image.Point{}, draw.Src)
	}

	out, err := os.Create(filepath.Join(dir, name))
	if err != nil {
		return fmt.Errorf("thumbnail: create output: %w", err)
	}
	defer out.Close()

	return png.Encode(out, strip)
}

// representativeTile samples one frame from path and smart-crops it
// down to a TileSize x TileSize square, grounded on
// avbirk83-Outpost's AnalyzeFocalPoint use of
// smartcrop.NewAnalyzer(nfnt.NewDefaultResizer()).
func representativeTile(path string) (image.Image, error) {
	sampled, err := frames.Sample(path)
	if err != nil || len(sampled) == 0 {
		return nil, fmt.Errorf("thumbnail: no frames sampled from %s", path)
	}
	src := sampled[len(sampled)/2]

	analyzer := smartcrop.NewAnalyzer(nfnt.NewDefaultResizer())
	rect, err := analyzer.FindBestCrop(src, TileSize, TileSize)
	if err != nil {
		return centeredSquare(src), nil
	}

	cropped := image.NewRGBA(image.Rect(0, 0, rect.Dx(), rect.Dy()))
	draw.Draw(cropped, cropped.Bounds(), src, rect.Min, draw.Src)

	return resize.Resize(TileSize, TileSize, cropped, resize.Bilinear), nil
}

func centeredSquare(src image.Image) image.Image {
	b := src.Bounds()
	side := b.Dx()
	if b.Dy() < side {
		side = b.Dy()
	}
	ox := b.Min.X + (b.Dx()-side)/2
	oy := b.Min.Y + (b.Dy()-side)/2
	square := image.NewRGBA(image.Rect(0, 0, side, side))
	draw.Draw(square, square.Bounds(), src, image.Point{X: ox, Y: oy}, draw.Src)
	return resize.Resize(TileSize, TileSize, square, resize.Bilinear)
}
