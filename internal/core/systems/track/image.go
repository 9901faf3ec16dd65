package track

import (
	"fmt"
	"image"
	"image/color"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"os"

	_ "golang.org/x/image/bmp"
)

// Decode reads a track image. Pixel (x, y) becomes cell [y][x]; white pixels
// are free and anything else is occupied.
func Decode(r io.Reader, granularity float64) (*Track, error) {
	img, _, err := image.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("%w: decoding image: %v", ErrTrackFormat, err)
	}
	return FromImage(img, granularity)
}

// Load opens and decodes a track image file.
func Load(path string, granularity float64) (*Track, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening track %q: %w", path, err)
	}
	defer f.Close()

	t, err := Decode(f, granularity)
	if err != nil {
		return nil, fmt.Errorf("track %q: %w", path, err)
	}
	return t, nil
}

// FromImage thresholds an already decoded image.
func FromImage(img image.Image, granularity float64) (*Track, error) {
	b := img.Bounds()
	cells := make([][]uint8, b.Dy())
	for y := b.Min.Y; y < b.Max.Y; y++ {
		row := make([]uint8, b.Dx())
		for x := b.Min.X; x < b.Max.X; x++ {
			if !isWhite(img.At(x, y)) {
				row[x-b.Min.X] = 1
			}
		}
		cells[y-b.Min.Y] = row
	}
	return New(cells, granularity)
}

func isWhite(c color.Color) bool {
	r, g, b, _ := c.RGBA()
	return r == 0xffff && g == 0xffff && b == 0xffff
}
