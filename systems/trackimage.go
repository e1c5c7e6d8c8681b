package systems

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

var (
	errNilImage   = errors.New("image is nil")
	errEmptyImage = errors.New("image has no pixels")
)

// InvalidImageError reports a track image that cannot be decoded or sampled.
type InvalidImageError struct {
	Path string // empty for in-memory images
	Err  error
}

func (e *InvalidImageError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("invalid track image: %v", e.Err)
	}
	return fmt.Sprintf("invalid track image %q: %v", e.Path, e.Err)
}

func (e *InvalidImageError) Unwrap() error {
	return e.Err
}

// WallRule decides whether an averaged cell color is a wall.
// Sum is r+g+b of the 8-bit channel averages (0..765).
type WallRule struct {
	Threshold int
	Invert    bool
}

// IsWall applies the rule to an RGB sum.
func (r WallRule) IsWall(sum int) bool {
	if r.Invert {
		return sum < r.Threshold
	}
	return sum >= r.Threshold
}

// LoadTrackImage decodes a PNG, JPEG, GIF, BMP, TIFF or WebP file.
func LoadTrackImage(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &InvalidImageError{Path: path, Err: err}
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, &InvalidImageError{Path: path, Err: err}
	}
	return img, nil
}

// LoadGrid decodes a track image and builds its occupancy grid.
func LoadGrid(path string, size int, rule WallRule) (*Grid, error) {
	img, err := LoadTrackImage(path)
	if err != nil {
		return nil, err
	}
	grid, err := BuildGrid(img, size, rule)
	if err != nil {
		var invalid *InvalidImageError
		if errors.As(err, &invalid) {
			invalid.Path = path
		}
		return nil, err
	}
	return grid, nil
}

// BuildGrid down-samples an image into a size×size grid. Each cell averages the
// pixels of its image region; images smaller than the grid sample at least one pixel per cell.
func BuildGrid(img image.Image, size int, rule WallRule) (*Grid, error) {
	if size <= 0 {
		return nil, fmt.Errorf("build grid: size must be positive, got %d", size)
	}
	if img == nil {
		return nil, &InvalidImageError{Err: errNilImage}
	}
	b := img.Bounds()
	if b.Empty() {
		return nil, &InvalidImageError{Err: errEmptyImage}
	}

	g := &Grid{
		cells: make([]bool, size*size),
		size:  size,
	}
	w, h := b.Dx(), b.Dy()

	for cy := 0; cy < size; cy++ {
		y0, y1 := cellSpan(b.Min.Y, h, cy, size)
		for cx := 0; cx < size; cx++ {
			x0, x1 := cellSpan(b.Min.X, w, cx, size)

			var r, gr, bl, n int
			for py := y0; py < y1; py++ {
				for px := x0; px < x1; px++ {
					c := color.NRGBAModel.Convert(img.At(px, py)).(color.NRGBA)
					r += int(c.R)
					gr += int(c.G)
					bl += int(c.B)
					n++
				}
			}
			sum := r/n + gr/n + bl/n
			g.cells[cy*size+cx] = rule.IsWall(sum)
		}
	}

	return g, nil
}

// cellSpan returns the pixel range [lo, hi) covered by cell i along one axis.
func cellSpan(origin, extent, i, size int) (lo, hi int) {
	lo = origin + i*extent/size
	hi = origin + (i+1)*extent/size
	if hi <= lo {
		hi = lo + 1
	}
	if hi > origin+extent {
		hi = origin + extent
		lo = hi - 1
	}
	return lo, hi
}
