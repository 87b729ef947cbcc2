// Package develop turns accumulated radiance samples into displayable
// images.
package develop

import (
	"bufio"
	"fmt"
	"image"
	"image/color"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"

	"row-major/lenscast/sampledb"
	"row-major/lenscast/vmath/colour"

	"github.com/disintegration/imaging"
	"github.com/nfnt/resize"
)

// Quantize maps one linear colour component to an 8-bit display value.  It
// applies a gamma of 2 and clamps out-of-range radiance.
func Quantize(v float64) uint8 {
	if !(v > 0) {
		return 0
	}
	g := math.Sqrt(v)
	if g > 0.999 {
		g = 0.999
	}
	return uint8(256 * g)
}

func toNRGBA(c colour.T) color.NRGBA {
	return color.NRGBA{Quantize(c[0]), Quantize(c[1]), Quantize(c[2]), 255}
}

// Image averages each pixel's samples.  Row 0 of the db is the top of the
// image.
func Image(db *sampledb.SampleDB) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, db.ColSize, db.RowSize))
	for r := 0; r < db.RowSize; r++ {
		for c := 0; c < db.ColSize; c++ {
			img.SetNRGBA(c, r, toNRGBA(db.ReadSample(r, c).Mean()))
		}
	}
	return img
}

// Thumbnail shrinks img to fit in maxWidth x maxHeight, keeping its aspect
// ratio.  Images that already fit are returned unchanged.
func Thumbnail(img image.Image, maxWidth, maxHeight uint) image.Image {
	return resize.Thumbnail(maxWidth, maxHeight, img, resize.Lanczos3)
}

// Save writes img to name.  The format follows the extension: ".ppm" gives a
// plain-text PPM, anything else is whatever imaging supports (png, jpeg,
// gif, tiff, bmp).
func Save(img image.Image, name string) error {
	if strings.EqualFold(filepath.Ext(name), ".ppm") {
		return savePPM(img, name)
	}

	if err := imaging.Save(img, name); err != nil {
		return fmt.Errorf("while encoding %q: %w", name, err)
	}
	return nil
}

func savePPM(img image.Image, name string) error {
	f, err := os.Create(name)
	if err != nil {
		return fmt.Errorf("while creating %q: %w", name, err)
	}

	if err := WritePPM(f, img); err != nil {
		f.Close()
		return fmt.Errorf("while writing %q: %w", name, err)
	}

	if err := f.Close(); err != nil {
		return fmt.Errorf("while closing %q: %w", name, err)
	}
	return nil
}

// WritePPM writes img as an ASCII ("P3") PPM.
func WritePPM(w io.Writer, img image.Image) error {
	bw := bufio.NewWriter(w)
	b := img.Bounds()

	fmt.Fprintf(bw, "P3\n%d %d\n255\n", b.Dx(), b.Dy())
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			c := color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA)
			fmt.Fprintf(bw, "%d %d %d\n", c.R, c.G, c.B)
		}
	}

	return bw.Flush()
}
