package bitmap

import (
	"bytes"
	"fmt"
	"image"
	"io"
	"os"

	"github.com/FranciscoFerrutti/cripto-steganography/models"
	"golang.org/x/image/bmp"
)

// ToImage converts the grid into an opaque RGBA image. Opaque images are
// written by the bmp encoder as 24 bits per pixel.
func (g *PixelGrid) ToImage() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, g.Width, g.Height))
	for y := range g.Height {
		row := img.Pix[img.PixOffset(0, y):]
		for x := range g.Width {
			p := g.At(x, y)
			row[x*4] = p.Red
			row[x*4+1] = p.Green
			row[x*4+2] = p.Blue
			row[x*4+3] = 0xFF
		}
	}
	return img
}

func Encode(w io.Writer, grid *PixelGrid) error {
	if err := bmp.Encode(w, grid.ToImage()); err != nil {
		return fmt.Errorf("%w: failed to encode BMP: %v", models.ErrIO, err)
	}
	return nil
}

func EncodeBytes(grid *PixelGrid) ([]byte, error) {
	var buf bytes.Buffer
	if err := Encode(&buf, grid); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Save writes the grid to path as a 24-bit BMP
func Save(path string, grid *PixelGrid) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("%w: could not create %s: %v", models.ErrIO, path, err)
	}

	if err := Encode(f, grid); err != nil {
		f.Close()
		return err
	}

	if err := f.Close(); err != nil {
		return fmt.Errorf("%w: failed to close %s: %v", models.ErrIO, path, err)
	}
	return nil
}
