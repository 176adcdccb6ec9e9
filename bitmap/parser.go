// Package bitmap reads and writes 24-bit uncompressed BMP carriers
package bitmap

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"image"
	"image/color"
	"io"
	"os"

	"github.com/FranciscoFerrutti/cripto-steganography/models"
	"golang.org/x/image/bmp"
)

// ReadHeaders reads the file and info headers from the start of a BMP stream
func ReadHeaders(r io.Reader) (*FileHeader, *InfoHeader, error) {
	fh := &FileHeader{}
	if err := binary.Read(r, binary.LittleEndian, fh); err != nil {
		return nil, nil, fmt.Errorf("%w: failed to read file header: %v", models.ErrUnsupportedFormat, err)
	}
	if string(fh.Type[:]) != Signature {
		return nil, nil, fmt.Errorf("%w: invalid signature %q", models.ErrUnsupportedFormat, fh.Type[:])
	}

	ih := &InfoHeader{}
	if err := binary.Read(r, binary.LittleEndian, ih); err != nil {
		return nil, nil, fmt.Errorf("%w: failed to read info header: %v", models.ErrUnsupportedFormat, err)
	}

	return fh, ih, nil
}

// ValidateHeaders rejects anything but uncompressed 24-bit bitmaps
func ValidateHeaders(fh *FileHeader, ih *InfoHeader) error {
	if ih.Size < InfoHeaderSize {
		return fmt.Errorf("%w: unsupported info header size %d", models.ErrUnsupportedFormat, ih.Size)
	}
	if ih.BitCount != BitsPerPixel {
		return fmt.Errorf("%w: %d bits per pixel, only %d is supported", models.ErrUnsupportedFormat, ih.BitCount, BitsPerPixel)
	}
	if ih.Compression != CompressionRGB {
		return fmt.Errorf("%w: compressed bitmaps are not supported (compression %d)", models.ErrUnsupportedFormat, ih.Compression)
	}
	if ih.Width <= 0 || ih.Height == 0 {
		return fmt.Errorf("%w: invalid dimensions %dx%d", models.ErrUnsupportedFormat, ih.Width, ih.Height)
	}
	if ih.Width > MaxDimension || rows(ih) > MaxDimension {
		return fmt.Errorf("%w: dimensions %dx%d exceed %d", models.ErrUnsupportedFormat, ih.Width, ih.Height, MaxDimension)
	}
	if fh.OffBits < FileHeaderSize+ih.Size {
		return fmt.Errorf("%w: pixel array offset %d overlaps headers", models.ErrUnsupportedFormat, fh.OffBits)
	}
	return nil
}

// rows returns the absolute height, top-down bitmaps store it negated
func rows(ih *InfoHeader) int64 {
	h := int64(ih.Height)
	if h < 0 {
		return -h
	}
	return h
}

// stride returns the size of one pixel row on disk, padded to 4 bytes
func stride(width int32) int64 {
	return (int64(width)*ChannelsPerPixel + 3) &^ 3
}

// checkPixelArray makes sure the pixel array announced by the headers is
// present in full before the decoder allocates for it.
func checkPixelArray(fh *FileHeader, ih *InfoHeader, size int) error {
	need := int64(fh.OffBits) + stride(ih.Width)*rows(ih)
	if need > int64(size) {
		return fmt.Errorf("%w: %dx%d pixel array needs %d bytes, file has %d",
			models.ErrUnsupportedFormat, ih.Width, ih.Height, need, size)
	}
	return nil
}

// DecodeBytes validates and decodes an in-memory BMP
func DecodeBytes(data []byte) (*PixelGrid, error) {
	fh, ih, err := ReadHeaders(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	if err := ValidateHeaders(fh, ih); err != nil {
		return nil, err
	}
	if err := checkPixelArray(fh, ih, len(data)); err != nil {
		return nil, err
	}

	img, err := bmp.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to decode BMP: %v", models.ErrUnsupportedFormat, err)
	}

	return gridFromImage(img)
}

func Decode(r io.Reader) (*PixelGrid, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read BMP: %v", models.ErrIO, err)
	}
	return DecodeBytes(data)
}

// Load opens and decodes the BMP at path
func Load(path string) (*PixelGrid, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: could not open %s: %v", models.ErrIO, path, err)
	}
	defer f.Close()

	return Decode(f)
}

func gridFromImage(img image.Image) (*PixelGrid, error) {
	b := img.Bounds()
	grid, err := NewPixelGrid(b.Dx(), b.Dy())
	if err != nil {
		return nil, err
	}

	// 24-bit bitmaps decode to *image.RGBA
	if rgba, ok := img.(*image.RGBA); ok {
		for y := range grid.Height {
			row := rgba.Pix[rgba.PixOffset(b.Min.X, b.Min.Y+y):]
			for x := range grid.Width {
				grid.Set(x, y, Pixel{Red: row[x*4], Green: row[x*4+1], Blue: row[x*4+2]})
			}
		}
		return grid, nil
	}

	for y := range grid.Height {
		for x := range grid.Width {
			c := color.RGBAModel.Convert(img.At(b.Min.X+x, b.Min.Y+y)).(color.RGBA)
			grid.Set(x, y, Pixel{Red: c.R, Green: c.G, Blue: c.B})
		}
	}
	return grid, nil
}
