package bitmap

import (
	"bytes"
	"fmt"

	"github.com/FranciscoFerrutti/cripto-steganography/models"
)

const (
	Signature        = "BM"
	FileHeaderSize   = 14
	InfoHeaderSize   = 40
	BitsPerPixel     = 24
	CompressionRGB   = 0
	ChannelsPerPixel = 3

	// MaxDimension bounds width and height before any pixel buffer is allocated
	MaxDimension = 1 << 15
)

// Channel offsets inside a pixel. Components are stored blue first, the way
// 24-bit BMP lays them out on disk.
const (
	ChannelBlue = iota
	ChannelGreen
	ChannelRed
)

// FileHeader represents the 14-byte BITMAPFILEHEADER
type FileHeader struct {
	Type      [2]byte
	Size      uint32
	Reserved1 uint16
	Reserved2 uint16
	OffBits   uint32 // offset of the pixel array from the start of the file
}

// InfoHeader represents the 40-byte BITMAPINFOHEADER. Larger V4/V5 headers
// share this prefix.
type InfoHeader struct {
	Size            uint32
	Width           int32
	Height          int32 // negative for top-down bitmaps
	Planes          uint16
	BitCount        uint16
	Compression     uint32
	SizeImage       uint32
	XPixelsPerMeter int32
	YPixelsPerMeter int32
	ColorsUsed      uint32
	ColorsImportant uint32
}

// Pixel is a single 24-bit color
type Pixel struct {
	Blue  uint8
	Green uint8
	Red   uint8
}

// PixelGrid is a decoded carrier: Width*Height pixels in row-major order,
// top row first, three components per pixel in B, G, R order.
type PixelGrid struct {
	Width  int
	Height int
	Pix    []uint8
}

func NewPixelGrid(width, height int) (*PixelGrid, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: invalid dimensions %dx%d", models.ErrUnsupportedFormat, width, height)
	}
	return &PixelGrid{
		Width:  width,
		Height: height,
		Pix:    make([]uint8, width*height*ChannelsPerPixel),
	}, nil
}

// Pixels returns Width*Height
func (g *PixelGrid) Pixels() int {
	return g.Width * g.Height
}

// Components returns the number of color components, three per pixel
func (g *PixelGrid) Components() int {
	return len(g.Pix)
}

func (g *PixelGrid) offset(x, y int) int {
	return (y*g.Width + x) * ChannelsPerPixel
}

func (g *PixelGrid) At(x, y int) Pixel {
	i := g.offset(x, y)
	return Pixel{
		Blue:  g.Pix[i+ChannelBlue],
		Green: g.Pix[i+ChannelGreen],
		Red:   g.Pix[i+ChannelRed],
	}
}

func (g *PixelGrid) Set(x, y int, p Pixel) {
	i := g.offset(x, y)
	g.Pix[i+ChannelBlue] = p.Blue
	g.Pix[i+ChannelGreen] = p.Green
	g.Pix[i+ChannelRed] = p.Red
}

func (g *PixelGrid) Clone() *PixelGrid {
	pix := make([]uint8, len(g.Pix))
	copy(pix, g.Pix)
	return &PixelGrid{Width: g.Width, Height: g.Height, Pix: pix}
}

func (g *PixelGrid) Equal(other *PixelGrid) bool {
	return g.Width == other.Width && g.Height == other.Height && bytes.Equal(g.Pix, other.Pix)
}
