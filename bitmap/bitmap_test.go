package bitmap

import (
	"bytes"
	"encoding/binary"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/FranciscoFerrutti/cripto-steganography/models"
)

func makeTestGrid(t testing.TB, w, h int) *PixelGrid {
	t.Helper()
	grid, err := NewPixelGrid(w, h)
	if err != nil {
		t.Fatalf("NewPixelGrid: %v", err)
	}
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			grid.Set(x, y, Pixel{
				Red:   uint8((x * 17) ^ (y * 31)),
				Green: uint8((x * 43) + (y * 13)),
				Blue:  uint8((x * 7) ^ (y * 11)),
			})
		}
	}
	return grid
}

func rawHeader(t *testing.T, bitCount uint16, compression uint32, width, height int32) []byte {
	t.Helper()
	var buf bytes.Buffer
	fh := FileHeader{Type: [2]byte{'B', 'M'}, Size: 54, OffBits: 54}
	ih := InfoHeader{
		Size:        InfoHeaderSize,
		Width:       width,
		Height:      height,
		Planes:      1,
		BitCount:    bitCount,
		Compression: compression,
	}
	if err := binary.Write(&buf, binary.LittleEndian, fh); err != nil {
		t.Fatalf("write file header: %v", err)
	}
	if err := binary.Write(&buf, binary.LittleEndian, ih); err != nil {
		t.Fatalf("write info header: %v", err)
	}
	return buf.Bytes()
}

func TestNewPixelGrid_InvalidDimensions(t *testing.T) {
	for _, dims := range [][2]int{{0, 1}, {1, 0}, {-3, 4}} {
		if _, err := NewPixelGrid(dims[0], dims[1]); !errors.Is(err, models.ErrUnsupportedFormat) {
			t.Fatalf("NewPixelGrid(%d, %d): expected ErrUnsupportedFormat, got %v", dims[0], dims[1], err)
		}
	}
}

func TestPixelGrid_ComponentOrder(t *testing.T) {
	grid, err := NewPixelGrid(2, 1)
	if err != nil {
		t.Fatalf("NewPixelGrid: %v", err)
	}
	grid.Set(1, 0, Pixel{Blue: 1, Green: 2, Red: 3})

	want := []uint8{0, 0, 0, 1, 2, 3}
	if !bytes.Equal(grid.Pix, want) {
		t.Fatalf("Pix = %v, want %v", grid.Pix, want)
	}
}

func TestEncodeDecode_RoundTrip(t *testing.T) {
	for _, tc := range []struct {
		name string
		w, h int
	}{
		{name: "aligned_rows", w: 8, h: 4},
		{name: "padded_rows", w: 5, h: 3},
		{name: "single_pixel", w: 1, h: 1},
	} {
		t.Run(tc.name, func(t *testing.T) {
			src := makeTestGrid(t, tc.w, tc.h)

			data, err := EncodeBytes(src)
			if err != nil {
				t.Fatalf("EncodeBytes: %v", err)
			}

			_, ih, err := ReadHeaders(bytes.NewReader(data))
			if err != nil {
				t.Fatalf("ReadHeaders: %v", err)
			}
			if ih.BitCount != BitsPerPixel {
				t.Fatalf("encoded %d bits per pixel, want %d", ih.BitCount, BitsPerPixel)
			}

			got, err := DecodeBytes(data)
			if err != nil {
				t.Fatalf("DecodeBytes: %v", err)
			}
			if !got.Equal(src) {
				t.Fatalf("decoded grid differs from source")
			}
		})
	}
}

func TestSaveLoad(t *testing.T) {
	src := makeTestGrid(t, 7, 6)
	path := filepath.Join(t.TempDir(), "carrier.bmp")

	if err := Save(path, src); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !got.Equal(src) {
		t.Fatalf("loaded grid differs from saved grid")
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.bmp"))
	if !errors.Is(err, models.ErrIO) {
		t.Fatalf("expected ErrIO, got %v", err)
	}
}

func TestDecode_RejectsUnsupported(t *testing.T) {
	for _, tc := range []struct {
		name string
		data []byte
	}{
		{name: "32_bit", data: rawHeader(t, 32, CompressionRGB, 2, 2)},
		{name: "8_bit", data: rawHeader(t, 8, CompressionRGB, 2, 2)},
		{name: "rle_compressed", data: rawHeader(t, 24, 1, 2, 2)},
		{name: "zero_width", data: rawHeader(t, 24, CompressionRGB, 0, 2)},
		{name: "bad_signature", data: append([]byte("PK"), rawHeader(t, 24, CompressionRGB, 2, 2)[2:]...)},
		{name: "truncated", data: []byte("BM\x00\x00")},
		{name: "pixels_missing", data: append(rawHeader(t, 24, CompressionRGB, 8000, 8000), 1, 2, 3, 4)},
		{name: "top_down_pixels_missing", data: append(rawHeader(t, 24, CompressionRGB, 4, -4000), 1, 2, 3, 4)},
		{name: "short_last_row", data: append(rawHeader(t, 24, CompressionRGB, 2, 2), make([]byte, 14)...)},
		{name: "oversized_dimensions", data: rawHeader(t, 24, CompressionRGB, 1<<30, 1<<30)},
	} {
		t.Run(tc.name, func(t *testing.T) {
			_, err := DecodeBytes(tc.data)
			if !errors.Is(err, models.ErrUnsupportedFormat) {
				t.Fatalf("expected ErrUnsupportedFormat, got %v", err)
			}
		})
	}
}

func TestDecode_ReadsFromFileHandle(t *testing.T) {
	src := makeTestGrid(t, 3, 3)
	path := filepath.Join(t.TempDir(), "carrier.bmp")
	if err := Save(path, src); err != nil {
		t.Fatalf("Save: %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer f.Close()

	got, err := Decode(f)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if got.Width != 3 || got.Height != 3 {
		t.Fatalf("dimensions = %dx%d, want 3x3", got.Width, got.Height)
	}
}

func TestDecode_TopDownRowOrder(t *testing.T) {
	rowsTopFirst := [][]byte{
		{10, 20, 30, 40, 50, 60, 0, 0},
		{70, 80, 90, 100, 110, 120, 0, 0},
	}
	build := func(height int32, rows ...[]byte) []byte {
		data := rawHeader(t, 24, CompressionRGB, 2, height)
		for _, row := range rows {
			data = append(data, row...)
		}
		binary.LittleEndian.PutUint32(data[2:], uint32(len(data)))
		return data
	}

	topDown, err := DecodeBytes(build(-2, rowsTopFirst[0], rowsTopFirst[1]))
	if err != nil {
		t.Fatalf("DecodeBytes(top-down): %v", err)
	}
	if topDown.Width != 2 || topDown.Height != 2 {
		t.Fatalf("dimensions = %dx%d, want 2x2", topDown.Width, topDown.Height)
	}
	for _, tc := range []struct {
		x, y int
		want Pixel
	}{
		{0, 0, Pixel{Blue: 10, Green: 20, Red: 30}},
		{1, 0, Pixel{Blue: 40, Green: 50, Red: 60}},
		{0, 1, Pixel{Blue: 70, Green: 80, Red: 90}},
		{1, 1, Pixel{Blue: 100, Green: 110, Red: 120}},
	} {
		if got := topDown.At(tc.x, tc.y); got != tc.want {
			t.Fatalf("At(%d, %d) = %+v, want %+v", tc.x, tc.y, got, tc.want)
		}
	}

	bottomUp, err := DecodeBytes(build(2, rowsTopFirst[1], rowsTopFirst[0]))
	if err != nil {
		t.Fatalf("DecodeBytes(bottom-up): %v", err)
	}
	if !bottomUp.Equal(topDown) {
		t.Fatalf("bottom-up and top-down encodings of the same image decode differently")
	}
}
