package stego

import (
	"bytes"
	"fmt"

	"github.com/FranciscoFerrutti/cripto-steganography/bitmap"
	"github.com/FranciscoFerrutti/cripto-steganography/models"
	"github.com/icza/bitio"
)

// LSBCodec stores a fixed number of payload bits in the low bits of every
// color component, in B, G, R order, row by row. Payload bytes are consumed
// most significant bits first.
type LSBCodec struct {
	method models.Method
	bits   uint8
}

// NewLSB1Codec hides one bit per component
func NewLSB1Codec() *LSBCodec {
	return &LSBCodec{method: models.MethodLSB1, bits: 1}
}

// NewLSB4Codec hides one nibble per component, high nibble first
func NewLSB4Codec() *LSBCodec {
	return &LSBCodec{method: models.MethodLSB4, bits: 4}
}

func (lsb *LSBCodec) Method() models.Method {
	return lsb.method
}

func (lsb *LSBCodec) CapacityBits(grid *bitmap.PixelGrid) int {
	return grid.Components() * int(lsb.bits)
}

func (lsb *LSBCodec) mask() byte {
	return byte((1 << lsb.bits) - 1)
}

func (lsb *LSBCodec) Embed(grid *bitmap.PixelGrid, blob []byte) error {
	totalBits := len(blob) * 8
	if err := Plan(lsb.method, totalBits, lsb.CapacityBits(grid)); err != nil {
		return err
	}

	r := bitio.NewReader(bytes.NewReader(blob))
	mask := lsb.mask()
	components := totalBits / int(lsb.bits)

	for i := range components {
		value, err := r.ReadBits(lsb.bits)
		if err != nil {
			return fmt.Errorf("failed to read payload bits at component %d: %v", i, err)
		}
		// Clear the low bits and set new ones
		grid.Pix[i] = (grid.Pix[i] & ^mask) | (byte(value) & mask)
	}

	return nil
}

func (lsb *LSBCodec) Extract(grid *bitmap.PixelGrid) ([]byte, error) {
	fc := newFrameCollector(lsb.method, lsb.CapacityBits(grid)/8, stateReadingHeader)
	mask := lsb.mask()

	for _, c := range grid.Pix {
		if err := fc.push(uint64(c&mask), lsb.bits); err != nil {
			return nil, err
		}
		if fc.done() {
			break
		}
	}

	return fc.result()
}
