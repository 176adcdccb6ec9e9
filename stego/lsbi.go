package stego

import (
	"bytes"
	"fmt"

	"github.com/FranciscoFerrutti/cripto-steganography/bitmap"
	"github.com/FranciscoFerrutti/cripto-steganography/models"
	"github.com/icza/bitio"
)

const (
	// InversionMapBits is the number of leading components holding the map
	InversionMapBits = 4
	// lsbiSkippedChannel never carries payload bits
	lsbiSkippedChannel = bitmap.ChannelRed
)

// InversionMap holds one flag per 2-bit pattern class. The flag of pattern p
// is bit 3-p, so pattern 00 is the most significant bit.
type InversionMap uint8

func (m InversionMap) Inverted(pattern byte) bool {
	return (m>>(3-pattern))&1 == 1
}

func (m InversionMap) String() string {
	return fmt.Sprintf("%04b", uint8(m)&0x0F)
}

// patternOf returns the class of a component: its second and third bits.
// Embedding only rewrites bit 0, so the class survives.
func patternOf(c byte) byte {
	return (c >> 1) & 0x03
}

func lsbiCarries(i int) bool {
	return i >= InversionMapBits && i%bitmap.ChannelsPerPixel != lsbiSkippedChannel
}

// lsbiCarriers returns the indices of the first n payload components
func lsbiCarriers(grid *bitmap.PixelGrid, n int) []int {
	carriers := make([]int, 0, n)
	for i := InversionMapBits; i < grid.Components() && len(carriers) < n; i++ {
		if lsbiCarries(i) {
			carriers = append(carriers, i)
		}
	}
	return carriers
}

func bitAt(blob []byte, k int) byte {
	return (blob[k/8] >> (7 - k%8)) & 1
}

// LSBICodec hides one bit in the LSB of every green and blue component after
// the first four, flipping it for the pattern classes where that changes
// fewer carrier bits. The map is stored with plain LSB1 in components 0..3.
type LSBICodec struct{}

func NewLSBICodec() *LSBICodec {
	return &LSBICodec{}
}

func (lsbi *LSBICodec) Method() models.Method {
	return models.MethodLSBI
}

func (lsbi *LSBICodec) CapacityBits(grid *bitmap.PixelGrid) int {
	if grid.Components() <= InversionMapBits {
		return 0
	}
	reserved := 0
	for i := range InversionMapBits {
		if i%bitmap.ChannelsPerPixel != lsbiSkippedChannel {
			reserved++
		}
	}
	return grid.Pixels()*(bitmap.ChannelsPerPixel-1) - reserved
}

// ComputeInversionMap chooses, per pattern class, whether storing inverted
// bits changes fewer carrier LSBs than storing them as they are.
func ComputeInversionMap(grid *bitmap.PixelGrid, blob []byte) InversionMap {
	carriers := lsbiCarriers(grid, len(blob)*8)

	var changed, kept [4]int
	for k, i := range carriers {
		c := grid.Pix[i]
		p := patternOf(c)
		if bitAt(blob, k) != c&1 {
			changed[p]++
		} else {
			kept[p]++
		}
	}

	var m InversionMap
	for p := range 4 {
		if changed[p] > kept[p] {
			m |= 1 << (3 - p)
		}
	}
	return m
}

// ReadInversionMap reads the map from the LSBs of components 0..3
func ReadInversionMap(grid *bitmap.PixelGrid) (InversionMap, error) {
	if grid.Components() < InversionMapBits {
		return 0, fmt.Errorf("%w: carrier too small for the LSBI map", models.ErrExtraction)
	}
	var m InversionMap
	for i := range InversionMapBits {
		m = m<<1 | InversionMap(grid.Pix[i]&1)
	}
	return m, nil
}

func writeInversionMap(grid *bitmap.PixelGrid, m InversionMap) {
	for i := range InversionMapBits {
		bit := byte(m>>(InversionMapBits-1-i)) & 1
		grid.Pix[i] = (grid.Pix[i] & 0xFE) | bit
	}
}

func (lsbi *LSBICodec) Embed(grid *bitmap.PixelGrid, blob []byte) error {
	totalBits := len(blob) * 8
	if grid.Components() <= InversionMapBits {
		return &models.CapacityError{Method: models.MethodLSBI, Need: totalBits + InversionMapBits, Have: grid.Components()}
	}
	if err := Plan(models.MethodLSBI, totalBits, lsbi.CapacityBits(grid)); err != nil {
		return err
	}

	carriers := lsbiCarriers(grid, totalBits)
	m := ComputeInversionMap(grid, blob)
	writeInversionMap(grid, m)

	r := bitio.NewReader(bytes.NewReader(blob))
	for _, i := range carriers {
		bit, err := r.ReadBits(1)
		if err != nil {
			return fmt.Errorf("failed to read payload bits at component %d: %v", i, err)
		}
		c := grid.Pix[i]
		if m.Inverted(patternOf(c)) {
			bit ^= 1
		}
		grid.Pix[i] = (c & 0xFE) | byte(bit)
	}

	return nil
}

// Extract runs ReadingMap -> ReadingHeader -> ReadingBody -> Done over the
// components in embedding order.
func (lsbi *LSBICodec) Extract(grid *bitmap.PixelGrid) ([]byte, error) {
	fc := newFrameCollector(models.MethodLSBI, lsbi.CapacityBits(grid)/8, stateReadingMap)

	var m InversionMap
	for i, c := range grid.Pix {
		switch {
		case fc.state == stateReadingMap:
			m = m<<1 | InversionMap(c&1)
			if i == InversionMapBits-1 {
				fc.state = stateReadingHeader
			}
		case lsbiCarries(i):
			bit := c & 1
			if m.Inverted(patternOf(c)) {
				bit ^= 1
			}
			if err := fc.push(uint64(bit), 1); err != nil {
				return nil, err
			}
		}
		if fc.done() {
			break
		}
	}

	return fc.result()
}
