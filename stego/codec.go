// Package stego hides framed payloads in the low bits of a pixel grid
package stego

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/FranciscoFerrutti/cripto-steganography/bitmap"
	"github.com/FranciscoFerrutti/cripto-steganography/models"
	"github.com/FranciscoFerrutti/cripto-steganography/payload"
	"github.com/icza/bitio"
)

// Codec embeds and extracts a length-prefixed blob. Embed mutates the grid in
// place and never touches it when the blob does not fit.
type Codec interface {
	Method() models.Method
	CapacityBits(grid *bitmap.PixelGrid) int
	Embed(grid *bitmap.PixelGrid, blob []byte) error
	Extract(grid *bitmap.PixelGrid) ([]byte, error)
}

func NewCodec(method models.Method) (Codec, error) {
	switch method {
	case models.MethodLSB1:
		return NewLSB1Codec(), nil
	case models.MethodLSB4:
		return NewLSB4Codec(), nil
	case models.MethodLSBI:
		return NewLSBICodec(), nil
	}
	return nil, fmt.Errorf("%w: unknown steganography method %q", models.ErrInvalidArguments, method)
}

type extractState int

const (
	stateReadingMap extractState = iota
	stateReadingHeader
	stateReadingBody
	stateDone
)

func (s extractState) String() string {
	switch s {
	case stateReadingMap:
		return "reading map"
	case stateReadingHeader:
		return "reading header"
	case stateReadingBody:
		return "reading body"
	case stateDone:
		return "done"
	}
	return fmt.Sprintf("extractState(%d)", int(s))
}

// frameCollector packs extracted bits MSB-first and stops once the
// big-endian length header and the bytes it announces have been collected.
// The announced length is checked against the carrier capacity before any
// body byte is trusted.
type frameCollector struct {
	method models.Method
	buf    *bytes.Buffer
	w      *bitio.Writer
	limit  int
	want   int
	state  extractState
}

func newFrameCollector(method models.Method, limit int, initial extractState) *frameCollector {
	if limit < 0 {
		limit = 0
	}
	buf := bytes.NewBuffer(make([]byte, 0, limit))
	return &frameCollector{
		method: method,
		buf:    buf,
		w:      bitio.NewWriter(buf),
		limit:  limit,
		state:  initial,
	}
}

// push appends the n low bits of value. n must divide 8.
func (fc *frameCollector) push(value uint64, n uint8) error {
	if fc.state != stateReadingHeader && fc.state != stateReadingBody {
		return fmt.Errorf("%w: unexpected bits while %s", models.ErrExtraction, fc.state)
	}
	if err := fc.w.WriteBits(value, n); err != nil {
		return fmt.Errorf("%w: %v", models.ErrExtraction, err)
	}

	if fc.state == stateReadingHeader {
		if fc.buf.Len() < payload.LengthBytes {
			return nil
		}
		length := binary.BigEndian.Uint32(fc.buf.Bytes())
		if uint64(payload.LengthBytes)+uint64(length) > uint64(fc.limit) {
			return fmt.Errorf("%w: %s header announces %d bytes but the carrier holds at most %d",
				models.ErrExtraction, fc.method, length, max(fc.limit-payload.LengthBytes, 0))
		}
		fc.want = payload.LengthBytes + int(length)
		fc.state = stateReadingBody
	}

	if fc.buf.Len() >= fc.want {
		fc.state = stateDone
	}
	return nil
}

func (fc *frameCollector) done() bool {
	return fc.state == stateDone
}

func (fc *frameCollector) result() ([]byte, error) {
	if !fc.done() {
		return nil, fmt.Errorf("%w: %s carrier exhausted while %s after %d bytes",
			models.ErrExtraction, fc.method, fc.state, fc.buf.Len())
	}
	return fc.buf.Bytes()[:fc.want], nil
}
