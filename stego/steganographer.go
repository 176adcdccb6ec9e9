package stego

import (
	"fmt"

	"github.com/FranciscoFerrutti/cripto-steganography/bitmap"
	"github.com/FranciscoFerrutti/cripto-steganography/crypto"
	"github.com/FranciscoFerrutti/cripto-steganography/models"
	"github.com/FranciscoFerrutti/cripto-steganography/payload"
	"github.com/FranciscoFerrutti/cripto-steganography/quality"
)

// Steganographer ties the framer, the optional block cipher and a codec
// together for one method and one set of cipher options.
type Steganographer struct {
	config *models.StegoConfig
	codec  Codec
	block  *crypto.BlockCipher
	cipher payload.Cipher
}

// EmbedResult describes a successful embedding. Grid is a new grid, the
// carrier passed to Embed is left untouched.
type EmbedResult struct {
	Grid          *bitmap.PixelGrid
	Method        models.Method
	FramedBytes   int
	CapacityBytes int
	Quality       quality.Report
}

func NewSteganographer(config *models.StegoConfig) (*Steganographer, error) {
	if config == nil {
		return nil, fmt.Errorf("%w: no steganography configuration", models.ErrInvalidArguments)
	}

	codec, err := NewCodec(config.Method)
	if err != nil {
		return nil, err
	}

	s := &Steganographer{config: config, codec: codec}
	if config.Cipher != nil {
		block, err := crypto.NewBlockCipher(config.Cipher)
		if err != nil {
			return nil, err
		}
		s.block = block
		s.cipher = block
	}
	return s, nil
}

func (s *Steganographer) Method() models.Method {
	return s.codec.Method()
}

// Encrypted reports whether payloads go through a block cipher
func (s *Steganographer) Encrypted() bool {
	return s.block != nil
}

// CalculateCapacity returns how many framed bytes fit in the grid
func (s *Steganographer) CalculateCapacity(grid *bitmap.PixelGrid) int {
	return s.codec.CapacityBits(grid) / 8
}

// MaxSecretLength returns the largest secret, in bytes, that fits in the grid
// once framed with ext and, if configured, encrypted. It is 0 when not even
// an empty secret fits.
func (s *Steganographer) MaxSecretLength(grid *bitmap.PixelGrid, ext string) int {
	capacity := s.CalculateCapacity(grid)
	overhead := payload.LengthBytes + len(ext) + 1

	var n int
	switch {
	case s.block == nil:
		n = capacity - overhead
	case s.block.Spec().Padded():
		// PKCS#7 always adds at least one byte
		bs := s.block.Spec().BlockSize
		ciphertext := (capacity - payload.LengthBytes) / bs * bs
		n = ciphertext - 1 - overhead
	default:
		n = capacity - payload.LengthBytes - overhead
	}
	return max(n, 0)
}

// Embed frames data under the extension of filename and hides it in a copy of
// grid.
func (s *Steganographer) Embed(grid *bitmap.PixelGrid, data []byte, filename string) (*EmbedResult, error) {
	blob, err := payload.Frame(data, payload.ExtensionOf(filename), s.cipher)
	if err != nil {
		return nil, err
	}
	return s.embedBlob(grid, blob)
}

// EmbedFile reads the secret from path and embeds it with the file's extension
func (s *Steganographer) EmbedFile(grid *bitmap.PixelGrid, path string) (*EmbedResult, error) {
	blob, err := payload.FrameFile(path, s.cipher)
	if err != nil {
		return nil, err
	}
	return s.embedBlob(grid, blob)
}

func (s *Steganographer) embedBlob(grid *bitmap.PixelGrid, blob []byte) (*EmbedResult, error) {
	capacity := s.CalculateCapacity(grid)
	if err := Plan(s.codec.Method(), len(blob)*8, s.codec.CapacityBits(grid)); err != nil {
		return nil, err
	}

	stegoGrid := grid.Clone()
	if err := s.codec.Embed(stegoGrid, blob); err != nil {
		return nil, err
	}

	report, err := quality.Compare(grid, stegoGrid)
	if err != nil {
		return nil, err
	}

	return &EmbedResult{
		Grid:          stegoGrid,
		Method:        s.codec.Method(),
		FramedBytes:   len(blob),
		CapacityBytes: capacity,
		Quality:       report,
	}, nil
}

// Extract recovers the secret and its extension from a stego grid
func (s *Steganographer) Extract(grid *bitmap.PixelGrid) ([]byte, string, error) {
	blob, err := s.codec.Extract(grid)
	if err != nil {
		return nil, "", err
	}
	return payload.Unframe(blob, s.cipher)
}
