package crypto

import (
	"bytes"
	"crypto/cipher"
	"fmt"

	"github.com/FranciscoFerrutti/cripto-steganography/models"
)

func pkcs7Pad(data []byte, blockSize int) []byte {
	n := blockSize - len(data)%blockSize
	return append(bytes.Clone(data), bytes.Repeat([]byte{byte(n)}, n)...)
}

func pkcs7Unpad(data []byte, blockSize int) ([]byte, error) {
	if len(data) == 0 || len(data)%blockSize != 0 {
		return nil, fmt.Errorf("%w: bad decrypt: invalid padded length %d", models.ErrCrypto, len(data))
	}
	n := int(data[len(data)-1])
	if n == 0 || n > blockSize {
		return nil, fmt.Errorf("%w: bad decrypt: invalid padding", models.ErrCrypto)
	}
	for _, b := range data[len(data)-n:] {
		if int(b) != n {
			return nil, fmt.Errorf("%w: bad decrypt: invalid padding", models.ErrCrypto)
		}
	}
	return data[:len(data)-n], nil
}

// ecbCrypt applies fn to every block independently. len(src) must be a
// multiple of blockSize.
func ecbCrypt(dst, src []byte, blockSize int, fn func(dst, src []byte)) {
	for i := 0; i < len(src); i += blockSize {
		fn(dst[i:i+blockSize], src[i:i+blockSize])
	}
}

// cfb8 is CFB with 8 bits of feedback: each byte is XORed with the first
// byte of E(register), then shifted into the register as ciphertext.
type cfb8 struct {
	block    cipher.Block
	register []byte
	out      []byte
	decrypt  bool
}

func newCFB8(block cipher.Block, iv []byte, decrypt bool) cipher.Stream {
	return &cfb8{
		block:    block,
		register: bytes.Clone(iv),
		out:      make([]byte, block.BlockSize()),
		decrypt:  decrypt,
	}
}

func (c *cfb8) XORKeyStream(dst, src []byte) {
	if len(dst) < len(src) {
		panic("crypto: cfb8 output smaller than input")
	}
	last := len(c.register) - 1
	for i, in := range src {
		c.block.Encrypt(c.out, c.register)
		o := in ^ c.out[0]
		copy(c.register, c.register[1:])
		if c.decrypt {
			c.register[last] = in
		} else {
			c.register[last] = o
		}
		dst[i] = o
	}
}
