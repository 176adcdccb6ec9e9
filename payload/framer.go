// Package payload builds and parses the length-prefixed blob hidden in a carrier.
//
// Layout, big-endian:
//
//	[u32 n][raw bytes][extension][0x00]        n = len(raw) + len(extension) + 1
//
// and, when a cipher is used, the whole structure above is encrypted and
// prefixed again:
//
//	[u32 len(ciphertext)][ciphertext]
package payload

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/FranciscoFerrutti/cripto-steganography/models"
)

const (
	LengthBytes      = 4
	Terminator       = 0x00
	DefaultExtension = ".txt"
)

// Cipher is the encryption collaborator used by Frame and Unframe
type Cipher interface {
	Encrypt(plaintext []byte) ([]byte, error)
	Decrypt(ciphertext []byte) ([]byte, error)
}

// ExtensionOf returns the extension of the file name, including the dot, or
// DefaultExtension when it has none.
func ExtensionOf(filename string) string {
	ext := filepath.Ext(filepath.Base(filename))
	if ext == "" {
		return DefaultExtension
	}
	return ext
}

func validateExtension(ext string) error {
	if !strings.HasPrefix(ext, ".") {
		return fmt.Errorf("%w: extension %q must start with '.'", models.ErrFraming, ext)
	}
	if strings.ContainsAny(ext[1:], "./\\\x00") {
		return fmt.Errorf("%w: extension %q contains a reserved character", models.ErrFraming, ext)
	}
	return nil
}

func appendLength(dst []byte, n int) ([]byte, error) {
	if uint64(n) > math.MaxUint32 {
		return nil, fmt.Errorf("%w: %d bytes do not fit a 32-bit length header", models.ErrFraming, n)
	}
	return binary.BigEndian.AppendUint32(dst, uint32(n)), nil
}

// Frame builds the blob for raw and ext, encrypting it when c is not nil
func Frame(raw []byte, ext string, c Cipher) ([]byte, error) {
	if err := validateExtension(ext); err != nil {
		return nil, err
	}

	innerLen := len(raw) + len(ext) + 1
	inner := make([]byte, 0, LengthBytes+innerLen)
	inner, err := appendLength(inner, innerLen)
	if err != nil {
		return nil, err
	}
	inner = append(inner, raw...)
	inner = append(inner, ext...)
	inner = append(inner, Terminator)

	if c == nil {
		return inner, nil
	}

	ciphertext, err := c.Encrypt(inner)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to encrypt payload: %v", models.ErrCrypto, err)
	}

	outer := make([]byte, 0, LengthBytes+len(ciphertext))
	outer, err = appendLength(outer, len(ciphertext))
	if err != nil {
		return nil, err
	}
	return append(outer, ciphertext...), nil
}

// FrameFile reads the file at path and frames it with the file's extension
func FrameFile(path string, c Cipher) ([]byte, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: could not read message file %s: %v", models.ErrIO, path, err)
	}
	return Frame(raw, ExtensionOf(path), c)
}

// readSection returns the n bytes announced by the u32 header at the start of
// blob. Trailing bytes after the section are ignored.
func readSection(blob []byte, what string) ([]byte, error) {
	if len(blob) < LengthBytes {
		return nil, fmt.Errorf("%w: %s header truncated (%d bytes)", models.ErrFraming, what, len(blob))
	}
	n := binary.BigEndian.Uint32(blob)
	rest := blob[LengthBytes:]
	if uint64(n) > uint64(len(rest)) {
		return nil, fmt.Errorf("%w: %s length %d exceeds the %d bytes available", models.ErrFraming, what, n, len(rest))
	}
	return rest[:n], nil
}

// Unframe parses a blob produced by Frame. c must be non-nil exactly when the
// blob was framed with a cipher.
func Unframe(blob []byte, c Cipher) ([]byte, string, error) {
	body, err := readSection(blob, "payload")
	if err != nil {
		return nil, "", err
	}

	inner := body
	if c != nil {
		plaintext, err := c.Decrypt(body)
		if err != nil {
			return nil, "", fmt.Errorf("%w: failed to decrypt payload: %v", models.ErrCrypto, err)
		}
		if inner, err = readSection(plaintext, "decrypted payload"); err != nil {
			return nil, "", err
		}
	}

	return splitExtension(inner)
}

// splitExtension splits raw ++ ext ++ '\0'
func splitExtension(inner []byte) ([]byte, string, error) {
	end := bytes.LastIndexByte(inner, Terminator)
	if end < 0 {
		return nil, "", fmt.Errorf("%w: no extension terminator within %d bytes", models.ErrFraming, len(inner))
	}
	if end != len(inner)-1 {
		return nil, "", fmt.Errorf("%w: %d unexpected bytes after the extension terminator", models.ErrFraming, len(inner)-1-end)
	}

	dot := bytes.LastIndexByte(inner[:end], '.')
	if dot < 0 {
		return nil, "", fmt.Errorf("%w: missing file extension", models.ErrFraming)
	}

	ext := string(inner[dot:end])
	if err := validateExtension(ext); err != nil {
		return nil, "", err
	}

	return inner[:dot], ext, nil
}
