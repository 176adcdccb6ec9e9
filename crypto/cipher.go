// Package crypto contains the block ciphers used to protect embedded payloads
package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/des"
	"crypto/sha256"
	"fmt"

	"github.com/FranciscoFerrutti/cripto-steganography/models"
	"golang.org/x/crypto/pbkdf2"
)

const (
	KDFIterations     = 10000
	KDFSaltLength     = 8
	MaxPasswordLength = 256
)

// The salt is fixed so that a password alone is enough to decrypt. An
// all-zero salt makes precomputed dictionaries usable against the KDF.
var kdfSalt = make([]byte, KDFSaltLength)

// CipherSpec describes one algorithm/mode combination
type CipherSpec struct {
	Algorithm models.Algorithm
	Mode      models.Mode
	KeyLen    int
	IVLen     int
	BlockSize int
	NewBlock  func(key []byte) (cipher.Block, error)
}

// Padded reports whether the mode works on whole blocks with PKCS#7 padding
func (s CipherSpec) Padded() bool {
	return s.Mode == models.ModeECB || s.Mode == models.ModeCBC
}

// LookupCipher resolves the capabilities of an algorithm/mode pair
func LookupCipher(alg models.Algorithm, mode models.Mode) (CipherSpec, error) {
	spec := CipherSpec{Algorithm: alg, Mode: mode}

	switch alg {
	case models.AlgorithmAES128:
		spec.KeyLen, spec.BlockSize, spec.NewBlock = 16, aes.BlockSize, aes.NewCipher
	case models.AlgorithmAES192:
		spec.KeyLen, spec.BlockSize, spec.NewBlock = 24, aes.BlockSize, aes.NewCipher
	case models.AlgorithmAES256:
		spec.KeyLen, spec.BlockSize, spec.NewBlock = 32, aes.BlockSize, aes.NewCipher
	case models.Algorithm3DES:
		spec.KeyLen, spec.BlockSize, spec.NewBlock = 24, des.BlockSize, des.NewTripleDESCipher
	default:
		return CipherSpec{}, fmt.Errorf("%w: unsupported algorithm %q", models.ErrCrypto, alg)
	}

	switch mode {
	case models.ModeECB:
		spec.IVLen = 0
	case models.ModeCBC, models.ModeCFB, models.ModeOFB:
		spec.IVLen = spec.BlockSize
	default:
		return CipherSpec{}, fmt.Errorf("%w: unsupported mode %q", models.ErrCrypto, mode)
	}

	return spec, nil
}

// BlockCipher encrypts and decrypts payloads with a password-derived key
type BlockCipher struct {
	spec CipherSpec
	key  []byte
	iv   []byte
}

func NewBlockCipher(opts *models.CipherOptions) (*BlockCipher, error) {
	if opts == nil {
		return nil, fmt.Errorf("%w: no cipher options", models.ErrInvalidArguments)
	}
	if err := ValidatePassword(opts.Password); err != nil {
		return nil, err
	}

	spec, err := LookupCipher(opts.Algorithm, opts.Mode)
	if err != nil {
		return nil, err
	}

	key, iv := deriveKeyIV(opts.Password, spec.KeyLen, spec.IVLen)
	return &BlockCipher{spec: spec, key: key, iv: iv}, nil
}

// Spec returns the algorithm/mode description in use
func (bc *BlockCipher) Spec() CipherSpec {
	return bc.spec
}

// deriveKeyIV runs PBKDF2-HMAC-SHA256 once and splits the output into key then IV
func deriveKeyIV(password string, keyLen, ivLen int) ([]byte, []byte) {
	material := pbkdf2.Key([]byte(password), kdfSalt, KDFIterations, keyLen+ivLen, sha256.New)
	return material[:keyLen], material[keyLen:]
}

func (bc *BlockCipher) Encrypt(plaintext []byte) ([]byte, error) {
	block, err := bc.spec.NewBlock(bc.key)
	if err != nil {
		return nil, fmt.Errorf("%w: cipher init: %v", models.ErrCrypto, err)
	}

	switch bc.spec.Mode {
	case models.ModeECB:
		padded := pkcs7Pad(plaintext, bc.spec.BlockSize)
		out := make([]byte, len(padded))
		ecbCrypt(out, padded, bc.spec.BlockSize, block.Encrypt)
		return out, nil
	case models.ModeCBC:
		padded := pkcs7Pad(plaintext, bc.spec.BlockSize)
		out := make([]byte, len(padded))
		cipher.NewCBCEncrypter(block, bc.iv).CryptBlocks(out, padded)
		return out, nil
	case models.ModeCFB:
		out := make([]byte, len(plaintext))
		newCFB8(block, bc.iv, false).XORKeyStream(out, plaintext)
		return out, nil
	case models.ModeOFB:
		out := make([]byte, len(plaintext))
		cipher.NewOFB(block, bc.iv).XORKeyStream(out, plaintext)
		return out, nil
	}

	return nil, fmt.Errorf("%w: unsupported mode %q", models.ErrCrypto, bc.spec.Mode)
}

func (bc *BlockCipher) Decrypt(ciphertext []byte) ([]byte, error) {
	block, err := bc.spec.NewBlock(bc.key)
	if err != nil {
		return nil, fmt.Errorf("%w: cipher init: %v", models.ErrCrypto, err)
	}

	if bc.spec.Padded() && (len(ciphertext) == 0 || len(ciphertext)%bc.spec.BlockSize != 0) {
		return nil, fmt.Errorf("%w: ciphertext length %d is not a multiple of the block size %d",
			models.ErrCrypto, len(ciphertext), bc.spec.BlockSize)
	}

	out := make([]byte, len(ciphertext))
	switch bc.spec.Mode {
	case models.ModeECB:
		ecbCrypt(out, ciphertext, bc.spec.BlockSize, block.Decrypt)
		return pkcs7Unpad(out, bc.spec.BlockSize)
	case models.ModeCBC:
		cipher.NewCBCDecrypter(block, bc.iv).CryptBlocks(out, ciphertext)
		return pkcs7Unpad(out, bc.spec.BlockSize)
	case models.ModeCFB:
		newCFB8(block, bc.iv, true).XORKeyStream(out, ciphertext)
		return out, nil
	case models.ModeOFB:
		cipher.NewOFB(block, bc.iv).XORKeyStream(out, ciphertext)
		return out, nil
	}

	return nil, fmt.Errorf("%w: unsupported mode %q", models.ErrCrypto, bc.spec.Mode)
}

// ValidatePassword validates if the password is usable for key derivation
func ValidatePassword(password string) error {
	if len(password) == 0 {
		return fmt.Errorf("%w: password cannot be empty", models.ErrInvalidArguments)
	}
	if len(password) > MaxPasswordLength {
		return fmt.Errorf("%w: password length cannot exceed %d characters", models.ErrInvalidArguments, MaxPasswordLength)
	}
	return nil
}

// ResolveOptions applies the fallback table: no password means no
// encryption and forbids algorithm or mode; with a password a missing
// algorithm defaults to aes128 and a missing mode to cbc.
func ResolveOptions(password, algorithm, mode string) (*models.CipherOptions, error) {
	alg, err := models.ParseAlgorithm(algorithm)
	if err != nil {
		return nil, err
	}
	m, err := models.ParseMode(mode)
	if err != nil {
		return nil, err
	}

	if password == "" {
		if alg != models.AlgorithmNone || m != models.ModeNone {
			return nil, fmt.Errorf("%w: algorithm and mode require a password", models.ErrInvalidArguments)
		}
		return nil, nil
	}

	if err := ValidatePassword(password); err != nil {
		return nil, err
	}
	if alg == models.AlgorithmNone {
		alg = models.AlgorithmAES128
	}
	if m == models.ModeNone {
		m = models.ModeCBC
	}

	return &models.CipherOptions{Password: password, Algorithm: alg, Mode: m}, nil
}
