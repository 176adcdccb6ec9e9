// Package models contain needed models
package models

import (
	"fmt"
	"strings"
)

// Method selects the steganography codec
type Method string

const (
	MethodLSB1 Method = "LSB1"
	MethodLSB4 Method = "LSB4"
	MethodLSBI Method = "LSBI"
)

// Methods lists every supported method in a stable order
var Methods = []Method{MethodLSB1, MethodLSB4, MethodLSBI}

func ParseMethod(s string) (Method, error) {
	switch m := Method(strings.ToUpper(strings.TrimSpace(s))); m {
	case MethodLSB1, MethodLSB4, MethodLSBI:
		return m, nil
	}
	return "", fmt.Errorf("%w: unknown steganography method %q", ErrInvalidArguments, s)
}

// Algorithm is the block cipher used to encrypt the payload
type Algorithm string

const (
	AlgorithmNone   Algorithm = ""
	AlgorithmAES128 Algorithm = "aes128"
	AlgorithmAES192 Algorithm = "aes192"
	AlgorithmAES256 Algorithm = "aes256"
	Algorithm3DES   Algorithm = "3des"
)

var Algorithms = []Algorithm{AlgorithmAES128, AlgorithmAES192, AlgorithmAES256, Algorithm3DES}

func ParseAlgorithm(s string) (Algorithm, error) {
	switch a := Algorithm(strings.ToLower(strings.TrimSpace(s))); a {
	case AlgorithmNone, AlgorithmAES128, AlgorithmAES192, AlgorithmAES256, Algorithm3DES:
		return a, nil
	}
	return "", fmt.Errorf("%w: unknown encryption algorithm %q", ErrInvalidArguments, s)
}

// Mode is the block cipher chaining mode
type Mode string

const (
	ModeNone Mode = ""
	ModeECB  Mode = "ecb"
	ModeCBC  Mode = "cbc"
	ModeCFB  Mode = "cfb"
	ModeOFB  Mode = "ofb"
)

var Modes = []Mode{ModeECB, ModeCBC, ModeCFB, ModeOFB}

func ParseMode(s string) (Mode, error) {
	switch m := Mode(strings.ToLower(strings.TrimSpace(s))); m {
	case ModeNone, ModeECB, ModeCBC, ModeCFB, ModeOFB:
		return m, nil
	}
	return "", fmt.Errorf("%w: unknown chaining mode %q", ErrInvalidArguments, s)
}

// CipherOptions holds the resolved encryption settings. A nil *CipherOptions
// means the payload is stored in clear.
type CipherOptions struct {
	Password  string
	Algorithm Algorithm
	Mode      Mode
}

// StegoConfig represents configuration for steganography operations
type StegoConfig struct {
	Method Method
	Cipher *CipherOptions
}

// StegoResponse represents the JSON body returned on failures and health checks
type StegoResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// CapacityResponse reports how many payload bytes a carrier can hold per method
type CapacityResponse struct {
	Success    bool             `json:"success"`
	Width      int              `json:"width"`
	Height     int              `json:"height"`
	Capacities []MethodCapacity `json:"capacities"`
}

type MethodCapacity struct {
	Method Method `json:"method"`
	Bytes  int    `json:"bytes"`
	Human  string `json:"human"`
}
