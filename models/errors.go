package models

import (
	"errors"
	"fmt"

	"github.com/dustin/go-humanize"
)

var (
	ErrIO                = errors.New("i/o error")
	ErrCapacityExceeded  = errors.New("capacity exceeded")
	ErrFraming           = errors.New("malformed payload framing")
	ErrExtraction        = errors.New("extraction failed")
	ErrCrypto            = errors.New("cryptographic failure")
	ErrUnsupportedFormat = errors.New("unsupported image format")
	ErrInvalidArguments  = errors.New("invalid arguments")
)

// CapacityError reports a payload that does not fit its carrier. Need and
// Have are expressed in bits.
type CapacityError struct {
	Method Method
	Need   int
	Have   int
}

func (e *CapacityError) Error() string {
	return fmt.Sprintf("%v: %s needs %s (%d bits), carrier holds %s (%d bits)",
		ErrCapacityExceeded, e.Method,
		humanize.Bytes(uint64(bitsToBytes(e.Need))), e.Need,
		humanize.Bytes(uint64(bitsToBytes(e.Have))), e.Have)
}

func (e *CapacityError) Unwrap() error {
	return ErrCapacityExceeded
}

func bitsToBytes(bits int) int {
	return (bits + 7) / 8
}
