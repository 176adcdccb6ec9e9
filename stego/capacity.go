package stego

import (
	"github.com/FranciscoFerrutti/cripto-steganography/bitmap"
	"github.com/FranciscoFerrutti/cripto-steganography/models"
)

// Plan fails with a *models.CapacityError when needBits exceeds haveBits
func Plan(method models.Method, needBits, haveBits int) error {
	if needBits > haveBits {
		return &models.CapacityError{Method: method, Need: needBits, Have: haveBits}
	}
	return nil
}

// CapacityBits returns how many payload bits the grid holds with method
func CapacityBits(method models.Method, grid *bitmap.PixelGrid) (int, error) {
	codec, err := NewCodec(method)
	if err != nil {
		return 0, err
	}
	return codec.CapacityBits(grid), nil
}

// CapacityBytes returns the number of whole framed bytes the grid holds
func CapacityBytes(method models.Method, grid *bitmap.PixelGrid) (int, error) {
	bits, err := CapacityBits(method, grid)
	if err != nil {
		return 0, err
	}
	return bits / 8, nil
}
