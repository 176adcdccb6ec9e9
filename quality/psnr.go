// Package quality measures how far a stego grid drifted from its carrier
package quality

import (
	"fmt"
	"math"
	"math/bits"

	"github.com/FranciscoFerrutti/cripto-steganography/bitmap"
)

const (
	// MaxComponentValue is the peak signal of an 8-bit color component
	MaxComponentValue = 255.0
	// MinAcceptablePSNR is the level below which embedding is reported as
	// visibly degrading the carrier
	MinAcceptablePSNR = 40.0
)

// Report summarizes the distortion introduced by embedding
type Report struct {
	MSE               float64
	PSNR              float64 // +Inf when the grids are identical
	ChangedComponents int
	ChangedBits       int
}

// Compare computes the distortion between two grids of the same size
func Compare(original, stego *bitmap.PixelGrid) (Report, error) {
	if original.Width != stego.Width || original.Height != stego.Height {
		return Report{}, fmt.Errorf("grid sizes differ: %dx%d vs %dx%d",
			original.Width, original.Height, stego.Width, stego.Height)
	}

	var r Report
	var sum float64
	for i, a := range original.Pix {
		b := stego.Pix[i]
		if a == b {
			continue
		}
		r.ChangedComponents++
		r.ChangedBits += bits.OnesCount8(a ^ b)
		diff := float64(a) - float64(b)
		sum += diff * diff
	}

	if n := len(original.Pix); n > 0 {
		r.MSE = sum / float64(n)
	}
	r.PSNR = psnr(r.MSE)
	return r, nil
}

func psnr(mse float64) float64 {
	// If MSE is 0, grids are identical
	if mse == 0 {
		return math.Inf(1)
	}
	return 20 * math.Log10(MaxComponentValue/math.Sqrt(mse))
}

// Acceptable reports whether the stego grid is at least threshold dB away
// from visible noise. Identical grids always pass.
func (r Report) Acceptable(threshold float64) bool {
	return ValidatePSNR(r.PSNR, threshold)
}

func ValidatePSNR(psnr, threshold float64) bool {
	return math.IsInf(psnr, 1) || psnr >= threshold
}

// FormatPSNR renders a PSNR for headers and console output
func FormatPSNR(psnr float64) string {
	if math.IsInf(psnr, 1) {
		return "inf"
	}
	return fmt.Sprintf("%.2f", psnr)
}
