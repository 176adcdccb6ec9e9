package quality

import (
	"math"
	"testing"

	"github.com/FranciscoFerrutti/cripto-steganography/bitmap"
)

func makeTestGrid(t *testing.T, w, h int, fill byte) *bitmap.PixelGrid {
	t.Helper()
	grid, err := bitmap.NewPixelGrid(w, h)
	if err != nil {
		t.Fatalf("NewPixelGrid: %v", err)
	}
	for i := range grid.Pix {
		grid.Pix[i] = fill
	}
	return grid
}

func TestCompare_Identical(t *testing.T) {
	a := makeTestGrid(t, 4, 4, 100)
	r, err := Compare(a, a.Clone())
	if err != nil {
		t.Fatalf("Compare: %v", err)
	}
	if r.MSE != 0 || !math.IsInf(r.PSNR, 1) || r.ChangedComponents != 0 || r.ChangedBits != 0 {
		t.Fatalf("unexpected report for identical grids: %+v", r)
	}
	if FormatPSNR(r.PSNR) != "inf" {
		t.Fatalf("FormatPSNR(+Inf) = %q", FormatPSNR(r.PSNR))
	}
}

func TestCompare_KnownDistortion(t *testing.T) {
	a := makeTestGrid(t, 2, 2, 0x10) // 12 components
	b := a.Clone()
	b.Pix[0] ^= 0x01
	b.Pix[5] ^= 0x03

	r, err := Compare(a, b)
	if err != nil {
		t.Fatalf("Compare: %v", err)
	}
	if r.ChangedComponents != 2 || r.ChangedBits != 3 {
		t.Fatalf("changed = %d components / %d bits, want 2 / 3", r.ChangedComponents, r.ChangedBits)
	}

	// 0x10^0x03 = 0x13, diff 3; squared errors 1 and 9 over 12 components
	wantMSE := 10.0 / 12.0
	if math.Abs(r.MSE-wantMSE) > 1e-12 {
		t.Fatalf("MSE = %v, want %v", r.MSE, wantMSE)
	}
	wantPSNR := 20 * math.Log10(255/math.Sqrt(wantMSE))
	if math.Abs(r.PSNR-wantPSNR) > 1e-9 {
		t.Fatalf("PSNR = %v, want %v", r.PSNR, wantPSNR)
	}
	if !r.Acceptable(MinAcceptablePSNR) {
		t.Fatalf("PSNR %v reported below %v", r.PSNR, MinAcceptablePSNR)
	}
}

func TestCompare_SizeMismatch(t *testing.T) {
	if _, err := Compare(makeTestGrid(t, 2, 2, 0), makeTestGrid(t, 2, 3, 0)); err == nil {
		t.Fatal("expected an error for grids of different sizes")
	}
}

func TestValidatePSNR(t *testing.T) {
	for _, tc := range []struct {
		psnr      float64
		threshold float64
		want      bool
	}{
		{math.Inf(1), 40, true},
		{51.2, 40, true},
		{40, 40, true},
		{39.99, 40, false},
	} {
		if got := ValidatePSNR(tc.psnr, tc.threshold); got != tc.want {
			t.Fatalf("ValidatePSNR(%v, %v) = %v, want %v", tc.psnr, tc.threshold, got, tc.want)
		}
	}
}

func TestReport_AcceptableFlagsHeavyDistortion(t *testing.T) {
	a := makeTestGrid(t, 4, 4, 0x00)
	b := a.Clone()
	// every component moves by the full nibble, as LSB4 can at worst
	for i := range b.Pix {
		b.Pix[i] = 0x0F
	}

	r, err := Compare(a, b)
	if err != nil {
		t.Fatalf("Compare: %v", err)
	}
	if r.Acceptable(MinAcceptablePSNR) {
		t.Fatalf("PSNR %v accepted, want below %v", r.PSNR, MinAcceptablePSNR)
	}
}

func TestFormatPSNR(t *testing.T) {
	if got := FormatPSNR(51.1414); got != "51.14" {
		t.Fatalf("FormatPSNR = %q, want 51.14", got)
	}
}
