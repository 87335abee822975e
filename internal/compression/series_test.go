package compression

import (
	"math"
	"math/rand"
	"testing"
)

func TestTimestamps_RoundTrip(t *testing.T) {
	tests := []struct {
		name   string
		values []int64
	}{
		{"empty", []int64{}},
		{"single", []int64{1700000000}},
		{"regular", []int64{1700000000, 1700000060, 1700000120, 1700000180}},
		{"irregular", []int64{100, 160, 161, 500, 499, 499, -20}},
		{"extremes", []int64{math.MinInt64 / 2, 0, math.MaxInt64 / 2}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := EncodeTimestamps(tt.values)
			got, err := DecodeTimestamps(data)
			if err != nil {
				t.Fatalf("DecodeTimestamps failed: %v", err)
			}
			if len(got) != len(tt.values) {
				t.Fatalf("expected %d values, got %d", len(tt.values), len(got))
			}
			for i := range got {
				if got[i] != tt.values[i] {
					t.Errorf("value %d: expected %d, got %d", i, tt.values[i], got[i])
				}
			}
		})
	}
}

func TestTimestamps_RegularSpacingIsCompact(t *testing.T) {
	values := make([]int64, 1000)
	for i := range values {
		values[i] = 1700000000 + int64(i)*60
	}
	data := EncodeTimestamps(values)
	if len(data) > 1100 {
		t.Errorf("expected about one byte per value, got %d bytes", len(data))
	}
}

func TestTimestamps_Truncated(t *testing.T) {
	data := EncodeTimestamps([]int64{1, 2, 4, 8, 16})
	if _, err := DecodeTimestamps(data[:len(data)-2]); err == nil {
		t.Error("expected error for truncated column")
	}
	if _, err := DecodeTimestamps(nil); err == nil {
		t.Error("expected error for empty input")
	}
}

func TestFloats_RoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	noisy := make([]float64, 300)
	for i := range noisy {
		noisy[i] = 20 + rng.NormFloat64()
	}

	tests := []struct {
		name   string
		values []float64
	}{
		{"empty", []float64{}},
		{"single", []float64{21.5}},
		{"constant", []float64{45, 45, 45, 45, 45}},
		{"sensor", []float64{21.5, 21.6, 21.6, 21.4, 22.0, 35.2, 21.9}},
		{"signs and zero", []float64{-10.25, 0, 10.25, math.SmallestNonzeroFloat64, -0.0}},
		{"special", []float64{math.Inf(1), math.Inf(-1), math.MaxFloat64}},
		{"noisy", noisy},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := EncodeFloats(tt.values)
			got, err := DecodeFloats(data)
			if err != nil {
				t.Fatalf("DecodeFloats failed: %v", err)
			}
			if len(got) != len(tt.values) {
				t.Fatalf("expected %d values, got %d", len(tt.values), len(got))
			}
			for i := range got {
				if math.Float64bits(got[i]) != math.Float64bits(tt.values[i]) {
					t.Errorf("value %d: expected %v, got %v", i, tt.values[i], got[i])
				}
			}
		})
	}
}

func TestFloats_NaNPreserved(t *testing.T) {
	got, err := DecodeFloats(EncodeFloats([]float64{1, math.NaN(), 2}))
	if err != nil {
		t.Fatalf("DecodeFloats failed: %v", err)
	}
	if !math.IsNaN(got[1]) {
		t.Errorf("expected NaN, got %v", got[1])
	}
}

func TestFloats_ConstantIsCompact(t *testing.T) {
	values := make([]float64, 800)
	for i := range values {
		values[i] = 45
	}
	// 1 bit per repeated value
	if n := len(EncodeFloats(values)); n > 2+8+100 {
		t.Errorf("expected ~110 bytes for a constant column, got %d", n)
	}
}

func TestFloats_Truncated(t *testing.T) {
	data := EncodeFloats([]float64{21.5, 22.75, 19.125, 30.0625})
	if _, err := DecodeFloats(data[:len(data)-3]); err == nil {
		t.Error("expected error for truncated column")
	}
	if _, err := DecodeFloats([]byte{5, 1, 2}); err == nil {
		t.Error("expected error for missing first value")
	}
}
