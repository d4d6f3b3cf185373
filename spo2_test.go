package vitals

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSpO2_Sine(t *testing.T) {
	ir := sine(100, 1.2, 2000, 0)
	red := sine(100, 1.2, 1500, 0.3)
	e := SpO2Estimator{}.Estimate(windowOf(ir, red))

	// ratio ≈ 0.75
	assert.Equal(t, Estimate{Value: 91, Valid: true}, e)
}

func TestSpO2_Constant(t *testing.T) {
	ir := constant(MinSamples, 50000)
	e := SpO2Estimator{}.Estimate(windowOf(ir, ir))

	assert.False(t, e.Valid)
	assert.ErrorIs(t, e.Err, ErrNoSignal)
}

func TestSpO2_ZeroMean(t *testing.T) {
	ir := sine(MinSamples, 1.2, 2000, 0)
	red := constant(MinSamples, 0)
	e := SpO2Estimator{}.Estimate(windowOf(ir, red))

	assert.False(t, e.Valid)
	assert.ErrorIs(t, e.Err, ErrNoSignal)
}

func TestSpO2_InsufficientSamples(t *testing.T) {
	// Whatever the content, a short window is invalid.
	for n := 0; n < MinSamples; n++ {
		ir := sine(n, 1.2, 2000, 0)
		red := sine(n, 1.2, 1500, 0.3)
		e := SpO2Estimator{}.Estimate(windowOf(ir, red))

		assert.False(t, e.Valid, "n = %d", n)
		assert.ErrorIs(t, e.Err, ErrInsufficientSamples, "n = %d", n)
	}
}

func TestSpO2_Ratio(t *testing.T) {
	tests := []struct {
		name  string
		red   float64
		spo2  float64
		valid bool
	}{
		{"low ratio", 600, 0, false},   // ratio 0.3
		{"normal", 1000, 97, true},     // ratio 0.5
		{"high ratio", 3200, 0, false}, // ratio 1.6
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ir := sine(100, 1.5, 2000, 0)
			red := sine(100, 1.5, tt.red, 0)
			e := SpO2Estimator{}.Estimate(windowOf(ir, red))

			assert.Equal(t, tt.valid, e.Valid)
			assert.Equal(t, tt.spo2, e.Value)
			if !tt.valid {
				assert.ErrorIs(t, e.Err, ErrOutOfRange)
			}
		})
	}
}
