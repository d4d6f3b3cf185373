package vitals

import "math"

const (
	// MinSpO2 and MaxSpO2 bound a plausible oxygen saturation in percent.
	MinSpO2 = 70
	MaxSpO2 = 100

	minRatio = 0.4
	maxRatio = 1.5
)

// SpO2Estimator derives the oxygen saturation from the ratio of the
// pulsatile (AC) to the baseline (DC) component of the red and infrared
// channels.
type SpO2Estimator struct{}

// Estimate returns the SpO2 level in percent.
func (SpO2Estimator) Estimate(w *Window) Estimate {
	if w.Len() < MinSamples {
		return invalid(ErrInsufficientSamples)
	}
	ir := w.IR()
	red := w.Red()

	irDC := meanOf(ir)
	redDC := meanOf(red)
	if irDC == 0 || redDC == 0 {
		return invalid(ErrNoSignal)
	}

	irAC := acOf(ir)
	redAC := acOf(red)
	if irAC == 0 || redAC == 0 {
		return invalid(ErrNoSignal)
	}

	r := (float64(redAC) / float64(redDC)) / (float64(irAC) / float64(irDC))
	if r <= minRatio || r >= maxRatio {
		return invalid(ErrOutOfRange)
	}

	spo2 := math.Trunc(110 - 25*r)
	if spo2 < MinSpO2 || spo2 > MaxSpO2 {
		return Estimate{Value: spo2, Err: ErrOutOfRange}
	}
	return Estimate{Value: spo2, Valid: true}
}

// acOf sums the absolute difference between consecutive values.
func acOf(values []uint32) uint64 {
	var sum uint64
	for i := 1; i < len(values); i++ {
		d := int64(values[i]) - int64(values[i-1])
		if d < 0 {
			d = -d
		}
		sum += uint64(d)
	}
	return sum
}
