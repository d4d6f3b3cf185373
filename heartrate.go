package vitals

import (
	"math"
	"time"
)

const (
	// DefaultSamplePeriod is the assumed time between two samples.
	DefaultSamplePeriod = 100 * time.Millisecond

	// MinHeartRate and MaxHeartRate bound a plausible heart rate in beats
	// per minute.
	MinHeartRate = 50
	MaxHeartRate = 200

	maxIntervals = 10
)

// HeartRateEstimator derives a heart rate from the infrared channel of a
// window by measuring the spacing of its peaks. It does not share state with
// BeatDetector and may disagree with it.
type HeartRateEstimator struct {
	// Period is the time between two samples. Zero means
	// DefaultSamplePeriod.
	Period time.Duration
}

func (h HeartRateEstimator) period() float64 {
	if h.Period <= 0 {
		return DefaultSamplePeriod.Seconds()
	}
	return h.Period.Seconds()
}

// Estimate returns the heart rate in beats per minute. A rate outside
// [MinHeartRate, MaxHeartRate] keeps its value but is flagged invalid.
func (h HeartRateEstimator) Estimate(w *Window) Estimate {
	if w.Len() < MinSamples {
		return invalid(ErrInsufficientSamples)
	}
	ir := w.IR()
	n := len(ir)

	mean := meanOf(ir)
	var sumSq float64
	for _, v := range ir {
		d := float64(int64(v) - int64(mean))
		sumSq += d * d
	}
	std := uint64(math.Sqrt(float64(uint64(sumSq) / uint64(n))))
	threshold := mean + std/2

	peaks := 0
	last := -1
	intervals := make([]int, 0, maxIntervals)
	for i := 1; i < n-1; i++ {
		v := uint64(ir[i])
		if v > uint64(ir[i-1]) && v > uint64(ir[i+1]) && v > threshold {
			peaks++
			if last >= 0 && len(intervals) < maxIntervals {
				intervals = append(intervals, i-last)
			}
			last = i
		}
	}

	var bpm float64
	switch {
	case len(intervals) >= 2:
		sum := 0
		for _, in := range intervals {
			sum += in
		}
		avg := float64(sum) / float64(len(intervals))
		bpm = math.Trunc(60 / (avg * h.period()))
	case peaks > 0:
		seconds := float64(n) * h.period()
		bpm = math.Trunc(float64(peaks) / seconds * 60)
	default:
		return invalid(ErrNoSignal)
	}

	if bpm < MinHeartRate || bpm > MaxHeartRate {
		return Estimate{Value: bpm, Err: ErrOutOfRange}
	}
	return Estimate{Value: bpm, Valid: true}
}

// meanOf returns the truncated integer mean of a channel.
func meanOf(values []uint32) uint64 {
	if len(values) == 0 {
		return 0
	}
	var sum uint64
	for _, v := range values {
		sum += uint64(v)
	}
	return sum / uint64(len(values))
}
