package vitals

import (
	"time"

	"go.uber.org/zap"
)

// SampleMask keeps the 18 significant bits of a channel value.
const SampleMask = 0x3FFFF

const defaultCapacity = 100

// Pipeline turns a stream of samples into heart rate and SpO2 estimates.
//
// A Pipeline is not safe for concurrent use. Each sensor channel needs its
// own Pipeline.
type Pipeline struct {
	window *Window
	beat   *BeatDetector
	hr     HeartRateEstimator
	spo2   SpO2Estimator
	log    *zap.Logger

	last  Beat
	found bool
	beats int
}

// New returns a pipeline with a window of 100 samples taken every 100ms.
func New(options ...Option) *Pipeline {
	p := &Pipeline{
		window: NewWindow(defaultCapacity),
		beat:   NewBeatDetector(),
		hr:     HeartRateEstimator{Period: DefaultSamplePeriod},
		log:    zap.NewNop(),
	}
	p.Options(options...)

	return p
}

// Options applies the options in order and returns the option restoring the
// previous value of the last one.
func (p *Pipeline) Options(options ...Option) Option {
	var old Option
	for _, opt := range options {
		old = opt(p)
	}
	return old
}

// Feed adds a sample to the window and runs the beat detector over its
// infrared value. Samples are assumed to arrive every SamplePeriod; the
// pipeline does not check it.
func (p *Pipeline) Feed(ir, red uint32) {
	ir &= SampleMask
	red &= SampleMask
	p.window.Add(Sample{IR: ir, Red: red})

	if b, ok := p.beat.Feed(int32(ir)); ok {
		p.last = b
		p.found = true
		p.beats++
		p.log.Debug("beat detected",
			zap.Int32("amplitude", b.Amplitude),
			zap.Int32("threshold", p.beat.State().Threshold),
			zap.Int("beats", p.beats),
		)
	}
}

// HeartRate computes the heart rate over the current window.
func (p *Pipeline) HeartRate() Estimate {
	return p.hr.Estimate(p.window)
}

// SpO2 computes the SpO2 level over the current window.
func (p *Pipeline) SpO2() Estimate {
	return p.spo2.Estimate(p.window)
}

// LastBeat returns the last beat found by the detector. It returns false if
// no beat has been found since the last reset.
func (p *Pipeline) LastBeat() (Beat, bool) {
	return p.last, p.found
}

// Beats returns the number of beats found since the last reset.
func (p *Pipeline) Beats() int {
	return p.beats
}

// Len returns the number of samples in the window.
func (p *Pipeline) Len() int {
	return p.window.Len()
}

// Period returns the sample period assumed by the pipeline.
func (p *Pipeline) Period() time.Duration {
	if p.hr.Period <= 0 {
		return DefaultSamplePeriod
	}
	return p.hr.Period
}

// Reset clears the window and puts the beat detector back in warmup.
func (p *Pipeline) Reset() {
	p.window.Reset()
	p.beat.Init()
	p.last = Beat{}
	p.found = false
	p.beats = 0
	p.log.Debug("pipeline reset")
}
