package vitals

import (
	"time"

	"go.uber.org/zap"
)

// An Option configures a pipeline and returns an option restoring the
// previous value.
type Option func(p *Pipeline) Option

// Capacity sets the number of samples held in the window. Values below
// MinSamples are raised to MinSamples. Changing the capacity clears the
// pipeline. By default, the capacity is 100 samples.
func Capacity(n int) Option {
	return func(p *Pipeline) Option {
		old := p.window.Cap()
		p.window = NewWindow(n)
		p.Reset()
		return Capacity(old)
	}
}

// SamplePeriod sets the time between two samples used by the heart rate
// estimator. By default, the period is 100ms.
func SamplePeriod(d time.Duration) Option {
	return func(p *Pipeline) Option {
		old := p.hr.Period
		p.hr.Period = d
		return SamplePeriod(old)
	}
}

// Logger sets the logger used to report beats and resets. By default,
// nothing is logged.
func Logger(l *zap.Logger) Option {
	return func(p *Pipeline) Option {
		old := p.log
		if l == nil {
			l = zap.NewNop()
		}
		p.log = l
		return Logger(old)
	}
}
