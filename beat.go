package vitals

const (
	// WarmupSamples is the number of samples averaged into the initial
	// threshold before the detector starts looking for beats.
	WarmupSamples = 10
	// AmplitudeGate is the minimum peak to trough span of an accepted beat.
	AmplitudeGate = 1000
)

// Beat is emitted by the detector on every accepted pulse.
type Beat struct {
	Amplitude int32
}

// BeatState holds the adaptive threshold state of a BeatDetector.
type BeatState struct {
	Threshold   int32
	LastSample  int32
	Rising      bool
	Peak        int32
	Trough      int32
	WarmupCount int32
	WarmupSum   int32
}

// BeatDetector finds pulses in a stream of samples of one channel using an
// adaptive threshold. The threshold is seeded with the mean of the first
// WarmupSamples samples and re-centered between peak and trough of every
// accepted beat.
//
// The threshold does not move while the signal is noisy, so a detector that
// lost track of a drifting baseline only recovers after a beat is accepted.
type BeatDetector struct {
	state BeatState
}

// NewBeatDetector returns a detector in its warmup state.
func NewBeatDetector() *BeatDetector {
	return &BeatDetector{}
}

// Init resets the detector to its warmup state.
func (b *BeatDetector) Init() {
	b.state = BeatState{}
}

// State returns a copy of the current detector state.
func (b *BeatDetector) State() BeatState {
	return b.state
}

// Feed consumes one sample and reports whether it completed a beat.
func (b *BeatDetector) Feed(sample int32) (Beat, bool) {
	s := &b.state

	if s.WarmupCount < WarmupSamples {
		s.WarmupSum += sample
		s.WarmupCount++
		if s.WarmupCount == WarmupSamples {
			s.Threshold = s.WarmupSum / WarmupSamples
		}
		s.LastSample = sample
		return Beat{}, false
	}

	if s.Threshold == 0 {
		s.Threshold = sample
	}

	var beat Beat
	detected := false

	// Rising edge
	if sample > s.Threshold && s.LastSample <= s.Threshold && !s.Rising {
		s.Rising = true
		s.Peak = sample
		s.Trough = s.LastSample
	}

	// Falling edge
	if sample < s.Threshold && s.LastSample >= s.Threshold && s.Rising {
		s.Rising = false
		amp := s.Peak - s.Trough
		if amp > AmplitudeGate {
			s.Threshold = (s.Peak + s.Trough) / 2
			beat.Amplitude = amp
			detected = true
		}
	}

	if s.Rising && sample > s.Peak {
		s.Peak = sample
	}
	if !s.Rising && (sample < s.Trough || s.Trough == 0) {
		s.Trough = sample
	}

	s.LastSample = sample

	return beat, detected
}
