package main

import (
	"time"

	"go.uber.org/zap"

	"github.com/cgxeiji/vitals"
)

type ppgSensor interface {
	Batch() (ir, red []uint32, err error)
}

type thermometer interface {
	ObjectTemp() (float64, error)
	AmbientTemp() (float64, error)
}

type hygrometer interface {
	Read() (humidity, temperature float64, err error)
}

// station polls the sensors of one measuring station. Thermo and hygro may
// be nil.
type station struct {
	ppg    ppgSensor
	thermo thermometer
	hygro  hygrometer

	pipeline *vitals.Pipeline
	session  *vitals.Session
	minIR    uint32
	log      *zap.Logger
	now      func() time.Time

	finger bool
	// events raised while sampling, written before the next reading.
	events []vitals.Event
}

// sample empties the PPG FIFO into the pipeline, one sample per FIFO word.
// The pipeline period must match the word period of the sensor.
func (s *station) sample() {
	ir, red, err := s.ppg.Batch()
	if err != nil {
		s.log.Warn("could not read PPG samples", zap.Error(err))
		return
	}

	for i := range ir {
		s.feed(ir[i], red[i])
	}
}

// feed passes one sample to the pipeline. Samples without a finger are not
// fed; removing the finger resets the pipeline.
func (s *station) feed(ir, red uint32) {
	if ir < s.minIR {
		if s.finger {
			s.log.Info("finger removed")
			s.pipeline.Reset()
			s.raise(s.session.End())
		}
		s.finger = false
		return
	}
	if !s.finger {
		s.log.Info("finger detected", zap.Uint32("ir", ir))
		s.raise(s.session.Begin(s.now()))
	}
	s.finger = true

	s.pipeline.Feed(ir, red)
}

func (s *station) raise(e vitals.Event) {
	if e != "" {
		s.events = append(s.events, e)
	}
}

// report collects a reading of every sensor. The reading comes after the
// Start and NoFinger events raised since the last report, and before a Final
// or Timeout it ends the measurement with. A failed temperature read is
// logged and reported as 0.
func (s *station) report() []vitals.Reading {
	var out []vitals.Reading
	for _, e := range s.events {
		out = append(out, vitals.Reading{Mode: vitals.Working, Event: e})
	}
	s.events = s.events[:0]

	r := vitals.Reading{
		Mode:      vitals.Standby,
		HeartRate: s.pipeline.HeartRate(),
		SpO2:      s.pipeline.SpO2(),
	}
	if s.session.Active() {
		r.Mode = vitals.Working
	}

	if s.thermo != nil {
		if t, err := s.thermo.ObjectTemp(); err != nil {
			s.log.Warn("could not read object temperature", zap.Error(err))
		} else {
			r.ObjectTemp = t
		}
		if t, err := s.thermo.AmbientTemp(); err != nil {
			s.log.Warn("could not read ambient temperature", zap.Error(err))
		} else {
			r.AmbientTemp = t
		}
	}

	fields := []zap.Field{
		zap.Stringer("heart_rate", r.HeartRate),
		zap.Stringer("spo2", r.SpO2),
		zap.Float64("object_temp", r.ObjectTemp),
		zap.Float64("ambient_temp", r.AmbientTemp),
		zap.Int("beats", s.pipeline.Beats()),
	}
	if s.hygro != nil {
		if h, t, err := s.hygro.Read(); err != nil {
			s.log.Warn("could not read humidity", zap.Error(err))
		} else {
			fields = append(fields, zap.Float64("humidity", h), zap.Float64("room_temp", t))
		}
	}
	s.log.Info("reading", fields...)
	out = append(out, r)

	switch e := s.session.Check(r.HeartRate, r.SpO2, s.now()); e {
	case vitals.Final:
		final := r
		final.Event = vitals.Final
		out = append(out, final)
		s.log.Info("measurement finished",
			zap.Stringer("heart_rate", r.HeartRate),
			zap.Stringer("spo2", r.SpO2),
		)
	case vitals.Timeout:
		out = append(out, vitals.Reading{Mode: vitals.Working, Event: e})
		s.log.Warn("measurement timed out")
	}

	return out
}
