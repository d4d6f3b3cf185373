package main

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/cgxeiji/vitals"
)

// fakePPG hands out its samples per words at each Batch, all of them when
// per is 0.
type fakePPG struct {
	ir, red []uint32
	per     int
	err     error
}

func (f *fakePPG) Batch() ([]uint32, []uint32, error) {
	if f.err != nil {
		return nil, nil, f.err
	}
	n := f.per
	if n == 0 || n > len(f.ir) {
		n = len(f.ir)
	}
	ir, red := f.ir[:n], f.red[:n]
	f.ir, f.red = f.ir[n:], f.red[n:]
	return ir, red, nil
}

func (f *fakePPG) empty() bool { return len(f.ir) == 0 }

type fakeThermo struct {
	obj, amb float64
	err      error
}

func (f fakeThermo) ObjectTemp() (float64, error)  { return f.obj, f.err }
func (f fakeThermo) AmbientTemp() (float64, error) { return f.amb, f.err }

type fakeHygro struct{}

func (fakeHygro) Read() (float64, float64, error) { return 55, 24, nil }

type clock struct{ t time.Time }

func (c *clock) now() time.Time { return c.t }

// pulse returns n samples of a 72 bpm pulse taken every period.
func pulse(n int, period time.Duration) (ir, red []uint32) {
	for i := 0; i < n; i++ {
		x := 2 * math.Pi * 1.2 * period.Seconds() * float64(i)
		ir = append(ir, uint32(80000+2000*math.Sin(x)))
		red = append(red, uint32(80000+1500*math.Sin(x+0.3)))
	}
	return ir, red
}

func newStation(ppg ppgSensor, opts ...vitals.Option) (*station, *clock, *observer.ObservedLogs) {
	core, logs := observer.New(zap.InfoLevel)
	c := &clock{t: time.Unix(1700000000, 0)}
	return &station{
		ppg:      ppg,
		pipeline: vitals.New(opts...),
		session:  &vitals.Session{Stable: 5, Limit: time.Minute},
		minIR:    50000,
		log:      zap.New(core),
		now:      c.now,
	}, c, logs
}

func lines(rs []vitals.Reading) []string {
	var out []string
	for _, r := range rs {
		out = append(out, r.StatusLine())
	}
	return out
}

func TestStation_Measure(t *testing.T) {
	ir, red := pulse(100, 100*time.Millisecond)
	s, _, logs := newStation(&fakePPG{ir: ir, red: red})
	s.thermo = fakeThermo{obj: 36.6, amb: 24}
	s.hygro = fakeHygro{}

	s.sample()
	require.Equal(t, 100, s.pipeline.Len())

	rs := s.report()
	require.Len(t, rs, 2)
	assert.Equal(t, vitals.Start, rs[0].Event)
	r := rs[1]
	assert.Equal(t, vitals.Working, r.Mode)
	assert.True(t, r.HeartRate.Valid)
	assert.True(t, r.SpO2.Valid)
	assert.Equal(t, []string{"WORKING,START", "WORKING,36.60,24.00,72,91"}, lines(rs))

	assert.Equal(t, 1, logs.FilterMessage("finger detected").Len())
	reading := logs.FilterMessage("reading").All()
	require.Len(t, reading, 1)
	assert.Equal(t, float64(55), reading[0].ContextMap()["humidity"])
}

func TestStation_SamplePeriod(t *testing.T) {
	// Default MAX30102 setup: 100 sps averaged by 4, one word every 40ms,
	// read a few words per poll.
	const period = 40 * time.Millisecond
	ir, red := pulse(250, period)

	ppg := &fakePPG{ir: append([]uint32(nil), ir...), red: append([]uint32(nil), red...), per: 3}
	s, _, _ := newStation(ppg, vitals.Capacity(250), vitals.SamplePeriod(period))
	s.thermo = fakeThermo{obj: 36.6, amb: 24}
	for !ppg.empty() {
		s.sample()
	}
	require.Equal(t, 250, s.pipeline.Len())

	rs := s.report()
	assert.Equal(t, []string{"WORKING,START", "WORKING,36.60,24.00,71,91"}, lines(rs))

	// The same words read as if taken every 100ms are far too slow.
	slow, _, _ := newStation(&fakePPG{ir: ir, red: red}, vitals.Capacity(250))
	slow.sample()
	hr := slow.pipeline.HeartRate()
	assert.False(t, hr.Valid)
	assert.ErrorIs(t, hr.Err, vitals.ErrOutOfRange)
}

func TestStation_Final(t *testing.T) {
	ir, red := pulse(100, 100*time.Millisecond)
	s, c, logs := newStation(&fakePPG{ir: ir, red: red})
	s.session.Stable = 2
	s.thermo = fakeThermo{obj: 36.6, amb: 24}

	s.sample()
	assert.Equal(t, []string{"WORKING,START", "WORKING,36.60,24.00,72,91"}, lines(s.report()))

	c.t = c.t.Add(time.Second)
	rs := s.report()
	assert.Equal(t, []string{"WORKING,36.60,24.00,72,91", "WORKING,FINAL,0,36.60,24.00,72,91"}, lines(rs))
	assert.Equal(t, 1, logs.FilterMessage("measurement finished").Len())

	// Finished, finger still on the sensor.
	c.t = c.t.Add(time.Second)
	assert.Equal(t, []string{"STANDBY,36.60,24.00,72,91"}, lines(s.report()))
}

func TestStation_FingerRemoved(t *testing.T) {
	ir, red := pulse(30, 100*time.Millisecond)
	ir = append(ir, 1000)
	red = append(red, 1000)
	s, _, logs := newStation(&fakePPG{ir: ir, red: red, per: 30})

	s.sample()
	require.Equal(t, 30, s.pipeline.Len())

	s.sample()
	assert.Equal(t, 0, s.pipeline.Len())
	assert.False(t, s.finger)
	assert.Equal(t, 1, logs.FilterMessage("finger removed").Len())

	assert.Equal(t, []string{
		"WORKING,START",
		"WORKING,NO_FINGER",
		"STANDBY,0.00,0.00,0,0",
	}, lines(s.report()))
	assert.Equal(t, []string{"STANDBY,0.00,0.00,0,0"}, lines(s.report()))
}

func TestStation_Timeout(t *testing.T) {
	ir := make([]uint32, 30)
	for i := range ir {
		ir[i] = 80000
	}
	s, c, logs := newStation(&fakePPG{ir: ir, red: ir})
	s.session.Limit = 10 * time.Second

	s.sample()
	assert.Equal(t, []string{"WORKING,START", "WORKING,0.00,0.00,MEASURING,MEASURING"}, lines(s.report()))

	c.t = c.t.Add(10 * time.Second)
	assert.Equal(t, []string{"WORKING,0.00,0.00,MEASURING,MEASURING", "WORKING,TIMEOUT"}, lines(s.report()))
	assert.Equal(t, 1, logs.FilterMessage("measurement timed out").Len())
}

func TestStation_SampleError(t *testing.T) {
	s, _, logs := newStation(&fakePPG{err: errors.New("bus")})

	s.sample()
	assert.Equal(t, 0, s.pipeline.Len())
	assert.Equal(t, 1, logs.FilterMessage("could not read PPG samples").Len())
}

func TestStation_ThermoError(t *testing.T) {
	s, _, logs := newStation(&fakePPG{})
	s.thermo = fakeThermo{obj: 99, err: errors.New("nack")}

	rs := s.report()
	require.Len(t, rs, 1)
	assert.Zero(t, rs[0].ObjectTemp)
	assert.Zero(t, rs[0].AmbientTemp)
	assert.Equal(t, 1, logs.FilterMessage("could not read object temperature").Len())
}
