package dht11

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"periph.io/x/periph/conn/gpio"
	"periph.io/x/periph/conn/gpio/gpiotest"
	"periph.io/x/periph/conn/physic"
)

func TestDecode(t *testing.T) {
	h, temp, err := Decode([5]byte{45, 5, 23, 7, 80})
	require.NoError(t, err)
	assert.InDelta(t, 45.5, h, 1e-9)
	assert.InDelta(t, 23.7, temp, 1e-9)
}

func TestDecode_ChecksumWraps(t *testing.T) {
	// 200 + 9 + 50 + 3 = 262, 262 mod 256 = 6
	_, _, err := Decode([5]byte{200, 9, 50, 3, 6})
	assert.NoError(t, err)
}

func TestDecode_CorruptedChecksum(t *testing.T) {
	frame := [5]byte{62, 0, 21, 4, 87}
	for c := 0; c < 256; c++ {
		frame[4] = byte(c)
		_, _, err := Decode(frame)
		if c == 87 {
			assert.NoError(t, err)
			continue
		}
		assert.ErrorIs(t, err, ErrChecksum, "checksum %#02x", c)
	}
}

// script is a line replaying a sequence of levels, one per Read. Once the
// script is exhausted the line stays at the last level.
type script struct {
	levels []gpio.Level
	out    []gpio.Level
	inputs int
}

func (s *script) Out(l gpio.Level) error {
	s.out = append(s.out, l)
	return nil
}

func (s *script) In(gpio.Pull, gpio.Edge) error {
	s.inputs++
	return nil
}

func (s *script) Read() gpio.Level {
	if len(s.levels) == 1 {
		return s.levels[0]
	}
	l := s.levels[0]
	s.levels = s.levels[1:]
	return l
}

// encode returns the levels read by the driver for a frame.
func encode(frame [5]byte) []gpio.Level {
	// response: low, high, low
	levels := []gpio.Level{gpio.High, gpio.Low, gpio.Low, gpio.High, gpio.High, gpio.Low}
	for _, b := range frame {
		for i := 7; i >= 0; i-- {
			// bit start: low, then high
			levels = append(levels, gpio.Low, gpio.High)
			if b&(1<<i) != 0 {
				// still high at sampling time, then low
				levels = append(levels, gpio.High, gpio.High, gpio.Low)
			} else {
				levels = append(levels, gpio.Low)
			}
		}
	}
	return levels
}

func TestRead(t *testing.T) {
	line := &script{levels: encode([5]byte{45, 5, 23, 7, 80})}
	d := &Device{pin: line, timeout: DefaultTimeout}

	h, temp, err := d.Read()
	require.NoError(t, err)
	assert.InDelta(t, 45.5, h, 1e-9)
	assert.InDelta(t, 23.7, temp, 1e-9)

	assert.Equal(t, []gpio.Level{gpio.Low, gpio.High}, line.out, "start signal")
	assert.Equal(t, 1, line.inputs)
}

func TestRead_Checksum(t *testing.T) {
	line := &script{levels: encode([5]byte{45, 5, 23, 7, 81})}
	d := &Device{pin: line, timeout: DefaultTimeout}

	_, _, err := d.Read()
	assert.ErrorIs(t, err, ErrChecksum)
}

func TestRead_NoResponse(t *testing.T) {
	line := &script{levels: []gpio.Level{gpio.High}}
	d := &Device{pin: line, timeout: DefaultTimeout}

	_, _, err := d.Read()
	assert.ErrorIs(t, err, ErrTimeout)
}

func TestRead_StuckBit(t *testing.T) {
	levels := encode([5]byte{45, 5, 23, 7, 80})
	// The line stays low once the first byte is sent.
	line := &script{levels: append(levels[:6+8*4], gpio.Low)}
	d := &Device{pin: line, timeout: DefaultTimeout}

	_, _, err := d.Read()
	assert.ErrorIs(t, err, ErrTimeout)
}

func TestSenseEnv(t *testing.T) {
	line := &script{levels: encode([5]byte{45, 5, 23, 7, 80})}
	d := &Device{pin: line, timeout: DefaultTimeout}

	var e physic.Env
	require.NoError(t, d.SenseEnv(&e))
	assert.Equal(t, physic.ZeroCelsius+23700*physic.MilliKelvin, e.Temperature)
	assert.Equal(t, 455*physic.PercentRH/10, e.Humidity)
}

func TestNew(t *testing.T) {
	pin := &gpiotest.Pin{N: "GPIO4", L: gpio.Low}

	d, err := New(pin)
	require.NoError(t, err)
	assert.Equal(t, gpio.High, pin.Read(), "line must idle high")
	assert.Equal(t, DefaultTimeout, d.timeout)
}
