// Package dht11 reads a DHT11 humidity and temperature sensor over its
// single-wire protocol.
//
// A read is a 40-bit frame: humidity integer and decimal bytes, temperature
// integer and decimal bytes, and a checksum byte equal to the sum of the first
// four bytes modulo 256.
package dht11

import (
	"errors"
	"fmt"
	"time"

	"periph.io/x/periph/conn/gpio"
	"periph.io/x/periph/conn/physic"
)

var (
	// ErrChecksum is returned when the checksum byte does not match the
	// frame.
	ErrChecksum = errors.New("dht11: checksum mismatch")
	// ErrTimeout is returned when the line does not change level in time.
	ErrTimeout = errors.New("dht11: timeout waiting for line")
)

const (
	startLow  = 20 * time.Millisecond
	startHigh = 30 * time.Microsecond
	// bitSample is the time after the rising edge of a bit at which a 1 is
	// still high and a 0 already low.
	bitSample = 30 * time.Microsecond
	// DefaultTimeout bounds every wait on a line level.
	DefaultTimeout = 100 * time.Microsecond
)

// Decode validates a frame and returns the humidity in %RH and the
// temperature in °C.
func Decode(frame [5]byte) (humidity, temperature float64, err error) {
	if frame[0]+frame[1]+frame[2]+frame[3] != frame[4] {
		return 0, 0, fmt.Errorf("%w: got %#02x, want %#02x",
			ErrChecksum, frame[4], frame[0]+frame[1]+frame[2]+frame[3])
	}
	humidity = float64(frame[0]) + float64(frame[1])/10
	temperature = float64(frame[2]) + float64(frame[3])/10

	return humidity, temperature, nil
}

// line is the part of gpio.PinIO used by the protocol.
type line interface {
	Out(l gpio.Level) error
	In(pull gpio.Pull, edge gpio.Edge) error
	Read() gpio.Level
}

// Device defines a DHT11 device.
type Device struct {
	pin     line
	timeout time.Duration
}

// New returns a DHT11 device on pin and drives the line high.
func New(pin gpio.PinIO) (*Device, error) {
	d := &Device{
		pin:     pin,
		timeout: DefaultTimeout,
	}
	if err := pin.Out(gpio.High); err != nil {
		return nil, fmt.Errorf("dht11: could not set pin %s high: %w", pin, err)
	}

	return d, nil
}

// Read reads a frame and returns the humidity in %RH and the temperature
// in °C. A read is never retried; the device needs about 1s between two
// reads.
func (d *Device) Read() (humidity, temperature float64, err error) {
	frame, err := d.frame()
	if err != nil {
		return 0, 0, err
	}
	return Decode(frame)
}

// SenseEnv fills e.Humidity and e.Temperature.
func (d *Device) SenseEnv(e *physic.Env) error {
	frame, err := d.frame()
	if err != nil {
		return err
	}
	if _, _, err := Decode(frame); err != nil {
		return err
	}

	tenths := int64(frame[2])*10 + int64(frame[3])
	e.Temperature = physic.ZeroCelsius + physic.Temperature(tenths)*100*physic.MilliKelvin
	tenths = int64(frame[0])*10 + int64(frame[1])
	e.Humidity = physic.RelativeHumidity(tenths) * physic.PercentRH / 10

	return nil
}

func (d *Device) frame() ([5]byte, error) {
	var frame [5]byte

	if err := d.pin.Out(gpio.Low); err != nil {
		return frame, fmt.Errorf("dht11: could not send start signal: %w", err)
	}
	time.Sleep(startLow)
	if err := d.pin.Out(gpio.High); err != nil {
		return frame, fmt.Errorf("dht11: could not send start signal: %w", err)
	}
	busyWait(startHigh)
	if err := d.pin.In(gpio.PullUp, gpio.NoEdge); err != nil {
		return frame, fmt.Errorf("dht11: could not release line: %w", err)
	}

	// The sensor answers low, high, then low before the first bit.
	for _, l := range []gpio.Level{gpio.High, gpio.Low, gpio.High} {
		if err := d.waitWhile(l); err != nil {
			return frame, fmt.Errorf("dht11: no response: %w", err)
		}
	}

	for i := range frame {
		b, err := d.readByte()
		if err != nil {
			return frame, fmt.Errorf("dht11: could not read byte %d: %w", i, err)
		}
		frame[i] = b
	}

	return frame, nil
}

func (d *Device) readByte() (byte, error) {
	var b byte
	for i := 0; i < 8; i++ {
		if err := d.waitWhile(gpio.Low); err != nil {
			return 0, err
		}
		busyWait(bitSample)
		if d.pin.Read() == gpio.High {
			b |= 1 << (7 - i)
			if err := d.waitWhile(gpio.High); err != nil {
				return 0, err
			}
		}
	}
	return b, nil
}

// waitWhile polls the line until it leaves level l.
func (d *Device) waitWhile(l gpio.Level) error {
	deadline := time.Now().Add(d.timeout)
	for d.pin.Read() == l {
		if time.Now().After(deadline) {
			return ErrTimeout
		}
	}
	return nil
}

// busyWait spins for t; time.Sleep is too coarse for the bit timings.
func busyWait(t time.Duration) {
	for start := time.Now(); time.Since(start) < t; {
	}
}
