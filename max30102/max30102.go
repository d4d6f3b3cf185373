// Package max30102 reads the infrared and red LED channels of a MAX30102
// pulse oximetry sensor over I²C.
//
// Datasheet:
// https://datasheets.maximintegrated.com/en/ds/MAX30102.pdf
package max30102

import (
	"errors"
	"fmt"
	"time"

	"periph.io/x/periph/conn/i2c"
)

var (
	// ErrNotDevice throws an error when the device part ID does not match a
	// MAX30102 signature (0x15).
	ErrNotDevice = errors.New("max30102: part ID does not match (0x15)")
	// ErrTimeout is returned when the device does not raise a flag in time.
	ErrTimeout = errors.New("max30102: timeout waiting for device")
)

// DefaultTimeout bounds every wait on a device flag.
const DefaultTimeout = 100 * time.Millisecond

// Device defines a MAX30102 device.
type Device struct {
	dev     *i2c.Dev
	timeout time.Duration
}

// New returns the MAX30102 device on bus. By default, this sets the LED pulse
// amplitude to 6.2mA, with a pulse width of 411us, an ADC range of 4096nA, an
// average of 4 samples per FIFO word and a sample rate of 100 samples/s.
//
// Argument "addr" can be used to specify alternative address if default (0x57) is unavailable and changed.
func New(bus i2c.Bus, addr uint16) (*Device, error) {
	if addr == 0 {
		addr = Addr
	}

	d := &Device{
		dev: &i2c.Dev{
			Addr: addr,
			Bus:  bus,
		},
		timeout: DefaultTimeout,
	}

	part, err := d.Read(RegPartID)
	if err != nil {
		return nil, fmt.Errorf("max30102: could not get part ID: %w", err)
	}
	if part != PartID {
		return nil, ErrNotDevice
	}

	if err := d.Reset(); err != nil {
		return nil, fmt.Errorf("max30102: could not reset device: %w", err)
	}
	if err := d.setup(); err != nil {
		return nil, fmt.Errorf("max30102: could not initialize device: %w", err)
	}

	return d, nil
}

func (d *Device) setup() error {
	for _, w := range []struct {
		reg  Register
		data byte
	}{
		{FIFOCfg, SampleAvg4 | RollOver | 0x0F},
		{ModeCfg, ModeSpO2},
		{SpO2Cfg, ADC4096 | SR100 | PW411},
		{Led1PA, defaultPulseAmp},
		{Led2PA, defaultPulseAmp},
		{IntEna1, NewFIFOData},
		{FIFOWrPtr, 0},
		{OvfCount, 0},
		{FIFORdPtr, 0},
	} {
		if err := d.Write(w.reg, w.data); err != nil {
			return err
		}
	}
	return nil
}

// Close puts the device in power-save mode. The bus is left open.
func (d *Device) Close() error {
	return d.Shutdown()
}

// SetTimeout changes the bound on every wait on a device flag.
func (d *Device) SetTimeout(t time.Duration) {
	d.timeout = t
}

// RevID returns the revision ID of the device.
func (d *Device) RevID() (byte, error) {
	rev, err := d.Read(RegRevID)
	if err != nil {
		return 0, fmt.Errorf("max30102: could not get revision ID: %w", err)
	}
	return rev, nil
}

// sampleRates lists the SR codes of SpO2Cfg in samples/s.
var sampleRates = [...]int{50, 100, 200, 400, 800, 1000, 1600, 3200}

// SamplePeriod returns the time between two FIFO words: the sample period
// times the number of samples averaged per word.
func (d *Device) SamplePeriod() (time.Duration, error) {
	spo2, err := d.Read(SpO2Cfg)
	if err != nil {
		return 0, fmt.Errorf("max30102: could not read sample rate: %w", err)
	}
	fifo, err := d.Read(FIFOCfg)
	if err != nil {
		return 0, fmt.Errorf("max30102: could not read sample average: %w", err)
	}

	rate := sampleRates[(spo2&^srMask)>>2]
	avg := 1 << (fifo >> 5)
	if avg > 32 {
		avg = 32
	}

	return time.Duration(avg) * time.Second / time.Duration(rate), nil
}

// waitUntil polls reg until flag reads as bit (1 or 0), or the timeout
// expires.
func (d *Device) waitUntil(reg Register, flag byte, bit byte) error {
	if bit > 1 {
		return fmt.Errorf("invalid bit %v, it should be 1 or 0", bit)
	}

	deadline := time.Now().Add(d.timeout)
	for {
		state, err := d.Read(reg)
		if err != nil {
			return fmt.Errorf("could not wait for %#x in %#x to be %v: %w", flag, reg, bit, err)
		}
		if (state&flag != 0) == (bit == 1) {
			return nil
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("%#x in %#x never became %v: %w", flag, reg, bit, ErrTimeout)
		}
	}
}

// Temperature returns the die temperature of the device in °C.
func (d *Device) Temperature() (float64, error) {
	if err := d.Write(TempCfg, TempEna); err != nil {
		return 0, fmt.Errorf("max30102: could not enable temperature: %w", err)
	}
	if err := d.waitUntil(TempCfg, TempEna, 0); err != nil {
		return 0, fmt.Errorf("max30102: could not read temperature: %w", err)
	}

	i, err := d.Read(TempInt)
	if err != nil {
		return 0, fmt.Errorf("max30102: could not read integer part of temperature: %w", err)
	}

	f, err := d.Read(TempFrac)
	if err != nil {
		return 0, fmt.Errorf("max30102: could not read fractional part of temperature: %w", err)
	}

	return float64(int8(i)) + (float64(f&0x0F) * 0.0625), nil
}

// Read reads a single byte from a register.
func (d *Device) Read(reg Register) (byte, error) {
	b := make([]byte, 1)
	if err := d.dev.Tx([]byte{byte(reg)}, b); err != nil {
		return 0, fmt.Errorf("max30102: could not read byte: %w", err)
	}

	return b[0], nil
}

// ReadBytes read n bytes from a register.
func (d *Device) ReadBytes(reg Register, n int) ([]byte, error) {
	b := make([]byte, n)
	if err := d.dev.Tx([]byte{byte(reg)}, b); err != nil {
		return nil, fmt.Errorf("max30102: could not read %d bytes: %w", n, err)
	}

	return b, nil
}

// Write writes a byte to a register.
func (d *Device) Write(reg Register, data byte) error {
	n, err := d.dev.Write([]byte{byte(reg), data})
	if err != nil {
		return fmt.Errorf("max30102: could not write %#x: %w", reg, err)
	}
	n-- // remove register write
	if n != 1 {
		return fmt.Errorf("max30102: wrong number of bytes written: want %d, got %d", 1, n)
	}

	return nil
}

// Reset resets the device. All configurations, thresholds, and data registers
// are reset to their power-on state.
func (d *Device) Reset() error {
	if err := d.Write(ModeCfg, ResetControl); err != nil {
		return fmt.Errorf("max30102: could not reset: %w", err)
	}
	if err := d.waitUntil(ModeCfg, ResetControl, 0); err != nil {
		return fmt.Errorf("max30102: could not reset: %w", err)
	}

	return nil
}

// decode splits a FIFO word into its IR and red values. The red LED comes
// first, each value is 3 bytes wide with 18 significant bits.
func decode(b []byte) (ir, red uint32) {
	red = (uint32(b[0])<<16 | uint32(b[1])<<8 | uint32(b[2])) & SampleMask
	ir = (uint32(b[3])<<16 | uint32(b[4])<<8 | uint32(b[5])) & SampleMask
	return ir, red
}

// Sample waits for a new FIFO sample and returns the raw IR and red values.
// A failed read is reported as an error, never as a zero sample.
func (d *Device) Sample() (ir, red uint32, err error) {
	if err := d.waitUntil(IntStat1, NewFIFOData, 1); err != nil {
		return 0, 0, fmt.Errorf("max30102: no new sample: %w", err)
	}

	b, err := d.ReadBytes(FIFOData, wordSize)
	if err != nil {
		return 0, 0, err
	}
	ir, red = decode(b)

	return ir, red, nil
}

// Batch returns every sample waiting in the FIFO, oldest first.
func (d *Device) Batch() (ir, red []uint32, err error) {
	n, err := d.available()
	if err != nil {
		return nil, nil, fmt.Errorf("max30102: error reading available data: %w", err)
	}

	ir = make([]uint32, n)
	red = make([]uint32, n)
	for i := 0; i < n; i++ {
		b, err := d.ReadBytes(FIFOData, wordSize)
		if err != nil {
			return nil, nil, err
		}
		ir[i], red[i] = decode(b)
	}

	return ir, red, nil
}

// Drain discards every sample waiting in the FIFO.
func (d *Device) Drain() error {
	_, _, err := d.Batch()
	return err
}

func (d *Device) available() (int, error) {
	wr, err := d.Read(FIFOWrPtr)
	if err != nil {
		return 0, err
	}
	rd, err := d.Read(FIFORdPtr)
	if err != nil {
		return 0, err
	}

	return (int(wr) + fifoDepth - int(rd)) % fifoDepth, nil
}

// Calibrate raises the current of each LED in 0.5mA steps until the mean of
// its channel reaches 40% of the ADC full scale, or 5mA. It returns the
// currents set.
func (d *Device) Calibrate() (irAmp, redAmp float64, err error) {
	const target = 0.4 * SampleMask
	const maxAmp = 5.0
	const settle = 40 * time.Millisecond

	if _, err = d.Options(
		IRPulseAmp(irAmp),
		RedPulseAmp(redAmp),
	); err != nil {
		return 0, 0, fmt.Errorf("max30102: could not calibrate sensor: %w", err)
	}

	var ir, red []uint32
	for mean(ir) < target && irAmp < maxAmp {
		irAmp += 0.5
		if _, err = d.Options(IRPulseAmp(irAmp)); err != nil {
			return 0, 0, fmt.Errorf("max30102: could not calibrate sensor: %w", err)
		}
		time.Sleep(settle)

		if ir, _, err = d.Batch(); err != nil {
			return 0, 0, fmt.Errorf("max30102: could not calibrate sensor: %w", err)
		}
	}

	for mean(red) < target && redAmp < maxAmp {
		redAmp += 0.5
		if _, err = d.Options(RedPulseAmp(redAmp)); err != nil {
			return 0, 0, fmt.Errorf("max30102: could not calibrate sensor: %w", err)
		}
		time.Sleep(settle)

		if _, red, err = d.Batch(); err != nil {
			return 0, 0, fmt.Errorf("max30102: could not calibrate sensor: %w", err)
		}
	}

	return irAmp, redAmp, nil
}

func mean(a []uint32) float64 {
	if len(a) == 0 {
		return 0
	}

	r := 0.0
	for _, v := range a {
		r += float64(v)
	}

	return r / float64(len(a))
}

// Shutdown sets the device into power-save mode.
func (d *Device) Shutdown() error {
	_, err := d.config(ModeCfg, ^modeSHDN, modeSHDN)

	return err
}

// Startup wakes the device from power-save mode.
func (d *Device) Startup() error {
	_, err := d.config(ModeCfg, ^modeSHDN, 0)

	return err
}
