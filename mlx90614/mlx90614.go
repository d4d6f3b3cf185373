// Package mlx90614 reads the object and ambient temperatures of a MLX90614
// infrared thermometer over SMBus (I²C).
package mlx90614

import (
	"errors"
	"fmt"

	"periph.io/x/periph/conn/i2c"
	"periph.io/x/periph/conn/physic"
)

// Register is a MLX90614 RAM or EEPROM address.
type Register byte

// Register addresses
const (
	RegTA      Register = 0x06 // ambient temperature
	RegTObj1   Register = 0x07 // object temperature, zone 1
	RegTObj2   Register = 0x08 // object temperature, zone 2
	RegEmiss   Register = 0x04
	RegToMax   Register = 0x20
	RegToMin   Register = 0x21
	RegPWMCtrl Register = 0x22
	RegConfig  Register = 0x24
	RegID1     Register = 0x3C
	RegID2     Register = 0x3D
	RegID3     Register = 0x3E
	RegID4     Register = 0x3F
)

// Addr is the default SMBus address.
const Addr = 0x5A

const (
	// resolution is the temperature step of one code, in K.
	resolution  = 0.02
	zeroCelsius = 273.15
)

// ErrNotDevice is returned when the ID registers read as all zeros or all
// ones.
var ErrNotDevice = errors.New("mlx90614: no device answering")

// ToCelsius converts a temperature register code to °C.
func ToCelsius(code uint16) float64 {
	return float64(code)*resolution - zeroCelsius
}

// Device defines a MLX90614 device.
type Device struct {
	dev *i2c.Dev
}

// New returns the MLX90614 device on bus. It checks that a device answers by
// reading its ID.
func New(bus i2c.Bus, addr uint16) (*Device, error) {
	if addr == 0 {
		addr = Addr
	}
	d := &Device{
		dev: &i2c.Dev{
			Addr: addr,
			Bus:  bus,
		},
	}

	id, err := d.ID()
	if err != nil {
		return nil, err
	}
	if id == 0 || id == 0xFFFF_FFFF {
		return nil, ErrNotDevice
	}

	return d, nil
}

// Read16 reads a 16-bit word from reg. The device answers LSB, MSB and a
// packet error code, which is ignored.
func (d *Device) Read16(reg Register) (uint16, error) {
	b := make([]byte, 3)
	if err := d.dev.Tx([]byte{byte(reg)}, b); err != nil {
		return 0, fmt.Errorf("mlx90614: could not read %#x: %w", reg, err)
	}

	return uint16(b[1])<<8 | uint16(b[0]), nil
}

// ID returns the first 32 bits of the device ID, ID2 in the high word and ID1
// in the low word.
func (d *Device) ID() (uint32, error) {
	lo, err := d.Read16(RegID1)
	if err != nil {
		return 0, err
	}
	hi, err := d.Read16(RegID2)
	if err != nil {
		return 0, err
	}
	return uint32(hi)<<16 | uint32(lo), nil
}

func (d *Device) temperature(reg Register) (float64, error) {
	code, err := d.Read16(reg)
	if err != nil {
		return 0, err
	}
	return ToCelsius(code), nil
}

// ObjectTemp returns the temperature of the object in front of the sensor
// in °C. A failed read is reported as an error, not as a zero code.
func (d *Device) ObjectTemp() (float64, error) {
	return d.temperature(RegTObj1)
}

// AmbientTemp returns the temperature of the sensor die in °C.
func (d *Device) AmbientTemp() (float64, error) {
	return d.temperature(RegTA)
}

// SenseEnv fills e.Temperature with the object temperature.
func (d *Device) SenseEnv(e *physic.Env) error {
	code, err := d.Read16(RegTObj1)
	if err != nil {
		return err
	}
	// 0.02K per code.
	e.Temperature = physic.Temperature(code) * 20 * physic.MilliKelvin
	return nil
}

// String implements conn.Resource.
func (d *Device) String() string {
	return fmt.Sprintf("MLX90614{%s}", d.dev)
}

// Halt implements conn.Resource. The device has nothing to stop.
func (d *Device) Halt() error {
	return nil
}
