package max30102

// Register is a MAX30102 register address.
type Register byte

// Register addresses
const (
	IntStat1         Register = 0x00
	IntStat2         Register = 0x01
	IntEna1          Register = 0x02
	IntEna2          Register = 0x03
	FIFOWrPtr        Register = 0x04
	OvfCount         Register = 0x05
	FIFORdPtr        Register = 0x06
	FIFOData         Register = 0x07
	FIFOCfg          Register = 0x08
	ModeCfg          Register = 0x09
	SpO2Cfg          Register = 0x0A
	Led1PA           Register = 0x0C
	Led2PA           Register = 0x0D
	PilotPA          Register = 0x10
	MultiLedModeS2S1 Register = 0x11
	MultiLedModeS4S3 Register = 0x12
	TempInt          Register = 0x1F
	TempFrac         Register = 0x20
	TempCfg          Register = 0x21
	RegRevID         Register = 0xFE
	RegPartID        Register = 0xFF
)

// Interrupt flags
const (
	// Status 1
	AlmostFull            byte = (1 << 7)
	NewFIFOData           byte = (1 << 6)
	AmbientLightCancelOvf byte = (1 << 5)
	PowerReady            byte = (1 << 0)

	// Status 2
	DieTempReady byte = (1 << 1)
)

// Device constants
const (
	Addr   = 0x57
	PartID = 0x15

	// fifoDepth is the number of samples the FIFO can hold.
	fifoDepth = 32
	// wordSize is the number of bytes of one FIFO sample (red, then IR).
	wordSize = 6
	// SampleMask keeps the 18 bits of an ADC value.
	SampleMask = 0x3FFFF
)

// Settings
const (
	TempEna      byte = 0b0000_0001
	ModeHR       byte = 0b010
	ModeSpO2     byte = 0b011
	ModeMultiLed byte = 0b111
	modeMask     byte = 0b1111_1000

	ResetControl byte = 0b0100_0000
	modeSHDN     byte = 0b1000_0000
)

// FIFO configuration
const (
	SampleAvg1 byte = iota << 5
	SampleAvg2
	SampleAvg4
	SampleAvg8
	SampleAvg16
	SampleAvg32

	smpAveMask byte = 0b000_1_1111

	RollOver     byte = 0b0001_0000
	fifoFullMask byte = 0b1111_0000
)

// SpO2 ADC Range Control
const (
	ADC2048 byte = iota << 5
	ADC4096
	ADC8192
	ADC16384

	adcMask byte = 0b1_00_111_11
)

// SpO2 Sample Rate Control
const (
	SR50 byte = (iota << 2)
	SR100
	SR200
	SR400
	SR800
	SR1000
	SR1600
	SR3200

	srMask byte = 0b1_11_000_11
)

// LED Pulse Width Control
const (
	PW69 byte = iota
	PW118
	PW215
	PW411

	pwMask byte = 0b1_11_111_00
)

// Default LED pulse amplitude register value (6.2mA).
const defaultPulseAmp byte = 0x1F
