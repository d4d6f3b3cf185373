package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"
	"time"
)

type config struct {
	Bus        string
	PPGAddr    uint
	ThermoAddr uint
	DHTPin     string

	// Poll is how often the PPG FIFO is emptied. The sample period itself
	// comes from the sensor configuration.
	Poll   time.Duration
	Report time.Duration
	Window int

	// Stable is the number of consecutive reports with a valid heart rate
	// and SpO2 that end a measurement.
	Stable  int
	Timeout time.Duration

	// MinIR is the infrared level below which no finger is on the sensor.
	MinIR uint

	// Calibrate adjusts the LED currents before measuring.
	Calibrate bool

	Log struct {
		Level  string
		Format string
	}
}

// loadConfig reads the configuration from the environment, then lets flags
// override it.
func loadConfig(args []string) (*config, error) {
	cfg := &config{}

	fs := flag.NewFlagSet("vitals", flag.ContinueOnError)
	fs.StringVar(&cfg.Bus, "bus", getEnv("VITALS_I2C_BUS", ""), "I²C bus name (\"\" for the first available)")
	fs.UintVar(&cfg.PPGAddr, "ppg-addr", getEnvUint("VITALS_PPG_ADDR", 0x57), "MAX30102 address")
	fs.UintVar(&cfg.ThermoAddr, "thermo-addr", getEnvUint("VITALS_THERMO_ADDR", 0x5A), "MLX90614 address")
	fs.StringVar(&cfg.DHTPin, "dht-pin", getEnv("VITALS_DHT_PIN", ""), "DHT11 GPIO pin name (\"\" to disable)")
	fs.DurationVar(&cfg.Poll, "poll", getEnvDuration("VITALS_POLL", 100*time.Millisecond), "PPG FIFO polling interval")
	fs.DurationVar(&cfg.Report, "report", getEnvDuration("VITALS_REPORT", time.Second), "report interval")
	fs.IntVar(&cfg.Window, "window", getEnvInt("VITALS_WINDOW", 250), "number of samples in the estimation window")
	fs.IntVar(&cfg.Stable, "stable", getEnvInt("VITALS_STABLE", 5), "valid reports in a row that finish a measurement")
	fs.DurationVar(&cfg.Timeout, "timeout", getEnvDuration("VITALS_TIMEOUT", time.Minute), "measurement time limit (0 for none)")
	fs.UintVar(&cfg.MinIR, "min-ir", getEnvUint("VITALS_MIN_IR", 50000), "infrared level of a finger on the sensor")
	fs.BoolVar(&cfg.Calibrate, "calibrate", getEnv("VITALS_CALIBRATE", "") == "true", "calibrate the LED currents on start")
	fs.StringVar(&cfg.Log.Level, "log-level", getEnv("LOG_LEVEL", "info"), "debug, info, warn or error")
	fs.StringVar(&cfg.Log.Format, "log-format", getEnv("LOG_FORMAT", "console"), "json or console")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// maxAddr is the highest 7-bit I²C address.
const maxAddr = 0x7F

func (c *config) validate() error {
	if c.PPGAddr > maxAddr {
		return fmt.Errorf("invalid MAX30102 address %#x: must be at most %#x", c.PPGAddr, maxAddr)
	}
	if c.ThermoAddr > maxAddr {
		return fmt.Errorf("invalid MLX90614 address %#x: must be at most %#x", c.ThermoAddr, maxAddr)
	}
	if c.Poll <= 0 || c.Report <= 0 {
		return errors.New("poll and report intervals must be positive")
	}
	if c.Stable < 1 {
		return fmt.Errorf("invalid stable count %d: must be at least 1", c.Stable)
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if v, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return v
	}
	return defaultValue
}

func getEnvUint(key string, defaultValue uint) uint {
	// base 0 accepts 0x57
	if v, err := strconv.ParseUint(os.Getenv(key), 0, 16); err == nil {
		return uint(v)
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if v, err := time.ParseDuration(os.Getenv(key)); err == nil {
		return v
	}
	return defaultValue
}
