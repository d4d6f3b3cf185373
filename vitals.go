// Package vitals estimates heart rate and SpO2 from the infrared and red
// channels of a photoplethysmography sensor such as the MAX30102.
//
// Samples are fed one at a time, at a fixed period, into a Pipeline. The
// pipeline keeps a sliding window of the most recent samples and runs a
// streaming beat detector over the infrared channel. Heart rate and SpO2 are
// computed on demand over the window and returned as an Estimate, which is
// only usable when Valid is true.
package vitals

import (
	"errors"
	"strconv"
)

var (
	// ErrInsufficientSamples is set on an Estimate computed over fewer than
	// MinSamples samples.
	ErrInsufficientSamples = errors.New("vitals: not enough samples")
	// ErrNoSignal is set on an Estimate when the window carries no usable
	// pulse (e.g. no finger is placed on the sensor).
	ErrNoSignal = errors.New("vitals: no pulse detected")
	// ErrOutOfRange is set on an Estimate whose value is physiologically
	// implausible.
	ErrOutOfRange = errors.New("vitals: value out of range")
)

// Estimate is the result of a heart rate or SpO2 computation. Value may be
// set even when Valid is false; Err tells why the estimate was rejected.
type Estimate struct {
	Value float64
	Valid bool
	Err   error
}

func invalid(err error) Estimate {
	return Estimate{Err: err}
}

// String returns the value as an integer, or "invalid".
func (e Estimate) String() string {
	if !e.Valid {
		return "invalid"
	}
	return strconv.Itoa(int(e.Value))
}
