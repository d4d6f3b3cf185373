package vitals

import "time"

// Event marks the start or the end of a measurement.
type Event string

const (
	// Start is raised when a finger is placed on the sensor.
	Start Event = "START"
	// Final is raised when the estimates have been valid long enough.
	Final Event = "FINAL"
	// NoFinger is raised when the finger leaves before a final reading.
	NoFinger Event = "NO_FINGER"
	// Timeout is raised when no final reading came in time.
	Timeout Event = "TIMEOUT"
)

type sessionState int

const (
	idle sessionState = iota
	stateMeasuring
	done
)

// Session follows one measurement, from the finger being placed on the sensor
// to a final reading.
//
// A session ends with Final once Stable checks in a row saw a valid heart rate
// and SpO2, with NoFinger if the finger is removed first, or with Timeout
// when Limit expires. A zero Limit never expires. After Final or Timeout, a new
// session only begins once the finger has been removed.
//
// Methods return the empty Event when nothing happened.
type Session struct {
	Stable int
	Limit  time.Duration

	state   sessionState
	started time.Time
	streak  int
}

// Begin starts a measurement at now, unless one is already running or has
// ended with the finger still on the sensor.
func (s *Session) Begin(now time.Time) Event {
	if s.state != idle {
		return ""
	}
	s.state = stateMeasuring
	s.started = now
	s.streak = 0
	return Start
}

// End is called when the finger leaves the sensor.
func (s *Session) End() Event {
	running := s.state == stateMeasuring
	s.state = idle
	if running {
		return NoFinger
	}
	return ""
}

// Check records the estimates of one report made at now.
func (s *Session) Check(hr, spo2 Estimate, now time.Time) Event {
	if s.state != stateMeasuring {
		return ""
	}

	if hr.Valid && spo2.Valid {
		s.streak++
	} else {
		s.streak = 0
	}

	stable := s.Stable
	if stable < 1 {
		stable = 1
	}
	if s.streak >= stable {
		s.state = done
		return Final
	}
	if s.Limit > 0 && now.Sub(s.started) >= s.Limit {
		s.state = done
		return Timeout
	}
	return ""
}

// Active reports whether a measurement is running.
func (s *Session) Active() bool {
	return s.state == stateMeasuring
}
