package vitals

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Mode is the reporting mode of a status line.
type Mode string

const (
	// Standby lines report an unavailable estimate as "0".
	Standby Mode = "STANDBY"
	// Working lines report an unavailable estimate as "MEASURING".
	Working Mode = "WORKING"

	measuring = "MEASURING"
)

// ErrBadStatusLine is returned when a status line cannot be parsed.
var ErrBadStatusLine = errors.New("vitals: malformed status line")

// Reading is one report of every sensor of the station, or a measurement
// event when Event is set.
type Reading struct {
	Mode        Mode
	Event       Event
	ObjectTemp  float64 // °C, infrared thermometer
	AmbientTemp float64 // °C
	HeartRate   Estimate
	SpO2        Estimate

	// FingerprintID identifies the user of a Final reading, 0 when unknown.
	FingerprintID int
}

// StatusLine formats the reading as
//
//	<mode>,<object °C>,<ambient °C>,<bpm>,<spo2>
//
// Invalid estimates are written as "0" in Standby mode and "MEASURING" in
// Working mode. An empty Mode is written as Standby.
//
// Events are always written in Working mode:
//
//	WORKING,START
//	WORKING,FINAL,<id>,<object °C>,<ambient °C>,<bpm>,<spo2>
//	WORKING,NO_FINGER
//	WORKING,TIMEOUT
func (r Reading) StatusLine() string {
	switch r.Event {
	case "":
	case Final:
		return fmt.Sprintf("%s,%s,%d,%.2f,%.2f,%s,%s",
			Working, Final, r.FingerprintID, r.ObjectTemp, r.AmbientTemp,
			Standby.estimate(r.HeartRate), Standby.estimate(r.SpO2))
	default:
		return fmt.Sprintf("%s,%s", Working, r.Event)
	}

	mode := r.Mode
	if mode == "" {
		mode = Standby
	}
	return fmt.Sprintf("%s,%.2f,%.2f,%s,%s",
		mode, r.ObjectTemp, r.AmbientTemp,
		mode.estimate(r.HeartRate), mode.estimate(r.SpO2))
}

func (m Mode) estimate(e Estimate) string {
	if e.Valid {
		return strconv.Itoa(int(e.Value))
	}
	if m == Working {
		return measuring
	}
	return "0"
}

// ParseStatusLine parses a line written by Reading.StatusLine. Estimates
// reported as "0" or "MEASURING" are returned invalid with ErrNoSignal.
func ParseStatusLine(line string) (Reading, error) {
	parts := strings.Split(strings.TrimSpace(line), ",")
	if len(parts) >= 2 && Mode(parts[0]) == Working {
		switch ev := Event(parts[1]); ev {
		case Start, NoFinger, Timeout:
			if len(parts) != 2 {
				return Reading{}, fmt.Errorf("%w: %q", ErrBadStatusLine, line)
			}
			return Reading{Mode: Working, Event: ev}, nil
		case Final:
			return parseFinal(line, parts)
		}
	}

	if len(parts) != 5 {
		return Reading{}, fmt.Errorf("%w: %q", ErrBadStatusLine, line)
	}

	r := Reading{Mode: Mode(parts[0])}
	if r.Mode != Standby && r.Mode != Working {
		return Reading{}, fmt.Errorf("%w: unknown mode %q", ErrBadStatusLine, parts[0])
	}
	if err := r.parseValues(parts[1:]); err != nil {
		return Reading{}, err
	}

	return r, nil
}

func parseFinal(line string, parts []string) (Reading, error) {
	if len(parts) != 7 {
		return Reading{}, fmt.Errorf("%w: %q", ErrBadStatusLine, line)
	}

	r := Reading{Mode: Working, Event: Final}
	var err error
	if r.FingerprintID, err = strconv.Atoi(parts[2]); err != nil {
		return Reading{}, fmt.Errorf("%w: fingerprint ID: %v", ErrBadStatusLine, err)
	}
	if err := r.parseValues(parts[3:]); err != nil {
		return Reading{}, err
	}

	return r, nil
}

// parseValues parses the object and ambient temperatures, the heart rate and
// the SpO2, in this order.
func (r *Reading) parseValues(fields []string) error {
	var err error
	if r.ObjectTemp, err = strconv.ParseFloat(fields[0], 64); err != nil {
		return fmt.Errorf("%w: object temperature: %v", ErrBadStatusLine, err)
	}
	if r.AmbientTemp, err = strconv.ParseFloat(fields[1], 64); err != nil {
		return fmt.Errorf("%w: ambient temperature: %v", ErrBadStatusLine, err)
	}
	if r.HeartRate, err = parseEstimate(fields[2]); err != nil {
		return fmt.Errorf("%w: heart rate: %v", ErrBadStatusLine, err)
	}
	if r.SpO2, err = parseEstimate(fields[3]); err != nil {
		return fmt.Errorf("%w: SpO2: %v", ErrBadStatusLine, err)
	}
	return nil
}

func parseEstimate(s string) (Estimate, error) {
	if s == measuring || s == "0" {
		return invalid(ErrNoSignal), nil
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return Estimate{}, err
	}
	return Estimate{Value: float64(v), Valid: true}, nil
}
