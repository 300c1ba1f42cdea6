package payload

import (
	"fmt"
	"time"
)

// dayTensOffset is added by the meter to the tens digit of the day. The
// vendor software shows the same +40 day.
const dayTensOffset = 4

// Tenths is a decibel reading in tenths of a dB.
type Tenths uint16

// Float64 returns the reading in dB.
func (t Tenths) Float64() float64 { return float64(t) / 10 }

func (t Tenths) String() string {
	return fmt.Sprintf("%d.%d", t/10, t%10)
}

// MarshalJSON emits the reading as a number with one decimal place.
func (t Tenths) MarshalJSON() ([]byte, error) {
	return []byte(t.String()), nil
}

// checkDigits validates that every byte in b is a raw decimal digit.
func checkDigits(b []byte, offset int) error {
	for i, d := range b {
		if d > 9 {
			return &DecodeError{Err: ErrInvalidDigit, Offset: offset + i, Value: d}
		}
	}
	return nil
}

// pair assembles two raw digits into a two-digit number.
func pair(tens, ones byte) int {
	return int(tens)*10 + int(ones)
}

// decodeDecibels assembles d1 d2 d3 . d4 into tenths of a dB.
func decodeDecibels(b []byte) Tenths {
	return Tenths(int(b[0])*1000 + int(b[1])*100 + int(b[2])*10 + int(b[3]))
}

// decodeTimestamp assembles the six date digits and six time digits into a
// device-local wall clock time. The device has no notion of time zones; UTC
// is used as a neutral location.
func decodeTimestamp(date, clock []byte) (time.Time, error) {
	year := 2000 + pair(date[0], date[1])
	month := pair(date[2], date[3])
	day := pair(date[4], date[5]) - dayTensOffset*10
	hour := pair(clock[0], clock[1])
	minute := pair(clock[2], clock[3])
	second := pair(clock[4], clock[5])

	stamp := fmt.Sprintf("%04d-%02d-%02d %02d:%02d:%02d", year, month, day, hour, minute, second)
	if month < 1 || month > 12 || day < 1 || hour > 23 || minute > 59 || second > 59 {
		return time.Time{}, &DecodeError{Err: ErrInvalidTimestamp, Offset: dateOffset, Detail: stamp}
	}
	ts := time.Date(year, time.Month(month), day, hour, minute, second, 0, time.UTC)
	if ts.Day() != day || int(ts.Month()) != month {
		return time.Time{}, &DecodeError{Err: ErrInvalidTimestamp, Offset: dateOffset, Detail: stamp}
	}
	return ts, nil
}
