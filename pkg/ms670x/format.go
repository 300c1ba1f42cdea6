package ms670x

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/kentavv/ms670x/internal/frame"
	"github.com/kentavv/ms670x/internal/payload"
	"github.com/kentavv/ms670x/internal/stream"
)

const timestampLayout = "2006-01-02 15:04:05"

// Output formats accepted by Format.
const (
	FormatJSON = "json"
	FormatText = "text"
)

type summary struct {
	Event      stream.EventKind     `json:"event"`
	Frame      string               `json:"frame,omitempty"`
	Marker     string               `json:"marker,omitempty"`
	BeforeSync bool                 `json:"before_sync,omitempty"`
	Timestamp  string               `json:"timestamp,omitempty"`
	Decibels   *payload.Tenths      `json:"db,omitempty"`
	Range      *frame.Range         `json:"range,omitempty"`
	Flags      *payload.StatusFlags `json:"flags,omitempty"`
	RawHex     string               `json:"raw_hex,omitempty"`
	Error      string               `json:"error,omitempty"`
}

// Format renders res as a single line in the given format.
func Format(res Result, format string) (string, error) {
	switch format {
	case FormatJSON, "":
		return formatJSON(res)
	case FormatText:
		return formatText(res), nil
	default:
		return "", fmt.Errorf("unknown output format %q", format)
	}
}

func formatJSON(res Result) (string, error) {
	s := summary{Event: res.Kind, BeforeSync: res.BeforeSync}
	if res.Frame != frame.KindUnknown {
		s.Frame = res.Frame.String()
	}
	if res.Marker != 0 {
		s.Marker = fmt.Sprintf("0x%02X", res.Marker)
	}
	switch res.Kind {
	case stream.EventRecord:
		rec := res.Record
		s.Timestamp = rec.Timestamp.Format(timestampLayout)
		s.Decibels = &rec.Decibels
		s.Range = &rec.Range
		s.Flags = &rec.Flags
	case stream.EventDecodeFailure, stream.EventShortRead:
		s.RawHex = fmt.Sprintf("%X", res.Payload)
	}
	if res.Err != nil {
		s.Error = res.Err.Error()
	}
	data, err := json.Marshal(s)
	if err != nil {
		return "", fmt.Errorf("marshal %s event: %w", res.Kind, err)
	}
	return string(data), nil
}

// formatText renders the classic one-line console form, e.g.
//
//	pre-recorded 2016-07-03 19:01:12 51.7 dbA slow(1s) [40, 90]
func formatText(res Result) string {
	switch res.Kind {
	case stream.EventRecord:
		rec := res.Record
		parts := []string{
			rec.Source.String(),
			rec.Timestamp.Format(timestampLayout),
			rec.Decibels.String(),
			"db" + rec.Flags.Weighting.String(),
			rec.Flags.Response.String(),
			rec.Range.String(),
		}
		if rec.Flags.UnderRange {
			parts = append(parts, "under")
		}
		if rec.Flags.OverRange {
			parts = append(parts, "over")
		}
		if rec.Flags.MaxEnabled {
			parts = append(parts, "max_enabled")
		}
		if rec.Flags.HasUnknownBits() {
			parts = append(parts, fmt.Sprintf("unknown bits:%#b", rec.Flags.UnknownBits))
		}
		if rec.Flags.MemoryFull {
			parts = append(parts, "mem-full")
		}
		if rec.Flags.LowBattery {
			parts = append(parts, "low_battery")
		}
		return strings.Join(parts, " ")
	case stream.EventDecodeFailure:
		return fmt.Sprintf("Could not decode %s payload: %v", res.Frame, res.Err)
	case stream.EventEndOfDump:
		return "Done reading pre-recorded measurements"
	case stream.EventEndOfDumpUnconfirmed:
		return fmt.Sprintf("Done reading pre-recorded measurements (unconfirmed marker %d)", res.Marker)
	case stream.EventUnknownMarker:
		return fmt.Sprintf("Unknown start-end flag: %d", res.Marker)
	case stream.EventShortRead:
		if res.Err == nil {
			return stream.ErrShortRead.Error()
		}
		return res.Err.Error()
	case stream.EventTimeout:
		return "unable to read from device"
	default:
		return res.Kind.String()
	}
}
