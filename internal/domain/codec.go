package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"time"
)

// On disk an interval is the 3-tuple [start, end|null, active] in Unix
// seconds. The end field is authoritative: a numeric end always decodes as
// a closed interval, whatever the active flag says.

// MarshalJSON encodes the interval as [start, end|null, active]
func (i Interval) MarshalJSON() ([]byte, error) {
	if err := i.Validate(); err != nil {
		return nil, err
	}

	var end *int64
	if i.End != nil {
		e := i.End.Unix()
		end = &e
	}

	return json.Marshal([]any{i.Start.Unix(), end, i.IsOpen()})
}

// UnmarshalJSON decodes the [start, end|null, active] tuple
func (i *Interval) UnmarshalJSON(data []byte) error {
	var fields []json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return fmt.Errorf("interval must be an array: %w", err)
	}
	if len(fields) != 3 {
		return fmt.Errorf("interval must have 3 fields, got %d", len(fields))
	}

	start, err := decodeSeconds(fields[0])
	if err != nil {
		return fmt.Errorf("invalid start: %w", err)
	}

	var active bool
	if err := json.Unmarshal(fields[2], &active); err != nil {
		return fmt.Errorf("invalid active flag: %w", err)
	}

	out := Interval{Start: start}
	if !bytes.Equal(bytes.TrimSpace(fields[1]), []byte("null")) {
		end, err := decodeSeconds(fields[1])
		if err != nil {
			return fmt.Errorf("invalid end: %w", err)
		}
		out.End = &end
	}
	if err := out.Validate(); err != nil {
		return err
	}

	*i = out
	return nil
}

func decodeSeconds(raw json.RawMessage) (time.Time, error) {
	var secs uint64
	if err := json.Unmarshal(raw, &secs); err != nil {
		return time.Time{}, err
	}
	if secs > math.MaxInt64 {
		return time.Time{}, fmt.Errorf("timestamp %d out of range", secs)
	}
	return time.Unix(int64(secs), 0), nil
}
