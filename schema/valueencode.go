package schema

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// EncodeDate renders t as YYYY-MM-DD, the canonical date text form.
func EncodeDate(t time.Time) string { return t.Format("2006-01-02") }

// EncodeTime renders t as HH:MM:SS, zero-padded to two digits per field.
func EncodeTime(t time.Time) string { return t.Format("15:04:05") }

// EncodeTimestamp renders t as "YYYY-MM-DD HH:MM:SS", appending the zone
// abbreviation when the source carries one.
func EncodeTimestamp(t time.Time, hasZone bool) string {
	base := t.Format("2006-01-02 15:04:05")
	if !hasZone {
		return base
	}
	zone, _ := t.Zone()
	if zone == "" {
		return base
	}
	return base + " " + zone
}

// EncodeByteArray renders bytes as the "{b1,b2,...}" unsigned-byte array
// literal used for bytes/fixed/decimal-as-bytes source values.
func EncodeByteArray(b []byte) string {
	var sb strings.Builder
	sb.WriteByte('{')
	for i, v := range b {
		if i > 0 {
			sb.WriteByte(',')
		}
		fmt.Fprintf(&sb, "%d", v)
	}
	sb.WriteByte('}')
	return sb.String()
}

// EncodeJSONValue minifies v (already a JSON-shaped Go value — map, slice,
// or json.RawMessage) into single-line JSON text.
func EncodeJSONValue(v any) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// AvroDuration is the months/days/millis triple the Avro logical
// `duration` type carries.
type AvroDuration struct {
	Months int
	Days   int
	Millis int
}

// EncodeAvroDuration renders d as the JSON object
// {"months":M,"days":D,"millis":K}.
func EncodeAvroDuration(d AvroDuration) string {
	return fmt.Sprintf(`{"months":%d,"days":%d,"millis":%d}`, d.Months, d.Days, d.Millis)
}

// PolarsDurationUnit is the unit suffix attached to a polars-style
// human-readable duration.
type PolarsDurationUnit string

const (
	Microsecond PolarsDurationUnit = "microsecond"
	Milisecond  PolarsDurationUnit = "milisecond"
)

// EncodePolarsDuration renders value (already expressed in unit) as a
// human string "<value> <unit>"; the unit suffix is never pluralized.
// Nanosecond-resolution sources should convert to a fractional
// microsecond value before calling this, which renders with two decimal
// places.
func EncodePolarsDuration(value float64, unit PolarsDurationUnit) string {
	label := string(unit)
	if value == float64(int64(value)) {
		return fmt.Sprintf("%d %s", int64(value), label)
	}
	return fmt.Sprintf("%.2f %s", value, label)
}
