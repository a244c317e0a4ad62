package serialcomm

import (
	"fmt"
	"strings"

	"github.com/sigurn/crc16"
)

var modbusTable = crc16.MakeTable(crc16.CRC16_MODBUS)

// Checksum returns the CRC16/MODBUS digest of a frame. It is only reported in
// logs; it is never appended to the wire bytes.
func Checksum(frame []byte) uint16 {
	return crc16.Checksum(frame, modbusTable)
}

// IsVisible reports whether b is printable ASCII (0x20..0x7E).
func IsVisible(b byte) bool {
	return b >= 0x20 && b <= 0x7E
}

// Escape renders b with printable bytes as-is and everything else escaped.
func Escape(b []byte) string {
	var sb strings.Builder
	for _, c := range b {
		sb.WriteString(escapeByte(c))
	}
	return sb.String()
}

func escapeByte(c byte) string {
	switch {
	case IsVisible(c):
		return string(rune(c))
	case c == '\n':
		return `\n`
	case c == '\r':
		return `\r`
	default:
		return fmt.Sprintf(`\x%02x`, c)
	}
}

// Segment is a run of bytes that are either all visible or all invisible.
type Segment struct {
	Text    string
	Visible bool
}

// Segments splits b into alternating visible and escaped invisible runs.
func Segments(b []byte) []Segment {
	var out []Segment
	var sb strings.Builder
	visible := true
	for i, c := range b {
		v := IsVisible(c)
		if i > 0 && v != visible {
			out = append(out, Segment{Text: sb.String(), Visible: visible})
			sb.Reset()
		}
		visible = v
		sb.WriteString(escapeByte(c))
	}
	if sb.Len() > 0 {
		out = append(out, Segment{Text: sb.String(), Visible: visible})
	}
	return out
}
