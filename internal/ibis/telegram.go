// Package ibis builds the IBIS telegrams the ESP32 controller sends for a
// route, so operators can check command codes before exporting.
package ibis

import "fmt"

const (
	cr = 0x0D
	// parityBase is 0x7F with the trailing CR already folded in.
	parityBase = 0x7F ^ cr
)

// Line is the line-number telegram content ("l" + 3 digits).
func Line(n int) string {
	return "l" + pad(n, 3)
}

// Destination is the destination-number telegram content ("z" + 3 digits).
func Destination(n int) string {
	return "z" + pad(n, 3)
}

// Encode frames telegram content for the wire: content, CR, parity byte.
func Encode(content string) []byte {
	frame := make([]byte, 0, len(content)+2)
	frame = append(frame, content...)
	frame = append(frame, cr, Parity(content))
	return frame
}

// Parity is the IBIS checksum over content.
func Parity(content string) byte {
	p := byte(parityBase)
	for i := 0; i < len(content); i++ {
		p ^= content[i]
	}
	return p
}

// pad left-pads n with zeros to at least digits characters.
func pad(n, digits int) string {
	if n < 0 {
		n = 0
	}
	return fmt.Sprintf("%0*d", digits, n)
}
